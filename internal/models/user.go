package models

import (
	"github.com/google/uuid"
)

// Quest progress status values. Auto-completion may jump from any
// non-completed status straight to StatusCompleted; a completed entry is
// never regressed by auto-completion.
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusSubmitted  = "submitted"
	StatusCompleted  = "completed"
)

// User represents a farmer account. Accounts are created either on first
// profile completion for a verified phone or through the legacy signup flow.
type User struct {
	BaseModel
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        string     `gorm:"uniqueIndex" json:"phone"`
	Location     string     `json:"location"`
	City         string     `json:"city"`
	Level        string     `json:"level"`
	PasswordHash string     `json:"-"`
	XP           int        `gorm:"column:xp" json:"xp"`
	XPLevel      int        `gorm:"column:xp_level" json:"xpLevel"`
	Onboarded    bool       `json:"onboarded"`
	FarmID       *uuid.UUID `gorm:"type:uuid" json:"farmId,omitempty"`
	Farm         *Farm      `json:"farm,omitempty"`

	QuestsProgress []QuestProgress `gorm:"foreignKey:UserID" json:"questsProgress,omitempty"`
}

// LevelForXP derives the XP level from accumulated experience points.
// Level is a pure function of XP and is recomputed after every award.
func LevelForXP(xp int) int {
	return xp/100 + 1
}

// Farm is the plot a user registers during onboarding. At most one farm is
// created per user.
type Farm struct {
	BaseModel
	UserID      uuid.UUID `gorm:"type:uuid;index" json:"userId"`
	Name        string    `json:"name"`
	Address     string    `json:"address"`
	Size        float64   `json:"size"`
	PrimaryCrop string    `json:"primaryCrop"`
	SoilType    string    `json:"soilType"`
	WaterSource string    `json:"waterSource"`
}

// QuestProgress is a user's cursor into one quest. The composite unique
// index guarantees at most one entry per (user, quest); writes go through
// an upsert keyed on that pair.
type QuestProgress struct {
	BaseModel
	UserID     uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_quest" json:"-"`
	QuestSlug  string    `gorm:"uniqueIndex:idx_user_quest" json:"questId"`
	StageIndex int       `json:"stageIndex"`
	Status     string    `json:"status"`
}
