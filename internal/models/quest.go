package models

import "github.com/google/uuid"

// Quest is a unit of learning content. The slug is the canonical quest
// identifier used everywhere outside this table (progress entries,
// submissions, the reward table).
type Quest struct {
	BaseModel
	Slug        string `gorm:"uniqueIndex" json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
	XPReward    int    `gorm:"column:xp_reward" json:"xpReward"`
	Active      bool   `json:"active"`

	Stages []QuestStage `gorm:"foreignKey:QuestID" json:"stages,omitempty"`
}

// QuestStage is one ordered step of a quest.
type QuestStage struct {
	BaseModel
	QuestID     uuid.UUID `gorm:"type:uuid;index" json:"-"`
	Position    int       `json:"position"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
}

// QuestXPRewards maps quest slugs to the XP awarded on auto-completion.
// Unknown or zero-reward slugs are rejected.
var QuestXPRewards = map[string]int{
	"soil_scout":         10,
	"crop_quest":         75,
	"compost_kickoff":    40,
	"zero_waste":         85,
	"mini_garden":        100,
	"mulch_master":       60,
	"boll_keeper":        150,
	"coconut_basin":      140,
	"coconut_bioenzyme":  180,
	"rust_shield":        160,
	"biodiversity_strip": 190,
	"rainwater_hero":     185,
	"biochar_maker":      200,
	"jeevamrutham":       150,

	// Legacy quest IDs still used by older clients.
	"crops":   75,
	"soil":    10,
	"compost": 40,
}
