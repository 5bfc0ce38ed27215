package models

import (
	"time"

	"github.com/google/uuid"
)

// Submission is proof-of-work a user files against a quest stage. Media
// validation against object storage is handled elsewhere; proof URLs are
// stored verbatim.
type Submission struct {
	BaseModel
	UserID     uuid.UUID `gorm:"type:uuid;index" json:"userId"`
	QuestSlug  string    `gorm:"index" json:"questId"`
	StageIndex int       `json:"stageIndex"`
	Notes      string    `json:"notes"`
	Checklist  string    `json:"checklist"`
	Status     string    `json:"status"`
	ProofType  string    `json:"proofType"`
	ProofURL   string    `json:"proofUrl"`
}

// Crop is a simple crop-log entry kept by farmers.
type Crop struct {
	BaseModel
	Name      string     `json:"name"`
	PlantedAt *time.Time `json:"plantedAt,omitempty"`
	Notes     string     `json:"notes"`
}
