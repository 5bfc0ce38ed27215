package handlers

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/farmstellar/internal/middleware"
	"github.com/example/farmstellar/internal/models"
)

// SubmissionHandler manages quest submissions and auto-completion.
type SubmissionHandler struct {
	db *gorm.DB
}

// NewSubmissionHandler constructs a SubmissionHandler.
func NewSubmissionHandler(db *gorm.DB) *SubmissionHandler {
	return &SubmissionHandler{db: db}
}

type createSubmissionRequest struct {
	QuestID     string   `json:"questId"`
	StageIndex  int      `json:"stageIndex"`
	Notes       string   `json:"notes"`
	Description string   `json:"description"`
	Checklist   []string `json:"checklist"`
	ProofType   string   `json:"proofType"`
	ProofURL    string   `json:"proofUrl"`
}

// CreateSubmission files proof-of-work for a quest stage and moves the
// caller's progress entry to submitted.
func (h *SubmissionHandler) CreateSubmission(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createSubmissionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	questSlug := req.QuestID
	if questSlug == "" {
		questSlug = c.Params("id")
	}
	if questSlug == "" {
		return fiber.NewError(fiber.StatusBadRequest, "quest ID is required")
	}

	notes := req.Notes
	if notes == "" {
		notes = req.Description
	}
	proofType := req.ProofType
	if proofType == "" {
		proofType = "text"
	}

	checklist := ""
	if len(req.Checklist) > 0 {
		encoded, err := json.Marshal(req.Checklist)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid checklist")
		}
		checklist = string(encoded)
	}

	submission := models.Submission{
		UserID:     userID,
		QuestSlug:  questSlug,
		StageIndex: req.StageIndex,
		Notes:      notes,
		Checklist:  checklist,
		Status:     "pending",
		ProofType:  proofType,
		ProofURL:   req.ProofURL,
	}
	if err := h.db.Create(&submission).Error; err != nil {
		return err
	}

	entry := models.QuestProgress{
		UserID:     userID,
		QuestSlug:  questSlug,
		StageIndex: req.StageIndex,
		Status:     models.StatusSubmitted,
	}
	if err := h.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "quest_slug"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"status":     models.StatusSubmitted,
			"updated_at": time.Now(),
		}),
	}).Create(&entry).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(submission)
}

// ListForQuest returns the caller's submissions for one quest.
func (h *SubmissionHandler) ListForQuest(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var submissions []models.Submission
	if err := h.db.Where("user_id = ? AND quest_slug = ?", userID, c.Params("id")).
		Order("created_at desc").
		Find(&submissions).Error; err != nil {
		return err
	}

	return c.JSON(submissions)
}

// GetSubmission returns one submission, scoped to the caller.
func (h *SubmissionHandler) GetSubmission(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	submissionID, err := uuid.Parse(c.Params("submissionId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid submission id")
	}

	var submission models.Submission
	if err := h.db.Where("id = ? AND user_id = ?", submissionID, userID).First(&submission).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "submission not found")
		}
		return err
	}

	return c.JSON(submission)
}

type autoCompleteRequest struct {
	QuestID string `json:"questId"`
}

// AutoComplete completes a quest that needs no review and awards its XP.
// The completion is a single guarded update inside a transaction so
// concurrent calls can never double-award.
func (h *SubmissionHandler) AutoComplete(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req autoCompleteRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.QuestID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "quest ID is required")
	}

	reward := models.QuestXPRewards[req.QuestID]
	if reward == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid quest ID or quest has no XP reward")
	}

	var (
		updatedXP    int
		updatedLevel int
		leveledUp    bool
	)

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fiber.NewError(fiber.StatusNotFound, "user not found")
			}
			return err
		}
		// Snapshot the level before any mutation; leveledUp compares
		// against this, not the recomputed value.
		prevLevel := user.XPLevel

		res := tx.Model(&models.QuestProgress{}).
			Where("user_id = ? AND quest_slug = ? AND status <> ?", userID, req.QuestID, models.StatusCompleted).
			Updates(map[string]interface{}{
				"status":     models.StatusCompleted,
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.QuestProgress{}).
				Where("user_id = ? AND quest_slug = ?", userID, req.QuestID).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return fiber.NewError(fiber.StatusBadRequest, "quest already completed")
			}

			entry := models.QuestProgress{
				UserID:     userID,
				QuestSlug:  req.QuestID,
				StageIndex: 0,
				Status:     models.StatusCompleted,
			}
			if err := tx.Create(&entry).Error; err != nil {
				// A concurrent call created the completed entry first;
				// the unique index turns the race into this error.
				return fiber.NewError(fiber.StatusBadRequest, "quest already completed")
			}
		}

		if err := tx.Model(&models.User{}).
			Where("id = ?", userID).
			UpdateColumn("xp", gorm.Expr("xp + ?", reward)).Error; err != nil {
			return err
		}

		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			return err
		}
		newLevel := models.LevelForXP(user.XP)
		if newLevel != user.XPLevel {
			if err := tx.Model(&models.User{}).
				Where("id = ?", userID).
				Update("xp_level", newLevel).Error; err != nil {
				return err
			}
		}

		updatedXP = user.XP
		updatedLevel = newLevel
		leveledUp = newLevel > prevLevel
		return nil
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message":      "Quest completed successfully",
		"questId":      req.QuestID,
		"xpAwarded":    reward,
		"updatedXP":    updatedXP,
		"updatedLevel": updatedLevel,
		"leveledUp":    leveledUp,
	})
}
