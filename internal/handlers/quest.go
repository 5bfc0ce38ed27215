package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/farmstellar/internal/middleware"
	"github.com/example/farmstellar/internal/models"
)

// QuestHandler serves the quest catalog and per-user progress.
type QuestHandler struct {
	db *gorm.DB
}

// NewQuestHandler constructs a QuestHandler.
func NewQuestHandler(db *gorm.DB) *QuestHandler {
	return &QuestHandler{db: db}
}

// ListQuests returns all active quests with their stages.
func (h *QuestHandler) ListQuests(c *fiber.Ctx) error {
	var quests []models.Quest
	if err := h.db.Preload("Stages", func(db *gorm.DB) *gorm.DB {
		return db.Order("position asc")
	}).Where("active = ?", true).Find(&quests).Error; err != nil {
		return err
	}

	return c.JSON(quests)
}

// GetQuest returns one quest looked up by slug (or by row ID for older
// clients that stored raw IDs).
func (h *QuestHandler) GetQuest(c *fiber.Ctx) error {
	quest, err := h.findQuest(c.Params("id"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "quest not found")
		}
		return err
	}

	return c.JSON(quest)
}

type updateProgressRequest struct {
	StageIndex int    `json:"stageIndex"`
	Status     string `json:"status"`
}

// UpdateProgress upserts the caller's progress entry for a quest and
// returns the full progress list. At most one entry exists per quest.
func (h *QuestHandler) UpdateProgress(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req updateProgressRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	switch req.Status {
	case models.StatusNotStarted, models.StatusInProgress, models.StatusSubmitted, models.StatusCompleted:
	default:
		return fiber.NewError(fiber.StatusBadRequest, "invalid status")
	}
	if req.StageIndex < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid stage index")
	}

	entry := models.QuestProgress{
		UserID:     userID,
		QuestSlug:  h.canonicalSlug(c.Params("id")),
		StageIndex: req.StageIndex,
		Status:     req.Status,
	}

	if err := h.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "quest_slug"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"stage_index": req.StageIndex,
			"status":      req.Status,
			"updated_at":  time.Now(),
		}),
	}).Create(&entry).Error; err != nil {
		return err
	}

	var progress []models.QuestProgress
	if err := h.db.Where("user_id = ?", userID).Order("created_at asc").Find(&progress).Error; err != nil {
		return err
	}

	return c.JSON(progress)
}

func (h *QuestHandler) findQuest(param string) (*models.Quest, error) {
	var quest models.Quest
	err := h.db.Preload("Stages", func(db *gorm.DB) *gorm.DB {
		return db.Order("position asc")
	}).Where("slug = ?", param).First(&quest).Error
	if err == nil {
		return &quest, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	id, parseErr := uuid.Parse(param)
	if parseErr != nil {
		return nil, gorm.ErrRecordNotFound
	}

	err = h.db.Preload("Stages", func(db *gorm.DB) *gorm.DB {
		return db.Order("position asc")
	}).Where("id = ?", id).First(&quest).Error
	if err != nil {
		return nil, err
	}
	return &quest, nil
}

// canonicalSlug normalizes a quest path parameter to the slug string used
// as the progress key. Row IDs map back to their slug; unknown values pass
// through so progress can be tracked for quests published later.
func (h *QuestHandler) canonicalSlug(param string) string {
	if quest, err := h.findQuest(param); err == nil {
		return quest.Slug
	}
	return param
}
