package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/farmstellar/internal/models"
	"github.com/example/farmstellar/internal/utils"
)

// LeaderboardHandler ranks users by level and XP.
type LeaderboardHandler struct {
	db *gorm.DB
}

// NewLeaderboardHandler constructs a LeaderboardHandler.
func NewLeaderboardHandler(db *gorm.DB) *LeaderboardHandler {
	return &LeaderboardHandler{db: db}
}

// GetLeaderboard returns the top users ordered by level, then XP.
func (h *LeaderboardHandler) GetLeaderboard(c *fiber.Ctx) error {
	limit := utils.ParseLimit(c, 10)

	var users []models.User
	if err := h.db.Select("name", "xp", "xp_level").
		Order("xp_level desc, xp desc").
		Limit(limit).
		Find(&users).Error; err != nil {
		return err
	}

	entries := make([]fiber.Map, 0, len(users))
	for i, user := range users {
		entries = append(entries, fiber.Map{
			"rank":    i + 1,
			"name":    user.Name,
			"xp":      user.XP,
			"xpLevel": user.XPLevel,
			// TODO: include badge counts once the badge system lands.
			"badges": 0,
		})
	}

	return c.JSON(entries)
}
