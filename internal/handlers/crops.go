package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/farmstellar/internal/models"
	"github.com/example/farmstellar/internal/utils"
)

// CropHandler manages the shared crop log.
type CropHandler struct {
	db *gorm.DB
}

// NewCropHandler constructs a CropHandler.
func NewCropHandler(db *gorm.DB) *CropHandler {
	return &CropHandler{db: db}
}

// ListCrops returns crop-log entries, newest first.
func (h *CropHandler) ListCrops(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)

	var total int64
	if err := h.db.Model(&models.Crop{}).Count(&total).Error; err != nil {
		return err
	}

	var crops []models.Crop
	if err := h.db.Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&crops).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    crops,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

type createCropRequest struct {
	Name      string     `json:"name"`
	PlantedAt *time.Time `json:"plantedAt"`
	Notes     string     `json:"notes"`
}

// CreateCrop records a new crop-log entry.
func (h *CropHandler) CreateCrop(c *fiber.Ctx) error {
	var req createCropRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "field name is required")
	}

	crop := models.Crop{
		Name:      name,
		PlantedAt: req.PlantedAt,
		Notes:     req.Notes,
	}
	if err := h.db.Create(&crop).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(crop)
}
