package handlers

import (
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"regexp"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/farmstellar/internal/config"
	"github.com/example/farmstellar/internal/middleware"
	"github.com/example/farmstellar/internal/models"
	"github.com/example/farmstellar/internal/services"
	"github.com/example/farmstellar/internal/utils"
)

var (
	phonePattern = regexp.MustCompile(`^\d{10}$`)
	otpPattern   = regexp.MustCompile(`^\d{6}$`)
)

const (
	// devOTPCode replaces the random code in development so flows are
	// reproducible without SMS delivery.
	devOTPCode = "123456"

	maxOTPAttempts = 3
)

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	db  *gorm.DB
	cfg *config.Config
	sms *services.SMSService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config, sms *services.SMSService) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg, sms: sms}
}

type otpRequest struct {
	Phone string `json:"phone"`
}

// Login starts a phone login by issuing an OTP.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	return h.issueOTP(c, "OTP generated")
}

// SendOTP issues an OTP for phone verification. Same flow as Login; the
// route is kept for older clients.
func (h *AuthHandler) SendOTP(c *fiber.Ctx) error {
	return h.issueOTP(c, "OTP sent")
}

func (h *AuthHandler) issueOTP(c *fiber.Ctx, okMessage string) error {
	var req otpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Phone == "" {
		return fiber.NewError(fiber.StatusBadRequest, "phone is required")
	}
	if !phonePattern.MatchString(req.Phone) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid phone number format")
	}

	code := devOTPCode
	if !h.cfg.IsDevelopment() {
		generated, err := generateOTPCode()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to generate OTP")
		}
		code = generated
	}

	record := models.OTPCode{
		Phone:     req.Phone,
		Code:      code,
		ExpiresAt: time.Now().Add(h.cfg.OTPTTL),
		Consumed:  false,
		Attempts:  0,
	}

	// Atomic upsert keyed on phone: concurrent issuance is last-write-wins
	// and a phone never has two simultaneously valid codes.
	if err := h.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "phone"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"code":       record.Code,
			"expires_at": record.ExpiresAt,
			"consumed":   false,
			"attempts":   0,
			"updated_at": time.Now(),
		}),
	}).Create(&record).Error; err != nil {
		return err
	}

	// The code is persisted before delivery is attempted: a delivery retry
	// can still verify, and the next issuance replaces the row either way.
	if err := h.sms.SendOTP(req.Phone, code); err != nil {
		log.Printf("OTP delivery failed for %s: %v", req.Phone, err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to send OTP")
	}

	resp := fiber.Map{"success": true, "message": okMessage}
	if h.cfg.IsDevelopment() {
		resp["sampleOtp"] = code
	}
	return c.JSON(resp)
}

type verifyOTPRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

// VerifyOTP validates a submitted code and, for known phones, issues a
// session token. Unseen phones get isNewUser=true and must complete their
// profile before a token is issued.
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Phone == "" || req.OTP == "" {
		return fiber.NewError(fiber.StatusBadRequest, "phone and OTP are required")
	}
	if !phonePattern.MatchString(req.Phone) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid phone number format")
	}
	if !otpPattern.MatchString(req.OTP) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid OTP format")
	}

	var record models.OTPCode
	if err := h.db.Where("phone = ? AND consumed = ?", req.Phone, false).First(&record).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "OTP not found or expired")
		}
		return err
	}

	if time.Now().After(record.ExpiresAt) {
		return fiber.NewError(fiber.StatusBadRequest, "OTP expired")
	}

	// An exhausted record stays dead even for the correct code; the user
	// must request a fresh one.
	if record.Attempts >= maxOTPAttempts {
		return fiber.NewError(fiber.StatusBadRequest, "too many failed attempts")
	}

	if record.Code != req.OTP {
		if err := h.db.Model(&models.OTPCode{}).
			Where("id = ?", record.ID).
			UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error; err != nil {
			return err
		}
		if record.Attempts+1 >= maxOTPAttempts {
			return fiber.NewError(fiber.StatusBadRequest, "too many failed attempts")
		}
		return fiber.NewError(fiber.StatusBadRequest, "invalid OTP")
	}

	// Consume with a guard so a code verifies at most once even under
	// racing requests.
	res := h.db.Model(&models.OTPCode{}).
		Where("id = ? AND consumed = ?", record.ID, false).
		Update("consumed", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "OTP not found or expired")
	}

	var user models.User
	err := h.db.Where("phone = ?", req.Phone).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		return c.JSON(fiber.Map{
			"success":   true,
			"isNewUser": true,
			"message":   "OTP verified. Please complete your profile.",
		})
	}
	if err != nil {
		return err
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"token":     token,
		"isNewUser": false,
		"message":   "OTP verified successfully",
	})
}

type completeProfileRequest struct {
	Phone       string  `json:"phone"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Location    string  `json:"location"`
	City        string  `json:"city"`
	Level       string  `json:"level"`
	FarmName    string  `json:"farmName"`
	Address     string  `json:"address"`
	Size        float64 `json:"size"`
	PrimaryCrop string  `json:"primaryCrop"`
	SoilType    string  `json:"soilType"`
	WaterSource string  `json:"waterSource"`
	HasLand     *bool   `json:"hasLand"`
}

// CompleteProfile finishes onboarding for a verified phone: finds or
// creates the user, optionally creates their farm, marks them onboarded and
// issues a session token.
func (h *AuthHandler) CompleteProfile(c *fiber.Ctx) error {
	var req completeProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if !phonePattern.MatchString(req.Phone) {
		return fiber.NewError(fiber.StatusBadRequest, "valid phone is required")
	}

	var user models.User
	err := h.db.Where("phone = ?", req.Phone).First(&user).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		level := req.Level
		if level == "" {
			level = "beginner"
		}
		user = models.User{
			Name:     req.Name,
			Phone:    req.Phone,
			Email:    req.Email,
			Location: req.Location,
			City:     req.City,
			Level:    level,
			XP:       0,
			XPLevel:  models.LevelForXP(0),
		}
		if err := h.db.Create(&user).Error; err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		if req.Name != "" {
			user.Name = req.Name
		}
		if req.Email != "" {
			user.Email = req.Email
		}
		if req.Location != "" {
			user.Location = req.Location
		}
		if req.City != "" {
			user.City = req.City
		}
		if req.Level != "" {
			user.Level = req.Level
		}
	}

	// hasLand=false skips farm creation; a farm is only ever created once.
	if (req.HasLand == nil || *req.HasLand) && user.FarmID == nil {
		farmName := req.FarmName
		if farmName == "" {
			owner := user.Name
			if owner == "" {
				owner = "Farmer"
			}
			farmName = fmt.Sprintf("%s's Farm", owner)
		}
		address := req.Address
		if address == "" {
			address = req.Location
		}

		farm := models.Farm{
			UserID:      user.ID,
			Name:        farmName,
			Address:     address,
			Size:        req.Size,
			PrimaryCrop: req.PrimaryCrop,
			SoilType:    req.SoilType,
			WaterSource: req.WaterSource,
		}
		if err := h.db.Create(&farm).Error; err != nil {
			return err
		}
		user.FarmID = &farm.ID
	}

	user.Onboarded = true
	if err := h.db.Save(&user).Error; err != nil {
		return err
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"token":   token,
		"message": "Profile completed",
		"userId":  user.ID,
	})
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	City     string `json:"city"`
}

// Signup is the legacy email+password registration flow. OTP users never
// hit this; their password hash stays empty.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Name == "" || req.Email == "" || req.Password == "" || req.Phone == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing required fields")
	}
	if !phonePattern.MatchString(req.Phone) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid phone number format")
	}

	var existing models.User
	if err := h.db.Where("email = ? OR phone = ?", req.Email, req.Phone).First(&existing).Error; err == nil {
		return fiber.NewError(fiber.StatusBadRequest, "user already exists")
	} else if err != gorm.ErrRecordNotFound {
		return err
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Location:     req.Location,
		City:         req.City,
		Level:        "beginner",
		PasswordHash: passwordHash,
		XP:           0,
		XPLevel:      models.LevelForXP(0),
	}
	if err := h.db.Create(&user).Error; err != nil {
		return err
	}

	farm := models.Farm{
		UserID: user.ID,
		Name:   fmt.Sprintf("%s's Farm", user.Name),
	}
	if err := h.db.Create(&farm).Error; err != nil {
		return err
	}
	user.FarmID = &farm.ID
	if err := h.db.Save(&user).Error; err != nil {
		return err
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"token":   token,
		"userId":  user.ID,
	})
}

// Me returns the authenticated user's profile, farm included.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var user models.User
	if err := h.db.Preload("Farm").First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user": fiber.Map{
			"id":        user.ID,
			"name":      user.Name,
			"email":     user.Email,
			"phone":     user.Phone,
			"location":  user.Location,
			"city":      user.City,
			"level":     user.Level,
			"xp":        user.XP,
			"xpLevel":   user.XPLevel,
			"onboarded": user.Onboarded,
			"farm":      user.Farm,
		},
	})
}

// Logout confirms logout and records the user for auditing when a valid
// token is supplied. Stateless tokens are not revoked server-side.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var userID interface{}
	if token, ok := middleware.BearerToken(c); ok {
		if id, err := utils.ParseToken(h.cfg.JWTSecret, token); err == nil {
			userID = id
			log.Printf("user logged out: %s", id)
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Successfully logged out",
		"userId":  userID,
	})
}

// generateOTPCode returns a uniformly random 6-digit code in
// [100000, 999999].
func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
