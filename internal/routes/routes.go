package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/farmstellar/internal/config"
	"github.com/example/farmstellar/internal/handlers"
	"github.com/example/farmstellar/internal/middleware"
	"github.com/example/farmstellar/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	smsService := services.NewSMSService(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, cfg.SMSCountryCode)

	authHandler := handlers.NewAuthHandler(db, cfg, smsService)
	questHandler := handlers.NewQuestHandler(db)
	submissionHandler := handlers.NewSubmissionHandler(db)
	leaderboardHandler := handlers.NewLeaderboardHandler(db)
	cropHandler := handlers.NewCropHandler(db)

	requireAuth := middleware.AuthMiddleware(cfg)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", authHandler.Signup)
	auth.Post("/login", authHandler.Login)
	auth.Post("/send-otp", authHandler.SendOTP)
	auth.Post("/verify-otp", authHandler.VerifyOTP)
	auth.Post("/complete-profile", authHandler.CompleteProfile)
	auth.Get("/me", requireAuth, authHandler.Me)
	auth.Post("/logout", authHandler.Logout)

	// Quest catalog and progress
	quests := api.Group("/quests")
	quests.Get("/", questHandler.ListQuests)
	quests.Get("/:id", questHandler.GetQuest)
	quests.Post("/:id/progress", requireAuth, questHandler.UpdateProgress)
	quests.Post("/:id/submissions", requireAuth, submissionHandler.CreateSubmission)
	quests.Get("/:id/submissions", requireAuth, submissionHandler.ListForQuest)

	// Submissions
	api.Post("/submissions/auto-complete", requireAuth, submissionHandler.AutoComplete)
	api.Get("/submissions/:submissionId", requireAuth, submissionHandler.GetSubmission)

	// Leaderboard
	api.Get("/leaderboard", leaderboardHandler.GetLeaderboard)

	// Crop log
	crops := api.Group("/crops")
	crops.Get("/", cropHandler.ListCrops)
	crops.Post("/", cropHandler.CreateCrop)
}
