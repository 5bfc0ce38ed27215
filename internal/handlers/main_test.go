package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/example/farmstellar/internal/config"
	"github.com/example/farmstellar/internal/database"
	"github.com/example/farmstellar/internal/models"
	"github.com/example/farmstellar/internal/routes"
	"github.com/example/farmstellar/internal/utils"
)

// newTestApp wires the full route table against an in-memory SQLite
// database. AppEnv is development so OTP issuance uses the fixed code and
// echoes it back.
func newTestApp(t *testing.T) (*fiber.App, *gorm.DB, *config.Config) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		AppPort:      "0",
		AppEnv:       "development",
		JWTSecret:    "test-secret",
		TokenExpires: 168 * time.Hour,
		OTPTTL:       5 * time.Minute,
	}

	app := fiber.New()
	routes.Register(app, db, cfg)
	return app, db, cfg
}

func doRequest(t *testing.T, app *fiber.App, method, path string, body interface{}, token string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func bodyString(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func createUser(t *testing.T, db *gorm.DB, cfg *config.Config, name, phone string, xp int) (models.User, string) {
	t.Helper()

	user := models.User{
		Name:      name,
		Phone:     phone,
		Level:     "beginner",
		XP:        xp,
		XPLevel:   models.LevelForXP(xp),
		Onboarded: true,
	}
	require.NoError(t, db.Create(&user).Error)

	token, err := utils.GenerateToken(cfg.JWTSecret, user.ID, time.Hour)
	require.NoError(t, err)
	return user, token
}
