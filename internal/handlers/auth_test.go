package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/farmstellar/internal/models"
)

func TestLoginValidatesPhone(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp := doRequest(t, app, http.MethodPost, "/api/auth/login", map[string]string{}, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, bodyString(t, resp), "phone is required")

	resp = doRequest(t, app, http.MethodPost, "/api/auth/login", map[string]string{"phone": "12345"}, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, bodyString(t, resp), "invalid phone number format")

	resp = doRequest(t, app, http.MethodPost, "/api/auth/login", map[string]string{"phone": "987654321x"}, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOTPFlowForNewUser(t *testing.T) {
	app, db, _ := newTestApp(t)

	resp := doRequest(t, app, http.MethodPost, "/api/auth/login", map[string]string{"phone": "9876543210"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var issued map[string]interface{}
	decodeJSON(t, resp, &issued)
	require.Equal(t, true, issued["success"])
	require.Equal(t, "123456", issued["sampleOtp"])

	// Wrong code increments attempts and fails.
	resp = doRequest(t, app, http.MethodPost, "/api/auth/verify-otp",
		map[string]string{"phone": "9876543210", "otp": "654321"}, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, bodyString(t, resp), "invalid OTP")

	var record models.OTPCode
	require.NoError(t, db.Where("phone = ?", "9876543210").First(&record).Error)
	require.Equal(t, 1, record.Attempts)
	require.False(t, record.Consumed)

	// Correct code verifies; unseen phone means no token yet.
	resp = doRequest(t, app, http.MethodPost, "/api/auth/verify-otp",
		map[string]string{"phone": "9876543210", "otp": "123456"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var verified map[string]interface{}
	decodeJSON(t, resp, &verified)
	require.Equal(t, true, verified["success"])
	require.Equal(t, true, verified["isNewUser"])
	require.NotContains(t, verified, "token")
}

func TestOTPFlowForExistingUser(t *testing.T) {
	app, db, cfg := newTestApp(t)
	createUser(t, db, cfg, "Asha", "9000000001", 0)

	resp := doRequest(t, app, http.MethodPost, "/api/auth/send-otp", map[string]string{"phone": "9000000001"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, app, http.MethodPost, "/api/auth/verify-otp",
		map[string]string{"phone": "9000000001", "otp": "123456"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var verified map[string]interface{}
	decodeJSON(t, resp, &verified)
	require.Equal(t, false, verified["isNewUser"])
	require.NotEmpty(t, verified["token"])

	// The issued token authenticates /me.
	resp = doRequest(t, app, http.MethodGet, "/api/auth/me", nil, verified["token"].(string))
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReissueReplacesPreviousCode(t *testing.T) {
	app, db, _ := newTestApp(t)

	resp := doRequest(t, app, http.MethodPost, "/api/auth/login", map[string]string{"phone": "9876543210"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Simulate a production code and some burned attempts on the first
	// issuance (the development code is fixed, so tweak the row directly).
	require.NoError(t, db.Model(&models.OTPCode{}).
		Where("phone = ?", "9876543210").
		Updates(map[string]interface{}{"code": "999999", "attempts": 2}).Error)

	resp = doRequest(t, app, http.MethodPost, "/api/auth/login", map[string]string{"phone": "9876543210"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Still exactly one record per phone, fully reset.
	var count int64
	require.NoError(t, db.Model(&models.OTPCode{}).Where("phone = ?", "9876543210").Count(&count).Error)
	require.EqualValues(t, 1, count)

	var record models.OTPCode
	require.NoError(t, db.Where("phone = ?", "9876543210").First(&record).Error)
	require.Equal(t, "123456", record.Code)
	require.Equal(t, 0, record.Attempts)
	require.False(t, record.Consumed)

	// The replaced code no longer verifies.
	resp = doRequest(t, app, http.MethodPost, "/api/auth/verify-otp",
		map[string]string{"phone": "9876543210", "otp": "999999"}, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, bodyString(t, resp), "invalid OTP")
}

func TestVerifyOTPSingleUse(t *testing.T) {
	app, _, _ := newTestApp(t)

	doRequest(t, app, http.MethodPost, "/api/auth/login", map[string]string{"phone": "9876543210"}, "")

	resp := doRequest(t, app, http.MethodPost, "/api/auth/verify-otp",
		map[string]string{"phone": "9876543210", "otp": "123456"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// A consumed code never verifies again.
	resp = doRequest(t, app, http.MethodPost, "/api/auth/verify-otp",
		map[string]string{"phone": "9876543210", "otp": "123456"}, "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Contains(t, bodyString(t, resp), "OTP not found or expired")
}

func TestVerifyOTPAttemptLimit(t *testing.T) {
	app, _, _ := newTestApp(t)

	doRequest(t, app, http.MethodPost, "/api/auth/login", map[string]string{"phone": "9876543210"}, "")

	for i, want := range []string{"invalid OTP", "invalid OTP", "too many failed attempts"} {
		resp := doRequest(t, app, http.MethodPost, "/api/auth/verify-otp",
			map[string]string{"phone": "9876543210", "otp": "000000"}, "")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, "attempt %d", i+1)
		require.Contains(t, bodyString(t, resp), want, "attempt %d", i+1)
	}

	// The exhausted record rejects even the correct code.
	resp := doRequest(t, app, http.MethodPost, "/api/auth/verify-otp",
		map[string]string{"phone": "9876543210", "otp": "123456"}, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, bodyString(t, resp), "too many failed attempts")
}

func TestVerifyOTPExpired(t *testing.T) {
	app, db, _ := newTestApp(t)

	doRequest(t, app, http.MethodPost, "/api/auth/login", map[string]string{"phone": "9876543210"}, "")

	require.NoError(t, db.Model(&models.OTPCode{}).
		Where("phone = ?", "9876543210").
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	resp := doRequest(t, app, http.MethodPost, "/api/auth/verify-otp",
		map[string]string{"phone": "9876543210", "otp": "123456"}, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, bodyString(t, resp), "OTP expired")
}

func TestVerifyOTPWithoutIssuance(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp := doRequest(t, app, http.MethodPost, "/api/auth/verify-otp",
		map[string]string{"phone": "9876543210", "otp": "123456"}, "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Malformed inputs fail before touching the store.
	resp = doRequest(t, app, http.MethodPost, "/api/auth/verify-otp",
		map[string]string{"phone": "9876543210", "otp": "12345"}, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, bodyString(t, resp), "invalid OTP format")
}

func TestCompleteProfileCreatesUserAndFarm(t *testing.T) {
	app, db, _ := newTestApp(t)

	resp := doRequest(t, app, http.MethodPost, "/api/auth/complete-profile", map[string]interface{}{
		"phone":       "9876543210",
		"name":        "Ravi",
		"city":        "Coimbatore",
		"farmName":    "Ravi's Plot",
		"primaryCrop": "coconut",
		"size":        1.5,
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result map[string]interface{}
	decodeJSON(t, resp, &result)
	require.Equal(t, true, result["success"])
	require.NotEmpty(t, result["token"])

	var user models.User
	require.NoError(t, db.Preload("Farm").Where("phone = ?", "9876543210").First(&user).Error)
	require.True(t, user.Onboarded)
	require.Equal(t, "Ravi", user.Name)
	require.Equal(t, "beginner", user.Level)
	require.Equal(t, 1, user.XPLevel)
	require.NotNil(t, user.FarmID)
	require.NotNil(t, user.Farm)
	require.Equal(t, "Ravi's Plot", user.Farm.Name)

	// The returned token works against /me.
	resp = doRequest(t, app, http.MethodGet, "/api/auth/me", nil, result["token"].(string))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var me map[string]interface{}
	decodeJSON(t, resp, &me)
	userPayload := me["user"].(map[string]interface{})
	require.Equal(t, "Ravi", userPayload["name"])
	require.Equal(t, true, userPayload["onboarded"])
	require.NotNil(t, userPayload["farm"])
}

func TestCompleteProfileWithoutLandSkipsFarm(t *testing.T) {
	app, db, _ := newTestApp(t)

	hasLand := false
	resp := doRequest(t, app, http.MethodPost, "/api/auth/complete-profile", map[string]interface{}{
		"phone":   "9876543211",
		"name":    "Meena",
		"hasLand": hasLand,
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var user models.User
	require.NoError(t, db.Where("phone = ?", "9876543211").First(&user).Error)
	require.True(t, user.Onboarded)
	require.Nil(t, user.FarmID)

	var farms int64
	require.NoError(t, db.Model(&models.Farm{}).Count(&farms).Error)
	require.EqualValues(t, 0, farms)
}

func TestCompleteProfileCreatesFarmOnlyOnce(t *testing.T) {
	app, db, _ := newTestApp(t)

	body := map[string]interface{}{"phone": "9876543212", "name": "Kumar"}
	resp := doRequest(t, app, http.MethodPost, "/api/auth/complete-profile", body, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = doRequest(t, app, http.MethodPost, "/api/auth/complete-profile", body, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var farms int64
	require.NoError(t, db.Model(&models.Farm{}).Count(&farms).Error)
	require.EqualValues(t, 1, farms)
}

func TestSignupLegacy(t *testing.T) {
	app, db, _ := newTestApp(t)

	body := map[string]string{
		"name":     "Lakshmi",
		"email":    "lakshmi@example.com",
		"password": "hunter22",
		"phone":    "9123456780",
	}
	resp := doRequest(t, app, http.MethodPost, "/api/auth/signup", body, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result map[string]interface{}
	decodeJSON(t, resp, &result)
	require.NotEmpty(t, result["token"])

	var user models.User
	require.NoError(t, db.Where("phone = ?", "9123456780").First(&user).Error)
	require.NotEmpty(t, user.PasswordHash)
	require.NotEqual(t, "hunter22", user.PasswordHash)
	require.NotNil(t, user.FarmID)

	resp = doRequest(t, app, http.MethodPost, "/api/auth/signup", body, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, bodyString(t, resp), "user already exists")
}

func TestMeRequiresValidToken(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp := doRequest(t, app, http.MethodGet, "/api/auth/me", nil, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doRequest(t, app, http.MethodGet, "/api/auth/me", nil, "not-a-token")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogout(t *testing.T) {
	app, db, cfg := newTestApp(t)
	user, token := createUser(t, db, cfg, "Asha", "9000000002", 0)

	resp := doRequest(t, app, http.MethodPost, "/api/auth/logout", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result map[string]interface{}
	decodeJSON(t, resp, &result)
	require.Equal(t, true, result["success"])
	require.Equal(t, user.ID.String(), result["userId"])

	// Missing token is still a successful logout, just anonymous.
	resp = doRequest(t, app, http.MethodPost, "/api/auth/logout", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &result)
	require.Equal(t, true, result["success"])
	require.Nil(t, result["userId"])
}
