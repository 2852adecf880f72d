// Package apitest holds the fixtures shared by handler tests.
package apitest

import (
	"bytes"
	"driveet-backend/internal/database"
	"driveet-backend/internal/models"
	"driveet-backend/internal/services"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Start is the fixed time handler tests run at.
var Start = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

// Envelope mirrors utils.Response with the payload left undecoded.
type Envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// SetupDB installs a fresh in-memory database and resets service state.
func SetupDB(t *testing.T) *gorm.DB {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	database.DB = db
	database.RedisClient = nil

	settings := services.DefaultSettings()
	settings.LedgerSecret = "test-secret"
	settings.Location = time.UTC
	services.Configure(settings)
	services.SetClock(func() time.Time { return Start })
	services.SetVerifier(nil)

	t.Cleanup(func() {
		services.SetClock(nil)
		services.SetVerifier(nil)
		sqlDB.Close()
	})
	return db
}

// NewRouter mounts register under /api/v1 behind a stand-in for the auth
// middleware that stores user in the context.
func NewRouter(user *models.User, register func(*gin.RouterGroup)) *gin.Engine {
	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.Use(func(c *gin.Context) {
		if user != nil {
			c.Set("user", *user)
		}
		c.Next()
	})
	register(v1)
	return r
}

// Do sends body as JSON (nil sends no body) and decodes the envelope.
func Do(t *testing.T, r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env Envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

// DecodeData unmarshals the envelope payload into dest.
func DecodeData(t *testing.T, env Envelope, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dest))
}

func SeedUser(t *testing.T, username, role string) models.User {
	t.Helper()
	user := models.User{Username: username, Role: role, Version: 1}
	require.NoError(t, database.DB.Create(&user).Error)
	return user
}

// SeedDefinition creates an active definition with 10 exams, 50 chats
// (10 a day), unlimited search and road-sign access.
func SeedDefinition(t *testing.T, code string, price float64) models.BundleDefinition {
	t.Helper()
	def := models.BundleDefinition{
		Name:                     code + " bundle",
		Code:                     code,
		ExamQuota:                models.Bounded(10),
		TotalChatQuota:           models.Bounded(50),
		DailyChatLimit:           models.Bounded(10),
		SearchQuota:              models.Unlimited(),
		HasUnlimitedRoadSignQuiz: true,
		ValidityDays:             30,
		Price:                    price,
		IsActive:                 true,
	}
	require.NoError(t, database.DB.Create(&def).Error)
	return def
}

func SeedMethod(t *testing.T, code string) models.PaymentMethod {
	t.Helper()
	method := models.PaymentMethod{
		UUID:       uuid.NewString(),
		Name:       code,
		Code:       code,
		MethodType: models.PaymentMethodMobileWallet,
		Driver:     "mock",
		IsActive:   true,
	}
	require.NoError(t, database.DB.Create(&method).Error)
	return method
}
