package middleware

import (
	"driveet-backend/internal/database"
	"driveet-backend/internal/models"
	"driveet-backend/internal/services"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type guardResponse struct {
	Status  int          `json:"status"`
	Success bool         `json:"success"`
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Data    AccessDenied `json:"data"`
}

func guardedRouter(user *models.User) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if user != nil {
			c.Set("user", *user)
		}
		c.Next()
	})
	r.POST("/exam/start", RequireResource(models.ResourceExam), func(c *gin.Context) {
		c.String(http.StatusOK, "started")
	})
	return r
}

func callGuard(t *testing.T, r *gin.Engine) (*httptest.ResponseRecorder, guardResponse) {
	t.Helper()
	req, _ := http.NewRequest(http.MethodPost, "/exam/start", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp guardResponse
	if w.Code != http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestRequireResource(t *testing.T) {
	setupTestDB(t)
	gin.SetMode(gin.TestMode)

	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	clock := start
	services.SetClock(func() time.Time { return clock })
	t.Cleanup(func() { services.SetClock(nil) })

	def := models.BundleDefinition{
		Name:           "Lite",
		Code:           "LITE",
		ExamQuota:      models.Bounded(1),
		TotalChatQuota: models.Bounded(5),
		DailyChatLimit: models.Bounded(5),
		SearchQuota:    models.Bounded(5),
		ValidityDays:   7,
		Price:          50,
		IsActive:       true,
	}
	require.NoError(t, database.DB.Create(&def).Error)
	user := seedUser(t, "abebe", models.RoleUser)

	w, _ := callGuard(t, guardedRouter(nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, resp := callGuard(t, guardedRouter(&user))
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, ResourceLimitCode, resp.Code)
	assert.Equal(t, services.KindNoActiveBundle, resp.Data.Reason)

	actor := services.Actor{Operator: "tester"}
	_, _, err := services.PurchaseBundle(user.ID, def.ID, services.PaymentData{}, actor)
	require.NoError(t, err)

	w, _ = callGuard(t, guardedRouter(&user))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "started", w.Body.String())

	// The guard itself never consumes.
	w, _ = callGuard(t, guardedRouter(&user))
	assert.Equal(t, http.StatusOK, w.Code)

	_, err = services.ConsumeResource(user.ID, models.ResourceExam, 1, "", actor)
	require.NoError(t, err)

	w, resp = callGuard(t, guardedRouter(&user))
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Equal(t, services.KindQuotaExhausted, resp.Data.Reason)
	require.NotNil(t, resp.Data.Resources)
	assert.True(t, resp.Data.Resources.HasActiveBundle)
	assert.Equal(t, models.Bounded(0), resp.Data.Resources.Exams.Remaining)

	clock = start.Add(8 * 24 * time.Hour)
	w, resp = callGuard(t, guardedRouter(&user))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "BUNDLE_EXPIRED", resp.Code)
}
