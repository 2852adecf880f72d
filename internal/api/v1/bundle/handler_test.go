package bundle_test

import (
	"driveet-backend/internal/api/apitest"
	"driveet-backend/internal/api/v1/bundle"
	"driveet-backend/internal/models"
	"driveet-backend/internal/services"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(user *models.User) *gin.Engine {
	return apitest.NewRouter(user, func(g *gin.RouterGroup) {
		bundle.RegisterPublicRoutes(g)
		bundle.RegisterRoutes(g)
	})
}

func TestListDefinitions(t *testing.T) {
	apitest.SetupDB(t)
	apitest.SeedDefinition(t, "BASIC", 150)

	w, env := apitest.Do(t, setupRouter(nil), http.MethodGet, "/api/v1/bundles/definitions", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var defs []map[string]interface{}
	apitest.DecodeData(t, env, &defs)
	require.Len(t, defs, 1)
	assert.Equal(t, "BASIC", defs[0]["code"])
	assert.Equal(t, "unlimited", defs[0]["search_quota"])
	assert.EqualValues(t, 10, defs[0]["exam_quota"])
}

func TestConsumeAndResources(t *testing.T) {
	apitest.SetupDB(t)
	user := apitest.SeedUser(t, "abebe", models.RoleUser)
	def := apitest.SeedDefinition(t, "BASIC", 150)
	r := setupRouter(&user)

	// Nothing purchased yet.
	w, env := apitest.Do(t, r, http.MethodPost, "/api/v1/bundles/consume", gin.H{"resource": "exam"})
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Equal(t, "NO_ACTIVE_BUNDLE", env.Code)
	assert.False(t, env.Success)

	w, env = apitest.Do(t, r, http.MethodGet, "/api/v1/bundles/resources", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var empty services.ResourceSummary
	apitest.DecodeData(t, env, &empty)
	assert.False(t, empty.HasActiveBundle)

	_, _, err := services.PurchaseBundle(user.ID, def.ID, services.PaymentData{}, services.Actor{Operator: "admin"})
	require.NoError(t, err)

	w, env = apitest.Do(t, r, http.MethodPost, "/api/v1/bundles/consume", gin.H{"resource": "chat", "quantity": 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var summary services.ResourceSummary
	apitest.DecodeData(t, env, &summary)
	assert.Equal(t, models.Bounded(47), summary.Chats.Remaining)
	assert.Equal(t, 3, summary.Chats.DailyUsed)
	assert.True(t, summary.Search.Remaining.IsUnlimited())

	w, env = apitest.Do(t, r, http.MethodPost, "/api/v1/bundles/consume", gin.H{"resource": "chat", "quantity": 8})
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Equal(t, "DAILY_LIMIT_REACHED", env.Code)

	w, _ = apitest.Do(t, r, http.MethodPost, "/api/v1/bundles/consume", gin.H{"resource": "coins"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = apitest.Do(t, r, http.MethodGet, "/api/v1/bundles/my", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var bundles []bundle.UserBundleResponse
	apitest.DecodeData(t, env, &bundles)
	require.Len(t, bundles, 1)
	assert.Equal(t, "BASIC", bundles[0].Definition.Code)
	assert.Equal(t, 3, bundles[0].TotalChatsConsumed)
}

func TestCheckAccess(t *testing.T) {
	apitest.SetupDB(t)
	user := apitest.SeedUser(t, "abebe", models.RoleUser)
	def := apitest.SeedDefinition(t, "BASIC", 150)
	r := setupRouter(&user)

	w, env := apitest.Do(t, r, http.MethodGet, "/api/v1/bundles/access/exam", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var access bundle.AccessResponse
	apitest.DecodeData(t, env, &access)
	assert.False(t, access.Allowed)
	assert.Equal(t, "NO_ACTIVE_BUNDLE", access.Reason)

	_, _, err := services.PurchaseBundle(user.ID, def.ID, services.PaymentData{}, services.Actor{Operator: "admin"})
	require.NoError(t, err)

	w, env = apitest.Do(t, r, http.MethodGet, "/api/v1/bundles/access/road_sign", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var granted bundle.AccessResponse
	apitest.DecodeData(t, env, &granted)
	assert.True(t, granted.Allowed)
	assert.Empty(t, granted.Reason)

	w, _ = apitest.Do(t, r, http.MethodGet, "/api/v1/bundles/access/coins", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = apitest.Do(t, setupRouter(nil), http.MethodGet, "/api/v1/bundles/access/exam", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
