package auth_test

import (
	"driveet-backend/internal/api/apitest"
	"driveet-backend/internal/api/v1/auth"
	"driveet-backend/internal/database"
	"driveet-backend/internal/models"
	"driveet-backend/internal/utils"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logout(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLogout(t *testing.T) {
	t.Setenv("JWT_SECRET", "test_secret")
	apitest.SetupDB(t)
	user := apitest.SeedUser(t, "abebe", models.RoleUser)

	r := gin.New()
	auth.RegisterRoutes(r.Group("/api/v1"))

	token, err := utils.GenerateToken(user.ID, user.Role)
	require.NoError(t, err)

	// Without redis there is nowhere to record the revocation.
	assert.Equal(t, http.StatusInternalServerError, logout(r, token).Code)

	mr := miniredis.RunT(t)
	database.RedisClient = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { database.RedisClient = nil })

	assert.Equal(t, http.StatusUnauthorized, logout(r, "").Code)
	assert.Equal(t, http.StatusOK, logout(r, token).Code)
	assert.True(t, mr.Exists("denylist:"+token))
	assert.Greater(t, mr.TTL("denylist:"+token).Hours(), 71.0)

	assert.Equal(t, http.StatusUnauthorized, logout(r, token).Code)
}
