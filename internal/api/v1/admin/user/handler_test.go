package user_test

import (
	"driveet-backend/internal/api/apitest"
	"driveet-backend/internal/api/v1/admin/user"
	"driveet-backend/internal/database"
	"driveet-backend/internal/models"
	"driveet-backend/internal/utils"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListUsers(t *testing.T) {
	apitest.SetupDB(t)
	admin := apitest.SeedUser(t, "admin", models.RoleAdmin)
	apitest.SeedUser(t, "user1", models.RoleUser)
	r := apitest.NewRouter(&admin, user.RegisterRoutes)

	tests := []struct {
		name           string
		query          string
		expectedStatus int
		checkResponse  func(t *testing.T, env apitest.Envelope)
	}{
		{
			name:           "Valid Pagination",
			query:          "?page=1&limit=10",
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, env apitest.Envelope) {
				var resp user.UserListResponse
				apitest.DecodeData(t, env, &resp)
				assert.EqualValues(t, 2, resp.Total)
				assert.Len(t, resp.Users, 2)
				assert.Equal(t, "admin", resp.Users[0].Username)
			},
		},
		{
			name:           "Second Page",
			query:          "?page=2&limit=1",
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, env apitest.Envelope) {
				var resp user.UserListResponse
				apitest.DecodeData(t, env, &resp)
				require.Len(t, resp.Users, 1)
				assert.Equal(t, "user1", resp.Users[0].Username)
			},
		},
		{
			name:           "Invalid Page",
			query:          "?page=0",
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, env apitest.Envelope) {
				assert.Equal(t, "Invalid page number", env.Message)
			},
		},
		{
			name:           "Invalid Limit",
			query:          "?limit=-1",
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, env apitest.Envelope) {
				assert.Equal(t, "Invalid limit number", env.Message)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := apitest.Do(t, r, http.MethodGet, "/api/v1/users"+tt.query, nil)
			assert.Equal(t, tt.expectedStatus, w.Code)
			tt.checkResponse(t, env)
		})
	}
}

func TestCreateUser(t *testing.T) {
	apitest.SetupDB(t)
	admin := apitest.SeedUser(t, "admin", models.RoleAdmin)
	r := apitest.NewRouter(&admin, user.RegisterRoutes)

	w, env := apitest.Do(t, r, http.MethodPost, "/api/v1/users", gin.H{"username": "abebe", "telegram_id": 424242})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created user.UserListItem
	apitest.DecodeData(t, env, &created)
	assert.Equal(t, models.RoleUser, created.Role)
	require.NotNil(t, created.TelegramID)
	assert.EqualValues(t, 424242, *created.TelegramID)
	assert.Nil(t, created.ActiveBundleID)

	w, _ = apitest.Do(t, r, http.MethodPost, "/api/v1/users", gin.H{"username": "abebe"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = apitest.Do(t, r, http.MethodPost, "/api/v1/users", gin.H{"username": "kebede", "role": "root"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateUserRole(t *testing.T) {
	apitest.SetupDB(t)
	admin := apitest.SeedUser(t, "admin", models.RoleAdmin)
	target := apitest.SeedUser(t, "abebe", models.RoleUser)
	r := apitest.NewRouter(&admin, user.RegisterRoutes)

	tests := []struct {
		name           string
		userID         string
		body           gin.H
		expectedStatus int
	}{
		{"Promote", fmt.Sprint(target.ID), gin.H{"role": "admin"}, http.StatusOK},
		{"Unknown Role", fmt.Sprint(target.ID), gin.H{"role": "root"}, http.StatusBadRequest},
		{"Missing Role", fmt.Sprint(target.ID), gin.H{}, http.StatusBadRequest},
		{"Invalid ID", "abc", gin.H{"role": "user"}, http.StatusBadRequest},
		{"User Not Found", "9999", gin.H{"role": "user"}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := apitest.Do(t, r, http.MethodPatch, "/api/v1/users/"+tt.userID+"/role", tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
		})
	}

	var u models.User
	require.NoError(t, database.DB.First(&u, target.ID).Error)
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.Equal(t, 2, u.Version)
}

func TestIssueToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test_secret")
	apitest.SetupDB(t)
	admin := apitest.SeedUser(t, "admin", models.RoleAdmin)
	target := apitest.SeedUser(t, "abebe", models.RoleUser)
	r := apitest.NewRouter(&admin, user.RegisterRoutes)

	w, env := apitest.Do(t, r, http.MethodPost, fmt.Sprintf("/api/v1/users/%d/token", target.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp user.TokenResponse
	apitest.DecodeData(t, env, &resp)

	claims, err := utils.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.EqualValues(t, target.ID, claims["user_id"])
	assert.Equal(t, models.RoleUser, claims["role"])

	w, _ = apitest.Do(t, r, http.MethodPost, "/api/v1/users/9999/token", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
