package user

import (
	"driveet-backend/internal/api/v1/common"
	"driveet-backend/internal/models"
	"driveet-backend/internal/services"
	"driveet-backend/internal/utils"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type UserListItem struct {
	ID             uint      `json:"id"`
	Username       string    `json:"username"`
	TelegramID     *int64    `json:"telegram_id,omitempty"`
	Role           string    `json:"role"`
	ActiveBundleID *uint     `json:"active_bundle_id"`
	Version        int       `json:"version"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type UserListResponse struct {
	Users []UserListItem `json:"users"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

func newUserListItem(u models.User) UserListItem {
	return UserListItem{
		ID:             u.ID,
		Username:       u.Username,
		TelegramID:     u.TelegramID,
		Role:           u.Role,
		ActiveBundleID: u.ActiveBundleID,
		Version:        u.Version,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// ListUsers godoc
// @Summary List all users
// @Description Get a paginated list of users. Admin only.
// @Tags admin
// @Produce json
// @Security Bearer
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} utils.Response{data=UserListResponse}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /admin/users [get]
func ListUsers(c *gin.Context) {
	page, limit, ok := common.Pagination(c)
	if !ok {
		return
	}

	users, total, err := services.FindUsers(page, limit)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	userItems := make([]UserListItem, 0, len(users))
	for _, u := range users {
		userItems = append(userItems, newUserListItem(u))
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Users retrieved successfully", UserListResponse{
		Users: userItems,
		Total: total,
		Page:  page,
		Limit: limit,
	}))
}

// CreateUserRequest registers a user known to the upstream identity provider.
type CreateUserRequest struct {
	Username   string `json:"username" binding:"required,max=100"`
	TelegramID *int64 `json:"telegram_id,omitempty"`
	Role       string `json:"role,omitempty" binding:"omitempty,oneof=admin user"`
}

// CreateUser godoc
// @Summary Create a user
// @Description Register a user record. Admin only.
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param body body CreateUserRequest true "User"
// @Success 201 {object} utils.Response{data=UserListItem}
// @Failure 400 {object} utils.Response
// @Router /admin/users [post]
func CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	created, err := services.CreateUser(req.Username, req.TelegramID, req.Role)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, utils.NewResponse(http.StatusCreated, "User created successfully", newUserListItem(*created)))
}

// UpdateRoleRequest represents the request body for changing a user's role
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=admin user"`
}

// UpdateUserRole godoc
// @Summary Change a user's role
// @Description Promote or demote a user. Admin only.
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "User ID"
// @Param body body UpdateRoleRequest true "New role"
// @Success 200 {object} utils.Response{data=UserListItem}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /admin/users/{id}/role [patch]
func UpdateUserRole(c *gin.Context) {
	id, ok := common.ParseID(c, "id")
	if !ok {
		return
	}

	var req UpdateRoleRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	updatedUser, err := services.UpdateUserRole(id, req.Role, common.Actor(c).Operator)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("User updated successfully", newUserListItem(*updatedUser)))
}

type TokenResponse struct {
	Token string `json:"token"`
}

// IssueToken mints an access token for a user, for use by the upstream
// login gateway.
func IssueToken(c *gin.Context) {
	id, ok := common.ParseID(c, "id")
	if !ok {
		return
	}

	u, err := services.FindUserByID(id)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	token, err := utils.GenerateToken(u.ID, u.Role)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Token issued", TokenResponse{Token: token}))
}
