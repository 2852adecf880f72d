package services

import (
	"driveet-backend/internal/database"
	"driveet-backend/internal/models"
	"driveet-backend/pkg/logger"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrOptimisticLock = newError(KindInvalidState, "data has been modified by another user, please refresh and try again")

const userCacheTTL = 10 * time.Minute

func userCacheKey(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}

// FindUserByID loads a user for request authentication. The cached copy is
// only used for identity and role; bundle operations always re-read the
// active pointer inside their own transaction.
func FindUserByID(userID uint) (models.User, error) {
	var user models.User
	if cacheGet(userCacheKey(userID), &user) {
		return user, nil
	}

	if err := database.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user, newError(KindNotFound, "user %d not found", userID)
		}
		return user, internalError("load user", err)
	}

	cacheSet(userCacheKey(userID), user, userCacheTTL)
	return user, nil
}

// CreateUser registers a user record. Authentication itself happens upstream.
func CreateUser(username string, telegramID *int64, role string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, newError(KindValidation, "username is required")
	}
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, newError(KindValidation, "unknown role %q", role)
	}

	var existing int64
	if err := database.DB.Model(&models.User{}).Where("username = ?", username).Count(&existing).Error; err != nil {
		return nil, internalError("check username", err)
	}
	if existing > 0 {
		return nil, newError(KindValidation, "username %s is taken", username)
	}

	user := &models.User{
		Username:   username,
		TelegramID: telegramID,
		Role:       role,
		Version:    1,
	}
	if err := database.DB.Create(user).Error; err != nil {
		return nil, internalError("create user", err)
	}
	return user, nil
}

// FindUsers retrieves a paginated list of users.
func FindUsers(page, limit int) ([]models.User, int64, error) {
	var users []models.User
	var total int64

	page, limit = normalizePage(page, limit)
	offset := (page - 1) * limit

	if err := database.DB.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, internalError("count users", err)
	}

	if err := database.DB.Order("id asc").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, internalError("find users", err)
	}

	return users, total, nil
}

// UpdateUserRole changes a user's role with an optimistic version check.
func UpdateUserRole(id uint, role string, operator string) (*models.User, error) {
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, newError(KindValidation, "unknown role %q", role)
	}

	var user models.User
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(KindNotFound, "user %d not found", id)
			}
			return err
		}

		currentVersion := user.Version
		result := tx.Model(&models.User{}).
			Where("id = ? AND version = ?", id, currentVersion).
			Updates(map[string]interface{}{
				"role":       role,
				"version":    currentVersion + 1,
				"updated_at": now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrOptimisticLock
		}
		return tx.First(&user, id).Error
	})
	if err != nil {
		return nil, internalError("update user role", err)
	}

	cacheDel(userCacheKey(id))
	logger.Log.Info("user role updated",
		zap.Uint("user_id", id),
		zap.String("role", role),
		zap.String("operator", operator),
	)
	return &user, nil
}
