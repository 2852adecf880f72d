package middleware

import (
	"driveet-backend/internal/database"
	"driveet-backend/internal/models"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test_secret"

func setupTestConfig(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", testSecret)
}

func setupTestDB(t *testing.T) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	database.DB = db
	t.Cleanup(func() { sqlDB.Close() })
}

func setupMockRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	database.RedisClient = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		database.RedisClient.Close()
		database.RedisClient = nil
	})
	return mr
}

func seedUser(t *testing.T, username, role string) models.User {
	t.Helper()
	user := models.User{Username: username, Role: role, Version: 1}
	require.NoError(t, database.DB.Create(&user).Error)
	return user
}

func signToken(t *testing.T, userID uint, role string, ttl time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"jti":     uuid.NewString(),
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}
