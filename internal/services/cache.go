package services

import (
	"driveet-backend/internal/database"
	"driveet-backend/pkg/logger"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	catalogDefinitionsKey = "catalog:definitions:active"
	catalogMethodsKey     = "catalog:payment_methods:active"
)

func resourceCacheKey(userID uint) string {
	return fmt.Sprintf("bundle:resources:%d", userID)
}

// cacheGet decodes key into dest. A miss, a disabled cache and a broken
// entry all report false.
func cacheGet(key string, dest interface{}) bool {
	if database.RedisClient == nil {
		return false
	}
	raw, err := database.RedisClient.Get(database.Ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		logger.Log.Warn("cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func cacheSet(key string, value interface{}, ttl time.Duration) {
	if database.RedisClient == nil || ttl <= 0 {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		logger.Log.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := database.RedisClient.Set(database.Ctx, key, raw, ttl).Err(); err != nil {
		logger.Log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func cacheDel(keys ...string) {
	if database.RedisClient == nil || len(keys) == 0 {
		return
	}
	if err := database.RedisClient.Del(database.Ctx, keys...).Err(); err != nil {
		logger.Log.Warn("cache delete failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

func invalidateResourceCache(userIDs ...uint) {
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, resourceCacheKey(id))
	}
	cacheDel(keys...)
}

func invalidateCatalogCache() {
	cacheDel(catalogDefinitionsKey, catalogMethodsKey)
}
