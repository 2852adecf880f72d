package services

import (
	"driveet-backend/internal/database"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

const denylistPrefix = "denylist:"

// AddToDenylist revokes a token until it would have expired anyway.
func AddToDenylist(tokenString string, expiration time.Duration) error {
	if database.RedisClient == nil {
		return errors.New("redis is not configured")
	}
	key := denylistPrefix + tokenString
	return database.RedisClient.Set(database.Ctx, key, 1, expiration).Err()
}

// IsDenylisted reports false when redis is not configured.
func IsDenylisted(tokenString string) (bool, error) {
	if database.RedisClient == nil {
		return false, nil
	}
	key := denylistPrefix + tokenString
	val, err := database.RedisClient.Get(database.Ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return val != "", nil
}
