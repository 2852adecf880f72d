package utils

import (
	"driveet-backend/config"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenTTL bounds how long an issued token stays valid, and so how long a
// revoked one must stay denylisted.
const TokenTTL = 72 * time.Hour

// GenerateToken signs a token for the user. Every token carries its own jti,
// so revoking one never revokes another issued in the same second.
func GenerateToken(userID uint, role string) (string, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return "", err
	}

	issued := time.Now()
	claims := jwt.MapClaims{
		"jti":     uuid.NewString(),
		"user_id": userID,
		"role":    role,
		"iat":     issued.Unix(),
		"exp":     issued.Add(TokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
}

func ValidateToken(tokenString string) (jwt.MapClaims, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// UserIDFromClaims reads the numeric user_id claim.
func UserIDFromClaims(claims jwt.MapClaims) (uint, bool) {
	id, ok := claims["user_id"].(float64)
	if !ok || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

// ExtractToken reads the bearer token from the Authorization header.
func ExtractToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("authorization header is required")
	}

	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", fmt.Errorf("bearer token not found")
	}
	return strings.TrimPrefix(authHeader, bearerPrefix), nil
}
