package models

import "time"

// User is the owner record. ActiveBundleID is the single active-bundle
// pointer; it is only written by order completion, direct purchase and the
// expiry sweep.
type User struct {
	ID             uint `gorm:"primarykey"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Username       string `gorm:"uniqueIndex;not null"`
	TelegramID     *int64 `gorm:"uniqueIndex"`
	Role           string `gorm:"not null;default:'user'"`
	ActiveBundleID *uint  `gorm:"index"`
	Version        int    `gorm:"default:1"`
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
