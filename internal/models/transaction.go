package models

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

type TransactionType string

const (
	TransactionTypePurchase TransactionType = "purchase"
	TransactionTypeConsume  TransactionType = "consume"
	TransactionTypeRefund   TransactionType = "refund"
	TransactionTypeReset    TransactionType = "reset"
	TransactionTypeExpiry   TransactionType = "expiry"
)

// ResourceTransaction is an append-only ledger row. Every counter write on a
// UserBundle commits together with exactly one of these.
type ResourceTransaction struct {
	ID           uint            `gorm:"primarykey"`
	CreatedAt    time.Time       `gorm:"precision:3;index"` // Millisecond precision
	UserID       uint            `gorm:"index;not null"`
	UserBundleID uint            `gorm:"index;not null"`
	Type         TransactionType `gorm:"type:varchar(20);index;not null"`
	Resource     ResourceKind    `gorm:"type:varchar(20);index"` // empty for purchase/expiry
	Quantity     int             `gorm:"not null"`
	Before       BalanceSnapshot `gorm:"embedded;embeddedPrefix:before_"`
	After        BalanceSnapshot `gorm:"embedded;embeddedPrefix:after_"`
	Reference    string          `gorm:"type:varchar(100)"`
	Description  string          `gorm:"type:text"`
	Operator     string          `gorm:"type:varchar(100)"` // Username or 'system'
	IPAddress    string          `gorm:"type:varchar(50)"`
	UserAgent    string          `gorm:"type:varchar(255)"`
	Hash         string          `gorm:"type:varchar(64);default:''"` // HMAC SHA256
}

// GenerateHash generates a tamper-proof hash for the transaction
func (t *ResourceTransaction) GenerateHash(secret string) string {
	data := fmt.Sprintf("%d|%d|%d|%s|%s|%d|%s|%s|%s|%s",
		t.UserID, t.UserBundleID, t.CreatedAt.UnixMilli(), t.Type, t.Resource, t.Quantity,
		snapshotKey(t.Before), snapshotKey(t.After), t.Reference, t.Description)

	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

func snapshotKey(s BalanceSnapshot) string {
	return fmt.Sprintf("%d,%d,%d,%d,%d", s.Exams, s.Chats, s.Search, s.TotalChats, s.DailyChats)
}
