package models

import "time"

// ResourceKind names a metered (or entitlement-only) resource.
type ResourceKind string

const (
	ResourceExam     ResourceKind = "exam"
	ResourceChat     ResourceKind = "chat"
	ResourceSearch   ResourceKind = "search"
	ResourceRoadSign ResourceKind = "road_sign"
)

func (k ResourceKind) Valid() bool {
	switch k {
	case ResourceExam, ResourceChat, ResourceSearch, ResourceRoadSign:
		return true
	}
	return false
}

// BalanceSnapshot is the full set of mutable counters on a UserBundle.
type BalanceSnapshot struct {
	Exams      int `gorm:"not null;default:0"`
	Chats      int `gorm:"not null;default:0"`
	Search     int `gorm:"not null;default:0"`
	TotalChats int `gorm:"not null;default:0"`
	DailyChats int `gorm:"not null;default:0"`
}

// UserBundle is a user's live, time-boxed instance of a BundleDefinition.
// Counters are only mutated under a row lock together with a
// ResourceTransaction row.
type UserBundle struct {
	ID                 uint             `gorm:"primarykey"`
	UserID             uint             `gorm:"not null;index:idx_user_bundle_active,priority:1"`
	BundleDefinitionID uint             `gorm:"not null;index"`
	BundleDefinition   BundleDefinition `gorm:"foreignKey:BundleDefinitionID"`
	PurchaseDate       time.Time        `gorm:"not null"`
	ExpiryDate         time.Time        `gorm:"not null;index;index:idx_user_bundle_active,priority:3"`
	IsActive           bool             `gorm:"not null;index:idx_user_bundle_active,priority:2"`
	ExamsRemaining     int              `gorm:"not null;default:0"`
	ChatsRemaining     int              `gorm:"not null;default:0"`
	SearchRemaining    int              `gorm:"not null;default:0"`
	TotalChatsConsumed int              `gorm:"not null;default:0"`
	DailyChatsUsed     int              `gorm:"not null;default:0"`
	LastChatReset      time.Time        `gorm:"not null;index"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewUserBundle initializes balances from the definition's quotas.
// Unlimited quotas start (and stay) at zero remaining; admission never reads them.
func NewUserBundle(userID uint, def *BundleDefinition, now time.Time) *UserBundle {
	return &UserBundle{
		UserID:             userID,
		BundleDefinitionID: def.ID,
		PurchaseDate:       now,
		ExpiryDate:         now.Add(def.Validity()),
		IsActive:           true,
		ExamsRemaining:     def.ExamQuota.BoundedValue(),
		ChatsRemaining:     def.TotalChatQuota.BoundedValue(),
		SearchRemaining:    def.SearchQuota.BoundedValue(),
		LastChatReset:      now,
	}
}

func (b *UserBundle) IsExpired(now time.Time) bool {
	return b.ExpiryDate.Before(now)
}

// DailyResetDue reports whether a full day has elapsed since the last
// daily-chat reset.
func (b *UserBundle) DailyResetDue(now time.Time) bool {
	return now.Sub(b.LastChatReset) >= 24*time.Hour
}

// EffectiveDailyChatsUsed is the daily counter as it would read after a due reset.
func (b *UserBundle) EffectiveDailyChatsUsed(now time.Time) int {
	if b.DailyResetDue(now) {
		return 0
	}
	return b.DailyChatsUsed
}

func (b *UserBundle) Snapshot() BalanceSnapshot {
	return BalanceSnapshot{
		Exams:      b.ExamsRemaining,
		Chats:      b.ChatsRemaining,
		Search:     b.SearchRemaining,
		TotalChats: b.TotalChatsConsumed,
		DailyChats: b.DailyChatsUsed,
	}
}

// DaysRemaining never goes below zero.
func (b *UserBundle) DaysRemaining(now time.Time) int {
	d := int(b.ExpiryDate.Sub(now).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}
