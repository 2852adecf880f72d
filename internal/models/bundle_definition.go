package models

import "time"

// BundleDefinition is the catalog template for a purchasable quota package.
// Quotas and price are frozen once any purchase references the definition.
type BundleDefinition struct {
	ID                       uint    `gorm:"primarykey"`
	Name                     string  `gorm:"type:varchar(200);not null"`
	Code                     string  `gorm:"type:varchar(50);uniqueIndex;not null"`
	Description              string  `gorm:"type:text"`
	ExamQuota                Quota   `gorm:"type:integer;not null"`
	TotalChatQuota           Quota   `gorm:"type:integer;not null"`
	DailyChatLimit           Quota   `gorm:"type:integer;not null"`
	SearchQuota              Quota   `gorm:"type:integer;not null"`
	HasUnlimitedRoadSignQuiz bool    `gorm:"not null"`
	ValidityDays             int     `gorm:"not null"`
	Price                    float64 `gorm:"type:decimal(10,2);not null;index"`
	Recommended              bool    `gorm:"not null"`
	IsActive                 bool    `gorm:"not null;index"`
	DisplayOrder             int     `gorm:"not null;default:0"`
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// BoundedQuotaSum adds the bounded exam, chat and search quotas. Unlimited
// quotas contribute nothing.
func (d *BundleDefinition) BoundedQuotaSum() int {
	return d.ExamQuota.BoundedValue() + d.TotalChatQuota.BoundedValue() + d.SearchQuota.BoundedValue()
}

// Validity returns the bundle lifetime as a duration.
func (d *BundleDefinition) Validity() time.Duration {
	return time.Duration(d.ValidityDays) * 24 * time.Hour
}
