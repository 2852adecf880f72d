package catalog

import "driveet-backend/internal/models"

// UpsertDefinitionRequest accepts quotas as an integer or the string "unlimited".
type UpsertDefinitionRequest struct {
	Name                     string       `json:"name" binding:"required,max=100"`
	Code                     string       `json:"code" binding:"required,max=50"`
	Description              string       `json:"description"`
	ExamQuota                models.Quota `json:"exam_quota"`
	TotalChatQuota           models.Quota `json:"total_chat_quota"`
	DailyChatLimit           models.Quota `json:"daily_chat_limit"`
	SearchQuota              models.Quota `json:"search_quota"`
	HasUnlimitedRoadSignQuiz bool         `json:"has_unlimited_road_sign_quiz"`
	ValidityDays             int          `json:"validity_days" binding:"required,gte=1"`
	Price                    float64      `json:"price" binding:"gte=0"`
	Recommended              bool         `json:"recommended"`
	IsActive                 *bool        `json:"is_active"`
	DisplayOrder             int          `json:"display_order"`
}
