package bundle

import (
	"driveet-backend/internal/models"
	"time"
)

type DefinitionResponse struct {
	ID                       uint         `json:"id"`
	Name                     string       `json:"name"`
	Code                     string       `json:"code"`
	Description              string       `json:"description"`
	ExamQuota                models.Quota `json:"exam_quota" swaggertype:"string"`
	TotalChatQuota           models.Quota `json:"total_chat_quota" swaggertype:"string"`
	DailyChatLimit           models.Quota `json:"daily_chat_limit" swaggertype:"string"`
	SearchQuota              models.Quota `json:"search_quota" swaggertype:"string"`
	HasUnlimitedRoadSignQuiz bool         `json:"has_unlimited_road_sign_quiz"`
	ValidityDays             int          `json:"validity_days"`
	Price                    float64      `json:"price"`
	Recommended              bool         `json:"recommended"`
	IsActive                 bool         `json:"is_active"`
	DisplayOrder             int          `json:"display_order"`
}

func NewDefinitionResponse(d models.BundleDefinition) DefinitionResponse {
	return DefinitionResponse{
		ID:                       d.ID,
		Name:                     d.Name,
		Code:                     d.Code,
		Description:              d.Description,
		ExamQuota:                d.ExamQuota,
		TotalChatQuota:           d.TotalChatQuota,
		DailyChatLimit:           d.DailyChatLimit,
		SearchQuota:              d.SearchQuota,
		HasUnlimitedRoadSignQuiz: d.HasUnlimitedRoadSignQuiz,
		ValidityDays:             d.ValidityDays,
		Price:                    d.Price,
		Recommended:              d.Recommended,
		IsActive:                 d.IsActive,
		DisplayOrder:             d.DisplayOrder,
	}
}

type UserBundleResponse struct {
	ID                 uint               `json:"id"`
	Definition         DefinitionResponse `json:"definition"`
	PurchaseDate       time.Time          `json:"purchase_date"`
	ExpiryDate         time.Time          `json:"expiry_date"`
	IsActive           bool               `json:"is_active"`
	ExamsRemaining     int                `json:"exams_remaining"`
	ChatsRemaining     int                `json:"chats_remaining"`
	SearchRemaining    int                `json:"search_remaining"`
	TotalChatsConsumed int                `json:"total_chats_consumed"`
	DailyChatsUsed     int                `json:"daily_chats_used"`
}

func NewUserBundleResponse(b models.UserBundle) UserBundleResponse {
	return UserBundleResponse{
		ID:                 b.ID,
		Definition:         NewDefinitionResponse(b.BundleDefinition),
		PurchaseDate:       b.PurchaseDate,
		ExpiryDate:         b.ExpiryDate,
		IsActive:           b.IsActive,
		ExamsRemaining:     b.ExamsRemaining,
		ChatsRemaining:     b.ChatsRemaining,
		SearchRemaining:    b.SearchRemaining,
		TotalChatsConsumed: b.TotalChatsConsumed,
		DailyChatsUsed:     b.DailyChatsUsed,
	}
}

type ConsumeRequest struct {
	Resource string `json:"resource" binding:"required,oneof=exam chat search road_sign"`
	Quantity int    `json:"quantity" binding:"omitempty,gte=1,lte=100"`
	Note     string `json:"note" binding:"max=255"`
}

type AccessResponse struct {
	Resource models.ResourceKind `json:"resource"`
	Allowed  bool                `json:"allowed"`
	Reason   string              `json:"reason,omitempty"`
}
