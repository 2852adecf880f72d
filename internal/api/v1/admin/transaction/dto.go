package transaction

import (
	"driveet-backend/internal/models"
	"time"
)

type TransactionListItem struct {
	ID           uint                   `json:"id"`
	CreatedAt    time.Time              `json:"created_at"`
	UserID       uint                   `json:"user_id"`
	UserBundleID uint                   `json:"user_bundle_id"`
	Type         models.TransactionType `json:"type"`
	Resource     models.ResourceKind    `json:"resource,omitempty"`
	Quantity     int                    `json:"quantity"`
	Before       Snapshot               `json:"before"`
	After        Snapshot               `json:"after"`
	Reference    string                 `json:"reference,omitempty"`
	Description  string                 `json:"description"`
	Operator     string                 `json:"operator"`
	IPAddress    string                 `json:"ip_address"`
	UserAgent    string                 `json:"user_agent"`
	Hash         string                 `json:"hash"`
}

type Snapshot struct {
	Exams      int `json:"exams"`
	Chats      int `json:"chats"`
	Search     int `json:"search"`
	TotalChats int `json:"total_chats"`
	DailyChats int `json:"daily_chats"`
}

func newSnapshot(s models.BalanceSnapshot) Snapshot {
	return Snapshot{
		Exams:      s.Exams,
		Chats:      s.Chats,
		Search:     s.Search,
		TotalChats: s.TotalChats,
		DailyChats: s.DailyChats,
	}
}

type TransactionListResponse struct {
	Transactions []TransactionListItem `json:"transactions"`
	Total        int64                 `json:"total"`
	Page         int                   `json:"page"`
	Limit        int                   `json:"limit"`
}
