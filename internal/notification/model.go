// File: internal/notification/model.go
package notification

import (
	"time"

	"tradepost_backend/internal/common"

	"github.com/google/uuid"
)

// Type classifies a notification so clients can route and render it.
type Type string

const (
	BidReceived    Type = "bid_received"
	BidAccepted    Type = "bid_accepted"
	BidRejected    Type = "bid_rejected"
	BidCancelled   Type = "bid_cancelled"
	SaleFinalized  Type = "sale_finalized"
	ListingExpired Type = "listing_expired"
	NewMessage     Type = "new_message"
)

// Notification represents a persisted in-app notification for a user.
// Push delivery is layered on top and is best effort; the row is the
// source of truth.
type Notification struct {
	common.BaseModel
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Type      Type       `gorm:"type:varchar(50);not null" json:"type"`
	Message   string     `gorm:"type:text;not null" json:"message"`
	ListingID *uuid.UUID `gorm:"type:uuid;index" json:"listing_id,omitempty"`
	IsRead    bool       `gorm:"not null;default:false" json:"is_read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}

// NotificationResponse is the API representation of a notification.
type NotificationResponse struct {
	ID        uuid.UUID  `json:"id"`
	Type      Type       `json:"type"`
	Message   string     `json:"message"`
	ListingID *uuid.UUID `json:"listing_id,omitempty"`
	IsRead    bool       `json:"is_read"`
	CreatedAt time.Time  `json:"created_at"`
}

func ToNotificationResponse(n *Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Message:   n.Message,
		ListingID: n.ListingID,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}
