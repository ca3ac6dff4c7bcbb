// File: internal/conversation/model.go
package conversation

import (
	"time"

	"tradepost_backend/internal/common"
	"tradepost_backend/internal/user"

	"github.com/google/uuid"
)

// Conversation is a message thread between a listing's seller and one
// prospective buyer. There is at most one thread per (listing, buyer) pair.
type Conversation struct {
	common.BaseModel
	ListingID     uuid.UUID  `gorm:"type:uuid;not null;index:idx_conversations_listing_buyer,unique"`
	SellerID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	BuyerID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_conversations_listing_buyer,unique"`
	Seller        *user.User `gorm:"foreignKey:SellerID;references:ID"`
	Buyer         *user.User `gorm:"foreignKey:BuyerID;references:ID"`
	LastMessageAt *time.Time `gorm:"index"`
	Messages      []Message  `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE;"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// Message is a single message within a conversation.
type Message struct {
	common.BaseModel
	ConversationID uuid.UUID  `gorm:"type:uuid;not null;index"`
	SenderID       uuid.UUID  `gorm:"type:uuid;not null"`
	Sender         *user.User `gorm:"foreignKey:SenderID;references:ID"`
	Content        string     `gorm:"type:text;not null"`
}

func (Message) TableName() string {
	return "messages"
}

// --- DTOs for API ---

type SendMessageRequest struct {
	Content string `json:"content" binding:"required,min=1,max=4000"`
}

type StartConversationRequest struct {
	ListingID uuid.UUID `json:"listing_id" binding:"required"`
	Content   string    `json:"content" binding:"required,min=1,max=4000"`
}

type MessageResponse struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

func ToMessageResponse(m *Message) MessageResponse {
	return MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
}

type ConversationResponse struct {
	ID            uuid.UUID          `json:"id"`
	ListingID     uuid.UUID          `json:"listing_id"`
	SellerID      uuid.UUID          `json:"seller_id"`
	BuyerID       uuid.UUID          `json:"buyer_id"`
	Seller        *user.UserResponse `json:"seller,omitempty"`
	Buyer         *user.UserResponse `json:"buyer,omitempty"`
	LastMessageAt *time.Time         `json:"last_message_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

func ToConversationResponse(c *Conversation) ConversationResponse {
	resp := ConversationResponse{
		ID:            c.ID,
		ListingID:     c.ListingID,
		SellerID:      c.SellerID,
		BuyerID:       c.BuyerID,
		LastMessageAt: c.LastMessageAt,
		CreatedAt:     c.CreatedAt,
	}
	if c.Seller != nil {
		sellerResp := user.ToUserResponse(c.Seller)
		resp.Seller = &sellerResp
	}
	if c.Buyer != nil {
		buyerResp := user.ToUserResponse(c.Buyer)
		resp.Buyer = &buyerResp
	}
	return resp
}
