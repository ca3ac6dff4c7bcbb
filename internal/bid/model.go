// File: internal/bid/model.go
package bid

import (
	"time"

	"tradepost_backend/internal/common"
	"tradepost_backend/internal/conversation"
	"tradepost_backend/internal/listing"
	"tradepost_backend/internal/user"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a bid.
//
// Transitions: PENDING -> ACCEPTED, PENDING -> REJECTED, and
// ACCEPTED -> REJECTED (a seller cancelling an acceptance). REJECTED is
// terminal; nothing ever moves back to PENDING. All transitions go
// through this package's service; no other code mutates bid status.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Bid is an offer by a user against an auction listing. Bids are an
// append-only ledger: rows are never deleted (except by listing deletion
// cascade), only their status changes.
type Bid struct {
	common.BaseModel
	ListingID uuid.UUID        `gorm:"type:uuid;not null;index"`
	Listing   *listing.Listing `gorm:"foreignKey:ListingID;references:ID;constraint:OnDelete:CASCADE;"`
	BidderID  uuid.UUID        `gorm:"type:uuid;not null;index"`
	Bidder    *user.User       `gorm:"foreignKey:BidderID;references:ID"`
	Amount    int64            `gorm:"not null"`
	Status    Status           `gorm:"type:varchar(20);not null;default:'pending';index"`
}

func (Bid) TableName() string {
	return "bids"
}

// --- DTOs for API ---

type PlaceBidRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

type BidResponse struct {
	ID        uuid.UUID          `json:"id"`
	ListingID uuid.UUID          `json:"listing_id"`
	BidderID  uuid.UUID          `json:"bidder_id"`
	Bidder    *user.UserResponse `json:"bidder,omitempty"`
	Amount    int64              `json:"amount"`
	Status    Status             `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func ToBidResponse(b *Bid) BidResponse {
	resp := BidResponse{
		ID:        b.ID,
		ListingID: b.ListingID,
		BidderID:  b.BidderID,
		Amount:    b.Amount,
		Status:    b.Status,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
	if b.Bidder != nil {
		bidderResp := user.ToUserResponse(b.Bidder)
		resp.Bidder = &bidderResp
	}
	return resp
}

// AcceptResult is what acceptBid hands back to the API layer: the bid in
// its new state plus the seller-buyer conversation for the listing.
type AcceptResult struct {
	Bid          *Bid
	Conversation *conversation.Conversation
}

// PriceQuote is the derived competitive price of a listing. It is never
// stored; see Service.CurrentPrice.
type PriceQuote struct {
	ListingID    uuid.UUID `json:"listing_id"`
	CurrentPrice int64     `json:"current_price"`
	MinNextBid   int64     `json:"min_next_bid"`
	BidCount     int64     `json:"bid_count"`
}
