// File: internal/listing/model.go
package listing

import (
	"time"

	"tradepost_backend/internal/common"
	"tradepost_backend/internal/user"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PricingMode determines how a listing sells.
type PricingMode string

const (
	PricingFixed   PricingMode = "fixed"
	PricingAuction PricingMode = "auction"
)

// Status is the lifecycle state of a listing.
type Status string

const (
	StatusActive  Status = "active"
	StatusSold    Status = "sold"
	StatusExpired Status = "expired"
)

// Listing is an item for sale, fixed-price or auction-style.
//
// The competitive price of an auction is never stored here: it is derived
// from the highest bid (or StartingBid, or MarketPrice) at read time.
// Status and WinnerID are mutated only by this package's expiry/republish
// paths and by the bid engine; nothing else may flip a listing to or from
// StatusSold.
type Listing struct {
	common.BaseModel
	SellerID        uuid.UUID      `gorm:"type:uuid;not null;index"`
	Seller          *user.User     `gorm:"foreignKey:SellerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Slug            string         `gorm:"type:varchar(280);not null;index"`
	Title           string         `gorm:"type:varchar(255);not null"`
	Description     string         `gorm:"type:text;not null"`
	PricingMode     PricingMode    `gorm:"type:varchar(20);not null;default:'fixed'"`
	MarketPrice     int64          `gorm:"not null"`
	StartingBid     *int64         `gorm:""`
	MinBidIncrement int64          `gorm:"not null;default:1"`
	BuyNowPrice     *int64         `gorm:""`
	Status          Status         `gorm:"type:varchar(20);not null;default:'active';index"`
	WinnerID        *uuid.UUID     `gorm:"type:uuid"`
	Tags            pq.StringArray `gorm:"type:text[]"`
	ExpiresAt       time.Time      `gorm:"not null;index"`
	Images          []ListingImage `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE;"`
}

func (Listing) TableName() string {
	return "listings"
}

// IsAuction reports whether the listing accepts bids at all.
func (l *Listing) IsAuction() bool {
	return l.PricingMode == PricingAuction
}

// ListingImage is a photo attached to a listing.
type ListingImage struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	ListingID uuid.UUID `json:"listing_id" gorm:"type:uuid;not null;index"`
	ImageURL  string    `json:"image_url" gorm:"type:text;not null"`
	SortOrder int       `json:"sort_order" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (ListingImage) TableName() string {
	return "listing_images"
}

// --- DTOs for API ---

type CreateListingRequest struct {
	Title           string      `json:"title" binding:"required,min=5,max=255"`
	Description     string      `json:"description" binding:"required,min=20"`
	PricingMode     PricingMode `json:"pricing_mode" binding:"required,oneof=fixed auction"`
	MarketPrice     int64       `json:"market_price" binding:"required,gt=0"`
	StartingBid     *int64      `json:"starting_bid,omitempty" binding:"omitempty,gt=0"`
	MinBidIncrement *int64      `json:"min_bid_increment,omitempty" binding:"omitempty,gt=0"`
	BuyNowPrice     *int64      `json:"buy_now_price,omitempty" binding:"omitempty,gt=0"`
	Tags            []string    `json:"tags,omitempty" binding:"omitempty,dive,max=50"`
	ImageURLs       []string    `json:"image_urls,omitempty" binding:"omitempty,dive,max=2048"`
}

type UpdateListingRequest struct {
	Title       *string  `json:"title,omitempty" binding:"omitempty,min=5,max=255"`
	Description *string  `json:"description,omitempty" binding:"omitempty,min=20"`
	MarketPrice *int64   `json:"market_price,omitempty" binding:"omitempty,gt=0"`
	BuyNowPrice *int64   `json:"buy_now_price,omitempty" binding:"omitempty,gt=0"`
	Tags        []string `json:"tags,omitempty" binding:"omitempty,dive,max=50"`
}

type ListingImageResponse struct {
	ID        uuid.UUID `json:"id"`
	ImageURL  string    `json:"image_url"`
	SortOrder int       `json:"sort_order"`
}

type ListingResponse struct {
	ID              uuid.UUID              `json:"id"`
	SellerID        uuid.UUID              `json:"seller_id"`
	Seller          *user.UserResponse     `json:"seller,omitempty"`
	Slug            string                 `json:"slug"`
	Title           string                 `json:"title"`
	Description     string                 `json:"description"`
	PricingMode     PricingMode            `json:"pricing_mode"`
	MarketPrice     int64                  `json:"market_price"`
	StartingBid     *int64                 `json:"starting_bid,omitempty"`
	MinBidIncrement int64                  `json:"min_bid_increment"`
	BuyNowPrice     *int64                 `json:"buy_now_price,omitempty"`
	Status          Status                 `json:"status"`
	WinnerID        *uuid.UUID             `json:"winner_id,omitempty"`
	Tags            []string               `json:"tags,omitempty"`
	ExpiresAt       time.Time              `json:"expires_at"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
	Images          []ListingImageResponse `json:"images,omitempty"`
}

func ToListingResponse(l *Listing) ListingResponse {
	resp := ListingResponse{
		ID:              l.ID,
		SellerID:        l.SellerID,
		Slug:            l.Slug,
		Title:           l.Title,
		Description:     l.Description,
		PricingMode:     l.PricingMode,
		MarketPrice:     l.MarketPrice,
		StartingBid:     l.StartingBid,
		MinBidIncrement: l.MinBidIncrement,
		BuyNowPrice:     l.BuyNowPrice,
		Status:          l.Status,
		WinnerID:        l.WinnerID,
		Tags:            l.Tags,
		ExpiresAt:       l.ExpiresAt,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}

	if l.Seller != nil {
		sellerResp := user.ToUserResponse(l.Seller)
		resp.Seller = &sellerResp
	}

	if len(l.Images) > 0 {
		resp.Images = make([]ListingImageResponse, len(l.Images))
		for i, img := range l.Images {
			resp.Images[i] = ListingImageResponse{
				ID:        img.ID,
				ImageURL:  img.ImageURL,
				SortOrder: img.SortOrder,
			}
		}
	}
	return resp
}

type ListingSearchQuery struct {
	common.PaginationQuery
	SearchTerm  string  `form:"q"`
	SellerID    *string `form:"seller_id"`
	Status      string  `form:"status"`
	PricingMode string  `form:"pricing_mode"`
	Tag         string  `form:"tag"`
	SortBy      string  `form:"sort_by"`
	SortOrder   string  `form:"sort_order"`
}

type UserListingsQuery struct {
	common.PaginationQuery
	Status *string `form:"status"`
}
