// File: internal/favorite/model.go
package favorite

import (
	"time"

	"tradepost_backend/internal/listing"

	"github.com/google/uuid"
)

// Favorite marks a listing saved by a user. One row per (user, listing).
type Favorite struct {
	UserID    uuid.UUID        `gorm:"type:uuid;primaryKey"`
	ListingID uuid.UUID        `gorm:"type:uuid;primaryKey"`
	Listing   *listing.Listing `gorm:"foreignKey:ListingID;references:ID;constraint:OnDelete:CASCADE;"`
	CreatedAt time.Time        `gorm:"autoCreateTime"`
}

func (Favorite) TableName() string {
	return "favorites"
}

type FavoriteResponse struct {
	ListingID uuid.UUID                `json:"listing_id"`
	Listing   *listing.ListingResponse `json:"listing,omitempty"`
	CreatedAt time.Time                `json:"created_at"`
}

func ToFavoriteResponse(f *Favorite) FavoriteResponse {
	resp := FavoriteResponse{
		ListingID: f.ListingID,
		CreatedAt: f.CreatedAt,
	}
	if f.Listing != nil {
		listingResp := listing.ToListingResponse(f.Listing)
		resp.Listing = &listingResp
	}
	return resp
}
