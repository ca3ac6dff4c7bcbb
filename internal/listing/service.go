// File: internal/listing/service.go
package listing

import (
	"context"
	"fmt"
	"time"

	"tradepost_backend/internal/common"
	"tradepost_backend/internal/config"
	"tradepost_backend/internal/notification"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

// Service defines the interface for listing-related business logic.
type Service interface {
	CreateListing(ctx context.Context, sellerID uuid.UUID, req CreateListingRequest) (*Listing, error)
	GetListingByID(ctx context.Context, id uuid.UUID) (*Listing, error)
	GetListingBySlug(ctx context.Context, slugStr string) (*Listing, error)
	UpdateListing(ctx context.Context, id uuid.UUID, sellerID uuid.UUID, req UpdateListingRequest) (*Listing, error)
	DeleteListing(ctx context.Context, id uuid.UUID, sellerID uuid.UUID) error
	SearchListings(ctx context.Context, query ListingSearchQuery) ([]Listing, *common.Pagination, error)
	GetUserListings(ctx context.Context, sellerID uuid.UUID, query UserListingsQuery) ([]Listing, *common.Pagination, error)
	RepublishListing(ctx context.Context, id uuid.UUID, sellerID uuid.UUID) (*Listing, error)

	// Jobs related (called by the expiry cron job)
	ExpireListings(ctx context.Context) (int, error)
}

// ServiceImplementation implements the listing Service interface.
type ServiceImplementation struct {
	repo                Repository
	notificationService notification.Service
	cfg                 *config.Config
	logger              *zap.Logger
}

// NewService creates a new listing service.
func NewService(
	repo Repository,
	notificationService notification.Service,
	cfg *config.Config,
	logger *zap.Logger,
) Service {
	return &ServiceImplementation{
		repo:                repo,
		notificationService: notificationService,
		cfg:                 cfg,
		logger:              logger,
	}
}

// CreateListing handles the business logic for creating a new listing.
func (s *ServiceImplementation) CreateListing(ctx context.Context, sellerID uuid.UUID, req CreateListingRequest) (*Listing, error) {
	if req.PricingMode == PricingFixed {
		// A fixed-price listing never has bids; bid floor fields make no sense.
		if req.StartingBid != nil || req.MinBidIncrement != nil {
			return nil, common.ErrBadRequest.WithDetails("starting_bid and min_bid_increment apply to auction listings only.")
		}
	}

	minIncrement := s.cfg.DefaultMinBidIncrement
	if req.MinBidIncrement != nil {
		minIncrement = *req.MinBidIncrement
	}
	if req.PricingMode == PricingAuction && minIncrement < 1 {
		return nil, common.ErrBadRequest.WithDetails("min_bid_increment must be at least 1.")
	}
	if req.BuyNowPrice != nil && req.StartingBid != nil && *req.BuyNowPrice <= *req.StartingBid {
		return nil, common.ErrBadRequest.WithDetails("buy_now_price must exceed the starting bid.")
	}

	expiresAt := time.Now().AddDate(0, 0, s.cfg.DefaultListingLifespanDays)

	newListing := &Listing{
		SellerID:        sellerID,
		Slug:            s.buildSlug(req.Title),
		Title:           req.Title,
		Description:     req.Description,
		PricingMode:     req.PricingMode,
		MarketPrice:     req.MarketPrice,
		StartingBid:     req.StartingBid,
		MinBidIncrement: minIncrement,
		BuyNowPrice:     req.BuyNowPrice,
		Status:          StatusActive,
		Tags:            req.Tags,
		ExpiresAt:       expiresAt,
	}
	for i, url := range req.ImageURLs {
		newListing.Images = append(newListing.Images, ListingImage{ImageURL: url, SortOrder: i})
	}

	if err := s.repo.Create(ctx, newListing); err != nil {
		s.logger.Error("Failed to create listing in repository", zap.Error(err))
		return nil, err
	}

	createdListing, err := s.repo.FindByID(ctx, newListing.ID, true)
	if err != nil {
		s.logger.Error("Failed to reload created listing with associations",
			zap.String("listingID", newListing.ID.String()), zap.Error(err))
		return newListing, nil
	}

	s.logger.Info("Listing created successfully",
		zap.String("listingID", createdListing.ID.String()),
		zap.String("pricingMode", string(createdListing.PricingMode)),
	)
	return createdListing, nil
}

func (s *ServiceImplementation) GetListingByID(ctx context.Context, id uuid.UUID) (*Listing, error) {
	return s.repo.FindByID(ctx, id, true)
}

func (s *ServiceImplementation) GetListingBySlug(ctx context.Context, slugStr string) (*Listing, error) {
	return s.repo.FindBySlug(ctx, slugStr)
}

// UpdateListing handles the logic for updating an existing listing.
// Sold listings are frozen; the sale record must stay as the buyer saw it.
func (s *ServiceImplementation) UpdateListing(ctx context.Context, id uuid.UUID, sellerID uuid.UUID, req UpdateListingRequest) (*Listing, error) {
	existing, err := s.repo.FindByID(ctx, id, true)
	if err != nil {
		return nil, err
	}

	if existing.SellerID != sellerID {
		s.logger.Warn("User attempted to update a listing they do not own",
			zap.String("listingID", id.String()),
			zap.String("editorUserID", sellerID.String()),
		)
		return nil, common.ErrForbidden.WithDetails("You do not have permission to update this listing.")
	}
	if existing.Status == StatusSold {
		return nil, common.ErrConflict.WithDetails("Sold listings cannot be edited.")
	}

	if req.Title != nil {
		existing.Title = *req.Title
		existing.Slug = s.buildSlug(*req.Title)
	}
	if req.Description != nil {
		existing.Description = *req.Description
	}
	if req.MarketPrice != nil {
		existing.MarketPrice = *req.MarketPrice
	}
	if req.BuyNowPrice != nil {
		existing.BuyNowPrice = req.BuyNowPrice
	}
	if req.Tags != nil {
		existing.Tags = req.Tags
	}

	if err := s.repo.Update(ctx, existing); err != nil {
		s.logger.Error("Failed to update listing in repository", zap.Error(err), zap.String("listingID", id.String()))
		return nil, err
	}

	updated, err := s.repo.FindByID(ctx, existing.ID, true)
	if err != nil {
		return existing, nil
	}
	s.logger.Info("Listing updated successfully", zap.String("listingID", updated.ID.String()))
	return updated, nil
}

func (s *ServiceImplementation) DeleteListing(ctx context.Context, id uuid.UUID, sellerID uuid.UUID) error {
	if err := s.repo.Delete(ctx, id, sellerID); err != nil {
		s.logger.Error("Failed to delete listing", zap.Error(err),
			zap.String("listingID", id.String()), zap.String("sellerID", sellerID.String()))
		return err
	}
	s.logger.Info("Listing deleted successfully", zap.String("listingID", id.String()))
	return nil
}

func (s *ServiceImplementation) SearchListings(ctx context.Context, query ListingSearchQuery) ([]Listing, *common.Pagination, error) {
	listings, pagination, err := s.repo.Search(ctx, query)
	if err != nil {
		s.logger.Error("Failed to search listings", zap.Error(err))
		return nil, nil, common.ErrInternalServer.WithDetails("Could not retrieve listings.")
	}
	return listings, pagination, nil
}

func (s *ServiceImplementation) GetUserListings(ctx context.Context, sellerID uuid.UUID, query UserListingsQuery) ([]Listing, *common.Pagination, error) {
	listings, pagination, err := s.repo.FindBySellerID(ctx, sellerID, query)
	if err != nil {
		s.logger.Error("Failed to get seller listings from repository",
			zap.String("sellerID", sellerID.String()), zap.Error(err))
		return nil, nil, err
	}
	return listings, pagination, nil
}

// RepublishListing is the only way back from StatusExpired: the seller
// explicitly relists, which resets status and extends the expiry date.
// Expiry is deliberately not self-healing on the bidding path.
func (s *ServiceImplementation) RepublishListing(ctx context.Context, id uuid.UUID, sellerID uuid.UUID) (*Listing, error) {
	existing, err := s.repo.FindByID(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if existing.SellerID != sellerID {
		return nil, common.ErrForbidden.WithDetails("You do not have permission to republish this listing.")
	}
	if existing.Status != StatusExpired {
		return nil, common.ErrConflict.WithDetails("Only expired listings can be republished.")
	}

	existing.Status = StatusActive
	existing.ExpiresAt = time.Now().AddDate(0, 0, s.cfg.DefaultListingLifespanDays)
	if err := s.repo.Update(ctx, existing); err != nil {
		s.logger.Error("Failed to republish listing", zap.Error(err), zap.String("listingID", id.String()))
		return nil, err
	}

	s.logger.Info("Listing republished", zap.String("listingID", id.String()),
		zap.Time("newExpiresAt", existing.ExpiresAt))
	return existing, nil
}

// ExpireListings finds and marks overdue listings as expired.
func (s *ServiceImplementation) ExpireListings(ctx context.Context) (int, error) {
	now := time.Now()
	expiredListings, err := s.repo.FindExpiredListings(ctx, now)
	if err != nil {
		s.logger.Error("Failed to find expired listings", zap.Error(err))
		return 0, err
	}

	count := 0
	for _, l := range expiredListings {
		if err := s.repo.UpdateStatus(ctx, l.ID, StatusExpired); err != nil {
			s.logger.Error("Failed to update listing to expired", zap.Error(err), zap.String("listingID", l.ID.String()))
			continue
		}
		count++

		if s.notificationService != nil {
			message := fmt.Sprintf("Your listing '%s' has expired. Republish it to keep selling.", l.Title)
			_, errNotif := s.notificationService.CreateNotification(ctx, l.SellerID, notification.ListingExpired, message, &l.ID)
			if errNotif != nil {
				s.logger.Error("Failed to send listing expired notification",
					zap.Error(errNotif), zap.String("listingID", l.ID.String()))
			}
		}
	}
	s.logger.Info("Listing expiry job completed", zap.Int("expired_count", count), zap.Int("found_to_expire", len(expiredListings)))
	return count, nil
}

func (s *ServiceImplementation) buildSlug(title string) string {
	// Suffix keeps slugs unique without a lookup round trip.
	return fmt.Sprintf("%s-%s", slug.Make(title), uuid.NewString()[:8])
}
