// File: internal/listing/repository.go
package listing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tradepost_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository defines the interface for listing data operations.
type Repository interface {
	Create(ctx context.Context, listing *Listing) error
	FindByID(ctx context.Context, id uuid.UUID, preloadAssociations bool) (*Listing, error)
	FindBySlug(ctx context.Context, slug string) (*Listing, error)
	Update(ctx context.Context, listing *Listing) error
	Delete(ctx context.Context, id uuid.UUID, sellerID uuid.UUID) error
	Search(ctx context.Context, query ListingSearchQuery) ([]Listing, *common.Pagination, error)
	FindBySellerID(ctx context.Context, sellerID uuid.UUID, query UserListingsQuery) ([]Listing, *common.Pagination, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	SetWinner(ctx context.Context, id uuid.UUID, winnerID uuid.UUID) error
	ClearSale(ctx context.Context, id uuid.UUID) error
	FindExpiredListings(ctx context.Context, now time.Time) ([]Listing, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM listing repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) preloader(query *gorm.DB) *gorm.DB {
	return query.Preload("Seller").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("listing_images.sort_order ASC")
		})
}

// Create inserts a new listing and its images within a transaction.
func (r *gormRepository) Create(ctx context.Context, listing *Listing) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		images := listing.Images
		listing.Images = nil
		if err := tx.Create(listing).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "unique constraint") {
				return common.ErrConflict.WithDetails("A similar listing already exists.")
			}
			return fmt.Errorf("failed to create listing: %w", err)
		}

		for i := range images {
			images[i].ListingID = listing.ID
		}
		if len(images) > 0 {
			if err := tx.Create(&images).Error; err != nil {
				return fmt.Errorf("failed to create listing images: %w", err)
			}
		}
		listing.Images = images
		return nil
	})
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID, preloadAssociations bool) (*Listing, error) {
	var listing Listing
	query := r.db.WithContext(ctx)
	if preloadAssociations {
		query = r.preloader(query)
	}
	err := query.First(&listing, "listings.id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Listing not found.")
		}
		return nil, err
	}
	return &listing, nil
}

func (r *gormRepository) FindBySlug(ctx context.Context, slug string) (*Listing, error) {
	var listing Listing
	err := r.preloader(r.db.WithContext(ctx)).First(&listing, "listings.slug = ?", slug).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Listing not found.")
		}
		return nil, err
	}
	return &listing, nil
}

func (r *gormRepository) Update(ctx context.Context, listing *Listing) error {
	if err := r.db.WithContext(ctx).Omit("Seller", "Images").Save(listing).Error; err != nil {
		return fmt.Errorf("failed to update listing: %w", err)
	}
	return nil
}

// Delete removes a listing by ID, ensuring ownership. Bids, conversations,
// favorites and images cascade through the schema constraints.
func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID, sellerID uuid.UUID) error {
	var listing Listing
	if err := r.db.WithContext(ctx).Where("id = ? AND seller_id = ?", id, sellerID).First(&listing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.ErrNotFound.WithDetails("Listing not found or you do not have permission to delete it.")
		}
		return err
	}

	result := r.db.WithContext(ctx).Select(clause.Associations).Delete(&Listing{BaseModel: common.BaseModel{ID: id}})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Listing not found or already deleted.")
	}
	return nil
}

// Search retrieves listings based on query parameters.
func (r *gormRepository) Search(ctx context.Context, queryParams ListingSearchQuery) ([]Listing, *common.Pagination, error) {
	var listings []Listing
	var totalItems int64

	dbQuery := r.db.WithContext(ctx).Model(&Listing{})

	if queryParams.SearchTerm != "" {
		searchTerm := "%" + strings.ToLower(queryParams.SearchTerm) + "%"
		dbQuery = dbQuery.Where("LOWER(listings.title) LIKE ? OR LOWER(listings.description) LIKE ?", searchTerm, searchTerm)
	}
	if queryParams.SellerID != nil && *queryParams.SellerID != "" {
		dbQuery = dbQuery.Where("listings.seller_id = ?", *queryParams.SellerID)
	}
	if queryParams.PricingMode != "" {
		dbQuery = dbQuery.Where("listings.pricing_mode = ?", queryParams.PricingMode)
	}
	if queryParams.Tag != "" {
		dbQuery = dbQuery.Where("? = ANY(listings.tags)", queryParams.Tag)
	}
	if queryParams.Status != "" {
		dbQuery = dbQuery.Where("listings.status = ?", queryParams.Status)
	} else {
		// Default: only live listings that have not lapsed.
		dbQuery = dbQuery.Where("listings.status = ?", StatusActive)
		dbQuery = dbQuery.Where("listings.expires_at > ?", time.Now())
	}

	if err := dbQuery.Count(&totalItems).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to count listings: %w", err)
	}

	sortOrder := "DESC"
	if strings.ToLower(queryParams.SortOrder) == "asc" {
		sortOrder = "ASC"
	}
	validSortableFields := map[string]string{
		"created_at":   "listings.created_at",
		"expires_at":   "listings.expires_at",
		"market_price": "listings.market_price",
		"title":        "listings.title",
	}
	if dbSortField, ok := validSortableFields[queryParams.SortBy]; ok {
		dbQuery = dbQuery.Order(fmt.Sprintf("%s %s", dbSortField, sortOrder))
	} else {
		dbQuery = dbQuery.Order("listings.created_at DESC")
	}

	pagination := common.NewPagination(totalItems, queryParams.Page, queryParams.PageSize)
	dbQuery = r.preloader(dbQuery).Offset(queryParams.Offset()).Limit(queryParams.Limit())

	if err := dbQuery.Find(&listings).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to search listings: %w", err)
	}
	return listings, pagination, nil
}

func (r *gormRepository) FindBySellerID(ctx context.Context, sellerID uuid.UUID, query UserListingsQuery) ([]Listing, *common.Pagination, error) {
	var listings []Listing
	var totalItems int64

	dbQuery := r.db.WithContext(ctx).Model(&Listing{}).Where("listings.seller_id = ?", sellerID)
	if query.Status != nil && *query.Status != "" {
		dbQuery = dbQuery.Where("listings.status = ?", *query.Status)
	}

	if err := dbQuery.Count(&totalItems).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to count seller listings: %w", err)
	}

	pagination := common.NewPagination(totalItems, query.Page, query.PageSize)
	err := r.preloader(dbQuery).
		Order("listings.created_at DESC").
		Offset(query.Offset()).
		Limit(query.Limit()).
		Find(&listings).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch seller listings: %w", err)
	}
	return listings, pagination, nil
}

// UpdateStatus flips the lifecycle status of a listing.
func (r *gormRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	result := r.db.WithContext(ctx).Model(&Listing{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Listing not found.")
	}
	return nil
}

// SetWinner records the winner and closes out the sale in one write.
func (r *gormRepository) SetWinner(ctx context.Context, id uuid.UUID, winnerID uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&Listing{}).Where("id = ?", id).Updates(map[string]interface{}{
		"winner_id": winnerID,
		"status":    StatusSold,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Listing not found.")
	}
	return nil
}

// ClearSale reverts a listing to active and drops the recorded winner.
// Used when the sale record turns out to have no accepted bid behind it.
func (r *gormRepository) ClearSale(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&Listing{}).Where("id = ?", id).Updates(map[string]interface{}{
		"winner_id": nil,
		"status":    StatusActive,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Listing not found.")
	}
	return nil
}

// FindExpiredListings retrieves active listings whose expires_at is in the past.
func (r *gormRepository) FindExpiredListings(ctx context.Context, now time.Time) ([]Listing, error) {
	var listings []Listing
	err := r.db.WithContext(ctx).
		Where("expires_at <= ? AND status = ?", now, StatusActive).
		Find(&listings).Error
	return listings, err
}
