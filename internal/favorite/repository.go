// File: internal/favorite/repository.go
package favorite

import (
	"context"
	"strings"

	"tradepost_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for favorites.
type Repository interface {
	Add(ctx context.Context, userID, listingID uuid.UUID) error
	Remove(ctx context.Context, userID, listingID uuid.UUID) error
	FindByUserID(ctx context.Context, userID uuid.UUID, query common.PaginationQuery) ([]Favorite, *common.Pagination, error)
	Exists(ctx context.Context, userID, listingID uuid.UUID) (bool, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM-based favorite repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Add(ctx context.Context, userID, listingID uuid.UUID) error {
	fav := &Favorite{UserID: userID, ListingID: listingID}
	if err := r.db.WithContext(ctx).Create(fav).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "UNIQUE") {
			// Already saved; treat as success.
			return nil
		}
		return common.ErrInternalServer.WithDetails("Failed to save favorite.")
	}
	return nil
}

func (r *gormRepository) Remove(ctx context.Context, userID, listingID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Delete(&Favorite{})
	if result.Error != nil {
		return common.ErrInternalServer.WithDetails("Failed to remove favorite.")
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Favorite not found.")
	}
	return nil
}

func (r *gormRepository) FindByUserID(ctx context.Context, userID uuid.UUID, query common.PaginationQuery) ([]Favorite, *common.Pagination, error) {
	var favorites []Favorite
	var total int64

	dbQuery := r.db.WithContext(ctx).Model(&Favorite{}).Where("user_id = ?", userID)
	if err := dbQuery.Count(&total).Error; err != nil {
		return nil, nil, common.ErrInternalServer.WithDetails("Failed to count favorites.")
	}

	err := dbQuery.
		Preload("Listing").Preload("Listing.Seller").Preload("Listing.Images").
		Order("created_at DESC").
		Offset(query.Offset()).
		Limit(query.Limit()).
		Find(&favorites).Error
	if err != nil {
		return nil, nil, common.ErrInternalServer.WithDetails("Failed to retrieve favorites.")
	}

	pagination := common.NewPagination(total, query.Page, query.PageSize)
	return favorites, pagination, nil
}

func (r *gormRepository) Exists(ctx context.Context, userID, listingID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Favorite{}).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
