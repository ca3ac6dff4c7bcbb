// File: internal/bid/repository.go
package bid

import (
	"context"
	"errors"

	"tradepost_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations over the bid ledger.
type Repository interface {
	Create(ctx context.Context, bid *Bid) error
	FindByID(ctx context.Context, id uuid.UUID, preloadAssociations bool) (*Bid, error)
	// HighestAmount returns the largest amount ever bid on the listing,
	// across all statuses (the ledger is append-only), and whether any
	// bid exists at all.
	HighestAmount(ctx context.Context, listingID uuid.UUID) (int64, bool, error)
	CountAccepted(ctx context.Context, listingID uuid.UUID) (int64, error)
	CountAcceptedExcluding(ctx context.Context, listingID, excludedBidID uuid.UUID) (int64, error)
	CountForListing(ctx context.Context, listingID uuid.UUID) (int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	// RejectOtherPending flips every pending bid on the listing except
	// the given one to rejected, returning the affected bids so callers
	// can notify their owners.
	RejectOtherPending(ctx context.Context, listingID, exceptBidID uuid.UUID) ([]Bid, error)
	FindByListingID(ctx context.Context, listingID uuid.UUID, query common.PaginationQuery) ([]Bid, *common.Pagination, error)
	FindByBidderID(ctx context.Context, bidderID uuid.UUID, query common.PaginationQuery) ([]Bid, *common.Pagination, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM-based bid repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// WithDB returns a repository bound to the given handle, for use inside
// an open transaction.
func WithDB(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, bid *Bid) error {
	if err := r.db.WithContext(ctx).Create(bid).Error; err != nil {
		return common.ErrInternalServer.WithDetails("Failed to record bid.")
	}
	return nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID, preloadAssociations bool) (*Bid, error) {
	var b Bid
	query := r.db.WithContext(ctx)
	if preloadAssociations {
		query = query.Preload("Listing").Preload("Bidder")
	}
	err := query.First(&b, "bids.id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Bid not found.")
		}
		return nil, err
	}
	return &b, nil
}

func (r *gormRepository) HighestAmount(ctx context.Context, listingID uuid.UUID) (int64, bool, error) {
	var highest *int64
	err := r.db.WithContext(ctx).Model(&Bid{}).
		Where("listing_id = ?", listingID).
		Select("MAX(amount)").
		Scan(&highest).Error
	if err != nil {
		return 0, false, err
	}
	if highest == nil {
		return 0, false, nil
	}
	return *highest, true, nil
}

func (r *gormRepository) CountAccepted(ctx context.Context, listingID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Bid{}).
		Where("listing_id = ? AND status = ?", listingID, StatusAccepted).
		Count(&count).Error
	return count, err
}

func (r *gormRepository) CountAcceptedExcluding(ctx context.Context, listingID, excludedBidID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Bid{}).
		Where("listing_id = ? AND status = ? AND id <> ?", listingID, StatusAccepted, excludedBidID).
		Count(&count).Error
	return count, err
}

func (r *gormRepository) CountForListing(ctx context.Context, listingID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Bid{}).
		Where("listing_id = ?", listingID).
		Count(&count).Error
	return count, err
}

func (r *gormRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	result := r.db.WithContext(ctx).Model(&Bid{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Bid not found.")
	}
	return nil
}

func (r *gormRepository) RejectOtherPending(ctx context.Context, listingID, exceptBidID uuid.UUID) ([]Bid, error) {
	var affected []Bid
	err := r.db.WithContext(ctx).
		Where("listing_id = ? AND status = ? AND id <> ?", listingID, StatusPending, exceptBidID).
		Find(&affected).Error
	if err != nil {
		return nil, err
	}
	if len(affected) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(affected))
	for i := range affected {
		ids[i] = affected[i].ID
	}
	err = r.db.WithContext(ctx).Model(&Bid{}).
		Where("id IN ?", ids).
		Update("status", StatusRejected).Error
	if err != nil {
		return nil, err
	}
	for i := range affected {
		affected[i].Status = StatusRejected
	}
	return affected, nil
}

func (r *gormRepository) FindByListingID(ctx context.Context, listingID uuid.UUID, query common.PaginationQuery) ([]Bid, *common.Pagination, error) {
	var bids []Bid
	var total int64

	dbQuery := r.db.WithContext(ctx).Model(&Bid{}).Where("listing_id = ?", listingID)
	if err := dbQuery.Count(&total).Error; err != nil {
		return nil, nil, err
	}

	err := dbQuery.Preload("Bidder").
		Order("amount DESC, created_at ASC").
		Offset(query.Offset()).
		Limit(query.Limit()).
		Find(&bids).Error
	if err != nil {
		return nil, nil, err
	}

	pagination := common.NewPagination(total, query.Page, query.PageSize)
	return bids, pagination, nil
}

func (r *gormRepository) FindByBidderID(ctx context.Context, bidderID uuid.UUID, query common.PaginationQuery) ([]Bid, *common.Pagination, error) {
	var bids []Bid
	var total int64

	dbQuery := r.db.WithContext(ctx).Model(&Bid{}).Where("bidder_id = ?", bidderID)
	if err := dbQuery.Count(&total).Error; err != nil {
		return nil, nil, err
	}

	err := dbQuery.Preload("Listing").
		Order("created_at DESC").
		Offset(query.Offset()).
		Limit(query.Limit()).
		Find(&bids).Error
	if err != nil {
		return nil, nil, err
	}

	pagination := common.NewPagination(total, query.Page, query.PageSize)
	return bids, pagination, nil
}
