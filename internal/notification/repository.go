// File: internal/notification/repository.go
package notification

import (
	"context"
	"errors"
	"time"

	"tradepost_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for notifications.
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	FindByUserID(ctx context.Context, userID uuid.UUID, query common.PaginationQuery) ([]Notification, *common.Pagination, error)
	MarkRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM-based notification repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// WithDB returns a repository bound to the given handle. Used to scope
// writes to an open transaction.
func WithDB(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, n *Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return common.ErrInternalServer.WithDetails("Failed to create notification.")
	}
	return nil
}

func (r *gormRepository) FindByUserID(ctx context.Context, userID uuid.UUID, query common.PaginationQuery) ([]Notification, *common.Pagination, error) {
	var notifications []Notification
	var total int64

	dbQuery := r.db.WithContext(ctx).Model(&Notification{}).Where("user_id = ?", userID)
	if err := dbQuery.Count(&total).Error; err != nil {
		return nil, nil, common.ErrInternalServer.WithDetails("Failed to count notifications.")
	}

	err := dbQuery.Order("created_at DESC").
		Offset(query.Offset()).
		Limit(query.Limit()).
		Find(&notifications).Error
	if err != nil {
		return nil, nil, common.ErrInternalServer.WithDetails("Failed to retrieve notifications.")
	}

	pagination := common.NewPagination(total, query.Page, query.PageSize)
	return notifications, pagination, nil
}

func (r *gormRepository) MarkRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{"is_read": true, "read_at": &now})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return common.ErrNotFound.WithDetails("Notification not found.")
		}
		return common.ErrInternalServer.WithDetails("Failed to mark notification as read.")
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Notification not found or not owned by user.")
	}
	return nil
}

func (r *gormRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	now := time.Now()
	err := r.db.WithContext(ctx).Model(&Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": &now}).Error
	if err != nil {
		return common.ErrInternalServer.WithDetails("Failed to mark notifications as read.")
	}
	return nil
}

func (r *gormRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, common.ErrInternalServer.WithDetails("Failed to count unread notifications.")
	}
	return count, nil
}
