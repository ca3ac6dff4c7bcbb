// File: internal/conversation/repository.go
package conversation

import (
	"context"
	"errors"
	"time"

	"tradepost_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for conversations and messages.
type Repository interface {
	FindOrCreate(ctx context.Context, listingID, sellerID, buyerID uuid.UUID) (*Conversation, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Conversation, error)
	FindByListingAndBuyer(ctx context.Context, listingID, buyerID uuid.UUID) (*Conversation, error)
	FindByParticipant(ctx context.Context, userID uuid.UUID, query common.PaginationQuery) ([]Conversation, *common.Pagination, error)
	CreateMessage(ctx context.Context, message *Message) error
	FindMessages(ctx context.Context, conversationID uuid.UUID, query common.PaginationQuery) ([]Message, *common.Pagination, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM-based conversation repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// WithDB returns a repository bound to the given handle, for use inside
// an open transaction.
func WithDB(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// FindOrCreate returns the thread for the seller/buyer pair on a listing,
// creating it if absent. The pair is treated as unordered: both role
// assignments are checked before a new row is written, so historic rows
// created with swapped roles cannot be duplicated.
func (r *gormRepository) FindOrCreate(ctx context.Context, listingID, sellerID, buyerID uuid.UUID) (*Conversation, error) {
	var existing Conversation
	err := r.db.WithContext(ctx).
		Where("listing_id = ? AND ((seller_id = ? AND buyer_id = ?) OR (seller_id = ? AND buyer_id = ?))",
			listingID, sellerID, buyerID, buyerID, sellerID).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	newConv := &Conversation{
		ListingID: listingID,
		SellerID:  sellerID,
		BuyerID:   buyerID,
	}
	if createErr := r.db.WithContext(ctx).Create(newConv).Error; createErr != nil {
		// A concurrent request may have created the thread first.
		conv, retryErr := r.FindByListingAndBuyer(ctx, listingID, buyerID)
		if retryErr == nil {
			return conv, nil
		}
		return nil, common.ErrInternalServer.WithDetails("Failed to create conversation.")
	}
	return newConv, nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	var conv Conversation
	err := r.db.WithContext(ctx).
		Preload("Seller").Preload("Buyer").
		First(&conv, "conversations.id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Conversation not found.")
		}
		return nil, err
	}
	return &conv, nil
}

func (r *gormRepository) FindByListingAndBuyer(ctx context.Context, listingID, buyerID uuid.UUID) (*Conversation, error) {
	var conv Conversation
	err := r.db.WithContext(ctx).
		First(&conv, "listing_id = ? AND buyer_id = ?", listingID, buyerID).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *gormRepository) FindByParticipant(ctx context.Context, userID uuid.UUID, query common.PaginationQuery) ([]Conversation, *common.Pagination, error) {
	var conversations []Conversation
	var total int64

	dbQuery := r.db.WithContext(ctx).Model(&Conversation{}).
		Where("seller_id = ? OR buyer_id = ?", userID, userID)

	if err := dbQuery.Count(&total).Error; err != nil {
		return nil, nil, common.ErrInternalServer.WithDetails("Failed to count conversations.")
	}

	err := dbQuery.
		Preload("Seller").Preload("Buyer").
		Order("last_message_at DESC NULLS LAST, created_at DESC").
		Offset(query.Offset()).
		Limit(query.Limit()).
		Find(&conversations).Error
	if err != nil {
		return nil, nil, common.ErrInternalServer.WithDetails("Failed to retrieve conversations.")
	}

	pagination := common.NewPagination(total, query.Page, query.PageSize)
	return conversations, pagination, nil
}

// CreateMessage inserts a message and bumps the thread's activity timestamp.
func (r *gormRepository) CreateMessage(ctx context.Context, message *Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return common.ErrInternalServer.WithDetails("Failed to send message.")
		}
		now := time.Now()
		return tx.Model(&Conversation{}).
			Where("id = ?", message.ConversationID).
			Update("last_message_at", &now).Error
	})
}

func (r *gormRepository) FindMessages(ctx context.Context, conversationID uuid.UUID, query common.PaginationQuery) ([]Message, *common.Pagination, error) {
	var messages []Message
	var total int64

	dbQuery := r.db.WithContext(ctx).Model(&Message{}).Where("conversation_id = ?", conversationID)
	if err := dbQuery.Count(&total).Error; err != nil {
		return nil, nil, common.ErrInternalServer.WithDetails("Failed to count messages.")
	}

	err := dbQuery.Order("created_at ASC").
		Offset(query.Offset()).
		Limit(query.Limit()).
		Find(&messages).Error
	if err != nil {
		return nil, nil, common.ErrInternalServer.WithDetails("Failed to retrieve messages.")
	}

	pagination := common.NewPagination(total, query.Page, query.PageSize)
	return messages, pagination, nil
}
