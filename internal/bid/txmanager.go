// File: internal/bid/txmanager.go
package bid

import (
	"context"

	"tradepost_backend/internal/conversation"
	"tradepost_backend/internal/listing"
	"tradepost_backend/internal/notification"

	"gorm.io/gorm"
)

// TxRepos bundles the repositories a bid operation may touch, all bound
// to the same open transaction. Writes through any of them commit or
// roll back together.
type TxRepos struct {
	Bids          Repository
	Listings      listing.Repository
	Conversations conversation.Repository
	Notifications notification.Repository
}

// TxManager runs a function atomically against the store. Any error
// returned from fn aborts the whole unit with no partial writes.
//
// Post-commit side effects (push delivery) must live outside fn; see the
// service, which queues them during the transaction and dispatches them
// only after Do returns nil.
type TxManager interface {
	Do(ctx context.Context, fn func(repos TxRepos) error) error
}

type gormTxManager struct {
	db *gorm.DB
}

// NewGORMTxManager creates a TxManager backed by gorm transactions.
func NewGORMTxManager(db *gorm.DB) TxManager {
	return &gormTxManager{db: db}
}

func (m *gormTxManager) Do(ctx context.Context, fn func(repos TxRepos) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(TxRepos{
			Bids:          WithDB(tx),
			Listings:      listing.NewGORMRepository(tx),
			Conversations: conversation.WithDB(tx),
			Notifications: notification.WithDB(tx),
		})
	})
}
