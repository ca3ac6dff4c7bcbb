// File: internal/favorite/service.go
package favorite

import (
	"context"

	"tradepost_backend/internal/common"
	"tradepost_backend/internal/listing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service defines favorite-related business logic.
type Service interface {
	AddFavorite(ctx context.Context, userID, listingID uuid.UUID) error
	RemoveFavorite(ctx context.Context, userID, listingID uuid.UUID) error
	GetUserFavorites(ctx context.Context, userID uuid.UUID, query common.PaginationQuery) ([]Favorite, *common.Pagination, error)
}

// ServiceImplementation implements the favorite Service interface.
type ServiceImplementation struct {
	repo        Repository
	listingRepo listing.Repository
	logger      *zap.Logger
}

// NewService creates a new favorite service.
func NewService(repo Repository, listingRepo listing.Repository, logger *zap.Logger) Service {
	return &ServiceImplementation{repo: repo, listingRepo: listingRepo, logger: logger}
}

func (s *ServiceImplementation) AddFavorite(ctx context.Context, userID, listingID uuid.UUID) error {
	if _, err := s.listingRepo.FindByID(ctx, listingID, false); err != nil {
		return err
	}
	if err := s.repo.Add(ctx, userID, listingID); err != nil {
		s.logger.Error("Failed to add favorite",
			zap.String("userID", userID.String()),
			zap.String("listingID", listingID.String()),
			zap.Error(err))
		return err
	}
	return nil
}

func (s *ServiceImplementation) RemoveFavorite(ctx context.Context, userID, listingID uuid.UUID) error {
	return s.repo.Remove(ctx, userID, listingID)
}

func (s *ServiceImplementation) GetUserFavorites(ctx context.Context, userID uuid.UUID, query common.PaginationQuery) ([]Favorite, *common.Pagination, error) {
	return s.repo.FindByUserID(ctx, userID, query)
}
