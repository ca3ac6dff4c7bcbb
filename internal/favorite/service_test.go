// File: internal/favorite/service_test.go
package favorite

import (
	"context"
	"testing"

	"tradepost_backend/internal/common"
	"tradepost_backend/internal/listing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockRepository is a mock type for the favorite Repository.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Add(ctx context.Context, userID, listingID uuid.UUID) error {
	args := m.Called(ctx, userID, listingID)
	return args.Error(0)
}
func (m *MockRepository) Remove(ctx context.Context, userID, listingID uuid.UUID) error {
	args := m.Called(ctx, userID, listingID)
	return args.Error(0)
}
func (m *MockRepository) FindByUserID(ctx context.Context, userID uuid.UUID, query common.PaginationQuery) ([]Favorite, *common.Pagination, error) {
	args := m.Called(ctx, userID, query)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]Favorite), args.Get(1).(*common.Pagination), args.Error(2)
}
func (m *MockRepository) Exists(ctx context.Context, userID, listingID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, listingID)
	return args.Bool(0), args.Error(1)
}

// MockListingRepository covers only the lookup this service performs.
type MockListingRepository struct {
	listing.Repository
	mock.Mock
}

func (m *MockListingRepository) FindByID(ctx context.Context, id uuid.UUID, preload bool) (*listing.Listing, error) {
	args := m.Called(ctx, id, preload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listing.Listing), args.Error(1)
}

func TestService_AddFavorite_Success(t *testing.T) {
	mockRepo := new(MockRepository)
	mockListings := new(MockListingRepository)
	service := NewService(mockRepo, mockListings, zap.NewNop())

	ctx := context.Background()
	userID := uuid.New()
	l := &listing.Listing{BaseModel: common.BaseModel{ID: uuid.New()}}

	mockListings.On("FindByID", ctx, l.ID, false).Return(l, nil)
	mockRepo.On("Add", ctx, userID, l.ID).Return(nil)

	err := service.AddFavorite(ctx, userID, l.ID)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestService_AddFavorite_ListingNotFound(t *testing.T) {
	mockRepo := new(MockRepository)
	mockListings := new(MockListingRepository)
	service := NewService(mockRepo, mockListings, zap.NewNop())

	ctx := context.Background()
	missingID := uuid.New()

	mockListings.On("FindByID", ctx, missingID, false).
		Return(nil, common.ErrNotFound.WithDetails("Listing not found."))

	err := service.AddFavorite(ctx, uuid.New(), missingID)

	assert.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, common.ErrNotFound.Code, apiErr.Code)
	mockRepo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_RemoveFavorite_NotFavorited(t *testing.T) {
	mockRepo := new(MockRepository)
	mockListings := new(MockListingRepository)
	service := NewService(mockRepo, mockListings, zap.NewNop())

	ctx := context.Background()
	userID := uuid.New()
	listingID := uuid.New()

	mockRepo.On("Remove", ctx, userID, listingID).
		Return(common.ErrNotFound.WithDetails("Favorite not found."))

	err := service.RemoveFavorite(ctx, userID, listingID)

	assert.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, common.ErrNotFound.Code, apiErr.Code)
}
