// File: internal/listing/service_test.go
package listing

import (
	"context"
	"errors"
	"testing"
	"time"

	"tradepost_backend/internal/common"
	"tradepost_backend/internal/config"
	"tradepost_backend/internal/notification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// --- Mocks ---

// MockRepository is a mock type for the listing Repository.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, l *Listing) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}
func (m *MockRepository) FindByID(ctx context.Context, id uuid.UUID, preload bool) (*Listing, error) {
	args := m.Called(ctx, id, preload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Listing), args.Error(1)
}
func (m *MockRepository) FindBySlug(ctx context.Context, slug string) (*Listing, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Listing), args.Error(1)
}
func (m *MockRepository) Update(ctx context.Context, l *Listing) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}
func (m *MockRepository) Delete(ctx context.Context, id uuid.UUID, sellerID uuid.UUID) error {
	args := m.Called(ctx, id, sellerID)
	return args.Error(0)
}
func (m *MockRepository) Search(ctx context.Context, query ListingSearchQuery) ([]Listing, *common.Pagination, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]Listing), args.Get(1).(*common.Pagination), args.Error(2)
}
func (m *MockRepository) FindBySellerID(ctx context.Context, sellerID uuid.UUID, query UserListingsQuery) ([]Listing, *common.Pagination, error) {
	args := m.Called(ctx, sellerID, query)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]Listing), args.Get(1).(*common.Pagination), args.Error(2)
}
func (m *MockRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}
func (m *MockRepository) SetWinner(ctx context.Context, id uuid.UUID, winnerID uuid.UUID) error {
	args := m.Called(ctx, id, winnerID)
	return args.Error(0)
}
func (m *MockRepository) ClearSale(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockRepository) FindExpiredListings(ctx context.Context, now time.Time) ([]Listing, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Listing), args.Error(1)
}

// MockNotificationService is a mock type for notification.Service.
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) CreateNotification(ctx context.Context, userID uuid.UUID, notifType notification.Type, message string, listingID *uuid.UUID) (*notification.Notification, error) {
	args := m.Called(ctx, userID, notifType, message, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.Notification), args.Error(1)
}
func (m *MockNotificationService) GetUserNotifications(ctx context.Context, userID uuid.UUID, query common.PaginationQuery) ([]notification.Notification, *common.Pagination, error) {
	args := m.Called(ctx, userID, query)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]notification.Notification), args.Get(1).(*common.Pagination), args.Error(2)
}
func (m *MockNotificationService) MarkNotificationRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}
func (m *MockNotificationService) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}
func (m *MockNotificationService) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockNotificationService) Push(ctx context.Context, userID uuid.UUID, title, message string) {
	m.Called(ctx, userID, title, message)
}

// --- Test Suite Setup ---

type listingServiceTestSuite struct {
	service      Service
	mockRepo     *MockRepository
	mockNotifier *MockNotificationService
	cfg          *config.Config
}

func setupListingServiceTestSuite(t *testing.T) *listingServiceTestSuite {
	t.Helper()
	ts := &listingServiceTestSuite{
		mockRepo:     new(MockRepository),
		mockNotifier: new(MockNotificationService),
		cfg: &config.Config{
			DefaultListingLifespanDays: 30,
			DefaultMinBidIncrement:     1,
		},
	}
	ts.service = NewService(ts.mockRepo, ts.mockNotifier, ts.cfg, zap.NewNop())
	return ts
}

func validAuctionRequest() CreateListingRequest {
	return CreateListingRequest{
		Title:       "Vintage road bike, barely ridden",
		Description: "A classic steel frame road bike from the early nineties.",
		PricingMode: PricingAuction,
		MarketPrice: 25000,
	}
}

// --- CreateListing ---

func TestService_CreateListing_AuctionDefaults(t *testing.T) {
	ts := setupListingServiceTestSuite(t)
	ctx := context.Background()
	sellerID := uuid.New()
	req := validAuctionRequest()

	ts.mockRepo.On("Create", ctx, mock.AnythingOfType("*listing.Listing")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*Listing).ID = uuid.New()
		}).Return(nil)
	// Reload failing after a successful insert falls back to the
	// in-memory listing rather than surfacing an error.
	ts.mockRepo.On("FindByID", ctx, mock.AnythingOfType("uuid.UUID"), true).
		Return(nil, common.ErrNotFound)

	result, err := ts.service.CreateListing(ctx, sellerID, req)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, StatusActive, result.Status)
	assert.Equal(t, int64(1), result.MinBidIncrement)
	assert.NotEmpty(t, result.Slug)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), result.ExpiresAt, time.Minute)
	ts.mockRepo.AssertExpectations(t)
}

func TestService_CreateListing_FixedModeRejectsBidFields(t *testing.T) {
	ts := setupListingServiceTestSuite(t)
	ctx := context.Background()
	req := validAuctionRequest()
	req.PricingMode = PricingFixed
	floor := int64(1000)
	req.StartingBid = &floor

	_, err := ts.service.CreateListing(ctx, uuid.New(), req)

	assert.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, common.ErrBadRequest.Code, apiErr.Code)
	ts.mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_CreateListing_BuyNowMustExceedStartingBid(t *testing.T) {
	ts := setupListingServiceTestSuite(t)
	ctx := context.Background()
	req := validAuctionRequest()
	floor := int64(5000)
	buyNow := int64(4000)
	req.StartingBid = &floor
	req.BuyNowPrice = &buyNow

	_, err := ts.service.CreateListing(ctx, uuid.New(), req)

	assert.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, common.ErrBadRequest.Code, apiErr.Code)
}

func TestService_CreateListing_ImagesOrdered(t *testing.T) {
	ts := setupListingServiceTestSuite(t)
	ctx := context.Background()
	req := validAuctionRequest()
	req.ImageURLs = []string{"https://img.example/a.jpg", "https://img.example/b.jpg"}

	ts.mockRepo.On("Create", ctx, mock.AnythingOfType("*listing.Listing")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*Listing).ID = uuid.New()
		}).Return(nil)
	ts.mockRepo.On("FindByID", ctx, mock.AnythingOfType("uuid.UUID"), true).
		Return(nil, common.ErrNotFound)

	result, err := ts.service.CreateListing(ctx, uuid.New(), req)

	assert.NoError(t, err)
	assert.Len(t, result.Images, 2)
	assert.Equal(t, 0, result.Images[0].SortOrder)
	assert.Equal(t, 1, result.Images[1].SortOrder)
}

// --- UpdateListing ---

func TestService_UpdateListing_NotOwnerForbidden(t *testing.T) {
	ts := setupListingServiceTestSuite(t)
	ctx := context.Background()
	existing := &Listing{
		BaseModel: common.BaseModel{ID: uuid.New()},
		SellerID:  uuid.New(),
		Status:    StatusActive,
	}

	ts.mockRepo.On("FindByID", ctx, existing.ID, true).Return(existing, nil)

	newTitle := "Completely different title"
	_, err := ts.service.UpdateListing(ctx, existing.ID, uuid.New(), UpdateListingRequest{Title: &newTitle})

	assert.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, common.ErrForbidden.Code, apiErr.Code)
	ts.mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestService_UpdateListing_SoldListingFrozen(t *testing.T) {
	ts := setupListingServiceTestSuite(t)
	ctx := context.Background()
	sellerID := uuid.New()
	existing := &Listing{
		BaseModel: common.BaseModel{ID: uuid.New()},
		SellerID:  sellerID,
		Status:    StatusSold,
	}

	ts.mockRepo.On("FindByID", ctx, existing.ID, true).Return(existing, nil)

	newTitle := "Completely different title"
	_, err := ts.service.UpdateListing(ctx, existing.ID, sellerID, UpdateListingRequest{Title: &newTitle})

	assert.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, common.ErrConflict.Code, apiErr.Code)
	ts.mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestService_UpdateListing_TitleChangeRefreshesSlug(t *testing.T) {
	ts := setupListingServiceTestSuite(t)
	ctx := context.Background()
	sellerID := uuid.New()
	existing := &Listing{
		BaseModel: common.BaseModel{ID: uuid.New()},
		SellerID:  sellerID,
		Slug:      "old-title-abc12345",
		Title:     "Old title",
		Status:    StatusActive,
	}

	ts.mockRepo.On("FindByID", ctx, existing.ID, true).Return(existing, nil)
	ts.mockRepo.On("Update", ctx, existing).Return(nil)

	newTitle := "Shiny replacement title"
	updated, err := ts.service.UpdateListing(ctx, existing.ID, sellerID, UpdateListingRequest{Title: &newTitle})

	assert.NoError(t, err)
	assert.Equal(t, newTitle, updated.Title)
	assert.NotEqual(t, "old-title-abc12345", updated.Slug)
	assert.Contains(t, updated.Slug, "shiny-replacement-title")
}

// --- RepublishListing ---

func TestService_RepublishListing_FromExpired(t *testing.T) {
	ts := setupListingServiceTestSuite(t)
	ctx := context.Background()
	sellerID := uuid.New()
	existing := &Listing{
		BaseModel: common.BaseModel{ID: uuid.New()},
		SellerID:  sellerID,
		Status:    StatusExpired,
		ExpiresAt: time.Now().Add(-48 * time.Hour),
	}

	ts.mockRepo.On("FindByID", ctx, existing.ID, true).Return(existing, nil)
	ts.mockRepo.On("Update", ctx, existing).Return(nil)

	republished, err := ts.service.RepublishListing(ctx, existing.ID, sellerID)

	assert.NoError(t, err)
	assert.Equal(t, StatusActive, republished.Status)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), republished.ExpiresAt, time.Minute)
}

func TestService_RepublishListing_ActiveListingConflict(t *testing.T) {
	ts := setupListingServiceTestSuite(t)
	ctx := context.Background()
	sellerID := uuid.New()
	existing := &Listing{
		BaseModel: common.BaseModel{ID: uuid.New()},
		SellerID:  sellerID,
		Status:    StatusActive,
	}

	ts.mockRepo.On("FindByID", ctx, existing.ID, true).Return(existing, nil)

	_, err := ts.service.RepublishListing(ctx, existing.ID, sellerID)

	assert.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, common.ErrConflict.Code, apiErr.Code)
	ts.mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

// --- ExpireListings ---

func TestService_ExpireListings_NotifiesSellers(t *testing.T) {
	ts := setupListingServiceTestSuite(t)
	ctx := context.Background()
	sellerA := uuid.New()
	sellerB := uuid.New()
	overdue := []Listing{
		{BaseModel: common.BaseModel{ID: uuid.New()}, SellerID: sellerA, Title: "First", Status: StatusActive},
		{BaseModel: common.BaseModel{ID: uuid.New()}, SellerID: sellerB, Title: "Second", Status: StatusActive},
	}

	ts.mockRepo.On("FindExpiredListings", ctx, mock.AnythingOfType("time.Time")).Return(overdue, nil)
	ts.mockRepo.On("UpdateStatus", ctx, overdue[0].ID, StatusExpired).Return(nil)
	ts.mockRepo.On("UpdateStatus", ctx, overdue[1].ID, StatusExpired).Return(nil)
	ts.mockNotifier.On("CreateNotification", ctx, sellerA, notification.ListingExpired, mock.AnythingOfType("string"), mock.AnythingOfType("*uuid.UUID")).
		Return(&notification.Notification{}, nil)
	ts.mockNotifier.On("CreateNotification", ctx, sellerB, notification.ListingExpired, mock.AnythingOfType("string"), mock.AnythingOfType("*uuid.UUID")).
		Return(&notification.Notification{}, nil)

	count, err := ts.service.ExpireListings(ctx)

	assert.NoError(t, err)
	assert.Equal(t, 2, count)
	ts.mockRepo.AssertExpectations(t)
	ts.mockNotifier.AssertExpectations(t)
}

func TestService_ExpireListings_ContinuesPastRowErrors(t *testing.T) {
	ts := setupListingServiceTestSuite(t)
	ctx := context.Background()
	overdue := []Listing{
		{BaseModel: common.BaseModel{ID: uuid.New()}, SellerID: uuid.New(), Title: "First", Status: StatusActive},
		{BaseModel: common.BaseModel{ID: uuid.New()}, SellerID: uuid.New(), Title: "Second", Status: StatusActive},
	}

	ts.mockRepo.On("FindExpiredListings", ctx, mock.AnythingOfType("time.Time")).Return(overdue, nil)
	ts.mockRepo.On("UpdateStatus", ctx, overdue[0].ID, StatusExpired).Return(errors.New("row lock timeout"))
	ts.mockRepo.On("UpdateStatus", ctx, overdue[1].ID, StatusExpired).Return(nil)
	ts.mockNotifier.On("CreateNotification", ctx, overdue[1].SellerID, notification.ListingExpired, mock.AnythingOfType("string"), mock.AnythingOfType("*uuid.UUID")).
		Return(&notification.Notification{}, nil)

	count, err := ts.service.ExpireListings(ctx)

	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestService_ExpireListings_FindError(t *testing.T) {
	ts := setupListingServiceTestSuite(t)
	ctx := context.Background()

	ts.mockRepo.On("FindExpiredListings", ctx, mock.AnythingOfType("time.Time")).
		Return(nil, errors.New("db unavailable"))

	count, err := ts.service.ExpireListings(ctx)

	assert.Error(t, err)
	assert.Equal(t, 0, count)
}
