// File: internal/conversation/service_test.go
package conversation

import (
	"context"
	"errors"
	"testing"

	"tradepost_backend/internal/common"
	"tradepost_backend/internal/listing"
	"tradepost_backend/internal/notification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// --- Mocks ---

// MockRepository is a mock type for the conversation Repository.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) FindOrCreate(ctx context.Context, listingID, sellerID, buyerID uuid.UUID) (*Conversation, error) {
	args := m.Called(ctx, listingID, sellerID, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Conversation), args.Error(1)
}
func (m *MockRepository) FindByID(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Conversation), args.Error(1)
}
func (m *MockRepository) FindByListingAndBuyer(ctx context.Context, listingID, buyerID uuid.UUID) (*Conversation, error) {
	args := m.Called(ctx, listingID, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Conversation), args.Error(1)
}
func (m *MockRepository) FindByParticipant(ctx context.Context, userID uuid.UUID, query common.PaginationQuery) ([]Conversation, *common.Pagination, error) {
	args := m.Called(ctx, userID, query)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]Conversation), args.Get(1).(*common.Pagination), args.Error(2)
}
func (m *MockRepository) CreateMessage(ctx context.Context, message *Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}
func (m *MockRepository) FindMessages(ctx context.Context, conversationID uuid.UUID, query common.PaginationQuery) ([]Message, *common.Pagination, error) {
	args := m.Called(ctx, conversationID, query)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]Message), args.Get(1).(*common.Pagination), args.Error(2)
}

// MockListingRepository is a mock type for listing.Repository, covering
// only the lookups this service performs.
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

// MockNotificationService is a mock type for notification.Service.
type MockNotificationService struct {
	notification.Service
	mock.Mock
}

func (m *MockNotificationService) CreateNotification(ctx context.Context, userID uuid.UUID, notifType notification.Type, message string, listingID *uuid.UUID) (*notification.Notification, error) {
	args := m.Called(ctx, userID, notifType, message, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.Notification), args.Error(1)
}

// --- Test Suite Setup ---

type conversationServiceTestSuite struct {
	service      Service
	mockRepo     *MockRepository
	mockListings *MockListingRepository
	mockNotifier *MockNotificationService
}

func setupConversationServiceTestSuite(t *testing.T) *conversationServiceTestSuite {
	t.Helper()
	ts := &conversationServiceTestSuite{
		mockRepo:     new(MockRepository),
		mockListings: new(MockListingRepository),
		mockNotifier: new(MockNotificationService),
	}
	ts.service = NewService(ts.mockRepo, ts.mockListings, ts.mockNotifier, zap.NewNop())
	return ts
}

// --- StartConversation ---

func TestService_StartConversation_Success(t *testing.T) {
	ts := setupConversationServiceTestSuite(t)
	ctx := context.Background()
	sellerID := uuid.New()
	buyerID := uuid.New()
	l := &listing.Listing{
		BaseModel: common.BaseModel{ID: uuid.New()},
		SellerID:  sellerID,
		Title:     "Antique desk lamp",
		Status:    listing.StatusActive,
	}
	conv := &Conversation{
		BaseModel: common.BaseModel{ID: uuid.New()},
		ListingID: l.ID,
		SellerID:  sellerID,
		BuyerID:   buyerID,
	}

	ts.mockListings.On("FindByID", ctx, l.ID, false).Return(l, nil)
	ts.mockRepo.On("FindOrCreate", ctx, l.ID, sellerID, buyerID).Return(conv, nil)
	ts.mockRepo.On("CreateMessage", ctx, mock.AnythingOfType("*conversation.Message")).Return(nil)
	ts.mockNotifier.On("CreateNotification", ctx, sellerID, notification.NewMessage, mock.AnythingOfType("string"), mock.AnythingOfType("*uuid.UUID")).
		Return(&notification.Notification{}, nil)

	gotConv, gotMsg, err := ts.service.StartConversation(ctx, buyerID, StartConversationRequest{
		ListingID: l.ID,
		Content:   "Is the lamp still available?",
	})

	assert.NoError(t, err)
	assert.Equal(t, conv.ID, gotConv.ID)
	assert.Equal(t, buyerID, gotMsg.SenderID)
	assert.Equal(t, "Is the lamp still available?", gotMsg.Content)
	ts.mockRepo.AssertExpectations(t)
	ts.mockNotifier.AssertExpectations(t)
}

func TestService_StartConversation_OwnListingRejected(t *testing.T) {
	ts := setupConversationServiceTestSuite(t)
	ctx := context.Background()
	sellerID := uuid.New()
	l := &listing.Listing{
		BaseModel: common.BaseModel{ID: uuid.New()},
		SellerID:  sellerID,
		Status:    listing.StatusActive,
	}

	ts.mockListings.On("FindByID", ctx, l.ID, false).Return(l, nil)

	_, _, err := ts.service.StartConversation(ctx, sellerID, StartConversationRequest{
		ListingID: l.ID,
		Content:   "Hello me",
	})

	assert.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, common.ErrBadRequest.Code, apiErr.Code)
	ts.mockRepo.AssertNotCalled(t, "FindOrCreate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_StartConversation_SoldListingBlocksNonWinner(t *testing.T) {
	ts := setupConversationServiceTestSuite(t)
	ctx := context.Background()
	winnerID := uuid.New()
	l := &listing.Listing{
		BaseModel: common.BaseModel{ID: uuid.New()},
		SellerID:  uuid.New(),
		Status:    listing.StatusSold,
		WinnerID:  &winnerID,
	}

	ts.mockListings.On("FindByID", ctx, l.ID, false).Return(l, nil)

	_, _, err := ts.service.StartConversation(ctx, uuid.New(), StartConversationRequest{
		ListingID: l.ID,
		Content:   "Still for sale?",
	})

	assert.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, common.ErrForbidden.Code, apiErr.Code)
}

func TestService_StartConversation_SoldListingAllowsWinner(t *testing.T) {
	ts := setupConversationServiceTestSuite(t)
	ctx := context.Background()
	sellerID := uuid.New()
	winnerID := uuid.New()
	l := &listing.Listing{
		BaseModel: common.BaseModel{ID: uuid.New()},
		SellerID:  sellerID,
		Title:     "Antique desk lamp",
		Status:    listing.StatusSold,
		WinnerID:  &winnerID,
	}
	conv := &Conversation{
		BaseModel: common.BaseModel{ID: uuid.New()},
		ListingID: l.ID,
		SellerID:  sellerID,
		BuyerID:   winnerID,
	}

	ts.mockListings.On("FindByID", ctx, l.ID, false).Return(l, nil)
	ts.mockRepo.On("FindOrCreate", ctx, l.ID, sellerID, winnerID).Return(conv, nil)
	ts.mockRepo.On("CreateMessage", ctx, mock.AnythingOfType("*conversation.Message")).Return(nil)
	ts.mockNotifier.On("CreateNotification", ctx, sellerID, notification.NewMessage, mock.AnythingOfType("string"), mock.AnythingOfType("*uuid.UUID")).
		Return(&notification.Notification{}, nil)

	gotConv, _, err := ts.service.StartConversation(ctx, winnerID, StartConversationRequest{
		ListingID: l.ID,
		Content:   "When can I pick it up?",
	})

	assert.NoError(t, err)
	assert.Equal(t, conv.ID, gotConv.ID)
}

// --- SendMessage ---

func TestService_SendMessage_NonParticipantForbidden(t *testing.T) {
	ts := setupConversationServiceTestSuite(t)
	ctx := context.Background()
	conv := &Conversation{
		BaseModel: common.BaseModel{ID: uuid.New()},
		ListingID: uuid.New(),
		SellerID:  uuid.New(),
		BuyerID:   uuid.New(),
	}

	ts.mockRepo.On("FindByID", ctx, conv.ID).Return(conv, nil)

	_, err := ts.service.SendMessage(ctx, conv.ID, uuid.New(), SendMessageRequest{Content: "hi"})

	assert.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, common.ErrForbidden.Code, apiErr.Code)
	ts.mockRepo.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestService_SendMessage_ThreadClosedAfterSaleToOther(t *testing.T) {
	ts := setupConversationServiceTestSuite(t)
	ctx := context.Background()
	sellerID := uuid.New()
	buyerID := uuid.New()
	winnerID := uuid.New()
	conv := &Conversation{
		BaseModel: common.BaseModel{ID: uuid.New()},
		ListingID: uuid.New(),
		SellerID:  sellerID,
		BuyerID:   buyerID,
	}
	l := &listing.Listing{
		BaseModel: common.BaseModel{ID: conv.ListingID},
		SellerID:  sellerID,
		Status:    listing.StatusSold,
		WinnerID:  &winnerID,
	}

	ts.mockRepo.On("FindByID", ctx, conv.ID).Return(conv, nil)
	ts.mockListings.On("FindByID", ctx, conv.ListingID, false).Return(l, nil)

	// Even the seller cannot post into a losing bidder's thread.
	_, err := ts.service.SendMessage(ctx, conv.ID, sellerID, SendMessageRequest{Content: "sorry, sold"})

	assert.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, common.ErrForbidden.Code, apiErr.Code)
}

func TestService_SendMessage_OpenBetweenAcceptAndFinalize(t *testing.T) {
	ts := setupConversationServiceTestSuite(t)
	ctx := context.Background()
	sellerID := uuid.New()
	buyerID := uuid.New()
	conv := &Conversation{
		BaseModel: common.BaseModel{ID: uuid.New()},
		ListingID: uuid.New(),
		SellerID:  sellerID,
		BuyerID:   buyerID,
	}
	// Accepted but not finalized: sold with no recorded winner yet. This
	// is the thread acceptBid opens; both sides must be able to use it.
	l := &listing.Listing{
		BaseModel: common.BaseModel{ID: conv.ListingID},
		SellerID:  sellerID,
		Title:     "Antique desk lamp",
		Status:    listing.StatusSold,
		WinnerID:  nil,
	}

	ts.mockRepo.On("FindByID", ctx, conv.ID).Return(conv, nil)
	ts.mockListings.On("FindByID", ctx, conv.ListingID, false).Return(l, nil)
	ts.mockRepo.On("CreateMessage", ctx, mock.AnythingOfType("*conversation.Message")).Return(nil)
	ts.mockNotifier.On("CreateNotification", ctx, mock.AnythingOfType("uuid.UUID"), notification.NewMessage, mock.AnythingOfType("string"), mock.AnythingOfType("*uuid.UUID")).
		Return(&notification.Notification{}, nil)

	buyerMsg, err := ts.service.SendMessage(ctx, conv.ID, buyerID, SendMessageRequest{Content: "When can I pick it up?"})
	assert.NoError(t, err)
	assert.Equal(t, buyerID, buyerMsg.SenderID)

	sellerMsg, err := ts.service.SendMessage(ctx, conv.ID, sellerID, SendMessageRequest{Content: "Saturday works."})
	assert.NoError(t, err)
	assert.Equal(t, sellerID, sellerMsg.SenderID)
}

func TestService_StartConversation_OpenBetweenAcceptAndFinalize(t *testing.T) {
	ts := setupConversationServiceTestSuite(t)
	ctx := context.Background()
	sellerID := uuid.New()
	buyerID := uuid.New()
	l := &listing.Listing{
		BaseModel: common.BaseModel{ID: uuid.New()},
		SellerID:  sellerID,
		Title:     "Antique desk lamp",
		Status:    listing.StatusSold,
		WinnerID:  nil,
	}
	conv := &Conversation{
		BaseModel: common.BaseModel{ID: uuid.New()},
		ListingID: l.ID,
		SellerID:  sellerID,
		BuyerID:   buyerID,
	}

	ts.mockListings.On("FindByID", ctx, l.ID, false).Return(l, nil)
	ts.mockRepo.On("FindOrCreate", ctx, l.ID, sellerID, buyerID).Return(conv, nil)
	ts.mockRepo.On("CreateMessage", ctx, mock.AnythingOfType("*conversation.Message")).Return(nil)
	ts.mockNotifier.On("CreateNotification", ctx, sellerID, notification.NewMessage, mock.AnythingOfType("string"), mock.AnythingOfType("*uuid.UUID")).
		Return(&notification.Notification{}, nil)

	gotConv, _, err := ts.service.StartConversation(ctx, buyerID, StartConversationRequest{
		ListingID: l.ID,
		Content:   "My offer was accepted, where do we meet?",
	})

	assert.NoError(t, err)
	assert.Equal(t, conv.ID, gotConv.ID)
}

func TestService_SendMessage_SellerReplyNotifiesBuyer(t *testing.T) {
	ts := setupConversationServiceTestSuite(t)
	ctx := context.Background()
	sellerID := uuid.New()
	buyerID := uuid.New()
	conv := &Conversation{
		BaseModel: common.BaseModel{ID: uuid.New()},
		ListingID: uuid.New(),
		SellerID:  sellerID,
		BuyerID:   buyerID,
	}
	l := &listing.Listing{
		BaseModel: common.BaseModel{ID: conv.ListingID},
		SellerID:  sellerID,
		Title:     "Antique desk lamp",
		Status:    listing.StatusActive,
	}

	ts.mockRepo.On("FindByID", ctx, conv.ID).Return(conv, nil)
	ts.mockListings.On("FindByID", ctx, conv.ListingID, false).Return(l, nil)
	ts.mockRepo.On("CreateMessage", ctx, mock.AnythingOfType("*conversation.Message")).Return(nil)
	ts.mockNotifier.On("CreateNotification", ctx, buyerID, notification.NewMessage, mock.AnythingOfType("string"), mock.AnythingOfType("*uuid.UUID")).
		Return(&notification.Notification{}, nil)

	msg, err := ts.service.SendMessage(ctx, conv.ID, sellerID, SendMessageRequest{Content: "Yes, still available."})

	assert.NoError(t, err)
	assert.Equal(t, sellerID, msg.SenderID)
	ts.mockNotifier.AssertExpectations(t)
}

func TestService_SendMessage_NotifyFailureSwallowed(t *testing.T) {
	ts := setupConversationServiceTestSuite(t)
	ctx := context.Background()
	sellerID := uuid.New()
	buyerID := uuid.New()
	conv := &Conversation{
		BaseModel: common.BaseModel{ID: uuid.New()},
		ListingID: uuid.New(),
		SellerID:  sellerID,
		BuyerID:   buyerID,
	}
	l := &listing.Listing{
		BaseModel: common.BaseModel{ID: conv.ListingID},
		SellerID:  sellerID,
		Title:     "Antique desk lamp",
		Status:    listing.StatusActive,
	}

	ts.mockRepo.On("FindByID", ctx, conv.ID).Return(conv, nil)
	ts.mockListings.On("FindByID", ctx, conv.ListingID, false).Return(l, nil)
	ts.mockRepo.On("CreateMessage", ctx, mock.AnythingOfType("*conversation.Message")).Return(nil)
	ts.mockNotifier.On("CreateNotification", ctx, sellerID, notification.NewMessage, mock.AnythingOfType("string"), mock.AnythingOfType("*uuid.UUID")).
		Return(nil, errors.New("notification store down"))

	msg, err := ts.service.SendMessage(ctx, conv.ID, buyerID, SendMessageRequest{Content: "Still there?"})

	assert.NoError(t, err)
	assert.NotNil(t, msg)
}

// --- GetMessages ---

func TestService_GetMessages_ParticipantOnly(t *testing.T) {
	ts := setupConversationServiceTestSuite(t)
	ctx := context.Background()
	conv := &Conversation{
		BaseModel: common.BaseModel{ID: uuid.New()},
		ListingID: uuid.New(),
		SellerID:  uuid.New(),
		BuyerID:   uuid.New(),
	}

	ts.mockRepo.On("FindByID", ctx, conv.ID).Return(conv, nil)

	_, _, err := ts.service.GetMessages(ctx, conv.ID, uuid.New(), common.PaginationQuery{Page: 1, PageSize: 20})

	assert.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, common.ErrForbidden.Code, apiErr.Code)
	ts.mockRepo.AssertNotCalled(t, "FindMessages", mock.Anything, mock.Anything, mock.Anything)
}
