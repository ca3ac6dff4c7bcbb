// File: internal/bid/handler_test.go
package bid

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"tradepost_backend/internal/common"
	"tradepost_backend/internal/conversation"
	"tradepost_backend/internal/listing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockService is a mock type for the bid Service.
type MockService struct {
	mock.Mock
}

func (m *MockService) PlaceBid(ctx context.Context, listingID, bidderID uuid.UUID, amount int64) (*Bid, error) {
	args := m.Called(ctx, listingID, bidderID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Bid), args.Error(1)
}
func (m *MockService) AcceptBid(ctx context.Context, bidID, actingUserID uuid.UUID) (*AcceptResult, error) {
	args := m.Called(ctx, bidID, actingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*AcceptResult), args.Error(1)
}
func (m *MockService) CancelBid(ctx context.Context, bidID, actingUserID uuid.UUID) (*Bid, error) {
	args := m.Called(ctx, bidID, actingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Bid), args.Error(1)
}
func (m *MockService) FinalizeSale(ctx context.Context, bidID, actingUserID uuid.UUID) (*listing.Listing, error) {
	args := m.Called(ctx, bidID, actingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listing.Listing), args.Error(1)
}
func (m *MockService) CurrentPrice(ctx context.Context, listingID uuid.UUID) (*PriceQuote, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PriceQuote), args.Error(1)
}
func (m *MockService) GetListingBids(ctx context.Context, listingID uuid.UUID, query common.PaginationQuery) ([]Bid, *common.Pagination, error) {
	args := m.Called(ctx, listingID, query)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]Bid), args.Get(1).(*common.Pagination), args.Error(2)
}
func (m *MockService) GetUserBids(ctx context.Context, bidderID uuid.UUID, query common.PaginationQuery) ([]Bid, *common.Pagination, error) {
	args := m.Called(ctx, bidderID, query)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]Bid), args.Get(1).(*common.Pagination), args.Error(2)
}

func newBidTestRouter(service Service, authedUser *uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	authMW := func(c *gin.Context) {
		if authedUser == nil {
			common.RespondWithError(c, common.ErrUnauthorized)
			return
		}
		c.Set(common.UserIDKey, *authedUser)
		c.Next()
	}
	passthrough := func(c *gin.Context) { c.Next() }

	v1 := router.Group("/api/v1")
	NewHandler(service).RegisterRoutes(v1, authMW, passthrough)
	return router
}

func TestHandler_PlaceBid_Success(t *testing.T) {
	mockService := new(MockService)
	userID := uuid.New()
	listingID := uuid.New()
	router := newBidTestRouter(mockService, &userID)

	placed := &Bid{
		BaseModel: common.BaseModel{ID: uuid.New()},
		ListingID: listingID,
		BidderID:  userID,
		Amount:    5100,
		Status:    StatusPending,
	}
	mockService.On("PlaceBid", mock.Anything, listingID, userID, int64(5100)).Return(placed, nil)

	body, _ := json.Marshal(PlaceBidRequest{Amount: 5100})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/listings/"+listingID.String()+"/bids", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), placed.ID.String())
	mockService.AssertExpectations(t)
}

func TestHandler_PlaceBid_InvalidAmount(t *testing.T) {
	mockService := new(MockService)
	userID := uuid.New()
	router := newBidTestRouter(mockService, &userID)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/listings/"+uuid.NewString()+"/bids",
		bytes.NewReader([]byte(`{"amount": -5}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	mockService.AssertNotCalled(t, "PlaceBid", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_PlaceBid_BadListingID(t *testing.T) {
	mockService := new(MockService)
	userID := uuid.New()
	router := newBidTestRouter(mockService, &userID)

	body, _ := json.Marshal(PlaceBidRequest{Amount: 100})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/listings/not-a-uuid/bids", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_PlaceBid_Unauthenticated(t *testing.T) {
	mockService := new(MockService)
	router := newBidTestRouter(mockService, nil)

	body, _ := json.Marshal(PlaceBidRequest{Amount: 100})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/listings/"+uuid.NewString()+"/bids", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_AcceptBid_ReturnsConversation(t *testing.T) {
	mockService := new(MockService)
	sellerID := uuid.New()
	router := newBidTestRouter(mockService, &sellerID)

	b := &Bid{BaseModel: common.BaseModel{ID: uuid.New()}, ListingID: uuid.New(), BidderID: uuid.New(), Amount: 5000, Status: StatusAccepted}
	conv := &conversation.Conversation{BaseModel: common.BaseModel{ID: uuid.New()}, ListingID: b.ListingID, SellerID: sellerID, BuyerID: b.BidderID}
	mockService.On("AcceptBid", mock.Anything, b.ID, sellerID).Return(&AcceptResult{Bid: b, Conversation: conv}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/bids/"+b.ID.String()+"/accept", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), conv.ID.String())
}

func TestHandler_AcceptBid_ConflictPassthrough(t *testing.T) {
	mockService := new(MockService)
	sellerID := uuid.New()
	router := newBidTestRouter(mockService, &sellerID)

	bidID := uuid.New()
	mockService.On("AcceptBid", mock.Anything, bidID, sellerID).
		Return(nil, common.ErrConflict.WithDetails("Only pending bids can be accepted."))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/bids/"+bidID.String()+"/accept", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "CONFLICT")
}

func TestHandler_CurrentPrice_Public(t *testing.T) {
	mockService := new(MockService)
	router := newBidTestRouter(mockService, nil)

	listingID := uuid.New()
	mockService.On("CurrentPrice", mock.Anything, listingID).
		Return(&PriceQuote{ListingID: listingID, CurrentPrice: 5000, MinNextBid: 5100, BidCount: 3}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/listings/"+listingID.String()+"/price", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data PriceQuote `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(5000), resp.Data.CurrentPrice)
	assert.Equal(t, int64(5100), resp.Data.MinNextBid)
}

func TestHandler_FinalizeSale_ReturnsListing(t *testing.T) {
	mockService := new(MockService)
	sellerID := uuid.New()
	winnerID := uuid.New()
	router := newBidTestRouter(mockService, &sellerID)

	bidID := uuid.New()
	sold := &listing.Listing{
		BaseModel: common.BaseModel{ID: uuid.New()},
		SellerID:  sellerID,
		Status:    listing.StatusSold,
		WinnerID:  &winnerID,
	}
	mockService.On("FinalizeSale", mock.Anything, bidID, sellerID).Return(sold, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/bids/"+bidID.String()+"/finalize", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), winnerID.String())
}
