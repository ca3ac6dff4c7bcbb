// File: internal/bid/handler.go
package bid

import (
	"tradepost_backend/internal/common"
	"tradepost_backend/internal/conversation"
	"tradepost_backend/internal/listing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for the bid lifecycle.
type Handler struct {
	service Service
}

// NewHandler creates a new bid handler.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up the bid routes. Placing a bid goes through the
// write rate limiter; price and bid listings are public reads.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc, placeBidLimiter gin.HandlerFunc) {
	listings := router.Group("/listings")
	{
		listings.GET("/:id/price", h.currentPrice)
		listings.GET("/:id/bids", h.listListingBids)
		listings.POST("/:id/bids", authMiddleware, placeBidLimiter, h.placeBid)
	}

	bids := router.Group("/bids")
	bids.Use(authMiddleware)
	{
		bids.POST("/:id/accept", h.acceptBid)
		bids.POST("/:id/cancel", h.cancelBid)
		bids.POST("/:id/finalize", h.finalizeSale)
	}

	me := router.Group("/users/me/bids")
	me.Use(authMiddleware)
	{
		me.GET("", h.listMyBids)
	}
}

func (h *Handler) placeBid(c *gin.Context) {
	userID, err := common.GetUserIDFromContext(c)
	if err != nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("User ID not found in token."))
		return
	}

	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid listing ID format."))
		return
	}

	var req PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.TranslateBindingError(err))
		return
	}

	placedBid, err := h.service.PlaceBid(c.Request.Context(), listingID, userID, req.Amount)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Bid placed successfully.", ToBidResponse(placedBid))
}

func (h *Handler) acceptBid(c *gin.Context) {
	userID, err := common.GetUserIDFromContext(c)
	if err != nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("User ID not found in token."))
		return
	}

	bidID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid bid ID format."))
		return
	}

	result, err := h.service.AcceptBid(c.Request.Context(), bidID, userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Bid accepted successfully.", gin.H{
		"bid":          ToBidResponse(result.Bid),
		"conversation": conversation.ToConversationResponse(result.Conversation),
	})
}

func (h *Handler) cancelBid(c *gin.Context) {
	userID, err := common.GetUserIDFromContext(c)
	if err != nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("User ID not found in token."))
		return
	}

	bidID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid bid ID format."))
		return
	}

	cancelledBid, err := h.service.CancelBid(c.Request.Context(), bidID, userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Bid cancelled successfully.", ToBidResponse(cancelledBid))
}

func (h *Handler) finalizeSale(c *gin.Context) {
	userID, err := common.GetUserIDFromContext(c)
	if err != nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("User ID not found in token."))
		return
	}

	bidID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid bid ID format."))
		return
	}

	soldListing, err := h.service.FinalizeSale(c.Request.Context(), bidID, userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Sale finalized successfully.", listing.ToListingResponse(soldListing))
}

func (h *Handler) currentPrice(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid listing ID format."))
		return
	}

	quote, err := h.service.CurrentPrice(c.Request.Context(), listingID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Price retrieved successfully.", quote)
}

func (h *Handler) listListingBids(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid listing ID format."))
		return
	}

	page, pageSize := common.GetPaginationParams(c)
	query := common.PaginationQuery{Page: page, PageSize: pageSize}
	bids, pagination, err := h.service.GetListingBids(c.Request.Context(), listingID, query)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	responses := make([]BidResponse, len(bids))
	for i := range bids {
		responses[i] = ToBidResponse(&bids[i])
	}
	common.RespondPaginated(c, "Bids retrieved successfully.", responses, pagination)
}

func (h *Handler) listMyBids(c *gin.Context) {
	userID, err := common.GetUserIDFromContext(c)
	if err != nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("User ID not found in token."))
		return
	}

	page, pageSize := common.GetPaginationParams(c)
	query := common.PaginationQuery{Page: page, PageSize: pageSize}
	bids, pagination, err := h.service.GetUserBids(c.Request.Context(), userID, query)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	responses := make([]BidResponse, len(bids))
	for i := range bids {
		responses[i] = ToBidResponse(&bids[i])
	}
	common.RespondPaginated(c, "Bids retrieved successfully.", responses, pagination)
}
