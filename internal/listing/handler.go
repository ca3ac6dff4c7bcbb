// File: internal/listing/handler.go
package listing

import (
	"tradepost_backend/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests related to listings.
type Handler struct {
	service Service
}

// NewHandler creates a new listing handler.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up the routes for listing operations.
// Public reads stay open; every mutation requires authentication, and
// creation additionally goes through the write rate limiter.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc, createLimiter gin.HandlerFunc) {
	listings := router.Group("/listings")
	{
		listings.GET("", h.searchListings)
		listings.GET("/:id", h.getListingByID)
		listings.GET("/slug/:slug", h.getListingBySlug)

		authed := listings.Group("")
		authed.Use(authMiddleware)
		{
			authed.POST("", createLimiter, h.createListing)
			authed.PATCH("/:id", h.updateListing)
			authed.DELETE("/:id", h.deleteListing)
			authed.POST("/:id/republish", h.republishListing)
		}
	}

	me := router.Group("/users/me/listings")
	me.Use(authMiddleware)
	{
		me.GET("", h.getMyListings)
	}
}

func (h *Handler) createListing(c *gin.Context) {
	userID, err := common.GetUserIDFromContext(c)
	if err != nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("User ID not found in token."))
		return
	}

	var req CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.TranslateBindingError(err))
		return
	}

	createdListing, err := h.service.CreateListing(c.Request.Context(), userID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Listing created successfully.", ToListingResponse(createdListing))
}

func (h *Handler) getListingByID(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid listing ID format."))
		return
	}

	foundListing, err := h.service.GetListingByID(c.Request.Context(), listingID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Listing retrieved successfully.", ToListingResponse(foundListing))
}

func (h *Handler) getListingBySlug(c *gin.Context) {
	foundListing, err := h.service.GetListingBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Listing retrieved successfully.", ToListingResponse(foundListing))
}

func (h *Handler) searchListings(c *gin.Context) {
	var query ListingSearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid search parameters."))
		return
	}

	listings, pagination, err := h.service.SearchListings(c.Request.Context(), query)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	responses := make([]ListingResponse, len(listings))
	for i := range listings {
		responses[i] = ToListingResponse(&listings[i])
	}
	common.RespondPaginated(c, "Listings retrieved successfully.", responses, pagination)
}

func (h *Handler) updateListing(c *gin.Context) {
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

	var req UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.TranslateBindingError(err))
		return
	}

	updatedListing, err := h.service.UpdateListing(c.Request.Context(), listingID, userID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Listing updated successfully.", ToListingResponse(updatedListing))
}

func (h *Handler) deleteListing(c *gin.Context) {
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

	if err := h.service.DeleteListing(c.Request.Context(), listingID, userID); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}

func (h *Handler) republishListing(c *gin.Context) {
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

	republished, err := h.service.RepublishListing(c.Request.Context(), listingID, userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Listing republished successfully.", ToListingResponse(republished))
}

func (h *Handler) getMyListings(c *gin.Context) {
	userID, err := common.GetUserIDFromContext(c)
	if err != nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("User ID not found in token."))
		return
	}

	var query UserListingsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid query parameters."))
		return
	}

	listings, pagination, err := h.service.GetUserListings(c.Request.Context(), userID, query)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	responses := make([]ListingResponse, len(listings))
	for i := range listings {
		responses[i] = ToListingResponse(&listings[i])
	}
	common.RespondPaginated(c, "Listings retrieved successfully.", responses, pagination)
}
