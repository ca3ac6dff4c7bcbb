// File: internal/favorite/handler.go
package favorite

import (
	"tradepost_backend/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for favorites.
type Handler struct {
	service Service
}

// NewHandler creates a new favorite handler.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up the favorite routes. All require auth.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	favorites := router.Group("/users/me/favorites")
	favorites.Use(authMiddleware)
	{
		favorites.GET("", h.listFavorites)
		favorites.PUT("/:listingId", h.addFavorite)
		favorites.DELETE("/:listingId", h.removeFavorite)
	}
}

func (h *Handler) listFavorites(c *gin.Context) {
	userID, err := common.GetUserIDFromContext(c)
	if err != nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("User ID not found in token."))
		return
	}

	page, pageSize := common.GetPaginationParams(c)
	query := common.PaginationQuery{Page: page, PageSize: pageSize}
	favorites, pagination, err := h.service.GetUserFavorites(c.Request.Context(), userID, query)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	responses := make([]FavoriteResponse, len(favorites))
	for i := range favorites {
		responses[i] = ToFavoriteResponse(&favorites[i])
	}
	common.RespondPaginated(c, "Favorites retrieved successfully.", responses, pagination)
}

func (h *Handler) addFavorite(c *gin.Context) {
	userID, err := common.GetUserIDFromContext(c)
	if err != nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("User ID not found in token."))
		return
	}

	listingID, err := uuid.Parse(c.Param("listingId"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid listing ID format."))
		return
	}

	if err := h.service.AddFavorite(c.Request.Context(), userID, listingID); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}

func (h *Handler) removeFavorite(c *gin.Context) {
	userID, err := common.GetUserIDFromContext(c)
	if err != nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("User ID not found in token."))
		return
	}

	listingID, err := uuid.Parse(c.Param("listingId"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid listing ID format."))
		return
	}

	if err := h.service.RemoveFavorite(c.Request.Context(), userID, listingID); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}
