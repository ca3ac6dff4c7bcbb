// File: internal/conversation/handler.go
package conversation

import (
	"tradepost_backend/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for conversations and messages.
type Handler struct {
	service Service
}

// NewHandler creates a new conversation handler.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up the routes for messaging. All require auth.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	conversations := router.Group("/conversations")
	conversations.Use(authMiddleware)
	{
		conversations.POST("", h.startConversation)
		conversations.GET("", h.listConversations)
		conversations.GET("/:id/messages", h.getMessages)
		conversations.POST("/:id/messages", h.sendMessage)
	}
}

func (h *Handler) startConversation(c *gin.Context) {
	userID, err := common.GetUserIDFromContext(c)
	if err != nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("User ID not found in token."))
		return
	}

	var req StartConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.TranslateBindingError(err))
		return
	}

	conv, message, err := h.service.StartConversation(c.Request.Context(), userID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Conversation started successfully.", gin.H{
		"conversation": ToConversationResponse(conv),
		"message":      ToMessageResponse(message),
	})
}

func (h *Handler) listConversations(c *gin.Context) {
	userID, err := common.GetUserIDFromContext(c)
	if err != nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("User ID not found in token."))
		return
	}

	page, pageSize := common.GetPaginationParams(c)
	query := common.PaginationQuery{Page: page, PageSize: pageSize}
	conversations, pagination, err := h.service.GetUserConversations(c.Request.Context(), userID, query)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	responses := make([]ConversationResponse, len(conversations))
	for i := range conversations {
		responses[i] = ToConversationResponse(&conversations[i])
	}
	common.RespondPaginated(c, "Retrieved successfully.", responses, pagination)
}

func (h *Handler) getMessages(c *gin.Context) {
	userID, err := common.GetUserIDFromContext(c)
	if err != nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("User ID not found in token."))
		return
	}

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid conversation ID format."))
		return
	}

	page, pageSize := common.GetPaginationParams(c)
	query := common.PaginationQuery{Page: page, PageSize: pageSize}
	messages, pagination, err := h.service.GetMessages(c.Request.Context(), conversationID, userID, query)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	responses := make([]MessageResponse, len(messages))
	for i := range messages {
		responses[i] = ToMessageResponse(&messages[i])
	}
	common.RespondPaginated(c, "Retrieved successfully.", responses, pagination)
}

func (h *Handler) sendMessage(c *gin.Context) {
	userID, err := common.GetUserIDFromContext(c)
	if err != nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("User ID not found in token."))
		return
	}

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid conversation ID format."))
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.TranslateBindingError(err))
		return
	}

	message, err := h.service.SendMessage(c.Request.Context(), conversationID, userID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Message sent successfully.", ToMessageResponse(message))
}
