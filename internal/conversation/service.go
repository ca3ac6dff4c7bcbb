// File: internal/conversation/service.go
package conversation

import (
	"context"
	"fmt"

	"tradepost_backend/internal/common"
	"tradepost_backend/internal/listing"
	"tradepost_backend/internal/notification"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service defines the interface for conversation-related business logic.
type Service interface {
	StartConversation(ctx context.Context, buyerID uuid.UUID, req StartConversationRequest) (*Conversation, *Message, error)
	SendMessage(ctx context.Context, conversationID, senderID uuid.UUID, req SendMessageRequest) (*Message, error)
	GetUserConversations(ctx context.Context, userID uuid.UUID, query common.PaginationQuery) ([]Conversation, *common.Pagination, error)
	GetMessages(ctx context.Context, conversationID, userID uuid.UUID, query common.PaginationQuery) ([]Message, *common.Pagination, error)
}

// ServiceImplementation implements the conversation Service interface.
type ServiceImplementation struct {
	repo                Repository
	listingRepo         listing.Repository
	notificationService notification.Service
	logger              *zap.Logger
}

// NewService creates a new conversation service.
func NewService(
	repo Repository,
	listingRepo listing.Repository,
	notificationService notification.Service,
	logger *zap.Logger,
) Service {
	return &ServiceImplementation{
		repo:                repo,
		listingRepo:         listingRepo,
		notificationService: notificationService,
		logger:              logger,
	}
}

// StartConversation opens (or reuses) the thread between the requesting
// buyer and the listing's seller, then posts the first message.
func (s *ServiceImplementation) StartConversation(ctx context.Context, buyerID uuid.UUID, req StartConversationRequest) (*Conversation, *Message, error) {
	l, err := s.listingRepo.FindByID(ctx, req.ListingID, false)
	if err != nil {
		return nil, nil, err
	}
	if l.SellerID == buyerID {
		return nil, nil, common.ErrBadRequest.WithDetails("You cannot start a conversation on your own listing.")
	}
	if err := s.checkSoldGate(l, buyerID); err != nil {
		return nil, nil, err
	}

	conv, err := s.repo.FindOrCreate(ctx, l.ID, l.SellerID, buyerID)
	if err != nil {
		s.logger.Error("Failed to find or create conversation",
			zap.String("listingID", l.ID.String()), zap.Error(err))
		return nil, nil, err
	}

	message, err := s.postMessage(ctx, conv, buyerID, req.Content, l.Title)
	if err != nil {
		return nil, nil, err
	}
	return conv, message, nil
}

// SendMessage posts a message into an existing thread the sender belongs to.
func (s *ServiceImplementation) SendMessage(ctx context.Context, conversationID, senderID uuid.UUID, req SendMessageRequest) (*Message, error) {
	conv, err := s.repo.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.SellerID != senderID && conv.BuyerID != senderID {
		return nil, common.ErrForbidden.WithDetails("You are not a participant in this conversation.")
	}

	l, err := s.listingRepo.FindByID(ctx, conv.ListingID, false)
	if err != nil {
		return nil, err
	}
	// The gate applies to the thread's buyer: once the listing sells to
	// someone else, this thread is closed for both sides.
	if err := s.checkSoldGate(l, conv.BuyerID); err != nil {
		return nil, err
	}

	return s.postMessage(ctx, conv, senderID, req.Content, l.Title)
}

func (s *ServiceImplementation) GetUserConversations(ctx context.Context, userID uuid.UUID, query common.PaginationQuery) ([]Conversation, *common.Pagination, error) {
	return s.repo.FindByParticipant(ctx, userID, query)
}

func (s *ServiceImplementation) GetMessages(ctx context.Context, conversationID, userID uuid.UUID, query common.PaginationQuery) ([]Message, *common.Pagination, error) {
	conv, err := s.repo.FindByID(ctx, conversationID)
	if err != nil {
		return nil, nil, err
	}
	if conv.SellerID != userID && conv.BuyerID != userID {
		return nil, nil, common.ErrForbidden.WithDetails("You are not a participant in this conversation.")
	}
	return s.repo.FindMessages(ctx, conversationID, query)
}

// checkSoldGate rejects messaging on a finalized sale unless the thread's
// buyer is the recorded winner. An accepted-but-not-finalized sale has no
// winner yet and stays open: that window is exactly when the seller and
// the accepted bidder need to talk.
func (s *ServiceImplementation) checkSoldGate(l *listing.Listing, buyerID uuid.UUID) error {
	if l.Status != listing.StatusSold || l.WinnerID == nil {
		return nil
	}
	if *l.WinnerID == buyerID {
		return nil
	}
	return common.ErrForbidden.WithDetails("This listing has been sold; messaging is limited to the buyer.")
}

func (s *ServiceImplementation) postMessage(ctx context.Context, conv *Conversation, senderID uuid.UUID, content, listingTitle string) (*Message, error) {
	message := &Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		Content:        content,
	}
	if err := s.repo.CreateMessage(ctx, message); err != nil {
		s.logger.Error("Failed to create message",
			zap.String("conversationID", conv.ID.String()), zap.Error(err))
		return nil, err
	}

	recipientID := conv.SellerID
	if senderID == conv.SellerID {
		recipientID = conv.BuyerID
	}
	notifMessage := fmt.Sprintf("New message about '%s'.", listingTitle)
	if _, err := s.notificationService.CreateNotification(ctx, recipientID, notification.NewMessage, notifMessage, &conv.ListingID); err != nil {
		s.logger.Warn("Failed to notify message recipient",
			zap.String("recipientID", recipientID.String()), zap.Error(err))
	}
	return message, nil
}
