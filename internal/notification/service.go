// File: internal/notification/service.go
package notification

import (
	"context"

	"tradepost_backend/internal/common"
	"tradepost_backend/internal/firebase"
	"tradepost_backend/internal/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service defines the interface for notification-related business logic.
type Service interface {
	CreateNotification(ctx context.Context, userID uuid.UUID, notifType Type, message string, listingID *uuid.UUID) (*Notification, error)
	GetUserNotifications(ctx context.Context, userID uuid.UUID, query common.PaginationQuery) ([]Notification, *common.Pagination, error)
	MarkNotificationRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
	MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) error
	GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)

	// Push sends a push message to the user's registered device, if any.
	// Delivery is best effort; failures are logged and never propagated.
	Push(ctx context.Context, userID uuid.UUID, title, message string)
}

// ServiceImplementation implements the notification Service interface.
type ServiceImplementation struct {
	repo            Repository
	userRepo        user.Repository
	firebaseService *firebase.Service
	logger          *zap.Logger
}

// NewService creates a new notification service.
func NewService(
	repo Repository,
	userRepo user.Repository,
	firebaseService *firebase.Service,
	logger *zap.Logger,
) Service {
	return &ServiceImplementation{
		repo:            repo,
		userRepo:        userRepo,
		firebaseService: firebaseService,
		logger:          logger,
	}
}

// CreateNotification persists an in-app notification and attempts a push.
func (s *ServiceImplementation) CreateNotification(ctx context.Context, userID uuid.UUID, notifType Type, message string, listingID *uuid.UUID) (*Notification, error) {
	n := &Notification{
		UserID:    userID,
		Type:      notifType,
		Message:   message,
		ListingID: listingID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Error("Failed to persist notification",
			zap.String("userID", userID.String()),
			zap.String("type", string(notifType)),
			zap.Error(err))
		return nil, err
	}

	s.Push(ctx, userID, pushTitle(notifType), message)
	return n, nil
}

func (s *ServiceImplementation) GetUserNotifications(ctx context.Context, userID uuid.UUID, query common.PaginationQuery) ([]Notification, *common.Pagination, error) {
	return s.repo.FindByUserID(ctx, userID, query)
}

func (s *ServiceImplementation) MarkNotificationRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	return s.repo.MarkRead(ctx, id, userID)
}

func (s *ServiceImplementation) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *ServiceImplementation) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

// Push looks up the user's device token and hands the message to FCM.
func (s *ServiceImplementation) Push(ctx context.Context, userID uuid.UUID, title, message string) {
	if s.firebaseService == nil {
		return
	}
	recipient, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		s.logger.Warn("Push skipped, could not load recipient",
			zap.String("userID", userID.String()), zap.Error(err))
		return
	}
	if recipient.DeviceToken == nil || *recipient.DeviceToken == "" {
		return
	}
	if ok := s.firebaseService.SendPush(ctx, *recipient.DeviceToken, title, message, nil); !ok {
		s.logger.Warn("Push delivery failed", zap.String("userID", userID.String()))
	}
}

func pushTitle(t Type) string {
	switch t {
	case BidReceived:
		return "New bid"
	case BidAccepted:
		return "Bid accepted"
	case BidRejected:
		return "Bid rejected"
	case BidCancelled:
		return "Bid cancelled"
	case SaleFinalized:
		return "Sale finalized"
	case ListingExpired:
		return "Listing expired"
	case NewMessage:
		return "New message"
	default:
		return "Notification"
	}
}
