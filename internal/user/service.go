// File: internal/user/service.go
package user

import (
	"context"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service defines the interface for user-related business logic.
type Service interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetOrCreateFromFirebaseToken(ctx context.Context, token *firebaseauth.Token) (*User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*User, error)
	RegisterDevice(ctx context.Context, id uuid.UUID, deviceToken string) error
}

// ServiceImplementation implements the user Service interface.
type ServiceImplementation struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a new user service.
func NewService(repo Repository, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{repo: repo, logger: logger}
}

func (s *ServiceImplementation) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

// GetOrCreateFromFirebaseToken resolves the local user row for a verified
// Firebase token, provisioning it on first sight and stamping last login.
func (s *ServiceImplementation) GetOrCreateFromFirebaseToken(ctx context.Context, token *firebaseauth.Token) (*User, error) {
	existing, err := s.repo.FindByFirebaseUID(ctx, token.UID)
	if err == nil {
		now := time.Now()
		existing.LastLoginAt = &now
		if updateErr := s.repo.Update(ctx, existing); updateErr != nil {
			s.logger.Warn("Failed to stamp last login", zap.Error(updateErr), zap.String("firebaseUID", token.UID))
		}
		return existing, nil
	}

	newUser := &User{FirebaseUID: token.UID}
	if emailClaim, ok := token.Claims["email"].(string); ok && emailClaim != "" {
		newUser.Email = &emailClaim
	}
	if nameClaim, ok := token.Claims["name"].(string); ok {
		newUser.DisplayName = nameClaim
	}
	if pictureClaim, ok := token.Claims["picture"].(string); ok && pictureClaim != "" {
		newUser.PhotoURL = &pictureClaim
	}
	now := time.Now()
	newUser.LastLoginAt = &now

	if err := s.repo.Create(ctx, newUser); err != nil {
		s.logger.Error("Failed to provision user from Firebase token", zap.Error(err), zap.String("firebaseUID", token.UID))
		return nil, err
	}
	s.logger.Info("Provisioned new user from Firebase token",
		zap.String("userID", newUser.ID.String()),
		zap.String("firebaseUID", token.UID),
	)
	return newUser, nil
}

func (s *ServiceImplementation) UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.DisplayName != nil {
		u.DisplayName = *req.DisplayName
	}
	if req.PhotoURL != nil {
		u.PhotoURL = req.PhotoURL
	}
	if err := s.repo.Update(ctx, u); err != nil {
		s.logger.Error("Failed to update user profile", zap.Error(err), zap.String("userID", id.String()))
		return nil, err
	}
	return u, nil
}

func (s *ServiceImplementation) RegisterDevice(ctx context.Context, id uuid.UUID, deviceToken string) error {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	u.DeviceToken = &deviceToken
	if err := s.repo.Update(ctx, u); err != nil {
		s.logger.Error("Failed to register device token", zap.Error(err), zap.String("userID", id.String()))
		return err
	}
	s.logger.Debug("Device token registered", zap.String("userID", id.String()))
	return nil
}
