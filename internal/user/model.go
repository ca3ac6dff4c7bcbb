// File: internal/user/model.go
package user

import (
	"time"

	"tradepost_backend/internal/common"

	"github.com/google/uuid"
)

// User represents an account in the marketplace. Authentication is
// delegated to Firebase; this row only mirrors the identity plus the
// marketplace-specific bits (display name, device token for push).
type User struct {
	common.BaseModel
	FirebaseUID string  `gorm:"type:varchar(128);not null;uniqueIndex"`
	Email       *string `gorm:"type:varchar(255);uniqueIndex"`
	DisplayName string  `gorm:"type:varchar(150);not null;default:''"`
	PhotoURL    *string `gorm:"type:text"`
	DeviceToken *string `gorm:"type:text"`
	LastLoginAt *time.Time
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

// --- DTOs ---

// UpdateProfileRequest updates mutable profile fields.
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty" binding:"omitempty,min=1,max=150"`
	PhotoURL    *string `json:"photo_url,omitempty" binding:"omitempty,max=2048"`
}

// RegisterDeviceRequest registers an FCM device token for push delivery.
type RegisterDeviceRequest struct {
	DeviceToken string `json:"device_token" binding:"required,max=4096"`
}

// UserResponse defines the structure for user data sent in API responses.
type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	Email       *string    `json:"email,omitempty"`
	DisplayName string     `json:"display_name"`
	PhotoURL    *string    `json:"photo_url,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// ToUserResponse converts a User model to a UserResponse DTO.
func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		PhotoURL:    u.PhotoURL,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}
