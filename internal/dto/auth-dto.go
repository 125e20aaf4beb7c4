package dto

import (
	"time"

	"nusantara-erp/internal/entities"
)

type LoginDTO struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type ChangePasswordDTO struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

// ClientInfo describes where a request came from.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

type AuthResponseDTO struct {
	AccessToken  string        `json:"token"`
	RefreshToken string        `json:"refreshToken"`
	ExpiresIn    int64         `json:"expiresIn"`
	SessionID    string        `json:"sessionId"`
	User         UserPublicDTO `json:"user"`
}

type UserPublicDTO struct {
	ID          uint64     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FullName    string     `json:"fullName"`
	Phone       string     `json:"phone,omitempty"`
	Role        string     `json:"role"`
	EmployeeID  *string    `json:"employeeId"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt"`
}

func NewUserPublicDTO(u *entities.User) UserPublicDTO {
	return UserPublicDTO{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FullName:    u.FullName.String,
		Phone:       u.Phone.String,
		Role:        u.Role,
		EmployeeID:  u.EmployeeID.Ptr(),
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt.Ptr(),
	}
}
