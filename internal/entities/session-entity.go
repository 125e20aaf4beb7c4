package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

type ActiveSession struct {
	ID         string      `json:"id" db:"id"`
	UserID     uint64      `json:"userId" db:"user_id"`
	IPAddress  null.String `json:"ipAddress" db:"ip_address"`
	UserAgent  null.String `json:"userAgent" db:"user_agent"`
	Device     null.String `json:"device" db:"device"`
	IsActive   bool        `json:"isActive" db:"is_active"`
	LastActive time.Time   `json:"lastActive" db:"last_active"`
	ExpiresAt  time.Time   `json:"expiresAt" db:"expires_at"`
	RevokedAt  null.Time   `json:"revokedAt" db:"revoked_at"`
	CreatedAt  time.Time   `json:"createdAt" db:"created_at"`
	IsCurrent  bool        `json:"isCurrent" db:"-"`
}

type LoginHistory struct {
	ID            uint64      `json:"id" db:"id"`
	UserID        null.Int64  `json:"userId" db:"user_id"`
	Username      string      `json:"username" db:"username"`
	IPAddress     null.String `json:"ipAddress" db:"ip_address"`
	UserAgent     null.String `json:"userAgent" db:"user_agent"`
	Device        null.String `json:"device" db:"device"`
	Success       bool        `json:"success" db:"success"`
	FailureReason null.String `json:"failureReason" db:"failure_reason"`
	CreatedAt     time.Time   `json:"createdAt" db:"created_at"`
}
