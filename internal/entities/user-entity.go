package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

type User struct {
	ID             uint64      `json:"id" db:"id"`
	Username       string      `json:"username" db:"username"`
	Email          string      `json:"email" db:"email"`
	PasswordHash   string      `json:"-" db:"password_hash"`
	FullName       null.String `json:"fullName" db:"full_name"`
	Phone          null.String `json:"phone" db:"phone"`
	Role           string      `json:"role" db:"role"`
	IsActive       bool        `json:"isActive" db:"is_active"`
	EmployeeID     null.String `json:"employeeId" db:"employee_id"`
	FailedAttempts int         `json:"-" db:"failed_attempts"`
	LockedUntil    null.Time   `json:"lockedUntil" db:"locked_until"`
	LastLoginAt    null.Time   `json:"lastLoginAt" db:"last_login_at"`
	CreatedAt      time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time   `json:"updatedAt" db:"updated_at"`
}

// IsLocked reports whether a persisted lockout is still in force at now.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil.Valid && u.LockedUntil.Time.After(now)
}
