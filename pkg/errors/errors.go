package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// JWT and tokens
	ErrInvalidSigningMethod = fmt.Errorf("invalid token signing method")
	ErrInvalidToken         = fmt.Errorf("invalid token")
	ErrTokenExpired         = fmt.Errorf("token expired")
	ErrTokenNotYetValid     = fmt.Errorf("token is not active yet")
	ErrTokenIsNotRefresh    = fmt.Errorf("token is not a refresh token")
	ErrTokenIsNotAccess     = fmt.Errorf("token is not an access token")
	ErrSessionRevoked       = fmt.Errorf("session has been terminated")

	// Authorization
	ErrEmptyAuthHeader    = fmt.Errorf("authorization header is missing")
	ErrInvalidAuthHeader  = fmt.Errorf("invalid authorization header format")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrAccountInactive    = fmt.Errorf("account is inactive")
	ErrAccountLocked      = fmt.Errorf("account temporarily locked due to multiple failed attempts, try again later")
	ErrUnauthorized       = fmt.Errorf("unauthorized")
	ErrForbidden          = fmt.Errorf("access denied")

	// Context
	ErrUserIDNotFoundInContext = fmt.Errorf("user claims not found in request context")

	// Audit
	ErrInvalidConfirmation = fmt.Errorf("invalid confirmation code")

	// Backup
	ErrBackupNotVerifiable = fmt.Errorf("only completed backups can be verified")
	ErrBackupNotVerified   = fmt.Errorf("backup is not verified, use force to restore anyway")
	ErrBackupFileMissing   = fmt.Errorf("backup file not found")
	ErrRestoreNotConfirmed = fmt.Errorf("restore must be confirmed explicitly")

	// Expenses
	ErrExpenseApproved        = fmt.Errorf("approved expense cannot be changed")
	ErrExpenseAlreadyApproved = fmt.Errorf("expense is already approved")
	ErrRejectionReason        = fmt.Errorf("rejection reason is required")

	// Common
	ErrNotFound   = fmt.Errorf("record not found")
	ErrConflict   = fmt.Errorf("record already exists")
	ErrBadRequest = fmt.Errorf("bad request")
)

// statusBySentinel maps sentinel errors to HTTP codes for utils.ErrorResponse.
var statusBySentinel = map[error]int{
	ErrInvalidSigningMethod:    http.StatusUnauthorized,
	ErrInvalidToken:            http.StatusUnauthorized,
	ErrTokenExpired:            http.StatusUnauthorized,
	ErrTokenNotYetValid:        http.StatusUnauthorized,
	ErrTokenIsNotRefresh:       http.StatusUnauthorized,
	ErrTokenIsNotAccess:        http.StatusUnauthorized,
	ErrSessionRevoked:          http.StatusUnauthorized,
	ErrEmptyAuthHeader:         http.StatusUnauthorized,
	ErrInvalidAuthHeader:       http.StatusUnauthorized,
	ErrInvalidCredentials:      http.StatusUnauthorized,
	ErrUnauthorized:            http.StatusUnauthorized,
	ErrUserIDNotFoundInContext: http.StatusUnauthorized,
	ErrAccountInactive:         http.StatusForbidden,
	ErrForbidden:               http.StatusForbidden,
	ErrExpenseApproved:         http.StatusForbidden,
	ErrAccountLocked:           http.StatusLocked,
	ErrInvalidConfirmation:     http.StatusBadRequest,
	ErrBackupNotVerifiable:     http.StatusBadRequest,
	ErrBackupNotVerified:       http.StatusBadRequest,
	ErrRestoreNotConfirmed:     http.StatusBadRequest,
	ErrExpenseAlreadyApproved:  http.StatusBadRequest,
	ErrRejectionReason:         http.StatusBadRequest,
	ErrBadRequest:              http.StatusBadRequest,
	ErrBackupFileMissing:       http.StatusNotFound,
	ErrNotFound:                http.StatusNotFound,
	ErrConflict:                http.StatusConflict,
}

// StatusCode returns the HTTP code registered for err (or anything it wraps).
func StatusCode(err error) (int, bool) {
	for sentinel, code := range statusBySentinel {
		if errors.Is(err, sentinel) {
			return code, true
		}
	}
	return 0, false
}

type HttpError struct {
	Code    int
	Message string
	Err     error
	Context map[string]interface{}
	Details interface{}
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, message string, err error, ctx map[string]interface{}) *HttpError {
	return &HttpError{Code: code, Message: message, Err: err, Context: ctx}
}

func NewBadRequestError(message string) *HttpError {
	return NewHttpError(http.StatusBadRequest, message, ErrBadRequest, nil)
}

func NewNotFoundError(message string) *HttpError {
	return NewHttpError(http.StatusNotFound, message, ErrNotFound, nil)
}

func NewForbiddenError(message string) *HttpError {
	return NewHttpError(http.StatusForbidden, message, ErrForbidden, nil)
}

// InvalidInputError carries a user-facing validation message produced by service code.
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func NewInvalidInputError(format string, args ...interface{}) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}
