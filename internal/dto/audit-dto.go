package dto

import (
	"time"

	"nusantara-erp/internal/entities"
	"nusantara-erp/pkg/audittrail"
)

// AuditEntry is one submission to the audit recorder.
type AuditEntry struct {
	UserID       *uint64
	Username     string
	Action       audittrail.Action
	EntityType   string
	EntityID     string
	EntityName   string
	Before       audittrail.Snapshot
	After        audittrail.Snapshot
	IPAddress    string
	UserAgent    string
	Method       string
	Endpoint     string
	StatusCode   int
	ErrorMessage string
	Duration     int
	Metadata     map[string]any
}

// Actor identifies who performed an audited operation and from where.
type Actor struct {
	UserID    *uint64
	Username  string
	IPAddress string
	UserAgent string
}

func ActorFromClaims(c *UserClaims, client ClientInfo) Actor {
	a := Actor{IPAddress: client.IPAddress, UserAgent: client.UserAgent}
	if c != nil {
		id := c.UserID
		a.UserID = &id
		a.Username = c.Username
	}
	return a
}

type AuditLogFilter struct {
	UserID     *uint64
	Action     string
	EntityType string
	EntityID   string
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int
	Offset     int
	SortBy     string
	Order      string
}

type AuditLogPageDTO struct {
	Logs   []entities.AuditLog `json:"logs"`
	Total  uint64              `json:"total"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
	Pages  int                 `json:"pages"`
}

type ActionCountDTO struct {
	Action string `json:"action"`
	Count  int64  `json:"count"`
}

type EntityTypeCountDTO struct {
	EntityType string `json:"entityType"`
	Count      int64  `json:"count"`
}

type ActiveUserDTO struct {
	UserID   *uint64 `json:"userId"`
	Username string  `json:"username"`
	Count    int64   `json:"count"`
}

type UserActivityDTO struct {
	UserID   uint64           `json:"userId"`
	Days     int              `json:"days"`
	Total    int64            `json:"total"`
	ByAction []ActionCountDTO `json:"byAction"`
}

type SystemActivityDTO struct {
	Days            int                  `json:"days"`
	Total           int64                `json:"total"`
	ByAction        []ActionCountDTO     `json:"byAction"`
	ByEntityType    []EntityTypeCountDTO `json:"byEntityType"`
	MostActiveUsers []ActiveUserDTO      `json:"mostActiveUsers"`
}

type AuditCleanupDTO struct {
	RetentionDays int `json:"retentionDays" validate:"omitempty,min=1,max=3650"`
}

type AuditCleanupResultDTO struct {
	DeletedCount  int64 `json:"deletedCount"`
	RetentionDays int   `json:"retentionDays"`
}

type ClearAllLogsDTO struct {
	ConfirmationCode string `json:"confirmationCode"`
}

type ClearAllLogsResultDTO struct {
	DeletedCount int64 `json:"deletedCount"`
}
