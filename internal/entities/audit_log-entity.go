package entities

import (
	"time"

	"nusantara-erp/pkg/audittrail"

	"github.com/aarondl/null/v8"
)

type AuditLog struct {
	ID           uint64                       `json:"id" db:"id"`
	UserID       null.Int64                   `json:"userId" db:"user_id"`
	Username     null.String                  `json:"username" db:"username"`
	Action       audittrail.Action            `json:"action" db:"action"`
	EntityType   string                       `json:"entityType" db:"entity_type"`
	EntityID     null.String                  `json:"entityId" db:"entity_id"`
	EntityName   null.String                  `json:"entityName" db:"entity_name"`
	Before       audittrail.Snapshot          `json:"before" db:"before"`
	After        audittrail.Snapshot          `json:"after" db:"after"`
	Changes      map[string]audittrail.Change `json:"changes" db:"changes"`
	IPAddress    null.String                  `json:"ipAddress" db:"ip_address"`
	UserAgent    null.String                  `json:"userAgent" db:"user_agent"`
	Method       null.String                  `json:"method" db:"method"`
	Endpoint     null.String                  `json:"endpoint" db:"endpoint"`
	StatusCode   null.Int                     `json:"statusCode" db:"status_code"`
	ErrorMessage null.String                  `json:"errorMessage" db:"error_message"`
	Duration     null.Int                     `json:"duration" db:"duration"`
	Metadata     map[string]any               `json:"metadata" db:"metadata"`
	CreatedAt    time.Time                    `json:"createdAt" db:"created_at"`
}
