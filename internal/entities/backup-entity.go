package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

type BackupStatus string

const (
	BackupInProgress BackupStatus = "IN_PROGRESS"
	BackupCompleted  BackupStatus = "COMPLETED"
	BackupFailed     BackupStatus = "FAILED"
	BackupVerified   BackupStatus = "VERIFIED"
	BackupCorrupted  BackupStatus = "CORRUPTED"
)

const BackupTypeFull = "FULL"

type BackupHistory struct {
	ID                  uint64         `json:"id" db:"id"`
	FileName            string         `json:"fileName" db:"file_name"`
	FilePath            string         `json:"filePath" db:"file_path"`
	FileSize            null.Int64     `json:"fileSize" db:"file_size"`
	BackupType          string         `json:"backupType" db:"backup_type"`
	Status              BackupStatus   `json:"status" db:"status"`
	DatabaseName        string         `json:"databaseName" db:"database_name"`
	DatabaseSize        null.Int64     `json:"databaseSize" db:"database_size"`
	TableCount          null.Int       `json:"tableCount" db:"table_count"`
	RowCount            null.Int64     `json:"rowCount" db:"row_count"`
	CompressionRatio    null.Float64   `json:"compressionRatio" db:"compression_ratio"`
	Checksum            null.String    `json:"checksum" db:"checksum"`
	Duration            null.Int       `json:"duration" db:"duration"`
	TriggeredBy         null.Int64     `json:"triggeredBy" db:"triggered_by"`
	TriggeredByUsername null.String    `json:"triggeredByUsername" db:"triggered_by_username"`
	Description         null.String    `json:"description" db:"description"`
	ErrorMessage        null.String    `json:"errorMessage" db:"error_message"`
	IsVerified          bool           `json:"isVerified" db:"is_verified"`
	VerifiedAt          null.Time      `json:"verifiedAt" db:"verified_at"`
	RetentionDays       int            `json:"retentionDays" db:"retention_days"`
	ExpiresAt           null.Time      `json:"expiresAt" db:"expires_at"`
	IsDeleted           bool           `json:"isDeleted" db:"is_deleted"`
	DeletedAt           null.Time      `json:"deletedAt" db:"deleted_at"`
	Metadata            map[string]any `json:"metadata" db:"metadata"`
	CreatedAt           time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt           time.Time      `json:"updatedAt" db:"updated_at"`
}

// Restorable reports whether the backup may be restored without force.
func (b *BackupHistory) Restorable() bool {
	return b.Status == BackupVerified
}
