package dto

import (
	"time"

	"nusantara-erp/internal/entities"
)

type CreateBackupDTO struct {
	Description string `json:"description" validate:"max=500"`
}

type BackupOptions struct {
	TriggeredBy *uint64
	Username    string
	Description string
}

type DatabaseStats struct {
	Size       int64
	TableCount int
	RowCount   int64
}

type BackupFilter struct {
	Limit          int
	Offset         int
	Status         string
	BackupType     string
	IncludeDeleted bool
}

type BackupListDTO struct {
	Backups []entities.BackupHistory `json:"backups"`
	Total   uint64                   `json:"total"`
	Limit   int                      `json:"limit"`
	Offset  int                      `json:"offset"`
}

type BackupDetailsDTO struct {
	entities.BackupHistory
	FileExists        bool   `json:"fileExists"`
	FileSizeFormatted string `json:"fileSizeFormatted"`
}

type RestoreBackupDTO struct {
	Confirm      bool `json:"confirm"`
	Force        bool `json:"force"`
	DropExisting bool `json:"dropExisting"`
}

type RestoreResultDTO struct {
	Backup   *entities.BackupHistory `json:"backup"`
	Duration float64                 `json:"duration"`
}

type BackupCleanupResultDTO struct {
	DeletedCount        int    `json:"deletedCount"`
	FreedSpace          int64  `json:"freedSpace"`
	FreedSpaceFormatted string `json:"freedSpaceFormatted"`
}

type LatestBackupDTO struct {
	ID        uint64                `json:"id"`
	FileName  string                `json:"fileName"`
	Status    entities.BackupStatus `json:"status"`
	CreatedAt time.Time             `json:"createdAt"`
	FileSize  int64                 `json:"fileSize"`
}

type BackupStatsDTO struct {
	TotalBackups       int64            `json:"totalBackups"`
	SuccessfulBackups  int64            `json:"successfulBackups"`
	FailedBackups      int64            `json:"failedBackups"`
	SuccessRate        float64          `json:"successRate"`
	LatestBackup       *LatestBackupDTO `json:"latestBackup"`
	TotalSize          int64            `json:"totalSize"`
	TotalSizeFormatted string           `json:"totalSizeFormatted"`
	AverageCompression float64          `json:"averageCompression"`
}

// BackupAggregates is what the repository computes for BackupStatsDTO.
type BackupAggregates struct {
	Total              int64
	Successful         int64
	Failed             int64
	TotalSize          int64
	AverageCompression float64
}
