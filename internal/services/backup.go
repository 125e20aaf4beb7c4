package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"nusantara-erp/internal/dto"
	"nusantara-erp/internal/entities"
	"nusantara-erp/internal/repositories"
	"nusantara-erp/pkg/archive"
	"nusantara-erp/pkg/config"
	apperrors "nusantara-erp/pkg/errors"
	"nusantara-erp/pkg/pgdump"

	"github.com/aarondl/null/v8"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	backupFilePrefix   = "nusantara_backup_"
	backupFileSuffix   = ".sql.gz"
	defaultBackupLimit = 50
)

type BackupServiceInterface interface {
	Create(ctx context.Context, opts dto.BackupOptions) (*entities.BackupHistory, error)
	Verify(ctx context.Context, id uint64) (*entities.BackupHistory, error)
	Restore(ctx context.Context, id uint64, opts dto.RestoreBackupDTO) (*dto.RestoreResultDTO, error)
	List(ctx context.Context, filter dto.BackupFilter) (*dto.BackupListDTO, error)
	Details(ctx context.Context, id uint64) (*dto.BackupDetailsDTO, error)
	Delete(ctx context.Context, id uint64, hard bool) error
	CleanupExpired(ctx context.Context) (*dto.BackupCleanupResultDTO, error)
	Stats(ctx context.Context) (*dto.BackupStatsDTO, error)
	DownloadPath(ctx context.Context, id uint64) (path, name string, err error)
}

type BackupService struct {
	repo     repositories.BackupRepositoryInterface
	dumper   pgdump.Dumper
	restorer pgdump.Restorer
	cfg      config.BackupConfig
	logger   *zap.Logger
	now      func() time.Time
}

func NewBackupService(
	repo repositories.BackupRepositoryInterface,
	dumper pgdump.Dumper,
	restorer pgdump.Restorer,
	cfg config.BackupConfig,
	logger *zap.Logger,
) *BackupService {
	return &BackupService{repo: repo, dumper: dumper, restorer: restorer, cfg: cfg, logger: logger, now: time.Now}
}

func backupFileName(t time.Time) string {
	return backupFilePrefix + t.UTC().Format("2006-01-02T15-04-05") + backupFileSuffix
}

// compressionRatio is the space saved relative to the live database, in percent.
func compressionRatio(fileSize, dbSize int64) float64 {
	if dbSize <= 0 {
		return 0
	}
	return math.Round((1-float64(fileSize)/float64(dbSize))*10000) / 100
}

// Create dumps the database, records the outcome and verifies the artifact.
// A failed dump leaves a FAILED row and no file behind. Cancelling ctx does
// not interrupt the run.
func (s *BackupService) Create(ctx context.Context, opts dto.BackupOptions) (*entities.BackupHistory, error) {
	ctx = context.WithoutCancel(ctx)
	if err := os.MkdirAll(s.cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}

	stats, err := s.repo.DatabaseStats(ctx)
	if err != nil {
		return nil, err
	}

	started := s.now()
	name := backupFileName(started)
	row := &entities.BackupHistory{
		FileName:      name,
		FilePath:      filepath.Join(s.cfg.Dir, name),
		BackupType:    entities.BackupTypeFull,
		Status:        entities.BackupInProgress,
		DatabaseName:  s.cfg.DBName,
		DatabaseSize:  null.Int64From(stats.Size),
		TableCount:    null.IntFrom(stats.TableCount),
		RowCount:      null.Int64From(stats.RowCount),
		Description:   nullString(opts.Description),
		RetentionDays: s.cfg.RetentionDays,
		ExpiresAt:     null.TimeFrom(started.AddDate(0, 0, s.cfg.RetentionDays)),
		Metadata:      map[string]any{"correlationId": uuid.NewString(), "tool": "pg_dump"},
	}
	if opts.TriggeredBy != nil {
		row.TriggeredBy = null.Int64From(int64(*opts.TriggeredBy))
	}
	row.TriggeredByUsername = nullString(opts.Username)

	if err := s.repo.Create(ctx, row); err != nil {
		return nil, err
	}
	s.logger.Info("backup started", zap.Uint64("id", row.ID), zap.String("file", row.FileName))

	if err := s.dumper.Dump(ctx, row.FilePath); err != nil {
		return nil, s.fail(ctx, row, started, err)
	}

	checksum, err := archive.Checksum(row.FilePath)
	if err != nil {
		return nil, s.fail(ctx, row, started, err)
	}
	size := archive.Size(row.FilePath)
	res := repositories.BackupResult{
		FileSize:         size,
		Duration:         int(s.now().Sub(started).Seconds()),
		CompressionRatio: compressionRatio(size, stats.Size),
		Checksum:         checksum,
	}
	if err := s.repo.MarkCompleted(ctx, row.ID, res); err != nil {
		return nil, s.fail(ctx, row, started, err)
	}
	s.logger.Info("backup completed",
		zap.Uint64("id", row.ID),
		zap.String("size", humanize.IBytes(uint64(size))),
		zap.Float64("compressionRatio", res.CompressionRatio),
	)

	return s.Verify(ctx, row.ID)
}

func (s *BackupService) fail(ctx context.Context, row *entities.BackupHistory, started time.Time, cause error) error {
	if rmErr := os.Remove(row.FilePath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
		s.logger.Warn("could not remove partial backup", zap.String("file", row.FilePath), zap.Error(rmErr))
	}
	duration := int(s.now().Sub(started).Seconds())
	if err := s.repo.MarkFailed(context.WithoutCancel(ctx), row.ID, duration, cause.Error()); err != nil {
		s.logger.Error("could not mark backup failed", zap.Uint64("id", row.ID), zap.Error(err))
	}
	s.logger.Error("backup failed", zap.Uint64("id", row.ID), zap.Error(cause))
	return fmt.Errorf("backup %d failed: %w", row.ID, cause)
}

// Verify re-checks existence, checksum and gzip integrity of a finished backup.
func (s *BackupService) Verify(ctx context.Context, id uint64) (*entities.BackupHistory, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status != entities.BackupCompleted && b.Status != entities.BackupVerified {
		return nil, apperrors.ErrBackupNotVerifiable
	}

	if problem := s.inspect(b); problem != "" {
		if err := s.repo.MarkCorrupted(ctx, id, problem); err != nil {
			return nil, err
		}
		s.logger.Warn("backup verification failed", zap.Uint64("id", id), zap.String("reason", problem))
		return s.repo.FindByID(ctx, id)
	}

	if err := s.repo.MarkVerified(ctx, id); err != nil {
		return nil, err
	}
	s.logger.Info("backup verified", zap.Uint64("id", id))
	return s.repo.FindByID(ctx, id)
}

func (s *BackupService) inspect(b *entities.BackupHistory) string {
	if !archive.Exists(b.FilePath) {
		return "backup file not found"
	}
	sum, err := archive.Checksum(b.FilePath)
	if err != nil {
		return fmt.Sprintf("checksum failed: %v", err)
	}
	if b.Checksum.Valid && sum != b.Checksum.String {
		return "checksum mismatch"
	}
	if err := archive.VerifyGzip(b.FilePath); err != nil {
		return fmt.Sprintf("gzip integrity check failed: %v", err)
	}
	return ""
}

// Restore replays a backup into the live database. Cancelling ctx does not
// interrupt psql.
func (s *BackupService) Restore(ctx context.Context, id uint64, opts dto.RestoreBackupDTO) (*dto.RestoreResultDTO, error) {
	ctx = context.WithoutCancel(ctx)
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.Restorable() && !opts.Force {
		return nil, apperrors.ErrBackupNotVerified
	}
	if !archive.Exists(b.FilePath) {
		return nil, apperrors.ErrBackupFileMissing
	}

	s.logger.Warn("database restore started", zap.Uint64("id", id), zap.Bool("force", opts.Force), zap.Bool("dropExisting", opts.DropExisting))
	started := s.now()
	if err := s.restorer.Restore(ctx, b.FilePath, pgdump.RestoreOptions{DropExisting: opts.DropExisting}); err != nil {
		s.logger.Error("database restore failed", zap.Uint64("id", id), zap.Error(err))
		return nil, fmt.Errorf("restore backup %d: %w", id, err)
	}
	elapsed := s.now().Sub(started).Seconds()
	s.logger.Info("database restored", zap.Uint64("id", id), zap.Float64("seconds", elapsed))

	return &dto.RestoreResultDTO{Backup: b, Duration: elapsed}, nil
}

func (s *BackupService) List(ctx context.Context, filter dto.BackupFilter) (*dto.BackupListDTO, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultBackupLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	backups, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &dto.BackupListDTO{Backups: backups, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (s *BackupService) Details(ctx context.Context, id uint64) (*dto.BackupDetailsDTO, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.BackupDetailsDTO{
		BackupHistory:     *b,
		FileExists:        archive.Exists(b.FilePath),
		FileSizeFormatted: humanize.IBytes(uint64(b.FileSize.Int64)),
	}, nil
}

func (s *BackupService) Delete(ctx context.Context, id uint64, hard bool) error {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !hard {
		return s.repo.SoftDelete(ctx, id)
	}

	if err := os.Remove(b.FilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove backup file: %w", err)
	}
	if err := s.repo.HardDelete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("backup permanently deleted", zap.Uint64("id", id), zap.String("file", b.FileName))
	return nil
}

// CleanupExpired unlinks the files of expired backups and soft-deletes their rows.
func (s *BackupService) CleanupExpired(ctx context.Context) (*dto.BackupCleanupResultDTO, error) {
	expired, err := s.repo.FindExpired(ctx, s.now())
	if err != nil {
		return nil, err
	}

	res := &dto.BackupCleanupResultDTO{}
	for _, b := range expired {
		size := archive.Size(b.FilePath)
		if err := os.Remove(b.FilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("could not remove expired backup file", zap.Uint64("id", b.ID), zap.Error(err))
			continue
		}
		if err := s.repo.SoftDelete(ctx, b.ID); err != nil {
			s.logger.Warn("could not mark expired backup deleted", zap.Uint64("id", b.ID), zap.Error(err))
			continue
		}
		res.DeletedCount++
		res.FreedSpace += size
	}
	res.FreedSpaceFormatted = humanize.IBytes(uint64(res.FreedSpace))
	s.logger.Info("expired backups cleaned up", zap.Int("deleted", res.DeletedCount), zap.String("freed", res.FreedSpaceFormatted))
	return res, nil
}

func (s *BackupService) Stats(ctx context.Context) (*dto.BackupStatsDTO, error) {
	agg, err := s.repo.Aggregates(ctx)
	if err != nil {
		return nil, err
	}

	stats := &dto.BackupStatsDTO{
		TotalBackups:       agg.Total,
		SuccessfulBackups:  agg.Successful,
		FailedBackups:      agg.Failed,
		TotalSize:          agg.TotalSize,
		TotalSizeFormatted: humanize.IBytes(uint64(agg.TotalSize)),
		AverageCompression: math.Round(agg.AverageCompression*100) / 100,
	}
	if agg.Total > 0 {
		stats.SuccessRate = math.Round(float64(agg.Successful)/float64(agg.Total)*10000) / 100
	}

	latest, err := s.repo.Latest(ctx)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
	case err != nil:
		return nil, err
	default:
		stats.LatestBackup = &dto.LatestBackupDTO{
			ID:        latest.ID,
			FileName:  latest.FileName,
			Status:    latest.Status,
			CreatedAt: latest.CreatedAt,
			FileSize:  latest.FileSize.Int64,
		}
	}
	return stats, nil
}

func (s *BackupService) DownloadPath(ctx context.Context, id uint64) (string, string, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", "", err
	}
	if !archive.Exists(b.FilePath) {
		return "", "", apperrors.ErrBackupFileMissing
	}
	return b.FilePath, b.FileName, nil
}
