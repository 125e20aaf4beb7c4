package repositories

import (
	"context"
	"fmt"
	"time"

	"nusantara-erp/internal/dto"
	"nusantara-erp/internal/entities"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	backupTable  = "backup_history"
	backupFields = "id, file_name, file_path, file_size, backup_type, status, database_name, database_size, table_count, row_count, compression_ratio, checksum, duration, triggered_by, triggered_by_username, description, error_message, is_verified, verified_at, retention_days, expires_at, is_deleted, deleted_at, metadata, created_at, updated_at"
)

// BackupResult is what a finished dump writes back to its row.
type BackupResult struct {
	FileSize         int64
	Duration         int
	CompressionRatio float64
	Checksum         string
}

type BackupRepositoryInterface interface {
	Create(ctx context.Context, b *entities.BackupHistory) error
	FindByID(ctx context.Context, id uint64) (*entities.BackupHistory, error)
	MarkCompleted(ctx context.Context, id uint64, res BackupResult) error
	MarkFailed(ctx context.Context, id uint64, duration int, message string) error
	MarkVerified(ctx context.Context, id uint64) error
	MarkCorrupted(ctx context.Context, id uint64, message string) error
	List(ctx context.Context, filter dto.BackupFilter) ([]entities.BackupHistory, uint64, error)
	SoftDelete(ctx context.Context, id uint64) error
	HardDelete(ctx context.Context, id uint64) error
	FindExpired(ctx context.Context, now time.Time) ([]entities.BackupHistory, error)
	Aggregates(ctx context.Context) (*dto.BackupAggregates, error)
	Latest(ctx context.Context) (*entities.BackupHistory, error)
	DatabaseStats(ctx context.Context) (*dto.DatabaseStats, error)
}

type backupRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
	psql    sq.StatementBuilderType
}

func NewBackupRepository(storage *pgxpool.Pool, logger *zap.Logger) BackupRepositoryInterface {
	return &backupRepository{
		storage: storage,
		logger:  logger,
		psql:    sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func scanBackup(row pgx.Row) (*entities.BackupHistory, error) {
	var b entities.BackupHistory
	err := row.Scan(
		&b.ID, &b.FileName, &b.FilePath, &b.FileSize, &b.BackupType, &b.Status, &b.DatabaseName, &b.DatabaseSize,
		&b.TableCount, &b.RowCount, &b.CompressionRatio, &b.Checksum, &b.Duration, &b.TriggeredBy,
		&b.TriggeredByUsername, &b.Description, &b.ErrorMessage, &b.IsVerified, &b.VerifiedAt, &b.RetentionDays,
		&b.ExpiresAt, &b.IsDeleted, &b.DeletedAt, &b.Metadata, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, mapPgError(err)
	}
	return &b, nil
}

func collectBackups(rows pgx.Rows) ([]entities.BackupHistory, error) {
	defer rows.Close()
	out := make([]entities.BackupHistory, 0)
	for rows.Next() {
		b, err := scanBackup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (r *backupRepository) Create(ctx context.Context, b *entities.BackupHistory) error {
	query := fmt.Sprintf(`INSERT INTO %s (file_name, file_path, backup_type, status, database_name, database_size, table_count,
		row_count, triggered_by, triggered_by_username, description, retention_days, expires_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING %s`, backupTable, backupFields)
	created, err := scanBackup(r.storage.QueryRow(ctx, query,
		b.FileName, b.FilePath, b.BackupType, string(b.Status), b.DatabaseName, b.DatabaseSize, b.TableCount,
		b.RowCount, b.TriggeredBy, b.TriggeredByUsername, b.Description, b.RetentionDays, b.ExpiresAt, b.Metadata,
	))
	if err != nil {
		return err
	}
	*b = *created
	return nil
}

func (r *backupRepository) FindByID(ctx context.Context, id uint64) (*entities.BackupHistory, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", backupFields, backupTable)
	return scanBackup(r.storage.QueryRow(ctx, query, id))
}

func (r *backupRepository) exec(ctx context.Context, query string, args ...any) error {
	tag, err := r.storage.Exec(ctx, query, args...)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return mapPgError(pgx.ErrNoRows)
	}
	return nil
}

func (r *backupRepository) MarkCompleted(ctx context.Context, id uint64, res BackupResult) error {
	query := fmt.Sprintf(`UPDATE %s SET status = $1, file_size = $2, duration = $3, compression_ratio = $4,
		checksum = $5, updated_at = NOW() WHERE id = $6`, backupTable)
	return r.exec(ctx, query, string(entities.BackupCompleted), res.FileSize, res.Duration, res.CompressionRatio, res.Checksum, id)
}

func (r *backupRepository) MarkFailed(ctx context.Context, id uint64, duration int, message string) error {
	query := fmt.Sprintf("UPDATE %s SET status = $1, duration = $2, error_message = $3, updated_at = NOW() WHERE id = $4", backupTable)
	return r.exec(ctx, query, string(entities.BackupFailed), duration, message, id)
}

func (r *backupRepository) MarkVerified(ctx context.Context, id uint64) error {
	query := fmt.Sprintf(`UPDATE %s SET status = $1, is_verified = TRUE, verified_at = NOW(), error_message = NULL,
		updated_at = NOW() WHERE id = $2`, backupTable)
	return r.exec(ctx, query, string(entities.BackupVerified), id)
}

func (r *backupRepository) MarkCorrupted(ctx context.Context, id uint64, message string) error {
	query := fmt.Sprintf("UPDATE %s SET status = $1, is_verified = FALSE, error_message = $2, updated_at = NOW() WHERE id = $3", backupTable)
	return r.exec(ctx, query, string(entities.BackupCorrupted), message, id)
}

func (r *backupRepository) applyFilter(b sq.SelectBuilder, f dto.BackupFilter) sq.SelectBuilder {
	if !f.IncludeDeleted {
		b = b.Where(sq.Eq{"is_deleted": false})
	}
	if f.Status != "" {
		b = b.Where(sq.Eq{"status": f.Status})
	}
	if f.BackupType != "" {
		b = b.Where(sq.Eq{"backup_type": f.BackupType})
	}
	return b
}

func (r *backupRepository) List(ctx context.Context, f dto.BackupFilter) ([]entities.BackupHistory, uint64, error) {
	countSQL, countArgs, err := r.applyFilter(r.psql.Select("COUNT(*)").From(backupTable), f).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, mapPgError(err)
	}

	query, args, err := r.applyFilter(r.psql.Select(backupFields).From(backupTable), f).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(f.Limit)).
		Offset(uint64(f.Offset)).
		ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, mapPgError(err)
	}
	backups, err := collectBackups(rows)
	return backups, total, err
}

func (r *backupRepository) SoftDelete(ctx context.Context, id uint64) error {
	query := fmt.Sprintf("UPDATE %s SET is_deleted = TRUE, deleted_at = NOW(), updated_at = NOW() WHERE id = $1", backupTable)
	return r.exec(ctx, query, id)
}

func (r *backupRepository) HardDelete(ctx context.Context, id uint64) error {
	return r.exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", backupTable), id)
}

func (r *backupRepository) FindExpired(ctx context.Context, now time.Time) ([]entities.BackupHistory, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE expires_at < $1 AND NOT is_deleted ORDER BY expires_at", backupFields, backupTable)
	rows, err := r.storage.Query(ctx, query, now)
	if err != nil {
		return nil, mapPgError(err)
	}
	return collectBackups(rows)
}

func (r *backupRepository) Aggregates(ctx context.Context) (*dto.BackupAggregates, error) {
	query := fmt.Sprintf(`SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status IN ('COMPLETED', 'VERIFIED')),
			COUNT(*) FILTER (WHERE status = 'FAILED'),
			COALESCE(SUM(file_size) FILTER (WHERE status IN ('COMPLETED', 'VERIFIED')), 0)::BIGINT,
			COALESCE(AVG(compression_ratio) FILTER (WHERE compression_ratio IS NOT NULL), 0)::FLOAT8
		FROM %s WHERE NOT is_deleted`, backupTable)
	var a dto.BackupAggregates
	if err := r.storage.QueryRow(ctx, query).Scan(&a.Total, &a.Successful, &a.Failed, &a.TotalSize, &a.AverageCompression); err != nil {
		return nil, mapPgError(err)
	}
	return &a, nil
}

// Latest returns the newest successful backup, ErrNotFound when there is none.
func (r *backupRepository) Latest(ctx context.Context) (*entities.BackupHistory, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE NOT is_deleted AND status IN ('COMPLETED', 'VERIFIED')
		ORDER BY created_at DESC LIMIT 1`, backupFields, backupTable)
	return scanBackup(r.storage.QueryRow(ctx, query))
}

func (r *backupRepository) DatabaseStats(ctx context.Context) (*dto.DatabaseStats, error) {
	var s dto.DatabaseStats
	err := r.storage.QueryRow(ctx, `SELECT
			pg_database_size(current_database()),
			(SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = 'public' AND table_type = 'BASE TABLE'),
			(SELECT COALESCE(SUM(n_live_tup), 0)::BIGINT FROM pg_stat_user_tables)`).
		Scan(&s.Size, &s.TableCount, &s.RowCount)
	if err != nil {
		return nil, mapPgError(err)
	}
	return &s, nil
}
