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
	auditLogTable  = "audit_logs"
	auditLogFields = "id, user_id, username, action, entity_type, entity_id, entity_name, before, after, changes, ip_address, user_agent, method, endpoint, status_code, error_message, duration, metadata, created_at"
)

var auditLogSortMap = map[string]string{
	"createdAt":  "created_at",
	"action":     "action",
	"entityType": "entity_type",
	"username":   "username",
	"statusCode": "status_code",
	"duration":   "duration",
}

type AuditLogRepositoryInterface interface {
	Insert(ctx context.Context, log *entities.AuditLog) error
	List(ctx context.Context, filter dto.AuditLogFilter) ([]entities.AuditLog, uint64, error)
	FindByID(ctx context.Context, id uint64) (*entities.AuditLog, error)
	EntityHistory(ctx context.Context, entityType, entityID string, limit int) ([]entities.AuditLog, error)
	CountSince(ctx context.Context, userID *uint64, since time.Time) (int64, error)
	CountByAction(ctx context.Context, userID *uint64, since time.Time) ([]dto.ActionCountDTO, error)
	CountByEntityType(ctx context.Context, since time.Time, limit int) ([]dto.EntityTypeCountDTO, error)
	MostActiveUsers(ctx context.Context, since time.Time, limit int) ([]dto.ActiveUserDTO, error)
	DistinctEntityTypes(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type auditLogRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
	psql    sq.StatementBuilderType
}

func NewAuditLogRepository(storage *pgxpool.Pool, logger *zap.Logger) AuditLogRepositoryInterface {
	return &auditLogRepository{
		storage: storage,
		logger:  logger,
		psql:    sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func scanAuditLog(row pgx.Row) (*entities.AuditLog, error) {
	var l entities.AuditLog
	err := row.Scan(
		&l.ID, &l.UserID, &l.Username, &l.Action, &l.EntityType, &l.EntityID, &l.EntityName,
		&l.Before, &l.After, &l.Changes, &l.IPAddress, &l.UserAgent, &l.Method, &l.Endpoint,
		&l.StatusCode, &l.ErrorMessage, &l.Duration, &l.Metadata, &l.CreatedAt,
	)
	if err != nil {
		return nil, mapPgError(err)
	}
	return &l, nil
}

func collectAuditLogs(rows pgx.Rows) ([]entities.AuditLog, error) {
	defer rows.Close()
	logs := make([]entities.AuditLog, 0)
	for rows.Next() {
		l, err := scanAuditLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *l)
	}
	return logs, rows.Err()
}

func (r *auditLogRepository) Insert(ctx context.Context, l *entities.AuditLog) error {
	query := fmt.Sprintf(`INSERT INTO %s (user_id, username, action, entity_type, entity_id, entity_name, before, after, changes,
		ip_address, user_agent, method, endpoint, status_code, error_message, duration, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id, created_at`, auditLogTable)

	var changes interface{}
	if len(l.Changes) > 0 {
		changes = l.Changes
	}
	err := r.storage.QueryRow(ctx, query,
		l.UserID, l.Username, string(l.Action), l.EntityType, l.EntityID, l.EntityName, l.Before, l.After, changes,
		l.IPAddress, l.UserAgent, l.Method, l.Endpoint, l.StatusCode, l.ErrorMessage, l.Duration, l.Metadata,
	).Scan(&l.ID, &l.CreatedAt)
	return mapPgError(err)
}

func (r *auditLogRepository) applyFilter(b sq.SelectBuilder, f dto.AuditLogFilter) sq.SelectBuilder {
	if f.UserID != nil {
		b = b.Where(sq.Eq{"user_id": *f.UserID})
	}
	if f.Action != "" {
		b = b.Where(sq.Eq{"action": f.Action})
	}
	if f.EntityType != "" {
		b = b.Where(sq.Eq{"entity_type": f.EntityType})
	}
	if f.EntityID != "" {
		b = b.Where(sq.Eq{"entity_id": f.EntityID})
	}
	if f.StartDate != nil {
		b = b.Where(sq.GtOrEq{"created_at": *f.StartDate})
	}
	if f.EndDate != nil {
		b = b.Where(sq.LtOrEq{"created_at": *f.EndDate})
	}
	return b
}

func (r *auditLogRepository) List(ctx context.Context, f dto.AuditLogFilter) ([]entities.AuditLog, uint64, error) {
	countSQL, countArgs, err := r.applyFilter(r.psql.Select("COUNT(*)").From(auditLogTable), f).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, mapPgError(err)
	}
	if total == 0 {
		return []entities.AuditLog{}, 0, nil
	}

	sortCol, ok := auditLogSortMap[f.SortBy]
	if !ok {
		sortCol = "created_at"
	}
	order := "DESC"
	if f.Order == "asc" || f.Order == "ASC" {
		order = "ASC"
	}

	b := r.applyFilter(r.psql.Select(auditLogFields).From(auditLogTable), f).
		OrderBy(fmt.Sprintf("%s %s", sortCol, order), "id DESC").
		Limit(uint64(f.Limit)).
		Offset(uint64(f.Offset))
	query, args, err := b.ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, mapPgError(err)
	}
	logs, err := collectAuditLogs(rows)
	return logs, total, err
}

func (r *auditLogRepository) FindByID(ctx context.Context, id uint64) (*entities.AuditLog, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", auditLogFields, auditLogTable)
	return scanAuditLog(r.storage.QueryRow(ctx, query, id))
}

func (r *auditLogRepository) EntityHistory(ctx context.Context, entityType, entityID string, limit int) ([]entities.AuditLog, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC, id DESC LIMIT $3`, auditLogFields, auditLogTable)
	rows, err := r.storage.Query(ctx, query, entityType, entityID, limit)
	if err != nil {
		return nil, mapPgError(err)
	}
	return collectAuditLogs(rows)
}

func (r *auditLogRepository) CountSince(ctx context.Context, userID *uint64, since time.Time) (int64, error) {
	b := r.psql.Select("COUNT(*)").From(auditLogTable).Where(sq.GtOrEq{"created_at": since})
	if userID != nil {
		b = b.Where(sq.Eq{"user_id": *userID})
	}
	query, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}
	var n int64
	if err := r.storage.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, mapPgError(err)
	}
	return n, nil
}

func (r *auditLogRepository) CountByAction(ctx context.Context, userID *uint64, since time.Time) ([]dto.ActionCountDTO, error) {
	b := r.psql.Select("action", "COUNT(*) AS count").From(auditLogTable).
		Where(sq.GtOrEq{"created_at": since}).
		GroupBy("action").
		OrderBy("count DESC")
	if userID != nil {
		b = b.Where(sq.Eq{"user_id": *userID})
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	out := make([]dto.ActionCountDTO, 0)
	for rows.Next() {
		var c dto.ActionCountDTO
		if err := rows.Scan(&c.Action, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *auditLogRepository) CountByEntityType(ctx context.Context, since time.Time, limit int) ([]dto.EntityTypeCountDTO, error) {
	query := fmt.Sprintf(`SELECT entity_type, COUNT(*) AS count FROM %s
		WHERE created_at >= $1 GROUP BY entity_type ORDER BY count DESC LIMIT $2`, auditLogTable)
	rows, err := r.storage.Query(ctx, query, since, limit)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	out := make([]dto.EntityTypeCountDTO, 0)
	for rows.Next() {
		var c dto.EntityTypeCountDTO
		if err := rows.Scan(&c.EntityType, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *auditLogRepository) MostActiveUsers(ctx context.Context, since time.Time, limit int) ([]dto.ActiveUserDTO, error) {
	query := fmt.Sprintf(`SELECT user_id, COALESCE(MAX(username), ''), COUNT(*) AS count FROM %s
		WHERE created_at >= $1 AND user_id IS NOT NULL
		GROUP BY user_id ORDER BY count DESC LIMIT $2`, auditLogTable)
	rows, err := r.storage.Query(ctx, query, since, limit)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	out := make([]dto.ActiveUserDTO, 0)
	for rows.Next() {
		var u dto.ActiveUserDTO
		if err := rows.Scan(&u.UserID, &u.Username, &u.Count); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *auditLogRepository) DistinctEntityTypes(ctx context.Context) ([]string, error) {
	rows, err := r.storage.Query(ctx, fmt.Sprintf("SELECT DISTINCT entity_type FROM %s ORDER BY entity_type", auditLogTable))
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	types := make([]string, 0)
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

func (r *auditLogRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.storage.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", auditLogTable)).Scan(&n); err != nil {
		return 0, mapPgError(err)
	}
	return n, nil
}

// DeleteOlderThan removes rows strictly older than cutoff.
func (r *auditLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.storage.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE created_at < $1", auditLogTable), cutoff)
	if err != nil {
		return 0, mapPgError(err)
	}
	return tag.RowsAffected(), nil
}

func (r *auditLogRepository) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.storage.Exec(ctx, fmt.Sprintf("DELETE FROM %s", auditLogTable))
	if err != nil {
		return 0, mapPgError(err)
	}
	return tag.RowsAffected(), nil
}
