package repositories

import (
	"context"
	"fmt"
	"time"

	"nusantara-erp/internal/entities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	sessionTable  = "active_sessions"
	sessionFields = "id, user_id, ip_address, user_agent, device, is_active, last_active, expires_at, revoked_at, created_at"
)

type SessionRepositoryInterface interface {
	Create(ctx context.Context, session *entities.ActiveSession) error
	FindByID(ctx context.Context, id string) (*entities.ActiveSession, error)
	ListActiveByUser(ctx context.Context, userID uint64) ([]entities.ActiveSession, error)
	Revoke(ctx context.Context, userID uint64, id string) error
	RevokeAllForUser(ctx context.Context, userID uint64, exceptID string) ([]entities.ActiveSession, error)
	Touch(ctx context.Context, id string) error
	CountActiveSince(ctx context.Context, since time.Time) (int64, error)
}

type sessionRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewSessionRepository(storage *pgxpool.Pool, logger *zap.Logger) SessionRepositoryInterface {
	return &sessionRepository{storage: storage, logger: logger}
}

func scanSession(row pgx.Row) (*entities.ActiveSession, error) {
	var s entities.ActiveSession
	err := row.Scan(&s.ID, &s.UserID, &s.IPAddress, &s.UserAgent, &s.Device, &s.IsActive, &s.LastActive, &s.ExpiresAt, &s.RevokedAt, &s.CreatedAt)
	if err != nil {
		return nil, mapPgError(err)
	}
	return &s, nil
}

func (r *sessionRepository) Create(ctx context.Context, s *entities.ActiveSession) error {
	query := fmt.Sprintf(`INSERT INTO %s (id, user_id, ip_address, user_agent, device, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING last_active, created_at, is_active`, sessionTable)
	err := r.storage.QueryRow(ctx, query, s.ID, s.UserID, s.IPAddress, s.UserAgent, s.Device, s.ExpiresAt).
		Scan(&s.LastActive, &s.CreatedAt, &s.IsActive)
	return mapPgError(err)
}

func (r *sessionRepository) FindByID(ctx context.Context, id string) (*entities.ActiveSession, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", sessionFields, sessionTable)
	return scanSession(r.storage.QueryRow(ctx, query, id))
}

func (r *sessionRepository) ListActiveByUser(ctx context.Context, userID uint64) ([]entities.ActiveSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s
		WHERE user_id = $1 AND is_active AND expires_at > NOW()
		ORDER BY last_active DESC`, sessionFields, sessionTable)
	rows, err := r.storage.Query(ctx, query, userID)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	sessions := make([]entities.ActiveSession, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// Revoke deactivates one session of the user; ErrNotFound when it is not theirs or already gone.
func (r *sessionRepository) Revoke(ctx context.Context, userID uint64, id string) error {
	query := fmt.Sprintf("UPDATE %s SET is_active = FALSE, revoked_at = NOW() WHERE id = $1 AND user_id = $2 AND is_active", sessionTable)
	tag, err := r.storage.Exec(ctx, query, id, userID)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return mapPgError(pgx.ErrNoRows)
	}
	return nil
}

// RevokeAllForUser returns the sessions it revoked so their tokens can be blacklisted.
func (r *sessionRepository) RevokeAllForUser(ctx context.Context, userID uint64, exceptID string) ([]entities.ActiveSession, error) {
	query := fmt.Sprintf(`UPDATE %s SET is_active = FALSE, revoked_at = NOW()
		WHERE user_id = $1 AND is_active AND ($2 = '' OR id::text <> $2)
		RETURNING %s`, sessionTable, sessionFields)
	rows, err := r.storage.Query(ctx, query, userID, exceptID)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var revoked []entities.ActiveSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		revoked = append(revoked, *s)
	}
	return revoked, rows.Err()
}

func (r *sessionRepository) Touch(ctx context.Context, id string) error {
	query := fmt.Sprintf("UPDATE %s SET last_active = NOW() WHERE id = $1 AND is_active", sessionTable)
	_, err := r.storage.Exec(ctx, query, id)
	return mapPgError(err)
}

func (r *sessionRepository) CountActiveSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	query := fmt.Sprintf("SELECT COUNT(DISTINCT user_id) FROM %s WHERE is_active AND last_active >= $1", sessionTable)
	if err := r.storage.QueryRow(ctx, query, since).Scan(&n); err != nil {
		return 0, mapPgError(err)
	}
	return n, nil
}
