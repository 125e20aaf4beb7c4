package repositories

import (
	"context"
	"fmt"

	"nusantara-erp/internal/entities"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	loginHistoryTable  = "login_history"
	loginHistoryFields = "id, user_id, username, ip_address, user_agent, device, success, failure_reason, created_at"
)

type LoginHistoryRepositoryInterface interface {
	Create(ctx context.Context, entry *entities.LoginHistory) error
	ListByUser(ctx context.Context, userID uint64, limit, offset int) ([]entities.LoginHistory, uint64, error)
}

type loginHistoryRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewLoginHistoryRepository(storage *pgxpool.Pool, logger *zap.Logger) LoginHistoryRepositoryInterface {
	return &loginHistoryRepository{storage: storage, logger: logger}
}

func (r *loginHistoryRepository) Create(ctx context.Context, e *entities.LoginHistory) error {
	query := fmt.Sprintf(`INSERT INTO %s (user_id, username, ip_address, user_agent, device, success, failure_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at`, loginHistoryTable)
	err := r.storage.QueryRow(ctx, query, e.UserID, e.Username, e.IPAddress, e.UserAgent, e.Device, e.Success, e.FailureReason).
		Scan(&e.ID, &e.CreatedAt)
	return mapPgError(err)
}

func (r *loginHistoryRepository) ListByUser(ctx context.Context, userID uint64, limit, offset int) ([]entities.LoginHistory, uint64, error) {
	var total uint64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE user_id = $1", loginHistoryTable)
	if err := r.storage.QueryRow(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, mapPgError(err)
	}
	if total == 0 {
		return []entities.LoginHistory{}, 0, nil
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3", loginHistoryFields, loginHistoryTable)
	rows, err := r.storage.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, mapPgError(err)
	}
	defer rows.Close()

	history := make([]entities.LoginHistory, 0, limit)
	for rows.Next() {
		var h entities.LoginHistory
		if err := rows.Scan(&h.ID, &h.UserID, &h.Username, &h.IPAddress, &h.UserAgent, &h.Device, &h.Success, &h.FailureReason, &h.CreatedAt); err != nil {
			return nil, 0, err
		}
		history = append(history, h)
	}
	return history, total, rows.Err()
}
