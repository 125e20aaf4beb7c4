package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"nusantara-erp/internal/dto"
	"nusantara-erp/internal/entities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	userTable  = "users"
	userFields = "id, username, email, password_hash, full_name, phone, role, is_active, employee_id, failed_attempts, locked_until, last_login_at, created_at, updated_at"
)

type UserRepositoryInterface interface {
	FindByID(ctx context.Context, id uint64) (*entities.User, error)
	FindByLogin(ctx context.Context, login string) (*entities.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, tx pgx.Tx, username, email string) (bool, error)
	Create(ctx context.Context, tx pgx.Tx, user *entities.User) (*entities.User, error)
	UpdateProfile(ctx context.Context, id uint64, payload dto.UpdateProfileDTO) (*entities.User, error)
	UpdatePassword(ctx context.Context, id uint64, hash string) error
	RecordLoginSuccess(ctx context.Context, id uint64) error
	RecordFailedAttempt(ctx context.Context, id uint64, lockedUntil *time.Time) error
	SetEmployeeLink(ctx context.Context, tx pgx.Tx, userID uint64, employeeID *string) error
	UnlinkEmployee(ctx context.Context, tx pgx.Tx, employeeID string) error
	FindAvailable(ctx context.Context) ([]dto.AvailableUserDTO, error)
}

type userRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewUserRepository(storage *pgxpool.Pool, logger *zap.Logger) UserRepositoryInterface {
	return &userRepository{storage: storage, logger: logger}
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var u entities.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FullName, &u.Phone, &u.Role, &u.IsActive,
		&u.EmployeeID, &u.FailedAttempts, &u.LockedUntil, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, mapPgError(err)
	}
	return &u, nil
}

func (r *userRepository) FindByID(ctx context.Context, id uint64) (*entities.User, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", userFields, userTable)
	return scanUser(r.storage.QueryRow(ctx, query, id))
}

// FindByLogin matches either the username or the e-mail, case-insensitively for the latter.
func (r *userRepository) FindByLogin(ctx context.Context, login string) (*entities.User, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE username = $1 OR LOWER(email) = LOWER($1) LIMIT 1", userFields, userTable)
	return scanUser(r.storage.QueryRow(ctx, query, login))
}

func (r *userRepository) ExistsByUsernameOrEmail(ctx context.Context, tx pgx.Tx, username, email string) (bool, error) {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE username = $1 OR ($2 <> '' AND LOWER(email) = LOWER($2)))", userTable)
	if err := getQuerier(r.storage, tx).QueryRow(ctx, query, username, email).Scan(&exists); err != nil {
		return false, mapPgError(err)
	}
	return exists, nil
}

func (r *userRepository) Create(ctx context.Context, tx pgx.Tx, user *entities.User) (*entities.User, error) {
	query := fmt.Sprintf(`INSERT INTO %s (username, email, password_hash, full_name, phone, role, is_active, employee_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING %s`, userTable, userFields)
	return scanUser(getQuerier(r.storage, tx).QueryRow(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.FullName, user.Phone, user.Role, user.IsActive, user.EmployeeID,
	))
}

func (r *userRepository) UpdateProfile(ctx context.Context, id uint64, payload dto.UpdateProfileDTO) (*entities.User, error) {
	var setClauses []string
	var args []interface{}
	argID := 1

	if payload.FullName != nil {
		setClauses = append(setClauses, fmt.Sprintf("full_name = $%d", argID))
		args = append(args, *payload.FullName)
		argID++
	}
	if payload.Email != nil {
		setClauses = append(setClauses, fmt.Sprintf("email = $%d", argID))
		args = append(args, *payload.Email)
		argID++
	}
	if payload.Phone != nil {
		setClauses = append(setClauses, fmt.Sprintf("phone = $%d", argID))
		args = append(args, *payload.Phone)
		argID++
	}
	if len(setClauses) == 0 {
		return r.FindByID(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d RETURNING %s", userTable, strings.Join(setClauses, ", "), argID, userFields)
	args = append(args, id)
	return scanUser(r.storage.QueryRow(ctx, query, args...))
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	query := fmt.Sprintf("UPDATE %s SET password_hash = $1, updated_at = NOW() WHERE id = $2", userTable)
	tag, err := r.storage.Exec(ctx, query, hash, id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return mapPgError(pgx.ErrNoRows)
	}
	return nil
}

func (r *userRepository) RecordLoginSuccess(ctx context.Context, id uint64) error {
	query := fmt.Sprintf("UPDATE %s SET last_login_at = NOW(), failed_attempts = 0, locked_until = NULL WHERE id = $1", userTable)
	_, err := r.storage.Exec(ctx, query, id)
	return mapPgError(err)
}

// RecordFailedAttempt bumps the counter and, when lockedUntil is set, persists the lockout.
func (r *userRepository) RecordFailedAttempt(ctx context.Context, id uint64, lockedUntil *time.Time) error {
	query := fmt.Sprintf("UPDATE %s SET failed_attempts = failed_attempts + 1, locked_until = COALESCE($1, locked_until) WHERE id = $2", userTable)
	_, err := r.storage.Exec(ctx, query, lockedUntil, id)
	return mapPgError(err)
}

func (r *userRepository) SetEmployeeLink(ctx context.Context, tx pgx.Tx, userID uint64, employeeID *string) error {
	query := fmt.Sprintf("UPDATE %s SET employee_id = $1, updated_at = NOW() WHERE id = $2", userTable)
	tag, err := getQuerier(r.storage, tx).Exec(ctx, query, employeeID, userID)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return mapPgError(pgx.ErrNoRows)
	}
	return nil
}

func (r *userRepository) UnlinkEmployee(ctx context.Context, tx pgx.Tx, employeeID string) error {
	query := fmt.Sprintf("UPDATE %s SET employee_id = NULL, updated_at = NOW() WHERE employee_id = $1", userTable)
	_, err := getQuerier(r.storage, tx).Exec(ctx, query, employeeID)
	return mapPgError(err)
}

func (r *userRepository) FindAvailable(ctx context.Context) ([]dto.AvailableUserDTO, error) {
	query := fmt.Sprintf(`SELECT id, username, email, COALESCE(full_name, ''), role FROM %s
		WHERE employee_id IS NULL AND is_active ORDER BY username`, userTable)
	rows, err := r.storage.Query(ctx, query)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	users := make([]dto.AvailableUserDTO, 0)
	for rows.Next() {
		var u dto.AvailableUserDTO
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.Role); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
