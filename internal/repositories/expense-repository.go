package repositories

import (
	"context"
	"fmt"
	"strings"

	"nusantara-erp/internal/dto"
	"nusantara-erp/internal/entities"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	expenseTable  = "project_additional_expenses"
	expenseFields = "id, project_id, expense_type, description, amount::FLOAT8, expense_date, recipient_name, receipt_url, payment_method, notes, milestone_id, rab_item_id, approval_status, approved_by, approved_at, rejected_by, rejected_at, rejection_reason, created_by, created_at, updated_at, deleted_at"
)

type ExpenseRepositoryInterface interface {
	Create(ctx context.Context, e *entities.AdditionalExpense) error
	FindByID(ctx context.Context, projectID string, id uint64) (*entities.AdditionalExpense, error)
	List(ctx context.Context, projectID string, filter dto.ExpenseFilter) ([]entities.AdditionalExpense, error)
	Update(ctx context.Context, projectID string, id uint64, payload dto.UpdateExpenseDTO) (*entities.AdditionalExpense, error)
	SoftDelete(ctx context.Context, projectID string, id uint64) error
	Approve(ctx context.Context, projectID string, id, approverID uint64) (*entities.AdditionalExpense, error)
	Reject(ctx context.Context, projectID string, id, rejecterID uint64, reason string) (*entities.AdditionalExpense, error)
}

type expenseRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
	psql    sq.StatementBuilderType
}

func NewExpenseRepository(storage *pgxpool.Pool, logger *zap.Logger) ExpenseRepositoryInterface {
	return &expenseRepository{
		storage: storage,
		logger:  logger,
		psql:    sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func scanExpense(row pgx.Row) (*entities.AdditionalExpense, error) {
	var e entities.AdditionalExpense
	err := row.Scan(
		&e.ID, &e.ProjectID, &e.ExpenseType, &e.Description, &e.Amount, &e.ExpenseDate, &e.RecipientName,
		&e.ReceiptURL, &e.PaymentMethod, &e.Notes, &e.MilestoneID, &e.RABItemID, &e.ApprovalStatus,
		&e.ApprovedBy, &e.ApprovedAt, &e.RejectedBy, &e.RejectedAt, &e.RejectionReason, &e.CreatedBy,
		&e.CreatedAt, &e.UpdatedAt, &e.DeletedAt,
	)
	if err != nil {
		return nil, mapPgError(err)
	}
	return &e, nil
}

func (r *expenseRepository) Create(ctx context.Context, e *entities.AdditionalExpense) error {
	query := fmt.Sprintf(`INSERT INTO %s (project_id, expense_type, description, amount, expense_date, recipient_name,
			receipt_url, payment_method, notes, milestone_id, rab_item_id, approval_status, approved_by, approved_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING %s`, expenseTable, expenseFields)
	created, err := scanExpense(r.storage.QueryRow(ctx, query,
		e.ProjectID, e.ExpenseType, e.Description, e.Amount, e.ExpenseDate, e.RecipientName, e.ReceiptURL,
		e.PaymentMethod, e.Notes, e.MilestoneID, e.RABItemID, e.ApprovalStatus, e.ApprovedBy, e.ApprovedAt, e.CreatedBy,
	))
	if err != nil {
		return err
	}
	*e = *created
	return nil
}

func (r *expenseRepository) FindByID(ctx context.Context, projectID string, id uint64) (*entities.AdditionalExpense, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1 AND project_id = $2 AND deleted_at IS NULL", expenseFields, expenseTable)
	return scanExpense(r.storage.QueryRow(ctx, query, id, projectID))
}

func (r *expenseRepository) List(ctx context.Context, projectID string, f dto.ExpenseFilter) ([]entities.AdditionalExpense, error) {
	b := r.psql.Select(expenseFields).From(expenseTable).
		Where(sq.Eq{"project_id": projectID}).
		Where("deleted_at IS NULL")
	if f.Status != "" {
		b = b.Where(sq.Eq{"approval_status": f.Status})
	}
	if f.Type != "" {
		b = b.Where(sq.Eq{"expense_type": f.Type})
	}
	if f.StartDate != nil {
		b = b.Where(sq.GtOrEq{"expense_date": *f.StartDate})
	}
	if f.EndDate != nil {
		b = b.Where(sq.LtOrEq{"expense_date": *f.EndDate})
	}
	query, args, err := b.OrderBy("expense_date DESC", "id DESC").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	expenses := make([]entities.AdditionalExpense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, *e)
	}
	return expenses, rows.Err()
}

func (r *expenseRepository) Update(ctx context.Context, projectID string, id uint64, p dto.UpdateExpenseDTO) (*entities.AdditionalExpense, error) {
	var setClauses []string
	var args []interface{}
	argID := 1

	add := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argID))
		args = append(args, value)
		argID++
	}

	if p.ExpenseType != nil {
		add("expense_type", *p.ExpenseType)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.Amount != nil {
		add("amount", *p.Amount)
	}
	if t := p.ExpenseDate.Ptr(); t != nil {
		add("expense_date", *t)
	}
	if p.RecipientName != nil {
		add("recipient_name", *p.RecipientName)
	}
	if p.ReceiptURL != nil {
		add("receipt_url", *p.ReceiptURL)
	}
	if p.PaymentMethod != nil {
		add("payment_method", *p.PaymentMethod)
	}
	if p.Notes != nil {
		add("notes", *p.Notes)
	}
	if p.MilestoneID != nil {
		add("milestone_id", *p.MilestoneID)
	}
	if p.RABItemID != nil {
		add("rab_item_id", *p.RABItemID)
	}
	if len(setClauses) == 0 {
		return r.FindByID(ctx, projectID, id)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d AND project_id = $%d AND deleted_at IS NULL RETURNING %s",
		expenseTable, strings.Join(setClauses, ", "), argID, argID+1, expenseFields)
	args = append(args, id, projectID)
	return scanExpense(r.storage.QueryRow(ctx, query, args...))
}

func (r *expenseRepository) SoftDelete(ctx context.Context, projectID string, id uint64) error {
	query := fmt.Sprintf("UPDATE %s SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND project_id = $2 AND deleted_at IS NULL", expenseTable)
	tag, err := r.storage.Exec(ctx, query, id, projectID)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return mapPgError(pgx.ErrNoRows)
	}
	return nil
}

func (r *expenseRepository) Approve(ctx context.Context, projectID string, id, approverID uint64) (*entities.AdditionalExpense, error) {
	query := fmt.Sprintf(`UPDATE %s SET approval_status = $1, approved_by = $2, approved_at = NOW(), updated_at = NOW()
		WHERE id = $3 AND project_id = $4 AND deleted_at IS NULL RETURNING %s`, expenseTable, expenseFields)
	return scanExpense(r.storage.QueryRow(ctx, query, entities.ExpenseApproved, approverID, id, projectID))
}

func (r *expenseRepository) Reject(ctx context.Context, projectID string, id, rejecterID uint64, reason string) (*entities.AdditionalExpense, error) {
	query := fmt.Sprintf(`UPDATE %s SET approval_status = $1, rejected_by = $2, rejected_at = NOW(), rejection_reason = $3,
		updated_at = NOW() WHERE id = $4 AND project_id = $5 AND deleted_at IS NULL RETURNING %s`, expenseTable, expenseFields)
	return scanExpense(r.storage.QueryRow(ctx, query, entities.ExpenseRejected, rejecterID, reason, id, projectID))
}
