package repositories

import (
	"context"
	"fmt"

	"nusantara-erp/internal/dto"
	"nusantara-erp/pkg/budget"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	projectTable     = "projects"
	rabTable         = "project_rab"
	rabTrackingTable = "rab_purchase_tracking"
)

type BudgetRepositoryInterface interface {
	ProjectExists(ctx context.Context, projectID string) (bool, error)
	ApprovedRAB(ctx context.Context, projectID string) ([]budget.RABItem, error)
	ActualPurchases(ctx context.Context, projectID string) ([]budget.Purchase, error)
	MonthlySpending(ctx context.Context, projectID string) ([]budget.Period, error)
	RABItemBelongsTo(ctx context.Context, projectID string, rabItemID int64) (bool, error)
	InsertActualCost(ctx context.Context, projectID string, createdBy uint64, payload dto.ActualCostDTO) (*dto.RecordedCostDTO, error)
}

type budgetRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewBudgetRepository(storage *pgxpool.Pool, logger *zap.Logger) BudgetRepositoryInterface {
	return &budgetRepository{storage: storage, logger: logger}
}

func (r *budgetRepository) ProjectExists(ctx context.Context, projectID string) (bool, error) {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1)", projectTable)
	if err := r.storage.QueryRow(ctx, query, projectID).Scan(&exists); err != nil {
		return false, mapPgError(err)
	}
	return exists, nil
}

func (r *budgetRepository) ApprovedRAB(ctx context.Context, projectID string) ([]budget.RABItem, error) {
	query := fmt.Sprintf(`SELECT id, project_id, COALESCE(category, ''), description, COALESCE(unit, ''),
			quantity::FLOAT8, unit_price::FLOAT8, total_price::FLOAT8, status, is_approved, created_at, updated_at
		FROM %s
		WHERE project_id = $1 AND status = 'approved'
		ORDER BY category, description`, rabTable)
	rows, err := r.storage.Query(ctx, query, projectID)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	items := make([]budget.RABItem, 0)
	for rows.Next() {
		var it budget.RABItem
		if err := rows.Scan(&it.ID, &it.ProjectID, &it.Category, &it.Description, &it.Unit,
			&it.Quantity, &it.UnitPrice, &it.TotalPrice, &it.Status, &it.IsApproved, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *budgetRepository) ActualPurchases(ctx context.Context, projectID string) ([]budget.Purchase, error) {
	query := fmt.Sprintf(`SELECT rpt.id, rpt.rab_item_id, rpt.project_id, COALESCE(rpt.po_number, ''),
			rpt.quantity::FLOAT8, rpt.unit_price::FLOAT8, rpt.total_amount::FLOAT8, rpt.purchase_date, rpt.status,
			COALESCE(rpt.notes, ''), COALESCE(pr.category, ''), COALESCE(pr.description, '')
		FROM %s rpt
		LEFT JOIN %s pr ON pr.id = rpt.rab_item_id
		WHERE rpt.project_id = $1 AND rpt.status <> 'cancelled'
		ORDER BY rpt.purchase_date DESC`, rabTrackingTable, rabTable)
	rows, err := r.storage.Query(ctx, query, projectID)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	purchases := make([]budget.Purchase, 0)
	for rows.Next() {
		var p budget.Purchase
		if err := rows.Scan(&p.ID, &p.RABItemID, &p.ProjectID, &p.PONumber, &p.Quantity, &p.UnitPrice, &p.TotalAmount,
			&p.PurchaseDate, &p.Status, &p.Notes, &p.Category, &p.RABDescription); err != nil {
			return nil, err
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

func (r *budgetRepository) MonthlySpending(ctx context.Context, projectID string) ([]budget.Period, error) {
	query := fmt.Sprintf(`SELECT
			DATE_TRUNC('month', purchase_date) AS period,
			SUM(total_amount)::FLOAT8 AS monthly_spending,
			(SUM(SUM(total_amount)) OVER (ORDER BY DATE_TRUNC('month', purchase_date)))::FLOAT8 AS cumulative_spending
		FROM %s
		WHERE project_id = $1 AND status <> 'cancelled'
		GROUP BY DATE_TRUNC('month', purchase_date)
		ORDER BY period ASC`, rabTrackingTable)
	rows, err := r.storage.Query(ctx, query, projectID)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	periods := make([]budget.Period, 0)
	for rows.Next() {
		var p budget.Period
		if err := rows.Scan(&p.Period, &p.MonthlySpending, &p.CumulativeSpending); err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

func (r *budgetRepository) RABItemBelongsTo(ctx context.Context, projectID string, rabItemID int64) (bool, error) {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1 AND project_id = $2)", rabTable)
	if err := r.storage.QueryRow(ctx, query, rabItemID, projectID).Scan(&exists); err != nil {
		return false, mapPgError(err)
	}
	return exists, nil
}

func (r *budgetRepository) InsertActualCost(ctx context.Context, projectID string, createdBy uint64, p dto.ActualCostDTO) (*dto.RecordedCostDTO, error) {
	query := fmt.Sprintf(`INSERT INTO %s (project_id, rab_item_id, po_number, quantity, unit_price, total_amount,
			purchase_date, status, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()), 'completed', $8, $9)
		RETURNING id, project_id, rab_item_id, quantity::FLOAT8, unit_price::FLOAT8, total_amount::FLOAT8,
			po_number, purchase_date, status, notes, created_at`, rabTrackingTable)

	var rec dto.RecordedCostDTO
	err := r.storage.QueryRow(ctx, query,
		projectID, p.RABItemID, p.PONumber, p.Quantity, p.UnitPrice, p.TotalAmount, p.PurchaseDate.Ptr(), p.Notes, createdBy,
	).Scan(&rec.ID, &rec.ProjectID, &rec.RABItemID, &rec.Quantity, &rec.UnitPrice, &rec.TotalAmount,
		&rec.PONumber, &rec.PurchaseDate, &rec.Status, &rec.Notes, &rec.CreatedAt)
	if err != nil {
		return nil, mapPgError(err)
	}
	return &rec, nil
}
