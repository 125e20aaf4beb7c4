package services

import (
	"context"
	"testing"
	"time"

	"nusantara-erp/internal/dto"
	"nusantara-erp/internal/entities"
	"nusantara-erp/pkg/budget"
	apperrors "nusantara-erp/pkg/errors"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBudgetRepo struct {
	projects  map[string]bool
	rab       []budget.RABItem
	purchases []budget.Purchase
	series    []budget.Period
	inserted  []dto.ActualCostDTO
}

func (f *fakeBudgetRepo) ProjectExists(_ context.Context, id string) (bool, error) {
	return f.projects[id], nil
}

func (f *fakeBudgetRepo) ApprovedRAB(context.Context, string) ([]budget.RABItem, error) {
	return f.rab, nil
}

func (f *fakeBudgetRepo) ActualPurchases(context.Context, string) ([]budget.Purchase, error) {
	return f.purchases, nil
}

func (f *fakeBudgetRepo) MonthlySpending(context.Context, string) ([]budget.Period, error) {
	return f.series, nil
}

func (f *fakeBudgetRepo) RABItemBelongsTo(_ context.Context, _ string, rabItemID int64) (bool, error) {
	for _, item := range f.rab {
		if item.ID == rabItemID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBudgetRepo) InsertActualCost(_ context.Context, projectID string, _ uint64, p dto.ActualCostDTO) (*dto.RecordedCostDTO, error) {
	f.inserted = append(f.inserted, p)
	return &dto.RecordedCostDTO{ID: int64(len(f.inserted)), ProjectID: projectID, RABItemID: p.RABItemID, TotalAmount: p.TotalAmount, Status: "completed"}, nil
}

type fakeExpenseRepo struct {
	rows   map[uint64]*entities.AdditionalExpense
	nextID uint64
}

func (f *fakeExpenseRepo) Create(_ context.Context, e *entities.AdditionalExpense) error {
	f.nextID++
	e.ID = f.nextID
	cp := *e
	f.rows[e.ID] = &cp
	return nil
}

func (f *fakeExpenseRepo) FindByID(_ context.Context, projectID string, id uint64) (*entities.AdditionalExpense, error) {
	e, ok := f.rows[id]
	if !ok || e.ProjectID != projectID || e.DeletedAt.Valid {
		return nil, apperrors.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeExpenseRepo) List(_ context.Context, projectID string, _ dto.ExpenseFilter) ([]entities.AdditionalExpense, error) {
	var out []entities.AdditionalExpense
	for _, e := range f.rows {
		if e.ProjectID == projectID && !e.DeletedAt.Valid {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeExpenseRepo) Update(ctx context.Context, projectID string, id uint64, p dto.UpdateExpenseDTO) (*entities.AdditionalExpense, error) {
	if _, err := f.FindByID(ctx, projectID, id); err != nil {
		return nil, err
	}
	if p.Amount != nil {
		f.rows[id].Amount = *p.Amount
	}
	return f.FindByID(ctx, projectID, id)
}

func (f *fakeExpenseRepo) SoftDelete(_ context.Context, _ string, id uint64) error {
	f.rows[id].DeletedAt = null.TimeFrom(fixedNow)
	return nil
}

func (f *fakeExpenseRepo) Approve(ctx context.Context, projectID string, id, approverID uint64) (*entities.AdditionalExpense, error) {
	f.rows[id].ApprovalStatus = entities.ExpenseApproved
	f.rows[id].ApprovedBy = null.Int64From(int64(approverID))
	return f.FindByID(ctx, projectID, id)
}

func (f *fakeExpenseRepo) Reject(ctx context.Context, projectID string, id, rejecterID uint64, reason string) (*entities.AdditionalExpense, error) {
	f.rows[id].ApprovalStatus = entities.ExpenseRejected
	f.rows[id].RejectedBy = null.Int64From(int64(rejecterID))
	f.rows[id].RejectionReason = null.StringFrom(reason)
	return f.FindByID(ctx, projectID, id)
}

func newTestBudgetService() (*BudgetValidationService, *fakeBudgetRepo, *fakeExpenseRepo) {
	br := &fakeBudgetRepo{
		projects: map[string]bool{"PRJ-001": true},
		rab: []budget.RABItem{
			{ID: 1, Category: "Struktur", TotalPrice: 1_000_000},
			{ID: 2, Category: "Finishing", TotalPrice: 500_000},
		},
		purchases: []budget.Purchase{{ID: 1, RABItemID: 1, Category: "Struktur", TotalAmount: 950_000}},
	}
	er := &fakeExpenseRepo{rows: map[uint64]*entities.AdditionalExpense{}}
	svc := NewBudgetValidationService(br, er, zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	return svc, br, er
}

var (
	staffClaims = &dto.UserClaims{UserID: 7, Username: "pm", Role: dto.RoleProjectManager}
	adminClaims = &dto.UserClaims{UserID: 1, Username: "admin", Role: dto.RoleAdmin}
)

func TestCreateExpenseApprovalThreshold(t *testing.T) {
	svc, _, _ := newTestBudgetService()
	ctx := context.Background()

	small, err := svc.CreateExpense(ctx, "PRJ-001", staffClaims, dto.CreateExpenseDTO{ExpenseType: "transport", Description: "truck", Amount: 10_000_000})
	require.NoError(t, err)
	assert.Equal(t, entities.ExpenseApproved, small.ApprovalStatus)
	assert.Equal(t, int64(7), small.ApprovedBy.Int64)
	assert.Equal(t, fixedNow, small.ExpenseDate)

	large, err := svc.CreateExpense(ctx, "PRJ-001", staffClaims, dto.CreateExpenseDTO{ExpenseType: "equipment", Description: "crane", Amount: 10_000_001})
	require.NoError(t, err)
	assert.Equal(t, entities.ExpensePending, large.ApprovalStatus)
	assert.False(t, large.ApprovedBy.Valid)

	_, err = svc.CreateExpense(ctx, "PRJ-404", staffClaims, dto.CreateExpenseDTO{Amount: 1})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestApprovedExpenseIsLockedForNonAdmins(t *testing.T) {
	svc, _, er := newTestBudgetService()
	ctx := context.Background()
	e, err := svc.CreateExpense(ctx, "PRJ-001", staffClaims, dto.CreateExpenseDTO{ExpenseType: "other", Description: "fee", Amount: 100})
	require.NoError(t, err)

	amount := 200.0
	_, err = svc.UpdateExpense(ctx, "PRJ-001", e.ID, staffClaims, dto.UpdateExpenseDTO{Amount: &amount})
	assert.ErrorIs(t, err, apperrors.ErrExpenseApproved)

	updated, err := svc.UpdateExpense(ctx, "PRJ-001", e.ID, adminClaims, dto.UpdateExpenseDTO{Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, 200.0, updated.Amount)

	_, err = svc.DeleteExpense(ctx, "PRJ-001", e.ID, staffClaims)
	assert.ErrorIs(t, err, apperrors.ErrExpenseApproved)

	_, err = svc.DeleteExpense(ctx, "PRJ-001", e.ID, adminClaims)
	require.NoError(t, err)
	assert.True(t, er.rows[e.ID].DeletedAt.Valid)

	_, err = svc.GetExpense(ctx, "PRJ-001", e.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestApproveAndRejectExpense(t *testing.T) {
	svc, _, _ := newTestBudgetService()
	ctx := context.Background()
	e, err := svc.CreateExpense(ctx, "PRJ-001", staffClaims, dto.CreateExpenseDTO{ExpenseType: "equipment", Description: "crane", Amount: 50_000_000})
	require.NoError(t, err)

	_, err = svc.RejectExpense(ctx, "PRJ-001", e.ID, adminClaims, "   ")
	assert.ErrorIs(t, err, apperrors.ErrRejectionReason)

	approved, err := svc.ApproveExpense(ctx, "PRJ-001", e.ID, adminClaims)
	require.NoError(t, err)
	assert.Equal(t, int64(1), approved.ApprovedBy.Int64)

	_, err = svc.ApproveExpense(ctx, "PRJ-001", e.ID, adminClaims)
	assert.ErrorIs(t, err, apperrors.ErrExpenseAlreadyApproved)

	rejected, err := svc.RejectExpense(ctx, "PRJ-001", e.ID, adminClaims, "duplicate invoice")
	require.NoError(t, err)
	assert.Equal(t, "duplicate invoice", rejected.RejectionReason.String)
}

func TestRecordActualCost(t *testing.T) {
	svc, br, _ := newTestBudgetService()
	ctx := context.Background()

	_, err := svc.RecordActualCost(ctx, "PRJ-001", staffClaims, dto.ActualCostDTO{RABItemID: 1, Quantity: 2, UnitPrice: 10, TotalAmount: 25})
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)

	_, err = svc.RecordActualCost(ctx, "PRJ-001", staffClaims, dto.ActualCostDTO{RABItemID: 99, Quantity: 2, UnitPrice: 10, TotalAmount: 20})
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)

	rec, err := svc.RecordActualCost(ctx, "PRJ-001", staffClaims, dto.ActualCostDTO{RABItemID: 2, Quantity: 3, UnitPrice: 0.1, TotalAmount: 0.3})
	require.NoError(t, err)
	assert.Equal(t, "completed", rec.Status)
	assert.Len(t, br.inserted, 1)
}

func TestComprehensiveAndSummary(t *testing.T) {
	svc, _, er := newTestBudgetService()
	ctx := context.Background()
	er.rows[1] = &entities.AdditionalExpense{ID: 1, ProjectID: "PRJ-001", Amount: 50_000, ApprovalStatus: entities.ExpenseApproved}
	er.rows[2] = &entities.AdditionalExpense{ID: 2, ProjectID: "PRJ-001", Amount: 90_000_000, ApprovalStatus: entities.ExpensePending}

	full, err := svc.GetComprehensive(ctx, "PRJ-001")
	require.NoError(t, err)
	assert.Equal(t, 1_500_000.0, full.Summary.TotalRAB)
	assert.Equal(t, 1_000_000.0, full.Summary.TotalSpent)
	assert.Len(t, full.RABItems, 2)
	assert.Len(t, full.AdditionalExpenses, 2)
	assert.Equal(t, fixedNow, full.LastUpdated)

	sum, err := svc.Summary(ctx, "PRJ-001")
	require.NoError(t, err)
	assert.Equal(t, 2, sum.CategoryCount)
	assert.Equal(t, 2, sum.RABItemCount)

	va, err := svc.VarianceAnalysis(ctx, "PRJ-001", "", "")
	require.NoError(t, err)
	assert.Equal(t, "monthly", va.Timeframe)
	assert.Equal(t, "category", va.GroupBy)
	assert.Len(t, va.ByCategory, 2)

	_, err = svc.GetComprehensive(ctx, "PRJ-404")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
