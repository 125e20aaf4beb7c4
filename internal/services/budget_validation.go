package services

import (
	"context"
	"strings"
	"time"

	"nusantara-erp/internal/dto"
	"nusantara-erp/internal/entities"
	"nusantara-erp/internal/repositories"
	"nusantara-erp/pkg/budget"
	apperrors "nusantara-erp/pkg/errors"
	"nusantara-erp/pkg/utils"

	"github.com/aarondl/null/v8"
	"go.uber.org/zap"
)

type BudgetValidationServiceInterface interface {
	GetComprehensive(ctx context.Context, projectID string) (*dto.ComprehensiveBudgetDTO, error)
	RecordActualCost(ctx context.Context, projectID string, claims *dto.UserClaims, payload dto.ActualCostDTO) (*dto.RecordedCostDTO, error)
	VarianceAnalysis(ctx context.Context, projectID, timeframe, groupBy string) (*dto.VarianceAnalysisDTO, error)
	Summary(ctx context.Context, projectID string) (*dto.BudgetSummaryDTO, error)

	ListExpenses(ctx context.Context, projectID string, filter dto.ExpenseFilter) ([]entities.AdditionalExpense, error)
	GetExpense(ctx context.Context, projectID string, id uint64) (*entities.AdditionalExpense, error)
	CreateExpense(ctx context.Context, projectID string, claims *dto.UserClaims, payload dto.CreateExpenseDTO) (*entities.AdditionalExpense, error)
	UpdateExpense(ctx context.Context, projectID string, id uint64, claims *dto.UserClaims, payload dto.UpdateExpenseDTO) (*entities.AdditionalExpense, error)
	DeleteExpense(ctx context.Context, projectID string, id uint64, claims *dto.UserClaims) (*entities.AdditionalExpense, error)
	ApproveExpense(ctx context.Context, projectID string, id uint64, claims *dto.UserClaims) (*entities.AdditionalExpense, error)
	RejectExpense(ctx context.Context, projectID string, id uint64, claims *dto.UserClaims, reason string) (*entities.AdditionalExpense, error)
}

type BudgetValidationService struct {
	budgetRepository  repositories.BudgetRepositoryInterface
	expenseRepository repositories.ExpenseRepositoryInterface
	logger            *zap.Logger
	now               func() time.Time
}

func NewBudgetValidationService(
	budgetRepository repositories.BudgetRepositoryInterface,
	expenseRepository repositories.ExpenseRepositoryInterface,
	logger *zap.Logger,
) *BudgetValidationService {
	return &BudgetValidationService{
		budgetRepository:  budgetRepository,
		expenseRepository: expenseRepository,
		logger:            logger,
		now:               time.Now,
	}
}

// projectData is everything the budget views are computed from.
type projectData struct {
	rab       []budget.RABItem
	purchases []budget.Purchase
	expenses  []entities.AdditionalExpense
}

func (s *BudgetValidationService) ensureProject(ctx context.Context, projectID string) error {
	ok, err := s.budgetRepository.ProjectExists(ctx, projectID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewNotFoundError("project not found")
	}
	return nil
}

func (s *BudgetValidationService) load(ctx context.Context, projectID string) (*projectData, error) {
	if err := s.ensureProject(ctx, projectID); err != nil {
		return nil, err
	}
	rab, err := s.budgetRepository.ApprovedRAB(ctx, projectID)
	if err != nil {
		return nil, err
	}
	purchases, err := s.budgetRepository.ActualPurchases(ctx, projectID)
	if err != nil {
		return nil, err
	}
	expenses, err := s.expenseRepository.List(ctx, projectID, dto.ExpenseFilter{})
	if err != nil {
		return nil, err
	}
	return &projectData{rab: rab, purchases: purchases, expenses: expenses}, nil
}

func toBudgetExpenses(in []entities.AdditionalExpense) []budget.Expense {
	out := make([]budget.Expense, len(in))
	for i, e := range in {
		out[i] = budget.Expense{Amount: e.Amount, ApprovalStatus: e.ApprovalStatus}
	}
	return out
}

func (d *projectData) summary() budget.Summary {
	return budget.Summarize(d.rab, d.purchases, toBudgetExpenses(d.expenses))
}

func (s *BudgetValidationService) GetComprehensive(ctx context.Context, projectID string) (*dto.ComprehensiveBudgetDTO, error) {
	data, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	series, err := s.budgetRepository.MonthlySpending(ctx, projectID)
	if err != nil {
		return nil, err
	}

	return &dto.ComprehensiveBudgetDTO{
		ProjectID:          projectID,
		Summary:            data.summary(),
		RABItems:           budget.MergeRABWithActual(data.rab, data.purchases),
		CategoryBreakdown:  budget.CategoryBreakdown(data.rab, data.purchases),
		AdditionalExpenses: data.expenses,
		TimeSeriesData:     series,
		LastUpdated:        s.now(),
	}, nil
}

func (s *BudgetValidationService) RecordActualCost(ctx context.Context, projectID string, claims *dto.UserClaims, payload dto.ActualCostDTO) (*dto.RecordedCostDTO, error) {
	if !budget.AmountConsistent(payload.Quantity, payload.UnitPrice, payload.TotalAmount) {
		return nil, apperrors.NewBadRequestError("totalAmount must equal quantity multiplied by unitPrice")
	}
	if err := s.ensureProject(ctx, projectID); err != nil {
		return nil, err
	}
	belongs, err := s.budgetRepository.RABItemBelongsTo(ctx, projectID, payload.RABItemID)
	if err != nil {
		return nil, err
	}
	if !belongs {
		return nil, apperrors.NewBadRequestError("RAB item does not belong to this project")
	}

	recorded, err := s.budgetRepository.InsertActualCost(ctx, projectID, claims.UserID, payload)
	if err != nil {
		s.logger.Error("failed to record actual cost", zap.String("projectId", projectID), zap.Error(err))
		return nil, err
	}
	s.logger.Info("actual cost recorded",
		zap.String("projectId", projectID),
		zap.Int64("rabItemId", payload.RABItemID),
		zap.Float64("totalAmount", payload.TotalAmount),
	)
	return recorded, nil
}

func (s *BudgetValidationService) VarianceAnalysis(ctx context.Context, projectID, timeframe, groupBy string) (*dto.VarianceAnalysisDTO, error) {
	if timeframe == "" {
		timeframe = "monthly"
	}
	if groupBy == "" {
		groupBy = "category"
	}

	data, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	series, err := s.budgetRepository.MonthlySpending(ctx, projectID)
	if err != nil {
		return nil, err
	}

	summary := data.summary()
	categories := budget.CategoryBreakdown(data.rab, data.purchases)
	return &dto.VarianceAnalysisDTO{
		Timeframe:  timeframe,
		GroupBy:    groupBy,
		ByCategory: categories,
		TimeSeries: series,
		Summary:    summary,
		Alerts:     budget.Alerts(summary, categories),
	}, nil
}

func (s *BudgetValidationService) Summary(ctx context.Context, projectID string) (*dto.BudgetSummaryDTO, error) {
	data, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &dto.BudgetSummaryDTO{
		Summary:                data.summary(),
		CategoryCount:          len(budget.CategoryBreakdown(data.rab, data.purchases)),
		RABItemCount:           len(data.rab),
		AdditionalExpenseCount: len(data.expenses),
		LastUpdated:            s.now(),
	}, nil
}

func (s *BudgetValidationService) ListExpenses(ctx context.Context, projectID string, filter dto.ExpenseFilter) ([]entities.AdditionalExpense, error) {
	if err := s.ensureProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.expenseRepository.List(ctx, projectID, filter)
}

func (s *BudgetValidationService) GetExpense(ctx context.Context, projectID string, id uint64) (*entities.AdditionalExpense, error) {
	return s.expenseRepository.FindByID(ctx, projectID, id)
}

func nullStringPtr(p *string) null.String {
	if p == nil || strings.TrimSpace(*p) == "" {
		return null.String{}
	}
	return null.StringFrom(strings.TrimSpace(*p))
}

// CreateExpense auto-approves amounts up to budget.AutoApproveLimit.
func (s *BudgetValidationService) CreateExpense(ctx context.Context, projectID string, claims *dto.UserClaims, payload dto.CreateExpenseDTO) (*entities.AdditionalExpense, error) {
	if err := s.ensureProject(ctx, projectID); err != nil {
		return nil, err
	}

	expenseDate := s.now()
	if d := payload.ExpenseDate.Ptr(); d != nil {
		expenseDate = *d
	}
	e := &entities.AdditionalExpense{
		ProjectID:      projectID,
		ExpenseType:    payload.ExpenseType,
		Description:    strings.TrimSpace(payload.Description),
		Amount:         payload.Amount,
		ExpenseDate:    expenseDate,
		RecipientName:  nullStringPtr(payload.RecipientName),
		ReceiptURL:     nullStringPtr(payload.ReceiptURL),
		PaymentMethod:  nullStringPtr(payload.PaymentMethod),
		Notes:          nullStringPtr(payload.Notes),
		MilestoneID:    nullStringPtr(payload.MilestoneID),
		ApprovalStatus: budget.ApprovalStatusFor(payload.Amount),
		CreatedBy:      null.Int64From(int64(claims.UserID)),
	}
	if payload.RABItemID != nil {
		e.RABItemID = null.Int64From(*payload.RABItemID)
	}
	if e.ApprovalStatus == entities.ExpenseApproved {
		e.ApprovedBy = null.Int64From(int64(claims.UserID))
		e.ApprovedAt = null.TimeFrom(s.now())
	}

	if err := s.expenseRepository.Create(ctx, e); err != nil {
		s.logger.Error("failed to create additional expense", zap.String("projectId", projectID), zap.Error(err))
		return nil, err
	}
	s.logger.Info("additional expense created",
		zap.Uint64("id", e.ID),
		zap.String("projectId", projectID),
		zap.String("approvalStatus", e.ApprovalStatus),
	)
	return e, nil
}

func (s *BudgetValidationService) editable(ctx context.Context, projectID string, id uint64, claims *dto.UserClaims) (*entities.AdditionalExpense, error) {
	current, err := s.expenseRepository.FindByID(ctx, projectID, id)
	if err != nil {
		return nil, err
	}
	if current.ApprovalStatus == entities.ExpenseApproved && !utils.IsAdmin(claims) {
		return nil, apperrors.ErrExpenseApproved
	}
	return current, nil
}

// UpdateExpense returns the stored row after the change.
func (s *BudgetValidationService) UpdateExpense(ctx context.Context, projectID string, id uint64, claims *dto.UserClaims, payload dto.UpdateExpenseDTO) (*entities.AdditionalExpense, error) {
	if _, err := s.editable(ctx, projectID, id, claims); err != nil {
		return nil, err
	}
	return s.expenseRepository.Update(ctx, projectID, id, payload)
}

// DeleteExpense returns the row as it was before the soft delete.
func (s *BudgetValidationService) DeleteExpense(ctx context.Context, projectID string, id uint64, claims *dto.UserClaims) (*entities.AdditionalExpense, error) {
	current, err := s.editable(ctx, projectID, id, claims)
	if err != nil {
		return nil, err
	}
	if err := s.expenseRepository.SoftDelete(ctx, projectID, id); err != nil {
		return nil, err
	}
	return current, nil
}

func (s *BudgetValidationService) ApproveExpense(ctx context.Context, projectID string, id uint64, claims *dto.UserClaims) (*entities.AdditionalExpense, error) {
	current, err := s.expenseRepository.FindByID(ctx, projectID, id)
	if err != nil {
		return nil, err
	}
	if current.ApprovalStatus == entities.ExpenseApproved {
		return nil, apperrors.ErrExpenseAlreadyApproved
	}
	return s.expenseRepository.Approve(ctx, projectID, id, claims.UserID)
}

func (s *BudgetValidationService) RejectExpense(ctx context.Context, projectID string, id uint64, claims *dto.UserClaims, reason string) (*entities.AdditionalExpense, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.ErrRejectionReason
	}
	if _, err := s.expenseRepository.FindByID(ctx, projectID, id); err != nil {
		return nil, err
	}
	return s.expenseRepository.Reject(ctx, projectID, id, claims.UserID, reason)
}
