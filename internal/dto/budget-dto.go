package dto

import (
	"time"

	"nusantara-erp/internal/entities"
	"nusantara-erp/pkg/budget"
	"nusantara-erp/pkg/types"
)

type ActualCostDTO struct {
	RABItemID    int64       `json:"rabItemId" validate:"required,gt=0"`
	Quantity     float64     `json:"quantity" validate:"required,gt=0"`
	UnitPrice    float64     `json:"unitPrice" validate:"gte=0"`
	TotalAmount  float64     `json:"totalAmount" validate:"required,gt=0"`
	PONumber     *string     `json:"poNumber" validate:"omitempty,max=100"`
	PurchaseDate *types.Date `json:"purchaseDate" validate:"omitempty,notfuture"`
	Notes        *string     `json:"notes" validate:"omitempty,max=1000"`
}

type CreateExpenseDTO struct {
	ExpenseType   string      `json:"expenseType" validate:"required,expense_type"`
	Description   string      `json:"description" validate:"required,max=500"`
	Amount        float64     `json:"amount" validate:"required,gt=0,lte=1000000000"`
	ExpenseDate   *types.Date `json:"expenseDate" validate:"omitempty,notfuture"`
	RecipientName *string     `json:"recipientName" validate:"omitempty,max=255"`
	ReceiptURL    *string     `json:"receiptUrl" validate:"omitempty,url"`
	PaymentMethod *string     `json:"paymentMethod" validate:"omitempty,payment_method"`
	Notes         *string     `json:"notes" validate:"omitempty,max=1000"`
	MilestoneID   *string     `json:"milestoneId" validate:"omitempty,max=50"`
	RABItemID     *int64      `json:"rabItemId" validate:"omitempty,gt=0"`
}

type UpdateExpenseDTO struct {
	ExpenseType   *string     `json:"expenseType" validate:"omitempty,expense_type"`
	Description   *string     `json:"description" validate:"omitempty,max=500"`
	Amount        *float64    `json:"amount" validate:"omitempty,gt=0,lte=1000000000"`
	ExpenseDate   *types.Date `json:"expenseDate" validate:"omitempty,notfuture"`
	RecipientName *string     `json:"recipientName" validate:"omitempty,max=255"`
	ReceiptURL    *string     `json:"receiptUrl" validate:"omitempty,url"`
	PaymentMethod *string     `json:"paymentMethod" validate:"omitempty,payment_method"`
	Notes         *string     `json:"notes" validate:"omitempty,max=1000"`
	MilestoneID   *string     `json:"milestoneId" validate:"omitempty,max=50"`
	RABItemID     *int64      `json:"rabItemId" validate:"omitempty,gt=0"`
}

type RejectExpenseDTO struct {
	Reason string `json:"reason"`
}

type ExpenseFilter struct {
	Status    string
	Type      string
	StartDate *time.Time
	EndDate   *time.Time
}

type ComprehensiveBudgetDTO struct {
	ProjectID          string                       `json:"projectId"`
	Summary            budget.Summary               `json:"summary"`
	RABItems           []budget.ItemWithActual      `json:"rabItems"`
	CategoryBreakdown  []budget.Category            `json:"categoryBreakdown"`
	AdditionalExpenses []entities.AdditionalExpense `json:"additionalExpenses"`
	TimeSeriesData     []budget.Period              `json:"timeSeriesData"`
	LastUpdated        time.Time                    `json:"lastUpdated"`
}

type VarianceAnalysisDTO struct {
	Timeframe  string            `json:"timeframe"`
	GroupBy    string            `json:"groupBy"`
	ByCategory []budget.Category `json:"byCategory"`
	TimeSeries []budget.Period   `json:"timeSeries"`
	Summary    budget.Summary    `json:"summary"`
	Alerts     []budget.Alert    `json:"alerts"`
}

type BudgetSummaryDTO struct {
	Summary                budget.Summary `json:"summary"`
	CategoryCount          int            `json:"categoryCount"`
	RABItemCount           int            `json:"rabItemCount"`
	AdditionalExpenseCount int            `json:"additionalExpenseCount"`
	LastUpdated            time.Time      `json:"lastUpdated"`
}

// RecordedCostDTO is the inserted rab_purchase_tracking row.
type RecordedCostDTO struct {
	ID           int64     `json:"id"`
	ProjectID    string    `json:"projectId"`
	RABItemID    int64     `json:"rabItemId"`
	Quantity     float64   `json:"quantity"`
	UnitPrice    float64   `json:"unitPrice"`
	TotalAmount  float64   `json:"totalAmount"`
	PONumber     *string   `json:"poNumber"`
	PurchaseDate time.Time `json:"purchaseDate"`
	Status       string    `json:"status"`
	Notes        *string   `json:"notes"`
	CreatedAt    time.Time `json:"createdAt"`
}
