package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

const (
	ExpensePending   = "pending"
	ExpenseApproved  = "approved"
	ExpenseRejected  = "rejected"
	ExpenseCancelled = "cancelled"
)

type AdditionalExpense struct {
	ID              uint64      `json:"id" db:"id"`
	ProjectID       string      `json:"projectId" db:"project_id"`
	ExpenseType     string      `json:"expenseType" db:"expense_type"`
	Description     string      `json:"description" db:"description"`
	Amount          float64     `json:"amount" db:"amount"`
	ExpenseDate     time.Time   `json:"expenseDate" db:"expense_date"`
	RecipientName   null.String `json:"recipientName" db:"recipient_name"`
	ReceiptURL      null.String `json:"receiptUrl" db:"receipt_url"`
	PaymentMethod   null.String `json:"paymentMethod" db:"payment_method"`
	Notes           null.String `json:"notes" db:"notes"`
	MilestoneID     null.String `json:"milestoneId" db:"milestone_id"`
	RABItemID       null.Int64  `json:"rabItemId" db:"rab_item_id"`
	ApprovalStatus  string      `json:"approvalStatus" db:"approval_status"`
	ApprovedBy      null.Int64  `json:"approvedBy" db:"approved_by"`
	ApprovedAt      null.Time   `json:"approvedAt" db:"approved_at"`
	RejectedBy      null.Int64  `json:"rejectedBy" db:"rejected_by"`
	RejectedAt      null.Time   `json:"rejectedAt" db:"rejected_at"`
	RejectionReason null.String `json:"rejectionReason" db:"rejection_reason"`
	CreatedBy       null.Int64  `json:"createdBy" db:"created_by"`
	CreatedAt       time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time   `json:"updatedAt" db:"updated_at"`
	DeletedAt       null.Time   `json:"-" db:"deleted_at"`
}

type Project struct {
	ID           string      `json:"id" db:"id"`
	Name         string      `json:"name" db:"name"`
	SubsidiaryID null.String `json:"subsidiaryId" db:"subsidiary_id"`
	Status       string      `json:"status" db:"status"`
}
