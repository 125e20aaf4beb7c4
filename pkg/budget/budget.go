// Package budget compares a project's approved RAB (budget plan) against actual purchases
// and additional expenses.
package budget

import (
	"fmt"
	"math"
	"time"
)

const (
	// AutoApproveLimit is the largest additional expense approved without review.
	AutoApproveLimit = 10_000_000

	uncategorized = "Uncategorized"
)

type RABItem struct {
	ID          int64     `json:"id"`
	ProjectID   string    `json:"projectId"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Unit        string    `json:"unit"`
	Quantity    float64   `json:"quantity"`
	UnitPrice   float64   `json:"unitPrice"`
	TotalPrice  float64   `json:"totalPrice"`
	Status      string    `json:"status"`
	IsApproved  bool      `json:"isApproved"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Purchase is a non-cancelled rab_purchase_tracking row joined with its RAB category.
type Purchase struct {
	ID             int64     `json:"id"`
	RABItemID      int64     `json:"rabItemId"`
	ProjectID      string    `json:"projectId"`
	PONumber       string    `json:"poNumber,omitempty"`
	Quantity       float64   `json:"quantity"`
	UnitPrice      float64   `json:"unitPrice"`
	TotalAmount    float64   `json:"totalAmount"`
	PurchaseDate   time.Time `json:"purchaseDate"`
	Status         string    `json:"status"`
	Notes          string    `json:"notes,omitempty"`
	Category       string    `json:"category"`
	RABDescription string    `json:"rabDescription"`
}

type Expense struct {
	Amount         float64
	ApprovalStatus string
}

type Health struct {
	Status string `json:"status"`
	Color  string `json:"color"`
	Label  string `json:"label"`
}

type Summary struct {
	TotalRAB        float64 `json:"totalRAB"`
	TotalActual     float64 `json:"totalActual"`
	TotalAdditional float64 `json:"totalAdditional"`
	TotalSpent      float64 `json:"totalSpent"`
	Remaining       float64 `json:"remaining"`
	Variance        float64 `json:"variance"`
	VariancePercent float64 `json:"variancePercent"`
	Progress        float64 `json:"progress"`
	BudgetHealth    Health  `json:"budgetHealth"`
}

type Category struct {
	Category    string  `json:"category"`
	Budget      float64 `json:"budget"`
	Actual      float64 `json:"actual"`
	ItemCount   int     `json:"itemCount"`
	Variance    float64 `json:"variance"`
	PercentUsed float64 `json:"percentUsed"`
	Status      Health  `json:"status"`
}

// ItemWithActual is a RAB line enriched with what has been spent against it.
type ItemWithActual struct {
	RABItem
	ActualSpent      float64    `json:"actualSpent"`
	Variance         float64    `json:"variance"`
	PercentUsed      float64    `json:"percentUsed"`
	TrackingCount    int        `json:"trackingCount"`
	LastPurchaseDate *time.Time `json:"lastPurchaseDate"`
	Status           Health     `json:"status"`
}

type Period struct {
	Period             time.Time `json:"period"`
	MonthlySpending    float64   `json:"monthlySpending"`
	CumulativeSpending float64   `json:"cumulativeSpending"`
}

type Alert struct {
	Type     string  `json:"type"`
	Severity string  `json:"severity"`
	Category string  `json:"category"`
	Message  string  `json:"message"`
	Value    float64 `json:"value"`
}

func HealthFor(percentUsed float64) Health {
	switch {
	case percentUsed <= 90:
		return Health{Status: "healthy", Color: "green", Label: "Healthy"}
	case percentUsed <= 100:
		return Health{Status: "warning", Color: "yellow", Label: "Warning"}
	default:
		return Health{Status: "critical", Color: "red", Label: "Over Budget"}
	}
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ApprovalStatusFor decides the initial status of a new additional expense.
func ApprovalStatusFor(amount float64) string {
	if amount > AutoApproveLimit {
		return "pending"
	}
	return "approved"
}

// AmountConsistent reports whether total equals quantity*unitPrice within one cent.
func AmountConsistent(quantity, unitPrice, total float64) bool {
	return math.Abs(total-quantity*unitPrice) <= 0.01
}

func Summarize(rab []RABItem, actual []Purchase, expenses []Expense) Summary {
	var totalRAB, totalActual, totalAdditional float64
	for _, item := range rab {
		totalRAB += item.TotalPrice
	}
	for _, p := range actual {
		totalActual += p.TotalAmount
	}
	for _, e := range expenses {
		if e.ApprovalStatus == "approved" {
			totalAdditional += e.Amount
		}
	}

	totalSpent := totalActual + totalAdditional
	variance := totalSpent - totalRAB
	var variancePercent, progress float64
	if totalRAB > 0 {
		variancePercent = variance / totalRAB * 100
		progress = totalSpent / totalRAB * 100
	}

	return Summary{
		TotalRAB:        Round2(totalRAB),
		TotalActual:     Round2(totalActual),
		TotalAdditional: Round2(totalAdditional),
		TotalSpent:      Round2(totalSpent),
		Remaining:       Round2(totalRAB - totalSpent),
		Variance:        Round2(variance),
		VariancePercent: Round2(variancePercent),
		Progress:        Round2(progress),
		BudgetHealth:    HealthFor(progress),
	}
}

// CategoryBreakdown groups budget by category in order of first appearance.
// Purchases only count toward categories that have budget.
func CategoryBreakdown(rab []RABItem, actual []Purchase) []Category {
	index := make(map[string]int)
	var out []Category

	for _, item := range rab {
		name := categoryName(item.Category)
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, Category{Category: name})
		}
		out[i].Budget += item.TotalPrice
		out[i].ItemCount++
	}

	for _, p := range actual {
		if i, ok := index[categoryName(p.Category)]; ok {
			out[i].Actual += p.TotalAmount
		}
	}

	for i := range out {
		c := &out[i]
		var percent float64
		if c.Budget > 0 {
			percent = c.Actual / c.Budget * 100
		}
		c.Variance = Round2(c.Actual - c.Budget)
		c.PercentUsed = Round2(percent)
		c.Status = HealthFor(percent)
	}
	return out
}

func categoryName(c string) string {
	if c == "" {
		return uncategorized
	}
	return c
}

// MergeRABWithActual expects actual ordered by purchase date descending.
func MergeRABWithActual(rab []RABItem, actual []Purchase) []ItemWithActual {
	out := make([]ItemWithActual, 0, len(rab))
	for _, item := range rab {
		merged := ItemWithActual{RABItem: item}
		var spent float64
		for _, p := range actual {
			if p.RABItemID != item.ID {
				continue
			}
			spent += p.TotalAmount
			merged.TrackingCount++
			if merged.LastPurchaseDate == nil || p.PurchaseDate.After(*merged.LastPurchaseDate) {
				d := p.PurchaseDate
				merged.LastPurchaseDate = &d
			}
		}
		var percent float64
		if item.TotalPrice > 0 {
			percent = spent / item.TotalPrice * 100
		}
		merged.ActualSpent = Round2(spent)
		merged.Variance = Round2(spent - item.TotalPrice)
		merged.PercentUsed = Round2(percent)
		merged.Status = HealthFor(percent)
		out = append(out, merged)
	}
	return out
}

func Alerts(summary Summary, categories []Category) []Alert {
	alerts := make([]Alert, 0)

	switch {
	case summary.Progress > 100:
		alerts = append(alerts, Alert{
			Type:     "error",
			Severity: "high",
			Category: "Overall",
			Message:  fmt.Sprintf("Project is %.1f%% over budget", summary.VariancePercent),
			Value:    summary.Variance,
		})
	case summary.Progress > 90:
		alerts = append(alerts, Alert{
			Type:     "warning",
			Severity: "medium",
			Category: "Overall",
			Message:  fmt.Sprintf("Project budget utilization at %.1f%%", summary.Progress),
			Value:    summary.Remaining,
		})
	}

	for _, c := range categories {
		switch {
		case c.PercentUsed > 100:
			alerts = append(alerts, Alert{
				Type:     "error",
				Severity: "high",
				Category: c.Category,
				Message:  fmt.Sprintf("%s is %.1f%% of budget", c.Category, c.PercentUsed),
				Value:    c.Variance,
			})
		case c.PercentUsed > 95:
			alerts = append(alerts, Alert{
				Type:     "warning",
				Severity: "medium",
				Category: c.Category,
				Message:  fmt.Sprintf("%s approaching budget limit", c.Category),
				Value:    c.Budget - c.Actual,
			})
		}
	}
	return alerts
}
