package models

import "time"

type AlertLevel string

const (
	AlertCritical AlertLevel = "critical"
	AlertWarning  AlertLevel = "warning"
	AlertInfo     AlertLevel = "info"
)

// Alert is one threshold breach found by the checker.
type Alert struct {
	Title    string     `json:"title"`
	Message  string     `json:"message"`
	Level    AlertLevel `json:"level"`
	RaisedAt time.Time  `json:"raised_at"`
}

// BatchMortality is the mortality count of a batch over a window.
type BatchMortality struct {
	BatchID   string
	NumChicks int
	Deaths    int
}

// BatchConsumption is feed or water use per batch over a window.
type BatchConsumption struct {
	BatchID  string
	Quantity float64
}

// CategoryTotal is an expense sum for one category.
type CategoryTotal struct {
	Category ExpenseCategory `json:"category"`
	Amount   float64         `json:"amount"`
}

// BatchRevenue is the income attributed to one batch.
type BatchRevenue struct {
	BatchID string  `json:"batch_id"`
	Amount  float64 `json:"amount"`
}

// MonthlyProfitLoss is one month of income against cost, keyed YYYY-MM.
type MonthlyProfitLoss struct {
	Month    string  `json:"month"`
	Revenue  float64 `json:"revenue"`
	Expenses float64 `json:"expenses"`
	Profit   float64 `json:"profit"`
}

// Analytics is the profit and loss breakdown.
type Analytics struct {
	RevenueByBatch     []BatchRevenue      `json:"revenue_by_batch"`
	ExpensesByCategory []CategoryTotal     `json:"expenses_by_category"`
	Monthly            []MonthlyProfitLoss `json:"monthly"`
}
