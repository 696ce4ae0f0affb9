package models

import "time"

// BatchTotals are the raw batch aggregates read from storage.
type BatchTotals struct {
	Total  int
	Recent int
	Birds  int
	FeedKg float64
	WaterL float64
}

// FinancialTotals are the raw money aggregates read from storage.
type FinancialTotals struct {
	Revenue        float64
	Expenses       float64
	TotalMortality int
}

// WorkerTotals are the raw workforce aggregates read from storage.
type WorkerTotals struct {
	Total        int
	Active       int
	ActiveSalary float64
}

// HealthTotals are the raw health aggregates read from storage.
type HealthTotals struct {
	Scheduled      int
	Completed      int
	TotalMortality int
	Birds          int
}

type BatchSummary struct {
	Total       int     `json:"total"`
	Recent      int     `json:"recent"`
	FeedKg      float64 `json:"feed_kg"`
	WaterL      float64 `json:"water_l"`
	FeedPerBird float64 `json:"feed_per_bird"`
}

type FinancialSummary struct {
	Revenue       float64 `json:"revenue"`
	Expenses      float64 `json:"expenses"`
	Profit        float64 `json:"profit"`
	Margin        float64 `json:"margin"`
	MortalityCost float64 `json:"mortality_cost"`
}

type WorkerSummary struct {
	Total         int     `json:"total"`
	Active        int     `json:"active"`
	TotalSalary   float64 `json:"total_salary"`
	AverageSalary float64 `json:"average_salary"`
}

type HealthSummary struct {
	ScheduledVaccinations int     `json:"scheduled_vaccinations"`
	CompletedVaccinations int     `json:"completed_vaccinations"`
	TotalMortality        int     `json:"total_mortality"`
	MortalityRate         float64 `json:"mortality_rate"`
}

// Summaries bundles the four dashboard summaries.
type Summaries struct {
	Batch     BatchSummary     `json:"batch"`
	Financial FinancialSummary `json:"financial"`
	Worker    WorkerSummary    `json:"worker"`
	Health    HealthSummary    `json:"health"`
}

// NavigationRequest asks the shell to show a module with optional context.
type NavigationRequest struct {
	Module      string            `json:"module"`
	Context     map[string]string `json:"context,omitempty"`
	RequestedAt time.Time         `json:"requested_at"`
}
