package statebus

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/dashpoultry/internal/domain/models"
)

// Store supplies the raw aggregates behind the summaries.
type Store interface {
	BatchTotals(ctx context.Context, recentSince models.Date) (models.BatchTotals, error)
	FinancialTotals(ctx context.Context) (models.FinancialTotals, error)
	WorkerTotals(ctx context.Context) (models.WorkerTotals, error)
	HealthTotals(ctx context.Context) (models.HealthTotals, error)
}

const recentWindowDays = 30

// ErrNonFiniteTotal is returned when a stored aggregate is infinite or NaN.
var ErrNonFiniteTotal = errors.New("non-finite total")

var hundred = decimal.NewFromInt(100)

// BatchSummary counts batches, the ones placed in the last 30 days, and total consumption.
func (b *Bus) BatchSummary(ctx context.Context) (models.BatchSummary, error) {
	since := models.DateOf(b.now()).AddDays(-recentWindowDays)
	totals, err := b.store.BatchTotals(ctx, since)
	if err != nil {
		return models.BatchSummary{}, fmt.Errorf("read batch totals: %w", err)
	}

	feed, err := amount("feed_kg", totals.FeedKg)
	if err != nil {
		return models.BatchSummary{}, err
	}
	water, err := amount("water_l", totals.WaterL)
	if err != nil {
		return models.BatchSummary{}, err
	}
	return models.BatchSummary{
		Total:       totals.Total,
		Recent:      totals.Recent,
		FeedKg:      money(feed),
		WaterL:      money(water),
		FeedPerBird: money(ratio(feed, decimal.NewFromInt(int64(totals.Birds)))),
	}, nil
}

// FinancialSummary derives profit, margin and the cost of lost birds.
func (b *Bus) FinancialSummary(ctx context.Context) (models.FinancialSummary, error) {
	totals, err := b.store.FinancialTotals(ctx)
	if err != nil {
		return models.FinancialSummary{}, fmt.Errorf("read financial totals: %w", err)
	}

	revenue, err := amount("revenue", totals.Revenue)
	if err != nil {
		return models.FinancialSummary{}, err
	}
	expenses, err := amount("expenses", totals.Expenses)
	if err != nil {
		return models.FinancialSummary{}, err
	}
	profit := revenue.Sub(expenses)

	return models.FinancialSummary{
		Revenue:       money(revenue),
		Expenses:      money(expenses),
		Profit:        money(profit),
		Margin:        money(ratio(profit, revenue).Mul(hundred)),
		MortalityCost: money(decimal.NewFromInt(int64(totals.TotalMortality)).Mul(b.costPerBird)),
	}, nil
}

// WorkerSummary reports headcount and the payroll of active workers.
func (b *Bus) WorkerSummary(ctx context.Context) (models.WorkerSummary, error) {
	totals, err := b.store.WorkerTotals(ctx)
	if err != nil {
		return models.WorkerSummary{}, fmt.Errorf("read worker totals: %w", err)
	}

	salary, err := amount("salary", totals.ActiveSalary)
	if err != nil {
		return models.WorkerSummary{}, err
	}
	return models.WorkerSummary{
		Total:         totals.Total,
		Active:        totals.Active,
		TotalSalary:   money(salary),
		AverageSalary: money(ratio(salary, decimal.NewFromInt(int64(totals.Active)))),
	}, nil
}

// HealthSummary reports vaccination progress and mortality as a percentage of placed birds.
func (b *Bus) HealthSummary(ctx context.Context) (models.HealthSummary, error) {
	totals, err := b.store.HealthTotals(ctx)
	if err != nil {
		return models.HealthSummary{}, fmt.Errorf("read health totals: %w", err)
	}

	deaths := decimal.NewFromInt(int64(totals.TotalMortality))
	return models.HealthSummary{
		ScheduledVaccinations: totals.Scheduled,
		CompletedVaccinations: totals.Completed,
		TotalMortality:        totals.TotalMortality,
		MortalityRate:         money(ratio(deaths, decimal.NewFromInt(int64(totals.Birds))).Mul(hundred)),
	}, nil
}

// Summaries reads all four summaries.
func (b *Bus) Summaries(ctx context.Context) (models.Summaries, error) {
	var (
		out models.Summaries
		err error
	)
	if out.Batch, err = b.BatchSummary(ctx); err != nil {
		return models.Summaries{}, err
	}
	if out.Financial, err = b.FinancialSummary(ctx); err != nil {
		return models.Summaries{}, err
	}
	if out.Worker, err = b.WorkerSummary(ctx); err != nil {
		return models.Summaries{}, err
	}
	if out.Health, err = b.HealthSummary(ctx); err != nil {
		return models.Summaries{}, err
	}
	return out, nil
}

func amount(name string, v float64) (decimal.Decimal, error) {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return decimal.Zero, fmt.Errorf("%w: %s is %v", ErrNonFiniteTotal, name, v)
	}
	return decimal.NewFromFloat(v), nil
}

func ratio(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.Div(den)
}

func money(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
