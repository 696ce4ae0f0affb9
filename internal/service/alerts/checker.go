// Package alerts scans farm data for threshold breaches.
package alerts

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/dashpoultry/internal/domain/models"
	"github.com/mamadbah2/dashpoultry/internal/metrics"
)

const (
	historySize     = 50
	mortalityWindow = 7
	supplyWindow    = 3
	expenseWindow   = 30
	salaryCycleDays = 30
)

// Store is the read side the checks query.
type Store interface {
	RecentMortality(ctx context.Context, since models.Date) ([]models.BatchMortality, error)
	FeedSince(ctx context.Context, since models.Date) (float64, error)
	WaterSince(ctx context.Context, since models.Date) (float64, error)
	VaccinationsDue(ctx context.Context, from, to models.Date) ([]models.VaccinationRecord, error)
	BatchesEnding(ctx context.Context, from, to models.Date) ([]models.Batch, error)
	ExpenseCategoriesOver(ctx context.Context, since models.Date, limit float64) ([]models.CategoryTotal, error)
	ActiveWorkers(ctx context.Context) ([]models.Worker, error)
}

// Checker is not safe for concurrent use; the application calls it from the event loop.
type Checker struct {
	store      Store
	thresholds Thresholds
	history    []models.Alert
	recorder   metrics.Recorder
	logger     *zap.Logger
	now        func() time.Time
}

func NewChecker(store Store, thresholds Thresholds, recorder metrics.Recorder, logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Checker{
		store:      store,
		thresholds: thresholds,
		recorder:   recorder,
		logger:     logger,
		now:        time.Now,
	}
}

// Thresholds returns a copy of the current limits.
func (c *Checker) Thresholds() Thresholds {
	return c.thresholds
}

// SetThreshold changes one limit by its YAML name.
func (c *Checker) SetThreshold(name string, value float64) error {
	return c.thresholds.set(name, value)
}

// History returns the most recent alerts, oldest first.
func (c *Checker) History() []models.Alert {
	out := make([]models.Alert, len(c.history))
	copy(out, c.history)
	return out
}

// Check runs every check and returns the alerts raised this round. A failing check is reported
// in the joined error without stopping the others.
func (c *Checker) Check(ctx context.Context) ([]models.Alert, error) {
	now := c.now()
	today := models.DateOf(now)

	checks := []struct {
		name string
		run  func(context.Context, models.Date) ([]models.Alert, error)
	}{
		{"mortality", c.checkMortality},
		{"feed_water", c.checkSupply},
		{"vaccination", c.checkVaccinations},
		{"batch_end", c.checkBatchEnds},
		{"expense", c.checkExpenses},
		{"salary", c.checkSalaries},
	}

	var raised []models.Alert
	var errs []error
	for _, check := range checks {
		found, err := check.run(ctx, today)
		if err != nil {
			c.logger.Error("alert check failed", zap.String("check", check.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s check: %w", check.name, err))
			continue
		}
		raised = append(raised, found...)
	}

	for i := range raised {
		raised[i].RaisedAt = now
		c.recorder.IncAlert(string(raised[i].Level))
		c.logger.Info("alert raised",
			zap.String("title", raised[i].Title),
			zap.String("level", string(raised[i].Level)),
		)
	}
	c.remember(raised)

	return raised, errors.Join(errs...)
}

func (c *Checker) remember(alerts []models.Alert) {
	c.history = append(c.history, alerts...)
	if over := len(c.history) - historySize; over > 0 {
		c.history = append([]models.Alert(nil), c.history[over:]...)
	}
}

func (c *Checker) checkMortality(ctx context.Context, today models.Date) ([]models.Alert, error) {
	rows, err := c.store.RecentMortality(ctx, today.AddDays(-mortalityWindow))
	if err != nil {
		return nil, err
	}

	var out []models.Alert
	for _, r := range rows {
		if r.NumChicks <= 0 {
			continue
		}
		rate := float64(r.Deaths) / float64(r.NumChicks)
		if rate <= c.thresholds.MortalityRate {
			continue
		}
		out = append(out, models.Alert{
			Title:   "High Mortality Alert",
			Message: fmt.Sprintf("Batch %s has %.1f%% mortality rate (%d birds). Please investigate immediately.", r.BatchID, rate*100, r.Deaths),
			Level:   models.AlertCritical,
		})
	}
	return out, nil
}

func (c *Checker) checkSupply(ctx context.Context, today models.Date) ([]models.Alert, error) {
	since := today.AddDays(-supplyWindow)

	feed, err := c.store.FeedSince(ctx, since)
	if err != nil {
		return nil, err
	}
	water, err := c.store.WaterSince(ctx, since)
	if err != nil {
		return nil, err
	}

	var out []models.Alert
	if feed < c.thresholds.FeedLowKg {
		out = append(out, models.Alert{
			Title:   "Low Feed Alert",
			Message: fmt.Sprintf("Feed consumption is low (%gkg in last %d days). Check feed supply and bird health.", feed, supplyWindow),
			Level:   models.AlertWarning,
		})
	}
	if water < c.thresholds.WaterLowL {
		out = append(out, models.Alert{
			Title:   "Low Water Alert",
			Message: fmt.Sprintf("Water consumption is low (%gL in last %d days). Check water supply and bird health.", water, supplyWindow),
			Level:   models.AlertWarning,
		})
	}
	return out, nil
}

func (c *Checker) checkVaccinations(ctx context.Context, today models.Date) ([]models.Alert, error) {
	due, err := c.store.VaccinationsDue(ctx, today, today.AddDays(c.thresholds.VaccinationDueDays))
	if err != nil {
		return nil, err
	}

	out := make([]models.Alert, 0, len(due))
	for _, v := range due {
		out = append(out, models.Alert{
			Title:   "Vaccination Due",
			Message: fmt.Sprintf("Vaccination for batch %s (%s) is due on %s.", v.BatchID, v.Vaccine, v.Date),
			Level:   models.AlertInfo,
		})
	}
	return out, nil
}

func (c *Checker) checkBatchEnds(ctx context.Context, today models.Date) ([]models.Alert, error) {
	ending, err := c.store.BatchesEnding(ctx, today, today.AddDays(c.thresholds.BatchEndDays))
	if err != nil {
		return nil, err
	}

	out := make([]models.Alert, 0, len(ending))
	for _, b := range ending {
		out = append(out, models.Alert{
			Title:   "Batch Ending Soon",
			Message: fmt.Sprintf("Batch %s (%d birds) is expected to end on %s. Prepare for processing.", b.ID, b.NumChicks, b.ExpectedOut),
			Level:   models.AlertInfo,
		})
	}
	return out, nil
}

func (c *Checker) checkExpenses(ctx context.Context, today models.Date) ([]models.Alert, error) {
	over, err := c.store.ExpenseCategoriesOver(ctx, today.AddDays(-expenseWindow), c.thresholds.ExpenseHigh)
	if err != nil {
		return nil, err
	}

	out := make([]models.Alert, 0, len(over))
	for _, ct := range over {
		out = append(out, models.Alert{
			Title:   "High Expense Alert",
			Message: fmt.Sprintf("High expenses in %s: %s in last %d days. Review budget.", ct.Category, money(ct.Amount), expenseWindow),
			Level:   models.AlertWarning,
		})
	}
	return out, nil
}

// checkSalaries flags active workers on every 30th day since hire.
func (c *Checker) checkSalaries(ctx context.Context, today models.Date) ([]models.Alert, error) {
	workers, err := c.store.ActiveWorkers(ctx)
	if err != nil {
		return nil, err
	}

	var out []models.Alert
	for _, w := range workers {
		if w.HireDate.IsZero() {
			continue
		}
		days := w.HireDate.DaysUntil(today)
		if days <= 0 || days%salaryCycleDays != 0 {
			continue
		}
		out = append(out, models.Alert{
			Title:   "Salary Payment Due",
			Message: fmt.Sprintf("Salary payment of %s is due for worker %s.", money(w.Salary), w.Name),
			Level:   models.AlertInfo,
		})
	}
	return out, nil
}

func money(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}
