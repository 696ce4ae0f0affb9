// Package reporting builds the daily roll-up and the weekly WhatsApp digest.
package reporting

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/dashpoultry/internal/domain/models"
)

// Store is the aggregate query the reports read.
type Store interface {
	PeriodTotals(ctx context.Context, from, to models.Date) (models.PeriodTotals, error)
}

// Service exposes lightweight analytics for scheduled summaries.
type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new reporting service instance.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// GenerateDailyReport rolls up the activity dated on day.
func (s *Service) GenerateDailyReport(ctx context.Context, day models.Date) (models.DailyReport, error) {
	totals, err := s.store.PeriodTotals(ctx, day, day)
	if err != nil {
		return models.DailyReport{}, fmt.Errorf("load daily totals: %w", err)
	}

	return models.DailyReport{
		Date:          day.Time,
		FeedConsumed:  totals.FeedKg,
		WaterConsumed: totals.WaterL,
		Mortality:     totals.Mortality,
		Vaccinations:  totals.Vaccinations,
		Revenue:       totals.Revenue,
		Expenses:      totals.Expenses,
		Profit:        round2(totals.Revenue - totals.Expenses),
		ActiveBatches: totals.ActiveBatches,
		CreatedAt:     s.now(),
	}, nil
}

// GenerateWeeklyReport formats the seven days ending on now.
func (s *Service) GenerateWeeklyReport(ctx context.Context, now time.Time) (string, error) {
	end := models.DateOf(now)
	start := end.AddDays(-6)

	totals, err := s.store.PeriodTotals(ctx, start, end)
	if err != nil {
		return "", fmt.Errorf("load weekly totals: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*Weekly farm report* (%s to %s)\n\n", start, end)
	fmt.Fprintf(&b, "Active batches: %d (%d birds placed)\n", totals.ActiveBatches, totals.Birds)
	b.WriteString(CalculateFeedEfficiency(totals) + "\n")
	b.WriteString(CalculateMortalityRate(totals) + "\n")
	fmt.Fprintf(&b, "Vaccinations logged: %d\n", totals.Vaccinations)
	b.WriteString(CalculateFinances(totals))

	s.logger.Debug("weekly report generated", zap.String("from", start.String()), zap.String("to", end.String()))
	return b.String(), nil
}

// CalculateFeedEfficiency estimates feed usage per bird for a period.
func CalculateFeedEfficiency(t models.PeriodTotals) string {
	if t.FeedKg == 0 && t.WaterL == 0 {
		return "Feed: awaiting data."
	}
	statement := "Population not provided; feed per bird pending."
	if t.Birds > 0 {
		statement = fmt.Sprintf("Feed per bird %.3f kg.", t.FeedKg/float64(t.Birds))
	}
	return fmt.Sprintf("Feed: %.2f kg and %.2f L water consumed. %s", t.FeedKg, t.WaterL, statement)
}

// CalculateMortalityRate produces a mortality ratio against the placed population.
func CalculateMortalityRate(t models.PeriodTotals) string {
	if t.Mortality == 0 {
		return "Mortality: no incidents logged."
	}
	if t.Birds <= 0 {
		return fmt.Sprintf("Mortality: %d deaths. Population unknown.", t.Mortality)
	}
	rate := round2(float64(t.Mortality) / float64(t.Birds) * 100)
	return fmt.Sprintf("Mortality: %d deaths. Mortality rate %.2f%% based on population %d.", t.Mortality, rate, t.Birds)
}

// CalculateFinances reports income against cost.
func CalculateFinances(t models.PeriodTotals) string {
	return fmt.Sprintf("Revenue %.2f, expenses %.2f, profit %.2f.", t.Revenue, t.Expenses, round2(t.Revenue-t.Expenses))
}

// ReportHeader names the columns of ReportRow.
var ReportHeader = []string{
	"Date", "Feed (kg)", "Water (L)", "Mortality", "Vaccinations",
	"Revenue", "Expenses", "Profit", "Active Batches",
}

// ReportRow lays out a daily report as one spreadsheet row.
func ReportRow(r models.DailyReport) []interface{} {
	return []interface{}{
		r.Date.Format(models.DateLayout),
		r.FeedConsumed,
		r.WaterConsumed,
		r.Mortality,
		r.Vaccinations,
		r.Revenue,
		r.Expenses,
		r.Profit,
		r.ActiveBatches,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
