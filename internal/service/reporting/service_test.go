package reporting

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/dashpoultry/internal/domain/models"
)

type fakeStore struct {
	totals   models.PeriodTotals
	err      error
	from, to models.Date
}

func (f *fakeStore) PeriodTotals(_ context.Context, from, to models.Date) (models.PeriodTotals, error) {
	f.from, f.to = from, to
	t := f.totals
	t.From, t.To = from, to
	return t, f.err
}

func TestGenerateDailyReport(t *testing.T) {
	store := &fakeStore{totals: models.PeriodTotals{FeedKg: 50, WaterL: 300, Mortality: 2, Revenue: 1000, Expenses: 400.25, ActiveBatches: 3}}
	svc := NewService(store, nil)
	created := time.Date(2024, 6, 2, 1, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return created }

	day := models.NewDate(2024, 6, 1)
	report, err := svc.GenerateDailyReport(context.Background(), day)
	require.NoError(t, err)

	assert.Equal(t, day, store.from)
	assert.Equal(t, day, store.to)
	assert.Equal(t, day.Time, report.Date)
	assert.Equal(t, 599.75, report.Profit)
	assert.Equal(t, 3, report.ActiveBatches)
	assert.Equal(t, created, report.CreatedAt)
	assert.Equal(t, "2024-06-01", ReportRow(report)[0])
	assert.Len(t, ReportRow(report), len(ReportHeader))
}

func TestGenerateWeeklyReport(t *testing.T) {
	store := &fakeStore{totals: models.PeriodTotals{FeedKg: 98, WaterL: 600, Mortality: 5, Vaccinations: 1, Revenue: 5000, Expenses: 1200, ActiveBatches: 1, Birds: 500}}
	svc := NewService(store, nil)

	text, err := svc.GenerateWeeklyReport(context.Background(), time.Date(2024, 6, 7, 20, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "2024-06-01", store.from.String())
	assert.Equal(t, "2024-06-07", store.to.String())
	assert.True(t, strings.HasPrefix(text, "*Weekly farm report* (2024-06-01 to 2024-06-07)"))
	assert.Contains(t, text, "Feed per bird 0.196 kg.")
	assert.Contains(t, text, "Mortality rate 1.00% based on population 500.")
	assert.Contains(t, text, "Revenue 5000.00, expenses 1200.00, profit 3800.00.")
}

func TestMortalityRateGuardsEmptyPopulation(t *testing.T) {
	assert.Equal(t, "Mortality: no incidents logged.", CalculateMortalityRate(models.PeriodTotals{}))
	assert.Equal(t, "Mortality: 4 deaths. Population unknown.", CalculateMortalityRate(models.PeriodTotals{Mortality: 4}))
	assert.Equal(t, "Feed: awaiting data.", CalculateFeedEfficiency(models.PeriodTotals{}))
}

func TestWeeklyReportPropagatesStoreError(t *testing.T) {
	svc := NewService(&fakeStore{err: errors.New("disk gone")}, nil)
	_, err := svc.GenerateWeeklyReport(context.Background(), time.Now())
	require.ErrorContains(t, err, "disk gone")
}
