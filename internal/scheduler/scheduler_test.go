package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/dashpoultry/internal/config"
	"github.com/mamadbah2/dashpoultry/internal/domain/models"
)

type directLoop struct{ calls int }

func (d *directLoop) Call(_ context.Context, fn func() error) error {
	d.calls++
	return fn()
}

type fakeAlerts struct{ alerts []models.Alert }

func (f fakeAlerts) Check(context.Context) ([]models.Alert, error) { return f.alerts, nil }

type fakeReports struct{ day models.Date }

func (f *fakeReports) GenerateDailyReport(_ context.Context, day models.Date) (models.DailyReport, error) {
	f.day = day
	return models.DailyReport{Date: day.Time, FeedConsumed: 12}, nil
}

func (f *fakeReports) GenerateWeeklyReport(context.Context, time.Time) (string, error) {
	return "weekly", nil
}

type fakeNotifier struct {
	sent []string
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, text string) error {
	f.sent = append(f.sent, text)
	return f.err
}

type fakeArchive struct{ saved []models.DailyReport }

func (f *fakeArchive) SaveDailyReport(_ context.Context, r models.DailyReport) error {
	f.saved = append(f.saved, r)
	return nil
}

type fakeSheet struct {
	ranges []string
	header []string
	rows   [][]interface{}
}

func (f *fakeSheet) AppendRows(_ context.Context, r string, header []string, rows ...[]interface{}) error {
	f.ranges = append(f.ranges, r)
	f.header = header
	f.rows = append(f.rows, rows...)
	return nil
}

func testConfig() config.Config {
	var cfg config.Config
	cfg.Reporting.Timezone = "UTC"
	cfg.Reporting.DailyCronSchedule = "0 20 * * *"
	cfg.Reporting.WeeklyCronSchedule = "0 20 * * 5"
	cfg.Alerts.CronSchedule = "*/5 * * * *"
	cfg.Sheets.ReportRange = "Reports!A:J"
	return cfg
}

func TestJobsRunThroughLoopAndDeliver(t *testing.T) {
	loop := &directLoop{}
	reports := &fakeReports{}
	notifier := &fakeNotifier{}
	archive := &fakeArchive{}
	sheet := &fakeSheet{}

	s := NewScheduler(testConfig(), Deps{
		Loop: loop,
		Alerts: fakeAlerts{alerts: []models.Alert{
			{Title: "Low Feed Alert", Message: "low", Level: models.AlertWarning},
			{Title: "High Mortality Alert", Message: "high", Level: models.AlertCritical},
		}},
		Reports:  reports,
		Notifier: notifier,
		Archiver: archive,
		Sheet:    sheet,
	}, nil)
	s.now = func() time.Time { return time.Date(2024, 6, 7, 20, 0, 0, 0, time.UTC) }

	s.runAlerts()
	s.runDailyReport()
	s.sendWeeklyReport()

	assert.Equal(t, 3, loop.calls)
	require.Len(t, notifier.sent, 2)
	assert.Equal(t, "*Farm alerts*\n[CRITICAL] High Mortality Alert: high\n[WARNING] Low Feed Alert: low", notifier.sent[0])
	assert.Equal(t, "weekly", notifier.sent[1])

	assert.Equal(t, "2024-06-07", reports.day.String())
	require.Len(t, archive.saved, 1)
	assert.Equal(t, []string{"Reports!A:J"}, sheet.ranges)
	assert.Equal(t, "2024-06-07", sheet.rows[0][0])
	assert.Len(t, sheet.rows[0], len(sheet.header))
}

func TestOptionalSinksAreSkipped(t *testing.T) {
	s := NewScheduler(testConfig(), Deps{Loop: &directLoop{}, Alerts: fakeAlerts{}, Reports: &fakeReports{}}, nil)
	s.runAlerts()
	s.runDailyReport()
	s.sendWeeklyReport()
}

func TestNotifyFailureIsLoggedOnly(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("offline")}
	s := NewScheduler(testConfig(), Deps{Loop: &directLoop{}, Alerts: fakeAlerts{}, Reports: &fakeReports{}, Notifier: notifier}, nil)
	s.sendWeeklyReport()
	assert.Len(t, notifier.sent, 1)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	cfg := testConfig()
	cfg.Alerts.CronSchedule = "every five minutes"
	s := NewScheduler(cfg, Deps{}, nil)
	require.Error(t, s.Start())

	s = NewScheduler(testConfig(), Deps{}, nil)
	require.NoError(t, s.Start())
	s.Stop()
}
