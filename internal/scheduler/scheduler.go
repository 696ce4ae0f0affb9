package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/dashpoultry/internal/config"
	"github.com/mamadbah2/dashpoultry/internal/domain/models"
	"github.com/mamadbah2/dashpoultry/internal/service/reporting"
)

const jobTimeout = 2 * time.Minute

// Executor runs work on the event loop.
type Executor interface {
	Call(ctx context.Context, fn func() error) error
}

// AlertChecker scans for threshold breaches.
type AlertChecker interface {
	Check(ctx context.Context) ([]models.Alert, error)
}

// Reporter builds the periodic reports.
type Reporter interface {
	GenerateDailyReport(ctx context.Context, day models.Date) (models.DailyReport, error)
	GenerateWeeklyReport(ctx context.Context, now time.Time) (string, error)
}

// Notifier delivers text to the farm manager.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Archiver stores daily reports.
type Archiver interface {
	SaveDailyReport(ctx context.Context, report models.DailyReport) error
}

// RowWriter appends a row to a spreadsheet range.
type RowWriter interface {
	AppendRows(ctx context.Context, sheetRange string, header []string, rows ...[]interface{}) error
}

// Deps are the collaborators of the scheduled jobs. Notifier, Archiver and Sheet are optional.
type Deps struct {
	Loop     Executor
	Alerts   AlertChecker
	Reports  Reporter
	Notifier Notifier
	Archiver Archiver
	Sheet    RowWriter
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron   *cron.Cron
	deps   Deps
	cfg    config.Config
	logger *zap.Logger
	now    func() time.Time
}

// NewScheduler creates a new scheduler in the configured time zone.
func NewScheduler(cfg config.Config, deps Deps, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		cron:   cron.New(cron.WithLocation(cfg.Location())),
		deps:   deps,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Start registers every job and starts the cron runner.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler")

	jobs := []struct {
		name string
		spec string
		run  func()
	}{
		{"alerts", s.cfg.Alerts.CronSchedule, s.runAlerts},
		{"daily report", s.cfg.Reporting.DailyCronSchedule, s.runDailyReport},
		{"weekly report", s.cfg.Reporting.WeeklyCronSchedule, s.sendWeeklyReport},
	}
	for _, job := range jobs {
		if job.spec == "" {
			continue
		}
		if _, err := s.cron.AddFunc(job.spec, job.run); err != nil {
			return fmt.Errorf("schedule %s %q: %w", job.name, job.spec, err)
		}
		s.logger.Info("job scheduled", zap.String("job", job.name), zap.String("spec", job.spec))
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runAlerts() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	var raised []models.Alert
	err := s.deps.Loop.Call(ctx, func() error {
		var err error
		raised, err = s.deps.Alerts.Check(ctx)
		return err
	})
	if err != nil {
		s.logger.Error("alert check failed", zap.Error(err))
	}
	if len(raised) == 0 || s.deps.Notifier == nil {
		return
	}

	if err := s.deps.Notifier.Notify(ctx, FormatAlerts(raised)); err != nil {
		s.logger.Error("failed to send alerts", zap.Error(err))
	}
}

func (s *Scheduler) runDailyReport() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	day := models.DateOf(s.now().In(s.cfg.Location()))
	var report models.DailyReport
	err := s.deps.Loop.Call(ctx, func() error {
		var err error
		report, err = s.deps.Reports.GenerateDailyReport(ctx, day)
		return err
	})
	if err != nil {
		s.logger.Error("failed to generate daily report", zap.Error(err))
		return
	}

	if s.deps.Archiver != nil {
		if err := s.deps.Archiver.SaveDailyReport(ctx, report); err != nil {
			s.logger.Error("failed to archive daily report", zap.Error(err))
		}
	}
	if s.deps.Sheet != nil {
		if err := s.deps.Sheet.AppendRows(ctx, s.cfg.Sheets.ReportRange, reporting.ReportHeader, reporting.ReportRow(report)); err != nil {
			s.logger.Error("failed to append daily report row", zap.Error(err))
		}
	}
	s.logger.Info("daily report generated", zap.String("day", day.String()))
}

func (s *Scheduler) sendWeeklyReport() {
	s.logger.Info("generating weekly report")
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	var report string
	err := s.deps.Loop.Call(ctx, func() error {
		var err error
		report, err = s.deps.Reports.GenerateWeeklyReport(ctx, s.now().In(s.cfg.Location()))
		return err
	})
	if err != nil {
		s.logger.Error("failed to generate weekly report", zap.Error(err))
		return
	}
	if s.deps.Notifier == nil {
		s.logger.Info("weekly report generated, no notifier configured")
		return
	}

	if err := s.deps.Notifier.Notify(ctx, report); err != nil {
		s.logger.Error("failed to send weekly report", zap.Error(err))
	} else {
		s.logger.Info("weekly report sent successfully")
	}
}

// FormatAlerts renders alerts as one message, most severe first.
func FormatAlerts(alerts []models.Alert) string {
	var b strings.Builder
	b.WriteString("*Farm alerts*")
	for _, level := range []models.AlertLevel{models.AlertCritical, models.AlertWarning, models.AlertInfo} {
		for _, a := range alerts {
			if a.Level != level {
				continue
			}
			fmt.Fprintf(&b, "\n[%s] %s: %s", strings.ToUpper(string(a.Level)), a.Title, a.Message)
		}
	}
	return b.String()
}
