package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mamadbah2/dashpoultry/internal/backup"
	"github.com/mamadbah2/dashpoultry/internal/eventloop"
	"github.com/mamadbah2/dashpoultry/internal/metrics"
	"github.com/mamadbah2/dashpoultry/internal/repository/mongodb"
	"github.com/mamadbah2/dashpoultry/internal/repository/sheets"
	"github.com/mamadbah2/dashpoultry/internal/repository/sqlite"
	"github.com/mamadbah2/dashpoultry/internal/scheduler"
	"github.com/mamadbah2/dashpoultry/internal/server/handlers"
	"github.com/mamadbah2/dashpoultry/internal/server/router"
	"github.com/mamadbah2/dashpoultry/internal/service/alerts"
	commandsvc "github.com/mamadbah2/dashpoultry/internal/service/commands"
	"github.com/mamadbah2/dashpoultry/internal/service/dashboard"
	"github.com/mamadbah2/dashpoultry/internal/service/farm"
	"github.com/mamadbah2/dashpoultry/internal/service/importer"
	reportingsvc "github.com/mamadbah2/dashpoultry/internal/service/reporting"
	"github.com/mamadbah2/dashpoultry/internal/service/shell"
	whatsappsvc "github.com/mamadbah2/dashpoultry/internal/service/whatsapp"
	"github.com/mamadbah2/dashpoultry/internal/statebus"
	whatsappclient "github.com/mamadbah2/dashpoultry/pkg/clients/whatsapp"
)

// ServeCmd runs the long-lived process.
type ServeCmd struct {
	NoScheduler bool `help:"Do not start the cron jobs."`
}

func (s *ServeCmd) Run(g *Global) error {
	cfg, log := g.Config, g.Logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.Open(ctx, cfg.Database.Path, cfg.Database.EncryptionKey, log.Named("repo.sqlite"))
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("failed to close database", zap.Error(err))
		}
	}()
	if err := seedAdmin(ctx, store, g); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(reg)

	// The loop outlives the HTTP server so in-flight requests can finish during shutdown.
	loopCtx, stopLoop := context.WithCancel(context.Background())
	loop := eventloop.New(log.Named("eventloop"))
	go loop.Run(loopCtx)
	defer func() {
		stopLoop()
		<-loop.Done()
	}()

	bus := statebus.New(store, log.Named("statebus"),
		statebus.WithRecorder(recorder),
		statebus.WithMortalityCost(cfg.Database.MortalityCostPerBird),
	)
	nav := statebus.NewNavigator(log.Named("navigator"), nil)
	farmSvc := farm.NewService(store, bus, loop, recorder, log.Named("svc.farm"))
	view := dashboard.NewView(bus, log.Named("svc.dashboard"))
	appShell := shell.New(nav, log.Named("svc.shell"))

	thresholds := alerts.DefaultThresholds()
	if cfg.Alerts.ThresholdsFile != "" {
		if thresholds, err = alerts.LoadThresholds(cfg.Alerts.ThresholdsFile); err != nil {
			return err
		}
	}
	checker := alerts.NewChecker(store, thresholds, recorder, log.Named("svc.alerts"))
	reports := reportingsvc.NewService(store, log.Named("svc.reporting"))
	imports := importer.NewManager(importer.NewWorker(store, log.Named("svc.importer")), loop, bus, recorder, log.Named("svc.imports"))

	if err := loop.Call(ctx, func() error {
		if _, err := appShell.Attach(); err != nil {
			return err
		}
		return view.Attach(ctx)
	}); err != nil {
		return fmt.Errorf("attach views: %w", err)
	}

	deps := scheduler.Deps{Loop: loop, Alerts: checker, Reports: reports}
	var (
		rangeReader importer.RangeReader
		archive     handlers.ReportArchive
		messaging   whatsappsvc.MessagingService
		putter      backup.ObjectPutter
	)

	if cfg.Sheets.Enabled() {
		repo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, log.Named("repo.sheets"))
		if err != nil {
			return err
		}
		rangeReader, deps.Sheet = repo, repo
		log.Info("google sheets enabled")
	}

	if cfg.MongoDB.Enabled() {
		repo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			return err
		}
		defer func() {
			if err := repo.Close(context.Background()); err != nil {
				log.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		archive, deps.Archiver = repo, repo
		log.Info("mongodb report archive enabled")
	}

	if cfg.WhatsApp.Enabled() {
		dispatcher := commandsvc.NewService(farmSvc, log.Named("svc.commands"))
		svc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsappclient.NewClient(cfg.WhatsApp), dispatcher, log.Named("svc.whatsapp"))
		messaging = svc
		if cfg.WhatsApp.ManagerID != "" {
			deps.Notifier = svc
		}
		log.Info("whatsapp channel enabled")
	} else {
		log.Warn("whatsapp token missing, webhook and notifications disabled")
	}

	if cfg.Backup.S3Enabled() {
		client, err := backup.NewS3Client(ctx, cfg.Backup)
		if err != nil {
			return err
		}
		putter = client
		log.Info("s3 backup copies enabled", zap.String("bucket", cfg.Backup.S3Bucket))
	}

	engine := router.New(router.Handlers{
		Auth: handlers.NewAuthHandler(farmSvc, log.Named("handlers.auth")),
		Farm: handlers.NewFarmHandler(farmSvc, log.Named("handlers.farm")),
		State: handlers.NewStateHandler(handlers.StateDeps{
			Farm:      farmSvc,
			Loop:      loop,
			Dashboard: view,
			Shell:     appShell,
			Navigator: nav,
			Reports:   reports,
			Archive:   archive,
		}, log.Named("handlers.state")),
		Ops: handlers.NewOpsHandler(handlers.OpsDeps{
			Loop:      loop,
			Imports:   imports,
			Alerts:    checker,
			Backups:   backup.NewService(store, putter, cfg.Backup, log.Named("backup")),
			BackupDir: cfg.Backup.Dir,
			Sheets:    rangeReader,
		}, log.Named("handlers.ops")),
		Webhook: handlers.NewWebhookHandler(messaging, log.Named("handlers.whatsapp")),
		Metrics: metrics.HTTPHandler(reg),
	}, cfg.Server.GinMode, log.Named("router"))

	if !s.NoScheduler {
		sched := scheduler.NewScheduler(*cfg, deps, log.Named("scheduler"))
		if err := sched.Start(); err != nil {
			return err
		}
		defer sched.Stop()
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	return nil
}

func seedAdmin(ctx context.Context, store *sqlite.Store, g *Global) error {
	created, err := store.SeedAdmin(ctx, g.Config.Admin.Username, g.Config.Admin.Password)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		g.Logger.Info("admin account created", zap.String("username", g.Config.Admin.Username))
		if g.Config.Admin.UsesDefaultPassword() {
			g.Logger.Warn("admin account uses the default password, change it with the passwd command")
		}
	}
	return nil
}
