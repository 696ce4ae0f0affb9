package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/mamadbah2/dashpoultry/internal/config"
	"github.com/mamadbah2/dashpoultry/pkg/logger"
)

// Global carries the loaded configuration into every command.
type Global struct {
	Config *config.Config
	Logger *zap.Logger
}

// CLI is the command surface of the dashpoultry binary.
type CLI struct {
	EnvFile string `short:"e" help:"Environment file to load before reading configuration." type:"path"`

	Serve   ServeCmd   `cmd:"" default:"1" help:"Run the HTTP server, event loop and scheduler."`
	Init    InitCmd    `cmd:"" help:"Create the database schema and the admin account."`
	Import  ImportCmd  `cmd:"" help:"Import rows from a CSV or XLSX file into a table."`
	Summary SummaryCmd `cmd:"" help:"Print the dashboard summaries as JSON."`
	Backup  BackupCmd  `cmd:"" help:"Snapshot the database into the backup directory."`
	Restore RestoreCmd `cmd:"" help:"Replace the database with a backup file. Stop the server first."`
	Passwd  PasswdCmd  `cmd:"" help:"Reset the admin password."`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("dashpoultry"),
		kong.Description("Poultry farm records, dashboards and reports."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load(cli.EnvFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration:", err)
		os.Exit(1)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level, cfg.Log.Format))
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	err = kctx.Run(&Global{Config: cfg, Logger: baseLogger})
	if err != nil {
		baseLogger.Error("command failed", zap.String("command", kctx.Command()), zap.Error(err))
		_ = baseLogger.Sync()
		os.Exit(1)
	}
}
