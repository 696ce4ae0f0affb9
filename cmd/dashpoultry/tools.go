package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/dashpoultry/internal/backup"
	"github.com/mamadbah2/dashpoultry/internal/eventloop"
	"github.com/mamadbah2/dashpoultry/internal/repository/sheets"
	"github.com/mamadbah2/dashpoultry/internal/repository/sqlite"
	"github.com/mamadbah2/dashpoultry/internal/service/farm"
	"github.com/mamadbah2/dashpoultry/internal/service/importer"
	"github.com/mamadbah2/dashpoultry/internal/statebus"
)

func openStore(ctx context.Context, g *Global) (*sqlite.Store, error) {
	return sqlite.Open(ctx, g.Config.Database.Path, g.Config.Database.EncryptionKey, g.Logger.Named("repo.sqlite"))
}

type InitCmd struct {
	Sample bool `help:"Fill empty tables with demonstration rows."`
}

func (c *InitCmd) Run(g *Global) error {
	ctx := context.Background()
	store, err := openStore(ctx, g)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := seedAdmin(ctx, store, g); err != nil {
		return err
	}
	if c.Sample {
		tables, err := store.SeedSampleData(ctx)
		if err != nil {
			return err
		}
		g.Logger.Info("sample data loaded", zap.Strings("tables", tables))
	}
	fmt.Printf("database ready at %s\n", store.Path())
	return nil
}

type ImportCmd struct {
	Table          string            `short:"t" required:"" help:"Target table: batches, feed_water, vaccinations, mortality, workers, expenses or revenue."`
	File           string            `short:"f" type:"existingfile" xor:"source" required:"" help:"CSV or XLSX file."`
	SheetRange     string            `xor:"source" required:"" help:"Google Sheets range such as Batches!A:F."`
	Map            map[string]string `short:"m" required:"" help:"Field to column mapping, e.g. batch_id=Batch;breed=Breed."`
	Sheet          string            `help:"Worksheet name for XLSX files. Defaults to the first sheet."`
	SkipDuplicates bool              `help:"Skip rows whose key already exists instead of reporting them."`
}

func (c *ImportCmd) source(ctx context.Context, g *Global) (importer.Source, error) {
	if c.File != "" {
		return importer.SourceForFile(c.File, c.Sheet)
	}
	repo, err := sheets.NewGoogleSheetRepository(ctx, g.Config.Sheets, g.Logger.Named("repo.sheets"))
	if err != nil {
		return nil, err
	}
	return importer.SheetsSource{Reader: repo, Range: c.SheetRange}, nil
}

func (c *ImportCmd) Run(g *Global) error {
	ctx := context.Background()
	table, err := importer.ParseTable(c.Table)
	if err != nil {
		return err
	}
	src, err := c.source(ctx, g)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, g)
	if err != nil {
		return err
	}
	defer store.Close()

	updates := make(chan importer.Progress)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range updates {
			if p.Message != "" {
				fmt.Println(p.Message)
			} else {
				fmt.Printf("%3d%% %s\n", p.Percent, p.Status)
			}
		}
	}()

	worker := importer.NewWorker(store, g.Logger.Named("importer"))
	res := worker.Run(ctx, importer.Job{Table: table, Source: src, Mapping: c.Map, SkipDuplicates: c.SkipDuplicates}, updates)
	close(updates)
	<-done

	for _, msg := range res.Errors {
		fmt.Println("  " + msg)
	}
	if res.Imported == 0 && res.Failed > 0 {
		return fmt.Errorf("no rows imported from %s", src.Name())
	}
	return nil
}

type SummaryCmd struct{}

func (c *SummaryCmd) Run(g *Global) error {
	ctx := context.Background()
	store, err := openStore(ctx, g)
	if err != nil {
		return err
	}
	defer store.Close()

	bus := statebus.New(store, g.Logger.Named("statebus"), statebus.WithMortalityCost(g.Config.Database.MortalityCostPerBird))
	sums, err := bus.Summaries(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(sums)
}

type BackupCmd struct {
	Dir  string `help:"Backup directory. Defaults to BACKUP_DIR."`
	List bool   `help:"List existing backups instead of creating one."`
}

func (c *BackupCmd) Run(g *Global) error {
	ctx := context.Background()
	dir := c.Dir
	if dir == "" {
		dir = g.Config.Backup.Dir
	}

	if c.List {
		infos, err := backup.List(dir)
		if err != nil {
			return err
		}
		for _, info := range infos {
			fmt.Printf("%s  %s  %d bytes\n", info.CreatedAt.Format("2006-01-02 15:04:05"), info.Path, info.Size)
		}
		return nil
	}

	store, err := openStore(ctx, g)
	if err != nil {
		return err
	}
	defer store.Close()

	var putter backup.ObjectPutter
	if g.Config.Backup.S3Enabled() {
		client, err := backup.NewS3Client(ctx, g.Config.Backup)
		if err != nil {
			return err
		}
		putter = client
	}

	info, err := backup.NewService(store, putter, g.Config.Backup, g.Logger.Named("backup")).Create(ctx, dir)
	if err != nil {
		return err
	}
	fmt.Println(info.Path)
	if info.Uploaded != "" {
		fmt.Println(info.Uploaded)
	}
	return nil
}

type RestoreCmd struct {
	File string `arg:"" type:"existingfile" help:"Backup file to restore."`
	Yes  bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *RestoreCmd) Run(g *Global) error {
	if !c.Yes {
		fmt.Printf("Replace %s with %s? [y/N] ", g.Config.Database.Path, c.File)
		var answer string
		_, _ = fmt.Scanln(&answer)
		if !strings.EqualFold(strings.TrimSpace(answer), "y") {
			return fmt.Errorf("restore cancelled")
		}
	}
	if err := backup.Restore(c.File, g.Config.Database.Path); err != nil {
		return err
	}
	g.Logger.Info("database restored", zap.String("from", c.File), zap.String("to", g.Config.Database.Path))
	return nil
}

type PasswdCmd struct {
	Password string `arg:"" help:"New admin password."`
}

func (c *PasswdCmd) Run(g *Global) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openStore(ctx, g)
	if err != nil {
		return err
	}
	defer store.Close()

	loop := eventloop.New(g.Logger.Named("eventloop"))
	go loop.Run(ctx)

	svc := farm.NewService(store, statebus.New(store, nil), loop, nil, g.Logger.Named("svc.farm"))
	if err := seedAdmin(ctx, store, g); err != nil {
		return err
	}
	if err := svc.ResetPassword(ctx, g.Config.Admin.Username, c.Password); err != nil {
		return err
	}
	fmt.Printf("password updated for %s\n", g.Config.Admin.Username)
	return nil
}
