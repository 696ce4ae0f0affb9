package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/dashpoultry/internal/backup"
	"github.com/mamadbah2/dashpoultry/internal/domain/models"
	"github.com/mamadbah2/dashpoultry/internal/service/alerts"
	"github.com/mamadbah2/dashpoultry/internal/service/importer"
)

// OpsHandler serves imports, alerts and backups.
type OpsHandler struct {
	loop      Executor
	imports   *importer.Manager
	checker   *alerts.Checker
	backups   *backup.Service
	backupDir string
	sheets    importer.RangeReader
	logger    *zap.Logger
}

// OpsDeps groups the collaborators of OpsHandler. Sheets may be nil.
type OpsDeps struct {
	Loop      Executor
	Imports   *importer.Manager
	Alerts    *alerts.Checker
	Backups   *backup.Service
	BackupDir string
	Sheets    importer.RangeReader
}

func NewOpsHandler(deps OpsDeps, logger *zap.Logger) *OpsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpsHandler{
		loop:      deps.Loop,
		imports:   deps.Imports,
		checker:   deps.Alerts,
		backups:   deps.Backups,
		backupDir: deps.BackupDir,
		sheets:    deps.Sheets,
		logger:    logger,
	}
}

func (h *OpsHandler) Register(g *gin.RouterGroup) {
	g.GET("/imports", h.ListImports)
	g.POST("/imports", h.StartImport)
	g.GET("/imports/:id", h.ImportStatus)
	g.GET("/imports/fields/:table", h.ImportFields)

	g.GET("/alerts", h.Alerts)
	g.POST("/alerts/check", h.CheckAlerts)
	g.GET("/alerts/thresholds", h.Thresholds)
	g.PUT("/alerts/thresholds", h.SetThresholds)

	g.GET("/backups", h.ListBackups)
	g.POST("/backups", h.CreateBackup)
}

type sheetImportRequest struct {
	Table          string            `json:"table" binding:"required"`
	SheetRange     string            `json:"sheet_range" binding:"required"`
	Mapping        map[string]string `json:"mapping" binding:"required"`
	SkipDuplicates bool              `json:"skip_duplicates"`
}

// StartImport accepts a multipart upload (fields table, file, mapping as JSON, skip_duplicates)
// or a JSON body naming a Google Sheets range.
func (h *OpsHandler) StartImport(c *gin.Context) {
	var (
		job importer.Job
		err error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		job, err = h.uploadJob(c)
	} else {
		job, err = h.sheetJob(c)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	id, err := launchImport(c.Request.Context(), h.loop, h.imports.Start, job)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"id": id})
}

// launchImport runs start on the loop. Exactly one side owns job.Cleanup: start when the
// task runs, the caller when ctx ends before the loop picks the task up.
func launchImport(ctx context.Context, loop Executor, start func(importer.Job) (string, error), job importer.Job) (string, error) {
	var (
		id      string
		claimed atomic.Bool
	)
	err := loop.Call(ctx, func() error {
		if !claimed.CompareAndSwap(false, true) {
			return ctx.Err()
		}
		var err error
		id, err = start(job)
		return err
	})
	if err != nil {
		if claimed.CompareAndSwap(false, true) && job.Cleanup != nil {
			job.Cleanup()
		}
		return "", err
	}
	return id, nil
}

func (h *OpsHandler) uploadJob(c *gin.Context) (importer.Job, error) {
	table, err := importer.ParseTable(c.PostForm("table"))
	if err != nil {
		return importer.Job{}, err
	}
	mapping := map[string]string{}
	if err := json.Unmarshal([]byte(c.PostForm("mapping")), &mapping); err != nil {
		return importer.Job{}, fmt.Errorf("%w: mapping must be a JSON object: %v", importer.ErrInvalidJob, err)
	}
	file, err := c.FormFile("file")
	if err != nil {
		return importer.Job{}, fmt.Errorf("%w: file is required", importer.ErrInvalidJob)
	}

	dir, err := os.MkdirTemp("", "dashpoultry-import-")
	if err != nil {
		return importer.Job{}, fmt.Errorf("create upload dir: %w", err)
	}
	dest := filepath.Join(dir, filepath.Base(file.Filename))
	cleanup := func() { _ = os.RemoveAll(dir) }
	if err := c.SaveUploadedFile(file, dest); err != nil {
		cleanup()
		return importer.Job{}, fmt.Errorf("save upload: %w", err)
	}

	src, err := importer.SourceForFile(dest, c.PostForm("sheet"))
	if err != nil {
		cleanup()
		return importer.Job{}, err
	}
	return importer.Job{
		Table:          table,
		Source:         src,
		Mapping:        mapping,
		SkipDuplicates: c.PostForm("skip_duplicates") == "true",
		Cleanup:        cleanup,
	}, nil
}

func (h *OpsHandler) sheetJob(c *gin.Context) (importer.Job, error) {
	var req sheetImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return importer.Job{}, fmt.Errorf("%w: %v", importer.ErrInvalidJob, err)
	}
	if h.sheets == nil {
		return importer.Job{}, fmt.Errorf("google sheets: %w", ErrChannelDisabled)
	}
	table, err := importer.ParseTable(req.Table)
	if err != nil {
		return importer.Job{}, err
	}
	return importer.Job{
		Table:          table,
		Source:         importer.SheetsSource{Reader: h.sheets, Range: req.SheetRange},
		Mapping:        req.Mapping,
		SkipDuplicates: req.SkipDuplicates,
	}, nil
}

func (h *OpsHandler) ImportStatus(c *gin.Context) {
	var st importer.JobStatus
	err := h.loop.Call(c.Request.Context(), func() error {
		var err error
		st, err = h.imports.Status(c.Param("id"))
		return err
	})
	respond(c, http.StatusOK, st, err)
}

func (h *OpsHandler) ListImports(c *gin.Context) {
	var jobs []importer.JobStatus
	err := h.loop.Call(c.Request.Context(), func() error {
		jobs = h.imports.Jobs()
		return nil
	})
	respond(c, http.StatusOK, jobs, err)
}

func (h *OpsHandler) ImportFields(c *gin.Context) {
	table, err := importer.ParseTable(c.Param("table"))
	if err != nil {
		writeError(c, err)
		return
	}
	required, optional := table.Fields()
	c.JSON(http.StatusOK, gin.H{"required": required, "optional": optional})
}

func (h *OpsHandler) Alerts(c *gin.Context) {
	var out []models.Alert
	err := h.loop.Call(c.Request.Context(), func() error {
		out = h.checker.History()
		return nil
	})
	respond(c, http.StatusOK, out, err)
}

func (h *OpsHandler) CheckAlerts(c *gin.Context) {
	var out []models.Alert
	err := h.loop.Call(c.Request.Context(), func() error {
		var err error
		out, err = h.checker.Check(c.Request.Context())
		return err
	})
	respond(c, http.StatusOK, out, err)
}

func (h *OpsHandler) Thresholds(c *gin.Context) {
	var out alerts.Thresholds
	err := h.loop.Call(c.Request.Context(), func() error {
		out = h.checker.Thresholds()
		return nil
	})
	respond(c, http.StatusOK, out, err)
}

// SetThresholds applies a {"name": value} object, all or nothing.
func (h *OpsHandler) SetThresholds(c *gin.Context) {
	updates, ok := bind[map[string]float64](c)
	if !ok {
		return
	}
	var out alerts.Thresholds
	err := h.loop.Call(c.Request.Context(), func() error {
		before := h.checker.Thresholds()
		for name, value := range updates {
			if err := h.checker.SetThreshold(name, value); err != nil {
				h.restore(before)
				return err
			}
		}
		out = h.checker.Thresholds()
		return nil
	})
	respond(c, http.StatusOK, out, err)
}

func (h *OpsHandler) restore(t alerts.Thresholds) {
	_ = h.checker.SetThreshold("mortality_rate", t.MortalityRate)
	_ = h.checker.SetThreshold("feed_low", t.FeedLowKg)
	_ = h.checker.SetThreshold("water_low", t.WaterLowL)
	_ = h.checker.SetThreshold("vaccination_due", float64(t.VaccinationDueDays))
	_ = h.checker.SetThreshold("batch_end", float64(t.BatchEndDays))
	_ = h.checker.SetThreshold("expense_high", t.ExpenseHigh)
}

func (h *OpsHandler) ListBackups(c *gin.Context) {
	out, err := backup.List(h.backupDir)
	respond(c, http.StatusOK, out, err)
}

func (h *OpsHandler) CreateBackup(c *gin.Context) {
	info, err := h.backups.Create(c.Request.Context(), h.backupDir)
	respond(c, http.StatusCreated, info, err)
}
