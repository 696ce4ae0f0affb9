package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/dashpoultry/internal/domain/models"
	"github.com/mamadbah2/dashpoultry/internal/service/dashboard"
	"github.com/mamadbah2/dashpoultry/internal/service/farm"
	"github.com/mamadbah2/dashpoultry/internal/service/reporting"
	"github.com/mamadbah2/dashpoultry/internal/service/shell"
	"github.com/mamadbah2/dashpoultry/internal/statebus"
)

// Executor runs fn on the event loop and waits.
type Executor interface {
	Call(ctx context.Context, fn func() error) error
}

// ReportArchive reads archived daily reports.
type ReportArchive interface {
	RecentDailyReports(ctx context.Context, limit int64) ([]models.DailyReport, error)
}

// StateHandler serves the read models: summaries, dashboard, navigation and reports.
type StateHandler struct {
	farm      *farm.Service
	loop      Executor
	dashboard *dashboard.View
	shell     *shell.Shell
	nav       *statebus.Navigator
	reports   *reporting.Service
	archive   ReportArchive
	logger    *zap.Logger
}

// StateDeps groups the collaborators of StateHandler. Archive may be nil.
type StateDeps struct {
	Farm      *farm.Service
	Loop      Executor
	Dashboard *dashboard.View
	Shell     *shell.Shell
	Navigator *statebus.Navigator
	Reports   *reporting.Service
	Archive   ReportArchive
}

func NewStateHandler(deps StateDeps, logger *zap.Logger) *StateHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StateHandler{
		farm:      deps.Farm,
		loop:      deps.Loop,
		dashboard: deps.Dashboard,
		shell:     deps.Shell,
		nav:       deps.Navigator,
		reports:   deps.Reports,
		archive:   deps.Archive,
		logger:    logger,
	}
}

func (h *StateHandler) Register(g *gin.RouterGroup) {
	g.GET("/summaries", h.Summaries)
	g.GET("/dashboard", h.Dashboard)
	g.GET("/analytics", h.Analytics)
	g.GET("/lookups", h.Lookups)

	g.GET("/navigation", h.Navigation)
	g.POST("/navigation", h.Navigate)
	g.GET("/navigation/context/:module", h.NavigationContext)
	g.DELETE("/navigation/context", h.ClearNavigationContext)

	g.GET("/reports/daily", h.DailyReport)
	g.GET("/reports/weekly", h.WeeklyReport)
	g.GET("/reports/archive", h.ArchivedReports)
}

func (h *StateHandler) Summaries(c *gin.Context) {
	out, err := h.farm.Summaries(c.Request.Context())
	respond(c, http.StatusOK, out, err)
}

func (h *StateHandler) Dashboard(c *gin.Context) {
	var snap dashboard.Snapshot
	err := h.loop.Call(c.Request.Context(), func() error {
		snap = h.dashboard.Snapshot()
		return nil
	})
	respond(c, http.StatusOK, snap, err)
}

func (h *StateHandler) Analytics(c *gin.Context) {
	out, err := h.farm.Analytics(c.Request.Context())
	respond(c, http.StatusOK, out, err)
}

func (h *StateHandler) Lookups(c *gin.Context) {
	out, err := h.farm.Lookups(c.Request.Context())
	respond(c, http.StatusOK, out, err)
}

type navigationView struct {
	State   shell.State                `json:"state"`
	Modules []string                   `json:"modules"`
	History []models.NavigationRequest `json:"history"`
}

func (h *StateHandler) Navigation(c *gin.Context) {
	var view navigationView
	err := h.loop.Call(c.Request.Context(), func() error {
		view = navigationView{State: h.shell.State(), Modules: shell.Modules, History: h.shell.History()}
		return nil
	})
	respond(c, http.StatusOK, view, err)
}

type navigateRequest struct {
	Module  string            `json:"module"`
	Context map[string]string `json:"context"`
}

func (h *StateHandler) Navigate(c *gin.Context) {
	req, ok := bind[navigateRequest](c)
	if !ok {
		return
	}
	var st shell.State
	err := h.loop.Call(c.Request.Context(), func() error {
		if err := h.shell.Open(req.Module, req.Context); err != nil {
			return err
		}
		st = h.shell.State()
		return nil
	})
	respond(c, http.StatusOK, st, err)
}

func (h *StateHandler) NavigationContext(c *gin.Context) {
	var (
		ctx   map[string]string
		found bool
	)
	err := h.loop.Call(c.Request.Context(), func() error {
		ctx, found = h.nav.Context(c.Param("module"))
		return nil
	})
	if err != nil {
		writeError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "no context for module"})
		return
	}
	c.JSON(http.StatusOK, ctx)
}

func (h *StateHandler) ClearNavigationContext(c *gin.Context) {
	err := h.loop.Call(c.Request.Context(), func() error {
		h.nav.ClearContext(c.Query("module"))
		return nil
	})
	respond(c, http.StatusNoContent, nil, err)
}

// DailyReport builds the roll-up for ?date= (today by default).
func (h *StateHandler) DailyReport(c *gin.Context) {
	day := h.farm.Today()
	if raw := c.Query("date"); raw != "" {
		parsed, err := models.ParseDate(raw)
		if err != nil {
			badRequest(c, err)
			return
		}
		day = parsed
	}

	var report models.DailyReport
	err := h.loop.Call(c.Request.Context(), func() error {
		var err error
		report, err = h.reports.GenerateDailyReport(c.Request.Context(), day)
		return err
	})
	respond(c, http.StatusOK, report, err)
}

func (h *StateHandler) WeeklyReport(c *gin.Context) {
	var text string
	err := h.loop.Call(c.Request.Context(), func() error {
		var err error
		text, err = h.reports.GenerateWeeklyReport(c.Request.Context(), time.Now())
		return err
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.String(http.StatusOK, text)
}

func (h *StateHandler) ArchivedReports(c *gin.Context) {
	if h.archive == nil {
		writeError(c, ErrChannelDisabled)
		return
	}
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "30"), 10, 64)
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}
	out, err := h.archive.RecentDailyReports(c.Request.Context(), limit)
	respond(c, http.StatusOK, out, err)
}
