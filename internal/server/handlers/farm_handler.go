package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/dashpoultry/internal/domain/models"
	"github.com/mamadbah2/dashpoultry/internal/service/farm"
)

// FarmHandler exposes create, edit, delete and list for every record type.
type FarmHandler struct {
	svc    *farm.Service
	logger *zap.Logger
}

func NewFarmHandler(svc *farm.Service, logger *zap.Logger) *FarmHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FarmHandler{svc: svc, logger: logger}
}

// Register mounts the record routes on g.
func (h *FarmHandler) Register(g *gin.RouterGroup) {
	g.GET("/batches", h.ListBatches)
	g.POST("/batches", h.CreateBatch)
	g.GET("/batches/:id", h.GetBatch)
	g.PUT("/batches/:id", h.UpdateBatch)
	g.DELETE("/batches/:id", h.DeleteBatch)

	g.GET("/feed-water", h.ListFeedWater)
	g.POST("/feed-water", h.AddFeedWater)
	g.PUT("/feed-water/:batch/:date", h.UpdateFeedWater)
	g.DELETE("/feed-water/:batch/:date", h.DeleteFeedWater)

	g.GET("/mortality", h.ListMortality)
	g.POST("/mortality", h.AddMortality)
	g.PUT("/mortality", h.UpdateMortality)
	g.DELETE("/mortality", h.DeleteMortality)

	g.GET("/vaccinations", h.ListVaccinations)
	g.POST("/vaccinations", h.AddVaccination)
	g.PUT("/vaccinations", h.UpdateVaccination)
	g.DELETE("/vaccinations", h.DeleteVaccination)

	g.GET("/workers", h.ListWorkers)
	g.POST("/workers", h.CreateWorker)
	g.GET("/workers/:id", h.GetWorker)
	g.PUT("/workers/:id", h.UpdateWorker)
	g.DELETE("/workers/:id", h.DeleteWorker)

	g.GET("/expenses", h.ListExpenses)
	g.POST("/expenses", h.AddExpense)
	g.PUT("/expenses", h.UpdateExpense)
	g.DELETE("/expenses", h.DeleteExpense)

	g.GET("/revenue", h.ListRevenue)
	g.POST("/revenue", h.AddRevenue)
	g.DELETE("/revenue", h.DeleteRevenue)
}

// replacement is the body of an edit for records identified by their full tuple.
type replacement[T any] struct {
	Old T `json:"old"`
	New T `json:"new"`
}

func bind[T any](c *gin.Context) (T, bool) {
	var v T
	if err := c.ShouldBindJSON(&v); err != nil {
		badRequest(c, err)
		return v, false
	}
	return v, true
}

func respond(c *gin.Context, status int, body any, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	if body == nil {
		c.Status(status)
		return
	}
	c.JSON(status, body)
}

func (h *FarmHandler) ListBatches(c *gin.Context) {
	out, err := h.svc.ListBatches(c.Request.Context())
	respond(c, http.StatusOK, out, err)
}

func (h *FarmHandler) CreateBatch(c *gin.Context) {
	b, ok := bind[models.Batch](c)
	if !ok {
		return
	}
	respond(c, http.StatusCreated, b, h.svc.CreateBatch(c.Request.Context(), b))
}

func (h *FarmHandler) GetBatch(c *gin.Context) {
	b, err := h.svc.GetBatch(c.Request.Context(), c.Param("id"))
	respond(c, http.StatusOK, b, err)
}

func (h *FarmHandler) UpdateBatch(c *gin.Context) {
	b, ok := bind[models.Batch](c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, b, h.svc.UpdateBatch(c.Request.Context(), c.Param("id"), b))
}

func (h *FarmHandler) DeleteBatch(c *gin.Context) {
	respond(c, http.StatusNoContent, nil, h.svc.DeleteBatch(c.Request.Context(), c.Param("id")))
}

func (h *FarmHandler) ListFeedWater(c *gin.Context) {
	out, err := h.svc.ListFeedWater(c.Request.Context(), c.Query("batch_id"))
	respond(c, http.StatusOK, out, err)
}

func (h *FarmHandler) AddFeedWater(c *gin.Context) {
	e, ok := bind[models.FeedWaterEntry](c)
	if !ok {
		return
	}
	respond(c, http.StatusCreated, e, h.svc.AddFeedWater(c.Request.Context(), e))
}

func (h *FarmHandler) UpdateFeedWater(c *gin.Context) {
	day, err := models.ParseDate(c.Param("date"))
	if err != nil {
		badRequest(c, err)
		return
	}
	e, ok := bind[models.FeedWaterEntry](c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, e, h.svc.UpdateFeedWater(c.Request.Context(), c.Param("batch"), day, e))
}

func (h *FarmHandler) DeleteFeedWater(c *gin.Context) {
	day, err := models.ParseDate(c.Param("date"))
	if err != nil {
		badRequest(c, err)
		return
	}
	respond(c, http.StatusNoContent, nil, h.svc.DeleteFeedWater(c.Request.Context(), c.Param("batch"), day))
}

func (h *FarmHandler) ListMortality(c *gin.Context) {
	out, err := h.svc.ListMortality(c.Request.Context(), c.Query("batch_id"))
	respond(c, http.StatusOK, out, err)
}

func (h *FarmHandler) AddMortality(c *gin.Context) {
	m, ok := bind[models.MortalityRecord](c)
	if !ok {
		return
	}
	respond(c, http.StatusCreated, m, h.svc.AddMortality(c.Request.Context(), m))
}

func (h *FarmHandler) UpdateMortality(c *gin.Context) {
	r, ok := bind[replacement[models.MortalityRecord]](c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, r.New, h.svc.UpdateMortality(c.Request.Context(), r.Old, r.New))
}

func (h *FarmHandler) DeleteMortality(c *gin.Context) {
	m, ok := bind[models.MortalityRecord](c)
	if !ok {
		return
	}
	respond(c, http.StatusNoContent, nil, h.svc.DeleteMortality(c.Request.Context(), m))
}

func (h *FarmHandler) ListVaccinations(c *gin.Context) {
	out, err := h.svc.ListVaccinations(c.Request.Context(), c.Query("batch_id"))
	respond(c, http.StatusOK, out, err)
}

func (h *FarmHandler) AddVaccination(c *gin.Context) {
	v, ok := bind[models.VaccinationRecord](c)
	if !ok {
		return
	}
	respond(c, http.StatusCreated, v, h.svc.AddVaccination(c.Request.Context(), v))
}

func (h *FarmHandler) UpdateVaccination(c *gin.Context) {
	r, ok := bind[replacement[models.VaccinationRecord]](c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, r.New, h.svc.UpdateVaccination(c.Request.Context(), r.Old, r.New))
}

func (h *FarmHandler) DeleteVaccination(c *gin.Context) {
	v, ok := bind[models.VaccinationRecord](c)
	if !ok {
		return
	}
	respond(c, http.StatusNoContent, nil, h.svc.DeleteVaccination(c.Request.Context(), v))
}

func (h *FarmHandler) ListWorkers(c *gin.Context) {
	out, err := h.svc.ListWorkers(c.Request.Context())
	respond(c, http.StatusOK, out, err)
}

func (h *FarmHandler) CreateWorker(c *gin.Context) {
	w, ok := bind[models.Worker](c)
	if !ok {
		return
	}
	respond(c, http.StatusCreated, w, h.svc.CreateWorker(c.Request.Context(), w))
}

func (h *FarmHandler) GetWorker(c *gin.Context) {
	w, err := h.svc.GetWorker(c.Request.Context(), c.Param("id"))
	respond(c, http.StatusOK, w, err)
}

// UpdateWorker keeps the id from the path; worker ids cannot change.
func (h *FarmHandler) UpdateWorker(c *gin.Context) {
	w, ok := bind[models.Worker](c)
	if !ok {
		return
	}
	w.WorkerID = c.Param("id")
	respond(c, http.StatusOK, w, h.svc.UpdateWorker(c.Request.Context(), w))
}

func (h *FarmHandler) DeleteWorker(c *gin.Context) {
	respond(c, http.StatusNoContent, nil, h.svc.DeleteWorker(c.Request.Context(), c.Param("id")))
}

func (h *FarmHandler) ListExpenses(c *gin.Context) {
	out, err := h.svc.ListExpenses(c.Request.Context())
	respond(c, http.StatusOK, out, err)
}

func (h *FarmHandler) AddExpense(c *gin.Context) {
	e, ok := bind[models.Expense](c)
	if !ok {
		return
	}
	respond(c, http.StatusCreated, e, h.svc.AddExpense(c.Request.Context(), e))
}

func (h *FarmHandler) UpdateExpense(c *gin.Context) {
	r, ok := bind[replacement[models.Expense]](c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, r.New, h.svc.UpdateExpense(c.Request.Context(), r.Old, r.New))
}

func (h *FarmHandler) DeleteExpense(c *gin.Context) {
	e, ok := bind[models.Expense](c)
	if !ok {
		return
	}
	respond(c, http.StatusNoContent, nil, h.svc.DeleteExpense(c.Request.Context(), e))
}

func (h *FarmHandler) ListRevenue(c *gin.Context) {
	out, err := h.svc.ListRevenue(c.Request.Context(), c.Query("batch_id"))
	respond(c, http.StatusOK, out, err)
}

func (h *FarmHandler) AddRevenue(c *gin.Context) {
	r, ok := bind[models.Revenue](c)
	if !ok {
		return
	}
	respond(c, http.StatusCreated, r, h.svc.AddRevenue(c.Request.Context(), r))
}

func (h *FarmHandler) DeleteRevenue(c *gin.Context) {
	r, ok := bind[models.Revenue](c)
	if !ok {
		return
	}
	respond(c, http.StatusNoContent, nil, h.svc.DeleteRevenue(c.Request.Context(), r))
}
