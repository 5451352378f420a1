package qc

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/washbay/washbay-api/internal/handler"
	"github.com/washbay/washbay-api/internal/model"
	"github.com/washbay/washbay-api/internal/service/qc"
)

type Handler struct {
	handler.BaseHandler
	svc *qc.Service
}

func NewHandler(base handler.BaseHandler, svc *qc.Service) *Handler {
	return &Handler{BaseHandler: base, svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	items := r.Group("/qc/checklist-items")
	{
		items.POST("", h.CreateChecklistItem)
		items.GET("", h.ListChecklistItems)
		items.DELETE("/:id", h.DeleteChecklistItem)
	}
	jobs := r.Group("/jobs/:id/qc")
	{
		jobs.POST("/start", h.StartQC)
		jobs.GET("", h.GetRecord)
		jobs.PATCH("/responses", h.UpdateResponses)
		jobs.POST("/finish", h.FinishQC)
	}
}

func (h *Handler) CreateChecklistItem(c *gin.Context) {
	var req model.CreateQCChecklistItemRequest
	if !h.Bind(c, &req) {
		return
	}

	item, err := h.svc.CreateChecklistItem(c.Request.Context(), h.TenantID(c), &req)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(item))
}

func (h *Handler) ListChecklistItems(c *gin.Context) {
	activeOnly := c.DefaultQuery("active", "true") == "true"
	items, err := h.svc.ListChecklistItems(c.Request.Context(), h.TenantID(c), activeOnly)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(items))
}

func (h *Handler) DeleteChecklistItem(c *gin.Context) {
	id, ok := h.Param(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteChecklistItem(c.Request.Context(), h.TenantID(c), id); err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) StartQC(c *gin.Context) {
	jobID, ok := h.Param(c, "id")
	if !ok {
		return
	}

	record, err := h.svc.StartQC(c.Request.Context(), h.TenantID(c), jobID, h.UserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(record))
}

func (h *Handler) GetRecord(c *gin.Context) {
	jobID, ok := h.Param(c, "id")
	if !ok {
		return
	}

	record, err := h.svc.GetRecord(c.Request.Context(), h.TenantID(c), jobID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(record))
}

func (h *Handler) UpdateResponses(c *gin.Context) {
	jobID, ok := h.Param(c, "id")
	if !ok {
		return
	}
	var req model.UpdateQCResponsesRequest
	if !h.Bind(c, &req) {
		return
	}

	record, err := h.svc.UpdateResponses(c.Request.Context(), h.TenantID(c), jobID, &req)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(record))
}

func (h *Handler) FinishQC(c *gin.Context) {
	jobID, ok := h.Param(c, "id")
	if !ok {
		return
	}
	var req model.FinishQCRequest
	if !h.Bind(c, &req) {
		return
	}

	record, err := h.svc.FinishQC(c.Request.Context(), h.TenantID(c), jobID, &req)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(record))
}
