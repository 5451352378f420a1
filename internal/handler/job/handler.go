package job

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/washbay/washbay-api/internal/handler"
	"github.com/washbay/washbay-api/internal/model"
	"github.com/washbay/washbay-api/internal/repository"
	"github.com/washbay/washbay-api/internal/service/job"
)

type Handler struct {
	handler.BaseHandler
	svc *job.Service
}

func NewHandler(base handler.BaseHandler, svc *job.Service) *Handler {
	return &Handler{BaseHandler: base, svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	jobs := r.Group("/jobs")
	{
		jobs.POST("", h.Create)
		jobs.GET("", h.List)
		jobs.GET("/:id", h.Get)
		jobs.POST("/:id/items", h.AddItem)
		jobs.POST("/:id/cancel", h.Cancel)
		jobs.GET("/:id/tasks", h.ListTasks)
	}
	tasks := r.Group("/tasks")
	{
		tasks.POST("", h.AddTask)
		tasks.POST("/:id/start", h.StartTask)
		tasks.POST("/:id/complete", h.CompleteTask)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateJobRequest
	if !h.Bind(c, &req) {
		return
	}

	result, err := h.svc.Create(c.Request.Context(), h.TenantID(c), &req)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(result))
}

func (h *Handler) List(c *gin.Context) {
	filters := repository.JobFilters{
		Status: model.JobStatus(c.Query("status")),
	}
	if raw := c.Query("customer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid customer_id"))
			return
		}
		filters.CustomerID = id
	}

	p := h.Pagination(c)
	jobs, err := h.svc.List(c.Request.Context(), h.TenantID(c), filters, p)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewListResponse(jobs, p.Page, p.PageSize))
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := h.Param(c, "id")
	if !ok {
		return
	}

	result, err := h.svc.Get(c.Request.Context(), h.TenantID(c), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) AddItem(c *gin.Context) {
	id, ok := h.Param(c, "id")
	if !ok {
		return
	}
	var req model.AddJobItemRequest
	if !h.Bind(c, &req) {
		return
	}

	item, err := h.svc.AddItem(c.Request.Context(), h.TenantID(c), id, &req)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(item))
}

func (h *Handler) Cancel(c *gin.Context) {
	id, ok := h.Param(c, "id")
	if !ok {
		return
	}

	result, err := h.svc.Cancel(c.Request.Context(), h.TenantID(c), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) AddTask(c *gin.Context) {
	var req model.CreateJobTaskRequest
	if !h.Bind(c, &req) {
		return
	}

	task, err := h.svc.AddTask(c.Request.Context(), h.TenantID(c), &req)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(task))
}

func (h *Handler) StartTask(c *gin.Context) {
	id, ok := h.Param(c, "id")
	if !ok {
		return
	}

	task, err := h.svc.StartTask(c.Request.Context(), h.TenantID(c), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(task))
}

func (h *Handler) CompleteTask(c *gin.Context) {
	id, ok := h.Param(c, "id")
	if !ok {
		return
	}

	task, err := h.svc.CompleteTask(c.Request.Context(), h.TenantID(c), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(task))
}

func (h *Handler) ListTasks(c *gin.Context) {
	id, ok := h.Param(c, "id")
	if !ok {
		return
	}

	tasks, err := h.svc.ListTasks(c.Request.Context(), h.TenantID(c), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(tasks))
}
