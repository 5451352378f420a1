package visit

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/washbay/washbay-api/internal/handler"
	"github.com/washbay/washbay-api/internal/model"
	"github.com/washbay/washbay-api/internal/service/visit"
)

type Handler struct {
	handler.BaseHandler
	svc *visit.Service
}

func NewHandler(base handler.BaseHandler, svc *visit.Service) *Handler {
	return &Handler{BaseHandler: base, svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	visits := r.Group("/visits")
	{
		visits.POST("", h.Create)
		visits.GET("", h.List)
		visits.GET("/:id", h.Get)
		visits.PATCH("/:id", h.Update)
		visits.POST("/:id/services", h.AddServices)
		visits.POST("/:id/payment", h.ProcessPayment)
		visits.POST("/:id/convert-to-customer", h.ConvertToCustomer)
		visits.POST("/:id/link-customer", h.LinkCustomer)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateVisitRequest
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
	p := h.Pagination(c)
	visits, err := h.svc.List(c.Request.Context(), h.TenantID(c), model.VisitStatus(c.Query("status")), p)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewListResponse(visits, p.Page, p.PageSize))
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

func (h *Handler) Update(c *gin.Context) {
	id, ok := h.Param(c, "id")
	if !ok {
		return
	}
	var req model.UpdateVisitRequest
	if !h.Bind(c, &req) {
		return
	}

	result, err := h.svc.UpdateStatus(c.Request.Context(), h.TenantID(c), id, &req)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) AddServices(c *gin.Context) {
	id, ok := h.Param(c, "id")
	if !ok {
		return
	}
	var req model.AddVisitServicesRequest
	if !h.Bind(c, &req) {
		return
	}

	result, err := h.svc.AddServices(c.Request.Context(), h.TenantID(c), id, &req)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) ProcessPayment(c *gin.Context) {
	id, ok := h.Param(c, "id")
	if !ok {
		return
	}
	var req model.ProcessVisitPaymentRequest
	if !h.Bind(c, &req) {
		return
	}

	result, err := h.svc.ProcessPayment(c.Request.Context(), h.TenantID(c), id, &req)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) ConvertToCustomer(c *gin.Context) {
	id, ok := h.Param(c, "id")
	if !ok {
		return
	}
	var req model.ConvertToCustomerRequest
	if !h.Bind(c, &req) {
		return
	}

	result, err := h.svc.ConvertToCustomer(c.Request.Context(), h.TenantID(c), id, &req)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) LinkCustomer(c *gin.Context) {
	id, ok := h.Param(c, "id")
	if !ok {
		return
	}
	var req model.LinkCustomerRequest
	if !h.Bind(c, &req) {
		return
	}

	result, err := h.svc.LinkCustomer(c.Request.Context(), h.TenantID(c), id, &req)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}
