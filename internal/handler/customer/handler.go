package customer

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/washbay/washbay-api/internal/handler"
	"github.com/washbay/washbay-api/internal/model"
	"github.com/washbay/washbay-api/internal/service/customer"
)

type Handler struct {
	handler.BaseHandler
	svc *customer.Service
}

func NewHandler(base handler.BaseHandler, svc *customer.Service) *Handler {
	return &Handler{BaseHandler: base, svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	customers := r.Group("/customers")
	{
		customers.POST("", h.Create)
		customers.GET("", h.List)
		customers.GET("/search", h.Search)
		customers.GET("/:id", h.Get)
		customers.PATCH("/:id", h.Update)
		customers.DELETE("/:id", h.Delete)
		customers.POST("/:id/cars", h.AddCar)
		customers.GET("/:id/cars", h.ListCars)
	}
	r.GET("/cars/:id", h.GetCar)
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateCustomerRequest
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
	customers, err := h.svc.List(c.Request.Context(), h.TenantID(c), c.Query("search"), p)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewListResponse(customers, p.Page, p.PageSize))
}

func (h *Handler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("q is required"))
		return
	}

	results, err := h.svc.Search(c.Request.Context(), h.TenantID(c), query)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(results))
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
	var req model.UpdateCustomerRequest
	if !h.Bind(c, &req) {
		return
	}

	result, err := h.svc.Update(c.Request.Context(), h.TenantID(c), id, &req)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := h.Param(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), h.TenantID(c), id); err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) AddCar(c *gin.Context) {
	id, ok := h.Param(c, "id")
	if !ok {
		return
	}
	var req model.CreateCarRequest
	if !h.Bind(c, &req) {
		return
	}

	car, err := h.svc.AddCar(c.Request.Context(), h.TenantID(c), id, &req)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(car))
}

func (h *Handler) ListCars(c *gin.Context) {
	id, ok := h.Param(c, "id")
	if !ok {
		return
	}

	cars, err := h.svc.ListCars(c.Request.Context(), h.TenantID(c), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(cars))
}

func (h *Handler) GetCar(c *gin.Context) {
	id, ok := h.Param(c, "id")
	if !ok {
		return
	}

	car, err := h.svc.GetCar(c.Request.Context(), h.TenantID(c), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(car))
}
