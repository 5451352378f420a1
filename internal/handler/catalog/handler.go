package catalog

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/washbay/washbay-api/internal/handler"
	"github.com/washbay/washbay-api/internal/model"
	"github.com/washbay/washbay-api/internal/service/catalog"
	"github.com/washbay/washbay-api/internal/service/pricing"
)

type Handler struct {
	handler.BaseHandler
	svc        *catalog.Service
	pricingSvc *pricing.Service
}

func NewHandler(base handler.BaseHandler, svc *catalog.Service, pricingSvc *pricing.Service) *Handler {
	return &Handler{BaseHandler: base, svc: svc, pricingSvc: pricingSvc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/categories", h.CreateCategory)
	r.GET("/categories", h.ListCategories)

	r.POST("/car-types", h.CreateCarType)
	r.GET("/car-types", h.ListCarTypes)

	services := r.Group("/services")
	{
		services.POST("", h.CreateService)
		services.GET("", h.ListServices)
		services.GET("/:id", h.GetService)
		services.PATCH("/:id", h.UpdateService)
		services.DELETE("/:id", h.DeleteService)
		services.POST("/:id/prices", h.CreateServicePrice)
		services.GET("/:id/prices", h.ListServicePrices)
		services.GET("/:id/resolve-price", h.ResolvePrice)
	}
}

type createCategoryRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description"`
}

func (h *Handler) CreateCategory(c *gin.Context) {
	var req createCategoryRequest
	if !h.Bind(c, &req) {
		return
	}

	category, err := h.svc.CreateCategory(c.Request.Context(), h.TenantID(c), req.Name, req.Description)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(category))
}

func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.svc.ListCategories(c.Request.Context(), h.TenantID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(categories))
}

type createCarTypeRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}

func (h *Handler) CreateCarType(c *gin.Context) {
	var req createCarTypeRequest
	if !h.Bind(c, &req) {
		return
	}

	carType, err := h.svc.CreateCarType(c.Request.Context(), h.TenantID(c), req.Name)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(carType))
}

func (h *Handler) ListCarTypes(c *gin.Context) {
	carTypes, err := h.svc.ListCarTypes(c.Request.Context(), h.TenantID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(carTypes))
}

func (h *Handler) CreateService(c *gin.Context) {
	var req model.CreateServiceRequest
	if !h.Bind(c, &req) {
		return
	}

	svc, err := h.svc.CreateService(c.Request.Context(), h.TenantID(c), &req)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(svc))
}

func (h *Handler) ListServices(c *gin.Context) {
	services, err := h.svc.ListServices(c.Request.Context(), h.TenantID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(services))
}

func (h *Handler) GetService(c *gin.Context) {
	id, ok := h.Param(c, "id")
	if !ok {
		return
	}

	svc, err := h.svc.GetService(c.Request.Context(), h.TenantID(c), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(svc))
}

func (h *Handler) UpdateService(c *gin.Context) {
	id, ok := h.Param(c, "id")
	if !ok {
		return
	}
	var req model.UpdateServiceRequest
	if !h.Bind(c, &req) {
		return
	}

	svc, err := h.svc.UpdateService(c.Request.Context(), h.TenantID(c), id, &req)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(svc))
}

func (h *Handler) DeleteService(c *gin.Context) {
	id, ok := h.Param(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteService(c.Request.Context(), h.TenantID(c), id); err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) CreateServicePrice(c *gin.Context) {
	id, ok := h.Param(c, "id")
	if !ok {
		return
	}
	var req model.CreateServicePriceRequest
	if !h.Bind(c, &req) {
		return
	}

	price, err := h.svc.CreateServicePrice(c.Request.Context(), h.TenantID(c), id, &req)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(price))
}

func (h *Handler) ListServicePrices(c *gin.Context) {
	id, ok := h.Param(c, "id")
	if !ok {
		return
	}

	prices, err := h.svc.ListServicePrices(c.Request.Context(), h.TenantID(c), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(prices))
}

// ResolvePrice previews the price this service would bill for a car type.
func (h *Handler) ResolvePrice(c *gin.Context) {
	id, ok := h.Param(c, "id")
	if !ok {
		return
	}

	resolved, err := h.pricingSvc.Resolve(c.Request.Context(), h.TenantID(c), id, c.Query("car_type"))
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(resolved))
}
