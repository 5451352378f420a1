package loyalty

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/washbay/washbay-api/internal/handler"
	"github.com/washbay/washbay-api/internal/model"
	"github.com/washbay/washbay-api/internal/service/loyalty"
)

type Handler struct {
	handler.BaseHandler
	svc *loyalty.Service
}

func NewHandler(base handler.BaseHandler, svc *loyalty.Service) *Handler {
	return &Handler{BaseHandler: base, svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/loyalty")
	{
		g.GET("/configuration", h.GetConfiguration)
		g.PUT("/configuration", h.UpsertConfiguration)
		g.POST("/tiers", h.CreateTier)
		g.GET("/tiers", h.ListTiers)
		g.POST("/redemption-options", h.CreateRedemptionOption)
		g.GET("/redemption-options", h.ListRedemptionOptions)
	}
	customers := r.Group("/customers/:id/loyalty")
	{
		customers.GET("", h.GetProfile)
		customers.GET("/transactions", h.ListTransactions)
		customers.POST("/adjust", h.Adjust)
		customers.POST("/redeem", h.Redeem)
	}
}

func (h *Handler) GetConfiguration(c *gin.Context) {
	cfg, err := h.svc.GetConfiguration(c.Request.Context(), h.TenantID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(cfg))
}

type upsertConfigurationRequest struct {
	PointsPerDollar  decimal.Decimal `json:"points_per_dollar" validate:"required"`
	PointsExpiryDays *int            `json:"points_expiry_days" validate:"omitempty,gt=0"`
}

func (h *Handler) UpsertConfiguration(c *gin.Context) {
	var req upsertConfigurationRequest
	if !h.Bind(c, &req) {
		return
	}

	cfg, err := h.svc.UpsertConfiguration(c.Request.Context(), h.TenantID(c), req.PointsPerDollar, req.PointsExpiryDays)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(cfg))
}

func (h *Handler) CreateTier(c *gin.Context) {
	var req model.CreateLoyaltyTierRequest
	if !h.Bind(c, &req) {
		return
	}

	tier, err := h.svc.CreateTier(c.Request.Context(), h.TenantID(c), &req)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(tier))
}

func (h *Handler) ListTiers(c *gin.Context) {
	tiers, err := h.svc.ListTiers(c.Request.Context(), h.TenantID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(tiers))
}

func (h *Handler) CreateRedemptionOption(c *gin.Context) {
	var req model.CreateRedemptionOptionRequest
	if !h.Bind(c, &req) {
		return
	}

	option, err := h.svc.CreateRedemptionOption(c.Request.Context(), h.TenantID(c), &req)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(option))
}

func (h *Handler) ListRedemptionOptions(c *gin.Context) {
	options, err := h.svc.ListRedemptionOptions(c.Request.Context(), h.TenantID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(options))
}

func (h *Handler) GetProfile(c *gin.Context) {
	customerID, ok := h.Param(c, "id")
	if !ok {
		return
	}

	profile, err := h.svc.GetProfile(c.Request.Context(), h.TenantID(c), customerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(profile))
}

func (h *Handler) ListTransactions(c *gin.Context) {
	customerID, ok := h.Param(c, "id")
	if !ok {
		return
	}

	transactions, err := h.svc.ListTransactions(c.Request.Context(), h.TenantID(c), customerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(transactions))
}

func (h *Handler) Adjust(c *gin.Context) {
	customerID, ok := h.Param(c, "id")
	if !ok {
		return
	}
	var req model.AdjustLoyaltyRequest
	if !h.Bind(c, &req) {
		return
	}

	if err := h.svc.Adjust(c.Request.Context(), h.TenantID(c), customerID, &req); err != nil {
		h.Error(c, err)
		return
	}

	profile, err := h.svc.GetProfile(c.Request.Context(), h.TenantID(c), customerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(profile))
}

func (h *Handler) Redeem(c *gin.Context) {
	customerID, ok := h.Param(c, "id")
	if !ok {
		return
	}
	var req model.RedeemRequest
	if !h.Bind(c, &req) {
		return
	}

	option, err := h.svc.Redeem(c.Request.Context(), h.TenantID(c), customerID, &req)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(option))
}
