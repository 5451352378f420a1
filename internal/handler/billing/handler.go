package billing

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/washbay/washbay-api/internal/handler"
	"github.com/washbay/washbay-api/internal/model"
	"github.com/washbay/washbay-api/internal/service/billing"
)

type Handler struct {
	handler.BaseHandler
	svc *billing.Service
}

func NewHandler(base handler.BaseHandler, svc *billing.Service) *Handler {
	return &Handler{BaseHandler: base, svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/tax-configurations", h.CreateTaxConfiguration)
	r.GET("/tax-configurations", h.ListTaxConfigurations)

	r.POST("/discounts", h.CreateDiscount)
	r.GET("/discounts", h.ListDiscounts)

	r.POST("/jobs/:id/receipt", h.GenerateReceipt)
	r.GET("/jobs/:id/receipt", h.GetReceiptByJob)
	receipts := r.Group("/receipts")
	{
		receipts.GET("", h.ListReceipts)
		receipts.GET("/:id", h.GetReceipt)
	}

	invoices := r.Group("/invoices")
	{
		invoices.POST("", h.GenerateInvoice)
		invoices.GET("", h.ListInvoices)
		invoices.GET("/:id", h.GetInvoice)
		invoices.POST("/:id/send", h.SendInvoice)
	}

	payments := r.Group("/payments")
	{
		payments.POST("", h.RecordPayment)
		payments.GET("", h.ListPayments)
	}
}

func (h *Handler) CreateTaxConfiguration(c *gin.Context) {
	var req model.CreateTaxConfigurationRequest
	if !h.Bind(c, &req) {
		return
	}

	cfg, err := h.svc.CreateTaxConfiguration(c.Request.Context(), h.TenantID(c), &req)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(cfg))
}

func (h *Handler) ListTaxConfigurations(c *gin.Context) {
	cfgs, err := h.svc.ListTaxConfigurations(c.Request.Context(), h.TenantID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(cfgs))
}

func (h *Handler) CreateDiscount(c *gin.Context) {
	var req model.CreateDiscountRequest
	if !h.Bind(c, &req) {
		return
	}

	discount, err := h.svc.CreateDiscount(c.Request.Context(), h.TenantID(c), &req)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(discount))
}

func (h *Handler) ListDiscounts(c *gin.Context) {
	discounts, err := h.svc.ListDiscounts(c.Request.Context(), h.TenantID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(discounts))
}

func (h *Handler) GenerateReceipt(c *gin.Context) {
	jobID, ok := h.Param(c, "id")
	if !ok {
		return
	}
	var req model.GenerateReceiptRequest
	if !h.Bind(c, &req) {
		return
	}

	receipt, err := h.svc.GenerateReceipt(c.Request.Context(), h.TenantID(c), jobID, &req)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(receipt))
}

func (h *Handler) GetReceiptByJob(c *gin.Context) {
	jobID, ok := h.Param(c, "id")
	if !ok {
		return
	}

	receipt, err := h.svc.GetReceiptByJob(c.Request.Context(), h.TenantID(c), jobID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(receipt))
}

func (h *Handler) GetReceipt(c *gin.Context) {
	id, ok := h.Param(c, "id")
	if !ok {
		return
	}

	receipt, err := h.svc.GetReceipt(c.Request.Context(), h.TenantID(c), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(receipt))
}

func (h *Handler) ListReceipts(c *gin.Context) {
	p := h.Pagination(c)
	receipts, err := h.svc.ListReceipts(c.Request.Context(), h.TenantID(c), p)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewListResponse(receipts, p.Page, p.PageSize))
}

func (h *Handler) GenerateInvoice(c *gin.Context) {
	var req model.GenerateInvoiceRequest
	if !h.Bind(c, &req) {
		return
	}

	invoice, err := h.svc.GenerateInvoice(c.Request.Context(), h.TenantID(c), &req)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(invoice))
}

func (h *Handler) ListInvoices(c *gin.Context) {
	p := h.Pagination(c)
	invoices, err := h.svc.ListInvoices(c.Request.Context(), h.TenantID(c), model.InvoiceStatus(c.Query("status")), p)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewListResponse(invoices, p.Page, p.PageSize))
}

func (h *Handler) GetInvoice(c *gin.Context) {
	id, ok := h.Param(c, "id")
	if !ok {
		return
	}

	invoice, err := h.svc.GetInvoice(c.Request.Context(), h.TenantID(c), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(invoice))
}

func (h *Handler) SendInvoice(c *gin.Context) {
	id, ok := h.Param(c, "id")
	if !ok {
		return
	}

	invoice, err := h.svc.SendInvoice(c.Request.Context(), h.TenantID(c), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(invoice))
}

func (h *Handler) RecordPayment(c *gin.Context) {
	var req model.RecordPaymentRequest
	if !h.Bind(c, &req) {
		return
	}

	payment, err := h.svc.RecordPayment(c.Request.Context(), h.TenantID(c), &req)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(payment))
}

func (h *Handler) ListPayments(c *gin.Context) {
	p := h.Pagination(c)
	payments, err := h.svc.ListPayments(c.Request.Context(), h.TenantID(c), p)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewListResponse(payments, p.Page, p.PageSize))
}
