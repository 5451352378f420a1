package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/washbay/washbay-api/internal/model"
	"github.com/washbay/washbay-api/pkg/validator"
)

// BaseHandler carries the helpers shared by every domain handler.
type BaseHandler struct {
	Validator *validator.Validator
}

func NewBaseHandler(v *validator.Validator) BaseHandler {
	return BaseHandler{Validator: v}
}

// TenantID reads the tenant installed by the auth middleware.
func (h *BaseHandler) TenantID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get("tenant_id"); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// UserID reads the authenticated user, nil pointer when absent.
func (h *BaseHandler) UserID(c *gin.Context) *uuid.UUID {
	if v, ok := c.Get("user_id"); ok {
		if id, ok := v.(uuid.UUID); ok {
			return &id
		}
	}
	return nil
}

// Bind decodes and validates the request body. A failure writes the 400
// response and returns false.
func (h *BaseHandler) Bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse("invalid request body"))
		return false
	}
	if err := h.Validator.Validate(req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(err.Error()))
		return false
	}
	return true
}

// Param parses a UUID path parameter, writing the 400 response on failure.
func (h *BaseHandler) Param(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// Pagination reads page/page_size query parameters with sane bounds.
func (h *BaseHandler) Pagination(c *gin.Context) model.Pagination {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	if size < 1 || size > 200 {
		size = 50
	}
	return model.Pagination{Page: page, PageSize: size}
}

// Error hands the error to the error middleware for translation.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	c.Error(err)
	c.Abort()
}
