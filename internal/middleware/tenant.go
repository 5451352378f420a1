package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/washbay/washbay-api/internal/handler"
	"github.com/washbay/washbay-api/internal/repository"
)

// TenantMiddleware verifies the tenant from the token is real and active.
// Lookups are memoized in a TTL cache so the check stays off the hot path.
type TenantMiddleware struct {
	tenantRepo repository.TenantRepository
	cache      *cache.Cache
}

type TenantConfig struct {
	CacheDuration   time.Duration
	CleanupInterval time.Duration
}

func DefaultTenantConfig() TenantConfig {
	return TenantConfig{
		CacheDuration:   15 * time.Minute,
		CleanupInterval: time.Hour,
	}
}

func NewTenantMiddleware(tenantRepo repository.TenantRepository, config TenantConfig) *TenantMiddleware {
	return &TenantMiddleware{
		tenantRepo: tenantRepo,
		cache:      cache.New(config.CacheDuration, config.CleanupInterval),
	}
}

func (m *TenantMiddleware) VerifyTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, ok := c.Get(ContextTenantID)
		if !ok {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing tenant"))
			c.Abort()
			return
		}
		id := tenantID.(uuid.UUID)

		if active, found := m.cache.Get(id.String()); found {
			if !active.(bool) {
				c.JSON(http.StatusForbidden, handler.NewErrorResponse("tenant is inactive"))
				c.Abort()
				return
			}
			c.Next()
			return
		}

		tenant, err := m.tenantRepo.Get(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unknown tenant"))
			c.Abort()
			return
		}

		m.cache.Set(id.String(), tenant.IsActive, cache.DefaultExpiration)
		if !tenant.IsActive {
			c.JSON(http.StatusForbidden, handler.NewErrorResponse("tenant is inactive"))
			c.Abort()
			return
		}
		c.Next()
	}
}
