package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/boxibox/backend/internal/infrastructure/logger"
	"github.com/boxibox/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	TenantHeaderKey = "X-Tenant-ID"
	tenantKey       = "tenant_id"
)

var errNilTenant = errors.New("nil tenant id")

// TenantConfig controls tenant resolution. Tenant middleware is mounted on
// the API group only, so root routes like /health never see it.
type TenantConfig struct {
	// Optional lets requests without the header through with no tenant set
	Optional bool
}

// TenantMiddleware requires a UUID X-Tenant-ID header on every request
func TenantMiddleware() gin.HandlerFunc {
	return TenantWithConfig(TenantConfig{})
}

// TenantWithConfig resolves the tenant from X-Tenant-ID. A malformed or nil
// UUID is always rejected with 401.
func TenantWithConfig(cfg TenantConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(TenantHeaderKey))
		if raw == "" && cfg.Optional {
			c.Next()
			return
		}
		if raw == "" {
			abortWithError(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Tenant identification required")
			return
		}

		tenantID, err := parseTenant(raw)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Invalid tenant ID format")
			return
		}

		c.Set(tenantKey, tenantID)
		c.Request = c.Request.WithContext(logger.WithTenantID(c.Request.Context(), tenantID.String()))
		c.Next()
	}
}

func parseTenant(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, err
	}
	if id == uuid.Nil {
		return uuid.Nil, errNilTenant
	}
	return id, nil
}

// TenantFromContext returns the tenant resolved for this request
func TenantFromContext(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(tenantKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
