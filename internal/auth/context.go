package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	tenantKey    = "tenant_id"
	userKey      = "user_id"
	tenantHeader = "X-Tenant-ID"
	userHeader   = "X-User-ID"
)

// TenantMiddleware resolves the tenant from the request headers. Requests
// without a tenant are rejected before reaching any handler.
func TenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader(tenantHeader)
		if tenantID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "missing " + tenantHeader + " header",
			})
			return
		}
		c.Set(tenantKey, tenantID)
		if userID := c.GetHeader(userHeader); userID != "" {
			c.Set(userKey, userID)
		}
		c.Next()
	}
}

func GetTenantID(c *gin.Context) string {
	return c.GetString(tenantKey)
}

func GetUserID(c *gin.Context) string {
	return c.GetString(userKey)
}
