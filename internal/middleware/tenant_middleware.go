package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/ikkim/reviewfunnel-backend/internal/tenant"
	"github.com/ikkim/reviewfunnel-backend/pkg/util"
)

const TenantSlugKey = "tenant_slug"

// TenantSlug resolves the tenant for the request from ?biz= or the Host header
func TenantSlug() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(TenantSlugKey, tenant.ResolveSlug(c.Query("biz"), RequestHost(c)))
		c.Next()
	}
}

// GetTenantSlug returns the resolved slug, "default" when the middleware did not run
func GetTenantSlug(c *gin.Context) string {
	if slug := c.GetString(TenantSlugKey); slug != "" {
		return slug
	}
	return util.DefaultSlug
}

// RequestHost is the host the customer actually reached
func RequestHost(c *gin.Context) string {
	if host := c.GetHeader("X-Forwarded-Host"); host != "" {
		return host
	}
	return c.Request.Host
}
