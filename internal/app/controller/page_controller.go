package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/reviewfunnel-backend/internal/app/service"
	"github.com/ikkim/reviewfunnel-backend/internal/middleware"
	"github.com/ikkim/reviewfunnel-backend/internal/web"
)

const pageCacheControl = "s-maxage=3600, stale-while-revalidate=86400"

// PageController serves the customer review page for the tenant on the host
type PageController struct {
	tenantService service.TenantService
}

func NewPageController(tenantService service.TenantService) *PageController {
	return &PageController{tenantService: tenantService}
}

// ReviewPage unknown tenants get the generic form, still 200
// GET /
func (ctrl *PageController) ReviewPage(c *gin.Context) {
	ctx := c.Request.Context()
	slug := middleware.GetTenantSlug(c)
	host := middleware.RequestHost(c)

	cfg := ctrl.tenantService.Resolve(ctx, slug)
	page := web.NewReviewPage(cfg, ctrl.tenantService.HeroImage(ctx, cfg.Slug), host, c.Request.URL.RequestURI())

	html, err := web.RenderReviewPage(page)
	if err != nil {
		middleware.GetLoggerFromContext(c).Error("Failed to render review page", err, map[string]interface{}{
			"slug": slug,
		})
		c.String(http.StatusInternalServerError, "Something went wrong. Please try again later")
		return
	}

	c.Header("Cache-Control", pageCacheControl)
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}
