package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/reviewfunnel-backend/config"
	"github.com/ikkim/reviewfunnel-backend/internal/app/controller"
	"github.com/ikkim/reviewfunnel-backend/internal/middleware"
)

type Router struct {
	authController     *controller.AuthController
	businessController *controller.BusinessController
	reviewController   *controller.ReviewController
	liveController     *controller.LiveController
	flowController     *controller.FlowController
	toolController     *controller.ToolController
	pageController     *controller.PageController
	authMiddleware     *middleware.AuthMiddleware
	config             *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	businessController *controller.BusinessController,
	reviewController *controller.ReviewController,
	liveController *controller.LiveController,
	flowController *controller.FlowController,
	toolController *controller.ToolController,
	pageController *controller.PageController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:     authController,
		businessController: businessController,
		reviewController:   reviewController,
		liveController:     liveController,
		flowController:     flowController,
		toolController:     toolController,
		pageController:     pageController,
		authMiddleware:     authMiddleware,
		config:             cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Review funnel API is running",
		})
	})

	router.GET("/", middleware.TenantSlug(), r.pageController.ReviewPage)

	// 기존 경로는 루트, 서버리스 시절 경로는 /api
	r.mount(router.Group(""))
	r.mount(router.Group("/api"))

	return router
}

func (r *Router) mount(g *gin.RouterGroup) {
	authenticate := r.authMiddleware.Authenticate()

	auth := g.Group("/auth")
	{
		auth.POST("/register", r.authController.Register)
		auth.POST("/login", r.authController.Login)
		auth.POST("/logout", r.authMiddleware.OptionalAuthenticate(), r.authController.Logout)
		auth.GET("/verify", authenticate, r.authController.Verify)
	}

	business := g.Group("/business")
	{
		business.POST("/create", authenticate, r.businessController.CreateBusiness)
		business.GET("/:slug/config", r.businessController.ConfigScript)
		business.GET("/:slug/config.js", r.businessController.ConfigScript)
		business.GET("/:slug/reviews", authenticate, r.reviewController.ListReviews)
		business.GET("/:slug/reviews/export", authenticate, r.reviewController.ExportReviews)
		business.GET("/:slug/reviews/live", authenticate, r.liveController.Live)
	}

	g.GET("/user/businesses", authenticate, r.businessController.ListUserBusinesses)
	g.POST("/reviews/submit", r.reviewController.SubmitReview)
	g.GET("/qrcode", r.toolController.QRCode)
	g.POST("/admin/maps", authenticate, r.toolController.LookupMaps)

	flow := g.Group("/flow", middleware.TenantSlug())
	{
		flow.GET("", r.flowController.Current)
		flow.POST("/rating", r.flowController.Rating)
		flow.POST("/visibility", r.flowController.Visibility)
		flow.POST("/settle", r.flowController.Settle)
		flow.POST("/feedback", r.flowController.Feedback)
	}
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
