package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/reviewfunnel-backend/internal/app/model"
	"github.com/ikkim/reviewfunnel-backend/internal/app/service"
	apperrors "github.com/ikkim/reviewfunnel-backend/internal/errors"
	"github.com/ikkim/reviewfunnel-backend/internal/middleware"
)

const (
	configScriptPrefix = "window.REVIEW_TOOL_CONFIG = "
	configCacheControl = "public, max-age=300, stale-while-revalidate=3600"
)

type BusinessController struct {
	businessService service.BusinessService
	tenantService   service.TenantService
}

func NewBusinessController(businessService service.BusinessService, tenantService service.TenantService) *BusinessController {
	return &BusinessController{
		businessService: businessService,
		tenantService:   tenantService,
	}
}

type CreateBusinessRequest struct {
	PlaceID         string                         `json:"placeId"`
	Name            string                         `json:"name"`
	Category        string                         `json:"category"`
	GoogleMapsURL   string                         `json:"googleMapsUrl"`
	HeroImage       string                         `json:"heroImage"`
	LogoURL         string                         `json:"logoUrl"`
	GoogleReviewURL string                         `json:"googleReviewUrl"`
	Config          *service.BusinessSettingsInput `json:"config"`
}

// CreateBusiness provisions a tenant for the current owner
// POST /business/create
func (ctrl *BusinessController) CreateBusiness(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	var req CreateBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid create business request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request body")
		return
	}

	result, err := ctrl.businessService.CreateBusiness(c.Request.Context(), userID, service.CreateBusinessInput{
		Name:            req.Name,
		PlaceID:         req.PlaceID,
		Category:        req.Category,
		GoogleMapsURL:   req.GoogleMapsURL,
		HeroImage:       req.HeroImage,
		LogoURL:         req.LogoURL,
		GoogleReviewURL: req.GoogleReviewURL,
		Config:          req.Config,
	}, middleware.RequestHost(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBusinessFieldsRequired):
			apperrors.BadRequest(c, apperrors.ValidationRequired, err.Error())
		case errors.Is(err, service.ErrUserNotFound):
			apperrors.Unauthorized(c, "")
		case errors.Is(err, service.ErrBusinessLimitReached):
			apperrors.RespondWithError(c, http.StatusForbidden, apperrors.BusinessLimitReached, err.Error())
		case errors.Is(err, service.ErrSlugConflict):
			apperrors.Conflict(c, apperrors.BusinessSlugExists, err.Error())
		default:
			log.Error("Failed to create business", err, map[string]interface{}{
				"user_id": userID,
			})
			apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "create business")
		}
		return
	}

	b := result.Business
	c.JSON(http.StatusCreated, gin.H{
		"business": gin.H{
			"id":        b.ID,
			"slug":      b.Slug,
			"name":      b.Name,
			"category":  b.Category,
			"createdAt": b.CreatedAt,
		},
		"reviewUrl": result.ReviewURL,
		"message":   "Business created successfully",
	})
}

// ListUserBusinesses returns every business the owner has
// GET /user/businesses
func (ctrl *BusinessController) ListUserBusinesses(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	businesses, err := ctrl.businessService.ListBusinesses(userID)
	if err != nil {
		log.Error("Failed to list businesses", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "Failed to load businesses")
		return
	}

	items := make([]gin.H, 0, len(businesses))
	for _, b := range businesses {
		items = append(items, gin.H{
			"id":        b.ID,
			"slug":      b.Slug,
			"name":      b.Name,
			"category":  b.Category,
			"heroImage": b.HeroImage,
			"config":    b.Config,
			"createdAt": b.CreatedAt,
			"updatedAt": b.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"businesses": items})
}

// configScript is the legacy page-embedding payload, snake_case keys
type configScript struct {
	PlaceID             string `json:"place_id"`
	Name                string `json:"name"`
	Category            string `json:"category"`
	GoogleMapsURL       string `json:"google_maps_url"`
	HeroImage           string `json:"hero_image"`
	LogoURL             string `json:"logo_url"`
	GoogleReviewBaseURL string `json:"google_review_base_url"`
	GoogleReviewURL     string `json:"google_review_url"`
	SheetScriptURL      string `json:"sheet_script_url"`
	ReviewThreshold     int    `json:"review_threshold"`
	DiscountEnabled     bool   `json:"discount_enabled"`
	DiscountPercentage  int    `json:"discount_percentage"`
	DiscountValidDays   int    `json:"discount_valid_days"`
	ReferralEnabled     bool   `json:"referral_enabled"`
	ReferralMessage     string `json:"referral_message,omitempty"`
	MinReview           int    `json:"min_review"`
}

func newConfigScript(cfg model.TenantConfig) configScript {
	return configScript{
		PlaceID:             cfg.GooglePlaceID,
		Name:                cfg.Name,
		Category:            cfg.Category,
		GoogleMapsURL:       cfg.GoogleMapsURL,
		HeroImage:           cfg.HeroImageURL,
		LogoURL:             cfg.LogoURL,
		GoogleReviewBaseURL: cfg.GoogleReviewBaseURL,
		GoogleReviewURL:     cfg.GoogleReviewURL,
		SheetScriptURL:      cfg.FeedbackSinkURL,
		ReviewThreshold:     cfg.ReviewThreshold,
		DiscountEnabled:     cfg.DiscountEnabled,
		DiscountPercentage:  cfg.DiscountPercentage,
		DiscountValidDays:   cfg.DiscountValidDays,
		ReferralEnabled:     cfg.ReferralEnabled,
		ReferralMessage:     cfg.ReferralMessage,
		MinReview:           cfg.ReviewThreshold,
	}
}

// ConfigScript serves the tenant config as a script. Always 200; unknown
// tenants and failures yield an empty object.
// GET /business/:slug/config
func (ctrl *BusinessController) ConfigScript(c *gin.Context) {
	slug := strings.ToLower(strings.TrimSpace(c.Param("slug")))
	slug = strings.TrimSuffix(slug, ".js")

	body := "{}"
	cfg := ctrl.tenantService.Resolve(c.Request.Context(), slug)
	if !cfg.IsDefault() {
		if data, err := json.MarshalIndent(newConfigScript(cfg), "", "  "); err == nil {
			body = string(data)
			c.Header("Cache-Control", configCacheControl)
		} else {
			middleware.GetLoggerFromContext(c).Error("Failed to encode config script", err, map[string]interface{}{
				"slug": slug,
			})
		}
	}

	c.Data(http.StatusOK, "application/javascript; charset=utf-8", []byte(configScriptPrefix+body+";"))
}
