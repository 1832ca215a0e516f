package controller

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	apperrors "github.com/ikkim/reviewfunnel-backend/internal/errors"
	"github.com/ikkim/reviewfunnel-backend/internal/middleware"
	"github.com/ikkim/reviewfunnel-backend/internal/places"
	"github.com/ikkim/reviewfunnel-backend/pkg/qrcode"
)

// PlaceLookup resolves a Maps share link (places.Client)
type PlaceLookup interface {
	Lookup(ctx context.Context, mapsURL string) (*places.Place, error)
}

// ToolController hosts the owner utilities: QR codes and Maps lookup
type ToolController struct {
	places PlaceLookup
}

func NewToolController(places PlaceLookup) *ToolController {
	return &ToolController{places: places}
}

// QRCode renders a PNG QR code for a review page URL
// GET /qrcode?url=
func (ctrl *ToolController) QRCode(c *gin.Context) {
	raw := c.Query("url")
	if raw == "" {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "URL parameter is required")
		return
	}
	// 이중 인코딩된 값도 허용, '+'는 그대로 유지
	if decoded, err := url.PathUnescape(raw); err == nil {
		raw = decoded
	}

	dataURL, err := qrcode.DataURL(raw)
	if err != nil {
		middleware.GetLoggerFromContext(c).Error("Failed to generate QR code", err, map[string]interface{}{
			"url": raw,
		})
		apperrors.InternalError(c, "Failed to generate QR code")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"dataUrl": dataURL,
		"url":     raw,
	})
}

type MapsLookupRequest struct {
	MapsURL string `json:"mapsUrl"`
}

// LookupMaps pre-fills business details from a Google Maps link
// POST /admin/maps
func (ctrl *ToolController) LookupMaps(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req MapsLookupRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.MapsURL) == "" {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "Google Maps URL is required")
		return
	}

	place, err := ctrl.places.Lookup(c.Request.Context(), strings.TrimSpace(req.MapsURL))
	if err != nil {
		switch {
		case errors.Is(err, places.ErrNotConfigured):
			apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.InternalConfigError, err.Error())
		case errors.Is(err, places.ErrPlaceNotFound):
			apperrors.NotFound(c, apperrors.BusinessPlaceNotFound, err.Error())
		default:
			log.Error("Maps lookup failed", err, map[string]interface{}{
				"maps_url": req.MapsURL,
			})
			apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.InternalExternalAPI, "Failed to fetch business details")
		}
		return
	}

	c.JSON(http.StatusOK, place)
}
