package controller

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/reviewfunnel-backend/internal/app/service"
	apperrors "github.com/ikkim/reviewfunnel-backend/internal/errors"
	"github.com/ikkim/reviewfunnel-backend/internal/middleware"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReviewController struct {
	reviewService service.ReviewService
}

func NewReviewController(reviewService service.ReviewService) *ReviewController {
	return &ReviewController{
		reviewService: reviewService,
	}
}

// flexNumber accepts 4, 4.0 or "4"
type flexNumber struct {
	Value float64
	Set   bool
	Valid bool
}

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	n.Set = true
	raw = strings.Trim(raw, `"`)
	if raw == "" {
		n.Set = false
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil
	}
	n.Value = v
	n.Valid = true
	return nil
}

type SubmitReviewRequest struct {
	BusinessSlug string     `json:"businessSlug"`
	BusinessID   flexNumber `json:"businessId"`
	Rating       flexNumber `json:"rating"`
	Name         string     `json:"name"`
	Comments     string     `json:"comments"`
}

// SubmitReview stores private feedback for a tenant
// POST /reviews/submit
func (ctrl *ReviewController) SubmitReview(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid submit review request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Missing required fields")
		return
	}

	slug := strings.TrimSpace(req.BusinessSlug)
	if (slug == "" && !req.BusinessID.Set) || !req.Rating.Set || (req.Rating.Valid && req.Rating.Value == 0) || strings.TrimSpace(req.Comments) == "" {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "Missing required fields")
		return
	}
	if !req.Rating.Valid {
		apperrors.BadRequest(c, apperrors.ReviewInvalidRating, service.ErrInvalidRating.Error())
		return
	}

	input := service.SubmitReviewInput{
		Slug:     slug,
		Rating:   req.Rating.Value,
		Name:     req.Name,
		Comments: req.Comments,
	}
	if req.BusinessID.Valid && req.BusinessID.Value > 0 && req.BusinessID.Value == float64(uint(req.BusinessID.Value)) {
		input.BusinessID = uint(req.BusinessID.Value)
	} else if slug == "" {
		apperrors.NotFound(c, apperrors.BusinessNotFound, service.ErrBusinessNotFound.Error())
		return
	}

	result, err := ctrl.reviewService.Submit(c.Request.Context(), input)
	if err != nil {
		respondSubmitError(c, err)
		return
	}

	resp := gin.H{
		"success":  true,
		"reviewId": result.Review.ID,
	}
	if result.Discount != nil {
		resp["discount"] = result.Discount
	}
	c.JSON(http.StatusOK, resp)
}

func respondSubmitError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrBusinessNotFound):
		apperrors.NotFound(c, apperrors.BusinessNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidRating):
		apperrors.BadRequest(c, apperrors.ReviewInvalidRating, err.Error())
	case errors.Is(err, service.ErrCommentsRequired):
		apperrors.BadRequest(c, apperrors.ReviewCommentsRequired, err.Error())
	case errors.Is(err, service.ErrRatingRedirects):
		apperrors.BadRequest(c, apperrors.ReviewRedirectRequired, err.Error())
	default:
		middleware.GetLoggerFromContext(c).Error("Submit review failed", err)
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "submit review")
	}
}

// respondOwnershipError maps lookup errors on owner-only routes
func respondOwnershipError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, service.ErrBusinessNotFound):
		apperrors.NotFound(c, apperrors.BusinessNotFound, err.Error())
	case errors.Is(err, service.ErrAccessDenied):
		apperrors.Forbidden(c, err.Error())
	default:
		middleware.GetLoggerFromContext(c).Error("Failed to "+action, err, map[string]interface{}{
			"slug": c.Param("slug"),
		})
		apperrors.InternalError(c, "Failed to "+action)
	}
}

// ListReviews returns the owner's private feedback, analytics or AI insights
// GET /business/:slug/reviews[?analytics=true|insights=true]
func (ctrl *ReviewController) ListReviews(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}
	slug := strings.ToLower(c.Param("slug"))
	now := time.Now().UTC()

	switch {
	case c.Query("insights") == "true":
		business, insights, err := ctrl.reviewService.Insights(c.Request.Context(), userID, slug, now)
		if err != nil {
			if errors.Is(err, service.ErrInsightsNotConfigured) {
				apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.InternalConfigError, err.Error())
				return
			}
			if errors.Is(err, service.ErrBusinessNotFound) || errors.Is(err, service.ErrAccessDenied) {
				respondOwnershipError(c, err, "generate insights")
				return
			}
			middleware.GetLoggerFromContext(c).Error("Failed to generate insights", err)
			apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.InternalExternalAPI, "Failed to generate insights")
			return
		}
		c.JSON(http.StatusOK, gin.H{"businessName": business.Name, "insights": insights})

	case c.Query("analytics") == "true":
		business, analytics, err := ctrl.reviewService.Analytics(userID, slug, now)
		if err != nil {
			respondOwnershipError(c, err, "load analytics")
			return
		}
		c.JSON(http.StatusOK, gin.H{"businessName": business.Name, "analytics": analytics})

	default:
		business, reviews, err := ctrl.reviewService.List(userID, slug)
		if err != nil {
			respondOwnershipError(c, err, "load reviews")
			return
		}

		items := make([]gin.H, 0, len(reviews))
		for _, r := range reviews {
			items = append(items, gin.H{
				"id":          r.ID,
				"rating":      r.Rating,
				"name":        r.Name,
				"comments":    r.Comments,
				"submittedAt": r.SubmittedAt,
			})
		}
		c.JSON(http.StatusOK, gin.H{"businessName": business.Name, "reviews": items})
	}
}

// ExportReviews downloads private feedback as a spreadsheet
// GET /business/:slug/reviews/export
func (ctrl *ReviewController) ExportReviews(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	business, data, err := ctrl.reviewService.Export(userID, strings.ToLower(c.Param("slug")))
	if err != nil {
		respondOwnershipError(c, err, "export reviews")
		return
	}

	filename := fmt.Sprintf("%s-feedback-%s.xlsx", business.Slug, time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.DataFromReader(http.StatusOK, int64(len(data)), xlsxContentType, bytes.NewReader(data), nil)
}
