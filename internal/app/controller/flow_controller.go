package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ikkim/reviewfunnel-backend/internal/app/model"
	"github.com/ikkim/reviewfunnel-backend/internal/app/service"
	apperrors "github.com/ikkim/reviewfunnel-backend/internal/errors"
	"github.com/ikkim/reviewfunnel-backend/internal/middleware"
	"github.com/ikkim/reviewfunnel-backend/internal/reviewflow"
	"github.com/ikkim/reviewfunnel-backend/internal/tenant"
)

const flowCookieName = "review_session"

// FlowSettings tunes return detection
type FlowSettings struct {
	Debounce     time.Duration
	PendingTTL   time.Duration
	SessionTTL   time.Duration
	BaseDomain   string
	CookieSecure bool
}

// FlowController runs the customer review funnel against a server-side session
type FlowController struct {
	tenantService service.TenantService
	reviewService service.ReviewService
	store         reviewflow.Store
	settings      FlowSettings
	now           func() time.Time
}

func NewFlowController(
	tenantService service.TenantService,
	reviewService service.ReviewService,
	store reviewflow.Store,
	settings FlowSettings,
) *FlowController {
	if settings.SessionTTL <= 0 {
		settings.SessionTTL = reviewflow.DefaultSessionTTL
	}
	return &FlowController{
		tenantService: tenantService,
		reviewService: reviewService,
		store:         store,
		settings:      settings,
		now:           time.Now,
	}
}

type RatingRequest struct {
	Rating int `json:"rating"`
}

type VisibilityRequest struct {
	Visible bool `json:"visible"`
}

type FeedbackRequest struct {
	Name     string `json:"name"`
	Comments string `json:"comments"`
}

// flowContext is the per-request tenant, machine and session
type flowContext struct {
	cfg     model.TenantConfig
	machine *reviewflow.Machine
	session *reviewflow.Session
}

func (ctrl *FlowController) load(c *gin.Context) (*flowContext, error) {
	ctx := c.Request.Context()
	slug := middleware.GetTenantSlug(c)
	now := ctrl.now()

	cfg := ctrl.tenantService.Resolve(ctx, slug)
	host := middleware.RequestHost(c)
	pageURL := "https://" + host
	if !cfg.IsDefault() {
		pageURL = tenant.PublicURL(cfg.Slug, host, ctrl.settings.BaseDomain)
	}
	machine := reviewflow.NewMachine(cfg, pageURL, ctrl.settings.Debounce, ctrl.settings.PendingTTL)

	session, err := ctrl.loadSession(ctx, c, cfg.Slug, now)
	if err != nil {
		return nil, err
	}
	return &flowContext{cfg: cfg, machine: machine, session: session}, nil
}

// loadSession starts a new session when the cookie is missing, expired or for another tenant
func (ctrl *FlowController) loadSession(ctx context.Context, c *gin.Context, slug string, now time.Time) (*reviewflow.Session, error) {
	if id, err := c.Cookie(flowCookieName); err == nil && id != "" {
		session, err := ctrl.store.Load(ctx, id)
		switch {
		case err == nil && session.Slug == slug:
			return session, nil
		case err != nil && !errors.Is(err, reviewflow.ErrSessionNotFound):
			return nil, err
		}
	}

	session := reviewflow.NewSession(uuid.NewString(), slug, now)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flowCookieName, session.ID, int(ctrl.settings.SessionTTL.Seconds()), "/", "", ctrl.settings.CookieSecure, true)
	return session, nil
}

func (ctrl *FlowController) save(c *gin.Context, fc *flowContext) bool {
	if err := ctrl.store.Save(c.Request.Context(), fc.session); err != nil {
		middleware.GetLoggerFromContext(c).Error("Failed to save review session", err, map[string]interface{}{
			"session_id": fc.session.ID,
		})
		apperrors.InternalError(c, "")
		return false
	}
	return true
}

func (ctrl *FlowController) respond(c *gin.Context, fc *flowContext, extra gin.H) {
	s := fc.session
	body := gin.H{
		"state":         s.State,
		"rating":        s.Rating,
		"pendingReturn": s.PendingReturn,
		"threshold":     fc.cfg.ReviewThreshold,
		"business": gin.H{
			"slug":     fc.cfg.Slug,
			"name":     fc.cfg.Name,
			"category": fc.cfg.Category,
		},
	}
	if s.Outcome != nil {
		body["outcome"] = s.Outcome
	}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

func (ctrl *FlowController) loadOrFail(c *gin.Context) (*flowContext, bool) {
	fc, err := ctrl.load(c)
	if err != nil {
		middleware.GetLoggerFromContext(c).Error("Failed to load review session", err)
		apperrors.InternalError(c, "")
		return nil, false
	}
	return fc, true
}

func respondFlowError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, reviewflow.ErrRatingRequired):
		apperrors.BadRequest(c, apperrors.ValidationRequired, err.Error())
	case errors.Is(err, reviewflow.ErrInvalidRating):
		apperrors.BadRequest(c, apperrors.ReviewInvalidRating, err.Error())
	case errors.Is(err, reviewflow.ErrCommentsRequired):
		apperrors.BadRequest(c, apperrors.ReviewCommentsRequired, err.Error())
	case errors.Is(err, reviewflow.ErrReviewURLMissing):
		apperrors.RespondWithError(c, http.StatusUnprocessableEntity, apperrors.ReviewURLMissing, err.Error())
	case errors.Is(err, reviewflow.ErrInvalidTransition):
		apperrors.Conflict(c, apperrors.ReviewInvalidState, err.Error())
	default:
		respondSubmitError(c, err)
	}
}

// Current loads the session; a page reload confirms a pending return
// GET /flow
func (ctrl *FlowController) Current(c *gin.Context) {
	fc, ok := ctrl.loadOrFail(c)
	if !ok {
		return
	}

	fc.machine.Resume(fc.session, ctrl.now())
	if !ctrl.save(c, fc) {
		return
	}
	ctrl.respond(c, fc, nil)
}

// Rating commits a star rating. High ratings return the external review URL.
// POST /flow/rating
func (ctrl *FlowController) Rating(c *gin.Context) {
	var req RatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ReviewInvalidRating, reviewflow.ErrInvalidRating.Error())
		return
	}

	fc, ok := ctrl.loadOrFail(c)
	if !ok {
		return
	}
	now := ctrl.now()

	if err := fc.machine.SelectRating(fc.session, req.Rating, now); err != nil {
		respondFlowError(c, err)
		return
	}
	redirectURL, err := fc.machine.Confirm(fc.session, now)
	if err != nil {
		respondFlowError(c, err)
		return
	}
	if !ctrl.save(c, fc) {
		return
	}

	var extra gin.H
	if redirectURL != "" {
		extra = gin.H{"redirectUrl": redirectURL}
	}
	ctrl.respond(c, fc, extra)
}

// Visibility reports the page becoming visible or hidden
// POST /flow/visibility
func (ctrl *FlowController) Visibility(c *gin.Context) {
	var req VisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request body")
		return
	}

	fc, ok := ctrl.loadOrFail(c)
	if !ok {
		return
	}

	if req.Visible {
		fc.machine.Foreground(fc.session, ctrl.now())
	} else {
		fc.machine.Background(fc.session, ctrl.now())
	}
	if !ctrl.save(c, fc) {
		return
	}
	ctrl.respond(c, fc, gin.H{"settleAfterMs": fc.machine.Debounce.Milliseconds()})
}

// Settle confirms the return once the page stayed visible long enough
// POST /flow/settle
func (ctrl *FlowController) Settle(c *gin.Context) {
	fc, ok := ctrl.loadOrFail(c)
	if !ok {
		return
	}

	fc.machine.Settle(fc.session, ctrl.now())
	if !ctrl.save(c, fc) {
		return
	}
	ctrl.respond(c, fc, nil)
}

// Feedback stores low-rating feedback and finishes the funnel
// POST /flow/feedback
func (ctrl *FlowController) Feedback(c *gin.Context) {
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request body")
		return
	}

	fc, ok := ctrl.loadOrFail(c)
	if !ok {
		return
	}
	if err := fc.machine.CheckFeedback(fc.session, req.Comments); err != nil {
		respondFlowError(c, err)
		return
	}

	// 저장 성공 전에는 세션을 진행시키지 않음
	draft := *fc.session
	if err := fc.machine.SubmitFeedback(&draft, req.Name, req.Comments, ctrl.now()); err != nil {
		respondFlowError(c, err)
		return
	}

	input := service.SubmitReviewInput{
		BusinessID: fc.cfg.BusinessID,
		Slug:       fc.cfg.Slug,
		Rating:     float64(draft.Rating),
		Name:       req.Name,
		Comments:   req.Comments,
	}
	if draft.Outcome != nil {
		input.Discount = draft.Outcome.Discount
	}
	result, err := ctrl.reviewService.Submit(c.Request.Context(), input)
	if err != nil {
		respondFlowError(c, err)
		return
	}

	fc.session = &draft
	if !ctrl.save(c, fc) {
		return
	}
	ctrl.respond(c, fc, gin.H{"reviewId": result.Review.ID})
}
