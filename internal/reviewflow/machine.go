// Package reviewflow drives a customer through the review funnel: pick a
// rating, then either leave for the external review site or write private
// feedback, and finally land on a thank-you screen with an optional discount.
//
// The server owns the state; the page only reports what the customer did
// (rating chosen, tab visible again, form submitted).
package reviewflow

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ikkim/reviewfunnel-backend/internal/app/model"
	"github.com/ikkim/reviewfunnel-backend/pkg/util"
)

type State string

const (
	StateRatingSelection    State = "rating_selection"
	StateHighRatingRedirect State = "high_rating_redirect"
	StateFollowupFeedback   State = "followup_feedback"
	StateThankYou           State = "thank_you"
)

const (
	DefaultDebounce   = 500 * time.Millisecond
	DefaultPendingTTL = 30 * time.Minute

	whatsAppShareBase = "https://wa.me/?text="
	smsShareBase      = "sms:?&body="
)

var (
	ErrRatingRequired    = errors.New("please select a rating")
	ErrInvalidRating     = errors.New("rating must be between 1 and 5")
	ErrCommentsRequired  = errors.New("please tell us a bit more about your experience")
	ErrReviewURLMissing  = errors.New("Google review link missing. Add googlePlaceId or googleReviewUrl to config.js.")
	ErrInvalidTransition = errors.New("action not allowed at this step")
)

// Session is one customer's pass through the funnel
type Session struct {
	ID            string    `json:"id"`
	Slug          string    `json:"slug"`
	State         State     `json:"state"`
	Rating        int       `json:"rating,omitempty"`
	PendingReturn bool      `json:"pendingReturn"`
	RedirectedAt  time.Time `json:"redirectedAt,omitempty"`
	ForegroundAt  time.Time `json:"foregroundAt,omitempty"` // zero when not armed
	Name          string    `json:"name,omitempty"`
	Outcome       *Outcome  `json:"outcome,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func NewSession(id, slug string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Slug:      slug,
		State:     StateRatingSelection,
		UpdatedAt: now,
	}
}

// Outcome is what the thank-you screen shows
type Outcome struct {
	Message  string         `json:"message"`
	Discount *util.Discount `json:"discount,omitempty"`
	Share    *ShareLinks    `json:"share,omitempty"`
}

type ShareLinks struct {
	WhatsApp string `json:"whatsapp"`
	SMS      string `json:"sms"`
	PageURL  string `json:"pageUrl"`
}

// Machine applies customer actions to a session for one tenant
type Machine struct {
	Config     model.TenantConfig
	PageURL    string // public review page, for share links
	Debounce   time.Duration
	PendingTTL time.Duration
}

func NewMachine(cfg model.TenantConfig, pageURL string, debounce, pendingTTL time.Duration) *Machine {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if pendingTTL <= 0 {
		pendingTTL = DefaultPendingTTL
	}
	return &Machine{
		Config:     cfg,
		PageURL:    pageURL,
		Debounce:   debounce,
		PendingTTL: pendingTTL,
	}
}

// SelectRating holds the chosen star count; nothing is submitted yet
func (m *Machine) SelectRating(s *Session, rating int, now time.Time) error {
	if s.State != StateRatingSelection && s.State != StateFollowupFeedback {
		return ErrInvalidTransition
	}
	if rating == 0 {
		return ErrRatingRequired
	}
	if rating < model.MinRating || rating > model.MaxRating {
		return ErrInvalidRating
	}

	s.State = StateRatingSelection
	s.Rating = rating
	s.UpdatedAt = now
	return nil
}

// Confirm commits the held rating. For a high rating it returns the external
// review URL the browser should open.
func (m *Machine) Confirm(s *Session, now time.Time) (string, error) {
	if s.State != StateRatingSelection {
		return "", ErrInvalidTransition
	}
	if s.Rating == 0 {
		return "", ErrRatingRequired
	}

	if !m.Config.ReviewRedirects(s.Rating) {
		s.State = StateFollowupFeedback
		s.UpdatedAt = now
		return "", nil
	}

	reviewURL := m.Config.GoogleReviewURL
	if reviewURL == "" {
		return "", ErrReviewURLMissing
	}

	s.State = StateHighRatingRedirect
	s.PendingReturn = true
	s.RedirectedAt = now
	s.ForegroundAt = time.Time{}
	s.UpdatedAt = now
	return reviewURL, nil
}

// CheckFeedback validates a feedback submission without changing the session
func (m *Machine) CheckFeedback(s *Session, comments string) error {
	if s.State != StateFollowupFeedback {
		return ErrInvalidTransition
	}
	if strings.TrimSpace(comments) == "" {
		return ErrCommentsRequired
	}
	return nil
}

// SubmitFeedback finishes the low rating path. The caller persists the
// review before calling this.
func (m *Machine) SubmitFeedback(s *Session, name, comments string, now time.Time) error {
	if err := m.CheckFeedback(s, comments); err != nil {
		return err
	}
	s.Name = strings.TrimSpace(name)
	m.thankYou(s, now)
	return nil
}

// Foreground arms return detection when the page becomes visible again
func (m *Machine) Foreground(s *Session, now time.Time) {
	if m.expire(s, now) || !s.PendingReturn {
		return
	}
	s.ForegroundAt = now
	s.UpdatedAt = now
}

// Background disarms return detection; a quick tab switch is not a return
func (m *Machine) Background(s *Session, now time.Time) {
	if s.ForegroundAt.IsZero() {
		return
	}
	s.ForegroundAt = time.Time{}
	s.UpdatedAt = now
}

// Settle confirms the return once the page stayed visible for Debounce.
// Reports whether the session reached the thank-you screen.
func (m *Machine) Settle(s *Session, now time.Time) bool {
	if m.expire(s, now) || !s.PendingReturn || s.ForegroundAt.IsZero() {
		return false
	}
	if now.Sub(s.ForegroundAt) < m.Debounce {
		return false
	}
	m.thankYou(s, now)
	return true
}

// Resume handles a full page load: a pending return with a qualifying
// rating is confirmed immediately.
func (m *Machine) Resume(s *Session, now time.Time) bool {
	if m.expire(s, now) || !s.PendingReturn {
		return false
	}
	if !m.Config.ReviewRedirects(s.Rating) {
		return false
	}
	m.thankYou(s, now)
	return true
}

// expire drops a pending return older than PendingTTL
func (m *Machine) expire(s *Session, now time.Time) bool {
	if s.State != StateHighRatingRedirect || !s.PendingReturn {
		return false
	}
	if now.Sub(s.RedirectedAt) <= m.PendingTTL {
		return false
	}
	s.State = StateRatingSelection
	s.PendingReturn = false
	s.RedirectedAt = time.Time{}
	s.ForegroundAt = time.Time{}
	s.UpdatedAt = now
	return true
}

func (m *Machine) thankYou(s *Session, now time.Time) {
	s.State = StateThankYou
	s.PendingReturn = false
	s.ForegroundAt = time.Time{}
	s.Outcome = m.outcome(s.Name, now)
	s.UpdatedAt = now
}

func (m *Machine) outcome(name string, now time.Time) *Outcome {
	cfg := m.Config
	if !cfg.DiscountEnabled {
		return &Outcome{Message: "Thank you for your feedback!"}
	}

	discount := util.NewDiscount(name, cfg.DiscountPercentage, cfg.DiscountValidDays, now)
	out := &Outcome{
		Message:  fmt.Sprintf("Thank you! Here is %d%% off your next visit.", discount.Percentage),
		Discount: &discount,
	}
	if cfg.ReferralEnabled {
		out.Share = m.shareLinks()
	}
	return out
}

func (m *Machine) shareLinks() *ShareLinks {
	cfg := m.Config
	pct := cfg.DiscountPercentage

	whatsApp := fmt.Sprintf("Check out %s! Leave a quick review and get %d%% off: %s 🎁", cfg.Name, pct, m.PageURL)
	sms := fmt.Sprintf("Hey! Leave a review for %s and get %d%% off: %s", cfg.Name, pct, m.PageURL)
	if msg := strings.TrimSpace(cfg.ReferralMessage); msg != "" {
		whatsApp = msg + " " + m.PageURL
		sms = whatsApp
	}

	return &ShareLinks{
		WhatsApp: whatsAppShareBase + encodeComponent(whatsApp),
		SMS:      smsShareBase + encodeComponent(sms),
		PageURL:  m.PageURL,
	}
}

// encodeComponent escapes like encodeURIComponent (spaces as %20)
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
