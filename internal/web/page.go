// Package web renders the customer-facing review page.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/ikkim/reviewfunnel-backend/internal/app/model"
)

//go:embed templates/*.html
var templateFS embed.FS

const reviewPageTemplate = "review.html"

var pageTemplates = template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))

// ReviewPage is everything the review page template needs
type ReviewPage struct {
	Title       string
	Description string
	OGImage     string
	OGURL       string
	Config      model.TenantConfig
}

// NewReviewPage fills the share metadata for a tenant
func NewReviewPage(cfg model.TenantConfig, heroImage, host, requestURI string) ReviewPage {
	if heroImage == "" {
		heroImage = "https://" + host + "/logo.png"
	}
	title := "Review " + cfg.Name
	if cfg.IsDefault() {
		title = cfg.Name
	}
	return ReviewPage{
		Title:       title,
		Description: fmt.Sprintf("Tell %s about your visit", cfg.Name),
		OGImage:     heroImage,
		OGURL:       "https://" + host + requestURI,
		Config:      cfg,
	}
}

// RenderReviewPage executes the page into memory so a template error never
// produces a half-written response
func RenderReviewPage(page ReviewPage) ([]byte, error) {
	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, reviewPageTemplate, page); err != nil {
		return nil, fmt.Errorf("render review page: %w", err)
	}
	return buf.Bytes(), nil
}
