package model

import (
	"net/url"
	"strings"
)

const (
	DefaultTenantName     = "Review Tool"
	DefaultTenantCategory = "Business"
)

// TenantConfig 리뷰 페이지가 사용하는 해석된 테넌트 설정
type TenantConfig struct {
	BusinessID          uint   `json:"-"`
	Slug                string `json:"slug"`
	Name                string `json:"name"`
	Category            string `json:"category"`
	GoogleMapsURL       string `json:"googleMapsUrl"`
	GooglePlaceID       string `json:"googlePlaceId"`
	HeroImageURL        string `json:"heroImageUrl"`
	LogoURL             string `json:"logoUrl"`
	GoogleReviewBaseURL string `json:"googleReviewBaseUrl"`
	GoogleReviewURL     string `json:"googleReviewUrl"`
	DiscountEnabled     bool   `json:"discountEnabled"`
	DiscountPercentage  int    `json:"discountPercentage"`
	DiscountValidDays   int    `json:"discountValidDays"`
	ReferralEnabled     bool   `json:"referralEnabled"`
	ReferralMessage     string `json:"referralMessage,omitempty"`
	ReviewThreshold     int    `json:"reviewThreshold"`
	FeedbackSinkURL     string `json:"feedbackSinkUrl,omitempty"`
}

// DefaultTenantConfig 테넌트를 찾지 못했을 때 쓰는 일반 리뷰 폼 설정
func DefaultTenantConfig() TenantConfig {
	return TenantConfig{
		Slug:               "default",
		Name:               DefaultTenantName,
		Category:           DefaultTenantCategory,
		DiscountPercentage: DefaultDiscountPercentage,
		DiscountValidDays:  DefaultDiscountValidDays,
		ReviewThreshold:    DefaultReviewThreshold,
	}
}

// IsDefault 기본 설정 여부
func (c TenantConfig) IsDefault() bool {
	return c.BusinessID == 0
}

// ReviewRedirects 이 평점이 외부 리뷰로 이동해야 하는지
func (c TenantConfig) ReviewRedirects(rating int) bool {
	return rating >= c.ReviewThreshold
}

// NewTenantConfig 비즈니스 레코드로부터 설정을 해석
func NewTenantConfig(b *Business, reviewBaseURL string) TenantConfig {
	cfg := TenantConfig{
		BusinessID:          b.ID,
		Slug:                b.Slug,
		Name:                b.Name,
		Category:            b.Category,
		GoogleMapsURL:       b.GoogleMapsURL,
		GooglePlaceID:       b.PlaceID,
		HeroImageURL:        b.HeroImage,
		LogoURL:             b.LogoURL,
		GoogleReviewBaseURL: reviewBaseURL,
		DiscountEnabled:     b.Config.DiscountEnabled,
		DiscountPercentage:  positiveOr(b.Config.DiscountPercentage, DefaultDiscountPercentage),
		DiscountValidDays:   positiveOr(b.Config.DiscountValidDays, DefaultDiscountValidDays),
		ReferralEnabled:     b.Config.ReferralEnabled,
		ReferralMessage:     b.Config.ReferralMessage,
		ReviewThreshold:     ClampThreshold(b.Config.ReviewThreshold),
		FeedbackSinkURL:     strings.TrimSpace(b.Config.SheetScriptURL),
	}
	if cfg.Category == "" {
		cfg.Category = DefaultTenantCategory
	}
	cfg.GoogleReviewURL = ReviewURL(b.GoogleReviewURL, reviewBaseURL, b.PlaceID)
	return cfg
}

// ReviewURL 명시 URL이 있으면 그대로, 없으면 base + place id. 둘 다 없으면 빈 문자열
func ReviewURL(explicit, baseURL, placeID string) string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit
	}
	placeID = strings.TrimSpace(placeID)
	if placeID == "" || baseURL == "" {
		return ""
	}
	return baseURL + url.QueryEscape(placeID)
}

// ClampThreshold 임계값을 [1,5]로 보정, 0(미설정)은 기본값 5
func ClampThreshold(threshold int) int {
	switch {
	case threshold == 0:
		return DefaultReviewThreshold
	case threshold < MinRating:
		return MinRating
	case threshold > MaxRating:
		return MaxRating
	}
	return threshold
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
