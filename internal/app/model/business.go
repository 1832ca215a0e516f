package model

import (
	"time"
)

// BusinessSettings businesses.config JSON 컬럼에 저장되는 기능 플래그
type BusinessSettings struct {
	DiscountEnabled    bool   `json:"discount_enabled"`
	DiscountPercentage int    `json:"discount_percentage"`
	DiscountValidDays  int    `json:"discount_valid_days"`
	ReferralEnabled    bool   `json:"referral_enabled"`
	ReferralMessage    string `json:"referral_message,omitempty"`
	ReviewThreshold    int    `json:"review_threshold"`
	SheetScriptURL     string `json:"sheet_script_url"`           // 피드백 미러링 대상 (Apps Script 등)
}

// 신규 비즈니스 기본 설정
const (
	DefaultDiscountPercentage = 10
	DefaultDiscountValidDays  = 30
	DefaultReviewThreshold    = 5
)

// DefaultBusinessSettings 비즈니스 생성 시 명시하지 않은 값의 기본값
func DefaultBusinessSettings() BusinessSettings {
	return BusinessSettings{
		DiscountEnabled:    true,
		DiscountPercentage: DefaultDiscountPercentage,
		DiscountValidDays:  DefaultDiscountValidDays,
		ReferralEnabled:    true,
		ReviewThreshold:    DefaultReviewThreshold,
	}
}

// Business 테넌트 (서브도메인 하나당 하나)
type Business struct {
	ID              uint             `gorm:"primarykey" json:"id"`
	UserID          uint             `gorm:"not null;index" json:"userId"`                       // 소유자
	Slug            string           `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"` // 서브도메인, 생성 후 불변
	PlaceID         string           `gorm:"not null" json:"placeId"`                            // Google Place ID
	Name            string           `gorm:"not null" json:"name"`
	Category        string           `json:"category"`
	GoogleMapsURL   string           `json:"googleMapsUrl"`
	HeroImage       string           `json:"heroImage"`
	LogoURL         string           `json:"logoUrl"`
	GoogleReviewURL string           `json:"googleReviewUrl,omitempty"`                          // 명시적 리뷰 URL (없으면 place id로 생성)
	Config          BusinessSettings `gorm:"type:jsonb;serializer:json" json:"config"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (Business) TableName() string {
	return "businesses"
}
