package model

import (
	"time"
)

// 평점 범위
const (
	MinRating = 1
	MaxRating = 5
)

// Review 고객 비공개 피드백 (임계값 미만 평점만 저장, 수정/삭제 없음)
type Review struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	BusinessID  uint      `gorm:"not null;index" json:"-"`
	Rating      int       `gorm:"not null;check:chk_reviews_rating,rating >= 1 AND rating <= 5" json:"rating"`
	Name        *string   `json:"name"`
	Comments    string    `gorm:"type:text;not null" json:"comments"`
	SubmittedAt time.Time `gorm:"not null;index" json:"submittedAt"`

	Business *Business `gorm:"foreignKey:BusinessID" json:"-"`
}

func (Review) TableName() string {
	return "reviews"
}

// ReviewerName 이름이 없으면 빈 문자열
func (r *Review) ReviewerName() string {
	if r.Name == nil {
		return ""
	}
	return *r.Name
}
