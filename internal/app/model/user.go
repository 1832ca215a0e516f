package model

import (
	"time"
)

type PlanTier string // 요금제 등급

const (
	PlanFree PlanTier = "free" // 무료 (비즈니스 1개 제한)
	PlanPro  PlanTier = "pro"  // 유료
)

const PlanStatusActive = "active"

// FreeTierBusinessLimit 무료 플랜 계정이 소유할 수 있는 최대 비즈니스 수
const FreeTierBusinessLimit = 1

type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`                                                             // 사용자 ID
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`                                                // 이메일
	PasswordHash string    `gorm:"not null" json:"-"`                                                                // 비밀번호 해시
	Name         *string   `json:"name"`                                                                             // 표시 이름 (선택)
	PlanTier     PlanTier  `gorm:"column:subscription_tier;type:varchar(20);default:'free'" json:"subscriptionTier"` // 요금제
	PlanStatus   string    `gorm:"column:subscription_status;type:varchar(20);default:'active'" json:"-"`            // 요금제 상태
	CreatedAt    time.Time `json:"createdAt"`                                                                        // 생성 시각
	UpdatedAt    time.Time `json:"-"`                                                                                // 수정 시각

	Businesses []Business `gorm:"foreignKey:UserID" json:"-"` // 소유 비즈니스 목록
}

func (User) TableName() string {
	return "users"
}

// DisplayName 이름이 없으면 빈 문자열
func (u *User) DisplayName() string {
	if u.Name == nil {
		return ""
	}
	return *u.Name
}

// IsFreeTier 무료 플랜 여부 (빈 값도 무료로 취급)
func (u *User) IsFreeTier() bool {
	return u.PlanTier == "" || u.PlanTier == PlanFree
}
