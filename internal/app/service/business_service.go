package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ikkim/reviewfunnel-backend/internal/app/model"
	"github.com/ikkim/reviewfunnel-backend/internal/app/repository"
	"github.com/ikkim/reviewfunnel-backend/internal/tenant"
	"github.com/ikkim/reviewfunnel-backend/pkg/logger"
	"github.com/ikkim/reviewfunnel-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrBusinessFieldsRequired = errors.New("Business name and Place ID are required")
	ErrBusinessLimitReached   = errors.New("You have reached the limit of businesses for your plan. Upgrade to add more businesses.")
	ErrSlugConflict           = errors.New("A business with this slug already exists")
	ErrBusinessNotFound       = errors.New("Business not found")
	ErrAccessDenied           = errors.New("Access denied")
)

// BusinessSettingsInput 생성 요청의 config, 생략한 값은 기본값 사용
type BusinessSettingsInput struct {
	DiscountEnabled    *bool   `json:"discount_enabled"`
	DiscountPercentage *int    `json:"discount_percentage"`
	DiscountValidDays  *int    `json:"discount_valid_days"`
	ReferralEnabled    *bool   `json:"referral_enabled"`
	ReferralMessage    *string `json:"referral_message"`
	ReviewThreshold    *int    `json:"review_threshold"`
	SheetScriptURL     *string `json:"sheet_script_url"`
}

type CreateBusinessInput struct {
	Name            string
	PlaceID         string
	Category        string
	GoogleMapsURL   string
	HeroImage       string
	LogoURL         string
	GoogleReviewURL string
	Config          *BusinessSettingsInput
}

type CreateBusinessResult struct {
	Business  *model.Business
	ReviewURL string
}

// SnapshotTrigger 테넌트 스냅샷 비동기 재발행 (snapshot.Publisher)
type SnapshotTrigger interface {
	PublishAsync()
}

type BusinessService interface {
	CreateBusiness(ctx context.Context, ownerID uint, input CreateBusinessInput, host string) (*CreateBusinessResult, error)
	ListBusinesses(ownerID uint) ([]model.Business, error)
	GetOwnedBusiness(ownerID uint, slug string) (*model.Business, error)
}

type businessService struct {
	businessRepo repository.BusinessRepository
	userRepo     repository.UserRepository
	tenants      TenantService
	snapshot     SnapshotTrigger // optional
	baseDomain   string
}

func NewBusinessService(
	businessRepo repository.BusinessRepository,
	userRepo repository.UserRepository,
	tenants TenantService,
	snapshot SnapshotTrigger,
	baseDomain string,
) BusinessService {
	return &businessService{
		businessRepo: businessRepo,
		userRepo:     userRepo,
		tenants:      tenants,
		snapshot:     snapshot,
		baseDomain:   baseDomain,
	}
}

func (s *businessService) CreateBusiness(ctx context.Context, ownerID uint, input CreateBusinessInput, host string) (*CreateBusinessResult, error) {
	name := strings.TrimSpace(input.Name)
	placeID := strings.TrimSpace(input.PlaceID)
	if name == "" || placeID == "" {
		return nil, ErrBusinessFieldsRequired
	}

	logger.Info("Creating business", map[string]interface{}{
		"owner_id": ownerID,
		"name":     name,
	})

	owner, err := s.userRepo.FindByID(ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		logger.Error("Failed to fetch business owner", err, map[string]interface{}{
			"owner_id": ownerID,
		})
		return nil, err
	}

	// 무료 플랜 1개 제한
	if owner.IsFreeTier() {
		count, err := s.businessRepo.CountByUserID(ownerID)
		if err != nil {
			logger.Error("Failed to count businesses", err, map[string]interface{}{
				"owner_id": ownerID,
			})
			return nil, err
		}
		if count >= model.FreeTierBusinessLimit {
			logger.Warn("Business limit reached", map[string]interface{}{
				"owner_id": ownerID,
				"count":    count,
			})
			return nil, ErrBusinessLimitReached
		}
	}

	slug, err := util.NextFreeSlug(tenant.RoutableSlug(util.Slugify(name)), s.businessRepo.SlugExists)
	if err != nil {
		logger.Error("Failed to resolve slug", err, map[string]interface{}{
			"name": name,
		})
		return nil, err
	}

	business := &model.Business{
		UserID:          ownerID,
		Slug:            slug,
		PlaceID:         placeID,
		Name:            name,
		Category:        strings.TrimSpace(input.Category),
		GoogleMapsURL:   strings.TrimSpace(input.GoogleMapsURL),
		HeroImage:       strings.TrimSpace(input.HeroImage),
		LogoURL:         strings.TrimSpace(input.LogoURL),
		GoogleReviewURL: strings.TrimSpace(input.GoogleReviewURL),
		Config:          applySettings(input.Config),
	}

	if err := s.businessRepo.Create(business); err != nil {
		// 같은 이름 동시 생성 경쟁
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			logger.Warn("Slug conflict while creating business", map[string]interface{}{
				"slug": slug,
			})
			return nil, ErrSlugConflict
		}
		return nil, err
	}

	s.tenants.Invalidate(ctx, slug)
	if s.snapshot != nil {
		s.snapshot.PublishAsync()
	}

	logger.Info("Business created successfully", map[string]interface{}{
		"business_id": business.ID,
		"owner_id":    ownerID,
		"slug":        slug,
	})

	return &CreateBusinessResult{
		Business:  business,
		ReviewURL: tenant.PublicURL(slug, host, s.baseDomain),
	}, nil
}

func applySettings(in *BusinessSettingsInput) model.BusinessSettings {
	settings := model.DefaultBusinessSettings()
	if in == nil {
		return settings
	}

	if in.DiscountEnabled != nil {
		settings.DiscountEnabled = *in.DiscountEnabled
	}
	if in.DiscountPercentage != nil && *in.DiscountPercentage > 0 {
		settings.DiscountPercentage = *in.DiscountPercentage
	}
	if in.DiscountValidDays != nil && *in.DiscountValidDays > 0 {
		settings.DiscountValidDays = *in.DiscountValidDays
	}
	if in.ReferralEnabled != nil {
		settings.ReferralEnabled = *in.ReferralEnabled
	}
	if in.ReferralMessage != nil {
		settings.ReferralMessage = strings.TrimSpace(*in.ReferralMessage)
	}
	if in.ReviewThreshold != nil {
		settings.ReviewThreshold = model.ClampThreshold(*in.ReviewThreshold)
	}
	if in.SheetScriptURL != nil {
		settings.SheetScriptURL = strings.TrimSpace(*in.SheetScriptURL)
	}
	return settings
}

func (s *businessService) ListBusinesses(ownerID uint) ([]model.Business, error) {
	businesses, err := s.businessRepo.FindByUserID(ownerID)
	if err != nil {
		return nil, err
	}
	return businesses, nil
}

// GetOwnedBusiness 소유자 확인 후 반환
func (s *businessService) GetOwnedBusiness(ownerID uint, slug string) (*model.Business, error) {
	return findOwnedBusiness(s.businessRepo, ownerID, slug)
}

func findOwnedBusiness(repo repository.BusinessRepository, ownerID uint, slug string) (*model.Business, error) {
	business, err := repo.FindBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBusinessNotFound
		}
		logger.Error("Failed to fetch business", err, map[string]interface{}{
			"slug": slug,
		})
		return nil, err
	}

	if business.UserID != ownerID {
		logger.Warn("Business access denied", map[string]interface{}{
			"slug":     slug,
			"owner_id": ownerID,
		})
		return nil, ErrAccessDenied
	}
	return business, nil
}
