package service

import (
	"context"
	"errors"

	"github.com/ikkim/reviewfunnel-backend/internal/app/model"
	"github.com/ikkim/reviewfunnel-backend/internal/tenant"
	"github.com/ikkim/reviewfunnel-backend/pkg/logger"
	"github.com/ikkim/reviewfunnel-backend/pkg/util"
)

// TenantService 리뷰 페이지용 테넌트 설정 조회, 실패하지 않음
type TenantService interface {
	Resolve(ctx context.Context, slug string) model.TenantConfig
	HeroImage(ctx context.Context, slug string) string
	Invalidate(ctx context.Context, slug string)
}

type invalidator interface {
	Invalidate(ctx context.Context, slug string) error
}

type tenantService struct {
	provider tenant.Provider
	snapshot tenant.Provider // optional hero image side channel
}

func NewTenantService(provider tenant.Provider, snapshot tenant.Provider) TenantService {
	return &tenantService{
		provider: provider,
		snapshot: snapshot,
	}
}

// Resolve 찾지 못하거나 조회 오류가 나면 기본 설정 반환
func (s *tenantService) Resolve(ctx context.Context, slug string) model.TenantConfig {
	if slug == "" || slug == util.DefaultSlug {
		return model.DefaultTenantConfig()
	}

	cfg, err := s.provider.Lookup(ctx, slug)
	if err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			logger.Debug("Tenant not found, using default config", map[string]interface{}{
				"slug": slug,
			})
		} else {
			logger.Error("Tenant lookup failed, using default config", err, map[string]interface{}{
				"slug": slug,
			})
		}
		return model.DefaultTenantConfig()
	}
	return *cfg
}

// HeroImage 스냅샷 우선, 없으면 설정에서 조회. 모르면 빈 문자열
func (s *tenantService) HeroImage(ctx context.Context, slug string) string {
	if slug == "" || slug == util.DefaultSlug {
		return ""
	}
	if s.snapshot != nil {
		if cfg, err := s.snapshot.Lookup(ctx, slug); err == nil && cfg.HeroImageURL != "" {
			return cfg.HeroImageURL
		}
	}
	return s.Resolve(ctx, slug).HeroImageURL
}

// Invalidate 캐시 공급자일 때만 의미 있음
func (s *tenantService) Invalidate(ctx context.Context, slug string) {
	inv, ok := s.provider.(invalidator)
	if !ok {
		return
	}
	if err := inv.Invalidate(ctx, slug); err != nil {
		logger.Warn("Failed to invalidate tenant cache", map[string]interface{}{
			"slug":  slug,
			"error": err.Error(),
		})
	}
}
