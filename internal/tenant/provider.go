package tenant

import (
	"context"
	"errors"
	"sync"

	"github.com/ikkim/reviewfunnel-backend/internal/app/model"
	"github.com/ikkim/reviewfunnel-backend/internal/app/repository"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("tenant not found")

// Provider looks up a tenant configuration by slug.
// Implementations return ErrNotFound when the slug is unknown.
type Provider interface {
	Lookup(ctx context.Context, slug string) (*model.TenantConfig, error)
}

// DBProvider is the authoritative provider backed by the businesses table.
type DBProvider struct {
	repo          repository.BusinessRepository
	reviewBaseURL string
}

func NewDBProvider(repo repository.BusinessRepository, reviewBaseURL string) *DBProvider {
	return &DBProvider{repo: repo, reviewBaseURL: reviewBaseURL}
}

func (p *DBProvider) Lookup(_ context.Context, slug string) (*model.TenantConfig, error) {
	b, err := p.repo.FindBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	cfg := model.NewTenantConfig(b, p.reviewBaseURL)
	return &cfg, nil
}

// StaticProvider serves a published snapshot held in memory.
type StaticProvider struct {
	mu      sync.RWMutex
	configs map[string]model.TenantConfig
}

func NewStaticProvider(configs map[string]model.TenantConfig) *StaticProvider {
	p := &StaticProvider{}
	p.Replace(configs)
	return p
}

func (p *StaticProvider) Lookup(_ context.Context, slug string) (*model.TenantConfig, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	cfg, ok := p.configs[slug]
	if !ok {
		return nil, ErrNotFound
	}
	return &cfg, nil
}

// Replace swaps the whole snapshot atomically
func (p *StaticProvider) Replace(configs map[string]model.TenantConfig) {
	copied := make(map[string]model.TenantConfig, len(configs))
	for k, v := range configs {
		copied[k] = v
	}

	p.mu.Lock()
	p.configs = copied
	p.mu.Unlock()
}

func (p *StaticProvider) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.configs)
}
