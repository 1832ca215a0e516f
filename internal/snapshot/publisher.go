// Package snapshot builds the slug -> tenant config mapping and publishes it
// to object storage, where the page layer reads hero images for previews.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ikkim/reviewfunnel-backend/internal/app/model"
	"github.com/ikkim/reviewfunnel-backend/internal/app/repository"
	"github.com/ikkim/reviewfunnel-backend/internal/tenant"
	"github.com/ikkim/reviewfunnel-backend/pkg/logger"
)

const publishTimeout = 30 * time.Second

// ObjectStore is satisfied by storage.S3Storage
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// Document is the published file layout
type Document struct {
	GeneratedAt time.Time                     `json:"generatedAt"`
	Tenants     map[string]model.TenantConfig `json:"tenants"`
}

type Publisher struct {
	repo          repository.BusinessRepository
	store         ObjectStore // nil keeps the snapshot in memory only
	key           string
	static        *tenant.StaticProvider
	reviewBaseURL string

	mu sync.Mutex // one publish at a time
}

func NewPublisher(
	repo repository.BusinessRepository,
	store ObjectStore,
	key string,
	static *tenant.StaticProvider,
	reviewBaseURL string,
) *Publisher {
	return &Publisher{
		repo:          repo,
		store:         store,
		key:           key,
		static:        static,
		reviewBaseURL: reviewBaseURL,
	}
}

// Build reads every business and resolves its config
func (p *Publisher) Build(now time.Time) (*Document, error) {
	businesses, err := p.repo.FindAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list businesses: %w", err)
	}

	doc := &Document{
		GeneratedAt: now.UTC(),
		Tenants:     make(map[string]model.TenantConfig, len(businesses)),
	}
	for i := range businesses {
		doc.Tenants[businesses[i].Slug] = model.NewTenantConfig(&businesses[i], p.reviewBaseURL)
	}
	return doc, nil
}

// Publish rebuilds the snapshot, swaps it into the static provider and uploads it
func (p *Publisher) Publish(ctx context.Context) (*Document, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	doc, err := p.Build(time.Now())
	if err != nil {
		return nil, err
	}
	p.static.Replace(doc.Tenants)

	if p.store != nil {
		body, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode snapshot: %w", err)
		}
		if err := p.store.Put(ctx, p.key, body, "application/json"); err != nil {
			return nil, err
		}
	}

	logger.Info("Tenant snapshot published", map[string]interface{}{
		"tenants": len(doc.Tenants),
		"key":     p.key,
		"remote":  p.store != nil,
	})
	return doc, nil
}

// PublishAsync runs Publish in the background; failures are only logged
func (p *Publisher) PublishAsync() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if _, err := p.Publish(ctx); err != nil {
			logger.Error("Background tenant snapshot publish failed", err, map[string]interface{}{
				"key": p.key,
			})
		}
	}()
}

// Load primes the static provider from the last uploaded snapshot
func (p *Publisher) Load(ctx context.Context) error {
	if p.store == nil {
		return nil
	}

	body, err := p.store.Get(ctx, p.key)
	if err != nil {
		return err
	}

	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}
	p.static.Replace(doc.Tenants)

	logger.Info("Tenant snapshot loaded", map[string]interface{}{
		"tenants":      len(doc.Tenants),
		"generated_at": doc.GeneratedAt,
	})
	return nil
}
