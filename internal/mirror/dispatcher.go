// Package mirror forwards submitted feedback to a tenant's external sink
// (typically a spreadsheet script) without blocking the submitting request.
package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/ikkim/reviewfunnel-backend/pkg/logger"
)

var (
	ErrQueueFull = errors.New("mirror queue is full")
	ErrStopped   = errors.New("mirror dispatcher stopped")
)

// Payload is the flattened row sent to the sink
type Payload struct {
	BusinessSlug       string    `json:"business_slug"`
	BusinessName       string    `json:"business_name"`
	Category           string    `json:"category"`
	PlaceID            string    `json:"place_id"`
	GoogleMapsURL      string    `json:"google_maps_url"`
	Rating             int       `json:"rating"`
	Name               string    `json:"name"`
	Comments           string    `json:"comments"`
	DiscountCode       string    `json:"discount_code,omitempty"`
	DiscountPercentage int       `json:"discount_percentage,omitempty"`
	DiscountValidDays  int       `json:"discount_valid_days,omitempty"`
	DiscountExpiresOn  string    `json:"discount_expires_on,omitempty"`
	SubmittedAt        time.Time `json:"submitted_at"`
}

type Job struct {
	URL      string
	ReviewID uint
	Payload  Payload
}

// Dispatcher runs a fixed pool of workers draining a bounded job queue
type Dispatcher struct {
	client       *resty.Client
	workerCount  int
	jobs         chan Job
	shutdownChan chan struct{}
	waitGroup    sync.WaitGroup
	stopOnce     sync.Once
}

func NewDispatcher(workerCount, queueSize int, timeout time.Duration) *Dispatcher {
	if workerCount < 1 {
		workerCount = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	// Apps Script endpoints reject CORS preflight; plain text avoids it
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "text/plain;charset=utf-8")

	return &Dispatcher{
		client:       client,
		workerCount:  workerCount,
		jobs:         make(chan Job, queueSize),
		shutdownChan: make(chan struct{}),
	}
}

func (d *Dispatcher) Start() {
	logger.Info("Starting mirror workers", map[string]interface{}{
		"workers": d.workerCount,
	})

	for i := 0; i < d.workerCount; i++ {
		d.waitGroup.Add(1)
		go d.runWorker(i)
	}
}

// Stop waits for in-flight and queued jobs to finish
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		logger.Info("Stopping mirror workers...", nil)
		close(d.shutdownChan)
		d.waitGroup.Wait()
		logger.Info("All mirror workers stopped", nil)
	})
}

// Enqueue never blocks; a full queue drops the job
func (d *Dispatcher) Enqueue(job Job) error {
	if job.URL == "" {
		return nil
	}

	select {
	case <-d.shutdownChan:
		return ErrStopped
	default:
	}

	select {
	case d.jobs <- job:
		return nil
	default:
		logger.Warn("Mirror queue full, dropping job", map[string]interface{}{
			"review_id":     job.ReviewID,
			"business_slug": job.Payload.BusinessSlug,
		})
		return ErrQueueFull
	}
}

func (d *Dispatcher) runWorker(workerID int) {
	defer d.waitGroup.Done()

	for {
		select {
		case job := <-d.jobs:
			d.process(workerID, job)
		case <-d.shutdownChan:
			// drain what is already queued
			for {
				select {
				case job := <-d.jobs:
					d.process(workerID, job)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) process(workerID int, job Job) {
	if err := d.Send(context.Background(), job); err != nil {
		logger.Error("Failed to mirror review", err, map[string]interface{}{
			"worker":        workerID,
			"review_id":     job.ReviewID,
			"business_slug": job.Payload.BusinessSlug,
		})
		return
	}

	logger.Debug("Review mirrored", map[string]interface{}{
		"worker":        workerID,
		"review_id":     job.ReviewID,
		"business_slug": job.Payload.BusinessSlug,
	})
}

// Send posts a single job synchronously
func (d *Dispatcher) Send(ctx context.Context, job Job) error {
	// resty only encodes structs for JSON content types
	body, err := json.Marshal(job.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode mirror payload: %w", err)
	}

	resp, err := d.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(job.URL)
	if err != nil {
		return fmt.Errorf("mirror request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("mirror endpoint returned %d", resp.StatusCode())
	}
	return nil
}
