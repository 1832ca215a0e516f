package scheduler

import (
	"context"
	"time"

	"github.com/ikkim/reviewfunnel-backend/internal/snapshot"
	"github.com/ikkim/reviewfunnel-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

const runTimeout = time.Minute

// SnapshotPublisher 테넌트 스냅샷 발행 인터페이스
type SnapshotPublisher interface {
	Publish(ctx context.Context) (*snapshot.Document, error)
}

// SnapshotScheduler 테넌트 설정 스냅샷 주기적 재발행 스케줄러
type SnapshotScheduler struct {
	cron      *cron.Cron
	spec      string
	publisher SnapshotPublisher
}

// NewSnapshotScheduler 스냅샷 스케줄러 생성
func NewSnapshotScheduler(spec string, publisher SnapshotPublisher) *SnapshotScheduler {
	return &SnapshotScheduler{
		cron:      cron.New(),
		spec:      spec,
		publisher: publisher,
	}
}

// Start 스케줄러 시작
func (s *SnapshotScheduler) Start() error {
	// 기본값 "*/15 * * * *" = 15분마다
	_, err := s.cron.AddFunc(s.spec, s.run)
	if err != nil {
		logger.Error("Failed to add cron job for tenant snapshot", err, map[string]interface{}{
			"spec": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Tenant snapshot scheduler started", map[string]interface{}{
		"spec": s.spec,
	})

	return nil
}

func (s *SnapshotScheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	logger.Info("Starting scheduled tenant snapshot publish", nil)

	if _, err := s.publisher.Publish(ctx); err != nil {
		logger.Error("Failed to publish tenant snapshot from scheduler", err)
		return
	}
}

// Stop 스케줄러 중지, 실행 중인 작업은 완료될 때까지 대기
func (s *SnapshotScheduler) Stop() {
	logger.Info("Stopping tenant snapshot scheduler...", nil)
	<-s.cron.Stop().Done()
	logger.Info("Tenant snapshot scheduler stopped", nil)
}
