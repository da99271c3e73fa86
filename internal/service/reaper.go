package service

import (
	"context"
	"time"

	"snapgram/internal/logger"
	"snapgram/internal/repository"
)

// DefaultReapInterval bounds the staleness window: an expired snap survives at
// most this long before a pass removes it. Correctness does not depend on the
// exact value because read paths filter on expires_at as well.
const DefaultReapInterval = time.Hour

// ReaperService hard-deletes snaps past their lifetime.
type ReaperService struct {
	snaps repository.Snaps
	log   *logger.Logger
}

func NewReaperService(snaps repository.Snaps, log *logger.Logger) *ReaperService {
	return &ReaperService{snaps: snaps, log: log}
}

// Run executes one pass immediately (to catch anything that expired while the
// process was down), then one per interval until ctx is canceled.
func (s *ReaperService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultReapInterval
	}

	s.pass(ctx, time.Now())

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			s.pass(ctx, now)
		}
	}
}

// pass deletes everything past TTL in a single transaction. Hashtag rows go
// with their snaps via the FK cascade. A failed pass rolls back inside the
// repository and is only logged; the schedule always continues.
func (s *ReaperService) pass(ctx context.Context, now time.Time) {
	ids, err := s.snaps.DeleteExpired(ctx, now.UTC().Add(-SnapTTL))
	if err != nil {
		if s.log != nil {
			s.log.Errorw("snap_cleanup_failed", "err", err)
		}
		return
	}
	if len(ids) > 0 && s.log != nil {
		s.log.Infow("snap_cleanup_completed", "deleted", len(ids))
	}
}
