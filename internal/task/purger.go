package task

import (
	"context"
	"log/slog"
	"time"
)

// ExpiredContentStore removes expired content blocks. *service.ContentService
// satisfies it.
type ExpiredContentStore interface {
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}

// Purger periodically deletes expired content blocks so the cache table does
// not grow without bound. Reads already ignore expired rows; this is purely
// hygiene.
type Purger struct {
	content  ExpiredContentStore
	interval time.Duration
	logger   *slog.Logger
	nowFunc  func() time.Time
}

// NewPurger creates a new Purger running at the given interval.
func NewPurger(content ExpiredContentStore, interval time.Duration, logger *slog.Logger) *Purger {
	return &Purger{
		content:  content,
		interval: interval,
		logger:   logger.With("component", "content_purger"),
		nowFunc:  func() time.Time { return time.Now().UTC() },
	}
}

// Run purges until ctx is cancelled. It blocks; callers start it in its own
// goroutine.
func (p *Purger) Run(ctx context.Context) {
	p.logger.Info("content purger started", "interval", p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("content purger stopping")
			return
		case <-ticker.C:
			n, err := p.content.PurgeExpired(ctx, p.nowFunc())
			if err != nil {
				p.logger.ErrorContext(ctx, "failed to purge expired content blocks", "error", err)
				continue
			}
			if n > 0 {
				p.logger.InfoContext(ctx, "purged expired content blocks", "count", n)
			}
		}
	}
}
