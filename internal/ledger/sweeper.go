package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/meterwise/creditledger/internal/metrics"
	"github.com/meterwise/creditledger/internal/models"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	defaultSweepInterval = 10 * time.Minute
	sweepBatchSize       = 500
)

// Sweeper periodically applies the monthly rollover to stale balances. It is
// an optional backstop: the engine also resets lazily on first touch, so the
// sweep and a concurrent per-request reset race safely (the loser finds the
// reset already applied and does nothing).
type Sweeper struct {
	db       *gorm.DB
	engine   *Engine
	interval time.Duration
}

// NewSweeper constructs a reset sweeper.
func NewSweeper(db *gorm.DB, engine *Engine, interval time.Duration) *Sweeper {
	if db == nil || engine == nil {
		return nil
	}
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Sweeper{db: db, engine: engine, interval: interval}
}

// Start launches the sweep loop in a background goroutine.
func (s *Sweeper) Start(ctx context.Context) {
	if s == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	go s.run(ctx)
	log.Infof("reset sweeper started (interval=%s)", s.interval)
}

func (s *Sweeper) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		s.sweep(ctx)
		timer := time.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			if !timer.Stop() {
				<-timer.C
			}
			return
		case <-timer.C:
		}
	}
}

// sweep resets every balance whose rollover is due. Per-row failures are
// logged and skipped; the next cycle retries them.
func (s *Sweeper) sweep(ctx context.Context) {
	now := nowUTC()

	var userIDs []uint64
	if errFind := s.db.WithContext(ctx).Model(&models.Balance{}).
		Where("next_reset_at <= ?", now).
		Order("user_id ASC").
		Limit(sweepBatchSize).
		Pluck("user_id", &userIDs).Error; errFind != nil {
		log.WithError(errFind).Warn("reset sweeper: scan failed")
		return
	}
	if len(userIDs) == 0 {
		return
	}

	applied := 0
	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return
		}
		didReset, errReset := s.engine.Reset(ctx, userID)
		if errReset != nil {
			if errors.Is(errReset, ErrUserNotFound) {
				continue
			}
			log.WithError(errReset).Warnf("reset sweeper: reset failed for user %d", userID)
			continue
		}
		if didReset {
			applied++
			metrics.SweeperResetsTotal.Inc()
		}
	}
	if applied > 0 {
		log.Infof("reset sweeper: applied %d resets", applied)
	}
}
