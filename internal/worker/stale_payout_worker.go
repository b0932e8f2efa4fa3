package worker

import (
	"context"
	"time"

	"github.com/Eursukkul/booking-settlement/internal/service"
	"github.com/Eursukkul/booking-settlement/pkg/logger"
	"github.com/sirupsen/logrus"
)

// StalePayoutWorker periodically fails payouts whose execution lock outlived
// lockTTL, e.g. after a crash between lock acquisition and the final write.
type StalePayoutWorker struct {
	payoutService service.PayoutService
	interval      time.Duration
	lockTTL       time.Duration
	log           *logrus.Entry
}

func NewStalePayoutWorker(payoutService service.PayoutService, interval, lockTTL time.Duration) *StalePayoutWorker {
	return &StalePayoutWorker{
		payoutService: payoutService,
		interval:      interval,
		lockTTL:       lockTTL,
		log:           logger.For("stale-payout-worker"),
	}
}

// Start blocks until ctx is cancelled.
func (w *StalePayoutWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.WithFields(logrus.Fields{"interval": w.interval, "lock_ttl": w.lockTTL}).Info("stale payout worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info("stale payout worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *StalePayoutWorker) sweep(ctx context.Context) int {
	reaped, err := w.payoutService.ReapStaleLocks(ctx, w.lockTTL)
	if err != nil {
		w.log.WithError(err).WithField("reaped", reaped).Error("failed to reap stale payout locks")
		return reaped
	}
	if reaped > 0 {
		w.log.WithField("reaped", reaped).Warn("expired stale payout locks")
	}
	return reaped
}
