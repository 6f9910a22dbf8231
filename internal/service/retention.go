package service

import (
	"context"
	"log/slog"
	"time"
)

// DefaultPruneInterval is used when no interval is configured.
const DefaultPruneInterval = 24 * time.Hour

// AuditPruner removes audit rows older than a cutoff and reports how many
// were deleted.
type AuditPruner interface {
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuditRetention periodically prunes sign-in audit rows past their retention
// window.
type AuditRetention struct {
	Pruner    AuditPruner
	Retention time.Duration
	Interval  time.Duration
	Logger    *slog.Logger
}

// Run prunes once immediately and then on every interval tick until the
// context is canceled. Prune failures are logged; the loop keeps going.
// A zero retention disables the job entirely.
func (r *AuditRetention) Run(ctx context.Context) error {
	if r.Pruner == nil || r.Retention <= 0 {
		return nil
	}
	interval := r.Interval
	if interval <= 0 {
		interval = DefaultPruneInterval
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.pruneOnce(ctx, logger)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.pruneOnce(ctx, logger)
		}
	}
}

func (r *AuditRetention) pruneOnce(ctx context.Context, logger *slog.Logger) {
	cutoff := time.Now().Add(-r.Retention)
	deleted, err := r.Pruner.PruneOlderThan(ctx, cutoff)
	if err != nil {
		logger.Warn("sign-in audit prune failed", slog.String("error", err.Error()))
		return
	}
	if deleted > 0 {
		logger.Info("pruned sign-in audit rows",
			slog.Int64("deleted", deleted),
			slog.Time("cutoff", cutoff))
	}
}
