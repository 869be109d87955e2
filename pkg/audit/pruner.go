package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// PrunePolicy bounds the audit trail.
type PrunePolicy struct {
	// RetentionDays is the number of days to retain records. 0 disables
	// age-based pruning.
	RetentionDays int

	// MaxRecords is the maximum number of records to keep. 0 disables
	// count-based pruning.
	MaxRecords int64
}

// Pruner applies a retention policy to a store.
type Pruner struct {
	store  Store
	policy PrunePolicy
	logger *slog.Logger
	now    func() time.Time
}

// NewPruner creates a pruner for the given store and policy.
func NewPruner(store Store, policy PrunePolicy, logger *slog.Logger) *Pruner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		store:  store,
		policy: policy,
		logger: logger.With("component", "audit.pruner"),
		now:    time.Now,
	}
}

// Prune applies the retention policy once: age-based pruning first, then
// count-based pruning against whatever remains. Returns the total number
// of records removed.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var removed int64

	if p.policy.RetentionDays > 0 {
		cutoff := p.now().UTC().AddDate(0, 0, -p.policy.RetentionDays)
		n, err := p.store.DeleteBefore(ctx, cutoff)
		if err != nil {
			return removed, fmt.Errorf("age-based prune failed: %w", err)
		}
		removed += n
	}

	if p.policy.MaxRecords > 0 {
		count, err := p.store.Count(ctx)
		if err != nil {
			return removed, fmt.Errorf("failed to count audit records: %w", err)
		}
		if excess := count - p.policy.MaxRecords; excess > 0 {
			n, err := p.store.DeleteOldest(ctx, excess)
			if err != nil {
				return removed, fmt.Errorf("count-based prune failed: %w", err)
			}
			removed += n
		}
	}

	if removed > 0 {
		p.logger.Info("audit trail pruned", "removed", removed)
	}
	return removed, nil
}
