package cache

import (
	"context"

	"go.uber.org/zap"
)

// PatternDeleter deletes cache keys matching a glob pattern.
type PatternDeleter interface {
	DeleteByPattern(ctx context.Context, pattern string) (int, error)
}

// Invalidator removes cached CMS entries by category.
type Invalidator struct {
	store  PatternDeleter
	logger *zap.Logger
}

// NewInvalidator creates an invalidator over the given store.
func NewInvalidator(store PatternDeleter, logger *zap.Logger) *Invalidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Invalidator{store: store, logger: logger}
}

// Invalidate deletes every cached entry for the category, across list and
// item key shapes, and returns the number of keys removed.
func (inv *Invalidator) Invalidate(ctx context.Context, cat Category) (int, error) {
	total := 0
	for _, pattern := range Patterns(cat) {
		n, err := inv.store.DeleteByPattern(ctx, pattern)
		total += n
		if err != nil {
			return total, err
		}
	}
	inv.logger.Info("cache invalidated", zap.String("category", string(cat)), zap.Int("keys_removed", total))
	return total, nil
}

// InvalidateAll invalidates every category and returns keys removed per
// category. Keeps going on per-category errors and reports the first one.
func (inv *Invalidator) InvalidateAll(ctx context.Context) (map[Category]int, error) {
	counts := make(map[Category]int, len(Categories))
	var firstErr error
	for _, cat := range Categories {
		n, err := inv.Invalidate(ctx, cat)
		counts[cat] = n
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return counts, firstErr
}
