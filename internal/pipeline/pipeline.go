package pipeline

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// DefaultLimit is the fan-out used when the caller passes limit <= 0.
const DefaultLimit = 50

// Map calls fn for every item with at most limit calls in flight and returns
// the results indexed like items. Each task writes only its own slot, so
// output order equals input order regardless of completion order.
//
// fn must record failures in its result rather than fail the batch. Items not
// yet started when ctx is cancelled get fn called with the cancelled context,
// so every slot is still filled.
func Map[T, R any](ctx context.Context, items []T, limit int, fn func(ctx context.Context, i int, item T) R) []R {
	if limit <= 0 {
		limit = DefaultLimit
	}

	out := make([]R, len(items))
	var g errgroup.Group
	g.SetLimit(limit)

	for i, item := range items {
		g.Go(func() error {
			out[i] = fn(ctx, i, item)
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// Progress logs a line every `every` completed items and at the end.
// It is safe for concurrent use.
type Progress struct {
	name   string
	total  int
	every  int
	done   atomic.Int64
	logger *slog.Logger
}

// NewProgress creates a progress reporter for total items.
func NewProgress(name string, total, every int, logger *slog.Logger) *Progress {
	if every <= 0 {
		every = DefaultLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Progress{name: name, total: total, every: every, logger: logger}
}

// Done marks one item complete and returns the running count.
func (p *Progress) Done() int {
	n := int(p.done.Add(1))
	if n%p.every == 0 || n == p.total {
		p.logger.Info("progress", "pipeline", p.name, "done", n, "total", p.total)
	}
	return n
}
