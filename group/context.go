package group

import (
	"context"
	"time"

	"github.com/tahsin716/ringpool"
)

// WithTimeout creates a Group whose context times out after d.
func WithTimeout(p *ringpool.Pool, d time.Duration, opts ...Option) *Group {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	return withReleasedContext(ctx, cancel, p, opts)
}

// WithDeadline creates a Group whose context expires at t.
func WithDeadline(p *ringpool.Pool, t time.Time, opts ...Option) *Group {
	ctx, cancel := context.WithDeadline(context.Background(), t)
	return withReleasedContext(ctx, cancel, p, opts)
}

// withReleasedContext makes Stop release the timer of the parent context too.
func withReleasedContext(ctx context.Context, release context.CancelFunc, p *ringpool.Pool, opts []Option) *Group {
	g := WithContext(ctx, p, opts...)
	cancel := g.cancel
	g.cancel = func() {
		cancel()
		release()
	}
	return g
}
