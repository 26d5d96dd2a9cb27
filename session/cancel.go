package session

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned by a blocking Session call whose CancellationToken
// tripped from its wall-clock timer rather than an explicit Cancel call
// (spec.md §7 "Cancelled / Timeout — cooperative cancellation or wall-clock
// expiry").
var ErrTimeout = errors.New("session: query timed out")

// ErrCancelled is returned when a CancellationToken was cancelled
// explicitly (not by timeout).
var ErrCancelled = errors.New("session: query cancelled")

// CancellationToken is a thin context.Context wrapper every query/update
// path checks cooperatively, grounded on the teacher's
// graph/iterate.go IterateChain's `select { case <-c.ctx.Done(): ...}`
// pattern — generalized here from a single iterator chain's per-pull check
// to a token any component (exec.Engine, path.Evaluator, reason
// materializer) can hold and test without importing session itself, since
// they all already take a context.Context.
type CancellationToken struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewCancellationToken derives a token from parent with an optional
// wall-clock timeout (spec.md §5 "the coordinator starts a wall-clock
// timer; on expiry it trips the cancellation token"). A zero timeout never
// expires on its own.
func NewCancellationToken(parent context.Context, timeout time.Duration) *CancellationToken {
	if parent == nil {
		parent = context.Background()
	}
	if timeout <= 0 {
		ctx, cancel := context.WithCancel(parent)
		return &CancellationToken{ctx: ctx, cancel: cancel}
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	return &CancellationToken{ctx: ctx, cancel: cancel}
}

// Context returns the underlying context.Context, for passing straight
// into exec.Engine.Eval, reason.Materializer.Materialize, and friends.
func (t *CancellationToken) Context() context.Context {
	return t.ctx
}

// Cancel trips the token explicitly. Safe to call more than once and after
// the token has already expired.
func (t *CancellationToken) Cancel() {
	t.cancel()
}

// Err reports why the token tripped, distinguishing an explicit Cancel
// from a timeout expiry — both report non-nil from ctx.Err(), but only
// DeadlineExceeded should surface as ErrTimeout.
func (t *CancellationToken) Err() error {
	switch t.ctx.Err() {
	case nil:
		return nil
	case context.DeadlineExceeded:
		return ErrTimeout
	default:
		return ErrCancelled
	}
}

// Done returns the channel that closes when the token trips, for a
// component that wants to select on it directly instead of polling Err.
func (t *CancellationToken) Done() <-chan struct{} {
	return t.ctx.Done()
}
