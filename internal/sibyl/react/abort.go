package react

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vantle/sibyl/pkg/logger"
)

// ErrAborted marks a turn stopped by the caller rather than by failure.
var ErrAborted = errors.New("turn aborted")

// AbortController manages turn cancellation and timeout.
//
// It wraps context.WithCancel to provide:
// - Explicit Abort() for caller-initiated cancellation
// - Timeout for automatic cancellation after a specified duration
// - Thread-safe abort state tracking
type AbortController struct {
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	down   bool
	turnID string
}

// NewAbortController creates a controller for one turn. A timeout greater
// than zero bounds the whole turn; otherwise only Abort cancels it.
func NewAbortController(parent context.Context, turnID string, timeout time.Duration) *AbortController {
	var ctx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, timeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}
	return &AbortController{
		ctx:    ctx,
		cancel: cancel,
		turnID: turnID,
	}
}

// Context returns the controlled context. Use it for all downstream work.
func (ac *AbortController) Context() context.Context {
	return ac.ctx
}

// Abort cancels the turn and marks it as aborted.
//
// It is safe to call Abort multiple times.
func (ac *AbortController) Abort() {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	if ac.down {
		return
	}
	ac.down = true
	ac.cancel()
	logger.Debug("[AbortController] abort turn %s", ac.turnID)
}

// IsAborted reports whether Abort was called for this turn. A timeout or
// parent cancellation does not count: those surface as stream failures.
func (ac *AbortController) IsAborted() bool {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	return ac.down
}

// CheckAborted returns ErrAborted if the turn is aborted.
func (ac *AbortController) CheckAborted() error {
	if ac.IsAborted() {
		return ErrAborted
	}
	return nil
}

// CleanUp releases the controller's context resources.
func (ac *AbortController) CleanUp() {
	ac.cancel()
}
