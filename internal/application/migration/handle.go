package migration

import (
	"context"
	"sync"
	"sync/atomic"
)

// Handle is the caller's cooperative control surface over one in-flight
// run: pause, resume, and cancel, checked at batch boundaries. A nil
// *Handle is never passed to the controller — Run allocates one when the
// caller has no need to steer.
type Handle struct {
	mu          sync.Mutex
	paused      bool
	pauseReason string
	resumeCh    chan struct{}
	cancelled   atomic.Bool
}

// NewHandle returns a Handle ready to control a run that has not started.
func NewHandle() *Handle {
	return &Handle{resumeCh: make(chan struct{})}
}

// PauseReason enumerates the telemetry-only tags a caller may attach to a
// pause request.
type PauseReason string

const (
	PauseReasonTemporary PauseReason = "temporary"
	PauseReasonReview    PauseReason = "review"
	PauseReasonResources PauseReason = "resources"
	PauseReasonRateLimit PauseReason = "rate-limit"
)

// Pause requests a cooperative pause. It is a no-op if the run is already
// paused. The reason is carried only for telemetry.
func (h *Handle) Pause(reason PauseReason) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.paused {
		return
	}
	h.paused = true
	h.pauseReason = string(reason)
	h.resumeCh = make(chan struct{})
}

// Resume releases a pending pause. It is a no-op if the run is not paused.
func (h *Handle) Resume() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.paused {
		return
	}
	h.paused = false
	close(h.resumeCh)
}

// Cancel requests cooperative cancellation. In-flight work is allowed to
// complete; the next batch boundary observes it.
func (h *Handle) Cancel() {
	h.cancelled.Store(true)
}

// Cancelled reports whether Cancel has been called.
func (h *Handle) Cancelled() bool {
	return h.cancelled.Load()
}

// checkpoint is called at every batch boundary. If the run is currently
// paused, it invokes onPause once, blocks until Resume or ctx cancellation,
// then invokes onResume. It returns true if the caller should stop
// processing (cancellation requested, or ctx done while waiting).
func (h *Handle) checkpoint(ctx context.Context, onPause func(reason string), onResume func()) bool {
	h.mu.Lock()
	paused := h.paused
	reason := h.pauseReason
	ch := h.resumeCh
	h.mu.Unlock()

	if paused {
		if onPause != nil {
			onPause(reason)
		}
		select {
		case <-ch:
			if onResume != nil {
				onResume()
			}
		case <-ctx.Done():
			return true
		}
	}

	return h.Cancelled() || ctx.Err() != nil
}
