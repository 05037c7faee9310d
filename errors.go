package pearray

import (
	"errors"
	"fmt"

	"github.com/pearray/core/internal/pipeline"
)

// Fault classifies a render-time condition by its spec.md §7 error kind,
// not by Go type — most faults are handled by policy (drop, recover,
// silent) rather than propagated, so RenderStatus reports the kind
// without forcing every caller to type-switch a distinct error value.
type Fault int

const (
	// FaultNone means nothing went wrong.
	FaultNone Fault = iota
	// FaultBadRay: NaN/Inf in a ray's origin, direction or wavelength.
	// Policy: drop the ray, continue, emit Feedback(NaN|Inf).
	FaultBadRay
	// FaultBadContribution: NaN/Inf/negative radiance from shading.
	// Policy: drop the contribution, emit Feedback.
	FaultBadContribution
	// FaultStreamFull: too many child rays enqueued in one round.
	// Policy: fatal to the iteration; surfaced via RenderStatus; the
	// session logs and stops.
	FaultStreamFull
	// FaultInvalidTileState: a CAS mismatch during tile acquisition.
	// Policy: local recovery; the scheduler retries the next tile.
	FaultInvalidTileState
	// FaultChannelNotRegistered: a push targeted an unregistered AOV id.
	// Policy: silent drop in release builds; a caller may choose to assert
	// in development.
	FaultChannelNotRegistered
	// FaultStopRequested: the user requested cancellation.
	// Policy: unwind gracefully to the nearest round boundary, committing
	// whatever the local device already holds.
	FaultStopRequested
	// FaultSceneMismatch: an entity or material id fell outside the
	// scene's range. Policy: treat as a background miss.
	FaultSceneMismatch
)

func (f Fault) String() string {
	switch f {
	case FaultNone:
		return "none"
	case FaultBadRay:
		return "bad_ray"
	case FaultBadContribution:
		return "bad_contribution"
	case FaultStreamFull:
		return "stream_full"
	case FaultInvalidTileState:
		return "invalid_tile_state"
	case FaultChannelNotRegistered:
		return "channel_not_registered"
	case FaultStopRequested:
		return "stop_requested"
	case FaultSceneMismatch:
		return "scene_mismatch"
	default:
		return "unknown"
	}
}

// ErrStreamFull is the sentinel a session treats as fatal to the current
// iteration (spec.md §7 StreamFull). It is the same value as
// internal/pipeline's own sentinel, so errors.Is matches either name.
var ErrStreamFull = pipeline.ErrStreamFull

// ErrStopRequested is the sentinel a FaultStopRequested fault matches
// under errors.Is. A session that ends because Stop was called does not
// return it: Wait reports only faults a worker recorded.
var ErrStopRequested = errors.New("pearray: stop requested")

// ErrChannelNotRegistered is returned by registration-time lookups against
// an AOV id nothing registered.
var ErrChannelNotRegistered = errors.New("pearray: channel not registered")

// faultError pairs a Fault with the operation that produced it, the
// teacher's fmt.Errorf("...: %w", err) wrapping idiom applied to Fault
// instead of a bare error (grounded on gogpu-gg/context.go's error-wrapping
// style).
type faultError struct {
	kind Fault
	op   string
	err  error
}

func (e *faultError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("pearray: %s: %s: %v", e.op, e.kind, e.err)
	}
	return fmt.Sprintf("pearray: %s: %s", e.op, e.kind)
}

func (e *faultError) Unwrap() error { return e.err }

// Is reports whether target is the sentinel matching e's kind, so
// errors.Is(e, ErrStreamFull) works against a faultError{kind: FaultStreamFull}.
func (e *faultError) Is(target error) bool {
	switch e.kind {
	case FaultStreamFull:
		return target == ErrStreamFull
	case FaultStopRequested:
		return target == ErrStopRequested
	case FaultChannelNotRegistered:
		return target == ErrChannelNotRegistered
	default:
		return false
	}
}

func newFault(kind Fault, op string, err error) error {
	return &faultError{kind: kind, op: op, err: err}
}
