// Package tile implements the adaptive, work-stealing tile scheduler of
// spec.md §4.2: an ordered RenderTileMap of rectangular image regions,
// CAS-based acquisition, overload-triggered splitting, and the
// iteration barrier that is the only global synchronization point in
// steady state.
package tile

import (
	"sync/atomic"
	"time"
)

// MinTileSize is the smallest view-size dimension a tile may be split
// down to (spec.md §4.2 step 3, "e.g., 8").
const MinTileSize = 8

// Point is an integer 2D coordinate or extent on the image plane.
type Point struct{ X, Y int }

// Area returns X*Y, used both as a pixel count (ViewSize) and as an
// origin/corner coordinate pair depending on context.
func (p Point) Area() int { return p.X * p.Y }

// State is a tile's atomic scheduling state (spec.md §3 RenderTile).
type State int32

const (
	Idle State = iota
	Working
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Working:
		return "working"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Statistics is the per-tile RenderTileStatistics of spec.md §4.2,
// restoring the original's pixelSamplesRendered/workTime field names
// (original_source/src/core/renderer/RenderTileStatistics.{h,cpp}) that
// the distilled spec.md folds into prose. All fields are atomic so the
// scheduler can aggregate them under only a shared (read) lock on the
// tile map, never per-tile locking.
type Statistics struct {
	samplesRendered atomic.Uint64
	samplesMax      atomic.Uint64
	workTimeNanos   atomic.Int64
}

func (s *Statistics) SamplesRendered() uint64 { return s.samplesRendered.Load() }
func (s *Statistics) SamplesMax() uint64      { return s.samplesMax.Load() }
func (s *Statistics) WorkTime() time.Duration { return time.Duration(s.workTimeNanos.Load()) }

// AddSamples records samples rendered in the round just finished.
func (s *Statistics) AddSamples(n uint64) { s.samplesRendered.Add(n) }

// SetSamplesMax sets the tile's sample budget, called once at construction
// and again (halved) when a tile is split.
func (s *Statistics) SetSamplesMax(n uint64) { s.samplesMax.Store(n) }

// AddWorkTime accumulates wall-clock time spent on a completed round.
func (s *Statistics) AddWorkTime(d time.Duration) { s.workTimeNanos.Add(int64(d)) }

func (s *Statistics) reset() {
	s.samplesRendered.Store(0)
	s.workTimeNanos.Store(0)
}

// Tile is one rectangular unit of scheduling work (spec.md §3 RenderTile).
// Invariants: Start <= End componentwise; PixelSamplesRendered() <=
// ViewSize().Area() * MaxIterations; state transitions only
// Idle->Working->{Done,Idle}.
type Tile struct {
	Start, End    Point
	MaxIterations int
	Seed          uint64

	state          atomic.Int32
	iterationCount atomic.Int32
	lastWorkNanos  atomic.Int64
	workStartNanos int64 // only touched by the worker that holds the tile

	Stats Statistics

	lineage []uint8 // split-half indices from the root tile, used only by randmap re-derivation on split
}

// ViewSize returns the tile's pixel extent.
func (t *Tile) ViewSize() Point {
	return Point{t.End.X - t.Start.X, t.End.Y - t.Start.Y}
}

// State returns the tile's current scheduling state.
func (t *Tile) State() State { return State(t.state.Load()) }

// IterationCount returns how many full rounds this tile has completed.
func (t *Tile) IterationCount() int { return int(t.iterationCount.Load()) }

// LastWorkDuration returns the wall-clock duration of the most recently
// completed round, used by the adaptive split heuristic.
func (t *Tile) LastWorkDuration() time.Duration {
	return time.Duration(t.lastWorkNanos.Load())
}

// tryAcquire CASes Idle->Working. On success the caller owns the tile
// exclusively until it calls release.
func (t *Tile) tryAcquire(now int64) bool {
	if !t.state.CompareAndSwap(int32(Idle), int32(Working)) {
		return false
	}
	t.workStartNanos = now
	return true
}

// finishRound records the wall-clock duration and sample count of the
// round just completed, increments the iteration count, and transitions
// the tile to Done. Done here means "finished its work for the current
// iteration", not necessarily "sample budget fully met" — see
// BudgetMet. The scheduler's iteration barrier (Map.AdvanceIteration)
// flips a Done tile whose budget is not yet met back to Idle for the
// next iteration; a tile that did meet its budget stays Done forever.
// Only the worker that acquired the tile may call this.
func (t *Tile) finishRound(now int64, samples uint64) {
	elapsed := time.Duration(now - t.workStartNanos)
	t.lastWorkNanos.Store(int64(elapsed))
	t.Stats.AddWorkTime(elapsed)
	t.Stats.AddSamples(samples)
	t.iterationCount.Add(1)
	t.state.Store(int32(Done))
}

// Reset restores the tile to its just-constructed state: Idle, zero
// statistics, zero iteration count. Idempotent (spec.md §8 invariant 8):
// calling Reset twice leaves the tile identical to calling it once.
func (t *Tile) Reset() {
	t.state.Store(int32(Idle))
	t.iterationCount.Store(0)
	t.lastWorkNanos.Store(0)
	t.workStartNanos = 0
	t.Stats.reset()
}

// finished reports whether the tile has met its total sample budget
// across all iterations (the unexported helper behind BudgetMet below).
func (t *Tile) finished() bool {
	budget := uint64(t.ViewSize().Area()) * uint64(t.MaxIterations)
	return t.Stats.SamplesRendered() >= budget
}

// BudgetMet reports whether the tile's total sample budget (across every
// iteration) has been reached. A Done tile with BudgetMet() == false is
// only done with the *current* iteration and is flipped back to Idle at
// the next iteration barrier; a Done tile with BudgetMet() == true is
// terminally finished and never acquired again.
func (t *Tile) BudgetMet() bool { return t.finished() }
