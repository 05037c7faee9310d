package tile

import (
	"sync"
	"sync/atomic"
	"time"
)

// AdaptiveConfig holds the parameters of spec.md §4.2's adaptive
// overload-split behaviour.
type AdaptiveConfig struct {
	Enabled      bool
	MinTimeSpent time.Duration
}

// Scheduler is the work-stealing distributor of spec.md §4.2: threads
// call NextTile in a loop; when adaptive scheduling is enabled and no
// thread can make progress, the scheduler splits overloaded Done tiles
// and wakes everyone through the iteration condvar, the only global
// synchronization point in steady state (spec.md §5).
type Scheduler struct {
	Map      *Map
	adaptive AdaptiveConfig
	threads  int

	mu      sync.Mutex
	cond    *sync.Cond
	waiting int
	iter    int64

	stopping atomic.Bool
	hardStop atomic.Bool
}

// NewScheduler wraps m with the work-stealing/adaptive behaviour for a
// pool of threads workers.
func NewScheduler(m *Map, threads int, adaptive AdaptiveConfig) *Scheduler {
	s := &Scheduler{Map: m, adaptive: adaptive, threads: threads}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Iteration returns the number of complete barrier rounds so far,
// incremented once per round (spec.md §4.2 step 4: "the iteration
// counter is incremented once per complete round, not per split").
func (s *Scheduler) Iteration() int64 { return atomic.LoadInt64(&s.iter) }

// Stopping reports whether a stop has been requested.
func (s *Scheduler) Stopping() bool { return s.stopping.Load() }

// HardStop reports whether the sticky stop reason is a hard stop. Once a
// hard stop is requested it latches: a later soft RequestStop(false)
// never downgrades it (spec.md §5 and the SPEC_FULL Open Question
// decision on RenderContext.stop's sticky "hardest stop seen" flag).
func (s *Scheduler) HardStop() bool { return s.hardStop.Load() }

// RequestStop transitions the scheduler toward stopping and wakes every
// worker waiting at the barrier; from then on NextTile hands out no more
// tiles. It returns at once in both modes and does not wait for in-flight
// tiles; hard=true additionally latches HardStop.
func (s *Scheduler) RequestStop(hard bool) {
	if hard {
		s.hardStop.Store(true)
	}
	s.stopping.Store(true)
	s.mu.Lock()
	s.cond.Broadcast()
	s.mu.Unlock()
}

// NextTile returns the next tile a worker should render, or (nil, false)
// when there is nothing left: every tile is Done, or a stop was
// requested. In adaptive mode, a worker that finds no Idle tile and is
// not the last to arrive blocks on the iteration condvar rather than
// busy-spinning; the last arriving worker attempts a split and wakes
// everyone.
func (s *Scheduler) NextTile() (*Tile, bool) {
	for {
		if s.stopping.Load() {
			return nil, false
		}
		if t, ok := s.Map.Acquire(); ok {
			return t, true
		}
		if s.Map.AllDone() {
			return nil, false
		}
		if s.hardStop.Load() {
			return nil, false
		}
		if !s.adaptive.Enabled {
			return nil, false
		}

		s.mu.Lock()
		if s.stopping.Load() {
			s.mu.Unlock()
			return nil, false
		}
		s.waiting++
		if s.waiting >= s.threads {
			s.Map.Split(s.adaptive.MinTimeSpent)
			s.Map.AdvanceIteration()
			atomic.AddInt64(&s.iter, 1)
			s.waiting = 0
			s.cond.Broadcast()
		} else {
			s.cond.Wait()
		}
		s.mu.Unlock()
	}
}

// Release returns a completed tile to the map, where it becomes Done, and
// wakes any waiters on the condvar so they re-check the map and the stop
// flag.
func (s *Scheduler) Release(t *Tile, samplesThisRound uint64) {
	s.Map.Release(t, samplesThisRound)
	s.mu.Lock()
	s.cond.Broadcast()
	s.mu.Unlock()
}

// MapStatistics aggregates RenderTileStatistics across the whole map
// (spec.md §4.2 "exposes aggregated RenderTileStatistics").
type MapStatistics struct {
	SamplesRendered uint64
	SamplesMax      uint64
}

// Percentage returns Σsamples_done / Σsamples_max, or 0 if no budget has
// been established yet.
func (st MapStatistics) Percentage() float64 {
	if st.SamplesMax == 0 {
		return 0
	}
	return float64(st.SamplesRendered) / float64(st.SamplesMax)
}

// Statistics sums the per-tile atomic counters under the map's shared
// lock (spec.md §5 "Statistics atomics: relaxed counters per tile,
// summed under shared lock").
func (s *Scheduler) Statistics() MapStatistics {
	var st MapStatistics
	for _, t := range s.Map.Snapshot() {
		st.SamplesRendered += t.Stats.SamplesRendered()
		st.SamplesMax += t.Stats.SamplesMax()
	}
	return st
}
