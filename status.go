package pearray

import "github.com/pearray/core/internal/tile"

// RenderStatus is the snapshot a caller polls to drive a progress bar or
// decide when to stop (spec.md §6 "status() -> RenderStatus { percentage,
// fields }"). It aggregates the tile scheduler's RenderTileStatistics
// (spec.md §4.2) rather than tracking its own counters.
type RenderStatus struct {
	// Percentage is Σsamples_done / Σsamples_max across every tile.
	Percentage float64
	// SamplesRendered and SamplesMax are the raw sums Percentage derives
	// from, useful for an ETA estimate the percentage alone can't give.
	SamplesRendered uint64
	SamplesMax      uint64
	// Iteration is the number of complete barrier rounds so far.
	Iteration int64
	// Finished reports whether every tile has met its sample budget.
	Finished bool
	// Stopping reports whether a Stop call is unwinding the session.
	Stopping bool
}

func statusFromScheduler(s *tile.Scheduler) RenderStatus {
	st := s.Statistics()
	return RenderStatus{
		Percentage:      st.Percentage(),
		SamplesRendered: st.SamplesRendered,
		SamplesMax:      st.SamplesMax,
		Iteration:       s.Iteration(),
		Finished:        s.Map.AllDone(),
		Stopping:        s.Stopping(),
	}
}
