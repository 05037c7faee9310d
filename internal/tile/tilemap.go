package tile

import (
	"sync"
	"time"

	"github.com/pearray/core/internal/morton"
	"github.com/pearray/core/internal/randmap"
)

// Mode selects the traversal order of the initial tile grid (spec.md §4.2
// Init: "TileMode ∈ {Linear, TileInterleaved, Spiral, ZOrder}").
type Mode int

const (
	Linear Mode = iota
	TileInterleaved
	Spiral
	ZOrder
)

// Map is the ordered RenderTileMap of spec.md §3: an RWMutex-guarded,
// insertion/removal-capable collection of tiles. next_tile takes the
// shared lock; split/optimize takes the exclusive lock, matching
// spec.md §5's "Tile map: read-write lock" discipline.
type Map struct {
	mu    sync.RWMutex
	tiles []*Tile
}

// NewGrid partitions a view of size view into a tx-by-ty grid of
// non-overlapping tiles (spec.md §4.2 Init: "Max tile size is
// ceil(view/tx) x ceil(view/ty)"), ordered according to mode, and seeded
// deterministically from globalSeed via package randmap.
func NewGrid(view Point, tx, ty int, mode Mode, maxIterations int, globalSeed uint64) *Map {
	if tx < 1 {
		tx = 1
	}
	if ty < 1 {
		ty = 1
	}
	cellW := ceilDiv(view.X, tx)
	cellH := ceilDiv(view.Y, ty)

	order := gridOrder(tx, ty, mode)
	tiles := make([]*Tile, 0, tx*ty)
	for _, idx := range order {
		cx, cy := idx%tx, idx/tx
		startX, startY := cx*cellW, cy*cellH
		endX, endY := startX+cellW, startY+cellH
		if endX > view.X {
			endX = view.X
		}
		if endY > view.Y {
			endY = view.Y
		}
		if startX >= endX || startY >= endY {
			continue
		}
		t := &Tile{
			Start:         Point{startX, startY},
			End:           Point{endX, endY},
			MaxIterations: maxIterations,
			Seed:          randmap.Seed(globalSeed, uint32(idx), nil),
			lineage:       []uint8{uint8(idx)},
		}
		t.Stats.SetSamplesMax(uint64(t.ViewSize().Area() * maxIterations))
		tiles = append(tiles, t)
	}
	return &Map{tiles: tiles}
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return a
	}
	return (a + b - 1) / b
}

// gridOrder returns a permutation of [0, tx*ty) describing the traversal
// order of row-major cell index cy*tx+cx under mode.
func gridOrder(tx, ty int, mode Mode) []int {
	n := tx * ty
	order := make([]int, 0, n)
	switch mode {
	case TileInterleaved:
		// Boustrophedon (serpentine) scan: alternating row direction
		// keeps successive tiles spatially adjacent, improving cache/BVH
		// coherence between a worker's consecutive acquisitions.
		for cy := 0; cy < ty; cy++ {
			if cy%2 == 0 {
				for cx := 0; cx < tx; cx++ {
					order = append(order, cy*tx+cx)
				}
			} else {
				for cx := tx - 1; cx >= 0; cx-- {
					order = append(order, cy*tx+cx)
				}
			}
		}
	case Spiral:
		order = spiralOrder(tx, ty)
	case ZOrder:
		cells := make([]mortonCell, 0, n)
		for cy := 0; cy < ty; cy++ {
			for cx := 0; cx < tx; cx++ {
				cells = append(cells, mortonCell{idx: cy*tx + cx, code: morton.Encode(uint32(cx), uint32(cy))})
			}
		}
		sortCellsByCode(cells)
		for _, c := range cells {
			order = append(order, c.idx)
		}
	default: // Linear
		for i := 0; i < n; i++ {
			order = append(order, i)
		}
	}
	return order
}

// mortonCell pairs a grid cell's row-major index with its Z-order code.
type mortonCell struct {
	idx  int
	code uint64
}

func sortCellsByCode(cells []mortonCell) {
	// Small n (grid cell count, typically tens) — insertion sort avoids
	// pulling in sort.Slice's reflection-based comparator for a type this
	// local in scope.
	for i := 1; i < len(cells); i++ {
		for j := i; j > 0 && cells[j].code < cells[j-1].code; j-- {
			cells[j], cells[j-1] = cells[j-1], cells[j]
		}
	}
}

// spiralOrder walks the tx-by-ty grid index space in a clockwise spiral
// starting from the top-left cell, a common initial-tile traversal for
// progressive previews (center-weighted rendering reaches the middle of
// the frame sooner under some variants; here the spiral starts at the
// corner, matching a deterministic, host-agnostic default).
func spiralOrder(tx, ty int) []int {
	n := tx * ty
	order := make([]int, 0, n)
	visited := make([]bool, n)
	x, y := 0, 0
	dx, dy := 1, 0
	for i := 0; i < n; i++ {
		order = append(order, y*tx+x)
		visited[y*tx+x] = true
		nx, ny := x+dx, y+dy
		if nx < 0 || nx >= tx || ny < 0 || ny >= ty || visited[ny*tx+nx] {
			dx, dy = -dy, dx // turn clockwise
			nx, ny = x+dx, y+dy
		}
		x, y = nx, ny
	}
	return order
}

// Len returns the number of tiles currently in the map.
func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tiles)
}

// Snapshot returns a copy of the current tile slice for inspection
// (statistics aggregation, coverage tests). The returned slice shares
// Tile pointers but not the backing array, so further splits don't race
// a caller ranging over it.
func (m *Map) Snapshot() []*Tile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Tile, len(m.tiles))
	copy(out, m.tiles)
	return out
}

// Acquire scans the map under a shared lock, CASing each Idle tile to
// Working, and returns the first success (spec.md §4.2 next_tile).
// Returns (nil, false) if every tile is Done or Working.
func (m *Map) Acquire() (*Tile, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := time.Now().UnixNano()
	for _, t := range m.tiles {
		if t.tryAcquire(now) {
			return t, true
		}
	}
	return nil, false
}

// Release hands a Working tile back, transitioning it to Done whether or
// not its sample budget is met, and records samples/work time for the
// round just finished. A Done tile with budget left becomes Idle again
// only at the next AdvanceIteration.
func (m *Map) Release(t *Tile, samplesThisRound uint64) {
	t.finishRound(time.Now().UnixNano(), samplesThisRound)
}

// AllDone reports whether rendering is entirely finished: every tile has
// reached Done with its full sample budget met. A tile that is Done for
// the current iteration but still has budget remaining does not count —
// it will be flipped back to Idle by the next AdvanceIteration.
func (m *Map) AllDone() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.tiles {
		if t.State() != Done || !t.BudgetMet() {
			return false
		}
	}
	return true
}

// AdvanceIteration flips every Done tile whose sample budget is not yet
// met back to Idle, making it acquirable for the next iteration, and
// leaves budget-met tiles Done forever. Called once per complete round
// by the scheduler's barrier, after any overload split (spec.md §4.2
// step 4: "the iteration counter is incremented once per complete
// round").
func (m *Map) AdvanceIteration() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tiles {
		if t.State() == Done && !t.BudgetMet() {
			t.state.Store(int32(Idle))
		}
	}
}

// AnyIdle reports whether at least one tile is currently acquirable.
func (m *Map) AnyIdle() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.tiles {
		if t.State() == Idle {
			return true
		}
	}
	return false
}

// Split implements spec.md §4.2 step 3's adaptive overload split: under
// the exclusive lock, for each Done tile not yet at its sample budget,
// compute the average work time across every *other* tile with nonzero
// samples, and split it along its longer view-size dimension if its own
// last work time exceeds max(minTimeSpent, 2*avg), skipping tiles at or
// below MinTileSize. The average is computed excluding the candidate
// itself: a single outstanding tile with no peers to compare against is
// judged purely against minTimeSpent, since a population of one has no
// meaningful average to be 2x over. Returns the number of tiles split
// (zero means the barrier should keep waiting rather than declare
// progress).
func (m *Map) Split(minTimeSpent time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	splitCount := 0
	next := make([]*Tile, 0, len(m.tiles))
	for _, t := range m.tiles {
		if t.State() == Done && !t.BudgetMet() && t.LastWorkDuration() > m.peerThreshold(t, minTimeSpent) {
			if a, b, ok := splitTile(t); ok {
				next = append(next, a, b)
				splitCount++
				continue
			}
		}
		next = append(next, t)
	}
	m.tiles = next
	return splitCount
}

// peerThreshold computes max(minTimeSpent, 2*avg) where avg is the mean
// LastWorkDuration of every tile other than candidate that has rendered
// at least one sample. Must be called with m.mu already held.
func (m *Map) peerThreshold(candidate *Tile, minTimeSpent time.Duration) time.Duration {
	var total time.Duration
	var count int
	for _, t := range m.tiles {
		if t == candidate || t.Stats.SamplesRendered() == 0 {
			continue
		}
		total += t.LastWorkDuration()
		count++
	}
	threshold := minTimeSpent
	if count > 0 {
		avg := total / time.Duration(count)
		if 2*avg > threshold {
			threshold = 2 * avg
		}
	}
	return threshold
}

// splitTile divides t along its longer view-size dimension into two
// Idle halves, halving its cumulative statistics between them (spec.md
// §4.2 step 3). ok is false if neither dimension can be split (both at
// or below MinTileSize).
func splitTile(t *Tile) (a, b *Tile, ok bool) {
	vs := t.ViewSize()
	if vs.X >= vs.Y {
		if vs.X <= MinTileSize {
			return nil, nil, false
		}
		mid := t.Start.X + vs.X/2
		a = newHalf(t, t.Start, Point{mid, t.End.Y}, 0)
		b = newHalf(t, Point{mid, t.Start.Y}, t.End, 1)
	} else {
		if vs.Y <= MinTileSize {
			return nil, nil, false
		}
		mid := t.Start.Y + vs.Y/2
		a = newHalf(t, t.Start, Point{t.End.X, mid}, 0)
		b = newHalf(t, Point{t.Start.X, mid}, t.End, 1)
	}
	return a, b, true
}

func newHalf(parent *Tile, start, end Point, half uint8) *Tile {
	lineage := make([]uint8, len(parent.lineage)+1)
	copy(lineage, parent.lineage)
	lineage[len(lineage)-1] = half
	left, right := randmap.Split(parent.Seed)
	seed := left
	if half != 0 {
		seed = right
	}
	h := &Tile{
		Start:         start,
		End:           end,
		MaxIterations: parent.MaxIterations,
		Seed:          seed,
		lineage:       lineage,
	}
	h.Stats.samplesRendered.Store(parent.Stats.SamplesRendered() / 2)
	h.Stats.workTimeNanos.Store(parent.Stats.workTimeNanos.Load() / 2)
	h.Stats.samplesMax.Store(uint64(h.ViewSize().Area() * h.MaxIterations))
	h.iterationCount.Store(parent.iterationCount.Load())
	return h
}
