package pearray

import (
	"github.com/pearray/core/internal/filter"
	"github.com/pearray/core/internal/tile"
	"github.com/pearray/core/spectral"
)

// Option configures a RenderContext during creation, the functional-option
// pattern grounded on gg.ContextOption (gogpu-gg/options.go).
type Option func(*contextOptions)

type contextOptions struct {
	threads       int
	maxIterations int
	streamCapacity int
	tilesX, tilesY int
	tileMode      tile.Mode
	adaptive      tile.AdaptiveConfig
	filterKind    filter.Kind
	filterRadius  int
	sampler       spectral.Sampler
	waveRange     spectral.Range
	primaries     spectral.Primaries
	globalSeed    uint64
}

func defaultOptions() contextOptions {
	return contextOptions{
		threads:        0, // 0 means runtime.GOMAXPROCS(0), resolved in Start
		maxIterations:  1,
		streamCapacity: 1 << 16,
		tilesX:         1,
		tilesY:         1,
		tileMode:       tile.ZOrder,
		adaptive:       tile.AdaptiveConfig{Enabled: true},
		filterKind:     filter.Block,
		filterRadius:   0,
		sampler:        spectral.RandomSampler{Range: spectral.DefaultRange},
		waveRange:      spectral.DefaultRange,
		primaries:      spectral.SRGB,
	}
}

// WithThreads pins the worker count instead of letting Start default to
// runtime.GOMAXPROCS(0).
func WithThreads(n int) Option {
	return func(o *contextOptions) { o.threads = n }
}

// WithMaxIterations sets the per-tile sample budget in whole iterations
// over the tile's pixel area (spec.md §3 RenderTile.max_iterations).
func WithMaxIterations(n int) Option {
	return func(o *contextOptions) { o.maxIterations = n }
}

// WithStreamCapacity bounds every pipeline's ray/hit streams (spec.md
// §4.1 "streams are sized to the configured max_parallel_rays").
func WithStreamCapacity(n int) Option {
	return func(o *contextOptions) { o.streamCapacity = n }
}

// WithInitialTiling sets the starting tile grid shape and traversal mode
// (spec.md §6 "start(initial_tiles_x, initial_tiles_y, thread_hint)").
func WithInitialTiling(tx, ty int, mode tile.Mode) Option {
	return func(o *contextOptions) { o.tilesX, o.tilesY, o.tileMode = tx, ty, mode }
}

// WithAdaptiveSplit configures the overload-split heuristic (spec.md §4.2
// step 3).
func WithAdaptiveSplit(cfg tile.AdaptiveConfig) Option {
	return func(o *contextOptions) { o.adaptive = cfg }
}

// WithFilter selects the pixel reconstruction filter (spec.md §4.4).
func WithFilter(kind filter.Kind, radius int) Option {
	return func(o *contextOptions) { o.filterKind, o.filterRadius = kind, radius }
}

// WithSampler overrides the hero-wavelength sampler (spec.md §4.5).
func WithSampler(s spectral.Sampler, r spectral.Range) Option {
	return func(o *contextOptions) { o.sampler, o.waveRange = s, r }
}

// WithPrimaries overrides the spectral-to-RGB conversion primaries
// (spec.md §4.5), e.g. for a non-sRGB working space.
func WithPrimaries(p spectral.Primaries) Option {
	return func(o *contextOptions) { o.primaries = p }
}

// WithGlobalSeed fixes the deterministic root seed every tile's RNG
// stream derives from (internal/randmap), for reproducible renders.
func WithGlobalSeed(seed uint64) Option {
	return func(o *contextOptions) { o.globalSeed = seed }
}
