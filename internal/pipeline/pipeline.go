// Package pipeline implements the stream pipeline of spec.md §4.1:
// camera-ray generation in Morton order, scene traversal, hit sorting and
// shading-group dispatch, bound to one render tile at a time. Grounded on
// original_source/src/core/renderer/StreamPipeline.{h,cpp}.
package pipeline

import (
	"errors"
	"math"
	"sort"

	"github.com/pearray/core/hit"
	"github.com/pearray/core/internal/morton"
	"github.com/pearray/core/internal/randmap"
	"github.com/pearray/core/internal/rng"
	"github.com/pearray/core/internal/tile"
	"github.com/pearray/core/ray"
	"github.com/pearray/core/scene"
	"github.com/pearray/core/spectral"
)

// ErrStreamFull is the StreamFull error kind of spec.md §7: an enqueue
// was attempted against a full write stream. Fatal to the current
// iteration; the caller is expected to surface it via RenderStatus and
// stop.
var ErrStreamFull = errors.New("pipeline: write stream full")

// Integrator is the shading callback RunRound dispatches ShadingGroup
// cursors to (spec.md §4.1 op 2e). It may push child rays for the next
// round through enq; returning a non-nil error aborts the round.
type Integrator func(g hit.ShadingGroup, enq *Enqueuer) error

// Pipeline is the per-worker stream pipeline: two ray streams swapped
// each round, one hit stream, and the Morton-order camera-ray cursor over
// the currently bound tile.
type Pipeline struct {
	rays *ray.Pair
	hits *hit.Stream

	sc        scene.Scene
	camera    scene.Camera
	sampler   spectral.Sampler
	waveRange spectral.Range
	imgWidth  int

	tl  *tile.Tile
	rng *rng.Xorshift64

	pixelOrder  [][2]int // tile-relative (dx,dy) pairs in Morton order
	cursor      uint64   // virtual sample index, cycling through pixelOrder
	totalBudget uint64
}

// New creates a pipeline that traces against sc using camera for ray
// construction and sampler/waveRange for hero-wavelength sampling. imgWidth
// is the full image width, used to flatten tile-local pixel coordinates
// into the PixelIdx carried on each camera ray. capacity bounds both ray
// streams and the hit stream (spec.md §4.1: "streams are sized to the
// configured max_parallel_rays").
func New(sc scene.Scene, camera scene.Camera, sampler spectral.Sampler, waveRange spectral.Range, imgWidth, capacity int) *Pipeline {
	return &Pipeline{
		rays:      ray.NewPair(capacity),
		hits:      hit.NewStream(capacity),
		sc:        sc,
		camera:    camera,
		sampler:   sampler,
		waveRange: waveRange,
		imgWidth:  imgWidth,
	}
}

// Reset binds the pipeline to tl for one render iteration: clears both
// ray streams and the hit stream, reseeds the per-tile RNG stream from
// tl.Seed mixed with the iteration index, rebuilds the Morton-order
// pixel traversal for tl's current bounds, and sets the camera-ray
// budget for this round-trip to exactly one sample per pixel in the
// tile (spec.md §4.1 op 1; original_source/src/core/renderer/
// StreamPipeline.cpp sets mMaxPixelCount = size.Width*size.Height, one
// pass per tile acquisition, not the tile's full multi-iteration
// budget). Must be called every time a worker acquires tl — including a
// tile returned to Idle by the scheduler's iteration barrier for another
// pass — not once for the tile's entire multi-iteration lifetime.
func (p *Pipeline) Reset(tl *tile.Tile) {
	p.tl = tl
	p.rng = rng.New(randmap.Iterate(tl.Seed, tl.IterationCount()))
	p.rays.Reset()
	p.hits.Reset()
	p.cursor = 0
	p.totalBudget = uint64(tl.ViewSize().Area())
	p.pixelOrder = mortonPixelOrder(tl.ViewSize())
}

// mortonPixelOrder returns every (dx,dy) pair within [0,vs.X)x[0,vs.Y),
// ordered by Morton code, so that consecutive virtual samples land on
// spatially nearby pixels (spec.md §4.1 op 2a: "Pixels are generated in
// Morton order over the tile to improve traversal coherence").
func mortonPixelOrder(vs tile.Point) [][2]int {
	order := make([][2]int, 0, vs.Area())
	for y := 0; y < vs.Y; y++ {
		for x := 0; x < vs.X; x++ {
			order = append(order, [2]int{x, y})
		}
	}
	sort.Slice(order, func(i, j int) bool {
		return morton.Encode(uint32(order[i][0]), uint32(order[i][1])) <
			morton.Encode(uint32(order[j][0]), uint32(order[j][1]))
	})
	return order
}

// IsFinished reports spec.md §4.1 op 3: no more camera rays left to
// generate for the current iteration's one-sample-per-pixel budget, and
// the read stream (the batch currently being traced/shaded) is empty.
// True does not mean the tile's entire multi-iteration sample budget is
// met — that is tile.Tile.BudgetMet, tracked by the scheduler across
// repeated Reset/RunRound passes, not by the pipeline itself.
func (p *Pipeline) IsFinished() bool {
	return p.cursor >= p.totalBudget && p.rays.Read().Len() == 0
}

// RunRound executes one batched step of spec.md §4.1 op 2: fill the write
// stream with camera rays, swap, trace, sort hits, and dispatch each
// ShadingGroup to integrator. Returns the number of camera-ray samples
// generated this round, for the caller to report back to the tile
// scheduler via tile.Release.
func (p *Pipeline) RunRound(integrator Integrator) (produced uint64, err error) {
	carriedOver := p.rays.Write().Len()
	produced = p.fillCameraRays()
	// The read span is coherent only when every ray in it came from this
	// round's Morton-ordered fill, i.e. nothing was already sitting in
	// the write stream from a previous round's bounce/shadow/light
	// enqueues.
	coherent := carriedOver == 0

	p.rays.Swap()
	read := p.rays.Read().FullSpan(coherent)

	p.hits.Reset()
	p.sc.TraceRays(read, p.hits)
	p.hits.Sort()

	enq := &Enqueuer{p: p}
	for _, g := range p.hits.Groups() {
		if cbErr := integrator(g, enq); cbErr != nil {
			return produced, cbErr
		}
	}
	return produced, nil
}

// fillCameraRays tops up the write stream with Morton-ordered camera rays
// until it is full or the current iteration's one-sample-per-pixel
// budget is exhausted (spec.md §4.1 op 2a).
func (p *Pipeline) fillCameraRays() uint64 {
	var produced uint64
	n := uint64(len(p.pixelOrder))
	if n == 0 {
		return 0
	}
	for p.cursor < p.totalBudget && !p.rays.Write().Full() {
		rel := p.pixelOrder[p.cursor%n]
		px := p.tl.Start.X + rel[0]
		py := p.tl.Start.Y + rel[1]
		p.cursor++
		produced++

		s := p.buildSample(px, py)
		cr, ok := p.camera.ConstructRay(s)
		if !ok {
			continue
		}
		r := p.cameraRayToRay(cr, s, px, py)
		// The loop condition already checked Full(); Insert cannot fail
		// here except on the validation path, which only sets Invalid
		// and still succeeds.
		p.rays.Write().Insert(r)
	}
	return produced
}

func (p *Pipeline) buildSample(px, py int) scene.Sample {
	hero, _ := p.sampler.Sample(p.rng.Float64())
	return scene.Sample{
		PixelX:     px,
		PixelY:     py,
		AAx:        p.rng.Float64(),
		AAy:        p.rng.Float64(),
		LensU:      p.rng.Float64(),
		LensV:      p.rng.Float64(),
		Time:       p.rng.Float64(),
		Wavelength: hero,
		Importance: 1,
	}
}

func (p *Pipeline) cameraRayToRay(cr scene.CameraRay, s scene.Sample, px, py int) ray.Ray {
	importance := cr.Importance
	if importance == 0 {
		importance = s.Importance
	}
	wavelength := cr.Wavelength
	if wavelength == 0 {
		wavelength = s.Wavelength
	}
	blend := cr.BlendWeight
	if blend == 0 {
		blend = 1
	}
	importance *= blend

	blob := spectral.Derive(wavelength, p.waveRange)
	var imp [ray.SpectralBlobSize]float64
	for i := range imp {
		imp[i] = importance
	}

	return ray.Ray{
		Origin:      cr.Origin,
		Direction:   cr.Direction,
		MinT:        1e-4,
		MaxT:        math.Inf(1),
		Depth:       0,
		PixelIdx:    uint32(py*p.imgWidth + px),
		Flags:       ray.Camera,
		Wavelengths: blob,
		Importance:  imp,
		Time:        s.Time,
	}
}

// Enqueuer is the narrow view of the pipeline's write stream exposed to
// an Integrator (spec.md §4.1 op 2e: "the integrator may enqueue_bounce,
// enqueue_shadow, enqueue_light rays which land in the write stream").
type Enqueuer struct{ p *Pipeline }

// Ray resolves a hit.Entry's RayIndex back to the Ray that produced it,
// from the round's read stream. An integrator needs this to recover the
// pixel, wavelengths and importance a hit carries forward, none of which
// hit.Entry itself repeats (spec.md §3 HitEntry only carries entity/
// material/prim/params, not the ray that produced it).
func (e *Enqueuer) Ray(rayIndex int) ray.Ray {
	return e.p.rays.Read().At(rayIndex)
}

// RNG returns the pipeline's per-tile random stream, satisfying
// scene.RNG, so an Integrator can drive Material.Sample/Emission.Sample
// without the pipeline needing to know anything about materials.
func (e *Enqueuer) RNG() scene.RNG {
	return e.p.rng
}

// Bounce enqueues a material-scattered ray. Returns false if the write
// stream is full — the caller should return ErrStreamFull.
func (e *Enqueuer) Bounce(r ray.Ray) bool {
	r.Flags |= ray.Bounce
	return e.p.rays.Write().Insert(r)
}

// Shadow enqueues an occlusion/visibility test ray.
func (e *Enqueuer) Shadow(r ray.Ray) bool {
	r.Flags |= ray.Shadow
	return e.p.rays.Write().Insert(r)
}

// Light enqueues a light-sampling ray.
func (e *Enqueuer) Light(r ray.Ray) bool {
	r.Flags |= ray.Light
	return e.p.rays.Write().Insert(r)
}
