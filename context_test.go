package pearray

import (
	"testing"

	"github.com/pearray/core/hit"
	"github.com/pearray/core/internal/pipeline"
	"github.com/pearray/core/internal/tile"
	"github.com/pearray/core/lpe"
	"github.com/pearray/core/output"
	"github.com/pearray/core/ray"
	"github.com/pearray/core/scene"
	"github.com/pearray/core/spectral"
)

// missScene marks every traced ray as a background miss, enough surface
// to drive a RenderContext through a full Start/Wait cycle without a
// real acceleration structure (mirrors internal/pipeline's own
// missScene test fixture).
type missScene struct{}

func (missScene) TraceRays(span ray.Span, hs *hit.Stream) {
	for i := 0; i < span.Len(); i++ {
		hs.Push(hit.Entry{RayIndex: span.StreamIndex(i), EntityID: hit.InvalidID, Flags: hit.Miss})
	}
}
func (missScene) TraceOcclusion(ray.Ray) bool                              { return false }
func (missScene) TraceShadow(ray.Ray) scene.ShadowHit                      { return scene.ShadowHit{} }
func (missScene) Entities() []scene.EntityID                               { return nil }
func (missScene) Materials() []scene.MaterialID                            { return nil }
func (missScene) Emissions() []scene.EmissionID                            { return nil }
func (missScene) InfiniteLights() []scene.InfiniteLight                    { return nil }
func (missScene) Lights() []scene.EntityID                                 { return nil }
func (missScene) Material(scene.MaterialID) (scene.Material, bool)         { return nil, false }
func (missScene) Emission(scene.EmissionID) (scene.Emission, bool)         { return nil, false }
func (missScene) Intersection(hit.Entry, ray.Ray) scene.IntersectionPoint {
	return scene.IntersectionPoint{}
}

type identityCamera struct{}

func (identityCamera) ConstructRay(s scene.Sample) (scene.CameraRay, bool) {
	return scene.CameraRay{Origin: [3]float64{0, 0, 0}, Direction: [3]float64{0, 0, -1}}, true
}

// backgroundIntegrator pushes a flat white radiance for every miss, the
// simplest possible integrator that still exercises the whole queue/
// local-device/global-device pipeline end to end.
func backgroundIntegrator(g hit.ShadingGroup, queue *output.Queue, enq *pipeline.Enqueuer) error {
	if !g.IsMiss() {
		return nil
	}
	var wl, wt [spectral.N]float64
	for i := range wl {
		wl[i] = 500 + float64(i)*50
		wt[i] = 1
	}
	for i := 0; i < g.Len(); i++ {
		entry := g.At(i)
		r := enq.Ray(entry.RayIndex)
		px, py := int(r.PixelIdx)%4, int(r.PixelIdx)/4
		queue.PushSpectral(output.SpectralEntry{
			Position:    [2]float64{float64(px), float64(py)},
			Wavelengths: wl,
			Weight:      wt,
			BlendWeight: 1,
		}, lpe.Path{lpe.Camera, lpe.Emission})
	}
	return nil
}

func TestRenderContextRunsToCompletion(t *testing.T) {
	ctx := NewRenderContext(missScene{}, identityCamera{}, 4, 4,
		WithThreads(2),
		WithMaxIterations(1),
		WithStreamCapacity(64),
	)

	if err := ctx.Start(1, 1, 0, backgroundIntegrator); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := ctx.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !ctx.IsFinished() {
		t.Fatal("expected render to be finished after Wait returns")
	}

	status := ctx.Status()
	if status.Percentage != 1 {
		t.Fatalf("Percentage = %v, want 1", status.Percentage)
	}

	frame := ctx.Output().Frame()
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			idx := y*4 + x
			if frame.Output[idx].X == 0 {
				t.Fatalf("pixel (%d,%d) received no contribution", x, y)
			}
		}
	}
}

// TestRenderContextMultiIterationReachesFullBudgetThroughScheduler drives a
// real multi-iteration render entirely through the public Start/Wait API —
// no internal/tile test helper forces tile state — with a single worker and
// a single tile smaller than tile.MinTileSize, so the scheduler's adaptive
// barrier (Map.Split then Map.AdvanceIteration, gated on a tile being Done
// but not yet BudgetMet) fires on every iteration boundary without ever
// actually splitting the tile. This is the path that a mis-sized
// Pipeline.totalBudget previously starved: before the fix, the first and
// only Release call already satisfied the tile's full multi-iteration
// budget, so AdvanceIteration's Done-but-not-budget-met branch was
// unreachable and Status().Iteration never advanced past 0.
func TestRenderContextMultiIterationReachesFullBudgetThroughScheduler(t *testing.T) {
	ctx := NewRenderContext(missScene{}, identityCamera{}, 4, 4,
		WithThreads(1),
		WithMaxIterations(3),
		WithStreamCapacity(64),
		WithAdaptiveSplit(tile.AdaptiveConfig{Enabled: true}),
	)

	if err := ctx.Start(1, 1, 1, backgroundIntegrator); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := ctx.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !ctx.IsFinished() {
		t.Fatal("expected render to be finished after Wait returns")
	}

	status := ctx.Status()
	if status.Percentage != 1 {
		t.Fatalf("Percentage = %v, want 1", status.Percentage)
	}
	if status.SamplesRendered != status.SamplesMax {
		t.Fatalf("SamplesRendered = %d, want SamplesMax = %d", status.SamplesRendered, status.SamplesMax)
	}
	// A single tile can only reach its full 3-iteration budget by passing
	// through the barrier once per extra iteration (Done-but-not-budget-met
	// -> AdvanceIteration -> Idle -> reacquired -> Done again), so two
	// barrier rounds leave Iteration at 2.
	if status.Iteration <= 1 {
		t.Fatalf("Iteration = %d, want > 1 (multi-iteration barrier never observed)", status.Iteration)
	}

	frame := ctx.Output().Frame()
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			idx := y*4 + x
			if frame.Output[idx].X == 0 {
				t.Fatalf("pixel (%d,%d) received no contribution", x, y)
			}
		}
	}
}

func TestRenderContextRegistrationLockedAfterStart(t *testing.T) {
	ctx := NewRenderContext(missScene{}, identityCamera{}, 2, 2)
	if err := ctx.Start(1, 1, 1, backgroundIntegrator); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer ctx.Wait()

	if err := ctx.Enable1DChannel(output.Depth); err == nil {
		t.Fatal("expected Enable1DChannel to fail once the context has started")
	}
}
