package main

import (
	"testing"

	pearray "github.com/pearray/core"
	"github.com/pearray/core/internal/tile"
	"github.com/pearray/core/preview"
)

// TestDemoRendersNonBlackImage runs a tiny end-to-end render through the
// exact scene/camera/integrator the CLI wires up, checking that the
// pinhole camera's rays escape to the sky (and the sphere silhouette
// isn't the whole frame) rather than exercising any output-layer
// internals already covered by the root package's own tests.
func TestDemoRendersNonBlackImage(t *testing.T) {
	const w, h = 32, 24

	sc := newDemoScene()
	cam := newPinholeCamera(w, h)

	ctx := pearray.NewRenderContext(sc, cam, w, h,
		pearray.WithMaxIterations(2),
		pearray.WithThreads(2),
		pearray.WithStreamCapacity(256),
		pearray.WithInitialTiling(2, 2, tile.ZOrder),
	)

	sink, target := preview.NewPixmapSink(w, h, 1.0)
	if err := ctx.RegisterSpectralCallback(sink.OnFrame); err != nil {
		t.Fatalf("RegisterSpectralCallback: %v", err)
	}

	integrator := newPathTraceIntegrator(sc, w)
	if err := ctx.Start(2, 2, 2, integrator); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := ctx.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !ctx.IsFinished() {
		t.Fatal("expected render to report finished")
	}

	var nonZero int
	for _, b := range target.Pixels() {
		if b != 0 {
			nonZero++
		}
	}
	if nonZero == 0 {
		t.Fatal("expected at least one non-zero pixel in the rendered frame")
	}
}
