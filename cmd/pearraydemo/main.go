// Command pearraydemo renders a single sphere-on-a-plane scene under a
// gradient sky and writes the result to a PNG, exercising the full
// RenderContext lifecycle end to end (spec.md §6). Grounded on
// gogpu-gg/cmd/ggdemo/main.go's flag/log.Fatalf CLI shape.
package main

import (
	"flag"
	"image/png"
	"log"
	"os"

	pearray "github.com/pearray/core"
	"github.com/pearray/core/internal/tile"
	"github.com/pearray/core/preview"
)

func main() {
	var (
		width      = flag.Int("width", 320, "image width")
		height     = flag.Int("height", 240, "image height")
		output     = flag.String("output", "demo.png", "output file")
		iterations = flag.Int("iterations", 16, "samples per pixel")
		threads    = flag.Int("threads", 0, "worker threads (0 = GOMAXPROCS)")
	)
	flag.Parse()

	sc := newDemoScene()
	cam := newPinholeCamera(*width, *height)

	ctx := pearray.NewRenderContext(sc, cam, *width, *height,
		pearray.WithMaxIterations(*iterations),
		pearray.WithThreads(*threads),
		pearray.WithInitialTiling(4, 4, tile.ZOrder),
	)

	sink, target := preview.NewPixmapSink(*width, *height, 1.0)
	if err := ctx.RegisterSpectralCallback(sink.OnFrame); err != nil {
		log.Fatalf("register preview sink: %v", err)
	}

	integrator := newPathTraceIntegrator(sc, *width)
	if err := ctx.Start(4, 4, *threads, integrator); err != nil {
		log.Fatalf("start render: %v", err)
	}
	if err := ctx.Wait(); err != nil {
		log.Fatalf("render failed: %v", err)
	}
	if err := ctx.Close(); err != nil {
		log.Fatalf("close render context: %v", err)
	}

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("create %s: %v", *output, err)
	}
	defer f.Close()
	if err := png.Encode(f, target.Image()); err != nil {
		log.Fatalf("encode png: %v", err)
	}

	log.Printf("Demo saved to %s (%dx%d, %d spp)\n", *output, *width, *height, *iterations)
}
