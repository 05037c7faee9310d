package main

import (
	"math"

	"github.com/pearray/core/hit"
	"github.com/pearray/core/internal/pipeline"
	"github.com/pearray/core/lpe"
	"github.com/pearray/core/output"
	"github.com/pearray/core/ray"
	"github.com/pearray/core/scene"
)

// maxDepth caps the number of diffuse bounces a path takes before it is
// terminated unconditionally rather than Russian-roulette'd, keeping the
// demo's stream pipeline bounded without a full light-sampling estimator
// (spec.md §6 Non-goals scope next-event estimation out of the core
// itself; a host integrator is free to add it).
const maxDepth = 4

// newPathTraceIntegrator returns a pearray.Integrator closing over sc: a
// naive unidirectional path tracer that scatters off the single
// Lambertian material until it either escapes to the sky or exceeds
// maxDepth, pushing one SpectralEntry per escaped path (spec.md §4.1 op
// 2e, §4.3.2).
func newPathTraceIntegrator(sc *demoScene, imgWidth int) func(g hit.ShadingGroup, queue *output.Queue, enq *pipeline.Enqueuer) error {
	return func(g hit.ShadingGroup, queue *output.Queue, enq *pipeline.Enqueuer) error {
		for i := 0; i < g.Len(); i++ {
			entry := g.At(i)
			r := enq.Ray(entry.RayIndex)
			px := float64(int(r.PixelIdx) % imgWidth)
			py := float64(int(r.PixelIdx) / imgWidth)

			if g.IsMiss() {
				bg := sc.sky.Eval(r.Direction, r.Wavelengths)
				var w [4]float64
				for k := range w {
					w[k] = bg[k] * r.Importance[k]
				}
				path := lpe.Path{lpe.Camera, lpe.Background}
				if r.Depth > 0 {
					path = lpe.Path{lpe.Camera, lpe.Diffuse, lpe.Background}
				}
				if !queue.PushSpectral(output.SpectralEntry{
					Position:    [2]float64{px + 0.5, py + 0.5},
					Wavelengths: r.Wavelengths,
					Weight:      w,
					BlendWeight: 1,
				}, path) {
					return pipeline.ErrStreamFull
				}
				continue
			}

			if r.Depth >= maxDepth {
				continue
			}

			ip := sc.Intersection(entry, r)
			mat, ok := sc.Material(entry.MaterialID)
			if !ok {
				continue
			}
			out := mat.Sample(ip, scene.MaterialInput{Wavelengths: r.Wavelengths, View: ip.Wo}, enq.RNG())
			if out.PDF <= 0 {
				continue
			}

			var importance [4]float64
			for k := range importance {
				importance[k] = r.Importance[k] * out.Weight[k]
			}
			if isBlack(importance) {
				continue
			}

			bounce := ray.Ray{
				Origin:      offset(ip.Position, ip.GeometricNormal),
				Direction:   out.Direction,
				MinT:        1e-4,
				MaxT:        math.Inf(1),
				Depth:       r.Depth + 1,
				PixelIdx:    r.PixelIdx,
				Wavelengths: r.Wavelengths,
				Importance:  importance,
				Time:        r.Time,
			}
			if !enq.Bounce(bounce) {
				return pipeline.ErrStreamFull
			}
		}
		return nil
	}
}

func isBlack(v [4]float64) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// offset nudges a bounce origin along the geometric normal to avoid
// immediate self-intersection from floating-point roundoff.
func offset(p, n [3]float64) [3]float64 {
	const eps = 1e-4
	return [3]float64{p[0] + n[0]*eps, p[1] + n[1]*eps, p[2] + n[2]*eps}
}
