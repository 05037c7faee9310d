package output

import "sync"

// GlobalOutputDevice is the image-sized Frame that completed tiles merge
// into (spec.md §4.3.3), guarded by a single mutex: merges are brief and
// happen only at tile-round completion, not per-sample, so a simple lock
// rather than per-pixel atomics matches the expected contention.
// Grounded on original_source/src/core/output/OutputSystem.{h,cpp} (the
// global Frame owner) and src/core/buffer/VarianceEstimator.h.
type GlobalOutputDevice struct {
	mu       sync.Mutex
	frame    *Frame
	variance *VarianceEstimator
}

// NewGlobalOutputDevice allocates the final image-sized frame, sized for
// exactly the channels reg has enabled or registered.
func NewGlobalOutputDevice(width, height int, reg *Registry) *GlobalOutputDevice {
	f := NewFrame(width, height, reg)
	return &GlobalOutputDevice{frame: f, variance: newVarianceEstimator(f)}
}

// Frame returns the backing global frame. Callers reading it for display
// or final output must do so between render iterations, since Merge holds
// the device's mutex only for the duration of one tile's merge, not for
// the whole render.
func (g *GlobalOutputDevice) Frame() *Frame { return g.frame }

// Merge folds a completed tile's local output device into the global
// frame and resets the local device to zero afterward (spec.md §4.3.3).
// Spectral AOVs merge by running mean; the denominator is how many times
// *this global pixel* has been merged into, tracked per-pixel by the
// VarianceEstimator rather than taken from the caller — a filter-radius
// border pixel can be touched by more than one neighboring tile, so a
// per-tile round count would be the wrong denominator for it. 1D/3D/
// counter AOVs and Feedback accumulate by sum/bitwise-OR instead, since
// they are not expressed as a per-round average.
func (g *GlobalOutputDevice) Merge(local *LocalOutputDevice) {
	g.mu.Lock()
	defer g.mu.Unlock()

	lf := local.frame
	gf := g.frame
	r := local.filter.Radius()

	for ly := 0; ly < lf.Height; ly++ {
		gy := local.originY + ly - r
		if gy < 0 || gy >= gf.Height {
			continue
		}
		for lx := 0; lx < lf.Width; lx++ {
			gx := local.originX + lx - r
			if gx < 0 || gx >= gf.Width {
				continue
			}
			li := lf.index(lx, ly)
			gi := gf.index(gx, gy)

			g.variance.Update(gi, lf.Output[li])
			n := g.variance.SampleCount(gi)
			gf.Output[gi] = runningMeanVec3(gf.Output[gi], lf.Output[li], n)

			gf.SampleCount[gi] += lf.SampleCount[li]
			gf.PixelContributionCount[gi] += lf.PixelContributionCount[li]
			gf.Feedback[gi] |= lf.Feedback[li]

			for tag, buf := range lf.threeD {
				if gb := gf.threeD[tag]; gb != nil {
					gb[gi] = gb[gi].add(buf[li])
				}
			}
			for tag, buf := range lf.oneD {
				if gb := gf.oneD[tag]; gb != nil {
					gb[gi] += buf[li]
				}
			}
			for id, buf := range lf.custom {
				gb := gf.custom[id]
				stride := local.customStride[id]
				if gb == nil || stride == 0 {
					continue
				}
				gbase, lbase := gi*stride, li*stride
				for k := 0; k < stride; k++ {
					gb[gbase+k] += buf[lbase+k]
				}
			}
			for id, buf := range lf.lpe {
				if gb := gf.lpe[id]; gb != nil {
					gb[gi] = runningMeanVec3(gb[gi], buf[li], n)
				}
			}
		}
	}

	local.Reset()
}

// runningMeanVec3 implements spec.md §4.3.3's merge formula for spectral
// AOVs: global[i] <- (global[i]*(n-1) + local[i]) / n.
func runningMeanVec3(global, local Vec3, n uint64) Vec3 {
	fn := float64(n)
	return Vec3{
		X: (global.X*(fn-1) + local.X) / fn,
		Y: (global.Y*(fn-1) + local.Y) / fn,
		Z: (global.Z*(fn-1) + local.Z) / fn,
	}
}
