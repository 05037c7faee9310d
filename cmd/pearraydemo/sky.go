package main

import (
	"math"

	"github.com/pearray/core/scene"
)

// gradientSky is a simple directional-gradient background: a spectrally
// flat radiance (every wavelength lane equal) that falls from 1.0 straight
// down through 0.675 at the horizon to 0.35 straight up, sampled with
// uniform direction since it carries no importance map. Grounded on spec.md §6's
// InfiniteLight contract; there is no teacher equivalent to imitate, so
// Eval/SampleDir/SamplePosDir follow the interface literally.
type gradientSky struct{}

func (gradientSky) Eval(dir [3]float64, wavelengths [4]float64) [4]float64 {
	t := 0.5 * (dir[1] + 1)
	var out [4]float64
	for i := range out {
		out[i] = (1-t)*1.0 + t*0.35
	}
	return out
}

// SampleDir draws a direction uniformly over the full sphere, since a
// background-only light (no defined position) is sampled by direction
// alone (spec.md §6).
func (gradientSky) SampleDir(rng scene.RNG) (dir [3]float64, pdf float64) {
	u1, u2 := rng.Float64(), rng.Float64()
	z := 1 - 2*u1
	r := math.Sqrt(math.Max(0, 1-z*z))
	phi := 2 * math.Pi * u2
	dir = [3]float64{r * math.Cos(phi), z, r * math.Sin(phi)}
	return dir, 1 / (4 * math.Pi)
}

// SamplePosDir places the emitting point at a fixed large distance along
// the sampled direction, the usual treatment of an infinite light as a
// point source at infinity for next-event estimation.
func (gradientSky) SamplePosDir(rng scene.RNG) (pos, dir [3]float64, pdf float64) {
	dir, pdf = gradientSky{}.SampleDir(rng)
	const distant = 1e4
	pos = [3]float64{dir[0] * distant, dir[1] * distant, dir[2] * distant}
	return pos, dir, pdf
}
