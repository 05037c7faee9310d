// Package spectral implements the wavelength sampling and
// spectral-to-tristimulus mapping core described in spec.md §4.5: hero
// wavelength derivation, pluggable wavelength samplers, and CIE XYZ based
// conversion to RGB primaries.
package spectral

import (
	"math"

	"github.com/pearray/core/ray"
)

// N is the spectral blob size, re-exported from package ray so callers
// that only import spectral don't need to pull in ray just for the
// constant.
const N = ray.SpectralBlobSize

// Range describes the wavelength domain a sampler operates over, in
// nanometers (spec.md §4.5, §3).
type Range struct {
	Start float64
	End   float64
}

// Span returns End - Start.
func (r Range) Span() float64 { return r.End - r.Start }

// DefaultRange is the visible-light range used by the standard samplers.
var DefaultRange = Range{Start: 360, End: 830}

// Derive fills the blob's non-hero lanes from the hero wavelength at
// blob[0], using the formula in spec.md §4.5:
//
//	λ_i = start + ((hero - start) + i*(span/N)) mod span
//
// blob[0] (the hero) is left untouched.
func Derive(hero float64, rng Range) [N]float64 {
	var blob [N]float64
	blob[0] = hero
	span := rng.Span()
	step := span / float64(N)
	for i := 1; i < N; i++ {
		offset := (hero - rng.Start) + float64(i)*step
		// Go's math.Mod can return negative results for negative offset;
		// wrap into [0, span) explicitly since wavelengths must stay
		// within the sampling domain.
		m := modPositive(offset, span)
		blob[i] = rng.Start + m
	}
	return blob
}

func modPositive(x, m float64) float64 {
	r := math.Mod(x, m)
	if r < 0 {
		r += m
	}
	return r
}
