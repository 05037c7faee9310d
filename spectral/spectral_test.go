package spectral

import (
	"math"
	"testing"
)

func TestDeriveKeepsHeroAndWrapsWithinSpan(t *testing.T) {
	rng := Range{Start: 360, End: 830}
	hero := 820.0
	blob := Derive(hero, rng)
	if blob[0] != hero {
		t.Fatalf("blob[0] = %v, want hero %v", blob[0], hero)
	}
	for i, l := range blob {
		if l < rng.Start || l > rng.End+1e-9 {
			t.Errorf("blob[%d] = %v out of range [%v,%v]", i, l, rng.Start, rng.End)
		}
	}
}

func TestDeriveMatchesFormula(t *testing.T) {
	rng := Range{Start: 400, End: 700}
	hero := 550.0
	blob := Derive(hero, rng)
	span := rng.Span()
	step := span / float64(N)
	for i := 1; i < N; i++ {
		want := modPositive((hero-rng.Start)+float64(i)*step, span) + rng.Start
		if math.Abs(blob[i]-want) > 1e-9 {
			t.Errorf("blob[%d] = %v, want %v", i, blob[i], want)
		}
	}
}

func TestEqualEnergyRoundTripsToWhite(t *testing.T) {
	rgb := EqualEnergyRGB(SRGB)
	if math.Abs(rgb.R-1) > 1e-3 || math.Abs(rgb.G-1) > 1e-3 || math.Abs(rgb.B-1) > 1e-3 {
		t.Errorf("EqualEnergyRGB = %+v, want ~(1,1,1)", rgb)
	}
}

func TestSRGBRowsSumToOne(t *testing.T) {
	for r := 0; r < 3; r++ {
		sum := SRGB[r][0] + SRGB[r][1] + SRGB[r][2]
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("row %d sums to %v, want 1", r, sum)
		}
	}
}

func TestCIEIntegralsMatchByConstruction(t *testing.T) {
	sumX := rawSum(cieTable.x)
	sumY := rawSum(cieTable.y)
	sumZ := rawSum(cieTable.z)
	if math.Abs(sumX-sumY) > 1e-6 || math.Abs(sumZ-sumY) > 1e-6 {
		t.Errorf("curve integrals not matched: x=%v y=%v z=%v", sumX, sumY, sumZ)
	}
}

func TestMonochromeUsesOnlyHeroLane(t *testing.T) {
	wavelengths := [N]float64{550, 600, 650, 500}
	value := [N]float64{1, 1, 1, 1}
	mono := ContributionToRGB(wavelengths, value, true, SRGB)
	xi, yi, zi := XYZ(wavelengths[0])
	want := SRGB.XYZToRGB(xi, yi, zi)
	if math.Abs(mono.R-want.R) > 1e-9 || math.Abs(mono.G-want.G) > 1e-9 || math.Abs(mono.B-want.B) > 1e-9 {
		t.Errorf("mono contribution = %+v, want %+v (hero lane only)", mono, want)
	}
}

func TestSamplersProduceRangeBoundedWavelengths(t *testing.T) {
	rng := Range{Start: 400, End: 700}
	samplers := []Sampler{
		RandomSampler{Range: rng},
		CIEYSampler{Range: rng},
		TruncatedCIESampler{Range: rng, FullRange: DefaultRange},
		AGHSampler{Range: rng},
	}
	for _, s := range samplers {
		for _, u := range []float64{0.01, 0.25, 0.5, 0.75, 0.99} {
			lambda, pdf := s.Sample(u)
			if lambda < rng.Start-1e-6 || lambda > rng.End+1e-6 {
				t.Errorf("%T.Sample(%v) = %v out of range", s, u, lambda)
			}
			if pdf < 0 {
				t.Errorf("%T.Sample(%v) pdf = %v, want >= 0", s, u, pdf)
			}
		}
	}
}
