package output

import (
	"math"
	"testing"
)

func TestVarianceEstimatorMatchesHandComputedSampleVariance(t *testing.T) {
	f := NewFrame(1, 1, nil)
	v := newVarianceEstimator(f)

	samples := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	for _, s := range samples {
		v.Update(0, Vec3{X: s})
	}

	// Known unbiased sample variance for this data set is 4.571428...
	want := 32.0 / 7.0
	if got := v.Variance(0).X; math.Abs(got-want) > 1e-9 {
		t.Fatalf("Variance = %v, want %v", got, want)
	}
}

func TestVarianceEstimatorZeroBeforeTwoSamples(t *testing.T) {
	f := NewFrame(1, 1, nil)
	v := newVarianceEstimator(f)

	if got := v.Variance(0); got != (Vec3{}) {
		t.Fatalf("Variance with zero samples = %v, want zero", got)
	}
	v.Update(0, Vec3{X: 5})
	if got := v.Variance(0); got != (Vec3{}) {
		t.Fatalf("Variance with one sample = %v, want zero", got)
	}
}
