package output

// VarianceEstimator maintains a Welford online mean/M2 pair over the
// global frame's OnlineMean/OnlineVariance buffers, folding in one new
// per-tile-round spectral sample at a time (spec.md §4.3.3 "Welford block
// variance update"). Grounded on
// original_source/src/core/buffer/VarianceEstimator.h's addValue/addBlock
// shape, adapted here to update directly from GlobalOutputDevice.Merge
// instead of taking a separate global_off/local_off block description,
// since the caller already has both indices in hand.
type VarianceEstimator struct {
	frame *Frame
	count []uint64
}

func newVarianceEstimator(f *Frame) *VarianceEstimator {
	return &VarianceEstimator{frame: f, count: make([]uint64, f.Width*f.Height)}
}

// Update folds one new sample into the running mean/M2 at pixel index idx.
func (v *VarianceEstimator) Update(idx int, sample Vec3) {
	v.count[idx]++
	n := float64(v.count[idx])

	mean := v.frame.OnlineMean[idx]
	delta := Vec3{sample.X - mean.X, sample.Y - mean.Y, sample.Z - mean.Z}
	newMean := Vec3{mean.X + delta.X/n, mean.Y + delta.Y/n, mean.Z + delta.Z/n}
	delta2 := Vec3{sample.X - newMean.X, sample.Y - newMean.Y, sample.Z - newMean.Z}

	m2 := v.frame.OnlineVariance[idx]
	v.frame.OnlineMean[idx] = newMean
	v.frame.OnlineVariance[idx] = Vec3{
		X: m2.X + delta.X*delta2.X,
		Y: m2.Y + delta.Y*delta2.Y,
		Z: m2.Z + delta.Z*delta2.Z,
	}
}

// Variance returns the unbiased sample variance at idx (M2/(n-1)), or the
// zero value if fewer than two samples have been folded in yet.
func (v *VarianceEstimator) Variance(idx int) Vec3 {
	n := v.count[idx]
	if n < 2 {
		return Vec3{}
	}
	d := float64(n - 1)
	m2 := v.frame.OnlineVariance[idx]
	return Vec3{m2.X / d, m2.Y / d, m2.Z / d}
}

// SampleCount reports how many values have been folded in at idx.
func (v *VarianceEstimator) SampleCount(idx int) uint64 { return v.count[idx] }
