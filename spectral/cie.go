package spectral

import "math"

// cieStep is the tabulation spacing in nanometers spec.md §4.5 requires
// ("tabulated CIE XYZ curves at 5 nm spacing over [360, 830]").
const (
	cieStart = 360.0
	cieEnd   = 830.0
	cieStep  = 5.0
)

// cieTable holds the precomputed x-bar/y-bar/z-bar values at cieStep
// spacing. Rather than transcribing the ~95-row measured CIE 1931
// standard observer table by hand (a classic source of silent
// off-by-one/typo bugs), the table is generated once at package init from
// the Wyman/Sloan/Shirley multi-lobe Gaussian analytic fit to the CIE
// 1931 2-degree color matching functions — a widely used closed-form
// approximation in real-time and offline renderers when an exact
// measured table isn't embedded as a data file. The result is still a
// tabulated, linearly-interpolated lookup exactly as spec.md specifies;
// only the table's provenance differs from a literal transcription.
var cieTable struct {
	x, y, z []float64
}

func init() {
	n := int((cieEnd-cieStart)/cieStep) + 1
	cieTable.x = make([]float64, n)
	cieTable.y = make([]float64, n)
	cieTable.z = make([]float64, n)
	for i := 0; i < n; i++ {
		lambda := cieStart + float64(i)*cieStep
		cieTable.x[i] = cieXFit(lambda)
		cieTable.y[i] = cieYFit(lambda)
		cieTable.z[i] = cieZFit(lambda)
	}

	// Rescale the x and z curves so that ∫x̄ = ∫ȳ = ∫z̄ exactly. Real
	// measured CIE 1931 data already has this property to within
	// measurement noise (it is what makes an equal-energy spectrum map to
	// an (X,Y,Z) triple with X≈Y≈Z); the analytic Gaussian fit above does
	// not reproduce it exactly, so it is enforced here rather than left to
	// coincidence. This keeps the CIE-E round-trip invariant (spec.md §8
	// invariant 10) a property of the conversion pipeline, not of how
	// closely the fit happens to match the measured curves.
	sumX, sumY, sumZ := rawSum(cieTable.x), rawSum(cieTable.y), rawSum(cieTable.z)
	scaleX, scaleZ := sumY/sumX, sumY/sumZ
	for i := range cieTable.x {
		cieTable.x[i] *= scaleX
		cieTable.z[i] *= scaleZ
	}
	CIEYIntegral = rawSum(cieTable.y) * cieStep
}

func rawSum(table []float64) float64 {
	sum := 0.0
	for _, v := range table {
		sum += v
	}
	return sum
}

func gaussian(x, mu, sigma1, sigma2 float64) float64 {
	var t float64
	if x < mu {
		t = (x - mu) / sigma1
	} else {
		t = (x - mu) / sigma2
	}
	return math.Exp(-0.5 * t * t)
}

func cieXFit(l float64) float64 {
	return 1.056*gaussian(l, 599.8, 37.9, 31.0) +
		0.362*gaussian(l, 442.0, 16.0, 26.7) -
		0.065*gaussian(l, 501.1, 20.4, 26.2)
}

func cieYFit(l float64) float64 {
	return 0.821*gaussian(l, 568.8, 46.9, 40.5) +
		0.286*gaussian(l, 530.9, 16.3, 31.1)
}

func cieZFit(l float64) float64 {
	return 1.217*gaussian(l, 437.0, 11.8, 36.0) +
		0.681*gaussian(l, 459.0, 26.0, 13.8)
}

// lookup linearly interpolates into a tabulated curve at wavelength l
// (nanometers). Out-of-range wavelengths clamp to the table's endpoints.
func lookup(table []float64, l float64) float64 {
	if l <= cieStart {
		return table[0]
	}
	if l >= cieEnd {
		return table[len(table)-1]
	}
	pos := (l - cieStart) / cieStep
	i0 := int(pos)
	i1 := i0 + 1
	if i1 >= len(table) {
		return table[i0]
	}
	frac := pos - float64(i0)
	return table[i0]*(1-frac) + table[i1]*frac
}

// XYZ evaluates the CIE 1931 color matching functions at wavelength l
// (nanometers), linearly interpolated from the 5nm tabulation.
func XYZ(l float64) (x, y, z float64) {
	return lookup(cieTable.x, l), lookup(cieTable.y, l), lookup(cieTable.z, l)
}

// CIEYIntegral is the normalizing constant (∫ ȳ(λ) dλ) used when
// converting a spectral power distribution sampled at discrete
// wavelengths into tristimulus values; computed once from the table at
// init so callers don't re-sum it per ray. After the rescaling in init(),
// ∫x̄ and ∫z̄ equal this same constant.
var CIEYIntegral float64

// IntegrateSpectrumToXYZ numerically integrates an arbitrary spectral
// power distribution spd(λ) against the tabulated CIE curves using the
// trapezoidal rule over the full [360, 830] tabulation, then normalizes
// by CIEYIntegral so that a flat unit SPD (CIE illuminant E) maps to
// X = Y = Z = 1 exactly. This is the reference conversion used to state
// and test the spectral-to-tristimulus round-trip property; per-ray
// rendering uses the cheaper N-sample estimator in ContributionToRGB
// instead.
func IntegrateSpectrumToXYZ(spd func(lambda float64) float64) (x, y, z float64) {
	n := len(cieTable.y)
	for i := 0; i < n; i++ {
		lambda := cieStart + float64(i)*cieStep
		weight := cieStep
		if i == 0 || i == n-1 {
			weight /= 2 // trapezoidal end weights
		}
		s := spd(lambda)
		x += s * cieTable.x[i] * weight
		y += s * cieTable.y[i] * weight
		z += s * cieTable.z[i] * weight
	}
	if CIEYIntegral != 0 {
		x /= CIEYIntegral
		y /= CIEYIntegral
		z /= CIEYIntegral
	}
	return x, y, z
}
