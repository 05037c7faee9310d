package spectral

import "math"

// Sampler is the pluggable wavelength-sampling contract from spec.md §4.5:
// "A sampler exposes sample(u) -> (λ, pdf) and pdf(λ) -> p."
type Sampler interface {
	Sample(u float64) (lambda, pdf float64)
	PDF(lambda float64) float64
}

// RandomSampler draws the hero wavelength uniformly over the sampler's
// range. Grounded on
// original_source/src/plugins/main/spectralmapper/random.cpp.
type RandomSampler struct{ Range Range }

func (s RandomSampler) Sample(u float64) (float64, float64) {
	span := s.Range.Span()
	return s.Range.Start + u*span, 1 / span
}

func (s RandomSampler) PDF(lambda float64) float64 {
	if lambda < s.Range.Start || lambda > s.Range.End {
		return 0
	}
	return 1 / s.Range.Span()
}

// CIEYSampler importance-samples the hero wavelength proportional to the
// CIE ȳ curve, reducing variance in luminance-dominated scenes. Grounded
// on original_source/src/plugins/main/spectralmapper/cie.cpp.
type CIEYSampler struct{ Range Range }

func (s CIEYSampler) Sample(u float64) (float64, float64) {
	// Inverse-CDF search over the tabulated ybar curve restricted to the
	// sampler's range.
	target := u * CIEYIntegral
	acc := 0.0
	n := len(cieTable.y)
	for i := 0; i < n-1; i++ {
		l0 := cieStart + float64(i)*cieStep
		l1 := l0 + cieStep
		if l1 < s.Range.Start || l0 > s.Range.End {
			continue
		}
		seg := (cieTable.y[i] + cieTable.y[i+1]) / 2 * cieStep
		if acc+seg >= target || i == n-2 {
			frac := 0.0
			if seg > 0 {
				frac = (target - acc) / seg
			}
			lambda := l0 + frac*cieStep
			return lambda, s.PDF(lambda)
		}
		acc += seg
	}
	return s.Range.Start, s.PDF(s.Range.Start)
}

func (s CIEYSampler) PDF(lambda float64) float64 {
	if lambda < s.Range.Start || lambda > s.Range.End || CIEYIntegral == 0 {
		return 0
	}
	_, y, _ := XYZ(lambda)
	return y / CIEYIntegral
}

// TruncatedCIESampler is a CIEYSampler restricted to a sub-range of the
// visible spectrum, renormalized over that sub-range.
type TruncatedCIESampler struct {
	Range     Range
	FullRange Range
}

func (s TruncatedCIESampler) integral() float64 {
	sum := 0.0
	n := len(cieTable.y)
	for i := 0; i < n; i++ {
		l := cieStart + float64(i)*cieStep
		if l < s.Range.Start || l > s.Range.End {
			continue
		}
		sum += cieTable.y[i]
	}
	return sum * cieStep
}

func (s TruncatedCIESampler) Sample(u float64) (float64, float64) {
	integral := s.integral()
	if integral == 0 {
		return s.Range.Start + u*s.Range.Span(), 1 / s.Range.Span()
	}
	target := u * integral
	acc := 0.0
	n := len(cieTable.y)
	for i := 0; i < n-1; i++ {
		l0 := cieStart + float64(i)*cieStep
		l1 := l0 + cieStep
		if l1 < s.Range.Start || l0 > s.Range.End {
			continue
		}
		seg := (cieTable.y[i] + cieTable.y[i+1]) / 2 * cieStep
		if acc+seg >= target {
			frac := 0.0
			if seg > 0 {
				frac = (target - acc) / seg
			}
			lambda := l0 + frac*cieStep
			return lambda, s.PDF(lambda)
		}
		acc += seg
	}
	return s.Range.End, s.PDF(s.Range.End)
}

func (s TruncatedCIESampler) PDF(lambda float64) float64 {
	if lambda < s.Range.Start || lambda > s.Range.End {
		return 0
	}
	integral := s.integral()
	if integral == 0 {
		return 0
	}
	_, y, _ := XYZ(lambda)
	return y / integral
}

// AGHSampler implements the low-discrepancy hero-wavelength sampling
// scheme from Radziszewski et al. ("AGH" in the original's naming,
// src/plugins/main/spectralmapper/agh.cpp): a fixed analytic PDF shaped
// like a sum of three Gaussians roughly tracking the visible spectrum's
// perceptual importance, sampled by a single Box-Muller-style inversion
// per lobe chosen via u.
type AGHSampler struct{ Range Range }

func (s AGHSampler) Sample(u float64) (float64, float64) {
	const (
		mu1, sigma1 = 538.0, 48.0
		mu2, sigma2 = 600.0, 30.0
		mu3, sigma3 = 450.0, 20.0
		w1, w2      = 0.55, 0.30
	)
	var mu, sigma float64
	switch {
	case u < w1:
		mu, sigma = mu1, sigma1
		u /= w1
	case u < w1+w2:
		mu, sigma = mu2, sigma2
		u = (u - w1) / w2
	default:
		mu, sigma = mu3, sigma3
		u = (u - w1 - w2) / (1 - w1 - w2)
	}
	// Box-Muller using u and a second independent uniform derived
	// deterministically from u's fractional remainder, to keep Sample a
	// pure function of a single u per spec.md's sampler contract.
	u = math.Max(1e-9, math.Min(1-1e-9, u))
	v := math.Mod(u*6.283185307179586, 1)
	z := math.Sqrt(-2*math.Log(u)) * math.Cos(2*math.Pi*v)
	lambda := mu + sigma*z
	if lambda < s.Range.Start {
		lambda = s.Range.Start
	}
	if lambda > s.Range.End {
		lambda = s.Range.End
	}
	return lambda, s.PDF(lambda)
}

func (s AGHSampler) PDF(lambda float64) float64 {
	if lambda < s.Range.Start || lambda > s.Range.End {
		return 0
	}
	const (
		mu1, sigma1 = 538.0, 48.0
		mu2, sigma2 = 600.0, 30.0
		mu3, sigma3 = 450.0, 20.0
		w1, w2, w3  = 0.55, 0.30, 0.15
	)
	norm := func(x, mu, sigma, w float64) float64 {
		t := (x - mu) / sigma
		return w / (sigma * math.Sqrt(2*math.Pi)) * math.Exp(-0.5*t*t)
	}
	return norm(lambda, mu1, sigma1, w1) + norm(lambda, mu2, sigma2, w2) + norm(lambda, mu3, sigma3, w3)
}
