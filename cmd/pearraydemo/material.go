package main

import (
	"math"

	"github.com/pearray/core/scene"
)

// lambertian is a single gray diffuse BRDF, cosine-weighted at sample
// time. Grounded on gogpu-gg's flat-color fill path adapted from 2D
// rasterization to hemispherical scattering — there is no teacher
// material system to imitate directly, so this follows spec.md §6's
// Material contract literally: Eval/Sample/PDF operate purely on the
// opaque IntersectionPoint/MaterialInput the core hands it.
type lambertian struct{ albedo float64 }

func (l lambertian) Eval(ip scene.IntersectionPoint, input scene.MaterialInput) scene.MaterialOutput {
	cos := dot(ip.Normal, input.View)
	if cos < 0 {
		cos = 0
	}
	var w [4]float64
	for i := range w {
		w[i] = l.albedo / math.Pi * cos
	}
	return scene.MaterialOutput{Weight: w, Direction: input.View, PDF: cos / math.Pi, ScatterType: scene.ScatterDiffuse}
}

// Sample draws a cosine-weighted direction over the hemisphere around
// ip.Normal, the standard importance sampling strategy for a Lambertian
// lobe (pdf = cos/pi cancels the cos term in the rendering equation,
// leaving the constant albedo as the returned weight).
func (l lambertian) Sample(ip scene.IntersectionPoint, input scene.MaterialInput, rng scene.RNG) scene.MaterialOutput {
	u1, u2 := rng.Float64(), rng.Float64()
	r := math.Sqrt(u1)
	theta := 2 * math.Pi * u2
	lx := r * math.Cos(theta)
	ly := r * math.Sin(theta)
	lz := math.Sqrt(math.Max(0, 1-u1))

	t, b := basis(ip.Normal)
	dir := [3]float64{
		lx*t[0] + ly*b[0] + lz*ip.Normal[0],
		lx*t[1] + ly*b[1] + lz*ip.Normal[1],
		lx*t[2] + ly*b[2] + lz*ip.Normal[2],
	}

	var w [4]float64
	for i := range w {
		w[i] = l.albedo // cos/pdf cancellation leaves the albedo alone
	}
	return scene.MaterialOutput{Weight: w, Direction: dir, PDF: lz / math.Pi, ScatterType: scene.ScatterDiffuse}
}

func (l lambertian) PDF(ip scene.IntersectionPoint, input scene.MaterialInput) float64 {
	cos := dot(ip.Normal, input.View)
	if cos < 0 {
		return 0
	}
	return cos / math.Pi
}

func dot(a, b [3]float64) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }

// basis builds an orthonormal tangent/bitangent pair around n using the
// Duff et al. branchless construction.
func basis(n [3]float64) (t, b [3]float64) {
	sign := math.Copysign(1, n[2])
	a := -1 / (sign + n[2])
	c := n[0] * n[1] * a
	t = [3]float64{1 + sign*n[0]*n[0]*a, sign * c, -sign * n[0]}
	b = [3]float64{c, sign + n[1]*n[1]*a, -n[1]}
	return t, b
}
