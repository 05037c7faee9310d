// Package filter implements the pixel-reconstruction filter cache: a 2D
// symmetric kernel precomputed into a (2r+1)x(2r+1) table at construction
// so that lookups during splatting are O(1) (spec.md §4.4).
package filter

import "math"

// Kind selects which filter kernel to precompute.
type Kind int

const (
	Block Kind = iota
	Triangle
	Gaussian
	Mitchell
	Lanczos
)

// Cache holds a precomputed, normalized (2r+1)x(2r+1) weight table for one
// filter kernel and radius. Grounded on
// original_source/src/core/filter/FilterCache.h and the five kernel
// shapes in src/plugins/main/filter/*.cpp.
type Cache struct {
	radius int
	width  int // 2*radius + 1
	table  []float64
}

// New precomputes the table for kind at the given radius. radius == 0
// degenerates to a single-tap filter with weight 1, matching spec.md
// §4.3.2's "If filter_radius = 0: add to the single pixel" fast path.
func New(kind Kind, radius int) *Cache {
	if radius < 0 {
		radius = 0
	}
	width := 2*radius + 1
	c := &Cache{radius: radius, width: width, table: make([]float64, width*width)}
	c.fill(kind)
	c.normalize()
	return c
}

func kernel1D(kind Kind, radius int, x float64) float64 {
	r := float64(radius)
	if r == 0 {
		if x == 0 {
			return 1
		}
		return 0
	}
	switch kind {
	case Block:
		if math.Abs(x) <= r {
			return 1
		}
		return 0
	case Triangle:
		return math.Max(0, 1-math.Abs(x)/(r+1))
	case Gaussian:
		const alpha = 2.0
		expR := math.Exp(-alpha * r * r)
		return math.Max(0, math.Exp(-alpha*x*x)-expR)
	case Mitchell:
		return mitchellNetravali(x/r*2, 1.0/3, 1.0/3)
	case Lanczos:
		return lanczos(x, r)
	default:
		return 0
	}
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

func lanczos(x, radius float64) float64 {
	if math.Abs(x) > radius {
		return 0
	}
	return sinc(x) * sinc(x/radius)
}

// mitchellNetravali evaluates the classic Mitchell-Netravali cubic filter
// for a normalized distance in [-2, 2] (the teacher's FilterCache convention
// is to evaluate the two-piece cubic and let the outer radius scaling be
// handled by the caller).
func mitchellNetravali(x, b, c float64) float64 {
	x = math.Abs(x)
	if x < 1 {
		return ((12-9*b-6*c)*x*x*x + (-18+12*b+6*c)*x*x + (6 - 2*b)) / 6
	}
	if x < 2 {
		return ((-b-6*c)*x*x*x + (6*b+30*c)*x*x + (-12*b-48*c)*x + (8*b + 24*c)) / 6
	}
	return 0
}

func (c *Cache) fill(kind Kind) {
	r := c.radius
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			wx := kernel1D(kind, r, float64(dx))
			wy := kernel1D(kind, r, float64(dy))
			c.table[c.index(dx, dy)] = wx * wy
		}
	}
}

func (c *Cache) normalize() {
	sum := 0.0
	for _, w := range c.table {
		sum += w
	}
	if sum == 0 {
		return
	}
	inv := 1 / sum
	for i := range c.table {
		c.table[i] *= inv
	}
}

func (c *Cache) index(dx, dy int) int {
	return (dy+c.radius)*c.width + (dx + c.radius)
}

// Radius returns the filter's support radius in pixels.
func (c *Cache) Radius() int { return c.radius }

// Weight returns the precomputed weight for integer offset (dx, dy) from
// the filter center, clamping and rounding to the nearest tabulated
// entry. Offsets outside [-radius, radius] return 0.
func (c *Cache) Weight(dx, dy int) float64 {
	r := c.radius
	if dx < -r || dx > r || dy < -r || dy > r {
		return 0
	}
	return c.table[c.index(dx, dy)]
}

// WeightAt looks up the weight for a continuous offset by rounding to the
// nearest integer lattice point, per spec.md §4.4 "clamping and
// rounding-to-nearest".
func (c *Cache) WeightAt(fdx, fdy float64) float64 {
	dx := int(math.Round(fdx))
	dy := int(math.Round(fdy))
	return c.Weight(dx, dy)
}

// Sum returns the total weight over the support; used by tests to verify
// the 1 +/- 1e-4 normalization invariant (spec.md §8 invariant 4).
func (c *Cache) Sum() float64 {
	sum := 0.0
	for _, w := range c.table {
		sum += w
	}
	return sum
}
