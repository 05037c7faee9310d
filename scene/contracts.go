package scene

import (
	"github.com/pearray/core/hit"
	"github.com/pearray/core/ray"
)

// Sample bundles the per-ray sample state a camera needs to construct a
// CameraRay: the AA/lens/time offsets and the sampled hero wavelength,
// all produced by the per-tile samplers described in spec.md §3
// RenderTile.
type Sample struct {
	PixelX, PixelY int
	LensU, LensV   float64
	AAx, AAy       float64
	Time           float64
	Wavelength     float64
	Importance     float64
}

// CameraRay is what Camera.ConstructRay returns: the geometric ray plus
// whatever blend weight, importance and wavelength the camera itself
// wants to contribute. spec.md §4.1.a: "Default fields (importance,
// wavelength, blend weight) are carried over from the sample if the
// camera returned zeros."
type CameraRay struct {
	Origin     [3]float64
	Direction  [3]float64
	Importance float64
	Wavelength float64
	BlendWeight float64
}

// ShadowHit is the result of a shadow/visibility query.
type ShadowHit struct {
	Occluded bool
	EntityID uint32
}

// Camera is the consumed camera contract (spec.md §6).
type Camera interface {
	// ConstructRay builds a camera ray for the given sample. ok is false
	// when the camera has no ray for this sample (e.g. outside the lens
	// aperture).
	ConstructRay(s Sample) (cr CameraRay, ok bool)
}

// Material is the consumed material contract (spec.md §6). Input/Output
// are opaque to the core — it only needs to invoke eval/sample/pdf and
// pass the resulting contribution on to the output system.
type Material interface {
	Eval(ip IntersectionPoint, input MaterialInput) MaterialOutput
	Sample(ip IntersectionPoint, input MaterialInput, rng RNG) MaterialOutput
	PDF(ip IntersectionPoint, input MaterialInput) float64
}

// MaterialInput/MaterialOutput are placeholders for whatever a concrete
// material family needs; the core never inspects their fields, only
// forwards them between the integrator and the material.
type MaterialInput struct {
	Wavelengths [ray.SpectralBlobSize]float64
	View        [3]float64
}

type MaterialOutput struct {
	Weight    [ray.SpectralBlobSize]float64
	Direction [3]float64
	PDF       float64
	ScatterType ScatterType
}

// ScatterType is the scatter-class terminal used when building LightPath
// tokens (spec.md §6 LPE grammar: D, S, T, V).
type ScatterType int

const (
	ScatterDiffuse ScatterType = iota
	ScatterSpecular
	ScatterTranslucent
	ScatterVolume
)

// Emission is the consumed emission contract.
type Emission interface {
	Eval(ip IntersectionPoint, wavelengths [ray.SpectralBlobSize]float64) [ray.SpectralBlobSize]float64
	Sample(ip IntersectionPoint, rng RNG) (dir [3]float64, weight [ray.SpectralBlobSize]float64, pdf float64)
}

// InfiniteLight is the consumed infinite/background light contract.
type InfiniteLight interface {
	Eval(dir [3]float64, wavelengths [ray.SpectralBlobSize]float64) [ray.SpectralBlobSize]float64
	SampleDir(rng RNG) (dir [3]float64, pdf float64)
	SamplePosDir(rng RNG) (pos, dir [3]float64, pdf float64)
}

// RNG is the minimal random-number contract the material/emission/light
// sample methods need; satisfied by the per-tile RNG stream spec.md §3
// attaches to every RenderTile.
type RNG interface {
	Float64() float64
}

// Entity/material/emission handles the core treats as opaque ids (spec.md
// §9 "Cyclic references": a handle/id scheme is preferred over owning
// references across the scene boundary).
type (
	EntityID   = uint32
	MaterialID = uint32
	EmissionID = uint32
)

// Scene is the consumed scene/traversal contract (spec.md §6).
type Scene interface {
	// TraceRays fills hitStream with the traversal result of every ray in
	// span. A miss is recorded as EntityID == hit.InvalidID.
	TraceRays(span ray.Span, hitStream *hit.Stream)
	// TraceOcclusion performs a boolean visibility test.
	TraceOcclusion(r ray.Ray) bool
	// TraceShadow performs a shadow query returning occluder detail.
	TraceShadow(r ray.Ray) ShadowHit

	Entities() []EntityID
	Materials() []MaterialID
	Emissions() []EmissionID
	InfiniteLights() []InfiniteLight
	Lights() []EntityID

	// Resolve looks up the material/emission bound to an entity for
	// shading-group dispatch. A miss (id out of range) is the
	// SceneMismatch case in spec.md §7 and is treated as a background
	// miss by the caller, not a fatal error.
	Material(id MaterialID) (Material, bool)
	Emission(id EmissionID) (Emission, bool)

	// Intersection resolves a hit entry and the ray that produced it into
	// the shading-time surface record, filling in geometry the hit stream
	// itself does not carry (position, shading frame, uv).
	Intersection(e hit.Entry, r ray.Ray) IntersectionPoint
}
