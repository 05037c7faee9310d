package main

import (
	"math"

	"github.com/pearray/core/hit"
	"github.com/pearray/core/ray"
	"github.com/pearray/core/scene"
)

const (
	sphereEntity = scene.EntityID(0)
	floorEntity  = scene.EntityID(1)
	diffuseMat   = scene.MaterialID(0)
)

// demoScene is a two-object analytic scene (one sphere over an infinite
// ground plane, both sharing a single gray diffuse material) lit only by
// a gradient sky. It exists to exercise every part of the consumed Scene
// contract (spec.md §6) end to end without an acceleration structure —
// a real host wires its own BVH/embree-style traversal behind the same
// interface.
type demoScene struct {
	sphereCenter [3]float64
	sphereRadius float64
	material     scene.Material
	sky          scene.InfiniteLight
}

func newDemoScene() *demoScene {
	return &demoScene{
		sphereCenter: [3]float64{0, 1, 0},
		sphereRadius: 1,
		material:     lambertian{albedo: 0.72},
		sky:          gradientSky{},
	}
}

// TraceRays intersects every ray in span against the sphere and the
// ground plane analytically, keeping the nearer of the two hits (spec.md
// §6 Scene.TraceRays). Entry.Params[0] carries the resolved hit distance
// so Intersection can recompute position/normal without re-testing both
// primitives.
func (s *demoScene) TraceRays(span ray.Span, hs *hit.Stream) {
	for i := 0; i < span.Len(); i++ {
		r := span.At(i)
		idx := span.StreamIndex(i)

		tSphere, sphereHit := s.intersectSphere(r)
		tFloor, floorHit := s.intersectFloor(r)

		switch {
		case sphereHit && (!floorHit || tSphere < tFloor):
			hs.Push(hit.Entry{RayIndex: idx, EntityID: sphereEntity, MaterialID: diffuseMat, Params: [3]float64{tSphere, 0, 0}})
		case floorHit:
			hs.Push(hit.Entry{RayIndex: idx, EntityID: floorEntity, MaterialID: diffuseMat, Params: [3]float64{tFloor, 0, 0}})
		default:
			hs.Push(hit.Entry{RayIndex: idx, EntityID: hit.InvalidID, Flags: hit.Miss})
		}
	}
}

func (s *demoScene) intersectSphere(r ray.Ray) (t float64, ok bool) {
	ox, oy, oz := r.Origin[0]-s.sphereCenter[0], r.Origin[1]-s.sphereCenter[1], r.Origin[2]-s.sphereCenter[2]
	dx, dy, dz := r.Direction[0], r.Direction[1], r.Direction[2]

	a := dx*dx + dy*dy + dz*dz
	b := 2 * (ox*dx + oy*dy + oz*dz)
	c := ox*ox + oy*oy + oz*oz - s.sphereRadius*s.sphereRadius
	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	t0 := (-b - sq) / (2 * a)
	t1 := (-b + sq) / (2 * a)
	if t0 > r.MinT && t0 < r.MaxT {
		return t0, true
	}
	if t1 > r.MinT && t1 < r.MaxT {
		return t1, true
	}
	return 0, false
}

// intersectFloor tests against the plane y = 0 (the sphere's south
// pole touches it).
func (s *demoScene) intersectFloor(r ray.Ray) (t float64, ok bool) {
	const floorY = 0
	if r.Direction[1] == 0 {
		return 0, false
	}
	t = (floorY - r.Origin[1]) / r.Direction[1]
	if t <= r.MinT || t >= r.MaxT {
		return 0, false
	}
	return t, true
}

func (s *demoScene) TraceOcclusion(r ray.Ray) bool {
	if _, ok := s.intersectSphere(r); ok {
		return true
	}
	_, ok := s.intersectFloor(r)
	return ok
}

func (s *demoScene) TraceShadow(r ray.Ray) scene.ShadowHit {
	if _, ok := s.intersectSphere(r); ok {
		return scene.ShadowHit{Occluded: true, EntityID: sphereEntity}
	}
	if _, ok := s.intersectFloor(r); ok {
		return scene.ShadowHit{Occluded: true, EntityID: floorEntity}
	}
	return scene.ShadowHit{}
}

func (s *demoScene) Entities() []scene.EntityID       { return []scene.EntityID{sphereEntity, floorEntity} }
func (s *demoScene) Materials() []scene.MaterialID     { return []scene.MaterialID{diffuseMat} }
func (s *demoScene) Emissions() []scene.EmissionID     { return nil }
func (s *demoScene) InfiniteLights() []scene.InfiniteLight { return []scene.InfiniteLight{s.sky} }
func (s *demoScene) Lights() []scene.EntityID          { return nil }

func (s *demoScene) Material(id scene.MaterialID) (scene.Material, bool) {
	if id != diffuseMat {
		return nil, false
	}
	return s.material, true
}

func (s *demoScene) Emission(scene.EmissionID) (scene.Emission, bool) { return nil, false }

// Intersection recomputes the shading-time surface record for a hit
// produced by TraceRays, using the hit distance carried in e.Params[0]
// (spec.md §6 Scene.Intersection).
func (s *demoScene) Intersection(e hit.Entry, r ray.Ray) scene.IntersectionPoint {
	t := e.Params[0]
	pos := [3]float64{
		r.Origin[0] + t*r.Direction[0],
		r.Origin[1] + t*r.Direction[1],
		r.Origin[2] + t*r.Direction[2],
	}
	var normal [3]float64
	if e.EntityID == sphereEntity {
		normal = normalize([3]float64{
			pos[0] - s.sphereCenter[0],
			pos[1] - s.sphereCenter[1],
			pos[2] - s.sphereCenter[2],
		})
	} else {
		normal = [3]float64{0, 1, 0}
	}
	return scene.IntersectionPoint{
		Position:        pos,
		Normal:          normal,
		GeometricNormal: normal,
		Wo:              [3]float64{-r.Direction[0], -r.Direction[1], -r.Direction[2]},
		Time:            r.Time,
		EntityID:        e.EntityID,
		MaterialID:      e.MaterialID,
	}
}

func normalize(v [3]float64) [3]float64 {
	l := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if l == 0 {
		return v
	}
	inv := 1 / l
	return [3]float64{v[0] * inv, v[1] * inv, v[2] * inv}
}
