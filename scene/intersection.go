package scene

// IntersectionPoint is the shading-time surface record the core derives
// from a hit.Entry and hands to Material/Emission callbacks. The core
// never constructs geometric detail itself — a Scene is expected to
// resolve a hit.Entry into one of these (position, frame, parametric
// coordinates) before dispatching to the shading callback, since only
// the scene owns the concrete geometry representation (spec.md §6:
// "the core only needs to invoke eval/sample/pdf").
type IntersectionPoint struct {
	Position [3]float64
	Normal   [3]float64
	// GeometricNormal is the unperturbed face normal, distinct from
	// Normal when the material applies normal/bump mapping.
	GeometricNormal [3]float64
	UV              [2]float64
	Wo              [3]float64 // outgoing direction, i.e. -ray.Direction
	Time            float64
	EntityID        EntityID
	MaterialID      MaterialID
	PrimID          uint32
}
