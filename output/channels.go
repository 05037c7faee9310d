// Package output implements the per-worker local accumulation path and the
// mutex-guarded global merge described in spec.md §4.3: local output
// queues batch committed entries, local output devices splat them through
// the reconstruction filter into an extended per-tile frame, and the
// global output device folds completed tiles into the final image under
// a running-mean / sum / bitwise-OR merge per AOV kind.
package output

// ChannelKind classifies a registered channel by its underlying storage
// shape, used by both custom channels and LPE channels (spec.md §6
// register_custom_channel/register_lpe_channel).
type ChannelKind int

const (
	KindSpectral ChannelKind = iota
	Kind3D
	Kind1D
	KindCounter
)

// ThreeDTag enumerates the 3D AOV channels (spec.md §3 Frame).
type ThreeDTag int

const (
	Position ThreeDTag = iota
	Normal
	NormalG
	Tangent
	Bitangent
	View
	UVW
	threeDTagCount
)

// OneDTag enumerates the 1D AOV channels (spec.md §3 Frame).
type OneDTag int

const (
	EntityID OneDTag = iota
	MaterialID
	EmissionID
	DisplaceID
	Depth
	PixelWeight
	oneDTagCount
)

// FeedbackBit is a bit in the Feedback counter AOV (spec.md §4.3.2
// "emit a Feedback entry with the offending flag").
type FeedbackBit uint32

const (
	FeedbackNaN      FeedbackBit = 1 << iota
	FeedbackInf
	FeedbackNegative
)

// Vec3 is a 3-component value used by the 3D AOV channels.
type Vec3 struct{ X, Y, Z float64 }

func (v Vec3) add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
