package output

import (
	"math"

	"github.com/pearray/core/lpe"
	"github.com/pearray/core/spectral"
)

// pathRef is a (start, length) window into a Queue's shared light-path
// token arena, avoiding a per-entry slice allocation (spec.md §4.3.1: "an
// arena of light-path token memory shared across entries").
type pathRef struct {
	start, length int
}

// SpectralEntry is a committed radiance contribution (spec.md §4.3.2
// "Spectral entry (position, weight, wavelengths, flags, path)").
// Position is in continuous pixel space (sub-pixel precision matters for
// filter splatting).
type SpectralEntry struct {
	Position    [2]float64
	Wavelengths [spectral.N]float64
	Weight      [spectral.N]float64
	Mono        bool
	BlendWeight float64
	path        pathRef
}

// ShadingPointEntry is a committed auxiliary-AOV sample at one pixel
// (spec.md §4.3.2 "Shading-point entry (position, ip, path)"). ThreeD/OneD
// only carry values for channels the Set bitmask marks present; the
// tag counts (7 and 6) comfortably fit a uint8 mask.
type ShadingPointEntry struct {
	PixelX, PixelY int
	ThreeD         [threeDTagCount]Vec3
	ThreeDSet      uint8
	OneD           [oneDTagCount]float64
	OneDSet        uint8
	path           pathRef
}

// SetThreeD records a 3D AOV value on the entry.
func (e *ShadingPointEntry) SetThreeD(tag ThreeDTag, v Vec3) {
	e.ThreeD[tag] = v
	e.ThreeDSet |= 1 << uint(tag)
}

// SetOneD records a 1D AOV value on the entry.
func (e *ShadingPointEntry) SetOneD(tag OneDTag, v float64) {
	e.OneD[tag] = v
	e.OneDSet |= 1 << uint(tag)
}

// FeedbackEntry is a committed diagnostic bit at one pixel (spec.md
// §4.3.2 "Feedback entry (position, bits): bitwise-OR into Feedback
// counter").
type FeedbackEntry struct {
	PixelX, PixelY int
	Bits           FeedbackBit
}

// CustomEntry is a committed value for a registered custom channel
// (spec.md §4.3.2 "Custom entries: routed by channel id").
type CustomEntry struct {
	PixelX, PixelY int
	Values         [3]float64 // only Values[:stride] is meaningful, stride from the channel's Kind
}

// Queue is the per-worker bounded local accumulation queue of spec.md
// §4.3.1: four typed sub-queues (spectral, shading-point, feedback, one
// per custom channel) plus a shared light-path token arena. Grounded on
// original_source/src/core/output/LocalOutputQueue.{h,cpp}.
type Queue struct {
	triggerThreshold int

	spectral     []SpectralEntry
	shadingPoint []ShadingPointEntry
	feedback     []FeedbackEntry
	custom       map[uint32][]CustomEntry

	arena []lpe.Token
}

// NewQueue creates a queue that signals a flush is due once any
// sub-queue reaches triggerThreshold entries.
func NewQueue(triggerThreshold int) *Queue {
	return &Queue{
		triggerThreshold: triggerThreshold,
		custom:           make(map[uint32][]CustomEntry),
	}
}

func (q *Queue) internPath(p lpe.Path) pathRef {
	ref := pathRef{start: len(q.arena), length: len(p)}
	q.arena = append(q.arena, p...)
	return ref
}

func (q *Queue) pathAt(ref pathRef) lpe.Path {
	if ref.length == 0 {
		return nil
	}
	return lpe.Path(q.arena[ref.start : ref.start+ref.length])
}

// PushSpectral appends a spectral contribution. Reports whether the
// caller should now call CommitAndFlush (spec.md §4.3.1 "push_* writes
// into the next slot; if any sub-queue reaches trigger_threshold ... the
// worker calls commit_and_flush()").
func (q *Queue) PushSpectral(e SpectralEntry, path lpe.Path) bool {
	e.path = q.internPath(path)
	q.spectral = append(q.spectral, e)
	return q.shouldFlush()
}

// PushShadingPoint appends an auxiliary-AOV sample.
func (q *Queue) PushShadingPoint(e ShadingPointEntry, path lpe.Path) bool {
	e.path = q.internPath(path)
	q.shadingPoint = append(q.shadingPoint, e)
	return q.shouldFlush()
}

// PushFeedback appends a diagnostic entry.
func (q *Queue) PushFeedback(e FeedbackEntry) bool {
	q.feedback = append(q.feedback, e)
	return q.shouldFlush()
}

// PushCustom appends an entry for a registered custom channel.
func (q *Queue) PushCustom(id uint32, e CustomEntry) bool {
	q.custom[id] = append(q.custom[id], e)
	return q.shouldFlush()
}

func (q *Queue) shouldFlush() bool {
	if len(q.spectral) >= q.triggerThreshold || len(q.shadingPoint) >= q.triggerThreshold || len(q.feedback) >= q.triggerThreshold {
		return true
	}
	for _, c := range q.custom {
		if len(c) >= q.triggerThreshold {
			return true
		}
	}
	return false
}

// SpectralCallback is fired after each CommitAndFlush, e.g. to drive a
// progressive preview (spec.md §4.3.1 step 2 "Fire registered spectral
// callbacks").
type SpectralCallback func(dev *LocalOutputDevice)

// FeedbackCallback is fired once per committed FeedbackEntry, e.g. to
// surface a live diagnostic counter (spec.md §6 register_feedback_callback).
type FeedbackCallback func(e FeedbackEntry)

// CommitAndFlush implements spec.md §4.3.1's three steps: commit every
// sub-queue into dev under no lock (the queue and device are owned by
// the same single worker), fire callbacks, then reset.
func (q *Queue) CommitAndFlush(dev *LocalOutputDevice, spectralCB []SpectralCallback, feedbackCB []FeedbackCallback) {
	for _, e := range q.spectral {
		dev.CommitSpectral(e, q.pathAt(e.path))
	}
	for _, e := range q.shadingPoint {
		dev.CommitShadingPoint(e)
	}
	for _, e := range q.feedback {
		dev.CommitFeedback(e)
		for _, cb := range feedbackCB {
			cb(e)
		}
	}
	for id, entries := range q.custom {
		for _, e := range entries {
			dev.CommitCustom(id, e)
		}
	}

	for _, cb := range spectralCB {
		cb(dev)
	}

	q.spectral = q.spectral[:0]
	q.shadingPoint = q.shadingPoint[:0]
	q.feedback = q.feedback[:0]
	for id := range q.custom {
		q.custom[id] = q.custom[id][:0]
	}
	q.arena = q.arena[:0]
}

// validSpectral reports whether every lane of wavelengths and weight is
// finite and every weight lane is non-negative (spec.md §4.3.2 step 1). NaN/Inf in either array is a BadRay/
// BadContribution per spec.md §7.
func validSpectral(wavelengths, weight [spectral.N]float64) (bits FeedbackBit, ok bool) {
	for _, v := range wavelengths {
		if math.IsNaN(v) {
			bits |= FeedbackNaN
		} else if math.IsInf(v, 0) {
			bits |= FeedbackInf
		}
	}
	for _, v := range weight {
		if math.IsNaN(v) {
			bits |= FeedbackNaN
		} else if math.IsInf(v, 0) {
			bits |= FeedbackInf
		} else if v < 0 {
			bits |= FeedbackNegative
		}
	}
	return bits, bits == 0
}
