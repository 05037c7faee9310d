package ray

// Stream is a structure-of-arrays ray batch with a fixed capacity set at
// construction (spec.md §3 RayStream). Write position and read position
// are independent so that a full round can fill, swap and re-drain a
// stream in O(1) without reallocating, mirroring the flat-slice,
// index-math storage convention gogpu-gg/internal/parallel uses for its
// tile grid.
type Stream struct {
	capacity int
	writePos int

	origin      [][3]float64
	direction   [][3]float64
	minT        []float64
	maxT        []float64
	depth       []int
	pixelIdx    []uint32
	groupID     []uint32
	flags       []Flags
	wavelengths [][SpectralBlobSize]float64
	importance  [][SpectralBlobSize]float64
	time        []float64
}

// NewStream allocates a stream with the given fixed capacity. Capacity
// must bound the maximum number of rays ever written into the stream in a
// single round — spec.md §4.1 requires streams be sized to
// max_parallel_rays so that a full write stream on enqueue is fatal, not
// silently truncated.
func NewStream(capacity int) *Stream {
	return &Stream{
		capacity:    capacity,
		origin:      make([][3]float64, capacity),
		direction:   make([][3]float64, capacity),
		minT:        make([]float64, capacity),
		maxT:        make([]float64, capacity),
		depth:       make([]int, capacity),
		pixelIdx:    make([]uint32, capacity),
		groupID:     make([]uint32, capacity),
		flags:       make([]Flags, capacity),
		wavelengths: make([][SpectralBlobSize]float64, capacity),
		importance:  make([][SpectralBlobSize]float64, capacity),
		time:        make([]float64, capacity),
	}
}

// Capacity returns the fixed capacity of the stream.
func (s *Stream) Capacity() int { return s.capacity }

// Len returns the number of rays currently written.
func (s *Stream) Len() int { return s.writePos }

// Full reports whether the stream has no room for another ray.
func (s *Stream) Full() bool { return s.writePos >= s.capacity }

// Reset clears the write position without deallocating backing storage.
// O(1) per spec.md §3.
func (s *Stream) Reset() { s.writePos = 0 }

// Insert appends r to the stream, normalizing its direction in place so
// that the post-insertion invariant ‖direction‖ ∈ [1-1e-5, 1+1e-5] always
// holds (spec.md §8 invariant 1). Returns false if the stream is full;
// the caller (the stream pipeline) treats that as StreamFull, which is
// fatal to the iteration per spec.md §7.
func (s *Stream) Insert(r Ray) bool {
	if s.Full() {
		return false
	}
	if !r.Valid() {
		r.Flags |= Invalid
	} else {
		r.normalize()
	}
	i := s.writePos
	s.origin[i] = r.Origin
	s.direction[i] = r.Direction
	s.minT[i] = r.MinT
	s.maxT[i] = r.MaxT
	s.depth[i] = r.Depth
	s.pixelIdx[i] = r.PixelIdx
	s.groupID[i] = r.GroupID
	s.flags[i] = r.Flags
	s.wavelengths[i] = r.Wavelengths
	s.importance[i] = r.Importance
	s.time[i] = r.Time
	s.writePos++
	return true
}

// At reconstructs the ray at index i as an array-of-structs value.
func (s *Stream) At(i int) Ray {
	return Ray{
		Origin:      s.origin[i],
		Direction:   s.direction[i],
		MinT:        s.minT[i],
		MaxT:        s.maxT[i],
		Depth:       s.depth[i],
		PixelIdx:    s.pixelIdx[i],
		GroupID:     s.groupID[i],
		Flags:       s.flags[i],
		Wavelengths: s.wavelengths[i],
		Importance:  s.importance[i],
		Time:        s.time[i],
	}
}

// Flags returns the flags column for index i directly, avoiding a full
// At() reconstruction for the common "is this ray valid" check done by
// bulk operations (trace, sort).
func (s *Stream) FlagsAt(i int) Flags { return s.flags[i] }

// SetFlagsAt ORs extra into the flags column at i. Used by traversal to
// mark misses and by shading to mark BadRay recoveries without rebuilding
// the whole ray.
func (s *Stream) SetFlagsAt(i int, extra Flags) { s.flags[i] |= extra }

// Span returns a read-only view over [offset, offset+size) of the stream.
// coherent is a hint to the tracer that the rays in the span were
// generated in a spatially coherent order (e.g. Morton-ordered camera
// rays) and may benefit from coherent traversal.
func (s *Stream) Span(offset, size int, coherent bool) Span {
	return Span{stream: s, offset: offset, size: size, coherent: coherent}
}

// Full span over everything written so far.
func (s *Stream) FullSpan(coherent bool) Span {
	return s.Span(0, s.writePos, coherent)
}

// Span is a read-only contiguous view into a Stream (spec.md §3 RaySpan).
type Span struct {
	stream   *Stream
	offset   int
	size     int
	coherent bool
}

// Len returns the number of rays in the span.
func (sp Span) Len() int { return sp.size }

// Coherent reports the coherence hint for traversal.
func (sp Span) Coherent() bool { return sp.coherent }

// At returns the ray at local index i within the span.
func (sp Span) At(i int) Ray { return sp.stream.At(sp.offset + i) }

// StreamIndex translates a local span index to the absolute index in the
// backing stream, which HitEntry.RayIndex needs to refer back into the
// stream that produced it.
func (sp Span) StreamIndex(i int) int { return sp.offset + i }
