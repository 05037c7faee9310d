package ray

// Pair owns the two ray streams a stream pipeline round swaps between.
// Design Note in spec.md §9 is explicit: the read stream must never be
// mutated during a round, all enqueues land in the write stream, and
// Swap/Reset must be O(1) — this is the only mechanism that keeps the
// scene's view of a batch consistent for the duration of a trace call.
type Pair struct {
	write *Stream
	read  *Stream
}

// NewPair allocates both streams of a pair with the given fixed capacity.
func NewPair(capacity int) *Pair {
	return &Pair{
		write: NewStream(capacity),
		read:  NewStream(capacity),
	}
}

// Write returns the stream currently open for enqueues.
func (p *Pair) Write() *Stream { return p.write }

// Read returns the stream currently open for traversal/shading.
func (p *Pair) Read() *Stream { return p.read }

// Swap exchanges write and read in O(1), then clears the new write
// stream so the round that follows starts from an empty batch.
func (p *Pair) Swap() {
	p.write, p.read = p.read, p.write
	p.write.Reset()
}

// Reset clears both streams, used when a pipeline is rebound to a new
// tile (StreamPipeline.reset in spec.md §4.1).
func (p *Pair) Reset() {
	p.write.Reset()
	p.read.Reset()
}
