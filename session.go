package pearray

import (
	"runtime"
	"sync"

	"github.com/pearray/core/hit"
	"github.com/pearray/core/internal/pipeline"
	"github.com/pearray/core/internal/tile"
	"github.com/pearray/core/output"
)

// Integrator is the per-shading-group shading callback a caller supplies
// to Start. It inspects a group of hits sharing one entity/material,
// pushes radiance/AOV contributions into queue, and may enqueue bounce/
// shadow/light rays through enq for the next stream round (spec.md §4.1
// op 2e, §4.3.1). Returning a non-nil error aborts the tile's current
// round — ErrStreamFull is the only error spec.md treats as fatal to the
// whole iteration; anything else is logged and the round is abandoned
// for that tile.
type Integrator func(g hit.ShadingGroup, queue *output.Queue, enq *pipeline.Enqueuer) error

// session owns the worker goroutines of one Start call. Grounded on
// gogpu-gg/internal/parallel.WorkerPool's worker()/done channel/
// sync.WaitGroup shape, adapted from a generic work-stealing pool to
// workers that each pull whole render tiles from the tile scheduler
// instead of arbitrary closures.
type session struct {
	ctx       *RenderContext
	scheduler *tile.Scheduler
	wg        sync.WaitGroup

	mu       sync.Mutex
	fault    error
	faultSet bool
}

func newSession(ctx *RenderContext, scheduler *tile.Scheduler) *session {
	return &session{ctx: ctx, scheduler: scheduler}
}

func (s *session) start(threads int, integrator Integrator) {
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	s.wg.Add(threads)
	for i := 0; i < threads; i++ {
		go s.worker(integrator)
	}
}

func (s *session) wait() { s.wg.Wait() }

// recordFault latches the first fault seen across every worker, mirroring
// spec.md §7's "fatal errors propagate to RenderContext::stop(hard=false)":
// one worker's StreamFull stops the whole session, not just that worker.
func (s *session) recordFault(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.faultSet {
		s.fault = err
		s.faultSet = true
	}
}

func (s *session) Fault() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fault
}

// worker is one render thread's main loop: acquire a tile, run exactly
// one iteration's worth of samples through a dedicated stream pipeline,
// flush the accumulated contributions into a per-tile local output
// device, merge that device into the global frame, and release the tile
// back to the scheduler — then loop back to acquire the next tile, which
// may be the very same tile handed back Idle by the scheduler's
// iteration barrier for another pass (spec.md §5: "one stream pipeline +
// one local output queue + one local output device per worker, nothing
// shared"; original_source/src/core/renderer/RenderThread.cpp's
// getNextTile/commitAndFlush/mergeBucket/release loop runs once per
// iteration, not once per tile's entire lifetime). Pipeline.Reset is
// called fresh on every acquisition, so each pass sees only the current
// iteration's one-sample-per-pixel budget (see pipeline.Pipeline.Reset).
func (s *session) worker(integrator Integrator) {
	defer s.wg.Done()

	ctx := s.ctx
	p := pipeline.New(ctx.scene, ctx.camera, ctx.opts.sampler, ctx.opts.waveRange, ctx.width, ctx.opts.streamCapacity)
	queue := output.NewQueue(ctx.queueTrigger)

	for {
		tl, ok := s.scheduler.NextTile()
		if !ok {
			return
		}

		vs := tl.ViewSize()
		localDev := output.NewLocalOutputDevice(tl.Start.X, tl.Start.Y, vs.X, vs.Y, ctx.filterCache, ctx.reg, ctx.opts.primaries)

		p.Reset(tl)
		wrapped := func(g hit.ShadingGroup, enq *pipeline.Enqueuer) error {
			return integrator(g, queue, enq)
		}

		// One iteration may still take several RunRound calls: a camera
		// ray's bounce/shadow/light children enqueued this round are only
		// traced on the next one, so the loop continues until this
		// iteration's one-sample-per-pixel budget is spent and every
		// carried-over ray has settled, not until the tile's full
		// multi-iteration budget is met.
		var produced uint64
		var roundErr error
		for !p.IsFinished() {
			n, err := p.RunRound(wrapped)
			produced += n
			if err != nil {
				roundErr = err
				break
			}
		}

		queue.CommitAndFlush(localDev, ctx.spectralCallbacks, ctx.feedbackCallbacks)
		ctx.global.Merge(localDev)
		s.scheduler.Release(tl, produced)

		if roundErr != nil {
			Logger().Error("pearray: tile round aborted", "error", roundErr)
			s.recordFault(roundErr)
			s.scheduler.RequestStop(false)
			return
		}
	}
}
