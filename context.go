package pearray

import (
	"fmt"
	"io"
	"runtime"
	"sync"

	"github.com/pearray/core/internal/filter"
	"github.com/pearray/core/internal/tile"
	"github.com/pearray/core/output"
	"github.com/pearray/core/scene"
)

// RenderContext is the top-level render session: it owns the tile
// scheduler, the global output device, and the registration API a host
// configures before calling Start (spec.md §6). Grounded on gg.Context's
// construction/lifecycle shape (gogpu-gg/context.go): a single struct
// built by NewRenderContext plus functional Options, implementing
// io.Closer for resource cleanup, with a sticky "closed"/"started" flag
// guarding against misuse.
type RenderContext struct {
	mu sync.Mutex

	scene  scene.Scene
	camera scene.Camera
	width  int
	height int

	opts contextOptions
	reg  *output.Registry

	filterCache *filter.Cache
	global      *output.GlobalOutputDevice
	queueTrigger int

	spectralCallbacks []output.SpectralCallback
	feedbackCallbacks []output.FeedbackCallback

	scheduler *tile.Scheduler
	session   *session

	started bool
	closed  bool
}

var _ io.Closer = (*RenderContext)(nil)

// NewRenderContext creates a render session of the given image dimensions
// against sc/camera. Options configure tiling, sampling, filtering and
// concurrency before Start is called (spec.md §6's registration API is
// only valid up to that point).
func NewRenderContext(sc scene.Scene, camera scene.Camera, width, height int, opts ...Option) *RenderContext {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &RenderContext{
		scene:        sc,
		camera:       camera,
		width:        width,
		height:       height,
		opts:         o,
		reg:          output.NewRegistry(),
		queueTrigger: 256,
	}
}

func (c *RenderContext) checkMutable(op string) error {
	if c.started {
		return newFault(FaultChannelNotRegistered, op, fmt.Errorf("registration is only valid before Start"))
	}
	return nil
}

// Enable3DChannel enables a 3D AOV (spec.md §6 enable_3d_channel).
func (c *RenderContext) Enable3DChannel(tag output.ThreeDTag) error {
	if err := c.checkMutable("Enable3DChannel"); err != nil {
		return err
	}
	return c.reg.Enable3DChannel(tag)
}

// Enable1DChannel enables a 1D AOV (spec.md §6 enable_1d_channel). The
// always-present counter AOVs (SampleCount, PixelContributionCount,
// Feedback) need no enable call, per output.Registry's design.
func (c *RenderContext) Enable1DChannel(tag output.OneDTag) error {
	if err := c.checkMutable("Enable1DChannel"); err != nil {
		return err
	}
	return c.reg.Enable1DChannel(tag)
}

// RegisterCustomChannel registers a named channel (spec.md §6
// register_custom_channel).
func (c *RenderContext) RegisterCustomChannel(kind output.ChannelKind, name string) (uint32, error) {
	if err := c.checkMutable("RegisterCustomChannel"); err != nil {
		return 0, err
	}
	return c.reg.RegisterCustomChannel(kind, name)
}

// RegisterLPEChannel compiles expr and registers an LPE-gated channel
// (spec.md §6 register_lpe_channel).
func (c *RenderContext) RegisterLPEChannel(kind output.ChannelKind, tag int, expr string) (uint32, error) {
	if err := c.checkMutable("RegisterLPEChannel"); err != nil {
		return 0, err
	}
	return c.reg.RegisterLPEChannel(kind, tag, expr)
}

// RegisterSpectralCallback registers fn to run after every local-queue
// flush, e.g. to drive a progressive preview sink (spec.md §6
// register_spectral_callback).
func (c *RenderContext) RegisterSpectralCallback(fn output.SpectralCallback) error {
	if err := c.checkMutable("RegisterSpectralCallback"); err != nil {
		return err
	}
	c.spectralCallbacks = append(c.spectralCallbacks, fn)
	return nil
}

// RegisterFeedbackCallback registers fn to run once per committed
// Feedback entry (spec.md §6 register_feedback_callback).
func (c *RenderContext) RegisterFeedbackCallback(fn output.FeedbackCallback) error {
	if err := c.checkMutable("RegisterFeedbackCallback"); err != nil {
		return err
	}
	c.feedbackCallbacks = append(c.feedbackCallbacks, fn)
	return nil
}

// Start builds the tile map and launches the worker pool (spec.md §6
// "start(initial_tiles_x, initial_tiles_y, thread_hint)"). integrator is
// the shading callback every worker's stream pipeline dispatches each
// ShadingGroup to. threadHint <= 0 defaults to runtime.GOMAXPROCS(0).
func (c *RenderContext) Start(initialTilesX, initialTilesY, threadHint int, integrator Integrator) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return newFault(FaultNone, "Start", fmt.Errorf("already started"))
	}
	if c.closed {
		return newFault(FaultNone, "Start", fmt.Errorf("context is closed"))
	}

	c.reg.Lock()
	c.filterCache = filter.New(c.opts.filterKind, c.opts.filterRadius)
	c.global = output.NewGlobalOutputDevice(c.width, c.height, c.reg)

	threads := threadHint
	if threads <= 0 {
		threads = c.opts.threads
	}
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}

	tx, ty := initialTilesX, initialTilesY
	if tx <= 0 {
		tx = c.opts.tilesX
	}
	if ty <= 0 {
		ty = c.opts.tilesY
	}

	m := tile.NewGrid(tile.Point{X: c.width, Y: c.height}, tx, ty, c.opts.tileMode, c.opts.maxIterations, c.opts.globalSeed)
	c.scheduler = tile.NewScheduler(m, threads, c.opts.adaptive)
	c.session = newSession(c, c.scheduler)
	c.session.start(threads, integrator)

	c.started = true
	Logger().Info("pearray: render started", "width", c.width, "height", c.height, "threads", threads)
	return nil
}

// Stop requests cancellation (spec.md §6 "stop(hard)"). In both modes the
// scheduler hands out no further tiles, and a worker already rendering a
// tile finishes that tile's rounds and merges it before exiting; hard=true
// does not abort or discard in-flight rounds. Stop returns without
// waiting; Wait blocks until every worker has exited.
func (c *RenderContext) Stop(hard bool) {
	c.mu.Lock()
	s := c.scheduler
	c.mu.Unlock()
	if s != nil {
		s.RequestStop(hard)
	}
}

// Wait blocks until every worker has exited, either because every tile
// met its sample budget or because Stop was called. Returns the first
// fault a worker recorded, if any (spec.md §7's StreamFull propagation).
func (c *RenderContext) Wait() error {
	c.mu.Lock()
	sess := c.session
	c.mu.Unlock()
	if sess == nil {
		return nil
	}
	sess.wait()
	return sess.Fault()
}

// IsFinished reports spec.md §6's is_finished(): every tile has met its
// sample budget.
func (c *RenderContext) IsFinished() bool {
	c.mu.Lock()
	s := c.scheduler
	c.mu.Unlock()
	if s == nil {
		return false
	}
	return s.Map.AllDone()
}

// Status reports the current RenderStatus (spec.md §6 status()).
func (c *RenderContext) Status() RenderStatus {
	c.mu.Lock()
	s := c.scheduler
	c.mu.Unlock()
	if s == nil {
		return RenderStatus{}
	}
	return statusFromScheduler(s)
}

// Output returns the global output device a host reads AOV buffers from
// (spec.md §6 "output() -> &GlobalOutputDevice").
func (c *RenderContext) Output() *output.GlobalOutputDevice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.global
}

// Close requests a hard stop and waits for every worker to exit,
// releasing the session (grounded on gg.Context.Close's idempotent
// flush-then-release shape).
func (c *RenderContext) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	s := c.scheduler
	sess := c.session
	c.mu.Unlock()

	if s != nil {
		s.RequestStop(true)
	}
	if sess != nil {
		sess.wait()
	}
	return nil
}
