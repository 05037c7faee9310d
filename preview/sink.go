// Package preview implements a progressive display sink driven by
// RenderContext.RegisterSpectralCallback (spec.md §6, §4.3.1's
// "progressive preview" example): every time a worker flushes its local
// output queue, the sink tone-maps the affected tile region into a
// CPU-backed RenderTarget a host can blit to screen, or (once a host
// supplies a live GPU device) upload to a texture.
//
// Grounded on gogpu-gg/render/{target,device}.go's RenderTarget/
// PixmapTarget/DeviceHandle shapes (that package was dropped from this
// tree wholesale along with the rest of the 2D vector-graphics renderer
// it served — see DESIGN.md's "Deleted/unwired teacher modules" — so the
// shape is reproduced here rather than imported, adapted to a
// path-tracer's spectral Frame instead of a rasterizer's draw calls).
package preview

import (
	"image"
	"math"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/pearray/core/output"
)

// Target is where a Sink writes tone-mapped pixels (gogpu-gg/render.go's
// RenderTarget interface, narrowed to the CPU-access methods a preview
// sink actually needs).
type Target interface {
	Width() int
	Height() int
	Format() gputypes.TextureFormat
	// Pixels returns direct RGBA8 access, or nil for a GPU-only target.
	Pixels() []byte
	Stride() int
}

// PixmapTarget is a CPU-backed *image.RGBA target, the common case for a
// host with no GPU surface at all (gogpu-gg/render.PixmapTarget).
type PixmapTarget struct{ img *image.RGBA }

// NewPixmapTarget allocates a zeroed RGBA8 target of the given size.
func NewPixmapTarget(width, height int) *PixmapTarget {
	return &PixmapTarget{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

func (t *PixmapTarget) Width() int                     { return t.img.Bounds().Dx() }
func (t *PixmapTarget) Height() int                    { return t.img.Bounds().Dy() }
func (t *PixmapTarget) Format() gputypes.TextureFormat { return gputypes.TextureFormatRGBA8Unorm }
func (t *PixmapTarget) Pixels() []byte                 { return t.img.Pix }
func (t *PixmapTarget) Stride() int                    { return t.img.Stride }

// Image returns the underlying *image.RGBA, sharing memory with the
// target, for a host to hand straight to an encoder or a software blit.
func (t *PixmapTarget) Image() *image.RGBA { return t.img }

var _ Target = (*PixmapTarget)(nil)

// DeviceHandle provides GPU device access from a host application,
// reused verbatim from gogpu-gg/render/device.go's DeviceHandle alias: a
// render core RECEIVES a device, it never creates one.
type DeviceHandle = gpucontext.DeviceProvider

// TextureSink is the GPU-backed counterpart of Sink's default
// PixmapTarget path: a host that already owns a DeviceHandle registers
// one through RegisterSpectralCallback the same way, but the actual
// texture write goes through the host's own upload path against
// handle.Device()/handle.Queue() once it supplies a live device — wiring
// that write is a host-side integration task this core has no device to
// exercise today (gogpu-gg/render.NewTextureTarget is itself an
// acknowledged Phase 3 stub for the identical reason).
type TextureSink struct {
	Handle DeviceHandle
	Width  int
	Height int
	Format gputypes.TextureFormat
}

// Sink accumulates tone-mapped RGB8 pixels from a sequence of
// LocalOutputDevice flushes into a shared Target, guarded by a mutex
// since flushes arrive concurrently from every render worker.
type Sink struct {
	mu       sync.Mutex
	target   Target
	exposure float64
}

// NewSink wraps target for progressive display. exposure is a linear
// scale applied before the display-referred gamma curve (1.0 leaves
// values unscaled).
func NewSink(target Target, exposure float64) *Sink {
	if exposure <= 0 {
		exposure = 1
	}
	return &Sink{target: target, exposure: exposure}
}

// NewPixmapSink is the common case: a CPU-backed *image.RGBA target sized
// to the render, suitable for a host to blit directly with no GPU backend
// at all.
func NewPixmapSink(width, height int, exposure float64) (*Sink, *PixmapTarget) {
	pm := NewPixmapTarget(width, height)
	return NewSink(pm, exposure), pm
}

// OnFrame is an output.SpectralCallback: call
// RenderContext.RegisterSpectralCallback(sink.OnFrame) to drive live
// preview updates. It reads dev's local frame and writes every pixel
// dev's tile origin covers into the target, tone-mapped with a simple
// Reinhard operator and sRGB gamma. spec.md treats tone mapping/display
// transforms as a host concern (see its Non-goals), so this is a
// minimal, replaceable default, not the final word on color management.
func (s *Sink) OnFrame(dev *output.LocalOutputDevice) {
	s.mu.Lock()
	defer s.mu.Unlock()

	frame := dev.Frame()
	r := dev.Filter().Radius()
	pixels := s.target.Pixels()
	if pixels == nil {
		return // GPU-only target: a host drives its own upload path instead.
	}
	stride := s.target.Stride()
	tw, th := s.target.Width(), s.target.Height()

	for ly := 0; ly < frame.Height; ly++ {
		gy := dev.OriginY() + ly - r
		if gy < 0 || gy >= th {
			continue
		}
		for lx := 0; lx < frame.Width; lx++ {
			gx := dev.OriginX() + lx - r
			if gx < 0 || gx >= tw {
				continue
			}
			li := ly*frame.Width + lx
			c := frame.Output[li]
			off := gy*stride + gx*4
			pixels[off+0] = toSRGB8(c.X * s.exposure)
			pixels[off+1] = toSRGB8(c.Y * s.exposure)
			pixels[off+2] = toSRGB8(c.Z * s.exposure)
			pixels[off+3] = 0xFF
		}
	}
}

// toSRGB8 applies a Reinhard tone map (v/(1+v)) followed by the sRGB
// transfer function and quantizes to 8 bits.
func toSRGB8(v float64) uint8 {
	if v < 0 {
		v = 0
	}
	v = v / (1 + v)
	if v <= 0.0031308 {
		v *= 12.92
	} else {
		v = 1.055*math.Pow(v, 1/2.4) - 0.055
	}
	v *= 255
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// Format reports the pixel format of the wrapped target, surfaced so a
// host can assert it matches what its display surface expects.
func (s *Sink) Format() gputypes.TextureFormat {
	return s.target.Format()
}
