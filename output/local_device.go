package output

import (
	"math"

	"github.com/pearray/core/internal/filter"
	"github.com/pearray/core/lpe"
	"github.com/pearray/core/spectral"
)

// LocalOutputDevice is the per-worker, per-tile accumulation target of
// spec.md §4.3.2: an extended Frame sized tile_view + 2*filter_radius so
// that splats near a tile's border do not need cross-tile synchronization.
// Single-threaded: only the worker owning the bound tile ever touches it.
// Grounded on original_source/src/core/output/LocalOutputDevice.h and
// src/loader/output/LocalFrameOutputDevice.cpp.
type LocalOutputDevice struct {
	frame  *Frame
	filter *filter.Cache

	originX, originY int // the tile's top-left pixel in global image space
	primaries        spectral.Primaries

	customStride map[uint32]int
}

// NewLocalOutputDevice allocates a local device for a tile view of size
// (viewW, viewH) whose top-left corner sits at (originX, originY) in the
// global image, using filterCache for splat weights and reg to size the
// same opt-in channel set as the global frame.
func NewLocalOutputDevice(originX, originY, viewW, viewH int, filterCache *filter.Cache, reg *Registry, primaries spectral.Primaries) *LocalOutputDevice {
	r := filterCache.Radius()
	d := &LocalOutputDevice{
		frame:        NewFrame(viewW+2*r, viewH+2*r, reg),
		filter:       filterCache,
		originX:      originX,
		originY:      originY,
		primaries:    primaries,
		customStride: make(map[uint32]int),
	}
	if reg != nil {
		for _, ch := range reg.CustomChannels() {
			d.customStride[ch.ID] = channelStride(ch.Kind)
		}
	}
	return d
}

// Frame exposes the backing extended frame, e.g. for a preview sink to
// read the latest local accumulation (spec.md §4.3.1 "Fire registered
// spectral callbacks").
func (d *LocalOutputDevice) Frame() *Frame { return d.frame }

// OriginX and OriginY report the device's placement in global image space.
func (d *LocalOutputDevice) OriginX() int { return d.originX }
func (d *LocalOutputDevice) OriginY() int { return d.originY }

// Filter exposes the reconstruction filter cache the device splats
// through, e.g. so a preview sink can recover the extended frame's
// border radius without duplicating it.
func (d *LocalOutputDevice) Filter() *filter.Cache { return d.filter }

// Reset zeroes the backing frame, called by GlobalOutputDevice.Merge once
// this device's contents have been folded into the global frame (spec.md
// §4.3.3 "After merge the local device is reset to zero").
func (d *LocalOutputDevice) Reset() { d.frame.Reset() }

func (d *LocalOutputDevice) localXY(globalX, globalY int) (int, int) {
	r := d.filter.Radius()
	return globalX - d.originX + r, globalY - d.originY + r
}

// CommitSpectral implements spec.md §4.3.2's spectral-entry commit: a
// failed validity check routes the sample to a Feedback bit instead of
// Output; otherwise the contribution is mapped to RGB and splatted
// through the reconstruction filter, and mirrored into any registered
// spectral LPE channel whose expression matches path.
func (d *LocalOutputDevice) CommitSpectral(e SpectralEntry, path lpe.Path) {
	basePX := int(math.Round(e.Position[0]))
	basePY := int(math.Round(e.Position[1]))

	if bits, ok := validSpectral(e.Wavelengths, e.Weight); !ok {
		d.markFeedback(basePX, basePY, bits)
		return
	}

	rgb := spectral.ContributionToRGB(e.Wavelengths, e.Weight, e.Mono, d.primaries)
	contrib := Vec3{X: rgb.R, Y: rgb.G, Z: rgb.B}
	d.splat(basePX, basePY, e.BlendWeight, contrib, d.frame.Output)

	if d.frame.reg == nil {
		return
	}
	for _, ch := range d.frame.reg.LPEChannels() {
		if ch.Kind != KindSpectral || !ch.Expr.Match(path) {
			continue
		}
		if buf := d.frame.lpe[ch.ID]; buf != nil {
			d.splat(basePX, basePY, e.BlendWeight, contrib, buf)
		}
	}
}

// splat distributes contrib*blend over the filter's support centered on
// the nearest pixel to (globalX, globalY), clamped to the local frame's
// extended bounds (spec.md §4.3.2 "splat via filter, weighted by
// blend_weight"; §4.4's radius-0 fast path falls out naturally since a
// radius-0 Cache's only tap has weight 1).
func (d *LocalOutputDevice) splat(globalX, globalY int, blend float64, contrib Vec3, buf []Vec3) {
	lx, ly := d.localXY(globalX, globalY)
	r := d.filter.Radius()
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			w := d.filter.Weight(dx, dy)
			if w == 0 {
				continue
			}
			tx, ty := lx+dx, ly+dy
			if !d.frame.inBounds(tx, ty) {
				continue
			}
			idx := d.frame.index(tx, ty)
			buf[idx] = buf[idx].add(Vec3{contrib.X * w * blend, contrib.Y * w * blend, contrib.Z * w * blend})
		}
	}
}

// CommitShadingPoint implements spec.md §4.3.2's shading-point entry:
// increment SampleCount/PixelContributionCount and blend-accumulate
// (sum, not overwrite) every enabled AOV the entry carries a value for.
// Unlike spectral entries these land on a single pixel, never filtered.
func (d *LocalOutputDevice) CommitShadingPoint(e ShadingPointEntry) {
	lx, ly := d.localXY(e.PixelX, e.PixelY)
	if !d.frame.inBounds(lx, ly) {
		return
	}
	idx := d.frame.index(lx, ly)
	d.frame.SampleCount[idx]++
	d.frame.PixelContributionCount[idx]++

	for tag := ThreeDTag(0); tag < threeDTagCount; tag++ {
		if e.ThreeDSet&(1<<uint(tag)) == 0 {
			continue
		}
		if buf := d.frame.threeD[tag]; buf != nil {
			buf[idx] = buf[idx].add(e.ThreeD[tag])
		}
	}
	for tag := OneDTag(0); tag < oneDTagCount; tag++ {
		if e.OneDSet&(1<<uint(tag)) == 0 {
			continue
		}
		if buf := d.frame.oneD[tag]; buf != nil {
			buf[idx] += e.OneD[tag]
		}
	}
}

// CommitFeedback implements spec.md §4.3.2's feedback entry: bitwise-OR
// the reported bits into the Feedback counter at the entry's pixel.
func (d *LocalOutputDevice) CommitFeedback(e FeedbackEntry) {
	d.markFeedback(e.PixelX, e.PixelY, e.Bits)
}

func (d *LocalOutputDevice) markFeedback(globalX, globalY int, bits FeedbackBit) {
	lx, ly := d.localXY(globalX, globalY)
	if !d.frame.inBounds(lx, ly) {
		return
	}
	idx := d.frame.index(lx, ly)
	d.frame.Feedback[idx] |= uint32(bits)
}

// CommitCustom implements spec.md §4.3.2's custom entry: route by
// channel id into the stride-sized slot reserved for it, summing rather
// than overwriting (consistent with the shading-point AOV accumulation).
func (d *LocalOutputDevice) CommitCustom(id uint32, e CustomEntry) {
	stride, ok := d.customStride[id]
	if !ok {
		return
	}
	lx, ly := d.localXY(e.PixelX, e.PixelY)
	if !d.frame.inBounds(lx, ly) {
		return
	}
	buf := d.frame.custom[id]
	base := d.frame.index(lx, ly) * stride
	for k := 0; k < stride; k++ {
		buf[base+k] += e.Values[k]
	}
}
