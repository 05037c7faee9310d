package output

import (
	"testing"

	"github.com/pearray/core/internal/filter"
	"github.com/pearray/core/spectral"
)

func uniformSpectralEntry(px, py float64, blend float64) SpectralEntry {
	var wl, wt [spectral.N]float64
	for i := range wl {
		wl[i] = 500 + float64(i)
		wt[i] = 1
	}
	return SpectralEntry{Position: [2]float64{px, py}, Wavelengths: wl, Weight: wt, BlendWeight: blend}
}

func TestCommitSpectralRadiusZeroHitsSinglePixel(t *testing.T) {
	dev := NewLocalOutputDevice(10, 10, 4, 4, filter.New(filter.Block, 0), nil, spectral.SRGB)
	dev.CommitSpectral(uniformSpectralEntry(12, 11, 1), nil)

	lx, ly := dev.localXY(12, 11)
	idx := dev.frame.index(lx, ly)
	if dev.frame.Output[idx] == (Vec3{}) {
		t.Fatal("expected a non-zero contribution at the hit pixel")
	}
	for y := 0; y < dev.frame.Height; y++ {
		for x := 0; x < dev.frame.Width; x++ {
			if x == lx && y == ly {
				continue
			}
			if v := dev.frame.Output[dev.frame.index(x, y)]; v != (Vec3{}) {
				t.Fatalf("radius-0 filter leaked into neighboring pixel (%d,%d): %v", x, y, v)
			}
		}
	}
}

func TestCommitSpectralSplatsAcrossFilterSupport(t *testing.T) {
	dev := NewLocalOutputDevice(0, 0, 4, 4, filter.New(filter.Triangle, 1), nil, spectral.SRGB)
	dev.CommitSpectral(uniformSpectralEntry(2, 2, 1), nil)

	lx, ly := dev.localXY(2, 2)
	nonZero := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dev.frame.Output[dev.frame.index(lx+dx, ly+dy)] != (Vec3{}) {
				nonZero++
			}
		}
	}
	if nonZero <= 1 {
		t.Fatalf("radius-1 triangle filter should splat to more than one tap, got %d", nonZero)
	}
}

func TestCommitSpectralWithNaNSetsFeedbackInsteadOfOutput(t *testing.T) {
	dev := NewLocalOutputDevice(0, 0, 4, 4, filter.New(filter.Block, 0), nil, spectral.SRGB)
	e := uniformSpectralEntry(1, 1, 1)
	e.Weight[0] = nan()
	dev.CommitSpectral(e, nil)

	lx, ly := dev.localXY(1, 1)
	idx := dev.frame.index(lx, ly)
	if dev.frame.Output[idx] != (Vec3{}) {
		t.Fatal("an invalid spectral entry must not contribute to Output")
	}
	if dev.frame.Feedback[idx]&uint32(FeedbackNaN) == 0 {
		t.Fatal("an invalid spectral entry must set FeedbackNaN")
	}
}

func nan() float64 {
	var zero float64
	return zero / zero
}

func TestCommitShadingPointOnlyTouchesEnabledChannels(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Enable1DChannel(Depth); err != nil {
		t.Fatalf("Enable1DChannel: %v", err)
	}
	dev := NewLocalOutputDevice(0, 0, 4, 4, filter.New(filter.Block, 0), reg, spectral.SRGB)

	var e ShadingPointEntry
	e.PixelX, e.PixelY = 1, 1
	e.SetOneD(Depth, 2)
	e.SetOneD(PixelWeight, 99) // not enabled; must be silently dropped
	dev.CommitShadingPoint(e)

	idx := dev.frame.index(1, 1)
	if dev.frame.SampleCount[idx] != 1 {
		t.Fatalf("SampleCount = %v, want 1", dev.frame.SampleCount[idx])
	}
	if dev.frame.oneD[Depth][idx] != 2 {
		t.Fatalf("Depth = %v, want 2", dev.frame.oneD[Depth][idx])
	}
	if dev.frame.oneD[PixelWeight] != nil {
		t.Fatal("PixelWeight was never enabled and should have no backing buffer")
	}

	// A second commit at the same pixel should accumulate, not overwrite.
	dev.CommitShadingPoint(e)
	if dev.frame.oneD[Depth][idx] != 4 {
		t.Fatalf("Depth after second commit = %v, want 4 (accumulated)", dev.frame.oneD[Depth][idx])
	}
	if dev.frame.SampleCount[idx] != 2 {
		t.Fatalf("SampleCount after second commit = %v, want 2", dev.frame.SampleCount[idx])
	}
}

func TestCommitCustomRoutesByChannelID(t *testing.T) {
	reg := NewRegistry()
	id, err := reg.RegisterCustomChannel(Kind1D, "coverage")
	if err != nil {
		t.Fatalf("RegisterCustomChannel: %v", err)
	}
	dev := NewLocalOutputDevice(0, 0, 4, 4, filter.New(filter.Block, 0), reg, spectral.SRGB)

	dev.CommitCustom(id, CustomEntry{PixelX: 1, PixelY: 1, Values: [3]float64{0.5}})
	dev.CommitCustom(id, CustomEntry{PixelX: 1, PixelY: 1, Values: [3]float64{0.25}})

	idx := dev.frame.index(1, 1)
	if got := dev.frame.custom[id][idx]; got != 0.75 {
		t.Fatalf("custom channel value = %v, want 0.75", got)
	}
}
