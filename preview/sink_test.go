package preview

import (
	"testing"

	"github.com/pearray/core/internal/filter"
	"github.com/pearray/core/output"
	"github.com/pearray/core/spectral"
)

func TestOnFrameWritesOpaqueWhitePixel(t *testing.T) {
	sink, target := NewPixmapSink(4, 4, 1.0)

	reg := output.NewRegistry()
	dev := output.NewLocalOutputDevice(1, 1, 2, 2, filter.New(filter.Block, 0), reg, spectral.SRGB)

	var wl, wt [spectral.N]float64
	for i := range wl {
		wl[i] = 500 + float64(i)*50
		wt[i] = 4 // large weight so the tone-mapped pixel saturates to 255
	}
	dev.CommitSpectral(output.SpectralEntry{
		Position:    [2]float64{2, 2},
		Wavelengths: wl,
		Weight:      wt,
		BlendWeight: 1,
	}, nil)

	sink.OnFrame(dev)

	stride := target.Stride()
	off := 2*stride + 2*4
	px := target.Pixels()
	if px[off+3] != 0xFF {
		t.Fatalf("alpha = %#x, want opaque", px[off+3])
	}
	if px[off] == 0 && px[off+1] == 0 && px[off+2] == 0 {
		t.Fatal("expected a non-black pixel at the committed position")
	}
}

func TestOnFrameSkipsOutOfBoundsPixels(t *testing.T) {
	sink, target := NewPixmapSink(2, 2, 1.0)
	reg := output.NewRegistry()
	// Tile origin far outside the 2x2 target: every pixel should be
	// clipped, leaving the target untouched.
	dev := output.NewLocalOutputDevice(100, 100, 2, 2, filter.New(filter.Block, 0), reg, spectral.SRGB)

	var wl, wt [spectral.N]float64
	for i := range wl {
		wl[i] = 550
		wt[i] = 1
	}
	dev.CommitSpectral(output.SpectralEntry{Position: [2]float64{101, 101}, Wavelengths: wl, Weight: wt, BlendWeight: 1}, nil)

	sink.OnFrame(dev)

	for _, b := range target.Pixels() {
		if b != 0 {
			t.Fatal("expected the target to remain untouched for an out-of-range tile")
		}
	}
}
