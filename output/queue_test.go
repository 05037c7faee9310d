package output

import (
	"testing"

	"github.com/pearray/core/internal/filter"
	"github.com/pearray/core/lpe"
	"github.com/pearray/core/spectral"
)

func newTestDevice(reg *Registry) *LocalOutputDevice {
	return NewLocalOutputDevice(0, 0, 4, 4, filter.New(filter.Block, 0), reg, spectral.SRGB)
}

func TestPushSpectralSignalsFlushAtThreshold(t *testing.T) {
	q := NewQueue(2)
	if q.PushSpectral(SpectralEntry{}, nil) {
		t.Fatal("flush signaled before threshold reached")
	}
	if !q.PushSpectral(SpectralEntry{}, nil) {
		t.Fatal("flush not signaled once threshold reached")
	}
}

func TestCommitAndFlushAppliesEveryEntryThenResets(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Enable1DChannel(Depth); err != nil {
		t.Fatalf("Enable1DChannel: %v", err)
	}
	dev := newTestDevice(reg)
	q := NewQueue(1000)

	var wl, wt [spectral.N]float64
	for i := range wl {
		wl[i] = 500 + float64(i)
		wt[i] = 1
	}
	q.PushSpectral(SpectralEntry{Position: [2]float64{2, 2}, Wavelengths: wl, Weight: wt, BlendWeight: 1}, nil)

	var sp ShadingPointEntry
	sp.PixelX, sp.PixelY = 2, 2
	sp.SetOneD(Depth, 3.5)
	q.PushShadingPoint(sp, nil)

	fired := false
	q.CommitAndFlush(dev, []SpectralCallback{func(*LocalOutputDevice) { fired = true }}, nil)

	if !fired {
		t.Fatal("spectral callback was not fired by CommitAndFlush")
	}
	idx := dev.frame.index(2+dev.filter.Radius(), 2+dev.filter.Radius())
	if dev.frame.Output[idx] == (Vec3{}) {
		t.Fatal("spectral entry was not committed into the local frame")
	}
	if dev.frame.oneD[Depth][idx] != 3.5 {
		t.Fatalf("Depth = %v, want 3.5", dev.frame.oneD[Depth][idx])
	}
	if len(q.spectral) != 0 || len(q.shadingPoint) != 0 {
		t.Fatal("sub-queues were not reset after CommitAndFlush")
	}
}

func TestArenaRoundTripsLightPaths(t *testing.T) {
	q := NewQueue(1000)
	path := lpe.Path{lpe.Camera, lpe.Diffuse, lpe.Emission}
	ref := q.internPath(path)
	got := q.pathAt(ref)
	if len(got) != len(path) {
		t.Fatalf("path length = %d, want %d", len(got), len(path))
	}
	for i := range path {
		if got[i] != path[i] {
			t.Fatalf("path[%d] = %v, want %v", i, got[i], path[i])
		}
	}
}

func TestValidSpectralRejectsNaNInfNegative(t *testing.T) {
	var good [spectral.N]float64
	for i := range good {
		good[i] = 1
	}
	if _, ok := validSpectral(good, good); !ok {
		t.Fatal("all-finite, all-positive spectral lanes should be valid")
	}

	bad := good
	bad[0] = -1
	if bits, ok := validSpectral(good, bad); ok || bits&FeedbackNegative == 0 {
		t.Fatalf("negative weight lane should set FeedbackNegative, got ok=%v bits=%v", ok, bits)
	}
}
