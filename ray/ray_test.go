package ray

import (
	"math"
	"testing"
)

func TestRayValidRejectsNonFinite(t *testing.T) {
	cases := []struct {
		name string
		r    Ray
		want bool
	}{
		{"zero direction", Ray{Direction: [3]float64{0, 0, 0}}, false},
		{"nan origin", Ray{Origin: [3]float64{math.NaN(), 0, 0}, Direction: [3]float64{0, 0, 1}}, false},
		{"inf direction", Ray{Direction: [3]float64{math.Inf(1), 0, 0}}, false},
		{"valid", Ray{Direction: [3]float64{0, 0, 2}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.r.Valid(); got != tc.want {
				t.Errorf("Valid() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestStreamInsertNormalizesDirection(t *testing.T) {
	s := NewStream(4)
	r := Ray{Direction: [3]float64{0, 0, 2}}
	if !s.Insert(r) {
		t.Fatal("Insert failed on non-full stream")
	}
	got := s.At(0)
	l := math.Sqrt(got.Direction[0]*got.Direction[0] + got.Direction[1]*got.Direction[1] + got.Direction[2]*got.Direction[2])
	if l < 1-1e-5 || l > 1+1e-5 {
		t.Errorf("direction length = %v, want ~1", l)
	}
}

func TestStreamInsertMarksInvalidRayWithoutFailing(t *testing.T) {
	s := NewStream(4)
	r := Ray{Direction: [3]float64{0, 0, 0}}
	if !s.Insert(r) {
		t.Fatal("Insert of invalid ray should still succeed (local recovery)")
	}
	if s.FlagsAt(0)&Invalid == 0 {
		t.Errorf("expected Invalid flag set on bad ray")
	}
}

func TestStreamFullRejectsInsert(t *testing.T) {
	s := NewStream(1)
	r := Ray{Direction: [3]float64{0, 0, 1}}
	if !s.Insert(r) {
		t.Fatal("first insert should succeed")
	}
	if s.Insert(r) {
		t.Fatal("second insert into full stream should fail")
	}
}

func TestStreamResetIsIdempotentAndO1(t *testing.T) {
	s := NewStream(4)
	s.Insert(Ray{Direction: [3]float64{0, 0, 1}})
	s.Reset()
	s.Reset()
	if s.Len() != 0 {
		t.Errorf("Len() = %d after Reset, want 0", s.Len())
	}
	if s.Full() {
		t.Errorf("Full() = true after Reset")
	}
}

func TestPairSwapClearsNewWriteStream(t *testing.T) {
	p := NewPair(4)
	p.Write().Insert(Ray{Direction: [3]float64{0, 0, 1}})
	p.Swap()
	if p.Read().Len() != 1 {
		t.Fatalf("Read().Len() = %d, want 1 after swap", p.Read().Len())
	}
	if p.Write().Len() != 0 {
		t.Fatalf("Write().Len() = %d, want 0 after swap", p.Write().Len())
	}
}

func TestSpanStreamIndex(t *testing.T) {
	s := NewStream(8)
	for i := 0; i < 4; i++ {
		s.Insert(Ray{Direction: [3]float64{0, 0, 1}, PixelIdx: uint32(i)})
	}
	sp := s.Span(1, 2, true)
	if sp.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", sp.Len())
	}
	if sp.StreamIndex(0) != 1 || sp.StreamIndex(1) != 2 {
		t.Fatalf("StreamIndex mismatch")
	}
	if got := sp.At(0).PixelIdx; got != 1 {
		t.Errorf("At(0).PixelIdx = %d, want 1", got)
	}
}
