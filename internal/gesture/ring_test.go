package gesture

import (
	"testing"

	"github.com/ayusman/chakra/internal/hand"
)

func TestRing_WriteWraps(t *testing.T) {
	r := NewRing(3)

	if r.Index() != -1 {
		t.Errorf("Index() = %d, want -1", r.Index())
	}

	for i, want := range []int{0, 1, 2, 0, 1} {
		got := r.Write(hand.Vec3{X: float64(i)})
		if got != want {
			t.Errorf("Write #%d index = %d, want %d", i, got, want)
		}
	}

	if !r.Full() {
		t.Error("expected ring to be full")
	}
	if r.Len() != 3 {
		t.Errorf("Len() = %d, want 3", r.Len())
	}
}

func TestRing_At(t *testing.T) {
	r := NewRing(4)
	for i := 0; i < 4; i++ {
		r.Write(hand.Vec3{X: float64(i)})
	}

	tests := []struct {
		index int
		want  float64
	}{
		{0, 0},
		{3, 3},
		{4, 0},
		{13, 1},
		{-1, 3},
		{-6, 2},
	}

	for _, tt := range tests {
		if got := r.At(tt.index).X; got != tt.want {
			t.Errorf("At(%d).X = %v, want %v", tt.index, got, tt.want)
		}
	}
}

func TestRing_SliceOldestFirst(t *testing.T) {
	r := NewRing(3)

	r.Write(hand.Vec3{X: 1})
	r.Write(hand.Vec3{X: 2})
	got := r.Slice()
	if len(got) != 2 || got[0].X != 1 || got[1].X != 2 {
		t.Errorf("Slice() before wrap = %v", got)
	}

	r.Write(hand.Vec3{X: 3})
	r.Write(hand.Vec3{X: 4})
	got = r.Slice()
	want := []float64{2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("len(Slice()) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].X != want[i] {
			t.Errorf("Slice()[%d].X = %v, want %v", i, got[i].X, want[i])
		}
	}
}

func TestRing_Reset(t *testing.T) {
	r := NewRing(2)
	r.Write(hand.Vec3{X: 1})
	r.Write(hand.Vec3{X: 2})
	r.Reset()

	if r.Full() || r.Len() != 0 || r.Index() != -1 {
		t.Errorf("after Reset: Full=%v Len=%d Index=%d", r.Full(), r.Len(), r.Index())
	}
	if len(r.Slice()) != 0 {
		t.Error("expected empty slice after Reset")
	}
}

func TestNewRing_PanicsOnZeroCapacity(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for zero capacity")
		}
	}()
	NewRing(0)
}
