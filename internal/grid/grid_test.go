package grid

import (
	"math"
	"testing"
)

func TestGridIndexing(t *testing.T) {
	g := New(3, 4)
	g.Set(1, 2, 7.5)
	if got := g.At(1, 2); got != 7.5 {
		t.Fatalf("At(1,2) = %g", got)
	}
	if got := g.Data[g.Idx(1, 2)]; got != 7.5 {
		t.Fatalf("flat index mismatch: %g", got)
	}
	if g.Idx(2, 3) != 11 {
		t.Fatalf("Idx(2,3) = %d, want 11", g.Idx(2, 3))
	}
}

func TestGridMask(t *testing.T) {
	g := New(2, 2)
	if g.Masked(0, 0) {
		t.Fatal("fresh grid has masked samples")
	}
	g.SetMasked(0, 1)
	if !g.Masked(0, 1) {
		t.Fatal("SetMasked did not stick")
	}
	if got := g.NumValid(); got != 3 {
		t.Fatalf("NumValid = %d, want 3", got)
	}
	g.Set(0, 1, 99)
	g.Set(1, 1, 5)
	valid := g.Valid()
	if len(valid) != 3 {
		t.Fatalf("Valid returned %d samples", len(valid))
	}
	for _, v := range valid {
		if v == 99 {
			t.Fatal("masked value leaked into Valid")
		}
	}
}

func TestGridClone(t *testing.T) {
	g := New(2, 3)
	g.Set(1, 1, 4)
	g.SetMasked(0, 0)
	c := g.Clone()
	c.Set(1, 1, -4)
	c.Mask[0] = false
	if g.At(1, 1) != 4 || !g.Masked(0, 0) {
		t.Fatal("clone shares storage with original")
	}
}

func TestFromSlice(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5, 6}
	g, err := FromSlice(2, 3, data)
	if err != nil {
		t.Fatal(err)
	}
	if g.At(1, 2) != 6 {
		t.Fatalf("At(1,2) = %g", g.At(1, 2))
	}
	if _, err := FromSlice(2, 2, data); err == nil {
		t.Fatal("length mismatch accepted")
	}
}

func TestNewFilled(t *testing.T) {
	g := NewFilled(2, 2, math.NaN())
	for i, v := range g.Data {
		if !math.IsNaN(v) {
			t.Fatalf("sample %d = %g, want NaN", i, v)
		}
	}
}

func TestCubeLayout(t *testing.T) {
	c := NewCube(3, 2, 4)
	c.Set(2, 1, 3, 9)
	if got := c.At(2, 1, 3); got != 9 {
		t.Fatalf("At = %g", got)
	}

	for chn := 0; chn < 3; chn++ {
		c.Set(chn, 0, 1, float64(chn)*10)
	}
	spec := make([]float64, 3)
	c.Spectrum(0, 1, spec)
	for chn, v := range spec {
		if v != float64(chn)*10 {
			t.Fatalf("spectrum[%d] = %g", chn, v)
		}
	}
}
