package peakfit

import (
	"errors"
	"math"
	"testing"

	"github.com/banshee-data/peakfit/internal/grid"
)

func gauss1DData(n int, height, amp, shift, width float64) ([]float64, []float64) {
	xax := make([]float64, n)
	data := make([]float64, n)
	for i := range xax {
		x := float64(i)
		xax[i] = x
		data[i] = Peak1D(Gaussian1D, x, height, amp, shift, width)
	}
	return xax, data
}

func TestMoments1DGaussian(t *testing.T) {
	xax, data := gauss1DData(100, 2, 5, 50, 6)
	pars, err := Moments1D(xax, data, nil, true, MomentOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(pars) != 4 {
		t.Fatalf("got %d parameters, want 4", len(pars))
	}
	h, a, c, w := pars[0], pars[1], pars[2], pars[3]
	if math.Abs(h-2) > 0.2 {
		t.Errorf("height = %g, want about 2", h)
	}
	if math.Abs(a-5) > 1 {
		t.Errorf("amplitude = %g, want about 5", a)
	}
	if c != 50 {
		t.Errorf("center = %g, want 50", c)
	}
	// The width is only a fit seed: the integral below the median
	// background is subtracted, so a mostly-baseline spectrum estimates
	// well under the true width (about 2.3 for this input).
	if w < 1 || w > 6 {
		t.Errorf("width = %g, want a usable seed for a width-6 peak", w)
	}
}

func TestMoments1DNegativePeak(t *testing.T) {
	xax, data := gauss1DData(100, 2, -5, 30, 6)
	pars, err := Moments1D(xax, data, nil, true, MomentOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if pars[1] >= 0 {
		t.Errorf("amplitude = %g, want negative", pars[1])
	}
	if pars[2] != 30 {
		t.Errorf("center = %g, want 30", pars[2])
	}
}

func TestMoments1DForcedSign(t *testing.T) {
	// A positive peak with the sign forced negative must return the
	// negative-branch estimate anyway.
	xax, data := gauss1DData(100, 0, 5, 50, 6)
	neg := true
	pars, err := Moments1D(xax, data, nil, false, MomentOptions{NegAmp: &neg})
	if err != nil {
		t.Fatal(err)
	}
	if pars[0] > 0 {
		t.Errorf("forced-negative amplitude = %g", pars[0])
	}
}

func TestMoments1DNoHeight(t *testing.T) {
	xax, data := gauss1DData(100, 0, 5, 50, 6)
	pars, err := Moments1D(xax, data, nil, false, MomentOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(pars) != 3 {
		t.Fatalf("got %d parameters, want 3", len(pars))
	}
}

func TestMoments1DFlatInput(t *testing.T) {
	xax := make([]float64, 20)
	data := make([]float64, 20)
	for i := range xax {
		xax[i] = float64(i)
		data[i] = 3.5
	}
	_, err := Moments1D(xax, data, nil, true, MomentOptions{})
	if !errors.Is(err, ErrDegenerateInput) {
		t.Fatalf("got %v, want ErrDegenerateInput", err)
	}
}

func TestMoments1DMaskedSamplesIgnored(t *testing.T) {
	xax, data := gauss1DData(100, 2, 5, 50, 6)
	mask := make([]bool, len(data))
	mask[10] = true
	mask[70] = true

	a := append([]float64(nil), data...)
	a[10], a[70] = 1e6, -1e6
	parsA, err := Moments1D(xax, a, mask, true, MomentOptions{})
	if err != nil {
		t.Fatal(err)
	}

	b := append([]float64(nil), data...)
	b[10], b[70] = 0, 0
	parsB, err := Moments1D(xax, b, mask, true, MomentOptions{})
	if err != nil {
		t.Fatal(err)
	}

	for i := range parsA {
		if parsA[i] != parsB[i] {
			t.Errorf("estimate %d depends on masked value: %g vs %g", i, parsA[i], parsB[i])
		}
	}
}

func TestMoments1DLengthMismatch(t *testing.T) {
	_, err := Moments1D([]float64{0, 1}, []float64{0, 1, 2}, nil, true, MomentOptions{})
	if !errors.Is(err, ErrBadLength) {
		t.Fatalf("got %v, want ErrBadLength", err)
	}
}

func TestMoments2DGaussian(t *testing.T) {
	cfg := Config{Vheight: true, Rotate: true}
	e, err := cfg.Peak2D(Gaussian1D, []float64{1, 4, 40, 60, 5, 9, 0})
	if err != nil {
		t.Fatal(err)
	}
	img := Image(e, 96, 128)
	pars, err := Moments2D(img, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(pars) != cfg.NumPeakParams() {
		t.Fatalf("got %d parameters, want %d", len(pars), cfg.NumPeakParams())
	}
	if math.Abs(pars[0]-1) > 0.2 {
		t.Errorf("height = %g, want about 1", pars[0])
	}
	if math.Abs(pars[1]-4) > 1 {
		t.Errorf("amplitude = %g, want about 4", pars[1])
	}
	if math.Abs(pars[2]-40) > 1 || math.Abs(pars[3]-60) > 1 {
		t.Errorf("center = (%g, %g), want near (40, 60)", pars[2], pars[3])
	}
	if pars[4] < 2 || pars[4] > 10 || pars[5] < 4 || pars[5] > 18 {
		t.Errorf("widths = (%g, %g), want near (5, 9)", pars[4], pars[5])
	}
	if pars[6] != 0 {
		t.Errorf("rotation guess = %g, want 0", pars[6])
	}
}

func TestMoments2DCircle(t *testing.T) {
	cfg := Config{Vheight: true, Circle: true}
	e, err := cfg.Peak2D(Gaussian1D, []float64{0, 3, 30, 30, 6})
	if err != nil {
		t.Fatal(err)
	}
	pars, err := Moments2D(Image(e, 64, 64), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(pars) != 5 {
		t.Fatalf("got %d parameters, want 5", len(pars))
	}
}

func TestMoments2DFlatGrid(t *testing.T) {
	g := grid.New(16, 16)
	for i := range g.Data {
		g.Data[i] = 7
	}
	_, err := Moments2D(g, Config{Vheight: true})
	if !errors.Is(err, ErrDegenerateInput) {
		t.Fatalf("got %v, want ErrDegenerateInput", err)
	}
}
