package lsq

import (
	"bytes"
	"log"
	"math"
	"strings"
	"testing"
)

// expResidual builds a residual for y = a*exp(-b*x) sampled on xs.
func expResidual(xs, ys []float64) ResidualFunc {
	return func(p []float64) []float64 {
		out := make([]float64, len(xs))
		for i, x := range xs {
			out[i] = p[0]*math.Exp(-p[1]*x) - ys[i]
		}
		return out
	}
}

func synthExp(a, b float64, n int) (xs, ys []float64) {
	xs = make([]float64, n)
	ys = make([]float64, n)
	for i := range xs {
		xs[i] = float64(i) / 4
		ys[i] = a * math.Exp(-b*xs[i])
	}
	return xs, ys
}

func TestSolveRecoversExponential(t *testing.T) {
	xs, ys := synthExp(2.5, 0.7, 40)
	res := Solve(expResidual(xs, ys), []Param{
		{Name: "A", Value: 1},
		{Name: "B", Value: 0.3},
	}, Options{})

	if res.Status == 0 {
		t.Fatalf("solve failed: %s", res.Message)
	}
	if math.Abs(res.Params[0]-2.5) > 1e-6 || math.Abs(res.Params[1]-0.7) > 1e-6 {
		t.Fatalf("recovered %v, want [2.5 0.7]", res.Params)
	}
	if res.DOF != 38 {
		t.Fatalf("DOF = %d, want 38", res.DOF)
	}
	if res.Cost > 1e-12 {
		t.Fatalf("cost %g too large for a noiseless fit", res.Cost)
	}
	for i, pe := range res.Perror {
		if math.IsNaN(pe) || pe < 0 {
			t.Fatalf("perror[%d] = %g", i, pe)
		}
	}
}

func TestSolveHonorsFixed(t *testing.T) {
	xs, ys := synthExp(2.5, 0.7, 40)
	res := Solve(expResidual(xs, ys), []Param{
		{Name: "A", Value: 2.0, Fixed: true},
		{Name: "B", Value: 0.3},
	}, Options{})

	if res.Status == 0 {
		t.Fatalf("solve failed: %s", res.Message)
	}
	if res.Params[0] != 2.0 {
		t.Fatalf("fixed parameter moved: %g", res.Params[0])
	}
	if res.Perror[0] != 0 {
		t.Fatalf("fixed parameter has error %g, want 0", res.Perror[0])
	}
	if res.NFree != 1 || res.DOF != 39 {
		t.Fatalf("NFree = %d, DOF = %d", res.NFree, res.DOF)
	}
}

func TestSolveHonorsLimits(t *testing.T) {
	xs, ys := synthExp(2.5, 0.7, 40)
	// Cap the amplitude below its true value; the solution must sit inside
	// the allowed interval.
	res := Solve(expResidual(xs, ys), []Param{
		{Name: "A", Value: 1, Limits: [2]float64{0, 2}, Limited: [2]bool{true, true}},
		{Name: "B", Value: 0.3, Limits: [2]float64{0, 0}, Limited: [2]bool{true, false}},
	}, Options{})

	if res.Status == 0 {
		t.Fatalf("solve failed: %s", res.Message)
	}
	if res.Params[0] < 0 || res.Params[0] > 2 {
		t.Fatalf("amplitude %g escaped [0, 2]", res.Params[0])
	}
	if res.Params[1] < 0 {
		t.Fatalf("decay rate %g escaped lower limit 0", res.Params[1])
	}
	// The best constrained amplitude should press against the cap.
	if res.Params[0] < 1.9 {
		t.Fatalf("amplitude %g, expected near the upper limit 2", res.Params[0])
	}
}

func TestSolveClampsInitialValues(t *testing.T) {
	xs, ys := synthExp(2.5, 0.7, 40)
	// Start outside the limits; Solve must pull the start inside instead of
	// handing the engine an infeasible point.
	res := Solve(expResidual(xs, ys), []Param{
		{Name: "A", Value: -5, Limits: [2]float64{0.5, 3}, Limited: [2]bool{true, true}},
		{Name: "B", Value: 0.3},
	}, Options{})
	if res.Status == 0 {
		t.Fatalf("solve failed: %s", res.Message)
	}
	if math.Abs(res.Params[0]-2.5) > 1e-5 {
		t.Fatalf("amplitude %g, want 2.5", res.Params[0])
	}
}

func TestSolveAllFixed(t *testing.T) {
	xs, ys := synthExp(2.5, 0.7, 10)
	res := Solve(expResidual(xs, ys), []Param{
		{Name: "A", Value: 2.5, Fixed: true},
		{Name: "B", Value: 0.7, Fixed: true},
	}, Options{})
	if res.Status == 0 {
		t.Fatalf("solve failed: %s", res.Message)
	}
	if res.NFree != 0 || res.DOF != 10 {
		t.Fatalf("NFree = %d, DOF = %d", res.NFree, res.DOF)
	}
	if res.Cost > 1e-20 {
		t.Fatalf("cost %g, want 0 at the true parameters", res.Cost)
	}
}

func TestSolveEmptyResidual(t *testing.T) {
	res := Solve(func(p []float64) []float64 { return nil }, []Param{{Name: "A"}}, Options{})
	if res.Status != 0 || res.Message == "" {
		t.Fatalf("expected failure for empty residual, got status %d message %q", res.Status, res.Message)
	}
}

func TestSolveUnderdetermined(t *testing.T) {
	res := Solve(func(p []float64) []float64 { return []float64{p[0] + p[1]} }, []Param{
		{Name: "A"}, {Name: "B"},
	}, Options{})
	if res.Status != 0 || res.Message == "" {
		t.Fatalf("expected failure for underdetermined problem, got status %d message %q", res.Status, res.Message)
	}
}

func TestBindingRoundTrip(t *testing.T) {
	cases := []binding{
		{lower: true, upper: true, lo: -1, hi: 5},
		{lower: true, lo: 0},
		{upper: true, hi: 10},
		{},
	}
	for _, b := range cases {
		for _, x := range []float64{0.5, 1.5, 3.0} {
			if b.upper && x > b.hi || b.lower && x < b.lo {
				continue
			}
			got := b.external(b.internal(x))
			if math.Abs(got-x) > 1e-6 {
				t.Errorf("round trip %+v at %g: got %g", b, x, got)
			}
		}
	}
}

func TestSolveQuietSuppressesLogging(t *testing.T) {
	xs, ys := synthExp(2.5, 0.7, 40)
	pars := []Param{{Name: "A", Value: 1}, {Name: "B", Value: 0.3}}

	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	defer log.SetOutput(prev)

	Solve(expResidual(xs, ys), pars, Options{Quiet: true})
	if buf.Len() != 0 {
		t.Fatalf("quiet solve logged: %q", buf.String())
	}

	Solve(expResidual(xs, ys), pars, Options{})
	if !strings.Contains(buf.String(), "2 free parameters") {
		t.Fatalf("expected a solve summary line, got %q", buf.String())
	}
}
