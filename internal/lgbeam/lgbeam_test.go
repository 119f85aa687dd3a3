package lgbeam

import (
	"math"
	"math/cmplx"
	"testing"
)

func TestFactorial(t *testing.T) {
	cases := []struct {
		n    int
		want float64
	}{
		{0, 1}, {1, 1}, {2, 2}, {5, 120}, {10, 3628800},
	}
	for _, c := range cases {
		if got := Factorial(c.n); got != c.want {
			t.Errorf("Factorial(%d) = %g, want %g", c.n, got, c.want)
		}
	}
}

func TestLaguerreLowOrders(t *testing.T) {
	// L_0 = 1, L_1^(a)(z) = 1 + a - z, L_2^(0)(z) = (z^2 - 4z + 2)/2
	if got := Laguerre(0, 3, 1.7); got != 1 {
		t.Fatalf("L_0 = %g, want 1", got)
	}
	if got, want := Laguerre(1, 2, 0.5), 2.5; math.Abs(got-want) > 1e-14 {
		t.Fatalf("L_1^(2)(0.5) = %g, want %g", got, want)
	}
	z := 0.75
	want := (z*z - 4*z + 2) / 2
	if got := Laguerre(2, 0, z); math.Abs(got-want) > 1e-14 {
		t.Fatalf("L_2^(0)(%g) = %g, want %g", z, got, want)
	}
}

func TestFundamentalMode(t *testing.T) {
	// The (0,0) mode is a pure Gaussian: sqrt(2/pi) * exp(-r^2), no phase.
	for _, r := range []float64{0, 0.3, 1, 2} {
		want := math.Sqrt(2/math.Pi) * math.Exp(-r*r)
		got := ModeAt(r, 0, 0, 0)
		if math.Abs(real(got)-want) > 1e-14 || imag(got) != 0 {
			t.Errorf("ModeAt(%g, 0, 0, 0) = %v, want %g", r, got, want)
		}
	}
}

func TestAzimuthalPhase(t *testing.T) {
	// An l=1 mode carries phase exp(-i*phi); magnitude is invariant under
	// rotation about the axis.
	m1 := ModeAt(0.5, 0, 0, 1)
	m2 := ModeAt(0, 0.5, 0, 1)
	if math.Abs(cmplx.Abs(m1)-cmplx.Abs(m2)) > 1e-14 {
		t.Fatalf("|mode| not rotation invariant: %g vs %g", cmplx.Abs(m1), cmplx.Abs(m2))
	}
	// phi = pi/2 at (0, y) so the phase there is exp(-i*pi/2) = -i.
	phase := m2 / complex(cmplx.Abs(m2), 0)
	if math.Abs(real(phase)) > 1e-14 || math.Abs(imag(phase)+1) > 1e-14 {
		t.Fatalf("unexpected phase %v, want -i", phase)
	}
	// p=0, l=1 vanishes on axis.
	if got := cmplx.Abs(ModeAt(0, 0, 0, 1)); got != 0 {
		t.Fatalf("l=1 mode non-zero on axis: %g", got)
	}
}

func TestNegativeAzimuthalOrderMagnitude(t *testing.T) {
	a := cmplx.Abs(ModeAt(0.7, 0.2, 1, 2))
	b := cmplx.Abs(ModeAt(0.7, 0.2, 1, -2))
	if math.Abs(a-b) > 1e-14 {
		t.Fatalf("|l| symmetry broken: %g vs %g", a, b)
	}
}
