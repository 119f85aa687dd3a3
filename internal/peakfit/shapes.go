package peakfit

import "math"

// Shape1D is a 1D peak profile normalized to 1 at zero offset. The width is
// scaled so the profile is reasonably approximated by a Gaussian of the same
// width; this keeps moment-based initial guesses usable for any shape.
type Shape1D func(offset, width float64) float64

// Shape2D is a 2D peak profile normalized to 1 at zero offset, with
// independent widths per axis.
type Shape2D func(dx, dy, widthX, widthY float64) float64

// Gaussian1D is the normalized Gaussian profile exp(-x^2 / 2w^2).
func Gaussian1D(offset, width float64) float64 {
	return math.Exp(-offset * offset / (2 * width * width))
}

// Lorentzian1D is the normalized Lorentzian profile 1 / (1 + (x/w)^2).
func Lorentzian1D(offset, width float64) float64 {
	r := offset / width
	return 1 / (1 + r*r)
}

// Gaussian2D is the separable 2D Gaussian profile.
func Gaussian2D(dx, dy, widthX, widthY float64) float64 {
	return Gaussian1D(dx, widthX) * Gaussian1D(dy, widthY)
}
