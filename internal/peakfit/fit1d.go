package peakfit

import (
	"fmt"

	"github.com/banshee-data/peakfit/internal/lsq"
)

// Fit1DOptions configures a single-peak spectrum fit over the fixed
// [height, amplitude, shift, width] layout. Use DefaultFit1DOptions as the
// starting point; the zero value fits a background-free peak with no
// sensible initial guess.
type Fit1DOptions struct {
	// Err is the per-sample measurement error; nil means 1 everywhere.
	Err []float64
	// Mask excludes samples from the fit; nil means all samples count.
	Mask []bool
	// Params is the initial [height, amplitude, shift, width] vector.
	Params []float64

	Fixed      []bool
	LimitedMin []bool
	LimitedMax []bool
	MinPars    []float64
	MaxPars    []float64

	// Vheight lets the background float; when false the height stays fixed
	// at its initial value.
	Vheight bool
	// UseMoments replaces the initial parameters with moment estimates.
	UseMoments bool
	// NegAmp forces the moment estimate's peak sign; nil autodetects.
	NegAmp *bool

	Quiet   bool
	Verbose bool
}

// DefaultFit1DOptions returns the standard 1D fit configuration: variable
// background, initial guess [0, 1, 0, 1], and the width bounded below by 0.
func DefaultFit1DOptions() Fit1DOptions {
	return Fit1DOptions{
		Params:     []float64{0, 1, 0, 1},
		LimitedMin: []bool{false, false, false, true},
		Vheight:    true,
		Quiet:      true,
	}
}

// Fit1DResult is the outcome of a 1D fit.
type Fit1DResult struct {
	Params   []float64
	Perror   []float64
	Model    []float64 // best-fit model sampled on the abscissa
	ChiSq    float64
	RedChiSq float64
	DOF      int
	Solver   *lsq.Result
}

var fit1DFields = []string{"HEIGHT", "AMPLITUDE", "SHIFT", "WIDTH"}

// FitPeak1D fits height + amplitude * f(x-shift, width) to a spectrum.
// A nil abscissa means sample indices.
func FitPeak1D(f Shape1D, xax, data []float64, opt Fit1DOptions) (*Fit1DResult, error) {
	if xax == nil {
		xax = make([]float64, len(data))
		for i := range xax {
			xax[i] = float64(i)
		}
	}
	if len(xax) != len(data) {
		return nil, fmt.Errorf("%w: %d abscissa values for %d samples", ErrBadLength, len(xax), len(data))
	}

	params := copyFloats(opt.Params)
	if params == nil {
		params = []float64{0, 1, 0, 1}
	}
	if len(params) != len(fit1DFields) {
		return nil, fmt.Errorf("%w: %d initial parameters, want %d", ErrBadLength, len(params), len(fit1DFields))
	}
	fixed := copyBools(opt.Fixed)
	if fixed == nil {
		fixed = make([]bool, len(fit1DFields))
	}
	if !opt.Vheight {
		fixed[0] = true
	}

	if opt.UseMoments {
		moms, err := Moments1D(xax, data, opt.Mask, opt.Vheight, MomentOptions{
			NegAmp:  opt.NegAmp,
			Verbose: opt.Verbose,
		})
		if err != nil {
			return nil, err
		}
		if !opt.Vheight {
			// Keep the caller's fixed background in front of the moment
			// estimates.
			moms = append([]float64{params[0]}, moms...)
		}
		params = moms
	}

	// Unlike the 2D layouts the width is the last field here, so the
	// default lower-limit pattern is spelled out rather than shared.
	limMin := opt.LimitedMin
	if limMin == nil {
		limMin = []bool{false, false, false, true}
	}
	pars, err := buildParamRecords(fit1DFields, params, fixed, limMin, opt.LimitedMax, opt.MinPars, opt.MaxPars)
	if err != nil {
		return nil, err
	}

	residual := spectrumResidual(xax, data, opt.Err, opt.Mask, func(p []float64) func(x float64) float64 {
		return func(x float64) float64 { return Peak1D(f, x, p[0], p[1], p[2], p[3]) }
	})

	sol := lsq.Solve(residual, pars, lsq.Options{Quiet: opt.Quiet})
	if sol.Message != "" {
		return nil, fmt.Errorf("%w: %s", ErrSolver, sol.Message)
	}

	model := make([]float64, len(xax))
	for i, x := range xax {
		model[i] = Peak1D(f, x, sol.Params[0], sol.Params[1], sol.Params[2], sol.Params[3])
	}
	res := &Fit1DResult{
		Params:   copyFloats(sol.Params),
		Perror:   copyFloats(sol.Perror),
		Model:    model,
		ChiSq:    sol.Cost,
		RedChiSq: reducedChiSq(sol.Cost, sol.DOF),
		DOF:      sol.DOF,
		Solver:   sol,
	}
	if !opt.Quiet || opt.Verbose {
		logFitResult(fit1DFields, sol)
	}
	return res, nil
}

// spectrumResidual builds the masked residual over a 1D spectrum.
func spectrumResidual(xax, data, errs []float64, mask []bool, build func([]float64) func(float64) float64) lsq.ResidualFunc {
	idx := make([]int, 0, len(data))
	for i := range data {
		if mask == nil || !mask[i] {
			idx = append(idx, i)
		}
	}
	out := make([]float64, len(idx))
	return func(p []float64) []float64 {
		model := build(p)
		for k, i := range idx {
			r := data[i] - model(xax[i])
			if errs != nil {
				r /= errs[i]
			}
			out[k] = r
		}
		return out
	}
}

// Curve1D samples height + amp * f(x-shift, width) over xax using a fitted
// parameter vector. Convenience for plotting fit overlays.
func Curve1D(f Shape1D, xax, params []float64) ([]float64, error) {
	if len(params) != 4 {
		return nil, fmt.Errorf("%w: %d parameters, want 4", ErrBadLength, len(params))
	}
	out := make([]float64, len(xax))
	for i, x := range xax {
		out[i] = Peak1D(f, x, params[0], params[1], params[2], params[3])
	}
	return out, nil
}
