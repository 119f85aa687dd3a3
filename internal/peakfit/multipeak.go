package peakfit

import (
	"fmt"

	"github.com/banshee-data/peakfit/internal/lsq"
)

// MultiPeakOptions configures a fit of several 1D peaks sharing one shape.
// Every list covers [amplitude, shift, width] per peak: a 3-entry list is
// replicated for each peak, a 3n-entry list is used as-is, and anything
// else (including nil) falls back to the per-peak defaults. Input slices
// are never modified.
type MultiPeakOptions struct {
	Err  []float64
	Mask []bool
	// Params is the initial [amplitude, shift, width] * n vector. Its
	// length may also set the peak count when larger than requested.
	Params []float64

	Fixed      []bool
	LimitedMin []bool
	LimitedMax []bool
	MinPars    []float64
	MaxPars    []float64

	Quiet   bool
	Verbose bool
}

// Per-peak defaults: unit width starting guess and a positive-width bound.
// The background is assumed to be zero; baseline the data first.
var (
	multiPeakParams     = []float64{1, 0, 1}
	multiPeakLimitedMin = []bool{false, false, true}
)

var multiPeakNames = []string{"AMPLITUDE", "SHIFT", "WIDTH"}

// FitMultiPeak fits the sum of npeak baseline-free 1D peaks to a spectrum.
// A nil abscissa means sample indices. When len(opt.Params)/3 exceeds
// npeak, the larger count wins.
func FitMultiPeak(f Shape1D, xax, data []float64, npeak int, opt MultiPeakOptions) (*Fit1DResult, error) {
	if npeak < 1 {
		npeak = 1
	}
	if len(opt.Params)%3 == 0 && len(opt.Params)/3 > npeak {
		npeak = len(opt.Params) / 3
	}
	if xax == nil {
		xax = make([]float64, len(data))
		for i := range xax {
			xax[i] = float64(i)
		}
	}
	if len(xax) != len(data) {
		return nil, fmt.Errorf("%w: %d abscissa values for %d samples", ErrBadLength, len(xax), len(data))
	}

	params := replicateFloats(opt.Params, npeak, multiPeakParams)
	fixed := replicateBools(opt.Fixed, npeak, nil)
	limMin := replicateBools(opt.LimitedMin, npeak, multiPeakLimitedMin)
	limMax := replicateBools(opt.LimitedMax, npeak, nil)
	minPars := replicateFloats(opt.MinPars, npeak, nil)
	maxPars := replicateFloats(opt.MaxPars, npeak, nil)

	pars := make([]lsq.Param, 3*npeak)
	for i := range pars {
		v := params[i]
		if limMin[i] && v < minPars[i] {
			v = minPars[i]
		}
		if limMax[i] && v > maxPars[i] {
			v = maxPars[i]
		}
		pars[i] = lsq.Param{
			Name:    fmt.Sprintf("%s%d", multiPeakNames[i%3], i/3),
			Value:   v,
			Limits:  [2]float64{minPars[i], maxPars[i]},
			Limited: [2]bool{limMin[i], limMax[i]},
			Fixed:   fixed[i],
		}
	}

	residual := spectrumResidual(xax, data, opt.Err, opt.Mask, func(p []float64) func(x float64) float64 {
		sum, err := SumPeaks1D(f, p)
		if err != nil {
			// Length is 3*npeak by construction.
			return func(float64) float64 { return 0 }
		}
		return sum
	})

	sol := lsq.Solve(residual, pars, lsq.Options{Quiet: opt.Quiet})
	if sol.Message != "" {
		return nil, fmt.Errorf("%w: %s", ErrSolver, sol.Message)
	}

	sum, err := SumPeaks1D(f, sol.Params)
	if err != nil {
		return nil, err
	}
	model := make([]float64, len(xax))
	for i, x := range xax {
		model[i] = sum(x)
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
		names := make([]string, len(pars))
		for i := range pars {
			names[i] = pars[i].Name
		}
		logFitResult(names, sol)
	}
	return res, nil
}

// replicateFloats normalizes a per-peak configuration list to length 3n:
// a 3-entry list is replicated n times, a 3n-entry list is copied, and
// anything else is replaced by the replicated default (zeros for a nil
// default). The input is never modified.
func replicateFloats(list []float64, npeak int, def []float64) []float64 {
	out := make([]float64, 0, 3*npeak)
	if len(list) == 3*npeak {
		return append(out, list...)
	}
	src := def
	if len(list) == 3 {
		src = list
	}
	for i := 0; i < npeak; i++ {
		if src == nil {
			out = append(out, 0, 0, 0)
		} else {
			out = append(out, src...)
		}
	}
	return out
}

// replicateBools is replicateFloats for boolean lists.
func replicateBools(list []bool, npeak int, def []bool) []bool {
	out := make([]bool, 0, 3*npeak)
	if len(list) == 3*npeak {
		return append(out, list...)
	}
	src := def
	if len(list) == 3 {
		src = list
	}
	for i := 0; i < npeak; i++ {
		if src == nil {
			out = append(out, false, false, false)
		} else {
			out = append(out, src...)
		}
	}
	return out
}
