package peakfit

import (
	"fmt"
	"log"
	"math"

	"github.com/banshee-data/peakfit/internal/grid"
	"github.com/banshee-data/peakfit/internal/lsq"
)

// FitOptions configures a 2D single-peak fit. The Fixed and limit lists are
// indexed by the height-included parameter layout (HEIGHT first even when
// the model's Vheight flag is off); nil lists select the defaults below.
// Caller slices are never modified.
type FitOptions struct {
	// Err is the per-sample measurement error; nil means 1 everywhere.
	Err *grid.Grid
	// Params is the initial parameter vector in the layout selected by the
	// configuration flags. Empty means estimate everything from moments.
	Params []float64
	// UseMoment selects parameters to overwrite with moment estimates when
	// Params is also given. Ignored unless its length matches Params.
	UseMoment []bool

	Fixed      []bool
	LimitedMin []bool
	LimitedMax []bool
	MinPars    []float64
	MaxPars    []float64

	// AnalyticDeriv requests the analytic-derivative path, which does not
	// exist; setting it always fails the fit.
	AnalyticDeriv bool
	// WantImage adds the best-fit model image to the result.
	WantImage bool
	Quiet     bool

	Moments MomentOptions
}

// FitResult is the outcome of a 2D fit. Params and Perror use the same
// layout as the input vector.
type FitResult struct {
	Params   []float64
	Perror   []float64
	ChiSq    float64
	RedChiSq float64 // NaN when DOF is zero
	DOF      int
	Solver   *lsq.Result
	Image    *grid.Grid // nil unless requested
}

// Default limit configuration for the full single-peak layout
// [height, amplitude, xshift, yshift, xwidth, ywidth, rotation]: widths are
// non-negative and the rotation is confined to [0, 180] degrees. Shorter
// layouts use a prefix.
var (
	peakLimitedMin = []bool{false, false, false, false, true, true, true}
	peakLimitedMax = []bool{false, false, false, false, false, false, true}
	peakMaxPars    = []float64{0, 0, 0, 0, 0, 0, 180}
)

// FitPeak2D fits a single 2D peak built from the 1D shape f to the data
// grid. Masked samples never enter the residual, so the fit is independent
// of the values stored in masked cells.
func FitPeak2D(f Shape1D, data *grid.Grid, cfg Config, opt FitOptions) (*FitResult, error) {
	build := func(c Config, p []float64) (Eval2D, error) { return c.Peak2D(f, p) }
	return fitPeak2D(build, data, cfg, opt)
}

// FitPeak2DShape is FitPeak2D for a generic, non-separable 2D shape.
func FitPeak2DShape(f Shape2D, data *grid.Grid, cfg Config, opt FitOptions) (*FitResult, error) {
	build := func(c Config, p []float64) (Eval2D, error) { return c.Peak2DShape(f, p) }
	return fitPeak2D(build, data, cfg, opt)
}

func fitPeak2D(build func(Config, []float64) (Eval2D, error), data *grid.Grid, cfg Config, opt FitOptions) (*FitResult, error) {
	if opt.AnalyticDeriv {
		return nil, ErrAnalyticDeriv
	}

	params, err := initialPeakParams(data, cfg, opt)
	if err != nil {
		return nil, err
	}

	// Downstream code always works with a height parameter so there is a
	// single layout; a caller that disabled the background gets the height
	// fixed at zero instead.
	inner := cfg
	inner.Vheight = true
	fixed := copyBools(opt.Fixed)
	if !cfg.Vheight {
		params = append([]float64{0}, params...)
		if fixed == nil {
			fixed = make([]bool, len(params))
		}
		fixed[0] = true
	}

	fields := inner.PeakFields()
	pars, err := buildParamRecords(fields, params, fixed, opt.LimitedMin, opt.LimitedMax, opt.MinPars, opt.MaxPars)
	if err != nil {
		return nil, err
	}

	residual, err := gridResidual(data, opt.Err, func(p []float64) (Eval2D, error) { return build(inner, p) })
	if err != nil {
		return nil, err
	}

	sol := lsq.Solve(residual, pars, lsq.Options{Quiet: opt.Quiet})
	if sol.Message != "" {
		return nil, fmt.Errorf("%w: %s", ErrSolver, sol.Message)
	}

	// Rotating an ellipse by 180 degrees is a symmetry, so the fitted angle
	// is canonicalized into [0, 180).
	if inner.Rotated() {
		sol.Params[len(sol.Params)-1] = wrapAngle(sol.Params[len(sol.Params)-1])
	}

	res := finishFit(sol, cfg.Vheight)
	if opt.WantImage {
		eval, err := build(inner, sol.Params)
		if err != nil {
			return nil, err
		}
		res.Image = Image(eval, data.NY, data.NX)
	}
	if !opt.Quiet {
		logFitResult(fields, sol)
	}
	return res, nil
}

// initialPeakParams resolves the starting vector from explicit parameters,
// moment estimates, or a mask-selected mix of both.
func initialPeakParams(data *grid.Grid, cfg Config, opt FitOptions) ([]float64, error) {
	n := cfg.NumPeakParams()
	if len(opt.Params) != 0 && len(opt.Params) != n {
		return nil, fmt.Errorf("%w: %d initial parameters for a %d-parameter model (%s)",
			ErrBadLength, len(opt.Params), n, cfg)
	}
	useMoment := anyTrue(opt.UseMoment) && len(opt.UseMoment) == len(opt.Params)

	if len(opt.Params) == 0 || useMoment {
		moms, err := Moments2D(data, cfg)
		if err != nil {
			return nil, err
		}
		if !useMoment {
			return moms, nil
		}
		params := copyFloats(opt.Params)
		for i, use := range opt.UseMoment {
			if use {
				params[i] = moms[i]
			}
		}
		return params, nil
	}
	return copyFloats(opt.Params), nil
}

// buildParamRecords assembles the ordered per-parameter metadata, applying
// the default limit configuration where the caller passed nil and clamping
// each starting value inside its active limits.
func buildParamRecords(fields []string, params []float64, fixed, limMin, limMax []bool, minPars, maxPars []float64) ([]lsq.Param, error) {
	n := len(fields)
	if len(params) != n {
		return nil, fmt.Errorf("%w: %d values for fields %v", ErrBadLength, len(params), fields)
	}
	fixed, err := normalizeBoolList("fixed", fixed, n, nil)
	if err != nil {
		return nil, err
	}
	limMin, err = normalizeBoolList("limitedmin", limMin, n, peakLimitedMin)
	if err != nil {
		return nil, err
	}
	limMax, err = normalizeBoolList("limitedmax", limMax, n, peakLimitedMax)
	if err != nil {
		return nil, err
	}
	minPars, err = normalizeFloatList("minpars", minPars, n, nil)
	if err != nil {
		return nil, err
	}
	maxPars, err = normalizeFloatList("maxpars", maxPars, n, peakMaxPars)
	if err != nil {
		return nil, err
	}

	pars := make([]lsq.Param, n)
	for i := range pars {
		v := params[i]
		// The solver requires a feasible starting point.
		if limMin[i] && v < minPars[i] {
			v = minPars[i]
		}
		if limMax[i] && v > maxPars[i] {
			v = maxPars[i]
		}
		pars[i] = lsq.Param{
			Name:    fields[i],
			Value:   v,
			Limits:  [2]float64{minPars[i], maxPars[i]},
			Limited: [2]bool{limMin[i], limMax[i]},
			Fixed:   fixed[i],
		}
	}
	return pars, nil
}

// gridResidual builds the masked residual function over the data grid:
// (data - model) / err at every unmasked sample, in row-major order.
func gridResidual(data, errs *grid.Grid, build func([]float64) (Eval2D, error)) (lsq.ResidualFunc, error) {
	if errs != nil && (errs.NY != data.NY || errs.NX != data.NX) {
		return nil, fmt.Errorf("%w: error grid is %dx%d, data is %dx%d",
			ErrBadLength, errs.NY, errs.NX, data.NY, data.NX)
	}
	type point struct {
		iy, ix int
		val    float64
		err    float64
	}
	points := make([]point, 0, len(data.Data))
	for iy := 0; iy < data.NY; iy++ {
		for ix := 0; ix < data.NX; ix++ {
			if data.Masked(iy, ix) {
				continue
			}
			e := 1.0
			if errs != nil {
				e = errs.At(iy, ix)
			}
			points = append(points, point{iy, ix, data.At(iy, ix), e})
		}
	}

	out := make([]float64, len(points))
	return func(p []float64) []float64 {
		eval, err := build(p)
		if err != nil {
			// The vector length is pinned by the metadata, so a decode
			// failure here means a programming error; poison the residual
			// so the solver reports it instead of silently converging.
			for i := range out {
				out[i] = math.Inf(1)
			}
			return out
		}
		for i, pt := range points {
			out[i] = (pt.val - eval(float64(pt.iy), float64(pt.ix))) / pt.err
		}
		return out
	}, nil
}

// finishFit shapes the solver state into a FitResult, stripping the
// internally injected height parameter when the caller's layout has none.
func finishFit(sol *lsq.Result, vheight bool) *FitResult {
	params := sol.Params
	perror := sol.Perror
	if !vheight {
		params = params[1:]
		perror = perror[1:]
	}
	return &FitResult{
		Params:   copyFloats(params),
		Perror:   copyFloats(perror),
		ChiSq:    sol.Cost,
		RedChiSq: reducedChiSq(sol.Cost, sol.DOF),
		DOF:      sol.DOF,
		Solver:   sol,
	}
}

// reducedChiSq divides the chi-square by the degrees of freedom, reporting
// NaN for a fully constrained fit rather than failing.
func reducedChiSq(chisq float64, dof int) float64 {
	if dof <= 0 {
		return math.NaN()
	}
	return chisq / float64(dof)
}

// wrapAngle maps an angle in degrees into [0, 180).
func wrapAngle(deg float64) float64 {
	deg = math.Mod(deg, 180)
	if deg < 0 {
		deg += 180
	}
	return deg
}

func logFitResult(fields []string, sol *lsq.Result) {
	for i, name := range fields {
		log.Printf("  %-12s %12.6g +/- %.6g", name, sol.Params[i], sol.Perror[i])
	}
	log.Printf("  chi2=%g reduced=%g dof=%d", sol.Cost, reducedChiSq(sol.Cost, sol.DOF), sol.DOF)
}

func anyTrue(bs []bool) bool {
	for _, b := range bs {
		if b {
			return true
		}
	}
	return false
}

func copyFloats(xs []float64) []float64 {
	if xs == nil {
		return nil
	}
	out := make([]float64, len(xs))
	copy(out, xs)
	return out
}

func copyBools(bs []bool) []bool {
	if bs == nil {
		return nil
	}
	out := make([]bool, len(bs))
	copy(out, bs)
	return out
}

// normalizeBoolList validates a caller-provided list against the layout
// length, substituting a default (or all-false) for nil input. The default
// may be longer than needed; a prefix is used.
func normalizeBoolList(name string, list []bool, n int, def []bool) ([]bool, error) {
	if list == nil {
		out := make([]bool, n)
		copy(out, def)
		return out, nil
	}
	if len(list) != n {
		return nil, fmt.Errorf("%w: %s has %d entries, want %d", ErrBadLength, name, len(list), n)
	}
	return copyBools(list), nil
}

func normalizeFloatList(name string, list []float64, n int, def []float64) ([]float64, error) {
	if list == nil {
		out := make([]float64, n)
		copy(out, def)
		return out, nil
	}
	if len(list) != n {
		return nil, fmt.Errorf("%w: %s has %d entries, want %d", ErrBadLength, name, len(list), n)
	}
	return copyFloats(list), nil
}
