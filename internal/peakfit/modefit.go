package peakfit

import (
	"fmt"

	"github.com/banshee-data/peakfit/internal/grid"
	"github.com/banshee-data/peakfit/internal/lsq"
)

// ModeFitOptions configures a multimode Laguerre-Gauss intensity fit. The
// Params vector and the Fixed/limit lists cover the head of the layout only
// (height and geometry); mode amplitudes are configured through the Amp
// fields. Use DefaultModeFitOptions as the starting point.
type ModeFitOptions struct {
	Err *grid.Grid
	// Params is the initial head vector [height?, xshift, yshift,
	// width(s)..., rotation?]. Empty means estimate from moments.
	Params    []float64
	UseMoment []bool
	// Amps is the initial flat mode amplitude block; nil means zeros with
	// the fundamental seeded from the moment amplitude when moments are
	// used.
	Amps []float64

	Fixed      []bool
	LimitedMin []bool
	LimitedMax []bool
	MinPars    []float64
	MaxPars    []float64

	// Mode amplitude bounds, shared by every mode.
	AmpMin     float64
	AmpMax     float64
	AmpLimited [2]bool

	AnalyticDeriv bool
	WantImage     bool
	Quiet         bool
	Moments       MomentOptions
}

// DefaultModeFitOptions returns the standard mode fit configuration: mode
// amplitudes bounded below by 0 and unbounded above 2 is the conventional
// search range, with only the lower bound enforced.
func DefaultModeFitOptions() ModeFitOptions {
	return ModeFitOptions{
		AmpMin:     0,
		AmpMax:     2,
		AmpLimited: [2]bool{true, false},
		Quiet:      true,
	}
}

// Default limit configuration for the mode head layout
// [height, xshift, yshift, xwidth, ywidth, rotation].
var (
	modeLimitedMin = []bool{false, true, true, true, true, true}
	modeLimitedMax = []bool{false, false, false, false, false, true}
	modeMaxPars    = []float64{0, 0, 0, 0, 0, 180}
)

// FitModes2D fits a multimode Laguerre-Gauss beam intensity with radial
// orders up to maxP and azimuthal orders up to maxL. The returned parameter
// vector is the full layout: head fields followed by the flattened
// (maxP+1) x (maxL+1) amplitude block.
func FitModes2D(data *grid.Grid, maxP, maxL int, cfg Config, opt ModeFitOptions) (*FitResult, error) {
	if opt.AnalyticDeriv {
		return nil, ErrAnalyticDeriv
	}

	head, amps, err := initialModeParams(data, maxP, maxL, cfg, opt)
	if err != nil {
		return nil, err
	}

	inner := cfg
	inner.Vheight = true
	fixed := copyBools(opt.Fixed)
	if !cfg.Vheight {
		head = append([]float64{0}, head...)
		if fixed == nil {
			fixed = make([]bool, len(head))
		}
		fixed[0] = true
	}

	fields := inner.ModeFields()
	pars, err := buildModeParamRecords(fields, head, fixed, opt)
	if err != nil {
		return nil, err
	}
	for i, a := range amps {
		if opt.AmpLimited[0] && a < opt.AmpMin {
			a = opt.AmpMin
		}
		if opt.AmpLimited[1] && a > opt.AmpMax {
			a = opt.AmpMax
		}
		pars = append(pars, lsq.Param{
			Name:    ModeAmpName(i, maxL),
			Value:   a,
			Limits:  [2]float64{opt.AmpMin, opt.AmpMax},
			Limited: opt.AmpLimited,
		})
	}

	residual, err := gridResidual(data, opt.Err, func(p []float64) (Eval2D, error) {
		return inner.ModeIntensity(maxP, maxL, p)
	})
	if err != nil {
		return nil, err
	}

	sol := lsq.Solve(residual, pars, lsq.Options{Quiet: opt.Quiet})
	if sol.Message != "" {
		return nil, fmt.Errorf("%w: %s", ErrSolver, sol.Message)
	}

	if inner.Rotated() {
		rotIdx := len(fields) - 1
		sol.Params[rotIdx] = wrapAngle(sol.Params[rotIdx])
	}

	res := finishFit(sol, cfg.Vheight)
	if opt.WantImage {
		eval, err := inner.ModeIntensity(maxP, maxL, sol.Params)
		if err != nil {
			return nil, err
		}
		res.Image = Image(eval, data.NY, data.NX)
	}
	if !opt.Quiet {
		names := append([]string{}, fields...)
		for i := range amps {
			names = append(names, ModeAmpName(i, maxL))
		}
		logFitResult(names, sol)
	}
	return res, nil
}

// initialModeParams resolves the head vector and amplitude block. A moment
// estimate contributes its amplitude to the fundamental (0,0) mode; the
// remaining entries seed the head.
func initialModeParams(data *grid.Grid, maxP, maxL int, cfg Config, opt ModeFitOptions) (head, amps []float64, err error) {
	amps = make([]float64, NumModes(maxP, maxL))
	copy(amps, opt.Amps)
	if opt.Amps != nil && len(opt.Amps) != len(amps) {
		return nil, nil, fmt.Errorf("%w: %d mode amplitudes for %d modes", ErrBadLength, len(opt.Amps), len(amps))
	}

	n := len(cfg.ModeFields())
	if len(opt.Params) != 0 && len(opt.Params) != n {
		return nil, nil, fmt.Errorf("%w: %d initial head parameters for a %d-field head (%s)",
			ErrBadLength, len(opt.Params), n, cfg)
	}
	useMoment := anyTrue(opt.UseMoment) && len(opt.UseMoment) == len(opt.Params)

	if len(opt.Params) == 0 || useMoment {
		moms, merr := Moments2D(data, cfg)
		if merr != nil {
			return nil, nil, merr
		}
		// Pull the amplitude out of the moment vector: it belongs to the
		// fundamental mode, not the head.
		ampIdx := 0
		if cfg.Vheight {
			ampIdx = 1
		}
		if opt.Amps == nil {
			amps[0] = moms[ampIdx]
		}
		momHead := append(copyFloats(moms[:ampIdx]), moms[ampIdx+1:]...)
		if !useMoment {
			return momHead, amps, nil
		}
		head = copyFloats(opt.Params)
		for i, use := range opt.UseMoment {
			if use {
				head[i] = momHead[i]
			}
		}
		return head, amps, nil
	}
	return copyFloats(opt.Params), amps, nil
}

func buildModeParamRecords(fields []string, head []float64, fixed []bool, opt ModeFitOptions) ([]lsq.Param, error) {
	n := len(fields)
	limMin, err := normalizeBoolList("limitedmin", opt.LimitedMin, n, modeLimitedMin)
	if err != nil {
		return nil, err
	}
	limMax, err := normalizeBoolList("limitedmax", opt.LimitedMax, n, modeLimitedMax)
	if err != nil {
		return nil, err
	}
	minPars, err := normalizeFloatList("minpars", opt.MinPars, n, nil)
	if err != nil {
		return nil, err
	}
	maxPars, err := normalizeFloatList("maxpars", opt.MaxPars, n, modeMaxPars)
	if err != nil {
		return nil, err
	}
	fixed, err = normalizeBoolList("fixed", fixed, n, nil)
	if err != nil {
		return nil, err
	}
	if len(head) != n {
		return nil, fmt.Errorf("%w: %d head values for fields %v", ErrBadLength, len(head), fields)
	}

	pars := make([]lsq.Param, n)
	for i := range pars {
		v := head[i]
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
