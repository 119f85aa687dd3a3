// Package lsq solves bounded nonlinear least-squares problems.
//
// It wraps the Levenberg-Marquardt engine from github.com/maorshutman/lm,
// which knows nothing about parameter bounds or frozen parameters, behind a
// contract that does: each parameter carries optional inclusive lower/upper
// limits and a fixed flag. Fixed parameters are removed from the free vector
// handed to the engine; limits are enforced through the usual smooth change
// of variables (sine mapping for two-sided limits, hyperbolic mapping for
// one-sided), so the engine itself always works in an unconstrained space.
//
// Parameter errors are estimated after the solve from the numerical Jacobian
// of the residual at the solution, as the square roots of the diagonal of
// (J^T J)^-1 computed with an SVD pseudo-inverse.
package lsq

import (
	"fmt"
	"log"
	"math"

	"github.com/maorshutman/lm"
)

// Param describes one scalar of the parameter vector.
type Param struct {
	Name    string
	Value   float64
	Limits  [2]float64 // inclusive [lower, upper]
	Limited [2]bool    // whether each limit is active
	Fixed   bool
}

// ResidualFunc evaluates the weighted residual vector at the given full
// parameter vector. The returned slice must have the same length on every
// call.
type ResidualFunc func(params []float64) []float64

// Options tunes the solve. The zero value selects the defaults below.
type Options struct {
	MaxIterations int     // default 300
	ObjectiveTol  float64 // stop when the cost drops below this; default 1e-18
	Quiet         bool    // suppress the per-solve summary log line
}

// Result reports the outcome of a solve. Status 0 signals failure and is
// always accompanied by a non-empty Message; Status 1 means the engine
// converged. Perror entries for fixed parameters are zero.
type Result struct {
	Params  []float64 // best-fit full parameter vector
	Perror  []float64 // 1-sigma parameter errors
	Cost    float64   // sum of squared residuals at the solution
	DOF     int       // residual count minus free parameter count
	NPoints int
	NFree   int
	Status  int
	Message string
}

const (
	defaultMaxIterations = 300
	defaultObjectiveTol  = 1e-18

	// Starting a two-sided parameter exactly on a limit would give the sine
	// mapping a zero gradient there and the engine could never move it, so
	// initial values are pulled this fraction inside the interval.
	edgeMargin = 1e-4
)

// Solve minimizes the sum of squared residuals of f over the free parameters
// in params, honoring limits and fixed flags. It always returns a Result;
// engine failures are reported through Status and Message rather than an
// error so the caller can still inspect the partial state.
func Solve(f ResidualFunc, params []Param, opts Options) *Result {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = defaultMaxIterations
	}
	if opts.ObjectiveTol <= 0 {
		opts.ObjectiveTol = defaultObjectiveTol
	}

	res := &Result{
		Params: make([]float64, len(params)),
		Perror: make([]float64, len(params)),
	}
	for i, p := range params {
		res.Params[i] = clampToLimits(p)
	}

	r0 := f(res.Params)
	res.NPoints = len(r0)
	if res.NPoints == 0 {
		return fail(res, "residual function returned no points")
	}

	binds := makeBindings(params)
	res.NFree = len(binds)
	res.DOF = res.NPoints - res.NFree
	if res.NFree == 0 {
		// Everything fixed: nothing to optimize, report the cost as-is.
		res.Cost = sumSquares(r0)
		res.Status = 1
		return res
	}
	if res.NPoints < res.NFree {
		return fail(res, fmt.Sprintf("underdetermined problem: %d residuals for %d free parameters", res.NPoints, res.NFree))
	}

	u0 := make([]float64, len(binds))
	for i, b := range binds {
		u0[i] = b.internal(res.Params[b.idx])
	}

	full := make([]float64, len(res.Params))
	copy(full, res.Params)
	wrapped := func(dst, u []float64) {
		for i, b := range binds {
			full[b.idx] = b.external(u[i])
		}
		r := f(full)
		copy(dst, r)
	}

	jac := lm.NumJac{Func: wrapped}
	prob := lm.LMProblem{
		Dim:        res.NFree,
		Size:       res.NPoints,
		Func:       wrapped,
		Jac:        jac.Jac,
		InitParams: u0,
		Tau:        1e-6,
		Eps1:       1e-8,
		Eps2:       1e-8,
	}
	lmRes, err := lm.LM(prob, &lm.Settings{
		Iterations:   opts.MaxIterations,
		ObjectiveTol: opts.ObjectiveTol,
	})
	if err != nil {
		return fail(res, err.Error())
	}

	for i, b := range binds {
		res.Params[b.idx] = b.external(lmRes.X[i])
	}
	res.Cost = sumSquares(f(res.Params))
	res.Status = 1
	if !opts.Quiet {
		log.Printf("lsq: solved %d points, %d free parameters: cost=%g dof=%d",
			res.NPoints, res.NFree, res.Cost, res.DOF)
	}

	perr, perrErr := paramErrors(f, res.Params, binds)
	if perrErr != nil {
		// A singular Jacobian does not invalidate the fit itself; the
		// errors are just unavailable.
		for _, b := range binds {
			res.Perror[b.idx] = math.NaN()
		}
		return res
	}
	for i, b := range binds {
		res.Perror[b.idx] = perr[i]
	}
	return res
}

func fail(res *Result, msg string) *Result {
	res.Status = 0
	res.Message = msg
	return res
}

func clampToLimits(p Param) float64 {
	v := p.Value
	if p.Limited[0] && v < p.Limits[0] {
		v = p.Limits[0]
	}
	if p.Limited[1] && v > p.Limits[1] {
		v = p.Limits[1]
	}
	return v
}

func sumSquares(r []float64) float64 {
	var s float64
	for _, v := range r {
		s += v * v
	}
	return s
}
