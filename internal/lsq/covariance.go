package lsq

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// paramErrors estimates 1-sigma errors for the free parameters as
// sqrt(diag((J^T J)^-1)), with J the forward-difference Jacobian of the
// residual with respect to the external parameter values at the solution.
func paramErrors(f ResidualFunc, solution []float64, binds []binding) ([]float64, error) {
	base := f(solution)
	m, n := len(base), len(binds)

	jac := mat.NewDense(m, n, nil)
	work := make([]float64, len(solution))
	copy(work, solution)
	for j, b := range binds {
		x := solution[b.idx]
		h := 1e-6 * math.Max(math.Abs(x), 1)
		// Step away from an active limit rather than across it.
		if b.upper && x+h > b.hi {
			h = -h
		}
		work[b.idx] = x + h
		r := f(work)
		work[b.idx] = x
		for i := 0; i < m; i++ {
			jac.Set(i, j, (r[i]-base[i])/h)
		}
	}

	var jtj mat.Dense
	jtj.Mul(jac.T(), jac)
	cov, err := pseudoInverse(&jtj)
	if err != nil {
		return nil, err
	}

	perr := make([]float64, n)
	for j := range binds {
		d := cov.At(j, j)
		if d < 0 {
			d = 0
		}
		perr[j] = math.Sqrt(d)
	}
	return perr, nil
}

// pseudoInverse computes the Moore-Penrose inverse of a via SVD, dropping
// singular values below a relative tolerance.
func pseudoInverse(a *mat.Dense) (*mat.Dense, error) {
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return nil, errors.New("lsq: SVD factorization failed")
	}
	n, _ := a.Dims()

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	sv := svd.Values(nil)

	tol := float64(n) * sv[0] * 1e-15
	inv := mat.NewDense(n, n, nil)
	for k, s := range sv {
		if s <= tol {
			continue
		}
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				inv.Set(i, j, inv.At(i, j)+v.At(i, k)*u.At(j, k)/s)
			}
		}
	}
	return inv, nil
}
