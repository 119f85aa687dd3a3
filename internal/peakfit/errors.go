package peakfit

import "errors"

var (
	// ErrResidualParams reports leftover values after decoding a parameter
	// vector; the vector length does not match the active flags.
	ErrResidualParams = errors.New("unconsumed parameters after decode")

	// ErrShortParams reports a parameter vector with too few values for the
	// active flags.
	ErrShortParams = errors.New("too few parameters")

	// ErrBadLength reports a configuration list whose length does not match
	// the parameter layout.
	ErrBadLength = errors.New("configuration list length mismatch")

	// ErrDegenerateInput reports moment estimation producing NaN, which
	// signals flat or otherwise degenerate data.
	ErrDegenerateInput = errors.New("degenerate input for moment estimation")

	// ErrSolver wraps a non-empty error message from the least-squares
	// engine.
	ErrSolver = errors.New("solver error")

	// ErrAnalyticDeriv is returned when a caller requests the
	// analytic-derivative fitting mode, which has never been implemented.
	ErrAnalyticDeriv = errors.New("analytic derivatives are not implemented")
)
