package lsq

import "math"

// binding maps one free parameter between the engine's unconstrained
// internal space and the bounded external space.
type binding struct {
	idx    int // position in the full parameter vector
	lower  bool
	upper  bool
	lo, hi float64
}

func makeBindings(params []Param) []binding {
	binds := make([]binding, 0, len(params))
	for i, p := range params {
		if p.Fixed {
			continue
		}
		binds = append(binds, binding{
			idx:   i,
			lower: p.Limited[0],
			upper: p.Limited[1],
			lo:    p.Limits[0],
			hi:    p.Limits[1],
		})
	}
	return binds
}

// external maps an internal value u to the bounded parameter value.
//
//	two-sided:  x = lo + (hi-lo) * (sin(u)+1)/2
//	lower only: x = lo - 1 + sqrt(u^2+1)
//	upper only: x = hi + 1 - sqrt(u^2+1)
func (b binding) external(u float64) float64 {
	switch {
	case b.lower && b.upper:
		return b.lo + (b.hi-b.lo)*(math.Sin(u)+1)/2
	case b.lower:
		return b.lo - 1 + math.Sqrt(u*u+1)
	case b.upper:
		return b.hi + 1 - math.Sqrt(u*u+1)
	default:
		return u
	}
}

// internal inverts external. x is assumed already clamped to the limits.
func (b binding) internal(x float64) float64 {
	switch {
	case b.lower && b.upper:
		frac := (x - b.lo) / (b.hi - b.lo)
		if frac < edgeMargin {
			frac = edgeMargin
		}
		if frac > 1-edgeMargin {
			frac = 1 - edgeMargin
		}
		return math.Asin(2*frac - 1)
	case b.lower:
		d := x - b.lo + 1
		if d < 1 {
			d = 1
		}
		// The hyperbolic mapping also has zero gradient at u = 0, so keep
		// starting points slightly off the limit.
		return math.Max(math.Sqrt(d*d-1), edgeMargin)
	case b.upper:
		d := b.hi - x + 1
		if d < 1 {
			d = 1
		}
		return math.Max(math.Sqrt(d*d-1), edgeMargin)
	default:
		return x
	}
}
