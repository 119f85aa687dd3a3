package peakfit

import "fmt"

// PeakParams is a decoded single-peak parameter vector.
type PeakParams struct {
	Height    float64
	Amplitude float64
	CenterX   float64 // along the first (row) coordinate
	CenterY   float64 // along the second (column) coordinate
	WidthX    float64
	WidthY    float64
	Rotation  float64 // degrees; meaningful only when Rotated
	Rotated   bool
}

// ModeParams is a decoded multimode parameter vector. Amps is the
// (maxP+1) x (maxL+1) mode amplitude matrix in row-major (p, l) order.
type ModeParams struct {
	Height   float64
	CenterX  float64
	CenterY  float64
	WidthX   float64
	WidthY   float64
	Rotation float64
	Rotated  bool
	Amps     [][]float64
}

// popper consumes a parameter vector left to right, tracking the original
// input for error reporting.
type popper struct {
	vals []float64
	orig []float64
	cfg  Config
}

func (p *popper) pop(name string) (float64, error) {
	if len(p.vals) == 0 {
		return 0, fmt.Errorf("%w: missing %s in %v (%s)", ErrShortParams, name, p.orig, p.cfg)
	}
	v := p.vals[0]
	p.vals = p.vals[1:]
	return v, nil
}

func (p *popper) finish() error {
	if len(p.vals) > 0 {
		return fmt.Errorf("%w: %v left over from input %v (%s)", ErrResidualParams, p.vals, p.orig, p.cfg)
	}
	return nil
}

// DecodePeak decodes a flat single-peak parameter vector according to the
// configuration flags. A vector with leftover values is a configuration
// error naming the residual values and the active flags.
func (c Config) DecodePeak(params []float64) (PeakParams, error) {
	pp := popper{vals: params, orig: params, cfg: c}
	var out PeakParams
	var err error

	if c.Vheight {
		if out.Height, err = pp.pop("HEIGHT"); err != nil {
			return out, err
		}
	}
	if out.Amplitude, err = pp.pop("AMPLITUDE"); err != nil {
		return out, err
	}
	if out.CenterX, err = pp.pop("XSHIFT"); err != nil {
		return out, err
	}
	if out.CenterY, err = pp.pop("YSHIFT"); err != nil {
		return out, err
	}
	if err = c.decodeWidths(&pp, &out.WidthX, &out.WidthY, &out.Rotation, &out.Rotated); err != nil {
		return out, err
	}
	return out, pp.finish()
}

// DecodeModes decodes a flat multimode parameter vector. The amplitude
// block is taken from the vector's tail first; the head is then consumed
// left to right like a single-peak vector without an amplitude field.
func (c Config) DecodeModes(maxP, maxL int, params []float64) (ModeParams, error) {
	var out ModeParams
	nAmp := NumModes(maxP, maxL)
	if len(params) < nAmp {
		return out, fmt.Errorf("%w: %d mode amplitudes required, input %v (%s)",
			ErrShortParams, nAmp, params, c)
	}
	tail := params[len(params)-nAmp:]
	out.Amps = make([][]float64, maxP+1)
	for p := 0; p <= maxP; p++ {
		out.Amps[p] = make([]float64, maxL+1)
		copy(out.Amps[p], tail[p*(maxL+1):(p+1)*(maxL+1)])
	}

	pp := popper{vals: params[:len(params)-nAmp], orig: params, cfg: c}
	var err error
	if c.Vheight {
		if out.Height, err = pp.pop("HEIGHT"); err != nil {
			return out, err
		}
	}
	if out.CenterX, err = pp.pop("XSHIFT"); err != nil {
		return out, err
	}
	if out.CenterY, err = pp.pop("YSHIFT"); err != nil {
		return out, err
	}
	if err = c.decodeWidths(&pp, &out.WidthX, &out.WidthY, &out.Rotation, &out.Rotated); err != nil {
		return out, err
	}
	return out, pp.finish()
}

func (c Config) decodeWidths(pp *popper, wx, wy, rot *float64, rotated *bool) error {
	if c.Circle {
		w, err := pp.pop("WIDTH")
		if err != nil {
			return err
		}
		*wx, *wy = w, w
		*rotated = false
		return nil
	}
	var err error
	if *wx, err = pp.pop("XWIDTH"); err != nil {
		return err
	}
	if *wy, err = pp.pop("YWIDTH"); err != nil {
		return err
	}
	if c.Rotate {
		if *rot, err = pp.pop("ROTATION"); err != nil {
			return err
		}
		*rotated = true
	}
	return nil
}
