package peakfit

import (
	"fmt"
	"log"
	"math"

	"github.com/banshee-data/peakfit/internal/grid"
)

// MomentOptions tunes moment estimation. The zero value estimates the
// background with the median and autodetects the peak sign.
type MomentOptions struct {
	// Estimator measures the background level. Defaults to the median.
	Estimator func([]float64) float64
	// NegAmp forces the peak negative (true) or positive (false); nil
	// autodetects from the data.
	NegAmp *bool
	// Verbose logs the candidate estimates for both branches.
	Verbose bool
}

// Moments1D estimates [height?, amplitude, center, width] for a single 1D
// peak from weighted statistics, with no iteration. The abscissa is assumed
// to be a regular grid. mask may be nil; masked samples are ignored. The
// height entry is present only when vheight is true.
//
// The amplitude and width are estimated twice, once assuming a
// positive-going and once a negative-going peak, by integrating the data
// above/below the background and dividing by the candidate amplitude. The
// branch whose abscissa values cluster more tightly around the extremum is
// selected unless NegAmp forces one. Returns ErrDegenerateInput when any of
// height, amplitude, or width comes out NaN (e.g. perfectly flat data).
func Moments1D(xax, data []float64, mask []bool, vheight bool, opt MomentOptions) ([]float64, error) {
	if len(xax) != len(data) {
		return nil, fmt.Errorf("%w: %d abscissa values for %d samples", ErrBadLength, len(xax), len(data))
	}
	est := opt.Estimator
	if est == nil {
		est = grid.Median
	}

	xs := xax
	ys := data
	if mask != nil {
		xs = make([]float64, 0, len(xax))
		ys = make([]float64, 0, len(data))
		for i := range data {
			if !mask[i] {
				xs = append(xs, xax[i])
				ys = append(ys, data[i])
			}
		}
	}
	if len(ys) < 2 {
		return nil, fmt.Errorf("%w: only %d valid samples", ErrDegenerateInput, len(ys))
	}

	// Grid spacing from mean abscissa difference; a regular grid is assumed.
	dx := (xs[len(xs)-1] - xs[0]) / float64(len(xs)-1)
	height := est(ys)

	var integral, aboveSum, belowSum float64
	minIdx, maxIdx := 0, 0
	for i, v := range ys {
		integral += v * dx
		if v > height {
			aboveSum += v * dx
		}
		if v < height {
			belowSum += v * dx
		}
		if v < ys[minIdx] {
			minIdx = i
		}
		if v > ys[maxIdx] {
			maxIdx = i
		}
	}
	baseline := height * float64(len(ys)) * dx

	lowAmp := ys[minIdx] - height
	lowWidth := 0.5 * math.Abs((integral-baseline-aboveSum)/lowAmp)
	highAmp := ys[maxIdx] - height
	highWidth := 0.5 * math.Abs((integral-baseline-belowSum)/highAmp)

	mean, _ := grid.MeanStdDev(ys)
	var lowXs, highXs []float64
	for i, v := range ys {
		if v < mean {
			lowXs = append(lowXs, xs[i])
		} else if v > mean {
			highXs = append(highXs, xs[i])
		}
	}
	_, lowStd := grid.MeanStdDev(lowXs)
	_, highStd := grid.MeanStdDev(highXs)

	if opt.Verbose {
		log.Printf("moments: low amp=%g width=%g std=%g; high amp=%g width=%g std=%g",
			lowAmp, lowWidth, lowStd, highAmp, highWidth, highStd)
	}

	var amp, center, width float64
	negative := opt.NegAmp != nil && *opt.NegAmp
	if opt.NegAmp == nil {
		// Tighter abscissa dispersion marks the true peak side.
		negative = !(highStd < lowStd)
	}
	if negative {
		amp, center, width = lowAmp, xs[minIdx], lowWidth
	} else {
		amp, center, width = highAmp, xs[maxIdx], highWidth
	}

	if math.IsNaN(width) || math.IsNaN(height) || math.IsNaN(amp) {
		return nil, fmt.Errorf("%w: height=%g amplitude=%g width=%g", ErrDegenerateInput, height, amp, width)
	}
	if vheight {
		return []float64{height, amp, center, width}, nil
	}
	return []float64{amp, center, width}, nil
}

// Moments2D estimates a single-peak parameter vector for a 2D grid in the
// layout selected by cfg: background from the median, amplitude from the
// largest deviation, center at the extremum-weighted centroid, and widths
// from intensity-weighted second moments. The rotation guess, when present,
// is zero.
func Moments2D(g *grid.Grid, cfg Config) ([]float64, error) {
	height := grid.Median(g.Valid())

	// Pick the peak sign from the larger absolute deviation.
	var maxDev, minDev float64
	for i, v := range g.Data {
		if g.Mask != nil && g.Mask[i] {
			continue
		}
		d := v - height
		if d > maxDev {
			maxDev = d
		}
		if d < minDev {
			minDev = d
		}
	}
	amp := maxDev
	if -minDev > maxDev {
		amp = minDev
	}

	// Intensity-weighted centroid and second moments over the peak-side
	// deviations.
	var wSum, cx, cy float64
	weight := func(v float64) float64 {
		d := v - height
		if amp < 0 {
			d = -d
		}
		if d < 0 {
			return 0
		}
		return d
	}
	for iy := 0; iy < g.NY; iy++ {
		for ix := 0; ix < g.NX; ix++ {
			if g.Masked(iy, ix) {
				continue
			}
			w := weight(g.At(iy, ix))
			wSum += w
			cx += w * float64(iy)
			cy += w * float64(ix)
		}
	}
	cx /= wSum
	cy /= wSum

	var wx, wy float64
	for iy := 0; iy < g.NY; iy++ {
		for ix := 0; ix < g.NX; ix++ {
			if g.Masked(iy, ix) {
				continue
			}
			w := weight(g.At(iy, ix))
			wx += w * (float64(iy) - cx) * (float64(iy) - cx)
			wy += w * (float64(ix) - cy) * (float64(ix) - cy)
		}
	}
	wx = math.Sqrt(wx / wSum)
	wy = math.Sqrt(wy / wSum)

	if math.IsNaN(height) || math.IsNaN(amp) || math.IsNaN(wx) || math.IsNaN(wy) ||
		math.IsNaN(cx) || math.IsNaN(cy) {
		return nil, fmt.Errorf("%w: height=%g amplitude=%g widths=(%g,%g)", ErrDegenerateInput, height, amp, wx, wy)
	}

	out := make([]float64, 0, 7)
	if cfg.Vheight {
		out = append(out, height)
	}
	out = append(out, amp, cx, cy)
	if cfg.Circle {
		out = append(out, (wx+wy)/2)
	} else {
		out = append(out, wx, wy)
		if cfg.Rotate {
			out = append(out, 0)
		}
	}
	return out, nil
}
