package grid

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Median returns the median of xs, ignoring NaN values. It returns NaN when
// no finite values remain. The input slice is not modified.
func Median(xs []float64) float64 {
	vals := make([]float64, 0, len(xs))
	for _, v := range xs {
		if !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return math.NaN()
	}
	sort.Float64s(vals)
	return stat.Quantile(0.5, stat.Empirical, vals, nil)
}

// MeanStdDev returns the mean and population standard deviation of xs.
// Returns (0, 0) for empty input.
func MeanStdDev(xs []float64) (mean, std float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	mean = stat.Mean(xs, nil)
	var ss float64
	for _, v := range xs {
		d := v - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(xs)))
}

// ChannelStdDev returns a grid holding, for each pixel, the standard
// deviation of that pixel's spectrum across the cube's spectral axis.
func ChannelStdDev(c *Cube) *Grid {
	out := New(c.NY, c.NX)
	spec := make([]float64, c.NChan)
	for iy := 0; iy < c.NY; iy++ {
		for ix := 0; ix < c.NX; ix++ {
			c.Spectrum(iy, ix, spec)
			_, std := MeanStdDev(spec)
			out.Set(iy, ix, std)
		}
	}
	return out
}
