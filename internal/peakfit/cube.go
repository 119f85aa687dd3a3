package peakfit

import (
	"fmt"
	"log"
	"math"
	"time"

	"github.com/banshee-data/peakfit/internal/grid"
)

// CubeOptions configures a per-pixel cube fit. Use DefaultCubeOptions as
// the starting point.
type CubeOptions struct {
	// XAxis is the shared spectral abscissa; nil means channel indices.
	XAxis []float64
	// NegAmp forces every per-pixel fit to look for a negative peak.
	NegAmp bool
	// UseMoments seeds each per-pixel fit from moment estimates.
	UseMoments bool
	// NSigCut gates which spectra are fit at all: a pixel is fit only when
	// its peak absolute value exceeds NSigCut times the cube's median
	// per-pixel standard deviation.
	NSigCut float64
	// MPPSigCut gates which fits are accepted: a result is written only
	// when the fitted amplitude exceeds MPPSigCut times its own error.
	MPPSigCut float64
	// Vheight lets the per-pixel background float.
	Vheight bool
	Quiet   bool
}

// DefaultCubeOptions returns the standard cube fit configuration.
func DefaultCubeOptions() CubeOptions {
	return CubeOptions{
		UseMoments: true,
		NSigCut:    1,
		MPPSigCut:  1,
		Vheight:    true,
		Quiet:      true,
	}
}

// CubeMaps holds the per-pixel fit results over the cube's spatial
// footprint. Every map is NaN where no fit was attempted or the fit was
// rejected by the significance gates.
type CubeMaps struct {
	Width  *grid.Grid
	Offset *grid.Grid
	Amp    *grid.Grid
	ChiSq  *grid.Grid

	WidthErr  *grid.Grid
	OffsetErr *grid.Grid
	AmpErr    *grid.Grid
}

// FitCube runs the single-spectrum fit over every spatial pixel of the
// cube, in row-major order. Pixels whose spectra fail the significance gate
// are skipped silently; a fit error at any pixel aborts the whole batch and
// is returned wrapped with the pixel coordinates. That all-or-nothing
// policy keeps a partial result from being mistaken for a complete one.
func FitCube(f Shape1D, cube *grid.Cube, opt CubeOptions) (*CubeMaps, error) {
	std := grid.ChannelStdDev(cube)
	for i, v := range std.Data {
		// All-zero spectra carry no information; keep them out of the
		// noise estimate.
		if v == 0 {
			std.Data[i] = math.NaN()
		}
	}
	meanStd := grid.Median(std.Data)
	if math.IsNaN(meanStd) {
		return nil, fmt.Errorf("%w: no varying spectra in cube", ErrDegenerateInput)
	}

	maps := &CubeMaps{
		Width:     grid.NewFilled(cube.NY, cube.NX, math.NaN()),
		Offset:    grid.NewFilled(cube.NY, cube.NX, math.NaN()),
		Amp:       grid.NewFilled(cube.NY, cube.NX, math.NaN()),
		ChiSq:     grid.NewFilled(cube.NY, cube.NX, math.NaN()),
		WidthErr:  grid.NewFilled(cube.NY, cube.NX, math.NaN()),
		OffsetErr: grid.NewFilled(cube.NY, cube.NX, math.NaN()),
		AmpErr:    grid.NewFilled(cube.NY, cube.NX, math.NaN()),
	}

	errLine := make([]float64, cube.NChan)
	for i := range errLine {
		errLine[i] = meanStd
	}
	fitOpt := DefaultFit1DOptions()
	fitOpt.Err = errLine
	fitOpt.UseMoments = opt.UseMoments
	fitOpt.NegAmp = &opt.NegAmp
	fitOpt.Vheight = opt.Vheight
	fitOpt.Quiet = true

	gate := meanStd * opt.NSigCut
	spec := make([]float64, cube.NChan)
	start := time.Now()
	total := 0
	for iy := 0; iy < cube.NY; iy++ {
		rowStart := time.Now()
		fitted := 0
		for ix := 0; ix < cube.NX; ix++ {
			cube.Spectrum(iy, ix, spec)
			if math.Abs(peakValue(spec, opt.NegAmp)) <= gate {
				continue
			}
			res, err := FitPeak1D(f, opt.XAxis, spec, fitOpt)
			if err != nil {
				return nil, fmt.Errorf("fit at pixel (%d,%d): %w", iy, ix, err)
			}
			fitted++
			if math.Abs(res.Params[1]) > res.Perror[1]*opt.MPPSigCut {
				maps.Amp.Set(iy, ix, res.Params[1])
				maps.Offset.Set(iy, ix, res.Params[2])
				maps.Width.Set(iy, ix, res.Params[3])
				maps.ChiSq.Set(iy, ix, res.ChiSq)
				maps.AmpErr.Set(iy, ix, res.Perror[1])
				maps.OffsetErr.Set(iy, ix, res.Perror[2])
				maps.WidthErr.Set(iy, ix, res.Perror[3])
			}
		}
		total += fitted
		if !opt.Quiet && fitted > 0 {
			log.Printf("cube row %d: fit %d spectra in %v", iy, fitted, time.Since(rowStart).Round(time.Millisecond))
		}
	}
	if !opt.Quiet {
		log.Printf("cube fit: %d spectra in %v", total, time.Since(start).Round(time.Millisecond))
	}
	return maps, nil
}

// peakValue returns the spectrum's extremum: the minimum when a negative
// peak is expected, the maximum otherwise.
func peakValue(spec []float64, negative bool) float64 {
	v := spec[0]
	for _, s := range spec[1:] {
		if negative && s < v || !negative && s > v {
			v = s
		}
	}
	return v
}
