package peakfit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/banshee-data/peakfit/internal/grid"
)

func modeImage(t *testing.T, cfg Config, maxP, maxL int, params []float64, ny, nx int) *grid.Grid {
	t.Helper()
	e, err := cfg.ModeIntensity(maxP, maxL, params)
	require.NoError(t, err)
	return Image(e, ny, nx)
}

func TestFitModesFundamental(t *testing.T) {
	cfg := Config{Vheight: true}
	// Head [h, cx, cy, wx, wy] plus a single fundamental amplitude.
	truth := []float64{0, 32, 32, 6, 6, 1}
	data := modeImage(t, cfg, 0, 0, truth, 64, 64)

	res, err := FitModes2D(data, 0, 0, cfg, DefaultModeFitOptions())
	require.NoError(t, err)
	require.Len(t, res.Params, 6)
	require.InDelta(t, 0, res.Params[0], 1e-5, "height")
	require.InDelta(t, 32, res.Params[1], 1e-4, "xshift")
	require.InDelta(t, 32, res.Params[2], 1e-4, "yshift")
	require.InDelta(t, 6, res.Params[3], 1e-4, "xwidth")
	require.InDelta(t, 6, res.Params[4], 1e-4, "ywidth")
	require.InDelta(t, 1, res.Params[5], 1e-4, "fundamental amplitude")
	require.Equal(t, 64*64-6, res.DOF)
}

func TestFitModesTwoRadialOrders(t *testing.T) {
	cfg := Config{Vheight: true}
	truth := []float64{0, 32, 32, 5, 5, 0.8, 0.3}
	data := modeImage(t, cfg, 1, 0, truth, 64, 64)

	opt := DefaultModeFitOptions()
	opt.Params = []float64{0, 30, 30, 4, 4}
	opt.Amps = []float64{0.6, 0.1}
	res, err := FitModes2D(data, 1, 0, cfg, opt)
	require.NoError(t, err)
	require.Len(t, res.Params, 7)
	require.InDelta(t, 0.8, res.Params[5], 1e-3, "p=0 amplitude")
	require.InDelta(t, 0.3, res.Params[6], 1e-3, "p=1 amplitude")
	require.InDelta(t, 5, res.Params[3], 1e-3, "xwidth")
}

func TestFitModesAmplitudeBounds(t *testing.T) {
	cfg := Config{Vheight: true}
	truth := []float64{0, 24, 24, 5, 5, 1}
	data := modeImage(t, cfg, 0, 0, truth, 48, 48)

	// With both amplitude bounds active and the upper bound below the true
	// value, the fitted amplitude must saturate near the bound.
	opt := DefaultModeFitOptions()
	opt.Params = []float64{0, 24, 24, 5, 5}
	opt.Amps = []float64{0.5}
	opt.AmpMax = 0.7
	opt.AmpLimited = [2]bool{true, true}
	res, err := FitModes2D(data, 0, 0, cfg, opt)
	require.NoError(t, err)
	require.LessOrEqual(t, res.Params[5], 0.7)
	require.Greater(t, res.Params[5], 0.6)
}

func TestFitModesNoBackgroundLayout(t *testing.T) {
	cfg := Config{}
	truth := []float64{28, 28, 5, 5, 1}
	data := modeImage(t, cfg, 0, 0, truth, 56, 56)

	res, err := FitModes2D(data, 0, 0, cfg, DefaultModeFitOptions())
	require.NoError(t, err)
	// Caller layout: no height entry, so head is [cx, cy, wx, wy].
	require.Len(t, res.Params, 5)
	require.InDelta(t, 28, res.Params[0], 1e-4)
	require.InDelta(t, 1, res.Params[4], 1e-4)
}

func TestFitModesBadAmpCount(t *testing.T) {
	cfg := Config{Vheight: true}
	data := modeImage(t, cfg, 0, 0, []float64{0, 16, 16, 4, 4, 1}, 32, 32)

	opt := DefaultModeFitOptions()
	opt.Amps = []float64{1, 2, 3}
	_, err := FitModes2D(data, 0, 0, cfg, opt)
	require.ErrorIs(t, err, ErrBadLength)
}

func TestFitModesBadHeadLength(t *testing.T) {
	cfg := Config{Vheight: true}
	data := modeImage(t, cfg, 0, 0, []float64{0, 16, 16, 4, 4, 1}, 32, 32)

	opt := DefaultModeFitOptions()
	opt.Params = []float64{0, 16, 16, 4, 4, 9, 9}
	_, err := FitModes2D(data, 0, 0, cfg, opt)
	require.ErrorIs(t, err, ErrBadLength)

	// The same oversized head with a matching UseMoment mask must fail the
	// length check before the moment merge touches it.
	opt = DefaultModeFitOptions()
	opt.Params = []float64{0, 16, 16, 4, 4, 9, 9}
	opt.UseMoment = []bool{true, true, true, true, true, true, true}
	_, err = FitModes2D(data, 0, 0, cfg, opt)
	require.ErrorIs(t, err, ErrBadLength)
}

func TestFitModesAnalyticDeriv(t *testing.T) {
	opt := DefaultModeFitOptions()
	opt.AnalyticDeriv = true
	_, err := FitModes2D(grid.New(8, 8), 0, 0, Config{Vheight: true}, opt)
	require.ErrorIs(t, err, ErrAnalyticDeriv)
}
