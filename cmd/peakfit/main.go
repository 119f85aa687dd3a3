// Command peakfit fits parametric peaks to spectra, images, and cubes.
//
// It can synthesize test data or load a CSV spectrum, run the fit drivers,
// and write plots plus an HTML report into a per-run output directory.
//
// Examples:
//
//	peakfit -mode fit2d -out plots
//	peakfit -mode fit1d -csv spectrum.csv -out plots
//	peakfit -mode cube -out plots
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/peakfit/internal/grid"
	"github.com/banshee-data/peakfit/internal/peakfit"
	"github.com/banshee-data/peakfit/internal/peakplot"
)

func main() {
	mode := flag.String("mode", "fit2d", "Operation: fit2d, fit1d, multipeak, or cube")
	csvPath := flag.String("csv", "", "CSV spectrum to fit (x,y per line); synthesized data when empty")
	out := flag.String("out", "plots", "Output directory root")
	shapeName := flag.String("shape", "gaussian", "Peak shape: gaussian or lorentzian")
	rotate := flag.Bool("rotate", false, "Fit a rotation angle (2D)")
	circle := flag.Bool("circle", false, "Force a circular peak (2D)")
	vheight := flag.Bool("vheight", true, "Fit a constant background level")
	npeak := flag.Int("npeak", 2, "Peak count for multipeak mode")
	verbose := flag.Bool("v", false, "Log per-parameter fit results")
	flag.Parse()

	shape, err := shapeByName(*shapeName)
	if err != nil {
		log.Fatal(err)
	}

	// Per-run output directory, timestamped with a short unique suffix so
	// repeated runs in the same second do not collide.
	runID := strings.Split(uuid.NewString(), "-")[0]
	outDir := filepath.Join(*out, time.Now().Format("20060102_150405")+"_"+runID)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		log.Fatalf("create output dir: %v", err)
	}
	log.Printf("writing results to %s", outDir)

	cfg := peakfit.Config{Circle: *circle, Rotate: *rotate, Vheight: *vheight}

	switch *mode {
	case "fit2d":
		err = runFit2D(shape, cfg, outDir, !*verbose)
	case "fit1d":
		err = runFit1D(shape, *csvPath, *vheight, outDir, !*verbose)
	case "multipeak":
		err = runMultiPeak(shape, *csvPath, *npeak, outDir, !*verbose)
	case "cube":
		err = runCube(shape, *vheight, outDir, !*verbose)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func shapeByName(name string) (peakfit.Shape1D, error) {
	switch name {
	case "gaussian":
		return peakfit.Gaussian1D, nil
	case "lorentzian":
		return peakfit.Lorentzian1D, nil
	}
	return nil, fmt.Errorf("unknown shape %q", name)
}

// runFit2D fits a synthesized elliptical peak and writes the data, model,
// and residual images.
func runFit2D(shape peakfit.Shape1D, cfg peakfit.Config, outDir string, quiet bool) error {
	truth := synthPeakParams(cfg)
	eval, err := cfg.Peak2D(shape, truth)
	if err != nil {
		return err
	}
	data := peakfit.Image(eval, 128, 128)

	res, err := peakfit.FitPeak2D(shape, data, cfg, peakfit.FitOptions{WantImage: true, Quiet: quiet})
	if err != nil {
		return fmt.Errorf("2d fit: %w", err)
	}
	printParams(cfg.PeakFields(), res.Params, res.Perror)
	log.Printf("chi2=%g reduced=%g dof=%d", res.ChiSq, res.RedChiSq, res.DOF)

	if err := peakplot.ImagePNG(data, "Data", filepath.Join(outDir, "data.png")); err != nil {
		return err
	}
	if err := peakplot.ImagePNG(res.Image, "Best fit", filepath.Join(outDir, "model.png")); err != nil {
		return err
	}
	return peakplot.ResidualPNG(data, res.Image, "Residual", filepath.Join(outDir, "residual.png"))
}

// runFit1D fits a single peak to a CSV spectrum, or to a synthesized one
// when no file was given, and writes the fit overlay.
func runFit1D(shape peakfit.Shape1D, csvPath string, vheight bool, outDir string, quiet bool) error {
	xax, data, err := loadOrSynthSpectrum(csvPath, shape)
	if err != nil {
		return err
	}

	opt := peakfit.DefaultFit1DOptions()
	opt.UseMoments = true
	opt.Vheight = vheight
	opt.Quiet = quiet
	res, err := peakfit.FitPeak1D(shape, xax, data, opt)
	if err != nil {
		return fmt.Errorf("1d fit: %w", err)
	}
	for i, name := range []string{"HEIGHT", "AMPLITUDE", "SHIFT", "WIDTH"} {
		log.Printf("  %-10s %12.6g +/- %.6g", name, res.Params[i], res.Perror[i])
	}
	log.Printf("chi2=%g reduced=%g dof=%d", res.ChiSq, res.RedChiSq, res.DOF)

	return peakplot.FitOverlayPNG(xax, data, res.Model, "Spectrum fit", filepath.Join(outDir, "fit1d.png"))
}

// runMultiPeak fits npeak peaks to a CSV spectrum or a synthesized blend.
func runMultiPeak(shape peakfit.Shape1D, csvPath string, npeak int, outDir string, quiet bool) error {
	var xax, data []float64
	var err error
	if csvPath != "" {
		xax, data, err = loadSpectrumCSV(csvPath)
		if err != nil {
			return err
		}
	} else {
		sum, serr := peakfit.SumPeaks1D(shape, []float64{3, 30, 4, 2, 70, 6})
		if serr != nil {
			return serr
		}
		xax = make([]float64, 110)
		data = make([]float64, 110)
		for i := range xax {
			xax[i] = float64(i)
			data[i] = sum(xax[i])
		}
		npeak = 2
	}

	// Spread the starting centers across the abscissa so the peaks do not
	// collapse onto each other.
	params := make([]float64, 0, 3*npeak)
	span := xax[len(xax)-1] - xax[0]
	for i := 0; i < npeak; i++ {
		params = append(params, 1, xax[0]+span*float64(i+1)/float64(npeak+1), span/20)
	}

	res, err := peakfit.FitMultiPeak(shape, xax, data, npeak, peakfit.MultiPeakOptions{
		Params: params,
		Quiet:  quiet,
	})
	if err != nil {
		return fmt.Errorf("multipeak fit: %w", err)
	}
	for i := 0; i < len(res.Params)/3; i++ {
		log.Printf("  peak %d: amp=%.6g shift=%.6g width=%.6g",
			i, res.Params[3*i], res.Params[3*i+1], res.Params[3*i+2])
	}
	log.Printf("chi2=%g reduced=%g dof=%d", res.ChiSq, res.RedChiSq, res.DOF)

	return peakplot.FitOverlayPNG(xax, data, res.Model, "Multi-peak fit", filepath.Join(outDir, "multipeak.png"))
}

// runCube fits every spectrum of a synthesized cube and writes the
// parameter maps as an HTML report.
func runCube(shape peakfit.Shape1D, vheight bool, outDir string, quiet bool) error {
	cube := synthCube(shape)

	opt := peakfit.DefaultCubeOptions()
	opt.Vheight = vheight
	opt.Quiet = quiet
	start := time.Now()
	maps, err := peakfit.FitCube(shape, cube, opt)
	if err != nil {
		return fmt.Errorf("cube fit: %w", err)
	}
	log.Printf("cube fit finished in %v", time.Since(start).Round(time.Millisecond))

	path := filepath.Join(outDir, "cube_maps.html")
	if err := peakplot.CubeMapsHTML(maps, path); err != nil {
		return err
	}
	log.Printf("cube maps written to %s", path)
	return nil
}

// synthPeakParams returns a demonstration truth vector in cfg's layout.
func synthPeakParams(cfg peakfit.Config) []float64 {
	out := make([]float64, 0, 7)
	if cfg.Vheight {
		out = append(out, 0.1)
	}
	out = append(out, 1, 64, 64)
	if cfg.Circle {
		return append(out, 8)
	}
	out = append(out, 6, 10)
	if cfg.Rotate {
		out = append(out, 30)
	}
	return out
}

// synthCube builds a small cube with peaks on a diagonal stripe.
func synthCube(shape peakfit.Shape1D) *grid.Cube {
	cube := grid.NewCube(64, 16, 16)
	for d := 0; d < 16; d++ {
		amp := 5 + float64(d)/4
		shift := 20 + float64(d)
		for chn := 0; chn < cube.NChan; chn++ {
			v := peakfit.Peak1D(shape, float64(chn), 0, amp, shift, 3)
			cube.Set(chn, d, d, v)
		}
	}
	return cube
}

func loadOrSynthSpectrum(csvPath string, shape peakfit.Shape1D) (xax, data []float64, err error) {
	if csvPath != "" {
		return loadSpectrumCSV(csvPath)
	}
	xax = make([]float64, 120)
	data = make([]float64, 120)
	for i := range xax {
		xax[i] = float64(i)
		data[i] = peakfit.Peak1D(shape, xax[i], 0.2, 3, 60, 7)
	}
	return xax, data, nil
}

// loadSpectrumCSV reads an x,y spectrum. A non-numeric first row is treated
// as a header and skipped.
func loadSpectrumCSV(path string) (xax, data []float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	for i, row := range rows {
		if len(row) < 2 {
			return nil, nil, fmt.Errorf("%s row %d: want x,y columns, got %d", path, i+1, len(row))
		}
		x, xerr := strconv.ParseFloat(strings.TrimSpace(row[0]), 64)
		y, yerr := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if xerr != nil || yerr != nil {
			if i == 0 {
				continue // header
			}
			return nil, nil, fmt.Errorf("%s row %d: non-numeric values", path, i+1)
		}
		xax = append(xax, x)
		data = append(data, y)
	}
	if len(data) == 0 {
		return nil, nil, fmt.Errorf("%s: no samples", path)
	}
	return xax, data, nil
}

func printParams(fields []string, params, perror []float64) {
	for i, name := range fields {
		log.Printf("  %-10s %12.6g +/- %.6g", name, params[i], perror[i])
	}
}
