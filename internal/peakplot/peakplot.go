// Package peakplot renders fit inputs and results to image and HTML files.
//
// PNG output uses gonum/plot and is suited to reports; the HTML output uses
// go-echarts and is suited to interactive inspection of per-pixel cube maps.
package peakplot

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/peakfit/internal/grid"
)

// gridXYZ adapts a grid to the heat map data interface. Masked samples
// render as NaN, which the heat map leaves blank.
type gridXYZ struct {
	g *grid.Grid
}

func (d gridXYZ) Dims() (c, r int) { return d.g.NX, d.g.NY }
func (d gridXYZ) X(c int) float64  { return float64(c) }
func (d gridXYZ) Y(r int) float64  { return float64(r) }

func (d gridXYZ) Z(c, r int) float64 {
	if d.g.Masked(r, c) {
		return math.NaN()
	}
	return d.g.At(r, c)
}

// ImagePNG renders a grid as a heat map and writes it to path.
func ImagePNG(g *grid.Grid, title, path string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Column"
	p.Y.Label.Text = "Row"

	hm := plotter.NewHeatMap(gridXYZ{g}, palette.Heat(64, 1))
	p.Add(hm)

	if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("save heat map: %w", err)
	}
	return nil
}

// FitOverlayPNG renders a spectrum and its fitted model on one plot and
// writes it to path. The three slices share the abscissa; model may be nil
// to plot the data alone.
func FitOverlayPNG(xax, data, model []float64, title, path string) error {
	if len(xax) != len(data) || (model != nil && len(model) != len(data)) {
		return fmt.Errorf("fit overlay: mismatched series lengths %d/%d/%d", len(xax), len(data), len(model))
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Value"

	dataPts := make(plotter.XYs, len(data))
	for i := range data {
		dataPts[i] = plotter.XY{X: xax[i], Y: data[i]}
	}
	scatter, err := plotter.NewScatter(dataPts)
	if err != nil {
		return fmt.Errorf("build data series: %w", err)
	}
	scatter.Radius = vg.Points(2)
	p.Add(scatter)
	p.Legend.Add("data", scatter)

	if model != nil {
		modelPts := make(plotter.XYs, len(model))
		for i := range model {
			modelPts[i] = plotter.XY{X: xax[i], Y: model[i]}
		}
		line, err := plotter.NewLine(modelPts)
		if err != nil {
			return fmt.Errorf("build model series: %w", err)
		}
		line.Width = vg.Points(1)
		line.Color = color.RGBA{R: 220, G: 50, B: 30, A: 255}
		p.Add(line)
		p.Legend.Add("fit", line)
	}

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save fit overlay: %w", err)
	}
	return nil
}

// ResidualPNG renders the data-minus-model residual image and writes it to
// path. The two grids must have the same footprint.
func ResidualPNG(data, model *grid.Grid, title, path string) error {
	if data.NY != model.NY || data.NX != model.NX {
		return fmt.Errorf("residual image: data is %dx%d, model is %dx%d", data.NY, data.NX, model.NY, model.NX)
	}
	res := grid.New(data.NY, data.NX)
	res.Mask = data.Mask
	for i := range res.Data {
		res.Data[i] = data.Data[i] - model.Data[i]
	}
	return ImagePNG(res, title, path)
}
