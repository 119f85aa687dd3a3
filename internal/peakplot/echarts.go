package peakplot

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/peakfit/internal/grid"
	"github.com/banshee-data/peakfit/internal/peakfit"
)

// viridis is the shared color ramp for the value dimension of map charts.
var viridis = []string{
	"#440154", "#482777", "#3e4989", "#31688e", "#26828e",
	"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725",
}

// mapScatter renders one cube map as a pixel scatter colored by value.
// NaN pixels (no fit) are omitted entirely.
func mapScatter(g *grid.Grid, title string) *charts.Scatter {
	data := make([]opts.ScatterData, 0, len(g.Data))
	minV := math.Inf(1)
	maxV := math.Inf(-1)
	for iy := 0; iy < g.NY; iy++ {
		for ix := 0; ix < g.NX; ix++ {
			v := g.At(iy, ix)
			if grid.IsNaN(v) {
				continue
			}
			if v < minV {
				minV = v
			}
			if v > maxV {
				maxV = v
			}
			data = append(data, opts.ScatterData{Value: []interface{}{ix, iy, v}})
		}
	}
	if minV > maxV {
		minV, maxV = 0, 1
	}
	if minV == maxV {
		maxV = minV + 1
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "600px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("%d of %d pixels fit", len(data), len(g.Data))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -0.5, Max: float64(g.NX) - 0.5, Name: "Column"}),
		charts.WithYAxisOpts(opts.YAxis{Min: -0.5, Max: float64(g.NY) - 0.5, Name: "Row"}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(minV),
			Max:        float32(maxV),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	scatter.AddSeries(title, data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
	return scatter
}

// RenderCubeMaps writes an HTML page with one chart per cube map to w.
func RenderCubeMaps(maps *peakfit.CubeMaps, w io.Writer) error {
	page := components.NewPage()
	page.AddCharts(
		mapScatter(maps.Amp, "Amplitude"),
		mapScatter(maps.Offset, "Offset"),
		mapScatter(maps.Width, "Width"),
		mapScatter(maps.ChiSq, "Chi-square"),
	)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render cube maps: %w", err)
	}
	return nil
}

// CubeMapsHTML writes the cube map dashboard to an HTML file at path.
func CubeMapsHTML(maps *peakfit.CubeMaps, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create cube map report: %w", err)
	}
	defer f.Close()
	if err := RenderCubeMaps(maps, f); err != nil {
		return err
	}
	return f.Close()
}
