package trend

import (
	"fmt"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/sartorproj/climatrend/stats"
	"github.com/sartorproj/climatrend/timeseries"
)

const (
	plotWidth  = 8 * vg.Inch
	plotHeight = 10 * vg.Inch
)

// WriteDecompositionPNG renders the observed, trend, seasonal and residual
// components as four stacked panels.
func WriteDecompositionPNG(w io.Writer, d *stats.DecompositionResult) error {
	panels := []struct {
		title  string
		series *timeseries.Series
	}{
		{"Observed", d.Original},
		{"Trend", d.Trend},
		{"Seasonal", d.Seasonal},
		{"Residual", d.Residual},
	}

	plots := make([][]*plot.Plot, len(panels))
	for i, panel := range panels {
		p := plot.New()
		p.Y.Label.Text = panel.title
		if i == 0 {
			p.Title.Text = fmt.Sprintf("Temperature decomposition (period %d)", d.Period)
		}
		if i == len(panels)-1 {
			p.X.Label.Text = "Year"
		}

		points := finitePoints(panel.series)
		if len(points) > 0 {
			line, err := plotter.NewLine(points)
			if err != nil {
				return fmt.Errorf("%s panel: %w", panel.title, err)
			}
			p.Add(line)
		}
		if panel.title == "Residual" {
			p.Add(plotter.NewGrid())
		}
		plots[i] = []*plot.Plot{p}
	}

	img := vgimg.New(plotWidth, plotHeight)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      len(panels),
		Cols:      1,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 4,
		PadY:      vg.Millimeter * 3,
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}

	png := vgimg.PngCanvas{Canvas: img}
	_, err := png.WriteTo(w)
	return err
}

// finitePoints plots the series against its year, skipping undefined values.
func finitePoints(s *timeseries.Series) plotter.XYs {
	xys := make(plotter.XYs, 0, s.Len())
	for i, v := range s.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		xys = append(xys, plotter.XY{X: float64(s.Timestamps[i].Year()), Y: v})
	}
	return xys
}
