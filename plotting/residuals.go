package plotting

import (
	"fmt"
	"image/color"
	"os"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/YuminosukeSato/statviz/pkg/errors"
)

const (
	residualFigWidth    = 10.21 // inches
	residualPanelHeight = 3.0   // inches per response
)

// ResidualFigure is a vertical stack of residual panels sharing one
// predictor axis. Panels run top to bottom in response-column order;
// only the bottom panel carries the predictor label.
type ResidualFigure struct {
	Panels []*plot.Plot
}

// Save renders the stacked panels to a PNG file with aligned axes.
func (f *ResidualFigure) Save(path string) error {
	if len(f.Panels) == 0 {
		return errors.NewModelError("ResidualFigure", "no panels", errors.ErrEmptyData)
	}

	img := vgimg.New(
		vg.Length(residualFigWidth)*vg.Inch,
		vg.Length(residualPanelHeight)*vg.Inch*vg.Length(len(f.Panels)),
	)
	dc := draw.New(img)

	rows := make([][]*plot.Plot, len(f.Panels))
	for i, p := range f.Panels {
		rows[i] = []*plot.Plot{p}
	}
	tiles := draw.Tiles{
		Rows: len(f.Panels),
		Cols: 1,
		PadY: vg.Points(4),
	}
	canvases := plot.Align(rows, tiles, dc)
	for i, p := range f.Panels {
		p.Draw(canvases[i][0])
	}

	w, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "residual figure")
	}
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		w.Close()
		return errors.Wrap(err, "residual figure")
	}
	return w.Close()
}

// ResidualPlots builds one figure per predictor column of X, each
// stacking a residual scatter (prediction minus actual, against the
// predictor) for every response column of Y. Label and unit options
// follow the response columns via WithLabels/WithUnits and the
// predictor columns via WithXLabels/WithXUnits; option lengths, when
// given, must match the corresponding column counts.
func ResidualPlots(X, Y, Yp mat.Matrix, opts ...Option) ([]*ResidualFigure, error) {
	o := newOptions(opts)

	yr, yc := Y.Dims()
	pr, pc := Yp.Dims()
	if yr != pr || yc != pc {
		return nil, errors.NewDimensionError("ResidualPlots", yr*yc, pr*pc, 0)
	}
	xr, xc := X.Dims()
	if xr != yr {
		return nil, errors.NewDimensionError("ResidualPlots", yr, xr, 0)
	}
	if xr == 0 || xc == 0 || yc == 0 {
		return nil, errors.NewModelError("ResidualPlots", "empty data", errors.ErrEmptyData)
	}
	if o.labels != nil && len(o.labels) != yc {
		return nil, errors.NewDimensionError("ResidualPlots: labels", yc, len(o.labels), 1)
	}
	if o.units != nil && len(o.units) != yc {
		return nil, errors.NewDimensionError("ResidualPlots: units", yc, len(o.units), 1)
	}
	if o.xLabels != nil && len(o.xLabels) != xc {
		return nil, errors.NewDimensionError("ResidualPlots: x labels", xc, len(o.xLabels), 1)
	}
	if o.xUnits != nil && len(o.xUnits) != xc {
		return nil, errors.NewDimensionError("ResidualPlots: x units", xc, len(o.xUnits), 1)
	}

	figures := make([]*ResidualFigure, xc)
	for xi := 0; xi < xc; xi++ {
		fig := &ResidualFigure{Panels: make([]*plot.Plot, yc)}
		for yi := 0; yi < yc; yi++ {
			p := plot.New()

			xys := make(plotter.XYs, xr)
			for i := 0; i < xr; i++ {
				xys[i] = plotter.XY{
					X: X.At(i, xi),
					Y: Yp.At(i, yi) - Y.At(i, yi),
				}
			}
			scatter, err := plotter.NewScatter(xys)
			if err != nil {
				return nil, errors.Wrap(err, "residual scatter")
			}
			scatter.GlyphStyle.Radius = vg.Points(1.5)
			scatter.GlyphStyle.Color = plotutil.Color(0)
			p.Add(scatter)

			zero, err := plotter.NewLine(plotter.XYs{
				{X: xMin(X, xi), Y: 0},
				{X: xMax(X, xi), Y: 0},
			})
			if err != nil {
				return nil, errors.Wrap(err, "residual zero line")
			}
			zero.LineStyle.Color = color.Gray{Y: 128}
			zero.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
			p.Add(zero)

			p.Y.Label.Text = residualAxisLabel(o, yi)
			if yi == yc-1 {
				p.X.Label.Text = predictorAxisLabel(o, xi)
			}
			fig.Panels[yi] = p
		}
		figures[xi] = fig
	}
	return figures, nil
}

func residualAxisLabel(o *options, yi int) string {
	name := fmt.Sprintf("Response %d", yi)
	if o.labels != nil {
		name = o.labels[yi]
	}
	label := name + " Error"
	if o.units != nil && o.units[yi] != "" {
		label += " (" + o.units[yi] + ")"
	}
	return label
}

func predictorAxisLabel(o *options, xi int) string {
	name := fmt.Sprintf("Predictor %d", xi)
	if o.xLabels != nil {
		name = o.xLabels[xi]
	}
	if o.xUnits != nil && o.xUnits[xi] != "" {
		name += " (" + o.xUnits[xi] + ")"
	}
	return name
}

func xMin(m mat.Matrix, col int) float64 {
	r, _ := m.Dims()
	v := m.At(0, col)
	for i := 1; i < r; i++ {
		if m.At(i, col) < v {
			v = m.At(i, col)
		}
	}
	return v
}

func xMax(m mat.Matrix, col int) float64 {
	r, _ := m.Dims()
	v := m.At(0, col)
	for i := 1; i < r; i++ {
		if m.At(i, col) > v {
			v = m.At(i, col)
		}
	}
	return v
}
