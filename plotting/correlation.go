package plotting

import (
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/statviz/metrics"
	"github.com/YuminosukeSato/statviz/pkg/errors"
)

// CorrelationPlot builds one actual-vs-predicted scatter figure per
// response column, with square axis limits, a dashed identity line, and a
// stat box reporting RMSE, R2 and MAE. Y and Yp may be column matrices,
// vectors, or row vectors; labels and units, when given, must match the
// number of response columns.
func CorrelationPlot(Y, Yp mat.Matrix, opts ...Option) ([]*plot.Plot, error) {
	o := newOptions(opts)

	if rr, cc := Y.Dims(); rr == 0 || cc == 0 {
		return nil, errors.NewModelError("CorrelationPlot", "empty data", errors.ErrEmptyData)
	}
	if rr, cc := Yp.Dims(); rr == 0 || cc == 0 {
		return nil, errors.NewModelError("CorrelationPlot", "empty data", errors.ErrEmptyData)
	}

	y := asColumns(Y)
	yp := asColumns(Yp)

	r, c := y.Dims()
	rp, cp := yp.Dims()
	if r != rp || c != cp {
		return nil, errors.NewDimensionError("CorrelationPlot", r, rp, 0)
	}
	if o.labels != nil && len(o.labels) != c {
		return nil, errors.NewDimensionError("CorrelationPlot: labels", c, len(o.labels), 1)
	}
	if o.units != nil && len(o.units) != c {
		return nil, errors.NewDimensionError("CorrelationPlot: units", c, len(o.units), 1)
	}

	figs := make([]*plot.Plot, 0, c)
	for j := 0; j < c; j++ {
		yj := colVec(y, j)
		ypj := colVec(yp, j)

		rmse, err := metrics.RMSE(yj, ypj)
		if err != nil {
			return nil, err
		}
		mae, err := metrics.MAE(yj, ypj)
		if err != nil {
			return nil, err
		}
		pearson, err := metrics.PearsonR(yj, ypj)
		if err != nil {
			return nil, err
		}
		r2 := pearson * pearson

		p := plot.New()

		xys := make(plotter.XYs, r)
		for i := 0; i < r; i++ {
			xys[i] = plotter.XY{X: yj.AtVec(i), Y: ypj.AtVec(i)}
		}
		scatter, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, errors.Wrap(err, "CorrelationPlot")
		}
		scatter.GlyphStyle.Radius = vg.Points(1.5)
		scatter.GlyphStyle.Color = plotutil.Color(0)
		p.Add(scatter)

		// Square limits spanning both axes.
		lo, hi := dataRange(yj, ypj)
		pad := 0.02 * (hi - lo)
		if pad == 0 {
			pad = 1
		}
		p.X.Min, p.X.Max = lo-pad, hi+pad
		p.Y.Min, p.Y.Max = lo-pad, hi+pad

		identity, err := plotter.NewLine(plotter.XYs{
			{X: p.X.Min, Y: p.Y.Min},
			{X: p.X.Max, Y: p.Y.Max},
		})
		if err != nil {
			return nil, errors.Wrap(err, "CorrelationPlot")
		}
		identity.LineStyle.Width = vg.Points(1)
		identity.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
		identity.LineStyle.Color = color.Gray{Y: 128}
		p.Add(identity)

		xLabel, yLabel := "Actual", "Prediction"
		if o.units != nil && o.units[j] != "" {
			xLabel = fmt.Sprintf("Actual (%s)", o.units[j])
			yLabel = fmt.Sprintf("Prediction (%s)", o.units[j])
		}
		p.X.Label.Text = xLabel
		p.Y.Label.Text = yLabel
		if o.labels != nil && o.labels[j] != "" {
			p.Title.Text = o.labels[j]
		}

		stats := []string{
			fmt.Sprintf("RMSE: %.2f", rmse),
			fmt.Sprintf("R2: %.2f", r2),
			fmt.Sprintf("MAE: %.2f", mae),
		}
		if err := AddStatBox(p, stats, LowerRight); err != nil {
			return nil, err
		}

		figs = append(figs, p)
	}
	return figs, nil
}

// asColumns copies a matrix into column orientation, transposing row
// vectors so a 1×n input is treated as a single series.
func asColumns(m mat.Matrix) *mat.Dense {
	r, c := m.Dims()
	if r == 1 && c > 1 {
		out := mat.NewDense(c, 1, nil)
		for i := 0; i < c; i++ {
			out.Set(i, 0, m.At(0, i))
		}
		return out
	}
	out := mat.NewDense(r, c, nil)
	out.Copy(m)
	return out
}

func colVec(m *mat.Dense, j int) *mat.VecDense {
	r, _ := m.Dims()
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, j))
	}
	return v
}

func dataRange(vs ...*mat.VecDense) (lo, hi float64) {
	first := true
	for _, v := range vs {
		for i := 0; i < v.Len(); i++ {
			x := v.AtVec(i)
			if first {
				lo, hi = x, x
				first = false
				continue
			}
			if x < lo {
				lo = x
			}
			if x > hi {
				hi = x
			}
		}
	}
	return lo, hi
}
