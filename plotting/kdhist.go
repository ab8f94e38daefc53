package plotting

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/statviz/kde"
	"github.com/YuminosukeSato/statviz/pkg/errors"
)

// evaluation grid resolution of the density curve
const kdGridPoints = 1000

// KDHistPlot draws a kernel-density curve over the data with a shaded
// pointwise confidence band, the density scaled to percent. When no
// bandwidth is configured it is selected by cross-validated likelihood
// (see WithCV for the splitter and parallel jobs). The fitted estimator
// is returned alongside the figure so callers can reuse the selected
// bandwidth. Use OnPlot to overlay onto an existing figure; axis labels
// and limits are only set on fresh figures.
func KDHistPlot(data []float64, opts ...Option) (*plot.Plot, *kde.KDE, error) {
	o := newOptions(opts)

	if len(data) == 0 {
		return nil, nil, errors.NewModelError("KDHistPlot", "empty data", errors.ErrEmptyData)
	}

	kdOpts := []kde.Option{kde.WithKernel(o.kernel)}
	if o.bandwidth > 0 {
		kdOpts = append(kdOpts, kde.WithBandwidth(o.bandwidth))
	}
	kd := kde.New(kdOpts...)
	if err := kd.Fit(data); err != nil {
		return nil, nil, err
	}
	if o.bandwidth == 0 {
		if _, err := kd.SelectBandwidth(o.cv, o.jobs); err != nil {
			return nil, nil, err
		}
	}

	xmin, xmax := data[0], data[0]
	for _, v := range data {
		if v < xmin {
			xmin = v
		}
		if v > xmax {
			xmax = v
		}
	}
	h := kd.Bandwidth()

	xs := make([]float64, kdGridPoints)
	lo, hi := xmin-h, xmax+h
	for i := range xs {
		xs[i] = lo + (hi-lo)*float64(i)/float64(kdGridPoints-1)
	}

	dens, err := kd.Evaluate(xs)
	if err != nil {
		return nil, nil, err
	}
	lower, upper, err := kd.Confidence(xs, o.alpha)
	if err != nil {
		return nil, nil, err
	}

	p := o.target
	fresh := p == nil
	if fresh {
		p = plot.New()
	}

	// Shaded confidence band as a closed polygon: upper edge forward,
	// lower edge back.
	band := make(plotter.XYs, 0, 2*kdGridPoints)
	for i := range xs {
		band = append(band, plotter.XY{X: xs[i], Y: upper[i] * 100})
	}
	for i := len(xs) - 1; i >= 0; i-- {
		band = append(band, plotter.XY{X: xs[i], Y: lower[i] * 100})
	}
	poly, err := plotter.NewPolygon(band)
	if err != nil {
		return nil, nil, errors.Wrap(err, "KDHistPlot")
	}
	poly.Color = color.NRGBA{R: 128, G: 128, B: 200, A: 90}
	poly.LineStyle.Width = 0
	p.Add(poly)
	p.Legend.Add(fmt.Sprintf("%.0f%% Confidence Interval", 100*(1-o.alpha)), poly)

	curve := make(plotter.XYs, kdGridPoints)
	for i := range xs {
		curve[i] = plotter.XY{X: xs[i], Y: dens[i] * 100}
	}
	line, err := plotter.NewLine(curve)
	if err != nil {
		return nil, nil, errors.Wrap(err, "KDHistPlot")
	}
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Color = plotutil.Color(0)
	p.Add(line)

	if fresh {
		if len(o.labels) > 0 {
			p.X.Label.Text = o.labels[0]
		}
		p.Y.Label.Text = "Probability Density (%)"
		p.X.Min, p.X.Max = lo, hi
		p.Y.Min = 0
		yMax := 0.0
		for _, u := range upper {
			if u*100 > yMax {
				yMax = u * 100
			}
		}
		p.Y.Max = yMax * 1.05
	}

	return p, kd, nil
}
