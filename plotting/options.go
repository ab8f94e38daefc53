// Package plotting provides stateless figure builders on top of
// gonum/plot: correlation scatter plots, kernel-density histograms,
// precision-recall curves, and residual panels. Every function validates
// input shapes, computes its summary statistics through the metrics and
// kde packages, and returns plot handles; saving to disk is left to the
// caller (ResidualFigure bundles a tiled save helper for the multi-panel
// case).
package plotting

import (
	"gonum.org/v1/plot"

	"github.com/YuminosukeSato/statviz/kde"
	"github.com/YuminosukeSato/statviz/modelselection"
)

type options struct {
	labels []string
	units  []string

	xLabels []string
	xUnits  []string

	target      *plot.Plot
	seriesLabel string
	classLabels []string
	colorIndex  int

	kernel    kde.Kernel
	bandwidth float64
	alpha     float64
	cv        *modelselection.KFold
	jobs      int
}

// Option configures a plotting function.
type Option func(*options)

func newOptions(opts []Option) *options {
	o := &options{
		kernel: kde.Epanechnikov,
		alpha:  0.05,
		jobs:   1,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLabels names the response columns (one per column, used as titles
// or legend entries).
func WithLabels(labels ...string) Option {
	return func(o *options) { o.labels = labels }
}

// WithUnits sets the measurement units of the response columns, appended
// to axis labels as "(unit)".
func WithUnits(units ...string) Option {
	return func(o *options) { o.units = units }
}

// WithXLabels names the predictor columns of a residual figure.
func WithXLabels(labels ...string) Option {
	return func(o *options) { o.xLabels = labels }
}

// WithXUnits sets the measurement units of the predictor columns.
func WithXUnits(units ...string) Option {
	return func(o *options) { o.xUnits = units }
}

// OnPlot draws onto an existing plot instead of creating a new figure.
func OnPlot(p *plot.Plot) Option {
	return func(o *options) { o.target = p }
}

// WithSeriesLabel names a single curve in the plot legend.
func WithSeriesLabel(label string) Option {
	return func(o *options) { o.seriesLabel = label }
}

// WithColorIndex picks the palette color of a single curve, so curves
// overlaid with OnPlot stay distinguishable.
func WithColorIndex(i int) Option {
	return func(o *options) { o.colorIndex = i }
}

// WithClassLabels names the classes of a multi-class precision-recall
// plot, in class order.
func WithClassLabels(labels ...string) Option {
	return func(o *options) { o.classLabels = labels }
}

// WithKernel sets the density kernel of a KD histogram.
func WithKernel(k kde.Kernel) Option {
	return func(o *options) { o.kernel = k }
}

// WithBandwidth fixes the density bandwidth instead of cross-validating.
func WithBandwidth(h float64) Option {
	return func(o *options) { o.bandwidth = h }
}

// WithAlpha sets the confidence-band miss probability (default 0.05).
func WithAlpha(alpha float64) Option {
	return func(o *options) { o.alpha = alpha }
}

// WithCV sets the splitter and parallel jobs used for bandwidth
// selection when no bandwidth is given.
func WithCV(kf *modelselection.KFold, jobs int) Option {
	return func(o *options) {
		o.cv = kf
		o.jobs = jobs
	}
}
