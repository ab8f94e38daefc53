package plotting

import (
	"sort"
	"strconv"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/statviz/metrics"
	"github.com/YuminosukeSato/statviz/pkg/errors"
)

// PrecRecPlot draws a binary precision-recall curve with axes fixed to
// [0, 1]. Use OnPlot to add the curve to an existing figure (axis setup
// is skipped then) and WithSeriesLabel to name it in the legend.
func PrecRecPlot(y, score *mat.VecDense, opts ...Option) (*plot.Plot, error) {
	o := newOptions(opts)

	if y.Len() != score.Len() {
		return nil, errors.NewDimensionError("PrecRecPlot", y.Len(), score.Len(), 0)
	}

	precision, recall, _, err := metrics.PrecisionRecallCurve(y, score)
	if err != nil {
		return nil, err
	}

	p := o.target
	fresh := p == nil
	if fresh {
		p = plot.New()
	}

	line, err := curveLine(recall, precision, 1, o.colorIndex)
	if err != nil {
		return nil, err
	}
	p.Add(line)
	if o.seriesLabel != "" {
		p.Legend.Add(o.seriesLabel, line)
	}

	if fresh {
		p.X.Label.Text = "Recall"
		p.Y.Label.Text = "Precision"
		p.X.Min, p.X.Max = 0, 1
		p.Y.Min, p.Y.Max = 0, 1
	}
	return p, nil
}

// PrecRecMultiPlot draws one-vs-rest precision-recall curves for every
// class of a multi-class problem plus a micro-averaged curve, on percent
// axes. Classes are the sorted distinct values of y; scores must carry
// one column per class in that order, and WithClassLabels, when given,
// must match the class count.
func PrecRecMultiPlot(y *mat.VecDense, scores mat.Matrix, opts ...Option) (*plot.Plot, error) {
	o := newOptions(opts)

	n := y.Len()
	sr, sc := scores.Dims()
	if n == 0 {
		return nil, errors.NewModelError("PrecRecMultiPlot", "empty data", errors.ErrEmptyData)
	}
	if sr != n {
		return nil, errors.NewDimensionError("PrecRecMultiPlot", n, sr, 0)
	}

	classes := distinctSorted(y)
	if len(classes) != sc {
		return nil, errors.NewDimensionError("PrecRecMultiPlot: classes", len(classes), sc, 1)
	}

	labels := o.classLabels
	if labels == nil {
		labels = make([]string, len(classes))
		for i, cl := range classes {
			labels[i] = strconv.FormatFloat(cl, 'g', -1, 64)
		}
	} else if len(labels) != len(classes) {
		return nil, errors.NewDimensionError("PrecRecMultiPlot: labels", len(classes), len(labels), 1)
	}

	p := o.target
	fresh := p == nil
	if fresh {
		p = plot.New()
	}

	// Micro average: all one-vs-rest problems pooled into one curve.
	flat := n * len(classes)
	microY := mat.NewVecDense(flat, nil)
	microScore := mat.NewVecDense(flat, nil)
	for ci, class := range classes {
		for i := 0; i < n; i++ {
			idx := ci*n + i
			if y.AtVec(i) == class {
				microY.SetVec(idx, 1)
			}
			microScore.SetVec(idx, scores.At(i, ci))
		}
	}
	microPrec, microRec, _, err := metrics.PrecisionRecallCurve(microY, microScore)
	if err != nil {
		return nil, err
	}
	micro, err := curveLine(microRec, microPrec, 100, 0)
	if err != nil {
		return nil, err
	}
	p.Add(micro)
	p.Legend.Add("micro-average", micro)

	for ci, class := range classes {
		binY := mat.NewVecDense(n, nil)
		colScore := mat.NewVecDense(n, nil)
		for i := 0; i < n; i++ {
			if y.AtVec(i) == class {
				binY.SetVec(i, 1)
			}
			colScore.SetVec(i, scores.At(i, ci))
		}

		precision, recall, _, err := metrics.PrecisionRecallCurve(binY, colScore)
		if err != nil {
			return nil, err
		}
		line, err := curveLine(recall, precision, 100, ci+1)
		if err != nil {
			return nil, err
		}
		p.Add(line)
		p.Legend.Add(labels[ci], line)
	}

	if fresh {
		p.X.Label.Text = "Recall (%)"
		p.Y.Label.Text = "Precision (%)"
		p.X.Min, p.X.Max = 0, 100
		p.Y.Min, p.Y.Max = 0, 100
	}
	return p, nil
}

// curveLine builds a colored line from recall/precision pairs, scaled by
// the given factor. The curve arrays run from high to low recall; they
// are plotted as-is since line order does not matter.
func curveLine(recall, precision []float64, scale float64, colorIdx int) (*plotter.Line, error) {
	xys := make(plotter.XYs, len(recall))
	for i := range recall {
		xys[i] = plotter.XY{X: recall[i] * scale, Y: precision[i] * scale}
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, errors.Wrap(err, "precision-recall line")
	}
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Color = plotutil.Color(colorIdx)
	return line, nil
}

func distinctSorted(y *mat.VecDense) []float64 {
	seen := make(map[float64]bool)
	var out []float64
	for i := 0; i < y.Len(); i++ {
		v := y.AtVec(i)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}
