package plotting

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"

	"github.com/YuminosukeSato/statviz/pkg/errors"
)

// Location places a stat box in one corner of the plotting area.
type Location int

const (
	LowerRight Location = iota
	LowerLeft
	UpperRight
	UpperLeft
)

// AddStatBox writes the given lines of text into a corner of the plot,
// one below the other. The plot must already have explicit axis limits;
// the box is positioned in data coordinates relative to them.
func AddStatBox(p *plot.Plot, lines []string, loc Location) error {
	if len(lines) == 0 {
		return errors.NewValueError("AddStatBox", "no text lines")
	}
	if p.X.Min >= p.X.Max || p.Y.Min >= p.Y.Max {
		return errors.NewValueError("AddStatBox", "plot needs explicit axis limits")
	}

	xRange := p.X.Max - p.X.Min
	yRange := p.Y.Max - p.Y.Min
	margin := 0.03
	spacing := 0.055 * yRange

	var x float64
	var xAlign text.XAlignment
	switch loc {
	case LowerRight, UpperRight:
		x = p.X.Max - margin*xRange
		xAlign = text.XRight
	default:
		x = p.X.Min + margin*xRange
		xAlign = text.XLeft
	}

	xys := make(plotter.XYs, len(lines))
	for i := range lines {
		var y float64
		switch loc {
		case LowerRight, LowerLeft:
			// First line on top, stack upward from the bottom margin.
			y = p.Y.Min + margin*yRange + float64(len(lines)-1-i)*spacing
		default:
			y = p.Y.Max - margin*yRange - float64(i)*spacing
		}
		xys[i] = plotter.XY{X: x, Y: y}
	}

	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: lines})
	if err != nil {
		return errors.Wrap(err, "AddStatBox")
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = xAlign
	}

	p.Add(labels)
	return nil
}
