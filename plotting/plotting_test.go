package plotting

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"

	"github.com/YuminosukeSato/statviz/kde"
)

func TestCorrelationPlot(t *testing.T) {
	y := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
		4, 40,
	})
	yp := mat.NewDense(4, 2, []float64{
		1.1, 11,
		1.9, 19,
		3.2, 31,
		3.8, 39,
	})

	tests := []struct {
		name     string
		y, yp    mat.Matrix
		opts     []Option
		wantFigs int
		wantErr  bool
	}{
		{
			name:     "two response columns",
			y:        y,
			yp:       yp,
			wantFigs: 2,
		},
		{
			name:     "row vector treated as one series",
			y:        mat.NewDense(1, 4, []float64{1, 2, 3, 4}),
			yp:       mat.NewDense(1, 4, []float64{1.1, 2.1, 2.9, 4.2}),
			wantFigs: 1,
		},
		{
			name:    "row count mismatch",
			y:       y,
			yp:      mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6}),
			wantErr: true,
		},
		{
			name:    "empty input",
			y:       &mat.Dense{},
			yp:      &mat.Dense{},
			wantErr: true,
		},
		{
			name:    "label count mismatch",
			y:       y,
			yp:      yp,
			opts:    []Option{WithLabels("only one")},
			wantErr: true,
		},
		{
			name:    "unit count mismatch",
			y:       y,
			yp:      yp,
			opts:    []Option{WithUnits("m")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			figs, err := CorrelationPlot(tt.y, tt.yp, tt.opts...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CorrelationPlot() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if len(figs) != tt.wantFigs {
				t.Errorf("got %d figures, want %d", len(figs), tt.wantFigs)
			}
		})
	}
}

func TestCorrelationPlotLabelsAndUnits(t *testing.T) {
	y := mat.NewDense(3, 1, []float64{1, 2, 3})
	yp := mat.NewDense(3, 1, []float64{1.2, 2.1, 2.8})

	figs, err := CorrelationPlot(y, yp, WithLabels("Yield"), WithUnits("t/ha"))
	if err != nil {
		t.Fatalf("CorrelationPlot() error = %v", err)
	}
	p := figs[0]
	if p.Title.Text != "Yield" {
		t.Errorf("title = %q, want %q", p.Title.Text, "Yield")
	}
	if p.X.Label.Text != "Actual (t/ha)" {
		t.Errorf("x label = %q, want %q", p.X.Label.Text, "Actual (t/ha)")
	}
	if p.Y.Label.Text != "Prediction (t/ha)" {
		t.Errorf("y label = %q, want %q", p.Y.Label.Text, "Prediction (t/ha)")
	}
	if p.X.Min != p.Y.Min || p.X.Max != p.Y.Max {
		t.Errorf("axis limits not square: x [%v, %v], y [%v, %v]",
			p.X.Min, p.X.Max, p.Y.Min, p.Y.Max)
	}
}

func TestKDHistPlot(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 0))
	data := make([]float64, 200)
	for i := range data {
		data[i] = rng.NormFloat64()
	}

	p, kd, err := KDHistPlot(data, WithBandwidth(0.4), WithLabels("Residual"))
	if err != nil {
		t.Fatalf("KDHistPlot() error = %v", err)
	}
	if kd.Bandwidth() != 0.4 {
		t.Errorf("bandwidth = %v, want 0.4", kd.Bandwidth())
	}
	if p.X.Label.Text != "Residual" {
		t.Errorf("x label = %q, want %q", p.X.Label.Text, "Residual")
	}
	if p.Y.Label.Text != "Probability Density (%)" {
		t.Errorf("y label = %q", p.Y.Label.Text)
	}
	if p.Y.Min != 0 || p.Y.Max <= 0 {
		t.Errorf("y limits = [%v, %v], want [0, >0]", p.Y.Min, p.Y.Max)
	}
}

func TestKDHistPlotOverlay(t *testing.T) {
	data := []float64{-1, -0.5, 0, 0.2, 0.4, 1, 1.5, 2}

	base := plot.New()
	base.X.Label.Text = "kept"

	p, _, err := KDHistPlot(data, WithBandwidth(0.5), OnPlot(base), WithKernel(kde.Gaussian))
	if err != nil {
		t.Fatalf("KDHistPlot() error = %v", err)
	}
	if p != base {
		t.Fatal("overlay should draw on the given plot")
	}
	if p.X.Label.Text != "kept" {
		t.Errorf("overlay must not touch axis labels, got %q", p.X.Label.Text)
	}
}

func TestKDHistPlotEmpty(t *testing.T) {
	if _, _, err := KDHistPlot(nil); err == nil {
		t.Fatal("expected error for empty data")
	}
}

func TestPrecRecPlot(t *testing.T) {
	y := mat.NewVecDense(4, []float64{0, 0, 1, 1})
	score := mat.NewVecDense(4, []float64{0.1, 0.4, 0.35, 0.8})

	p, err := PrecRecPlot(y, score)
	if err != nil {
		t.Fatalf("PrecRecPlot() error = %v", err)
	}
	if p.X.Label.Text != "Recall" || p.Y.Label.Text != "Precision" {
		t.Errorf("axis labels = %q, %q", p.X.Label.Text, p.Y.Label.Text)
	}
	if p.X.Min != 0 || p.X.Max != 1 || p.Y.Min != 0 || p.Y.Max != 1 {
		t.Errorf("axis limits = x [%v, %v], y [%v, %v], want [0, 1]",
			p.X.Min, p.X.Max, p.Y.Min, p.Y.Max)
	}

	if _, err := PrecRecPlot(y, mat.NewVecDense(3, nil)); err == nil {
		t.Fatal("expected error for length mismatch")
	}
}

func TestPrecRecPlotOverlay(t *testing.T) {
	y := mat.NewVecDense(4, []float64{0, 1, 0, 1})
	scoreA := mat.NewVecDense(4, []float64{0.2, 0.9, 0.3, 0.7})
	scoreB := mat.NewVecDense(4, []float64{0.4, 0.6, 0.1, 0.8})

	p, err := PrecRecPlot(y, scoreA, WithSeriesLabel("model A"))
	if err != nil {
		t.Fatalf("PrecRecPlot() error = %v", err)
	}
	xMax := p.X.Max

	if _, err := PrecRecPlot(y, scoreB, OnPlot(p), WithSeriesLabel("model B"), WithColorIndex(1)); err != nil {
		t.Fatalf("PrecRecPlot() overlay error = %v", err)
	}
	if p.X.Max != xMax {
		t.Errorf("overlay changed x limits: %v -> %v", xMax, p.X.Max)
	}
}

func TestPrecRecMultiPlot(t *testing.T) {
	y := mat.NewVecDense(6, []float64{0, 0, 1, 1, 2, 2})
	scores := mat.NewDense(6, 3, []float64{
		0.8, 0.1, 0.1,
		0.6, 0.3, 0.1,
		0.2, 0.7, 0.1,
		0.3, 0.5, 0.2,
		0.1, 0.2, 0.7,
		0.2, 0.2, 0.6,
	})

	tests := []struct {
		name    string
		y       *mat.VecDense
		scores  mat.Matrix
		opts    []Option
		wantErr bool
	}{
		{
			name:   "three classes",
			y:      y,
			scores: scores,
		},
		{
			name:   "named classes",
			y:      y,
			scores: scores,
			opts:   []Option{WithClassLabels("setosa", "versicolor", "virginica")},
		},
		{
			name:    "column count does not match classes",
			y:       y,
			scores:  mat.NewDense(6, 2, nil),
			wantErr: true,
		},
		{
			name:    "row count mismatch",
			y:       mat.NewVecDense(5, nil),
			scores:  scores,
			wantErr: true,
		},
		{
			name:    "class label count mismatch",
			y:       y,
			scores:  scores,
			opts:    []Option{WithClassLabels("a", "b")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := PrecRecMultiPlot(tt.y, tt.scores, tt.opts...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("PrecRecMultiPlot() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if p.X.Label.Text != "Recall (%)" || p.Y.Label.Text != "Precision (%)" {
				t.Errorf("axis labels = %q, %q", p.X.Label.Text, p.Y.Label.Text)
			}
			if p.X.Max != 100 || p.Y.Max != 100 {
				t.Errorf("axis max = %v, %v, want 100", p.X.Max, p.Y.Max)
			}
		})
	}
}

func TestResidualPlots(t *testing.T) {
	X := mat.NewDense(5, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
		4, 40,
		5, 50,
	})
	Y := mat.NewDense(5, 3, nil)
	Yp := mat.NewDense(5, 3, nil)

	figs, err := ResidualPlots(X, Y, Yp,
		WithLabels("a", "b", "c"),
		WithUnits("m", "s", ""),
		WithXLabels("depth", "temp"),
		WithXUnits("cm", "C"),
	)
	if err != nil {
		t.Fatalf("ResidualPlots() error = %v", err)
	}
	if len(figs) != 2 {
		t.Fatalf("got %d figures, want one per predictor column", len(figs))
	}
	for _, fig := range figs {
		if len(fig.Panels) != 3 {
			t.Fatalf("got %d panels, want one per response column", len(fig.Panels))
		}
	}

	top := figs[0].Panels[0]
	if top.Y.Label.Text != "a Error (m)" {
		t.Errorf("top y label = %q, want %q", top.Y.Label.Text, "a Error (m)")
	}
	if top.X.Label.Text != "" {
		t.Errorf("only the bottom panel should carry the x label, got %q", top.X.Label.Text)
	}
	bottom := figs[1].Panels[2]
	if bottom.Y.Label.Text != "c Error" {
		t.Errorf("bottom y label = %q, want %q", bottom.Y.Label.Text, "c Error")
	}
	if bottom.X.Label.Text != "temp (C)" {
		t.Errorf("bottom x label = %q, want %q", bottom.X.Label.Text, "temp (C)")
	}
}

func TestResidualPlotsShapeErrors(t *testing.T) {
	tests := []struct {
		name     string
		x, y, yp mat.Matrix
	}{
		{
			name: "prediction shape differs",
			x:    mat.NewDense(4, 1, nil),
			y:    mat.NewDense(4, 2, nil),
			yp:   mat.NewDense(4, 1, nil),
		},
		{
			name: "predictor rows differ",
			x:    mat.NewDense(3, 1, nil),
			y:    mat.NewDense(4, 2, nil),
			yp:   mat.NewDense(4, 2, nil),
		},
		{
			name: "empty",
			x:    &mat.Dense{},
			y:    &mat.Dense{},
			yp:   &mat.Dense{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ResidualPlots(tt.x, tt.y, tt.yp); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestResidualFigureSave(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	Y := mat.NewDense(4, 2, []float64{1, 2, 3, 4, 5, 6, 7, 8})
	Yp := mat.NewDense(4, 2, []float64{1.1, 2.2, 2.9, 4.1, 5.2, 5.8, 7.1, 7.9})

	figs, err := ResidualPlots(X, Y, Yp)
	if err != nil {
		t.Fatalf("ResidualPlots() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "residuals.png")
	if err := figs[0].Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Error("saved figure is empty")
	}

	empty := &ResidualFigure{}
	if err := empty.Save(filepath.Join(t.TempDir(), "x.png")); err == nil {
		t.Fatal("expected error for empty figure")
	}
}

func TestAddStatBox(t *testing.T) {
	p := plot.New()
	if err := AddStatBox(p, []string{"RMSE: 0.10"}, LowerRight); err == nil {
		t.Fatal("expected error without explicit axis limits")
	}

	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	if err := AddStatBox(p, []string{"RMSE: 0.10", "R2: 0.98"}, UpperLeft); err != nil {
		t.Fatalf("AddStatBox() error = %v", err)
	}
	if err := AddStatBox(p, nil, LowerLeft); err == nil {
		t.Fatal("expected error for empty lines")
	}
}
