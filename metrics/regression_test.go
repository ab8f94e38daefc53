package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestMSE(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yPred   []float64
		want    float64
		wantErr bool
	}{
		{
			name:  "perfect prediction",
			yTrue: []float64{1, 2, 3},
			yPred: []float64{1, 2, 3},
			want:  0,
		},
		{
			name:  "constant offset",
			yTrue: []float64{1, 2, 3, 4},
			yPred: []float64{2, 3, 4, 5},
			want:  1,
		},
		{
			name:    "dimension mismatch",
			yTrue:   []float64{1, 2, 3},
			yPred:   []float64{1, 2},
			wantErr: true,
		},
		{
			name:    "empty vectors",
			yTrue:   nil,
			yPred:   nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MSE(vecOf(tt.yTrue), vecOf(tt.yPred))
			if (err != nil) != tt.wantErr {
				t.Fatalf("MSE() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("MSE() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRMSEAndMAE(t *testing.T) {
	yTrue := vecOf([]float64{0, 0, 0, 0})
	yPred := vecOf([]float64{2, -2, 2, -2})

	rmse, err := RMSE(yTrue, yPred)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(rmse-2) > 1e-12 {
		t.Errorf("RMSE = %v, want 2", rmse)
	}

	mae, err := MAE(yTrue, yPred)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(mae-2) > 1e-12 {
		t.Errorf("MAE = %v, want 2", mae)
	}
}

func TestR2(t *testing.T) {
	yTrue := vecOf([]float64{1, 2, 3, 4})

	r2, err := R2(yTrue, vecOf([]float64{1, 2, 3, 4}))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(r2-1) > 1e-12 {
		t.Errorf("perfect R2 = %v, want 1", r2)
	}

	// Mean prediction gives R2 of 0.
	r2, err = R2(yTrue, vecOf([]float64{2.5, 2.5, 2.5, 2.5}))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(r2) > 1e-12 {
		t.Errorf("mean-prediction R2 = %v, want 0", r2)
	}

	// Constant target has zero variance.
	if _, err := R2(vecOf([]float64{1, 1, 1}), vecOf([]float64{1, 1, 1})); err == nil {
		t.Error("R2 on zero-variance target should fail")
	}
}

func TestPearsonR(t *testing.T) {
	x := vecOf([]float64{1, 2, 3, 4})
	y := vecOf([]float64{2, 4, 6, 8})

	r, err := PearsonR(x, y)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(r-1) > 1e-12 {
		t.Errorf("PearsonR = %v, want 1", r)
	}

	if _, err := PearsonR(x, vecOf([]float64{1})); err == nil {
		t.Error("PearsonR with mismatched lengths should fail")
	}
}

func TestColumnRMSEs(t *testing.T) {
	yTrue := mat.NewDense(2, 2, []float64{
		0, 1,
		0, 3,
	})
	yPred := mat.NewDense(2, 2, []float64{
		1, 1,
		-1, 3,
	})

	got, err := ColumnRMSEs(yTrue, yPred)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got[0]-1) > 1e-12 || math.Abs(got[1]) > 1e-12 {
		t.Errorf("ColumnRMSEs = %v, want [1 0]", got)
	}

	if _, err := ColumnRMSEs(yTrue, mat.NewDense(1, 2, nil)); err == nil {
		t.Error("mismatched dims should fail")
	}
}
