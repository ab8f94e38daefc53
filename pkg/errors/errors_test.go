package errors

import (
	"strings"
	"testing"
)

func TestNotFittedError(t *testing.T) {
	err := NewNotFittedError("LME", "Predict")

	var nfe *NotFittedError
	if !As(err, &nfe) {
		t.Fatalf("expected NotFittedError, got %T", err)
	}
	if nfe.ModelName != "LME" || nfe.Method != "Predict" {
		t.Errorf("unexpected fields: %+v", nfe)
	}
	if !strings.Contains(err.Error(), "not fitted") {
		t.Errorf("message should mention not fitted: %s", err.Error())
	}
}

func TestDimensionError(t *testing.T) {
	tests := []struct {
		name     string
		axis     int
		wantWord string
	}{
		{name: "row axis", axis: 0, wantWord: "rows"},
		{name: "feature axis", axis: 1, wantWord: "features"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewDimensionError("CorrelationPlot", 10, 7, tt.axis)
			var de *DimensionError
			if !As(err, &de) {
				t.Fatalf("expected DimensionError, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.wantWord) {
				t.Errorf("message %q should contain %q", err.Error(), tt.wantWord)
			}
		})
	}
}

func TestFormulaError(t *testing.T) {
	err := NewFormulaError("y x", "missing '~'")
	var fe *FormulaError
	if !As(err, &fe) {
		t.Fatalf("expected FormulaError, got %T", err)
	}
	if fe.Formula != "y x" {
		t.Errorf("formula = %q, want %q", fe.Formula, "y x")
	}
}

func TestModelErrorUnwrap(t *testing.T) {
	err := NewModelError("LME.Fit", "singular matrix", ErrSingularMatrix)
	if !Is(err, ErrSingularMatrix) {
		t.Errorf("ModelError should unwrap to ErrSingularMatrix")
	}
}

func TestWarnHandler(t *testing.T) {
	var captured error
	SetWarningHandler(func(w error) { captured = w })
	defer SetWarningHandler(nil)

	w := NewUndefinedMetricWarning("precision", "no positive samples", 0.0)
	Warn(w)

	if captured == nil {
		t.Fatal("warning handler was not invoked")
	}
	if !strings.Contains(captured.Error(), "ill-defined") {
		t.Errorf("unexpected warning message: %s", captured.Error())
	}
}
