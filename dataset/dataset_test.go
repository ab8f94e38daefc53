package dataset

import (
	"reflect"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		names   []string
		cols    [][]float64
		wantErr bool
	}{
		{
			name:  "valid two columns",
			names: []string{"a", "b"},
			cols:  [][]float64{{1, 2, 3}, {4, 5, 6}},
		},
		{
			name:    "ragged columns",
			names:   []string{"a", "b"},
			cols:    [][]float64{{1, 2, 3}, {4, 5}},
			wantErr: true,
		},
		{
			name:    "duplicate names",
			names:   []string{"a", "a"},
			cols:    [][]float64{{1}, {2}},
			wantErr: true,
		},
		{
			name:    "name/column count mismatch",
			names:   []string{"a"},
			cols:    [][]float64{{1}, {2}},
			wantErr: true,
		},
		{
			name:    "no columns",
			names:   nil,
			cols:    nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := New(tt.names, tt.cols)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if ds.NumRows() != len(tt.cols[0]) || ds.NumCols() != len(tt.names) {
				t.Errorf("dims = (%d,%d), want (%d,%d)",
					ds.NumRows(), ds.NumCols(), len(tt.cols[0]), len(tt.names))
			}
		})
	}
}

func TestSelectPreservesOrder(t *testing.T) {
	ds, err := New([]string{"a", "b", "c"}, [][]float64{{1}, {2}, {3}})
	if err != nil {
		t.Fatal(err)
	}

	sub, err := ds.Select([]string{"c", "a"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(sub.Names(), []string{"c", "a"}) {
		t.Errorf("Select order = %v, want [c a]", sub.Names())
	}

	if _, err := ds.Select([]string{"missing"}); err == nil {
		t.Error("Select of unknown column should fail")
	}
}

func TestColumnIsACopy(t *testing.T) {
	ds, err := New([]string{"a", "b"}, [][]float64{{1, 2}, {3, 4}})
	if err != nil {
		t.Fatal(err)
	}

	col, err := ds.Column("a")
	if err != nil {
		t.Fatal(err)
	}
	col[0] = 99

	again, err := ds.Column("a")
	if err != nil {
		t.Fatal(err)
	}
	if again[0] != 1 {
		t.Errorf("Column(a)[0] = %v after caller mutation, want 1", again[0])
	}

	sub, err := ds.Select([]string{"b"})
	if err != nil {
		t.Fatal(err)
	}
	sc, err := sub.Column("b")
	if err != nil {
		t.Fatal(err)
	}
	sc[0] = 99
	orig, _ := ds.Column("b")
	if orig[0] != 3 {
		t.Errorf("Column(b)[0] = %v after mutating a Select sibling, want 3", orig[0])
	}
}

func TestConcat(t *testing.T) {
	a, _ := New([]string{"x"}, [][]float64{{1, 2}})
	b, _ := New([]string{"y"}, [][]float64{{3, 4}})

	out, err := Concat(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(out.Names(), []string{"x", "y"}) {
		t.Errorf("names = %v", out.Names())
	}

	short, _ := New([]string{"z"}, [][]float64{{1}})
	if _, err := Concat(a, short); err == nil {
		t.Error("Concat with mismatched rows should fail")
	}

	dup, _ := New([]string{"x"}, [][]float64{{9, 9}})
	if _, err := Concat(a, dup); err == nil {
		t.Error("Concat with duplicate names should fail")
	}
}

func TestCategorical(t *testing.T) {
	ds, _ := New([]string{"v"}, [][]float64{{1, 2, 3, 4}})
	if err := ds.AddCategorical("site", []string{"b", "a", "b", "c"}); err != nil {
		t.Fatal(err)
	}

	levels, ok := ds.Levels("site")
	if !ok {
		t.Fatal("site should be categorical")
	}
	if !reflect.DeepEqual(levels, []string{"a", "b", "c"}) {
		t.Errorf("levels = %v, want sorted [a b c]", levels)
	}

	codes, err := ds.Column("site")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(codes, []float64{1, 0, 1, 2}) {
		t.Errorf("codes = %v, want [1 0 1 2]", codes)
	}

	if ds.IsCategorical("v") {
		t.Error("v should not be categorical")
	}
	if err := ds.AddCategorical("site", []string{"a", "a", "a", "a"}); err == nil {
		t.Error("duplicate categorical name should fail")
	}
}

func TestTakeRowsAndMatrixRoundTrip(t *testing.T) {
	m := mat.NewDense(3, 2, []float64{
		1, 4,
		2, 5,
		3, 6,
	})
	ds, err := FromMatrix(m, []string{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}

	sub, err := ds.TakeRows([]int{2, 0})
	if err != nil {
		t.Fatal(err)
	}
	want := mat.NewDense(2, 2, []float64{
		3, 6,
		1, 4,
	})
	if !mat.Equal(sub.Matrix(), want) {
		t.Errorf("TakeRows matrix = %v, want %v", mat.Formatted(sub.Matrix()), mat.Formatted(want))
	}

	if _, err := ds.TakeRows([]int{5}); err == nil {
		t.Error("out of range index should fail")
	}
	if _, err := ds.TakeRows(nil); err == nil {
		t.Error("empty index set should fail")
	}
}
