// Package dataset provides a labeled, column-major table shared by the
// estimators and plotting helpers. It is deliberately small: named float64
// columns, optional categorical metadata, and the handful of reshaping
// operations (select, concat, row subset) the adapters need for argument
// marshaling. Anything numerical is exported to gonum matrices.
package dataset

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/statviz/pkg/errors"
)

// Categorical holds the level set of a string-valued column. The column
// itself stores integer level codes as float64 values.
type Categorical struct {
	Levels []string
}

// Dataset is an ordered collection of named columns of equal length.
type Dataset struct {
	names []string
	cols  [][]float64
	cats  map[string]*Categorical
	nrows int
}

// New creates a Dataset from column names and column-major data. All
// columns must have the same length and names must be unique.
func New(names []string, cols [][]float64) (*Dataset, error) {
	if len(names) == 0 {
		return nil, errors.NewValueError("dataset.New", "no columns given")
	}
	if len(names) != len(cols) {
		return nil, errors.NewDimensionError("dataset.New", len(names), len(cols), 1)
	}

	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			return nil, errors.NewValidationError("names", "duplicate column name", name)
		}
		seen[name] = true
	}

	nrows := len(cols[0])
	for i, col := range cols {
		if len(col) != nrows {
			return nil, errors.NewDimensionError("dataset.New: column "+names[i], nrows, len(col), 0)
		}
	}

	ds := &Dataset{
		names: append([]string(nil), names...),
		cols:  make([][]float64, len(cols)),
		cats:  make(map[string]*Categorical),
		nrows: nrows,
	}
	for i, col := range cols {
		ds.cols[i] = append([]float64(nil), col...)
	}
	return ds, nil
}

// FromMatrix creates a Dataset from a gonum matrix, labeling its columns.
func FromMatrix(m mat.Matrix, names []string) (*Dataset, error) {
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewValueError("dataset.FromMatrix", "empty matrix")
	}
	if len(names) != c {
		return nil, errors.NewDimensionError("dataset.FromMatrix", c, len(names), 1)
	}

	cols := make([][]float64, c)
	for j := 0; j < c; j++ {
		col := make([]float64, r)
		for i := 0; i < r; i++ {
			col[i] = m.At(i, j)
		}
		cols[j] = col
	}
	return New(names, cols)
}

// AddCategorical appends a string-valued column, coding its sorted unique
// values as integer levels.
func (ds *Dataset) AddCategorical(name string, values []string) error {
	if ds.index(name) >= 0 {
		return errors.NewValidationError("name", "duplicate column name", name)
	}
	if len(values) != ds.nrows {
		return errors.NewDimensionError("Dataset.AddCategorical", ds.nrows, len(values), 0)
	}

	levelSet := make(map[string]bool)
	for _, v := range values {
		levelSet[v] = true
	}
	levels := make([]string, 0, len(levelSet))
	for v := range levelSet {
		levels = append(levels, v)
	}
	sort.Strings(levels)

	codeOf := make(map[string]float64, len(levels))
	for i, v := range levels {
		codeOf[v] = float64(i)
	}
	codes := make([]float64, len(values))
	for i, v := range values {
		codes[i] = codeOf[v]
	}

	ds.names = append(ds.names, name)
	ds.cols = append(ds.cols, codes)
	ds.cats[name] = &Categorical{Levels: levels}
	return nil
}

// Names returns the column names in order.
func (ds *Dataset) Names() []string {
	return append([]string(nil), ds.names...)
}

// NumRows returns the number of rows.
func (ds *Dataset) NumRows() int { return ds.nrows }

// NumCols returns the number of columns.
func (ds *Dataset) NumCols() int { return len(ds.names) }

// Column returns a copy of the data of the named column, so callers can
// mutate it freely. Categorical columns yield their level codes.
func (ds *Dataset) Column(name string) ([]float64, error) {
	i := ds.index(name)
	if i < 0 {
		return nil, errors.NewValueError("Dataset.Column", "unknown column: "+name)
	}
	return append([]float64(nil), ds.cols[i]...), nil
}

// IsCategorical reports whether the named column carries level metadata.
func (ds *Dataset) IsCategorical(name string) bool {
	_, ok := ds.cats[name]
	return ok
}

// Levels returns the level strings of a categorical column.
func (ds *Dataset) Levels(name string) ([]string, bool) {
	cat, ok := ds.cats[name]
	if !ok {
		return nil, false
	}
	return cat.Levels, true
}

// Select returns a new Dataset with the requested columns in request
// order, carrying over categorical metadata.
func (ds *Dataset) Select(names []string) (*Dataset, error) {
	out := &Dataset{
		names: make([]string, 0, len(names)),
		cols:  make([][]float64, 0, len(names)),
		cats:  make(map[string]*Categorical),
		nrows: ds.nrows,
	}
	for _, name := range names {
		i := ds.index(name)
		if i < 0 {
			return nil, errors.NewValueError("Dataset.Select", "unknown column: "+name)
		}
		out.names = append(out.names, name)
		out.cols = append(out.cols, append([]float64(nil), ds.cols[i]...))
		if cat, ok := ds.cats[name]; ok {
			out.cats[name] = cat
		}
	}
	if len(out.names) == 0 {
		return nil, errors.NewValueError("Dataset.Select", "no columns selected")
	}
	return out, nil
}

// Concat joins two Datasets column-wise. Row counts must match and column
// names must not collide.
func Concat(a, b *Dataset) (*Dataset, error) {
	if a.nrows != b.nrows {
		return nil, errors.NewDimensionError("dataset.Concat", a.nrows, b.nrows, 0)
	}
	out := &Dataset{
		names: append([]string(nil), a.names...),
		cols:  append([][]float64(nil), a.cols...),
		cats:  make(map[string]*Categorical),
		nrows: a.nrows,
	}
	for name, cat := range a.cats {
		out.cats[name] = cat
	}
	for i, name := range b.names {
		if out.index(name) >= 0 {
			return nil, errors.NewValidationError("names", "duplicate column name", name)
		}
		out.names = append(out.names, name)
		out.cols = append(out.cols, b.cols[i])
		if cat, ok := b.cats[name]; ok {
			out.cats[name] = cat
		}
	}
	return out, nil
}

// TakeRows returns a new Dataset restricted to the given row indices.
func (ds *Dataset) TakeRows(idx []int) (*Dataset, error) {
	if len(idx) == 0 {
		return nil, errors.NewValueError("Dataset.TakeRows", "no rows selected")
	}
	for _, i := range idx {
		if i < 0 || i >= ds.nrows {
			return nil, errors.NewValidationError("idx", "row index out of range", i)
		}
	}

	out := &Dataset{
		names: append([]string(nil), ds.names...),
		cols:  make([][]float64, len(ds.cols)),
		cats:  make(map[string]*Categorical),
		nrows: len(idx),
	}
	for name, cat := range ds.cats {
		out.cats[name] = cat
	}
	for j, col := range ds.cols {
		sub := make([]float64, len(idx))
		for i, ri := range idx {
			sub[i] = col[ri]
		}
		out.cols[j] = sub
	}
	return out, nil
}

// Matrix exports the table as a dense row-major matrix.
func (ds *Dataset) Matrix() *mat.Dense {
	m := mat.NewDense(ds.nrows, len(ds.cols), nil)
	for j, col := range ds.cols {
		for i, v := range col {
			m.Set(i, j, v)
		}
	}
	return m
}

func (ds *Dataset) index(name string) int {
	for i, n := range ds.names {
		if n == name {
			return i
		}
	}
	return -1
}
