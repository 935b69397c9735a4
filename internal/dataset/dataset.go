// Package dataset provides the tabular container shared by the pipeline
// stages. Cells are kept as raw strings until preprocessing encodes them;
// numeric access converts on demand and reports schema problems instead of
// silently coercing.
package dataset

import (
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/staysense/cancelcast/pkg/errors"
)

// Table is an ordered set of named columns over row-major string cells.
// Split and processed artifacts are immutable once written; Table mutation
// happens only inside a stage before persisting.
type Table struct {
	Columns []string
	Cells   [][]string
}

// New creates an empty table with the given column names.
func New(columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int {
	return len(t.Cells)
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int {
	return len(t.Columns)
}

// ColumnIndex returns the position of a named column, or an error if the
// column is not part of the schema.
func (t *Table) ColumnIndex(name string) (int, error) {
	for i, c := range t.Columns {
		if c == name {
			return i, nil
		}
	}
	return -1, errors.NewSchemaError("ColumnIndex", name, "column not found")
}

// AppendRow adds a row. The row length must match the schema.
func (t *Table) AppendRow(row []string) error {
	if len(row) != len(t.Columns) {
		return errors.NewDimensionError("AppendRow", len(t.Columns), len(row), 1)
	}
	cp := make([]string, len(row))
	copy(cp, row)
	t.Cells = append(t.Cells, cp)
	return nil
}

// Column returns the raw values of a named column.
func (t *Table) Column(name string) ([]string, error) {
	idx, err := t.ColumnIndex(name)
	if err != nil {
		return nil, err
	}
	values := make([]string, len(t.Cells))
	for i, row := range t.Cells {
		values[i] = row[idx]
	}
	return values, nil
}

// NumericColumn parses a named column as float64 values. A non-numeric cell
// is a schema error, not a NaN.
func (t *Table) NumericColumn(name string) ([]float64, error) {
	idx, err := t.ColumnIndex(name)
	if err != nil {
		return nil, err
	}
	values := make([]float64, len(t.Cells))
	for i, row := range t.Cells {
		v, err := strconv.ParseFloat(row[idx], 64)
		if err != nil {
			return nil, errors.NewSchemaError("NumericColumn", name, "non-numeric value "+strconv.Quote(row[idx]))
		}
		values[i] = v
	}
	return values, nil
}

// SetNumericColumn overwrites a named column with formatted float values.
func (t *Table) SetNumericColumn(name string, values []float64) error {
	idx, err := t.ColumnIndex(name)
	if err != nil {
		return err
	}
	if len(values) != len(t.Cells) {
		return errors.NewDimensionError("SetNumericColumn", len(t.Cells), len(values), 0)
	}
	for i := range t.Cells {
		t.Cells[i][idx] = FormatFloat(values[i])
	}
	return nil
}

// SetColumn overwrites a named column with raw values.
func (t *Table) SetColumn(name string, values []string) error {
	idx, err := t.ColumnIndex(name)
	if err != nil {
		return err
	}
	if len(values) != len(t.Cells) {
		return errors.NewDimensionError("SetColumn", len(t.Cells), len(values), 0)
	}
	for i := range t.Cells {
		t.Cells[i][idx] = values[i]
	}
	return nil
}

// Subset returns a new table containing the given rows in order. Indices
// may repeat; oversampling uses that.
func (t *Table) Subset(rows []int) *Table {
	out := New(t.Columns)
	out.Cells = make([][]string, 0, len(rows))
	for _, r := range rows {
		cp := make([]string, len(t.Cells[r]))
		copy(cp, t.Cells[r])
		out.Cells = append(out.Cells, cp)
	}
	return out
}

// Select returns a new table with only the named columns, in the given
// order. All names must exist in the schema.
func (t *Table) Select(columns []string) (*Table, error) {
	indices := make([]int, len(columns))
	for i, name := range columns {
		idx, err := t.ColumnIndex(name)
		if err != nil {
			return nil, err
		}
		indices[i] = idx
	}
	out := New(columns)
	out.Cells = make([][]string, len(t.Cells))
	for i, row := range t.Cells {
		picked := make([]string, len(indices))
		for j, idx := range indices {
			picked[j] = row[idx]
		}
		out.Cells[i] = picked
	}
	return out, nil
}

// Drop returns a new table without the named column.
func (t *Table) Drop(name string) (*Table, error) {
	idx, err := t.ColumnIndex(name)
	if err != nil {
		return nil, err
	}
	kept := make([]string, 0, len(t.Columns)-1)
	kept = append(kept, t.Columns[:idx]...)
	kept = append(kept, t.Columns[idx+1:]...)
	return t.Select(kept)
}

// ToMatrix converts the whole table into a dense numeric matrix. Every cell
// must parse as float64.
func (t *Table) ToMatrix() (*mat.Dense, error) {
	if t.NumRows() == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "ToMatrix")
	}
	m := mat.NewDense(t.NumRows(), t.NumCols(), nil)
	for i, row := range t.Cells {
		for j, cell := range row {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, errors.NewSchemaError("ToMatrix", t.Columns[j], "non-numeric value "+strconv.Quote(cell))
			}
			m.Set(i, j, v)
		}
	}
	return m, nil
}

// SplitFeaturesLabel converts the table into a feature matrix X and a label
// column vector y. The label column must exist and be numeric.
func (t *Table) SplitFeaturesLabel(labelColumn string) (*mat.Dense, *mat.Dense, []string, error) {
	labels, err := t.NumericColumn(labelColumn)
	if err != nil {
		return nil, nil, nil, err
	}
	features, err := t.Drop(labelColumn)
	if err != nil {
		return nil, nil, nil, err
	}
	x, err := features.ToMatrix()
	if err != nil {
		return nil, nil, nil, err
	}
	y := mat.NewDense(len(labels), 1, labels)
	return x, y, features.Columns, nil
}

// ClassCounts tallies the distinct values of the label column.
func (t *Table) ClassCounts(labelColumn string) (map[string]int, error) {
	values, err := t.Column(labelColumn)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, v := range values {
		counts[v]++
	}
	return counts, nil
}

// FromMatrix builds a table from a numeric matrix and column names.
func FromMatrix(m *mat.Dense, columns []string) (*Table, error) {
	rows, cols := m.Dims()
	if cols != len(columns) {
		return nil, errors.NewDimensionError("FromMatrix", len(columns), cols, 1)
	}
	t := New(columns)
	t.Cells = make([][]string, rows)
	for i := 0; i < rows; i++ {
		row := make([]string, cols)
		for j := 0; j < cols; j++ {
			row[j] = FormatFloat(m.At(i, j))
		}
		t.Cells[i] = row
	}
	return t, nil
}

// FormatFloat renders a float the way split artifacts store it.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
