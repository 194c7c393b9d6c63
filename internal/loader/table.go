// Package loader resolves a catalog entry to its in-memory tabular value,
// dispatching to the CSV, Excel, or SQL reader. All three return the same
// uniform Table type rather than per-source value shapes.
package loader

import "fmt"

// Table is the uniform tabular value every loader returns and every node
// function may produce as output: a small columnar record batch.
type Table struct {
	Columns []string
	Rows    [][]any
}

// NewTable builds a Table, defensively copying neither columns nor rows;
// callers own what they pass in.
func NewTable(columns []string, rows [][]any) Table {
	return Table{Columns: columns, Rows: rows}
}

// NumRows reports the row count.
func (t Table) NumRows() int { return len(t.Rows) }

// WithColumn returns a copy of t with a new column appended, each row
// getting the same value.
func (t Table) WithColumn(name string, value any) Table {
	columns := append(append([]string{}, t.Columns...), name)
	rows := make([][]any, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = append(append([]any{}, row...), value)
	}
	return Table{Columns: columns, Rows: rows}
}

// Column returns every value in the named column, in row order.
func (t Table) Column(name string) ([]any, bool) {
	idx := -1
	for i, c := range t.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	values := make([]any, len(t.Rows))
	for i, row := range t.Rows {
		if idx < len(row) {
			values[i] = row[idx]
		}
	}
	return values, true
}

// Project returns a copy of t restricted to the named columns, in the
// order given. Names absent from t are dropped.
func (t Table) Project(columns []string) Table {
	indices := make([]int, 0, len(columns))
	kept := make([]string, 0, len(columns))
	for _, want := range columns {
		for i, c := range t.Columns {
			if c == want {
				indices = append(indices, i)
				kept = append(kept, want)
				break
			}
		}
	}
	rows := make([][]any, len(t.Rows))
	for i, row := range t.Rows {
		projected := make([]any, len(indices))
		for j, idx := range indices {
			if idx < len(row) {
				projected[j] = row[idx]
			}
		}
		rows[i] = projected
	}
	return Table{Columns: kept, Rows: rows}
}

func (t Table) String() string {
	return fmt.Sprintf("Table{columns=%v, rows=%d}", t.Columns, len(t.Rows))
}
