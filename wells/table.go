package wells

import (
	"fmt"
	"maps"
	"slices"
)

// Table is a row-indexed table of float64 columns. Each row belongs to the
// well named by its id; one well may span many rows. Tables are immutable.
type Table struct {
	name string
	ids  []string
	cols map[string][]float64
}

// NewTable builds a table from per-row well ids and named columns. Every
// column must have one value per id. name labels the table in errors.
func NewTable(name string, ids []string, columns map[string][]float64) (*Table, error) {
	t := &Table{
		name: name,
		ids:  slices.Clone(ids),
		cols: make(map[string][]float64, len(columns)),
	}
	for col, values := range columns {
		if len(values) != len(ids) {
			return nil, fmt.Errorf("wells: %s column %q has %d values for %d rows", name, col, len(values), len(ids))
		}
		t.cols[col] = slices.Clone(values)
	}
	return t, nil
}

// Name returns the table label.
func (t *Table) Name() string { return t.name }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.ids) }

// Columns returns the column names, sorted.
func (t *Table) Columns() []string {
	return slices.Sorted(maps.Keys(t.cols))
}

// HasColumn reports whether the table has a column called name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.cols[name]
	return ok
}

// Column returns a copy of the named column.
func (t *Table) Column(name string) ([]float64, bool) {
	v, ok := t.cols[name]
	if !ok {
		return nil, false
	}
	return slices.Clone(v), true
}

// Value returns one cell. It panics if row or col is out of range, like a
// slice index.
func (t *Table) Value(row int, col string) float64 {
	v, ok := t.cols[col]
	if !ok {
		panic(fmt.Sprintf("wells: %s has no column %q", t.name, col))
	}
	return v[row]
}

// ID returns the well id of row.
func (t *Table) ID(row int) string { return t.ids[row] }

// IDs returns the distinct well ids in order of first appearance.
func (t *Table) IDs() []string {
	seen := make(map[string]bool)
	var out []string
	for _, id := range t.ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// Rows returns the row indices belonging to id, in table order.
func (t *Table) Rows(id string) []int {
	var rows []int
	for i, rid := range t.ids {
		if rid == id {
			rows = append(rows, i)
		}
	}
	return rows
}

// Select returns a table holding only cols.
func (t *Table) Select(cols ...string) (*Table, error) {
	if err := t.require(cols...); err != nil {
		return nil, err
	}
	out := &Table{name: t.name, ids: t.ids, cols: make(map[string][]float64, len(cols))}
	for _, c := range cols {
		out.cols[c] = t.cols[c]
	}
	return out, nil
}

func (t *Table) require(cols ...string) error {
	for _, c := range cols {
		if _, ok := t.cols[c]; !ok {
			return &UnknownColumnError{Table: t.name, Column: c, Available: t.Columns()}
		}
	}
	return nil
}

// rowsByID groups row indices by id in one pass.
func (t *Table) rowsByID() map[string][]int {
	out := make(map[string][]int)
	for i, id := range t.ids {
		out[id] = append(out[id], i)
	}
	return out
}
