package wells

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"gopkg.in/yaml.v3"
)

// ColumnMap renames external column names to canonical ones, e.g.
// {"DEPT": "md", "IMG_INCL": "inc", "IMG_AZ": "azi"}.
type ColumnMap map[string]string

// LoadColumnMap parses a YAML mapping of external to canonical names.
func LoadColumnMap(r io.Reader) (ColumnMap, error) {
	var m ColumnMap
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&m); err != nil {
		if err == io.EOF {
			return ColumnMap{}, nil
		}
		return nil, fmt.Errorf("wells: parse column map: %w", err)
	}
	for from, to := range m {
		if from == "" || to == "" {
			return nil, fmt.Errorf("wells: column map entry %q: %q has an empty name", from, to)
		}
	}
	return m, nil
}

// Apply returns t with mapped columns renamed. Every external name must be a
// column of t, and no two columns may end up with the same name. Columns not
// named in m keep their names.
func (m ColumnMap) Apply(t *Table) (*Table, error) {
	for _, from := range slices.Sorted(maps.Keys(m)) {
		if err := t.require(from); err != nil {
			return nil, err
		}
	}

	out := &Table{name: t.name, ids: t.ids, cols: make(map[string][]float64, len(t.cols))}
	for _, col := range t.Columns() {
		name := col
		if to, ok := m[col]; ok {
			name = to
		}
		if _, dup := out.cols[name]; dup {
			return nil, fmt.Errorf("%w: %s column %q", ErrDuplicateColumn, t.name, name)
		}
		out.cols[name] = t.cols[col]
	}
	return out, nil
}
