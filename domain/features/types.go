package features

import (
	"fmt"
	"strings"

	"churnlab/domain/core"
)

// Kind classifies a feature column.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
	KindOrdinal     Kind = "ordinal"
)

// Column describes one feature column of a schema.
type Column struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
	// Levels holds the fixed level table for categorical and ordinal
	// columns, in code order: the code of Levels[i] is i. Empty for
	// numeric columns.
	Levels []string `json:"levels,omitempty"`
}

// Code returns the discrete code for a level, or -1 if the level is not in
// the column's level table.
func (c Column) Code(level string) int {
	for i, l := range c.Levels {
		if l == level {
			return i
		}
	}
	return -1
}

// Schema is the ordered column layout of a feature set. It is established
// once per pipeline run and shared read-only between training and
// evaluation, so codes are guaranteed consistent across both.
type Schema struct {
	Columns []Column `json:"columns"`
}

// Index returns the position of a column by name.
func (s Schema) Index(name string) (int, bool) {
	for i, c := range s.Columns {
		if c.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Names returns the column names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Fingerprint returns a deterministic hash of the schema: column order,
// kinds, and full level tables.
func (s Schema) Fingerprint() core.SchemaHash {
	var b strings.Builder
	for _, c := range s.Columns {
		b.WriteString(c.Name)
		b.WriteByte('|')
		b.WriteString(string(c.Kind))
		b.WriteByte('|')
		b.WriteString(strings.Join(c.Levels, ","))
		b.WriteByte('\n')
	}
	return core.SchemaHash(core.NewHash([]byte(b.String())))
}

// Compatible reports whether another schema matches this one exactly.
// Any difference in column order, kind, or level tables is a mismatch;
// silent column misalignment would corrupt predictions without detection.
func (s Schema) Compatible(other Schema) error {
	if len(s.Columns) != len(other.Columns) {
		return core.NewSchemaMismatchError(fmt.Sprintf(
			"expected %d columns, got %d", len(s.Columns), len(other.Columns)))
	}
	for i, c := range s.Columns {
		o := other.Columns[i]
		if c.Name != o.Name {
			return core.NewSchemaMismatchError(fmt.Sprintf(
				"column %d: expected %q, got %q", i, c.Name, o.Name))
		}
		if c.Kind != o.Kind {
			return core.NewSchemaMismatchError(fmt.Sprintf(
				"column %q: expected kind %s, got %s", c.Name, c.Kind, o.Kind))
		}
		if len(c.Levels) != len(o.Levels) {
			return core.NewSchemaMismatchError(fmt.Sprintf(
				"column %q: level table size %d vs %d", c.Name, len(c.Levels), len(o.Levels)))
		}
		for j, l := range c.Levels {
			if o.Levels[j] != l {
				return core.NewSchemaMismatchError(fmt.Sprintf(
					"column %q: level %d is %q vs %q", c.Name, j, l, o.Levels[j]))
			}
		}
	}
	return nil
}

// Set is a modeling-ready feature matrix: one row per retained customer,
// columns laid out per Schema, labels aligned by index. Built once per
// pipeline run and treated as immutable thereafter.
type Set struct {
	Schema Schema
	Rows   [][]float64
	Labels []bool // true = churned
}

// Len returns the number of rows.
func (s *Set) Len() int {
	return len(s.Rows)
}

// ClassCounts returns the number of non-churned and churned rows.
func (s *Set) ClassCounts() (negatives, positives int) {
	for _, l := range s.Labels {
		if l {
			positives++
		} else {
			negatives++
		}
	}
	return negatives, positives
}

// ColumnValues copies out one column of the matrix.
func (s *Set) ColumnValues(idx int) []float64 {
	vals := make([]float64, len(s.Rows))
	for i, row := range s.Rows {
		vals[i] = row[idx]
	}
	return vals
}

// TenureGroupColumn is the derived ordinal column appended by the feature
// builder alongside raw tenure.
const TenureGroupColumn = "tenure_group"

// TenureGroupLevels are the ordinal level names in code order.
var TenureGroupLevels = []string{"0-12", "12-24", "24-48", "48-60", "60+"}

// TenureGroupCode buckets tenure in months into the fixed ordinal bins.
// Bins are closed-left/open-right except the final bin, which is unbounded.
func TenureGroupCode(tenureMonths float64) int {
	switch {
	case tenureMonths < 12:
		return 0
	case tenureMonths < 24:
		return 1
	case tenureMonths < 48:
		return 2
	case tenureMonths < 60:
		return 3
	default:
		return 4
	}
}
