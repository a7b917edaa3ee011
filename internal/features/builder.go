package features

import (
	"fmt"
	"sort"

	"churnlab/domain/core"
	"churnlab/domain/customer"
	"churnlab/domain/features"
)

// TenureField is the numeric column the tenure_group ordinal is derived from.
const TenureField = "tenure"

// Builder derives a fixed feature schema from a cleaned record collection
// and encodes records against it. The code tables are established once, from
// the observed value sets, and reused for every encode in the same pipeline
// run, so training and evaluation see identical encodings.
type Builder struct {
	schema features.Schema
}

// NewBuilder establishes the schema from the full cleaned record sequence.
// Column order and level tables are sorted, so the same records always
// produce the same schema.
func NewBuilder(records []customer.Record) (*Builder, error) {
	if len(records) == 0 {
		return nil, core.ErrEmptyInput
	}

	catLevels := make(map[string]map[string]bool)
	numSet := make(map[string]bool)
	for _, rec := range records {
		for name, val := range rec.Categorical {
			if catLevels[name] == nil {
				catLevels[name] = make(map[string]bool)
			}
			catLevels[name][val] = true
		}
		for name := range rec.Numeric {
			numSet[name] = true
		}
	}
	if !numSet[TenureField] {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownColumn, TenureField)
	}

	catNames := make([]string, 0, len(catLevels))
	for name := range catLevels {
		catNames = append(catNames, name)
	}
	sort.Strings(catNames)

	numNames := make([]string, 0, len(numSet))
	for name := range numSet {
		numNames = append(numNames, name)
	}
	sort.Strings(numNames)

	var schema features.Schema
	for _, name := range catNames {
		levels := make([]string, 0, len(catLevels[name]))
		for level := range catLevels[name] {
			levels = append(levels, level)
		}
		sort.Strings(levels)
		schema.Columns = append(schema.Columns, features.Column{
			Name:   name,
			Kind:   features.KindCategorical,
			Levels: levels,
		})
	}
	for _, name := range numNames {
		schema.Columns = append(schema.Columns, features.Column{
			Name: name,
			Kind: features.KindNumeric,
		})
	}
	schema.Columns = append(schema.Columns, features.Column{
		Name:   features.TenureGroupColumn,
		Kind:   features.KindOrdinal,
		Levels: features.TenureGroupLevels,
	})

	return &Builder{schema: schema}, nil
}

// Schema returns the established schema.
func (b *Builder) Schema() features.Schema {
	return b.schema
}

// Build encodes records into a feature set against the established schema.
// A record carrying a categorical level outside the code table, or missing
// an attribute the schema names, is a schema mismatch, never a silent
// coercion.
func (b *Builder) Build(records []customer.Record) (*features.Set, error) {
	if len(records) == 0 {
		return nil, core.ErrEmptyInput
	}
	set := &features.Set{
		Schema: b.schema,
		Rows:   make([][]float64, len(records)),
		Labels: make([]bool, len(records)),
	}
	for i, rec := range records {
		row := make([]float64, len(b.schema.Columns))
		for j, col := range b.schema.Columns {
			switch col.Kind {
			case features.KindCategorical:
				level, ok := rec.Categorical[col.Name]
				if !ok {
					return nil, core.NewSchemaMismatchError(fmt.Sprintf(
						"record %d is missing attribute %q", i, col.Name))
				}
				code := col.Code(level)
				if code < 0 {
					return nil, core.NewSchemaMismatchError(fmt.Sprintf(
						"record %d: level %q is not in the code table for %q", i, level, col.Name))
				}
				row[j] = float64(code)
			case features.KindNumeric:
				val, ok := rec.Numeric[col.Name]
				if !ok {
					return nil, core.NewSchemaMismatchError(fmt.Sprintf(
						"record %d is missing attribute %q", i, col.Name))
				}
				row[j] = val
			case features.KindOrdinal:
				row[j] = float64(features.TenureGroupCode(rec.Numeric[TenureField]))
			}
		}
		set.Rows[i] = row
		set.Labels[i] = rec.Churned
	}
	return set, nil
}
