package customer

import (
	"sort"
	"strconv"
)

// RawRecord is one row as read from a tabular source, header name to cell
// value, before any cleaning has been applied.
type RawRecord map[string]string

// Record is the canonical cleaned form of a customer row. The identifier
// attribute is stripped before this point; every retained attribute is
// guaranteed non-missing.
type Record struct {
	Categorical map[string]string  `json:"categorical"`
	Numeric     map[string]float64 `json:"numeric"`
	Churned     bool               `json:"churned"`
}

// CategoricalNames returns the categorical attribute names in sorted order.
func (r Record) CategoricalNames() []string {
	names := make([]string, 0, len(r.Categorical))
	for name := range r.Categorical {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NumericNames returns the numeric attribute names in sorted order.
func (r Record) NumericNames() []string {
	names := make([]string, 0, len(r.Numeric))
	for name := range r.Numeric {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AsRaw converts a cleaned record back into raw row form. Numeric values are
// formatted with minimal precision so a clean/rawify round trip is lossless.
func (r Record) AsRaw(targetField, targetYes, targetNo string) RawRecord {
	raw := make(RawRecord, len(r.Categorical)+len(r.Numeric)+1)
	for name, val := range r.Categorical {
		raw[name] = val
	}
	for name, val := range r.Numeric {
		raw[name] = strconv.FormatFloat(val, 'f', -1, 64)
	}
	if r.Churned {
		raw[targetField] = targetYes
	} else {
		raw[targetField] = targetNo
	}
	return raw
}

// CleanReport summarizes the outcome of a cleaning pass: how many rows were
// kept, how many were dropped, and why.
type CleanReport struct {
	Input    int            `json:"input"`
	Retained int            `json:"retained"`
	Excluded int            `json:"excluded"`
	Reasons  map[string]int `json:"reasons,omitempty"`

	// NumericProfiles carries summary statistics for each numeric attribute
	// over the retained rows.
	NumericProfiles map[string]NumericProfile `json:"numeric_profiles,omitempty"`
}

// NumericProfile holds summary statistics for one numeric attribute.
type NumericProfile struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Exclusion reasons recorded in CleanReport.Reasons.
const (
	ReasonUnparseableNumeric = "unparseable_numeric"
	ReasonMissingValue       = "missing_value"
	ReasonUnknownTarget      = "unknown_target"
)
