package clean

import (
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"

	"churnlab/domain/core"
	"churnlab/domain/customer"
	"churnlab/internal"
)

// Config defines which raw columns play which role during cleaning.
type Config struct {
	// IDField is the unique identifier column, stripped before modeling.
	IDField string
	// TargetField is the binary churn label column.
	TargetField string
	// TargetYes and TargetNo are the accepted label spellings.
	TargetYes string
	TargetNo  string
	// NumericFields are trimmed and coerced to float64. A row whose value
	// fails to parse is excluded, never imputed: a blank total charge is
	// treated as unusable rather than missing-at-random.
	NumericFields []string
}

// DefaultConfig matches the telco subscription dataset layout.
func DefaultConfig() Config {
	return Config{
		IDField:       "customerID",
		TargetField:   "Churn",
		TargetYes:     "Yes",
		TargetNo:      "No",
		NumericFields: []string{"tenure", "MonthlyCharges", "TotalCharges"},
	}
}

// Cleaner validates and normalizes raw rows into canonical records.
type Cleaner struct {
	cfg    Config
	logger *internal.Logger
}

// New creates a cleaner with the given config.
func New(cfg Config) *Cleaner {
	return &Cleaner{cfg: cfg, logger: internal.DefaultLogger}
}

// Clean normalizes a sequence of raw rows. Rows with an unparseable numeric
// field, a missing value, or an unrecognized target label are excluded from
// the output; retained and excluded counts are reported. An empty input is a
// hard error since there is nothing to model.
func (c *Cleaner) Clean(raw []customer.RawRecord) ([]customer.Record, customer.CleanReport, error) {
	report := customer.CleanReport{
		Input:   len(raw),
		Reasons: make(map[string]int),
	}
	if len(raw) == 0 {
		return nil, report, core.ErrEmptyInput
	}

	numeric := make(map[string]bool, len(c.cfg.NumericFields))
	for _, f := range c.cfg.NumericFields {
		numeric[f] = true
	}

	records := make([]customer.Record, 0, len(raw))
	numericValues := make(map[string][]float64, len(c.cfg.NumericFields))

	for _, row := range raw {
		rec, reason := c.cleanRow(row, numeric)
		if reason != "" {
			report.Excluded++
			report.Reasons[reason]++
			continue
		}
		records = append(records, rec)
		for name, val := range rec.Numeric {
			numericValues[name] = append(numericValues[name], val)
		}
	}
	report.Retained = len(records)

	if len(records) == 0 {
		return nil, report, core.ErrEmptyInput
	}

	report.NumericProfiles = profileNumerics(numericValues)
	c.logger.Info("cleaning complete: retained %d of %d rows (%d excluded)",
		report.Retained, report.Input, report.Excluded)
	for reason, n := range report.Reasons {
		c.logger.Debug("excluded %d rows: %s", n, reason)
	}
	return records, report, nil
}

// cleanRow normalizes one row, returning a non-empty exclusion reason when
// the row cannot be retained.
func (c *Cleaner) cleanRow(row customer.RawRecord, numeric map[string]bool) (customer.Record, string) {
	rec := customer.Record{
		Categorical: make(map[string]string),
		Numeric:     make(map[string]float64),
	}
	for name, value := range row {
		if name == c.cfg.IDField {
			continue // carries no predictive signal
		}
		if name == c.cfg.TargetField {
			switch strings.TrimSpace(value) {
			case c.cfg.TargetYes:
				rec.Churned = true
			case c.cfg.TargetNo:
				rec.Churned = false
			default:
				return customer.Record{}, customer.ReasonUnknownTarget
			}
			continue
		}
		if numeric[name] {
			f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
			if err != nil {
				return customer.Record{}, customer.ReasonUnparseableNumeric
			}
			rec.Numeric[name] = f
			continue
		}
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return customer.Record{}, customer.ReasonMissingValue
		}
		rec.Categorical[name] = trimmed
	}
	// Declared numeric columns must be present, not just parseable.
	for name := range numeric {
		if _, ok := rec.Numeric[name]; !ok {
			return customer.Record{}, customer.ReasonMissingValue
		}
	}
	if _, ok := row[c.cfg.TargetField]; !ok {
		return customer.Record{}, customer.ReasonUnknownTarget
	}
	return rec, ""
}

func profileNumerics(values map[string][]float64) map[string]customer.NumericProfile {
	profiles := make(map[string]customer.NumericProfile, len(values))
	for name, vals := range values {
		mean, _ := stats.Mean(vals)
		median, _ := stats.Median(vals)
		stdDev, _ := stats.StandardDeviation(vals)
		min, _ := stats.Min(vals)
		max, _ := stats.Max(vals)
		profiles[name] = customer.NumericProfile{
			Mean:   mean,
			Median: median,
			StdDev: stdDev,
			Min:    min,
			Max:    max,
		}
	}
	return profiles
}
