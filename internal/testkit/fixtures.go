package testkit

import (
	"churnlab/domain/customer"
	"churnlab/domain/features"
	"churnlab/internal/clean"
	featbuild "churnlab/internal/features"
)

// FeatureSet generates, cleans and encodes a synthetic dataset in one step.
// The returned set uses the default telco cleaning config.
func FeatureSet(cfg Config) (*features.Set, customer.CleanReport, error) {
	raw, err := Generate(cfg)
	if err != nil {
		return nil, customer.CleanReport{}, err
	}
	records, report, err := clean.New(clean.DefaultConfig()).Clean(raw)
	if err != nil {
		return nil, report, err
	}
	builder, err := featbuild.NewBuilder(records)
	if err != nil {
		return nil, report, err
	}
	set, err := builder.Build(records)
	if err != nil {
		return nil, report, err
	}
	return set, report, nil
}
