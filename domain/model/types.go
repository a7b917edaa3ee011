package model

import (
	"churnlab/domain/features"
)

// Family tags a classifier family.
type Family string

const (
	FamilyLogistic Family = "logistic_regression"
	FamilyForest   Family = "random_forest"
)

// Classifier is the single capability both model families expose: given a
// feature-set row in the schema the model was fitted on, produce a churn
// probability. Evaluator and explainer are written once against this
// interface and work with either family.
type Classifier interface {
	// Family returns the model family tag.
	Family() Family
	// Schema returns the feature schema the model was fitted on.
	Schema() features.Schema
	// PredictProba returns the probability of churn for one row. The row
	// must be laid out per Schema; a length mismatch is an error.
	PredictProba(row []float64) (float64, error)
}
