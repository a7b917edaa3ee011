package logistic

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"churnlab/domain/core"
	"churnlab/domain/features"
	"churnlab/domain/model"
)

// Options control the fit.
type Options struct {
	MaxIterations int     // Newton steps before giving up, default 50
	Tolerance     float64 // deviance convergence criterion, default 1e-8
}

// DefaultOptions mirror the usual GLM fitting controls.
func DefaultOptions() Options {
	return Options{MaxIterations: 50, Tolerance: 1e-8}
}

// term is one column of the expanded design matrix. Categorical schema
// columns are one-hot expanded with the first level as reference; numeric
// and ordinal columns enter as-is.
type term struct {
	column int // schema column index
	level  int // indicator level code, -1 for identity
	name   string
}

// Model is a fitted binary logistic regression classifier. Coefficients
// minimize the binomial deviance over all feature columns, with no
// interaction terms and no regularization.
type Model struct {
	schema     features.Schema
	terms      []term
	intercept  float64
	coefs      []float64 // aligned with terms
	iterations int
	deviance   float64
}

// Fit trains by iteratively reweighted least squares. It fails on a
// single-class target and reports non-convergence as a fit error rather
// than returning a half-converged model.
func Fit(set *features.Set, opts Options) (*Model, error) {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 50
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = 1e-8
	}
	if set.Len() == 0 {
		return nil, core.NewFitError(string(model.FamilyLogistic), core.ErrEmptyInput)
	}
	negatives, positives := set.ClassCounts()
	if negatives == 0 {
		return nil, core.NewFitError(string(model.FamilyLogistic), core.NewSingleClassError("churned"))
	}
	if positives == 0 {
		return nil, core.NewFitError(string(model.FamilyLogistic), core.NewSingleClassError("not churned"))
	}

	terms := expandTerms(set.Schema)
	n := set.Len()
	p := len(terms) + 1 // intercept first

	X := mat.NewDense(n, p, nil)
	y := make([]float64, n)
	for i, row := range set.Rows {
		X.Set(i, 0, 1)
		for j, t := range terms {
			X.Set(i, j+1, t.value(row))
		}
		if set.Labels[i] {
			y[i] = 1
		}
	}

	beta := make([]float64, p)
	eta := make([]float64, n)
	mu := make([]float64, n)
	scaled := mat.NewDense(n, p, nil)
	zw := mat.NewVecDense(n, nil)
	sol := mat.NewVecDense(p, nil)

	deviance := math.Inf(1)
	converged := false
	var iter int
	for iter = 0; iter < opts.MaxIterations; iter++ {
		for i := 0; i < n; i++ {
			var e float64
			for j := 0; j < p; j++ {
				e += X.At(i, j) * beta[j]
			}
			eta[i] = e
			mu[i] = sigmoid(e)
		}

		// Weighted least squares step: scale rows by sqrt(w) and solve by QR.
		for i := 0; i < n; i++ {
			w := mu[i] * (1 - mu[i])
			if w < 1e-10 {
				w = 1e-10
			}
			sw := math.Sqrt(w)
			z := eta[i] + (y[i]-mu[i])/w
			for j := 0; j < p; j++ {
				scaled.Set(i, j, X.At(i, j)*sw)
			}
			zw.SetVec(i, z*sw)
		}
		var qr mat.QR
		qr.Factorize(scaled)
		if err := qr.SolveVecTo(sol, false, zw); err != nil {
			return nil, core.NewFitError(string(model.FamilyLogistic),
				fmt.Errorf("%w: singular weighted design matrix at iteration %d", core.ErrNotConverged, iter))
		}
		for j := 0; j < p; j++ {
			beta[j] = sol.AtVec(j)
		}

		dev := binomialDeviance(X, beta, y)
		// On separable data the deviance decays geometrically toward zero
		// without ever meeting the relative test, so a deviance below the
		// tolerance counts as converged on its own.
		if dev < opts.Tolerance || math.Abs(dev-deviance)/(math.Abs(dev)+0.1) < opts.Tolerance {
			deviance = dev
			converged = true
			break
		}
		deviance = dev
	}
	if !converged {
		return nil, core.NewFitError(string(model.FamilyLogistic),
			fmt.Errorf("%w after %d iterations (deviance %.6g)", core.ErrNotConverged, iter, deviance))
	}

	return &Model{
		schema:     set.Schema,
		terms:      terms,
		intercept:  beta[0],
		coefs:      beta[1:],
		iterations: iter + 1,
		deviance:   deviance,
	}, nil
}

// Family returns the model family tag.
func (m *Model) Family() model.Family {
	return model.FamilyLogistic
}

// Schema returns the feature schema the model was fitted on.
func (m *Model) Schema() features.Schema {
	return m.schema
}

// PredictProba returns the probability of churn for one feature-set row.
func (m *Model) PredictProba(row []float64) (float64, error) {
	if len(row) != len(m.schema.Columns) {
		return 0, core.NewSchemaMismatchError(fmt.Sprintf(
			"row has %d columns, model was fitted on %d", len(row), len(m.schema.Columns)))
	}
	score := m.intercept
	for j, t := range m.terms {
		score += m.coefs[j] * t.value(row)
	}
	return sigmoid(score), nil
}

// Coefficients returns the fitted coefficients keyed by term name, with the
// intercept under "(Intercept)".
func (m *Model) Coefficients() map[string]float64 {
	out := make(map[string]float64, len(m.terms)+1)
	out["(Intercept)"] = m.intercept
	for j, t := range m.terms {
		out[t.name] = m.coefs[j]
	}
	return out
}

// Iterations returns the number of Newton steps taken.
func (m *Model) Iterations() int {
	return m.iterations
}

// Deviance returns the final binomial deviance.
func (m *Model) Deviance() float64 {
	return m.deviance
}

func (t term) value(row []float64) float64 {
	if t.level < 0 {
		return row[t.column]
	}
	if int(row[t.column]) == t.level {
		return 1
	}
	return 0
}

func expandTerms(schema features.Schema) []term {
	var terms []term
	for idx, col := range schema.Columns {
		if col.Kind == features.KindCategorical {
			for code := 1; code < len(col.Levels); code++ {
				terms = append(terms, term{
					column: idx,
					level:  code,
					name:   col.Name + "=" + col.Levels[code],
				})
			}
			continue
		}
		terms = append(terms, term{column: idx, level: -1, name: col.Name})
	}
	return terms
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func binomialDeviance(X *mat.Dense, beta []float64, y []float64) float64 {
	n, p := X.Dims()
	var dev float64
	for i := 0; i < n; i++ {
		var e float64
		for j := 0; j < p; j++ {
			e += X.At(i, j) * beta[j]
		}
		mu := sigmoid(e)
		// Clamp away from 0/1 so separable fits keep a finite deviance.
		if mu < 1e-12 {
			mu = 1e-12
		} else if mu > 1-1e-12 {
			mu = 1 - 1e-12
		}
		dev -= 2 * (y[i]*math.Log(mu) + (1-y[i])*math.Log(1-mu))
	}
	return dev
}
