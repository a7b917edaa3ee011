package testkit

import (
	"fmt"
	"math/rand"
	"strconv"

	"churnlab/domain/customer"
)

// Rule selects how the synthetic target relates to the attributes.
type Rule string

const (
	// RuleContract makes churn deterministic: a customer churns exactly
	// when their contract is month-to-month. Every other attribute is
	// uncorrelated noise.
	RuleContract Rule = "contract"
	// RuleNoSignal draws the label independently of every attribute.
	RuleNoSignal Rule = "no_signal"
)

// Config controls synthetic dataset generation.
type Config struct {
	Rows int
	Seed int64
	Rule Rule
	// BlankTotalCharges blanks the TotalCharges field on the first N rows
	// to exercise the cleaner's exclusion policy.
	BlankTotalCharges int
	// NoiseColumn adds a pure-noise categorical column ("noise_band"),
	// useful as an importance-ranking floor.
	NoiseColumn bool
}

// DefaultConfig returns a mid-sized contract-rule dataset.
func DefaultConfig() Config {
	return Config{Rows: 1000, Seed: 42, Rule: RuleContract}
}

var (
	contracts      = []string{"Month-to-month", "One year", "Two year"}
	paymentMethods = []string{"Bank transfer", "Credit card", "Electronic check", "Mailed check"}
	internet       = []string{"DSL", "Fiber optic", "No"}
	yesNo          = []string{"Yes", "No"}
	noiseBands     = []string{"alpha", "beta", "gamma", "delta"}
)

// Generate produces raw customer rows in the telco layout. Output is
// deterministic for a given config.
func Generate(cfg Config) ([]customer.RawRecord, error) {
	if cfg.Rows <= 0 {
		return nil, fmt.Errorf("rows must be positive, got %d", cfg.Rows)
	}
	if cfg.Rule == "" {
		cfg.Rule = RuleContract
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	rows := make([]customer.RawRecord, cfg.Rows)
	for i := range rows {
		contract := contracts[rng.Intn(len(contracts))]
		tenure := rng.Intn(73)
		monthly := 20 + rng.Float64()*100
		total := monthly*float64(tenure) + rng.Float64()*50

		var churned bool
		switch cfg.Rule {
		case RuleContract:
			churned = contract == "Month-to-month"
		case RuleNoSignal:
			churned = rng.Intn(2) == 1
		default:
			return nil, fmt.Errorf("unknown rule %q", cfg.Rule)
		}

		row := customer.RawRecord{
			"customerID":      fmt.Sprintf("%04d-SYNTH", i),
			"gender":          pick(rng, "Male", "Female"),
			"SeniorCitizen":   pick(rng, "0", "1"),
			"Partner":         yesNo[rng.Intn(2)],
			"Dependents":      yesNo[rng.Intn(2)],
			"Contract":        contract,
			"PaymentMethod":   paymentMethods[rng.Intn(len(paymentMethods))],
			"InternetService": internet[rng.Intn(len(internet))],
			"tenure":          strconv.Itoa(tenure),
			"MonthlyCharges":  strconv.FormatFloat(monthly, 'f', 2, 64),
			"TotalCharges":    strconv.FormatFloat(total, 'f', 2, 64),
		}
		if churned {
			row["Churn"] = "Yes"
		} else {
			row["Churn"] = "No"
		}
		if cfg.NoiseColumn {
			row["noise_band"] = noiseBands[rng.Intn(len(noiseBands))]
		}
		if i < cfg.BlankTotalCharges {
			row["TotalCharges"] = " "
		}
		rows[i] = row
	}
	return rows, nil
}

func pick(rng *rand.Rand, a, b string) string {
	if rng.Intn(2) == 0 {
		return a
	}
	return b
}
