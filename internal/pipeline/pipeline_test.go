package pipeline_test

import (
	"context"
	"testing"

	apperrors "churnlab/internal/errors"
	"churnlab/internal/pipeline"
	"churnlab/internal/testkit"
)

// The contract-rule dataset is the pipeline's gold standard: churn is a pure
// function of contract type, so both families must nearly saturate the
// metrics and rank Contract first.
func TestGoldStandard_ContractRulePipeline(t *testing.T) {
	raw, err := testkit.Generate(testkit.Config{Rows: 1000, Seed: 42, Rule: testkit.RuleContract})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	cfg := pipeline.DefaultConfig()
	cfg.Forest.Trees = 200

	res, err := pipeline.Run(context.Background(), raw, cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.CleanReport.Retained != 1000 {
		t.Fatalf("expected all rows retained, got %d", res.CleanReport.Retained)
	}
	if res.TrainRows+res.TestRows != 1000 {
		t.Fatalf("split does not cover the set: %d + %d", res.TrainRows, res.TestRows)
	}

	for _, fam := range []pipeline.FamilyResult{res.Logistic, res.Forest} {
		if fam.Failed() {
			t.Fatalf("%s failed: %v", fam.Family, fam.Err)
		}
		e := fam.Evaluation
		if e.Accuracy <= 0.95 {
			t.Fatalf("%s accuracy %.4f, want > 0.95", fam.Family, e.Accuracy)
		}
		if e.AUC <= 0.95 {
			t.Fatalf("%s AUC %.4f, want > 0.95", fam.Family, e.AUC)
		}
		if total := e.Confusion.Total(); total != res.TestRows {
			t.Fatalf("%s confusion total %d != test rows %d", fam.Family, total, res.TestRows)
		}
		if top := fam.Importance.Top().Feature; top != "Contract" {
			t.Fatalf("%s ranked %q first, want Contract (ranking %v)", fam.Family, top, fam.Importance)
		}
	}
	if top := res.Forest.ImpurityImportance.Top().Feature; top != "Contract" {
		t.Fatalf("impurity importance ranked %q first, want Contract", top)
	}
}

func TestGoldStandard_NoSignalDatasetScoresNearHalf(t *testing.T) {
	raw, err := testkit.Generate(testkit.Config{Rows: 1000, Seed: 42, Rule: testkit.RuleNoSignal})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	cfg := pipeline.DefaultConfig()
	cfg.Forest.Trees = 100

	res, err := pipeline.Run(context.Background(), raw, cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	// Logistic regression cannot memorize the noise; its held-out AUC must
	// hover around chance. The forest can overfit the train set but not the
	// held-out rows, so keep the band wide and symmetric.
	for _, fam := range []pipeline.FamilyResult{res.Logistic, res.Forest} {
		if fam.Failed() {
			t.Fatalf("%s failed: %v", fam.Family, fam.Err)
		}
		if auc := fam.Evaluation.AUC; auc < 0.35 || auc > 0.65 {
			t.Fatalf("%s AUC %.4f on pure noise, want ~0.5", fam.Family, auc)
		}
	}
}

func TestPipeline_ReproducibleForSeed(t *testing.T) {
	raw, err := testkit.Generate(testkit.Config{Rows: 500, Seed: 8})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	cfg := pipeline.DefaultConfig()
	cfg.Seed = 123
	cfg.Forest.Trees = 50

	a, err := pipeline.Run(context.Background(), raw, cfg)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	b, err := pipeline.Run(context.Background(), raw, cfg)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	for name, pair := range map[string][2]pipeline.FamilyResult{
		"logistic": {a.Logistic, b.Logistic},
		"forest":   {a.Forest, b.Forest},
	} {
		ea, eb := pair[0].Evaluation, pair[1].Evaluation
		if ea.Confusion != eb.Confusion {
			t.Fatalf("%s confusion differs between identical runs: %+v vs %+v", name, ea.Confusion, eb.Confusion)
		}
		if ea.AUC != eb.AUC {
			t.Fatalf("%s AUC differs: %v vs %v", name, ea.AUC, eb.AUC)
		}
	}
}

func TestPipeline_EmptyInputAborts(t *testing.T) {
	_, err := pipeline.Run(context.Background(), nil, pipeline.DefaultConfig())
	if err == nil {
		t.Fatal("expected an error for empty input")
	}
	if code := apperrors.GetCode(err); code != apperrors.CodeDataIntegrity {
		t.Fatalf("got code %s, want %s", code, apperrors.CodeDataIntegrity)
	}
}
