package render

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"churnlab/internal/pipeline"
)

// Markdown renders a run result as a markdown report: per-family metric
// tables and top-feature rankings. Chart rendering stays with external
// consumers; this is the structured prose view of the same values.
func Markdown(res *pipeline.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Churn model run %s\n\n", res.RunID)
	fmt.Fprintf(&b, "- Rows: %d retained of %d (%d excluded)\n",
		res.CleanReport.Retained, res.CleanReport.Input, res.CleanReport.Excluded)
	fmt.Fprintf(&b, "- Split: %d train / %d test (seed %d)\n", res.TrainRows, res.TestRows, res.Seed)
	fmt.Fprintf(&b, "- Duration: %s\n\n", res.Duration.Round(1e6))

	writeFamily(&b, res.Logistic)
	writeFamily(&b, res.Forest)
	return b.String()
}

// HTML converts the markdown report to a standalone HTML fragment.
func HTML(res *pipeline.Result) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	doc := p.Parse([]byte(Markdown(res)))
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.Render(doc, renderer)
}

func writeFamily(b *strings.Builder, fam pipeline.FamilyResult) {
	fmt.Fprintf(b, "## %s\n\n", fam.Family)
	if fam.Failed() {
		fmt.Fprintf(b, "Stage failed: %v\n\n", fam.Err)
		return
	}
	e := fam.Evaluation
	fmt.Fprintf(b, "Confusion (threshold %.2f): TP=%d FP=%d TN=%d FN=%d\n\n",
		e.Threshold, e.Confusion.TruePositive, e.Confusion.FalsePositive,
		e.Confusion.TrueNegative, e.Confusion.FalseNegative)

	b.WriteString("| metric | value |\n|---|---|\n")
	fmt.Fprintf(b, "| accuracy | %.4f |\n", e.Accuracy)
	fmt.Fprintf(b, "| sensitivity (%s) | %.4f |\n", e.PositiveClass, e.Sensitivity)
	fmt.Fprintf(b, "| specificity | %.4f |\n", e.Specificity)
	fmt.Fprintf(b, "| balanced accuracy | %.4f |\n", e.BalancedAccuracy)
	fmt.Fprintf(b, "| pos pred value | %.4f |\n", e.PosPredValue)
	fmt.Fprintf(b, "| neg pred value | %.4f |\n", e.NegPredValue)
	fmt.Fprintf(b, "| kappa | %.4f |\n", e.Kappa)
	fmt.Fprintf(b, "| AUC | %.4f |\n\n", e.AUC)

	if len(fam.Importance) > 0 {
		b.WriteString("Permutation importance (AUC decrease):\n\n")
		writeRanking(b, fam)
	}
	if len(fam.ImpurityImportance) > 0 {
		b.WriteString("Impurity importance (normalized Gini decrease):\n\n")
		for i, imp := range fam.ImpurityImportance {
			if i >= 10 {
				break
			}
			fmt.Fprintf(b, "%d. %s: %.4f\n", i+1, imp.Feature, imp.Score)
		}
		b.WriteString("\n")
	}
}

func writeRanking(b *strings.Builder, fam pipeline.FamilyResult) {
	for i, imp := range fam.Importance {
		if i >= 10 {
			break
		}
		fmt.Fprintf(b, "%d. %s: %.4f\n", i+1, imp.Feature, imp.Score)
	}
	b.WriteString("\n")
}
