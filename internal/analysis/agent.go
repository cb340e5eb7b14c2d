package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/kalambet/subtext/internal/llm"
	"github.com/kalambet/subtext/internal/retrieval"
)

// Categories is the fixed risk taxonomy scanned on every analysis. The
// category label doubles as the retrieval query for its context.
var Categories = []string{
	"Data Privacy & Selling",
	"Hidden Fees & Subscriptions",
	"Liability & Arbitration",
	"Account Termination",
	"IP Rights & Content Ownership",
}

// noFindingsSummary is returned verbatim when analysis finds nothing.
const noFindingsSummary = "No significant risks were found in this document. " +
	"It appears to be relatively safe, but always read carefully."

// Retriever abstracts semantic search for the agent.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) (retrieval.Context, error)
}

// CategoryAnalyzer abstracts per-category risk extraction.
type CategoryAnalyzer interface {
	Analyze(ctx context.Context, category string, rc retrieval.Context) ([]Finding, error)
}

// Agent orchestrates the full document analysis: per-category retrieval
// and extraction, score aggregation, and executive summary generation.
type Agent struct {
	retriever Retriever
	analyzer  CategoryAnalyzer
	model     llm.Model
	topK      int
	logger    *slog.Logger
}

// NewAgent wires an Agent. topK controls how many chunks each category
// retrieves (default 5 if <= 0).
func NewAgent(retriever Retriever, analyzer CategoryAnalyzer, model llm.Model, topK int) *Agent {
	if topK <= 0 {
		topK = 5
	}
	return &Agent{
		retriever: retriever,
		analyzer:  analyzer,
		model:     model,
		topK:      topK,
		logger:    slog.Default(),
	}
}

// categoryOutcome is one fan-out slot, filled in category order.
type categoryOutcome struct {
	status   CategoryStatus
	findings []Finding
}

// AnalyzeDocument scans the active document across the whole taxonomy.
// Context is retrieved per category up front; categories with context
// are analyzed concurrently and the report waits for the full cohort.
// Per-category failures degrade to zero findings with a "failed" status
// and never abort the analysis.
func (ag *Agent) AnalyzeDocument(ctx context.Context) Report {
	outcomes := make([]categoryOutcome, len(Categories))

	var wg sync.WaitGroup
	for i, category := range Categories {
		rc, err := ag.retriever.Retrieve(ctx, category, ag.topK)
		if err != nil {
			ag.logger.Warn("retrieval failed, skipping category", "category", category, "error", err)
			outcomes[i] = categoryOutcome{status: StatusFailed}
			continue
		}
		if rc.Empty() {
			outcomes[i] = categoryOutcome{status: StatusEmpty}
			continue
		}

		wg.Add(1)
		go func(i int, category string, rc retrieval.Context) {
			defer wg.Done()
			findings, err := ag.analyzer.Analyze(ctx, category, rc)
			if err != nil {
				ag.logger.Warn("category analysis failed", "category", category, "error", err)
				outcomes[i] = categoryOutcome{status: StatusFailed}
				return
			}
			outcomes[i] = categoryOutcome{status: StatusOK, findings: findings}
		}(i, category, rc)
	}
	wg.Wait()

	// Aggregate in category submission order; within a category the
	// model's emission order is preserved.
	allFindings := make([]Finding, 0)
	results := make([]CategoryResult, len(Categories))
	for i, category := range Categories {
		allFindings = append(allFindings, outcomes[i].findings...)
		results[i] = CategoryResult{
			Category: category,
			Status:   outcomes[i].status,
			Findings: len(outcomes[i].findings),
		}
	}

	return Report{
		Summary:          ag.executiveSummary(ctx, allFindings),
		RedFlags:         allFindings,
		OverallRiskScore: Score(allFindings),
		Categories:       results,
	}
}

// executiveSummary asks the model for a 2-3 sentence plain-text summary
// of the findings. Falls back to a deterministic message on failure.
func (ag *Agent) executiveSummary(ctx context.Context, findings []Finding) string {
	if len(findings) == 0 {
		return noFindingsSummary
	}

	var sb strings.Builder
	for _, f := range findings {
		fmt.Fprintf(&sb, "- [%s] %s: %s\n", f.RiskLevel, f.Category, f.Description)
	}

	prompt := fmt.Sprintf(`Based on the following list of identified risks in a contract, write a 2-3 sentence "Executive Summary"
that a user would read to instantly understand the main "catch" or danger of this document.
Be direct, professional, and slightly cautionary if needed. Do not use markdown formatting like bolding.

Risks Found:
%s`, sb.String())

	summary, err := ag.model.Generate(ctx, llm.Request{
		Prompt: prompt,
		Format: llm.FormatText,
		Effort: llm.EffortMedium,
	})
	if err != nil {
		ag.logger.Warn("summary generation failed", "error", err)
		return fmt.Sprintf("Analysis complete. Found %d issues that require your attention.", len(findings))
	}
	return strings.TrimSpace(summary)
}
