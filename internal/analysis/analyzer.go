package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kalambet/subtext/internal/llm"
	"github.com/kalambet/subtext/internal/retrieval"
)

// analysisTimeout bounds a single category's model call so one stuck
// request cannot stall the fan-in indefinitely.
const analysisTimeout = 3 * time.Minute

// Analyzer extracts risk findings for one taxonomy category from
// retrieved document context.
type Analyzer struct {
	model  llm.Model
	logger *slog.Logger
}

// NewAnalyzer creates an Analyzer backed by the given model.
func NewAnalyzer(model llm.Model) *Analyzer {
	return &Analyzer{model: model, logger: slog.Default()}
}

// modelFinding mirrors one element of the JSON array the model returns.
type modelFinding struct {
	RiskLevel   string `json:"risk_level"`
	Description string `json:"description"`
	Quote       string `json:"quote"`
	PageNumber  *int   `json:"page_number"`
}

// Analyze asks the model to identify predatory clauses for the category
// within the retrieved context. The model call runs at high effort in
// strict JSON mode. Model and parse failures are returned as errors so
// the orchestrator can record the category as degraded; the findings
// slice is always nil in that case.
func (a *Analyzer) Analyze(ctx context.Context, category string, rc retrieval.Context) ([]Finding, error) {
	ctx, cancel := context.WithTimeout(ctx, analysisTimeout)
	defer cancel()

	prompt := buildAnalysisPrompt(category, rc)

	raw, err := a.model.Generate(ctx, llm.Request{
		Prompt: prompt,
		Format: llm.FormatJSON,
		Effort: llm.EffortHigh,
	})
	if err != nil {
		return nil, fmt.Errorf("model call for %q: %w", category, err)
	}

	items, err := parseFindings(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing findings for %q: %w", category, err)
	}

	pages := contextPages(rc)
	findings := make([]Finding, 0, len(items))
	for _, item := range items {
		findings = append(findings, normalizeFinding(category, item, pages, a.logger))
	}
	return findings, nil
}

// buildAnalysisPrompt renders the retrieved clauses as [Page N] blocks
// so the model can attribute page numbers to its quotes.
func buildAnalysisPrompt(category string, rc retrieval.Context) string {
	var sb strings.Builder
	sb.WriteString("Context Clauses (with Page Numbers):\n")
	for _, ch := range rc.Chunks {
		fmt.Fprintf(&sb, "[Page %d] %s\n\n", ch.Page, ch.Text)
	}

	fmt.Fprintf(&sb, `Task:
Identify any "Red Flags" in the above clauses regarding %q.
A "Red Flag" is a clause that is predatory, unfair, or dangerous to the user.

Output JSON format only:
[
    {
        "risk_level": "High" | "Medium" | "Low",
        "description": "Brief explanation of the risk",
        "quote": "Direct quote from the text verifying this risk",
        "page_number": int (Extract the page number from the [Page X] tag preceding the quote. Return null if unclear.)
    }
]
`, category)
	return sb.String()
}

// parseFindings decodes the model's JSON array, tolerating a markdown
// code fence wrapper.
func parseFindings(raw string) ([]modelFinding, error) {
	cleaned := cleanJSON([]byte(raw))
	var items []modelFinding
	if err := json.Unmarshal(cleaned, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// cleanJSON strips markdown code fences and leading/trailing whitespace
// from model responses. Models often wrap JSON in ```json ... ``` blocks.
// Handles: ```json\n[...]\n```, ```\n[...]\n```, and bare JSON.
func cleanJSON(data []byte) []byte {
	s := bytes.TrimSpace(data)
	if len(s) == 0 {
		return s
	}

	if bytes.HasPrefix(s, []byte("```")) {
		// Strip opening fence line
		if idx := bytes.IndexByte(s, '\n'); idx >= 0 {
			s = s[idx+1:]
		}
		// Strip closing fence
		if bytes.HasSuffix(s, []byte("```")) {
			s = s[:len(s)-3]
		}
		s = bytes.TrimSpace(s)
	}

	return s
}

// contextPages collects the set of page numbers present in the
// retrieved context, for validating model-emitted page attributions.
func contextPages(rc retrieval.Context) map[int]bool {
	pages := make(map[int]bool, len(rc.Chunks))
	for _, ch := range rc.Chunks {
		pages[ch.Page] = true
	}
	return pages
}

// normalizeFinding applies field defaults and nulls out page numbers
// that don't correspond to any page in the retrieved context. The model
// reads pages from the [Page N] tags, so anything outside that set is a
// hallucination rather than a provenance claim worth keeping.
func normalizeFinding(category string, item modelFinding, pages map[int]bool, logger *slog.Logger) Finding {
	level := RiskLevel(item.RiskLevel)
	if !level.Valid() {
		level = RiskLow
	}

	desc := item.Description
	if desc == "" {
		desc = "Unknown risk"
	}

	page := item.PageNumber
	if page != nil && !pages[*page] {
		logger.Warn("dropping unverifiable page attribution",
			"category", category, "page", *page)
		page = nil
	}

	return Finding{
		Category:    category,
		RiskLevel:   level,
		Description: desc,
		Quote:       item.Quote,
		PageNumber:  page,
	}
}
