package analysis

// RiskLevel grades how dangerous a flagged clause is to the user.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "High"
	RiskMedium RiskLevel = "Medium"
	RiskLow    RiskLevel = "Low"
)

// Valid reports whether l is one of the three known levels.
func (l RiskLevel) Valid() bool {
	switch l {
	case RiskHigh, RiskMedium, RiskLow:
		return true
	}
	return false
}

// penalty is the score deduction for one finding of this level.
func (l RiskLevel) penalty() int {
	switch l {
	case RiskHigh:
		return 5
	case RiskMedium:
		return 2
	case RiskLow:
		return 1
	}
	return 0
}

// Finding is one predatory or unfair clause identified in the document.
type Finding struct {
	Category    string    `json:"category"`
	RiskLevel   RiskLevel `json:"risk_level"`
	Description string    `json:"description"`
	Quote       string    `json:"quote"`
	PageNumber  *int      `json:"page_number"`
}

// CategoryStatus records what happened to one taxonomy category during
// analysis, so degraded categories are visible in the report instead of
// silently missing.
type CategoryStatus string

const (
	// StatusOK means the category was analyzed by the model.
	StatusOK CategoryStatus = "ok"
	// StatusEmpty means retrieval found no relevant context and the
	// model was never called.
	StatusEmpty CategoryStatus = "empty"
	// StatusFailed means retrieval or the model call failed; the
	// category contributed no findings.
	StatusFailed CategoryStatus = "failed"
)

// CategoryResult is the per-category outcome included in a report.
type CategoryResult struct {
	Category string         `json:"category"`
	Status   CategoryStatus `json:"status"`
	Findings int            `json:"findings"`
}

// Report is the full result of one document analysis.
type Report struct {
	Summary          string           `json:"summary"`
	RedFlags         []Finding        `json:"red_flags"`
	OverallRiskScore int              `json:"overall_risk_score"`
	Categories       []CategoryResult `json:"categories"`
}

// Score computes the deterministic risk score: start at 100, subtract
// 5 per High, 2 per Medium, and 1 per Low finding, clamped to [0, 100].
// No category weighting, no diminishing returns.
func Score(findings []Finding) int {
	score := 100
	for _, f := range findings {
		score -= f.RiskLevel.penalty()
	}
	if score < 0 {
		score = 0
	}
	return score
}
