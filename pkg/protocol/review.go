package protocol

// --- Review payloads ---

// Severity grades a review issue.
type Severity string

// Issue severities, highest first.
const (
	SeverityCritical Severity = "CRITICAL"
	SeverityMajor    Severity = "MAJOR"
	SeverityMinor    Severity = "MINOR"
)

// ValidSeverity reports whether s is a known severity.
func ValidSeverity(s Severity) bool {
	return s == SeverityCritical || s == SeverityMajor || s == SeverityMinor
}

// Issue is a single finding from a code review: where it is, how bad it
// is, and what the reviewer suggests doing about it.
type Issue struct {
	Severity     Severity `json:"severity"`
	File         string   `json:"file,omitempty"`
	Line         int      `json:"line,omitempty"`
	Description  string   `json:"description"`
	SuggestedFix string   `json:"suggested_fix,omitempty"`
}

// ReviewReport is the structured output of a review task.
type ReviewReport struct {
	Issues  []Issue `json:"issues"`
	Summary string  `json:"summary,omitempty"`
}

// CountBySeverity returns the number of critical, major and minor issues.
func (r ReviewReport) CountBySeverity() (critical, major, minor int) {
	for _, issue := range r.Issues {
		switch issue.Severity {
		case SeverityCritical:
			critical++
		case SeverityMajor:
			major++
		case SeverityMinor:
			minor++
		}
	}
	return critical, major, minor
}

// RewriteReport is the structured output of a rewrite task. The rewriter
// processes issues one at a time and never aborts the batch on a single
// failure, so Fixed and Failed partition the input issue list.
type RewriteReport struct {
	Fixed   []Issue `json:"fixed"`
	Failed  []Issue `json:"failed"`
	Summary string  `json:"summary,omitempty"`
}

// FixedCount returns the number of issues the rewriter fixed.
func (r RewriteReport) FixedCount() int { return len(r.Fixed) }
