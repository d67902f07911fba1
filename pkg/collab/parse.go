package collab

import (
	"strconv"
	"strings"

	"quorum/pkg/protocol"
)

// ParseReviewReport extracts structured issues from a collaborator's
// text review. An issue starts at a line containing a severity header
// ("CRITICAL:", "MAJOR:" or "MINOR:") and accumulates "File:", "Line:"
// and "Fix:" continuation lines until the next header. Text outside that
// shape is ignored, so the parser tolerates surrounding prose.
func ParseReviewReport(content string) protocol.ReviewReport {
	var (
		issues  []protocol.Issue
		current *protocol.Issue
	)

	flush := func() {
		if current != nil {
			issues = append(issues, *current)
			current = nil
		}
	}

	for _, line := range strings.Split(content, "\n") {
		if sev, desc, ok := severityHeader(line); ok {
			flush()
			current = &protocol.Issue{Severity: sev, Description: desc}
			continue
		}
		if current == nil {
			continue
		}
		switch {
		case strings.Contains(line, "File:"):
			current.File = afterMarker(line, "File:")
		case strings.Contains(line, "Line:"):
			if n, err := strconv.Atoi(afterMarker(line, "Line:")); err == nil {
				current.Line = n
			}
		case strings.Contains(line, "Fix:"):
			current.SuggestedFix = afterMarker(line, "Fix:")
		}
	}
	flush()

	return protocol.ReviewReport{
		Issues:  issues,
		Summary: summarize(len(issues)),
	}
}

func severityHeader(line string) (protocol.Severity, string, bool) {
	for _, sev := range []protocol.Severity{
		protocol.SeverityCritical,
		protocol.SeverityMajor,
		protocol.SeverityMinor,
	} {
		marker := string(sev) + ":"
		if strings.Contains(line, marker) {
			return sev, afterMarker(line, marker), true
		}
	}
	return "", "", false
}

func afterMarker(line, marker string) string {
	_, rest, _ := strings.Cut(line, marker)
	return strings.TrimSpace(rest)
}

func summarize(n int) string {
	if n == 0 {
		return "No issues found"
	}
	if n == 1 {
		return "Found 1 issue requiring attention"
	}
	return "Found " + strconv.Itoa(n) + " issues requiring attention"
}
