package collab

import (
	"fmt"
	"strings"

	"quorum/pkg/protocol"
)

// Prompts follow a fixed sectioned layout — OPERATION, TASK,
// REQUIREMENTS, CONSTRAINTS, OUTPUT — so the collaborator's replies stay
// parseable regardless of which assistant sits behind the interface.

func buildGenerationPrompt(req GenerationRequest) string {
	var b strings.Builder
	b.WriteString("OPERATION: CODE_GENERATION\n")
	fmt.Fprintf(&b, "TASK: %s\n\n", req.Description)
	b.WriteString("REQUIREMENTS:\n")
	b.WriteString("- Write complete, working code for the task\n")
	b.WriteString("- Follow existing project patterns and conventions\n")
	b.WriteString("- Include proper error handling\n\n")
	b.WriteString("CONSTRAINTS:\n")
	b.WriteString("- Preserve all existing functionality\n")
	b.WriteString("- Maintain code readability\n\n")
	b.WriteString("OUTPUT: GENERATED_CODE\n")
	return b.String()
}

func buildReviewPrompt(req ReviewRequest) string {
	var b strings.Builder
	b.WriteString("OPERATION: CODE_REVIEW\n")
	fmt.Fprintf(&b, "TASK: %s\n\n", req.Description)
	b.WriteString("REQUIREMENTS:\n")
	b.WriteString("- Analyze code quality and best practices\n")
	b.WriteString("- Identify bugs, security issues, and performance problems\n")
	b.WriteString("- Verify proper error handling and edge cases\n\n")
	b.WriteString("CONSTRAINTS:\n")
	b.WriteString("- Provide specific line numbers and file locations for issues\n")
	b.WriteString("- Categorize every issue by severity (CRITICAL, MAJOR, MINOR)\n")
	b.WriteString("- Report each issue as 'SEVERITY: description' with optional\n")
	b.WriteString("  'File:', 'Line:' and 'Fix:' continuation lines\n\n")
	b.WriteString("OUTPUT: STRUCTURED_REVIEW_REPORT\n")
	return b.String()
}

func buildFixPrompt(issue protocol.Issue) string {
	var b strings.Builder
	b.WriteString("OPERATION: CODE_FIX\n")
	fmt.Fprintf(&b, "TASK: Fix %s issue: %s\n\n", issue.Severity, issue.Description)
	b.WriteString("REQUIREMENTS:\n")
	if issue.File != "" {
		fmt.Fprintf(&b, "- Fix issue in file: %s\n", issue.File)
	}
	if issue.Line > 0 {
		fmt.Fprintf(&b, "- Target line: %d\n", issue.Line)
	}
	if issue.SuggestedFix != "" {
		fmt.Fprintf(&b, "- Suggested fix: %s\n", issue.SuggestedFix)
	}
	b.WriteString("\nCONSTRAINTS:\n")
	b.WriteString("- Fix only the identified issue\n")
	b.WriteString("- Minimize changes to surrounding code\n")
	b.WriteString("- Ensure the fix addresses the root cause\n\n")
	b.WriteString("OUTPUT: FIXED_CODE\n")
	return b.String()
}
