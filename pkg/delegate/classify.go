// Package delegate implements the coordinator-side delegation engine:
// classifying a free-text request into a task category, picking the
// target role, snapshotting the coordinator's project focus, and
// enqueueing the task with a delegation notice.
package delegate

import (
	"strings"

	"quorum/pkg/protocol"
)

// Category is a closed enumeration of task categories. The category
// string doubles as the task's type tag in the store.
type Category string

// Known task categories.
const (
	CategoryFileManagement Category = "file_management"
	CategoryGitManagement  Category = "git_management"
	CategoryCodeGeneration Category = "code_generation"
	CategoryCodeReview     Category = "code_review"
	CategoryTesting        Category = "testing"
	CategoryResearch       Category = "research"
	CategoryCodeRewrite    Category = "code_rewrite"
	CategoryGeneral        Category = "general"
)

// ValidCategory reports whether c is a known category.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryFileManagement, CategoryGitManagement, CategoryCodeGeneration,
		CategoryCodeReview, CategoryTesting, CategoryResearch,
		CategoryCodeRewrite, CategoryGeneral:
		return true
	}
	return false
}

// Rule maps a keyword set to a category. Rules are evaluated in order;
// the first rule with any keyword present in the description wins.
type Rule struct {
	Category Category
	Keywords []string
}

// DefaultRules returns the built-in ordered rule table. Order matters: an
// earlier rule shadows later ones for descriptions matching both.
func DefaultRules() []Rule {
	return []Rule{
		{CategoryFileManagement, []string{
			"file", "directory", "folder", "create", "organize",
			"structure", "edit", "modify", "update", "add to", "enhance",
		}},
		{CategoryGitManagement, []string{
			"git", "commit", "push", "pull", "branch", "version",
		}},
		{CategoryCodeGeneration, []string{
			"code", "generate", "implement", "write", "develop",
		}},
		{CategoryCodeReview, []string{
			"review", "check", "analyze", "quality",
		}},
		{CategoryTesting, []string{
			"test", "testing", "unit", "integration",
		}},
		{CategoryResearch, []string{
			"research", "find", "search", "investigate",
		}},
		{CategoryCodeRewrite, []string{
			"fix", "rewrite", "refactor", "improve",
		}},
	}
}

// Classify matches description against the ordered rules and returns the
// first matching category, or CategoryGeneral when nothing matches.
// Classification is a pure function of the description and the rule
// table: the same input always yields the same category.
func Classify(rules []Rule, description string) Category {
	lower := strings.ToLower(description)
	for _, rule := range rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Category
			}
		}
	}
	return CategoryGeneral
}

// RoleFor maps a category to its default assignee role. Unmatched work
// (CategoryGeneral) routes to the coder role, the designated fallback.
func RoleFor(c Category) protocol.Role {
	switch c {
	case CategoryFileManagement:
		return protocol.RoleFileManager
	case CategoryGitManagement:
		return protocol.RoleGitManager
	case CategoryCodeGeneration:
		return protocol.RoleCoder
	case CategoryCodeReview:
		return protocol.RoleCodeReviewer
	case CategoryTesting:
		return protocol.RoleTester
	case CategoryResearch:
		return protocol.RoleResearcher
	case CategoryCodeRewrite:
		return protocol.RoleCodeRewriter
	default:
		return protocol.RoleCoder
	}
}
