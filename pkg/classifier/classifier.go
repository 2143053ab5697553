// Package classifier implements the Query Classifier (spec.md §4.1):
// a pure, deterministic three-tier router deciding whether an
// operator directive can be answered from local state (STATIC_STATE,
// COMPUTED_STATE) or requires the Ensemble Adjudicator (REASONING).
//
// Grounded directly on _examples/original_source/xi_cli.py's
// classify_query/_extract_extensions, including its exact keyword
// lists and extension-alias table. Casefolding uses
// golang.org/x/text/cases instead of strings.ToLower so multi-byte
// operator input normalizes the same way the normalizer in
// pkg/adjudicator does.
package classifier

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/width"
)

// Class is one of the three routing tiers.
type Class string

const (
	StaticState   Class = "STATIC_STATE"
	ComputedState Class = "COMPUTED_STATE"
	Reasoning     Class = "REASONING"
)

// HiddenSentinel mirrors walker.HiddenSentinel; duplicated here (not
// imported) so the classifier stays a leaf package with no dependency
// on the walker it feeds.
const HiddenSentinel = "__HIDDEN__"

var casefold = cases.Fold()

var recursiveKeywords = []string{
	"recursively", "recursive", "all subfolders", "all subdirectories",
	"subfolders", "sub-folders", "subdirectories", "sub-directories",
	"tree", "under", "all levels",
}

var exclusionKeywords = []string{"excluding", "gitignore", "ignore"}

var staticPhrases = []string{
	"working directory", "current directory", "where am i",
	"framework version", "system version", "active_model", "active model",
	"what version", "which version", "show version",
}

var extensionAliases = map[string][]string{
	"python": {".py"}, "py": {".py"}, ".py": {".py"},
	"javascript": {".js", ".jsx"}, "js": {".js", ".jsx"}, ".js": {".js"},
	"typescript": {".ts", ".tsx"}, "ts": {".ts", ".tsx"}, ".ts": {".ts"},
	"markdown": {".md", ".markdown"}, "md": {".md", ".markdown"}, ".md": {".md"},
	"json": {".json"}, "css": {".css"}, "html": {".html"},
	"hidden": {HiddenSentinel},
}

var (
	howManyRe     = regexp.MustCompile(`\bhow many\b`)
	explicitExtRe = regexp.MustCompile(`\.[a-z0-9]{1,6}\b`)
)

func wordBoundary(word string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(word) + `\b`)
}

// Result carries the classification plus whatever metadata the caller
// (the CLI's directive router) needs to act on it without reclassifying.
type Result struct {
	Class Class
	// Reason is set for REASONING classifications caused by detected
	// intent the local path can't safely serve (e.g. exclusion clauses).
	Reason string
	// Scope, Exts, and Op are set for COMPUTED_STATE/STATIC_STATE count
	// queries, mirroring the original's metadata dict.
	Scope string
	Exts  []string
	Op    string
}

// fold normalizes an operator directive before phrase matching: full-
// and half-width forms (an operator pasting from a CJK IME) collapse
// to their canonical width first, then Unicode casefold makes the
// match byte-for-byte stable regardless of input casing.
func fold(s string) string {
	return casefold.String(width.Fold.String(s))
}

// Classify routes a single operator directive.
func Classify(text string) Result {
	lower := strings.Trim(fold(text), " \t\n?!.")

	isCount := howManyRe.MatchString(lower) || strings.Contains(lower, "count")
	if isCount {
		isRecursive := containsAny(lower, recursiveKeywords)
		hasExclusion := containsAny(lower, exclusionKeywords)
		if hasExclusion {
			return Result{Class: Reasoning, Reason: "complex_intent_exclusions"}
		}

		exts := extractExtensions(lower)
		scope := "local"
		if isRecursive {
			scope = "recursive"
		}

		if len(exts) > 0 || isRecursive {
			return Result{Class: ComputedState, Scope: scope, Exts: exts, Op: "count_files"}
		}
		return Result{Class: StaticState, Scope: scope, Exts: exts, Op: "count_files"}
	}

	if containsAny(lower, staticPhrases) {
		return Result{Class: StaticState}
	}

	return Result{Class: Reasoning}
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// extractExtensions mirrors _extract_extensions: explicit ".ext"
// mentions plus whole-word alias matches, deduplicated and sorted.
func extractExtensions(lower string) []string {
	found := make(map[string]bool)
	for _, m := range explicitExtRe.FindAllString(lower, -1) {
		found[m] = true
	}
	for alias, exts := range extensionAliases {
		if wordBoundary(alias).MatchString(lower) {
			for _, e := range exts {
				found[e] = true
			}
		}
	}
	out := make([]string, 0, len(found))
	for e := range found {
		out = append(out, e)
	}
	sortStrings(out)
	return out
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
