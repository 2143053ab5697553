// Package governor implements the Mode Governor (spec.md §4.6):
// per-mode forbidden-operation checks and the DEBUG-mode wargame
// self-test, gating which of the CLI's subcommands a given Agentic
// Mode may run before the Atomic Tool Executor ever sees them.
//
// Grounded on _examples/original_source/xi_cli.py's AgenticMode enum
// and GOVERNOR_RULES table (the PLAN/DEBUG forbidden-command lists
// and their refusal messages, and "ACT mode forces receipts"), plus
// 50_testing/wargame_adjudicator.py for the DEBUG wargame scenarios.
// Forbidden-command checks are expressed as CEL predicates
// (pkg/policy) instead of the original's Python set membership, so
// new modes or rules are data, not code.
package governor

import (
	"fmt"

	"github.com/xi-io/xi/pkg/adjudicator"
	"github.com/xi-io/xi/pkg/policy"
	"github.com/xi-io/xi/pkg/xierr"
)

// Mode is an Agentic Mode (spec.md §3).
type Mode string

const (
	Plan   Mode = "PLAN"
	Act    Mode = "ACT"
	Debug  Mode = "DEBUG"
	Chat   Mode = "CHAT"
	Review Mode = "REVIEW"
)

// Rule is one mode's forbidden-operation gate.
type Rule struct {
	Forbidden *policy.Predicate
	Message   string
}

var rules = map[Mode]Rule{
	Plan: {
		Forbidden: policy.MustCompile(`cmd in ["write","create","edit","patch","delete","run","git","purge","archive"]`),
		Message:   "action prohibited in PLAN mode: %s",
	},
	Debug: {
		Forbidden: policy.MustCompile(`cmd in ["write","create","edit","patch","delete","purge","run","git","archive"]`),
		Message:   "tool '%s' not available in DEBUG mode (read-only + wargame execution only)",
	},
}

// Check evaluates mode's forbidden-operation rule against cmd. A nil
// return means the operation may proceed to Policy A and the Atomic
// Tool Executor.
func Check(mode Mode, cmd string) error {
	rule, ok := rules[mode]
	if !ok {
		return nil
	}
	forbidden, err := rule.Forbidden.Eval(map[string]interface{}{
		"cmd": cmd,
	})
	if err != nil {
		return xierr.Wrap(xierr.KindInternal, "mode governor predicate failed", err)
	}
	if forbidden {
		return xierr.New(xierr.KindPolicyRefusal, fmt.Sprintf(rule.Message, cmd))
	}
	return nil
}

// ForcesReceiptMode reports whether mode requires every output to be
// rendered as a machine-readable receipt rather than chat prose.
func ForcesReceiptMode(mode Mode) bool {
	return mode == Act
}

// WargameCase is one adversarial adjudication scenario the DEBUG-mode
// wargame entrypoint replays to sanity-check the Ensemble Adjudicator
// without touching a live model.
type WargameCase struct {
	Name     string
	Claims   []adjudicator.Claim
	Agents   int
	Expected adjudicator.Status
}

// defaultWargame mirrors 50_testing/wargame_adjudicator.py's three
// canned cases: a fractured swarm with no intersection, a majority
// opinion correctly overridden by a minority's explicit objection, and
// (handled separately, in ExtractClaims's own tests) malformed
// extractor output.
var defaultWargame = []WargameCase{
	{
		Name: "fractured_swarm_no_intersection",
		Claims: []adjudicator.Claim{
			{Text: "target file is xi_cli.py", Confidence: 0.99, Type: "fact", Agent: "Agent_A"},
			{Text: "target file is framework.py", Confidence: 0.99, Type: "fact", Agent: "Agent_B"},
		},
		Agents:   2,
		Expected: adjudicator.StatusHalt,
	},
	{
		Name: "majority_action_vetoed_by_minority_objection",
		Claims: []adjudicator.Claim{
			{Text: "delete file config.yaml", Confidence: 0.95, Type: "action", Agent: "Agent_A"},
			{Text: "delete file config.yaml", Confidence: 0.95, Type: "action", Agent: "Agent_B"},
			{Text: "not delete file config.yaml", Confidence: 0.95, Type: "risk", Agent: "Agent_C"},
		},
		Agents:   3,
		Expected: adjudicator.StatusHalt,
	},
}

// WargameReport is the outcome of one case.
type WargameReport struct {
	Name     string
	Status   adjudicator.Status
	Expected adjudicator.Status
	Passed   bool
}

// RunWargame replays the canned adversarial scenarios against the
// live Adjudicate implementation. It is the only thing DEBUG mode may
// execute beyond read-only operations.
func RunWargame() []WargameReport {
	reports := make([]WargameReport, 0, len(defaultWargame))
	for _, c := range defaultWargame {
		res := adjudicator.Adjudicate(c.Claims, c.Agents)
		reports = append(reports, WargameReport{
			Name:     c.Name,
			Status:   res.Status,
			Expected: c.Expected,
			Passed:   res.Status == c.Expected,
		})
	}
	return reports
}
