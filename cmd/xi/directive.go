package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xi-io/xi/pkg/adjudicator"
	"github.com/xi-io/xi/pkg/classifier"
	"github.com/xi-io/xi/pkg/governor"
	"github.com/xi-io/xi/pkg/session"
	"github.com/xi-io/xi/pkg/walker"
)

// runDirectiveCmd implements the single-shot `xi -c <directive>` form:
// classify, then answer locally (STATIC_STATE/COMPUTED_STATE) or fall
// through to the Ensemble Adjudicator (REASONING), per spec.md §4.1.
func runDirectiveCmd(directive string, rest []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("-c", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	modeFlag := cmd.String("mode", "", "Agentic Mode")
	format := cmd.String("format", "chat", "output format: chat or receipts")
	jsonOut := cmd.Bool("json", false, "emit JSON")
	if err := cmd.Parse(rest); err != nil {
		return 10
	}
	if *format != "chat" && *format != "receipts" {
		fmt.Fprintln(stderr, "Error: --format must be chat or receipts")
		return 10
	}

	mode, err := parseMode(*modeFlag)
	if err != nil {
		return exitErr(stderr, err)
	}
	s, err := openSession(mode)
	if err != nil {
		return exitErr(stderr, err)
	}
	defer s.Close()

	receiptMode := *format == "receipts" || governor.ForcesReceiptMode(mode)

	result := classifier.Classify(directive)
	_ = s.Record("operator", "directive", directive, map[string]interface{}{"class": string(result.Class)})

	switch result.Class {
	case classifier.StaticState, classifier.ComputedState:
		return answerStateQuery(s, result, stdout, receiptMode, *jsonOut)
	default:
		return answerReasoning(s, directive, stdout, receiptMode, *jsonOut)
	}
}

// answerStateQuery resolves a STATIC_STATE/COMPUTED_STATE directive
// without touching the Ensemble Adjudicator. "how many .go files" style
// directives run the Governed Walker scoped to the workspace root;
// anything else falls back to the directive's own static Scope/Op
// metadata (e.g. "where am i").
func answerStateQuery(s *session.Session, result classifier.Result, stdout io.Writer, receiptMode, jsonOut bool) int {
	if result.Op != "count_files" {
		if jsonOut || receiptMode {
			return exitPrintJSON(stdout, result)
		}
		fmt.Fprintln(stdout, s.Boundary.Root())
		return 0
	}

	var wr walker.Result
	if result.Scope == "recursive" {
		wr = walker.Count(s.Boundary.Root(), walker.Options{Exts: result.Exts})
	} else {
		wr = countLocal(s.Boundary.Root(), result.Exts)
	}

	if jsonOut || receiptMode {
		return exitPrintJSON(stdout, wr)
	}
	fmt.Fprintf(stdout, "%d files (%s)\n", wr.Count, wr.Status)
	return 0
}

// countLocal answers a non-recursive COMPUTED_STATE/STATIC_STATE count
// by listing root's immediate entries only, matching the original's
// "local" scope (a plain os.listdir, never descending).
func countLocal(root string, exts []string) walker.Result {
	entries, err := os.ReadDir(root)
	if err != nil {
		return walker.Result{Status: walker.StatusOSError}
	}
	hiddenOnly := len(exts) == 1 && exts[0] == walker.HiddenSentinel
	matchAll := len(exts) == 0

	var count int
	var samples []string
	for _, e := range entries {
		if e.IsDir() || !e.Type().IsRegular() {
			continue
		}
		name := e.Name()
		matched := matchAll
		if !matched && hiddenOnly {
			matched = len(name) > 0 && name[0] == '.'
		} else if !matched {
			lower := strings.ToLower(name)
			for _, ext := range exts {
				if strings.HasSuffix(lower, ext) {
					matched = true
					break
				}
			}
		}
		if matched {
			count++
			if len(samples) < 5 {
				samples = append(samples, name)
			}
		}
	}
	return walker.Result{Count: count, Samples: samples, Status: walker.StatusOK}
}

// answerReasoning routes a REASONING directive through the Ensemble
// Adjudicator, using the session's configured model list as both the
// generation pool and (its first entry) the claim extractor.
func answerReasoning(s *session.Session, directive string, stdout io.Writer, receiptMode, jsonOut bool) int {
	if err := s.Authorize("reason"); err != nil {
		fmt.Fprintln(stdout, "Error:", err)
		return 1
	}
	models := s.Config.EnsembleModels
	if len(models) == 0 {
		fmt.Fprintln(stdout, "Error: no ensemble models configured")
		return 1
	}
	extractor := models[0]

	ctx, cancel := context.WithTimeout(context.Background(), s.Config.WallClockTimeout.Value())
	defer cancel()
	res, err := adjudicator.RunEnsembleThrottled(ctx, commandBackend{}, extractor, models, directive, nil)
	if err != nil {
		fmt.Fprintln(stdout, "Error:", err)
		return 1
	}
	if jsonOut || receiptMode {
		return exitPrintJSON(stdout, res)
	}
	if res.Status == adjudicator.StatusHalt {
		fmt.Fprintf(stdout, "HALT: %s\n", res.Reason)
		return 1
	}
	var claims []string
	for _, c := range res.IntersectionTruth {
		claims = append(claims, c.Claim)
	}
	fmt.Fprintln(stdout, strings.Join(claims, "; "))
	return 0
}
