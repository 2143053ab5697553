package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/xi-io/xi/pkg/governor"
	"github.com/xi-io/xi/pkg/session"
	"github.com/xi-io/xi/pkg/workspace"
)

// runValidateCmd implements `xi validate`: opens a Session (which
// already runs the min_version check and acquires the workspace lock)
// and reports whether the workspace is in a usable state.
func runValidateCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("validate", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	mode := cmd.String("mode", "", "Agentic Mode")
	if err := cmd.Parse(args); err != nil {
		return 10
	}
	m, err := parseMode(*mode)
	if err != nil {
		return exitErr(stderr, err)
	}
	s, err := openSession(m)
	if err != nil {
		return exitErr(stderr, err)
	}
	defer s.Close()

	fmt.Fprintf(stdout, "OK: workspace %s validated under mode %s\n", s.Boundary.Root(), s.Mode)
	return 0
}

// runStatusCmd implements `xi status`: StateBlob plus ledger length.
func runStatusCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("status", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	jsonOut := cmd.Bool("json", false, "emit JSON")
	if err := cmd.Parse(args); err != nil {
		return 10
	}
	s, err := openSession(governor.Chat)
	if err != nil {
		return exitErr(stderr, err)
	}
	defer s.Close()

	blob, err := workspace.BuildStateBlob(s.Boundary.Root(), session.Version, firstModel(s))
	if err != nil {
		return exitErr(stderr, err)
	}

	if *jsonOut {
		return exitPrintJSON(stdout, struct {
			StateBlob  workspace.StateBlob `json:"state_blob"`
			LedgerLen  int                 `json:"ledger_entries"`
			ActiveLane string              `json:"active_workspace"`
		}{blob, s.Ledger.Len(), s.Registry.Active})
	}
	fmt.Fprintf(stdout, "cwd:     %s\n", blob.CWD)
	fmt.Fprintf(stdout, "project: %s\n", blob.Project)
	fmt.Fprintf(stdout, "files:   %d\n", blob.FileCount)
	fmt.Fprintf(stdout, "ledger:  %d entries\n", s.Ledger.Len())
	return 0
}

func firstModel(s *session.Session) string {
	if len(s.Config.EnsembleModels) == 0 {
		return ""
	}
	return s.Config.EnsembleModels[0]
}

func exitPrintJSON(w io.Writer, v interface{}) int {
	if err := printJSON(w, v); err != nil {
		return 1
	}
	return 0
}

// runVerifyCmd implements `xi verify`: checks the audit ledger's hash
// chain for tampering or breaks.
func runVerifyCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("verify", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	jsonOut := cmd.Bool("json", false, "emit JSON")
	if err := cmd.Parse(args); err != nil {
		return 10
	}
	s, err := openSession(governor.Chat)
	if err != nil {
		return exitErr(stderr, err)
	}
	defer s.Close()

	result := s.Ledger.VerifyChain()
	if *jsonOut {
		return exitPrintJSON(stdout, result)
	}
	if result.Valid {
		fmt.Fprintf(stdout, "ledger chain valid: %d entries checked (%d unchained legacy)\n", result.EntriesChecked, result.Unchained)
		return 0
	}
	fmt.Fprintf(stdout, "ledger chain BROKEN at entry %d\n", *result.FirstBroken)
	return 12
}

// runGatesCmd implements `xi gates`: DEBUG mode's read-only
// Adjudicator self-test, the only mutation-free way to exercise
// pkg/governor's RunWargame.
func runGatesCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("gates", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	jsonOut := cmd.Bool("json", false, "emit JSON")
	wargame := cmd.Bool("wargame", false, "replay the adversarial adjudication scenarios")
	if err := cmd.Parse(args); err != nil {
		return 10
	}
	if !*wargame {
		fmt.Fprintln(stderr, "Usage: xi gates --wargame")
		return 10
	}

	reports := governor.RunWargame()
	if *jsonOut {
		return exitPrintJSON(stdout, reports)
	}
	allPassed := true
	for _, r := range reports {
		mark := "PASS"
		if !r.Passed {
			mark = "FAIL"
			allPassed = false
		}
		fmt.Fprintf(stdout, "[%s] %s: got=%s want=%s\n", mark, r.Name, r.Status, r.Expected)
	}
	if !allPassed {
		return 1
	}
	return 0
}

// runWhereamiCmd implements `xi whereami`.
func runWhereamiCmd(args []string, stdout, stderr io.Writer) int {
	s, err := openSession(governor.Chat)
	if err != nil {
		return exitErr(stderr, err)
	}
	defer s.Close()
	fmt.Fprintln(stdout, s.Boundary.Root())
	return 0
}
