package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/xi-io/xi/pkg/governor"
	"github.com/xi-io/xi/pkg/receipt"
	"github.com/xi-io/xi/pkg/session"
	"github.com/xi-io/xi/pkg/xierr"
)

// parseMode validates the --mode flag against the Agentic Mode set,
// defaulting to CHAT when unset, matching spec.md §6's governor
// selector.
func parseMode(s string) (governor.Mode, error) {
	if s == "" {
		return governor.Chat, nil
	}
	switch governor.Mode(s) {
	case governor.Plan, governor.Act, governor.Debug, governor.Chat, governor.Review:
		return governor.Mode(s), nil
	default:
		return "", fmt.Errorf("invalid --mode %q (want PLAN, ACT, DEBUG, CHAT, or REVIEW)", s)
	}
}

// openSession opens a Session rooted at the process's working
// directory under the given mode.
func openSession(mode governor.Mode) (*session.Session, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return session.Open(wd, mode)
}

// emitReceipt writes r as a compact JSON receipt line when jsonOut (or
// the forced-receipts mode) requests it, otherwise as a short operator
// summary line.
func emitReceipt(w io.Writer, r receipt.Receipt, jsonOut bool) {
	if jsonOut {
		fmt.Fprintln(w, r.JSON())
		return
	}
	if r.OK {
		fmt.Fprintf(w, "%s %s ok\n", r.Op, r.Path)
	} else {
		fmt.Fprintf(w, "%s %s FAILED: %s\n", r.Op, r.Path, r.Reason)
	}
}

// exitForReceipt derives the process exit code for a receipt the same
// way xierr.Kind maps reasons to codes, since a Receipt doesn't carry
// a *xierr.Error itself.
func exitForReceipt(r receipt.Receipt) int {
	if r.OK {
		return 0
	}
	return r.ExitCode
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// exitErr renders err to stderr and returns its xierr exit code, or 1
// for an untyped error.
func exitErr(stderr io.Writer, err error) int {
	fmt.Fprintln(stderr, "Error:", err)
	if xe, ok := xierr.As(err); ok {
		return xe.ExitCode()
	}
	return 1
}
