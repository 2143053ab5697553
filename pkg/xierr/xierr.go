// Package xierr maps the DAC's error taxonomy to the CLI exit-code
// table. Errors built from a Kind get their exit code here; executor
// receipts and the CLI's own usage/verify exits carry the same integer
// values as literals.
package xierr

import (
	"errors"
	"fmt"
)

// Kind is one of the error-taxonomy entries from spec.md §7.
type Kind string

const (
	KindPolicyRefusal    Kind = "PolicyRefusal"
	KindStalePlan        Kind = "StalePlan"
	KindHashMismatch     Kind = "HashMismatch"
	KindTimeout          Kind = "Timeout"
	KindCapReached       Kind = "CapReached"
	KindRouteError       Kind = "RouteError"
	KindReceiptMissing   Kind = "ReceiptMissing"
	KindStubDetected     Kind = "StubDetected"
	KindLedgerCorruption Kind = "LedgerCorruption"
	KindModelFailure     Kind = "ModelFailure"
	KindAdjudicationHalt Kind = "AdjudicationHalt"
	KindInternal         Kind = "Internal"
)

// ExitCode maps a Kind to the process exit code from spec.md §6.
// LedgerCorruption, ModelFailure, and AdjudicationHalt have no direct
// exit code of their own: ledger corruption is self-healing (it
// triggers restore-from-backup, not a failed call), model failure
// surfaces as an AdjudicationHalt, and AdjudicationHalt is a
// first-class result delivered to the operator, not a process error —
// callers that must still exit non-zero for it use 1 (generic
// failure), never one of the coded values reserved below.
func (k Kind) ExitCode() int {
	switch k {
	case "":
		return 0
	case KindRouteError:
		return 10
	case KindReceiptMissing:
		return 11
	case KindHashMismatch:
		return 12
	case KindPolicyRefusal:
		return 13
	case KindStalePlan:
		return 14
	case KindTimeout:
		return 15
	case KindCapReached:
		return 16
	case KindStubDetected:
		return 20
	default:
		return 1
	}
}

// Error is a typed DAC failure carrying enough context to become both
// an ActionReceipt.reason and a process exit code, without the
// Executor ever raising a raw exception to the operator (spec.md §7).
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

func Wrap(kind Kind, reason string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// ExitCode returns the process exit code for this error's Kind, or 0
// for a nil *Error.
func (e *Error) ExitCode() int {
	if e == nil {
		return 0
	}
	return e.Kind.ExitCode()
}

// As is a convenience wrapper around errors.As for the common case of
// extracting a *Error from an arbitrary error chain.
func As(err error) (*Error, bool) {
	var xe *Error
	ok := errors.As(err, &xe)
	return xe, ok
}
