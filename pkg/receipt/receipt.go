// Package receipt defines the ActionReceipt record emitted by every
// Atomic Tool Executor operation (spec.md §3, §6).
package receipt

import "encoding/json"

// Receipt is a single-line structured record summarizing the outcome
// of one tool operation. It is not appended verbatim to the audit
// ledger — a ledger entry is derived from it (spec.md §9).
type Receipt struct {
	Op       string `json:"op"`
	Path     string `json:"path"`
	OK       bool   `json:"ok"`
	Bytes    int    `json:"bytes,omitempty"`
	SHA256   string `json:"sha256,omitempty"`
	MTime    int64  `json:"mtime,omitempty"`
	ExitCode int    `json:"exit_code"`
	Policy   string `json:"policy,omitempty"`
	Reason   string `json:"reason,omitempty"`

	// Run-specific fields, populated only for op == "run".
	Stdout   string `json:"stdout,omitempty"`
	Stderr   string `json:"stderr,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// JSON renders the receipt as a single compact JSON line, the wire
// format spec.md §6 specifies for `--format receipts`.
func (r Receipt) JSON() string {
	b, err := json.Marshal(r)
	if err != nil {
		// A Receipt has no types encoding/json rejects; this would be
		// a programming error, not a runtime condition.
		return `{"op":"` + r.Op + `","ok":false,"exit_code":1,"reason":"receipt marshal failure"}`
	}
	return string(b)
}

// Ok builds a successful receipt for a write/patch/read-style operation.
func Ok(op, path string, n int, sha256 string, mtime int64) Receipt {
	return Receipt{Op: op, Path: path, OK: true, Bytes: n, SHA256: sha256, MTime: mtime, ExitCode: 0}
}

// Fail builds a failed receipt with the given exit code, policy label,
// and reason string.
func Fail(op, path string, exitCode int, policy, reason string) Receipt {
	return Receipt{Op: op, Path: path, OK: false, ExitCode: exitCode, Policy: policy, Reason: reason}
}
