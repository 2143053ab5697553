// Package executor implements the Atomic Tool Executor (spec.md
// §4.4): the only component that touches the filesystem or spawns a
// subprocess. Write and Patch run the Runaway Guard and then a Policy A
// boundary check first; Read and Delete run the Policy A check only,
// and Run runs the Runaway Guard only. Writes/patches go through a
// temp-file-fsync-atomic-replace sequence, and every outcome —
// success or failure — becomes a receipt.Receipt.
//
// Grounded directly on _examples/original_source/xi_utils.py's
// write_file/patch_file/read_file/delete_file/run_command, on
// framework.py's HardwareGuard.verify_io post-write hash check, and
// on xi_cli.py:1401-1409's Runaway Guard (a plain-text scan of the
// operator's directive for mass-operation language).
package executor

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/xi-io/xi/pkg/boundary"
	"github.com/xi-io/xi/pkg/receipt"
)

// RunTimeout is the wall-clock budget for the run operation, matching
// the original's subprocess.run(..., timeout=60).
const RunTimeout = 60 * time.Second

// Executor performs boundary-checked, atomic filesystem and process
// operations against a single workspace.
type Executor struct {
	boundary *boundary.Boundary
}

// New builds an Executor scoped to b.
func New(b *boundary.Boundary) *Executor {
	return &Executor{boundary: b}
}

func hashOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// runawayTriggers mirrors the original's bare keyword list: any of
// these substrings in the operator's raw directive text marks it as a
// potential mass file operation.
var runawayTriggers = []string{"5000", "1000", "10000", "files", "*"}

// checkRunawayGuard implements the Runaway Guard (spec.md §4.4.6): a
// directive containing mass-operation language without the "force"
// override is refused with CAP_REACHED (exit_code 16) before the
// operation touches the filesystem or spawns a process.
func checkRunawayGuard(op, target, directive string) *receipt.Receipt {
	lower := strings.ToLower(directive)
	triggered := false
	for _, kw := range runawayTriggers {
		if strings.Contains(lower, kw) {
			triggered = true
			break
		}
	}
	if !triggered || strings.Contains(lower, "force") {
		return nil
	}
	r := receipt.Fail(op, target, 16, "blocked", "RUNAWAY_GUARD")
	return &r
}

// policyCheck translates a boundary failure into a receipt, or nil if
// the path clears Policy A.
func (e *Executor) policyCheck(op, filename string) *receipt.Receipt {
	if err := e.boundary.Check(filename); err != nil {
		reason := "QUARANTINE_REJECTION"
		if !e.boundary.InBounds(filename) {
			reason = "POLICY_A_REJECTION"
		}
		r := receipt.Fail(op, filename, 13, "blocked", reason)
		return &r
	}
	return nil
}

// Write atomically writes content to filename: temp file in the same
// directory, fsync, backup-if-exists, atomic rename, then a
// HardwareGuard-style post-write hash re-verification. directive is
// the operator's raw command text, checked by the Runaway Guard
// before anything else runs.
func (e *Executor) Write(filename string, content []byte, directive string) receipt.Receipt {
	if r := checkRunawayGuard("write", filename, directive); r != nil {
		return *r
	}
	if r := e.policyCheck("write", filename); r != nil {
		return *r
	}
	target, err := e.boundary.Resolve(filename)
	if err != nil {
		return receipt.Fail("write", filename, 1, "", err.Error())
	}

	expectedHash := hashOf(content)
	targetDir := filepath.Dir(target)
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return receipt.Fail("write", filename, 1, "", err.Error())
	}

	tmp, err := os.CreateTemp(targetDir, ".xi-tmp-*")
	if err != nil {
		return receipt.Fail("write", filename, 1, "", err.Error())
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return receipt.Fail("write", filename, 1, "", err.Error())
	}
	if err := tmp.Sync(); err != nil {
		_ = err // some filesystems don't support fsync; tolerate it
	}
	if err := tmp.Close(); err != nil {
		return receipt.Fail("write", filename, 1, "", err.Error())
	}

	if _, err := os.Stat(target); err == nil {
		backupFile(target)
	}

	if err := atomicReplace(tmpPath, target); err != nil {
		return receipt.Fail("write", filename, 1, "", err.Error())
	}

	if !verifyIO(target, expectedHash) {
		return receipt.Fail("write", filename, 12, "allowed", "HARDWARE_VERIFICATION_FAILED")
	}

	info, err := os.Stat(target)
	if err != nil {
		return receipt.Fail("write", filename, 1, "", err.Error())
	}
	return receipt.Ok("write", filename, len(content), expectedHash, info.ModTime().Unix())
}

// Patch performs a find-and-replace against the existing file
// contents. findText must be present in the current file or the
// operation fails with STALE_PLAN — the caller's plan was built
// against a file state that no longer exists. directive is the
// operator's raw command text, checked by the Runaway Guard before
// anything else runs.
func (e *Executor) Patch(filename, findText, replaceText, directive string) receipt.Receipt {
	if r := checkRunawayGuard("patch", filename, directive); r != nil {
		return *r
	}
	if r := e.policyCheck("patch", filename); r != nil {
		return *r
	}
	target, err := e.boundary.Resolve(filename)
	if err != nil {
		return receipt.Fail("patch", filename, 1, "", err.Error())
	}

	old, err := os.ReadFile(target)
	if err != nil {
		return receipt.Fail("patch", filename, 1, "", err.Error())
	}
	if !bytes.Contains(old, []byte(findText)) {
		return receipt.Fail("patch", filename, 14, "", "STALE_PLAN")
	}

	updated := bytes.ReplaceAll(old, []byte(findText), []byte(replaceText))
	expectedHash := hashOf(updated)

	backupFile(target)

	tmp, err := os.CreateTemp(filepath.Dir(target), ".xi-tmp-patch-*")
	if err != nil {
		return receipt.Fail("patch", filename, 1, "", err.Error())
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(updated); err != nil {
		tmp.Close()
		return receipt.Fail("patch", filename, 1, "", err.Error())
	}
	if err := tmp.Sync(); err != nil {
		_ = err
	}
	if err := tmp.Close(); err != nil {
		return receipt.Fail("patch", filename, 1, "", err.Error())
	}

	if err := atomicReplace(tmpPath, target); err != nil {
		return receipt.Fail("patch", filename, 1, "", err.Error())
	}

	if !verifyIO(target, expectedHash) {
		return receipt.Fail("patch", filename, 12, "allowed", "HARDWARE_VERIFICATION_FAILED")
	}

	info, err := os.Stat(target)
	if err != nil {
		return receipt.Fail("patch", filename, 1, "", err.Error())
	}
	return receipt.Ok("patch", filename, len(updated), expectedHash, info.ModTime().Unix())
}

// Read returns the file's contents after a Policy A and HardwareGuard
// read check. The boundary/I-O failure, when present, is returned
// alongside a zero byte slice.
func (e *Executor) Read(filename string) ([]byte, *receipt.Receipt) {
	if r := e.policyCheck("read", filename); r != nil {
		return nil, r
	}
	target, err := e.boundary.Resolve(filename)
	if err != nil {
		r := receipt.Fail("read", filename, 1, "", err.Error())
		return nil, &r
	}
	if !verifyIO(target, "") {
		r := receipt.Fail("read", filename, 13, "blocked", "HARDWARE_READ_FAILED")
		return nil, &r
	}
	content, err := os.ReadFile(target)
	if err != nil {
		r := receipt.Fail("read", filename, 1, "", err.Error())
		return nil, &r
	}
	return content, nil
}

// Delete removes a file after backing it up.
func (e *Executor) Delete(filename string) receipt.Receipt {
	if r := e.policyCheck("delete", filename); r != nil {
		return *r
	}
	target, err := e.boundary.Resolve(filename)
	if err != nil {
		return receipt.Fail("delete", filename, 1, "", err.Error())
	}
	if _, err := os.Stat(target); err != nil {
		return receipt.Fail("delete", filename, 1, "", "FileNotFound")
	}

	backupFile(target)
	if err := os.Remove(target); err != nil {
		return receipt.Fail("delete", filename, 1, "", err.Error())
	}
	return receipt.Ok("delete", filename, 0, "", time.Now().Unix())
}

// Run executes a shell command with a bounded wall-clock timeout. The
// Runaway Guard is evaluated against the command text before the
// process starts; a command already running past its own internal
// limits is still bounded by ctx's RunTimeout deadline.
func (e *Executor) Run(ctx context.Context, command string) receipt.Receipt {
	if r := checkRunawayGuard("run", command, command); r != nil {
		return *r
	}

	runCtx, cancel := context.WithTimeout(ctx, RunTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "/bin/sh", "-c", command)
	cmd.Dir = e.boundary.Root()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		r := receipt.Fail("run", command, 15, "", "TIMEOUT")
		r.Stdout, r.Stderr, r.Duration = stdout.String(), stderr.String(), duration.String()
		return r
	}

	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			r := receipt.Fail("run", command, 1, "", runErr.Error())
			r.Stdout, r.Stderr, r.Duration = stdout.String(), stderr.String(), duration.String()
			return r
		}
	}

	r := receipt.Receipt{
		Op: "run", Path: command, OK: exitCode == 0, ExitCode: exitCode,
		Stdout: stdout.String(), Stderr: stderr.String(), Duration: duration.String(),
	}
	return r
}

func atomicReplace(tmpPath, target string) error {
	if err := os.Rename(tmpPath, target); err != nil {
		if linkErr, ok := err.(*os.LinkError); ok && isCrossDevice(linkErr) {
			data, readErr := os.ReadFile(tmpPath)
			if readErr != nil {
				return readErr
			}
			if writeErr := os.WriteFile(target, data, 0o644); writeErr != nil {
				return writeErr
			}
			return os.Remove(tmpPath)
		}
		return err
	}
	return nil
}

func isCrossDevice(err *os.LinkError) bool {
	return strings.Contains(err.Err.Error(), "cross-device")
}

// backupFile writes target to target+".backup", best-effort — a
// backup failure must never block the primary write/patch/delete.
func backupFile(target string) {
	data, err := os.ReadFile(target)
	if err != nil {
		return
	}
	_ = os.WriteFile(target+".backup", data, 0o644)
}

// verifyIO re-reads path and, if expectedHash is non-empty, confirms
// its content hashes to expectedHash — the post-write Sector Guard
// check. An empty expectedHash means "just confirm it's readable".
func verifyIO(path, expectedHash string) bool {
	content, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	if expectedHash == "" {
		return true
	}
	return hashOf(content) == expectedHash
}
