// Package lock implements the Workspace Lock (spec.md §4.7): an
// advisory, PID-liveness-aware exclusive lock on a workspace root, so
// two CLI invocations never run an Atomic Tool Executor operation
// against the same workspace concurrently.
//
// Grounded on _examples/original_source/xi_cli.py's workspace_lock():
// flock-based advisory locking, stale-lock recovery by probing the
// recorded PID with signal 0, and falling back to a home-directory
// lock path when the workspace root itself isn't writable. The bare
// PID payload is enriched with a signed token (token.go) rather than
// a plain integer.
package lock

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

var (
	ErrBusyWorkspace = errors.New("lock: another process holds the workspace lock")
)

const ttl = 24 * time.Hour

type payload struct {
	PID   int    `json:"pid"`
	Token string `json:"token"`
}

// Lock is a held advisory lock on a workspace.
type Lock struct {
	file *os.File
	path string
}

func lockPath(workspaceRoot string) string {
	candidate := filepath.Join(workspaceRoot, ".xi-lock")
	if info, err := os.Stat(workspaceRoot); err == nil && info.IsDir() {
		if f, err := os.OpenFile(filepath.Join(workspaceRoot, ".xi-lock-probe"), os.O_CREATE|os.O_WRONLY, 0o644); err == nil {
			f.Close()
			os.Remove(f.Name())
			return candidate
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".xi-lock")
	}
	return candidate
}

// Acquire takes the advisory lock for workspaceRoot, recovering a
// stale lock left by a dead process, and signing a fresh token into
// the lock file payload.
func Acquire(signer *TokenSigner, workspaceRoot string) (*Lock, error) {
	path := lockPath(workspaceRoot)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("lock: open %s: %w", path, err)
	}

	if err := tryFlock(f); err != nil {
		existing, readErr := readPayload(f)
		trusted := readErr == nil && existing.PID != 0
		if trusted {
			if _, err := signer.Verify(workspaceRoot, existing.Token); err != nil {
				trusted = false
			}
		}
		if trusted && processAlive(existing.PID) {
			f.Close()
			return nil, ErrBusyWorkspace
		}
		// Stale: the recorded PID is dead, unreadable, or carries a
		// token that does not verify for this workspace. One more
		// attempt, matching the original's single-retry recovery.
		if err := tryFlock(f); err != nil {
			f.Close()
			return nil, ErrBusyWorkspace
		}
		slog.Warn("lock: recovered stale workspace lock", "path", path, "dead_pid", existing.PID)
	}

	pid := os.Getpid()
	token, err := signer.Sign(workspaceRoot, pid, ttl)
	if err != nil {
		unlock(f)
		f.Close()
		return nil, err
	}
	if err := writePayload(f, payload{PID: pid, Token: token}); err != nil {
		unlock(f)
		f.Close()
		return nil, err
	}

	return &Lock{file: f, path: path}, nil
}

// Release unlocks and removes the lock file.
func (l *Lock) Release() error {
	defer l.file.Close()
	unlock(l.file)
	return os.Remove(l.path)
}

func readPayload(f *os.File) (payload, error) {
	var p payload
	if _, err := f.Seek(0, 0); err != nil {
		return p, err
	}
	data, err := os.ReadFile(f.Name())
	if err != nil {
		return p, err
	}
	if len(data) == 0 {
		return p, fmt.Errorf("lock: empty lock file")
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, err
	}
	return p, nil
}

func writePayload(f *os.File, p payload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}
