// Package session wires the Ledger, Workspace Lock, Boundary,
// Executor, and Config into one explicit handle per CLI invocation.
//
// spec.md §9's Design Notes call out that the original kept workspace,
// ledger, and lock state in module-scoped globals; a CLI that supports
// `xi workspace use <name>` needs to tear down and rebuild all three
// together when the active workspace changes, which a package-level
// singleton can't express safely. Session is the replacement: one
// struct, constructed once per process, passed explicitly to every
// subcommand instead of reached for through package state.
package session

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"

	"github.com/xi-io/xi/pkg/boundary"
	"github.com/xi-io/xi/pkg/config"
	"github.com/xi-io/xi/pkg/executor"
	"github.com/xi-io/xi/pkg/governor"
	"github.com/xi-io/xi/pkg/ledger"
	"github.com/xi-io/xi/pkg/lock"
	"github.com/xi-io/xi/pkg/workspace"
)

// Version is the running binary's version, used for StateBlob.version
// and the xi validate/status min_version check. Set at build time via
// -ldflags; "dev" is the fallback for local builds.
var Version = "dev"

// Session holds every handle a subcommand needs: the active
// workspace's boundary and executor, its ledger and lock, the merged
// config, and the current Agentic Mode.
type Session struct {
	Mode     governor.Mode
	Config   config.Config
	Boundary *boundary.Boundary
	Executor *executor.Executor
	Ledger   *ledger.Ledger
	Lock     *lock.Lock
	Registry *workspace.Registry

	signer *lock.TokenSigner
}

// Open builds a Session rooted at workingDir: resolves the boundary,
// loads config, acquires the workspace lock, and opens the ledger.
// Callers must call Close when done to release the lock.
func Open(workingDir string, mode governor.Mode) (*Session, error) {
	b, err := boundary.New(workingDir)
	if err != nil {
		return nil, fmt.Errorf("session: boundary: %w", err)
	}

	cfg, err := config.Load(b.Root())
	if err != nil {
		return nil, fmt.Errorf("session: config: %w", err)
	}

	if cfg.MinVersion != "" {
		if err := workspace.CheckMinVersion(Version, cfg.MinVersion); err != nil {
			return nil, fmt.Errorf("session: %w", err)
		}
	}

	signer, err := lock.NewTokenSigner()
	if err != nil {
		return nil, fmt.Errorf("session: lock signer: %w", err)
	}
	wl, err := lock.Acquire(signer, b.Root())
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	ledgerPath := ledgerPathFor(b.Root())
	l, err := ledger.Open(ledgerPath)
	if err != nil {
		_ = wl.Release()
		return nil, fmt.Errorf("session: ledger: %w", err)
	}

	registry, err := workspace.OpenRegistry()
	if err != nil {
		_ = wl.Release()
		return nil, fmt.Errorf("session: registry: %w", err)
	}

	slog.Info("session: opened", "workspace", b.Root(), "mode", string(mode))

	return &Session{
		Mode:     mode,
		Config:   cfg,
		Boundary: b,
		Executor: executor.New(b),
		Ledger:   l,
		Lock:     wl,
		Registry: registry,
		signer:   signer,
	}, nil
}

// ledgerPathFor places the ledger inside the sovereign state
// directory, in a directory keyed by workspace root, so two workspaces
// never share one chain or one ledger_backups directory.
func ledgerPathFor(workspaceRoot string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".xi-ledger.json"
	}
	dir := home + "/.xi-io/ledgers/" + fingerprintPath(workspaceRoot)
	_ = os.MkdirAll(dir, 0o755)
	return dir + "/production_ledger.json"
}

// fingerprintPath derives a filesystem-safe, collision-resistant name
// for a workspace root so two different roots never share a ledger.
func fingerprintPath(root string) string {
	sum := sha256.Sum256([]byte(root))
	return hex.EncodeToString(sum[:])[:16]
}

// Close releases the session's held resources. It is safe to call on
// a partially-initialized Session.
func (s *Session) Close() error {
	if s == nil || s.Lock == nil {
		return nil
	}
	if err := s.Lock.Release(); err != nil {
		slog.Error("session: failed to release workspace lock", "workspace", s.Boundary.Root(), "error", err)
		return err
	}
	return nil
}

// Record appends an action to the ledger under the session's
// workspace, tolerating a nil Ledger (e.g. a dry-run session) as a
// no-op rather than a crash.
func (s *Session) Record(user, action, target string, metadata map[string]interface{}) error {
	if s.Ledger == nil {
		return nil
	}
	project := s.Boundary.Root()
	_, err := s.Ledger.Append(user, action, target, project, metadata)
	return err
}

// Authorize runs the Mode Governor's forbidden-operation check for cmd
// under the session's active mode.
func (s *Session) Authorize(cmd string) error {
	return governor.Check(s.Mode, cmd)
}
