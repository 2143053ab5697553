// Package boundary implements Policy A, the workspace boundary and
// quarantine check every Atomic Tool Executor operation runs before
// touching the filesystem (spec.md §4.4).
//
// Grounded on _examples/original_source/xi_utils.py's
// XIUtils._is_in_bounds/_is_safe (component-wise symlink rejection,
// the ~/.xi-io sovereign-state exemption) and, for the Go shape of a
// mutex-free checker with named sentinel errors and an explicit Check
// entrypoint, on the teacher's pkg/boundary/perimeter.go
// (Mindburn-Labs/helm) — adapted from a network/tool perimeter to a
// filesystem one.
package boundary

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xi-io/xi/pkg/xierr"
)

var (
	ErrOutsideWorkspace = errors.New("boundary: target is outside the workspace root")
	ErrSymlinkTraversal = errors.New("boundary: symlink traversal rejected")
	ErrQuarantined      = errors.New("boundary: target is quarantined by .xi-ignore")
)

// sovereignDirName is the one directory tree exempt from the
// workspace-root requirement: the operator's persisted CLI state.
const sovereignDirName = ".xi-io"

// Boundary enforces Policy A for a single workspace root.
type Boundary struct {
	root       string // resolved, symlink-free workspace root
	sovereign  string // resolved ~/.xi-io, or "" if unavailable
	ignoreGlob []string
}

// New resolves workingDir to an absolute, symlink-free root and loads
// any .xi-ignore quarantine patterns found directly under it.
func New(workingDir string) (*Boundary, error) {
	root, err := filepath.EvalSymlinks(workingDir)
	if err != nil {
		return nil, fmt.Errorf("boundary: resolve workspace root: %w", err)
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("boundary: absolute workspace root: %w", err)
	}

	b := &Boundary{root: root}

	if home, err := os.UserHomeDir(); err == nil {
		sov := filepath.Join(home, sovereignDirName)
		if resolved, err := filepath.EvalSymlinks(sov); err == nil {
			b.sovereign = resolved
		} else {
			b.sovereign = sov // not created yet; compare unresolved
		}
	}

	b.loadIgnore()
	return b, nil
}

// Root returns the resolved workspace root.
func (b *Boundary) Root() string { return b.root }

func (b *Boundary) loadIgnore() {
	raw, err := os.ReadFile(filepath.Join(b.root, ".xi-ignore"))
	if err != nil {
		return
	}
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		b.ignoreGlob = append(b.ignoreGlob, line)
	}
}

// Resolve turns an operator-supplied path into an absolute path per
// the same rules the original XIUtils._get_path used: expand ~, pass
// through absolute paths unchanged, otherwise resolve relative to the
// workspace root.
func (b *Boundary) Resolve(name string) (string, error) {
	if strings.HasPrefix(name, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("boundary: resolve home: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(name, "~")), nil
	}
	if filepath.IsAbs(name) {
		return filepath.Clean(name), nil
	}
	return filepath.Join(b.root, name), nil
}

// InBounds reports whether target satisfies Policy A: every path
// component between the workspace root and the target is a real
// directory (no symlink may be traversed), and the final resolved
// location is inside the root or inside the sovereign state directory.
func (b *Boundary) InBounds(target string) bool {
	abs, err := b.Resolve(target)
	if err != nil {
		return false
	}
	abs = filepath.Clean(abs)

	if b.sovereign != "" && (abs == b.sovereign || strings.HasPrefix(abs, b.sovereign+string(filepath.Separator))) {
		return true
	}

	rel, err := filepath.Rel(b.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}

	check := b.root
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if part == "." || part == "" {
			continue
		}
		check = filepath.Join(check, part)
		info, err := os.Lstat(check)
		if err != nil {
			continue // component doesn't exist yet (e.g. a write target); nothing to traverse
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return false
		}
	}

	resolved, err := filepath.EvalSymlinks(filepath.Dir(abs))
	if err != nil {
		return true // parent dir doesn't exist yet; component check above already cleared it
	}
	return resolved == b.root || strings.HasPrefix(resolved, b.root+string(filepath.Separator))
}

// Quarantined reports whether target matches a .xi-ignore pattern.
func (b *Boundary) Quarantined(target string) bool {
	abs, err := b.Resolve(target)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(b.root, abs)
	if err != nil {
		return false
	}
	base := filepath.Base(abs)
	for _, pattern := range b.ignoreGlob {
		if ok, _ := filepath.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// Check runs the full Policy A gate and returns a typed error with the
// reason string an ActionReceipt surfaces to the operator.
func (b *Boundary) Check(target string) error {
	if !b.InBounds(target) {
		return xierr.New(xierr.KindPolicyRefusal, "POLICY_A_REJECTION")
	}
	if b.Quarantined(target) {
		return xierr.New(xierr.KindPolicyRefusal, "QUARANTINE_REJECTION")
	}
	return nil
}
