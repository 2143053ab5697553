// Package workspace implements the Workspace Registry and StateBlob
// (spec.md §4.8, §4.9): a persisted list of known workspaces plus the
// deterministic, model-free state observation the classifier's
// STATIC_STATE/COMPUTED_STATE answers are built from.
//
// Grounded directly on
// _examples/original_source/workspace_registry.py (WorkspaceRegistry:
// discover/list/set_active/get_active_path) and xi_cli.py's
// get_state_blob (the exact file-list/100-cap/truncated-sha256 shape).
package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Registry is the persisted `~/.xi-io/workspaces.json` document.
type Registry struct {
	path       string
	Active     string            `json:"active"`
	Workspaces map[string]string `json:"workspaces"`
}

// OpenRegistry loads (or initializes) the registry at the default
// sovereign-state location.
func OpenRegistry() (*Registry, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("workspace: resolve home: %w", err)
	}
	dir := filepath.Join(home, ".xi-io")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("workspace: create state dir: %w", err)
	}
	r := &Registry{path: filepath.Join(dir, "workspaces.json"), Workspaces: map[string]string{}}
	if data, err := os.ReadFile(r.path); err == nil {
		_ = json.Unmarshal(data, r) // a corrupt registry starts fresh rather than blocking the CLI
	}
	if r.Workspaces == nil {
		r.Workspaces = map[string]string{}
	}
	return r, nil
}

func (r *Registry) save() error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.path, data, 0o644)
}

// MarshalJSON excludes the unexported path field from the persisted
// document while keeping Registry itself the single source of truth.
func (r *Registry) MarshalJSON() ([]byte, error) {
	type alias struct {
		Active     string            `json:"active"`
		Workspaces map[string]string `json:"workspaces"`
	}
	return json.Marshal(alias{Active: r.Active, Workspaces: r.Workspaces})
}

// Discover scans path for git-rooted subdirectories and registers
// each by directory name.
func (r *Registry) Discover(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("workspace: discover %s: %w", path, err)
	}
	var discovered []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		full := filepath.Join(path, e.Name())
		if _, err := os.Stat(filepath.Join(full, ".git")); err != nil {
			continue
		}
		discovered = append(discovered, full)
		r.Workspaces[e.Name()] = full
	}
	return discovered, r.save()
}

// List returns the known name -> path map.
func (r *Registry) List() map[string]string {
	return r.Workspaces
}

// Use sets project as the active workspace, failing if it isn't
// registered.
func (r *Registry) Use(project string) error {
	if _, ok := r.Workspaces[project]; !ok {
		return fmt.Errorf("workspace: %q is not registered", project)
	}
	r.Active = project
	return r.save()
}

// ActivePath returns the active workspace's path, or "" if none is set.
func (r *Registry) ActivePath() string {
	if r.Active == "" {
		return ""
	}
	return r.Workspaces[r.Active]
}
