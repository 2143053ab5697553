// Package walker implements the Governed Walker (spec.md §4.2): a
// bounded, pruning, one-filesystem directory traversal used to answer
// COMPUTED_STATE queries without ever invoking a model.
//
// Grounded directly on _examples/original_source/xi_cli.py's
// _governed_recursive_count: the same ignore set, the same stack-based
// scandir-equivalent walk, the same device-boundary and time/count
// guards, and the same five-name sample cap.
package walker

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Status is the terminal condition a walk stopped under.
type Status string

const (
	StatusOK      Status = "OK"
	StatusTimeout Status = "TIMEOUT"
	StatusMaxed   Status = "MAX_REACHED"
	StatusOSError Status = "OS_ERROR"
)

// HiddenSentinel is the pseudo-extension meaning "match dotfiles",
// produced by the classifier's extension-alias table.
const HiddenSentinel = "__HIDDEN__"

const (
	DefaultMaxFiles = 50000
	DefaultMaxTime  = 3 * time.Second
	maxSamples      = 5
)

// ignoredDirs are pruned before descent, matching the teacher's
// industrial-standard ignore set.
var ignoredDirs = map[string]bool{
	".git": true, "node_modules": true, "venv": true, ".venv": true,
	"__pycache__": true, "dist": true, "build": true,
	".pytest_cache": true, ".mypy_cache": true,
}

// Result is the outcome of a governed count.
type Result struct {
	Count   int
	Samples []string
	Status  Status
}

// Options configures a walk.
type Options struct {
	// Exts is the set of lowercase extensions to match (e.g. ".py").
	// A nil/empty set matches every file. HiddenSentinel means "match
	// dotfiles" instead of matching by extension.
	Exts     []string
	MaxFiles int
	MaxTime  time.Duration
}

// Count performs a bounded DFS from root, counting files that satisfy
// opts.Exts, pruning ignored directory names, and refusing to cross
// filesystem/device boundaries.
func Count(root string, opts Options) Result {
	maxFiles := opts.MaxFiles
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}
	maxTime := opts.MaxTime
	if maxTime <= 0 {
		maxTime = DefaultMaxTime
	}

	extSet := make(map[string]bool, len(opts.Exts))
	hiddenOnly := false
	for _, e := range opts.Exts {
		if e == HiddenSentinel {
			hiddenOnly = true
			continue
		}
		extSet[strings.ToLower(e)] = true
	}
	matchAll := len(opts.Exts) == 0

	rootInfo, err := os.Stat(root)
	if err != nil {
		return Result{Status: StatusOSError}
	}
	rootDev := deviceID(rootInfo)

	start := time.Now()
	count := 0
	var samples []string

	stack := []string{root}
	for len(stack) > 0 {
		if time.Since(start) > maxTime {
			return Result{Count: count, Samples: samples, Status: StatusTimeout}
		}
		if count >= maxFiles {
			return Result{Count: count, Samples: samples, Status: StatusMaxed}
		}

		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(current)
		if err != nil {
			continue // permission or transient OS error: skip this subtree
		}
		for _, entry := range entries {
			if time.Since(start) > maxTime {
				return Result{Count: count, Samples: samples, Status: StatusTimeout}
			}
			name := entry.Name()
			info, err := entry.Info()
			if err != nil {
				continue
			}

			if entry.IsDir() {
				if ignoredDirs[name] {
					continue
				}
				if info.Mode()&os.ModeSymlink != 0 {
					continue // follow_symlinks=False equivalent
				}
				childPath := filepath.Join(current, name)
				childInfo, err := os.Stat(childPath)
				if err != nil {
					continue
				}
				if deviceID(childInfo) == rootDev {
					stack = append(stack, childPath)
				}
				continue
			}

			if info.Mode()&os.ModeSymlink != 0 {
				continue
			}
			if !entry.Type().IsRegular() {
				continue
			}

			matched := matchAll
			if !matched && hiddenOnly {
				matched = strings.HasPrefix(name, ".")
			} else if !matched {
				lower := strings.ToLower(name)
				for ext := range extSet {
					if strings.HasSuffix(lower, ext) {
						matched = true
						break
					}
				}
			}

			if matched {
				count++
				if len(samples) < maxSamples {
					samples = append(samples, name)
				}
				if count >= maxFiles {
					return Result{Count: count, Samples: samples, Status: StatusMaxed}
				}
			}
		}
	}

	return Result{Count: count, Samples: samples, Status: StatusOK}
}
