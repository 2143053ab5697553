package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/xi-io/xi/pkg/workspace"
)

// runWorkspaceCmd implements `xi workspace discover <dir>|list|use <name>`,
// operating directly on the sovereign Registry rather than a Session:
// switching the active workspace must not require (or hold) a lock on
// any one workspace's boundary.
func runWorkspaceCmd(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprintln(stderr, "Usage: xi workspace discover <dir>|list|use <name>")
		return 10
	}

	reg, err := workspace.OpenRegistry()
	if err != nil {
		return exitErr(stderr, err)
	}

	switch args[0] {
	case "discover":
		if len(args) < 2 {
			fmt.Fprintln(stderr, "Usage: xi workspace discover <dir>")
			return 10
		}
		found, err := reg.Discover(args[1])
		if err != nil {
			return exitErr(stderr, err)
		}
		if len(found) == 0 {
			fmt.Fprintln(stdout, "No git-rooted workspaces found.")
			return 0
		}
		for _, p := range found {
			fmt.Fprintln(stdout, p)
		}
		return 0
	case "list":
		known := reg.List()
		names := make([]string, 0, len(known))
		for name := range known {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			marker := " "
			if name == reg.Active {
				marker = "*"
			}
			fmt.Fprintf(stdout, "%s %s -> %s\n", marker, name, known[name])
		}
		return 0
	case "use":
		if len(args) < 2 {
			fmt.Fprintln(stderr, "Usage: xi workspace use <name>")
			return 10
		}
		if err := reg.Use(args[1]); err != nil {
			return exitErr(stderr, err)
		}
		fmt.Fprintf(stdout, "Active workspace: %s\n", args[1])
		return 0
	default:
		fmt.Fprintln(stderr, "Usage: xi workspace discover <dir>|list|use <name>")
		return 10
	}
}
