package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// setupWorkspace creates an isolated HOME and a git-rooted CWD so
// session.Open succeeds without touching the real filesystem state.
func setupWorkspace(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	ws := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(ws, ".git"), 0o755))
	t.Chdir(ws)
	return ws
}

func TestRunUnknownCommand(t *testing.T) {
	var out, errOut bytes.Buffer
	code := Run([]string{"xi", "bogus"}, &out, &errOut)
	require.Equal(t, 10, code)
	require.Contains(t, errOut.String(), "Unknown command")
}

func TestRunNoArgsPrintsUsage(t *testing.T) {
	var out, errOut bytes.Buffer
	code := Run([]string{"xi"}, &out, &errOut)
	require.Equal(t, 10, code)
	require.Contains(t, errOut.String(), "Usage")
}

func TestRunHelp(t *testing.T) {
	var out, errOut bytes.Buffer
	code := Run([]string{"xi", "help"}, &out, &errOut)
	require.Equal(t, 0, code)
	require.Contains(t, out.String(), "xi -c <directive>")
}

func TestRunWhereami(t *testing.T) {
	ws := setupWorkspace(t)
	var out, errOut bytes.Buffer
	code := Run([]string{"xi", "whereami"}, &out, &errOut)
	require.Equal(t, 0, code)
	require.Contains(t, out.String(), ws)
}
