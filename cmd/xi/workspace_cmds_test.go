package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWorkspaceDiscoverListUse(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	scanDir := t.TempDir()
	proj := filepath.Join(scanDir, "proj1")
	require.NoError(t, os.MkdirAll(filepath.Join(proj, ".git"), 0o755))

	var out, errOut bytes.Buffer
	code := runWorkspaceCmd([]string{"discover", scanDir}, &out, &errOut)
	require.Equal(t, 0, code, errOut.String())
	require.Contains(t, out.String(), proj)

	out.Reset()
	code = runWorkspaceCmd([]string{"list"}, &out, &errOut)
	require.Equal(t, 0, code, errOut.String())
	require.Contains(t, out.String(), "proj1")

	out.Reset()
	code = runWorkspaceCmd([]string{"use", "proj1"}, &out, &errOut)
	require.Equal(t, 0, code, errOut.String())
	require.Contains(t, out.String(), "proj1")
}

func TestWorkspaceUseUnregisteredFails(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	var out, errOut bytes.Buffer
	code := runWorkspaceCmd([]string{"use", "ghost"}, &out, &errOut)
	require.NotEqual(t, 0, code)
}
