package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xi-io/xi/pkg/walker"
)

func TestCountLocalMatchesExtensionCaseInsensitively(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Foo.PY"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bar.txt"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "nested.py"), []byte("x"), 0o644))

	res := countLocal(dir, []string{".py"})
	require.Equal(t, 1, res.Count)
	require.Equal(t, walker.StatusOK, res.Status)
	require.Contains(t, res.Samples, "Foo.PY")
}

func TestCountLocalHiddenSentinel(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".secret"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "visible.txt"), []byte("x"), 0o644))

	res := countLocal(dir, []string{walker.HiddenSentinel})
	require.Equal(t, 1, res.Count)
}

func TestCountLocalMissingDirReturnsOSError(t *testing.T) {
	res := countLocal(filepath.Join(t.TempDir(), "nope"), nil)
	require.Equal(t, walker.StatusOSError, res.Status)
}

func TestDirectiveWhereAmIAnswersWithoutAdjudicator(t *testing.T) {
	ws := setupWorkspace(t)

	var out, errOut bytes.Buffer
	code := runDirectiveCmd("where am i", nil, &out, &errOut)
	require.Equal(t, 0, code, errOut.String())
	require.Contains(t, out.String(), ws)
}

func TestDirectiveRejectsBadFormatFlag(t *testing.T) {
	setupWorkspace(t)

	var out, errOut bytes.Buffer
	code := runDirectiveCmd("where am i", []string{"--format", "xml"}, &out, &errOut)
	require.Equal(t, 10, code)
}
