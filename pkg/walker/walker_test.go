package walker

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestCountMatchesExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.py"))
	writeFile(t, filepath.Join(dir, "b.py"))
	writeFile(t, filepath.Join(dir, "c.txt"))

	res := Count(dir, Options{Exts: []string{".py"}})
	require.Equal(t, StatusOK, res.Status)
	require.Equal(t, 2, res.Count)
}

func TestCountPrunesIgnoredDirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.py"))
	writeFile(t, filepath.Join(dir, "node_modules", "dep.py"))
	writeFile(t, filepath.Join(dir, ".git", "objects", "x.py"))

	res := Count(dir, Options{Exts: []string{".py"}})
	require.Equal(t, 1, res.Count)
}

func TestCountMatchesHiddenSentinel(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env"))
	writeFile(t, filepath.Join(dir, "visible.txt"))

	res := Count(dir, Options{Exts: []string{HiddenSentinel}})
	require.Equal(t, 1, res.Count)
}

func TestCountRespectsMaxFiles(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 10; i++ {
		writeFile(t, filepath.Join(dir, string(rune('a'+i))+".txt"))
	}
	res := Count(dir, Options{MaxFiles: 3})
	require.Equal(t, StatusMaxed, res.Status)
	require.Equal(t, 3, res.Count)
}

func TestCountRespectsMaxTime(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"))
	res := Count(dir, Options{MaxTime: time.Nanosecond})
	require.Equal(t, StatusTimeout, res.Status)
}

func TestCountCapsSamplesAtFive(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 8; i++ {
		writeFile(t, filepath.Join(dir, string(rune('a'+i))+".py"))
	}
	res := Count(dir, Options{Exts: []string{".py"}})
	require.Equal(t, 8, res.Count)
	require.Len(t, res.Samples, 5)
}
