package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xi-io/xi/pkg/governor"
)

func TestOpenAndCloseRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	ws := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(ws, ".git"), 0o755))

	s, err := Open(ws, governor.Chat)
	require.NoError(t, err)
	require.NotNil(t, s.Boundary)
	require.NotNil(t, s.Executor)
	require.NotNil(t, s.Ledger)
	require.NoError(t, s.Close())
}

func TestAuthorizeDefersToGovernor(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	ws := t.TempDir()

	s, err := Open(ws, governor.Plan)
	require.NoError(t, err)
	defer s.Close()

	require.Error(t, s.Authorize("write"))
	require.NoError(t, s.Authorize("read"))
}

func TestRecordAppendsLedgerEntry(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	ws := t.TempDir()

	s, err := Open(ws, governor.Chat)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Record("operator", "read", "foo.txt", nil))
	require.Equal(t, 1, s.Ledger.Len())
}

func TestOpenRejectsVersionBelowWorkspaceMinimum(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	ws := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(ws, ".xi"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(ws, ".xi", "config.yaml"), []byte("min_version: \">=99.0.0\"\n"), 0o644))

	prev := Version
	Version = "1.0.0"
	defer func() { Version = prev }()

	_, err := Open(ws, governor.Chat)
	require.Error(t, err)
}
