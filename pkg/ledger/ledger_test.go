package ledger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	dir := t.TempDir()
	l, err := Open(filepath.Join(dir, "production_ledger.json"))
	require.NoError(t, err)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.WithClock(func() time.Time {
		now = now.Add(time.Second)
		return now
	})
	return l
}

func TestAppendFirstEntryChainsFromGenesis(t *testing.T) {
	l := openTestLedger(t)
	e, err := l.Append("operator", "write", "/tmp/a.txt", "demo", nil)
	require.NoError(t, err)
	require.NotEmpty(t, e.ChainHash)

	want, err := chainHash(Genesis, e)
	require.NoError(t, err)
	require.Equal(t, want, e.ChainHash)
}

func TestAppendPersistsAndReopens(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "production_ledger.json")
	l1, err := Open(path)
	require.NoError(t, err)

	_, err = l1.Append("operator", "write", "/tmp/a.txt", "demo", nil)
	require.NoError(t, err)
	_, err = l1.Append("operator", "delete", "/tmp/a.txt", "demo", nil)
	require.NoError(t, err)

	l2, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, 2, l2.Len())

	res := l2.VerifyChain()
	require.True(t, res.Valid)
	require.Equal(t, 2, res.EntriesChecked)
}

func TestVerifyChainDetectsTamper(t *testing.T) {
	l := openTestLedger(t)
	_, err := l.Append("operator", "write", "/tmp/a.txt", "demo", nil)
	require.NoError(t, err)
	_, err = l.Append("operator", "write", "/tmp/b.txt", "demo", nil)
	require.NoError(t, err)

	l.entries[0].Action = "delete" // tamper without recomputing the hash

	res := l.VerifyChain()
	require.False(t, res.Valid)
	require.NotNil(t, res.FirstBroken)
	require.Equal(t, 0, *res.FirstBroken)
}

func TestTruncateRebasesRetainedTailToGenesis(t *testing.T) {
	l := openTestLedger(t)
	for i := 0; i < capEntries+5; i++ {
		_, err := l.Append("operator", "write", "/tmp/f", "demo", nil)
		require.NoError(t, err)
	}
	require.Equal(t, capEntries, l.Len())

	res := l.VerifyChain()
	require.True(t, res.Valid)
	require.Equal(t, capEntries, res.EntriesChecked)

	first := l.entries[0]
	want, err := chainHash(Genesis, first)
	require.NoError(t, err)
	require.Equal(t, want, first.ChainHash)
}

func TestRestoreFromBackupOnCorruption(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "production_ledger.json")
	l1, err := Open(path)
	require.NoError(t, err)
	_, err = l1.Append("operator", "write", "/tmp/a.txt", "demo", nil)
	require.NoError(t, err)
	// The backup is taken before each write, so the second append is
	// what leaves a backup holding the one-entry ledger.
	_, err = l1.Append("operator", "write", "/tmp/b.txt", "demo", nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("{not valid json"), 0o644))

	l2, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, 1, l2.Len())
	require.False(t, l2.chainReset)
}

func TestChainResetWhenNoBackupAvailable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "production_ledger.json")
	require.NoError(t, os.WriteFile(path, []byte("not json at all"), 0o644))

	l, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, 0, l.Len())

	e, err := l.Append("operator", "write", "/tmp/a.txt", "demo", nil)
	require.NoError(t, err)
	require.Equal(t, true, e.Metadata["chain_reset"])
}

func TestBackupRotationKeepsMostRecentTen(t *testing.T) {
	l := openTestLedger(t)
	for i := 0; i < 15; i++ {
		_, err := l.Append("operator", "write", "/tmp/f", "demo", nil)
		require.NoError(t, err)
	}
	files, err := os.ReadDir(l.backupDir)
	require.NoError(t, err)
	require.LessOrEqual(t, len(files), maxBackups)
}
