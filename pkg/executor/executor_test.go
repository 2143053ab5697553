package executor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xi-io/xi/pkg/boundary"
)

func newTestExecutor(t *testing.T) (*Executor, string) {
	t.Helper()
	dir := t.TempDir()
	b, err := boundary.New(dir)
	require.NoError(t, err)
	return New(b), dir
}

func TestWriteCreatesFileAndVerifiesHash(t *testing.T) {
	e, dir := newTestExecutor(t)
	r := e.Write("a.txt", []byte("hello"), "write a.txt hello")
	require.True(t, r.OK)
	require.Equal(t, 5, r.Bytes)
	require.Equal(t, hashOf([]byte("hello")), r.SHA256)

	content, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(content))
}

func TestWriteRejectsEscapeWithPolicyA(t *testing.T) {
	e, _ := newTestExecutor(t)
	r := e.Write("../outside.txt", []byte("x"), "write ../outside.txt x")
	require.False(t, r.OK)
	require.Equal(t, 13, r.ExitCode)
	require.Equal(t, "POLICY_A_REJECTION", r.Reason)
}

func TestPatchReplacesFindText(t *testing.T) {
	e, _ := newTestExecutor(t)
	r := e.Write("a.txt", []byte("hello world"), "write a.txt hello world")
	require.True(t, r.OK)

	p := e.Patch("a.txt", "world", "there", "patch a.txt world there")
	require.True(t, p.OK)

	content, _ := e.Read("a.txt")
	require.Equal(t, "hello there", string(content))
}

func TestPatchFailsStaleWhenFindTextMissing(t *testing.T) {
	e, _ := newTestExecutor(t)
	e.Write("a.txt", []byte("hello world"), "write a.txt hello world")

	p := e.Patch("a.txt", "goodbye", "there", "patch a.txt goodbye there")
	require.False(t, p.OK)
	require.Equal(t, 14, p.ExitCode)
	require.Equal(t, "STALE_PLAN", p.Reason)
}

func TestDeleteRemovesFile(t *testing.T) {
	e, dir := newTestExecutor(t)
	e.Write("a.txt", []byte("x"), "write a.txt x")

	r := e.Delete("a.txt")
	require.True(t, r.OK)
	_, err := os.Stat(filepath.Join(dir, "a.txt"))
	require.True(t, os.IsNotExist(err))
}

func TestDeleteMissingFileFails(t *testing.T) {
	e, _ := newTestExecutor(t)
	r := e.Delete("missing.txt")
	require.False(t, r.OK)
}

func TestRunCapturesStdoutAndExitCode(t *testing.T) {
	e, _ := newTestExecutor(t)
	r := e.Run(context.Background(), "echo hi")
	require.True(t, r.OK)
	require.Equal(t, "hi\n", r.Stdout)
}

func TestRunReportsNonZeroExit(t *testing.T) {
	e, _ := newTestExecutor(t)
	r := e.Run(context.Background(), "exit 3")
	require.False(t, r.OK)
	require.Equal(t, 3, r.ExitCode)
}

func TestReadRejectsQuarantinedPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".xi-ignore"), []byte("secret.txt\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secret.txt"), []byte("x"), 0o644))

	b, err := boundary.New(dir)
	require.NoError(t, err)
	e := New(b)

	_, r := e.Read("secret.txt")
	require.NotNil(t, r)
	require.Equal(t, "QUARANTINE_REJECTION", r.Reason)
}

func TestWriteTriggersRunawayGuardOnMassOperationLanguage(t *testing.T) {
	e, _ := newTestExecutor(t)
	r := e.Write("a.txt", []byte("x"), "delete all 5000 files in this project")
	require.False(t, r.OK)
	require.Equal(t, 16, r.ExitCode)
	require.Equal(t, "RUNAWAY_GUARD", r.Reason)

	_, statErr := os.Stat(filepath.Join(e.boundary.Root(), "a.txt"))
	require.True(t, os.IsNotExist(statErr))
}

func TestWriteRunawayGuardAllowsForceOverride(t *testing.T) {
	e, _ := newTestExecutor(t)
	r := e.Write("a.txt", []byte("x"), "force delete all 5000 files in this project")
	require.True(t, r.OK)
}

func TestPatchTriggersRunawayGuard(t *testing.T) {
	e, _ := newTestExecutor(t)
	e.Write("a.txt", []byte("hello world"), "write a.txt hello world")

	p := e.Patch("a.txt", "world", "there", "patch * across 10000 files")
	require.False(t, p.OK)
	require.Equal(t, 16, p.ExitCode)
	require.Equal(t, "RUNAWAY_GUARD", p.Reason)
}

func TestRunTriggersRunawayGuard(t *testing.T) {
	e, _ := newTestExecutor(t)
	r := e.Run(context.Background(), "rm -rf 1000 files")
	require.False(t, r.OK)
	require.Equal(t, 16, r.ExitCode)
	require.Equal(t, "RUNAWAY_GUARD", r.Reason)
}
