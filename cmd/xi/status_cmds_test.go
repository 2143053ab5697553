package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateCmd(t *testing.T) {
	setupWorkspace(t)

	var out, errOut bytes.Buffer
	code := runValidateCmd(nil, &out, &errOut)
	require.Equal(t, 0, code, errOut.String())
	require.Contains(t, out.String(), "OK:")
}

func TestStatusCmdPlainText(t *testing.T) {
	setupWorkspace(t)

	var out, errOut bytes.Buffer
	code := runStatusCmd(nil, &out, &errOut)
	require.Equal(t, 0, code, errOut.String())
	require.Contains(t, out.String(), "cwd:")
	require.Contains(t, out.String(), "ledger:")
}

func TestStatusCmdJSON(t *testing.T) {
	setupWorkspace(t)

	var out, errOut bytes.Buffer
	code := runStatusCmd([]string{"--json"}, &out, &errOut)
	require.Equal(t, 0, code, errOut.String())
	require.Contains(t, out.String(), "state_blob")
}

func TestVerifyCmdOnFreshLedger(t *testing.T) {
	setupWorkspace(t)

	var out, errOut bytes.Buffer
	code := runVerifyCmd(nil, &out, &errOut)
	require.Equal(t, 0, code, errOut.String())
	require.Contains(t, out.String(), "valid")
}

func TestGatesCmdRequiresWargameFlag(t *testing.T) {
	setupWorkspace(t)

	var out, errOut bytes.Buffer
	code := runGatesCmd(nil, &out, &errOut)
	require.Equal(t, 10, code)
}

func TestGatesCmdWargame(t *testing.T) {
	setupWorkspace(t)

	var out, errOut bytes.Buffer
	code := runGatesCmd([]string{"--wargame"}, &out, &errOut)
	require.Equal(t, 0, code, errOut.String())
	require.Contains(t, out.String(), "PASS")
}
