package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLaneCmdRejectsUnknownLane(t *testing.T) {
	setupWorkspace(t)

	var out, errOut bytes.Buffer
	code := runLaneCmd([]string{"42.9", "do something"}, &out, &errOut)
	require.Equal(t, 10, code)
	require.Contains(t, errOut.String(), "Invalid lane")
}

func TestLaneCmdRequiresPrompt(t *testing.T) {
	setupWorkspace(t)

	var out, errOut bytes.Buffer
	code := runLaneCmd([]string{"42.1"}, &out, &errOut)
	require.Equal(t, 10, code)
}

func TestSwarmAddAndStatus(t *testing.T) {
	setupWorkspace(t)

	var out, errOut bytes.Buffer
	code := runSwarmCmd([]string{"add", "todo", "write", "a", "test"}, &out, &errOut)
	require.Equal(t, 0, code, errOut.String())

	out.Reset()
	code = runSwarmCmd([]string{"status"}, &out, &errOut)
	require.Equal(t, 0, code, errOut.String())
	require.Contains(t, out.String(), "TODO")
	require.Contains(t, out.String(), "Fire teams: 3")
}

func TestSwarmUnknownSubcommand(t *testing.T) {
	setupWorkspace(t)

	var out, errOut bytes.Buffer
	code := runSwarmCmd([]string{"bogus"}, &out, &errOut)
	require.Equal(t, 10, code)
}
