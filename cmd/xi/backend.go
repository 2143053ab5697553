package main

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// commandBackend treats each configured "model" as the name of a
// local executable on PATH: the prompt is piped to its stdin and the
// trimmed stdout is the candidate response. This is the local
// language-model backend spec.md describes — connection handling
// belongs to the backend's own client, not the DAC, so the DAC side
// of that contract is exactly this: one round-trip subprocess call per
// model, same as the Atomic Tool Executor's own os/exec usage.
type commandBackend struct{}

func (commandBackend) Generate(ctx context.Context, model, prompt string) (string, error) {
	cmd := exec.CommandContext(ctx, model)
	cmd.Stdin = bytes.NewBufferString(prompt)
	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("backend %q: %w: %s", model, err, errOut.String())
	}
	return out.String(), nil
}
