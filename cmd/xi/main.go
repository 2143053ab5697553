// Command xi is the operator-facing orchestration CLI: a single-shot
// directive form (`-c`) plus explicit subcommands, all gated by the
// Deterministic Action Core (classifier, walker, adjudicator,
// executor, ledger) under a selected Agentic Mode.
//
// Grounded on the teacher's cmd/helm/main.go dispatch shape: a thin
// Run(args, stdout, stderr) int entrypoint, a switch over args[1], and
// one runXCmd(args, stdout, stderr) int function per subcommand using
// flag.NewFlagSet(name, flag.ContinueOnError).
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the CLI entrypoint, separated from main for testability. It
// builds the process-wide structured logger once, the way the teacher
// configures log/slog's default handler at process startup and then
// calls slog.Info/slog.Error directly from wherever a package needs
// to log, rather than threading a *slog.Logger through every
// constructor.
func Run(args []string, stdout, stderr io.Writer) int {
	slog.SetDefault(newLogger(stderr, args))

	if len(args) < 2 {
		printUsage(stderr)
		return 10
	}

	switch args[1] {
	case "-c":
		if len(args) < 3 {
			fmt.Fprintln(stderr, "Usage: xi -c <directive>")
			return 10
		}
		return runDirectiveCmd(args[2], args[3:], stdout, stderr)
	case "validate":
		return runValidateCmd(args[2:], stdout, stderr)
	case "status":
		return runStatusCmd(args[2:], stdout, stderr)
	case "verify":
		return runVerifyCmd(args[2:], stdout, stderr)
	case "gates":
		return runGatesCmd(args[2:], stdout, stderr)
	case "whereami":
		return runWhereamiCmd(args[2:], stdout, stderr)
	case "read":
		return runReadCmd(args[2:], stdout, stderr)
	case "write":
		return runWriteCmd(args[2:], stdout, stderr)
	case "patch":
		return runPatchCmd(args[2:], stdout, stderr)
	case "delete":
		return runDeleteCmd(args[2:], stdout, stderr)
	case "run":
		return runRunCmd(args[2:], stdout, stderr)
	case "lane":
		return runLaneCmd(args[2:], stdout, stderr)
	case "swarm":
		return runSwarmCmd(args[2:], stdout, stderr)
	case "workspace":
		return runWorkspaceCmd(args[2:], stdout, stderr)
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[1])
		printUsage(stderr)
		return 10
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `xi - operator-facing orchestration CLI

Usage:
  xi -c <directive> [--mode MODE] [--format chat|receipts] [--json]
  xi validate [--mode MODE]
  xi status [--json]
  xi verify [--json]
  xi gates [--wargame] [--json]
  xi whereami
  xi read <path>
  xi write <path> <content>
  xi patch <path> <find> <replace>
  xi delete <path>
  xi run <cmd>
  xi lane <id> <prompt...>
  xi swarm status|process|add <bucket> <task...>
  xi workspace discover <dir>|list|use <name>

Flags apply per-subcommand; run 'xi <command> -h' for details.
`)
}
