package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/xi-io/xi/pkg/receipt"
)

// runReadCmd implements `xi read <path>`.
func runReadCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("read", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	mode := cmd.String("mode", "", "Agentic Mode (PLAN, ACT, DEBUG, CHAT, REVIEW)")
	jsonOut := cmd.Bool("json", false, "emit the result as JSON")
	if err := cmd.Parse(args); err != nil {
		return 10
	}
	if cmd.NArg() < 1 {
		fmt.Fprintln(stderr, "Usage: xi read <path>")
		return 10
	}
	path := cmd.Arg(0)

	m, err := parseMode(*mode)
	if err != nil {
		return exitErr(stderr, err)
	}
	s, err := openSession(m)
	if err != nil {
		return exitErr(stderr, err)
	}
	defer s.Close()

	if err := s.Authorize("read"); err != nil {
		return exitErr(stderr, err)
	}

	content, r := s.Executor.Read(path)
	if r != nil {
		_ = s.Record("operator", "read", path, map[string]interface{}{"ok": false, "reason": r.Reason})
		emitReceipt(stdout, *r, *jsonOut)
		return exitForReceipt(*r)
	}
	_ = s.Record("operator", "read", path, map[string]interface{}{"ok": true, "bytes": len(content)})
	if *jsonOut {
		return printAndExit(stdout, receipt.Ok("read", path, len(content), "", 0))
	}
	fmt.Fprintln(stdout, string(content))
	return 0
}

func printAndExit(w io.Writer, r receipt.Receipt) int {
	fmt.Fprintln(w, r.JSON())
	return exitForReceipt(r)
}

// runWriteCmd implements `xi write <path> <content...>`.
func runWriteCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("write", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	mode := cmd.String("mode", "", "Agentic Mode")
	jsonOut := cmd.Bool("json", false, "emit the result as JSON")
	if err := cmd.Parse(args); err != nil {
		return 10
	}
	if cmd.NArg() < 2 {
		fmt.Fprintln(stderr, "Usage: xi write <path> <content>")
		return 10
	}
	path := cmd.Arg(0)
	content := strings.Join(cmd.Args()[1:], " ")

	m, err := parseMode(*mode)
	if err != nil {
		return exitErr(stderr, err)
	}
	s, err := openSession(m)
	if err != nil {
		return exitErr(stderr, err)
	}
	defer s.Close()

	if err := s.Authorize("write"); err != nil {
		return exitErr(stderr, err)
	}

	directive := "write " + strings.Join(args, " ")
	r := s.Executor.Write(path, []byte(content), directive)
	_ = s.Record("operator", "write", path, map[string]interface{}{"ok": r.OK, "reason": r.Reason})
	emitReceipt(stdout, r, *jsonOut)
	return exitForReceipt(r)
}

// runPatchCmd implements `xi patch <path> <find> <replace>`.
func runPatchCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("patch", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	mode := cmd.String("mode", "", "Agentic Mode")
	jsonOut := cmd.Bool("json", false, "emit the result as JSON")
	if err := cmd.Parse(args); err != nil {
		return 10
	}
	if cmd.NArg() < 3 {
		fmt.Fprintln(stderr, "Usage: xi patch <path> <find> <replace>")
		return 10
	}
	path := cmd.Arg(0)
	findText := cmd.Arg(1)
	replaceText := cmd.Arg(2)

	m, err := parseMode(*mode)
	if err != nil {
		return exitErr(stderr, err)
	}
	s, err := openSession(m)
	if err != nil {
		return exitErr(stderr, err)
	}
	defer s.Close()

	if err := s.Authorize("patch"); err != nil {
		return exitErr(stderr, err)
	}

	directive := "patch " + strings.Join(args, " ")
	r := s.Executor.Patch(path, findText, replaceText, directive)
	_ = s.Record("operator", "patch", path, map[string]interface{}{"ok": r.OK, "reason": r.Reason})
	emitReceipt(stdout, r, *jsonOut)
	return exitForReceipt(r)
}

// runDeleteCmd implements `xi delete <path>`.
func runDeleteCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("delete", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	mode := cmd.String("mode", "", "Agentic Mode")
	jsonOut := cmd.Bool("json", false, "emit the result as JSON")
	if err := cmd.Parse(args); err != nil {
		return 10
	}
	if cmd.NArg() < 1 {
		fmt.Fprintln(stderr, "Usage: xi delete <path>")
		return 10
	}
	path := cmd.Arg(0)

	m, err := parseMode(*mode)
	if err != nil {
		return exitErr(stderr, err)
	}
	s, err := openSession(m)
	if err != nil {
		return exitErr(stderr, err)
	}
	defer s.Close()

	if err := s.Authorize("delete"); err != nil {
		return exitErr(stderr, err)
	}

	r := s.Executor.Delete(path)
	_ = s.Record("operator", "delete", path, map[string]interface{}{"ok": r.OK, "reason": r.Reason})
	emitReceipt(stdout, r, *jsonOut)
	return exitForReceipt(r)
}

// runRunCmd implements `xi run <cmd...>`.
func runRunCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("run", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	mode := cmd.String("mode", "", "Agentic Mode")
	jsonOut := cmd.Bool("json", false, "emit the result as JSON")
	if err := cmd.Parse(args); err != nil {
		return 10
	}
	if cmd.NArg() < 1 {
		fmt.Fprintln(stderr, "Usage: xi run <cmd>")
		return 10
	}
	shellCmd := strings.Join(cmd.Args(), " ")

	m, err := parseMode(*mode)
	if err != nil {
		return exitErr(stderr, err)
	}
	s, err := openSession(m)
	if err != nil {
		return exitErr(stderr, err)
	}
	defer s.Close()

	if err := s.Authorize("run"); err != nil {
		return exitErr(stderr, err)
	}

	r := s.Executor.Run(context.Background(), shellCmd)
	_ = s.Record("operator", "run", shellCmd, map[string]interface{}{"ok": r.OK, "exit_code": r.ExitCode})
	if *jsonOut {
		fmt.Fprintln(stdout, r.JSON())
	} else {
		fmt.Fprint(stdout, r.Stdout)
		fmt.Fprint(stderr, r.Stderr)
	}
	return exitForReceipt(r)
}
