package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xi-io/xi/pkg/governor"
	"github.com/xi-io/xi/pkg/session"
	"github.com/xi-io/xi/pkg/swarm"
)

// runLaneCmd implements `xi lane <id> <prompt...>`: route a directive
// to a named fire team, then run it through the same adjudication path
// every REASONING directive takes.
func runLaneCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("lane", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	jsonOut := cmd.Bool("json", false, "emit JSON")
	if err := cmd.Parse(args); err != nil {
		return 10
	}
	if cmd.NArg() < 2 {
		fmt.Fprintln(stderr, "Usage: xi lane <id> <prompt>")
		return 10
	}
	laneID := cmd.Arg(0)
	prompt := strings.Join(cmd.Args()[1:], " ")

	team, ok := swarm.ResolveLane(laneID)
	if !ok {
		fmt.Fprintf(stderr, "Invalid lane: %s. Use 42.1, 42.2, or 42.3.\n", laneID)
		return 10
	}

	s, err := openSession(governor.Chat)
	if err != nil {
		return exitErr(stderr, err)
	}
	defer s.Close()

	_ = s.Record("operator", "lane", laneID, map[string]interface{}{"team": team.Key, "focus": team.Focus})
	fmt.Fprintf(stdout, "routed to %s (%s)\n", team.Name, team.Focus)
	return answerReasoning(s, prompt, stdout, *jsonOut, *jsonOut)
}

// runSwarmCmd implements `xi swarm {status|process|add <bucket> <task>}`.
func runSwarmCmd(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprintln(stderr, "Usage: xi swarm status|process|add <bucket> <task>")
		return 10
	}

	s, err := openSession(governor.Chat)
	if err != nil {
		return exitErr(stderr, err)
	}
	defer s.Close()

	backlog, err := openBacklog(s)
	if err != nil {
		return exitErr(stderr, err)
	}

	switch args[0] {
	case "status":
		st := backlog.Status()
		fmt.Fprintf(stdout, "Fire teams: %d\n", st.FireTeams)
		for _, b := range []swarm.Bucket{swarm.BucketTodo, swarm.BucketInProgress, swarm.BucketDone, swarm.BucketBlocked} {
			fmt.Fprintf(stdout, "  %-12s %d\n", b, st.Buckets[b])
		}
		return 0
	case "process":
		models := s.Config.EnsembleModels
		if len(models) == 0 {
			fmt.Fprintln(stderr, "Error: no ensemble models configured")
			return 1
		}
		results := backlog.ProcessBacklog(context.Background(), commandBackend{}, models[0], models)
		if len(results) == 0 {
			fmt.Fprintln(stdout, "No work in backlog.")
			return 0
		}
		for _, r := range results {
			fmt.Fprintf(stdout, "[%s] %s\n", r.Task.Bucket, r.Task.Prompt)
		}
		return 0
	case "add":
		if len(args) < 3 {
			fmt.Fprintln(stderr, "Usage: xi swarm add <bucket> <task>")
			return 10
		}
		bucket := swarm.Bucket(strings.ToUpper(args[1]))
		task := strings.Join(args[2:], " ")
		if _, err := backlog.Add(bucket, task); err != nil {
			return exitErr(stderr, err)
		}
		fmt.Fprintf(stdout, "Added task to %s bucket.\n", bucket)
		return 0
	default:
		fmt.Fprintln(stderr, "Usage: xi swarm status|process|add <bucket> <task>")
		return 10
	}
}

func openBacklog(s *session.Session) (*swarm.Backlog, error) {
	path := filepath.Join(s.Boundary.Root(), ".xi", "swarm_backlog.json")
	return swarm.OpenBacklog(path)
}
