// Package swarm implements the Agentic Swarm surface named in
// spec.md §6's command-line interface (`xi lane`, `xi swarm`): a
// small persisted task backlog partitioned into buckets, and a fixed
// set of named "fire teams" a lane ID routes a prompt to before the
// prompt reaches the Ensemble Adjudicator.
//
// Grounded on _examples/original_source/xi_cli.py's cmd_swarm/cmd_lane
// and the "42 Lanes" fire-team map (lane_map / swarm.fire_teams):
// three teams (alpha/beta/gamma, aliased as 42.1/42.2/42.3), each with
// a focus area, and a backlog of buckets a task moves through as it's
// processed. The original's route_through_42 step is collapsed here
// into tagging which fire team handled a prompt; the actual work is
// the same Ensemble Adjudicator call every REASONING directive goes
// through (no classification step), not a separate execution path per
// lane.
package swarm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/xi-io/xi/pkg/adjudicator"
)

// FireTeam is one of the swarm's three fixed specializations.
type FireTeam struct {
	Key   string
	Name  string
	Focus string
}

var fireTeams = map[string]FireTeam{
	"alpha": {Key: "alpha", Name: "Fire Team Alpha", Focus: "implementation"},
	"beta":  {Key: "beta", Name: "Fire Team Beta", Focus: "analysis"},
	"gamma": {Key: "gamma", Name: "Fire Team Gamma", Focus: "verification"},
}

var laneAliases = map[string]string{
	"42.1": "alpha", "42.2": "beta", "42.3": "gamma",
	"alpha": "alpha", "beta": "beta", "gamma": "gamma",
}

// ResolveLane maps a lane identifier (either "42.N" or a team name) to
// its fire team, matching the original's case-insensitive lane_map.
func ResolveLane(lane string) (FireTeam, bool) {
	key, ok := laneAliases[strings.ToLower(lane)]
	if !ok {
		return FireTeam{}, false
	}
	return fireTeams[key], true
}

// Bucket is a backlog task's lifecycle state.
type Bucket string

const (
	BucketTodo       Bucket = "TODO"
	BucketInProgress Bucket = "IN_PROGRESS"
	BucketDone       Bucket = "DONE"
	BucketBlocked    Bucket = "BLOCKED"
)

// Task is one unit of backlog work.
type Task struct {
	ID     string `json:"id"`
	Bucket Bucket `json:"bucket"`
	Prompt string `json:"prompt"`
}

// Status summarizes the backlog for `xi swarm status`.
type Status struct {
	Buckets   map[Bucket]int
	FireTeams int
}

// Backlog is the persisted task queue, one per workspace.
type Backlog struct {
	mu    sync.Mutex
	path  string
	Tasks []Task `json:"tasks"`
}

// OpenBacklog loads (or initializes) the backlog at path.
func OpenBacklog(path string) (*Backlog, error) {
	b := &Backlog{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return b, nil
		}
		return nil, fmt.Errorf("swarm: read backlog: %w", err)
	}
	if err := json.Unmarshal(data, b); err != nil {
		return nil, fmt.Errorf("swarm: parse backlog: %w", err)
	}
	return b, nil
}

func (b *Backlog) save() error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(struct {
		Tasks []Task `json:"tasks"`
	}{b.Tasks}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(b.path, data, 0o644)
}

// Add appends a new task to bucket, matching the original's
// add_to_bucket(task, status=bucket.upper()).
func (b *Backlog) Add(bucket Bucket, prompt string) (Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := Task{ID: uuid.New().String(), Bucket: bucket, Prompt: prompt}
	b.Tasks = append(b.Tasks, t)
	return t, b.save()
}

// Status reports per-bucket counts and the fixed fire-team count.
func (b *Backlog) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	counts := map[Bucket]int{BucketTodo: 0, BucketInProgress: 0, BucketDone: 0, BucketBlocked: 0}
	for _, t := range b.Tasks {
		counts[t.Bucket]++
	}
	return Status{Buckets: counts, FireTeams: len(fireTeams)}
}

// ProcessResult is the outcome of running one backlog task through the
// Ensemble Adjudicator.
type ProcessResult struct {
	Task   Task
	Result adjudicator.Result
	Err    error
}

// ProcessBacklog runs every TODO task through the adjudicator and
// moves it to DONE (ADJUDICATED) or BLOCKED (HALT or error), matching
// the original's process_backlog "fire 42 lanes" sweep.
func (b *Backlog) ProcessBacklog(ctx context.Context, backend adjudicator.Backend, extractorModel string, models []string) []ProcessResult {
	b.mu.Lock()
	var pending []int
	for i, t := range b.Tasks {
		if t.Bucket == BucketTodo {
			pending = append(pending, i)
		}
	}
	b.mu.Unlock()

	results := make([]ProcessResult, 0, len(pending))
	for _, i := range pending {
		b.mu.Lock()
		task := b.Tasks[i]
		task.Bucket = BucketInProgress
		b.Tasks[i] = task
		b.mu.Unlock()

		res, err := adjudicator.RunEnsemble(ctx, backend, extractorModel, models, task.Prompt)

		b.mu.Lock()
		if err != nil || res.Status == adjudicator.StatusHalt {
			task.Bucket = BucketBlocked
		} else {
			task.Bucket = BucketDone
		}
		b.Tasks[i] = task
		_ = b.save()
		b.mu.Unlock()

		results = append(results, ProcessResult{Task: task, Result: res, Err: err})
	}
	return results
}
