package swarm

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xi-io/xi/pkg/adjudicator"
)

type fakeBackend struct {
	response string
	fail     bool
}

func (f fakeBackend) Generate(ctx context.Context, model, prompt string) (string, error) {
	if f.fail {
		return "", errors.New("backend unavailable")
	}
	return f.response, nil
}

func TestResolveLaneAcceptsAliasesAndNames(t *testing.T) {
	team, ok := ResolveLane("42.2")
	require.True(t, ok)
	require.Equal(t, "beta", team.Key)

	team, ok = ResolveLane("ALPHA")
	require.True(t, ok)
	require.Equal(t, "alpha", team.Key)

	_, ok = ResolveLane("42.9")
	require.False(t, ok)
}

func TestBacklogAddAndStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backlog.json")
	b, err := OpenBacklog(path)
	require.NoError(t, err)

	_, err = b.Add(BucketTodo, "investigate flaky test")
	require.NoError(t, err)

	status := b.Status()
	require.Equal(t, 1, status.Buckets[BucketTodo])
	require.Equal(t, 3, status.FireTeams)
}

func TestBacklogPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backlog.json")
	b1, err := OpenBacklog(path)
	require.NoError(t, err)
	_, err = b1.Add(BucketTodo, "task one")
	require.NoError(t, err)

	b2, err := OpenBacklog(path)
	require.NoError(t, err)
	require.Len(t, b2.Tasks, 1)
	require.Equal(t, "task one", b2.Tasks[0].Prompt)
}

func TestProcessBacklogMovesTasksToDoneOrBlocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backlog.json")
	b, err := OpenBacklog(path)
	require.NoError(t, err)

	_, err = b.Add(BucketTodo, "ship the feature")
	require.NoError(t, err)

	extractor := fakeBackend{response: `[{"claim":"ship the feature","confidence":0.9,"type":"action"}]`}
	results := b.ProcessBacklog(context.Background(), extractor, "extractor-model", []string{"m1", "m2", "m3"})

	require.Len(t, results, 1)
	require.Equal(t, BucketDone, results[0].Task.Bucket)
	require.Equal(t, adjudicator.StatusAdjudicated, results[0].Result.Status)
}

func TestProcessBacklogBlocksOnAllModelsFailed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backlog.json")
	b, err := OpenBacklog(path)
	require.NoError(t, err)
	_, err = b.Add(BucketTodo, "do something")
	require.NoError(t, err)

	results := b.ProcessBacklog(context.Background(), fakeBackend{fail: true}, "extractor-model", []string{"m1"})
	require.Len(t, results, 1)
	require.Equal(t, BucketBlocked, results[0].Task.Bucket)
}
