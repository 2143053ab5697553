package classifier

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func TestClassifyStaticPhrases(t *testing.T) {
	require.Equal(t, StaticState, Classify("where am I").Class)
	require.Equal(t, StaticState, Classify("what version is this?").Class)
}

func TestClassifyCountWithExtensionIsComputed(t *testing.T) {
	r := Classify("how many python files are there")
	require.Equal(t, ComputedState, r.Class)
	require.Equal(t, []string{".py"}, r.Exts)
	require.Equal(t, "local", r.Scope)
}

func TestClassifyRecursiveCountIsComputed(t *testing.T) {
	r := Classify("count all files recursively")
	require.Equal(t, ComputedState, r.Class)
	require.Equal(t, "recursive", r.Scope)
}

func TestClassifyBareCountIsStatic(t *testing.T) {
	r := Classify("how many files are in this directory")
	require.Equal(t, StaticState, r.Class)
}

func TestClassifyExclusionForcesReasoning(t *testing.T) {
	r := Classify("how many files excluding the build directory")
	require.Equal(t, Reasoning, r.Class)
	require.Equal(t, "complex_intent_exclusions", r.Reason)
}

func TestClassifyHiddenAlias(t *testing.T) {
	r := Classify("how many hidden files are there")
	require.Equal(t, ComputedState, r.Class)
	require.Contains(t, r.Exts, HiddenSentinel)
}

func TestClassifyDefaultsToReasoning(t *testing.T) {
	r := Classify("refactor the adjudicator to use a worker pool")
	require.Equal(t, Reasoning, r.Class)
}

func TestClassifyIsIdempotentUnderRefold(t *testing.T) {
	params := gopter.DefaultTestParameters()
	props := gopter.NewProperties(params)

	props.Property("classifying already-folded text twice agrees", prop.ForAll(
		func(s string) bool {
			first := Classify(s)
			second := Classify(fold(s))
			return first.Class == second.Class
		},
		gen.OneConstOf(
			"how many python files",
			"where am I",
			"count all files recursively",
			"how many files excluding node_modules",
			"WHERE AM I",
			"How Many JS Files",
		),
	))

	props.TestingRun(t)
}
