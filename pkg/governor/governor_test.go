package governor

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xi-io/xi/pkg/adjudicator"
)

func TestCheckForbidsWriteInPlanMode(t *testing.T) {
	err := Check(Plan, "write")
	require.Error(t, err)
	require.Contains(t, err.Error(), "PLAN mode")
}

func TestCheckForbidsRunInDebugMode(t *testing.T) {
	err := Check(Debug, "run")
	require.Error(t, err)
}

func TestCheckAllowsReadInPlanMode(t *testing.T) {
	require.NoError(t, Check(Plan, "read"))
}

func TestCheckAllowsEverythingInChatMode(t *testing.T) {
	require.NoError(t, Check(Chat, "write"))
	require.NoError(t, Check(Chat, "run"))
}

func TestForcesReceiptModeOnlyInAct(t *testing.T) {
	require.True(t, ForcesReceiptMode(Act))
	require.False(t, ForcesReceiptMode(Chat))
}

func TestRunWargameMatchesExpectedHalts(t *testing.T) {
	reports := RunWargame()
	require.NotEmpty(t, reports)
	for _, r := range reports {
		require.True(t, r.Passed, "%s: got %s want %s", r.Name, r.Status, r.Expected)
		require.Equal(t, adjudicator.StatusHalt, r.Status)
	}
}
