package workspace

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckMinVersionEmptyConstraintPasses(t *testing.T) {
	require.NoError(t, CheckMinVersion("1.0.0", ""))
}

func TestCheckMinVersionSatisfied(t *testing.T) {
	require.NoError(t, CheckMinVersion("1.4.2", ">=1.2.0"))
}

func TestCheckMinVersionViolated(t *testing.T) {
	require.Error(t, CheckMinVersion("1.0.0", ">=1.2.0"))
}

func TestCheckMinVersionInvalidConstraint(t *testing.T) {
	require.Error(t, CheckMinVersion("1.0.0", "not-a-constraint"))
}
