package workspace

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// CheckMinVersion reports whether binaryVersion satisfies a
// workspace's declared minimum-version constraint (e.g. a
// `.xi/config.yaml` entry like `min_version: ">=1.2.0"`). An empty
// constraint always passes — most workspaces declare none.
func CheckMinVersion(binaryVersion, constraint string) error {
	if constraint == "" {
		return nil
	}
	v, err := semver.NewVersion(binaryVersion)
	if err != nil {
		return fmt.Errorf("workspace: invalid binary version %q: %w", binaryVersion, err)
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("workspace: invalid min_version constraint %q: %w", constraint, err)
	}
	if !c.Check(v) {
		return fmt.Errorf("workspace: binary version %s does not satisfy %s", binaryVersion, constraint)
	}
	return nil
}
