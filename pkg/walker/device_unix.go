//go:build unix

package walker

import (
	"os"
	"syscall"
)

// deviceID extracts the filesystem device number so the walker can
// refuse to cross mount points, matching os.stat().st_dev in the
// original implementation.
func deviceID(info os.FileInfo) uint64 {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return uint64(st.Dev)
	}
	return 0
}
