//go:build !unix

package walker

import "os"

// deviceID has no portable equivalent outside unix; treating every
// path as the same device disables the one-filesystem guard rather
// than mis-prune a legitimate subtree.
func deviceID(info os.FileInfo) uint64 {
	return 0
}
