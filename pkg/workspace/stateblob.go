package workspace

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const fileListCap = 100

// StateBlob is the deterministic, model-free snapshot of a workspace
// the classifier's local answers are computed from (spec.md §4.9).
// Field names and the 100-file cap with its "... and N more" sentinel,
// plus the first-16-hex-chars sha256 fingerprint, reproduce
// get_state_blob() exactly rather than inventing a new shape.
type StateBlob struct {
	CWD       string   `json:"cwd"`
	Project   string   `json:"project"`
	Version   string   `json:"version"`
	FileCount int      `json:"file_count"`
	FileList  []string `json:"file_list"`
	Model     string   `json:"model"`
	SHA256    string   `json:"sha256"`
}

// BuildStateBlob observes workingDir and computes its fingerprint.
// version and model are supplied by the caller (the CLI's build
// metadata and the active model route, respectively) since this
// package has no knowledge of either.
func BuildStateBlob(workingDir, version, model string) (StateBlob, error) {
	wd, err := filepath.Abs(workingDir)
	if err != nil {
		return StateBlob{}, err
	}
	if resolved, err := filepath.EvalSymlinks(wd); err == nil {
		wd = resolved
	}

	var files []string
	fileCount := 0
	if entries, err := os.ReadDir(wd); err == nil {
		for _, e := range entries {
			if e.Type().IsRegular() {
				files = append(files, e.Name())
			}
		}
		sort.Strings(files)
		fileCount = len(files)
	}

	fileList := files
	if len(files) > fileListCap {
		fileList = append(append([]string(nil), files[:fileListCap]...),
			fmt.Sprintf("... and %d more", len(files)-fileListCap))
	}

	blob := StateBlob{
		CWD:       wd,
		Project:   filepath.Base(wd),
		Version:   version,
		FileCount: fileCount,
		FileList:  fileList,
		Model:     model,
	}
	blob.SHA256 = fingerprint(blob)
	return blob, nil
}

// fingerprint takes sha256(...)[:16] of the encoding/json rendering
// (struct field order, not sorted keys) of the struct as it exists
// before SHA256 is populated — mirroring the Python original, which
// hashes the dict before adding the digest key.
func fingerprint(blob StateBlob) string {
	blob.SHA256 = ""
	data, err := json.Marshal(blob)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:16]
}
