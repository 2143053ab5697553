// Package ledger implements the Hash-Chained Audit Ledger (spec.md
// §4.5): an append-only, hash-chained, atomically written event log
// persisted under the sovereign-state directory.
//
// Grounded on _examples/original_source/ledger_guard.py for the
// backup/restore/atomic-write protocol, and on the teacher's
// pkg/ledger/ledger.go (Mindburn-Labs/helm) for the Go struct shape —
// mutex-guarded in-memory slice plus a running head hash, an injectable
// clock for deterministic tests, and a small typed API surface.
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xi-io/xi/pkg/canon"
)

// Genesis is the sentinel previous-hash value for the first entry in
// a chain, or for the first entry after a truncation/reset.
const Genesis = "GENESIS"

const (
	maxBackups = 10
	capEntries = 1000
)

var ErrChainBroken = errors.New("ledger: hash chain is broken")

// Entry is a single hash-chained record (spec.md §3, §6).
type Entry struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	User      string                 `json:"user"`
	Action    string                 `json:"action"`
	Target    string                 `json:"target"`
	Project   string                 `json:"project"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	ChainHash string                 `json:"chain_hash,omitempty"`
}

// withoutChainHash returns a copy suitable for hashing: chain_hash
// cleared so it is omitted from the canonical-JSON preimage.
func (e Entry) withoutChainHash() Entry {
	e.ChainHash = ""
	return e
}

func chainHash(prev string, e Entry) (string, error) {
	data, err := canon.Marshal(e.withoutChainHash())
	if err != nil {
		return "", fmt.Errorf("ledger: canonicalize entry: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(prev))
	h.Write([]byte(":"))
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Ledger is an append-only, hash-chained, disk-backed log.
type Ledger struct {
	mu         sync.Mutex
	path       string
	backupDir  string
	clock      func() time.Time
	entries    []Entry
	chainReset bool // set when corruption survived an attempted restore
}

// Open loads (or initializes) the ledger at path. A missing file is
// not an error — it starts as an empty chain.
func Open(path string) (*Ledger, error) {
	l := &Ledger{
		path:      path,
		backupDir: filepath.Join(filepath.Dir(path), "ledger_backups"),
		clock:     time.Now,
	}
	if err := os.MkdirAll(l.backupDir, 0o755); err != nil {
		return nil, fmt.Errorf("ledger: create backup dir: %w", err)
	}
	if err := l.load(); err != nil {
		return nil, err
	}
	return l, nil
}

// WithClock overrides the clock used to timestamp entries; for tests.
func (l *Ledger) WithClock(clock func() time.Time) *Ledger {
	l.clock = clock
	return l
}

func (l *Ledger) load() error {
	if _, err := os.Stat(l.path); errors.Is(err, os.ErrNotExist) {
		l.entries = nil
		return nil
	}

	entries, err := readEntries(l.path)
	if err != nil {
		// Corruption: attempt restore-from-backup (spec.md §4.5, §7).
		if restored, ok := l.restoreFromBackup(); ok {
			l.entries = restored
			return nil
		}
		// Restore itself failed: the session continues, but the chain
		// resets to GENESIS starting at the next append (spec.md §7).
		l.entries = nil
		l.chainReset = true
		return nil
	}
	l.entries = entries
	return nil
}

func readEntries(path string) ([]Entry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("ledger: parse %s: %w", path, err)
	}
	return entries, nil
}

// validates that raw bytes parse as a JSON array of entries.
func validate(raw []byte) bool {
	var v []Entry
	return json.Unmarshal(raw, &v) == nil
}

// headHash returns the chain hash to use as "prev" for the next
// append: the last entry's chain hash, or Genesis if empty or the
// chain was reset after unrecoverable corruption.
func (l *Ledger) headHash() string {
	if l.chainReset || len(l.entries) == 0 {
		return Genesis
	}
	last := l.entries[len(l.entries)-1]
	if last.ChainHash == "" {
		return Genesis
	}
	return last.ChainHash
}

// Append adds a new entry and durably persists the ledger. On success
// it returns the entry as written (including its chain_hash).
func (l *Ledger) Append(user, action, target, project string, metadata map[string]interface{}) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := Entry{
		ID:        uuid.NewString(),
		Timestamp: l.clock(),
		User:      user,
		Action:    action,
		Target:    target,
		Project:   project,
		Metadata:  metadata,
	}
	if l.chainReset {
		if entry.Metadata == nil {
			entry.Metadata = map[string]interface{}{}
		}
		entry.Metadata["chain_reset"] = true
	}

	prev := l.headHash()
	hash, err := chainHash(prev, entry)
	if err != nil {
		return Entry{}, err
	}
	entry.ChainHash = hash
	wasReset := l.chainReset
	l.chainReset = false

	before := l.entries
	l.entries = append(l.entries[:len(l.entries):len(l.entries)], entry)
	l.truncate()

	if err := l.safeWrite(); err != nil {
		// Roll back the in-memory append so the caller can retry;
		// safeWrite has already attempted restore-from-backup.
		l.entries = before
		l.chainReset = wasReset
		return Entry{}, err
	}
	return entry, nil
}

// truncate caps the in-memory log at capEntries, rebuilding the chain
// from Genesis for the retained tail (spec.md §3: "truncation
// preserves chain continuity from the oldest retained entry (its prev
// is reset to GENESIS)"). Every retained chain_hash is recomputed
// because each one's original hash baked in a prior-hash that no
// longer exists once the earlier entries are dropped.
func (l *Ledger) truncate() {
	if len(l.entries) <= capEntries {
		return
	}
	retained := append([]Entry(nil), l.entries[len(l.entries)-capEntries:]...)
	prev := Genesis
	for i := range retained {
		h, err := chainHash(prev, retained[i])
		if err != nil {
			// Unreachable for well-formed entries; leave the tail
			// unchained rather than panic mid-append.
			break
		}
		retained[i].ChainHash = h
		prev = h
	}
	l.entries = retained
}

// safeWrite implements the backup-then-atomic-replace-then-verify
// protocol from spec.md §4.5, grounded on
// original_source/ledger_guard.py's safe_write/backup/restore trio.
func (l *Ledger) safeWrite() error {
	l.backup()

	data, err := json.MarshalIndent(l.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("ledger: marshal: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".ledger-*.tmp")
	if err != nil {
		return fmt.Errorf("ledger: create temp: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return l.failAndRestore(fmt.Errorf("ledger: write temp: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		// Some filesystems (notably FUSE/NTFS mounts) don't support
		// fsync; tolerate it silently per spec.md §4.4.3.
		_ = err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return l.failAndRestore(fmt.Errorf("ledger: close temp: %w", err))
	}

	raw, err := os.ReadFile(tmpPath)
	if err != nil || !validate(raw) {
		os.Remove(tmpPath)
		return l.failAndRestore(fmt.Errorf("ledger: temp file failed validation"))
	}

	if err := os.Rename(tmpPath, l.path); err != nil {
		os.Remove(tmpPath)
		return l.failAndRestore(fmt.Errorf("ledger: atomic rename: %w", err))
	}

	final, err := os.ReadFile(l.path)
	if err != nil || !validate(final) {
		return l.failAndRestore(fmt.Errorf("ledger: post-write re-read failed"))
	}
	return nil
}

func (l *Ledger) failAndRestore(cause error) error {
	if restored, ok := l.restoreFromBackup(); ok {
		l.entries = restored
		slog.Warn("ledger: write failed, restored from backup", "path", l.path, "cause", cause)
	} else {
		slog.Error("ledger: write failed and no usable backup was found", "path", l.path, "cause", cause)
	}
	return cause
}

// backup copies the current live ledger to a timestamped file under
// ledger_backups/ and prunes to the most recent maxBackups copies.
func (l *Ledger) backup() {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		return // nothing to back up yet
	}
	name := fmt.Sprintf("ledger_%d.json.bak", l.clock().Unix())
	dest := filepath.Join(l.backupDir, name)
	if err := os.WriteFile(dest, raw, 0o644); err != nil {
		return
	}
	l.rotateBackups()
}

func (l *Ledger) rotateBackups() {
	entries, err := os.ReadDir(l.backupDir)
	if err != nil {
		return
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "ledger_") && strings.HasSuffix(e.Name(), ".json.bak") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for len(names) > maxBackups {
		_ = os.Remove(filepath.Join(l.backupDir, names[0]))
		names = names[1:]
	}
}

// restoreFromBackup tries the newest backup first, skipping any that
// fail to parse, and returns the first one that validates.
func (l *Ledger) restoreFromBackup() ([]Entry, bool) {
	entries, err := os.ReadDir(l.backupDir)
	if err != nil {
		return nil, false
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "ledger_") && strings.HasSuffix(e.Name(), ".json.bak") {
			names = append(names, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	for _, name := range names {
		raw, err := os.ReadFile(filepath.Join(l.backupDir, name))
		if err != nil || !validate(raw) {
			continue
		}
		var out []Entry
		if err := json.Unmarshal(raw, &out); err == nil {
			_ = os.WriteFile(l.path, raw, 0o644)
			return out, true
		}
	}
	return nil, false
}

// VerifyResult is the outcome of VerifyChain (spec.md §4.5).
type VerifyResult struct {
	Valid         bool
	EntriesChecked int
	FirstBroken   *int
	Unchained     int
}

// VerifyChain recomputes each entry's chain_hash from its predecessor
// and reports the first mismatch, if any. Legacy entries with no
// chain_hash are tolerated and counted in Unchained rather than
// treated as breaks.
func (l *Ledger) VerifyChain() VerifyResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) == 0 {
		return VerifyResult{Valid: true}
	}

	prev := Genesis
	unchained := 0
	for i, e := range l.entries {
		if e.ChainHash == "" {
			unchained++
			continue
		}
		expected, err := chainHash(prev, e)
		if err != nil || expected != e.ChainHash {
			idx := i
			slog.Error("ledger: chain verification failed", "path", l.path, "broken_at", idx)
			return VerifyResult{Valid: false, EntriesChecked: i + 1, FirstBroken: &idx, Unchained: unchained}
		}
		prev = e.ChainHash
	}
	return VerifyResult{Valid: true, EntriesChecked: len(l.entries), Unchained: unchained}
}

// Entries returns a copy of the in-memory entry slice.
func (l *Ledger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries currently held.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
