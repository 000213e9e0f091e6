package runner

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"sync"
)

// StaleTracker remembers per-file checksums recorded after successful runs.
// A file is stale when its current checksum differs from the recorded one,
// or when it was never recorded. It is thread-safe.
type StaleTracker struct {
	mu    sync.RWMutex
	store map[string]string
}

// NewStaleTracker creates an empty tracker: every file starts stale.
func NewStaleTracker() *StaleTracker {
	return &StaleTracker{
		store: make(map[string]string),
	}
}

// Stale filters paths down to the ones that changed since they were last
// recorded. Unreadable files are kept; the run that follows surfaces the
// real error.
func (t *StaleTracker) Stale(paths []string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var stale []string
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			stale = append(stale, path)
			continue
		}
		if recorded, ok := t.store[path]; !ok || recorded != checksum(data) {
			stale = append(stale, path)
		}
	}
	return stale
}

// Record stores the current checksum for each path. Called only after a
// successful run, so failing files stay stale.
func (t *StaleTracker) Record(paths []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		t.store[path] = checksum(data)
	}
	return nil
}

// Clear forgets all recorded checksums.
func (t *StaleTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.store = make(map[string]string)
}

func checksum(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
