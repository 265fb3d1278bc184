package scan

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hookguard/hookguard/internal/logging"
)

// cacheEntry is one file's cached metadata, grounded on the teacher's
// CacheEntry (internal/world/cache.go).
type cacheEntry struct {
	Hash    string `json:"hash"`
	ModTime int64  `json:"mod_time"`
	Size    int64  `json:"size"`
}

// cacheFile is the on-disk shape of .claude_project_cache.json, per
// the contract's "Project cache file" entry.
type cacheFile struct {
	Entries   map[string]cacheEntry `json:"entries"`
	Timestamp string                `json:"timestamp"`
}

// Cache avoids re-hashing unchanged files across runs. A single
// changed-file counter tracks whether enough files changed this run
// to warrant the caller forcing a full rescan on the next one (the
// contract's "≥10 files changed" threshold); NeedsFullRescan reports
// that threshold, and acting on it is left to the caller.
type Cache struct {
	mu      sync.Mutex
	path    string
	lockID  string
	entries map[string]cacheEntry
	dirty   bool
	changed int
}

// changedCountThreshold is the contract's full-rescan trigger.
const changedCountThreshold = 10

// LoadCache reads .claude_project_cache.json under root if present and
// parseable; a missing or corrupt cache is silently treated as empty.
func LoadCache(root string) *Cache {
	c := &Cache{
		path:    filepath.Join(root, ".claude_project_cache.json"),
		lockID:  uuid.NewString(),
		entries: make(map[string]cacheEntry),
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return c
	}
	var cf cacheFile
	if err := json.Unmarshal(data, &cf); err != nil {
		logging.Warnf(logging.CategoryScan, "corrupt project cache, ignoring: %v", err)
		return c
	}
	c.entries = cf.Entries
	if c.entries == nil {
		c.entries = make(map[string]cacheEntry)
	}
	return c
}

// Get returns the cached hash for rel if info's mtime/size still match.
func (c *Cache) Get(rel string, info os.FileInfo) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[rel]
	if !ok {
		return "", false
	}
	if e.ModTime == info.ModTime().Unix() && e.Size == info.Size() {
		return e.Hash, true
	}
	return "", false
}

// Put records a freshly computed hash and counts it as a change
// against the full-rescan threshold.
func (c *Cache) Put(rel string, info os.FileInfo, hash string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev, existed := c.entries[rel]
	if !existed || prev.Hash != hash {
		c.changed++
	}
	c.entries[rel] = cacheEntry{Hash: hash, ModTime: info.ModTime().Unix(), Size: info.Size()}
	c.dirty = true
}

// NeedsFullRescan reports whether enough files changed this run that
// the caller should discard cache reuse entirely on the next scan.
func (c *Cache) NeedsFullRescan() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.changed >= changedCountThreshold
}

// Save writes the cache to disk if dirty, guarded by a sibling lock
// file carrying this Cache instance's uuid so a concurrent writer can
// be detected. On contention the writer yields: this write is
// discarded rather than retried, since correctness never depends on
// the cache (last-writer-wins is acceptable per the contract).
func (c *Cache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}

	lockPath := c.path + ".lock"
	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		// Another writer holds the lock; yield and discard this write.
		return nil
	}
	_, _ = lockFile.WriteString(c.lockID)
	_ = lockFile.Close()
	defer os.Remove(lockPath)

	cf := cacheFile{Entries: c.entries, Timestamp: time.Now().UTC().Format(time.RFC3339)}
	data, err := json.MarshalIndent(cf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0o644)
}
