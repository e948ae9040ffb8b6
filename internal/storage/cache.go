package storage

import (
	"container/list"
	"os"
	"sync"
	"time"

	"github.com/trovekit/trove/pkg/models"
)

// itemCacheSize bounds the in-memory load cache.
const itemCacheSize = 2000

type cacheEntry struct {
	path    string
	item    models.Item
	modTime time.Time
	elem    *list.Element
}

// mtimeCache is an LRU cache of loaded items keyed by absolute path. An
// entry is valid only while the file's mtime is unchanged, so a write via
// any path invalidates stale reads on the next lookup.
type mtimeCache struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]*cacheEntry
	order   *list.List
}

func newMtimeCache(maxSize int) *mtimeCache {
	return &mtimeCache{
		maxSize: maxSize,
		entries: make(map[string]*cacheEntry),
		order:   list.New(),
	}
}

// Read returns the cached item for path if the file has not been modified
// since it was cached.
func (c *mtimeCache) Read(path string) (models.Item, bool) {
	info, err := os.Stat(path)
	if err != nil {
		c.Delete(path)
		return models.Item{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[path]
	if !ok {
		return models.Item{}, false
	}
	if !entry.modTime.Equal(info.ModTime()) {
		c.removeLocked(entry)
		return models.Item{}, false
	}
	c.order.MoveToFront(entry.elem)
	return entry.item, true
}

// Update caches an item for path, recording the file's current mtime.
func (c *mtimeCache) Update(path string, item models.Item) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[path]; ok {
		entry.item = item
		entry.modTime = info.ModTime()
		c.order.MoveToFront(entry.elem)
		return
	}

	entry := &cacheEntry{path: path, item: item, modTime: info.ModTime()}
	entry.elem = c.order.PushFront(entry)
	c.entries[path] = entry

	for c.order.Len() > c.maxSize {
		oldest := c.order.Back()
		c.removeLocked(oldest.Value.(*cacheEntry))
	}
}

// Delete drops the cache entry for path.
func (c *mtimeCache) Delete(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[path]; ok {
		c.removeLocked(entry)
	}
}

func (c *mtimeCache) removeLocked(entry *cacheEntry) {
	c.order.Remove(entry.elem)
	delete(c.entries, entry.path)
}

func (c *mtimeCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// WarmCache pre-reads every item in the store on a background goroutine
// so interactive commands hit the cache. Best effort: per-item errors are
// swallowed and the walk never blocks the caller.
func (fs *FileStore) WarmCache() {
	go func() {
		_ = fs.WalkItems("", func(storePath models.StorePath) error {
			_, _ = fs.Load(storePath)
			return nil
		})
	}()
}
