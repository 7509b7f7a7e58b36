// Package cache keeps served resources in memory so each file is read
// from disk once while it stays resident. Entries are bounded by a byte
// budget and evicted least-recently-used.
package cache

import (
	"container/list"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// NotFoundKey names the page served when a resource does not exist. The
// cache pins it at startup; fetching it directly still reports a miss so
// the caller answers with 404.
const NotFoundKey = "/site_not_found.html"

var defaultNotFound = []byte(`<!DOCTYPE html>
<html>
<head><title>404 Not Found</title></head>
<body><h1>404 Not Found</h1><p>The requested resource does not exist.</p></body>
</html>
`)

var errMiss = errors.New("resource missing")

// Filesystem is the read side of the resource root. OS serves production;
// tests swap in a stub to count reads.
type Filesystem interface {
	Exists(path string) bool
	ReadAll(path string) ([]byte, error)
}

// OS reads resources from the local filesystem.
type OS struct{}

func (OS) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (OS) ReadAll(path string) ([]byte, error) {
	return os.ReadFile(path)
}

type entry struct {
	key     string
	content []byte
}

// Cache resolves resource keys to file contents under a root directory.
// Concurrent fetches of the same absent key collapse into a single disk
// read. Misses are never cached.
type Cache struct {
	fs       Filesystem
	root     string
	maxBytes int64
	notFound []byte
	log      zerolog.Logger

	group singleflight.Group

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List
	bytes   int64
}

// New builds a cache over root with a byte budget. The not-found page is
// loaded from root at NotFoundKey, falling back to a built-in page, and
// is pinned outside the budget. A non-positive budget disables caching:
// every fetch reads through to the filesystem.
func New(root string, maxBytes int64, fs Filesystem, log zerolog.Logger) *Cache {
	c := &Cache{
		fs:       fs,
		root:     root,
		maxBytes: maxBytes,
		notFound: defaultNotFound,
		log:      log,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
	path := c.path(NotFoundKey)
	if fs.Exists(path) {
		if content, err := fs.ReadAll(path); err == nil && len(content) > 0 {
			c.notFound = content
			log.Debug().Str("path", path).Msg("not-found page loaded from disk")
		}
	}
	return c
}

// SafeKey reports whether key may be resolved against the resource root.
// Keys must be rooted and must not climb out with "..".
func SafeKey(key string) bool {
	return key != "" && strings.HasPrefix(key, "/") && !strings.Contains(key, "..")
}

// NotFound returns the pinned not-found page.
func (c *Cache) NotFound() []byte {
	return c.notFound
}

// Fetch returns the content for key and whether the resource exists.
// When it does not, the not-found page is returned in its place. The
// returned slice is shared; callers must not modify it.
func (c *Cache) Fetch(key string) ([]byte, bool) {
	if key == "" || key == NotFoundKey {
		return c.notFound, false
	}
	if !SafeKey(key) {
		c.log.Debug().Str("key", key).Msg("refusing unsafe resource key")
		return c.notFound, false
	}
	if content, ok := c.lookup(key); ok {
		return content, true
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		// Another flight may have finished between our lookup and now.
		if content, ok := c.lookup(key); ok {
			return content, nil
		}
		path := c.path(key)
		if !c.fs.Exists(path) {
			return nil, errMiss
		}
		content, err := c.fs.ReadAll(path)
		if err != nil {
			c.log.Warn().Err(err).Str("path", path).Msg("read resource")
			return nil, errMiss
		}
		if len(content) == 0 {
			return nil, errMiss
		}
		c.insert(key, content)
		return content, nil
	})
	if err != nil {
		return c.notFound, false
	}
	return v.([]byte), true
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.root, key)
}

func (c *Cache) lookup(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*entry).content, true
}

func (c *Cache) insert(key string, content []byte) {
	size := int64(len(content))
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		return
	}
	if size > c.maxBytes {
		c.log.Debug().Str("key", key).Int64("size", size).Msg("resource exceeds cache budget, serving uncached")
		return
	}
	for c.bytes+size > c.maxBytes {
		back := c.order.Back()
		if back == nil {
			break
		}
		evicted := c.order.Remove(back).(*entry)
		delete(c.entries, evicted.key)
		c.bytes -= int64(len(evicted.content))
		c.log.Debug().Str("key", evicted.key).Msg("evicted resource")
	}
	c.entries[key] = c.order.PushFront(&entry{key: key, content: content})
	c.bytes += size
}
