// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"bytes"
	"errors"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/flowcoreio/flowcore/common/log"
	"github.com/flowcoreio/flowcore/common/log/tag"
	"github.com/flowcoreio/flowcore/persistence"
)

// ErrModuleNotFound means no cached candidate exists for an import path.
var ErrModuleNotFound = errors.New("module not found in cache")

// stdlib and runtime import prefixes never hit the cache. The set covers the
// packages workflow code can plausibly import; everything else that is not
// cached falls through to the local filesystem anyway.
var bypassPrefixes = map[string]struct{}{
	"bufio": {}, "bytes": {}, "context": {}, "crypto": {}, "encoding": {},
	"errors": {}, "fmt": {}, "hash": {}, "io": {}, "log": {}, "math": {},
	"net": {}, "os": {}, "path": {}, "reflect": {}, "regexp": {},
	"runtime": {}, "sort": {}, "strconv": {}, "strings": {}, "sync": {},
	"time": {}, "unicode": {}, "unsafe": {},
}

// CacheFS serves module source from the shared module cache, layered in front
// of an optional local filesystem. It is installed as the interpreter's source
// filesystem, so cached modules resolve exactly like files on disk: a cache
// hit wins over a same-named local file, a miss defers silently.
//
// The index of cached paths is fetched lazily and kept process-local; a
// long-lived process calls InvalidateIndex after mutating the cache.
type CacheFS struct {
	cache  persistence.ModuleCache
	local  fs.FS
	logger log.Logger

	mu    sync.Mutex
	index map[string]struct{}

	// guards against a lookup re-entering the cache while a fetch is in
	// flight; each runner goroutine executes one job at a time, so a set
	// flag always belongs to the current resolution
	fetching atomic.Bool
}

// NewCacheFS layers the module cache in front of local. local may be nil,
// in which case a cache miss is a plain not-found.
func NewCacheFS(cache persistence.ModuleCache, local fs.FS, logger log.Logger) *CacheFS {
	return &CacheFS{
		cache:  cache,
		local:  local,
		logger: logger,
	}
}

// PrefetchIndex loads the module index before the filesystem is handed to an
// interpreter, so the first resolution never pays the fetch.
func (c *CacheFS) PrefetchIndex() error {
	_, err := c.snapshotIndex()
	return err
}

// InvalidateIndex drops the process-local index copy; the next lookup
// refetches it.
func (c *CacheFS) InvalidateIndex() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = nil
}

// Resolve maps an import path to the cached file that provides it: `p.go`
// (plain module) is preferred over `p/module.go` (package entry). Returns
// ErrModuleNotFound when neither candidate is cached.
func (c *CacheFS) Resolve(importPath string) (string, error) {
	index, err := c.snapshotIndex()
	if err != nil {
		return "", err
	}
	for _, candidate := range []string{importPath + ".go", path.Join(importPath, "module.go")} {
		if _, ok := index[candidate]; ok {
			return candidate, nil
		}
	}
	return "", ErrModuleNotFound
}

func (c *CacheFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	if isBypassed(name) {
		return c.openLocal(name)
	}
	if !c.fetching.CompareAndSwap(false, true) {
		// nested lookup during a fetch: never recurse into the cache
		return c.openLocal(name)
	}
	defer c.fetching.Store(false)

	index, err := c.snapshotIndex()
	if err != nil {
		// the cache being unreachable must not break local resolution
		return c.openLocal(name)
	}
	if _, ok := index[name]; !ok {
		return c.openLocal(name)
	}
	module, err := c.cache.GetModuleSync(name)
	if err != nil {
		// indexed but content key expired or store hiccup; callers re-cache
		c.logger.Warn("indexed module content unavailable",
			tag.ModulePath(name), tag.Error(err))
		return c.openLocal(name)
	}
	return newMemFile(name, []byte(module.Content)), nil
}

// ReadDir lists cached entries directly under name, merged with the local
// filesystem's listing when one exists.
func (c *CacheFS) ReadDir(name string) ([]fs.DirEntry, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	seen := map[string]fs.DirEntry{}
	if local, ok := c.local.(fs.ReadDirFS); ok {
		if entries, err := local.ReadDir(name); err == nil {
			for _, entry := range entries {
				seen[entry.Name()] = entry
			}
		}
	}
	index, err := c.snapshotIndex()
	if err != nil && len(seen) == 0 {
		return nil, err
	}
	for cached := range index {
		entryName, isDir, ok := childOf(name, cached)
		if !ok {
			continue
		}
		seen[entryName] = memDirEntry{name: entryName, dir: isDir}
	}
	entries := make([]fs.DirEntry, 0, len(seen))
	for _, entry := range seen {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

func (c *CacheFS) snapshotIndex() (map[string]struct{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index != nil {
		return c.index, nil
	}
	paths, err := c.cache.GetAllModulePathsSync()
	if err != nil {
		return nil, err
	}
	index := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		index[p] = struct{}{}
	}
	c.index = index
	return index, nil
}

func (c *CacheFS) openLocal(name string) (fs.File, error) {
	if c.local == nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return c.local.Open(name)
}

func isBypassed(name string) bool {
	first := name
	if i := strings.IndexByte(name, '/'); i >= 0 {
		first = name[:i]
	}
	_, ok := bypassPrefixes[first]
	return ok
}

// childOf reports whether cached is directly under dir, returning the entry
// name and whether it is a subdirectory on that level.
func childOf(dir, cached string) (string, bool, bool) {
	rel := cached
	if dir != "." {
		prefix := dir + "/"
		if !strings.HasPrefix(cached, prefix) {
			return "", false, false
		}
		rel = strings.TrimPrefix(cached, prefix)
	}
	if rel == "" {
		return "", false, false
	}
	if i := strings.IndexByte(rel, '/'); i >= 0 {
		return rel[:i], true, true
	}
	return rel, false, true
}

type memFile struct {
	info   memFileInfo
	reader *bytes.Reader
}

func newMemFile(name string, content []byte) *memFile {
	return &memFile{
		info:   memFileInfo{name: path.Base(name), size: int64(len(content))},
		reader: bytes.NewReader(content),
	}
}

func (f *memFile) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *memFile) Read(p []byte) (int, error) { return f.reader.Read(p) }
func (f *memFile) Close() error               { return nil }

type memFileInfo struct {
	name string
	size int64
}

func (i memFileInfo) Name() string       { return i.name }
func (i memFileInfo) Size() int64        { return i.size }
func (i memFileInfo) Mode() fs.FileMode  { return 0444 }
func (i memFileInfo) ModTime() time.Time { return time.Time{} }
func (i memFileInfo) IsDir() bool        { return false }
func (i memFileInfo) Sys() any           { return nil }

type memDirEntry struct {
	name string
	dir  bool
}

func (e memDirEntry) Name() string { return e.name }
func (e memDirEntry) IsDir() bool  { return e.dir }
func (e memDirEntry) Type() fs.FileMode {
	if e.dir {
		return fs.ModeDir
	}
	return 0
}
func (e memDirEntry) Info() (fs.FileInfo, error) {
	if e.dir {
		return nil, fs.ErrInvalid
	}
	return memFileInfo{name: e.name}, nil
}
