// Package groups resolves asset group keys to their display names.
package groups

import (
	"sort"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/zjrosen/rulebook/internal/log"
)

const (
	DefaultExpiration      = 10 * time.Minute
	DefaultCleanupInterval = 30 * time.Minute
)

// Source looks up the display name of a group key.
type Source func(key string) (name string, ok bool)

// Directory is a read-through cache in front of a Source.
// Unknown keys resolve to the key itself so descriptions stay readable
// when a rule references a group that has since been removed.
type Directory struct {
	source Source
	cache  *gocache.Cache
	ttl    time.Duration
}

// NewDirectory creates a directory over source with the given entry TTL.
func NewDirectory(source Source, ttl time.Duration) *Directory {
	if ttl <= 0 {
		ttl = DefaultExpiration
	}
	return &Directory{
		source: source,
		cache:  gocache.New(ttl, DefaultCleanupInterval),
		ttl:    ttl,
	}
}

// GroupName implements rules.GroupResolver.
func (d *Directory) GroupName(key string) string {
	if value, found := d.cache.Get(key); found {
		if name, ok := value.(string); ok {
			log.Debug(log.CatCache, "cache hit", "key", key)
			return name
		}
		log.Error(log.CatCache, "wrong type assertion when getting value", "key", key)
	}

	name := key
	if d.source != nil {
		if resolved, ok := d.source(key); ok && resolved != "" {
			name = resolved
		}
	}
	d.cache.Set(key, name, d.ttl)
	return name
}

// Invalidate drops cached names so the next lookup reads the source.
// With no keys the whole cache is flushed.
func (d *Directory) Invalidate(keys ...string) {
	if len(keys) == 0 {
		d.cache.Flush()
		return
	}
	for _, key := range keys {
		d.cache.Delete(key)
	}
}

// MapSource serves names from a mutable map, typically the `groups`
// section of the config file.
type MapSource struct {
	mu    sync.RWMutex
	names map[string]string
}

// NewMapSource copies names into a new MapSource.
func NewMapSource(names map[string]string) *MapSource {
	m := &MapSource{names: make(map[string]string, len(names))}
	for k, v := range names {
		m.names[k] = v
	}
	return m
}

// Lookup implements Source. Keys loaded through viper arrive lowercased,
// so a miss retries with the lowercased key.
func (m *MapSource) Lookup(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if name, ok := m.names[key]; ok {
		return name, true
	}
	name, ok := m.names[strings.ToLower(key)]
	return name, ok
}

// Set changes one display name.
func (m *MapSource) Set(key, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names[key] = name
}

// Keys returns the known group keys, sorted.
func (m *MapSource) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.names))
	for k := range m.names {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Names returns a copy of all key to name pairs.
func (m *MapSource) Names() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.names))
	for k, v := range m.names {
		out[k] = v
	}
	return out
}
