package groups

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDirectory_ResolvesAndCaches(t *testing.T) {
	calls := 0
	dir := NewDirectory(func(key string) (string, bool) {
		calls++
		if key == "core" {
			return "Core Assets", true
		}
		return "", false
	}, DefaultExpiration)

	require.Equal(t, "Core Assets", dir.GroupName("core"))
	require.Equal(t, "Core Assets", dir.GroupName("core"))
	require.Equal(t, 1, calls, "second lookup is served from the cache")

	require.Equal(t, "missing", dir.GroupName("missing"), "unknown keys fall back to the key")
	require.Equal(t, 2, calls)
}

func TestDirectory_Invalidate(t *testing.T) {
	src := NewMapSource(map[string]string{"core": "Core", "ui": "UI"})
	dir := NewDirectory(src.Lookup, DefaultExpiration)

	require.Equal(t, "Core", dir.GroupName("core"))
	require.Equal(t, "UI", dir.GroupName("ui"))

	src.Set("core", "Core Assets")
	src.Set("ui", "Interface")
	require.Equal(t, "Core", dir.GroupName("core"), "stale until invalidated")

	dir.Invalidate("core")
	require.Equal(t, "Core Assets", dir.GroupName("core"))
	require.Equal(t, "UI", dir.GroupName("ui"))

	dir.Invalidate()
	require.Equal(t, "Interface", dir.GroupName("ui"))
}

func TestDirectory_NilSourceAndDefaultTTL(t *testing.T) {
	dir := NewDirectory(nil, 0)
	require.Equal(t, DefaultExpiration, dir.ttl)
	require.Equal(t, "anything", dir.GroupName("anything"))
}

func TestDirectory_WrongCachedType(t *testing.T) {
	dir := NewDirectory(NewMapSource(map[string]string{"k": "Name"}).Lookup, time.Minute)
	dir.cache.Set("k", 123, time.Minute)

	require.Equal(t, "Name", dir.GroupName("k"))
}

func TestMapSource(t *testing.T) {
	names := map[string]string{"b": "B", "a": "A"}
	src := NewMapSource(names)
	names["c"] = "C"

	require.Equal(t, []string{"a", "b"}, src.Keys(), "input map is copied")

	src.Set("c", "C")
	name, ok := src.Lookup("c")
	require.True(t, ok)
	require.Equal(t, "C", name)

	copied := src.Names()
	copied["a"] = "changed"
	name, _ = src.Lookup("a")
	require.Equal(t, "A", name)
}
