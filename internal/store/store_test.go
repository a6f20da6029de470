package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func entry(id, owner string, extra map[string]any) map[string]any {
	e := map[string]any{"id": id, "owner": owner}
	for k, v := range extra {
		e[k] = v
	}
	return e
}

func TestLoad_Defaults(t *testing.T) {
	s := New(nil)
	s.Load([]any{entry("foo", "alice", nil)}, "linux_x86_64")

	addon, ok := s.Get("foo")
	assert.True(t, ok)
	assert.Equal(t, "foo", addon.ID)
	assert.Equal(t, "alice", addon.Owner)
	assert.Equal(t, "foo", addon.Repository, "repository defaults to id")
	assert.Equal(t, "", addon.Branch)
	assert.Equal(t, "", addon.AssetPrefix)
	assert.Empty(t, addon.Assets)
}

func TestLoad_AllFields(t *testing.T) {
	s := New(nil)
	s.Load([]any{entry("foo", "alice", map[string]any{
		"branch":       "v2",
		"repository":   "foo-repo",
		"asset_prefix": "dist/",
		"assets":       map[string]any{"icon.png": "art/icon.png"},
	})}, "linux_x86_64")

	addon, _ := s.Get("foo")
	assert.Equal(t, "v2", addon.Branch)
	assert.Equal(t, "foo-repo", addon.Repository)
	assert.Equal(t, "dist/", addon.AssetPrefix)
	assert.Equal(t, map[string]string{"icon.png": "art/icon.png"}, addon.Assets)
}

func TestLoad_OverwriteById(t *testing.T) {
	s := New(nil)
	s.Load([]any{entry("foo", "alice", nil)}, "linux_x86_64")
	s.Load([]any{entry("foo", "bob", map[string]any{"branch": "main"})}, "linux_x86_64")

	assert.Equal(t, 1, s.Len(), "later load replaces, never duplicates")
	addon, _ := s.Get("foo")
	assert.Equal(t, "bob", addon.Owner)
	assert.Equal(t, "main", addon.Branch)
}

func TestLoad_OverwriteKeepsPosition(t *testing.T) {
	s := New(nil)
	s.Load([]any{
		entry("a", "x", nil),
		entry("b", "x", nil),
		entry("c", "x", nil),
	}, "linux_x86_64")
	s.Load([]any{entry("b", "y", nil)}, "linux_x86_64")

	addons := s.Addons()
	ids := []string{addons[0].ID, addons[1].ID, addons[2].ID}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
	assert.Equal(t, "y", addons[1].Owner)
}

func TestLoad_PlatformWhitelist(t *testing.T) {
	entries := []any{
		entry("everywhere", "x", nil),
		entry("linux-only", "x", map[string]any{"platforms": []any{"linux_x86_64"}}),
		entry("windows-only", "x", map[string]any{"platforms": []any{"windows_x86"}}),
		entry("empty-list", "x", map[string]any{"platforms": []any{}}),
	}

	s := New(nil)
	s.Load(entries, "linux_x86_64")

	_, ok := s.Get("everywhere")
	assert.True(t, ok, "entry without whitelist loads on every platform")
	_, ok = s.Get("linux-only")
	assert.True(t, ok)
	_, ok = s.Get("windows-only")
	assert.False(t, ok, "whitelist excluding the platform is never loaded")
	_, ok = s.Get("empty-list")
	assert.True(t, ok, "empty whitelist means no restriction")
}

func TestClear(t *testing.T) {
	s := New(nil)
	s.Load([]any{entry("foo", "alice", nil)}, "linux_x86_64")
	s.Clear()

	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Addons())

	// Loading again after clear starts a fresh order.
	s.Load([]any{entry("bar", "bob", nil)}, "linux_x86_64")
	addons := s.Addons()
	assert.Len(t, addons, 1)
	assert.Equal(t, "bar", addons[0].ID)
}
