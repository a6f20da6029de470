package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/addonhub/addonhub-backend/internal/aggregator"
	"github.com/addonhub/addonhub-backend/internal/github"
	"github.com/addonhub/addonhub-backend/internal/platform"
	"github.com/addonhub/addonhub-backend/internal/schema"
	"github.com/addonhub/addonhub-backend/internal/source"
	"github.com/addonhub/addonhub-backend/internal/store"
)

type fakeLoader struct {
	name    string
	entries []any
	err     error
}

func (f fakeLoader) Name() string { return f.name }

func (f fakeLoader) Load(ctx context.Context) ([]any, error) {
	return f.entries, f.err
}

func newService(loaders ...source.Loader) (*RepositoryService, *store.EntryStore) {
	plat := platform.Platform{System: "linux", Arch: "x86_64"}
	client := github.NewClient(github.Options{Timeout: 200 * time.Millisecond})
	entries := store.New(nil)
	agg := aggregator.New(entries, client, plat, 2, time.Hour, nil)
	return NewRepositoryService(loaders, entries, agg, plat, nil), entries
}

func TestReload_LaterSourceWins(t *testing.T) {
	first := fakeLoader{name: "first", entries: []any{
		map[string]any{"id": "foo", "owner": "alice"},
		map[string]any{"id": "bar", "owner": "alice"},
	}}
	second := fakeLoader{name: "second", entries: []any{
		map[string]any{"id": "foo", "owner": "bob", "branch": "main"},
	}}

	svc, entries := newService(first, second)
	require.NoError(t, svc.Reload(context.Background(), false))

	assert.Equal(t, 2, entries.Len())
	foo, _ := entries.Get("foo")
	assert.Equal(t, "bob", foo.Owner, "source order determines precedence, later wins")
}

func TestReload_SchemaErrorLeavesStoreUntouched(t *testing.T) {
	good := fakeLoader{name: "good", entries: []any{
		map[string]any{"id": "foo", "owner": "alice"},
	}}
	svc, entries := newService(good)
	require.NoError(t, svc.Reload(context.Background(), false))
	require.Equal(t, 1, entries.Len())

	bad := fakeLoader{name: "bad", entries: []any{
		map[string]any{"id": "new", "owner": "x"},
		map[string]any{"owner": "missing-id"},
	}}
	svc2 := NewRepositoryService([]source.Loader{bad}, entries, aggregatorFor(entries), platform.Platform{System: "linux", Arch: "x86_64"}, nil)

	err := svc2.Reload(context.Background(), false)
	require.Error(t, err)
	var schemaErr *schema.Error
	assert.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, 1, entries.Len(), "a malformed source must not corrupt existing state")
	_, ok := entries.Get("new")
	assert.False(t, ok, "no partial acceptance within one malformed source")
}

func TestReload_LoaderErrorPropagates(t *testing.T) {
	failing := fakeLoader{name: "down", err: errors.New("connection refused")}
	svc, entries := newService(failing)

	err := svc.Reload(context.Background(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "down")
	assert.Equal(t, 0, entries.Len())
}

func TestReload_ClearEmptiesStoreFirst(t *testing.T) {
	first := fakeLoader{name: "first", entries: []any{
		map[string]any{"id": "old", "owner": "alice"},
	}}
	svc, entries := newService(first)
	require.NoError(t, svc.Reload(context.Background(), false))

	replacement := fakeLoader{name: "replacement", entries: []any{
		map[string]any{"id": "fresh", "owner": "bob"},
	}}
	svc2 := NewRepositoryService([]source.Loader{replacement}, entries, aggregatorFor(entries), platform.Platform{System: "linux", Arch: "x86_64"}, nil)
	require.NoError(t, svc2.Reload(context.Background(), true))

	assert.Equal(t, 1, entries.Len())
	_, ok := entries.Get("old")
	assert.False(t, ok)
	_, ok = entries.Get("fresh")
	assert.True(t, ok)
}

func aggregatorFor(entries *store.EntryStore) *aggregator.Aggregator {
	plat := platform.Platform{System: "linux", Arch: "x86_64"}
	client := github.NewClient(github.Options{Timeout: 200 * time.Millisecond})
	return aggregator.New(entries, client, plat, 2, time.Hour, nil)
}

func TestReload_PlatformFilterApplied(t *testing.T) {
	loader := fakeLoader{name: "mixed", entries: []any{
		map[string]any{"id": "everywhere", "owner": "x"},
		map[string]any{"id": "other-os", "owner": "x", "platforms": []any{"windows_x86"}},
	}}
	svc, entries := newService(loader)
	require.NoError(t, svc.Reload(context.Background(), false))

	assert.Equal(t, 1, entries.Len())
	_, ok := entries.Get("everywhere")
	assert.True(t, ok)
}
