// Package store holds the in-memory, insertion-ordered collection of
// add-on records. It performs no I/O; sources are read by the loader
// collaborators and validated before they reach Load.
package store

import (
	"log/slog"
	"sync"

	"github.com/addonhub/addonhub-backend/internal/models"
)

// EntryStore maps add-on id to its record while preserving the order in
// which ids were first loaded. A later load for an existing id replaces
// the record in place without moving it.
type EntryStore struct {
	mu     sync.RWMutex
	order  []string
	addons map[string]models.Addon
	logger *slog.Logger
}

func New(logger *slog.Logger) *EntryStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &EntryStore{
		addons: make(map[string]models.Addon),
		logger: logger,
	}
}

// Load accepts validated raw entries and constructs or overwrites one
// record per entry. Entries whose platform whitelist excludes platformName
// are skipped. Entries MUST have passed schema validation; Load trusts the
// field types.
func (s *EntryStore) Load(entries []any, platformName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, raw := range entries {
		entry := raw.(map[string]any)
		id := entry["id"].(string)

		if platforms, ok := entry["platforms"].([]any); ok && len(platforms) > 0 {
			supported := false
			for _, p := range platforms {
				if p == platformName {
					supported = true
					break
				}
			}
			if !supported {
				s.logger.Debug("skipping addon: platform not supported",
					"addon", id, "platform", platformName)
				continue
			}
		}

		addon := models.Addon{
			ID:          id,
			Owner:       entry["owner"].(string),
			Assets:      map[string]string{},
			Repository:  id,
			AssetPrefix: "",
		}
		if branch, ok := entry["branch"].(string); ok {
			addon.Branch = branch
		}
		if assets, ok := entry["assets"].(map[string]any); ok {
			for name, target := range assets {
				addon.Assets[name] = target.(string)
			}
		}
		if prefix, ok := entry["asset_prefix"].(string); ok {
			addon.AssetPrefix = prefix
		}
		if repo, ok := entry["repository"].(string); ok {
			addon.Repository = repo
		}

		if _, exists := s.addons[id]; !exists {
			s.order = append(s.order, id)
		}
		s.addons[id] = addon
	}
}

// Clear empties the store. Only used for explicit full reloads.
func (s *EntryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.addons = make(map[string]models.Addon)
}

// Get returns the record for id, if present.
func (s *EntryStore) Get(id string) (models.Addon, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	addon, ok := s.addons[id]
	return addon, ok
}

// Len returns the number of records.
func (s *EntryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.addons)
}

// Addons returns a snapshot of all records in insertion order.
func (s *EntryStore) Addons() []models.Addon {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Addon, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.addons[id])
	}
	return out
}
