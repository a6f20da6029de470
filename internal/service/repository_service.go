// Package service wires the entry store, the remote client, and the
// aggregation pipeline into one repository service consumed by the HTTP
// handlers.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/addonhub/addonhub-backend/internal/aggregator"
	"github.com/addonhub/addonhub-backend/internal/models"
	"github.com/addonhub/addonhub-backend/internal/platform"
	"github.com/addonhub/addonhub-backend/internal/schema"
	"github.com/addonhub/addonhub-backend/internal/source"
	"github.com/addonhub/addonhub-backend/internal/store"
)

// RepositoryService owns all process-local aggregation state. Multiple
// instances (e.g. in tests) never share caches.
type RepositoryService struct {
	loaders  []source.Loader
	entries  *store.EntryStore
	agg      *aggregator.Aggregator
	platform platform.Platform
	logger   *slog.Logger
}

func NewRepositoryService(loaders []source.Loader, entries *store.EntryStore, agg *aggregator.Aggregator, plat platform.Platform, logger *slog.Logger) *RepositoryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RepositoryService{
		loaders:  loaders,
		entries:  entries,
		agg:      agg,
		platform: plat,
		logger:   logger,
	}
}

// Reload re-reads every entry source in order. Each source is validated
// all-or-nothing before anything is applied, so a malformed source leaves
// the store exactly as it was. Later sources overwrite earlier ones by
// add-on id. Both caches are invalidated after a successful reload.
func (s *RepositoryService) Reload(ctx context.Context, clear bool) error {
	batches := make([][]any, 0, len(s.loaders))
	for _, loader := range s.loaders {
		entries, err := loader.Load(ctx)
		if err != nil {
			return fmt.Errorf("load source %s: %w", loader.Name(), err)
		}
		if err := schema.ValidateEntries(entries); err != nil {
			return fmt.Errorf("validate source %s: %w", loader.Name(), err)
		}
		batches = append(batches, entries)
	}

	if clear {
		s.entries.Clear()
	}
	platformName := s.platform.Name()
	for _, entries := range batches {
		s.entries.Load(entries, platformName)
	}
	s.agg.InvalidateCaches()

	s.logger.Info("entry sources loaded",
		"sources", len(s.loaders), "addons", s.entries.Len(), "platform", platformName)
	return nil
}

// Manifest returns the merged addons.xml document (cached per TTL).
func (s *RepositoryService) Manifest(ctx context.Context) ([]byte, error) {
	return s.agg.BuildManifest(ctx)
}

// Fingerprint returns the hex digest of the current manifest bytes.
func (s *RepositoryService) Fingerprint(ctx context.Context) (string, error) {
	return s.agg.ManifestFingerprint(ctx)
}

// AssetURL resolves the download URL for one asset of one add-on.
// Returns aggregator.ErrUnknownAddon for ids absent from the store.
func (s *RepositoryService) AssetURL(ctx context.Context, addonID, asset string) (string, error) {
	return s.agg.ResolveAssetURL(ctx, addonID, asset)
}

// Addons returns the loaded records in store order.
func (s *RepositoryService) Addons() []models.Addon {
	return s.entries.Addons()
}

// InvalidateCaches drops the manifest and release caches without touching
// the entry store.
func (s *RepositoryService) InvalidateCaches() {
	s.agg.InvalidateCaches()
}
