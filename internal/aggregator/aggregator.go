// Package aggregator implements the fetch-merge pipeline: it pulls every
// add-on's metadata document from its remote host with a bounded worker
// pool, merges the successful fragments into one addons.xml manifest, and
// memoizes the result for the configured TTL.
package aggregator

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/beevik/etree"
	"golang.org/x/sync/errgroup"

	"github.com/addonhub/addonhub-backend/internal/cache"
	"github.com/addonhub/addonhub-backend/internal/github"
	"github.com/addonhub/addonhub-backend/internal/metrics"
	"github.com/addonhub/addonhub-backend/internal/models"
	"github.com/addonhub/addonhub-backend/internal/platform"
	"github.com/addonhub/addonhub-backend/internal/store"
)

const manifestKey = "addons.xml"

// Aggregator owns the manifest cache and drives the concurrent metadata
// fetches. One instance per entry store; caches are instance state, never
// process-wide.
type Aggregator struct {
	store       *store.EntryStore
	client      *github.Client
	platform    platform.Platform
	maxParallel int
	manifest    *cache.Memo[[]byte]
	logger      *slog.Logger
}

func New(entries *store.EntryStore, client *github.Client, plat platform.Platform, maxParallel int, manifestTTL time.Duration, logger *slog.Logger) *Aggregator {
	if maxParallel <= 0 {
		maxParallel = 5
	}
	if manifestTTL <= 0 {
		manifestTTL = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		store:       entries,
		client:      client,
		platform:    plat,
		maxParallel: maxParallel,
		manifest:    cache.New[[]byte](1, manifestTTL),
		logger:      logger,
	}
}

// BuildManifest returns the merged manifest, serving it from the TTL
// cache when a fresh copy exists. Repeated calls inside the TTL window
// incur no network traffic. A dispatched build runs to completion even
// when the requesting caller goes away; the memo detaches it from the
// caller's context.
func (a *Aggregator) BuildManifest(ctx context.Context) ([]byte, error) {
	manifest, cached, err := a.manifest.Do(ctx, manifestKey, a.buildManifest)
	if cached {
		metrics.ManifestCacheHitsTotal.Inc()
	}
	return manifest, err
}

// buildManifest runs the actual pipeline. Individual fetch failures are
// logged and skipped; they never abort the batch.
func (a *Aggregator) buildManifest(ctx context.Context) ([]byte, error) {
	start := time.Now()
	defer func() {
		metrics.ManifestBuildDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	addons := a.store.Addons()
	fragments := make([]*etree.Element, len(addons))

	workers := a.maxParallel
	if len(addons) < workers {
		workers = len(addons)
	}

	if workers <= 1 {
		for i := range addons {
			fragments[i] = a.fetchFragment(ctx, addons[i])
		}
	} else {
		// Fragments are assigned by original index so the merged output
		// keeps entry-store order no matter which fetch finishes first.
		g := new(errgroup.Group)
		g.SetLimit(workers)
		for i := range addons {
			g.Go(func() error {
				fragments[i] = a.fetchFragment(ctx, addons[i])
				return nil
			})
		}
		g.Wait()
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("addons")
	merged := 0
	for _, fragment := range fragments {
		if fragment != nil {
			root.AddChild(fragment)
			merged++
		}
	}

	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serialize manifest: %w", err)
	}
	a.logger.Info("manifest built",
		"addons", len(addons), "merged", merged,
		"duration_ms", time.Since(start).Milliseconds())
	return out, nil
}

// fetchFragment resolves the branch, fetches and parses one add-on's
// metadata document. Returns nil on any failure.
func (a *Aggregator) fetchFragment(ctx context.Context, addon models.Addon) *etree.Element {
	branch, err := a.client.ResolveBranch(ctx, addon)
	if err != nil {
		a.fetchFailed(addon.ID, err)
		return nil
	}
	url := a.client.MetadataURL(addon, branch)
	body, err := a.client.Fetch(ctx, url)
	if err != nil {
		a.fetchFailed(addon.ID, err)
		return nil
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		a.fetchFailed(addon.ID, fmt.Errorf("parse metadata document: %w", err))
		return nil
	}
	root := doc.Root()
	if root == nil {
		a.fetchFailed(addon.ID, fmt.Errorf("empty metadata document"))
		return nil
	}
	return root.Copy()
}

func (a *Aggregator) fetchFailed(addonID string, err error) {
	a.logger.Error("failed getting addon metadata", "addon", addonID, "error", err)
	metrics.AddonFetchFailuresTotal.WithLabelValues(addonID).Inc()
}

// ManifestFingerprint returns the lower-case hex md5 digest of the
// manifest bytes. md5 here is the addons.xml.md5 change-detection
// convention, not a security boundary.
func (a *Aggregator) ManifestFingerprint(ctx context.Context) (string, error) {
	manifest, err := a.BuildManifest(ctx)
	if err != nil {
		return "", err
	}
	sum := md5.Sum(manifest)
	return hex.EncodeToString(sum[:]), nil
}

// InvalidateCaches drops the manifest and every cached release lookup in
// one step. They must go together: a manifest built against an old cached
// branch would be stale relative to a fresh release lookup.
func (a *Aggregator) InvalidateCaches() {
	a.manifest.Invalidate()
	a.client.InvalidateReleases()
}
