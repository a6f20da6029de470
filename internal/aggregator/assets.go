package aggregator

import (
	"context"
	"errors"
	"strings"

	"github.com/addonhub/addonhub-backend/internal/github"
)

const (
	archiveExtension = ".zip"
	versionSeparator = "-"

	// archiveAssetKey is the override-map key consulted for versioned
	// source-archive requests.
	archiveAssetKey = "zip"
)

// ErrUnknownAddon is returned when asset resolution is requested for an
// id absent from the store. Callers commonly probe for assets that may
// not exist, so this maps to "absent", not a failure.
var ErrUnknownAddon = errors.New("unknown addon")

// ResolveAssetURL produces the fully-qualified download URL for one asset
// of one add-on. Asset names shaped like "<id>-<version>.zip" are treated
// as requests for the whole-repository source archive at that version;
// anything else resolves under the content base with the add-on's asset
// prefix. An entry in the add-on's assets override map always wins over
// the default target.
//
// Branch resolution may hit the network (release lookup); unknown ids
// return before any network call.
func (a *Aggregator) ResolveAssetURL(ctx context.Context, addonID, asset string) (string, error) {
	addon, ok := a.store.Get(addonID)
	if !ok {
		return "", ErrUnknownAddon
	}

	branch, err := a.client.ResolveBranch(ctx, addon)
	if err != nil {
		return "", err
	}
	vars := map[string]string{
		"id":         addon.ID,
		"owner":      addon.Owner,
		"repository": addon.Repository,
		"branch":     branch,
		"system":     a.platform.System,
		"arch":       a.platform.Arch,
	}

	key := asset
	var target string
	if strings.HasPrefix(asset, addonID+versionSeparator) && strings.HasSuffix(asset, archiveExtension) {
		// Versioned archive convention. The version substring is assumed
		// not to contain the extension; accepted limitation of the naming
		// heuristic.
		vars["version"] = asset[len(addonID)+len(versionSeparator) : len(asset)-len(archiveExtension)]
		key = archiveAssetKey
		target = a.client.ArchiveURL()
	} else {
		target = a.client.ContentBaseURL() + addon.AssetPrefix + asset
	}

	if override, ok := addon.Assets[key]; ok {
		target = github.Join(a.client.ContentBaseURL(), override)
	}

	return github.Expand(target, vars), nil
}
