// Package github talks to the remote hosting endpoints: latest-release
// lookups and raw content fetches. It owns the release TTL cache and the
// outbound rate limiter shared by all callers.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/addonhub/addonhub-backend/internal/cache"
	"github.com/addonhub/addonhub-backend/internal/models"
)

// DefaultBranch is the fallback when an add-on has no configured branch
// and its latest release carries no tag name.
const DefaultBranch = "master"

const releaseCacheSize = 256

// FetchError reports a failed remote request: unreachable host, non-2xx
// status, or an unparseable response body.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status=%d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Options configures a Client. Zero values fall back to the public GitHub
// endpoints, a 10s timeout, a 1h release cache, and no rate limit.
type Options struct {
	ContentBaseURL string
	ReleasesURL    string
	ArchiveURL     string
	Timeout        time.Duration
	ReleaseTTL     time.Duration
	RatePerSec     float64
	RateBurst      int
	Logger         *slog.Logger
}

type Client struct {
	contentBaseURL string
	releasesURL    string
	archiveURL     string
	httpClient     *http.Client
	limiter        *rate.Limiter
	releases       *cache.Memo[string]
	logger         *slog.Logger
}

func NewClient(opts Options) *Client {
	if opts.ContentBaseURL == "" {
		opts.ContentBaseURL = DefaultContentBaseURL
	}
	if opts.ReleasesURL == "" {
		opts.ReleasesURL = DefaultReleasesURL
	}
	if opts.ArchiveURL == "" {
		opts.ArchiveURL = DefaultArchiveURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.ReleaseTTL <= 0 {
		opts.ReleaseTTL = time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	limit := rate.Inf
	if opts.RatePerSec > 0 {
		limit = rate.Limit(opts.RatePerSec)
	}
	burst := opts.RateBurst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		contentBaseURL: opts.ContentBaseURL,
		releasesURL:    opts.ReleasesURL,
		archiveURL:     opts.ArchiveURL,
		httpClient:     &http.Client{Timeout: opts.Timeout},
		limiter:        rate.NewLimiter(limit, burst),
		releases:       cache.New[string](releaseCacheSize, opts.ReleaseTTL),
		logger:         opts.Logger,
	}
}

// ContentBaseURL returns the raw-content URL template.
func (c *Client) ContentBaseURL() string { return c.contentBaseURL }

// ArchiveURL returns the source-archive URL template.
func (c *Client) ArchiveURL() string { return c.archiveURL }

// Fetch issues a rate-limited GET and returns the response body. Any
// transport failure or non-2xx status yields a *FetchError.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("remote request failed", "url", url, "error", err)
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 2048))
		c.logger.Debug("remote request failed", "url", url, "status", resp.StatusCode)
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	return body, nil
}

// LatestRelease returns the tag name of the latest published release for
// owner/repository, or DefaultBranch when the release carries no tag.
// Results are cached per owner/repository for the configured TTL; lookup
// failures propagate and are not cached.
func (c *Client) LatestRelease(ctx context.Context, owner, repository string) (string, error) {
	key := owner + "/" + repository
	tag, _, err := c.releases.Do(ctx, key, func(ctx context.Context) (string, error) {
		url := Expand(c.releasesURL, map[string]string{
			"owner":      owner,
			"repository": repository,
		})
		body, err := c.Fetch(ctx, url)
		if err != nil {
			return "", err
		}
		var release struct {
			TagName string `json:"tag_name"`
		}
		if err := json.Unmarshal(body, &release); err != nil {
			return "", &FetchError{URL: url, Err: fmt.Errorf("decode release: %w", err)}
		}
		if release.TagName == "" {
			return DefaultBranch, nil
		}
		return release.TagName, nil
	})
	return tag, err
}

// ResolveBranch returns the add-on's configured branch, or the latest
// release tag when none is configured. The latter may hit the network.
func (c *Client) ResolveBranch(ctx context.Context, addon models.Addon) (string, error) {
	if addon.Branch != "" {
		return addon.Branch, nil
	}
	branch, err := c.LatestRelease(ctx, addon.Owner, addon.Repository)
	if err != nil {
		return "", fmt.Errorf("resolve branch for %s: %w", addon.ID, err)
	}
	return branch, nil
}

// MetadataURL builds the URL of an add-on's metadata document: the
// configured "addon.xml" asset override when present, else the default
// path under the content base.
func (c *Client) MetadataURL(addon models.Addon, branch string) string {
	path := "addon.xml"
	if override, ok := addon.Assets["addon.xml"]; ok {
		path = override
	}
	return Expand(Join(c.contentBaseURL, path), map[string]string{
		"id":         addon.ID,
		"owner":      addon.Owner,
		"repository": addon.Repository,
		"branch":     branch,
	})
}

// InvalidateReleases drops every cached release lookup.
func (c *Client) InvalidateReleases() {
	c.releases.Invalidate()
}

// IsNotFound reports whether err is a FetchError for a 404 response.
func IsNotFound(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.StatusCode == http.StatusNotFound
}
