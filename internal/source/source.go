// Package source reads raw add-on entry lists from local files or HTTP
// endpoints. Sources are thin I/O wrappers; schema validation and store
// loading happen in the service layer.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/addonhub/addonhub-backend/internal/github"
)

// Loader yields one source's worth of raw entries as decoded JSON values.
type Loader interface {
	// Name identifies the source in logs and errors (path or URL).
	Name() string
	Load(ctx context.Context) ([]any, error)
}

// FileLoader reads a JSON (or YAML, converted to JSON) entry list from
// local storage.
type FileLoader struct {
	Path string
}

func (l FileLoader) Name() string { return l.Path }

func (l FileLoader) Load(ctx context.Context) ([]any, error) {
	raw, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("read source file %s: %w", l.Path, err)
	}
	switch strings.ToLower(filepath.Ext(l.Path)) {
	case ".yaml", ".yml":
		raw, err = yaml.YAMLToJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("convert source file %s: %w", l.Path, err)
		}
	}
	return decodeEntries(l.Path, raw)
}

// HTTPLoader fetches a JSON entry list from a network endpoint through
// the shared github client (same timeout and rate limit discipline as the
// metadata fetches).
type HTTPLoader struct {
	URL    string
	Client *github.Client
}

func (l HTTPLoader) Name() string { return l.URL }

func (l HTTPLoader) Load(ctx context.Context) ([]any, error) {
	raw, err := l.Client.Fetch(ctx, l.URL)
	if err != nil {
		return nil, fmt.Errorf("read source url %s: %w", l.URL, err)
	}
	return decodeEntries(l.URL, raw)
}

func decodeEntries(name string, raw []byte) ([]any, error) {
	var entries []any
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode source %s: expecting a JSON array of entries: %w", name, err)
	}
	return entries, nil
}
