package models

// Addon describes one GitHub-hosted add-on tracked by the repository.
// Records are immutable once constructed; a reload is the only way to
// replace one, and it replaces the whole record.
type Addon struct {
	ID          string            `json:"id"`
	Owner       string            `json:"owner"`
	Branch      string            `json:"branch,omitempty"`
	Assets      map[string]string `json:"assets,omitempty"`
	AssetPrefix string            `json:"asset_prefix,omitempty"`
	Repository  string            `json:"repository"`
}
