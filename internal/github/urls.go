package github

import "strings"

// Default URL templates. Placeholders are substituted per request with
// Expand; the bases are configurable so tests can point at local servers.
const (
	DefaultContentBaseURL = "https://raw.githubusercontent.com/{owner}/{repository}/{branch}/"
	DefaultReleasesURL    = "https://api.github.com/repos/{owner}/{repository}/releases/latest"
	DefaultArchiveURL     = "https://github.com/{owner}/{repository}/archive/{branch}.zip"
)

// Expand substitutes {placeholder} occurrences in template with the values
// in vars. Unknown placeholders are left as-is.
func Expand(template string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// Join resolves ref against base: an absolute ref wins outright, a
// root-relative ref replaces the base path, anything else is resolved
// against the base's directory. Operates on strings rather than net/url
// because both sides may still contain unexpanded {placeholders}, which
// are not valid URL characters until substituted.
func Join(base, ref string) string {
	if ref == "" {
		return base
	}
	if strings.Contains(ref, "://") {
		return ref
	}
	if strings.HasPrefix(ref, "/") {
		if i := strings.Index(base, "://"); i >= 0 {
			rest := base[i+3:]
			if j := strings.Index(rest, "/"); j >= 0 {
				return base[:i+3+j] + ref
			}
		}
		return strings.TrimSuffix(base, "/") + ref
	}
	if i := strings.LastIndex(base, "/"); i > strings.Index(base, "://")+2 {
		return base[:i+1] + ref
	}
	return base + "/" + ref
}
