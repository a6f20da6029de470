package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpand(t *testing.T) {
	url := Expand("https://raw.githubusercontent.com/{owner}/{repository}/{branch}/", map[string]string{
		"owner":      "alice",
		"repository": "repo",
		"branch":     "main",
	})
	assert.Equal(t, "https://raw.githubusercontent.com/alice/repo/main/", url)
}

func TestExpand_UnknownPlaceholderLeftAlone(t *testing.T) {
	url := Expand("https://host/{owner}/{mystery}", map[string]string{"owner": "alice"})
	assert.Equal(t, "https://host/alice/{mystery}", url)
}

func TestJoin_RelativeRef(t *testing.T) {
	url := Join("https://host/a/b/", "c/d.xml")
	assert.Equal(t, "https://host/a/b/c/d.xml", url)
}

func TestJoin_AbsoluteRefWins(t *testing.T) {
	url := Join("https://host/a/b/", "https://mirror.example.com/x.zip")
	assert.Equal(t, "https://mirror.example.com/x.zip", url)
}

func TestJoin_RootRelativeRef(t *testing.T) {
	url := Join("https://host/a/b/", "/x.zip")
	assert.Equal(t, "https://host/x.zip", url)
}

func TestJoin_PreservesPlaceholders(t *testing.T) {
	url := Join("https://host/{owner}/{branch}/", "addon.xml")
	assert.Equal(t, "https://host/{owner}/{branch}/addon.xml", url)
}

func TestJoin_EmptyRef(t *testing.T) {
	assert.Equal(t, "https://host/a/", Join("https://host/a/", ""))
}
