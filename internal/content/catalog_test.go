package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MRamiBalles/ColdFront/server/internal/domain/family"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	for _, id := range family.All() {
		assert.NotEmpty(t, c.Lines(id), id)
	}
	require.NotEmpty(t, c.News)
	assert.NotEmpty(t, c.News[0].Title)
}

func TestParseRejectsMissingMember(t *testing.T) {
	_, err := Parse([]byte(`
dialogue:
  husband: ["hi"]
  son: ["hey"]
`))
	assert.ErrorContains(t, err, "daughter")
}

func TestLoadOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lines.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
dialogue:
  husband: ["a"]
  son: ["b"]
  daughter: ["c"]
news:
  - title: "t"
    body: "b"
`), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, c.Lines(family.Daughter))
	assert.Len(t, c.News, 1)
}
