package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadFile_EmptyPathReturnsDefault(t *testing.T) {
	s, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestLoadFile_PartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	body := "line_tags: [l]\nstrip_tags: [note, ptr, bibl]\nwhen_attr: notBefore\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	s, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"l"}, s.LineTags)
	assert.True(t, s.IsStripped("bibl"))
	assert.Equal(t, "notBefore", s.WhenAttr)
	// Untouched keys keep defaults.
	assert.Equal(t, "app", s.App)
	assert.Equal(t, "xml:id", s.IDAttr)
}

func TestLoadFile_RejectsEmptyName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rdg: \"\"\n"), 0o644))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rdg")
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestSchemaPredicates(t *testing.T) {
	s := Default()
	assert.True(t, s.IsLine("l"))
	assert.False(t, s.IsLine("lg"))
	assert.True(t, s.IsMarker("witStart"))
	assert.True(t, s.IsMarker("witEnd"))
	assert.False(t, s.IsMarker("rdg"))
	assert.True(t, s.IsHeader("teiHeader"))
	assert.False(t, s.IsHeader("text"))

	s.Header = ""
	assert.False(t, s.IsHeader(""))
}
