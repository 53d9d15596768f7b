package mdocument

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCatalog(t *testing.T) {
	seeds, err := ParseCatalog([]byte(`
[[template]]
name = "Meeting minutes"
type = "Minutes"
file_path = "/files/templates/minutes.docx"

[[template]]
name = "Activity report"
description = "End of term report"
`))
	require.NoError(t, err)
	require.Len(t, seeds, 2)
	assert.Equal(t, TypeMinutes, seeds[0].Type)
	assert.Equal(t, "/files/templates/minutes.docx", seeds[0].FilePath)
	assert.Equal(t, "End of term report", seeds[1].Description)
	assert.Equal(t, DocType(""), seeds[1].Type)
}

func TestParseCatalogRejects(t *testing.T) {
	_, err := ParseCatalog([]byte(`[[template]]
type = "Minutes"`))
	assert.ErrorContains(t, err, "has no name")

	_, err = ParseCatalog([]byte(`[[template]]
name = "Poster"
type = "Poster"`))
	assert.ErrorContains(t, err, "unknown type")

	_, err = ParseCatalog([]byte(`[[template]`))
	assert.Error(t, err)
}

func TestLoadShippedCatalog(t *testing.T) {
	path := filepath.Join("..", "..", "configs", "templates.toml")
	if _, err := os.Stat(path); err != nil {
		t.Skip("no shipped catalog")
	}
	seeds, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.NotEmpty(t, seeds)
}
