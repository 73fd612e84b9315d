package pdfextract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBytesRejectsEmptyInput(t *testing.T) {
	_, err := ExtractBytes(nil)
	assert.EqualError(t, err, "pdf is empty")
}

func TestExtractBytesRejectsNonPDF(t *testing.T) {
	_, err := ExtractBytes([]byte("this is not a pdf"))
	assert.ErrorContains(t, err, "open pdf failed")
}

func TestExtractFileMissing(t *testing.T) {
	_, err := ExtractFile(filepath.Join(t.TempDir(), "absent.pdf"))
	assert.ErrorContains(t, err, "read pdf failed")
}

func TestExtractFileGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 truncated"), 0o644))

	_, err := ExtractFile(path)
	assert.Error(t, err)
}

func TestIsBlank(t *testing.T) {
	assert.True(t, (*Document)(nil).IsBlank())
	assert.True(t, (&Document{Text: " \n\t"}).IsBlank())
	assert.False(t, (&Document{Text: "Abstract"}).IsBlank())
}
