package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFilesByExtension(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	for _, name := range []string{"zeta.hcl", "sub/alpha.hcl", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}

	files, err := FindFilesByExtension(dir, ".hcl")
	require.NoError(t, err)

	want := []string{
		filepath.Join(dir, "sub", "alpha.hcl"),
		filepath.Join(dir, "zeta.hcl"),
	}
	assert.Equal(t, want, files, "matches are sorted and non-matching files are skipped")
}

func TestFindFilesByExtensionEmptyExtension(t *testing.T) {
	_, err := FindFilesByExtension(t.TempDir(), "")
	assert.Error(t, err)
}
