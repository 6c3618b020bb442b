package storageserver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cubbit/dnfs/internal/path"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFilesWalksRootDirectory(t *testing.T) {
	srv := newTestServer(t, nil)

	require.NoError(t, os.MkdirAll(filepath.Join(srv.root, "a", "b"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(srv.root, "a", "b", "c"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(srv.root, "top"), []byte("y"), 0o644))

	files, err := srv.LocalFiles()
	require.NoError(t, err)

	path.SortPaths(files)
	got := make([]string, len(files))
	for i, f := range files {
		got[i] = f.String()
	}
	assert.Equal(t, []string{"/a/b/c", "/top"}, got)
}

func TestLocalFilesEmptyRoot(t *testing.T) {
	srv := newTestServer(t, nil)
	files, err := srv.LocalFiles()
	require.NoError(t, err)
	assert.Empty(t, files)
}
