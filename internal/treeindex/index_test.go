package treeindex

import (
	"testing"

	"github.com/cubbit/dnfs/internal/path"
	"github.com/cubbit/dnfs/internal/rpctypes"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, s string) path.Path {
	t.Helper()
	p, err := path.Parse(s)
	require.NoError(t, err)
	return p
}

func endpointPair(addr string) (rpctypes.StorageEndpoint, rpctypes.CommandEndpoint) {
	return rpctypes.StorageEndpoint{ID: uuid.New(), Addr: addr + "-storage"},
		rpctypes.CommandEndpoint{ID: uuid.New(), Addr: addr + "-command"}
}

func TestContainsInvariant(t *testing.T) {
	idx := New()
	s, c := endpointPair("a")

	assert.True(t, idx.Contains(path.Root()))
	assert.False(t, idx.Contains(mustParse(t, "/a")))

	idx.InsertFileEntry(mustParse(t, "/a/b/c"), s, c)

	assert.True(t, idx.Contains(mustParse(t, "/a/b/c")))
	assert.True(t, idx.Contains(mustParse(t, "/a/b")), "ancestor of a file key is present")
	assert.True(t, idx.Contains(mustParse(t, "/a")))
	assert.False(t, idx.Contains(mustParse(t, "/x")))
}

func TestIsDirectoryDisambiguation(t *testing.T) {
	idx := New()
	s, c := endpointPair("a")
	idx.InsertFileEntry(mustParse(t, "/a"), s, c)
	idx.InsertFileEntry(mustParse(t, "/b/c"), s, c)

	isDir, ok := idx.IsDirectory(mustParse(t, "/a"))
	require.True(t, ok)
	assert.False(t, isDir, "/a is a file key with no descendants")

	isDir, ok = idx.IsDirectory(mustParse(t, "/b"))
	require.True(t, ok)
	assert.True(t, isDir, "/b is inferred from descendant /b/c")

	isDir, ok = idx.IsDirectory(mustParse(t, "/b/c"))
	require.True(t, ok)
	assert.False(t, isDir)

	_, ok = idx.IsDirectory(mustParse(t, "/nonexistent"))
	assert.False(t, ok)
}

func TestListDirectChildren(t *testing.T) {
	idx := New()
	s, c := endpointPair("a")
	idx.InsertFileEntry(mustParse(t, "/a"), s, c)
	idx.InsertFileEntry(mustParse(t, "/b/c"), s, c)
	idx.InsertFileEntry(mustParse(t, "/d"), s, c)

	names := idx.List(path.Root())
	assert.Equal(t, []string{"a", "b", "d"}, names)
}

func TestRemoveDeletesSubtree(t *testing.T) {
	idx := New()
	s, c := endpointPair("a")
	idx.InsertFileEntry(mustParse(t, "/a/b"), s, c)
	idx.InsertFileEntry(mustParse(t, "/a/b/c"), s, c)

	idx.Remove(mustParse(t, "/a/b"))

	assert.False(t, idx.Contains(mustParse(t, "/a/b")))
	assert.False(t, idx.Contains(mustParse(t, "/a/b/c")))
}

func TestAncestorStorageAndCommandPickDeepest(t *testing.T) {
	idx := New()
	rootStorage, rootCommand := endpointPair("root")
	deepStorage, deepCommand := endpointPair("deep")

	idx.InsertFileEntry(mustParse(t, "/a"), rootStorage, rootCommand)
	idx.InsertFileEntry(mustParse(t, "/a/b"), deepStorage, deepCommand)

	storage, ok := idx.AncestorStorage(mustParse(t, "/a/b/c"))
	require.True(t, ok)
	assert.Equal(t, deepStorage, storage)

	command, ok := idx.AncestorCommand(mustParse(t, "/a/b/c"))
	require.True(t, ok)
	assert.Equal(t, deepCommand, command)
}

func TestAncestorStorageFallsBackToAnyKnownEndpoint(t *testing.T) {
	idx := New()

	_, ok := idx.AncestorStorage(path.Root())
	assert.False(t, ok, "an empty index has no fallback endpoint")

	storage, command := endpointPair("only")
	idx.InsertFileEntry(mustParse(t, "/unrelated"), storage, command)
	idx.AdmitEndpoints(storage, command)

	got, ok := idx.AncestorStorage(path.Root())
	require.True(t, ok, "falls back to the one known storage when no path-based ancestor exists")
	assert.Equal(t, storage, got)

	gotCommand, ok := idx.AncestorCommand(mustParse(t, "/a/b"))
	require.True(t, ok)
	assert.Equal(t, command, gotCommand)
}

func TestAnyCommandInSubtreeFindsDescendant(t *testing.T) {
	idx := New()
	s, c := endpointPair("a")
	idx.InsertFileEntry(mustParse(t, "/dir/a"), s, c)
	idx.InsertFileEntry(mustParse(t, "/dir/b"), s, c)
	idx.MarkCreatedDirectory(mustParse(t, "/dir"))

	got, ok := idx.AnyCommandInSubtree(mustParse(t, "/dir"))
	require.True(t, ok, "/dir itself is never a commandMap key, only its descendants are")
	assert.Equal(t, c, got)

	_, ok = idx.AnyCommandInSubtree(mustParse(t, "/nothing"))
	assert.False(t, ok)
}

func TestAdmitEndpointsTracksKnownSets(t *testing.T) {
	idx := New()
	s, c := endpointPair("a")

	assert.False(t, idx.IsStorageKnown(s))
	idx.AdmitEndpoints(s, c)
	assert.True(t, idx.IsStorageKnown(s))
	assert.True(t, idx.IsCommandKnown(c))

	pairs := idx.AllEndpoints()
	require.Len(t, pairs, 1)
	assert.Equal(t, s, pairs[0].Storage)
	assert.Equal(t, c, pairs[0].Command)
}

func TestAccessCountIncrements(t *testing.T) {
	idx := New()
	p := mustParse(t, "/a")

	assert.Equal(t, 0, idx.AccessCount(p))
	assert.Equal(t, 1, idx.IncrementAccessCount(p))
	assert.Equal(t, 2, idx.IncrementAccessCount(p))
	assert.Equal(t, 2, idx.AccessCount(p))
}
