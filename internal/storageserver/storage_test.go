package storageserver

import (
	"os"
	"testing"

	"github.com/cubbit/dnfs/internal/nerrors"
	"github.com/cubbit/dnfs/internal/path"
	"github.com/cubbit/dnfs/internal/rpctypes"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPeer is a peerReader test double backed by an in-memory byte slice,
// standing in for a real peer storage server during Copy tests.
type stubPeer struct {
	data    []byte
	sizeErr error
	readErr error
}

func (p *stubPeer) Size(rpctypes.StorageEndpoint, path.Path) (int64, error) {
	if p.sizeErr != nil {
		return 0, p.sizeErr
	}
	return int64(len(p.data)), nil
}

func (p *stubPeer) Read(_ rpctypes.StorageEndpoint, _ path.Path, offset int64, length int32) ([]byte, error) {
	if p.readErr != nil {
		return nil, p.readErr
	}
	return p.data[offset : offset+int64(length)], nil
}

func newTestServer(t *testing.T, peer peerReader) *Server {
	t.Helper()
	srv, err := New(t.TempDir(), peer)
	require.NoError(t, err)
	return srv
}

func mustPath(t *testing.T, s string) path.Path {
	t.Helper()
	p, err := path.Parse(s)
	require.NoError(t, err)
	return p
}

func TestCreateThenSizeAndReadWrite(t *testing.T) {
	srv := newTestServer(t, nil)
	p := mustPath(t, "/a/b/file")

	created, err := srv.Create(p)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = srv.Create(p)
	require.NoError(t, err)
	assert.False(t, created, "creating the same file twice returns false")

	size, err := srv.Size(p)
	require.NoError(t, err)
	assert.Equal(t, int64(0), size)

	require.NoError(t, srv.Write(p, 0, []byte("hello")))
	size, err = srv.Size(p)
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)

	data, err := srv.Read(p, 0, 5)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestCreateNeverCreatesRoot(t *testing.T) {
	srv := newTestServer(t, nil)
	created, err := srv.Create(path.Root())
	require.NoError(t, err)
	assert.False(t, created)
}

func TestSizeNotFoundForMissingOrDirectory(t *testing.T) {
	srv := newTestServer(t, nil)
	_, err := srv.Size(mustPath(t, "/missing"))
	require.Error(t, err)
	assert.True(t, nerrors.Is(err, nerrors.NotFound))

	require.NoError(t, os.MkdirAll(mustPath(t, "/dir").ToLocalFile(srv.root), 0o755))
	_, err = srv.Size(mustPath(t, "/dir"))
	require.Error(t, err)
	assert.True(t, nerrors.Is(err, nerrors.NotFound))
}

func TestReadIndexOutOfBounds(t *testing.T) {
	srv := newTestServer(t, nil)
	p := mustPath(t, "/file")
	_, err := srv.Create(p)
	require.NoError(t, err)
	require.NoError(t, srv.Write(p, 0, []byte("abc")))

	_, err = srv.Read(p, 0, -1)
	require.Error(t, err)
	assert.True(t, nerrors.Is(err, nerrors.IndexOutOfBounds))

	_, err = srv.Read(p, 0, 10)
	require.Error(t, err)
	assert.True(t, nerrors.Is(err, nerrors.IndexOutOfBounds), "requesting more bytes than the file holds is a short read")
}

func TestWriteRejectsNegativeOffsetAndMissingFile(t *testing.T) {
	srv := newTestServer(t, nil)
	p := mustPath(t, "/file")
	_, err := srv.Create(p)
	require.NoError(t, err)

	err = srv.Write(p, -1, []byte("x"))
	require.Error(t, err)
	assert.True(t, nerrors.Is(err, nerrors.IndexOutOfBounds))

	err = srv.Write(mustPath(t, "/missing"), 0, []byte("x"))
	require.Error(t, err)
	assert.True(t, nerrors.Is(err, nerrors.NotFound))
}

func TestDeleteRecursiveAndRefusesRoot(t *testing.T) {
	srv := newTestServer(t, nil)
	_, err := srv.Create(mustPath(t, "/dir/a"))
	require.NoError(t, err)
	_, err = srv.Create(mustPath(t, "/dir/b"))
	require.NoError(t, err)

	deleted, err := srv.Delete(mustPath(t, "/dir"))
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = srv.Size(mustPath(t, "/dir/a"))
	require.Error(t, err)

	deleted, err = srv.Delete(path.Root())
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestCopyPullsChunksFromPeer(t *testing.T) {
	payload := make([]byte, copyChunkSize*2+100)
	for i := range payload {
		payload[i] = byte(i % 251)
	}
	peer := &stubPeer{data: payload}
	srv := newTestServer(t, peer)
	p := mustPath(t, "/copied")

	copied, err := srv.Copy(p, rpctypes.StorageEndpoint{ID: uuid.New(), Addr: "peer"})
	require.NoError(t, err)
	assert.True(t, copied)

	size, err := srv.Size(p)
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), size)

	data, err := srv.Read(p, 0, int32(len(payload)))
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestCopyDeletesPartialFileOnReadError(t *testing.T) {
	peer := &stubPeer{data: make([]byte, copyChunkSize*3), readErr: assertErr}
	srv := newTestServer(t, peer)
	p := mustPath(t, "/partial")

	copied, err := srv.Copy(p, rpctypes.StorageEndpoint{ID: uuid.New(), Addr: "peer"})
	require.Error(t, err)
	assert.False(t, copied)

	_, sizeErr := srv.Size(p)
	require.Error(t, sizeErr, "the partially copied file must be removed after a mid-copy failure")
}

var assertErr = nerrors.New(nerrors.Transport, "simulated peer read failure")
