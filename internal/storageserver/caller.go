package storageserver

import (
	"github.com/cubbit/dnfs/internal/path"
	"github.com/cubbit/dnfs/internal/rpcclient"
	"github.com/cubbit/dnfs/internal/rpctypes"
)

// rpcPeerReader is the production peerReader, backed by the net/rpc stubs
// in internal/rpcclient.
type rpcPeerReader struct{}

// NewRPCPeerReader returns the net/rpc-backed peerReader used by the
// storage server binary to pull file contents from a peer during Copy.
func NewRPCPeerReader() peerReader {
	return rpcPeerReader{}
}

func (rpcPeerReader) Size(endpoint rpctypes.StorageEndpoint, p path.Path) (int64, error) {
	return rpcclient.StorageSize(endpoint, p)
}

func (rpcPeerReader) Read(endpoint rpctypes.StorageEndpoint, p path.Path, offset int64, length int32) ([]byte, error) {
	return rpcclient.StorageRead(endpoint, p, offset, length)
}
