package naming

import (
	"github.com/cubbit/dnfs/internal/path"
	"github.com/cubbit/dnfs/internal/rpcclient"
	"github.com/cubbit/dnfs/internal/rpctypes"
)

// rpcCaller is the production commandCaller, backed by the net/rpc stubs in
// internal/rpcclient.
type rpcCaller struct{}

// NewRPCCaller returns the net/rpc-backed commandCaller used by the naming
// server binary.
func NewRPCCaller() commandCaller {
	return rpcCaller{}
}

func (rpcCaller) Create(endpoint rpctypes.CommandEndpoint, p path.Path) (bool, error) {
	return rpcclient.CommandCreate(endpoint, p)
}

func (rpcCaller) Delete(endpoint rpctypes.CommandEndpoint, p path.Path) (bool, error) {
	return rpcclient.CommandDelete(endpoint, p)
}

func (rpcCaller) Copy(endpoint rpctypes.CommandEndpoint, p path.Path, peer rpctypes.StorageEndpoint) (bool, error) {
	return rpcclient.CommandCopy(endpoint, p, peer)
}
