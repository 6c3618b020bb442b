// Package rpcclient provides the naming server and storage servers' outward
// calls to each other's Command and Storage interfaces. It is the "stub"
// half of the RPC layer the design treats as an external black box
// (§1, §9): a thin net/rpc dialer, built fresh per call rather than pooled,
// matching the at-least-once, retry-on-the-caller semantics the design
// assumes of the transport.
package rpcclient

import (
	"fmt"
	"net"
	"net/rpc"
	"time"

	"github.com/cubbit/dnfs/internal/nerrors"
	"github.com/cubbit/dnfs/internal/path"
	"github.com/cubbit/dnfs/internal/rpctypes"
)

// dialTimeout bounds how long a single outbound call waits to establish a
// connection before surfacing a Transport error to the caller.
const dialTimeout = 5 * time.Second

func call(addr, method string, args, reply any) error {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nerrors.WithPath(nerrors.Transport, fmt.Sprintf("dial %s: %v", method, err), addr)
	}
	client := rpc.NewClient(conn)
	defer client.Close()

	if err := client.Call(method, args, reply); err != nil {
		return nerrors.WithPath(nerrors.Transport, fmt.Sprintf("call %s: %v", method, err), addr)
	}
	return nil
}

// CommandCreate invokes Command.create on the given endpoint.
func CommandCreate(endpoint rpctypes.CommandEndpoint, p path.Path) (bool, error) {
	args := &rpctypes.CreateArgs{Path: p}
	reply := &rpctypes.CreateReply{}
	if err := call(endpoint.Addr, "Command.Create", args, reply); err != nil {
		return false, err
	}
	return reply.Created, nil
}

// CommandDelete invokes Command.delete on the given endpoint.
func CommandDelete(endpoint rpctypes.CommandEndpoint, p path.Path) (bool, error) {
	args := &rpctypes.CommandDeleteArgs{Path: p}
	reply := &rpctypes.CommandDeleteReply{}
	if err := call(endpoint.Addr, "Command.Delete", args, reply); err != nil {
		return false, err
	}
	return reply.Deleted, nil
}

// CommandCopy invokes Command.copy on the given endpoint, instructing it to
// pull p from peer.
func CommandCopy(endpoint rpctypes.CommandEndpoint, p path.Path, peer rpctypes.StorageEndpoint) (bool, error) {
	args := &rpctypes.CopyArgs{Path: p, Peer: peer}
	reply := &rpctypes.CopyReply{}
	if err := call(endpoint.Addr, "Command.Copy", args, reply); err != nil {
		return false, err
	}
	return reply.Copied, nil
}

// StorageSize invokes Storage.size on the given endpoint.
func StorageSize(endpoint rpctypes.StorageEndpoint, p path.Path) (int64, error) {
	args := &rpctypes.SizeArgs{Path: p}
	reply := &rpctypes.SizeReply{}
	if err := call(endpoint.Addr, "Storage.Size", args, reply); err != nil {
		return 0, err
	}
	return reply.Length, nil
}

// StorageRead invokes Storage.read on the given endpoint.
func StorageRead(endpoint rpctypes.StorageEndpoint, p path.Path, offset int64, length int32) ([]byte, error) {
	args := &rpctypes.ReadArgs{Path: p, Offset: offset, Length: length}
	reply := &rpctypes.ReadReply{}
	if err := call(endpoint.Addr, "Storage.Read", args, reply); err != nil {
		return nil, err
	}
	return reply.Data, nil
}

// Register invokes Registration.Register on the naming server at addr,
// advertising the given endpoints and locally held files.
func Register(addr string, storage rpctypes.StorageEndpoint, command rpctypes.CommandEndpoint, files []path.Path) ([]path.Path, error) {
	args := &rpctypes.RegisterArgs{Storage: storage, Command: command, Files: files}
	reply := &rpctypes.RegisterReply{}
	if err := call(addr, "Registration.Register", args, reply); err != nil {
		return nil, err
	}
	return reply.Pruned, nil
}

// StorageWrite invokes Storage.write on the given endpoint.
func StorageWrite(endpoint rpctypes.StorageEndpoint, p path.Path, offset int64, data []byte) error {
	args := &rpctypes.WriteArgs{Path: p, Offset: offset, Data: data}
	reply := &rpctypes.WriteReply{}
	return call(endpoint.Addr, "Storage.Write", args, reply)
}
