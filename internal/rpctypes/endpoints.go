// Package rpctypes holds the endpoint identities and RPC argument/reply
// shapes shared by the naming server and storage servers. The RPC transport
// itself (framing, connection handling, stub/skeleton dialing) is treated as
// an external black box per the design's scope note and is implemented on
// top of the standard library's net/rpc; this package only defines the
// wire-visible vocabulary that black box carries.
package rpctypes

import "github.com/google/uuid"

// StorageEndpoint identifies a storage server's client-facing interface:
// size/read/write. ID disambiguates endpoints that happen to share an
// address (e.g. a restarted server reusing a port) and is assigned once,
// at storage-server startup.
type StorageEndpoint struct {
	ID   uuid.UUID
	Addr string
}

// CommandEndpoint identifies a storage server's naming-server-facing
// interface: create/delete/copy.
type CommandEndpoint struct {
	ID   uuid.UUID
	Addr string
}

// String returns the endpoint's address. Besides logging, it is the key the
// replication policy matches replicas by and the order AllEndpoints sorts
// by.
func (e StorageEndpoint) String() string {
	return e.Addr
}

// String returns the endpoint's address, for logging.
func (e CommandEndpoint) String() string {
	return e.Addr
}
