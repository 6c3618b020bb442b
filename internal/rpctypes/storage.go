package rpctypes

import "github.com/cubbit/dnfs/internal/path"

// SizeArgs/SizeReply implement Storage.size.
type SizeArgs struct {
	Path path.Path
}

type SizeReply struct {
	Length int64
}

// ReadArgs/ReadReply implement Storage.read.
type ReadArgs struct {
	Path   path.Path
	Offset int64
	Length int32
}

type ReadReply struct {
	Data []byte
}

// WriteArgs/WriteReply implement Storage.write.
type WriteArgs struct {
	Path   path.Path
	Offset int64
	Data   []byte
}

type WriteReply struct{}

// CreateArgs/CreateReply implement Command.create.
type CreateArgs struct {
	Path path.Path
}

type CreateReply struct {
	Created bool
}

// CommandDeleteArgs/CommandDeleteReply implement Command.delete.
type CommandDeleteArgs struct {
	Path path.Path
}

type CommandDeleteReply struct {
	Deleted bool
}

// CopyArgs/CopyReply implement Command.copy.
type CopyArgs struct {
	Path path.Path
	Peer StorageEndpoint
}

type CopyReply struct {
	Copied bool
}
