package rpctypes

import "github.com/cubbit/dnfs/internal/path"

// LockArgs/LockReply implement Service.lock.
type LockArgs struct {
	Path      path.Path
	Exclusive bool
}

type LockReply struct{}

// UnlockArgs/UnlockReply implement Service.unlock.
type UnlockArgs struct {
	Path      path.Path
	Exclusive bool
}

type UnlockReply struct{}

// IsDirectoryArgs/IsDirectoryReply implement Service.isDirectory.
type IsDirectoryArgs struct {
	Path path.Path
}

type IsDirectoryReply struct {
	IsDirectory bool
}

// ListArgs/ListReply implement Service.list.
type ListArgs struct {
	Directory path.Path
}

type ListReply struct {
	Names []string
}

// CreateFileArgs/CreateFileReply implement Service.createFile.
type CreateFileArgs struct {
	Path path.Path
}

type CreateFileReply struct {
	Created bool
}

// CreateDirectoryArgs/CreateDirectoryReply implement Service.createDirectory.
type CreateDirectoryArgs struct {
	Path path.Path
}

type CreateDirectoryReply struct {
	Created bool
}

// DeleteArgs/DeleteReply implement Service.delete.
type DeleteArgs struct {
	Path path.Path
}

type DeleteReply struct {
	Deleted bool
}

// GetStorageArgs/GetStorageReply implement Service.getStorage.
type GetStorageArgs struct {
	Path path.Path
}

type GetStorageReply struct {
	Storage StorageEndpoint
}

// RegisterArgs/RegisterReply implement Registration.register.
type RegisterArgs struct {
	Storage StorageEndpoint
	Command CommandEndpoint
	Files   []path.Path
}

// RegisterReply carries the paths the registering storage server must
// delete locally, per §4.5 of the registration reconciler contract.
type RegisterReply struct {
	Pruned []path.Path
}
