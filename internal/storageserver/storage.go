// Package storageserver implements the storage server's local-disk
// primitives (§4.7): size, read, write, create, delete, and copy-from-peer,
// each rooted at a configured local directory. It corresponds to the
// reference storage.StorageServer, with local file I/O the spec treats as
// an external primitive (§1) implemented here with the standard os
// package, and every operation serialized by a per-server mutex per §5's
// "each storage operation is serialized by a per-server monitor".
package storageserver

import (
	"io"
	"os"
	"sync"

	"github.com/cubbit/dnfs/internal/nerrors"
	"github.com/cubbit/dnfs/internal/path"
	"github.com/cubbit/dnfs/internal/rpctypes"
)

// copyChunkSize is the fixed chunk size used by Copy when pulling a file
// from a peer, matching §4.7's "1024 bytes is a reasonable choice".
const copyChunkSize = 1024

// peerReader is the outbound half of the Storage interface a storage
// server uses to pull a file's contents from a peer during Copy. Kept as
// an interface so tests can stub it without a real listener.
type peerReader interface {
	Size(endpoint rpctypes.StorageEndpoint, p path.Path) (int64, error)
	Read(endpoint rpctypes.StorageEndpoint, p path.Path, offset int64, length int32) ([]byte, error)
}

// Server holds the local root directory and serializes every filesystem
// operation with a single mutex.
type Server struct {
	mu   sync.Mutex
	root string
	peer peerReader
}

// New returns a Server rooted at root, creating the directory if absent.
func New(root string, peer peerReader) (*Server, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, nerrors.WithPath(nerrors.IO, err.Error(), root)
	}
	return &Server{root: root, peer: peer}, nil
}

// Size implements Storage.size.
func (s *Server) Size(p path.Path) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(p.ToLocalFile(s.root))
	if err != nil || info.IsDir() {
		return 0, nerrors.WithPath(nerrors.NotFound, "file not found", p.String())
	}
	return info.Size(), nil
}

// Read implements Storage.read.
func (s *Server) Read(p path.Path, offset int64, length int32) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if length < 0 {
		return nil, nerrors.WithPath(nerrors.IndexOutOfBounds, "negative length", p.String())
	}

	f, err := os.Open(p.ToLocalFile(s.root))
	if err != nil {
		return nil, nerrors.WithPath(nerrors.NotFound, "file not found", p.String())
	}
	defer f.Close()

	buf := make([]byte, length)
	n, err := f.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return nil, nerrors.WithPath(nerrors.IO, err.Error(), p.String())
	}
	if n != int(length) {
		return nil, nerrors.WithPath(nerrors.IndexOutOfBounds, "short read", p.String())
	}
	return buf, nil
}

// Write implements Storage.write.
func (s *Server) Write(p path.Path, offset int64, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if offset < 0 {
		return nerrors.WithPath(nerrors.IndexOutOfBounds, "negative offset", p.String())
	}

	local := p.ToLocalFile(s.root)
	info, err := os.Stat(local)
	if err != nil {
		return nerrors.WithPath(nerrors.NotFound, "file not found", p.String())
	}
	if info.IsDir() {
		return nerrors.WithPath(nerrors.NotFound, "path is a directory", p.String())
	}

	f, err := os.OpenFile(local, os.O_WRONLY, 0o644)
	if err != nil {
		return nerrors.WithPath(nerrors.IO, err.Error(), p.String())
	}
	defer f.Close()

	if _, err := f.WriteAt(data, offset); err != nil {
		return nerrors.WithPath(nerrors.IO, err.Error(), p.String())
	}
	return nil
}

// Create implements Command.create: it idempotently creates parent
// directories, then creates an empty regular file at p. It never creates
// root.
func (s *Server) Create(p path.Path) (bool, error) {
	if p.IsRoot() {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	local := p.ToLocalFile(s.root)
	if _, err := os.Stat(local); err == nil {
		return false, nil
	}

	parent, err := p.Parent()
	if err == nil {
		if err := os.MkdirAll(parent.ToLocalFile(s.root), 0o755); err != nil {
			return false, nil
		}
	}

	f, err := os.OpenFile(local, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return false, nil
	}
	f.Close()
	return true, nil
}

// CreateDirectoryOnDisk is an extension point not invoked by the naming
// server's dispatcher (createDirectory never calls the storage server, per
// §9 Open Question two): it is available for a future mkdir-eager
// replication or snapshot policy that needs a real on-disk directory.
func (s *Server) CreateDirectoryOnDisk(d path.Path) (bool, error) {
	if d.IsRoot() {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	local := d.ToLocalFile(s.root)
	if _, err := os.Stat(local); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(local, 0o755); err != nil {
		return false, nil
	}
	return true, nil
}

// Delete implements Command.delete: a recursive delete at p. It refuses to
// delete root.
func (s *Server) Delete(p path.Path) (bool, error) {
	if p.IsRoot() {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	local := p.ToLocalFile(s.root)
	if err := os.RemoveAll(local); err != nil {
		return false, nerrors.WithPath(nerrors.IO, err.Error(), p.String())
	}
	_, err := os.Stat(local)
	return os.IsNotExist(err), nil
}

// Copy implements Command.copy: it pulls the entire file at p from peer in
// fixed-size chunks, writing contiguously into the local file via Write.
// On any I/O error the partial local file is deleted before the error
// propagates. The outbound peer RPCs are issued without holding the
// server's mutex, matching the naming server's discipline of dropping the
// monitor across remote calls (§5).
func (s *Server) Copy(p path.Path, peer rpctypes.StorageEndpoint) (bool, error) {
	size, err := s.peer.Size(peer, p)
	if err != nil {
		return false, err
	}

	if _, err := s.Create(p); err != nil {
		return false, err
	}

	var offset int64
	for offset < size {
		length := int32(copyChunkSize)
		if remaining := size - offset; remaining < int64(length) {
			length = int32(remaining)
		}

		chunk, err := s.peer.Read(peer, p, offset, length)
		if err != nil {
			s.deletePartial(p)
			return false, err
		}
		if err := s.Write(p, offset, chunk); err != nil {
			s.deletePartial(p)
			return false, err
		}
		offset += int64(len(chunk))
	}
	return true, nil
}

func (s *Server) localPath(p path.Path) string {
	return p.ToLocalFile(s.root)
}

func (s *Server) deletePartial(p path.Path) {
	s.mu.Lock()
	defer s.mu.Unlock()
	os.Remove(s.localPath(p))
}
