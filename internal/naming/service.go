// Package naming implements the naming server's core: the service
// dispatcher (§4.4), the registration reconciler (§4.5), and the
// replication controller (§4.6) built over internal/treeindex and
// internal/lockmanager. It corresponds to the reference
// naming.NamingServer, split along the same seams the Go port already
// separates into standalone packages.
package naming

import (
	"sync"

	"github.com/cubbit/dnfs/internal/lockmanager"
	"github.com/cubbit/dnfs/internal/nerrors"
	"github.com/cubbit/dnfs/internal/path"
	"github.com/cubbit/dnfs/internal/rpctypes"
	"github.com/cubbit/dnfs/internal/treeindex"
)

// commandCaller is the outbound half of the Command interface (§6): the
// naming server's calls into a storage server's control channel. Kept as an
// interface so tests can stub it without a real listener.
type commandCaller interface {
	Create(endpoint rpctypes.CommandEndpoint, p path.Path) (bool, error)
	Delete(endpoint rpctypes.CommandEndpoint, p path.Path) (bool, error)
	Copy(endpoint rpctypes.CommandEndpoint, p path.Path, peer rpctypes.StorageEndpoint) (bool, error)
}

// Metrics is the optional instrumentation hook for the service dispatcher,
// registration reconciler, and replication controller. A nil Metrics is
// valid; every call site nil-checks before recording.
type Metrics interface {
	RecordRegistrationPruned(count int)
	RecordReplicationTriggered()
	RecordReplicationSucceeded()
}

// Service is the naming server's core: the tree index, the lock manager
// built over it, the outbound command caller, and the replication policy
// the lock manager's threshold trigger invokes.
type Service struct {
	index       *treeindex.Index
	locks       *lockmanager.Manager
	caller      commandCaller
	replication ReplicationPolicy
	metrics     Metrics

	// metaMu serializes the metadata-mutating operations (createFile,
	// createDirectory, delete, register) end to end, matching §5's
	// process-wide monitor around index reads and writes: the Java
	// original declares these methods synchronized, so two concurrent
	// calls never interleave their read-then-write sequence against the
	// index. It is independent of locks' own mutex and of index's — it
	// guards the sequence of calls a dispatcher method makes, not the
	// index's internal bookkeeping, so no lock ordering between the three
	// is ever required.
	metaMu sync.Mutex
}

// NewService builds a Service with the given outbound caller and
// replication policy. A nil policy defaults to NoopPolicy, matching the
// spec's "at least the no-op behavior guaranteed" (§4.6).
func NewService(caller commandCaller, policy ReplicationPolicy) *Service {
	if policy == nil {
		policy = NoopPolicy{}
	}

	idx := treeindex.New()
	svc := &Service{
		index:       idx,
		caller:      caller,
		replication: policy,
	}
	svc.locks = lockmanager.New(idx, idx.IncrementAccessCount, func(p path.Path) {
		if svc.metrics != nil {
			svc.metrics.RecordReplicationTriggered()
		}
		svc.replication.Replicate(svc, p)
	})
	return svc
}

// SetMetrics installs the optional metrics sink. Passing nil disables
// instrumentation.
func (s *Service) SetMetrics(m Metrics) {
	s.metrics = m
}

// Index exposes the underlying tree index for the registration reconciler,
// debug endpoints, and tests.
func (s *Service) Index() *treeindex.Index {
	return s.index
}

// Locks exposes the underlying lock manager for tests and the Prometheus
// admission observer wiring.
func (s *Service) Locks() *lockmanager.Manager {
	return s.locks
}

// Lock implements Service.lock (§4.4).
func (s *Service) Lock(p path.Path, exclusive bool) error {
	return s.locks.Lock(p, exclusive)
}

// Unlock implements Service.unlock (§4.4).
func (s *Service) Unlock(p path.Path, exclusive bool) error {
	return s.locks.Unlock(p, exclusive)
}

// IsDirectory implements Service.isDirectory (§4.4): it takes a shared lock
// on p for the duration of the check.
func (s *Service) IsDirectory(p path.Path) (bool, error) {
	if err := s.locks.Lock(p, false); err != nil {
		return false, err
	}
	defer s.locks.Unlock(p, false)

	isDir, ok := s.index.IsDirectory(p)
	if !ok {
		return false, nerrors.WithPath(nerrors.NotFound, "path not found", p.String())
	}
	return isDir, nil
}

// List implements Service.list (§4.4): a direct, no-lock index read per the
// spec's explicit note that list uses "no-lock index check".
func (s *Service) List(dir path.Path) ([]string, error) {
	if !s.index.Contains(dir) {
		return nil, nerrors.WithPath(nerrors.NotFound, "directory not found", dir.String())
	}
	isDir, _ := s.index.IsDirectory(dir)
	if !isDir {
		return nil, nerrors.WithPath(nerrors.NotFound, "not a directory", dir.String())
	}
	return s.index.List(dir), nil
}

// CreateFile implements Service.createFile (§4.4).
func (s *Service) CreateFile(p path.Path) (bool, error) {
	s.metaMu.Lock()
	defer s.metaMu.Unlock()

	if s.index.Contains(p) {
		return false, nil
	}

	parent, err := p.Parent()
	if err != nil {
		return false, nerrors.WithPath(nerrors.InvalidPath, "root has no parent", p.String())
	}

	isDir, ok := s.index.IsDirectory(parent)
	if !ok || !isDir {
		return false, nerrors.WithPath(nerrors.NotFound, "parent is not a directory", parent.String())
	}

	storage, sOK := s.index.AncestorStorage(parent)
	command, cOK := s.index.AncestorCommand(parent)
	if !sOK || !cOK {
		return false, nerrors.WithPath(nerrors.NoStorages, "no storage server registered", parent.String())
	}

	created, err := s.caller.Create(command, p)
	if err != nil {
		return false, err
	}
	if created {
		s.index.AddReplica(p, storage, command)
	}
	return created, nil
}

// CreateDirectory implements Service.createDirectory (§4.4). Per Open
// Question two, it never invokes the storage server: it borrows the
// endpoints AncestorStorage/AncestorCommand pick for the parent (nearest
// ancestor key, else nearest descendant key, else any registered endpoint;
// none if no storage server is registered yet) and records the directory
// purely in the index.
func (s *Service) CreateDirectory(d path.Path) (bool, error) {
	s.metaMu.Lock()
	defer s.metaMu.Unlock()

	if d.IsRoot() {
		return false, nil
	}
	if s.index.Contains(d) {
		return false, nil
	}

	parent, err := d.Parent()
	if err != nil {
		return false, nerrors.WithPath(nerrors.InvalidPath, "root has no parent", d.String())
	}

	isDir, ok := s.index.IsDirectory(parent)
	if !ok || !isDir {
		return false, nerrors.WithPath(nerrors.NotFound, "parent is not a directory", parent.String())
	}

	if storage, sOK := s.index.AncestorStorage(parent); sOK {
		if command, cOK := s.index.AncestorCommand(parent); cOK {
			s.index.AddReplica(d, storage, command)
		}
	}
	s.index.MarkCreatedDirectory(d)
	return true, nil
}

// Delete implements Service.delete (§4.4).
func (s *Service) Delete(p path.Path) (bool, error) {
	s.metaMu.Lock()
	defer s.metaMu.Unlock()

	if p.IsRoot() {
		return false, nil
	}
	if !s.index.Contains(p) {
		return false, nerrors.WithPath(nerrors.NotFound, "path not found", p.String())
	}

	command, ok := s.index.AnyCommandInSubtree(p)
	if !ok {
		return false, nerrors.WithPath(nerrors.NotFound, "no command endpoint for path", p.String())
	}

	deleted, err := s.caller.Delete(command, p)
	if err != nil {
		return false, err
	}
	if deleted {
		s.index.Remove(p)
	}
	return deleted, nil
}

// GetStorage implements Service.getStorage (§4.4).
func (s *Service) GetStorage(p path.Path) (rpctypes.StorageEndpoint, error) {
	storage, ok := s.index.DefaultStorage(p)
	if !ok {
		return rpctypes.StorageEndpoint{}, nerrors.WithPath(nerrors.NotFound, "path has no registered storage", p.String())
	}
	return storage, nil
}

// Stat is a supplemental convenience operation (not named in §4.4) reporting
// whether p is a directory and how many replicas it has, for the debug
// status endpoint.
func (s *Service) Stat(p path.Path) (isDir bool, replicaCount int, err error) {
	isDir, ok := s.index.IsDirectory(p)
	if !ok {
		return false, 0, nerrors.WithPath(nerrors.NotFound, "path not found", p.String())
	}
	return isDir, len(s.index.Replicas(p)), nil
}
