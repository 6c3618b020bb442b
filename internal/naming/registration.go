package naming

import (
	"github.com/cubbit/dnfs/internal/nerrors"
	"github.com/cubbit/dnfs/internal/path"
	"github.com/cubbit/dnfs/internal/rpctypes"
)

// Register implements the registration reconciler (§4.5): it admits a
// newly joined storage server's advertised file list, pruning whatever is
// already owned by a peer, and returns the pruning list the caller is
// contractually required to delete locally.
func (s *Service) Register(storage rpctypes.StorageEndpoint, command rpctypes.CommandEndpoint, files []path.Path) ([]path.Path, error) {
	s.metaMu.Lock()
	defer s.metaMu.Unlock()

	if s.index.IsStorageKnown(storage) || s.index.IsCommandKnown(command) {
		return nil, nerrors.WithPath(nerrors.AlreadyRegistered, "endpoint already registered", storage.String())
	}

	var pruned []path.Path
	for _, f := range files {
		if f.IsRoot() {
			continue
		}
		if s.index.Contains(f) {
			pruned = append(pruned, f)
			continue
		}
		s.index.InsertFileEntry(f, storage, command)
	}

	s.index.AdmitEndpoints(storage, command)

	if s.metrics != nil && len(pruned) > 0 {
		s.metrics.RecordRegistrationPruned(len(pruned))
	}

	return pruned, nil
}
