package storageserver

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cubbit/dnfs/internal/nerrors"
	"github.com/cubbit/dnfs/internal/path"
	"github.com/cubbit/dnfs/internal/rpcclient"
	"github.com/cubbit/dnfs/internal/rpctypes"
)

// LocalFiles walks the server's root directory and returns the Path value
// of every regular file found, for advertising at registration time.
func (s *Server) LocalFiles() ([]path.Path, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var files []path.Path
	err := filepath.WalkDir(s.root, func(full string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(s.root, full)
		if err != nil {
			return err
		}

		components := strings.Split(filepath.ToSlash(rel), "/")
		p, err := path.New(path.Root(), components...)
		if err != nil {
			return err
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, nerrors.WithPath(nerrors.IO, err.Error(), s.root)
	}
	return files, nil
}

// RegisterWithNaming advertises this server's endpoints and local files to
// the naming server at namingAddr, then deletes whatever the naming server
// tells it to prune, per the registration reconciler contract (§4.5).
func (s *Server) RegisterWithNaming(namingAddr string, storage rpctypes.StorageEndpoint, command rpctypes.CommandEndpoint) error {
	files, err := s.LocalFiles()
	if err != nil {
		return err
	}

	pruned, err := rpcclient.Register(namingAddr, storage, command, files)
	if err != nil {
		return err
	}

	for _, p := range pruned {
		if _, err := s.Delete(p); err != nil {
			return err
		}
	}
	return nil
}
