// Package treeindex implements the naming server's directory tree metadata
// index: the mapping from path to the storage and command endpoints that
// hold it, the set of explicitly created directories, the registered
// endpoint identity sets, and the per-path access counter. It corresponds
// to the private fields of the reference naming.NamingServer: storageTable,
// commandTable, createdDirs, storages, commands, and accessCount.
//
// Index is guarded by a single mutex, per the design's "global mutable
// state" note: the path-range conflict table used by the lock manager
// requires whole-tree visibility at decision time, so the maps are never
// partitioned per path.
package treeindex

import (
	"sort"
	"sync"

	"github.com/cubbit/dnfs/internal/path"
	"github.com/cubbit/dnfs/internal/rpctypes"
)

// Index is the naming server's in-memory directory tree.
type Index struct {
	mu sync.RWMutex

	storageMap map[path.Path][]rpctypes.StorageEndpoint
	commandMap map[path.Path][]rpctypes.CommandEndpoint
	createdDirs map[path.Path]struct{}

	knownStorages map[rpctypes.StorageEndpoint]struct{}
	knownCommands map[rpctypes.CommandEndpoint]struct{}

	// endpointPairs records every admitted (storage, command) pair keyed by
	// the storage endpoint, so the replication controller can enumerate
	// candidates without needing storageMap/commandMap to already mention a
	// path.
	endpointPairs map[rpctypes.StorageEndpoint]rpctypes.CommandEndpoint

	accessCount map[path.Path]int
}

// EndpointPair is a registered (storage, command) endpoint pair.
type EndpointPair struct {
	Storage rpctypes.StorageEndpoint
	Command rpctypes.CommandEndpoint
}

// New returns an empty tree index.
func New() *Index {
	return &Index{
		storageMap:    make(map[path.Path][]rpctypes.StorageEndpoint),
		commandMap:    make(map[path.Path][]rpctypes.CommandEndpoint),
		createdDirs:   make(map[path.Path]struct{}),
		knownStorages: make(map[rpctypes.StorageEndpoint]struct{}),
		knownCommands: make(map[rpctypes.CommandEndpoint]struct{}),
		endpointPairs: make(map[rpctypes.StorageEndpoint]rpctypes.CommandEndpoint),
		accessCount:   make(map[path.Path]int),
	}
}

// Contains reports whether p is present: some storageMap key is a subpath
// of p (p is a file key or an ancestor of one), or p is an explicit
// directory, or p is root. Matches invariant 1.
func (idx *Index) Contains(p path.Path) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.containsLocked(p)
}

func (idx *Index) containsLocked(p path.Path) bool {
	if p.IsRoot() {
		return true
	}
	if _, ok := idx.createdDirs[p]; ok {
		return true
	}
	for k := range idx.storageMap {
		if p.IsSubpath(k) {
			return true
		}
	}
	return false
}

// IsDirectory reports whether p is a directory. It requires Contains(p);
// the caller (the service dispatcher) is responsible for holding the
// appropriate lock and for translating the returned ok=false into NotFound.
func (idx *Index) IsDirectory(p path.Path) (isDir bool, ok bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.isDirectoryLocked(p)
}

func (idx *Index) isDirectoryLocked(p path.Path) (isDir bool, ok bool) {
	if p.IsRoot() {
		return true, true
	}
	if !idx.containsLocked(p) {
		return false, false
	}
	if _, explicit := idx.createdDirs[p]; explicit {
		return true, true
	}
	for k := range idx.storageMap {
		if p.IsSubpath(k) && !p.Equal(k) {
			return true, true
		}
	}
	return false, true
}

// List returns the direct child names under dir. It requires that dir is a
// directory (the caller must have already validated that, matching the
// reference list() which delegates to isDirectoryNoLock while already
// holding the monitor).
func (idx *Index) List(dir path.Path) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	seen := make(map[string]struct{})
	for k := range idx.storageMap {
		if dir.IsSubpath(k) && !dir.Equal(k) {
			child, err := k.DirectChild(dir)
			if err != nil {
				continue
			}
			seen[child] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// AddReplica appends a storage/command endpoint pair for p.
func (idx *Index) AddReplica(p path.Path, storage rpctypes.StorageEndpoint, command rpctypes.CommandEndpoint) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.storageMap[p] = append(idx.storageMap[p], storage)
	idx.commandMap[p] = append(idx.commandMap[p], command)
}

// MarkCreatedDirectory records p as an explicitly created directory.
func (idx *Index) MarkCreatedDirectory(p path.Path) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.createdDirs[p] = struct{}{}
}

// Remove deletes p, and if p is a directory every strict descendant key,
// from storageMap, commandMap, and createdDirs.
func (idx *Index) Remove(p path.Path) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for k := range idx.storageMap {
		if k.Equal(p) || p.IsSubpath(k) && !p.Equal(k) {
			delete(idx.storageMap, k)
			delete(idx.commandMap, k)
			delete(idx.createdDirs, k)
		}
	}
	delete(idx.storageMap, p)
	delete(idx.commandMap, p)
	delete(idx.createdDirs, p)
}

// DefaultStorage returns the first registered storage endpoint at the exact
// key p, if any.
func (idx *Index) DefaultStorage(p path.Path) (rpctypes.StorageEndpoint, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	list := idx.storageMap[p]
	if len(list) == 0 {
		return rpctypes.StorageEndpoint{}, false
	}
	return list[0], true
}

// DefaultCommand returns the first registered command endpoint at the exact
// key p, if any.
func (idx *Index) DefaultCommand(p path.Path) (rpctypes.CommandEndpoint, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	list := idx.commandMap[p]
	if len(list) == 0 {
		return rpctypes.CommandEndpoint{}, false
	}
	return list[0], true
}

// AncestorStorage returns a storage endpoint to serve p: the first-listed
// endpoint at the nearest ancestor key of p (which may be p itself); if no
// ancestor key is registered (p names a directory inferred only from its
// descendants, e.g. a parent directory holding files but never itself a map
// key), it falls back to the nearest descendant key instead, matching the
// Java original's getDirStorage, which searches storageTable's keys for any
// one rooted under the directory. Only when neither search finds anything —
// the tree is entirely empty above and below p — does it fall back to any
// one registered storage endpoint, so the very first directory or file ever
// created under an otherwise-empty tree still gets a home.
func (idx *Index) AncestorStorage(p path.Path) (rpctypes.StorageEndpoint, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if k, ok := idx.nearestAncestorKeyLocked(p); ok {
		if list := idx.storageMap[k]; len(list) > 0 {
			return list[0], true
		}
	}
	if k, ok := idx.nearestDescendantKeyLocked(p); ok {
		if list := idx.storageMap[k]; len(list) > 0 {
			return list[0], true
		}
	}
	if pairs := idx.allEndpointsLocked(); len(pairs) > 0 {
		return pairs[0].Storage, true
	}
	return rpctypes.StorageEndpoint{}, false
}

// AncestorCommand mirrors AncestorStorage for command endpoints.
func (idx *Index) AncestorCommand(p path.Path) (rpctypes.CommandEndpoint, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if k, ok := idx.nearestAncestorKeyLocked(p); ok {
		if list := idx.commandMap[k]; len(list) > 0 {
			return list[0], true
		}
	}
	if k, ok := idx.nearestDescendantKeyLocked(p); ok {
		if list := idx.commandMap[k]; len(list) > 0 {
			return list[0], true
		}
	}
	if pairs := idx.allEndpointsLocked(); len(pairs) > 0 {
		return pairs[0].Command, true
	}
	return rpctypes.CommandEndpoint{}, false
}

// nearestAncestorKeyLocked returns the key in storageMap, among those that
// are an ancestor-or-self of p, with the greatest depth (the closest one).
// The reference implementation returns any matching key; we pick the
// deepest for a more useful default when several ancestors are registered.
func (idx *Index) nearestAncestorKeyLocked(p path.Path) (path.Path, bool) {
	best, found := path.Path{}, false
	for k := range idx.storageMap {
		if !k.IsSubpath(p) {
			continue
		}
		if !found || best.Depth() < k.Depth() {
			best, found = k, true
		}
	}
	return best, found
}

// nearestDescendantKeyLocked returns the key in storageMap, among those that
// are a strict descendant of p, with the least depth (the closest one) —
// the storage server that actually owns p's subtree, per the Java
// original's getDirStorage/getDirCommand descendant search.
func (idx *Index) nearestDescendantKeyLocked(p path.Path) (path.Path, bool) {
	best, found := path.Path{}, false
	for k := range idx.storageMap {
		if !p.IsSubpath(k) || p.Equal(k) {
			continue
		}
		if !found || k.Depth() < best.Depth() {
			best, found = k, true
		}
	}
	return best, found
}

// AnyCommandInSubtree returns a registered command endpoint for p: the
// endpoint at the exact key p if one is registered there, otherwise the
// endpoint of any descendant key. This is what delete(p) needs when p names
// a directory inferred purely from its descendants and is never itself a
// storageMap/commandMap key.
func (idx *Index) AnyCommandInSubtree(p path.Path) (rpctypes.CommandEndpoint, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if list := idx.commandMap[p]; len(list) > 0 {
		return list[0], true
	}
	for k, list := range idx.commandMap {
		if len(list) == 0 {
			continue
		}
		if p.IsSubpath(k) && !p.Equal(k) {
			return list[0], true
		}
	}
	return rpctypes.CommandEndpoint{}, false
}

// CreatedDirectories reports whether p was recorded via MarkCreatedDirectory.
func (idx *Index) CreatedDirectories(p path.Path) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	_, ok := idx.createdDirs[p]
	return ok
}

// IsStorageKnown reports whether the given storage endpoint has already
// registered.
func (idx *Index) IsStorageKnown(s rpctypes.StorageEndpoint) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	_, ok := idx.knownStorages[s]
	return ok
}

// IsCommandKnown reports whether the given command endpoint has already
// registered.
func (idx *Index) IsCommandKnown(c rpctypes.CommandEndpoint) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	_, ok := idx.knownCommands[c]
	return ok
}

// AdmitEndpoints records the storage/command pair as known, so a later
// registration attempt with either endpoint is rejected.
func (idx *Index) AdmitEndpoints(s rpctypes.StorageEndpoint, c rpctypes.CommandEndpoint) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.knownStorages[s] = struct{}{}
	idx.knownCommands[c] = struct{}{}
	idx.endpointPairs[s] = c
}

// AllEndpoints returns every admitted (storage, command) pair, in a stable
// order (sorted by storage endpoint string), for the replication controller
// to scan for a candidate not already holding a given path.
func (idx *Index) AllEndpoints() []EndpointPair {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.allEndpointsLocked()
}

func (idx *Index) allEndpointsLocked() []EndpointPair {
	pairs := make([]EndpointPair, 0, len(idx.endpointPairs))
	for s, c := range idx.endpointPairs {
		pairs = append(pairs, EndpointPair{Storage: s, Command: c})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Storage.String() < pairs[j].Storage.String() })
	return pairs
}

// Replicas returns a copy of the storage endpoints currently holding p.
func (idx *Index) Replicas(p path.Path) []rpctypes.StorageEndpoint {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	list := idx.storageMap[p]
	out := make([]rpctypes.StorageEndpoint, len(list))
	copy(out, list)
	return out
}

// InsertFileEntry inserts f into storageMap/commandMap for the given
// endpoints, used by the registration reconciler for files not already
// owned by a peer.
func (idx *Index) InsertFileEntry(f path.Path, s rpctypes.StorageEndpoint, c rpctypes.CommandEndpoint) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.storageMap[f] = append(idx.storageMap[f], s)
	idx.commandMap[f] = append(idx.commandMap[f], c)
}

// IncrementAccessCount increments the access counter for p and returns the
// new value, matching the reference incrementAccessCount.
func (idx *Index) IncrementAccessCount(p path.Path) int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.accessCount[p]++
	return idx.accessCount[p]
}

// AccessCount returns the current access count for p (0 if never accessed).
func (idx *Index) AccessCount(p path.Path) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.accessCount[p]
}

// Snapshot returns a point-in-time, read-only copy of the index's keys for
// diagnostic/debug reporting. It is a supplemental addition (not present in
// the reference naming server) grounded in the teacher's pattern of
// exposing repository internals to its pkg/metadata/testing suites.
type Snapshot struct {
	Files       []string
	Directories []string
}

// TakeSnapshot builds a Snapshot of the current index state.
func (idx *Index) TakeSnapshot() Snapshot {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	snap := Snapshot{}
	for k := range idx.storageMap {
		if _, explicit := idx.createdDirs[k]; explicit {
			continue
		}
		if _, isDescended := idx.hasStrictDescendantLocked(k); isDescended {
			snap.Directories = append(snap.Directories, k.String())
			continue
		}
		snap.Files = append(snap.Files, k.String())
	}
	for k := range idx.createdDirs {
		snap.Directories = append(snap.Directories, k.String())
	}
	sort.Strings(snap.Files)
	sort.Strings(snap.Directories)
	return snap
}

func (idx *Index) hasStrictDescendantLocked(p path.Path) (path.Path, bool) {
	for k := range idx.storageMap {
		if p.IsSubpath(k) && !p.Equal(k) {
			return k, true
		}
	}
	return path.Path{}, false
}
