// Package path implements the canonical hierarchical path value shared by
// the naming server and every storage server.
//
// A Path is an absolute name composed of an ordered sequence of non-empty
// components, separated on the wire by Separator. The empty sequence denotes
// the root. Two paths are equal iff their component sequences are equal, so
// Path is kept comparable (backed by a single canonical string) and is safe
// to use directly as a map key, mirroring how the reference naming server
// keyed storageTable and commandTable by path.
package path

import (
	"fmt"
	"sort"
	"strings"

	ospath "path/filepath"
)

// Separator is the wire-format component separator.
const Separator = "/"

// Path is an absolute hierarchical name. The zero value is the root.
type Path struct {
	clean string // "" for root, otherwise "/a/b/c" with no trailing slash
}

// Root returns the root path.
func Root() Path {
	return Path{}
}

// Parse parses the canonical wire form of a path: a leading separator
// followed by components joined by the separator, e.g. "/a/b/c". The root
// is the single-character string "/". Parse rejects empty components and
// components containing the separator.
func Parse(s string) (Path, error) {
	if !strings.HasPrefix(s, Separator) {
		return Path{}, fmt.Errorf("%w: path %q does not begin with %q", ErrInvalidPath, s, Separator)
	}
	if s == Separator {
		return Root(), nil
	}

	raw := strings.Split(s[1:], Separator)
	for _, c := range raw {
		if c == "" {
			return Path{}, fmt.Errorf("%w: path %q has an empty component", ErrInvalidPath, s)
		}
	}

	return Path{clean: Separator + strings.Join(raw, Separator)}, nil
}

// New builds a Path from a parent and a sequence of additional components,
// validating each component the same way Parse does.
func New(parent Path, components ...string) (Path, error) {
	all := append(append([]string{}, parent.Components()...), components...)
	for _, c := range all {
		if c == "" || strings.Contains(c, Separator) {
			return Path{}, fmt.Errorf("%w: invalid component %q", ErrInvalidPath, c)
		}
	}
	if len(all) == 0 {
		return Root(), nil
	}
	return Path{clean: Separator + strings.Join(all, Separator)}, nil
}

// String returns the canonical wire form of the path.
func (p Path) String() string {
	if p.clean == "" {
		return Separator
	}
	return p.clean
}

// IsRoot reports whether p is the root path.
func (p Path) IsRoot() bool {
	return p.clean == "" || p.clean == Separator
}

// Components returns the path's components, root to leaf, as a fresh slice.
func (p Path) Components() []string {
	if p.IsRoot() {
		return nil
	}
	return strings.Split(p.clean[1:], Separator)
}

// Depth returns the number of components (0 for root).
func (p Path) Depth() int {
	return len(p.Components())
}

// Parent returns the path with the last component removed. It is undefined
// for the root, for which it returns an ErrInvalidPath error.
func (p Path) Parent() (Path, error) {
	comps := p.Components()
	if len(comps) == 0 {
		return Path{}, fmt.Errorf("%w: root has no parent", ErrInvalidPath)
	}
	return New(Root(), comps[:len(comps)-1]...)
}

// LastComponent returns the final component of the path. Undefined for root.
func (p Path) LastComponent() (string, error) {
	comps := p.Components()
	if len(comps) == 0 {
		return "", fmt.Errorf("%w: root has no last component", ErrInvalidPath)
	}
	return comps[len(comps)-1], nil
}

// IsSubpath reports whether other lies at or beneath p: p's component
// sequence is a prefix of other's. IsSubpath is reflexive.
func (p Path) IsSubpath(other Path) bool {
	pc, oc := p.Components(), other.Components()
	if len(pc) > len(oc) {
		return false
	}
	for i, c := range pc {
		if oc[i] != c {
			return false
		}
	}
	return true
}

// DirectChild returns the component of p that is the first step away from
// ancestor, toward p. It requires that ancestor is a strict subpath of p.
func (p Path) DirectChild(ancestor Path) (string, error) {
	if !ancestor.IsSubpath(p) || ancestor.Equal(p) {
		return "", fmt.Errorf("%w: %q is not a strict ancestor of %q", ErrInvalidPath, ancestor, p)
	}
	return p.Components()[ancestor.Depth()], nil
}

// Equal reports whether p and other denote the same path.
func (p Path) Equal(other Path) bool {
	return p.String() == other.String()
}

// Less imposes a total lexicographic order over paths, comparing components
// pairwise and falling back to length when one is a prefix of the other.
func (p Path) Less(other Path) bool {
	pc, oc := p.Components(), other.Components()
	for i := 0; i < len(pc) && i < len(oc); i++ {
		if pc[i] != oc[i] {
			return pc[i] < oc[i]
		}
	}
	return len(pc) < len(oc)
}

// ToLocalFile renders the path as a local filesystem path rooted at root,
// for use by storage servers translating a Path into an on-disk location.
func (p Path) ToLocalFile(root string) string {
	return ospath.Join(append([]string{root}, p.Components()...)...)
}

// Iterator returns a read-only, restartable iterator over p's components
// from root to leaf.
func (p Path) Iterator() *Iterator {
	return &Iterator{components: p.Components()}
}

// Iterator walks a Path's components from root to leaf. It does not support
// removal: the sequence it walks is immutable.
type Iterator struct {
	components []string
	pos        int
}

// HasNext reports whether another component remains.
func (it *Iterator) HasNext() bool {
	return it.pos < len(it.components)
}

// Next returns the next component and advances the iterator.
func (it *Iterator) Next() string {
	c := it.components[it.pos]
	it.pos++
	return c
}

// SortPaths sorts paths in place using Path.Less, useful for deterministic
// listings and test output.
func SortPaths(paths []Path) {
	sort.Slice(paths, func(i, j int) bool { return paths[i].Less(paths[j]) })
}

// GobEncode implements gob.GobEncoder so Path travels over net/rpc as the
// plain wire string instead of its internal representation.
func (p Path) GobEncode() ([]byte, error) {
	return []byte(p.String()), nil
}

// GobDecode implements gob.GobDecoder.
func (p *Path) GobDecode(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (p Path) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Path) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
