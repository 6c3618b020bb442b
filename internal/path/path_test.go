package path

import (
	"errors"
	"testing"
)

func TestParseRoot(t *testing.T) {
	p, err := Parse("/")
	if err != nil {
		t.Fatalf("Parse(/) returned error: %v", err)
	}
	if !p.IsRoot() {
		t.Fatal("expected root path")
	}
	if p.String() != "/" {
		t.Fatalf("String() = %q, want %q", p.String(), "/")
	}
}

func TestParseRejectsRelativeAndEmptyComponents(t *testing.T) {
	cases := []string{"a/b", "", "/a//b", "/a/"}
	for _, c := range cases {
		if _, err := Parse(c); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("Parse(%q) = %v, want ErrInvalidPath", c, err)
		}
	}
}

func TestIsSubpath(t *testing.T) {
	root := Root()
	a, _ := Parse("/a")
	ab, _ := Parse("/a/b")
	other, _ := Parse("/c")

	if !root.IsSubpath(a) {
		t.Error("root should be subpath-ancestor of everything")
	}
	if !a.IsSubpath(a) {
		t.Error("IsSubpath must be reflexive")
	}
	if !a.IsSubpath(ab) {
		t.Error("/a should be an ancestor of /a/b")
	}
	if ab.IsSubpath(a) {
		t.Error("/a/b should not be an ancestor of /a")
	}
	if a.IsSubpath(other) {
		t.Error("/a and /c are unrelated")
	}
}

func TestDirectChild(t *testing.T) {
	dir, _ := Parse("/a/b")
	file, _ := Parse("/a/b/c/d.txt")

	child, err := file.DirectChild(dir)
	if err != nil {
		t.Fatalf("DirectChild returned error: %v", err)
	}
	if child != "c" {
		t.Fatalf("DirectChild = %q, want %q", child, "c")
	}

	if _, err := dir.DirectChild(dir); err == nil {
		t.Error("DirectChild of a path against itself should fail (not strict)")
	}
}

func TestParentAndLastComponent(t *testing.T) {
	p, _ := Parse("/a/b/c")
	parent, err := p.Parent()
	if err != nil {
		t.Fatalf("Parent returned error: %v", err)
	}
	if parent.String() != "/a/b" {
		t.Fatalf("Parent = %q, want /a/b", parent.String())
	}

	last, err := p.LastComponent()
	if err != nil || last != "c" {
		t.Fatalf("LastComponent = %q, %v", last, err)
	}

	if _, err := Root().Parent(); err == nil {
		t.Error("root Parent() should error")
	}
}

func TestIteratorIsRestartable(t *testing.T) {
	p, _ := Parse("/a/b/c")

	first := p.Iterator()
	var got []string
	for first.HasNext() {
		got = append(got, first.Next())
	}
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Fatalf("unexpected components from first iteration: %v", got)
	}

	second := p.Iterator()
	count := 0
	for second.HasNext() {
		second.Next()
		count++
	}
	if count != 3 {
		t.Fatalf("second iterator walked %d components, want 3", count)
	}
}

func TestEqualAndMapKey(t *testing.T) {
	a1, _ := Parse("/a/b")
	a2, _ := Parse("/a/b")
	b, _ := Parse("/a/c")

	if !a1.Equal(a2) {
		t.Error("equal paths should compare equal")
	}

	m := map[Path]int{a1: 1}
	m[b] = 2
	if m[a2] != 1 {
		t.Error("Path must be usable as a map key with value semantics")
	}
}

func TestToLocalFile(t *testing.T) {
	p, _ := Parse("/a/b")
	got := p.ToLocalFile("/srv/root")
	want := "/srv/root/a/b"
	if got != want {
		t.Fatalf("ToLocalFile = %q, want %q", got, want)
	}
}

func TestGobRoundTrip(t *testing.T) {
	p, _ := Parse("/a/b/c")
	data, err := p.GobEncode()
	if err != nil {
		t.Fatalf("GobEncode: %v", err)
	}
	var out Path
	if err := out.GobDecode(data); err != nil {
		t.Fatalf("GobDecode: %v", err)
	}
	if !out.Equal(p) {
		t.Fatalf("round trip mismatch: got %q, want %q", out, p)
	}
}
