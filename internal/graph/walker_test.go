package graph

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

// fakeRepo is an in-memory link graph for walker tests.
type fakeRepo struct {
	links    map[string][]string
	excluded map[string]bool
	gen      uint64
}

func (f *fakeRepo) IsExcluded(path string) bool        { return f.excluded[path] }
func (f *fakeRepo) LinksFrom(path string) []string     { return f.links[path] }
func (f *fakeRepo) ResolvedLinks() map[string][]string { return f.links }
func (f *fakeRepo) Generation() uint64                 { return f.gen }

func newWalker(f *fakeRepo) *Walker {
	return NewWalker(f, NewBacklinkIndex(f, 0, nil), nil)
}

func TestTraverse_DepthBounds(t *testing.T) {
	f := &fakeRepo{links: map[string][]string{
		"A.md": {"B.md"},
		"B.md": {"C.md"},
		"C.md": {"D.md"},
		"D.md": {"E.md"},
	}}
	w := newWalker(f)

	assert.Nil(t, w.Traverse("A.md", 0))
	assert.Equal(t, []string{"B.md"}, w.Traverse("A.md", 1))
	assert.Equal(t, []string{"B.md", "C.md"}, w.Traverse("A.md", 2))
	// MaxDepth caps requests beyond 3.
	assert.Equal(t, []string{"B.md", "C.md", "D.md"}, w.Traverse("A.md", 7))
}

func TestTraverse_MinimalDepthAssignment(t *testing.T) {
	// D is reachable at depth 1 (direct) and depth 2 (via B); BFS must
	// attribute it to depth 1 and only once.
	f := &fakeRepo{links: map[string][]string{
		"A.md": {"B.md", "D.md"},
		"B.md": {"D.md", "C.md"},
	}}
	w := newWalker(f)

	visits := w.TraverseVisits("A.md", 3)
	want := []Visit{
		{Path: "B.md", Depth: 1},
		{Path: "D.md", Depth: 1},
		{Path: "C.md", Depth: 2},
	}
	if diff := cmp.Diff(want, visits); diff != "" {
		t.Errorf("visits mismatch (-want +got):\n%s", diff)
	}
}

func TestTraverse_BacklinksExpand(t *testing.T) {
	// C links to A, so C is a backlink neighbor of A.
	f := &fakeRepo{links: map[string][]string{
		"C.md": {"A.md"},
	}}
	w := newWalker(f)

	assert.Equal(t, []string{"C.md"}, w.Traverse("A.md", 1))
}

func TestTraverse_ExcludedIsWall(t *testing.T) {
	// A -> Private/secret -> Deep: the excluded note neither appears nor
	// lets traversal pass through it.
	f := &fakeRepo{
		links: map[string][]string{
			"A.md":              {"Private/secret.md", "B.md"},
			"Private/secret.md": {"Deep.md"},
		},
		excluded: map[string]bool{"Private/secret.md": true},
	}
	w := newWalker(f)

	got := w.Traverse("A.md", 3)
	assert.Equal(t, []string{"B.md"}, got)
	assert.NotContains(t, got, "Private/secret.md")
	assert.NotContains(t, got, "Deep.md")
}

func TestTraverse_ExcludedStart(t *testing.T) {
	f := &fakeRepo{
		links:    map[string][]string{"P/x.md": {"A.md"}},
		excluded: map[string]bool{"P/x.md": true},
	}
	w := newWalker(f)

	assert.Empty(t, w.Traverse("P/x.md", 3))
}

func TestTraverse_CycleTerminates(t *testing.T) {
	f := &fakeRepo{links: map[string][]string{
		"A.md": {"B.md"},
		"B.md": {"A.md"},
	}}
	w := newWalker(f)

	assert.Equal(t, []string{"B.md"}, w.Traverse("A.md", 3))
}
