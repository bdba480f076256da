package vault

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFixture creates a vault on disk and returns its root.
func writeFixture(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for p, content := range files {
		full := filepath.Join(root, filepath.FromSlash(p))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return root
}

func TestOpen_IndexesMarkdownOnly(t *testing.T) {
	root := writeFixture(t, map[string]string{
		"A.md":          "hello",
		"notes/B.md":    "world",
		"notes/img.png": "binary",
		"README.txt":    "nope",
	})

	v, err := Open(root)
	require.NoError(t, err)

	assert.Equal(t, []string{"A.md", "notes/B.md"}, v.List())
}

func TestResolve_Precedence(t *testing.T) {
	root := writeFixture(t, map[string]string{
		"A.md":             "",
		"deep/nested/A.md": "",
		"projects/plan.md": "",
		"archive/plan.md":  "",
		"projects/riff.md": "",
	})
	v, err := Open(root)
	require.NoError(t, err)

	// Exact path wins over everything.
	p, ok := v.Resolve("deep/nested/A.md")
	require.True(t, ok)
	assert.Equal(t, "deep/nested/A.md", p)

	// Bare name without extension resolves, nearest match first.
	p, ok = v.Resolve("A")
	require.True(t, ok)
	assert.Equal(t, "A.md", p)

	// Suffix segment match.
	p, ok = v.Resolve("nested/A")
	require.True(t, ok)
	assert.Equal(t, "deep/nested/A.md", p)

	// Ambiguous basename: same depth, shortest path wins.
	p, ok = v.Resolve("plan")
	require.True(t, ok)
	assert.Equal(t, "archive/plan.md", p)

	_, ok = v.Resolve("missing")
	assert.False(t, ok)
}

func TestIsExcluded(t *testing.T) {
	root := writeFixture(t, map[string]string{
		"Private/secret.md": "hidden",
		"Public.md":         "visible",
	})
	v, err := Open(root, WithExcludedFolders([]string{"Private"}))
	require.NoError(t, err)

	assert.True(t, v.IsExcluded("Private/secret.md"))
	assert.True(t, v.IsExcluded("Private/deeper/x.md"))
	assert.False(t, v.IsExcluded("Public.md"))
	assert.False(t, v.IsExcluded("PrivateIsh/x.md"))

	// Excluded notes never show up in listings or folder scans.
	assert.Equal(t, []string{"Public.md"}, v.List())
	assert.Empty(t, v.FolderNotes("Private"))
}

func TestResolvedLinks(t *testing.T) {
	root := writeFixture(t, map[string]string{
		"A.md":       "see [[B]] and [[notes/C]] and [[gone]]",
		"B.md":       "a [markdown link](A.md) here",
		"notes/C.md": "no links",
	})
	v, err := Open(root)
	require.NoError(t, err)

	links := v.ResolvedLinks()
	assert.Equal(t, []string{"B.md", "notes/C.md"}, links["A.md"])
	assert.Equal(t, []string{"A.md"}, links["B.md"])
	assert.NotContains(t, links, "notes/C.md")

	assert.Equal(t, []string{"B.md", "notes/C.md"}, v.LinksFrom("A.md"))
}

func TestWriteAndCreate(t *testing.T) {
	root := writeFixture(t, map[string]string{"A.md": "v1"})
	v, err := Open(root)
	require.NoError(t, err)
	gen := v.Generation()

	require.NoError(t, v.Write("A.md", "v2 with [[New]]"))
	content, err := v.Read("A.md")
	require.NoError(t, err)
	assert.Equal(t, "v2 with [[New]]", content)
	assert.Greater(t, v.Generation(), gen)

	require.NoError(t, v.Create("sub/New.md", "fresh"))
	assert.True(t, v.Exists("sub/New.md"))
	// Link table picks up the now-resolvable [[New]].
	assert.Equal(t, []string{"sub/New.md"}, v.LinksFrom("A.md"))

	assert.ErrorIs(t, v.Create("A.md", "x"), ErrExists)
	assert.ErrorIs(t, v.Write("nope.md", "x"), ErrNotFound)

	_, err = v.Read("nope.md")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFolderNotes(t *testing.T) {
	root := writeFixture(t, map[string]string{
		"p/a.md":   "",
		"p/b.md":   "",
		"p/q/c.md": "",
		"root.md":  "",
	})
	v, err := Open(root)
	require.NoError(t, err)

	assert.Equal(t, []string{"p/a.md", "p/b.md"}, v.FolderNotes("p"))
	assert.Equal(t, []string{"root.md"}, v.FolderNotes(""))
	assert.Equal(t, "p", v.FolderOf("p/a.md"))
	assert.Equal(t, "", v.FolderOf("root.md"))
}

func TestDelete(t *testing.T) {
	root := writeFixture(t, map[string]string{
		"A.md": "[[B]]",
		"B.md": "",
	})
	v, err := Open(root)
	require.NoError(t, err)

	require.NoError(t, v.Delete("B.md"))
	assert.False(t, v.Exists("B.md"))
	assert.Empty(t, v.LinksFrom("A.md"))
	assert.ErrorIs(t, v.Delete("B.md"), ErrNotFound)
}
