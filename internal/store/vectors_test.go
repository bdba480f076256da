package store

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine maps known texts to fixed vectors and counts calls.
type fakeEngine struct {
	vectors map[string][]float32
	calls   atomic.Int64
}

func (f *fakeEngine) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls.Add(1)
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 0, 0}, nil
}

func (f *fakeEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = f.Embed(ctx, t)
	}
	return out, nil
}

func (f *fakeEngine) Dimensions() int { return 3 }
func (f *fakeEngine) Name() string    { return "fake" }

func openTestStore(t *testing.T, eng *fakeEngine) *NoteVectors {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "vectors.db"), eng, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSimilar_RanksByCosine(t *testing.T) {
	eng := &fakeEngine{vectors: map[string][]float32{
		"query":    {1, 0, 0},
		"close":    {0.9, 0.1, 0},
		"far":      {0, 1, 0},
		"opposite": {-1, 0, 0},
	}}
	s := openTestStore(t, eng)

	ctx := context.Background()
	require.NoError(t, s.Index(ctx, "close.md", "close"))
	require.NoError(t, s.Index(ctx, "far.md", "far"))
	require.NoError(t, s.Index(ctx, "opposite.md", "opposite"))

	hits, err := s.Similar(ctx, "query", 10, 0)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "close.md", hits[0].Path)
	assert.Equal(t, "far.md", hits[1].Path)
	assert.Equal(t, "opposite.md", hits[2].Path)
	assert.InDelta(t, 0.0, hits[2].Score, 1e-9)
}

func TestSimilar_MinScoreAndLimit(t *testing.T) {
	eng := &fakeEngine{vectors: map[string][]float32{
		"query": {1, 0, 0},
		"a":     {1, 0, 0},
		"b":     {0.9, 0.1, 0},
		"c":     {0, 1, 0},
	}}
	s := openTestStore(t, eng)

	ctx := context.Background()
	for _, n := range []string{"a", "b", "c"} {
		require.NoError(t, s.Index(ctx, n+".md", n))
	}

	hits, err := s.Similar(ctx, "query", 10, 0.9)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a.md", hits[0].Path)

	hits, err = s.Similar(ctx, "query", 1, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a.md", hits[0].Path)
}

func TestIndex_SkipsUnchangedContent(t *testing.T) {
	eng := &fakeEngine{}
	s := openTestStore(t, eng)

	ctx := context.Background()
	require.NoError(t, s.Index(ctx, "a.md", "same text"))
	before := eng.calls.Load()

	require.NoError(t, s.Index(ctx, "a.md", "same text"))
	assert.Equal(t, before, eng.calls.Load())

	require.NoError(t, s.Index(ctx, "a.md", "changed text"))
	assert.Greater(t, eng.calls.Load(), before)
}

func TestForget(t *testing.T) {
	eng := &fakeEngine{}
	s := openTestStore(t, eng)

	ctx := context.Background()
	require.NoError(t, s.Index(ctx, "a.md", "text"))
	require.NoError(t, s.Forget(ctx, "a.md"))

	hits, err := s.Similar(ctx, "anything", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndexAll(t *testing.T) {
	eng := &fakeEngine{}
	s := openTestStore(t, eng)

	notes := map[string]string{"a.md": "alpha", "b.md": "beta", "c.md": "gamma"}
	read := func(path string) (string, error) { return notes[path], nil }

	err := s.IndexAll(context.Background(), []string{"a.md", "b.md", "c.md"}, read)
	require.NoError(t, err)

	hits, err := s.Similar(context.Background(), "alpha", 10, 0)
	require.NoError(t, err)
	assert.Len(t, hits, 3)
}

func TestVectorEncodingRoundTrip(t *testing.T) {
	vec := []float32{0.25, -1.5, 3.75, 0}
	assert.Equal(t, vec, decodeVector(encodeVector(vec)))
}
