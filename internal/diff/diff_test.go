package diff

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLongestCommonSubsequence(t *testing.T) {
	got := LongestCommonSubsequence(
		[]string{"a", "b", "c", "d"},
		[]string{"a", "x", "c", "y"},
	)
	assert.Equal(t, []string{"a", "c"}, got)
}

func TestLongestCommonSubsequence_Empty(t *testing.T) {
	assert.Nil(t, LongestCommonSubsequence(nil, []string{"a"}))
	assert.Nil(t, LongestCommonSubsequence([]string{"a"}, nil))
}

func TestDiff_IdenticalTexts(t *testing.T) {
	text := "one\ntwo\nthree"
	lines := Diff(text, text)

	require.Len(t, lines, 3)
	for _, l := range lines {
		assert.Equal(t, Unchanged, l.Kind)
		assert.Equal(t, l.OldLine, l.NewLine)
	}
}

func TestDiff_SingleLineReplace(t *testing.T) {
	// replace:2 with "X" then diff: exactly one removed and one added at
	// line 2.
	oldText := "L1\nL2\nL3"
	newText := "L1\nX\nL3"

	want := []Line{
		{Kind: Unchanged, OldLine: 1, NewLine: 1, Text: "L1"},
		{Kind: Removed, OldLine: 2, Text: "L2"},
		{Kind: Added, NewLine: 2, Text: "X"},
		{Kind: Unchanged, OldLine: 3, NewLine: 3, Text: "L3"},
	}
	if diff := cmp.Diff(want, Diff(oldText, newText)); diff != "" {
		t.Errorf("diff mismatch (-want +got):\n%s", diff)
	}
}

func TestDiff_AdditionAndRemoval(t *testing.T) {
	lines := Diff("a\nb", "a\nb\nc")
	require.Len(t, lines, 3)
	assert.Equal(t, Line{Kind: Added, NewLine: 3, Text: "c"}, lines[2])

	lines = Diff("a\nb\nc", "a\nc")
	require.Len(t, lines, 3)
	assert.Equal(t, Line{Kind: Removed, OldLine: 2, Text: "b"}, lines[1])
}

func TestDiff_EmptySides(t *testing.T) {
	lines := Diff("", "a\nb")
	want := []Line{
		{Kind: Added, NewLine: 1, Text: "a"},
		{Kind: Added, NewLine: 2, Text: "b"},
	}
	assert.Equal(t, want, lines)

	assert.Empty(t, Diff("", ""))
}

func TestDiff_Deterministic(t *testing.T) {
	oldText := "a\nb\nc\na\nb"
	newText := "b\na\nc\nb\na"
	first := Diff(oldText, newText)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Diff(oldText, newText))
	}
}
