package edit

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// extractRecords parses every pending record out of a note.
func extractRecords(t *testing.T, content string) []Record {
	t.Helper()
	blocks := scanPending(content, DefaultMarkerTag)
	records := make([]Record, 0, len(blocks))
	for _, b := range blocks {
		records = append(records, b.record)
	}
	return records
}

func TestApply_SplicesRecordInsteadOfRawContent(t *testing.T) {
	repo := newFakeRepo(map[string]string{"A.md": "L1\nL2\nL3"})
	v := NewValidator(repo, nil)
	e := NewEngine(repo, "", nil)

	sum := e.Apply(v.Validate([]Instruction{
		{File: "A.md", Position: "replace:2", Content: "X"},
	}))
	assert.Equal(t, Summary{Applied: 1, Failed: 0}, sum)

	got := repo.notes["A.md"]
	// The raw replacement must not land directly; the record block does.
	assert.Contains(t, got, "```ai-edit")
	assert.Contains(t, got, DefaultMarkerTag)
	assert.True(t, strings.HasPrefix(got, "L1\n"), got)
	assert.True(t, strings.HasSuffix(got, "\nL3"), got)

	recs := extractRecords(t, got)
	require.Len(t, recs, 1)
	assert.Equal(t, RecordReplace, recs[0].Kind)
	assert.Equal(t, "L2", recs[0].Before)
	assert.Equal(t, "X", recs[0].After)
	assert.NotEmpty(t, recs[0].ID)
}

func TestApply_MultipleInsertsBottomToTop(t *testing.T) {
	repo := newFakeRepo(map[string]string{"A.md": "a\nb\nc\nd"})
	v := NewValidator(repo, nil)
	e := NewEngine(repo, "", nil)

	// insert:2 and insert:4 together: the engine must apply insert:4
	// first so insert:2 still points at the original line 2.
	sum := e.Apply(v.Validate([]Instruction{
		{File: "A.md", Position: "insert:2", Content: "AT-TWO"},
		{File: "A.md", Position: "insert:4", Content: "AT-FOUR"},
	}))
	assert.Equal(t, Summary{Applied: 2, Failed: 0}, sum)

	lines := strings.Split(repo.notes["A.md"], "\n")
	idxTwo, idxFour := -1, -1
	for i, l := range lines {
		if strings.Contains(l, "AT-TWO") {
			idxTwo = i
		}
		if strings.Contains(l, "AT-FOUR") {
			idxFour = i
		}
	}
	require.GreaterOrEqual(t, idxTwo, 0)
	require.GreaterOrEqual(t, idxFour, 0)

	// Both landed, in order, with line 1 "a" still first and an intact
	// "b" between the two blocks' anchors.
	assert.Equal(t, "a", lines[0])
	assert.Less(t, idxTwo, idxFour)
	recs := extractRecords(t, repo.notes["A.md"])
	require.Len(t, recs, 2)
	// Records appear in document order: the insert:2 record first.
	assert.Equal(t, "AT-TWO", recs[0].After)
	assert.Equal(t, "AT-FOUR", recs[1].After)
}

func TestApply_SingleWritePerDocument(t *testing.T) {
	repo := newFakeRepo(map[string]string{"A.md": "a\nb\nc"})
	writes := 0
	counting := &writeCountingRepo{fakeRepo: repo, writes: &writes}
	v := NewValidator(counting, nil)
	e := NewEngine(counting, "", nil)

	e.Apply(v.Validate([]Instruction{
		{File: "A.md", Position: "insert:1", Content: "x"},
		{File: "A.md", Position: "insert:3", Content: "y"},
		{File: "A.md", Position: "end", Content: "z"},
	}))
	assert.Equal(t, 1, writes)
}

type writeCountingRepo struct {
	*fakeRepo
	writes *int
}

func (w *writeCountingRepo) Write(path, content string) error {
	*w.writes++
	return w.fakeRepo.Write(path, content)
}

func TestApply_DeleteLeavesReviewableRecord(t *testing.T) {
	repo := newFakeRepo(map[string]string{"A.md": "keep\ndoomed\ntail"})
	v := NewValidator(repo, nil)
	e := NewEngine(repo, "", nil)

	sum := e.Apply(v.Validate([]Instruction{
		{File: "A.md", Position: "delete:2", Content: ""},
	}))
	assert.Equal(t, Summary{Applied: 1}, sum)

	got := repo.notes["A.md"]
	// The doomed line is gone from the body but preserved in the record.
	recs := extractRecords(t, got)
	require.Len(t, recs, 1)
	assert.Equal(t, RecordDelete, recs[0].Kind)
	assert.Equal(t, "doomed", recs[0].Before)
	assert.Empty(t, recs[0].After)
	assert.True(t, strings.HasPrefix(got, "keep\n"))
	assert.True(t, strings.HasSuffix(got, "\ntail"))
}

func TestApply_NewFileGetsBanner(t *testing.T) {
	repo := newFakeRepo(nil)
	v := NewValidator(repo, nil)
	e := NewEngine(repo, "", nil)

	sum := e.Apply(v.Validate([]Instruction{
		{File: "fresh.md", Position: "create", Content: "# Fresh\nbody"},
	}))
	assert.Equal(t, Summary{Applied: 1}, sum)

	got := repo.notes["fresh.md"]
	assert.True(t, strings.HasPrefix(got, "```ai-new-note\n"), got)
	assert.Contains(t, got, DefaultMarkerTag)
	assert.True(t, strings.HasSuffix(got, "# Fresh\nbody"))

	// Banner payload is a bare {id} object.
	lines := strings.Split(got, "\n")
	var banner struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &banner))
	assert.NotEmpty(t, banner.ID)
}

func TestApply_InvalidEditsCountFailedOthersProceed(t *testing.T) {
	repo := newFakeRepo(map[string]string{"A.md": "a\nb"})
	v := NewValidator(repo, nil)
	e := NewEngine(repo, "", nil)

	sum := e.Apply(v.Validate([]Instruction{
		{File: "A.md", Position: "insert:99", Content: "x"},
		{File: "missing.md", Position: "end", Content: "x"},
		{File: "A.md", Position: "end", Content: "ok"},
	}))
	assert.Equal(t, Summary{Applied: 1, Failed: 2}, sum)
	assert.Contains(t, repo.notes["A.md"], "ai-edit")
}

func TestApply_WriteFailureFailsWholeGroupAndContinues(t *testing.T) {
	repo := newFakeRepo(map[string]string{"A.md": "a", "B.md": "b"})
	repo.writeErr = map[string]error{"A.md": errors.New("readonly")}
	v := NewValidator(repo, nil)
	e := NewEngine(repo, "", nil)

	sum := e.Apply(v.Validate([]Instruction{
		{File: "A.md", Position: "end", Content: "x"},
		{File: "B.md", Position: "end", Content: "y"},
	}))
	assert.Equal(t, Summary{Applied: 1, Failed: 1}, sum)
	assert.Contains(t, repo.notes["B.md"], "ai-edit")
}

func TestApply_OpenIsNavigationOnly(t *testing.T) {
	repo := newFakeRepo(map[string]string{"A.md": "untouched"})
	v := NewValidator(repo, nil)
	e := NewEngine(repo, "", nil)

	sum := e.Apply(v.Validate([]Instruction{
		{File: "A.md", Position: "open", Content: ""},
	}))
	assert.Equal(t, Summary{Applied: 1}, sum)
	assert.Equal(t, "untouched", repo.notes["A.md"])
}

func TestRecordRenderScanRoundTrip(t *testing.T) {
	rec := NewRecord(RecordReplace, "old\nlines", "new body")
	doc := "top\n" + rec.Render("#custom_marker") + "\nbottom"

	blocks := scanPending(doc, "#custom_marker")
	require.Len(t, blocks, 1)
	assert.Equal(t, rec, blocks[0].record)
	assert.False(t, blocks[0].isNewNote)
}
