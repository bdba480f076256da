package edit

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// DefaultMarkerTag follows every pending-edit block on its own line, so
// vault search surfaces outstanding proposals.
const DefaultMarkerTag = "#ai_edit"

// Fence tags for the two pending-record block flavors.
const (
	editFence    = "ai-edit"
	newNoteFence = "ai-new-note"
)

// RecordKind classifies a pending edit record.
type RecordKind string

const (
	RecordReplace RecordKind = "replace"
	RecordAdd     RecordKind = "add"
	RecordDelete  RecordKind = "delete"
)

// Record is the durable audit unit spliced into a note pending a human
// decision. Invariant: Before is empty for pure additions, After is empty
// for pure deletions, both are non-empty only for replacements. The record
// lives in state Proposed until a resolver accepts (substituting After) or
// rejects (substituting Before) it.
type Record struct {
	ID     string     `json:"id"`
	Kind   RecordKind `json:"kind"`
	Before string     `json:"before"`
	After  string     `json:"after"`
}

// NewRecord builds a Record with a fresh opaque id.
func NewRecord(kind RecordKind, before, after string) Record {
	return Record{ID: uuid.NewString(), Kind: kind, Before: before, After: after}
}

// Render serializes the record as the fenced block plus marker line that
// gets spliced into note text:
//
//	```ai-edit
//	{"id":...,"kind":...,"before":...,"after":...}
//	```
//	#ai_edit
func (r Record) Render(markerTag string) string {
	if markerTag == "" {
		markerTag = DefaultMarkerTag
	}
	payload, _ := json.Marshal(r)
	return "```" + editFence + "\n" + string(payload) + "\n```\n" + markerTag
}

// newNoteBanner is the header written at the top of a freshly created note:
// an ai-new-note block carrying just the id, the marker, and a separator
// before the generated body.
func newNoteBanner(id, markerTag string) string {
	if markerTag == "" {
		markerTag = DefaultMarkerTag
	}
	payload, _ := json.Marshal(struct {
		ID string `json:"id"`
	}{ID: id})
	return "```" + newNoteFence + "\n" + string(payload) + "\n```\n" + markerTag + "\n\n"
}

// pendingBlock is one fenced record found in a document.
type pendingBlock struct {
	record    Record
	isNewNote bool
	startLine int // index of the opening fence line
	endLine   int // index one past the marker line (exclusive)
}

// scanPending finds every ai-edit and ai-new-note block in content, in
// document order. Malformed blocks (bad JSON, missing closing fence) are
// skipped rather than failing the scan.
func scanPending(content, markerTag string) []pendingBlock {
	if markerTag == "" {
		markerTag = DefaultMarkerTag
	}
	lines := strings.Split(content, "\n")
	var blocks []pendingBlock

	for i := 0; i < len(lines); i++ {
		var isNewNote bool
		switch strings.TrimSpace(lines[i]) {
		case "```" + editFence:
			isNewNote = false
		case "```" + newNoteFence:
			isNewNote = true
		default:
			continue
		}

		closing := -1
		for j := i + 1; j < len(lines); j++ {
			if strings.TrimSpace(lines[j]) == "```" {
				closing = j
				break
			}
		}
		if closing < 0 {
			continue
		}

		var rec Record
		payload := strings.Join(lines[i+1:closing], "\n")
		if err := json.Unmarshal([]byte(payload), &rec); err != nil || rec.ID == "" {
			continue
		}

		end := closing + 1
		if end < len(lines) && strings.TrimSpace(lines[end]) == markerTag {
			end++
		}
		blocks = append(blocks, pendingBlock{
			record:    rec,
			isNewNote: isNewNote,
			startLine: i,
			endLine:   end,
		})
		i = end - 1
	}
	return blocks
}

// shortID trims an id for log lines.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
