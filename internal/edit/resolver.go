package edit

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Decision is the human verdict on a pending record.
type Decision int

const (
	Accept Decision = iota
	Reject
)

// Resolver consumes pending-edit records out of note text. Each record is
// a tiny state machine: Proposed (serialized in the note) moves to Accepted
// or Rejected exactly once, substituting the record's after or before text
// and removing the block and marker.
type Resolver struct {
	repo      Repository
	markerTag string
	log       *zap.Logger
}

// NewResolver creates a Resolver. An empty markerTag uses DefaultMarkerTag.
func NewResolver(repo Repository, markerTag string, log *zap.Logger) *Resolver {
	if markerTag == "" {
		markerTag = DefaultMarkerTag
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{repo: repo, markerTag: markerTag, log: log}
}

// Pending lists the records awaiting a decision in the note at path.
func (r *Resolver) Pending(path string) ([]Record, error) {
	content, err := r.repo.Read(path)
	if err != nil {
		return nil, err
	}
	blocks := scanPending(content, r.markerTag)
	records := make([]Record, 0, len(blocks))
	for _, b := range blocks {
		records = append(records, b.record)
	}
	return records, nil
}

// Resolve applies the decision to the record with the given id in the note
// at path. Accepting an ai-new-note banner keeps the file and strips the
// banner; rejecting it deletes the file.
func (r *Resolver) Resolve(path, id string, decision Decision) error {
	content, err := r.repo.Read(path)
	if err != nil {
		return err
	}

	var target *pendingBlock
	for _, b := range scanPending(content, r.markerTag) {
		if b.record.ID == id {
			b := b
			target = &b
			break
		}
	}
	if target == nil {
		return fmt.Errorf("no pending edit %s in %s", id, path)
	}

	if target.isNewNote {
		if decision == Reject {
			r.log.Info("new note rejected", zap.String("path", path))
			return r.repo.Delete(path)
		}
		return r.substitute(path, content, *target, "")
	}

	replacement := target.record.After
	if decision == Reject {
		replacement = target.record.Before
	}
	return r.substitute(path, content, *target, replacement)
}

// substitute replaces the block's line span with replacement text (dropped
// entirely when empty) and writes the note back.
func (r *Resolver) substitute(path, content string, block pendingBlock, replacement string) error {
	lines := strings.Split(content, "\n")
	before := lines[:block.startLine]
	after := lines[block.endLine:]

	var middle []string
	if replacement != "" {
		middle = strings.Split(replacement, "\n")
	} else {
		// Dropping the block must not leave stray blank separator lines.
		switch {
		case len(after) > 0 && after[0] == "" &&
			(len(before) == 0 || before[len(before)-1] == ""):
			after = after[1:]
		case len(after) == 0 && len(before) > 0 && before[len(before)-1] == "":
			before = before[:len(before)-1]
		}
	}

	result := joinSplice(before, middle, after)
	if err := r.repo.Write(path, result); err != nil {
		return fmt.Errorf("resolve %s in %s: %w", shortID(block.record.ID), path, err)
	}
	r.log.Info("pending edit resolved",
		zap.String("path", path),
		zap.String("id", shortID(block.record.ID)))
	return nil
}
