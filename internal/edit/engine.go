package edit

import (
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Summary reports batch application results. There is no fatal error path:
// per-edit failures increment Failed and processing continues.
type Summary struct {
	Applied int
	Failed  int
}

// Engine turns validated edits into pending-edit records spliced into note
// text. Notes are never silently mutated: every change lands as a fenced
// record awaiting an explicit accept or reject.
//
// The engine does not lock documents. Concurrent Apply calls over
// overlapping notes are a caller error; serialize batches.
type Engine struct {
	repo      Repository
	markerTag string
	log       *zap.Logger
}

// NewEngine creates an Engine. An empty markerTag uses DefaultMarkerTag.
func NewEngine(repo Repository, markerTag string, log *zap.Logger) *Engine {
	if markerTag == "" {
		markerTag = DefaultMarkerTag
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{repo: repo, markerTag: markerTag, log: log}
}

// Apply writes every valid edit in the batch: new notes are created with a
// creation banner, existing notes gain spliced pending-edit records. Edits
// carrying a validator error count as failed without further processing.
func (e *Engine) Apply(edits []ValidatedEdit) Summary {
	var sum Summary

	var creations []ValidatedEdit
	groups := make(map[string][]ValidatedEdit)
	var groupOrder []string

	for _, ve := range edits {
		if ve.Err != nil {
			sum.Failed++
			continue
		}
		if ve.Position.Kind == KindOpen {
			// Navigation-only, nothing to write.
			sum.Applied++
			continue
		}
		if ve.IsNewFile {
			creations = append(creations, ve)
			continue
		}
		if _, ok := groups[ve.ResolvedPath]; !ok {
			groupOrder = append(groupOrder, ve.ResolvedPath)
		}
		groups[ve.ResolvedPath] = append(groups[ve.ResolvedPath], ve)
	}

	for _, ve := range creations {
		if err := e.createNote(ve); err != nil {
			e.log.Warn("note creation failed",
				zap.String("path", ve.ResolvedPath), zap.Error(err))
			sum.Failed++
			continue
		}
		sum.Applied++
	}

	for _, path := range groupOrder {
		applied, failed := e.applyGroup(path, groups[path])
		sum.Applied += applied
		sum.Failed += failed
	}
	return sum
}

// createNote writes a new note tagged with an ai-new-note banner ahead of
// the proposed body, so creation itself stays reviewable.
func (e *Engine) createNote(ve ValidatedEdit) error {
	rec := NewRecord(RecordAdd, "", ve.New)
	banner := newNoteBanner(rec.ID, e.markerTag)
	if err := e.repo.Create(ve.ResolvedPath, banner+ve.New); err != nil {
		return err
	}
	e.log.Info("note created pending review",
		zap.String("path", ve.ResolvedPath), zap.String("id", shortID(rec.ID)))
	return nil
}

// applyGroup applies all edits targeting one note against a single
// in-memory read and writes the result back once. Edits are ordered by
// descending effective line number: bottom-to-top application keeps the
// line numbers of not-yet-applied edits valid.
func (e *Engine) applyGroup(path string, group []ValidatedEdit) (applied, failed int) {
	content, err := e.repo.Read(path)
	if err != nil {
		e.log.Warn("cannot read edit target", zap.String("path", path), zap.Error(err))
		return 0, len(group)
	}

	sort.SliceStable(group, func(i, j int) bool {
		return group[i].Position.sortKey() > group[j].Position.sortKey()
	})

	for _, ve := range group {
		next, err := e.spliceRecord(content, ve)
		if err != nil {
			e.log.Warn("edit splice failed",
				zap.String("path", path),
				zap.String("position", ve.Instruction.Position),
				zap.Error(err))
			failed++
			continue
		}
		content = next
		applied++
	}

	if applied > 0 {
		if err := e.repo.Write(path, content); err != nil {
			e.log.Warn("write failed, whole group lost", zap.String("path", path), zap.Error(err))
			return 0, len(group)
		}
	}
	return applied, failed
}

// spliceRecord builds the audit record for one edit and splices its
// rendered form into content at the edit's position.
func (e *Engine) spliceRecord(content string, ve ValidatedEdit) (string, error) {
	rec := e.buildRecord(content, ve)
	rendered := rec.Render(e.markerTag)

	pos := ve.Position
	if pos.Kind == KindDelete {
		// A pending deletion replaces the doomed range with the record;
		// the lines come back if the human rejects it.
		pos = Position{Kind: KindReplace, Start: ve.Position.Start, End: ve.Position.End}
	}
	return ApplyPosition(content, pos, rendered)
}

// buildRecord snapshots before/after for audit ahead of mutation. Line
// ranges are read from the document as it stands when this edit applies;
// bottom-to-top ordering keeps them aligned with the validator's view.
func (e *Engine) buildRecord(content string, ve ValidatedEdit) Record {
	before := ""
	switch ve.Position.Kind {
	case KindReplace, KindDelete:
		lines := strings.Split(content, "\n")
		start, end := ve.Position.Start, ve.Position.End
		if start >= 1 && end <= len(lines) && start <= end {
			before = strings.Join(lines[start-1:end], "\n")
		}
	case KindReplaceLiteral:
		before = ve.Position.Literal
	}

	after := ve.Instruction.Content
	if after == before {
		after = ""
	}

	kind := RecordAdd
	switch {
	case ve.Position.Kind == KindDelete || (before != "" && after == ""):
		kind = RecordDelete
	case before != "" && after != "":
		kind = RecordReplace
	}
	return NewRecord(kind, before, after)
}
