// Package edit implements the mediated edit pipeline: parsing the position
// mini-language proposed by the model, validating instructions against the
// vault, and splicing reviewable pending-edit records into note text.
package edit

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind discriminates the closed set of position variants. The textual
// tokens ("start", "after:...", "replace:n-m", ...) are a wire contract
// with the model; changing them is a breaking protocol change.
type Kind int

const (
	KindStart Kind = iota
	KindEnd
	KindCreate
	KindOpen
	KindAfter
	KindInsert
	KindReplace
	KindReplaceLiteral
	KindDelete
)

// Position is the parsed form of a position spec. Downstream code switches
// exhaustively on Kind instead of re-parsing prefix strings.
type Position struct {
	Kind    Kind
	Heading string // KindAfter
	Start   int    // KindInsert/KindReplace/KindDelete, 1-indexed
	End     int    // KindReplace/KindDelete, inclusive
	Literal string // KindReplaceLiteral: substring to replace
}

// ParsePosition parses a position spec string. Errors are position errors
// in the batch taxonomy: attached to the edit, never thrown past it.
func ParsePosition(spec string) (Position, error) {
	switch spec {
	case "start":
		return Position{Kind: KindStart}, nil
	case "end":
		return Position{Kind: KindEnd}, nil
	case "create":
		return Position{Kind: KindCreate}, nil
	case "open":
		return Position{Kind: KindOpen}, nil
	}

	switch {
	case strings.HasPrefix(spec, "after:"):
		heading := strings.TrimSpace(strings.TrimPrefix(spec, "after:"))
		if heading == "" {
			return Position{}, fmt.Errorf("after: requires a heading text")
		}
		return Position{Kind: KindAfter, Heading: heading}, nil

	case strings.HasPrefix(spec, "insert:"):
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(spec, "insert:")))
		if err != nil {
			return Position{}, fmt.Errorf("insert: requires a line number, got %q", spec)
		}
		return Position{Kind: KindInsert, Start: n}, nil

	case strings.HasPrefix(spec, "replace:"):
		rest := strings.TrimSpace(strings.TrimPrefix(spec, "replace:"))
		start, end, ok := parseRange(rest)
		if ok {
			return Position{Kind: KindReplace, Start: start, End: end}, nil
		}
		// Non-numeric replace falls back to literal substring matching
		// against the document text.
		return Position{Kind: KindReplaceLiteral, Literal: rest}, nil

	case strings.HasPrefix(spec, "delete:"):
		rest := strings.TrimSpace(strings.TrimPrefix(spec, "delete:"))
		start, end, ok := parseRange(rest)
		if !ok {
			return Position{}, fmt.Errorf("delete: requires a line or range, got %q", rest)
		}
		return Position{Kind: KindDelete, Start: start, End: end}, nil
	}

	return Position{}, fmt.Errorf("unknown position %q", spec)
}

// parseRange parses "n" or "n-m" into an inclusive 1-indexed range.
func parseRange(s string) (start, end int, ok bool) {
	if i := strings.IndexByte(s, '-'); i >= 0 {
		a, err1 := strconv.Atoi(strings.TrimSpace(s[:i]))
		b, err2 := strconv.Atoi(strings.TrimSpace(s[i+1:]))
		if err1 != nil || err2 != nil {
			return 0, 0, false
		}
		return a, b, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, 0, false
	}
	return n, n, true
}

// Sort keys for bottom-to-top application order. Applying from the bottom
// keeps lower line numbers valid until their own edit consumes them.
const (
	keyEnd     = int64(math.MaxInt64)
	keyAfter   = int64(math.MaxInt64) - 1
	keyLiteral = int64(math.MaxInt64) - 2
)

// sortKey returns the effective line number used to order edits within one
// document, highest first. The key is total: every variant maps somewhere.
func (p Position) sortKey() int64 {
	switch p.Kind {
	case KindStart:
		return 0
	case KindEnd:
		return keyEnd
	case KindAfter:
		return keyAfter
	case KindReplaceLiteral:
		return keyLiteral
	case KindInsert, KindReplace, KindDelete:
		return int64(p.Start)
	default:
		// create/open never reach the splice stage
		return 0
	}
}
