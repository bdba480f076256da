package edit

import (
	"fmt"
	"strings"
)

// ApplyPosition computes the content resulting from applying a positioned
// insertion of text into current. It is a pure function: all line numbers
// refer to current as passed in, so callers applying several edits to one
// document must sequence them bottom-to-top (see Engine).
func ApplyPosition(current string, pos Position, text string) (string, error) {
	switch pos.Kind {
	case KindStart:
		if current == "" {
			return text, nil
		}
		return text + "\n\n" + current, nil

	case KindEnd:
		if current == "" {
			return text, nil
		}
		return current + "\n\n" + text, nil

	case KindAfter:
		return insertAfterHeading(current, pos.Heading, text)

	case KindInsert:
		lines := strings.Split(current, "\n")
		if pos.Start < 1 || pos.Start > len(lines)+1 {
			return "", fmt.Errorf("insert line %d out of range (valid 1-%d)", pos.Start, len(lines)+1)
		}
		return spliceLines(lines, pos.Start-1, pos.Start-1, text), nil

	case KindReplace:
		lines := strings.Split(current, "\n")
		if err := checkRange(pos, len(lines)); err != nil {
			return "", err
		}
		return spliceLines(lines, pos.Start-1, pos.End, text), nil

	case KindReplaceLiteral:
		if pos.Literal == "" {
			return "", fmt.Errorf("replace: requires a line range or target text")
		}
		if !strings.Contains(current, pos.Literal) {
			return "", fmt.Errorf("text to replace not found: %q", pos.Literal)
		}
		// First occurrence only; the spec string gives no way to pick a
		// later one.
		return strings.Replace(current, pos.Literal, text, 1), nil

	case KindDelete:
		lines := strings.Split(current, "\n")
		if err := checkRange(pos, len(lines)); err != nil {
			return "", err
		}
		return joinSplice(lines[:pos.Start-1], nil, lines[pos.End:]), nil

	case KindOpen:
		// Navigation only, no content change.
		return current, nil

	default:
		return "", fmt.Errorf("position kind %d cannot be applied to content", pos.Kind)
	}
}

func checkRange(pos Position, lineCount int) error {
	if pos.Start < 1 || pos.Start > lineCount {
		return fmt.Errorf("line %d out of range (document has %d lines)", pos.Start, lineCount)
	}
	if pos.End < pos.Start || pos.End > lineCount {
		return fmt.Errorf("line range %d-%d out of range (document has %d lines)", pos.Start, pos.End, lineCount)
	}
	return nil
}

// insertAfterHeading finds the heading as a whole line, exact match first
// and case-insensitive as a fallback, and inserts text plus a blank line
// right after it.
func insertAfterHeading(current, heading, text string) (string, error) {
	lines := strings.Split(current, "\n")

	match := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == heading {
			match = i
			break
		}
	}
	if match < 0 {
		for i, line := range lines {
			if strings.EqualFold(strings.TrimSpace(line), heading) {
				match = i
				break
			}
		}
	}
	if match < 0 {
		return "", fmt.Errorf("heading %q not found%s", heading, headingHints(lines))
	}

	inserted := append([]string{}, strings.Split(text, "\n")...)
	inserted = append(inserted, "")
	return joinSplice(lines[:match+1], inserted, lines[match+1:]), nil
}

// headingHints lists up to 5 markdown headings to help the caller correct
// a missed match.
func headingHints(lines []string) string {
	var hints []string
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			hints = append(hints, strings.TrimSpace(line))
			if len(hints) == 5 {
				break
			}
		}
	}
	if len(hints) == 0 {
		return ""
	}
	return "; existing headings: " + strings.Join(hints, ", ")
}

// spliceLines replaces lines[from:to] with text (which may be multi-line).
func spliceLines(lines []string, from, to int, text string) string {
	return joinSplice(lines[:from], strings.Split(text, "\n"), lines[to:])
}

func joinSplice(before, middle, after []string) string {
	out := make([]string, 0, len(before)+len(middle)+len(after))
	out = append(out, before...)
	out = append(out, middle...)
	out = append(out, after...)
	return strings.Join(out, "\n")
}
