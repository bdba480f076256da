package assembly

import (
	"fmt"
	"strings"
)

// Token estimation is a deterministic length-based approximation, not real
// tokenization. Only determinism and monotonicity in text length matter:
// the same text always costs the same, longer text never costs less.
const charsPerToken = 4

// entryOverheadTokens covers one entry's FILE header and END FILE footer.
const entryOverheadTokens = 16

// EstimateTokens approximates the token cost of text, rounding up.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + charsPerToken - 1) / charsPerToken
}

// numberLines prefixes every line with its 1-based line number.
func numberLines(content string) string {
	lines := strings.Split(content, "\n")
	var b strings.Builder
	for i, line := range lines {
		fmt.Fprintf(&b, "%d: %s", i+1, line)
		if i < len(lines)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
