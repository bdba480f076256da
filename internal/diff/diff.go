// Package diff computes line-level diffs for human preview of pending
// edits. It uses the classic dynamic-programming longest-common-subsequence
// over exact line equality; output is fully deterministic.
package diff

// Kind classifies a diff line.
type Kind int

const (
	Unchanged Kind = iota
	Added
	Removed
)

// Line is one row of the diff. OldLine and NewLine are 1-based; a zero
// value means the line does not exist on that side.
type Line struct {
	Kind    Kind
	OldLine int
	NewLine int
	Text    string
}

// Diff computes the line diff between two text versions. A contiguous
// removed-then-added run at one position is the conventional rendering of a
// modification; there is no separate "changed" kind.
func Diff(oldText, newText string) []Line {
	oldLines := splitLines(oldText)
	newLines := splitLines(newText)
	common := LongestCommonSubsequence(oldLines, newLines)

	var out []Line
	i, j := 0, 0
	for _, anchor := range common {
		for i < len(oldLines) && oldLines[i] != anchor {
			out = append(out, Line{Kind: Removed, OldLine: i + 1, Text: oldLines[i]})
			i++
		}
		for j < len(newLines) && newLines[j] != anchor {
			out = append(out, Line{Kind: Added, NewLine: j + 1, Text: newLines[j]})
			j++
		}
		out = append(out, Line{Kind: Unchanged, OldLine: i + 1, NewLine: j + 1, Text: anchor})
		i++
		j++
	}
	for ; i < len(oldLines); i++ {
		out = append(out, Line{Kind: Removed, OldLine: i + 1, Text: oldLines[i]})
	}
	for ; j < len(newLines); j++ {
		out = append(out, Line{Kind: Added, NewLine: j + 1, Text: newLines[j]})
	}
	return out
}

// LongestCommonSubsequence returns the LCS of two line sequences using
// O(n*m) dynamic programming with exact string equality.
func LongestCommonSubsequence(a, b []string) []string {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return nil
	}

	// dp[i][j] = LCS length of a[:i], b[:j]
	dp := make([][]int, n+1)
	for i := range dp {
		dp[i] = make([]int, m+1)
	}
	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			if a[i-1] == b[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else if dp[i-1][j] >= dp[i][j-1] {
				dp[i][j] = dp[i-1][j]
			} else {
				dp[i][j] = dp[i][j-1]
			}
		}
	}

	// Backtrack. Preferring the "up" direction on ties mirrors the fill
	// above, keeping output deterministic.
	lcs := make([]string, 0, dp[n][m])
	for i, j := n, m; i > 0 && j > 0; {
		switch {
		case a[i-1] == b[j-1]:
			lcs = append(lcs, a[i-1])
			i--
			j--
		case dp[i-1][j] >= dp[i][j-1]:
			i--
		default:
			j--
		}
	}
	// Reverse into document order.
	for l, r := 0, len(lcs)-1; l < r; l, r = l+1, r-1 {
		lcs[l], lcs[r] = lcs[r], lcs[l]
	}
	return lcs
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, text[start:i])
			start = i + 1
		}
	}
	return append(lines, text[start:])
}
