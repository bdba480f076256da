// Package assembly builds bounded, prioritized textual context bundles from
// the vault: the current note, linked notes, same-folder notes, semantic
// matches and manually pinned notes, optionally squeezed under a hard token
// budget by priority-ranked eviction.
package assembly

import "context"

// ScopeConfig controls which notes are pulled into context.
// LinkDepth and MaxLinkedNotes are independent knobs: both must be positive
// for link traversal to run at all.
type ScopeConfig struct {
	LinkDepth             int      `yaml:"link_depth"`              // 0..3
	MaxLinkedNotes        int      `yaml:"max_linked_notes"`        // cap on linked section
	MaxFolderNotes        int      `yaml:"max_folder_notes"`        // cap on same-folder section
	SemanticMatchCount    int      `yaml:"semantic_match_count"`    // 0 disables semantic section
	SemanticMinSimilarity int      `yaml:"semantic_min_similarity"` // 0..100
	ManuallyAddedPaths    []string `yaml:"manually_added_paths"`
}

// DefaultScopeConfig returns a modest scope suited to small budgets.
func DefaultScopeConfig() ScopeConfig {
	return ScopeConfig{
		LinkDepth:             1,
		MaxLinkedNotes:        5,
		MaxFolderNotes:        3,
		SemanticMatchCount:    3,
		SemanticMinSimilarity: 65,
	}
}

// Tier orders context entries for eviction. Higher tiers survive longer;
// TierCurrent is never evicted.
type Tier int

const (
	TierManual Tier = iota
	TierSemantic
	TierFolder
	TierLinkedDeep   // discovered at depth 3 or deeper
	TierLinkedSecond // depth 2
	TierLinkedFirst  // depth 1
	TierCurrent
)

// Label returns the inclusion-reason label rendered in FILE headers.
func (t Tier) Label() string {
	switch t {
	case TierCurrent:
		return "Current Note"
	case TierLinkedFirst, TierLinkedSecond, TierLinkedDeep:
		return "Linked Note"
	case TierFolder:
		return "Folder Note"
	case TierSemantic:
		return "Semantic Match"
	case TierManual:
		return "Manually Added"
	default:
		return "Note"
	}
}

// Entry is one scored candidate document. Entries are built fresh per
// assembly call and never persisted.
type Entry struct {
	Path     string
	Rendered string // line-numbered body, without header/footer
	Tokens   int
	Tier     Tier
}

// BudgetedContext is the result of AssembleWithBudget.
type BudgetedContext struct {
	Rendered    string
	Evicted     []string
	TotalTokens int
}

// Match is one semantic-similarity hit against the vault.
type Match struct {
	Path  string
	Score float64 // 0..1 cosine similarity
}

// SimilarityIndex finds notes semantically close to a query. Implementations
// may fail (index not built, embedding service down); the assembler degrades
// by skipping the semantic section.
type SimilarityIndex interface {
	Similar(ctx context.Context, query string, limit int, minScore float64) ([]Match, error)
}

// Repository is the slice of the vault the assembler reads.
type Repository interface {
	Read(path string) (string, error)
	IsExcluded(path string) bool
	FolderOf(path string) string
	FolderNotes(folder string) []string
}
