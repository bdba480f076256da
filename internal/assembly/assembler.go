package assembly

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"vaultmind/internal/graph"
)

// queryPrefixLimit bounds the similarity query built from the current note's
// content plus the task text.
const queryPrefixLimit = 2000

// Assembler builds context bundles. Construct one per session and keep it:
// it owns the per-assembly semantic-path cache that the editable-scope
// decision reads back, and it holds the walker whose backlink index spans
// calls.
type Assembler struct {
	repo     Repository
	walker   *graph.Walker
	semantic SimilarityIndex // nil disables the semantic section
	log      *zap.Logger

	mu            sync.Mutex
	semanticPaths []string // matches from the most recent assembly
}

// New creates an Assembler. semantic may be nil.
func New(repo Repository, walker *graph.Walker, semantic SimilarityIndex, log *zap.Logger) *Assembler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Assembler{repo: repo, walker: walker, semantic: semantic, log: log}
}

// Assemble renders every in-scope note with no size constraint and returns
// the labeled bundle.
func (a *Assembler) Assemble(ctx context.Context, currentPath, task string, cfg ScopeConfig) (string, error) {
	entries := a.collect(ctx, currentPath, task, cfg)
	return render(entries), nil
}

// AssembleWithBudget renders in-scope notes under a hard token ceiling.
// availableForContext = max(0, tokenLimit - overheadTokens); entries are
// evicted lowest-priority-first until the bundle fits. The current note is
// never evicted, even if it alone blows the budget - callers detect that
// via TotalTokens.
func (a *Assembler) AssembleWithBudget(ctx context.Context, currentPath, task string, cfg ScopeConfig, tokenLimit, overheadTokens int) (*BudgetedContext, error) {
	if tokenLimit <= 0 {
		return nil, fmt.Errorf("token limit must be positive, got %d", tokenLimit)
	}
	if overheadTokens < 0 {
		overheadTokens = 0
	}
	available := tokenLimit - overheadTokens
	if available < 0 {
		available = 0
	}

	entries := a.collect(ctx, currentPath, task, cfg)
	entries, evicted := evict(entries, available)

	// Re-sort by descending priority so the bundle always leads with the
	// current note regardless of discovery order.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Tier > entries[j].Tier
	})

	total := 0
	for _, e := range entries {
		total += e.Tokens + entryOverheadTokens
	}

	a.log.Debug("budgeted assembly complete",
		zap.Int("entries", len(entries)),
		zap.Int("evicted", len(evicted)),
		zap.Int("total_tokens", total),
		zap.Int("available", available))

	return &BudgetedContext{
		Rendered:    render(entries),
		Evicted:     evicted,
		TotalTokens: total,
	}, nil
}

// LastSemanticPaths returns the semantic match paths of the most recent
// assembly. The similarity index is external, so this cache is how later
// editable-scope decisions reuse the same match set.
func (a *Assembler) LastSemanticPaths() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.semanticPaths...)
}

// collect gathers and scores every candidate note, first inclusion wins.
// Order: current, linked (BFS), same-folder, semantic, manually added.
func (a *Assembler) collect(ctx context.Context, currentPath, task string, cfg ScopeConfig) []Entry {
	var entries []Entry
	seen := make(map[string]bool)

	add := func(p string, tier Tier) {
		if seen[p] || a.repo.IsExcluded(p) {
			return
		}
		content, err := a.repo.Read(p)
		if err != nil {
			a.log.Warn("skipping unreadable context note", zap.String("path", p), zap.Error(err))
			return
		}
		seen[p] = true
		rendered := numberLines(content)
		entries = append(entries, Entry{
			Path:     p,
			Rendered: rendered,
			Tokens:   EstimateTokens(rendered),
			Tier:     tier,
		})
	}

	currentContent := ""
	if !a.repo.IsExcluded(currentPath) {
		if c, err := a.repo.Read(currentPath); err == nil {
			currentContent = c
		}
	}
	add(currentPath, TierCurrent)

	// Linked notes: both knobs must be positive to traverse at all.
	if cfg.LinkDepth > 0 && cfg.MaxLinkedNotes > 0 {
		linked := 0
		for _, v := range a.walker.TraverseVisits(currentPath, cfg.LinkDepth) {
			if linked >= cfg.MaxLinkedNotes {
				break
			}
			if seen[v.Path] {
				continue
			}
			add(v.Path, linkTier(v.Depth))
			linked++
		}
	}

	if cfg.MaxFolderNotes > 0 {
		folder := 0
		for _, p := range a.repo.FolderNotes(a.repo.FolderOf(currentPath)) {
			if folder >= cfg.MaxFolderNotes {
				break
			}
			if seen[p] {
				continue
			}
			add(p, TierFolder)
			folder++
		}
	}

	a.collectSemantic(ctx, currentContent, task, cfg, seen, add)

	for _, p := range cfg.ManuallyAddedPaths {
		add(p, TierManual)
	}

	return entries
}

// collectSemantic queries the similarity index and records the match paths
// for LastSemanticPaths. Any failure degrades to an empty section; context
// assembly never hard-fails over an optional enrichment source.
func (a *Assembler) collectSemantic(ctx context.Context, currentContent, task string, cfg ScopeConfig, seen map[string]bool, add func(string, Tier)) {
	a.mu.Lock()
	a.semanticPaths = nil
	a.mu.Unlock()

	if a.semantic == nil || cfg.SemanticMatchCount <= 0 {
		return
	}

	query := currentContent + "\n" + task
	if len(query) > queryPrefixLimit {
		query = query[:queryPrefixLimit]
	}
	minScore := float64(cfg.SemanticMinSimilarity) / 100

	matches, err := a.semantic.Similar(ctx, query, cfg.SemanticMatchCount, minScore)
	if err != nil {
		a.log.Warn("semantic search unavailable, skipping section", zap.Error(err))
		return
	}

	var paths []string
	for _, m := range matches {
		if m.Score < minScore {
			continue
		}
		paths = append(paths, m.Path)
		add(m.Path, TierSemantic)
	}

	a.mu.Lock()
	a.semanticPaths = paths
	a.mu.Unlock()
}

func linkTier(depth int) Tier {
	switch depth {
	case 1:
		return TierLinkedFirst
	case 2:
		return TierLinkedSecond
	default:
		return TierLinkedDeep
	}
}

// evict removes the lowest-priority entries until the bundle fits in
// available tokens. Ties within a tier break by stable input order: the
// later-collected entry goes first. The current note is never removed.
func evict(entries []Entry, available int) (kept []Entry, evicted []string) {
	total := 0
	for _, e := range entries {
		total += e.Tokens + entryOverheadTokens
	}

	for total > available && len(entries) > 1 {
		victim := -1
		for i, e := range entries {
			if e.Tier == TierCurrent {
				continue
			}
			if victim == -1 || e.Tier <= entries[victim].Tier {
				victim = i
			}
		}
		if victim == -1 {
			break // only the current note remains
		}
		total -= entries[victim].Tokens + entryOverheadTokens
		evicted = append(evicted, entries[victim].Path)
		entries = append(entries[:victim:victim], entries[victim+1:]...)
	}
	return entries, evicted
}

// render joins entries into the bundle wire format: paired header/footer
// lines around a line-numbered body.
func render(entries []Entry) string {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "--- FILE: %q (%s: %q) ---\n", e.Path, e.Tier.Label(), path.Base(e.Path))
		b.WriteString(e.Rendered)
		b.WriteString("\n--- END FILE ---")
	}
	return b.String()
}
