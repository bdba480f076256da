package graph

import "go.uber.org/zap"

// MaxDepth caps link traversal. Deeper walks pull in nearly the whole vault
// and stop being useful context.
const MaxDepth = 3

// Repository is the slice of the vault the walker needs.
type Repository interface {
	IsExcluded(path string) bool
	LinksFrom(path string) []string
}

// Visit is one discovered note with the depth of first discovery. BFS
// guarantees the depth is the minimum hop count from the start note.
type Visit struct {
	Path  string
	Depth int
}

// Walker runs breadth-first traversal over forward links and backlinks.
// Excluded notes are walls: they are neither returned nor expanded through.
type Walker struct {
	repo      Repository
	backlinks *BacklinkIndex
	log       *zap.Logger
}

// NewWalker creates a walker. backlinks may be nil, in which case only
// forward links are expanded.
func NewWalker(repo Repository, backlinks *BacklinkIndex, log *zap.Logger) *Walker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Walker{repo: repo, backlinks: backlinks, log: log}
}

// Traverse returns the paths reachable from start within maxDepth hops,
// excluding start itself, in BFS discovery order.
func (w *Walker) Traverse(start string, maxDepth int) []string {
	visits := w.TraverseVisits(start, maxDepth)
	out := make([]string, 0, len(visits))
	for _, v := range visits {
		out = append(out, v.Path)
	}
	return out
}

// TraverseVisits is Traverse with the discovery depth of each path.
// Results are in BFS discovery order, so depths are non-decreasing.
func (w *Walker) TraverseVisits(start string, maxDepth int) []Visit {
	if maxDepth <= 0 {
		return nil
	}
	if maxDepth > MaxDepth {
		maxDepth = MaxDepth
	}
	// An excluded start projects no context at all.
	if w.repo.IsExcluded(start) {
		return nil
	}

	visited := map[string]bool{start: true}
	queue := []Visit{{Path: start, Depth: 0}}
	var result []Visit

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if w.repo.IsExcluded(current.Path) {
			// Wall: encountered, but invisible and never expanded.
			continue
		}
		if current.Depth > 0 {
			result = append(result, current)
		}
		if current.Depth >= maxDepth {
			continue
		}

		for _, next := range w.neighbors(current.Path) {
			if visited[next] {
				continue
			}
			visited[next] = true
			queue = append(queue, Visit{Path: next, Depth: current.Depth + 1})
		}
	}

	w.log.Debug("link traversal complete",
		zap.String("start", start),
		zap.Int("max_depth", maxDepth),
		zap.Int("found", len(result)))
	return result
}

// neighbors returns forward links then backlinks of path, preserving order.
func (w *Walker) neighbors(path string) []string {
	edges := w.repo.LinksFrom(path)
	if w.backlinks != nil {
		edges = append(edges, w.backlinks.Get(path)...)
	}
	return edges
}
