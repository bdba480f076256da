// Package graph implements traversal over the vault's link graph: a
// time-bounded backlink index and a breadth-first walker that treats
// excluded notes as walls.
package graph

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultBacklinkTTL bounds how stale the backlink index may get before the
// next lookup triggers a rebuild.
const DefaultBacklinkTTL = 5 * time.Second

// LinkSource supplies the resolved-link table the index is derived from.
// *vault.Vault satisfies it.
type LinkSource interface {
	// ResolvedLinks returns source path -> resolved target paths.
	// A nil or empty map means the table is unavailable or empty; the
	// index then serves empty results rather than failing.
	ResolvedLinks() map[string][]string
	// Generation changes whenever the underlying table may have changed.
	Generation() uint64
}

// BacklinkIndex maps target path -> source paths that link to it. Lookups
// are O(1) amortized; the whole map is rebuilt when older than the TTL or
// when the source generation moved. Rebuild is idempotent, so concurrent
// readers at worst rebuild twice.
type BacklinkIndex struct {
	source LinkSource
	ttl    time.Duration
	log    *zap.Logger

	mu         sync.Mutex
	index      map[string][]string
	builtAt    time.Time
	generation uint64
}

// NewBacklinkIndex creates an index over source. A ttl <= 0 falls back to
// DefaultBacklinkTTL.
func NewBacklinkIndex(source LinkSource, ttl time.Duration, log *zap.Logger) *BacklinkIndex {
	if ttl <= 0 {
		ttl = DefaultBacklinkTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &BacklinkIndex{source: source, ttl: ttl, log: log}
}

// Get returns the paths of notes linking to path. Never returns an error:
// an unavailable link table yields an empty result.
func (b *BacklinkIndex) Get(path string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	gen := b.source.Generation()
	if b.index == nil || time.Since(b.builtAt) > b.ttl || gen != b.generation {
		b.rebuildLocked(gen)
	}
	return append([]string(nil), b.index[path]...)
}

// Invalidate drops the index so the next Get rebuilds it.
func (b *BacklinkIndex) Invalidate() {
	b.mu.Lock()
	b.index = nil
	b.mu.Unlock()
}

func (b *BacklinkIndex) rebuildLocked(gen uint64) {
	links := b.source.ResolvedLinks()
	index := make(map[string][]string, len(links))
	for source, targets := range links {
		for _, target := range targets {
			index[target] = append(index[target], source)
		}
	}
	// Map iteration order is random; sort each bucket so lookups are
	// reproducible across rebuilds.
	for _, sources := range index {
		sort.Strings(sources)
	}
	b.index = index
	b.builtAt = time.Now()
	b.generation = gen
	b.log.Debug("backlink index rebuilt", zap.Int("targets", len(index)))
}
