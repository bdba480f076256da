package vault

import "regexp"

// Link syntaxes recognized in note bodies:
//   [[Target]], [[Target|alias]], [[Target#heading]]
//   [text](Target.md)
var (
	wikiLinkRE = regexp.MustCompile(`\[\[([^\]\|#]+)(?:#[^\]\|]*)?(?:\|[^\]]*)?\]\]`)
	mdLinkRE   = regexp.MustCompile(`\]\(([^)\s]+\.md)\)`)
)

// extractLinkTargets returns the raw (unresolved) link targets in content,
// in document order, deduplicated.
func extractLinkTargets(content string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(t string) {
		if t != "" && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	for _, m := range wikiLinkRE.FindAllStringSubmatch(content, -1) {
		add(m[1])
	}
	for _, m := range mdLinkRE.FindAllStringSubmatch(content, -1) {
		add(m[1])
	}
	return out
}

// rebuildLinksLocked recomputes the resolved-link table from every indexed
// note. Caller holds v.mu for writing. Targets that do not resolve to an
// indexed note are dropped; self-links are kept (the walker's visited set
// handles them).
func (v *Vault) rebuildLinksLocked() {
	links := make(map[string][]string)
	for src, n := range v.notes {
		var targets []string
		seen := make(map[string]bool)
		for _, raw := range extractLinkTargets(n.Content) {
			resolved, ok := v.resolveLocked(raw)
			if !ok || seen[resolved] {
				continue
			}
			seen[resolved] = true
			targets = append(targets, resolved)
		}
		if len(targets) > 0 {
			links[src] = targets
		}
	}
	v.links = links
}

// resolveLocked is Resolve without locking, for use during a rebuild.
func (v *Vault) resolveLocked(nameOrPath string) (string, bool) {
	// Resolve only reads v.notes, which the caller already guards.
	// Re-implemented here to avoid recursive RLock on a held write lock.
	return resolveIn(v.notes, nameOrPath)
}
