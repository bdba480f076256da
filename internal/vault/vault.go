// Package vault implements the document repository: a filesystem-backed
// markdown note vault with a resolved-link table, configured exclusion
// folders, and link-name resolution.
package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sentinel errors matched by callers with errors.Is.
var (
	ErrNotFound = errors.New("note not found")
	ErrExcluded = errors.New("note is in an excluded folder")
	ErrExists   = errors.New("note already exists")
)

// Note is a single markdown document in the vault. Paths are vault-relative
// with forward slashes, e.g. "Projects/roadmap.md".
type Note struct {
	Path    string
	Folder  string
	Content string
	ModTime time.Time
}

// Vault is the document repository. It scans a directory tree for *.md files
// on Open and serves reads from memory; writes go through to disk and update
// the in-memory index. Excluded folders are still indexed (the graph walker
// needs to see them as walls) but are filtered from listings.
type Vault struct {
	root     string
	excluded []string
	log      *zap.Logger

	mu         sync.RWMutex
	notes      map[string]*Note
	links      map[string][]string // source path -> resolved target paths
	generation uint64

	watcher *watcher
}

// Option configures a Vault.
type Option func(*Vault)

// WithExcludedFolders marks vault-relative folder paths whose contents are
// invisible to context assembly and rejected as edit targets.
func WithExcludedFolders(folders []string) Option {
	return func(v *Vault) {
		for _, f := range folders {
			f = strings.Trim(filepath.ToSlash(f), "/")
			if f != "" {
				v.excluded = append(v.excluded, f)
			}
		}
	}
}

// WithLogger sets the logger. Defaults to zap.NewNop().
func WithLogger(log *zap.Logger) Option {
	return func(v *Vault) { v.log = log }
}

// Open scans root for markdown files and builds the note index and the
// resolved-link table.
func Open(root string, opts ...Option) (*Vault, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve vault root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open vault: %s is not a directory", root)
	}

	v := &Vault{
		root:  abs,
		log:   zap.NewNop(),
		notes: make(map[string]*Note),
		links: make(map[string][]string),
	}
	for _, opt := range opts {
		opt(v)
	}
	if err := v.scan(); err != nil {
		return nil, err
	}
	return v, nil
}

// Root returns the absolute vault root directory.
func (v *Vault) Root() string { return v.root }

// Generation returns a counter bumped on every mutation of the index.
// Caches derived from the vault use it to detect staleness.
func (v *Vault) Generation() uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.generation
}

// scan walks the tree and (re)builds the full index.
func (v *Vault) scan() error {
	notes := make(map[string]*Note)
	err := filepath.WalkDir(v.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && p != v.root {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(p), ".md") {
			return nil
		}
		rel, err := filepath.Rel(v.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		data, err := os.ReadFile(p)
		if err != nil {
			v.log.Warn("skipping unreadable note", zap.String("path", rel), zap.Error(err))
			return nil
		}
		info, _ := d.Info()
		n := &Note{Path: rel, Folder: folderOf(rel), Content: string(data)}
		if info != nil {
			n.ModTime = info.ModTime()
		}
		notes[rel] = n
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan vault: %w", err)
	}

	v.mu.Lock()
	v.notes = notes
	v.rebuildLinksLocked()
	v.generation++
	v.mu.Unlock()

	v.log.Debug("vault scanned", zap.Int("notes", len(notes)))
	return nil
}

// IsExcluded reports whether path lies under a configured excluded folder.
func (v *Vault) IsExcluded(p string) bool {
	p = filepath.ToSlash(p)
	for _, folder := range v.excluded {
		if p == folder || strings.HasPrefix(p, folder+"/") {
			return true
		}
	}
	return false
}

// Exists reports whether a note with this exact path is indexed.
func (v *Vault) Exists(p string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.notes[filepath.ToSlash(p)]
	return ok
}

// Read returns the content of the note at the exact vault-relative path.
// Exclusion is not checked here; callers that must not see excluded notes
// check IsExcluded first (the validator does, the assembler does).
func (v *Vault) Read(p string) (string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	n, ok := v.notes[filepath.ToSlash(p)]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	return n.Content, nil
}

// List returns all non-excluded note paths in sorted order.
func (v *Vault) List() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]string, 0, len(v.notes))
	for p := range v.notes {
		if !v.IsExcluded(p) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// FolderOf returns the parent folder of a vault-relative path ("" for root).
func (v *Vault) FolderOf(p string) string { return folderOf(p) }

// FolderNotes returns the non-excluded notes directly inside folder, sorted.
func (v *Vault) FolderNotes(folder string) []string {
	folder = strings.Trim(filepath.ToSlash(folder), "/")
	v.mu.RLock()
	defer v.mu.RUnlock()
	var out []string
	for p, n := range v.notes {
		if n.Folder == folder && !v.IsExcluded(p) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// Resolve maps a link target or bare name to a note path. Precedence:
// exact path match, then suffix match against a path segment, then bare
// filename match. Ambiguous short names resolve to the nearest match
// (shortest path wins, then lexicographic for determinism).
func (v *Vault) Resolve(nameOrPath string) (string, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return resolveIn(v.notes, nameOrPath)
}

func resolveIn(notes map[string]*Note, nameOrPath string) (string, bool) {
	name := filepath.ToSlash(strings.TrimSpace(nameOrPath))
	if name == "" {
		return "", false
	}

	if _, ok := notes[name]; ok {
		return name, true
	}
	withExt := name
	if !strings.EqualFold(path.Ext(withExt), ".md") {
		withExt += ".md"
	}
	if _, ok := notes[withExt]; ok {
		return withExt, true
	}

	best := ""
	for p := range notes {
		if strings.HasSuffix(p, "/"+withExt) && closer(p, best) {
			best = p
		}
	}
	if best != "" {
		return best, true
	}

	base := path.Base(withExt)
	for p := range notes {
		if strings.EqualFold(path.Base(p), base) && closer(p, best) {
			best = p
		}
	}
	if best != "" {
		return best, true
	}
	return "", false
}

// ResolvedLinks returns a copy of the resolved-link table
// (source path -> target paths). Never nil.
func (v *Vault) ResolvedLinks() map[string][]string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make(map[string][]string, len(v.links))
	for src, targets := range v.links {
		out[src] = append([]string(nil), targets...)
	}
	return out
}

// LinksFrom returns the resolved forward-link targets of a note.
func (v *Vault) LinksFrom(p string) []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]string(nil), v.links[filepath.ToSlash(p)]...)
}

// Write replaces the content of an existing note and reindexes its links.
func (v *Vault) Write(p, content string) error {
	p = filepath.ToSlash(p)
	v.mu.RLock()
	_, ok := v.notes[p]
	v.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	if err := atomicWrite(filepath.Join(v.root, filepath.FromSlash(p)), content); err != nil {
		return fmt.Errorf("write note %s: %w", p, err)
	}
	v.index(p, content)
	return nil
}

// Create writes a new note, making parent folders as needed.
func (v *Vault) Create(p, content string) error {
	p = filepath.ToSlash(p)
	if v.Exists(p) {
		return fmt.Errorf("%w: %s", ErrExists, p)
	}
	full := filepath.Join(v.root, filepath.FromSlash(p))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create folder for %s: %w", p, err)
	}
	if err := atomicWrite(full, content); err != nil {
		return fmt.Errorf("create note %s: %w", p, err)
	}
	v.index(p, content)
	return nil
}

// Delete removes a note from disk and from the index.
func (v *Vault) Delete(p string) error {
	p = filepath.ToSlash(p)
	if !v.Exists(p) {
		return fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	if err := os.Remove(filepath.Join(v.root, filepath.FromSlash(p))); err != nil {
		return fmt.Errorf("delete note %s: %w", p, err)
	}
	v.mu.Lock()
	delete(v.notes, p)
	v.rebuildLinksLocked()
	v.generation++
	v.mu.Unlock()
	return nil
}

// index inserts or replaces a single note in memory and refreshes the link
// table. Link resolution depends on the full note set, so the table is
// rebuilt rather than patched.
func (v *Vault) index(p, content string) {
	v.mu.Lock()
	v.notes[p] = &Note{Path: p, Folder: folderOf(p), Content: content, ModTime: time.Now()}
	v.rebuildLinksLocked()
	v.generation++
	v.mu.Unlock()
}

// forget drops a note from the index without touching disk. Used by the
// watcher when a file disappears.
func (v *Vault) forget(p string) {
	v.mu.Lock()
	if _, ok := v.notes[p]; ok {
		delete(v.notes, p)
		v.rebuildLinksLocked()
		v.generation++
	}
	v.mu.Unlock()
}

func folderOf(p string) string {
	dir := path.Dir(filepath.ToSlash(p))
	if dir == "." {
		return ""
	}
	return dir
}

// closer reports whether candidate is a nearer match than best: fewer path
// segments first, then shorter, then lexicographically smaller.
func closer(candidate, best string) bool {
	if best == "" {
		return true
	}
	cd, bd := strings.Count(candidate, "/"), strings.Count(best, "/")
	if cd != bd {
		return cd < bd
	}
	if len(candidate) != len(best) {
		return len(candidate) < len(best)
	}
	return candidate < best
}

// atomicWrite writes content to a temp file and renames it into place.
func atomicWrite(full, content string) error {
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, full); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
