// Package store persists note embeddings in a local SQLite database and
// answers similarity queries over them.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"vaultmind/internal/embedding"
)

// indexWorkers bounds concurrent embedding calls during a full reindex.
const indexWorkers = 4

// NoteVectors stores one embedding per note path, keyed by a content hash
// so unchanged notes are not re-embedded.
type NoteVectors struct {
	db     *sql.DB
	engine embedding.Engine
	log    *zap.Logger
	mu     sync.Mutex
}

// Hit is a similarity search result. Score is cosine similarity mapped
// onto [0, 1].
type Hit struct {
	Path  string
	Score float64
}

// Open initializes the database at path, creating parent directories and
// the schema as needed.
func Open(path string, engine embedding.Engine, log *zap.Logger) (*NoteVectors, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open vector database: %w", err)
	}

	s := &NoteVectors{db: db, engine: engine, log: log}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *NoteVectors) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS note_vectors (
		path TEXT PRIMARY KEY,
		content_hash TEXT NOT NULL,
		embedding BLOB NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create note_vectors table: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *NoteVectors) Close() error {
	return s.db.Close()
}

// Index embeds text and upserts the vector for path. Unchanged content is
// skipped based on its hash.
func (s *NoteVectors) Index(ctx context.Context, path, text string) error {
	hash := contentHash(text)

	s.mu.Lock()
	var stored string
	err := s.db.QueryRowContext(ctx,
		`SELECT content_hash FROM note_vectors WHERE path = ?`, path).Scan(&stored)
	s.mu.Unlock()
	if err == nil && stored == hash {
		return nil
	}
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("query vector for %s: %w", path, err)
	}

	vec, err := s.engine.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed %s: %w", path, err)
	}
	if len(vec) == 0 {
		return fmt.Errorf("embed %s: empty vector", path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO note_vectors (path, content_hash, embedding, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO UPDATE SET
			content_hash = excluded.content_hash,
			embedding = excluded.embedding,
			updated_at = CURRENT_TIMESTAMP`,
		path, hash, encodeVector(vec))
	if err != nil {
		return fmt.Errorf("store vector for %s: %w", path, err)
	}
	s.log.Debug("indexed note", zap.String("path", path))
	return nil
}

// IndexAll indexes every note returned by read, a few at a time. The
// first failure cancels the remaining work.
func (s *NoteVectors) IndexAll(ctx context.Context, paths []string, read func(string) (string, error)) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(indexWorkers)

	for _, path := range paths {
		g.Go(func() error {
			text, err := read(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			return s.Index(ctx, path, text)
		})
	}
	return g.Wait()
}

// Forget removes the stored vector for path, if any.
func (s *NoteVectors) Forget(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM note_vectors WHERE path = ?`, path)
	return err
}

// Similar embeds query and returns up to limit stored notes with score at
// or above minScore, best first. Ties break on path for determinism.
func (s *NoteVectors) Similar(ctx context.Context, query string, limit int, minScore float64) ([]Hit, error) {
	if limit <= 0 {
		return nil, nil
	}

	qvec, err := s.engine.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	s.mu.Lock()
	rows, err := s.db.QueryContext(ctx, `SELECT path, embedding FROM note_vectors`)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("query vectors: %w", err)
	}

	var hits []Hit
	for rows.Next() {
		var path string
		var blob []byte
		if err := rows.Scan(&path, &blob); err != nil {
			rows.Close()
			s.mu.Unlock()
			return nil, fmt.Errorf("scan vector row: %w", err)
		}

		sim, err := embedding.Cosine(qvec, decodeVector(blob))
		if err != nil {
			// Stale vector from a different model dimension.
			s.log.Warn("skipping incompatible vector", zap.String("path", path), zap.Error(err))
			continue
		}

		// Map [-1, 1] onto [0, 1].
		score := (sim + 1) / 2
		if score >= minScore {
			hits = append(hits, Hit{Path: path, Score: score})
		}
	}
	closeErr := rows.Close()
	s.mu.Unlock()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vectors: %w", err)
	}
	if closeErr != nil {
		return nil, closeErr
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Path < hits[j].Path
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// encodeVector packs a vector as little-endian float32 bits.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return vec
}
