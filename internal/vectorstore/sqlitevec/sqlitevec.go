// Package sqlitevec stores chunk vectors in a private in-memory SQLite database
// and answers nearest-neighbour queries with the sqlite-vec vec0 extension.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3" // Import sqlite3 driver

	"ragchat/internal/domain"
)

func init() {
	sqlite_vec.Auto()
}

// Storage implements domain.VectorStore on sqlite-vec. Vectors are stored
// unit-normalised so the L2 distance returned by vec0 maps onto cosine similarity.
type Storage struct {
	db        *sql.DB
	dimension int
}

// NewStorage opens an empty in-memory database.
func NewStorage(ctx context.Context) (*Storage, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// every pooled connection would get its own :memory: database
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &Storage{db: db}, nil
}

// Init (re)creates the chunk and vector tables for the given dimension.
func (s *Storage) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	stmts := []string{
		`DROP TABLE IF EXISTS vec_chunks`,
		`DROP TABLE IF EXISTS chunks`,
		`CREATE TABLE chunks (
			id TEXT PRIMARY KEY,
			idx INTEGER NOT NULL,
			content TEXT NOT NULL,
			zero INTEGER NOT NULL DEFAULT 0
		)`,
		fmt.Sprintf(`CREATE VIRTUAL TABLE vec_chunks USING vec0(
			id TEXT PRIMARY KEY,
			embedding FLOAT[%d]
		)`, dimension),
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to initialize tables: %w", err)
		}
	}
	s.dimension = dimension
	return nil
}

// Upsert inserts the chunks and their vectors in one transaction.
func (s *Storage) Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	if s.dimension == 0 {
		return errors.New("store not initialised")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, c := range chunks {
		if len(vectors[i]) != s.dimension {
			return fmt.Errorf("vector dimension mismatch: got %d, want %d", len(vectors[i]), s.dimension)
		}
		vec, zero := normalize(vectors[i])
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chunks (id, idx, content, zero) VALUES (?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET idx = excluded.idx, content = excluded.content, zero = excluded.zero`,
			c.ID, c.Index, c.Text, zero); err != nil {
			return fmt.Errorf("failed to insert chunk: %w", err)
		}
		// vec0 has no UPDATE
		if _, err := tx.ExecContext(ctx, `DELETE FROM vec_chunks WHERE id = ?`, c.ID); err != nil {
			return fmt.Errorf("failed to delete old vector: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO vec_chunks (id, embedding) VALUES (?, ?)`,
			c.ID, serializeFloat32Vector(vec)); err != nil {
			return fmt.Errorf("failed to insert chunk vector: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Search runs a KNN query and converts distances to cosine similarity.
// Results with equal distance are ordered by chunk index.
func (s *Storage) Search(ctx context.Context, vector []float64, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		return nil, nil
	}
	if len(vector) != s.dimension {
		return nil, errors.New("query dimension mismatch")
	}
	q, zeroQuery := normalize(vector)

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.idx, c.content, c.zero, v.distance
		FROM vec_chunks v
		JOIN chunks c ON c.id = v.id
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance, c.idx`,
		serializeFloat32Vector(q), topK)
	if err != nil {
		return nil, fmt.Errorf("failed to perform vector search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []domain.SearchResult
	for rows.Next() {
		var (
			c        domain.Chunk
			zero     bool
			distance float64
		)
		if err := rows.Scan(&c.ID, &c.Index, &c.Text, &zero, &distance); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		score := 0.0
		if !zero && !zeroQuery {
			score = 1 - distance*distance/2
		}
		results = append(results, domain.SearchResult{Chunk: c, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating results: %w", err)
	}
	return results, nil
}

// Close releases the database; the in-memory data is gone afterwards.
func (s *Storage) Close() error {
	return s.db.Close()
}

func normalize(v []float64) ([]float32, bool) {
	n := 0.0
	for _, x := range v {
		n += x * x
	}
	n = math.Sqrt(n)
	out := make([]float32, len(v))
	if n == 0 {
		return out, true
	}
	for i, x := range v {
		out[i] = float32(x / n)
	}
	return out, false
}

// serializeFloat32Vector converts a float32 slice to the byte format expected by sqlite-vec
func serializeFloat32Vector(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], math.Float32bits(v))
	}
	return buf
}
