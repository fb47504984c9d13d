package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/careerflow-ai/news-rag/internal/domain"
)

// PostgresStore persists the corpus in a single pgvector-backed table,
// one row per chunk with its matrix row index. An alternative to
// FileStore for deployments that already run Postgres; selected via
// STORE_BACKEND=postgres.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection and returns a store instance.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Load reads all chunk rows ordered by matrix row index and rebuilds
// the corpus. An empty table is the valid pre-indexing state.
func (s *PostgresStore) Load(ctx context.Context) (*Corpus, error) {
	query := `SELECT chunk_id, source_id, chunk_index, title, content, url, published, feed, vector
	          FROM corpus_chunks ORDER BY row_idx`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	defer rows.Close()

	c := &Corpus{}
	for rows.Next() {
		var chunk domain.Chunk
		var vectorStr string
		if err := rows.Scan(
			&chunk.ChunkID, &chunk.SourceID, &chunk.ChunkIndex,
			&chunk.Title, &chunk.Text, &chunk.URL, &chunk.Published, &chunk.Feed,
			&vectorStr,
		); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		vector, err := parseVector(vectorStr)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", chunk.ChunkID, err)
		}
		c.Chunks = append(c.Chunks, chunk)
		c.IDs = append(c.IDs, chunk.ChunkID)
		c.Matrix = append(c.Matrix, vector)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Save rewrites the table inside one transaction, so readers see either
// the previous corpus or the new one, never a partial write.
func (s *PostgresStore) Save(ctx context.Context, c *Corpus) error {
	if err := c.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM corpus_chunks`); err != nil {
		return fmt.Errorf("clear corpus: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO corpus_chunks (row_idx, chunk_id, source_id, chunk_index, title, content, url, published, feed, vector)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::vector)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i, id := range c.IDs {
		chunk := c.Chunk(id)
		if chunk == nil {
			// Row kept from an earlier run whose source left the feed.
			chunk = &domain.Chunk{ChunkID: id}
		}
		if _, err := stmt.ExecContext(ctx,
			i, id, chunk.SourceID, chunk.ChunkIndex,
			chunk.Title, chunk.Text, chunk.URL, chunk.Published, chunk.Feed,
			vectorToString(c.Matrix[i]),
		); err != nil {
			return fmt.Errorf("insert chunk %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// vectorToString converts a float32 slice to pgvector string format: [0.1,0.2,0.3].
func vectorToString(v []float32) string {
	parts := make([]string, len(v))
	for i, val := range v {
		parts[i] = fmt.Sprintf("%g", val)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// parseVector is the inverse of vectorToString.
func parseVector(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("malformed vector %q", s)
	}
	s = strings.Trim(s, "[]")
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	vector := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("malformed vector component %q: %w", p, err)
		}
		vector[i] = float32(f)
	}
	return vector, nil
}
