package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/curiolabs/curio-graph/internal/domain"
	"github.com/curiolabs/curio-graph/internal/port"
)

// PostgresVectorIndex implements the vector index on pgvector. The
// post_vectors table assigns a bigserial seq on first insert and
// re-upserts leave it untouched, so ties in search results keep
// first-insertion order across vector replacements.
type PostgresVectorIndex struct {
	store     *PostgresStore
	dimension int
}

// NewPostgresVectorIndex creates a vector index backed by the given
// Postgres store.
func NewPostgresVectorIndex(store *PostgresStore, dimension int) *PostgresVectorIndex {
	return &PostgresVectorIndex{store: store, dimension: dimension}
}

// Dimension returns the fixed vector dimension of the index.
func (v *PostgresVectorIndex) Dimension() int {
	return v.dimension
}

// Upsert inserts or replaces the vector for a post. The length is
// checked in Go so a mismatch reports both dimensions instead of a
// pgvector cast error.
func (v *PostgresVectorIndex) Upsert(ctx context.Context, id string, vector []float32) error {
	if len(vector) != v.dimension {
		return &port.DimensionMismatchError{Want: v.dimension, Got: len(vector)}
	}

	query := `INSERT INTO post_vectors (post_id, vector)
	          VALUES ($1, $2::vector)
	          ON CONFLICT (post_id) DO UPDATE SET vector = EXCLUDED.vector`

	if _, err := v.store.db.ExecContext(ctx, query, id, vectorToString(vector)); err != nil {
		return fmt.Errorf("upsert vector: %w", err)
	}
	return nil
}

// NearestNeighbors returns up to k posts with cosine similarity
// strictly above threshold, descending, ties by first-insertion order.
func (v *PostgresVectorIndex) NearestNeighbors(ctx context.Context, vector []float32, k int, threshold float64) ([]domain.Match, error) {
	if len(vector) != v.dimension {
		return nil, &port.DimensionMismatchError{Want: v.dimension, Got: len(vector)}
	}

	query := `SELECT post_id, 1 - (vector <=> $1::vector) AS similarity
	          FROM post_vectors
	          WHERE 1 - (vector <=> $1::vector) > $2
	          ORDER BY similarity DESC, seq ASC`
	args := []interface{}{vectorToString(vector), threshold}

	if k > 0 {
		query += ` LIMIT $3`
		args = append(args, k)
	}

	rows, err := v.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("nearest neighbors: %w", err)
	}
	defer rows.Close()

	var matches []domain.Match
	for rows.Next() {
		var m domain.Match
		if err := rows.Scan(&m.PostID, &m.Similarity); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		// pgvector yields NaN against zero-norm vectors and Postgres
		// sorts NaN above everything; a zero-norm vector has
		// similarity 0, which no non-negative threshold admits.
		if math.IsNaN(m.Similarity) {
			continue
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// Similarity computes cosine similarity between two stored vectors.
func (v *PostgresVectorIndex) Similarity(ctx context.Context, idA, idB string) (float64, error) {
	query := `SELECT 1 - (a.vector <=> b.vector)
	          FROM post_vectors a, post_vectors b
	          WHERE a.post_id = $1 AND b.post_id = $2`

	var sim float64
	err := v.store.db.QueryRowContext(ctx, query, idA, idB).Scan(&sim)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("vectors %s, %s: %w", idA, idB, port.ErrVectorNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("similarity: %w", err)
	}
	if math.IsNaN(sim) {
		return 0, nil
	}
	return sim, nil
}

// Vector returns the stored vector for a post.
func (v *PostgresVectorIndex) Vector(ctx context.Context, id string) ([]float32, error) {
	var raw string
	err := v.store.db.QueryRowContext(ctx,
		`SELECT vector::text FROM post_vectors WHERE post_id = $1`, id,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("vector %s: %w", id, port.ErrVectorNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get vector: %w", err)
	}
	return vectorFromString(raw)
}

// Remove deletes the vector for a post. Absent ids are a no-op.
func (v *PostgresVectorIndex) Remove(ctx context.Context, id string) error {
	if _, err := v.store.db.ExecContext(ctx,
		`DELETE FROM post_vectors WHERE post_id = $1`, id,
	); err != nil {
		return fmt.Errorf("remove vector: %w", err)
	}
	return nil
}

// Len reports the number of stored vectors.
func (v *PostgresVectorIndex) Len(ctx context.Context) (int, error) {
	var n int
	if err := v.store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM post_vectors`,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count vectors: %w", err)
	}
	return n, nil
}

// vectorToString converts a float32 slice to pgvector string format: [0.1,0.2,0.3].
func vectorToString(v []float32) string {
	parts := make([]string, len(v))
	for i, val := range v {
		parts[i] = fmt.Sprintf("%g", val)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// vectorFromString parses pgvector text format back into a slice.
func vectorFromString(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	out := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("parse vector component %d: %w", i, err)
		}
		out[i] = float32(f)
	}
	return out, nil
}
