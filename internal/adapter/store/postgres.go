package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/curiolabs/curio-graph/internal/domain"
	"github.com/curiolabs/curio-graph/internal/port"
)

// PostgresStore owns the database connection shared by the relational
// and vector adapters.
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

// DB returns the underlying *sql.DB for use in transactions.
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// EnsureSchema creates the extension and tables the service needs.
// Safe to run on every startup.
func (s *PostgresStore) EnsureSchema(ctx context.Context, dimension int) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS posts (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			content    TEXT NOT NULL,
			author_id  TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS post_vectors (
			post_id TEXT PRIMARY KEY,
			vector  vector(%d) NOT NULL,
			seq     BIGSERIAL
		)`, dimension),
		`CREATE INDEX IF NOT EXISTS post_vectors_seq_idx ON post_vectors (seq)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// --- Posts ---

// PostgresPostRepository persists posts in the posts table.
type PostgresPostRepository struct {
	store *PostgresStore
}

// NewPostgresPostRepository creates a repository backed by the given
// Postgres store.
func NewPostgresPostRepository(store *PostgresStore) *PostgresPostRepository {
	return &PostgresPostRepository{store: store}
}

// Save inserts or replaces a post by ID.
func (r *PostgresPostRepository) Save(ctx context.Context, p *domain.Post) error {
	query := `INSERT INTO posts (id, title, content, author_id, created_at)
	          VALUES ($1, $2, $3, $4, $5)
	          ON CONFLICT (id) DO UPDATE SET
	              title = EXCLUDED.title,
	              content = EXCLUDED.content,
	              author_id = EXCLUDED.author_id`

	if _, err := r.store.db.ExecContext(ctx, query,
		p.ID, p.Title, p.Content, p.AuthorID, p.CreatedAt,
	); err != nil {
		return fmt.Errorf("save post: %w", err)
	}
	return nil
}

// Get returns the post with the given ID.
func (r *PostgresPostRepository) Get(ctx context.Context, id string) (*domain.Post, error) {
	query := `SELECT id, title, content, author_id, created_at FROM posts WHERE id = $1`

	var p domain.Post
	err := r.store.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Title, &p.Content, &p.AuthorID, &p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("post %s: %w", id, port.ErrPostNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &p, nil
}

// GetBatch returns the posts for the given IDs. Missing IDs are
// skipped.
func (r *PostgresPostRepository) GetBatch(ctx context.Context, ids []string) ([]domain.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT id, title, content, author_id, created_at FROM posts WHERE id = ANY($1)`

	rows, err := r.store.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("get posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		var p domain.Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, nil
}

// List returns posts newest first. A non-positive limit returns the
// whole corpus.
func (r *PostgresPostRepository) List(ctx context.Context, limit int) ([]domain.Post, error) {
	query := `SELECT id, title, content, author_id, created_at FROM posts ORDER BY created_at DESC, id`
	args := []interface{}{}

	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		var p domain.Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, nil
}

// Delete removes a post.
func (r *PostgresPostRepository) Delete(ctx context.Context, id string) error {
	res, err := r.store.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("post %s: %w", id, port.ErrPostNotFound)
	}
	return nil
}

// Count reports the number of stored posts.
func (r *PostgresPostRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}
