package domain

import "time"

// Post is a short text entry in the corpus. Its embedding lives in the
// vector index keyed by post ID and is computed once at creation.
type Post struct {
	ID        string    `json:"id"         db:"id"`
	Title     string    `json:"title"      db:"title"`
	Content   string    `json:"content"    db:"content"`
	AuthorID  string    `json:"author_id,omitempty" db:"author_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Match is returned by nearest-neighbor search, pairing a post ID with
// its similarity to the query vector.
type Match struct {
	PostID     string  `json:"post_id"`
	Similarity float64 `json:"similarity"`
}
