package domain

// Search parameter defaults. The match threshold is deliberately lower
// than the edge threshold: a post only loosely related to the query may
// still be strongly related to another matched post.
const (
	DefaultLimit          = 50
	DefaultMatchThreshold = 0.25
	DefaultEdgeThreshold  = 0.40

	// DefaultBrowseEdgeThreshold is stricter because browse mode draws
	// all-pairs edges over recent posts with no query to anchor them.
	DefaultBrowseEdgeThreshold = 0.60

	// MaxLimit caps the candidate set; the pairwise stage is O(limit²).
	MaxLimit = 200
)

// SearchParams carries the resolved parameters of one graph search.
// Callers apply defaults before building it; zero thresholds are valid
// explicit values.
type SearchParams struct {
	Query          string  `json:"query"`
	Limit          int     `json:"limit"           validate:"gt=0,lte=200"`
	MatchThreshold float64 `json:"match_threshold" validate:"gte=0,lte=1"`
	EdgeThreshold  float64 `json:"edge_threshold"  validate:"gte=0,lte=1"`

	// LayoutSeed seeds the layout randomness. Zero selects a random
	// seed; any other value makes positions reproducible.
	LayoutSeed uint64 `json:"layout_seed,omitempty"`
}

// DefaultSearchParams returns the params for query with all defaults.
func DefaultSearchParams(query string) SearchParams {
	return SearchParams{
		Query:          query,
		Limit:          DefaultLimit,
		MatchThreshold: DefaultMatchThreshold,
		EdgeThreshold:  DefaultEdgeThreshold,
	}
}

// PostInput carries the user-supplied fields of a post.
type PostInput struct {
	Title    string `json:"title"   validate:"required,max=255"`
	Content  string `json:"content" validate:"required"`
	AuthorID string `json:"author_id" validate:"omitempty,max=128"`
}
