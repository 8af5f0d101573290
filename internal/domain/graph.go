package domain

// QueryNodeID is the reserved node ID for the ephemeral query node.
// Post IDs are UUIDs, so it never collides with a real post.
const QueryNodeID = "query_node"

// Position is a 2-D layout coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// GraphNode is a post placed in a graph, or the query node itself.
type GraphNode struct {
	Post
	IsQuery  bool     `json:"is_query"`
	Position Position `json:"position"`
}

// GraphEdge connects two nodes with a similarity weight in [0,1].
// Relationship is optional annotation text; it is omitted when the
// annotator is disabled or fails.
type GraphEdge struct {
	ID           string  `json:"id"`
	Source       string  `json:"source"`
	Target       string  `json:"target"`
	Similarity   float64 `json:"similarity"`
	Relationship string  `json:"relationship,omitempty"`
}

// Graph is the result of one search: a node set and an edge set.
// Graphs are recomputed per request and never persisted.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// EmptyGraph returns a graph with no nodes and no edges. Zero matches is
// a valid outcome, not an error, and serializes as empty arrays.
func EmptyGraph() *Graph {
	return &Graph{Nodes: []GraphNode{}, Edges: []GraphEdge{}}
}

// EdgeID builds the deterministic ID for an unordered post pair. The
// pair is ordered by ID so both orientations produce the same edge.
func EdgeID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return "e" + a + "-" + b
}

// QueryEdgeID builds the ID for an edge from the query node to a post.
// The query node is always the source, so no ordering is needed.
func QueryEdgeID(postID string) string {
	return "e" + QueryNodeID + "-" + postID
}

// RelationshipDetail is the response of a deep comparison between two
// posts: both previews, their stored-vector similarity, and the
// analysis text.
type RelationshipDetail struct {
	PostA      PostPreview `json:"post1"`
	PostB      PostPreview `json:"post2"`
	Similarity float64     `json:"similarity"`
	Analysis   string      `json:"analysis"`
}

// PostPreview is a truncated view of a post used in comparisons.
type PostPreview struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	ContentPreview string `json:"content_preview"`
	Label          string `json:"label"`
}

// previewLen bounds the content excerpt in comparison responses.
const previewLen = 200

// Preview builds a PostPreview with the given positional label.
func (p Post) Preview(label string) PostPreview {
	content := p.Content
	if len(content) > previewLen {
		content = content[:previewLen]
	}
	return PostPreview{
		ID:             p.ID,
		Title:          p.Title,
		ContentPreview: content,
		Label:          label,
	}
}
