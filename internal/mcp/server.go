package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/curiolabs/curio-graph/internal/domain"
	"github.com/curiolabs/curio-graph/internal/service"
)

// Server implements the Model Context Protocol (MCP) server.
// It exposes the graph search and corpus tools to external AI agents,
// backed by the same services as the HTTP API.
type Server struct {
	graphService *service.GraphService
	postService  *service.PostService
	port         string
}

// NewServer creates a new MCP server.
func NewServer(graphService *service.GraphService, postService *service.PostService, port string) *Server {
	return &Server{
		graphService: graphService,
		postService:  postService,
		port:         port,
	}
}

// Tool represents an MCP tool definition.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// JSONRPCRequest represents a JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC error.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Start begins the MCP server on the configured port.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/mcp", s.handleRPC)
	mux.HandleFunc("/mcp/sse", s.handleSSE)

	slog.Info("MCP server starting", "port", s.port)
	return http.ListenAndServe(":"+s.port, mux)
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, nil, -32700, "parse error")
		return
	}

	var result interface{}
	var err error

	switch req.Method {
	case "tools/list":
		result = s.listTools()
	case "tools/call":
		result, err = s.callTool(r.Context(), req.Params)
	case "initialize":
		result = map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"serverInfo": map[string]string{
				"name":    "curio-graph",
				"version": "1.0.0",
			},
			"capabilities": map[string]interface{}{
				"tools": map[string]bool{"listChanged": false},
			},
		}
	default:
		writeError(w, req.ID, -32601, "method not found")
		return
	}

	if err != nil {
		writeError(w, req.ID, -32603, err.Error())
		return
	}

	writeResult(w, req.ID, result)
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Send initial endpoint message
	fmt.Fprintf(w, "event: endpoint\ndata: /mcp\n\n")
	w.(http.Flusher).Flush()

	// Keep connection alive
	<-r.Context().Done()
}

func (s *Server) listTools() map[string]interface{} {
	tools := []Tool{
		{
			Name:        "semantic_search",
			Description: "Search the post corpus by meaning and get back a similarity graph (nodes, weighted edges, layout positions)",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "Free-text search query"},
					"limit": {"type": "integer", "description": "Maximum matched posts (default 50)"},
					"match_threshold": {"type": "number", "description": "Minimum query similarity in [0,1] (default 0.25)"},
					"edge_threshold": {"type": "number", "description": "Minimum post-pair similarity for an edge in [0,1] (default 0.40)"}
				},
				"required": ["query"]
			}`),
		},
		{
			Name:        "create_post",
			Description: "Add a post to the corpus; it is embedded and searchable immediately",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"title": {"type": "string", "description": "Post title"},
					"content": {"type": "string", "description": "Post content"},
					"author_id": {"type": "string", "description": "Optional author identifier"}
				},
				"required": ["title", "content"]
			}`),
		},
		{
			Name:        "corpus_stats",
			Description: "Report corpus size and the embedding model in use",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {}
			}`),
		},
	}
	return map[string]interface{}{"tools": tools}
}

func (s *Server) callTool(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	switch req.Name {
	case "semantic_search":
		var args struct {
			Query          string   `json:"query"`
			Limit          *int     `json:"limit"`
			MatchThreshold *float64 `json:"match_threshold"`
			EdgeThreshold  *float64 `json:"edge_threshold"`
		}
		if err := json.Unmarshal(req.Arguments, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}

		p := domain.DefaultSearchParams(args.Query)
		if args.Limit != nil {
			p.Limit = *args.Limit
		}
		if args.MatchThreshold != nil {
			p.MatchThreshold = *args.MatchThreshold
		}
		if args.EdgeThreshold != nil {
			p.EdgeThreshold = *args.EdgeThreshold
		}

		graph, err := s.graphService.Search(ctx, p)
		if err != nil {
			return nil, err
		}

		data, err := json.Marshal(graph)
		if err != nil {
			return nil, fmt.Errorf("marshal graph: %w", err)
		}
		return map[string]interface{}{
			"content": []map[string]interface{}{
				{"type": "text", "text": string(data)},
			},
			"graph": graph,
		}, nil

	case "create_post":
		var args domain.PostInput
		if err := json.Unmarshal(req.Arguments, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}

		post, err := s.postService.Create(ctx, args)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"content": []map[string]interface{}{
				{"type": "text", "text": fmt.Sprintf("Created post %s: %s", post.ID, post.Title)},
			},
			"post": post,
		}, nil

	case "corpus_stats":
		posts, vectors, err := s.postService.Stats(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"content": []map[string]interface{}{
				{"type": "text", "text": fmt.Sprintf("Corpus: %d posts, %d indexed vectors, model %s", posts, vectors, s.postService.Model())},
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown tool: %s", req.Name)
	}
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: result}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func writeError(w http.ResponseWriter, id interface{}, code int, message string) {
	resp := JSONRPCResponse{JSONRPC: "2.0", ID: id, Error: &RPCError{Code: code, Message: message}}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
