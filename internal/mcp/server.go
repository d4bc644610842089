// Package mcp exposes the resolution pipeline as an MCP server with
// two meta-tools: function_search for discovery and function_run for
// end-to-end execution.
package mcp

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/autods/autods/internal/agent"
)

// Server wraps the pipeline agent behind the MCP protocol.
type Server struct {
	server *mcp.Server
	agent  *agent.Agent
	logger *slog.Logger
}

// NewServer creates an MCP server exposing the agent's meta-tools.
func NewServer(pipeline *agent.Agent, name, version string, logger *slog.Logger) *Server {
	s := &Server{agent: pipeline, logger: logger}

	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    name,
			Version: version,
		},
		nil,
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "function_search",
		Description: "Find statistical/ML functions matching a natural-language task description (e.g. 'perform linear regression', 'cluster my data'). Returns ranked catalog matches with signatures.",
	}, s.handleFunctionSearch)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "function_run",
		Description: "Resolve a natural-language data-science task to a catalog function, infer missing arguments, execute it, and return the result plus an illustrative code snippet.",
	}, s.handleFunctionRun)

	s.server = server
	return s
}

// Run serves MCP over the given transport until the context ends.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.server.Run(ctx, transport)
}

// FunctionSearchInput defines the input for function_search.
type FunctionSearchInput struct {
	Query string `json:"query" jsonschema:"Natural-language description of the task to find a function for"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"Number of ranked matches to return. Default: 1"`
}

func (s *Server) handleFunctionSearch(ctx context.Context, req *mcp.CallToolRequest, input FunctionSearchInput) (*mcp.CallToolResult, any, error) {
	topK := input.TopK
	if topK <= 0 {
		topK = 1
	}

	s.logger.Info("Function search request", "query", input.Query, "top_k", topK)

	matches, err := s.agent.Search(ctx, input.Query, topK)
	if err != nil {
		return textResult(map[string]any{"matches": []any{}, "error": err.Error()}), nil, nil
	}

	rendered := make([]map[string]any, len(matches))
	for i, match := range matches {
		rendered[i] = map[string]any{
			"key":       match.Descriptor.DisplayKey,
			"language":  match.Descriptor.Language,
			"package":   match.Descriptor.Package,
			"function":  match.Descriptor.Name,
			"signature": match.Descriptor.Signature,
			"distance":  match.Distance,
		}
	}
	return textResult(map[string]any{"matches": rendered}), nil, nil
}

// FunctionRunInput defines the input for function_run.
type FunctionRunInput struct {
	Query     string         `json:"query" jsonschema:"Natural-language description of the task to perform"`
	Arguments map[string]any `json:"arguments,omitempty" jsonschema:"Function arguments as an object; missing required arguments are inferred where possible"`
}

func (s *Server) handleFunctionRun(ctx context.Context, req *mcp.CallToolRequest, input FunctionRunInput) (*mcp.CallToolResult, any, error) {
	response := s.agent.Handle(ctx, input.Query, input.Arguments)
	return textResult(response), nil, nil
}

func textResult(payload any) *mcp.CallToolResult {
	raw, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(raw)},
		},
	}
}
