package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/autods/autods/internal/catalog"
	"github.com/autods/autods/internal/executor"
)

// Response is what the pipeline hands back to the CLI or API
// collaborator for one query.
type Response struct {
	Success     bool             `json:"success"`
	Result      string           `json:"result,omitempty"`
	Error       string           `json:"error,omitempty"`
	Diagnostic  string           `json:"diagnostic,omitempty"`
	CodeSnippet string           `json:"code_snippet,omitempty"`
	Language    catalog.Language `json:"language,omitempty"`
}

// Agent wires the full pipeline: resolve the query to a descriptor,
// infer a complete argument set, render the snippet, and execute in
// the descriptor's runtime. One request runs synchronously end to end.
type Agent struct {
	resolver  *Resolver
	executors map[catalog.Language]executor.Executor
	logger    *slog.Logger
}

// NewAgent creates the pipeline from a resolver and one executor per
// supported language.
func NewAgent(resolver *Resolver, executors map[catalog.Language]executor.Executor, logger *slog.Logger) *Agent {
	return &Agent{resolver: resolver, executors: executors, logger: logger}
}

// Handle processes one query with optional user-supplied arguments.
// Resolution and execution failures are reported in the response, not
// raised; the pipeline never crashes on a bad query.
func (a *Agent) Handle(ctx context.Context, query string, provided map[string]any) Response {
	a.logger.Info("Processing query", "query", query, "provided_args", len(provided))

	descriptor, err := a.resolver.Resolve(ctx, query)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			a.logger.Warn("No function found for query", "query", query)
			return Response{Error: "No matching function found"}
		}
		a.logger.Error("Resolution failed", "query", query, "error", err)
		return Response{Error: err.Error()}
	}
	a.logger.Info("Best match", "key", descriptor.DisplayKey, "language", descriptor.Language)

	args := InferArguments(descriptor, query, provided)
	snippet := GenerateSnippet(descriptor, args)

	exec, ok := a.executors[descriptor.Language]
	if !ok {
		return Response{
			Error:       fmt.Sprintf("no executor registered for language %q", descriptor.Language),
			CodeSnippet: snippet,
			Language:    descriptor.Language,
		}
	}

	result := exec.Execute(ctx, descriptor, args)
	return Response{
		Success:     result.Success,
		Result:      result.Result,
		Error:       result.Error,
		Diagnostic:  result.Diagnostic,
		CodeSnippet: snippet,
		Language:    descriptor.Language,
	}
}

// Search exposes ranked resolution matches for discovery surfaces (the
// shell's search command and the MCP function_search tool).
func (a *Agent) Search(ctx context.Context, query string, topK int) ([]ResolvedMatch, error) {
	return a.resolver.Matches(ctx, query, topK)
}
