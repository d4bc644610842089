package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/autods/autods/internal/catalog"
	"github.com/autods/autods/internal/executor"
	"github.com/autods/autods/internal/vectorstore"
)

// scriptedRunner satisfies executor.Runner with canned output, so the
// pipeline runs end to end without an R installation.
type scriptedRunner struct {
	script string
	stdout string
	stderr string
	err    error
}

func (r *scriptedRunner) Run(_ context.Context, script string) (string, string, error) {
	r.script = script
	return r.stdout, r.stderr, r.err
}

type AgentTestSuite struct {
	suite.Suite
	store  *catalog.MemoryStore
	runner *scriptedRunner
}

func (s *AgentTestSuite) SetupTest() {
	s.store = catalog.NewMemoryStore()
	s.runner = &scriptedRunner{}
}

func (s *AgentTestSuite) newAgent(searcher Searcher) *Agent {
	logger := testLogger()
	resolver := NewResolver(s.store, searcher, DefaultOverrides(), logger)
	executors := map[catalog.Language]executor.Executor{
		catalog.LanguageGo: executor.NewGoExecutor(logger),
		catalog.LanguageR:  executor.NewRExecutor(s.runner, logger),
	}
	return NewAgent(resolver, executors, logger)
}

// The canonical flow: a bare regression query resolves to stats::lm,
// fills formula and data, and surfaces the fitted coefficients.
func (s *AgentTestSuite) TestHandle_LinearRegression() {
	require.NoError(s.T(), catalog.EnsureLinearRegression(s.store, testLogger()))
	s.runner.stdout = "Intercept: 4.306603\nSlope: -0.209361\n"

	response := s.newAgent(nil).Handle(context.Background(), "perform linear regression", nil)
	require.True(s.T(), response.Success)
	require.Contains(s.T(), response.Result, "Intercept")
	require.Equal(s.T(), catalog.LanguageR, response.Language)
	require.Contains(s.T(), response.CodeSnippet, "stats::lm")

	// The generated script carries the inferred defaults.
	require.Contains(s.T(), s.runner.script, "formula = y ~ x")
	require.Contains(s.T(), s.runner.script, "data = iris")
}

func (s *AgentTestSuite) TestHandle_NoMatch() {
	response := s.newAgent(nil).Handle(context.Background(), "translate this poem into French", nil)
	require.False(s.T(), response.Success)
	require.Equal(s.T(), "No matching function found", response.Error)
	require.Empty(s.T(), response.CodeSnippet)
}

func (s *AgentTestSuite) TestHandle_NativeExecution() {
	key := "Go: stats.mean - Arithmetic mean of a numeric vector"
	require.NoError(s.T(), s.store.Put(&catalog.FunctionDescriptor{
		DisplayKey: key,
		Language:   catalog.LanguageGo,
		Package:    "stats",
		Name:       "mean",
		Parameters: []catalog.Parameter{{Name: "x"}},
	}))
	searcher := &fakeSearcher{matches: []vectorstore.Match{{Key: key, Distance: 0.3}}}

	response := s.newAgent(searcher).Handle(context.Background(), "average of my numbers", map[string]any{
		"x": []any{1.0, 2.0, 3.0, 4.0},
	})
	require.True(s.T(), response.Success)
	require.Equal(s.T(), "2.5", response.Result)
	require.Equal(s.T(), catalog.LanguageGo, response.Language)
	require.Contains(s.T(), response.CodeSnippet, "stats.mean")
}

// Runtime failures come back normalized in the response with the
// snippet attached for debugging.
func (s *AgentTestSuite) TestHandle_RuntimeFailure() {
	require.NoError(s.T(), catalog.EnsureLinearRegression(s.store, testLogger()))
	s.runner.stderr = "AUTODS_INVOCATION_FAILURE: object 'y' not found\n"
	s.runner.err = errors.New("exit status 1")

	response := s.newAgent(nil).Handle(context.Background(), "perform linear regression", nil)
	require.False(s.T(), response.Success)
	require.Equal(s.T(), "object 'y' not found", response.Error)
	require.Contains(s.T(), response.Diagnostic, "AUTODS_INVOCATION_FAILURE")
	require.Contains(s.T(), response.CodeSnippet, "stats::lm")
}

func (s *AgentTestSuite) TestHandle_MissingExecutor() {
	require.NoError(s.T(), catalog.EnsureLinearRegression(s.store, testLogger()))
	logger := testLogger()
	resolver := NewResolver(s.store, nil, DefaultOverrides(), logger)
	pipeline := NewAgent(resolver, map[catalog.Language]executor.Executor{}, logger)

	response := pipeline.Handle(context.Background(), "perform linear regression", nil)
	require.False(s.T(), response.Success)
	require.Contains(s.T(), response.Error, "no executor registered")
	require.NotEmpty(s.T(), response.CodeSnippet)
}

func (s *AgentTestSuite) TestSearch() {
	key := "R: stats::t.test - Student's t-test"
	require.NoError(s.T(), s.store.Put(&catalog.FunctionDescriptor{
		DisplayKey: key,
		Language:   catalog.LanguageR,
		Package:    "stats",
		Name:       "t.test",
	}))
	searcher := &fakeSearcher{matches: []vectorstore.Match{{Key: key, Distance: 0.5}}}

	matches, err := s.newAgent(searcher).Search(context.Background(), "compare sample means", 5)
	require.NoError(s.T(), err)
	require.Len(s.T(), matches, 1)
	require.Equal(s.T(), key, matches[0].Descriptor.DisplayKey)
}

func TestAgentSuite(t *testing.T) {
	suite.Run(t, new(AgentTestSuite))
}

// Full pipeline against a real index built with the deterministic
// local provider: build, search, resolve, execute.
func TestAgent_EndToEndWithLocalIndex(t *testing.T) {
	logger := testLogger()
	store := catalog.NewMemoryStore()
	key := "Go: math.sqrt - Square root of a number"
	require.NoError(t, store.Put(&catalog.FunctionDescriptor{
		DisplayKey: key,
		Language:   catalog.LanguageGo,
		Package:    "math",
		Name:       "sqrt",
		Parameters: []catalog.Parameter{{Name: "x"}},
	}))

	index := vectorstore.NewFlatL2Index(vectorstore.NewLocalProvider(64), logger)
	require.NoError(t, index.BuildFromCatalog(context.Background(), store, vectorstore.DefaultBatchSize))

	resolver := NewResolver(store, index, DefaultOverrides(), logger)
	pipeline := NewAgent(resolver, map[catalog.Language]executor.Executor{
		catalog.LanguageGo: executor.NewGoExecutor(logger),
	}, logger)

	response := pipeline.Handle(context.Background(), "square root of a number", map[string]any{"x": 16.0})
	require.True(t, response.Success)
	require.Equal(t, "4", response.Result)
}
