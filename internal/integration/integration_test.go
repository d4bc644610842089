//go:build integration
// +build integration

package integration

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// JSONRPCRequest represents a JSON-RPC 2.0 request
type JSONRPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      any    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response
type JSONRPCResponse struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      any            `json:"id"`
	Result  map[string]any `json:"result,omitempty"`
	Error   *JSONRPCError  `json:"error,omitempty"`
}

// JSONRPCError represents a JSON-RPC 2.0 error
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// IntegrationTestSuite drives the autods binary over stdio MCP. The
// server runs with the local embedding provider and a throwaway
// catalog so no network or R installation is needed.
type IntegrationTestSuite struct {
	suite.Suite
	binaryPath string
	workDir    string
	cmd        *exec.Cmd
	stdin      *bufio.Writer
	stdout     *bufio.Scanner
	ctx        context.Context
	cancel     context.CancelFunc
}

// SetupSuite builds the binary before running tests
func (s *IntegrationTestSuite) SetupSuite() {
	projectRoot, err := filepath.Abs(filepath.Join("..", ".."))
	require.NoError(s.T(), err)

	s.T().Log("Building binary for integration tests...")
	buildCmd := exec.Command("go", "build", "-o", "autods-test", "./cmd/autods")
	buildCmd.Dir = projectRoot
	buildCmd.Stdout = os.Stdout
	buildCmd.Stderr = os.Stderr
	err = buildCmd.Run()
	require.NoError(s.T(), err, "Failed to build binary")

	s.binaryPath = filepath.Join(projectRoot, "autods-test")
	s.T().Logf("Binary built at: %s", s.binaryPath)
}

// TearDownSuite cleans up the binary after all tests
func (s *IntegrationTestSuite) TearDownSuite() {
	if s.binaryPath != "" {
		s.T().Log("Cleaning up test binary...")
		os.Remove(s.binaryPath)
	}
}

// SetupTest starts a server with a fresh catalog for each test
func (s *IntegrationTestSuite) SetupTest() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), 30*time.Second)
	s.workDir = s.T().TempDir()

	s.cmd = exec.CommandContext(s.ctx, s.binaryPath, "serve")
	s.cmd.Dir = s.workDir
	s.cmd.Env = append(os.Environ(),
		"AUTODS_EMBEDDING_PROVIDER=local",
		"AUTODS_CATALOGPATH="+filepath.Join(s.workDir, "autods.db"),
		"AUTODS_INDEXDIR="+filepath.Join(s.workDir, "index"),
	)

	stdinPipe, err := s.cmd.StdinPipe()
	require.NoError(s.T(), err)
	s.stdin = bufio.NewWriter(stdinPipe)

	stdoutPipe, err := s.cmd.StdoutPipe()
	require.NoError(s.T(), err)
	s.stdout = bufio.NewScanner(stdoutPipe)

	s.cmd.Stderr = os.Stderr

	err = s.cmd.Start()
	require.NoError(s.T(), err)
}

// TearDownTest stops the server after each test
func (s *IntegrationTestSuite) TearDownTest() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.cmd != nil && s.cmd.Process != nil {
		s.cmd.Process.Kill()
		s.cmd.Wait()
	}
}

// sendRequest sends a JSON-RPC request to the server
func (s *IntegrationTestSuite) sendRequest(method string, params any) {
	s.sendRequestWithID(method, params, 1)
}

// sendRequestWithID sends a JSON-RPC request with a specific ID (or nil for notifications)
func (s *IntegrationTestSuite) sendRequestWithID(method string, params any, id any) {
	req := JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  params,
	}

	data, err := json.Marshal(req)
	require.NoError(s.T(), err)

	s.T().Logf("Sending: %s", string(data))

	_, err = s.stdin.Write(data)
	require.NoError(s.T(), err)
	_, err = s.stdin.Write([]byte("\n"))
	require.NoError(s.T(), err)
	err = s.stdin.Flush()
	require.NoError(s.T(), err)
}

// readResponse reads a JSON-RPC response from the server
func (s *IntegrationTestSuite) readResponse() *JSONRPCResponse {
	require.True(s.T(), s.stdout.Scan(), "Failed to read response")

	line := s.stdout.Bytes()
	s.T().Logf("Received: %s", string(line))

	var resp JSONRPCResponse
	err := json.Unmarshal(line, &resp)
	require.NoError(s.T(), err)

	return &resp
}

func (s *IntegrationTestSuite) initialize() {
	s.sendRequest("initialize", map[string]any{
		"protocolVersion": "2024-11-05",
		"capabilities":    map[string]any{},
		"clientInfo": map[string]any{
			"name":    "integration-test",
			"version": "1.0.0",
		},
	})
	s.readResponse()
	s.sendRequestWithID("notifications/initialized", map[string]any{}, nil)
}

// callTool invokes one tool and decodes the JSON payload of its first
// text content item.
func (s *IntegrationTestSuite) callTool(name string, arguments map[string]any) map[string]any {
	s.sendRequest("tools/call", map[string]any{
		"name":      name,
		"arguments": arguments,
	})
	resp := s.readResponse()

	require.Nil(s.T(), resp.Error, "%s should not return a protocol error", name)
	require.NotNil(s.T(), resp.Result)
	require.Contains(s.T(), resp.Result, "content")

	content, ok := resp.Result["content"].([]any)
	require.True(s.T(), ok)
	require.Greater(s.T(), len(content), 0)

	firstContent, ok := content[0].(map[string]any)
	require.True(s.T(), ok)
	require.Equal(s.T(), "text", firstContent["type"])

	payload := map[string]any{}
	require.NoError(s.T(), json.Unmarshal([]byte(firstContent["text"].(string)), &payload))
	return payload
}

// TestInitialize tests the MCP initialize handshake
func (s *IntegrationTestSuite) TestInitialize() {
	s.sendRequest("initialize", map[string]any{
		"protocolVersion": "2024-11-05",
		"capabilities":    map[string]any{},
		"clientInfo": map[string]any{
			"name":    "integration-test",
			"version": "1.0.0",
		},
	})
	resp := s.readResponse()

	require.Nil(s.T(), resp.Error, "Initialize should not return error")
	require.NotNil(s.T(), resp.Result)
	require.Contains(s.T(), resp.Result, "protocolVersion")
	require.Contains(s.T(), resp.Result, "capabilities")
	require.Contains(s.T(), resp.Result, "serverInfo")

	serverInfo, ok := resp.Result["serverInfo"].(map[string]any)
	require.True(s.T(), ok)
	require.Equal(s.T(), "autods", serverInfo["name"])
}

// TestToolsList verifies both meta-tools are exposed
func (s *IntegrationTestSuite) TestToolsList() {
	s.initialize()

	s.sendRequest("tools/list", map[string]any{})
	resp := s.readResponse()

	require.Nil(s.T(), resp.Error, "tools/list should not return error")
	require.NotNil(s.T(), resp.Result)
	require.Contains(s.T(), resp.Result, "tools")

	tools, ok := resp.Result["tools"].([]any)
	require.True(s.T(), ok)

	toolNames := make([]string, 0, len(tools))
	for _, tool := range tools {
		toolMap, ok := tool.(map[string]any)
		require.True(s.T(), ok)
		toolNames = append(toolNames, toolMap["name"].(string))
	}

	require.Contains(s.T(), toolNames, "function_search")
	require.Contains(s.T(), toolNames, "function_run")
}

// TestFunctionSearch resolves the pinned regression intent against a
// fresh, empty catalog: the override rule must still produce stats::lm.
func (s *IntegrationTestSuite) TestFunctionSearch() {
	s.initialize()

	payload := s.callTool("function_search", map[string]any{
		"query": "perform linear regression",
	})

	matches, ok := payload["matches"].([]any)
	require.True(s.T(), ok)
	require.Len(s.T(), matches, 1)

	match, ok := matches[0].(map[string]any)
	require.True(s.T(), ok)
	require.Equal(s.T(), "stats", match["package"])
	require.Equal(s.T(), "lm", match["function"])
	require.Equal(s.T(), "r", match["language"])
}

// TestFunctionRunNoMatch checks the unresolvable-query contract end to
// end: a graceful response, not a protocol error.
func (s *IntegrationTestSuite) TestFunctionRunNoMatch() {
	s.initialize()

	payload := s.callTool("function_run", map[string]any{
		"query": "translate this poem into French",
	})

	require.Equal(s.T(), false, payload["success"])
	require.Equal(s.T(), "No matching function found", payload["error"])
}

func TestIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	suite.Run(t, new(IntegrationTestSuite))
}
