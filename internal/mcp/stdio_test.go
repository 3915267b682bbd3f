package mcp

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/qiniu/commitmcp/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runProtocol feeds request lines through a StdioServer backed by the
// given manager and returns one decoded response per output line.
func runProtocol(t *testing.T, manager ToolManager, lines ...string) []map[string]interface{} {
	t.Helper()

	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	var out bytes.Buffer

	server := NewStdioServer("commitmcp-test", "0.0.1", manager, testContext(), in, &out)
	require.NoError(t, server.Serve())

	var responses []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if line == "" {
			continue
		}
		var response map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &response))
		responses = append(responses, response)
	}
	return responses
}

func echoManager(t *testing.T) *Manager {
	t.Helper()
	manager := NewManager()
	server := NewMockToolServer("test")
	server.AddTool(stringTool("echo"), &models.ToolResult{
		Success: true,
		Content: `{"echoed":true}`,
		Type:    "text",
	})
	require.NoError(t, manager.RegisterServer("test", server))
	return manager
}

func TestServeInitialize(t *testing.T) {
	responses := runProtocol(t, echoManager(t),
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-01-01"}}`)

	require.Len(t, responses, 1)
	response := responses[0]
	assert.Equal(t, "2.0", response["jsonrpc"])
	assert.Equal(t, float64(1), response["id"])

	result := response["result"].(map[string]interface{})
	assert.Equal(t, ProtocolVersion, result["protocolVersion"])

	serverInfo := result["serverInfo"].(map[string]interface{})
	assert.Equal(t, "commitmcp-test", serverInfo["name"])
	assert.Equal(t, "0.0.1", serverInfo["version"])
}

func TestServeToolsList(t *testing.T) {
	responses := runProtocol(t, echoManager(t),
		`{"jsonrpc":"2.0","id":"list-1","method":"tools/list","params":{}}`)

	require.Len(t, responses, 1)
	result := responses[0]["result"].(map[string]interface{})
	tools := result["tools"].([]interface{})
	require.Len(t, tools, 1)
	assert.Equal(t, "echo", tools[0].(map[string]interface{})["name"])
}

func TestServeToolCall(t *testing.T) {
	responses := runProtocol(t, echoManager(t),
		`{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"echo","arguments":{"message":"hi"}}}`)

	require.Len(t, responses, 1)
	result := responses[0]["result"].(map[string]interface{})
	content := result["content"].([]interface{})
	require.Len(t, content, 1)

	block := content[0].(map[string]interface{})
	assert.Equal(t, "text", block["type"])
	assert.Equal(t, `{"echoed":true}`, block["text"])
}

func TestServeToolCallUnknownTool(t *testing.T) {
	responses := runProtocol(t, echoManager(t),
		`{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"nope","arguments":{}}}`)

	require.Len(t, responses, 1)
	errObj := responses[0]["error"].(map[string]interface{})
	assert.Equal(t, float64(models.ErrCodeInternal), errObj["code"])
	assert.Contains(t, errObj["data"], "unknown tool")
}

func TestServeToolCallMissingName(t *testing.T) {
	responses := runProtocol(t, echoManager(t),
		`{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"arguments":{}}}`)

	require.Len(t, responses, 1)
	errObj := responses[0]["error"].(map[string]interface{})
	assert.Equal(t, float64(models.ErrCodeInvalidParams), errObj["code"])
}

func TestServeNotificationProducesNoResponse(t *testing.T) {
	responses := runProtocol(t, echoManager(t),
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`)

	// Only the initialize request gets a response line.
	require.Len(t, responses, 1)
	assert.NotNil(t, responses[0]["result"])
}

func TestServeParseError(t *testing.T) {
	responses := runProtocol(t, echoManager(t), `{not json`)

	require.Len(t, responses, 1)
	errObj := responses[0]["error"].(map[string]interface{})
	assert.Equal(t, float64(models.ErrCodeParse), errObj["code"])
}

func TestServeUnknownMethod(t *testing.T) {
	responses := runProtocol(t, echoManager(t),
		`{"jsonrpc":"2.0","id":2,"method":"resources/list","params":{}}`)

	require.Len(t, responses, 1)
	errObj := responses[0]["error"].(map[string]interface{})
	assert.Equal(t, float64(models.ErrCodeMethodNotFound), errObj["code"])
}

func TestServeSkipsBlankLines(t *testing.T) {
	responses := runProtocol(t, echoManager(t),
		``,
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`   `)

	require.Len(t, responses, 1)
}

func TestMCPIDRoundTrip(t *testing.T) {
	tests := []string{
		`{"jsonrpc":"2.0","id":"abc","method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","id":42,"method":"initialize","params":{}}`,
	}
	wantIDs := []interface{}{"abc", float64(42)}

	for i, line := range tests {
		responses := runProtocol(t, echoManager(t), line)
		require.Len(t, responses, 1)
		assert.Equal(t, wantIDs[i], responses[0]["id"])
	}
}
