package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// MCPID is a JSON-RPC request ID. The protocol allows string, number or
// null, so the raw value is kept as-is and round-tripped unchanged.
type MCPID struct {
	Value interface{}
}

func (id MCPID) MarshalJSON() ([]byte, error) {
	if id.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(id.Value)
}

func (id *MCPID) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &id.Value)
}

// String returns the ID in a form usable as a tool call identifier.
func (id MCPID) String() string {
	if id.Value == nil {
		return ""
	}
	if s, ok := id.Value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", id.Value)
}

// MCPRequest is a single JSON-RPC 2.0 request line read from stdin.
type MCPRequest struct {
	JSONRPC string                 `json:"jsonrpc"`
	ID      MCPID                  `json:"id"`
	Method  string                 `json:"method"`
	Params  map[string]interface{} `json:"params"`
}

// MCPResponse is a single JSON-RPC 2.0 response line written to stdout.
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      MCPID       `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError is the JSON-RPC error object.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

// JSON-RPC error codes used by the stdio server.
const (
	ErrCodeParse          = -32700
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternal       = -32603
)

// Tool describes one callable operation exposed over tools/list.
type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema *JSONSchema `json:"inputSchema"`
}

// JSONSchema is the subset of JSON Schema used for tool input validation.
type JSONSchema struct {
	Type                 string                 `json:"type"`
	Properties           map[string]*JSONSchema `json:"properties,omitempty"`
	Required             []string               `json:"required,omitempty"`
	Items                *JSONSchema            `json:"items,omitempty"`
	Description          string                 `json:"description,omitempty"`
	Enum                 []interface{}          `json:"enum,omitempty"`
	AdditionalProperties bool                   `json:"additionalProperties,omitempty"`
}

// ToolCall is a dispatched tools/call invocation.
type ToolCall struct {
	ID       string       `json:"id"`
	Function ToolFunction `json:"function"`
}

// ToolFunction names the operation and carries its decoded arguments.
type ToolFunction struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// ToolResult is the outcome of one tool invocation. Content holds the
// serialized JSON document the tool produced; tools report their domain
// errors inside that document, so Success is false only for calls that
// never reached the handler (bad arguments, unknown tool).
type ToolResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
	Type    string `json:"type,omitempty"` // text, error
}

// ToolServerCapabilities declares what a tool server provides.
type ToolServerCapabilities struct {
	Tools []Tool `json:"tools"`
}

// ToolContext carries the ambient request data shared by every call in
// this process. Handlers are otherwise stateless.
type ToolContext struct {
	// WorkDir is the fallback working directory when a tool takes no
	// explicit path argument.
	WorkDir  string            `json:"work_dir,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`

	Permissions []string `json:"permissions,omitempty"`
	Constraints []string `json:"constraints,omitempty"`
}

// ToolServerInfo describes a registered tool server.
type ToolServerInfo struct {
	Name         string                 `json:"name"`
	Version      string                 `json:"version"`
	Description  string                 `json:"description"`
	Capabilities ToolServerCapabilities `json:"capabilities"`
	CreatedAt    time.Time              `json:"created_at"`
}

// ExecutionMetrics tracks per-server tool call statistics.
type ExecutionMetrics struct {
	ToolCalls     int           `json:"tool_calls"`
	Duration      time.Duration `json:"duration"`
	Success       int           `json:"success"`
	Errors        int           `json:"errors"`
	LastExecution time.Time     `json:"last_execution"`
}
