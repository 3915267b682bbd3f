package mcp

import (
	"context"

	"github.com/qiniu/commitmcp/pkg/models"
)

// ToolServer groups related tools behind one lifecycle.
type ToolServer interface {
	// GetInfo returns the server's identity and capabilities.
	GetInfo() *models.ToolServerInfo

	// GetTools returns the tools the server provides.
	GetTools() []models.Tool

	// IsAvailable reports whether the server can serve the context.
	IsAvailable(ctx context.Context, tc *models.ToolContext) bool

	// HandleToolCall executes one tool call.
	HandleToolCall(ctx context.Context, call *models.ToolCall, tc *models.ToolContext) (*models.ToolResult, error)

	// Initialize prepares the server for use.
	Initialize(ctx context.Context) error

	// Shutdown releases the server's resources.
	Shutdown(ctx context.Context) error
}

// ToolManager routes tool calls to registered servers.
type ToolManager interface {
	// RegisterServer registers a tool server. Tool names are global:
	// registration fails when a name is already taken.
	RegisterServer(name string, server ToolServer) error

	// UnregisterServer removes a server and its tools.
	UnregisterServer(name string) error

	// GetAvailableTools lists tools from all servers available in the
	// given context.
	GetAvailableTools(ctx context.Context, tc *models.ToolContext) ([]models.Tool, error)

	// HandleToolCall dispatches one call by exact tool name.
	HandleToolCall(ctx context.Context, call *models.ToolCall, tc *models.ToolContext) (*models.ToolResult, error)

	// GetServers returns the registered servers.
	GetServers() map[string]ToolServer

	// GetMetrics returns the per-server execution metrics.
	GetMetrics() map[string]*models.ExecutionMetrics

	// Shutdown stops all servers.
	Shutdown(ctx context.Context) error
}

// ToolValidator checks calls before they reach a handler.
type ToolValidator interface {
	// ValidateCall validates a call against the tool's schema.
	ValidateCall(call *models.ToolCall, tool *models.Tool) error

	// ValidatePermissions validates the call against the context's
	// permissions and constraints.
	ValidatePermissions(call *models.ToolCall, tc *models.ToolContext) error

	// ValidateArguments validates arguments against a JSON schema.
	ValidateArguments(args map[string]interface{}, schema *models.JSONSchema) error
}
