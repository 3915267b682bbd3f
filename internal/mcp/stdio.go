package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/qiniu/commitmcp/internal/trace"
	"github.com/qiniu/commitmcp/pkg/models"
)

// ProtocolVersion is the fixed MCP protocol version the server answers
// initialize with, matching the official reference servers.
const ProtocolVersion = "2024-11-05"

// StdioServer speaks line-delimited JSON-RPC 2.0 over a reader/writer
// pair, normally stdin/stdout. Requests are handled one at a time in
// arrival order; the handlers themselves are stateless.
type StdioServer struct {
	name    string
	version string
	manager ToolManager
	tc      *models.ToolContext

	in  io.Reader
	out io.Writer
	mu  sync.Mutex // serializes response lines
}

// NewStdioServer creates a protocol server over the given streams.
func NewStdioServer(name, version string, manager ToolManager, tc *models.ToolContext, in io.Reader, out io.Writer) *StdioServer {
	return &StdioServer{
		name:    name,
		version: version,
		manager: manager,
		tc:      tc,
		in:      in,
		out:     out,
	}
}

// Serve reads request lines until the input stream closes. Every request
// line produces at most one response line; notifications produce none.
func (s *StdioServer) Serve() error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var request models.MCPRequest
		if err := json.Unmarshal([]byte(line), &request); err != nil {
			s.writeError(models.MCPID{}, models.ErrCodeParse, "Parse error", err.Error())
			continue
		}

		ctx := trace.NewContext(context.Background(), trace.NewTraceID(request.Method))
		xl := trace.FromContext(ctx)
		xl.Debugf("Received request: %s", request.Method)

		response := s.handleRequest(ctx, &request)
		if response == nil {
			xl.Debugf("No response needed for method: %s", request.Method)
			continue
		}

		if err := s.writeResponse(response); err != nil {
			return fmt.Errorf("failed to write response: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("request stream error: %w", err)
	}
	return nil
}

// handleRequest dispatches one request. A nil return means the request
// was a notification and gets no response.
func (s *StdioServer) handleRequest(ctx context.Context, request *models.MCPRequest) *models.MCPResponse {
	switch request.Method {
	case "initialize":
		return s.handleInitialize(ctx, request)

	case "tools/list":
		return s.handleToolsList(ctx, request)

	case "tools/call":
		return s.handleToolCall(ctx, request)

	case "notifications/initialized":
		// Client notification, no response.
		return nil

	default:
		return &models.MCPResponse{
			JSONRPC: "2.0",
			ID:      request.ID,
			Error: &models.MCPError{
				Code:    models.ErrCodeMethodNotFound,
				Message: "Method not found",
				Data:    fmt.Sprintf("Unknown method: %s", request.Method),
			},
		}
	}
}

func (s *StdioServer) handleInitialize(ctx context.Context, request *models.MCPRequest) *models.MCPResponse {
	xl := trace.FromContext(ctx)

	// Clients may request another protocol version; the answer is fixed.
	if requested, ok := request.Params["protocolVersion"].(string); ok {
		xl.Debugf("Client requested protocol version: %s", requested)
	}

	return &models.MCPResponse{
		JSONRPC: "2.0",
		ID:      request.ID,
		Result: map[string]interface{}{
			"protocolVersion": ProtocolVersion,
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    s.name,
				"version": s.version,
			},
		},
	}
}

func (s *StdioServer) handleToolsList(ctx context.Context, request *models.MCPRequest) *models.MCPResponse {
	tools, err := s.manager.GetAvailableTools(ctx, s.tc)
	if err != nil {
		return &models.MCPResponse{
			JSONRPC: "2.0",
			ID:      request.ID,
			Error: &models.MCPError{
				Code:    models.ErrCodeInternal,
				Message: "Failed to get tools",
				Data:    err.Error(),
			},
		}
	}

	mcpTools := make([]interface{}, len(tools))
	for i, tool := range tools {
		mcpTools[i] = map[string]interface{}{
			"name":        tool.Name,
			"description": tool.Description,
			"inputSchema": tool.InputSchema,
		}
	}

	return &models.MCPResponse{
		JSONRPC: "2.0",
		ID:      request.ID,
		Result: map[string]interface{}{
			"tools": mcpTools,
		},
	}
}

func (s *StdioServer) handleToolCall(ctx context.Context, request *models.MCPRequest) *models.MCPResponse {
	xl := trace.FromContext(ctx)

	toolName, ok := request.Params["name"].(string)
	if !ok {
		return &models.MCPResponse{
			JSONRPC: "2.0",
			ID:      request.ID,
			Error: &models.MCPError{
				Code:    models.ErrCodeInvalidParams,
				Message: "Invalid params",
				Data:    "Missing or invalid tool name",
			},
		}
	}

	arguments, ok := request.Params["arguments"].(map[string]interface{})
	if !ok {
		// Tools without required arguments may be called with none.
		if _, present := request.Params["arguments"]; present {
			return &models.MCPResponse{
				JSONRPC: "2.0",
				ID:      request.ID,
				Error: &models.MCPError{
					Code:    models.ErrCodeInvalidParams,
					Message: "Invalid params",
					Data:    "Missing or invalid arguments",
				},
			}
		}
		arguments = map[string]interface{}{}
	}

	call := &models.ToolCall{
		ID: request.ID.String(),
		Function: models.ToolFunction{
			Name:      toolName,
			Arguments: arguments,
		},
	}

	xl.Infof("Executing tool call: %s", toolName)

	result, err := s.manager.HandleToolCall(ctx, call, s.tc)
	if err != nil {
		return &models.MCPResponse{
			JSONRPC: "2.0",
			ID:      request.ID,
			Error: &models.MCPError{
				Code:    models.ErrCodeInternal,
				Message: "Tool execution failed",
				Data:    err.Error(),
			},
		}
	}

	if !result.Success {
		return &models.MCPResponse{
			JSONRPC: "2.0",
			ID:      request.ID,
			Error: &models.MCPError{
				Code:    models.ErrCodeInternal,
				Message: "Tool execution failed",
				Data:    result.Error,
			},
		}
	}

	return &models.MCPResponse{
		JSONRPC: "2.0",
		ID:      request.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": result.Content,
				},
			},
		},
	}
}

func (s *StdioServer) writeResponse(response *models.MCPResponse) error {
	data, err := json.Marshal(response)
	if err != nil {
		s.writeError(response.ID, models.ErrCodeInternal, "Internal error", err.Error())
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = fmt.Fprintln(s.out, string(data))
	return err
}

func (s *StdioServer) writeError(id models.MCPID, code int, message, data string) {
	response := &models.MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &models.MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}

	responseJSON, _ := json.Marshal(response)

	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.out, string(responseJSON))
}
