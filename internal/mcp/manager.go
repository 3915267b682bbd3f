package mcp

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/qiniu/commitmcp/pkg/models"
	"github.com/qiniu/x/xlog"
)

// Manager routes tool calls to registered servers. The registry and the
// tool index are built once at startup; dispatch afterwards only takes
// read locks, so concurrent tools/call requests are safe.
type Manager struct {
	servers   map[string]ToolServer
	toolIndex map[string]string // tool name -> owning server
	metrics   map[string]*models.ExecutionMetrics
	validator ToolValidator
	mutex     sync.RWMutex
}

// NewManager creates an empty tool manager.
func NewManager() *Manager {
	return &Manager{
		servers:   make(map[string]ToolServer),
		toolIndex: make(map[string]string),
		metrics:   make(map[string]*models.ExecutionMetrics),
		validator: NewToolValidator(),
	}
}

// RegisterServer initializes and registers a tool server. Tool names are
// global across servers; a duplicate fails the registration.
func (m *Manager) RegisterServer(name string, server ToolServer) error {
	xl := xlog.New("")

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.servers[name]; exists {
		return fmt.Errorf("server %s already registered", name)
	}

	for _, tool := range server.GetTools() {
		if owner, taken := m.toolIndex[tool.Name]; taken {
			return fmt.Errorf("tool %s already provided by server %s", tool.Name, owner)
		}
	}

	if err := server.Initialize(context.Background()); err != nil {
		return fmt.Errorf("failed to initialize server %s: %w", name, err)
	}

	m.servers[name] = server
	for _, tool := range server.GetTools() {
		m.toolIndex[tool.Name] = name
	}
	m.metrics[name] = &models.ExecutionMetrics{}

	info := server.GetInfo()
	xl.Debugf("Registered tool server: %s v%s (%d tools)",
		info.Name, info.Version, len(info.Capabilities.Tools))

	return nil
}

// UnregisterServer removes a server and its tools from the registry.
func (m *Manager) UnregisterServer(name string) error {
	xl := xlog.New("")

	m.mutex.Lock()
	defer m.mutex.Unlock()

	server, exists := m.servers[name]
	if !exists {
		return fmt.Errorf("server %s not found", name)
	}

	if err := server.Shutdown(context.Background()); err != nil {
		xl.Warnf("Failed to shutdown server %s: %v", name, err)
	}

	for _, tool := range server.GetTools() {
		delete(m.toolIndex, tool.Name)
	}
	delete(m.servers, name)
	delete(m.metrics, name)

	xl.Infof("Unregistered tool server: %s", name)
	return nil
}

// GetAvailableTools lists the tools of every server available in the
// given context. Tool names are exposed unprefixed; uniqueness is
// enforced at registration.
func (m *Manager) GetAvailableTools(ctx context.Context, tc *models.ToolContext) ([]models.Tool, error) {
	xl := xlog.NewWith(ctx)

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var tools []models.Tool

	for serverName, server := range m.servers {
		if !server.IsAvailable(ctx, tc) {
			xl.Debugf("Server %s not available for current context", serverName)
			continue
		}

		serverTools := server.GetTools()
		tools = append(tools, serverTools...)
		xl.Debugf("Added %d tools from server %s", len(serverTools), serverName)
	}

	xl.Infof("Total available tools: %d", len(tools))
	return tools, nil
}

// HandleToolCall dispatches one call by exact tool name.
func (m *Manager) HandleToolCall(ctx context.Context, call *models.ToolCall, tc *models.ToolContext) (*models.ToolResult, error) {
	xl := xlog.NewWith(ctx)
	startTime := time.Now()

	m.mutex.RLock()
	serverName, known := m.toolIndex[call.Function.Name]
	server := m.servers[serverName]
	metrics := m.metrics[serverName]
	m.mutex.RUnlock()

	if !known {
		err := fmt.Errorf("unknown tool: %s", call.Function.Name)
		return m.errorResult(call.ID, err), nil
	}

	var targetTool *models.Tool
	for _, tool := range server.GetTools() {
		if tool.Name == call.Function.Name {
			targetTool = &tool
			break
		}
	}

	if targetTool == nil {
		err := fmt.Errorf("tool %s not found in server %s", call.Function.Name, serverName)
		return m.errorResult(call.ID, err), nil
	}

	if err := m.validator.ValidateCall(call, targetTool); err != nil {
		return m.errorResult(call.ID, err), nil
	}

	if err := m.validator.ValidatePermissions(call, tc); err != nil {
		return m.errorResult(call.ID, err), nil
	}

	xl.Infof("Executing tool call: %s.%s", serverName, call.Function.Name)

	result, err := server.HandleToolCall(ctx, call, tc)
	if err != nil {
		xl.Errorf("Tool call failed: %v", err)
		m.updateMetrics(metrics, startTime, false)
		return m.errorResult(call.ID, err), nil
	}

	m.updateMetrics(metrics, startTime, true)

	xl.Infof("Tool call completed successfully in %v", time.Since(startTime))
	return result, nil
}

// GetServers returns a copy of the registered server map.
func (m *Manager) GetServers() map[string]ToolServer {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	servers := make(map[string]ToolServer)
	for name, server := range m.servers {
		servers[name] = server
	}
	return servers
}

// GetMetrics returns a copy of the per-server execution metrics.
func (m *Manager) GetMetrics() map[string]*models.ExecutionMetrics {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	metrics := make(map[string]*models.ExecutionMetrics)
	for name, metric := range m.metrics {
		copied := *metric
		metrics[name] = &copied
	}
	return metrics
}

// errorResult creates an error result for calls that never reached a
// handler.
func (m *Manager) errorResult(id string, err error) *models.ToolResult {
	return &models.ToolResult{
		ID:      id,
		Success: false,
		Error:   err.Error(),
		Type:    "error",
	}
}

func (m *Manager) updateMetrics(metrics *models.ExecutionMetrics, startTime time.Time, success bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	metrics.ToolCalls++
	metrics.Duration += time.Since(startTime)
	metrics.LastExecution = time.Now()

	if success {
		metrics.Success++
	} else {
		metrics.Errors++
	}
}

// Shutdown stops all servers and clears the registry.
func (m *Manager) Shutdown(ctx context.Context) error {
	xl := xlog.NewWith(ctx)

	m.mutex.Lock()
	defer m.mutex.Unlock()

	var errs []string

	for name, server := range m.servers {
		if err := server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Sprintf("server %s: %v", name, err))
		}
	}

	m.servers = make(map[string]ToolServer)
	m.toolIndex = make(map[string]string)
	m.metrics = make(map[string]*models.ExecutionMetrics)

	if len(errs) > 0 {
		xl.Warnf("Some servers failed to shutdown: %s", strings.Join(errs, "; "))
		return fmt.Errorf("shutdown errors: %s", strings.Join(errs, "; "))
	}

	xl.Debugf("All tool servers shutdown successfully")
	return nil
}
