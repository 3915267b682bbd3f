package servers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/qiniu/commitmcp/internal/guides"
	"github.com/qiniu/commitmcp/internal/trace"
	"github.com/qiniu/commitmcp/pkg/models"
)

// PythonDocsServer serves the bundled Python documentation style guide
// verbatim.
type PythonDocsServer struct {
	guides *guides.Loader
	info   *models.ToolServerInfo
}

// NewPythonDocsServer creates the python-docs server.
func NewPythonDocsServer(loader *guides.Loader) *PythonDocsServer {
	return &PythonDocsServer{
		guides: loader,
		info: &models.ToolServerInfo{
			Name:        "python-docs",
			Version:     "1.0.0",
			Description: "Python code documentation standards and best practices",
			Capabilities: models.ToolServerCapabilities{
				Tools: []models.Tool{
					{
						Name:        "get_python_code_documentation_google_style",
						Description: "Google-style Python docstring and commenting guidelines for writing well-documented code",
						InputSchema: &models.JSONSchema{
							Type: "object",
						},
					},
				},
			},
			CreatedAt: time.Now(),
		},
	}
}

func (s *PythonDocsServer) GetInfo() *models.ToolServerInfo {
	return s.info
}

func (s *PythonDocsServer) GetTools() []models.Tool {
	return s.info.Capabilities.Tools
}

// IsAvailable requires read access to the bundled documents.
func (s *PythonDocsServer) IsAvailable(ctx context.Context, tc *models.ToolContext) bool {
	return hasAnyPermission(tc, "fs:read")
}

func (s *PythonDocsServer) HandleToolCall(ctx context.Context, call *models.ToolCall, tc *models.ToolContext) (*models.ToolResult, error) {
	switch call.Function.Name {
	case "get_python_code_documentation_google_style":
		return s.getGoogleStyleGuide(ctx, call)
	default:
		return nil, fmt.Errorf("unknown tool: %s", call.Function.Name)
	}
}

func (s *PythonDocsServer) Initialize(ctx context.Context) error {
	return nil
}

func (s *PythonDocsServer) Shutdown(ctx context.Context) error {
	return nil
}

// getGoogleStyleGuide returns the style guide byte-for-byte, or a
// status=error document distinguishing absence from a read failure.
func (s *PythonDocsServer) getGoogleStyleGuide(ctx context.Context, call *models.ToolCall) (*models.ToolResult, error) {
	xl := trace.FromContext(ctx)

	content, err := s.guides.Load(guides.GoogleStylePythonGuide)
	if err != nil {
		path := s.guides.Resolve(guides.GoogleStylePythonGuide)
		if errors.Is(err, guides.ErrDocumentNotFound) {
			xl.Warnf("Style guide missing at %s", path)
			return textResult(call.ID, models.NewStyleGuideNotFound(path))
		}

		cause := err
		var de *guides.DocumentError
		if errors.As(err, &de) {
			cause = de.Cause()
		}
		xl.Warnf("Style guide unreadable at %s: %v", path, cause)
		return textResult(call.ID, models.NewStyleGuideUnreadable(path, cause))
	}

	return textResult(call.ID, models.NewStyleGuide(content))
}
