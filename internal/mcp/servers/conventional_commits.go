package servers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/qiniu/commitmcp/internal/git"
	"github.com/qiniu/commitmcp/internal/guides"
	"github.com/qiniu/commitmcp/internal/lint"
	"github.com/qiniu/commitmcp/internal/trace"
	"github.com/qiniu/commitmcp/pkg/models"
)

// commitInstructions is the fixed authoring script returned alongside
// every commit context. The text is part of the wire contract.
const commitInstructions = `
            Generate a conventional commit message:
            Step 1: Read the required guideliness
            Step 2: Analyze the diff above
                    - Understand what changed in the code
                    - Determine the most appropriate commit type
                    - Identify the scope if applicable
            Step 3: Generate commit message
                    - Follow the EXACT required guideliness
            Step 4: Output the command
                    - Return ONLY: git commit -m "your message"
            `

// textResult wraps a serialized payload into a tool result. Domain
// failures live inside the payload; the result itself only fails when
// the payload cannot be encoded.
func textResult(callID string, payload *models.Payload) (*models.ToolResult, error) {
	content, err := payload.Encode()
	if err != nil {
		return &models.ToolResult{
			ID:      callID,
			Success: false,
			Error:   err.Error(),
			Type:    "error",
		}, nil
	}
	return &models.ToolResult{
		ID:      callID,
		Success: true,
		Content: content,
		Type:    "text",
	}, nil
}

// hasAnyPermission reports whether the context grants one of the given
// permissions.
func hasAnyPermission(tc *models.ToolContext, perms ...string) bool {
	if tc == nil || tc.Permissions == nil {
		return false
	}
	for _, perm := range perms {
		if slices.Contains(tc.Permissions, perm) {
			return true
		}
	}
	return false
}

// ConventionalCommitsServer gathers commit context from staged changes
// and validates messages through the external linter.
type ConventionalCommitsServer struct {
	git    git.Service
	linter lint.Runner
	guides *guides.Loader
	info   *models.ToolServerInfo
}

// NewConventionalCommitsServer creates the conventional-commits server.
func NewConventionalCommitsServer(gitSvc git.Service, linter lint.Runner, loader *guides.Loader) *ConventionalCommitsServer {
	return &ConventionalCommitsServer{
		git:    gitSvc,
		linter: linter,
		guides: loader,
		info: &models.ToolServerInfo{
			Name:        "conventional-commits",
			Version:     "1.0.0",
			Description: "Conventional commit message generation and validation",
			Capabilities: models.ToolServerCapabilities{
				Tools: []models.Tool{
					{
						Name: "generate_conventional_commit",
						Description: "Generate a conventional commit message by analyzing staged git changes. " +
							"Reads repository status and diff to help create properly formatted commit " +
							"messages following conventional commit guidelines.",
						InputSchema: &models.JSONSchema{
							Type: "object",
							Properties: map[string]*models.JSONSchema{
								"repository_path": {
									Type:        "string",
									Description: "Path to the git repository. Defaults to the current working directory.",
								},
							},
						},
					},
					{
						Name: "validate_commit_message",
						Description: "Validate a commit message using commitlint. Checks if the message " +
							"follows conventional commit format and returns validation errors if any. " +
							"Use this after generating a commit message if you want to verify it's correct.",
						InputSchema: &models.JSONSchema{
							Type: "object",
							Properties: map[string]*models.JSONSchema{
								"message": {
									Type:        "string",
									Description: "The commit message to validate, either raw text or the full git commit -m form.",
								},
							},
							Required: []string{"message"},
						},
					},
				},
			},
			CreatedAt: time.Now(),
		},
	}
}

func (s *ConventionalCommitsServer) GetInfo() *models.ToolServerInfo {
	return s.info
}

func (s *ConventionalCommitsServer) GetTools() []models.Tool {
	return s.info.Capabilities.Tools
}

// IsAvailable requires permission to spawn the repository and linter
// subprocesses.
func (s *ConventionalCommitsServer) IsAvailable(ctx context.Context, tc *models.ToolContext) bool {
	return hasAnyPermission(tc, "git:read", "exec:run")
}

func (s *ConventionalCommitsServer) HandleToolCall(ctx context.Context, call *models.ToolCall, tc *models.ToolContext) (*models.ToolResult, error) {
	switch call.Function.Name {
	case "generate_conventional_commit":
		return s.generateConventionalCommit(ctx, call, tc)
	case "validate_commit_message":
		return s.validateCommitMessage(ctx, call)
	default:
		return nil, fmt.Errorf("unknown tool: %s", call.Function.Name)
	}
}

func (s *ConventionalCommitsServer) Initialize(ctx context.Context) error {
	return nil
}

func (s *ConventionalCommitsServer) Shutdown(ctx context.Context) error {
	return nil
}

// generateConventionalCommit assembles the commit context document:
// repository root, status, staged diff, guidelines and the authoring
// instructions, or one structured error in their place.
func (s *ConventionalCommitsServer) generateConventionalCommit(ctx context.Context, call *models.ToolCall, tc *models.ToolContext) (*models.ToolResult, error) {
	return textResult(call.ID, s.gatherCommitContext(ctx, call, tc))
}

func (s *ConventionalCommitsServer) gatherCommitContext(ctx context.Context, call *models.ToolCall, tc *models.ToolContext) *models.Payload {
	xl := trace.FromContext(ctx)

	// Guidelines come first: without them there is nothing to author
	// with, so repository inspection is not attempted.
	guidelines, err := s.guides.Load(guides.ConventionalCommitGuidelines)
	if err != nil {
		xl.Warnf("Failed to load commit guidelines: %v", err)
		kind := models.ErrorKindResourceUnreadable
		if errors.Is(err, guides.ErrDocumentNotFound) {
			kind = models.ErrorKindResourceNotFound
		}
		cause := err
		var de *guides.DocumentError
		if errors.As(err, &de) {
			cause = de.Cause()
		}
		return models.NewGuidelinesError(kind, s.guides.Resolve(guides.ConventionalCommitGuidelines), cause)
	}

	workDir := s.workDir(call, tc)

	root, err := s.git.ResolveTopLevel(workDir)
	if err != nil {
		xl.Infof("Not a git repository: %s", workDir)
		return models.NewGitCommandError(git.OutputOf(err))
	}

	status, err := s.git.Status(root)
	if err != nil {
		return models.NewGitCommandError(git.OutputOf(err))
	}

	diff, err := s.git.StagedDiff(root)
	if err != nil {
		return models.NewGitCommandError(git.OutputOf(err))
	}

	if isBlank(diff) {
		// Expected outcome, not a failure: the caller stages and retries.
		xl.Infof("No staged changes in %s", root)
		return models.NewNoStagedChanges(root)
	}

	return models.NewCommitContext(root, status, diff, guidelines, commitInstructions)
}

// workDir picks the directory repository resolution starts from.
func (s *ConventionalCommitsServer) workDir(call *models.ToolCall, tc *models.ToolContext) string {
	if path, ok := call.Function.Arguments["repository_path"].(string); ok && path != "" {
		return path
	}
	if tc != nil && tc.WorkDir != "" {
		return tc.WorkDir
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// validateCommitMessage normalizes the message, pipes it through the
// linter and maps the exit status to a structured verdict.
func (s *ConventionalCommitsServer) validateCommitMessage(ctx context.Context, call *models.ToolCall) (*models.ToolResult, error) {
	xl := trace.FromContext(ctx)

	message, ok := call.Function.Arguments["message"].(string)
	if !ok {
		return nil, fmt.Errorf("message must be a string, got %T", call.Function.Arguments["message"])
	}

	normalized := lint.Normalize(message)

	result, err := s.linter.Run(normalized)
	if err != nil {
		if errors.Is(err, lint.ErrNotInstalled) {
			xl.Warnf("commitlint not installed")
			return textResult(call.ID, models.NewCommitlintMissing())
		}
		xl.Errorf("commitlint invocation failed: %v", err)
		return textResult(call.ID, models.NewValidationError(err))
	}

	if result.Valid {
		return textResult(call.ID, models.NewValidMessage(normalized, result.Output, lint.Command(normalized)))
	}
	return textResult(call.ID, models.NewInvalidMessage(normalized, result.Output))
}

// isBlank reports whether a diff contains only whitespace.
func isBlank(s string) bool {
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\v', '\f':
		default:
			return false
		}
	}
	return true
}
