package models

import (
	"encoding/json"
	"fmt"
)

// ErrorKind classifies every failure a tool can report. Exactly one
// payload constructor exists per kind; handlers never build ad-hoc error
// documents.
type ErrorKind string

const (
	ErrorKindNone                ErrorKind = ""
	ErrorKindResourceNotFound    ErrorKind = "resource_not_found"
	ErrorKindResourceUnreadable  ErrorKind = "resource_unreadable"
	ErrorKindExternalToolMissing ErrorKind = "external_tool_missing"
	ErrorKindExternalToolFailed  ErrorKind = "external_tool_failed"
	ErrorKindEmptyInput          ErrorKind = "empty_input"
	ErrorKindUnclassified        ErrorKind = "unclassified"
)

// Payload is one complete tool response document. Kind is bookkeeping
// for callers and tests; only the Body reaches the wire.
type Payload struct {
	Kind ErrorKind
	Body interface{}
}

// Encode serializes the payload body. Tools return the resulting string
// as their sole output regardless of success or failure.
func (p *Payload) Encode() (string, error) {
	data, err := json.Marshal(p.Body)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}
	return string(data), nil
}

// IsError reports whether the payload describes a failure.
func (p *Payload) IsError() bool {
	return p.Kind != ErrorKindNone
}

// CommitContext is the success document of generate_conventional_commit.
// The required_guideliness key (sic) is the wire contract inherited from
// the first release and must not be corrected.
type CommitContext struct {
	Repository   string `json:"repository"`
	Status       string `json:"status"`
	Diff         string `json:"diff"`
	Guidelines   string `json:"required_guideliness"`
	Instructions string `json:"instructions"`
}

// NewCommitContext bundles everything the caller needs to author a
// conventional commit message.
func NewCommitContext(repository, status, diff, guidelines, instructions string) *Payload {
	return &Payload{
		Kind: ErrorKindNone,
		Body: &CommitContext{
			Repository:   repository,
			Status:       status,
			Diff:         diff,
			Guidelines:   guidelines,
			Instructions: instructions,
		},
	}
}

// ValidMessage is the success document of validate_commit_message.
type ValidMessage struct {
	Valid      bool   `json:"valid"`
	Message    string `json:"message"`
	Output     string `json:"output"`
	GitCommand string `json:"git_command"`
	Note       string `json:"note"`
}

// NewValidMessage reports a message the linter accepted, with a
// ready-to-use commit command re-wrapping it.
func NewValidMessage(message, output, gitCommand string) *Payload {
	return &Payload{
		Kind: ErrorKindNone,
		Body: &ValidMessage{
			Valid:      true,
			Message:    message,
			Output:     output,
			GitCommand: gitCommand,
			Note:       "✓ Message is valid and follows guide://git-conventional-commits format",
		},
	}
}

// InvalidMessage is the rejection document of validate_commit_message.
// Rejection is an operational outcome of the external tool, not a fault.
type InvalidMessage struct {
	Valid            bool   `json:"valid"`
	Message          string `json:"message"`
	Errors           string `json:"errors"`
	RequiredResource string `json:"required_resource"`
	FixInstructions  string `json:"fix_instructions"`
}

// NewInvalidMessage reports a message the linter rejected.
func NewInvalidMessage(message, errors string) *Payload {
	return &Payload{
		Kind: ErrorKindExternalToolFailed,
		Body: &InvalidMessage{
			Valid:            false,
			Message:          message,
			Errors:           errors,
			RequiredResource: "guide://git-conventional-commits",
			FixInstructions: "Your commit message failed validation. " +
				"Re-read guide://git-conventional-commits and fix the message, " +
				"then validate again if needed.",
		},
	}
}

// ResourceError names a local static document that could not be loaded.
type ResourceError struct {
	Error    string `json:"error"`
	FilePath string `json:"file_path"`
	Hint     string `json:"hint"`
}

// NewGuidelinesError reports an unreadable or missing guideline document.
func NewGuidelinesError(kind ErrorKind, path string, err error) *Payload {
	return &Payload{
		Kind: kind,
		Body: &ResourceError{
			Error:    fmt.Sprintf("Failed to load conventional commit guidelines: %s", err),
			FilePath: path,
			Hint: "Ensure the file 'conventional_commit_guidelines.md' exists at " +
				"git_guides/markdown/ relative to the server script.",
		},
	}
}

// ToolFailure carries the raw output of an external command that exited
// non-zero.
type ToolFailure struct {
	Error string `json:"error"`
	Hint  string `json:"hint"`
}

// NewGitCommandError reports a failed git invocation, typically running
// outside a repository.
func NewGitCommandError(output string) *Payload {
	return &Payload{
		Kind: ErrorKindExternalToolFailed,
		Body: &ToolFailure{
			Error: fmt.Sprintf("Git command failed: %s", output),
			Hint:  "Make sure you're in a git repository",
		},
	}
}

// EmptyInputError is the soft error for a repository with nothing
// staged. It keeps the resolved root so the caller can stage and retry.
type EmptyInputError struct {
	Error      string `json:"error"`
	Repository string `json:"repository"`
}

// NewNoStagedChanges reports the expected nothing-to-commit condition.
func NewNoStagedChanges(repository string) *Payload {
	return &Payload{
		Kind: ErrorKindEmptyInput,
		Body: &EmptyInputError{
			Error: "No staged changes found. Please run 'git add .' to stage " +
				"your changes first, then try again.",
			Repository: repository,
		},
	}
}

// MissingToolError names an executable absent from the host.
type MissingToolError struct {
	Error    string `json:"error"`
	Solution string `json:"solution"`
	Note     string `json:"note"`
}

// NewCommitlintMissing reports that the linter binary is not installed.
func NewCommitlintMissing() *Payload {
	return &Payload{
		Kind: ErrorKindExternalToolMissing,
		Body: &MissingToolError{
			Error:    "commitlint is not installed",
			Solution: "Install commitlint with: npm install -g @commitlint/cli @commitlint/config-conventional",
			Note:     "You also need a .commitlintrc.json file in your project root",
		},
	}
}

// UnclassifiedError is the catch-all for unexpected failures.
type UnclassifiedError struct {
	Error string `json:"error"`
}

// NewValidationError wraps an unexpected linter invocation failure.
func NewValidationError(err error) *Payload {
	return &Payload{
		Kind: ErrorKindUnclassified,
		Body: &UnclassifiedError{
			Error: fmt.Sprintf("Validation failed: %s", err),
		},
	}
}

// StyleGuide is the success document of the documentation tools.
type StyleGuide struct {
	Status     string `json:"status"`
	Guidelines string `json:"google_style_guideliness"`
}

// NewStyleGuide returns the document content verbatim.
func NewStyleGuide(content string) *Payload {
	return &Payload{
		Kind: ErrorKindNone,
		Body: &StyleGuide{
			Status:     "success",
			Guidelines: content,
		},
	}
}

// StyleGuideError distinguishes an absent document from an unreadable
// one via the Error field.
type StyleGuideError struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewStyleGuideNotFound reports an absent documentation file.
func NewStyleGuideNotFound(path string) *Payload {
	return &Payload{
		Kind: ErrorKindResourceNotFound,
		Body: &StyleGuideError{
			Status:  "error",
			Error:   "FileNotFoundError",
			Message: fmt.Sprintf("Documentation file not found at path: %s", path),
		},
	}
}

// NewStyleGuideUnreadable reports a documentation file that exists but
// could not be read.
func NewStyleGuideUnreadable(path string, err error) *Payload {
	return &Payload{
		Kind: ErrorKindResourceUnreadable,
		Body: &StyleGuideError{
			Status:  "error",
			Error:   "IOError",
			Message: fmt.Sprintf("Failed to read documentation file at %s: %s", path, err),
		},
	}
}
