package servers

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/qiniu/commitmcp/internal/git"
	"github.com/qiniu/commitmcp/internal/guides"
	"github.com/qiniu/commitmcp/internal/lint"
	"github.com/qiniu/commitmcp/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGuidelines = "# Conventional Commits\n\ntype(scope): description\n"

func fullContext() *models.ToolContext {
	return &models.ToolContext{
		Permissions: []string{"git:read", "exec:run", "fs:read"},
	}
}

// guidesDir writes the commit guideline fixture and returns its base dir.
func guidesDir(t *testing.T) string {
	t.Helper()
	baseDir := t.TempDir()
	fullPath := filepath.Join(baseDir, filepath.FromSlash(guides.ConventionalCommitGuidelines))
	require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0755))
	require.NoError(t, os.WriteFile(fullPath, []byte(testGuidelines), 0644))
	return baseDir
}

// stagedRepo creates a repository with one staged file.
func stagedRepo(t *testing.T) string {
	t.Helper()
	repo := emptyRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(repo, "main.go"), []byte("package main\n"), 0644))
	runGit(t, repo, "add", "main.go")
	return repo
}

func emptyRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available on PATH")
	}
	repo := t.TempDir()
	runGit(t, repo, "init")
	runGit(t, repo, "config", "user.email", "test@example.com")
	runGit(t, repo, "config", "user.name", "test")
	return repo
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, output)
}

// linterBin writes a fake commitlint and returns its path.
func linterBin(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixture requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "commitlint")
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

func okLinter(t *testing.T) string {
	return linterBin(t, "#!/bin/sh\ncat >/dev/null\nprintf 'ok'\nexit 0\n")
}

func newCommitsServer(t *testing.T, guidesBase, linter string) *ConventionalCommitsServer {
	t.Helper()
	return NewConventionalCommitsServer(
		git.NewService(""),
		lint.NewRunner(linter),
		guides.NewLoader(guidesBase),
	)
}

// callTool invokes one tool and decodes the JSON document it returned.
func callTool(t *testing.T, server *ConventionalCommitsServer, name string, args map[string]interface{}) map[string]interface{} {
	t.Helper()
	call := &models.ToolCall{
		ID:       "call-1",
		Function: models.ToolFunction{Name: name, Arguments: args},
	}

	result, err := server.HandleToolCall(context.Background(), call, fullContext())
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, "text", result.Type)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(result.Content), &doc))
	return doc
}

func TestGenerateConventionalCommit(t *testing.T) {
	repo := stagedRepo(t)
	server := newCommitsServer(t, guidesDir(t), okLinter(t))

	doc := callTool(t, server, "generate_conventional_commit",
		map[string]interface{}{"repository_path": repo})

	require.NotContains(t, doc, "error")
	assert.NotEmpty(t, doc["repository"])
	assert.NotEmpty(t, doc["status"])
	assert.Contains(t, doc["diff"], "main.go")
	assert.Equal(t, testGuidelines, doc["required_guideliness"])
	assert.Contains(t, doc["instructions"], `Return ONLY: git commit -m "your message"`)
}

func TestGenerateConventionalCommitFromSubdirectory(t *testing.T) {
	repo := stagedRepo(t)
	nested := filepath.Join(repo, "sub", "dir")
	require.NoError(t, os.MkdirAll(nested, 0755))

	server := newCommitsServer(t, guidesDir(t), okLinter(t))
	doc := callTool(t, server, "generate_conventional_commit",
		map[string]interface{}{"repository_path": nested})

	require.NotContains(t, doc, "error")
	assert.NotEmpty(t, doc["repository"])
}

func TestGenerateConventionalCommitNoStagedChanges(t *testing.T) {
	repo := emptyRepo(t)
	server := newCommitsServer(t, guidesDir(t), okLinter(t))

	doc := callTool(t, server, "generate_conventional_commit",
		map[string]interface{}{"repository_path": repo})

	assert.Contains(t, doc["error"], "No staged changes found")
	assert.NotEmpty(t, doc["repository"], "soft error keeps the resolved root for retry")
	assert.NotContains(t, doc, "diff")
}

func TestGenerateConventionalCommitNotARepository(t *testing.T) {
	server := newCommitsServer(t, guidesDir(t), okLinter(t))

	doc := callTool(t, server, "generate_conventional_commit",
		map[string]interface{}{"repository_path": t.TempDir()})

	assert.Contains(t, doc["error"], "Git command failed")
	assert.Contains(t, doc["hint"], "git repository")
	assert.NotContains(t, doc, "repository")
}

func TestGenerateConventionalCommitGuidelinesMissing(t *testing.T) {
	repo := stagedRepo(t)
	emptyGuides := t.TempDir()
	server := newCommitsServer(t, emptyGuides, okLinter(t))

	doc := callTool(t, server, "generate_conventional_commit",
		map[string]interface{}{"repository_path": repo})

	assert.Contains(t, doc["error"], "Failed to load conventional commit guidelines")
	assert.Contains(t, doc["file_path"], "conventional_commit_guidelines.md")
	assert.Contains(t, doc["hint"], "git_guides/markdown/")
	// Repository inspection is skipped entirely in this case.
	assert.NotContains(t, doc, "repository")
	assert.NotContains(t, doc, "status")
}

func TestValidateCommitMessageValid(t *testing.T) {
	server := newCommitsServer(t, guidesDir(t), okLinter(t))

	doc := callTool(t, server, "validate_commit_message",
		map[string]interface{}{"message": "feat: add login"})

	assert.Equal(t, true, doc["valid"])
	assert.Equal(t, "feat: add login", doc["message"])
	assert.Equal(t, "ok", doc["output"])
	assert.Equal(t, `git commit -m "feat: add login"`, doc["git_command"])
	assert.Contains(t, doc["note"], "valid")
}

func TestValidateCommitMessageStripsCommandForm(t *testing.T) {
	server := newCommitsServer(t, guidesDir(t), okLinter(t))

	doc := callTool(t, server, "validate_commit_message",
		map[string]interface{}{"message": `git commit -m "feat: add login"`})

	assert.Equal(t, true, doc["valid"])
	assert.Equal(t, "feat: add login", doc["message"])
	// Round-trip: the suggested command re-wraps the same message.
	assert.Equal(t, `git commit -m "feat: add login"`, doc["git_command"])
}

func TestValidateCommitMessageInvalid(t *testing.T) {
	rejecting := linterBin(t, "#!/bin/sh\ncat >/dev/null\nprintf 'type may not be empty'\nexit 1\n")
	server := newCommitsServer(t, guidesDir(t), rejecting)

	doc := callTool(t, server, "validate_commit_message",
		map[string]interface{}{"message": "bogus"})

	assert.Equal(t, false, doc["valid"])
	assert.Equal(t, "bogus", doc["message"])
	assert.Equal(t, "type may not be empty", doc["errors"])
	assert.Equal(t, "guide://git-conventional-commits", doc["required_resource"])
	assert.Contains(t, doc["fix_instructions"], "failed validation")
}

func TestValidateCommitMessageLinterMissing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	server := newCommitsServer(t, guidesDir(t), "commitlint")

	doc := callTool(t, server, "validate_commit_message",
		map[string]interface{}{"message": "feat: add login"})

	assert.Equal(t, "commitlint is not installed", doc["error"])
	assert.Contains(t, doc["solution"], "npm install -g @commitlint/cli")
	assert.Contains(t, doc["note"], ".commitlintrc.json")
}

func TestHandleToolCallUnknownTool(t *testing.T) {
	server := newCommitsServer(t, guidesDir(t), okLinter(t))

	call := &models.ToolCall{
		ID:       "call-1",
		Function: models.ToolFunction{Name: "nope", Arguments: map[string]interface{}{}},
	}
	_, err := server.HandleToolCall(context.Background(), call, fullContext())
	assert.Error(t, err)
}

func TestIsAvailable(t *testing.T) {
	server := newCommitsServer(t, guidesDir(t), okLinter(t))

	assert.True(t, server.IsAvailable(context.Background(), fullContext()))
	assert.False(t, server.IsAvailable(context.Background(), nil))
	assert.False(t, server.IsAvailable(context.Background(), &models.ToolContext{Permissions: []string{"fs:read"}}))
}
