package git

import (
	"os/exec"
	"strings"
)

// Service runs git subcommands. Every invocation is a single synchronous
// call with the inherited environment, scoped by working directory.
type Service interface {
	// ResolveTopLevel returns the repository root containing workDir.
	ResolveTopLevel(workDir string) (string, error)

	// Status returns the human-readable `git status` summary.
	Status(repoRoot string) (string, error)

	// StagedDiff returns the diff restricted to index changes.
	StagedDiff(repoRoot string) (string, error)
}

type gitService struct {
	bin string
}

// NewService creates a Service using the given git binary. An empty bin
// falls back to "git" resolved via PATH.
func NewService(bin string) Service {
	if bin == "" {
		bin = "git"
	}
	return &gitService{bin: bin}
}

// ResolveTopLevel resolves the repository root via `git rev-parse
// --show-toplevel`. Stderr is folded into the output so a failure carries
// git's own diagnostic text.
func (g *gitService) ResolveTopLevel(workDir string) (string, error) {
	cmd := exec.Command(g.bin, "rev-parse", "--show-toplevel")
	cmd.Dir = workDir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", CommandError("rev-parse", workDir, string(output), err)
	}
	return strings.TrimSpace(string(output)), nil
}

// Status runs `git status` in the repository root.
func (g *gitService) Status(repoRoot string) (string, error) {
	cmd := exec.Command(g.bin, "status")
	cmd.Dir = repoRoot
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", CommandError("status", repoRoot, string(output), err)
	}
	return string(output), nil
}

// StagedDiff runs `git diff --staged` in the repository root. With no
// commits yet, git diffs against the empty tree, so a fresh repository
// with staged files still produces output.
func (g *gitService) StagedDiff(repoRoot string) (string, error) {
	cmd := exec.Command(g.bin, "diff", "--staged")
	cmd.Dir = repoRoot
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", CommandError("diff-staged", repoRoot, string(output), err)
	}
	return string(output), nil
}
