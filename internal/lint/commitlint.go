// Package lint wraps the external commitlint binary and normalizes
// commit message input.
package lint

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"regexp"
	"strings"
)

// ErrNotInstalled marks a linter binary that is absent from the host,
// as distinct from a linter that ran and rejected the message.
var ErrNotInstalled = errors.New("commitlint is not installed")

const commitPrefix = "git commit -m"

// quotedMessageRe extracts the first single- or double-quoted message
// immediately following the commit command prefix.
var quotedMessageRe = regexp.MustCompile(`git commit -m ["'](.+?)["']`)

// Normalize strips the `git commit -m` command wrapping from a message,
// if present. When no quoted payload matches, the prefix token and any
// leading/trailing quote characters are stripped verbatim; this fallback
// is lossy for messages containing nested quotes, a known limitation
// carried over from the original wire contract.
func Normalize(message string) string {
	if !strings.HasPrefix(message, commitPrefix) {
		return message
	}
	if m := quotedMessageRe.FindStringSubmatch(message); m != nil {
		return m[1]
	}
	message = strings.ReplaceAll(message, commitPrefix, "")
	message = strings.TrimSpace(message)
	message = strings.Trim(message, `"`)
	message = strings.Trim(message, `'`)
	return message
}

// Command re-wraps a message into a ready-to-use commit invocation.
func Command(message string) string {
	return fmt.Sprintf(`git commit -m "%s"`, message)
}

// Result is the outcome of one linter run.
type Result struct {
	Valid  bool
	Output string // raw linter stdout
}

// Runner invokes the external linter.
type Runner interface {
	// Run pipes the message to the linter on stdin and maps the exit
	// status to a Result. A missing binary returns ErrNotInstalled.
	Run(message string) (*Result, error)
}

type commitlintRunner struct {
	bin string
}

// NewRunner creates a Runner using the given linter binary. An empty bin
// falls back to "commitlint" resolved via PATH.
func NewRunner(bin string) Runner {
	if bin == "" {
		bin = "commitlint"
	}
	return &commitlintRunner{bin: bin}
}

// Run invokes the linter with no arguments, message on stdin. Exit 0 is
// valid; any other exit status is an operational rejection with the
// diagnostic text on stdout.
func (r *commitlintRunner) Run(message string) (*Result, error) {
	cmd := exec.Command(r.bin)
	cmd.Stdin = strings.NewReader(message)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return &Result{Valid: true, Output: stdout.String()}, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &Result{Valid: false, Output: stdout.String()}, nil
	}

	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotInstalled, r.bin)
	}

	return nil, fmt.Errorf("commitlint invocation failed: %w", err)
}
