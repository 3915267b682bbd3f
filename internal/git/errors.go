package git

import (
	"errors"
	"fmt"
)

// ErrCommandFailed marks any git invocation that exited non-zero.
var ErrCommandFailed = errors.New("git command failed")

// GitError carries the failed operation, the directory it ran in and the
// combined output git produced.
type GitError struct {
	Op     string // subcommand that failed
	Dir    string // working directory of the invocation
	Output string // combined stdout+stderr
	Err    error  // underlying exec error
}

func (e *GitError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("git %s failed in %s: %v: %s", e.Op, e.Dir, e.Err, e.Output)
	}
	return fmt.Sprintf("git %s failed in %s: %v", e.Op, e.Dir, e.Err)
}

func (e *GitError) Unwrap() error {
	return ErrCommandFailed
}

// CommandError creates a GitError for a failed subcommand.
func CommandError(op, dir, output string, err error) error {
	return &GitError{
		Op:     op,
		Dir:    dir,
		Output: output,
		Err:    err,
	}
}

// OutputOf extracts the raw command output from a git error, for error
// payloads that surface git's own text to the caller.
func OutputOf(err error) string {
	var ge *GitError
	if errors.As(err, &ge) {
		return ge.Output
	}
	return err.Error()
}
