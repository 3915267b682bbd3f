// Package guides loads the static markdown documents bundled with the
// server, resolved relative to the install location.
package guides

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Bundled document paths, relative to the guides base directory.
const (
	ConventionalCommitGuidelines = "git_guides/markdown/conventional_commit_guidelines.md"
	GoogleStylePythonGuide       = "python_guides/markdown/google_style_python_guide.md"
)

// Sentinel errors distinguishing an absent document from one that exists
// but cannot be read.
var (
	ErrDocumentNotFound   = errors.New("document not found")
	ErrDocumentUnreadable = errors.New("document unreadable")
)

// DocumentError carries the resolved path of the document that failed to
// load.
type DocumentError struct {
	Path string
	Err  error // ErrDocumentNotFound or ErrDocumentUnreadable

	cause error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("guide document %s: %v: %v", e.Path, e.Err, e.cause)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// Cause returns the underlying filesystem error.
func (e *DocumentError) Cause() error {
	return e.cause
}

// Loader reads bundled documents below a fixed base directory. The base
// is decided once at startup; documents are never configurable per call.
type Loader struct {
	baseDir string
}

// NewLoader creates a Loader rooted at baseDir. An empty baseDir falls
// back to the install location of the running binary.
func NewLoader(baseDir string) *Loader {
	if baseDir == "" {
		baseDir = DefaultBaseDir()
	}
	return &Loader{baseDir: baseDir}
}

// DefaultBaseDir returns the directory containing the running executable,
// falling back to the current working directory.
func DefaultBaseDir() string {
	exe, err := os.Executable()
	if err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		return filepath.Dir(exe)
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// Resolve returns the absolute path a relative document name loads from.
func (l *Loader) Resolve(relPath string) string {
	return filepath.Join(l.baseDir, filepath.FromSlash(relPath))
}

// Load reads one document byte-for-byte. Failures are typed: a missing
// file unwraps to ErrDocumentNotFound, any other read failure to
// ErrDocumentUnreadable.
func (l *Loader) Load(relPath string) (string, error) {
	fullPath := l.Resolve(relPath)

	data, err := os.ReadFile(fullPath)
	if err != nil {
		kind := ErrDocumentUnreadable
		if errors.Is(err, fs.ErrNotExist) {
			kind = ErrDocumentNotFound
		}
		return "", &DocumentError{Path: fullPath, Err: kind, cause: err}
	}
	return string(data), nil
}
