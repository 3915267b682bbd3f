package guides

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDoc(t *testing.T, baseDir, relPath, content string) {
	t.Helper()
	fullPath := filepath.Join(baseDir, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0755))
	require.NoError(t, os.WriteFile(fullPath, []byte(content), 0644))
}

func TestLoad(t *testing.T) {
	baseDir := t.TempDir()
	const content = "# Guidelines\n\nUse feat/fix/chore.\n"
	writeDoc(t, baseDir, ConventionalCommitGuidelines, content)

	l := NewLoader(baseDir)
	got, err := l.Load(ConventionalCommitGuidelines)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

// Loading the same document twice returns byte-identical content; the
// loader never mutates or caches the source file.
func TestLoadIsStable(t *testing.T) {
	baseDir := t.TempDir()
	writeDoc(t, baseDir, GoogleStylePythonGuide, "# Style\n\nDocstrings everywhere.\n")

	l := NewLoader(baseDir)
	first, err := l.Load(GoogleStylePythonGuide)
	require.NoError(t, err)
	second, err := l.Load(GoogleStylePythonGuide)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLoadNotFound(t *testing.T) {
	l := NewLoader(t.TempDir())

	_, err := l.Load(GoogleStylePythonGuide)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDocumentNotFound))
	assert.False(t, errors.Is(err, ErrDocumentUnreadable))

	var de *DocumentError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, l.Resolve(GoogleStylePythonGuide), de.Path)
}

func TestLoadUnreadable(t *testing.T) {
	baseDir := t.TempDir()
	// A directory at the document path exists but cannot be read as a
	// file, which must not be classified as absent.
	require.NoError(t, os.MkdirAll(filepath.Join(baseDir, filepath.FromSlash(GoogleStylePythonGuide)), 0755))

	l := NewLoader(baseDir)
	_, err := l.Load(GoogleStylePythonGuide)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDocumentUnreadable))
	assert.False(t, errors.Is(err, ErrDocumentNotFound))
}

func TestResolve(t *testing.T) {
	l := NewLoader("/opt/commitmcp")
	assert.Equal(t,
		filepath.Join("/opt/commitmcp", "git_guides", "markdown", "conventional_commit_guidelines.md"),
		l.Resolve(ConventionalCommitGuidelines))
}

func TestDefaultBaseDir(t *testing.T) {
	assert.NotEmpty(t, DefaultBaseDir())
}
