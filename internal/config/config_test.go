package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "git", cfg.Git.Binary)
	assert.Equal(t, "commitlint", cfg.Lint.Binary)
	assert.Equal(t, "/tmp/commitmcp.log", cfg.Server.LogFile)
	assert.Empty(t, cfg.Guides.BaseDir)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "no-such-config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "git", cfg.Git.Binary)
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  log_file: /var/log/commitmcp.log
git:
  binary: /usr/local/bin/git
lint:
  binary: /usr/local/bin/commitlint
guides:
  base_dir: /opt/commitmcp
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "/var/log/commitmcp.log", cfg.Server.LogFile)
	assert.Equal(t, "/usr/local/bin/git", cfg.Git.Binary)
	assert.Equal(t, "/usr/local/bin/commitlint", cfg.Lint.Binary)
	assert.Equal(t, "/opt/commitmcp", cfg.Guides.BaseDir)
}

func TestEnvOverridesFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("lint:\n  binary: from-file\n"), 0644))

	t.Setenv("COMMITMCP_LINT_BINARY", "from-env")
	t.Setenv("COMMITMCP_GUIDES_DIR", "/env/guides")

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Lint.Binary)
	assert.Equal(t, "/env/guides", cfg.Guides.BaseDir)
}

func TestLoadInvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("lint: [unclosed"), 0644))

	_, err := Load(configPath)
	assert.Error(t, err)
}
