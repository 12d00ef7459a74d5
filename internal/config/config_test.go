package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_ParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
requester: acme/platform
org: acme
labels:
  - bug
  - p1
log:
  level: debug
  file: /tmp/revq.log
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "acme/platform", cfg.Requester)
	assert.Equal(t, "acme", cfg.Org)
	assert.Equal(t, []string{"bug", "p1"}, cfg.Labels)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/revq.log", cfg.Log.File)
}

func TestLoad_PartialFileBackfillsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("org: acme\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "acme", cfg.Org)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("org: [unclosed\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestPath(t *testing.T) {
	assert.Equal(t, "/explicit/config.yml", Path("/explicit/config.yml"))

	t.Setenv("REVQ_CONFIG_HOME", "/custom/home")
	assert.Equal(t, filepath.Join("/custom/home", "config.yml"), Path(""))

	t.Setenv("REVQ_CONFIG_HOME", "")
	got := Path("")
	if got != "" {
		assert.Equal(t, filepath.Join("revq", "config.yml"), filepath.Join(filepath.Base(filepath.Dir(got)), filepath.Base(got)))
	}
}
