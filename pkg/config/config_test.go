package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
baseURL: https://sei.example.gov/sei
username: fulano
password: segredo
org: SEFAZ
driver:
  headless: true
  timeout: 45s
  cdpPort: 9222
  keepAlive: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://sei.example.gov/sei/", cfg.BaseURL, "base URL gains a trailing slash")
	assert.Equal(t, "fulano", cfg.Username)
	assert.Equal(t, "SEFAZ", cfg.Org)
	assert.True(t, cfg.Driver.Headless)
	assert.Equal(t, 45*time.Second, cfg.Driver.Timeout.Std())
	assert.Equal(t, 9222, cfg.Driver.CDPPort)
	assert.True(t, cfg.Driver.KeepAlive)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "baseURL: https://sei.example.gov/sei/\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, cfg.Driver.Timeout.Std())
}

func TestLoadMissingFileUsesEnvironment(t *testing.T) {
	t.Setenv("TRAMITA_BASE_URL", "https://sei.example.gov/sei/")
	t.Setenv("TRAMITA_USER", "fulano")
	t.Setenv("TRAMITA_HEADLESS", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "fulano", cfg.Username)
	assert.True(t, cfg.Driver.Headless)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, `
baseURL: https://sei.example.gov/sei/
username: do-arquivo
`)
	t.Setenv("TRAMITA_USER", "do-ambiente")
	t.Setenv("TRAMITA_CDP_ENDPOINT", "http://127.0.0.1:9222")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "do-ambiente", cfg.Username)
	assert.Equal(t, "http://127.0.0.1:9222", cfg.Driver.CDPEndpoint)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Run("missing base URL", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "baseURL is required")
	})

	t.Run("malformed base URL", func(t *testing.T) {
		path := writeConfig(t, "baseURL: not-a-url\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a valid URL")
	})

	t.Run("unparseable yaml", func(t *testing.T) {
		path := writeConfig(t, "baseURL: [unclosed\n")
		_, err := Load(path)
		require.Error(t, err)
	})
}

func TestDurationUnmarshal(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		expected time.Duration
		wantErr  bool
	}{
		{name: "go duration", yaml: "45s", expected: 45 * time.Second},
		{name: "minutes", yaml: "2m", expected: 2 * time.Minute},
		{name: "bare integer is seconds", yaml: "30", expected: 30 * time.Second},
		{name: "empty is zero", yaml: `""`, expected: 0},
		{name: "garbage", yaml: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := yaml.Unmarshal([]byte(tt.yaml), &d)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, d.Std())
		})
	}
}

func TestDurationMarshal(t *testing.T) {
	out, err := yaml.Marshal(Duration(90 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, "1m30s\n", string(out))
}

func TestProfileDir(t *testing.T) {
	explicit := Session{Driver: Driver{UserDataDir: "/tmp/custom-profile"}}
	dir, err := explicit.ProfileDir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom-profile", dir)

	implicit := Session{}
	dir, err = implicit.ProfileDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("profile"), filepath.Base(dir))
}

func TestValidateCDPPortRange(t *testing.T) {
	s := Session{BaseURL: "https://sei.example.gov/sei/", Driver: Driver{CDPPort: 70000}}
	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}
