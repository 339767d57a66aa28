// Package config loads and validates the session configuration for the
// portal automation client: target address, credentials and browser driver
// options. Configuration is immutable once loaded; the client never writes
// it back.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultTimeout bounds every browser primitive unless overridden.
const DefaultTimeout = 30 * time.Second

// Driver configures how the browser behind the session is obtained and
// driven. The three initialization modes are selected by precedence:
// CDPEndpoint (attach), UserDataDir/Persistent (durable profile), otherwise
// an ephemeral launch.
type Driver struct {
	// Headless runs the browser without a visible window.
	Headless bool `yaml:"headless"`

	// Timeout is the default wait bound per operation.
	Timeout Duration `yaml:"timeout"`

	// UserDataDir is an on-disk profile directory; cookies and session
	// state survive process restarts when set.
	UserDataDir string `yaml:"userDataDir"`

	// Persistent forces a durable profile even when UserDataDir is empty;
	// a default directory is derived under the config home.
	Persistent bool `yaml:"persistent"`

	// CDPEndpoint attaches to an already-running browser instead of
	// launching one. Takes precedence over every other mode.
	CDPEndpoint string `yaml:"cdpEndpoint"`

	// CDPPort exposes a local control port on a freshly launched browser so
	// a future process can re-attach to the same live session.
	CDPPort int `yaml:"cdpPort"`

	// Channel selects an installed browser build ("chrome", "msedge", ...).
	Channel string `yaml:"channel"`

	// KeepAlive detaches on Close without terminating the browser process.
	KeepAlive bool `yaml:"keepAlive"`
}

// Session is the immutable input for one automation session.
type Session struct {
	// BaseURL is the portal's entry address, e.g. https://sei.example.gov/sei/.
	BaseURL string `yaml:"baseURL"`

	// Username, Password and Org authenticate against the portal. Org is the
	// tenant/organization selector and may be empty for single-org portals.
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Org      string `yaml:"org"`

	Driver Driver `yaml:"driver"`
}

// Duration wraps time.Duration with YAML support for values like "45s".
// Bare integers are read as seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw == "" {
		*d = 0
		return nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		*d = Duration(time.Duration(secs) * time.Second)
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// DefaultPath returns the default configuration file location,
// ~/.tramita/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".tramita", "config.yaml"), nil
}

// Load reads a session configuration from path. An empty path uses
// DefaultPath. Environment overrides are applied after the file is read.
func Load(path string) (*Session, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	cfg := &Session{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// No file is fine; the environment may carry everything.
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays TRAMITA_* environment variables onto the file values.
// The environment wins so credentials can stay out of the file.
func (s *Session) applyEnv() {
	if v := os.Getenv("TRAMITA_BASE_URL"); v != "" {
		s.BaseURL = v
	}
	if v := os.Getenv("TRAMITA_USER"); v != "" {
		s.Username = v
	}
	if v := os.Getenv("TRAMITA_PASSWORD"); v != "" {
		s.Password = v
	}
	if v := os.Getenv("TRAMITA_ORG"); v != "" {
		s.Org = v
	}
	if v := os.Getenv("TRAMITA_CDP_ENDPOINT"); v != "" {
		s.Driver.CDPEndpoint = v
	}
	if v := os.Getenv("TRAMITA_HEADLESS"); v != "" {
		s.Driver.Headless = v == "1" || strings.EqualFold(v, "true")
	}
}

func (s *Session) applyDefaults() {
	if s.Driver.Timeout == 0 {
		s.Driver.Timeout = Duration(DefaultTimeout)
	}
	if s.BaseURL != "" && !strings.HasSuffix(s.BaseURL, "/") {
		s.BaseURL += "/"
	}
}

// Validate checks that the configuration can open a session.
func (s *Session) Validate() error {
	if s.BaseURL == "" {
		return fmt.Errorf("config: baseURL is required")
	}
	u, err := url.Parse(s.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: baseURL %q is not a valid URL", s.BaseURL)
	}
	if s.Driver.CDPPort < 0 || s.Driver.CDPPort > 65535 {
		return fmt.Errorf("config: cdpPort %d out of range", s.Driver.CDPPort)
	}
	return nil
}

// ProfileDir resolves the durable profile directory for persistent mode:
// the explicit UserDataDir when set, else a default under the config home.
func (s *Session) ProfileDir() (string, error) {
	if s.Driver.UserDataDir != "" {
		return s.Driver.UserDataDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".tramita", "profile"), nil
}
