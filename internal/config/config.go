package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/pyboot/internal/foundation/validation"
)

// DefaultPath is the configuration file looked up in the work dir.
const DefaultPath = "pyboot.yaml"

// DefaultApp is the ASGI application target handed to the server.
const DefaultApp = "app.main:app"

// Config represents the launcher configuration. Every field is optional; an
// absent file gives the fixed default behaviour.
type Config struct {
	// Python overrides system runtime discovery (python3, then python).
	Python string `yaml:"python,omitempty"`
	// App is the module:attribute target served by uvicorn.
	App string `yaml:"app,omitempty"`
	// EnvFile is a dotenv file merged into the server environment.
	EnvFile string `yaml:"env_file,omitempty"`
	// Proxy is exported to the installer as HTTP(S)_PROXY when set. Disabled by default.
	Proxy string    `yaml:"proxy,omitempty"`
	Log   LogConfig `yaml:"log,omitempty"`
}

// LogConfig configures the launcher's own logging.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from path. A missing file is not an error: the
// defaults are returned and found is false.
func Load(path string) (cfg *Config, found bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = Default()
		ApplyEnvOverrides(cfg)
		return cfg, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err = Parse(data)
	if err != nil {
		return nil, true, fmt.Errorf("%s: %w", path, err)
	}
	ApplyEnvOverrides(cfg)
	return cfg, true, nil
}

// Parse decodes YAML configuration, expanding ${VAR} references first.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	c.Python = strings.TrimSpace(c.Python)
	c.App = strings.TrimSpace(c.App)
	if c.App == "" {
		c.App = DefaultApp
	}
	c.Proxy = strings.TrimSpace(c.Proxy)
	if c.Log.Level == "" {
		c.Log.Level = string(LogLevelInfo)
	}
	if c.Log.Format == "" {
		c.Log.Format = string(LogFormatText)
	}
}

// Validate checks field values that cannot be defaulted. Every problem is
// reported, not just the first.
func (c *Config) Validate() error {
	return configValidators.Validate(c).ToError()
}

var configValidators = validation.NewChain(validateApp, validateProxy, validateLog)

func validateApp(c *Config) validation.Result {
	module, attr, ok := strings.Cut(c.App, ":")
	if !ok || module == "" || attr == "" {
		return validation.Fail("app", "format", "%q must be in module:attribute form", c.App)
	}
	return validation.Valid()
}

func validateProxy(c *Config) validation.Result {
	if c.Proxy == "" {
		return validation.Valid()
	}
	u, err := url.Parse(c.Proxy)
	if err != nil || u.Host == "" {
		return validation.Fail("proxy", "url", "%q is not an absolute URL", c.Proxy)
	}
	switch u.Scheme {
	case "http", "https", "socks5", "socks5h":
		return validation.Valid()
	default:
		return validation.Fail("proxy", "scheme", "unsupported scheme %q", u.Scheme)
	}
}

func validateLog(c *Config) validation.Result {
	result := validation.Valid()
	if _, err := logLevelNormalizer.NormalizeWithValidation(c.Log.Level); err != nil {
		result = result.Combine(validation.Fail("log.level", "enum", "%v", err))
	}
	if _, err := logFormatNormalizer.NormalizeWithValidation(c.Log.Format); err != nil {
		result = result.Combine(validation.Fail("log.format", "enum", "%v", err))
	}
	return result
}

const initTemplate = `# pyboot configuration. Every key is optional.
#
# The virtual environment directory (venv), the manifest (requirements.txt)
# and the server address (0.0.0.0:8000, reload on) are fixed.

# Interpreter used to create the virtual environment.
# Defaults to the first of python3, python on PATH.
# python: python3.12

# ASGI application served by uvicorn.
app: app.main:app

# Dotenv file merged into the server environment. Existing variables win.
# env_file: .env

# Proxy exported to the installer as HTTP_PROXY/HTTPS_PROXY. Off unless set.
# proxy: http://proxy.internal:3128

log:
  level: info   # debug, info, warn, error
  format: text  # text, json
`

// Init writes a commented default configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}
	if err := os.WriteFile(configPath, []byte(initTemplate), 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
