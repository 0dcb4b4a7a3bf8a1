// Package config loads settings for the file MCP server and client.
//
// Values come from built-in defaults, then an optional YAML file, then
// environment variables. Binaries apply flags last.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the variable pointing at a YAML config file.
const EnvConfigPath = "FILE_MCP_CONFIG"

// DefaultServerBinary is spawned by the client when nothing else is configured.
const DefaultServerBinary = "file-mcp-server"

// Server configures the dispatcher binary. HTTPToken, when set, is required
// as a bearer token on HTTP requests; HTTPAllowlist is a comma-separated CIDR
// list and loopback callers are always allowed.
type Server struct {
	BaseDir       string `yaml:"base_dir"`
	HTTPAddr      string `yaml:"http_addr"`
	HTTPToken     string `yaml:"http_token"`
	HTTPAllowlist string `yaml:"http_allowlist"`
	MaxReadBytes  int64  `yaml:"max_read_bytes"`
	LogDir        string `yaml:"log_dir"`
	LogLevel      string `yaml:"log_level"`
}

// Client configures the session driver binary.
type Client struct {
	ServerCommand    []string      `yaml:"server_command"`
	CallTimeout      time.Duration `yaml:"call_timeout"`
	TerminateTimeout time.Duration `yaml:"terminate_timeout"`
	StderrLines      int           `yaml:"stderr_lines"`
	LogDir           string        `yaml:"log_dir"`
	LogLevel         string        `yaml:"log_level"`
}

// Config is the full settings file.
type Config struct {
	Server Server `yaml:"server"`
	Client Client `yaml:"client"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Server: Server{
			MaxReadBytes: 1024 * 1024,
			LogDir:       "logs",
			LogLevel:     "info",
		},
		Client: Client{
			ServerCommand:    []string{DefaultServerBinary},
			TerminateTimeout: 5 * time.Second,
			StderrLines:      200,
			LogDir:           "logs",
			LogLevel:         "info",
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies the
// environment. An empty path falls back to $FILE_MCP_CONFIG; a missing file
// is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.fillDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.BaseDir, "FILE_MCP_BASE_DIR")
	setString(&c.Server.HTTPAddr, "FILE_MCP_HTTP_ADDR")
	setString(&c.Server.HTTPToken, "FILE_MCP_HTTP_TOKEN")
	setString(&c.Server.HTTPAllowlist, "FILE_MCP_HTTP_ALLOWLIST")
	setString(&c.Server.LogDir, "LOG_DIR")
	setString(&c.Server.LogLevel, "LOG_LEVEL")
	setString(&c.Client.LogDir, "LOG_DIR")
	setString(&c.Client.LogLevel, "LOG_LEVEL")

	if v := os.Getenv("FILE_MCP_MAX_READ_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("FILE_MCP_MAX_READ_BYTES: %w", err)
		}
		c.Server.MaxReadBytes = n
	}
	if v := strings.TrimSpace(os.Getenv("FILE_MCP_SERVER_CMD")); v != "" {
		c.Client.ServerCommand = strings.Fields(v)
	}
	if err := setDuration(&c.Client.CallTimeout, "FILE_MCP_CALL_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&c.Client.TerminateTimeout, "FILE_MCP_TERMINATE_TIMEOUT"); err != nil {
		return err
	}
	return nil
}

func (c *Config) fillDefaults() {
	def := Default()
	if c.Server.MaxReadBytes <= 0 {
		c.Server.MaxReadBytes = def.Server.MaxReadBytes
	}
	if len(c.Client.ServerCommand) == 0 {
		c.Client.ServerCommand = def.Client.ServerCommand
	}
	if c.Client.TerminateTimeout <= 0 {
		c.Client.TerminateTimeout = def.Client.TerminateTimeout
	}
	if c.Client.StderrLines <= 0 {
		c.Client.StderrLines = def.Client.StderrLines
	}
}

// EnvOr returns the environment value for key, or fallback when unset.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
