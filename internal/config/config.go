// Package config loads pikpoint's configuration through viper: a YAML file,
// PIKPOINT_* environment variables, and built-in defaults, in increasing order
// of precedence: defaults, file, environment.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/steveyegge/pikpoint/internal/policy"
	"github.com/steveyegge/pikpoint/internal/source/factory"
	"github.com/steveyegge/pikpoint/internal/types"
)

// EnvPrefix is prepended to every environment override, e.g. PIKPOINT_BOARD_API_KEY.
const EnvPrefix = "PIKPOINT"

// Config keys
const (
	KeyBoardURL          = "board.url"
	KeyBoardAPIKey       = "board.api_key"
	KeyBoardAPIKeyFile   = "board.api_key_file"
	KeyBoardProject      = "board.project"
	KeyBoardPageSize     = "board.page_size"
	KeyBoardRate         = "board.requests_per_second"
	KeyBoardTimeout      = "board.timeout"
	KeyBoardMaxRetries   = "board.max_retries"
	KeySourceDriver      = "source.driver"
	KeySourcePath        = "source.path"
	KeySourceDSN         = "source.dsn"
	KeySyncOwner         = "sync.owner"
	KeySyncDueSoon       = "sync.due_soon"
	KeySyncCallTimeout   = "sync.call_timeout"
	KeySyncInterval      = "sync.interval"
	KeySkipStatuses      = "select.skip_statuses"
	KeySkipActionLists   = "select.skip_single_action_lists"
	KeyStartBefore       = "select.start_before"
	KeyColorDefault      = "colors.default"
	KeyColorRules        = "colors.rules"
	KeyTelemetryEnabled  = "telemetry.enabled"
	KeyTelemetryStdout   = "telemetry.stdout"
	KeyTelemetryEndpoint = "telemetry.otlp_endpoint"
)

// FileName is the config file looked up in the working directory.
const FileName = ".pikpoint.yaml"

// Config is the resolved configuration.
type Config struct {
	Board     BoardConfig     `mapstructure:"board" yaml:"board"`
	Source    SourceConfig    `mapstructure:"source" yaml:"source"`
	Sync      SyncConfig      `mapstructure:"sync" yaml:"sync"`
	Select    SelectConfig    `mapstructure:"select" yaml:"select"`
	Colors    ColorsConfig    `mapstructure:"colors" yaml:"colors"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-" yaml:"-"`
}

type BoardConfig struct {
	URL               string        `mapstructure:"url" yaml:"url"`
	APIKey            string        `mapstructure:"api_key" yaml:"api_key,omitempty"`
	APIKeyFile        string        `mapstructure:"api_key_file" yaml:"api_key_file,omitempty"`
	Project           string        `mapstructure:"project" yaml:"project"`
	PageSize          int           `mapstructure:"page_size" yaml:"page_size"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxRetries        int           `mapstructure:"max_retries" yaml:"max_retries"`
}

type SourceConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	Path   string `mapstructure:"path" yaml:"path,omitempty"`
	DSN    string `mapstructure:"dsn" yaml:"dsn,omitempty"`
}

type SyncConfig struct {
	Owner       string        `mapstructure:"owner" yaml:"owner,omitempty"`
	DueSoon     string        `mapstructure:"due_soon" yaml:"due_soon"`
	CallTimeout time.Duration `mapstructure:"call_timeout" yaml:"call_timeout"`
	Interval    time.Duration `mapstructure:"interval" yaml:"interval"`
}

type SelectConfig struct {
	SkipStatuses          []string `mapstructure:"skip_statuses" yaml:"skip_statuses"`
	SkipSingleActionLists bool     `mapstructure:"skip_single_action_lists" yaml:"skip_single_action_lists"`
	StartBefore           string   `mapstructure:"start_before" yaml:"start_before,omitempty"`
}

type ColorsConfig struct {
	Default string             `mapstructure:"default" yaml:"default"`
	Rules   []policy.ColorRule `mapstructure:"rules" yaml:"rules,omitempty"`
}

type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled" yaml:"enabled"`
	Stdout       bool   `mapstructure:"stdout" yaml:"stdout,omitempty"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint,omitempty"`
}

func registerDefaults(v *viper.Viper) {
	v.SetDefault(KeyBoardURL, "https://agilezen.com/api/v1/")
	v.SetDefault(KeyBoardAPIKey, "")
	v.SetDefault(KeyBoardAPIKeyFile, "~/.agilezenapikey")
	v.SetDefault(KeyBoardProject, "")
	v.SetDefault(KeyBoardPageSize, 100)
	v.SetDefault(KeyBoardRate, 5.0)
	v.SetDefault(KeyBoardTimeout, "30s")
	v.SetDefault(KeyBoardMaxRetries, 3)

	v.SetDefault(KeySourceDriver, factory.DriverYAML)
	v.SetDefault(KeySourcePath, "pikpoint-source.yaml")
	v.SetDefault(KeySourceDSN, "")

	v.SetDefault(KeySyncOwner, "")
	v.SetDefault(KeySyncDueSoon, "3d")
	v.SetDefault(KeySyncCallTimeout, "1m")
	v.SetDefault(KeySyncInterval, "5m")

	v.SetDefault(KeySkipStatuses, []string{string(types.StatusDropped)})
	v.SetDefault(KeySkipActionLists, true)
	v.SetDefault(KeyStartBefore, "now")

	v.SetDefault(KeyColorDefault, string(types.ColorGreen))
	v.SetDefault(KeyColorRules, []policy.ColorRule{})

	v.SetDefault(KeyTelemetryEnabled, false)
	v.SetDefault(KeyTelemetryStdout, false)
	v.SetDefault(KeyTelemetryEndpoint, "")
}

// SearchPaths returns the files Load tries when no explicit path is given.
func SearchPaths() []string {
	paths := []string{FileName}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "pikpoint", "config.yaml"))
	}
	return paths
}

// Load reads the configuration. An explicit path must exist; otherwise the
// first file from SearchPaths is used, and running without any file is fine.
func Load(path string) (*Config, error) {
	v := viper.New()
	registerDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigType("yaml")

	if path == "" {
		for _, p := range SearchPaths() {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.File = path
	return &cfg, nil
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	v := viper.New()
	registerDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Write persists cfg as YAML. The API key itself is never written; use
// board.api_key_file or the environment.
func Write(path string, cfg *Config) error {
	out := *cfg
	out.Board.APIKey = ""
	raw, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	// yaml.v3 writes durations as nanoseconds; store the readable form.
	var doc map[string]map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	doc["board"]["timeout"] = cfg.Board.Timeout.String()
	doc["sync"]["call_timeout"] = cfg.Sync.CallTimeout.String()
	doc["sync"]["interval"] = cfg.Sync.Interval.String()
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ErrNoAPIKey is returned by ResolveAPIKey when no key is configured.
var ErrNoAPIKey = errors.New("no board API key configured")

// ResolveAPIKey returns board.api_key, or else the first line of board.api_key_file.
func (c *Config) ResolveAPIKey() (string, error) {
	if key := strings.TrimSpace(c.Board.APIKey); key != "" {
		return key, nil
	}
	if c.Board.APIKeyFile == "" {
		return "", ErrNoAPIKey
	}
	path, err := expandHome(c.Board.APIKeyFile)
	if err != nil {
		return "", err
	}
	f, err := os.Open(path) // #nosec G304 - path from configuration
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w (set %s_BOARD_API_KEY or create %s)", ErrNoAPIKey, EnvPrefix, c.Board.APIKeyFile)
		}
		return "", fmt.Errorf("failed to read API key file: %w", err)
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	if sc.Scan() {
		if key := strings.TrimSpace(sc.Text()); key != "" {
			return key, nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("failed to read API key file: %w", err)
	}
	return "", fmt.Errorf("%w: %s is empty", ErrNoAPIKey, c.Board.APIKeyFile)
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
