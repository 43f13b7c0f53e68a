// Package config provides configuration management for sheetfetch.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/ini.v1"
)

// ConfigDir is the directory name under ~/.config holding the config file.
const ConfigDir = "sheetfetch"

// Config holds all settings for a batch run.
//
// Config file location: ~/.config/sheetfetch/config
//
// INI format:
//
//	[saferoute]
//	base_url = https://safe-route.ru
//	credentials = <token> <token> ...
//
//	[download]
//	output_dir = downloads
//	list_limit = 1000
//	max_concurrent = 16
//	request_timeout_seconds = 60
//	retry_max = 0
type Config struct {
	// BaseURL is the root of the safe-route API.
	BaseURL string

	// Credentials is the ordered list of account tokens. Each is presented
	// to the service as a kgws_lkp cookie. Accounts run sequentially in
	// this order.
	Credentials []string

	// OutputDir is where downloaded documents are written.
	OutputDir string

	// ListLimit is the initial page limit for the claims listing. The
	// fetcher doubles it until a page smaller than the limit comes back.
	ListLimit int

	// MaxConcurrent bounds in-flight requests within one account.
	// 0 means unbounded.
	MaxConcurrent int

	// RequestTimeout applies per request. Zero disables the deadline.
	RequestTimeout time.Duration

	// RetryMax is the transport-level retry count. The tool carries no
	// retry policy by default, so this is 0 unless overridden.
	RetryMax int
}

// envOverrides are the environment variables recognized by Load. The
// credential list matches the original deployment contract: one variable
// with whitespace-separated tokens.
type envOverrides struct {
	Credentials string `env:"KGWS_LKP_LIST"`
	BaseURL     string `env:"SHEETFETCH_BASE_URL"`
	OutputDir   string `env:"SHEETFETCH_OUTPUT_DIR"`
}

// Validation errors
var (
	ErrMissingBaseURL     = errors.New("base_url is required")
	ErrNoCredentials      = errors.New("no account credentials configured")
	ErrMissingOutputDir   = errors.New("output_dir is required")
	ErrInvalidListLimit   = errors.New("list_limit must be at least 1")
	ErrInvalidConcurrency = errors.New("max_concurrent must not be negative")
)

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		BaseURL:        "https://safe-route.ru",
		OutputDir:      "downloads",
		ListLimit:      1000,
		MaxConcurrent:  16,
		RequestTimeout: 60 * time.Second,
		RetryMax:       0,
	}
}

// DefaultPath returns the default path for the config file
// (~/.config/sheetfetch/config).
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", ConfigDir, "config"), nil
}

// Load builds the effective configuration: defaults, then the INI file if it
// exists, then environment variables. Flag overrides are applied afterwards
// by the CLI layer.
//
// A missing config file is not an error; defaults are used. An unreadable or
// malformed file is.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			path = "" // fall through to env-only config
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cfg.loadFile(path); err != nil {
				return nil, err
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cfg *Config) loadFile(path string) error {
	iniFile, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	routeSection := iniFile.Section("saferoute")
	cfg.BaseURL = routeSection.Key("base_url").MustString(cfg.BaseURL)
	if raw := routeSection.Key("credentials").String(); raw != "" {
		cfg.Credentials = strings.Fields(raw)
	}

	dlSection := iniFile.Section("download")
	cfg.OutputDir = dlSection.Key("output_dir").MustString(cfg.OutputDir)
	cfg.ListLimit = dlSection.Key("list_limit").MustInt(cfg.ListLimit)
	cfg.MaxConcurrent = dlSection.Key("max_concurrent").MustInt(cfg.MaxConcurrent)
	timeoutSec := dlSection.Key("request_timeout_seconds").MustInt(int(cfg.RequestTimeout / time.Second))
	cfg.RequestTimeout = time.Duration(timeoutSec) * time.Second
	cfg.RetryMax = dlSection.Key("retry_max").MustInt(cfg.RetryMax)

	return nil
}

func (cfg *Config) applyEnv() error {
	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}

	// Environment has the lowest priority for credentials: it fills in only
	// when the config file supplied none.
	if len(cfg.Credentials) == 0 && overrides.Credentials != "" {
		cfg.Credentials = strings.Fields(overrides.Credentials)
	}
	if overrides.BaseURL != "" {
		cfg.BaseURL = overrides.BaseURL
	}
	if overrides.OutputDir != "" {
		cfg.OutputDir = overrides.OutputDir
	}

	return nil
}

// Save writes the configuration to an INI file, creating parent directories
// as needed. Credentials are stored in the file, so it is written with
// user-only permissions via a temp file and atomic rename.
func Save(cfg *Config, path string) error {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return fmt.Errorf("failed to determine config path: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()

	routeSection, err := iniFile.NewSection("saferoute")
	if err != nil {
		return fmt.Errorf("failed to create saferoute section: %w", err)
	}
	routeSection.Key("base_url").SetValue(cfg.BaseURL)
	routeSection.Key("credentials").SetValue(strings.Join(cfg.Credentials, " "))

	dlSection, err := iniFile.NewSection("download")
	if err != nil {
		return fmt.Errorf("failed to create download section: %w", err)
	}
	dlSection.Key("output_dir").SetValue(cfg.OutputDir)
	dlSection.Key("list_limit").SetValue(fmt.Sprintf("%d", cfg.ListLimit))
	dlSection.Key("max_concurrent").SetValue(fmt.Sprintf("%d", cfg.MaxConcurrent))
	dlSection.Key("request_timeout_seconds").SetValue(fmt.Sprintf("%d", int(cfg.RequestTimeout/time.Second)))
	dlSection.Key("retry_max").SetValue(fmt.Sprintf("%d", cfg.RetryMax))

	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set config permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// Validate checks the configuration ahead of a run.
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return ErrMissingBaseURL
	}
	if len(cfg.Credentials) == 0 {
		return ErrNoCredentials
	}
	if strings.TrimSpace(cfg.OutputDir) == "" {
		return ErrMissingOutputDir
	}
	if cfg.ListLimit < 1 {
		return ErrInvalidListLimit
	}
	if cfg.MaxConcurrent < 0 {
		return ErrInvalidConcurrency
	}
	return nil
}

// Redacted returns a copy with credentials masked for display.
func (cfg *Config) Redacted() *Config {
	out := *cfg
	out.Credentials = make([]string, len(cfg.Credentials))
	for i, cred := range cfg.Credentials {
		out.Credentials[i] = redactToken(cred)
	}
	return &out
}

func redactToken(tok string) string {
	if len(tok) <= 8 {
		return "********"
	}
	return tok[:4] + "…" + tok[len(tok)-4:]
}
