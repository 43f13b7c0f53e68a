package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("KGWS_LKP_LIST", "")
	t.Setenv("SHEETFETCH_BASE_URL", "")
	t.Setenv("SHEETFETCH_OUTPUT_DIR", "")
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	def := Default()
	if cfg.BaseURL != def.BaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, def.BaseURL)
	}
	if cfg.ListLimit != def.ListLimit {
		t.Errorf("ListLimit = %d, want %d", cfg.ListLimit, def.ListLimit)
	}
	if cfg.RequestTimeout != 60*time.Second {
		t.Errorf("RequestTimeout = %v, want 60s", cfg.RequestTimeout)
	}
	if len(cfg.Credentials) != 0 {
		t.Errorf("Credentials = %v, want none", cfg.Credentials)
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
[saferoute]
base_url = https://staging.example.com
credentials = tok-a tok-b

[download]
output_dir = /tmp/sheets
list_limit = 250
max_concurrent = 8
request_timeout_seconds = 30
retry_max = 2
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BaseURL != "https://staging.example.com" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if len(cfg.Credentials) != 2 || cfg.Credentials[0] != "tok-a" || cfg.Credentials[1] != "tok-b" {
		t.Errorf("Credentials = %v, want [tok-a tok-b]", cfg.Credentials)
	}
	if cfg.OutputDir != "/tmp/sheets" {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
	if cfg.ListLimit != 250 {
		t.Errorf("ListLimit = %d, want 250", cfg.ListLimit)
	}
	if cfg.MaxConcurrent != 8 {
		t.Errorf("MaxConcurrent = %d, want 8", cfg.MaxConcurrent)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v, want 30s", cfg.RequestTimeout)
	}
	if cfg.RetryMax != 2 {
		t.Errorf("RetryMax = %d, want 2", cfg.RetryMax)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, "[saferoute\nbase_url =")
	if _, err := Load(path); err == nil {
		t.Error("Load() error = nil, want failure for malformed file")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("KGWS_LKP_LIST", " tok-1\ttok-2 \n tok-3 ")
	t.Setenv("SHEETFETCH_BASE_URL", "https://env.example.com")
	t.Setenv("SHEETFETCH_OUTPUT_DIR", "env-downloads")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Credentials) != 3 {
		t.Fatalf("Credentials = %v, want 3 tokens", cfg.Credentials)
	}
	if cfg.BaseURL != "https://env.example.com" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.OutputDir != "env-downloads" {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
}

// TestLoadFileCredentialsBeatEnv verifies the config file wins over the
// environment for the credential list.
func TestLoadFileCredentialsBeatEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("KGWS_LKP_LIST", "env-tok")

	path := writeConfig(t, `
[saferoute]
credentials = file-tok
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Credentials) != 1 || cfg.Credentials[0] != "file-tok" {
		t.Errorf("Credentials = %v, want [file-tok]", cfg.Credentials)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "nested", "config")
	in := Default()
	in.Credentials = []string{"tok-a", "tok-b"}
	in.ListLimit = 500

	if err := Save(in, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config file permissions = %o, want 0600", perm)
	}

	out, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(out.Credentials) != 2 || out.Credentials[0] != "tok-a" {
		t.Errorf("Credentials = %v, want [tok-a tok-b]", out.Credentials)
	}
	if out.ListLimit != 500 {
		t.Errorf("ListLimit = %d, want 500", out.ListLimit)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid", func(c *Config) {}, nil},
		{"missing base url", func(c *Config) { c.BaseURL = " " }, ErrMissingBaseURL},
		{"no credentials", func(c *Config) { c.Credentials = nil }, ErrNoCredentials},
		{"missing output dir", func(c *Config) { c.OutputDir = "" }, ErrMissingOutputDir},
		{"zero list limit", func(c *Config) { c.ListLimit = 0 }, ErrInvalidListLimit},
		{"negative concurrency", func(c *Config) { c.MaxConcurrent = -1 }, ErrInvalidConcurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Credentials = []string{"tok"}
			tt.mutate(cfg)

			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolveCredentialsPriority(t *testing.T) {
	clearEnv(t)
	t.Setenv("KGWS_LKP_LIST", "env-tok")

	cfg := &Config{Credentials: []string{"cfg-tok"}}

	if got := ResolveCredentials("flag-tok", cfg); len(got) != 1 || got[0] != "flag-tok" {
		t.Errorf("flag should win, got %v", got)
	}
	if got := ResolveCredentials("", cfg); len(got) != 1 || got[0] != "cfg-tok" {
		t.Errorf("config should win over env, got %v", got)
	}
	if got := ResolveCredentials("", &Config{}); len(got) != 1 || got[0] != "env-tok" {
		t.Errorf("env should be the fallback, got %v", got)
	}
	t.Setenv("KGWS_LKP_LIST", "")
	if got := ResolveCredentials("", &Config{}); len(got) != 0 {
		t.Errorf("expected no credentials, got %v", got)
	}
}

func TestCredentialsSource(t *testing.T) {
	clearEnv(t)

	if got := CredentialsSource("tok", nil); got != "flag" {
		t.Errorf("source = %q, want flag", got)
	}
	if got := CredentialsSource("", &Config{Credentials: []string{"x"}}); got != "config" {
		t.Errorf("source = %q, want config", got)
	}
	t.Setenv("KGWS_LKP_LIST", "tok")
	if got := CredentialsSource("", &Config{}); got != "environment" {
		t.Errorf("source = %q, want environment", got)
	}
	t.Setenv("KGWS_LKP_LIST", "")
	if got := CredentialsSource("", &Config{}); got != "" {
		t.Errorf("source = %q, want empty", got)
	}
}

func TestRedacted(t *testing.T) {
	cfg := &Config{Credentials: []string{"short", "a-much-longer-token-value"}}
	red := cfg.Redacted()

	if red.Credentials[0] != "********" {
		t.Errorf("short token redacted to %q", red.Credentials[0])
	}
	long := red.Credentials[1]
	if long == cfg.Credentials[1] {
		t.Error("long token not redacted")
	}
	if long[:4] != "a-mu" {
		t.Errorf("redacted token prefix = %q, want a-mu", long[:4])
	}
	// Original untouched.
	if cfg.Credentials[1] != "a-much-longer-token-value" {
		t.Error("Redacted() mutated the receiver")
	}
}
