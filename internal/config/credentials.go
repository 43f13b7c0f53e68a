package config

import (
	"os"
	"strings"
)

// ResolveCredentials returns the account credential list by checking sources
// in priority order. This keeps credential resolution consistent between the
// fetch command and config show.
//
// Priority (highest to lowest):
//  1. Provided flagValue (whitespace-separated tokens from --credentials)
//  2. Credentials already loaded into cfg (config file, then environment —
//     Load applies that ordering)
//  3. KGWS_LKP_LIST environment variable, read directly as a last resort
//     when Load was skipped
//
// Returns nil if no credentials are found in any source.
func ResolveCredentials(flagValue string, cfg *Config) []string {
	if creds := strings.Fields(flagValue); len(creds) > 0 {
		return creds
	}

	if cfg != nil && len(cfg.Credentials) > 0 {
		return cfg.Credentials
	}

	return strings.Fields(os.Getenv("KGWS_LKP_LIST"))
}

// CredentialsSource reports where the effective credentials came from, for
// --verbose diagnostics. Returns "flag", "config", "environment", or "".
func CredentialsSource(flagValue string, cfg *Config) string {
	if len(strings.Fields(flagValue)) > 0 {
		return "flag"
	}
	if cfg != nil && len(cfg.Credentials) > 0 {
		return "config"
	}
	if len(strings.Fields(os.Getenv("KGWS_LKP_LIST"))) > 0 {
		return "environment"
	}
	return ""
}
