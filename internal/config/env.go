package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/mrz1836/go-sanitize"
)

// Environment variable names.
const (
	EnvHome        = "SATSEND_HOME"
	EnvNetwork     = "SATSEND_NETWORK"
	EnvExplorerAPI = "SATSEND_EXPLORER_API"
	EnvAPIKey      = "SATSEND_API_KEY" // #nosec G101 -- false positive, this is a const name not a credential
	EnvFeeLevel    = "SATSEND_FEE_LEVEL"
	EnvCurrency    = "SATSEND_CURRENCY"
	EnvVerbose     = "SATSEND_VERBOSE"
	EnvLogLevel    = "SATSEND_LOG_LEVEL"
)

// ApplyEnvironment applies environment variable overrides to the configuration.
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}

	if v := os.Getenv(EnvNetwork); v != "" {
		cfg.Network = strings.ToLower(v)
	}

	if v := os.Getenv(EnvExplorerAPI); v != "" {
		cfg.Explorer.API = SanitizeURL(v)
	}

	if v := os.Getenv(EnvAPIKey); v != "" {
		cfg.Explorer.APIKey = v
	}

	if v := os.Getenv(EnvFeeLevel); v != "" {
		cfg.Fees.DefaultLevel = strings.ToLower(v)
	}

	if v := os.Getenv(EnvCurrency); v != "" {
		cfg.Display.Currency = strings.ToUpper(v)
	}

	if v := os.Getenv(EnvVerbose); v != "" {
		cfg.Display.Verbose = parseBool(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}

// SanitizeURL cleans a URL string by removing invalid characters and trimming
// whitespace. Useful for user-provided explorer URLs with copy-paste artifacts.
func SanitizeURL(url string) string {
	return sanitize.URL(strings.TrimSpace(url))
}
