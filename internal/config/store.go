package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"

	satserr "github.com/mrz1836/satsend/pkg/errors"
)

// maxSuggestionDistance is the edit-distance cutoff for key suggestions.
const maxSuggestionDistance = 3

// Store is the injected configuration store: opened at startup, mutated
// through Set, persisted on every change, closed with the process. Nothing
// reads configuration through package-level state.
type Store struct {
	cfg  *Config
	path string
}

// NewStore wraps a loaded configuration and its file path.
func NewStore(cfg *Config, path string) *Store {
	return &Store{cfg: cfg, path: path}
}

// Open loads the configuration at path, falling back to defaults when the
// file does not exist, and applies environment overrides.
func Open(path string) (*Store, error) {
	cfg, err := Load(path)
	if err != nil {
		cfg = Defaults()
	}
	ApplyEnvironment(cfg)
	return &Store{cfg: cfg, path: path}, nil
}

// Config returns the live configuration.
func (s *Store) Config() *Config {
	return s.cfg
}

// DefaultFeeLevel returns the persisted default fee level name.
func (s *Store) DefaultFeeLevel() string {
	return s.cfg.Fees.DefaultLevel
}

// SetDefaultFeeLevel persists a new default fee level.
func (s *Store) SetDefaultFeeLevel(level string) error {
	return s.Set("fees.default_level", level)
}

// CustomFeeBounds returns the allowed custom fee-rate range in sat/byte.
func (s *Store) CustomFeeBounds() (minRate, maxRate int64) {
	return s.cfg.Fees.MinCustomSatsPerByte, s.cfg.Fees.MaxCustomSatsPerByte
}

// Keys returns every settable configuration key.
func Keys() []string {
	keys := make([]string, 0, len(keySchema))
	for k := range keySchema {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// keySchema maps dotted keys to their accessors.
var keySchema = map[string]struct {
	get func(*Config) string
	set func(*Config, string) error
}{
	"network": {
		get: func(c *Config) string { return c.Network },
		set: func(c *Config, v string) error {
			v = strings.ToLower(v)
			if v != "mainnet" && v != "testnet" {
				return satserr.WithSuggestion(satserr.ErrConfigInvalid, "network must be mainnet or testnet")
			}
			c.Network = v
			return nil
		},
	},
	"explorer.api": {
		get: func(c *Config) string { return c.Explorer.API },
		set: func(c *Config, v string) error { c.Explorer.API = SanitizeURL(v); return nil },
	},
	"explorer.api_key": {
		get: func(c *Config) string { return c.Explorer.APIKey },
		set: func(c *Config, v string) error { c.Explorer.APIKey = v; return nil },
	},
	"fees.default_level": {
		get: func(c *Config) string { return c.Fees.DefaultLevel },
		set: func(c *Config, v string) error {
			v = strings.ToLower(v)
			switch v {
			case "regular", "priority", "custom":
				c.Fees.DefaultLevel = v
				return nil
			default:
				return satserr.WithSuggestion(satserr.ErrConfigInvalid,
					"fee level must be regular, priority, or custom")
			}
		},
	},
	"fees.min_custom_sats_per_byte": {
		get: func(c *Config) string { return strconv.FormatInt(c.Fees.MinCustomSatsPerByte, 10) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n < 1 {
				return satserr.WithSuggestion(satserr.ErrConfigInvalid, "value must be a positive integer")
			}
			c.Fees.MinCustomSatsPerByte = n
			return nil
		},
	},
	"fees.max_custom_sats_per_byte": {
		get: func(c *Config) string { return strconv.FormatInt(c.Fees.MaxCustomSatsPerByte, 10) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n < 1 {
				return satserr.WithSuggestion(satserr.ErrConfigInvalid, "value must be a positive integer")
			}
			c.Fees.MaxCustomSatsPerByte = n
			return nil
		},
	},
	"display.currency": {
		get: func(c *Config) string { return c.Display.Currency },
		set: func(c *Config, v string) error { c.Display.Currency = strings.ToUpper(v); return nil },
	},
	"display.verbose": {
		get: func(c *Config) string { return strconv.FormatBool(c.Display.Verbose) },
		set: func(c *Config, v string) error { c.Display.Verbose = parseBool(v); return nil },
	},
	"logging.level": {
		get: func(c *Config) string { return c.Logging.Level },
		set: func(c *Config, v string) error { c.Logging.Level = ParseLogLevel(v).String(); return nil },
	},
	"logging.file": {
		get: func(c *Config) string { return c.Logging.File },
		set: func(c *Config, v string) error { c.Logging.File = v; return nil },
	},
}

// Get returns the value for a dotted configuration key. Unknown keys get a
// closest-match suggestion.
func (s *Store) Get(key string) (string, error) {
	entry, ok := keySchema[key]
	if !ok {
		return "", unknownKeyError(key)
	}
	return entry.get(s.cfg), nil
}

// Set validates, applies, and persists a configuration value.
func (s *Store) Set(key, value string) error {
	entry, ok := keySchema[key]
	if !ok {
		return unknownKeyError(key)
	}
	if err := entry.set(s.cfg, value); err != nil {
		return err
	}
	return Save(s.cfg, s.path)
}

// unknownKeyError builds an ErrUnknownConfigKey with a did-you-mean
// suggestion from the closest known key.
func unknownKeyError(key string) error {
	best := ""
	bestDist := maxSuggestionDistance + 1
	for known := range keySchema {
		if d := levenshtein.ComputeDistance(key, known); d < bestDist {
			best = known
			bestDist = d
		}
	}

	err := satserr.WithDetails(satserr.ErrUnknownConfigKey, map[string]string{"key": key})
	if best != "" {
		err = satserr.WithSuggestion(err, fmt.Sprintf("did you mean %q?", best))
	}
	return err
}
