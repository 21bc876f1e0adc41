package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// KeySpec describes a single configuration key.
type KeySpec struct {
	// Name is the CLI-facing key name (e.g. "base-url").
	Name string

	// Description is a short human-readable explanation shown in help text.
	Description string

	// Get returns the current value for this key from a loaded Config.
	Get func(cfg *Config) string

	// Set applies a value for this key to the given Config (in memory only;
	// the caller is responsible for calling Save).
	Set func(cfg *Config, value string)

	// Validate rejects malformed values before they are saved. Optional.
	Validate func(value string) error

	// Normalize rewrites the value before it is saved. Optional; the value
	// is stored as typed when nil.
	Normalize func(value string) string
}

// Keys is the authoritative list of all supported configuration keys.
// To add a new option: add a field to Config and append a KeySpec here.
var Keys = []KeySpec{
	{
		Name:        "base-url",
		Description: "Backend URL (default http://localhost:12712)",
		Get:         func(cfg *Config) string { return cfg.BaseURL },
		Set:         func(cfg *Config, v string) { cfg.BaseURL = v },
		Validate:    validateURL,
		Normalize:   func(v string) string { return strings.TrimRight(strings.TrimSpace(v), "/") },
	},
	{
		Name:        "request-timeout",
		Description: "Per-request HTTP timeout, e.g. 30s",
		Get:         func(cfg *Config) string { return cfg.RequestTimeout },
		Set:         func(cfg *Config, v string) { cfg.RequestTimeout = v },
		Validate:    validateDuration,
		Normalize:   strings.TrimSpace,
	},
	{
		Name:        "log-level",
		Description: "Diagnostic log level (error, warn, info, debug)",
		Get:         func(cfg *Config) string { return cfg.LogLevel },
		Set:         func(cfg *Config, v string) { cfg.LogLevel = v },
		Validate:    validateLogLevel,
		Normalize:   normalizeWord,
	},
	{
		Name:        "output",
		Description: "Default output format for list commands (table, json, yaml)",
		Get:         func(cfg *Config) string { return cfg.Output },
		Set:         func(cfg *Config, v string) { cfg.Output = v },
		Validate:    validateOutput,
		Normalize:   normalizeWord,
	},
}

// Lookup returns the KeySpec for the given name, or nil if not found.
// The name is matched case-insensitively after trimming whitespace.
func Lookup(name string) *KeySpec {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for i := range Keys {
		if Keys[i].Name == normalized {
			return &Keys[i]
		}
	}
	return nil
}

// KeyNames returns the names of all registered keys.
func KeyNames() []string {
	names := make([]string, len(Keys))
	for i, k := range Keys {
		names[i] = k.Name
	}
	return names
}

// KeysHelp builds a formatted block listing all available keys and their
// descriptions, suitable for inclusion in Cobra Long help text.
func KeysHelp() string {
	if len(Keys) == 0 {
		return ""
	}

	maxLen := 0
	for _, k := range Keys {
		if len(k.Name) > maxLen {
			maxLen = len(k.Name)
		}
	}

	var b strings.Builder
	b.WriteString("Available keys:\n")
	for _, k := range Keys {
		fmt.Fprintf(&b, "  %-*s   %s\n", maxLen, k.Name, k.Description)
	}
	return b.String()
}

func normalizeWord(v string) string { return strings.ToLower(strings.TrimSpace(v)) }

func validateURL(v string) error {
	u, err := url.Parse(strings.TrimSpace(v))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid URL %q (expected http://host:port)", v)
	}
	return nil
}

func validateDuration(v string) error {
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil || d <= 0 {
		return fmt.Errorf("invalid duration %q (expected e.g. 30s or 1m)", v)
	}
	return nil
}

func validateLogLevel(v string) error {
	if _, err := logrus.ParseLevel(normalizeWord(v)); err != nil {
		return fmt.Errorf("invalid log level %q", v)
	}
	return nil
}

func validateOutput(v string) error {
	switch normalizeWord(v) {
	case "table", "json", "yaml":
		return nil
	}
	return fmt.Errorf("invalid output format %q (expected table, json or yaml)", v)
}
