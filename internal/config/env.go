package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix is the prefix shared by all environment overrides.
const EnvPrefix = "REWIND_"

// envVar maps one environment variable onto a setting.
type envVar struct {
	name  string
	apply func(c *Config, value string) error
}

var envVars = []envVar{
	{EnvPrefix + "HISTORY_MAX_DEPTH", func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		c.History.MaxDepth = n
		return nil
	}},
	{EnvPrefix + "HISTORY_CONFIRM", func(c *Config, v string) error {
		b, err := parseBool(v)
		if err != nil {
			return err
		}
		c.History.ConfirmCrossScope = b
		return nil
	}},
	{EnvPrefix + "HISTORY_MERGE_TYPING", func(c *Config, v string) error {
		b, err := parseBool(v)
		if err != nil {
			return err
		}
		c.History.MergeTyping = b
		return nil
	}},
	{EnvPrefix + "HISTORY_MERGE_WINDOW", func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		c.History.MergeWindow = Duration{d}
		return nil
	}},
	{EnvPrefix + "LOG_LEVEL", func(c *Config, v string) error {
		c.Logging.Level = strings.ToLower(strings.TrimSpace(v))
		return nil
	}},
}

// EnvVars returns the names of the recognized environment variables.
func EnvVars() []string {
	names := make([]string, len(envVars))
	for i, ev := range envVars {
		names[i] = ev.name
	}
	return names
}

// applyEnv overrides settings from the environment. Empty values are
// treated as unset.
func applyEnv(c *Config, lookup func(string) (string, bool)) error {
	for _, ev := range envVars {
		v, ok := lookup(ev.name)
		if !ok || v == "" {
			continue
		}
		if err := ev.apply(c, v); err != nil {
			return fmt.Errorf("%s=%q: %w", ev.name, v, err)
		}
	}
	return nil
}

// parseBool accepts the spellings people use in shell environments.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}
