// Copyright 2025 OrgMap HQ
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config provides configuration management for orgmap with support
// for multiple configuration sources and a well-defined precedence order.
// It enables enterprise deployments to customize behavior through
// configuration files while maintaining flexibility with environment
// variables and command-line overrides.
//
// Configuration sources (in precedence order, highest to lowest):
//  1. Command-line flags
//  2. Environment variables
//  3. Organization-specific configuration
//  4. Global configuration file
//  5. Built-in defaults
//
// The package supports YAML configuration files and provides automatic
// discovery of configuration in standard locations. It's designed to work
// seamlessly with GitHub Enterprise deployments and supports
// organization-specific overrides for fine-grained control.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from multiple sources and applies them in
// the correct precedence order. If configPath is provided, it loads from
// that specific file. Otherwise, it searches standard locations:
//   - .orgmap.yaml (current directory)
//   - .orgmap.yml (current directory)
//   - ~/.orgmap/config.yaml
//   - ~/.orgmap/config.yml
//
// Environment variables are applied after loading the config file, allowing
// runtime overrides. Path expansion (~ and environment variables) is
// performed on the output path.
//
// Returns an error if the specified config file cannot be loaded, but will
// succeed with defaults if no config file is found in standard locations.
func LoadConfig(configPath string) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	// Try to load config file if path is provided
	if configPath != "" {
		if err := loadConfigFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		// Try default locations
		defaultPaths := []string{
			".orgmap.yaml",
			".orgmap.yml",
			filepath.Join(os.Getenv("HOME"), ".orgmap", "config.yaml"),
			filepath.Join(os.Getenv("HOME"), ".orgmap", "config.yml"),
		}

		for _, path := range defaultPaths {
			if _, err := os.Stat(path); err == nil {
				if err := loadConfigFile(path, cfg); err != nil {
					return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
				}
				break
			}
		}
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Expand paths
	cfg.Defaults.Output = expandPath(cfg.Defaults.Output)

	return cfg, nil
}

// loadConfigFile reads and parses a YAML config file
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(cfg *Config) {
	// GitHub endpoints
	if endpoint := os.Getenv("GITHUB_API_ENDPOINT"); endpoint != "" {
		cfg.GitHub.APIEndpoint = endpoint
	}
	if endpoint := os.Getenv("GITHUB_GRAPHQL_ENDPOINT"); endpoint != "" {
		cfg.GitHub.GraphQLEndpoint = endpoint
	}

	// Defaults
	if output := os.Getenv("ORGMAP_OUTPUT"); output != "" {
		cfg.Defaults.Output = output
	}
	if format := os.Getenv("ORGMAP_OUTPUT_FORMAT"); format != "" {
		cfg.Defaults.OutputFormat = format
	}
	if pageSize := os.Getenv("ORGMAP_PAGE_SIZE"); pageSize != "" {
		if size, err := parsePositiveInt(pageSize); err == nil {
			cfg.Defaults.PageSize = size
		}
	}
	if commitEmails := os.Getenv("ORGMAP_COMMIT_EMAILS"); commitEmails != "" {
		cfg.Defaults.CommitEmails = parseBool(commitEmails)
	}

	// Rate limit settings
	if margin := os.Getenv("ORGMAP_SAFETY_MARGIN"); margin != "" {
		if m, err := parsePositiveInt(margin); err == nil {
			cfg.RateLimit.SafetyMargin = m
		}
	}
	if maxWait := os.Getenv("ORGMAP_MAX_WAIT"); maxWait != "" {
		cfg.RateLimit.MaxWait = maxWait
	}
	if rps := os.Getenv("ORGMAP_PACE_RPS"); rps != "" {
		if r, err := parsePositiveFloat(rps); err == nil {
			cfg.RateLimit.RequestsPerSecond = r
		}
	}
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home := os.Getenv("HOME")
		if home == "" {
			home = os.Getenv("USERPROFILE") // Windows
		}
		path = filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// parsePositiveInt parses a string to a positive integer
func parsePositiveInt(s string) (int, error) {
	var i int
	_, err := fmt.Sscanf(s, "%d", &i)
	if err != nil {
		return 0, fmt.Errorf("failed to parse integer from '%s': %w", s, err)
	}
	if i <= 0 {
		return 0, fmt.Errorf("value must be positive, got: %d", i)
	}
	return i, nil
}

// parsePositiveFloat parses a string to a positive float
func parsePositiveFloat(s string) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(s, "%g", &f)
	if err != nil {
		return 0, fmt.Errorf("failed to parse number from '%s': %w", s, err)
	}
	if f <= 0 {
		return 0, fmt.Errorf("value must be positive, got: %g", f)
	}
	return f, nil
}

// parseBool parses various boolean representations
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "yes" || s == "1" || s == "on"
}

// GetPageSize returns the effective listing page size for an organization,
// taking into account organization-specific overrides. If the organization
// has a specific page size configured, it returns that value. Otherwise, it
// returns the default page size.
func (c *Config) GetPageSize(org string) int {
	if orgConfig, ok := c.Organizations[org]; ok && orgConfig.PageSize > 0 {
		return orgConfig.PageSize
	}
	return c.Defaults.PageSize
}

// MaxWaitDuration returns the parsed max_wait setting. An empty value
// yields the default of one hour. Malformed values are reported by
// Validate; this method falls back to the default so callers always get
// a usable duration after validation.
func (c RateLimitConfig) MaxWaitDuration() time.Duration {
	if c.MaxWait == "" {
		return time.Hour
	}
	d, err := time.ParseDuration(c.MaxWait)
	if err != nil {
		return time.Hour
	}
	return d
}

// Validate checks if the configuration contains valid values. It ensures
// page sizes are within GitHub's limits, endpoints are not empty, and
// other constraints are met. This should be called after loading
// configuration to catch invalid settings early.
func (c *Config) Validate() error {
	if c.Defaults.PageSize <= 0 {
		return fmt.Errorf("default page size must be positive, got: %d", c.Defaults.PageSize)
	}
	if c.Defaults.PageSize > 100 {
		return fmt.Errorf("default page size %d exceeds GitHub API limit of 100", c.Defaults.PageSize)
	}
	switch c.Defaults.OutputFormat {
	case "csv", "ndjson":
	default:
		return fmt.Errorf("output format must be \"csv\" or \"ndjson\", got: %q", c.Defaults.OutputFormat)
	}
	if c.GitHub.APIEndpoint == "" {
		return fmt.Errorf("GitHub API endpoint cannot be empty")
	}
	if c.GitHub.GraphQLEndpoint == "" {
		return fmt.Errorf("GitHub GraphQL endpoint cannot be empty")
	}
	if c.RateLimit.SafetyMargin < 0 {
		return fmt.Errorf("rate limit safety margin cannot be negative, got: %d", c.RateLimit.SafetyMargin)
	}
	if c.RateLimit.MaxWait != "" {
		if _, err := time.ParseDuration(c.RateLimit.MaxWait); err != nil {
			return fmt.Errorf("invalid rate limit max wait %q: %w", c.RateLimit.MaxWait, err)
		}
	}
	if c.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second cannot be negative, got: %g", c.RateLimit.RequestsPerSecond)
	}
	return nil
}
