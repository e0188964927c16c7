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

// Package config types define the configuration structures used throughout
// orgmap. These types represent settings that can be loaded from YAML
// configuration files, environment variables, or command-line flags.
package config

// Config represents the complete configuration for orgmap. It consolidates
// settings from various sources and provides a unified interface for
// accessing configuration values throughout the application.
type Config struct {
	GitHub        GitHubConfig         `yaml:"github"`
	Defaults      DefaultsConfig       `yaml:"defaults"`
	Organizations map[string]OrgConfig `yaml:"organizations"`
	RateLimit     RateLimitConfig      `yaml:"rate_limit"`
}

// GitHubConfig contains GitHub-specific settings including API endpoints
// and authentication configuration. This allows easy configuration for
// GitHub Enterprise deployments by specifying custom endpoints.
type GitHubConfig struct {
	APIEndpoint     string `yaml:"api_endpoint"`
	GraphQLEndpoint string `yaml:"graphql_endpoint"`
	TokenEnv        string `yaml:"token_env"`
}

// DefaultsConfig contains default settings that apply to all report runs
// unless overridden by organization-specific settings or command-line
// flags. These settings control the core behavior of report generation.
type DefaultsConfig struct {
	Output       string `yaml:"output"`
	OutputFormat string `yaml:"output_format"`
	PageSize     int    `yaml:"page_size"`
	CommitEmails bool   `yaml:"commit_emails"`
}

// OrgConfig contains organization-specific overrides that allow fine-tuning
// report behavior for individual organizations. This is useful when certain
// organizations have special requirements, such as smaller page sizes for
// organizations whose repositories carry very large collaborator lists.
type OrgConfig struct {
	PageSize int `yaml:"page_size"`
}

// RateLimitConfig controls rate limit handling when talking to the GitHub
// API. The safety margin determines how close to quota exhaustion the tool
// will run before pausing, max wait caps how long a single pause may last,
// and requests per second optionally spaces requests out to stay under
// secondary rate limits.
type RateLimitConfig struct {
	SafetyMargin      int     `yaml:"safety_margin"`
	MaxWait           string  `yaml:"max_wait"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// DefaultConfig returns a Config with sensible defaults suitable for most
// use cases. These defaults are optimized for public GitHub.com usage but
// can be overridden for GitHub Enterprise or special requirements.
func DefaultConfig() *Config {
	return &Config{
		GitHub: GitHubConfig{
			APIEndpoint:     "https://api.github.com",
			GraphQLEndpoint: "https://api.github.com/graphql",
			TokenEnv:        "GITHUB_TOKEN",
		},
		Defaults: DefaultsConfig{
			Output:       "github_org_report.csv",
			OutputFormat: "csv",
			PageSize:     100,
			CommitEmails: false,
		},
		Organizations: make(map[string]OrgConfig),
		RateLimit: RateLimitConfig{
			SafetyMargin:      10,
			MaxWait:           "1h",
			RequestsPerSecond: 0,
		},
	}
}
