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

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/orgmaphq/orgmap/internal/config"
	orgmaperrors "github.com/orgmaphq/orgmap/internal/errors"
	"github.com/orgmaphq/orgmap/internal/github"
	"github.com/orgmaphq/orgmap/internal/output"
	"github.com/orgmaphq/orgmap/internal/ratelimit"
	"github.com/orgmaphq/orgmap/internal/report"
	"github.com/orgmaphq/orgmap/internal/stats"
)

// reportFlags carries the report command's flag values.
type reportFlags struct {
	token        string
	output       string
	format       string
	orgFile      string
	enterprise   string
	commitEmails bool
	configPath   string
	pageSize     int
}

// newReportCommand builds the report command
func newReportCommand() *cobra.Command {
	var flags reportFlags

	cmd := &cobra.Command{
		Use:   "report [org ...]",
		Short: "Generate a repository access report",
		Long: `Generate a report of every collaborator on every repository in the given
GitHub organizations, with their permission level and email address.

Organizations are taken from the command line, from --org-file, or from a
GitHub Enterprise account via --enterprise. With none of those, every
organization the token belongs to is reported.

Authentication is required via GitHub token:
  - Use --token flag to provide token directly
  - Or set GITHUB_TOKEN environment variable`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd.Context(), args, flags)
		},
	}

	cmd.Flags().StringVar(&flags.token, "token", "", "GitHub personal access token (overrides GITHUB_TOKEN env var)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file path, \"-\" for stdout (default: github_org_report.csv)")
	cmd.Flags().StringVar(&flags.format, "format", "", "Output format: csv or ndjson (default: csv)")
	cmd.Flags().StringVar(&flags.orgFile, "org-file", "", "File of organization names, one per line or comma separated")
	cmd.Flags().StringVar(&flags.enterprise, "enterprise", "", "GitHub Enterprise slug to list organizations from")
	cmd.Flags().BoolVar(&flags.commitEmails, "commit-emails", false, "Fall back to public push event commits for hidden emails")
	cmd.Flags().StringVar(&flags.configPath, "config", "", "Path to config file")
	cmd.Flags().IntVar(&flags.pageSize, "page-size", 0, "Page size for API listings, 1-100 (default: 100)")

	return cmd
}

// runReport executes the report command
func runReport(ctx context.Context, args []string, flags reportFlags) error {
	cfg, err := config.LoadConfig(flags.configPath)
	if err != nil {
		return err
	}

	// Flags override config file and environment settings
	if flags.output != "" {
		cfg.Defaults.Output = flags.output
	}
	if flags.format != "" {
		cfg.Defaults.OutputFormat = flags.format
	}
	if flags.pageSize > 0 {
		cfg.Defaults.PageSize = flags.pageSize
	}
	if flags.commitEmails {
		cfg.Defaults.CommitEmails = true
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	token := getToken(flags.token, cfg.GitHub.TokenEnv)
	if token == "" {
		return fmt.Errorf("%w: GitHub token not found. Set %s or use --token flag",
			orgmaperrors.ErrInvalidToken, cfg.GitHub.TokenEnv)
	}

	// Rate limit machinery shared by the REST and GraphQL clients.
	runStats := stats.New()
	maxWait := cfg.RateLimit.MaxWaitDuration()
	tracker := ratelimit.NewTracker()
	guard := ratelimit.NewGuard(tracker, cfg.RateLimit.SafetyMargin, maxWait)
	guard.SetObserver(func(info ratelimit.Info, wait time.Duration) {
		runStats.RecordWait(wait)
		pterm.Warning.Printf("Rate limit low (%d remaining), pausing %s until reset\n",
			info.Remaining, wait.Round(time.Second))
	})
	waiter := ratelimit.NewWaiter(maxWait)
	waiter.SetObserver(func(info ratelimit.Info, wait time.Duration) {
		runStats.RecordWait(wait)
		pterm.Warning.Printf("Rate limit exhausted, waiting %s before retrying\n",
			wait.Round(time.Second))
	})

	transportCfg := github.TransportConfig{
		Tracker:           tracker,
		Guard:             guard,
		Waiter:            waiter,
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		OnRequest:         runStats.IncrementAPICall,
	}

	client := github.NewRetryClient(
		github.NewRESTClientWithConfig(token, cfg.GitHub.APIEndpoint, transportCfg),
		github.DefaultRetryConfig(),
	)

	// Verify the token and prime the rate limit tracker before any output
	// file is touched.
	user, err := client.CurrentUser(ctx)
	if err != nil {
		return err
	}
	pterm.Info.Printf("Authenticated as %s\n", user.Login)

	orgs, err := resolveOrganizations(ctx, args, flags, cfg, token, transportCfg)
	if err != nil {
		return err
	}

	writer, err := newRowWriter(cfg.Defaults.Output, cfg.Defaults.OutputFormat)
	if err != nil {
		return err
	}

	gen := report.NewGenerator(client, writer, runStats, report.Options{
		Organizations: orgs,
		PageSize:      cfg.Defaults.PageSize,
		OrgPageSizes:  orgPageSizes(cfg),
		CommitEmails:  cfg.Defaults.CommitEmails,
	})

	if err := gen.Run(ctx); err != nil {
		// Never leave a partial report behind.
		writer.Discard()
		return err
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize output: %w", err)
	}

	printSummary(runStats.Summary(), cfg.Defaults.Output)
	return nil
}

// getToken returns the GitHub token from the flag or the configured
// environment variable
func getToken(flagToken, envVar string) string {
	if flagToken != "" {
		return flagToken
	}
	return os.Getenv(envVar)
}

// resolveOrganizations merges explicit organization names from the command
// line and --org-file, or lists them from a GitHub Enterprise account.
// Explicit names win over the enterprise listing. An empty result tells the
// generator to discover organizations from the token's memberships.
func resolveOrganizations(ctx context.Context, args []string, flags reportFlags, cfg *config.Config, token string, transportCfg github.TransportConfig) ([]string, error) {
	orgs := append([]string(nil), args...)

	if flags.orgFile != "" {
		fromFile, err := readOrgFile(flags.orgFile)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, fromFile...)
	}

	orgs = dedupe(orgs)

	if len(orgs) == 0 && flags.enterprise != "" {
		pterm.Info.Printf("Listing organizations in enterprise %s...\n", flags.enterprise)
		enterprise := github.NewEnterpriseClient(token, cfg.GitHub.GraphQLEndpoint, transportCfg)
		listed, err := enterprise.ListOrganizations(ctx, flags.enterprise)
		if err != nil {
			return nil, fmt.Errorf("failed to list enterprise organizations: %w", err)
		}
		for _, org := range listed {
			orgs = append(orgs, org.Login)
		}
	}

	return orgs, nil
}

// readOrgFile parses a file of organization names. Names may appear one per
// line or comma separated; blank entries and #-comments are ignored, and
// anything that cannot be an organization login is warned about and
// dropped.
func readOrgFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read organization file: %w", err)
	}

	var orgs []string
	for _, line := range strings.Split(string(data), "\n") {
		for _, field := range strings.Split(line, ",") {
			name := strings.TrimSpace(field)
			if name == "" || strings.HasPrefix(name, "#") {
				continue
			}
			if strings.ContainsAny(name, " /") {
				pterm.Warning.Printf("Ignoring invalid organization name %q\n", name)
				continue
			}
			orgs = append(orgs, name)
		}
	}
	return orgs, nil
}

// dedupe removes duplicate names while preserving first-seen order.
func dedupe(names []string) []string {
	if len(names) < 2 {
		return names
	}
	seen := make(map[string]struct{}, len(names))
	out := names[:0]
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// orgPageSizes flattens the per-organization page size overrides from the
// config into the shape the generator consumes.
func orgPageSizes(cfg *config.Config) map[string]int {
	if len(cfg.Organizations) == 0 {
		return nil
	}
	sizes := make(map[string]int, len(cfg.Organizations))
	for org := range cfg.Organizations {
		sizes[org] = cfg.GetPageSize(org)
	}
	return sizes
}

// newRowWriter opens the report destination. "-" streams to stdout without
// atomic staging.
func newRowWriter(path, format string) (output.RowWriter, error) {
	if path == "-" {
		if format == "ndjson" {
			return output.NewNDJSONStreamWriter(os.Stdout), nil
		}
		return output.NewCSVStreamWriter(os.Stdout)
	}
	if format == "ndjson" {
		return output.NewNDJSONWriter(path)
	}
	return output.NewCSVWriter(path)
}

// printSummary reports run statistics once the output is finalized.
func printSummary(summary stats.Summary, outputPath string) {
	if outputPath == "-" {
		pterm.Success.Printf("Report complete: %d rows\n", summary.Rows)
	} else {
		pterm.Success.Printf("Report written to %s (%d rows)\n", outputPath, summary.Rows)
	}
	pterm.Info.Printf("%d organization(s), %d repositories, %d API calls in %s\n",
		summary.Organizations, summary.Repositories, summary.APICalls,
		summary.Duration.Round(time.Second))
	if summary.EmailLookups > 0 {
		pterm.Info.Printf("Emails found for %d of %d users\n",
			summary.EmailsFound, summary.EmailLookups)
	}
	if len(summary.SkippedOrgs) > 0 {
		pterm.Warning.Printf("Skipped %d organization(s): %s\n",
			len(summary.SkippedOrgs), strings.Join(summary.SkippedOrgs, ", "))
	}
	if len(summary.SkippedRepos) > 0 {
		pterm.Warning.Printf("Skipped %d repositories: %s\n",
			len(summary.SkippedRepos), strings.Join(summary.SkippedRepos, ", "))
	}
	if summary.RateLimitWaits > 0 {
		pterm.Info.Printf("Paused %d time(s) for rate limiting (%s total)\n",
			summary.RateLimitWaits, summary.WaitedFor.Round(time.Second))
	}
}

// mapErrorToExitCode maps internal errors to appropriate exit codes
func mapErrorToExitCode(err error) int {
	if err == nil {
		return 0
	}

	// Check for specific error types
	if errors.Is(err, orgmaperrors.ErrInvalidToken) ||
		errors.Is(err, orgmaperrors.ErrForbidden) ||
		errors.Is(err, orgmaperrors.ErrNotFound) ||
		errors.Is(err, orgmaperrors.ErrRateLimit) {
		return 2 // Authentication/authorization errors
	}

	if errors.Is(err, orgmaperrors.ErrNetworkFailure) {
		return 3 // Network errors
	}

	return 1 // General error
}
