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
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/orgmaphq/orgmap/pkg/version"
)

func main() {
	// Rows may stream to stdout; all human-facing output goes to stderr.
	pterm.SetDefaultOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:   "orgmap",
		Short: "Report who can access what across GitHub organizations",
		Long: `OrgMap walks every repository in your GitHub organizations and reports
each collaborator's permission level and email address as a CSV file,
suitable for access reviews and compliance audits.`,
		Version:       version.Version,
		SilenceUsage:  true, // Don't show usage on error
		SilenceErrors: true, // We'll handle error printing ourselves
	}

	rootCmd.AddCommand(newReportCommand())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		pterm.Error.Printf("%v\n", err)
		os.Exit(mapErrorToExitCode(err))
	}
}
