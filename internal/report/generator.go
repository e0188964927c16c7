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

// Package report generates the organization access report. It walks the
// organization → repository → collaborator hierarchy through a GitHub
// client, resolves each collaborator's effective permission level and email
// address, and flattens the result into rows in API listing order.
//
// Organizations and repositories the token cannot access are skipped with
// a warning so one revoked grant does not ruin an otherwise complete
// report. Authentication, network, and rate limit failures abort the run.
package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/pterm/pterm"

	orgmaperrors "github.com/orgmaphq/orgmap/internal/errors"
	"github.com/orgmaphq/orgmap/internal/github"
	"github.com/orgmaphq/orgmap/internal/output"
	"github.com/orgmaphq/orgmap/internal/stats"
)

// Options configures a report run.
type Options struct {
	// Organizations is the explicit list of organization logins to report
	// on. When empty, the generator discovers organizations the token
	// belongs to through the API.
	Organizations []string

	// PageSize is the page size for all list calls. Zero uses the client's
	// default.
	PageSize int

	// OrgPageSizes overrides PageSize for individual organizations.
	OrgPageSizes map[string]int

	// CommitEmails enables the public-event commit scan fallback for
	// collaborators whose profile email is hidden.
	CommitEmails bool
}

// Generator produces a permission report by walking every repository of
// every organization in scope and emitting one row per collaborator.
type Generator struct {
	client  github.Client
	writer  output.RowWriter
	emails  *EmailResolver
	tracker *stats.Tracker
	opts    Options
}

// NewGenerator creates a report generator. Rows are emitted to writer as
// they are produced; the caller owns the writer's lifecycle.
func NewGenerator(client github.Client, writer output.RowWriter, tracker *stats.Tracker, opts Options) *Generator {
	return &Generator{
		client:  client,
		writer:  writer,
		emails:  NewEmailResolver(client, tracker, opts.CommitEmails),
		tracker: tracker,
		opts:    opts,
	}
}

// Run generates the report. It returns nil when the report is complete,
// even if individual organizations or repositories were skipped; those are
// recorded in the tracker and warned about as they occur.
func (g *Generator) Run(ctx context.Context) error {
	orgs := g.opts.Organizations
	if len(orgs) == 0 {
		discovered, err := g.listAllOrganizations(ctx)
		if err != nil {
			return fmt.Errorf("failed to list organizations: %w", err)
		}
		orgs = discovered
	}

	if len(orgs) == 0 {
		pterm.Warning.Println("No organizations visible to this token")
		return nil
	}

	pterm.Info.Printf("Generating report for %d organization(s)\n", len(orgs))

	for _, org := range orgs {
		if err := g.processOrganization(ctx, org); err != nil {
			if skippable(err) {
				pterm.Warning.Printf("Skipping organization %s: %v\n", org, err)
				g.tracker.SkipOrganization(org)
				continue
			}
			return err
		}
		g.tracker.OrganizationProcessed()
	}

	return nil
}

// listAllOrganizations pages through the organizations the token belongs
// to and returns their logins in listing order.
func (g *Generator) listAllOrganizations(ctx context.Context) ([]string, error) {
	var logins []string
	opts := github.ListOptions{PerPage: g.opts.PageSize}
	for {
		page, err := g.client.ListOrganizations(ctx, opts)
		if err != nil {
			return nil, err
		}
		for _, org := range page.Organizations {
			logins = append(logins, org.Login)
		}
		if page.NextPage == 0 {
			return logins, nil
		}
		opts.Page = page.NextPage
	}
}

// processOrganization emits rows for every repository in the organization.
// Repositories the token cannot access are skipped with a warning.
func (g *Generator) processOrganization(ctx context.Context, org string) error {
	pterm.Info.Printf("Processing organization %s...\n", org)

	opts := github.ListOptions{PerPage: g.pageSize(org)}
	for {
		page, err := g.client.ListOrgRepositories(ctx, org, opts)
		if err != nil {
			return err
		}
		for _, repo := range page.Repositories {
			if err := g.processRepository(ctx, org, repo.Name); err != nil {
				if skippable(err) {
					fullName := org + "/" + repo.Name
					pterm.Warning.Printf("Skipping repository %s: %v\n", fullName, err)
					g.tracker.SkipRepository(fullName)
					continue
				}
				return err
			}
			g.tracker.RepositoryProcessed()
		}
		if page.NextPage == 0 {
			return nil
		}
		opts.Page = page.NextPage
	}
}

// processRepository emits one row per collaborator on org/repo, in the
// order the API lists them.
func (g *Generator) processRepository(ctx context.Context, org, repo string) error {
	opts := github.ListOptions{PerPage: g.pageSize(org)}
	for {
		page, err := g.client.ListCollaborators(ctx, org, repo, opts)
		if err != nil {
			return err
		}
		for _, collab := range page.Collaborators {
			row := output.Row{
				Org:        org,
				Repo:       repo,
				Login:      collab.Login,
				Email:      g.emails.Resolve(ctx, collab.Login),
				Permission: string(collab.PermissionLevel()),
			}
			if err := g.writer.WriteRow(row); err != nil {
				return fmt.Errorf("failed to write row for %s: %w", collab.Login, err)
			}
			g.tracker.RowWritten()
		}
		if page.NextPage == 0 {
			return nil
		}
		opts.Page = page.NextPage
	}
}

// pageSize returns the effective page size for an organization's listings.
func (g *Generator) pageSize(org string) int {
	if size, ok := g.opts.OrgPageSizes[org]; ok && size > 0 {
		return size
	}
	return g.opts.PageSize
}

// skippable reports whether an error affects only the current item. Access
// errors on a single organization or repository skip that item and leave
// the rest of the report intact; everything else aborts the run.
func skippable(err error) bool {
	return errors.Is(err, orgmaperrors.ErrForbidden) || errors.Is(err, orgmaperrors.ErrNotFound)
}
