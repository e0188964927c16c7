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

package github

import "context"

// Client defines the interface for interacting with GitHub's API.
// This interface allows for easy mocking in tests.
type Client interface {
	// CurrentUser returns the profile of the authenticated user. The report
	// command calls this first to verify the token before any output is
	// created.
	CurrentUser(ctx context.Context) (*User, error)

	// ListOrganizations retrieves a page of organizations the token belongs
	// to, in the order the API returns them.
	ListOrganizations(ctx context.Context, opts ListOptions) (*OrganizationPage, error)

	// ListOrgRepositories retrieves a page of repositories in the given
	// organization.
	ListOrgRepositories(ctx context.Context, org string, opts ListOptions) (*RepositoryPage, error)

	// ListCollaborators retrieves a page of collaborators on org/repo,
	// including outside collaborators.
	ListCollaborators(ctx context.Context, org, repo string, opts ListOptions) (*CollaboratorPage, error)

	// GetUser retrieves the public profile for login. The Email field is
	// empty when the user has no public email.
	GetUser(ctx context.Context, login string) (*User, error)

	// ListPublicEvents retrieves the recent public activity for login, used
	// to discover commit author emails when the profile email is hidden.
	ListPublicEvents(ctx context.Context, login string) ([]Event, error)
}
