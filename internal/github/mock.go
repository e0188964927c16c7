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

import (
	"context"
	"fmt"

	orgmaperrors "github.com/orgmaphq/orgmap/internal/errors"
)

// MockClient is a mock implementation of the GitHub Client interface for testing.
type MockClient struct {
	// AuthedUser is returned by CurrentUser
	AuthedUser *User

	// Organizations to return from ListOrganizations
	Organizations []Organization

	// Repositories keyed by organization login
	Repositories map[string][]Repository

	// Collaborators keyed by "org/repo"
	Collaborators map[string][]Collaborator

	// Users keyed by login, returned by GetUser
	Users map[string]*User

	// Events keyed by login, returned by ListPublicEvents
	Events map[string][]Event

	// Error to return from every call
	Error error

	// Per-target errors for testing skip behavior
	RepoErrors   map[string]error // org -> ListOrgRepositories error
	CollabErrors map[string]error // "org/repo" -> ListCollaborators error
	UserErrors   map[string]error // login -> GetUser error

	// PageSize splits list results into pages when > 0. Zero returns
	// everything in a single page.
	PageSize int

	// Behavior flags
	ShouldFailAuth    bool
	ShouldFailNetwork bool

	// Track calls for verification
	CallCount int
	LastOrg   string
	LastRepo  string
	LastOpts  ListOptions
}

// NewMockClient creates a new mock client with default test data
func NewMockClient() *MockClient {
	return &MockClient{
		AuthedUser:    &User{Login: "octocat"},
		Organizations: []Organization{{Login: "acme"}},
		Repositories: map[string][]Repository{
			"acme": {{Name: "widgets", FullName: "acme/widgets"}},
		},
		Collaborators: map[string][]Collaborator{
			"acme/widgets": {
				{Login: "alice", RoleName: "write"},
				{Login: "bob", RoleName: "admin"},
			},
		},
		Users: map[string]*User{
			"alice": {Login: "alice"},
			"bob":   {Login: "bob", Email: "bob@x.com"},
		},
		Events: map[string][]Event{},
	}
}

// CurrentUser implements the Client interface
func (m *MockClient) CurrentUser(ctx context.Context) (*User, error) {
	m.CallCount++
	if err := m.commonErrors(ctx); err != nil {
		return nil, err
	}
	return m.AuthedUser, nil
}

// ListOrganizations implements the Client interface
func (m *MockClient) ListOrganizations(ctx context.Context, opts ListOptions) (*OrganizationPage, error) {
	m.CallCount++
	m.LastOpts = opts
	if err := m.commonErrors(ctx); err != nil {
		return nil, err
	}
	lo, hi, next := m.pageBounds(len(m.Organizations), opts.Page)
	return &OrganizationPage{
		Organizations: m.Organizations[lo:hi],
		NextPage:      next,
	}, nil
}

// ListOrgRepositories implements the Client interface
func (m *MockClient) ListOrgRepositories(ctx context.Context, org string, opts ListOptions) (*RepositoryPage, error) {
	m.CallCount++
	m.LastOrg = org
	m.LastOpts = opts
	if err := m.commonErrors(ctx); err != nil {
		return nil, err
	}
	if err := m.RepoErrors[org]; err != nil {
		return nil, err
	}
	repos, ok := m.Repositories[org]
	if !ok {
		return nil, fmt.Errorf("organization %q: %w", org, orgmaperrors.ErrNotFound)
	}
	lo, hi, next := m.pageBounds(len(repos), opts.Page)
	return &RepositoryPage{
		Repositories: repos[lo:hi],
		NextPage:     next,
	}, nil
}

// ListCollaborators implements the Client interface
func (m *MockClient) ListCollaborators(ctx context.Context, org, repo string, opts ListOptions) (*CollaboratorPage, error) {
	m.CallCount++
	m.LastOrg = org
	m.LastRepo = repo
	m.LastOpts = opts
	if err := m.commonErrors(ctx); err != nil {
		return nil, err
	}
	key := org + "/" + repo
	if err := m.CollabErrors[key]; err != nil {
		return nil, err
	}
	collabs, ok := m.Collaborators[key]
	if !ok {
		return nil, fmt.Errorf("repository %q: %w", key, orgmaperrors.ErrNotFound)
	}
	lo, hi, next := m.pageBounds(len(collabs), opts.Page)
	return &CollaboratorPage{
		Collaborators: collabs[lo:hi],
		NextPage:      next,
	}, nil
}

// GetUser implements the Client interface
func (m *MockClient) GetUser(ctx context.Context, login string) (*User, error) {
	m.CallCount++
	if err := m.commonErrors(ctx); err != nil {
		return nil, err
	}
	if err := m.UserErrors[login]; err != nil {
		return nil, err
	}
	user, ok := m.Users[login]
	if !ok {
		return nil, fmt.Errorf("user %q: %w", login, orgmaperrors.ErrNotFound)
	}
	return user, nil
}

// ListPublicEvents implements the Client interface
func (m *MockClient) ListPublicEvents(ctx context.Context, login string) ([]Event, error) {
	m.CallCount++
	if err := m.commonErrors(ctx); err != nil {
		return nil, err
	}
	return m.Events[login], nil
}

func (m *MockClient) commonErrors(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if m.ShouldFailAuth {
		return fmt.Errorf("authentication failed: %w", orgmaperrors.ErrInvalidToken)
	}
	if m.ShouldFailNetwork {
		return fmt.Errorf("network timeout: %w", orgmaperrors.ErrNetworkFailure)
	}
	return m.Error
}

// pageBounds slices a list of total items into the page requested by opts.
// A zero PageSize returns everything in one page.
func (m *MockClient) pageBounds(total, page int) (lo, hi, next int) {
	if m.PageSize <= 0 {
		return 0, total, 0
	}
	if page < 1 {
		page = 1
	}
	lo = (page - 1) * m.PageSize
	if lo > total {
		lo = total
	}
	hi = lo + m.PageSize
	if hi >= total {
		return lo, total, 0
	}
	return lo, hi, page + 1
}

// MockClientOption allows configuring the mock client
type MockClientOption func(*MockClient)

// WithOrganizations sets the organizations to return
func WithOrganizations(orgs ...Organization) MockClientOption {
	return func(m *MockClient) {
		m.Organizations = orgs
	}
}

// WithRepositories sets the repositories for an organization
func WithRepositories(org string, repos ...Repository) MockClientOption {
	return func(m *MockClient) {
		if m.Repositories == nil {
			m.Repositories = make(map[string][]Repository)
		}
		m.Repositories[org] = repos
	}
}

// WithCollaborators sets the collaborators for an "org/repo" pair
func WithCollaborators(org, repo string, collabs ...Collaborator) MockClientOption {
	return func(m *MockClient) {
		if m.Collaborators == nil {
			m.Collaborators = make(map[string][]Collaborator)
		}
		m.Collaborators[org+"/"+repo] = collabs
	}
}

// WithUser sets the profile returned for a login
func WithUser(user *User) MockClientOption {
	return func(m *MockClient) {
		if m.Users == nil {
			m.Users = make(map[string]*User)
		}
		m.Users[user.Login] = user
	}
}

// WithEvents sets the public events for a login
func WithEvents(login string, events ...Event) MockClientOption {
	return func(m *MockClient) {
		if m.Events == nil {
			m.Events = make(map[string][]Event)
		}
		m.Events[login] = events
	}
}

// WithError makes the client return a specific error
func WithError(err error) MockClientOption {
	return func(m *MockClient) {
		m.Error = err
	}
}

// WithAuthFailure makes the client simulate authentication failure
func WithAuthFailure() MockClientOption {
	return func(m *MockClient) {
		m.ShouldFailAuth = true
	}
}

// NewMockClientWithOptions creates a mock client with options
func NewMockClientWithOptions(opts ...MockClientOption) *MockClient {
	mock := NewMockClient()
	for _, opt := range opts {
		opt(mock)
	}
	return mock
}
