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
	"errors"
	"testing"

	orgmaperrors "github.com/orgmaphq/orgmap/internal/errors"
)

// Compile-time check that MockClient implements Client
var _ Client = (*MockClient)(nil)

func TestMockClient_DefaultData(t *testing.T) {
	ctx := context.Background()
	mock := NewMockClient()

	orgs, err := mock.ListOrganizations(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orgs.Organizations) != 1 || orgs.Organizations[0].Login != "acme" {
		t.Errorf("unexpected organizations: %+v", orgs.Organizations)
	}

	repos, err := mock.ListOrgRepositories(ctx, "acme", ListOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repos.Repositories) != 1 || repos.Repositories[0].Name != "widgets" {
		t.Errorf("unexpected repositories: %+v", repos.Repositories)
	}
	if mock.LastOrg != "acme" {
		t.Errorf("LastOrg = %q, want acme", mock.LastOrg)
	}

	collabs, err := mock.ListCollaborators(ctx, "acme", "widgets", ListOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(collabs.Collaborators) != 2 {
		t.Errorf("expected 2 collaborators, got %d", len(collabs.Collaborators))
	}
	if mock.LastRepo != "widgets" {
		t.Errorf("LastRepo = %q, want widgets", mock.LastRepo)
	}

	if mock.CallCount != 3 {
		t.Errorf("CallCount = %d, want 3", mock.CallCount)
	}
}

func TestMockClient_Pagination(t *testing.T) {
	mock := NewMockClientWithOptions(
		WithRepositories("acme",
			Repository{Name: "a"}, Repository{Name: "b"}, Repository{Name: "c"}),
	)
	mock.PageSize = 2
	ctx := context.Background()

	first, err := mock.ListOrgRepositories(ctx, "acme", ListOptions{Page: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first.Repositories) != 2 || first.NextPage != 2 {
		t.Errorf("page 1: %d repos, NextPage=%d, want 2 repos and NextPage=2",
			len(first.Repositories), first.NextPage)
	}

	second, err := mock.ListOrgRepositories(ctx, "acme", ListOptions{Page: first.NextPage})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(second.Repositories) != 1 || second.NextPage != 0 {
		t.Errorf("page 2: %d repos, NextPage=%d, want 1 repo and NextPage=0",
			len(second.Repositories), second.NextPage)
	}
}

func TestMockClient_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("auth failure", func(t *testing.T) {
		mock := NewMockClientWithOptions(WithAuthFailure())
		if _, err := mock.CurrentUser(ctx); !errors.Is(err, orgmaperrors.ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("network failure", func(t *testing.T) {
		mock := NewMockClient()
		mock.ShouldFailNetwork = true
		if _, err := mock.ListOrganizations(ctx, ListOptions{}); !errors.Is(err, orgmaperrors.ErrNetworkFailure) {
			t.Errorf("expected ErrNetworkFailure, got %v", err)
		}
	})

	t.Run("unknown org not found", func(t *testing.T) {
		mock := NewMockClient()
		if _, err := mock.ListOrgRepositories(ctx, "ghost", ListOptions{}); !errors.Is(err, orgmaperrors.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("per-repo forbidden", func(t *testing.T) {
		mock := NewMockClient()
		mock.CollabErrors = map[string]error{
			"acme/widgets": orgmaperrors.ErrForbidden,
		}
		if _, err := mock.ListCollaborators(ctx, "acme", "widgets", ListOptions{}); !errors.Is(err, orgmaperrors.ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		mock := NewMockClient()
		if _, err := mock.GetUser(canceled, "alice"); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
