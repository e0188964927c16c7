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

package report

import (
	"context"
	"strings"

	"github.com/orgmaphq/orgmap/internal/github"
	"github.com/orgmaphq/orgmap/internal/stats"
)

// EmailResolver resolves collaborator logins to email addresses. Results
// are memoized for the lifetime of the resolver, so a user who collaborates
// on many repositories costs a single profile lookup per run.
type EmailResolver struct {
	client       github.Client
	tracker      *stats.Tracker
	commitEmails bool
	cache        map[string]string
}

// NewEmailResolver creates a resolver. When commitEmails is true, users
// without a public profile email get a second chance through their recent
// push event commits.
func NewEmailResolver(client github.Client, tracker *stats.Tracker, commitEmails bool) *EmailResolver {
	return &EmailResolver{
		client:       client,
		tracker:      tracker,
		commitEmails: commitEmails,
		cache:        make(map[string]string),
	}
}

// Resolve returns the best known email address for login, or an empty
// string when none is discoverable. Lookup failures degrade to an empty
// email; a missing address never aborts the report.
func (r *EmailResolver) Resolve(ctx context.Context, login string) string {
	if email, ok := r.cache[login]; ok {
		return email
	}

	email := r.profileEmail(ctx, login)
	if email == "" && r.commitEmails {
		email = r.commitEmail(ctx, login)
	}

	r.cache[login] = email
	r.tracker.EmailLookup(email != "")
	return email
}

// profileEmail returns the user's public profile email, if any.
func (r *EmailResolver) profileEmail(ctx context.Context, login string) string {
	user, err := r.client.GetUser(ctx, login)
	if err != nil {
		return ""
	}
	return user.Email
}

// commitEmail scans the user's recent public push events for a commit
// author email. GitHub noreply addresses are not real mailboxes and are
// ignored.
func (r *EmailResolver) commitEmail(ctx context.Context, login string) string {
	events, err := r.client.ListPublicEvents(ctx, login)
	if err != nil {
		return ""
	}

	for _, event := range events {
		if event.Type != "PushEvent" {
			continue
		}
		for _, commit := range event.Payload.Commits {
			email := commit.Author.Email
			if email == "" || strings.HasSuffix(email, "noreply.github.com") {
				continue
			}
			return email
		}
	}
	return ""
}
