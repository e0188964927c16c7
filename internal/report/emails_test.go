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
	"errors"
	"fmt"
	"testing"

	orgmaperrors "github.com/orgmaphq/orgmap/internal/errors"
	"github.com/orgmaphq/orgmap/internal/github"
	"github.com/orgmaphq/orgmap/internal/stats"
)

// countingClient counts GetUser calls to verify memoization.
type countingClient struct {
	github.Client
	userCalls int
}

func (c *countingClient) GetUser(ctx context.Context, login string) (*github.User, error) {
	c.userCalls++
	return c.Client.GetUser(ctx, login)
}

// eventsErrorClient fails every public events listing.
type eventsErrorClient struct {
	github.Client
	err error
}

func (c *eventsErrorClient) ListPublicEvents(ctx context.Context, login string) ([]github.Event, error) {
	return nil, c.err
}

func TestEmailResolver_ProfileLookup(t *testing.T) {
	tests := []struct {
		name  string
		login string
		want  string
	}{
		{"public email", "bob", "bob@x.com"},
		{"hidden email", "alice", ""},
		{"unknown user", "ghost", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := NewEmailResolver(github.NewMockClient(), stats.New(), false)
			if got := resolver.Resolve(context.Background(), tt.login); got != tt.want {
				t.Errorf("Resolve(%s) = %q, want %q", tt.login, got, tt.want)
			}
		})
	}
}

func TestEmailResolver_ForbiddenProfileDegrades(t *testing.T) {
	mock := github.NewMockClient()
	mock.UserErrors = map[string]error{
		"carol": fmt.Errorf("user %q: %w", "carol", orgmaperrors.ErrForbidden),
	}

	resolver := NewEmailResolver(mock, stats.New(), false)
	if got := resolver.Resolve(context.Background(), "carol"); got != "" {
		t.Errorf("Resolve(carol) = %q, want empty", got)
	}
}

func TestEmailResolver_Memoization(t *testing.T) {
	counting := &countingClient{Client: github.NewMockClient()}
	tracker := stats.New()
	resolver := NewEmailResolver(counting, tracker, false)

	for i := 0; i < 3; i++ {
		if got := resolver.Resolve(context.Background(), "bob"); got != "bob@x.com" {
			t.Fatalf("Resolve(bob) = %q, want bob@x.com", got)
		}
	}
	// Negative results are memoized too.
	for i := 0; i < 3; i++ {
		if got := resolver.Resolve(context.Background(), "alice"); got != "" {
			t.Fatalf("Resolve(alice) = %q, want empty", got)
		}
	}

	if counting.userCalls != 2 {
		t.Errorf("GetUser calls = %d, want 2", counting.userCalls)
	}

	summary := tracker.Summary()
	if summary.EmailLookups != 2 {
		t.Errorf("EmailLookups = %d, want 2", summary.EmailLookups)
	}
	if summary.EmailsFound != 1 {
		t.Errorf("EmailsFound = %d, want 1", summary.EmailsFound)
	}
}

func TestEmailResolver_CommitEmails(t *testing.T) {
	tests := []struct {
		name   string
		events []github.Event
		want   string
	}{
		{
			name: "push commit email",
			events: []github.Event{
				{Type: "PushEvent", Payload: github.EventPayload{Commits: []github.EventCommit{
					{Author: github.EventCommitAuthor{Email: "alice@corp.example"}},
				}}},
			},
			want: "alice@corp.example",
		},
		{
			name: "skips noreply addresses",
			events: []github.Event{
				{Type: "PushEvent", Payload: github.EventPayload{Commits: []github.EventCommit{
					{Author: github.EventCommitAuthor{Email: "1+alice@users.noreply.github.com"}},
					{Author: github.EventCommitAuthor{Email: "alice@users.noreply.github.com"}},
				}}},
			},
			want: "",
		},
		{
			name: "later event carries the address",
			events: []github.Event{
				{Type: "WatchEvent"},
				{Type: "PushEvent", Payload: github.EventPayload{Commits: []github.EventCommit{
					{Author: github.EventCommitAuthor{Email: ""}},
				}}},
				{Type: "PushEvent", Payload: github.EventPayload{Commits: []github.EventCommit{
					{Author: github.EventCommitAuthor{Email: "alice@corp.example"}},
				}}},
			},
			want: "alice@corp.example",
		},
		{
			name:   "no push events",
			events: []github.Event{{Type: "WatchEvent"}, {Type: "ForkEvent"}},
			want:   "",
		},
		{
			name:   "no events at all",
			events: nil,
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := github.NewMockClient()
			mock.Events["alice"] = tt.events

			resolver := NewEmailResolver(mock, stats.New(), true)
			if got := resolver.Resolve(context.Background(), "alice"); got != tt.want {
				t.Errorf("Resolve(alice) = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEmailResolver_ProfileEmailWins(t *testing.T) {
	mock := github.NewMockClient()
	mock.Events["bob"] = []github.Event{
		{Type: "PushEvent", Payload: github.EventPayload{Commits: []github.EventCommit{
			{Author: github.EventCommitAuthor{Email: "other@corp.example"}},
		}}},
	}

	resolver := NewEmailResolver(mock, stats.New(), true)
	if got := resolver.Resolve(context.Background(), "bob"); got != "bob@x.com" {
		t.Errorf("Resolve(bob) = %q, want bob@x.com", got)
	}
}

func TestEmailResolver_EventsFailureDegrades(t *testing.T) {
	failing := &eventsErrorClient{
		Client: github.NewMockClient(),
		err:    errors.New("events unavailable"),
	}

	resolver := NewEmailResolver(failing, stats.New(), true)
	if got := resolver.Resolve(context.Background(), "alice"); got != "" {
		t.Errorf("Resolve(alice) = %q, want empty", got)
	}
}
