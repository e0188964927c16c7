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

// Package testutil provides common test helpers for orgmap
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// FakeUser is a user profile served by FakeGitHub.
type FakeUser struct {
	Login string
	Name  string
	Email string
}

// FakeCollaborator is a repository collaborator served by FakeGitHub. Role
// is a GitHub role name: admin, maintain, write, triage, or read.
type FakeCollaborator struct {
	Login string
	Role  string
}

// FakeGitHub serves the slice of the GitHub REST API the report command
// talks to, backed by in-memory fixture data. List endpoints honor the
// per_page and page query parameters and advertise further pages through
// the Link header, the same way api.github.com does. Every response
// carries X-RateLimit headers with a decrementing remaining count.
//
// The zero fixture matches the defaults of the in-process mock client:
// user octocat, organization acme, repository widgets, collaborators
// alice (write, no email) and bob (admin, bob@x.com).
type FakeGitHub struct {
	*httptest.Server

	mu      sync.Mutex
	token   string
	current FakeUser
	orgs    []string
	repos   map[string][]string
	collabs map[string][]FakeCollaborator
	users   map[string]FakeUser
	pushes  map[string][]string

	forbidden  map[string]bool
	failures   map[string]int
	failStatus int

	limit     int
	remaining int
	resetAt   time.Time

	pending429 int
	retryAfter time.Duration

	requestCount int32
	paths        []string
}

// NewFakeGitHub starts a fixture server with the default data set. The
// server is closed automatically when the test finishes.
func NewFakeGitHub(t *testing.T) *FakeGitHub {
	t.Helper()

	f := &FakeGitHub{
		token:   "test-token",
		current: FakeUser{Login: "octocat", Name: "The Octocat"},
		orgs:    []string{"acme"},
		repos:   map[string][]string{"acme": {"widgets"}},
		collabs: map[string][]FakeCollaborator{
			"acme/widgets": {
				{Login: "alice", Role: "write"},
				{Login: "bob", Role: "admin"},
			},
		},
		users: map[string]FakeUser{
			"octocat": {Login: "octocat", Name: "The Octocat"},
			"alice":   {Login: "alice", Name: "Alice Liddell"},
			"bob":     {Login: "bob", Name: "Bob Gray", Email: "bob@x.com"},
		},
		pushes:     map[string][]string{},
		forbidden:  map[string]bool{},
		failures:   map[string]int{},
		failStatus: http.StatusBadGateway,
		limit:      5000,
		remaining:  5000,
		resetAt:    time.Now().Add(time.Hour),
	}

	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.Server.Close)
	return f
}

// Reset clears all fixture data, leaving an empty server that still
// authenticates the configured token.
func (f *FakeGitHub) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orgs = nil
	f.repos = map[string][]string{}
	f.collabs = map[string][]FakeCollaborator{}
	f.users = map[string]FakeUser{f.current.Login: f.current}
	f.pushes = map[string][]string{}
	f.forbidden = map[string]bool{}
	f.failures = map[string]int{}
}

// AddOrg registers an organization visible to the token.
func (f *FakeGitHub) AddOrg(login string) *FakeGitHub {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orgs = append(f.orgs, login)
	if _, ok := f.repos[login]; !ok {
		f.repos[login] = nil
	}
	return f
}

// AddRepo registers a repository under org. The org does not have to be in
// the token's organization list, which models an explicitly named org.
func (f *FakeGitHub) AddRepo(org, repo string) *FakeGitHub {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.repos[org] = append(f.repos[org], repo)
	return f
}

// AddCollaborator grants login the given role on org/repo and registers a
// bare user profile for login if none exists.
func (f *FakeGitHub) AddCollaborator(org, repo, login, role string) *FakeGitHub {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := org + "/" + repo
	f.collabs[key] = append(f.collabs[key], FakeCollaborator{Login: login, Role: role})
	if _, ok := f.users[login]; !ok {
		f.users[login] = FakeUser{Login: login}
	}
	return f
}

// SetUser registers or replaces a user profile.
func (f *FakeGitHub) SetUser(u FakeUser) *FakeGitHub {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.Login] = u
	return f
}

// SetPushEvent gives login a public PushEvent whose commits carry the
// given author emails, one commit per email.
func (f *FakeGitHub) SetPushEvent(login string, emails ...string) *FakeGitHub {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes[login] = emails
	return f
}

// ForbidRepo makes the collaborators endpoint for org/repo return 403, the
// way GitHub responds when the token lacks push access.
func (f *FakeGitHub) ForbidRepo(org, repo string) *FakeGitHub {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forbidden[org+"/"+repo] = true
	return f
}

// FailTimes makes the next n requests to path answer with status before
// the endpoint recovers. Used to exercise transient-failure retry.
func (f *FakeGitHub) FailTimes(path string, n, status int) *FakeGitHub {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[path] = n
	f.failStatus = status
	return f
}

// RateLimit429 makes the next n requests answer 429 with the given
// Retry-After before traffic flows again.
func (f *FakeGitHub) RateLimit429(n int, retryAfter time.Duration) *FakeGitHub {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending429 = n
	f.retryAfter = retryAfter
	return f
}

// SetQuota pins the rate limit headers to the given window. Once resetIn
// elapses the quota snaps back to a full limit, mirroring a real reset.
func (f *FakeGitHub) SetQuota(limit, remaining int, resetIn time.Duration) *FakeGitHub {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limit = limit
	f.remaining = remaining
	f.resetAt = time.Now().Add(resetIn)
	return f
}

// RequestCount reports how many requests the server has seen, including
// rejected and failed ones.
func (f *FakeGitHub) RequestCount() int {
	return int(atomic.LoadInt32(&f.requestCount))
}

// RequestPaths returns the request paths seen so far, in order.
func (f *FakeGitHub) RequestPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

func (f *FakeGitHub) handle(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&f.requestCount, 1)
	f.mu.Lock()
	f.paths = append(f.paths, r.URL.Path)
	f.mu.Unlock()

	if auth := r.Header.Get("Authorization"); auth != "Bearer "+f.expectedToken() {
		f.writeError(w, http.StatusUnauthorized, "Bad credentials")
		return
	}

	if status, ok := f.consumeFailure(r.URL.Path); ok {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(http.StatusText(status)))
		return
	}

	if retryAfter, ok := f.consume429(); ok {
		w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter/time.Second)))
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message": "API rate limit exceeded"}`))
		return
	}

	path := r.URL.Path
	switch {
	case path == "/user":
		f.writeJSON(w, f.currentUser())

	case path == "/user/orgs":
		f.serveOrgs(w, r)

	case strings.HasPrefix(path, "/orgs/") && strings.HasSuffix(path, "/repos"):
		org := strings.TrimSuffix(strings.TrimPrefix(path, "/orgs/"), "/repos")
		f.serveRepos(w, r, org)

	case strings.HasPrefix(path, "/repos/") && strings.HasSuffix(path, "/collaborators"):
		key := strings.TrimSuffix(strings.TrimPrefix(path, "/repos/"), "/collaborators")
		f.serveCollaborators(w, r, key)

	case strings.HasPrefix(path, "/users/") && strings.HasSuffix(path, "/events/public"):
		login := strings.TrimSuffix(strings.TrimPrefix(path, "/users/"), "/events/public")
		f.serveEvents(w, login)

	case strings.HasPrefix(path, "/users/"):
		f.serveUser(w, strings.TrimPrefix(path, "/users/"))

	default:
		f.writeError(w, http.StatusNotFound, "Not Found")
	}
}

func (f *FakeGitHub) serveOrgs(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	orgs := append([]string(nil), f.orgs...)
	f.mu.Unlock()

	body := make([]map[string]interface{}, 0, len(orgs))
	for i, login := range orgs {
		body = append(body, map[string]interface{}{
			"login":       login,
			"id":          i + 1,
			"description": "",
		})
	}
	f.writePage(w, r, body)
}

func (f *FakeGitHub) serveRepos(w http.ResponseWriter, r *http.Request, org string) {
	f.mu.Lock()
	repos, ok := f.repos[org]
	repos = append([]string(nil), repos...)
	f.mu.Unlock()

	if !ok {
		f.writeError(w, http.StatusNotFound, "Not Found")
		return
	}

	body := make([]map[string]interface{}, 0, len(repos))
	for _, name := range repos {
		body = append(body, map[string]interface{}{
			"name":      name,
			"full_name": org + "/" + name,
			"private":   true,
		})
	}
	f.writePage(w, r, body)
}

func (f *FakeGitHub) serveCollaborators(w http.ResponseWriter, r *http.Request, key string) {
	f.mu.Lock()
	forbidden := f.forbidden[key]
	collabs, ok := f.collabs[key]
	collabs = append([]FakeCollaborator(nil), collabs...)
	f.mu.Unlock()

	if forbidden {
		f.writeError(w, http.StatusForbidden, "Must have push access to view repository collaborators.")
		return
	}
	if !ok {
		f.writeError(w, http.StatusNotFound, "Not Found")
		return
	}

	body := make([]map[string]interface{}, 0, len(collabs))
	for _, c := range collabs {
		body = append(body, map[string]interface{}{
			"login":       c.Login,
			"role_name":   c.Role,
			"permissions": roleFlags(c.Role),
		})
	}
	f.writePage(w, r, body)
}

func (f *FakeGitHub) serveUser(w http.ResponseWriter, login string) {
	f.mu.Lock()
	u, ok := f.users[login]
	f.mu.Unlock()

	if !ok {
		f.writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	f.writeJSON(w, map[string]interface{}{
		"login": u.Login,
		"name":  u.Name,
		"email": u.Email,
	})
}

func (f *FakeGitHub) serveEvents(w http.ResponseWriter, login string) {
	f.mu.Lock()
	emails, ok := f.pushes[login]
	emails = append([]string(nil), emails...)
	f.mu.Unlock()

	if !ok {
		f.writeJSON(w, []interface{}{})
		return
	}

	commits := make([]map[string]interface{}, 0, len(emails))
	for i, email := range emails {
		commits = append(commits, map[string]interface{}{
			"sha":     fmt.Sprintf("%040d", i),
			"message": fmt.Sprintf("commit %d", i+1),
			"author": map[string]interface{}{
				"name":  login,
				"email": email,
			},
		})
	}
	f.writeJSON(w, []interface{}{
		map[string]interface{}{
			"type":    "PushEvent",
			"payload": map[string]interface{}{"commits": commits},
		},
	})
}

func (f *FakeGitHub) currentUser() map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return map[string]interface{}{
		"login": f.current.Login,
		"name":  f.current.Name,
		"email": f.current.Email,
	}
}

func (f *FakeGitHub) expectedToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *FakeGitHub) consumeFailure(path string) (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures[path] > 0 {
		f.failures[path]--
		return f.failStatus, true
	}
	return 0, false
}

func (f *FakeGitHub) consume429() (time.Duration, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending429 > 0 {
		f.pending429--
		return f.retryAfter, true
	}
	return 0, false
}

// writePage writes one page of a list response, honoring per_page and page
// and advertising the next page through the Link header when one exists.
func (f *FakeGitHub) writePage(w http.ResponseWriter, r *http.Request, items []map[string]interface{}) {
	perPage := 30
	if v, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil && v > 0 {
		perPage = v
	}
	page := 1
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}

	start := (page - 1) * perPage
	if start > len(items) {
		start = len(items)
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}

	if end < len(items) {
		w.Header().Set("Link", fmt.Sprintf(`<%s%s?per_page=%d&page=%d>; rel="next"`,
			f.URL, r.URL.Path, perPage, page+1))
	}
	f.writeJSON(w, items[start:end])
}

func (f *FakeGitHub) writeJSON(w http.ResponseWriter, body interface{}) {
	f.setQuotaHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func (f *FakeGitHub) writeError(w http.ResponseWriter, status int, message string) {
	f.setQuotaHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"message":           message,
		"documentation_url": "https://docs.github.com/en/rest",
	})
}

// setQuotaHeaders stamps the response with rate limit headers. The
// remaining count decrements per request and snaps back to the full limit
// once the reset time passes.
func (f *FakeGitHub) setQuotaHeaders(w http.ResponseWriter) {
	f.mu.Lock()
	if time.Now().After(f.resetAt) {
		f.remaining = f.limit
		f.resetAt = time.Now().Add(time.Hour)
	}
	if f.remaining > 0 {
		f.remaining--
	}
	limit, remaining, reset := f.limit, f.remaining, f.resetAt
	f.mu.Unlock()

	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
}

// roleFlags maps a role name to the permission flags GitHub sends
// alongside it.
func roleFlags(role string) map[string]bool {
	flags := map[string]bool{"pull": true}
	switch role {
	case "admin":
		flags["admin"] = true
		flags["maintain"] = true
		flags["push"] = true
		flags["triage"] = true
	case "maintain":
		flags["maintain"] = true
		flags["push"] = true
		flags["triage"] = true
	case "write":
		flags["push"] = true
		flags["triage"] = true
	case "triage":
		flags["triage"] = true
	}
	return flags
}
