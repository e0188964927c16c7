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

// Package stats collects statistics during a report run. It records API
// call counts, the number of organizations, repositories, and collaborator
// rows processed, anything skipped due to missing permissions, and time
// spent waiting on rate limits.
//
// The collected numbers serve two purposes:
//   - A run summary printed after the report completes
//   - Troubleshooting slow runs by showing where the API calls went
//
// All methods are safe to call concurrently; the tracker is shared between
// the report generator and the HTTP transport's request hook.
package stats

import (
	"sync"
	"time"
)

// Tracker accumulates counters over the lifetime of a single report run.
// Create one with New at the start of the run and call its methods as work
// progresses; Summary produces a snapshot at any point.
type Tracker struct {
	mu sync.Mutex

	startTime    time.Time
	apiCallCount int

	organizations int
	repositories  int
	rows          int

	emailLookups int
	emailsFound  int

	skippedOrgs  []string
	skippedRepos []string

	rateLimitWaits int
	waitedFor      time.Duration
}

// Summary is a point-in-time snapshot of a report run's statistics.
type Summary struct {
	Organizations int      // Organizations fully processed
	Repositories  int      // Repositories fully processed
	Rows          int      // Collaborator rows written
	SkippedOrgs   []string // Organization logins skipped due to access errors
	SkippedRepos  []string // Repository full names skipped due to access errors

	EmailLookups int // Profile lookups attempted for email resolution
	EmailsFound  int // Lookups that produced a non-empty email

	APICalls       int           // HTTP requests issued, including retries
	RateLimitWaits int           // Times the run paused for rate limiting
	WaitedFor      time.Duration // Total time spent in rate limit pauses

	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
}

// New creates a tracker initialized with the current time. Call this at the
// beginning of a report run.
func New() *Tracker {
	return &Tracker{
		startTime: time.Now(),
	}
}

// IncrementAPICall records that an HTTP request was issued. Wired into the
// transport's request hook, so retried requests count individually.
func (t *Tracker) IncrementAPICall() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.apiCallCount++
}

// OrganizationProcessed records that an organization's repositories were
// fully enumerated.
func (t *Tracker) OrganizationProcessed() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.organizations++
}

// RepositoryProcessed records that a repository's collaborators were fully
// enumerated.
func (t *Tracker) RepositoryProcessed() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.repositories++
}

// RowWritten records one collaborator row emitted to the report.
func (t *Tracker) RowWritten() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows++
}

// EmailLookup records an attempt to resolve a collaborator's email address.
// found reports whether the lookup produced a non-empty email.
func (t *Tracker) EmailLookup(found bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.emailLookups++
	if found {
		t.emailsFound++
	}
}

// SkipOrganization records an organization that was skipped because its
// repositories could not be listed.
func (t *Tracker) SkipOrganization(login string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.skippedOrgs = append(t.skippedOrgs, login)
}

// SkipRepository records a repository that was skipped because its
// collaborators could not be listed. fullName is "org/repo".
func (t *Tracker) SkipRepository(fullName string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.skippedRepos = append(t.skippedRepos, fullName)
}

// RecordWait records a pause taken to respect GitHub's rate limit. Wired
// into the rate limit guard and waiter observers.
func (t *Tracker) RecordWait(wait time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rateLimitWaits++
	t.waitedFor += wait
}

// Summary returns a snapshot of the current statistics. The skipped slices
// are copies; callers may retain them after the run continues.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	completedAt := time.Now()

	return Summary{
		Organizations:  t.organizations,
		Repositories:   t.repositories,
		Rows:           t.rows,
		SkippedOrgs:    append([]string(nil), t.skippedOrgs...),
		SkippedRepos:   append([]string(nil), t.skippedRepos...),
		EmailLookups:   t.emailLookups,
		EmailsFound:    t.emailsFound,
		APICalls:       t.apiCallCount,
		RateLimitWaits: t.rateLimitWaits,
		WaitedFor:      t.waitedFor,
		StartedAt:      t.startTime,
		CompletedAt:    completedAt,
		Duration:       completedAt.Sub(t.startTime),
	}
}
