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

package integration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/orgmaphq/orgmap/test/testutil"
)

// TestReportPausesWhenQuotaLow checks the proactive pause: once the
// remaining quota drops under the safety margin, the run waits for the
// reset instead of burning the last requests.
func TestReportPausesWhenQuotaLow(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run.")
	}

	gh := testutil.NewFakeGitHub(t)
	// 5 remaining is under the default safety margin of 10. The window
	// resets two seconds out, so the run pauses briefly and then finishes.
	gh.SetQuota(5000, 5, 2*time.Second)

	testDir := testutil.CreateTempDir(t, "ratelimit-test")
	outputFile := filepath.Join(testDir, "report.csv")

	start := time.Now()
	result := testutil.RunWithFakeGitHub(t, gh, "acme", "--output", outputFile)
	elapsed := time.Since(start)

	testutil.AssertCLISuccess(t, result)
	testutil.AssertContainsString(t, result.Stderr, "Rate limit low")
	testutil.AssertContainsString(t, result.Stderr, "Paused 1 time(s) for rate limiting")
	testutil.AssertCSVReport(t, outputFile, [][]string{
		{"acme", "widgets", "alice", "", "Write"},
		{"acme", "widgets", "bob", "bob@x.com", "Admin"},
	})

	if elapsed < 2*time.Second {
		t.Errorf("Run finished in %s, expected it to wait for the reset", elapsed)
	}
}

// TestReportHonorsRetryAfter checks the reactive path: a 429 response
// holds the request back for Retry-After and then goes through.
func TestReportHonorsRetryAfter(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run.")
	}

	gh := testutil.NewFakeGitHub(t)
	gh.RateLimit429(1, 2*time.Second)

	testDir := testutil.CreateTempDir(t, "ratelimit-test")
	outputFile := filepath.Join(testDir, "report.csv")

	start := time.Now()
	result := testutil.RunWithFakeGitHub(t, gh, "acme", "--output", outputFile)
	elapsed := time.Since(start)

	testutil.AssertCLISuccess(t, result)
	testutil.AssertContainsString(t, result.Stderr, "Rate limit exhausted, waiting")
	testutil.AssertCSVReport(t, outputFile, [][]string{
		{"acme", "widgets", "alice", "", "Write"},
		{"acme", "widgets", "bob", "bob@x.com", "Admin"},
	})

	if elapsed < 2*time.Second {
		t.Errorf("Run finished in %s, expected it to honor Retry-After", elapsed)
	}
}

// TestReportFailsWhenWaitExceedsMax caps the tolerated pause below the
// server's demand, which must abort the run instead of hanging.
func TestReportFailsWhenWaitExceedsMax(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run.")
	}

	gh := testutil.NewFakeGitHub(t)
	gh.RateLimit429(1, 30*time.Second)

	testDir := testutil.CreateTempDir(t, "ratelimit-test")
	outputFile := filepath.Join(testDir, "report.csv")

	result := testutil.RunCLI(t, []string{"report", "acme", "--output", outputFile}, map[string]string{
		"GITHUB_TOKEN":        "test-token",
		"GITHUB_API_ENDPOINT": gh.URL,
		"ORGMAP_MAX_WAIT":     "1s",
	})

	testutil.AssertCLIError(t, result, "rate limit wait time exceeds maximum")
	testutil.AssertExitCode(t, result, 2)
	testutil.AssertFileNotExists(t, outputFile)
}
