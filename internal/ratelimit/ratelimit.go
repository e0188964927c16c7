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

package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// resetSkew pads every wait to absorb clock skew between this machine and
// the API servers.
const resetSkew = time.Second

// Info is a snapshot of the primary rate limit state reported by a response.
type Info struct {
	// Limit is the total request quota for the current window.
	Limit int

	// Remaining is the number of requests left in the current window.
	Remaining int

	// Reset is when the current window ends and the quota refills.
	Reset time.Time

	// RetryAfter is the server-requested delay from a Retry-After header,
	// zero when the header is absent.
	RetryAfter time.Duration
}

// FromResponse extracts rate limit information from the X-RateLimit-* and
// Retry-After headers. ok is false when the response carries no
// X-RateLimit-Remaining header, which is how non-GitHub proxies and error
// pages look. Retry-After is parsed regardless: secondary limit responses
// can carry it without any X-RateLimit headers.
func FromResponse(resp *http.Response) (Info, bool) {
	if resp == nil {
		return Info{}, false
	}

	var info Info
	if retryHdr := resp.Header.Get("Retry-After"); retryHdr != "" {
		if seconds, err := strconv.Atoi(retryHdr); err == nil && seconds > 0 {
			info.RetryAfter = time.Duration(seconds) * time.Second
		}
	}

	remainingHdr := resp.Header.Get("X-RateLimit-Remaining")
	if remainingHdr == "" {
		return info, false
	}

	info.Remaining, _ = strconv.Atoi(remainingHdr)
	info.Limit, _ = strconv.Atoi(resp.Header.Get("X-RateLimit-Limit"))

	if resetHdr := resp.Header.Get("X-RateLimit-Reset"); resetHdr != "" {
		if epoch, err := strconv.ParseInt(resetHdr, 10, 64); err == nil {
			info.Reset = time.Unix(epoch, 0)
		}
	}

	return info, true
}

// IsExhausted reports whether resp indicates the quota is spent: a 429, or
// a 403 whose headers show zero remaining requests. A plain 403 without
// rate limit headers is an authorization failure, not exhaustion.
func IsExhausted(resp *http.Response) bool {
	if resp == nil {
		return false
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return true
	}
	if resp.StatusCode == http.StatusForbidden {
		if info, ok := FromResponse(resp); ok && info.Remaining == 0 {
			return true
		}
	}
	return false
}

// Tracker keeps the most recent rate limit snapshot seen on any response.
// It is safe for concurrent use.
type Tracker struct {
	mu   sync.Mutex
	info Info
	seen bool
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Update records the rate limit headers from resp, if any.
func (t *Tracker) Update(resp *http.Response) {
	info, ok := FromResponse(resp)
	if !ok {
		return
	}

	t.mu.Lock()
	t.info = info
	t.seen = true
	t.mu.Unlock()
}

// Snapshot returns the latest recorded state. ok is false until the first
// response with rate limit headers has been observed.
func (t *Tracker) Snapshot() (Info, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.info, t.seen
}
