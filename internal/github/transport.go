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
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	orgmaperrors "github.com/orgmaphq/orgmap/internal/errors"
	"github.com/orgmaphq/orgmap/internal/giterror"
	"github.com/orgmaphq/orgmap/internal/ratelimit"
	"github.com/orgmaphq/orgmap/pkg/version"
)

const (
	// apiVersion is sent on every request per GitHub's versioning policy.
	apiVersion = "2022-11-28"

	// maxResponseBytes caps how much of a response body will be read (10MB).
	maxResponseBytes = 10 * 1024 * 1024

	// transportMaxRetries bounds per-request retries of transient failures.
	transportMaxRetries = 5
)

// TransportConfig wires the rate limit machinery and instrumentation into
// the HTTP transport chain shared by the REST and GraphQL clients.
type TransportConfig struct {
	// Tracker records quota headers from every response.
	Tracker *ratelimit.Tracker

	// Guard suspends traffic before the quota runs out. Nil disables the
	// proactive pause.
	Guard *ratelimit.Guard

	// Waiter holds a request back after the server reports exhaustion.
	// Nil turns exhaustion into an immediate error.
	Waiter *ratelimit.Waiter

	// RequestsPerSecond adds a client-side token bucket ahead of every
	// request. Zero disables pacing.
	RequestsPerSecond float64

	// MaxRetries bounds transient-failure retries inside the transport.
	// Zero uses the default of five attempts.
	MaxRetries int

	// RetryBackoff is the initial backoff between transient-failure
	// retries. Zero uses the default of one second.
	RetryBackoff time.Duration

	// OnRequest is invoked for every request that goes out on the wire,
	// including retries.
	OnRequest func()
}

// DefaultTransportConfig returns a TransportConfig with a fresh tracker and
// the stock guard and waiter thresholds.
func DefaultTransportConfig() TransportConfig {
	tracker := ratelimit.NewTracker()
	return TransportConfig{
		Tracker: tracker,
		Guard:   ratelimit.NewGuard(tracker, ratelimit.DefaultSafetyMargin, ratelimit.DefaultMaxWait),
		Waiter:  ratelimit.NewWaiter(ratelimit.DefaultMaxWait),
	}
}

// newTransport assembles the RoundTripper chain: the rate limit layer on
// the outside, per-attempt retry below it, then the pacer, then
// authentication over a pooled base transport. Ordering matters: the guard
// must see the final response of each logical request, while retried
// attempts must each carry auth headers and count against the pacer.
func newTransport(token string, cfg TransportConfig) http.RoundTripper {
	base := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     10,
		IdleConnTimeout:     90 * time.Second,
		DisableCompression:  false,
		ForceAttemptHTTP2:   true,
	}

	var rt http.RoundTripper = &authTransport{
		token:     token,
		base:      base,
		onRequest: cfg.OnRequest,
	}

	if cfg.RequestsPerSecond > 0 {
		rt = &pacerTransport{
			base:    rt,
			limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		}
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = transportMaxRetries
	}
	initialBackoff := cfg.RetryBackoff
	if initialBackoff <= 0 {
		initialBackoff = time.Second
	}
	rt = &retryTransport{
		base:           rt,
		maxRetries:     maxRetries,
		initialBackoff: initialBackoff,
		inspector:      giterror.NewInspector(),
	}

	return &rateLimitTransport{
		base:    rt,
		tracker: cfg.Tracker,
		guard:   cfg.Guard,
		waiter:  cfg.Waiter,
	}
}

// rateLimitTransport pauses traffic around the API quota. Before each
// request it lets the guard sleep through a nearly spent window; after each
// response it records the quota headers and, when the server reports
// exhaustion anyway, waits and reissues the same request.
type rateLimitTransport struct {
	base    http.RoundTripper
	tracker *ratelimit.Tracker
	guard   *ratelimit.Guard
	waiter  *ratelimit.Waiter
}

// RoundTrip implements http.RoundTripper with rate limit handling.
func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.guard != nil {
		if err := t.guard.Wait(req.Context()); err != nil {
			return nil, err
		}
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if t.tracker != nil {
		t.tracker.Update(resp)
	}

	if ratelimit.IsExhausted(resp) {
		info, _ := ratelimit.FromResponse(resp)
		resp.Body.Close()

		if t.waiter == nil {
			return nil, fmt.Errorf("rate limit exhausted, resets at %s: %w",
				info.Reset.Format("3:04 PM"), orgmaperrors.ErrRateLimit)
		}
		if err := t.waiter.Wait(req.Context(), info); err != nil {
			return nil, err
		}

		retryReq, err := rewindRequest(req)
		if err != nil {
			return nil, err
		}
		return t.RoundTrip(retryReq)
	}

	return resp, nil
}

// retryTransport adds exponential backoff retry logic for transient failures.
type retryTransport struct {
	base           http.RoundTripper
	maxRetries     int
	initialBackoff time.Duration
	inspector      giterror.Inspector
}

// RoundTrip implements http.RoundTripper with retry logic.
func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var lastErr error
	backoff := t.initialBackoff

	for attempt := 0; attempt < t.maxRetries; attempt++ {
		clonedReq, err := rewindRequest(req)
		if err != nil {
			return nil, err
		}

		resp, err := t.base.RoundTrip(clonedReq)

		if err == nil && !isRetryableStatusCode(resp.StatusCode) {
			return resp, nil
		}

		if err != nil {
			if !giterror.IsRetryable(t.inspector, err) {
				return nil, err
			}
			lastErr = giterror.WithRetryInfo(err, attempt+1, t.maxRetries)
		} else {
			lastErr = giterror.WithRetryInfo(
				fmt.Errorf("received status %d", resp.StatusCode),
				attempt+1, t.maxRetries)
			resp.Body.Close()
		}

		if attempt < t.maxRetries-1 {
			select {
			case <-time.After(backoff):
				backoff *= 2
				if backoff > 30*time.Second {
					backoff = 30 * time.Second
				}
			case <-req.Context().Done():
				return nil, req.Context().Err()
			}
		}
	}

	return nil, giterror.WithUserAction(
		fmt.Errorf("request failed after %d attempts (%v): %w", t.maxRetries, lastErr, orgmaperrors.ErrNetworkFailure),
		"Network connection failed. Please check your internet connection and try again")
}

// isRetryableStatusCode checks if an HTTP status code should trigger a retry.
func isRetryableStatusCode(code int) bool {
	switch code {
	case http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// pacerTransport spaces requests out with a token bucket so long runs stay
// comfortably inside secondary rate limits.
type pacerTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

// RoundTrip implements http.RoundTripper with client-side pacing.
func (t *pacerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}

// authTransport adds authentication headers and safety limits to HTTP requests.
type authTransport struct {
	token     string
	base      http.RoundTripper
	onRequest func()
}

// RoundTrip implements http.RoundTripper.
func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original
	req = req.Clone(req.Context())

	req.Header.Set("Authorization", "Bearer "+t.token)
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/vnd.github+json")
	}

	if t.onRequest != nil {
		t.onRequest()
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	// Apply response size limit
	if resp.Body != nil {
		resp.Body = &limitedReader{
			ReadCloser: resp.Body,
			limit:      maxResponseBytes,
		}
	}

	return resp, nil
}

// rewindRequest clones req for reissue. Requests with a body are only
// replayable when GetBody is set, which http.NewRequest arranges for the
// buffer types the GraphQL client uses.
func rewindRequest(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.Body == nil {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("cannot replay request with one-shot body")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("rewinding request body: %w", err)
	}
	clone.Body = body
	return clone, nil
}

// limitedReader wraps a ReadCloser with a size limit to prevent excessive memory usage.
type limitedReader struct {
	io.ReadCloser
	limit int64
	read  int64
}

// Read implements io.Reader with size limit enforcement.
func (lr *limitedReader) Read(p []byte) (n int, err error) {
	if lr.read >= lr.limit {
		return 0, fmt.Errorf("response size exceeded limit of %d bytes", lr.limit)
	}

	remaining := lr.limit - lr.read
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}

	n, err = lr.ReadCloser.Read(p)
	lr.read += int64(n)

	return n, err
}
