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
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	orgmaperrors "github.com/orgmaphq/orgmap/internal/errors"
)

// makeResponse builds a minimal response carrying rate limit headers.
func makeResponse(status, limit, remaining int, reset time.Time, retryAfter string) *http.Response {
	resp := &http.Response{
		StatusCode: status,
		Header:     make(http.Header),
	}
	if limit >= 0 {
		resp.Header.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	}
	if remaining >= 0 {
		resp.Header.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		resp.Header.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
	}
	if retryAfter != "" {
		resp.Header.Set("Retry-After", retryAfter)
	}
	return resp
}

func TestFromResponse(t *testing.T) {
	reset := time.Now().Add(30 * time.Minute).Truncate(time.Second)

	tests := []struct {
		name          string
		resp          *http.Response
		wantOK        bool
		wantRemaining int
		wantLimit     int
		wantRetry     time.Duration
	}{
		{
			name:          "full headers",
			resp:          makeResponse(200, 5000, 4999, reset, ""),
			wantOK:        true,
			wantRemaining: 4999,
			wantLimit:     5000,
		},
		{
			name:   "no rate limit headers",
			resp:   makeResponse(200, -1, -1, time.Time{}, ""),
			wantOK: false,
		},
		{
			name:          "retry after seconds",
			resp:          makeResponse(429, 5000, 0, reset, "120"),
			wantOK:        true,
			wantRemaining: 0,
			wantLimit:     5000,
			wantRetry:     2 * time.Minute,
		},
		{
			name: "retry after without rate headers",
			// Secondary limit responses can carry Retry-After alone
			resp:      makeResponse(429, -1, -1, time.Time{}, "30"),
			wantOK:    false,
			wantRetry: 30 * time.Second,
		},
		{
			name:   "nil response",
			resp:   nil,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, ok := FromResponse(tt.resp)
			if ok != tt.wantOK {
				t.Fatalf("FromResponse() ok = %v, want %v", ok, tt.wantOK)
			}
			if info.RetryAfter != tt.wantRetry {
				t.Errorf("RetryAfter = %v, want %v", info.RetryAfter, tt.wantRetry)
			}
			if !ok {
				return
			}
			if info.Remaining != tt.wantRemaining {
				t.Errorf("Remaining = %d, want %d", info.Remaining, tt.wantRemaining)
			}
			if info.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", info.Limit, tt.wantLimit)
			}
			if !info.Reset.Equal(reset) {
				t.Errorf("Reset = %v, want %v", info.Reset, reset)
			}
		})
	}
}

func TestIsExhausted(t *testing.T) {
	reset := time.Now().Add(time.Hour)

	tests := []struct {
		name string
		resp *http.Response
		want bool
	}{
		{
			name: "429 is always exhausted",
			resp: makeResponse(http.StatusTooManyRequests, -1, -1, time.Time{}, ""),
			want: true,
		},
		{
			name: "403 with zero remaining",
			resp: makeResponse(http.StatusForbidden, 5000, 0, reset, ""),
			want: true,
		},
		{
			name: "403 with quota left is authorization",
			resp: makeResponse(http.StatusForbidden, 5000, 4200, reset, ""),
			want: false,
		},
		{
			name: "403 without headers is authorization",
			resp: makeResponse(http.StatusForbidden, -1, -1, time.Time{}, ""),
			want: false,
		},
		{
			name: "success",
			resp: makeResponse(http.StatusOK, 5000, 4999, reset, ""),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsExhausted(tt.resp); got != tt.want {
				t.Errorf("IsExhausted() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTracker(t *testing.T) {
	tracker := NewTracker()

	if _, ok := tracker.Snapshot(); ok {
		t.Fatal("Snapshot() ok = true before any update")
	}

	reset := time.Now().Add(10 * time.Minute).Truncate(time.Second)
	tracker.Update(makeResponse(200, 5000, 123, reset, ""))

	info, ok := tracker.Snapshot()
	if !ok {
		t.Fatal("Snapshot() ok = false after update")
	}
	if info.Remaining != 123 {
		t.Errorf("Remaining = %d, want 123", info.Remaining)
	}

	// Responses without headers must not clobber the snapshot.
	tracker.Update(makeResponse(200, -1, -1, time.Time{}, ""))
	info, ok = tracker.Snapshot()
	if !ok || info.Remaining != 123 {
		t.Errorf("Snapshot after headerless update = (%+v, %v), want remaining 123", info, ok)
	}
}

func TestGuardWait_AboveMargin(t *testing.T) {
	tracker := NewTracker()
	tracker.Update(makeResponse(200, 5000, 100, time.Now().Add(time.Hour), ""))

	guard := NewGuard(tracker, 10, time.Hour)

	start := time.Now()
	if err := guard.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Wait() blocked for %v with quota available", elapsed)
	}
}

func TestGuardWait_NoSnapshot(t *testing.T) {
	guard := NewGuard(NewTracker(), 10, time.Hour)
	if err := guard.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
}

func TestGuardWait_SleepsUntilReset(t *testing.T) {
	tracker := NewTracker()
	// Reset 800ms in the past: with the skew allowance the guard should
	// pause for roughly 200ms.
	tracker.Update(makeResponse(200, 5000, 10, time.Now().Add(-800*time.Millisecond), ""))

	guard := NewGuard(tracker, 10, time.Hour)

	start := time.Now()
	if err := guard.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	elapsed := time.Since(start)
	if elapsed < 100*time.Millisecond {
		t.Errorf("Wait() returned after %v, expected a pause until reset", elapsed)
	}
	if elapsed > 2*time.Second {
		t.Errorf("Wait() took %v, expected roughly 200ms", elapsed)
	}
}

func TestGuardWait_ResetInThePast(t *testing.T) {
	tracker := NewTracker()
	tracker.Update(makeResponse(200, 5000, 0, time.Now().Add(-time.Minute), ""))

	guard := NewGuard(tracker, 10, time.Hour)

	start := time.Now()
	if err := guard.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Wait() blocked for %v although the window already reset", elapsed)
	}
}

func TestGuardWait_ExceedsMaximum(t *testing.T) {
	tracker := NewTracker()
	tracker.Update(makeResponse(200, 5000, 3, time.Now().Add(time.Hour), ""))

	guard := NewGuard(tracker, 10, 5*time.Minute)

	err := guard.Wait(context.Background())
	if err == nil {
		t.Fatal("Wait() error = nil, want exceeds-maximum error")
	}
	if !errors.Is(err, orgmaperrors.ErrRateLimit) {
		t.Errorf("Wait() error = %v, want ErrRateLimit in chain", err)
	}
	if !strings.Contains(err.Error(), "rate limit wait time exceeds maximum") {
		t.Errorf("Wait() error = %q, want exceeds-maximum message", err)
	}
}

func TestGuardWait_ContextCanceled(t *testing.T) {
	tracker := NewTracker()
	tracker.Update(makeResponse(200, 5000, 0, time.Now().Add(30*time.Second), ""))

	guard := NewGuard(tracker, 10, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := guard.Wait(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Wait() error = %v, want context.Canceled", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Wait() took %v to observe cancellation", elapsed)
	}
}

func TestGuardWait_Observer(t *testing.T) {
	tracker := NewTracker()
	tracker.Update(makeResponse(200, 5000, 2, time.Now().Add(-900*time.Millisecond), ""))

	guard := NewGuard(tracker, 10, time.Hour)

	var observed []string
	guard.SetObserver(func(info Info, wait time.Duration) {
		observed = append(observed, fmt.Sprintf("remaining=%d wait>0=%v", info.Remaining, wait > 0))
	})

	if err := guard.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if len(observed) != 1 {
		t.Fatalf("observer called %d times, want 1", len(observed))
	}
	if observed[0] != "remaining=2 wait>0=true" {
		t.Errorf("observer saw %q", observed[0])
	}
}

func TestWaiterWait_RetryAfter(t *testing.T) {
	waiter := NewWaiter(time.Hour)

	info := Info{RetryAfter: 200 * time.Millisecond}

	start := time.Now()
	if err := waiter.Wait(context.Background(), info); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	elapsed := time.Since(start)
	if elapsed < 150*time.Millisecond {
		t.Errorf("Wait() returned after %v, expected Retry-After honored", elapsed)
	}
}

func TestWaiterWait_ExceedsMaximum(t *testing.T) {
	waiter := NewWaiter(time.Minute)

	err := waiter.Wait(context.Background(), Info{RetryAfter: time.Hour})
	if err == nil {
		t.Fatal("Wait() error = nil, want exceeds-maximum error")
	}
	if !errors.Is(err, orgmaperrors.ErrRateLimit) {
		t.Errorf("Wait() error = %v, want ErrRateLimit in chain", err)
	}
}

func TestWaiterWait_ContextCanceled(t *testing.T) {
	waiter := NewWaiter(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := waiter.Wait(ctx, Info{RetryAfter: 30 * time.Second})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Wait() error = %v, want context.Canceled", err)
	}
}
