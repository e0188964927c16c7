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
	"fmt"
	"time"

	orgmaperrors "github.com/orgmaphq/orgmap/internal/errors"
)

const (
	// DefaultSafetyMargin is the remaining-request threshold at which
	// traffic pauses until the window resets.
	DefaultSafetyMargin = 10

	// DefaultMaxWait caps how long a single rate limit pause may last.
	DefaultMaxWait = time.Hour
)

// WaitObserver is notified right before request traffic is suspended. It
// lets the CLI surface the pause without this package printing anything.
type WaitObserver func(info Info, wait time.Duration)

// Guard suspends request traffic before the quota runs out. Once the
// tracked remaining count falls to the safety margin, Wait sleeps until
// the reset time so that in-order processing can resume with a fresh
// window.
type Guard struct {
	tracker  *Tracker
	margin   int
	maxWait  time.Duration
	observer WaitObserver
	now      func() time.Time
}

// NewGuard creates a Guard around tracker. margin is the remaining-request
// threshold at which traffic pauses. maxWait caps how long a single pause
// may last; zero means no cap.
func NewGuard(tracker *Tracker, margin int, maxWait time.Duration) *Guard {
	return &Guard{
		tracker: tracker,
		margin:  margin,
		maxWait: maxWait,
		now:     time.Now,
	}
}

// SetObserver registers a callback invoked before each pause.
func (g *Guard) SetObserver(observer WaitObserver) {
	g.observer = observer
}

// Wait blocks until enough quota is available to issue another request.
// It returns immediately when no snapshot has been recorded yet or the
// remaining count is above the margin. It returns an error when the
// required pause exceeds the configured maximum or ctx is canceled.
func (g *Guard) Wait(ctx context.Context) error {
	info, ok := g.tracker.Snapshot()
	if !ok || info.Remaining > g.margin {
		return nil
	}

	wait := info.Reset.Sub(g.now()) + resetSkew
	if wait <= 0 {
		// The window already reset; the next response will refresh the
		// snapshot.
		return nil
	}

	if g.maxWait > 0 && wait > g.maxWait {
		return fmt.Errorf("rate limit wait time exceeds maximum: need %s, limit is %s: %w",
			wait.Round(time.Second), g.maxWait, orgmaperrors.ErrRateLimit)
	}

	if g.observer != nil {
		g.observer(info, wait)
	}

	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Waiter holds a single request back after the server reports the quota
// spent. Unlike Guard it acts on the response that was just received, so
// it honors Retry-After when present and falls back to the reset time.
type Waiter struct {
	maxWait  time.Duration
	observer WaitObserver
	now      func() time.Time
}

// NewWaiter creates a Waiter. maxWait caps the pause; zero means no cap.
func NewWaiter(maxWait time.Duration) *Waiter {
	return &Waiter{
		maxWait: maxWait,
		now:     time.Now,
	}
}

// SetObserver registers a callback invoked before each pause.
func (w *Waiter) SetObserver(observer WaitObserver) {
	w.observer = observer
}

// Wait sleeps until the server is ready to accept the request again.
func (w *Waiter) Wait(ctx context.Context, info Info) error {
	wait := info.RetryAfter
	if wait == 0 {
		wait = info.Reset.Sub(w.now()) + resetSkew
	}
	if wait <= 0 {
		wait = resetSkew
	}

	if w.maxWait > 0 && wait > w.maxWait {
		return fmt.Errorf("rate limit wait time exceeds maximum: need %s, limit is %s: %w",
			wait.Round(time.Second), w.maxWait, orgmaperrors.ErrRateLimit)
	}

	if w.observer != nil {
		w.observer(info, wait)
	}

	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
