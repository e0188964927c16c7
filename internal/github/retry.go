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
	"fmt"
	"math"
	"os"
	"time"

	orgmaperrors "github.com/orgmaphq/orgmap/internal/errors"
	"github.com/orgmaphq/orgmap/internal/giterror"
)

// RetryConfig configures the retry behavior for API calls
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts
	MaxRetries int
	// InitialBackoff is the initial backoff duration
	InitialBackoff time.Duration
	// MaxBackoff is the maximum backoff duration
	MaxBackoff time.Duration
	// BackoffMultiplier is the multiplier for exponential backoff
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// RetryClient wraps a GitHub client with automatic retry logic for
// transient network errors using exponential backoff. It sits above the
// transport-level retry and catches failures that surface after the
// response started, such as a connection dropped mid-body.
type RetryClient struct {
	client    Client
	config    *RetryConfig
	inspector giterror.Inspector
}

// NewRetryClient creates a new RetryClient with the given configuration
func NewRetryClient(client Client, config *RetryConfig) Client {
	if config == nil {
		config = DefaultRetryConfig()
	}
	return &RetryClient{
		client:    client,
		config:    config,
		inspector: giterror.NewInspector(),
	}
}

// CurrentUser implements the Client interface with retry logic
func (r *RetryClient) CurrentUser(ctx context.Context) (*User, error) {
	var user *User
	err := r.retry(ctx, func() error {
		var err error
		user, err = r.client.CurrentUser(ctx)
		return err
	})
	return user, err
}

// ListOrganizations implements the Client interface with retry logic
func (r *RetryClient) ListOrganizations(ctx context.Context, opts ListOptions) (*OrganizationPage, error) {
	var page *OrganizationPage
	err := r.retry(ctx, func() error {
		var err error
		page, err = r.client.ListOrganizations(ctx, opts)
		return err
	})
	return page, err
}

// ListOrgRepositories implements the Client interface with retry logic
func (r *RetryClient) ListOrgRepositories(ctx context.Context, org string, opts ListOptions) (*RepositoryPage, error) {
	var page *RepositoryPage
	err := r.retry(ctx, func() error {
		var err error
		page, err = r.client.ListOrgRepositories(ctx, org, opts)
		return err
	})
	return page, err
}

// ListCollaborators implements the Client interface with retry logic
func (r *RetryClient) ListCollaborators(ctx context.Context, org, repo string, opts ListOptions) (*CollaboratorPage, error) {
	var page *CollaboratorPage
	err := r.retry(ctx, func() error {
		var err error
		page, err = r.client.ListCollaborators(ctx, org, repo, opts)
		return err
	})
	return page, err
}

// GetUser implements the Client interface with retry logic
func (r *RetryClient) GetUser(ctx context.Context, login string) (*User, error) {
	var user *User
	err := r.retry(ctx, func() error {
		var err error
		user, err = r.client.GetUser(ctx, login)
		return err
	})
	return user, err
}

// ListPublicEvents implements the Client interface with retry logic
func (r *RetryClient) ListPublicEvents(ctx context.Context, login string) ([]Event, error) {
	var events []Event
	err := r.retry(ctx, func() error {
		var err error
		events, err = r.client.ListPublicEvents(ctx, login)
		return err
	})
	return events, err
}

// retry runs op until it succeeds, fails with a non-retryable error, or
// the attempts are exhausted.
func (r *RetryClient) retry(ctx context.Context, op func() error) error {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		err := op()
		if err == nil {
			return nil
		}

		lastErr = err

		if !r.shouldRetry(err) {
			return err
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		backoff := r.calculateBackoff(attempt)
		fmt.Fprintf(os.Stderr, "\n⚠️  Network error. Retrying in %v (attempt %d/%d)...\n",
			backoff.Round(time.Millisecond), attempt+1, r.config.MaxRetries)

		select {
		case <-time.After(backoff):
			// Continue to next retry
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("failed after %d retries: %w", r.config.MaxRetries, lastErr)
}

// shouldRetry determines if an error is retryable. Rate limit errors are
// not: the transport already waited them out, so one surfacing here means
// the allowed wait was already exceeded.
func (r *RetryClient) shouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, orgmaperrors.ErrRateLimit) ||
		errors.Is(err, orgmaperrors.ErrInvalidToken) ||
		errors.Is(err, orgmaperrors.ErrForbidden) ||
		errors.Is(err, orgmaperrors.ErrNotFound) {
		return false
	}
	return r.inspector.IsNetworkError(err)
}

// calculateBackoff calculates the backoff duration for the given attempt
func (r *RetryClient) calculateBackoff(attempt int) time.Duration {
	backoff := float64(r.config.InitialBackoff) * math.Pow(r.config.BackoffMultiplier, float64(attempt))

	if backoff > float64(r.config.MaxBackoff) {
		backoff = float64(r.config.MaxBackoff)
	}

	// Add jitter (±10%) to prevent thundering herd
	jitter := backoff * 0.1 * (2*float64(time.Now().UnixNano()%100)/100 - 1)
	backoff += jitter

	return time.Duration(backoff)
}
