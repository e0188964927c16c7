package giterror

import (
	"errors"
	"fmt"
	"testing"
)

func TestGitHubErrorInspector_IsAuthError(t *testing.T) {
	inspector := NewInspector()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "401 unauthorized",
			err:  errors.New("401 Unauthorized"),
			want: true,
		},
		{
			name: "bad credentials",
			err:  errors.New("Bad credentials"),
			want: true,
		},
		{
			name: "requires authentication",
			err:  errors.New("Requires authentication"),
			want: true,
		},
		{
			name: "wrapped auth error",
			err:  fmt.Errorf("failed to query: %w", errors.New("401 Unauthorized")),
			want: true,
		},
		{
			name: "403 is forbidden, not auth",
			err:  errors.New("403 Forbidden"),
			want: false,
		},
		{
			name: "not an auth error",
			err:  errors.New("something went wrong"),
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inspector.IsAuthError(tt.err); got != tt.want {
				t.Errorf("IsAuthError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGitHubErrorInspector_IsForbiddenError(t *testing.T) {
	inspector := NewInspector()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "403 forbidden",
			err:  errors.New("403 Forbidden"),
			want: true,
		},
		{
			name: "must have admin rights",
			err:  errors.New("Must have admin rights to Repository"),
			want: true,
		},
		{
			name: "resource not accessible",
			err:  errors.New("Resource not accessible by personal access token"),
			want: true,
		},
		{
			name: "missing scopes",
			err:  errors.New("Your token has not been granted the required scopes to execute this query"),
			want: true,
		},
		{
			name: "wrapped forbidden error",
			err:  fmt.Errorf("listing collaborators: %w", errors.New("403 Forbidden")),
			want: true,
		},
		{
			name: "401 is auth, not forbidden",
			err:  errors.New("401 Unauthorized"),
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inspector.IsForbiddenError(tt.err); got != tt.want {
				t.Errorf("IsForbiddenError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGitHubErrorInspector_IsNotFoundError(t *testing.T) {
	inspector := NewInspector()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "404 not found",
			err:  errors.New("404 Not Found"),
			want: true,
		},
		{
			name: "resource not found",
			err:  errors.New("Resource not found"),
			want: true,
		},
		{
			name: "could not resolve organization",
			err:  errors.New("Could not resolve to an Organization with the login of 'acme'"),
			want: true,
		},
		{
			name: "could not resolve enterprise",
			err:  errors.New("Could not resolve to an Enterprise with the slug of 'megacorp'."),
			want: true,
		},
		{
			name: "wrapped not found error",
			err:  fmt.Errorf("failed to fetch: %w", errors.New("404 Not Found")),
			want: true,
		},
		{
			name: "not a not found error",
			err:  errors.New("internal server error"),
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inspector.IsNotFoundError(tt.err); got != tt.want {
				t.Errorf("IsNotFoundError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGitHubErrorInspector_IsRateLimitError(t *testing.T) {
	inspector := NewInspector()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "rate limit exceeded",
			err:  errors.New("API rate limit exceeded"),
			want: true,
		},
		{
			name: "429 too many requests",
			err:  errors.New("429 Too Many Requests"),
			want: true,
		},
		{
			name: "secondary rate limit",
			err:  errors.New("You have exceeded a secondary rate limit"),
			want: true,
		},
		{
			name: "wrapped rate limit error",
			err:  fmt.Errorf("github api error: %w", errors.New("API rate limit exceeded")),
			want: true,
		},
		{
			name: "not a rate limit error",
			err:  errors.New("invalid response"),
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inspector.IsRateLimitError(tt.err); got != tt.want {
				t.Errorf("IsRateLimitError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGitHubErrorInspector_IsNetworkError(t *testing.T) {
	inspector := NewInspector()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "connection refused",
			err:  errors.New("dial tcp 127.0.0.1:443: connection refused"),
			want: true,
		},
		{
			name: "no such host",
			err:  errors.New("dial tcp: lookup api.github.com: no such host"),
			want: true,
		},
		{
			name: "timeout",
			err:  errors.New("request timeout after 30s"),
			want: true,
		},
		{
			name: "temporary failure",
			err:  errors.New("temporary failure in name resolution"),
			want: true,
		},
		{
			name: "tls handshake error",
			err:  errors.New("tls handshake timeout"),
			want: true,
		},
		{
			name: "network unreachable",
			err:  errors.New("network is unreachable"),
			want: true,
		},
		{
			name: "unexpected eof",
			err:  errors.New("unexpected EOF"),
			want: true,
		},
		{
			name: "wrapped network error",
			err:  fmt.Errorf("failed to connect: %w", errors.New("connection refused")),
			want: true,
		},
		{
			name: "not a network error",
			err:  errors.New("invalid json response"),
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inspector.IsNetworkError(tt.err); got != tt.want {
				t.Errorf("IsNetworkError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	inspector := NewInspector()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "network error is retryable",
			err:  errors.New("connection refused"),
			want: true,
		},
		{
			name: "rate limit is retryable",
			err:  errors.New("429 Too Many Requests"),
			want: true,
		},
		{
			name: "auth error is not retryable",
			err:  errors.New("401 Unauthorized"),
			want: false,
		},
		{
			name: "forbidden is not retryable",
			err:  errors.New("403 Forbidden"),
			want: false,
		},
		{
			name: "not found is not retryable",
			err:  errors.New("404 Not Found"),
			want: false,
		},
		{
			name: "unclassified error is not retryable",
			err:  errors.New("invalid json"),
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(inspector, tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Custom error types for testing ErrorChainInspector
type authError struct{}

func (authError) Error() string     { return "custom auth error" }
func (authError) IsAuthError() bool { return true }

type forbiddenError struct{}

func (forbiddenError) Error() string          { return "custom forbidden error" }
func (forbiddenError) IsForbiddenError() bool { return true }

type rateLimitError struct{}

func (rateLimitError) Error() string          { return "custom rate limit error" }
func (rateLimitError) IsRateLimitError() bool { return true }

func TestErrorChainInspector(t *testing.T) {
	baseInspector := NewInspector()
	chainInspector := NewErrorChainInspector(baseInspector)

	tests := []struct {
		name   string
		err    error
		method string
		want   bool
	}{
		{
			name:   "custom auth error type",
			err:    authError{},
			method: "auth",
			want:   true,
		},
		{
			name:   "wrapped custom auth error",
			err:    fmt.Errorf("operation failed: %w", authError{}),
			method: "auth",
			want:   true,
		},
		{
			name:   "custom forbidden error type",
			err:    forbiddenError{},
			method: "forbidden",
			want:   true,
		},
		{
			name:   "custom rate limit error type",
			err:    rateLimitError{},
			method: "ratelimit",
			want:   true,
		},
		{
			name:   "falls back to string checking",
			err:    errors.New("401 Unauthorized"),
			method: "auth",
			want:   true,
		},
		{
			name:   "no match in chain or string",
			err:    errors.New("some other error"),
			method: "auth",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got bool
			switch tt.method {
			case "auth":
				got = chainInspector.IsAuthError(tt.err)
			case "forbidden":
				got = chainInspector.IsForbiddenError(tt.err)
			case "ratelimit":
				got = chainInspector.IsRateLimitError(tt.err)
			}
			if got != tt.want {
				t.Errorf("ErrorChainInspector.%s() = %v, want %v", tt.method, got, tt.want)
			}
		})
	}
}

func TestWithRetryInfo(t *testing.T) {
	base := errors.New("connection refused")
	wrapped := WithRetryInfo(base, 3, 5)

	if !errors.Is(wrapped, base) {
		t.Error("WithRetryInfo should preserve the error chain")
	}
	want := "connection refused (attempt 3 of 5)"
	if wrapped.Error() != want {
		t.Errorf("Error() = %q, want %q", wrapped.Error(), want)
	}
	if WithRetryInfo(nil, 1, 5) != nil {
		t.Error("WithRetryInfo(nil) should return nil")
	}
}

func TestWithUserAction(t *testing.T) {
	base := errors.New("network connection failed")
	wrapped := WithUserAction(base, "Check your internet connection and try again")

	if !errors.Is(wrapped, base) {
		t.Error("WithUserAction should preserve the error chain")
	}
	want := "network connection failed. Check your internet connection and try again"
	if wrapped.Error() != want {
		t.Errorf("Error() = %q, want %q", wrapped.Error(), want)
	}
	if WithUserAction(nil, "anything") != nil {
		t.Error("WithUserAction(nil) should return nil")
	}
}
