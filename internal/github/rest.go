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
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	orgmaperrors "github.com/orgmaphq/orgmap/internal/errors"
	"github.com/orgmaphq/orgmap/internal/giterror"
	"github.com/orgmaphq/orgmap/internal/ratelimit"
)

// RESTClient implements the Client interface against the GitHub REST API.
// List calls use page-number pagination: each response's RFC 5988 Link
// header names the next page, and its absence marks the final page.
type RESTClient struct {
	endpoint   string
	httpClient *http.Client
	inspector  giterror.Inspector
}

// Compile-time check that RESTClient satisfies the Client interface.
var _ Client = (*RESTClient)(nil)

// NewRESTClient creates a REST client with the default transport chain:
// quota tracking with the stock safety margin, transient-failure retry,
// and no client-side pacing.
func NewRESTClient(token, endpoint string) *RESTClient {
	return NewRESTClientWithConfig(token, endpoint, DefaultTransportConfig())
}

// NewRESTClientWithConfig creates a REST client over the given transport
// configuration. The client carries no overall timeout: rate limit pauses
// run inside the transport, and per-request cancellation comes from the
// caller's context.
func NewRESTClientWithConfig(token, endpoint string, cfg TransportConfig) *RESTClient {
	return &RESTClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{
			Transport: newTransport(token, cfg),
		},
		inspector: giterror.NewInspector(),
	}
}

// CurrentUser returns the authenticated user's profile. Because it is the
// first call the report command makes, a 401 here aborts the run before
// any output exists, and a success primes the quota tracker.
func (c *RESTClient) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if _, err := c.get(ctx, "/user", nil, &user); err != nil {
		return nil, fmt.Errorf("verifying token: %w", err)
	}
	return &user, nil
}

// ListOrganizations retrieves a page of organizations the token belongs to.
func (c *RESTClient) ListOrganizations(ctx context.Context, opts ListOptions) (*OrganizationPage, error) {
	var orgs []Organization
	resp, err := c.get(ctx, "/user/orgs", listQuery(opts), &orgs)
	if err != nil {
		return nil, fmt.Errorf("listing organizations: %w", err)
	}
	return &OrganizationPage{
		Organizations: orgs,
		NextPage:      nextPageFromLink(resp),
	}, nil
}

// ListOrgRepositories retrieves a page of repositories in org.
func (c *RESTClient) ListOrgRepositories(ctx context.Context, org string, opts ListOptions) (*RepositoryPage, error) {
	path := fmt.Sprintf("/orgs/%s/repos", url.PathEscape(org))

	var repos []Repository
	resp, err := c.get(ctx, path, listQuery(opts), &repos)
	if err != nil {
		return nil, fmt.Errorf("listing repositories for %s: %w", org, err)
	}
	return &RepositoryPage{
		Repositories: repos,
		NextPage:     nextPageFromLink(resp),
	}, nil
}

// ListCollaborators retrieves a page of collaborators on org/repo. The
// affiliation=all parameter includes outside collaborators alongside
// organization members.
func (c *RESTClient) ListCollaborators(ctx context.Context, org, repo string, opts ListOptions) (*CollaboratorPage, error) {
	path := fmt.Sprintf("/repos/%s/%s/collaborators", url.PathEscape(org), url.PathEscape(repo))

	query := listQuery(opts)
	query.Set("affiliation", "all")

	var collaborators []Collaborator
	resp, err := c.get(ctx, path, query, &collaborators)
	if err != nil {
		return nil, fmt.Errorf("listing collaborators for %s/%s: %w", org, repo, err)
	}
	return &CollaboratorPage{
		Collaborators: collaborators,
		NextPage:      nextPageFromLink(resp),
	}, nil
}

// GetUser retrieves the public profile for login.
func (c *RESTClient) GetUser(ctx context.Context, login string) (*User, error) {
	path := fmt.Sprintf("/users/%s", url.PathEscape(login))

	var user User
	if _, err := c.get(ctx, path, nil, &user); err != nil {
		return nil, fmt.Errorf("fetching profile for %s: %w", login, err)
	}
	return &user, nil
}

// ListPublicEvents retrieves the recent public activity for login. GitHub
// serves at most the latest 300 events, which is plenty for commit email
// discovery, so no pagination here.
func (c *RESTClient) ListPublicEvents(ctx context.Context, login string) ([]Event, error) {
	path := fmt.Sprintf("/users/%s/events/public", url.PathEscape(login))

	var events []Event
	if _, err := c.get(ctx, path, nil, &events); err != nil {
		return nil, fmt.Errorf("fetching public events for %s: %w", login, err)
	}
	return events, nil
}

// apiError is the JSON body GitHub attaches to non-2xx responses.
type apiError struct {
	Message          string `json:"message"`
	DocumentationURL string `json:"documentation_url"`
}

// get issues a GET request and decodes the JSON response into out. The
// returned response exposes the headers needed for Link pagination; its
// body has already been consumed and closed.
func (c *RESTClient) get(ctx context.Context, path string, query url.Values, out interface{}) (*http.Response, error) {
	u := c.endpoint + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", path, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.mapTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, fmt.Errorf("decoding response from %s: %w", path, err)
	}

	return resp, nil
}

// statusError maps a non-2xx response to a domain error with an actionable
// message. The body is decoded best-effort for GitHub's error message.
func (c *RESTClient) statusError(resp *http.Response, path string) error {
	var apiErr apiError
	_ = json.NewDecoder(resp.Body).Decode(&apiErr)
	detail := apiErr.Message
	if detail == "" {
		detail = resp.Status
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("GitHub API authentication failed (%s). Please provide a valid token via --token or the GITHUB_TOKEN environment variable: %w",
			detail, orgmaperrors.ErrInvalidToken)
	case http.StatusForbidden:
		if ratelimit.IsExhausted(resp) {
			return fmt.Errorf("GitHub API rate limit exceeded (%s): %w", detail, orgmaperrors.ErrRateLimit)
		}
		return fmt.Errorf("access to %s forbidden (%s): %w", path, detail, orgmaperrors.ErrForbidden)
	case http.StatusNotFound:
		return fmt.Errorf("%s not found (%s): %w", path, detail, orgmaperrors.ErrNotFound)
	case http.StatusTooManyRequests:
		return fmt.Errorf("GitHub API rate limit exceeded (%s): %w", detail, orgmaperrors.ErrRateLimit)
	default:
		if resp.StatusCode >= 500 {
			return fmt.Errorf("GitHub API returned status %d (%s): %w", resp.StatusCode, detail, orgmaperrors.ErrNetworkFailure)
		}
		return fmt.Errorf("unexpected status %d from %s: %s", resp.StatusCode, path, detail)
	}
}

// mapTransportError classifies errors from the HTTP layer. Errors that
// already carry a sentinel, such as an exceeded rate limit wait, pass
// through unchanged.
func (c *RESTClient) mapTransportError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, orgmaperrors.ErrRateLimit) || errors.Is(err, orgmaperrors.ErrNetworkFailure) {
		return err
	}
	if c.inspector.IsNetworkError(err) {
		return fmt.Errorf("network error connecting to GitHub API (%v): %w", err, orgmaperrors.ErrNetworkFailure)
	}
	return err
}

// listQuery builds the pagination query parameters for a list call.
func listQuery(opts ListOptions) url.Values {
	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = defaultPageSize
	}
	if perPage > maxPageSize {
		perPage = maxPageSize
	}

	page := opts.Page
	if page <= 0 {
		page = 1
	}

	query := url.Values{}
	query.Set("per_page", strconv.Itoa(perPage))
	query.Set("page", strconv.Itoa(page))
	return query
}

// nextPageFromLink parses the RFC 5988 Link header and returns the page
// number of the rel="next" URL, or zero when there is no next page. A
// missing or malformed header also means zero: providers that omit Link
// on the last page terminate pagination the same way.
func nextPageFromLink(resp *http.Response) int {
	header := resp.Header.Get("Link")
	if header == "" {
		return 0
	}

	for _, part := range strings.Split(header, ",") {
		sections := strings.Split(part, ";")
		if len(sections) < 2 {
			continue
		}

		isNext := false
		for _, attr := range sections[1:] {
			if strings.TrimSpace(attr) == `rel="next"` {
				isNext = true
				break
			}
		}
		if !isNext {
			continue
		}

		target := strings.Trim(strings.TrimSpace(sections[0]), "<>")
		u, err := url.Parse(target)
		if err != nil {
			continue
		}
		page, err := strconv.Atoi(u.Query().Get("page"))
		if err != nil || page <= 0 {
			continue
		}
		return page
	}

	return 0
}
