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
	"fmt"
	"net/http"

	"github.com/shurcooL/graphql"

	orgmaperrors "github.com/orgmaphq/orgmap/internal/errors"
	"github.com/orgmaphq/orgmap/internal/giterror"
)

// enterprisePageSize is the cursor page size for enterprise org listings.
const enterprisePageSize = 100

// EnterpriseClient lists the organizations of a GitHub Enterprise account.
// The enterprise hierarchy is only exposed over GraphQL, so this is the
// one place the tool leaves the REST API. It shares the transport chain
// with the REST client, so rate limit handling behaves identically.
type EnterpriseClient struct {
	client    *graphql.Client
	inspector giterror.Inspector
}

// NewEnterpriseClient creates a GraphQL client for the given endpoint,
// typically https://api.github.com/graphql.
func NewEnterpriseClient(token, endpoint string, cfg TransportConfig) *EnterpriseClient {
	httpClient := &http.Client{
		Transport: newTransport(token, cfg),
	}

	return &EnterpriseClient{
		client:    graphql.NewClient(endpoint, httpClient),
		inspector: giterror.NewInspector(),
	}
}

// ListOrganizations returns every organization in the enterprise, walking
// the cursor-paginated organizations connection in listing order.
func (c *EnterpriseClient) ListOrganizations(ctx context.Context, slug string) ([]Organization, error) {
	var all []Organization
	var cursor *graphql.String

	for {
		var query struct {
			Enterprise struct {
				Organizations struct {
					Nodes []struct {
						Login       graphql.String
						Description graphql.String
					}
					PageInfo struct {
						HasNextPage graphql.Boolean
						EndCursor   graphql.String
					}
				} `graphql:"organizations(first: $first, after: $after)"`
			} `graphql:"enterprise(slug: $slug)"`
		}

		variables := map[string]interface{}{
			"slug":  graphql.String(slug),
			"first": graphql.Int(enterprisePageSize),
			"after": cursor,
		}

		if err := c.client.Query(ctx, &query, variables); err != nil {
			return nil, c.mapError(err, slug)
		}

		for _, node := range query.Enterprise.Organizations.Nodes {
			all = append(all, Organization{
				Login:       string(node.Login),
				Description: string(node.Description),
			})
		}

		if !bool(query.Enterprise.Organizations.PageInfo.HasNextPage) {
			break
		}
		next := query.Enterprise.Organizations.PageInfo.EndCursor
		cursor = &next
	}

	return all, nil
}

// mapError maps GraphQL errors to domain errors with actionable messages.
func (c *EnterpriseClient) mapError(err error, slug string) error {
	if err == nil {
		return nil
	}

	// Rate limit first: GitHub reports it as a 403 variant.
	if c.inspector.IsRateLimitError(err) {
		return fmt.Errorf("GitHub API rate limit exceeded while listing enterprise organizations: %w", orgmaperrors.ErrRateLimit)
	}

	if c.inspector.IsAuthError(err) {
		return fmt.Errorf("GitHub API authentication failed. Please provide a valid token via --token or the GITHUB_TOKEN environment variable: %w", orgmaperrors.ErrInvalidToken)
	}

	if c.inspector.IsForbiddenError(err) {
		return fmt.Errorf("token lacks access to enterprise %q. Enterprise listings require the read:enterprise scope: %w", slug, orgmaperrors.ErrForbidden)
	}

	if c.inspector.IsNotFoundError(err) {
		return fmt.Errorf("enterprise %q not found. Please check the slug and your access: %w", slug, orgmaperrors.ErrNotFound)
	}

	if c.inspector.IsNetworkError(err) {
		return fmt.Errorf("network error connecting to GitHub API. Please check your internet connection and try again: %w", orgmaperrors.ErrNetworkFailure)
	}

	return fmt.Errorf("listing organizations for enterprise %q: %w", slug, err)
}
