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

// Package github provides the GitHub API client used to enumerate
// organizations, repositories, and collaborators.
//
// The primary implementation, RESTClient, speaks the GitHub REST API
// (version 2022-11-28) with page-number pagination driven by the RFC 5988
// Link response header. Enterprise organization listings are only exposed
// over GraphQL, so EnterpriseClient covers that one query.
//
// All requests flow through a shared http.RoundTripper chain that injects
// authentication, paces and suspends traffic around the API rate limit,
// and retries transient failures with exponential backoff. RetryClient
// adds a second, coarser retry layer above whole API calls for errors the
// transport cannot see, such as responses that fail mid-decode.
package github
