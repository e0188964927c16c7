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

// Package ratelimit tracks GitHub API quota and suspends request traffic
// before the quota runs out.
//
// Every API response carries X-RateLimit-Limit, X-RateLimit-Remaining, and
// X-RateLimit-Reset headers. A Tracker keeps the most recent snapshot of
// those headers. A Guard consults the snapshot before each request: once
// the remaining quota falls to the configured safety margin, it sleeps
// until the advertised reset time and then lets the run continue exactly
// where it left off. No requests are dropped or reordered.
//
// The Waiter covers the reactive case: a request that comes back 429 (or
// 403 with the quota spent) is held until Retry-After or the reset time
// and then reissued by the transport.
package ratelimit
