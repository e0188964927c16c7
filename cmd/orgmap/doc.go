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

// Package main implements the orgmap command-line interface. The tool
// walks GitHub organizations, their repositories, and each repository's
// collaborators, and writes one CSV row per collaborator with their
// permission level and email address.
//
// The CLI supports:
//   - Reporting on explicit organizations, an organization list file, a
//     GitHub Enterprise account, or every organization the token belongs to
//   - CSV (default) and NDJSON output, to a file or stdout
//   - GitHub token authentication via flag or environment variable
//   - Proactive rate limit pausing so large exports finish unattended
//   - Graceful error handling with appropriate exit codes
//
// Usage:
//
//	orgmap report [org ...] [flags]
//
// Example:
//
//	export GITHUB_TOKEN=your_token
//	orgmap report acme globex --output access_report.csv
//
// Exit codes:
//   - 0: Success
//   - 1: General error
//   - 2: Authentication/authorization error
//   - 3: Network error
package main
