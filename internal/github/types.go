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

import "strings"

const (
	// defaultPageSize is used when the caller does not specify a page size.
	defaultPageSize = 100

	// maxPageSize is the largest page the GitHub API will return.
	maxPageSize = 100
)

// Organization is a GitHub organization visible to the authenticated token.
type Organization struct {
	Login       string `json:"login"`
	ID          int64  `json:"id"`
	Description string `json:"description"`
}

// Repository is a repository belonging to an organization.
type Repository struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Private  bool   `json:"private"`
	Archived bool   `json:"archived"`
	Fork     bool   `json:"fork"`
}

// PermissionFlags mirrors the permissions object GitHub attaches to each
// collaborator. The flags are cumulative: admin implies everything below it.
type PermissionFlags struct {
	Admin    bool `json:"admin"`
	Maintain bool `json:"maintain"`
	Push     bool `json:"push"`
	Triage   bool `json:"triage"`
	Pull     bool `json:"pull"`
}

// Collaborator is a user with access to a repository, including outside
// collaborators (affiliation=all).
type Collaborator struct {
	Login       string          `json:"login"`
	RoleName    string          `json:"role_name"`
	Permissions PermissionFlags `json:"permissions"`
}

// User is the public profile of a GitHub user. Email is empty when the
// user has not made an email address public.
type User struct {
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Event is a single entry from a user's public activity feed. Only push
// events carry commits; other event types decode with an empty payload.
type Event struct {
	Type    string       `json:"type"`
	Payload EventPayload `json:"payload"`
}

// EventPayload holds the push event fields used for commit email discovery.
type EventPayload struct {
	Commits []EventCommit `json:"commits"`
}

// EventCommit is a commit as it appears inside a push event payload.
type EventCommit struct {
	SHA     string            `json:"sha"`
	Message string            `json:"message"`
	Author  EventCommitAuthor `json:"author"`
}

// EventCommitAuthor is the git author recorded on a push event commit.
type EventCommitAuthor struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PermissionLevel is the effective access level of a collaborator on a
// repository, from highest to lowest: Admin, Maintain, Write, Triage, Read.
type PermissionLevel string

// Permission levels in descending order of access.
const (
	PermissionAdmin    PermissionLevel = "Admin"
	PermissionMaintain PermissionLevel = "Maintain"
	PermissionWrite    PermissionLevel = "Write"
	PermissionTriage   PermissionLevel = "Triage"
	PermissionRead     PermissionLevel = "Read"
)

// PermissionLevel resolves the collaborator's effective access level. The
// role_name field is authoritative when it names one of the five standard
// roles; custom organization roles fall back to the permission flags,
// highest first. Anyone in a collaborator listing can at least pull, so
// Read is the floor.
func (c Collaborator) PermissionLevel() PermissionLevel {
	switch strings.ToLower(c.RoleName) {
	case "admin":
		return PermissionAdmin
	case "maintain":
		return PermissionMaintain
	case "write":
		return PermissionWrite
	case "triage":
		return PermissionTriage
	case "read":
		return PermissionRead
	}

	switch {
	case c.Permissions.Admin:
		return PermissionAdmin
	case c.Permissions.Maintain:
		return PermissionMaintain
	case c.Permissions.Push:
		return PermissionWrite
	case c.Permissions.Triage:
		return PermissionTriage
	default:
		return PermissionRead
	}
}

// OrganizationPage is one page of an organization listing. NextPage is the
// page number to request next, or zero when this is the last page.
type OrganizationPage struct {
	Organizations []Organization
	NextPage      int
}

// RepositoryPage is one page of a repository listing.
type RepositoryPage struct {
	Repositories []Repository
	NextPage     int
}

// CollaboratorPage is one page of a collaborator listing.
type CollaboratorPage struct {
	Collaborators []Collaborator
	NextPage      int
}

// ListOptions controls pagination for list calls.
type ListOptions struct {
	// Page is the 1-based page number to fetch. Zero fetches the first page.
	Page int

	// PerPage is the page size. Zero uses the default; values above the
	// API maximum are capped.
	PerPage int
}
