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

package output

// Row is one line of the permission report: a single collaborator's access
// to a single repository. Email is empty when no address could be found.
type Row struct {
	Org        string `json:"organization"`
	Repo       string `json:"repository"`
	Login      string `json:"login"`
	Email      string `json:"email"`
	Permission string `json:"permission"`
}

// RowWriter defines the interface for writing report rows. It abstracts
// over the output formats so report generation does not care which one the
// user picked.
type RowWriter interface {
	// WriteRow appends a single row to the report.
	WriteRow(row Row) error

	// Close finalizes the report. For file-backed writers this is the
	// point where the staged output becomes visible at its destination.
	Close() error

	// Discard abandons the report, removing any staged output. Calling
	// it after a successful Close is a no-op.
	Discard()
}
