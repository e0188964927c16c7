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

// Package output writes permission report rows as CSV or NDJSON (Newline
// Delimited JSON). Rows stream straight to the destination so reports of
// any size run in constant memory.
//
// File-backed writers stage everything in a temporary file next to the
// destination and only move it into place on Close. A run that fails
// partway leaves any pre-existing report untouched; call Discard to clean
// the staging file up. Stream writers, typically over stdout, emit rows
// as they arrive and treat Discard as a no-op.
//
// Example usage:
//
//	w, err := output.NewCSVWriter("github_org_report.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, row := range rows {
//	    if err := w.WriteRow(row); err != nil {
//	        w.Discard()
//	        log.Fatal(err)
//	    }
//	}
//
//	if err := w.Close(); err != nil {
//	    log.Fatal(err)
//	}
package output
