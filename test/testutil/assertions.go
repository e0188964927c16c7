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

package testutil

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"os"
	"reflect"
	"strings"
	"testing"
)

// reportHeader is the column header every CSV report starts with.
var reportHeader = []string{"Organization", "Repo Name", "User Name", "Email", "Permission"}

// AssertCSVReport validates that a file is a CSV report with the standard
// header followed by exactly the given rows, in order.
func AssertCSVReport(t *testing.T, path string, wantRows [][]string) {
	t.Helper()

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open report: %v", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}

	if len(records) == 0 {
		t.Fatal("Report is empty, expected a header row")
	}
	if !reflect.DeepEqual(records[0], reportHeader) {
		t.Errorf("Header mismatch\nGot:  %v\nWant: %v", records[0], reportHeader)
	}

	rows := records[1:]
	if len(rows) != len(wantRows) {
		t.Fatalf("Expected %d rows, got %d: %v", len(wantRows), len(rows), rows)
	}
	for i, want := range wantRows {
		if !reflect.DeepEqual(rows[i], want) {
			t.Errorf("Row %d mismatch\nGot:  %v\nWant: %v", i, rows[i], want)
		}
	}
}

// AssertNDJSONReport validates that a file contains one JSON object per
// line with the report fields, and the expected number of lines.
func AssertNDJSONReport(t *testing.T, path string, expectedRows int) {
	t.Helper()

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open report: %v", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	count := 0

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		var row map[string]interface{}
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			t.Errorf("Line %d: invalid JSON: %v", count+1, err)
			continue
		}

		requiredFields := []string{"organization", "repository", "login", "email", "permission"}
		for _, field := range requiredFields {
			if _, ok := row[field]; !ok {
				t.Errorf("Line %d: missing required field '%s'", count+1, field)
			}
		}

		count++
	}

	if err := scanner.Err(); err != nil {
		t.Fatalf("Error reading file: %v", err)
	}

	if count != expectedRows {
		t.Errorf("Expected %d rows, got %d", expectedRows, count)
	}
}

// AssertContainsString checks if a string contains a substring
func AssertContainsString(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Errorf("Expected string to contain %q, got: %s", needle, haystack)
	}
}

// AssertNotContainsString checks if a string does not contain a substring
func AssertNotContainsString(t *testing.T, haystack, needle string) {
	t.Helper()
	if strings.Contains(haystack, needle) {
		t.Errorf("Expected string to NOT contain %q, got: %s", needle, haystack)
	}
}

// AssertErrorContains checks if an error contains expected text
func AssertErrorContains(t *testing.T, err error, expected string) {
	t.Helper()
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), expected) {
		t.Errorf("Expected error to contain %q, got: %v", expected, err)
	}
}

// AssertNoError fails the test if err is not nil
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

// AssertEqual compares two values and fails if they're not equal
func AssertEqual(t *testing.T, got, want interface{}) {
	t.Helper()
	if got != want {
		t.Errorf("Got %v, want %v", got, want)
	}
}
