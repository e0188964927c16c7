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

import (
	"fmt"
	"os"
)

// atomicFile stages writes in a sibling temporary file and renames it over
// the destination on Commit, so readers never observe a half-written report
// and a failed run cannot clobber a previous one.
type atomicFile struct {
	file    *os.File
	path    string
	tmpPath string
}

// newAtomicFile creates the staging file for path in the same directory,
// which keeps the final rename on one filesystem.
func newAtomicFile(path string) (*atomicFile, error) {
	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return &atomicFile{
		file:    file,
		path:    path,
		tmpPath: tmpPath,
	}, nil
}

// Write implements io.Writer against the staging file.
func (a *atomicFile) Write(p []byte) (int, error) {
	return a.file.Write(p)
}

// Commit flushes the staging file to disk and moves it into place.
func (a *atomicFile) Commit() error {
	if err := a.file.Sync(); err != nil {
		_ = a.file.Close()
		_ = os.Remove(a.tmpPath)
		return fmt.Errorf("failed to sync output file: %w", err)
	}
	if err := a.file.Close(); err != nil {
		_ = os.Remove(a.tmpPath)
		return fmt.Errorf("failed to close output file: %w", err)
	}
	if err := os.Rename(a.tmpPath, a.path); err != nil {
		_ = os.Remove(a.tmpPath)
		return fmt.Errorf("failed to move output file into place: %w", err)
	}
	return nil
}

// Discard closes and removes the staging file, leaving the destination
// untouched.
func (a *atomicFile) Discard() {
	_ = a.file.Close()
	_ = os.Remove(a.tmpPath)
}
