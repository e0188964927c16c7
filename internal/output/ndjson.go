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
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// NDJSONWriter streams report rows as NDJSON, one JSON object per line.
// The format suits piping into jq or loading into log tooling.
type NDJSONWriter struct {
	mu      sync.Mutex
	encoder *json.Encoder
	staging *atomicFile
	count   int
}

// Compile-time check that NDJSONWriter implements RowWriter
var _ RowWriter = (*NDJSONWriter)(nil)

// NewNDJSONWriter creates an NDJSON writer that writes to filename
// atomically: rows go to a staging file that replaces filename on Close.
func NewNDJSONWriter(filename string) (*NDJSONWriter, error) {
	staging, err := newAtomicFile(filename)
	if err != nil {
		return nil, err
	}
	return &NDJSONWriter{
		encoder: json.NewEncoder(staging),
		staging: staging,
	}, nil
}

// NewNDJSONStreamWriter creates an NDJSON writer over out, typically
// stdout. Close flushes nothing extra and Discard is a no-op.
func NewNDJSONStreamWriter(out io.Writer) *NDJSONWriter {
	return &NDJSONWriter{encoder: json.NewEncoder(out)}
}

// WriteRow writes a single row as one JSON line, flushed immediately.
func (w *NDJSONWriter) WriteRow(row Row) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.encoder.Encode(row); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}

	w.count++
	return nil
}

// Count returns the number of rows written.
func (w *NDJSONWriter) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close moves the staged report into place for file-backed writers.
func (w *NDJSONWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.staging != nil {
		if err := w.staging.Commit(); err != nil {
			return err
		}
		w.staging = nil
	}
	return nil
}

// Discard abandons the report and removes the staging file.
func (w *NDJSONWriter) Discard() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.staging != nil {
		w.staging.Discard()
		w.staging = nil
	}
}
