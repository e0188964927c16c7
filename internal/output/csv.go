package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"sync"
)

// csvHeader names the report columns in order. It is written even when the
// report ends up with zero rows.
var csvHeader = []string{"Organization", "Repo Name", "User Name", "Email", "Permission"}

// CSVWriter streams report rows in CSV format.
// It ensures memory-efficient writing without accumulating data.
type CSVWriter struct {
	mu      sync.Mutex
	writer  *csv.Writer
	staging *atomicFile
	count   int
}

// Compile-time check that CSVWriter implements RowWriter
var _ RowWriter = (*CSVWriter)(nil)

// NewCSVWriter creates a CSV writer that writes to filename atomically:
// rows go to a staging file that replaces filename on Close.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	staging, err := newAtomicFile(filename)
	if err != nil {
		return nil, err
	}

	w := &CSVWriter{
		writer:  csv.NewWriter(staging),
		staging: staging,
	}
	if err := w.writeHeader(); err != nil {
		staging.Discard()
		return nil, err
	}
	return w, nil
}

// NewCSVStreamWriter creates a CSV writer over out, typically stdout. Close
// flushes but does not close out, and Discard is a no-op: whatever already
// streamed cannot be taken back.
func NewCSVStreamWriter(out io.Writer) (*CSVWriter, error) {
	w := &CSVWriter{writer: csv.NewWriter(out)}
	if err := w.writeHeader(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *CSVWriter) writeHeader() error {
	if err := w.writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	return nil
}

// WriteRow appends a single row, flushed immediately.
func (w *CSVWriter) WriteRow(row Row) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	record := []string{row.Org, row.Repo, row.Login, row.Email, row.Permission}
	if err := w.writer.Write(record); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}

	w.count++
	return nil
}

// Count returns the number of rows written, excluding the header.
func (w *CSVWriter) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close flushes any buffered output and, for file-backed writers, moves
// the staged report into place.
func (w *CSVWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		if w.staging != nil {
			w.staging.Discard()
		}
		return fmt.Errorf("failed to flush output: %w", err)
	}

	if w.staging != nil {
		if err := w.staging.Commit(); err != nil {
			return err
		}
		w.staging = nil
	}
	return nil
}

// Discard abandons the report and removes the staging file.
func (w *CSVWriter) Discard() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.staging != nil {
		w.staging.Discard()
		w.staging = nil
	}
}
