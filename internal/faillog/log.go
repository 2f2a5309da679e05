// Package faillog implements the Failure Log (§4.D): an append-only,
// mutex-serialized journal of rows the engine could not obfuscate, durable
// even across a crash.
package faillog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FailedRow is one append-only record, per §3.
type FailedRow struct {
	TableName        string         `json:"tableName"`
	PrimaryKeyValues map[string]any `json:"primaryKeyValues"`
	OriginalValues   map[string]any `json:"originalValues"`
	ObfuscatedValues map[string]any `json:"obfuscatedValues,omitempty"`
	ErrorMessage     string         `json:"errorMessage"`
	Timestamp        time.Time      `json:"timestamp"`
}

// Log is the Failure Log for one run: one line-oriented file, one JSON
// fragment per failed row, mutex-serialized appends, AutoFlush after every
// write so a crash loses at most the write in flight.
type Log struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// Open creates (or truncates) the failure log file at
// logs/failures/<database>_failures_<timestamp>.log and writes its header
// comment, per §4.D/§6.
func Open(dir, database string, runID string, now time.Time) (*Log, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating failure log directory %q: %w", dir, err)
	}

	fileName := fmt.Sprintf("%s_failures_%s.log", database, now.Format("20060102T150405Z"))
	path := filepath.Join(dir, fileName)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating failure log file %q: %w", path, err)
	}

	l := &Log{file: f, path: path}
	header := fmt.Sprintf("# Obfuscation failure log\n# database: %s\n# run: %s\n# started: %s\n",
		database, runID, now.Format(time.RFC3339))
	if _, err := f.WriteString(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing failure log header: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return nil, fmt.Errorf("syncing failure log header: %w", err)
	}
	return l, nil
}

// Path returns the failure log's file path, reported in the run summary.
func (l *Log) Path() string {
	return l.path
}

// Append records one failed row. It does not affect checkpoint progress:
// the batch containing this row continues regardless, per §4.D.
func (l *Log) Append(row FailedRow) error {
	raw, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("marshaling failed row: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.file.Write(append(raw, '\n')); err != nil {
		return fmt.Errorf("appending to failure log: %w", err)
	}
	return l.file.Sync()
}

// Close writes the trailing "# Completed: <ts>" marker and closes the file.
func (l *Log) Close(now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	trailer := fmt.Sprintf("# Completed: %s\n", now.Format(time.RFC3339))
	if _, err := l.file.WriteString(trailer); err != nil {
		l.file.Close()
		return fmt.Errorf("writing failure log trailer: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		l.file.Close()
		return fmt.Errorf("syncing failure log trailer: %w", err)
	}
	return l.file.Close()
}
