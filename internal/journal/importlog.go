package journal

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LogEntry is one row in the import log.
type LogEntry struct {
	Timestamp  time.Time
	RunID      string
	Account    string
	Action     string
	Details    string
	EntryIDs   []string
	CommitHash string
}

// LogHeader is the CSV header for import-log.csv.
const LogHeader = "timestamp,run_id,account,action,details,entry_ids,commit_hash"

const (
	numLogFields  = 7
	logDir        = "logs"
	logFile       = "logs/import-log.csv"
	colTimestamp  = 0
	colRunID      = 1
	colLogAccount = 2
	colAction     = 3
	colDetails    = 4
	colEntryIDs   = 5
	colCommitHash = 6
)

// MarshalLogEntry converts a LogEntry to a CSV row.
func MarshalLogEntry(e LogEntry) []string {
	row := make([]string, numLogFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colRunID] = e.RunID
	row[colLogAccount] = e.Account
	row[colAction] = e.Action
	row[colDetails] = e.Details
	row[colEntryIDs] = strings.Join(e.EntryIDs, " ")
	row[colCommitHash] = e.CommitHash
	return row
}

// UnmarshalLogEntry converts a CSV row to a LogEntry.
func UnmarshalLogEntry(record []string) (LogEntry, error) {
	if len(record) != numLogFields {
		return LogEntry{}, fmt.Errorf("expected %d fields, got %d", numLogFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return LogEntry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	return LogEntry{
		Timestamp:  ts,
		RunID:      record[colRunID],
		Account:    record[colLogAccount],
		Action:     record[colAction],
		Details:    record[colDetails],
		EntryIDs:   strings.Fields(record[colEntryIDs]),
		CommitHash: record[colCommitHash],
	}, nil
}

// AppendLog writes entries to <root>/logs/import-log.csv, creating the file and header if needed.
func AppendLog(root string, entries []LogEntry) error {
	if err := os.MkdirAll(filepath.Join(root, logDir), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(root, logFile)
	needsHeader := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening import log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(LogHeader, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalLogEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadLog returns all entries from <root>/logs/import-log.csv.
// Returns an empty slice if the file does not exist.
func ReadLog(root string) ([]LogEntry, error) {
	f, err := os.Open(filepath.Join(root, logFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening import log: %w", err)
	}
	defer f.Close()

	return readLogEntries(f)
}

func readLogEntries(r io.Reader) ([]LogEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numLogFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading import log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []LogEntry
	for i, rec := range records[1:] {
		e, err := UnmarshalLogEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
