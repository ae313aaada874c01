// Package statement reads semicolon-delimited bank statement exports and
// turns their rows into parsed transactions.
package statement

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const delimiter = ';'

// RawRow is one statement line as read from the file.
type RawRow struct {
	Number int // 1-based, the header is row 1 and blank lines count
	Fields []string
}

// Statement is the content of an export: its header and data rows.
type Statement struct {
	Header []string
	Rows   []RawRow
}

// ReadFile opens and reads a statement export.
func ReadFile(path string) (*Statement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening statement: %w", err)
	}
	defer f.Close()

	st, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading statement %s: %w", path, err)
	}
	return st, nil
}

// Read reads a UTF-8 statement, dropping a leading byte-order mark.
// Rows are returned as-is; field count is checked by ParseRow.
func Read(r io.Reader) (*Statement, error) {
	dec := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := csv.NewReader(dec)
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &Statement{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	st := &Statement{Header: header}
	n, end := 1, recordEnd(cr, header)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+1, err)
		}
		// Blank lines are skipped by the reader but still count as rows.
		start, _ := cr.FieldPos(0)
		n += 1 + max(0, start-end-1)
		end = recordEnd(cr, rec)
		st.Rows = append(st.Rows, RawRow{Number: n, Fields: rec})
	}
	return st, nil
}

// recordEnd returns the file line on which the record just read ends.
func recordEnd(cr *csv.Reader, rec []string) int {
	last := len(rec) - 1
	line, _ := cr.FieldPos(last)
	return line + strings.Count(rec[last], "\n")
}
