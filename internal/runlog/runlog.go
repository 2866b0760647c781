// Package runlog implements the append-only CSV run log described in
// the design doc's external interfaces (one row per controller
// invocation). It is, like the DIMACS parser, a collaborator outside
// the solver's core responsibility (see spec §1), but this module
// ships a reference implementation grounded on the original Python
// logger's dynamic-fieldname behavior: every write widens the header
// to the sorted union of old and new columns, rewriting the file so
// earlier rows gain empty cells for columns they didn't have.
package runlog

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
)

// Entry is one controller-invocation record. Stats holds
// engine-specific statistics; its keys are written with a "stat_"
// prefix, per the design doc's schema.
type Entry struct {
	Timestamp      string
	SourceFile     string
	Solver         string
	Status         string
	RuntimeSec     float64
	Variables      int
	Clauses        int
	ClauseVarRatio float64
	AssignmentFound bool
	Stats          map[string]interface{}
}

func (e Entry) fields() map[string]string {
	m := map[string]string{
		"timestamp":        e.Timestamp,
		"source_file":      e.SourceFile,
		"solver":           e.Solver,
		"status":           e.Status,
		"runtime_sec":      fmt.Sprintf("%.6f", e.RuntimeSec),
		"variables":        fmt.Sprintf("%d", e.Variables),
		"clauses":          fmt.Sprintf("%d", e.Clauses),
		"clause_var_ratio": fmt.Sprintf("%.6f", e.ClauseVarRatio),
		"assignment_found": fmt.Sprintf("%t", e.AssignmentFound),
	}
	for k, v := range e.Stats {
		m["stat_"+k] = fmt.Sprintf("%v", v)
	}
	return m
}

// Logger appends Entry rows to a CSV file, widening its header as new
// stat_ columns appear.
type Logger struct {
	path string
}

// New returns a Logger writing to path.
func New(path string) *Logger { return &Logger{path: path} }

// Log appends entry to the log file, rewriting it with a widened,
// sorted header if entry introduces columns the file doesn't have yet.
// A log file that doesn't exist yet is created with exactly entry's
// columns.
func (l *Logger) Log(entry Entry) error {
	fields := entry.fields()

	existingHeader, existingRows, err := readExisting(l.path)
	if err != nil {
		return fmt.Errorf("read existing run log: %w", err)
	}

	headerSet := make(map[string]struct{}, len(existingHeader)+len(fields))
	for _, h := range existingHeader {
		headerSet[h] = struct{}{}
	}
	for k := range fields {
		headerSet[k] = struct{}{}
	}
	header := make([]string, 0, len(headerSet))
	for h := range headerSet {
		header = append(header, h)
	}
	sort.Strings(header)

	f, err := os.Create(l.path)
	if err != nil {
		return fmt.Errorf("create run log: %w", err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write run log header: %w", err)
	}
	for _, row := range existingRows {
		if err := w.Write(rowFor(header, row)); err != nil {
			return fmt.Errorf("rewrite existing run log row: %w", err)
		}
	}
	if err := w.Write(rowFor(header, fields)); err != nil {
		return fmt.Errorf("write run log row: %w", err)
	}
	w.Flush()
	return w.Error()
}

func rowFor(header []string, fields map[string]string) []string {
	row := make([]string, len(header))
	for i, h := range header {
		row[i] = fields[h]
	}
	return row
}

func readExisting(path string) ([]string, []map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, nil
	}
	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(rec) {
				row[h] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}
