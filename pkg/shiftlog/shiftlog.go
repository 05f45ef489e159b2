// Package shiftlog keeps a CSV record of the offset found for each
// image, one row per file:
//
//	name,dx,dy,timestamp
//
// The log is append-only; a batch adds a row per pair as it goes, and
// the apply step reads it back.
package shiftlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/abworrall/corrshift/pkg/shift"
)

// Filename is the name of the log inside an output directory.
const Filename = "ShiftOffset.csv"

// An Entry is one row of the log.
type Entry struct {
	Name   string // base name of the shifted file
	Offset shift.Offset
	Time   time.Time
}

func (e Entry) String() string {
	return fmt.Sprintf("%s %s @%s", e.Name, e.Offset, e.Time.Format(time.RFC3339))
}

func (e Entry) record() []string {
	return []string{
		e.Name,
		strconv.Itoa(e.Offset.DX),
		strconv.Itoa(e.Offset.DY),
		e.Time.UTC().Format(time.RFC3339),
	}
}

// A Log appends entries to a CSV file. It is safe for concurrent use.
type Log struct {
	Path string
	mu   sync.Mutex
}

// New returns a Log writing to Filename inside dir. Nothing is created
// until the first Append.
func New(dir string) *Log {
	return &Log{Path: filepath.Join(dir, Filename)}
}

// Append writes the entries to the end of the log, creating it if
// needed.
func (l *Log) Append(entries ...Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("shiftlog: open %s: %w", l.Path, err)
	}

	w := csv.NewWriter(f)
	for _, e := range entries {
		if err := w.Write(e.record()); err != nil {
			f.Close()
			return fmt.Errorf("shiftlog: write %s: %w", l.Path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("shiftlog: write %s: %w", l.Path, err)
	}
	return f.Close()
}

// Read parses a whole log.
func Read(filename string) ([]Entry, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("shiftlog: %w", err)
	}
	defer f.Close()

	entries, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("shiftlog: %s: %w", filename, err)
	}
	return entries, nil
}

// Decode parses log rows from r.
func Decode(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 4

	entries := []Entry{}
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return entries, nil
		} else if err != nil {
			return nil, err
		}

		e, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		entries = append(entries, e)
	}
}

func parseRecord(rec []string) (Entry, error) {
	dx, err := strconv.Atoi(rec[1])
	if err != nil {
		return Entry{}, fmt.Errorf("dx: %w", err)
	}
	dy, err := strconv.Atoi(rec[2])
	if err != nil {
		return Entry{}, fmt.Errorf("dy: %w", err)
	}
	t, err := time.Parse(time.RFC3339, rec[3])
	if err != nil {
		return Entry{}, fmt.Errorf("timestamp: %w", err)
	}
	return Entry{Name: rec[0], Offset: shift.Offset{DX: dx, DY: dy}, Time: t}, nil
}

// Offsets indexes entries by name. When a name appears more than once
// the latest row wins, so re-running a batch supersedes older results.
func Offsets(entries []Entry) map[string]shift.Offset {
	m := map[string]shift.Offset{}
	for _, e := range entries {
		m[e.Name] = e.Offset
	}
	return m
}
