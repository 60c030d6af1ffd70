// Package ledger writes the attribution CSV for kept images.
package ledger

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"

	"github.com/handiism/streetgrab/internal/model"
)

// FileName is the ledger's name inside the output directory.
const FileName = "attribution.csv"

// Ledger is an append-only CSV of attribution rows, safe for concurrent use.
//
// The file is truncated and the header written on Create. Every Append is
// flushed before the lock is released, so rows survive a crash mid-run.
type Ledger struct {
	mu   sync.Mutex
	file *os.File
	w    *csv.Writer
	rows int
}

// Create opens path for writing, truncating any previous ledger.
func Create(path string) (*Ledger, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	l := &Ledger{file: f, w: csv.NewWriter(f)}
	if err := l.write(model.LedgerHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("write ledger header: %w", err)
	}
	return l, nil
}

// Append writes one row.
func (l *Ledger) Append(row model.AttributionRow) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.write(row.Fields()); err != nil {
		return err
	}
	l.rows++
	return nil
}

// Rows returns the number of data rows appended so far.
func (l *Ledger) Rows() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rows
}

// Close flushes and closes the underlying file.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.w.Flush()
	werr := l.w.Error()
	if err := l.file.Close(); err != nil {
		return err
	}
	return werr
}

func (l *Ledger) write(record []string) error {
	if err := l.w.Write(record); err != nil {
		return err
	}
	l.w.Flush()
	return l.w.Error()
}
