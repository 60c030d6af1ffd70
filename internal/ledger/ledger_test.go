package ledger

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/handiism/streetgrab/internal/model"
)

func readAll(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return records
}

func TestLedger_HeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	l, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	capturedAt, w, h := int64(1600000000000), 5760, 2880
	rec := model.ImageRecord{ID: "7", IsPanorama: true, CapturedAt: &capturedAt, Width: &w, Height: &h}
	if err := l.Append(model.NewAttributionRow(rec, rec.FileName())); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	records := readAll(t, path)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	wantHeader := []string{"id", "filename", "captured_at", "is_pano", "w", "h", "attr"}
	for i, col := range wantHeader {
		if records[0][i] != col {
			t.Errorf("header[%d] = %q, want %q", i, records[0][i], col)
		}
	}
	if records[1][1] != "img_7.jpg" || records[1][6] != model.Attribution {
		t.Errorf("row = %v", records[1])
	}
}

func TestLedger_ConcurrentAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	l, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	const n = 200
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w, h := 2, 1
			rec := model.ImageRecord{ID: fmt.Sprint(i), Width: &w, Height: &h}
			if err := l.Append(model.NewAttributionRow(rec, rec.FileName())); err != nil {
				t.Errorf("Append failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if l.Rows() != n {
		t.Errorf("Rows() = %d, want %d", l.Rows(), n)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	records := readAll(t, path)
	if len(records) != n+1 {
		t.Errorf("got %d records, want %d", len(records), n+1)
	}
	seen := make(map[string]bool)
	for _, r := range records[1:] {
		if len(r) != 7 {
			t.Fatalf("row has %d columns: %v", len(r), r)
		}
		seen[r[0]] = true
	}
	if len(seen) != n {
		t.Errorf("got %d distinct ids, want %d", len(seen), n)
	}
}

func TestLedger_TruncatesPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	for run := 0; run < 2; run++ {
		l, err := Create(path)
		if err != nil {
			t.Fatal(err)
		}
		rec := model.ImageRecord{ID: "1"}
		l.Append(model.NewAttributionRow(rec, rec.FileName()))
		l.Close()
	}

	if records := readAll(t, path); len(records) != 2 {
		t.Errorf("got %d records after two runs, want 2", len(records))
	}
}
