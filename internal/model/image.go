package model

import (
	"regexp"
	"strconv"
	"strings"
)

// Attribution is the license credit written for every kept image.
const Attribution = "Mapillary © contributors (CC‑BY‑SA 4.0)"

// LedgerHeader is the column header of the attribution ledger.
var LedgerHeader = []string{"id", "filename", "captured_at", "is_pano", "w", "h", "attr"}

// ImageRecord is one image returned by the metadata API.
//
// Records are consumed once by the download pipeline and never mutated.
type ImageRecord struct {
	// ID is the provider's opaque image identifier.
	ID string

	// URL is the signed full-resolution download URL.
	// Empty when the provider did not return one.
	URL string

	// IsPanorama is the provider's own panorama flag.
	IsPanorama bool

	// CapturedAt is the capture time in milliseconds since the Unix epoch.
	// Nil when the provider omitted it.
	CapturedAt *int64

	// Width and Height are the provider-reported pixel dimensions.
	Width  *int
	Height *int
}

// HasURL reports whether the record can be downloaded.
func (r ImageRecord) HasURL() bool {
	return strings.TrimSpace(r.URL) != ""
}

// FileName returns the deterministic local file name for the record.
func (r ImageRecord) FileName() string {
	return "img_" + sanitizeFileName(r.ID) + ".jpg"
}

// AttributionRow is one data row of the attribution ledger.
type AttributionRow struct {
	ID         string
	FileName   string
	CapturedAt *int64
	IsPanorama bool
	Width      *int
	Height     *int
	Attr       string
}

// NewAttributionRow builds the ledger row for a kept record.
func NewAttributionRow(r ImageRecord, fileName string) AttributionRow {
	return AttributionRow{
		ID:         r.ID,
		FileName:   fileName,
		CapturedAt: r.CapturedAt,
		IsPanorama: r.IsPanorama,
		Width:      r.Width,
		Height:     r.Height,
		Attr:       Attribution,
	}
}

// Fields returns the row in LedgerHeader column order. Values the provider
// omitted are written as empty cells.
func (a AttributionRow) Fields() []string {
	return []string{
		a.ID,
		a.FileName,
		formatInt(a.CapturedAt),
		strconv.FormatBool(a.IsPanorama),
		formatInt(a.Width),
		formatInt(a.Height),
		a.Attr,
	}
}

func formatInt[T int | int64](v *T) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(int64(*v), 10)
}

var invalidFileChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f\s]`)

// sanitizeFileName replaces characters that are invalid in file names.
func sanitizeFileName(name string) string {
	return invalidFileChars.ReplaceAllString(name, "_")
}
