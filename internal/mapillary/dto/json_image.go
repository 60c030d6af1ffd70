// Package dto holds the wire shapes of the Mapillary Graph API.
package dto

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/handiism/streetgrab/internal/model"
)

// Fields is the field list requested for every image.
const Fields = "id,thumb_original_url,is_panorama,captured_at,width,height"

// ID accepts both JSON strings and numbers.
type ID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("image id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// JSONImage is one element of an /images response.
type JSONImage struct {
	ID               ID     `json:"id"`
	ThumbOriginalURL string `json:"thumb_original_url"`
	IsPanorama       bool   `json:"is_panorama"`
	CapturedAt       *int64 `json:"captured_at"`
	Width            *int   `json:"width"`
	Height           *int   `json:"height"`
}

// ToImageRecord converts the wire shape into the domain record.
func (j JSONImage) ToImageRecord() model.ImageRecord {
	return model.ImageRecord{
		ID:         string(j.ID),
		URL:        j.ThumbOriginalURL,
		IsPanorama: j.IsPanorama,
		CapturedAt: j.CapturedAt,
		Width:      j.Width,
		Height:     j.Height,
	}
}

// JSONPage is a single page of an /images response.
type JSONPage struct {
	Data   []JSONImage `json:"data"`
	Paging *JSONPaging `json:"paging"`
}

// JSONPaging carries the continuation cursors.
type JSONPaging struct {
	Cursors struct {
		Before string `json:"before"`
		After  string `json:"after"`
	} `json:"cursors"`
	Next string `json:"next"`
}

// NextCursor returns the "after" cursor, or "" on the last page.
func (p JSONPage) NextCursor() string {
	if p.Paging == nil {
		return ""
	}
	return p.Paging.Cursors.After
}
