package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// BulkRequest is one batch of track ids with an optional destination playlist.
type BulkRequest struct {
	TrackIDs   []TrackID   `json:"track_ids"`
	PlaylistID *PlaylistID `json:"playlist_id,omitempty"`
}

// NewBulkRequest copies ids so later selection changes cannot alter an in-flight batch.
func NewBulkRequest(ids []TrackID, playlist *PlaylistID) BulkRequest {
	cp := make([]TrackID, len(ids))
	copy(cp, ids)
	return BulkRequest{TrackIDs: cp, PlaylistID: playlist}
}

// Tally decodes a JSON number or a JSON array (of anything) into a count, keeping array members as raw values.
type Tally struct {
	Count int
	Items []json.RawMessage
}

// UnmarshalJSON implements [json.Unmarshaler].
func (t *Tally) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*t = Tally{}
	case data[0] == '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*t = Tally{Count: len(items), Items: items}
	default:
		var n int
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("tally: expected number or array, got %s", data)
		}
		*t = Tally{Count: n}
	}
	return nil
}

// MarshalJSON writes the count.
func (t Tally) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Count)
}

// BulkResult classifies every submitted id as added, duplicate or error.
//
// The back end answers either with counts ("added": 3, "duplicates": 1) or with lists
// ("added": [...], "skipped_duplicates": [...], "errors": [...]); both decode here.
type BulkResult struct {
	Added      int `json:"added"`
	Duplicates int `json:"duplicates"`
	Errors     int `json:"errors"`
	Removed    int `json:"removed,omitempty"`
}

// UnmarshalJSON implements [json.Unmarshaler].
func (r *BulkResult) UnmarshalJSON(data []byte) error {
	var raw struct {
		Added             Tally `json:"added"`
		Duplicates        Tally `json:"duplicates"`
		SkippedDuplicates Tally `json:"skipped_duplicates"`
		Errors            Tally `json:"errors"`
		Removed           Tally `json:"removed"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = BulkResult{
		Added:      raw.Added.Count,
		Duplicates: raw.Duplicates.Count + raw.SkippedDuplicates.Count,
		Errors:     raw.Errors.Count,
		Removed:    raw.Removed.Count,
	}
	return nil
}

// Summary is the notification text for a finished batch, e.g. "Added 3 tracks (1 duplicate skipped, 0 errors)".
func (r BulkResult) Summary(target string) string {
	msg := fmt.Sprintf("Added %d %s", r.Added, plural(r.Added, "track", "tracks"))
	if target != "" {
		msg += " to " + target
	}
	return msg + fmt.Sprintf(" (%d %s skipped, %d %s)",
		r.Duplicates, plural(r.Duplicates, "duplicate", "duplicates"),
		r.Errors, plural(r.Errors, "error", "errors"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
