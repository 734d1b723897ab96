package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Local-storage keys used by the browser build.
const (
	BrowserKeyUser  = "flight_recorder_user"
	BrowserKeyDraft = "flight_recorder_draft"
	BrowserKeyDark  = "flight_recorder_dark"
)

// BrowserDump holds the raw JSON values exported from the browser build's
// local storage. Absent keys are nil.
type BrowserDump struct {
	User  json.RawMessage
	Draft json.RawMessage
	Dark  json.RawMessage
}

// ParseBrowserDump reads a JSON object mapping local-storage keys to values.
//
// Local storage holds strings, so a value may be a JSON string containing
// JSON ("{\"id\":...}") or the decoded value itself; both forms are accepted.
// Unknown keys are ignored.
func ParseBrowserDump(r io.Reader) (BrowserDump, error) {
	var raw map[string]json.RawMessage
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return BrowserDump{}, fmt.Errorf("parse browser dump: %w", err)
	}

	var dump BrowserDump
	for key, dst := range map[string]*json.RawMessage{
		BrowserKeyUser:  &dump.User,
		BrowserKeyDraft: &dump.Draft,
		BrowserKeyDark:  &dump.Dark,
	} {
		val, ok := raw[key]
		if !ok {
			continue
		}
		unwrapped, err := unwrapStorageValue(val)
		if err != nil {
			return BrowserDump{}, fmt.Errorf("parse browser dump %s: %w", key, err)
		}
		*dst = unwrapped
	}
	return dump, nil
}

func unwrapStorageValue(val json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(val)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return trimmed, nil
	}
	var inner string
	if err := json.Unmarshal(trimmed, &inner); err != nil {
		return nil, err
	}
	if !json.Valid([]byte(inner)) {
		return nil, fmt.Errorf("value is not JSON: %q", inner)
	}
	return json.RawMessage(inner), nil
}
