// Package testutil records and replays dashboard browser sessions as HAR
// files so the scraper can be exercised without the live vendor site.
package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"testing"
)

// HARLog is the subset of the HAR format the replayer needs.
type HARLog struct {
	Entries []HAREntry `json:"entries"`
}

type HAREntry struct {
	Request  HARRequest  `json:"request"`
	Response HARResponse `json:"response"`
}

type HARRequest struct {
	Method   string       `json:"method"`
	URL      string       `json:"url"`
	Headers  []HARHeader  `json:"headers,omitempty"`
	PostData *HARPostData `json:"postData,omitempty"`
}

type HARPostData struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

// Body returns the request body, or "" when there is none.
func (r HARRequest) Body() string {
	if r.PostData == nil {
		return ""
	}
	return r.PostData.Text
}

type HARResponse struct {
	Status  int         `json:"status"`
	Headers []HARHeader `json:"headers,omitempty"`
	Content HARContent  `json:"content"`
}

type HARHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type HARContent struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
	Encoding string `json:"encoding,omitempty"` // "base64" for binary bodies
	Size     int    `json:"size,omitempty"`
}

// harFile is the wrapper Chrome DevTools puts around the log.
type harFile struct {
	Log HARLog `json:"log"`
}

// LoadHAR reads a HAR file exported by Chrome DevTools ({"log": {...}}) or
// a bare {"entries": [...]} log.
func LoadHAR(path string) (*HARLog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read HAR file: %w", err)
	}

	var wrapped harFile
	if err := json.Unmarshal(data, &wrapped); err == nil && len(wrapped.Log.Entries) > 0 {
		return &wrapped.Log, nil
	}

	var har HARLog
	if err := json.Unmarshal(data, &har); err != nil {
		return nil, fmt.Errorf("parse HAR JSON: %w", err)
	}
	return &har, nil
}

// SaveHAR writes har to path in the wrapped format, indented.
func SaveHAR(path string, har *HARLog) error {
	data, err := json.MarshalIndent(harFile{Log: *har}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal HAR: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write HAR file: %w", err)
	}
	return nil
}

// MustLoadHAR loads a HAR file and fails the test if it cannot be loaded.
func MustLoadHAR(t *testing.T, path string) *HARLog {
	t.Helper()

	har, err := LoadHAR(path)
	if err != nil {
		t.Fatalf("failed to load HAR file %s: %v", path, err)
	}
	return har
}
