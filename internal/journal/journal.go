// Package journal keeps the append-only log of successful publishes.
//
// Records accumulate in a JSON array file across runs. Appending is a
// read-modify-write of the whole file and is not safe against concurrent
// writers; the intended usage model is one interactive operator running one
// command at a time.
package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// DefaultFile is the well-known publish-record log file name.
const DefaultFile = "posted_media.json"

// Record describes one successfully published media item.
type Record struct {
	MediaID   string    `json:"media_id"`
	Code      string    `json:"media_code"`
	MediaType string    `json:"media_type"`
	Timestamp time.Time `json:"timestamp"`
	Permalink string    `json:"permalink"`
}

// Journal is the on-disk publish-record log.
type Journal struct {
	path string
}

// New returns a journal backed by the file at path.
func New(path string) *Journal {
	return &Journal{path: path}
}

// Records returns all stored records in append order. A missing or corrupt
// file reads as an empty log.
func (j *Journal) Records() []Record {
	data, err := os.ReadFile(j.path)
	if err != nil {
		return nil
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil
	}
	return records
}

// Append adds rec to the log, rewriting the whole file.
func (j *Journal) Append(rec Record) error {
	records := append(j.Records(), rec)

	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal publish records: %w", err)
	}
	if err := os.WriteFile(j.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write publish records: %w", err)
	}
	return nil
}
