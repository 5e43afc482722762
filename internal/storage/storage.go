// Package storage persists the authenticated-session blob.
//
// The blob is opaque here: it is produced and consumed by the remote media
// client. This package only moves it to and from a single well-known file in
// the working directory.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrNoSession is returned by Load when no session file exists.
var ErrNoSession = errors.New("no stored session")

// SessionStore reads and writes the session blob at a fixed path.
type SessionStore struct {
	path string
}

// NewSessionStore returns a store backed by the file at path.
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path}
}

// Path returns the backing file path.
func (s *SessionStore) Path() string {
	return s.path
}

// Save writes the session blob, replacing any previous one.
func (s *SessionStore) Save(blob []byte) error {
	if !json.Valid(blob) {
		return errors.New("refusing to store non-JSON session blob")
	}
	if err := os.WriteFile(s.path, blob, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Load returns the stored blob, or ErrNoSession when the file is absent.
// A file that is not valid JSON is reported as an error; deciding whether to
// discard it is the caller's business.
func (s *SessionStore) Load() ([]byte, error) {
	blob, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	if !json.Valid(blob) {
		return nil, errors.New("session file is corrupt")
	}
	return blob, nil
}

// Exists reports whether a session file is present.
func (s *SessionStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Delete removes the session file. Absence is not an error.
func (s *SessionStore) Delete() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}
