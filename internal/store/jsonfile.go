// Package store reads and writes the JSON files a labeling session owns.
// Writes go through a temp file in the destination directory followed by
// a rename, so readers never observe a half-written file.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"sentlabel/internal/record"
)

// ErrNotArray is returned when a file parses as JSON but is not an array
// of objects.
var ErrNotArray = errors.New("not a JSON array of objects")

// ReadRecords loads a JSON array of objects.
func ReadRecords(path string) ([]*record.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeRecords(data)
}

// DecodeRecords parses a JSON array of objects.
func DecodeRecords(data []byte) ([]*record.Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrNotArray
	}
	var recs []*record.Record
	if err := json.Unmarshal(trimmed, &recs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotArray, err)
	}
	for i, r := range recs {
		if r == nil {
			return nil, fmt.Errorf("%w: element %d is null", ErrNotArray, i)
		}
	}
	return recs, nil
}

// WriteRecords writes recs as an indented JSON array. A nil slice is
// written as [].
func WriteRecords(path string, recs []*record.Record) error {
	if recs == nil {
		recs = []*record.Record{}
	}
	return WriteJSON(path, recs)
}

// WriteJSON writes v as two-space indented JSON, atomically.
func WriteJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return WriteFileAtomic(path, buf.Bytes(), 0644)
}

// WriteFileAtomic replaces path with data via a sibling temp file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
