// Package articlefile reads and writes articles-data.json, a JSON array of article objects.
package articlefile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"mhp-content/internal/normalize"
)

var ErrNotArray = errors.New("article file is not a JSON array")

// Read decodes every article object in the file.
func Read(path string) ([]normalize.Raw, error) {
	raws, err := readRaw(path)
	if err != nil {
		return nil, err
	}
	out := make([]normalize.Raw, 0, len(raws))
	for i, r := range raws {
		var m map[string]any
		if err := json.Unmarshal(r, &m); err != nil || m == nil {
			return nil, fmt.Errorf("%s: element %d is not an object", path, i)
		}
		out = append(out, normalize.Raw(m))
	}
	return out, nil
}

func readRaw(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%s: %w", path, ErrNotArray)
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(trimmed, &raws); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return raws, nil
}

// Write replaces the file with items as an indented JSON array.
func Write[T any](path string, items []T) error {
	if items == nil {
		items = []T{}
	}
	return WriteJSON(path, items)
}

// WriteJSON writes v as indented JSON, creating parent directories.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Clear resets the file to an empty array.
func Clear(path string) error {
	return Write[json.RawMessage](path, nil)
}

// Append adds item to the end of the array, creating the file if needed.
// It returns the number of articles now in the file.
func Append(path string, item any) (int, error) {
	raws, err := readRaw(path)
	if errors.Is(err, os.ErrNotExist) {
		raws, err = nil, nil
	}
	if err != nil {
		return 0, err
	}
	encoded, err := json.Marshal(item)
	if err != nil {
		return 0, err
	}
	raws = append(raws, encoded)
	return len(raws), Write(path, raws)
}
