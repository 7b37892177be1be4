// Package persist provides best-effort JSON persistence of application state.
//
// Load never fails: a missing or corrupt file yields the caller-supplied
// default. Save failures are returned so callers can log them, but callers
// are expected to keep the in-memory state and continue.
package persist

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Load reads the JSON file at path into a value of type T. A missing file,
// unreadable file, or invalid JSON returns def.
func Load[T any](path string, def T) T {
	data, err := os.ReadFile(path)
	if err != nil {
		return def
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return def
	}
	return v
}

// Save writes v to path as indented JSON, creating parent directories as
// needed. The write goes through a temp file and rename so a crash mid-write
// cannot leave a truncated file behind.
func Save(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
