package rules

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrCorruptRules is returned alongside the default table when the rules
// file exists but cannot be read or parsed.
var ErrCorruptRules = errors.New("rules file unreadable, using defaults")

// Load reads a flat "extension: folder" YAML document. A missing file is
// not an error. Any other failure still returns the default table, with
// an error wrapping ErrCorruptRules so callers can warn.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("%w: %v", ErrCorruptRules, err)
	}

	var mapping map[string]string
	if err := yaml.Unmarshal(data, &mapping); err != nil {
		return Default(), fmt.Errorf("%w: %v", ErrCorruptRules, err)
	}
	if mapping == nil {
		return Default(), nil
	}

	t, err := New(mapping)
	if err != nil {
		// Bad rows are dropped; the rest of the file is still honored.
		return t, fmt.Errorf("%w: %v", ErrCorruptRules, err)
	}
	return t, nil
}

// Save overwrites path with the table contents.
func Save(path string, t *Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(t.Mapping())
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".rules-*.yaml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
