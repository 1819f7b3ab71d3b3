package sim

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// LoadLevel reads a level JSON file and validates it against the default
// shapes.
func LoadLevel(path string) (*Level, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read level: %w", err)
	}
	var l Level
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("failed to parse level JSON: %w", err)
	}
	if err := l.Validate(len(DefaultShapes())); err != nil {
		return nil, err
	}
	return &l, nil
}

// WriteLevel saves l as indented JSON.
func WriteLevel(path string, l *Level) error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode level: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write level: %w", err)
	}
	return nil
}
