// Package scene turns a parsed frame snapshot into a planning state.
package scene

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/elektrokombinacija/zoneplan/internal/core"
)

// Snapshot is one frame: the fine grid plus the objects found in it.
type Snapshot struct {
	Grid       core.FineGrid     `json:"grid"`
	Background core.Color        `json:"background"`
	Budget     *int              `json:"budget,omitempty"`
	Objects    []core.GridObject `json:"objects"`
}

const maxSnapshotSize = 16 * 1024 * 1024

// LoadSnapshot reads a snapshot JSON file.
func LoadSnapshot(path string) (*Snapshot, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("snapshot file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat snapshot: %w", err)
	}
	if info.Size() > maxSnapshotSize {
		return nil, fmt.Errorf("snapshot too large: %d bytes (max %d)", info.Size(), maxSnapshotSize)
	}

	f, err := os.Open(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()
	return ReadSnapshot(f)
}

// ReadSnapshot decodes and validates a snapshot.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot JSON: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}
	return &s, nil
}

// Validate checks the grid shape and the object fields.
func (s *Snapshot) Validate() error {
	if err := s.Grid.Validate(); err != nil {
		return err
	}
	if !s.Background.Valid() {
		return fmt.Errorf("background %d outside palette", s.Background)
	}
	if s.Budget != nil && *s.Budget < 0 {
		return fmt.Errorf("budget must be non-negative, got %d", *s.Budget)
	}
	for i, o := range s.Objects {
		if o.Region.X2 < o.Region.X1 || o.Region.Y2 < o.Region.Y1 {
			return fmt.Errorf("object %d: inverted region %+v", i, o.Region)
		}
	}
	return nil
}

// WriteSnapshot saves s as indented JSON.
func WriteSnapshot(path string, s *Snapshot) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// ApplyConsumed paints each region with the background colour so the next
// compression treats those zones as blocked.
func ApplyConsumed(fine core.FineGrid, background core.Color, regions []core.Region) {
	for _, r := range regions {
		fine.Fill(r, background)
	}
}
