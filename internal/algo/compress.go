// Package algo implements zone compression and path search for the planner.
package algo

import (
	"errors"
	"fmt"

	"github.com/elektrokombinacija/zoneplan/internal/core"
)

// ErrZoneSize is returned for a non-positive zone size.
var ErrZoneSize = errors.New("zone size must be positive")

// Compress downsamples fine into a zone grid of z×z blocks.
//
// A zone is Blocked when its top-left fine cell equals background and Free
// otherwise. Only that one sample is read: this is a cheap approximation, not
// an occupancy scan, and a zone whose corner happens to be background is
// treated as a wall. The agent's zone becomes START and the target's zone END;
// positions outside the fine grid leave their marker unset.
func Compress(fine core.FineGrid, z int, background core.Color, agent, target core.Point) (*core.OccupancyGrid, error) {
	g, err := CompressZones(fine, z, background)
	if err != nil {
		return nil, err
	}
	if fine.InBounds(agent) {
		g.SetStart(agent.Zone(z))
	}
	if fine.InBounds(target) {
		g.SetEnd(target.Zone(z))
	}
	return g, nil
}

// CompressZones builds the zone grid without START/END markers.
func CompressZones(fine core.FineGrid, z int, background core.Color) (*core.OccupancyGrid, error) {
	if z <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrZoneSize, z)
	}
	if err := fine.Validate(); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}

	rows := (fine.Height() + z - 1) / z
	cols := (fine.Width() + z - 1) / z
	g := core.NewOccupancyGrid(rows, cols)

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if fine[r*z][c*z] == background {
				g.Set(core.Cell{Row: r, Col: c}, core.Blocked)
			}
		}
	}
	return g, nil
}
