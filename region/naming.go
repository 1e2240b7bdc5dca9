package region

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

var ErrRegionName = errors.New("anvil: not a region file name")

// RegionName returns the file name of the region holding chunks rx*32..rx*32+31, rz*32..rz*32+31.
func RegionName(rx, rz int) string {
	return fmt.Sprintf("r.%d.%d.mca", rx, rz)
}

// ParseRegionName extracts region coordinates from a path ending in r.<rx>.<rz>.mca.
func ParseRegionName(name string) (rx, rz int, err error) {
	base := filepath.Base(name)
	fields := strings.Split(base, ".")
	if len(fields) != 4 || fields[0] != "r" || fields[3] != "mca" {
		return 0, 0, fmt.Errorf("%w: %q", ErrRegionName, base)
	}
	if rx, err = strconv.Atoi(fields[1]); err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrRegionName, base)
	}
	if rz, err = strconv.Atoi(fields[2]); err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrRegionName, base)
	}
	return rx, rz, nil
}

// Coordinates returns the absolute chunk coordinates of slot i in region rx, rz.
func Coordinates(rx, rz, i int) (x, z int) {
	return rx*32 + i%32, rz*32 + i/32
}

// Misplaced lists the slots whose chunk reports a position other than the one its slot in
// region rx, rz implies.
func (r *RegionFile) Misplaced(rx, rz int) []int {
	var slots []int
	for i, chunk := range r.Chunks {
		if chunk == nil {
			continue
		}
		x, z := Coordinates(rx, rz, i)
		if int(chunk.X) != x || int(chunk.Z) != z {
			slots = append(slots, i)
		}
	}
	return slots
}
