package region

import (
	"fmt"
	"time"
)

const (
	SlotCount  = 1024
	SectorSize = 4096
	// HeaderSize covers the location table followed by the timestamp table.
	HeaderSize = 2 * SectorSize
)

// LocationEntry describes where a slot's payload lives in the file.
type LocationEntry struct {
	Index int
	// Offset from the start of the file in 4KiB sectors (24 bits on disk).
	SectorOffset uint32
	SectorCount  uint8
	// Unix seconds of the last write.
	Timestamp uint32
}

// Unloaded reports whether the slot was never written. Such entries must not be followed
// into the file body.
func (e LocationEntry) Unloaded() bool {
	return e.SectorOffset == 0 && e.SectorCount == 0 && e.Timestamp == 0
}

func (e LocationEntry) X() int {
	return e.Index % 32
}

func (e LocationEntry) Z() int {
	return e.Index / 32
}

func (e LocationEntry) LastModified() time.Time {
	return time.Unix(int64(e.Timestamp), 0).UTC()
}

func (e LocationEntry) String() string {
	if e.Unloaded() {
		return fmt.Sprintf("slot %d: unloaded", e.Index)
	}
	return fmt.Sprintf("slot %d: sector %d+%d", e.Index, e.SectorOffset, e.SectorCount)
}

// SlotIndex maps region-local chunk coordinates to a slot. Coordinates outside [0,32) wrap,
// so absolute chunk coordinates may be passed directly.
func SlotIndex(x, z int) int {
	return (x & 31) + (z&31)*32
}

// ParseLocations reads the location and timestamp tables from the first 8KiB of a region file.
func ParseLocations(buf []byte) (entries [SlotCount]LocationEntry, err error) {
	if len(buf) < HeaderSize {
		return entries, fmt.Errorf("%w: %d bytes", ErrHeaderTooShort, len(buf))
	}

	for i := 0; i < SlotCount; i++ {
		entry := &entries[i]
		entry.Index = i
		if entry.SectorOffset, err = ReadUint24(buf, 4*i); err != nil {
			return
		}
		if entry.SectorCount, err = ReadUint8(buf, 4*i+3); err != nil {
			return
		}
		if entry.Timestamp, err = ReadUint32(buf, SectorSize+4*i); err != nil {
			return
		}
	}
	return entries, nil
}
