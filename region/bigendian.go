package region

import (
	"encoding/binary"
	"fmt"
)

func checkBounds(buf []byte, off, width int) error {
	if off < 0 || off > len(buf)-width {
		return fmt.Errorf("%w: %d byte read at %d, buffer is %d bytes", ErrOutOfBounds, width, off, len(buf))
	}
	return nil
}

// ReadUint32 reads a big-endian uint32 at off.
func ReadUint32(buf []byte, off int) (uint32, error) {
	if err := checkBounds(buf, off, 4); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[off:]), nil
}

// ReadUint24 reads the 3-byte big-endian value used for sector offsets.
func ReadUint24(buf []byte, off int) (uint32, error) {
	if err := checkBounds(buf, off, 3); err != nil {
		return 0, err
	}
	return uint32(buf[off])<<16 | uint32(buf[off+1])<<8 | uint32(buf[off+2]), nil
}

func ReadUint8(buf []byte, off int) (uint8, error) {
	if err := checkBounds(buf, off, 1); err != nil {
		return 0, err
	}
	return buf[off], nil
}
