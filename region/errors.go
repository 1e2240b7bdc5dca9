package region

import (
	"errors"
	"fmt"
)

var ErrOutOfBounds = errors.New("anvil: read out of bounds")
var ErrHeaderTooShort = errors.New("anvil: file too short for region header")
var ErrSectorOutOfRange = errors.New("anvil: chunk sector out of range")
var ErrInvalidChunkLength = errors.New("anvil: invalid chunk length")
var ErrUnsupportedCompression = errors.New("anvil: unsupported compression format")
var ErrCorruptPayload = errors.New("anvil: corrupt chunk payload")
var ErrPayloadTooLarge = errors.New("anvil: decompressed chunk exceeds size limit")
var ErrSchema = errors.New("anvil: chunk does not match expected structure")

// CompressionError reports a compression scheme byte this reader does not handle.
type CompressionError struct {
	Scheme CompressionScheme
}

func (e *CompressionError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnsupportedCompression, e.Scheme)
}

func (e *CompressionError) Unwrap() error {
	return ErrUnsupportedCompression
}

// SlotError records why a single slot could not be decoded. It never aborts the region.
type SlotError struct {
	Index int
	X, Z  int
	Err   error
}

func (e *SlotError) Error() string {
	return fmt.Sprintf("chunk %d,%d (slot %d): %s", e.X, e.Z, e.Index, e.Err.Error())
}

func (e *SlotError) Unwrap() error {
	return e.Err
}
