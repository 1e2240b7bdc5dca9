package region

import (
	"bytes"
	"fmt"
	"io"

	"github.com/Tnze/go-mc/nbt"
	"github.com/klauspost/compress/zlib"
)

type CompressionScheme byte

const (
	CompressionGzip         CompressionScheme = 1
	CompressionZlib         CompressionScheme = 2
	CompressionUncompressed CompressionScheme = 3
	CompressionLZ4          CompressionScheme = 4
	CompressionCustom       CompressionScheme = 127

	// compressionExternal is or'ed into the scheme when the payload lives in a c.X.Z.mcc file.
	compressionExternal CompressionScheme = 0x80
)

func (s CompressionScheme) String() string {
	if s&compressionExternal != 0 {
		return fmt.Sprintf("external (%s)", s&^compressionExternal)
	}
	switch s {
	case CompressionGzip:
		return "gzip"
	case CompressionZlib:
		return "zlib"
	case CompressionUncompressed:
		return "uncompressed"
	case CompressionLZ4:
		return "lz4"
	case CompressionCustom:
		return "custom"
	default:
		return fmt.Sprintf("unknown scheme %d", byte(s))
	}
}

// payloadHeaderSize is the 4-byte length plus the compression byte.
const payloadHeaderSize = 5

// DefaultMaxDecompressedSize bounds how far a single chunk payload may inflate.
const DefaultMaxDecompressedSize = 16 << 20

// DecodeChunk decodes the payload entry points at. buf must hold the whole region file and is
// only read.
func (d *Decoder) DecodeChunk(buf []byte, entry LocationEntry) (*Chunk, error) {
	raw, err := d.inflate(buf, entry)
	if err != nil {
		return nil, err
	}

	if err = checkRequired(raw); err != nil {
		return nil, err
	}

	var chunk Chunk
	if _, err = nbt.NewDecoder(bytes.NewReader(raw)).Decode(&chunk); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSchema, err.Error())
	}
	if err = chunk.validate(); err != nil {
		return nil, err
	}
	return &chunk, nil
}

// inflate locates the payload framing for entry and returns the decompressed NBT bytes.
func (d *Decoder) inflate(buf []byte, entry LocationEntry) ([]byte, error) {
	if entry.SectorOffset < 2 {
		return nil, fmt.Errorf("%w: sector %d overlaps the region header", ErrSectorOutOfRange, entry.SectorOffset)
	}

	// 24-bit sector offsets reach 2^36 bytes, past a 32-bit int.
	start := int64(entry.SectorOffset) * SectorSize
	if start >= int64(len(buf)) || int64(len(buf))-start < payloadHeaderSize {
		return nil, fmt.Errorf("%w: sector %d, file is %d bytes", ErrSectorOutOfRange, entry.SectorOffset, len(buf))
	}
	base := int(start)

	length, err := ReadUint32(buf, base)
	if err != nil {
		return nil, err
	}
	scheme, err := ReadUint8(buf, base+4)
	if err != nil {
		return nil, err
	}

	windowEnd := start + int64(entry.SectorCount)*SectorSize
	if windowEnd > int64(len(buf)) {
		windowEnd = int64(len(buf))
	}
	// length counts the compression byte, which sits inside the header.
	if length == 0 || int64(length) > windowEnd-start-4 {
		return nil, fmt.Errorf("%w: %d bytes in a %d sector window", ErrInvalidChunkLength, length, entry.SectorCount)
	}

	if CompressionScheme(scheme) != CompressionZlib {
		return nil, &CompressionError{Scheme: CompressionScheme(scheme)}
	}

	body := buf[base+payloadHeaderSize : base+4+int(length)]
	zr, err := zlib.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorruptPayload, err.Error())
	}
	defer zr.Close()

	limit := d.maxDecompressedSize()
	raw, err := io.ReadAll(io.LimitReader(zr, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorruptPayload, err.Error())
	}
	if int64(len(raw)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrPayloadTooLarge, limit)
	}
	return raw, nil
}
