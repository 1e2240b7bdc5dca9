// Package slime exports decoded region chunks in a Slime-style world container.
//
// The header follows Slime v3 (bounds plus a populated-chunk bitmask), but sections carry the
// 1.18+ block_states/biomes palettes as NBT instead of legacy nibble arrays. The version byte
// is therefore PaletteVersion, which stock Slime loaders reject.
package slime

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/Tnze/go-mc/nbt"
	"github.com/klauspost/compress/zstd"
	"github.com/willf/bitset"

	"github.com/astei/anvilregion/region"
)

const Header = 0xB10B

// PaletteVersion marks the v3 header with palette sections. The high bit keeps it out of the
// range of official Slime versions.
const PaletteVersion = 0x80 | 3

var ErrBoundsTooLarge = errors.New("slime: chunk bounds do not fit the header")
var ErrDuplicateChunk = errors.New("slime: two chunks share a position")

// Bounds is the chunk rectangle the header describes.
type Bounds struct {
	MinX, MinZ    int
	Width, Depth int
}

// Index is the position of chunk x, z in the populated bitmask and the chunk blob.
func (b Bounds) Index(x, z int32) int {
	return (int(z)-b.MinZ)*b.Width + (int(x) - b.MinX)
}

func chunkBounds(chunks []*region.Chunk) (Bounds, error) {
	if len(chunks) == 0 {
		return Bounds{}, nil
	}
	minX, maxX := int(chunks[0].X), int(chunks[0].X)
	minZ, maxZ := int(chunks[0].Z), int(chunks[0].Z)
	for _, chunk := range chunks[1:] {
		x, z := int(chunk.X), int(chunk.Z)
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if z < minZ {
			minZ = z
		}
		if z > maxZ {
			maxZ = z
		}
	}
	b := Bounds{MinX: minX, MinZ: minZ, Width: maxX - minX + 1, Depth: maxZ - minZ + 1}
	if minX < math.MinInt16 || minZ < math.MinInt16 || maxX > math.MaxInt16 || maxZ > math.MaxInt16 ||
		b.Width > math.MaxUint16 || b.Depth > math.MaxUint16 {
		return b, fmt.Errorf("%w: %d,%d to %d,%d", ErrBoundsTooLarge, minX, minZ, maxX, maxZ)
	}
	return b, nil
}

// Write serializes chunks to writer. Nil chunks are skipped.
func Write(writer io.Writer, chunks []*region.Chunk) error {
	var present []*region.Chunk
	for _, chunk := range chunks {
		if chunk != nil {
			present = append(present, chunk)
		}
	}

	bounds, err := chunkBounds(present)
	if err != nil {
		return err
	}
	populated := bitset.New(uint(bounds.Width * bounds.Depth))
	for _, chunk := range present {
		idx := uint(bounds.Index(chunk.X, chunk.Z))
		if populated.Test(idx) {
			return fmt.Errorf("%w: %d,%d", ErrDuplicateChunk, chunk.X, chunk.Z)
		}
		populated.Set(idx)
	}
	sort.Slice(present, func(one, two int) bool {
		return bounds.Index(present[one].X, present[one].Z) < bounds.Index(present[two].X, present[two].Z)
	})

	zstdWriter, err := zstd.NewWriter(io.Discard)
	if err != nil {
		return err
	}
	defer zstdWriter.Close()

	w := &slimeWriter{writer: writer, chunks: present, bounds: bounds, populated: populated, zstdWriter: zstdWriter}
	return w.writeWorld()
}

// WriteRegion serializes every decoded chunk of r.
func WriteRegion(writer io.Writer, r *region.RegionFile) error {
	return Write(writer, r.Chunks[:])
}

type slimeWriter struct {
	writer     io.Writer
	chunks     []*region.Chunk
	bounds     Bounds
	populated  *bitset.BitSet
	zstdWriter *zstd.Encoder
}

func (w *slimeWriter) writeWorld() (err error) {
	if err = w.writeHeader(); err != nil {
		return
	}
	if err = w.writeChunks(); err != nil {
		return
	}
	if err = w.writeCompressedNbt(struct {
		Tiles []map[string]interface{} `nbt:"tiles"`
	}{Tiles: []map[string]interface{}{}}, "tiles"); err != nil {
		return
	}
	if err = w.writeCompressedNbt(struct {
		Entities []map[string]interface{} `nbt:"entities"`
	}{Entities: []map[string]interface{}{}}, "entities"); err != nil {
		return
	}
	return w.writeCompressedNbt(map[string]interface{}{}, "extra")
}

func (w *slimeWriter) writeHeader() (err error) {
	var header struct {
		Magic   uint16
		Version uint8
		MinX    int16
		MinZ    int16
		Width   uint16
		Depth   uint16
	}
	header.Magic = Header
	header.Version = PaletteVersion
	header.MinX = int16(w.bounds.MinX)
	header.MinZ = int16(w.bounds.MinZ)
	header.Width = uint16(w.bounds.Width)
	header.Depth = uint16(w.bounds.Depth)

	if err = binary.Write(w.writer, binary.BigEndian, header); err != nil {
		return
	}
	_, err = w.writer.Write(bitmaskBytes(w.populated, w.bounds.Width*w.bounds.Depth))
	return
}

// bitmaskBytes lays bit i out at byte i/8, bit i%8, padded to cover bits.
func bitmaskBytes(set *bitset.BitSet, bits int) []byte {
	out := make([]byte, (bits+7)/8)
	for i, ok := set.NextSet(0); ok; i, ok = set.NextSet(i + 1) {
		out[i/8] |= 1 << (i % 8)
	}
	return out
}

func (w *slimeWriter) writeChunks() (err error) {
	var out bytes.Buffer

	if err = binary.Write(&out, binary.BigEndian, uint32(len(w.chunks))); err != nil {
		return
	}

	for _, chunk := range w.chunks {
		if err = w.writeChunkHeader(chunk, &out); err != nil {
			return
		}

		if err = binary.Write(&out, binary.BigEndian, uint32(len(chunk.Sections))); err != nil {
			return
		}

		for _, section := range chunk.SortedSections() {
			if err = w.writeChunkSection(section, &out); err != nil {
				return
			}
		}
	}

	return w.writeZstdCompressed(&out)
}

func (w *slimeWriter) writeChunkHeader(chunk *region.Chunk, out io.Writer) (err error) {
	if err = binary.Write(out, binary.BigEndian, chunk.X); err != nil {
		return
	}
	if err = binary.Write(out, binary.BigEndian, chunk.Z); err != nil {
		return
	}

	heightmaps := chunk.Heightmaps
	if heightmaps == nil {
		heightmaps = map[string][]int64{}
	}
	return w.writeNbt(heightmaps, "Heightmaps", out)
}

func (w *slimeWriter) writeChunkSection(section region.Section, out io.Writer) (err error) {
	if err = binary.Write(out, binary.BigEndian, section.Y); err != nil {
		return
	}
	if err = writeLight(section.BlockLight, out); err != nil {
		return
	}
	if err = writeLight(section.SkyLight, out); err != nil {
		return
	}
	if err = w.writeNbt(section.BlockStates, "block_states", out); err != nil {
		return
	}
	return w.writeNbt(section.Biomes, "biomes", out)
}

func writeLight(light []byte, out io.Writer) (err error) {
	if err = binary.Write(out, binary.BigEndian, light != nil); err != nil {
		return
	}
	if light != nil {
		_, err = out.Write(light)
	}
	return
}

// writeZstdCompressed frames buf as compressed length, uncompressed length, compressed bytes.
func (w *slimeWriter) writeZstdCompressed(buf *bytes.Buffer) (err error) {
	uncompressedSize := buf.Len()

	var compressedOutput bytes.Buffer
	w.zstdWriter.Reset(&compressedOutput)
	if _, err = buf.WriteTo(w.zstdWriter); err != nil {
		return
	}
	if err = w.zstdWriter.Close(); err != nil {
		return
	}
	w.zstdWriter.Reset(io.Discard)

	if err = binary.Write(w.writer, binary.BigEndian, uint32(compressedOutput.Len())); err != nil {
		return
	}
	if err = binary.Write(w.writer, binary.BigEndian, uint32(uncompressedSize)); err != nil {
		return
	}
	_, err = compressedOutput.WriteTo(w.writer)
	return
}

func (w *slimeWriter) writeCompressedNbt(compound interface{}, tagName string) (err error) {
	var buf bytes.Buffer
	if err = nbt.NewEncoder(&buf).Encode(compound, tagName); err != nil {
		return
	}
	return w.writeZstdCompressed(&buf)
}

func (w *slimeWriter) writeNbt(compound interface{}, tagName string, out io.Writer) (err error) {
	var buf bytes.Buffer
	if err = nbt.NewEncoder(&buf).Encode(compound, tagName); err != nil {
		return
	}
	if err = binary.Write(out, binary.BigEndian, uint32(buf.Len())); err != nil {
		return
	}
	_, err = buf.WriteTo(out)
	return
}
