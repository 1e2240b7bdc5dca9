package region

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/Tnze/go-mc/nbt"
	"github.com/klauspost/compress/zlib"
)

func testChunk(x, z int32) Chunk {
	skyLight := make([]byte, LightArraySize)
	for i := range skyLight {
		skyLight[i] = 0xff
	}
	return Chunk{
		DataVersion:   3465,
		X:             x,
		Z:             z,
		Y:             -4,
		Status:        "minecraft:full",
		LastUpdate:    91817,
		InhabitedTime: 1024,
		Heightmaps: map[string][]int64{
			"WORLD_SURFACE": make([]int64, 37),
		},
		Sections: []Section{
			{
				Y: 0,
				BlockStates: BlockStates{
					Palette: []PaletteBlock{
						{Name: "minecraft:stone"},
						{Name: "minecraft:oak_log", Properties: &BlockProperties{Axis: "y"}},
						{Name: "minecraft:water", Properties: &BlockProperties{Level: "0"}},
					},
					Data: []int64{0x1111111111111111, 0x2, -1},
				},
				Biomes: Biomes{
					Palette: []string{"minecraft:plains", "minecraft:river"},
					Data:    []int64{0x5},
				},
				SkyLight: skyLight,
			},
			{
				Y: -4,
				BlockStates: BlockStates{
					Palette: []PaletteBlock{{Name: "minecraft:bedrock"}},
				},
				Biomes: Biomes{
					Palette: []string{"minecraft:plains"},
				},
				BlockLight: make([]byte, LightArraySize),
			},
		},
	}
}

// rawChunk is the untyped form of a minimal valid chunk, for fixtures that drop or retype tags.
func rawChunk() map[string]interface{} {
	return map[string]interface{}{
		"DataVersion": int32(3465),
		"xPos":        int32(4),
		"zPos":        int32(-9),
		"yPos":        int32(-4),
		"Status":      "minecraft:full",
		"LastUpdate":  int64(20),
		"sections": []map[string]interface{}{
			{
				"Y": int8(0),
				"block_states": map[string]interface{}{
					"palette": []map[string]interface{}{{"Name": "minecraft:stone"}},
				},
				"biomes": map[string]interface{}{
					"palette": []string{"minecraft:plains"},
				},
			},
		},
	}
}

func rawSection(chunk map[string]interface{}) map[string]interface{} {
	return chunk["sections"].([]map[string]interface{})[0]
}

func encodeNBT(t *testing.T, v interface{}) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := nbt.NewEncoder(&buf).Encode(v, ""); err != nil {
		t.Fatalf("could not encode nbt: %v", err)
	}
	return buf.Bytes()
}

func zlibBytes(t *testing.T, raw []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(raw); err != nil {
		t.Fatalf("could not compress: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("could not compress: %v", err)
	}
	return buf.Bytes()
}

// regionBuilder lays payloads out one after another starting at sector 2.
type regionBuilder struct {
	header [HeaderSize]byte
	body   []byte
}

func (b *regionBuilder) sectors() int {
	return 2 + len(b.body)/SectorSize
}

// putRaw stores a payload with an explicit compression byte.
func (b *regionBuilder) putRaw(slot int, scheme byte, payload []byte) {
	offset := b.sectors()

	var frame bytes.Buffer
	_ = binary.Write(&frame, binary.BigEndian, uint32(len(payload)+1))
	frame.WriteByte(scheme)
	frame.Write(payload)
	count := (frame.Len() + SectorSize - 1) / SectorSize
	padded := make([]byte, count*SectorSize)
	copy(padded, frame.Bytes())
	b.body = append(b.body, padded...)

	b.setLocation(slot, uint32(offset), uint8(count), 1700000000+uint32(slot))
}

func (b *regionBuilder) putChunk(t *testing.T, slot int, chunk Chunk) {
	t.Helper()
	b.putRaw(slot, byte(CompressionZlib), zlibBytes(t, encodeNBT(t, chunk)))
}

func (b *regionBuilder) setLocation(slot int, offset uint32, count uint8, timestamp uint32) {
	binary.BigEndian.PutUint32(b.header[4*slot:], offset<<8|uint32(count))
	binary.BigEndian.PutUint32(b.header[SectorSize+4*slot:], timestamp)
}

func (b *regionBuilder) bytes() []byte {
	return append(append([]byte(nil), b.header[:]...), b.body...)
}
