package region

import (
	"fmt"
	"sort"
	"strings"
)

// LightArraySize is the length of a section's nibble-packed light array.
const LightArraySize = 2048

// Chunk is the decoded root compound of a chunk payload (1.18+ layout).
type Chunk struct {
	DataVersion   int32  `nbt:"DataVersion"`
	X             int32  `nbt:"xPos"`
	Z             int32  `nbt:"zPos"`
	Y             int32  `nbt:"yPos"`
	Status        string `nbt:"Status"`
	LastUpdate    int64  `nbt:"LastUpdate"`
	InhabitedTime int64  `nbt:"InhabitedTime"`

	// Packed heightmap words, kept as stored.
	Heightmaps map[string][]int64 `nbt:"Heightmaps,omitempty"`

	// Sections are not guaranteed to be sorted by Y.
	Sections []Section `nbt:"sections"`
}

// Section is one 16x16x16 cube. Sections just outside the build height carry only light and
// decode with empty palettes.
type Section struct {
	Y           int16       `nbt:"Y"`
	BlockStates BlockStates `nbt:"block_states"`
	Biomes      Biomes      `nbt:"biomes"`

	BlockLight []byte `nbt:"BlockLight,omitempty"`
	SkyLight   []byte `nbt:"SkyLight,omitempty"`
}

// BlockStates holds a section palette and the packed index words referencing it. Data is not
// unpacked and is absent when the palette has a single entry.
type BlockStates struct {
	Palette []PaletteBlock `nbt:"palette"`
	Data    []int64        `nbt:"data,omitempty"`
}

type Biomes struct {
	Palette []string `nbt:"palette"`
	Data    []int64  `nbt:"data,omitempty"`
}

type PaletteBlock struct {
	Name       string           `nbt:"Name"`
	Properties *BlockProperties `nbt:"Properties,omitempty"`
}

// BlockProperties models a fixed set of block state properties. Properties with any other
// name are dropped when a palette is decoded.
type BlockProperties struct {
	Level       string `nbt:"level,omitempty"`
	Snowy       string `nbt:"snowy,omitempty"`
	Distance    string `nbt:"distance,omitempty"`
	Persistent  string `nbt:"persistent,omitempty"`
	Waterlogged string `nbt:"waterlogged,omitempty"`
	Axis        string `nbt:"axis,omitempty"`
	Facing      string `nbt:"facing,omitempty"`
	Half        string `nbt:"half,omitempty"`
	Type        string `nbt:"type,omitempty"`
	Age         string `nbt:"age,omitempty"`
	Lit         string `nbt:"lit,omitempty"`
	Powered     string `nbt:"powered,omitempty"`
	Open        string `nbt:"open,omitempty"`
	Part        string `nbt:"part,omitempty"`
	Shape       string `nbt:"shape,omitempty"`
}

// Map returns the properties that are set, keyed by their NBT name.
func (p *BlockProperties) Map() map[string]string {
	m := make(map[string]string)
	if p == nil {
		return m
	}
	for _, kv := range []struct {
		name  string
		value string
	}{
		{"level", p.Level},
		{"snowy", p.Snowy},
		{"distance", p.Distance},
		{"persistent", p.Persistent},
		{"waterlogged", p.Waterlogged},
		{"axis", p.Axis},
		{"facing", p.Facing},
		{"half", p.Half},
		{"type", p.Type},
		{"age", p.Age},
		{"lit", p.Lit},
		{"powered", p.Powered},
		{"open", p.Open},
		{"part", p.Part},
		{"shape", p.Shape},
	} {
		if kv.value != "" {
			m[kv.name] = kv.value
		}
	}
	return m
}

func (b PaletteBlock) String() string {
	props := b.Properties.Map()
	if len(props) == 0 {
		return b.Name
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		keys[i] = k + "=" + props[k]
	}
	return b.Name + "[" + strings.Join(keys, ",") + "]"
}

// Uniform returns the block filling the whole section when the palette has one entry.
func (b *BlockStates) Uniform() (PaletteBlock, bool) {
	if len(b.Palette) != 1 {
		return PaletteBlock{}, false
	}
	return b.Palette[0], true
}

func (b *Biomes) Uniform() (string, bool) {
	if len(b.Palette) != 1 {
		return "", false
	}
	return b.Palette[0], true
}

// Section returns the section at vertical index y, or nil.
func (c *Chunk) Section(y int16) *Section {
	for i := range c.Sections {
		if c.Sections[i].Y == y {
			return &c.Sections[i]
		}
	}
	return nil
}

// SortedSections returns a copy of the sections ordered by ascending Y.
func (c *Chunk) SortedSections() []Section {
	sorted := append([]Section(nil), c.Sections...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Y < sorted[j].Y
	})
	return sorted
}

func (c *Chunk) validate() error {
	for _, section := range c.Sections {
		if section.BlockLight != nil && len(section.BlockLight) != LightArraySize {
			return fmt.Errorf("%w: section %d: invalid block light size %d", ErrSchema, section.Y, len(section.BlockLight))
		}
		if section.SkyLight != nil && len(section.SkyLight) != LightArraySize {
			return fmt.Errorf("%w: section %d: invalid sky light size %d", ErrSchema, section.Y, len(section.SkyLight))
		}
		if len(section.BlockStates.Palette) > 1 && len(section.BlockStates.Data) == 0 {
			return fmt.Errorf("%w: section %d: block palette of %d entries without data", ErrSchema, section.Y, len(section.BlockStates.Palette))
		}
		if len(section.Biomes.Palette) > 1 && len(section.Biomes.Data) == 0 {
			return fmt.Errorf("%w: section %d: biome palette of %d entries without data", ErrSchema, section.Y, len(section.Biomes.Palette))
		}
	}
	return nil
}
