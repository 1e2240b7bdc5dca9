package region

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/Tnze/go-mc/nbt"
)

// requiredChunkTags must be present in every chunk root. yPos only exists in newer versions.
var requiredChunkTags = []string{"DataVersion", "xPos", "zPos", "Status", "LastUpdate", "sections"}

// checkRequired walks the untyped tag tree of a chunk and reports the first required tag
// that is missing. The typed decode fills absent tags with zero values, so this has to run
// on the raw compound.
func checkRequired(raw []byte) error {
	var root map[string]interface{}
	if _, err := nbt.NewDecoder(bytes.NewReader(raw)).Decode(&root); err != nil {
		return fmt.Errorf("%w: %s", ErrSchema, err.Error())
	}

	if _, ok := root["Level"]; ok {
		if _, ok := root["sections"]; !ok {
			return fmt.Errorf("%w: pre-1.18 chunk layout (Level root)", ErrSchema)
		}
	}
	if err := requireTags("chunk", root, requiredChunkTags...); err != nil {
		return err
	}

	sections, ok := compoundList(root["sections"])
	if !ok {
		return fmt.Errorf("%w: sections is not a list of compounds", ErrSchema)
	}
	for i, section := range sections {
		if err := checkSection(i, section); err != nil {
			return err
		}
	}
	return nil
}

func checkSection(i int, section map[string]interface{}) error {
	where := fmt.Sprintf("section %d", i)
	if err := requireTags(where, section, "Y"); err != nil {
		return err
	}

	_, hasBlocks := section["block_states"]
	_, hasBiomes := section["biomes"]
	if !hasBlocks && !hasBiomes {
		// Sections just outside the build height only carry light.
		_, hasBlockLight := section["BlockLight"]
		_, hasSkyLight := section["SkyLight"]
		if hasBlockLight || hasSkyLight {
			return nil
		}
	}
	if err := requireTags(where, section, "block_states", "biomes"); err != nil {
		return err
	}

	blockStates, ok := section["block_states"].(map[string]interface{})
	if !ok {
		return fmt.Errorf("%w: %s: block_states is not a compound", ErrSchema, where)
	}
	if err := requireTags(where+" block_states", blockStates, "palette"); err != nil {
		return err
	}
	palette, ok := compoundList(blockStates["palette"])
	if !ok {
		return fmt.Errorf("%w: %s: block palette is not a list of compounds", ErrSchema, where)
	}
	for j, entry := range palette {
		if err := requireTags(fmt.Sprintf("%s palette entry %d", where, j), entry, "Name"); err != nil {
			return err
		}
	}

	biomes, ok := section["biomes"].(map[string]interface{})
	if !ok {
		return fmt.Errorf("%w: %s: biomes is not a compound", ErrSchema, where)
	}
	return requireTags(where+" biomes", biomes, "palette")
}

func requireTags(where string, compound map[string]interface{}, names ...string) error {
	for _, name := range names {
		if _, ok := compound[name]; !ok {
			return fmt.Errorf("%w: %s: missing %s", ErrSchema, where, name)
		}
	}
	return nil
}

// compoundList accepts any decoded list whose elements are all compounds. An empty list may
// decode as nil.
func compoundList(v interface{}) ([]map[string]interface{}, bool) {
	if v == nil {
		return nil, true
	}
	list := reflect.ValueOf(v)
	if list.Kind() != reflect.Slice {
		return nil, false
	}
	out := make([]map[string]interface{}, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		compound, ok := list.Index(i).Interface().(map[string]interface{})
		if !ok {
			return nil, false
		}
		out = append(out, compound)
	}
	return out, true
}
