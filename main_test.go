package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Tnze/go-mc/nbt"
	"github.com/klauspost/compress/zlib"

	"github.com/astei/anvilregion/region"
	"github.com/astei/anvilregion/slime"
)

// writeRegion stores one chunk at slot 1 (x=1, z=0) and a gzip payload at slot 2.
func writeRegion(t *testing.T, dir string, chunkX, chunkZ int32) string {
	t.Helper()
	chunk := region.Chunk{
		DataVersion: 3700,
		X:           chunkX,
		Z:           chunkZ,
		Status:      "minecraft:full",
		Sections: []region.Section{
			{
				Y:           5,
				BlockStates: region.BlockStates{Palette: []region.PaletteBlock{{Name: "minecraft:oak_log", Properties: &region.BlockProperties{Axis: "x"}}}},
				Biomes:      region.Biomes{Palette: []string{"minecraft:forest"}},
			},
			{
				Y:           -2,
				BlockStates: region.BlockStates{Palette: []region.PaletteBlock{{Name: "minecraft:stone"}}},
				Biomes:      region.Biomes{Palette: []string{"minecraft:forest"}},
				SkyLight:    make([]byte, region.LightArraySize),
			},
		},
	}
	var raw bytes.Buffer
	if err := nbt.NewEncoder(&raw).Encode(chunk, ""); err != nil {
		t.Fatal(err)
	}
	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	_, _ = zw.Write(raw.Bytes())
	_ = zw.Close()

	file := make([]byte, 4*region.SectorSize)
	put := func(slot int, sector uint32, scheme byte, payload []byte) {
		binary.BigEndian.PutUint32(file[4*slot:], sector<<8|1)
		binary.BigEndian.PutUint32(file[region.SectorSize+4*slot:], 1700000000)
		base := int(sector) * region.SectorSize
		binary.BigEndian.PutUint32(file[base:], uint32(len(payload)+1))
		file[base+4] = scheme
		copy(file[base+5:], payload)
	}
	put(1, 2, 2, compressed.Bytes())
	put(2, 3, 1, []byte{0x1f, 0x8b})

	path := filepath.Join(dir, region.RegionName(0, 0))
	if err := os.WriteFile(path, file, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = run(append([]string{"anvilregion"}, args...), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestMissingFilename(t *testing.T) {
	for _, args := range [][]string{nil, {"inspect"}, {"chunk"}, {"slime"}} {
		code, _, stderr := runCLI(args...)
		if code != 1 {
			t.Errorf("%v: exit code %d, want 1", args, code)
		}
		if !strings.Contains(stderr, "error: a filename is required.") {
			t.Errorf("%v: stderr %q", args, stderr)
		}
	}
}

func TestMissingFile(t *testing.T) {
	code, _, stderr := runCLI(filepath.Join(t.TempDir(), "r.0.0.mca"))
	if code != 1 || !strings.Contains(stderr, "error: ") {
		t.Errorf("exit code %d, stderr %q", code, stderr)
	}
}

func TestShortFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.0.0.mca")
	if err := os.WriteFile(path, make([]byte, 100), 0644); err != nil {
		t.Fatal(err)
	}
	code, _, stderr := runCLI(path)
	if code != 1 || !strings.Contains(stderr, "too short") {
		t.Errorf("exit code %d, stderr %q", code, stderr)
	}
}

func TestInspect(t *testing.T) {
	path := writeRegion(t, t.TempDir(), 1, 0)

	code, stdout, stderr := runCLI("--workers", "2", "inspect", path)
	if code != 0 {
		t.Fatalf("exit code %d, stderr %q", code, stderr)
	}
	if !strings.Contains(stdout, "slot    1  1, 0: pos=(1,0) status=minecraft:full sections=2 version=3700") {
		t.Errorf("stdout %q", stdout)
	}
	if !strings.Contains(stdout, "1 chunks, 1022 empty slots, 1 failed") {
		t.Errorf("stdout %q", stdout)
	}
	if !strings.Contains(stderr, "unsupported compression format") {
		t.Errorf("slot failure not logged: %q", stderr)
	}

	// bare path runs inspect
	if code, bare, _ := runCLI(path); code != 0 || bare != stdout {
		t.Errorf("bare invocation: exit code %d, stdout %q", code, bare)
	}
}

func TestInspectWarnsMisplaced(t *testing.T) {
	path := writeRegion(t, t.TempDir(), 40, 0)

	code, _, stderr := runCLI(path)
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if !strings.Contains(stderr, "chunk reports position 40,0") {
		t.Errorf("stderr %q", stderr)
	}
}

func TestChunkCommand(t *testing.T) {
	path := writeRegion(t, t.TempDir(), 1, 0)

	code, stdout, stderr := runCLI("chunk", path, "1", "0")
	if code != 0 {
		t.Fatalf("exit code %d, stderr %q", code, stderr)
	}
	lowest := strings.Index(stdout, "section y=-2")
	highest := strings.Index(stdout, "section y=5")
	if lowest < 0 || highest < 0 || lowest > highest {
		t.Errorf("sections missing or out of order: %q", stdout)
	}
	if !strings.Contains(stdout, "block minecraft:oak_log[axis=x]") || !strings.Contains(stdout, "sky_light=true") {
		t.Errorf("stdout %q", stdout)
	}

	if code, _, stderr = runCLI("chunk", path, "2", "0"); code != 1 || !strings.Contains(stderr, "gzip") {
		t.Errorf("failed slot: exit code %d, stderr %q", code, stderr)
	}
	if code, _, stderr = runCLI("chunk", path, "9", "9"); code != 1 || !strings.Contains(stderr, "not present") {
		t.Errorf("empty slot: exit code %d, stderr %q", code, stderr)
	}
	if code, _, _ = runCLI("chunk", path, "x", "0"); code != 1 {
		t.Errorf("bad coordinate: exit code %d", code)
	}
}

func TestSlimeCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeRegion(t, dir, 1, 0)
	target := filepath.Join(dir, "world.slime")

	code, _, stderr := runCLI("slime", path, target)
	if code != 0 {
		t.Fatalf("exit code %d, stderr %q", code, stderr)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) < 3 || data[0] != 0xB1 || data[1] != 0x0B || data[2] != slime.PaletteVersion {
		t.Errorf("slime header % x", data[:3])
	}
}
