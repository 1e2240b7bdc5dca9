package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/astei/anvilregion/region"
	"github.com/astei/anvilregion/slime"
)

func newDecoder(c *cli.Context, log logrus.FieldLogger) *region.Decoder {
	return &region.Decoder{
		Workers:             c.Int("workers"),
		MaxDecompressedSize: c.Int64("max-payload"),
		Log:                 log,
	}
}

// openRegion decodes the region named by the first argument.
func openRegion(c *cli.Context, log logrus.FieldLogger) (string, *region.RegionFile, error) {
	if c.NArg() == 0 {
		return "", nil, errFilenameRequired
	}
	path := c.Args().Get(0)
	log.WithField("file", path).Debug("decoding region")
	r, err := newDecoder(c, log).ReadFile(path)
	if err != nil {
		return path, nil, err
	}

	if rx, rz, err := region.ParseRegionName(path); err == nil {
		for _, slot := range r.Misplaced(rx, rz) {
			chunk := r.Chunks[slot]
			log.WithField("slot", slot).Warnf("chunk reports position %d,%d", chunk.X, chunk.Z)
		}
	}
	return path, r, nil
}

func inspect(c *cli.Context, log logrus.FieldLogger) error {
	_, r, err := openRegion(c, log)
	if err != nil {
		return err
	}

	out := c.App.Writer
	for i, chunk := range r.Chunks {
		if chunk == nil {
			continue
		}
		entry := r.Locations[i]
		_, _ = fmt.Fprintf(out, "slot %4d %2d,%2d: pos=(%d,%d) status=%s sections=%d version=%d modified=%s\n",
			i, entry.X(), entry.Z(), chunk.X, chunk.Z, chunk.Status, len(chunk.Sections), chunk.DataVersion,
			entry.LastModified().Format("2006-01-02T15:04:05Z"))
	}

	decoded := r.Len()
	failed := len(r.Failures())
	_, _ = fmt.Fprintf(out, "%d chunks, %d empty slots, %d failed\n", decoded, region.SlotCount-decoded-failed, failed)
	return nil
}

func showChunk(c *cli.Context, log logrus.FieldLogger) error {
	if c.NArg() != 3 {
		if c.NArg() == 0 {
			return errFilenameRequired
		}
		return fmt.Errorf("usage: %s chunk <file.mca> <x> <z>", c.App.Name)
	}
	x, err := strconv.Atoi(c.Args().Get(1))
	if err != nil {
		return fmt.Errorf("invalid x: %w", err)
	}
	z, err := strconv.Atoi(c.Args().Get(2))
	if err != nil {
		return fmt.Errorf("invalid z: %w", err)
	}

	_, r, err := openRegion(c, log)
	if err != nil {
		return err
	}

	slot := region.SlotIndex(x, z)
	chunk := r.Chunks[slot]
	if chunk == nil {
		for _, failure := range r.Failures() {
			if failure.Index == slot {
				return failure
			}
		}
		return fmt.Errorf("chunk %d,%d is not present", x&31, z&31)
	}

	out := c.App.Writer
	_, _ = fmt.Fprintf(out, "chunk %d,%d status=%s version=%d last_update=%d inhabited=%d\n",
		chunk.X, chunk.Z, chunk.Status, chunk.DataVersion, chunk.LastUpdate, chunk.InhabitedTime)
	for _, section := range chunk.SortedSections() {
		_, _ = fmt.Fprintf(out, "section y=%d blocks=%d biomes=%d block_light=%t sky_light=%t\n",
			section.Y, len(section.BlockStates.Palette), len(section.Biomes.Palette),
			section.BlockLight != nil, section.SkyLight != nil)
		for _, block := range section.BlockStates.Palette {
			_, _ = fmt.Fprintf(out, "  block %s\n", block)
		}
		_, _ = fmt.Fprintf(out, "  biomes %s\n", strings.Join(section.Biomes.Palette, " "))
	}
	return nil
}

func exportSlime(c *cli.Context, log logrus.FieldLogger) error {
	if c.NArg() == 1 {
		return fmt.Errorf("usage: %s slime <file.mca> <out.slime>", c.App.Name)
	}
	_, r, err := openRegion(c, log)
	if err != nil {
		return err
	}

	target := c.Args().Get(1)
	file, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if err = slime.WriteRegion(file, r); err != nil {
		_ = file.Close()
		return err
	}
	if err = file.Close(); err != nil {
		return err
	}
	log.WithField("file", target).Infof("wrote %d chunks", r.Len())
	return nil
}
