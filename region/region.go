package region

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/sirupsen/logrus"
	"github.com/willf/bitset"
	"golang.org/x/sync/errgroup"
)

// Decoder turns region file bytes into chunks. The zero value is ready to use and safe for
// concurrent use.
type Decoder struct {
	// Workers bounds the number of slots decoded at once. Zero means runtime.NumCPU().
	Workers int
	// MaxDecompressedSize caps a single inflated payload. Zero means DefaultMaxDecompressedSize.
	MaxDecompressedSize int64
	// Log receives a warning per slot that fails to decode. Nil disables logging.
	Log logrus.FieldLogger
}

func (d *Decoder) workers() int {
	if d.Workers > 0 {
		return d.Workers
	}
	return runtime.NumCPU()
}

func (d *Decoder) maxDecompressedSize() int64 {
	if d.MaxDecompressedSize > 0 {
		return d.MaxDecompressedSize
	}
	return DefaultMaxDecompressedSize
}

// RegionFile is the decoded view of one .mca file. Chunks is indexed by SlotIndex; a nil entry
// is a slot that was never generated or could not be read.
type RegionFile struct {
	Chunks    [SlotCount]*Chunk
	Locations [SlotCount]LocationEntry

	failures []*SlotError
}

// Chunk returns the chunk at region-local coordinates x, z.
func (r *RegionFile) Chunk(x, z int) *Chunk {
	return r.Chunks[SlotIndex(x, z)]
}

// Populated returns the set of slots holding a decoded chunk.
func (r *RegionFile) Populated() *bitset.BitSet {
	set := bitset.New(SlotCount)
	for i, chunk := range r.Chunks {
		if chunk != nil {
			set.Set(uint(i))
		}
	}
	return set
}

// Len counts the decoded chunks.
func (r *RegionFile) Len() int {
	return int(r.Populated().Count())
}

// Failures lists the slots that had a payload which could not be decoded, in slot order.
func (r *RegionFile) Failures() []*SlotError {
	return r.failures
}

// Decode decodes every slot of buf in parallel. Only a buffer too short to hold the header is
// an error; slots that fail on their own are left nil and reported through Failures.
func (d *Decoder) Decode(buf []byte) (*RegionFile, error) {
	locations, err := ParseLocations(buf)
	if err != nil {
		return nil, err
	}

	region := &RegionFile{Locations: locations}
	var slotErrors [SlotCount]error

	var g errgroup.Group
	g.SetLimit(d.workers())
	for i := range locations {
		entry := locations[i]
		if entry.Unloaded() {
			continue
		}
		g.Go(func() error {
			region.Chunks[entry.Index], slotErrors[entry.Index] = d.DecodeChunk(buf, entry)
			return nil
		})
	}
	// Slot errors land in slotErrors; the group only bounds concurrency, so Wait never fails.
	_ = g.Wait()

	for i, err := range slotErrors {
		if err == nil {
			continue
		}
		slotErr := &SlotError{Index: i, X: locations[i].X(), Z: locations[i].Z(), Err: err}
		region.failures = append(region.failures, slotErr)
		if d.Log != nil {
			d.Log.WithFields(logrus.Fields{
				"slot": i,
				"x":    slotErr.X,
				"z":    slotErr.Z,
			}).Warnf("could not decode chunk: %s", err.Error())
		}
	}
	return region, nil
}

// Read consumes source fully and decodes it.
func (d *Decoder) Read(source io.Reader) (*RegionFile, error) {
	buf, err := io.ReadAll(source)
	if err != nil {
		return nil, fmt.Errorf("could not read region: %w", err)
	}
	return d.Decode(buf)
}

func (d *Decoder) ReadFile(path string) (*RegionFile, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	region, err := d.Decode(buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return region, nil
}

var defaultDecoder = &Decoder{}

// Decode decodes buf with the default Decoder.
func Decode(buf []byte) (*RegionFile, error) {
	return defaultDecoder.Decode(buf)
}

func Read(source io.Reader) (*RegionFile, error) {
	return defaultDecoder.Read(source)
}

func ReadFile(path string) (*RegionFile, error) {
	return defaultDecoder.ReadFile(path)
}
