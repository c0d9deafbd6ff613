package snapshot

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"
	"unsafe"

	"github.com/hupe1980/slabkit/internal/conv"
	"github.com/hupe1980/slabkit/sizeclass"
)

const (
	// Magic starts every image.
	Magic = "SLABSNAP"
	// Version is the header version written by Write.
	Version = 1
	// DefaultBlockSize is the uncompressed size of a payload block.
	DefaultBlockSize = 1 << 20

	// MaxBlockSize is the largest block size a header may declare.
	MaxBlockSize = 64 << 20
	// MaxImageSize is the largest data size a header may declare.
	MaxImageSize int64 = 1 << 40

	maxHeaderSize = 64 << 20
)

var (
	// ErrBadMagic is returned when the input is not an image.
	ErrBadMagic = errors.New("snapshot: bad magic")
	// ErrCorrupt is returned for truncated or inconsistent images.
	ErrCorrupt = errors.New("snapshot: corrupt image")
	// ErrVersion is returned for images written by an unsupported version.
	ErrVersion = errors.New("snapshot: unsupported version")
)

// ClassLayout describes one bucket of the image.
type ClassLayout struct {
	Class    int    `json:"class"`
	Offset   int    `json:"offset"` // from the start of the image data
	Capacity uint64 `json:"capacity"`
	Bumped   uint64 `json:"bumped"`
	InUse    uint64 `json:"in_use"`
	// Live lists the handed-out slots; nil without the double-free detector.
	Live []uint32 `json:"live"`
}

func (cl ClassLayout) check(size int) error {
	capacity, err := conv.Uint64ToInt(cl.Capacity)
	if err != nil {
		return err
	}
	span, err := conv.MulInt(capacity, cl.Class)
	if err != nil {
		return err
	}
	if cl.Class <= 0 || cl.Offset < 0 || span > size || cl.Offset > size-span {
		return fmt.Errorf("%d slots of %d bytes at %d overflow %d bytes", cl.Capacity, cl.Class, cl.Offset, size)
	}
	if cl.Bumped > cl.Capacity || cl.InUse > cl.Bumped || uint64(len(cl.Live)) > cl.InUse {
		return fmt.Errorf("in use %d, live %d, bumped %d, capacity %d", cl.InUse, len(cl.Live), cl.Bumped, cl.Capacity)
	}
	return nil
}

// Header is the JSON document in front of the image data.
type Header struct {
	Version   int           `json:"version"`
	Codec     string        `json:"codec"`
	BlockSize int           `json:"block_size"`
	Size      int           `json:"size"`
	CreatedAt time.Time     `json:"created_at"`
	Counters  Counters      `json:"counters"`
	Classes   []ClassLayout `json:"classes"`
}

// Counters are the dispatcher byte and operation counters at capture time.
type Counters struct {
	CurrentBytes uint64 `json:"current_bytes"`
	PeakBytes    uint64 `json:"peak_bytes"`
	TotalBytes   uint64 `json:"total_bytes"`
	Allocs       uint64 `json:"allocs"`
	Frees        uint64 `json:"frees"`
	Failures     uint64 `json:"failures"`
}

// Describe builds the header for an allocator whose buckets were carved from
// data. Buckets outside data are skipped.
func Describe(a *sizeclass.Allocator, data []byte) Header {
	s := a.Stats()
	h := Header{
		Version:   Version,
		BlockSize: DefaultBlockSize,
		Size:      len(data),
		CreatedAt: time.Now().UTC(),
		Counters: Counters{
			CurrentBytes: s.CurrentBytes,
			PeakBytes:    s.PeakBytes,
			TotalBytes:   s.TotalBytes,
			Allocs:       s.Allocs,
			Frees:        s.Frees,
			Failures:     s.Failures,
		},
	}
	if len(data) == 0 {
		return h
	}

	base := uintptr(unsafe.Pointer(&data[0])) //nolint:gosec // layout offsets
	for i, d := range a.Buckets() {
		start := uintptr(unsafe.Pointer(&d.Bytes()[0])) //nolint:gosec // layout offsets
		if start < base || start >= base+uintptr(len(data)) {
			continue
		}
		cs := s.Classes[i].Stats
		layout := ClassLayout{
			Class:    d.ElemSize(),
			Offset:   int(start - base), //nolint:gosec // bounded by len(data)
			Capacity: cs.Capacity,
			Bumped:   cs.Bumped,
			InUse:    cs.InUse,
		}
		if live := d.Live(); live != nil {
			layout.Live = live.ToArray()
		}
		h.Classes = append(h.Classes, layout)
	}
	return h
}

// Write writes h followed by data compressed with c. h.Codec and h.Size are
// set from the arguments.
func Write(w io.Writer, h Header, data []byte, c Codec) error {
	if c > CodecZstd {
		return fmt.Errorf("%w: %d", ErrUnknownCodec, uint8(c))
	}
	h.Codec = c.String()
	h.Size = len(data)
	if h.Version == 0 {
		h.Version = Version
	}
	if h.BlockSize <= 0 {
		h.BlockSize = DefaultBlockSize
	}
	if h.BlockSize > MaxBlockSize || int64(h.Size) > MaxImageSize {
		return fmt.Errorf("snapshot: %d bytes in blocks of %d exceed the image limits", h.Size, h.BlockSize)
	}

	js, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("snapshot: encode header: %w", err)
	}

	n, err := conv.IntToUint32(len(js))
	if err != nil || n > maxHeaderSize {
		return fmt.Errorf("snapshot: header of %d bytes", len(js))
	}

	bw := bufio.NewWriter(w)
	var prefix [len(Magic) + 4]byte
	copy(prefix[:], Magic)
	binary.LittleEndian.PutUint32(prefix[len(Magic):], n)
	if _, err := bw.Write(prefix[:]); err != nil {
		return err
	}
	if _, err := bw.Write(js); err != nil {
		return err
	}

	var block []byte
	for off := 0; off < len(data); off += h.BlockSize {
		end := min(off+h.BlockSize, len(data))
		block, err = encodeBlock(block[:0], data[off:end], c)
		if err != nil {
			return fmt.Errorf("snapshot: block at %d: %w", off, err)
		}
		if _, err := bw.Write(block); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadHeader reads the magic and the header, leaving r at the first block.
func ReadHeader(r io.Reader) (Header, error) {
	var prefix [len(Magic) + 4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return Header{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if string(prefix[:len(Magic)]) != Magic {
		return Header{}, ErrBadMagic
	}
	n := binary.LittleEndian.Uint32(prefix[len(Magic):])
	if n > maxHeaderSize {
		return Header{}, fmt.Errorf("%w: header of %d bytes", ErrCorrupt, n)
	}
	js := make([]byte, n)
	if _, err := io.ReadFull(r, js); err != nil {
		return Header{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	var h Header
	if err := json.Unmarshal(js, &h); err != nil {
		return Header{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if h.Version != Version {
		return Header{}, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}
	if h.Size < 0 || int64(h.Size) > MaxImageSize || h.BlockSize <= 0 || h.BlockSize > MaxBlockSize {
		return Header{}, fmt.Errorf("%w: size %d, block size %d", ErrCorrupt, h.Size, h.BlockSize)
	}
	for _, cl := range h.Classes {
		if err := cl.check(h.Size); err != nil {
			return Header{}, fmt.Errorf("%w: class %d: %w", ErrCorrupt, cl.Class, err)
		}
	}
	return h, nil
}

// Read reads an image written by Write and returns its header and data.
// The data buffer grows with the blocks actually read, so a header that
// overstates the size fails with ErrCorrupt once the input runs out.
func Read(r io.Reader) (Header, []byte, error) {
	br := bufio.NewReader(r)
	h, err := ReadHeader(br)
	if err != nil {
		return Header{}, nil, err
	}
	c, err := ParseCodec(h.Codec)
	if err != nil {
		return Header{}, nil, err
	}

	data := make([]byte, 0, min(h.Size, h.BlockSize))
	var body []byte
	var bh [blockHeaderSize]byte
	for len(data) < h.Size {
		off := len(data)
		if _, err := io.ReadFull(br, bh[:]); err != nil {
			return Header{}, nil, fmt.Errorf("%w: block at %d: %w", ErrCorrupt, off, err)
		}
		raw := int(binary.LittleEndian.Uint32(bh[0:]))
		packed := int(binary.LittleEndian.Uint32(bh[4:]))
		if raw == 0 || raw > h.BlockSize || raw > h.Size-off {
			return Header{}, nil, fmt.Errorf("%w: block at %d claims %d bytes", ErrCorrupt, off, raw)
		}

		if packed >= raw {
			return Header{}, nil, fmt.Errorf("%w: block at %d packs %d bytes into %d", ErrCorrupt, off, raw, packed)
		}

		data = slices.Grow(data, raw)[:off+raw]
		dst := data[off:]
		if packed == 0 {
			if _, err := io.ReadFull(br, dst); err != nil {
				return Header{}, nil, fmt.Errorf("%w: block at %d: %w", ErrCorrupt, off, err)
			}
		} else {
			if cap(body) < packed {
				body = make([]byte, packed)
			}
			body = body[:packed]
			if _, err := io.ReadFull(br, body); err != nil {
				return Header{}, nil, fmt.Errorf("%w: block at %d: %w", ErrCorrupt, off, err)
			}
			if err := decodeBlock(dst, body, c); err != nil {
				return Header{}, nil, fmt.Errorf("snapshot: block at %d: %w", off, err)
			}
		}
	}
	return h, data, nil
}
