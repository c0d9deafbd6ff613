package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/slabkit/internal/conv"
)

// Codec selects the block compression.
type Codec uint8

const (
	// CodecNone stores blocks as is.
	CodecNone Codec = 0
	// CodecLZ4 uses LZ4 block compression (fast).
	CodecLZ4 Codec = 1
	// CodecZstd uses zstd (better ratio).
	CodecZstd Codec = 2
)

// ErrUnknownCodec is returned for codec values and names this package does not know.
var ErrUnknownCodec = errors.New("snapshot: unknown codec")

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecLZ4:
		return "lz4"
	case CodecZstd:
		return "zstd"
	default:
		return fmt.Sprintf("codec(%d)", uint8(c))
	}
}

// ParseCodec parses a codec name as printed by Codec.String.
func ParseCodec(s string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CodecNone, nil
	case "lz4":
		return CodecLZ4, nil
	case "zstd":
		return CodecZstd, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCodec, s)
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

const blockHeaderSize = 8

// encodeBlock appends the framed block to dst. Blocks that do not shrink by at
// least 10% are stored.
func encodeBlock(dst, data []byte, c Codec) ([]byte, error) {
	var compressed []byte
	switch c {
	case CodecNone:
	case CodecLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		compressed = buf[:n] // n == 0: incompressible
	case CodecZstd:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCodec, uint8(c))
	}

	raw, err := conv.IntToUint32(len(data))
	if err != nil {
		return nil, err
	}
	var hdr [blockHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], raw)
	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		dst = append(dst, hdr[:]...)
		return append(dst, data...), nil
	}
	packed, err := conv.IntToUint32(len(compressed))
	if err != nil {
		return nil, err
	}
	binary.LittleEndian.PutUint32(hdr[4:], packed)
	dst = append(dst, hdr[:]...)
	return append(dst, compressed...), nil
}

// decodeBlock decompresses a block body into dst, which has the block's
// uncompressed length.
func decodeBlock(dst, body []byte, c Codec) error {
	switch c {
	case CodecLZ4:
		n, err := lz4.UncompressBlock(body, dst)
		if err != nil {
			return err
		}
		if n != len(dst) {
			return fmt.Errorf("%w: lz4 block of %d bytes, want %d", ErrCorrupt, n, len(dst))
		}
		return nil
	case CodecZstd:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(body, dst[:0])
		if err != nil {
			return err
		}
		if len(out) != len(dst) {
			return fmt.Errorf("%w: zstd block of %d bytes, want %d", ErrCorrupt, len(out), len(dst))
		}
		return nil
	default:
		return fmt.Errorf("%w: compressed block with codec %s", ErrCorrupt, c)
	}
}
