package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the block codec of one array frame.
type Compression uint8

const (
	// CompressionNone stores array bytes as is.
	CompressionNone Compression = 0
	// CompressionZstd uses zstd (better ratio, good for archives).
	CompressionZstd Compression = 1
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4 Compression = 2
	// CompressionZlib uses zlib, the codec OMF files use for their arrays.
	CompressionZlib Compression = 3
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	case CompressionZlib:
		return "zlib"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// arrayHeaderSize is [compression u8][raw len u32][stored len u32].
const arrayHeaderSize = 9

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

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// encodeArray frames raw as an array payload. When compression does not save
// at least 10% the bytes are stored uncompressed.
func encodeArray(raw []byte, c Compression) ([]byte, error) {
	if uint64(len(raw)) > maxUint32 {
		return nil, fmt.Errorf("container: array of %d bytes exceeds frame limit", len(raw))
	}

	stored := raw
	used := CompressionNone
	if c != CompressionNone && len(raw) > 0 {
		compressed, err := compressBlock(raw, c)
		if err != nil {
			return nil, fmt.Errorf("container: %s compress: %w", c, err)
		}
		if len(compressed) > 0 && float64(len(compressed)) <= float64(len(raw))*0.9 {
			stored = compressed
			used = c
		}
	}

	out := make([]byte, arrayHeaderSize+len(stored))
	out[0] = byte(used)
	binary.LittleEndian.PutUint32(out[1:], uint32(len(raw)))
	binary.LittleEndian.PutUint32(out[5:], uint32(len(stored)))
	copy(out[arrayHeaderSize:], stored)
	return out, nil
}

func compressBlock(data []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionZstd:
		enc := getZstdEncoder()
		defer putZstdEncoder(enc)
		return enc.EncodeAll(data, nil), nil

	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		// n == 0 means incompressible
		return buf[:n], nil

	case CompressionZlib:
		var buf bytes.Buffer
		zw, err := zlib.NewWriterLevel(&buf, zlib.DefaultCompression)
		if err != nil {
			return nil, err
		}
		if _, err := zw.Write(data); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	default:
		return nil, fmt.Errorf("unknown compression %d", uint8(c))
	}
}

// decodeArray unpacks an array payload. want is the decompressed size the
// descriptor promises; the payload must agree before anything is allocated.
func decodeArray(payload []byte, want uint64) ([]byte, error) {
	if len(payload) < arrayHeaderSize {
		return nil, fmt.Errorf("array payload of %d bytes is shorter than its header", len(payload))
	}
	c := Compression(payload[0])
	rawLen := uint64(binary.LittleEndian.Uint32(payload[1:]))
	storedLen := uint64(binary.LittleEndian.Uint32(payload[5:]))
	data := payload[arrayHeaderSize:]

	if rawLen != want {
		return nil, fmt.Errorf("array holds %d bytes, descriptor promises %d", rawLen, want)
	}
	if storedLen != uint64(len(data)) {
		return nil, fmt.Errorf("array stores %d bytes, frame carries %d", storedLen, len(data))
	}

	switch c {
	case CompressionNone:
		if storedLen != rawLen {
			return nil, fmt.Errorf("uncompressed array size %d != %d", storedLen, rawLen)
		}
		return bytes.Clone(data), nil

	case CompressionZstd:
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)
		out, err := dec.DecodeAll(data, make([]byte, 0, rawLen))
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return checkSize(out, rawLen)

	case CompressionLZ4:
		out := make([]byte, rawLen)
		n, err := lz4.UncompressBlock(data, out)
		if err != nil {
			return nil, fmt.Errorf("lz4: %w", err)
		}
		return checkSize(out[:n], rawLen)

	case CompressionZlib:
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("zlib: %w", err)
		}
		defer zr.Close()
		out := make([]byte, rawLen)
		if _, err := io.ReadFull(zr, out); err != nil {
			return nil, fmt.Errorf("zlib: %w", err)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unknown compression %d", uint8(c))
	}
}

func checkSize(out []byte, want uint64) ([]byte, error) {
	if uint64(len(out)) != want {
		return nil, fmt.Errorf("decompressed size mismatch: got %d, want %d", len(out), want)
	}
	return out, nil
}
