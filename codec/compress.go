package codec

import (
	"bytes"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compressor compresses encoded payloads before they are stored.
// Implementations must be safe for concurrent use.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	Name() string
}

// CompressorByName returns a built-in compressor by its stable name.
func CompressorByName(name string) (Compressor, bool) {
	switch name {
	case "none":
		return Nop{}, true
	case "zstd":
		return Zstd{}, true
	case "lz4":
		return LZ4{}, true
	default:
		return nil, false
	}
}

// Nop passes payloads through unchanged.
type Nop struct{}

// Compress returns the data unchanged.
func (Nop) Compress(data []byte) ([]byte, error) { return data, nil }

// Decompress returns the data unchanged.
func (Nop) Decompress(data []byte) ([]byte, error) { return data, nil }

// Name returns the unique name of the compressor ("none").
func (Nop) Name() string { return "none" }

// Shared zstd encoder/decoder. EncodeAll/DecodeAll on a single instance are
// safe for concurrent use.
var (
	zstdOnce sync.Once
	zstdEnc  *zstd.Encoder
	zstdDec  *zstd.Decoder
)

func zstdInit() {
	zstdOnce.Do(func() {
		zstdEnc, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		zstdDec, _ = zstd.NewReader(nil)
	})
}

// Zstd compresses payloads as zstd frames (better ratio, good for cold
// staged rows).
type Zstd struct{}

// Compress encodes the data as a single zstd frame.
func (Zstd) Compress(data []byte) ([]byte, error) {
	zstdInit()
	return zstdEnc.EncodeAll(data, nil), nil
}

// Decompress decodes a zstd frame.
func (Zstd) Decompress(data []byte) ([]byte, error) {
	zstdInit()
	return zstdDec.DecodeAll(data, nil)
}

// Name returns the unique name of the compressor ("zstd").
func (Zstd) Name() string { return "zstd" }

// LZ4 compresses payloads with the LZ4 frame format (fast, good for hot
// data).
type LZ4 struct{}

// Compress encodes the data as an LZ4 frame.
func (LZ4) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decompress decodes an LZ4 frame.
func (LZ4) Decompress(data []byte) ([]byte, error) {
	return io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
}

// Name returns the unique name of the compressor ("lz4").
func (LZ4) Name() string { return "lz4" }
