// Package compression wraps zstd for payload files. Small or
// incompressible payloads pass through unchanged; the zstd frame magic
// tells the two apart on the way back.
package compression

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// minSize is the payload size below which compression is skipped.
const minSize = 128

var frameMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

type Compressor struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	enabled bool
}

// New returns a Compressor for the given level (1 fastest, 2 default,
// 3 best). Level 0 disables compression; the decoder is still set up so
// previously compressed payloads remain readable.
func New(level int) (*Compressor, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	if level == 0 {
		return &Compressor{decoder: decoder, enabled: false}, nil
	}

	var encoderLevel zstd.EncoderLevel
	switch level {
	case 1:
		encoderLevel = zstd.SpeedFastest
	case 2:
		encoderLevel = zstd.SpeedDefault
	case 3:
		encoderLevel = zstd.SpeedBetterCompression
	default:
		return nil, fmt.Errorf("unsupported compression level %d", level)
	}

	encoder, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(encoderLevel),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, err
	}

	return &Compressor{encoder: encoder, decoder: decoder, enabled: true}, nil
}

// Compress returns the zstd frame for data, or data itself when
// compression is disabled, not worthwhile, or would grow the payload.
func (c *Compressor) Compress(data []byte) []byte {
	if !c.enabled || len(data) < minSize {
		return data
	}

	compressed := c.encoder.EncodeAll(data, make([]byte, 0, len(data)))
	if len(compressed) >= len(data) {
		return data
	}
	return compressed
}

// Decompress inverts Compress. Data without the zstd frame magic was stored
// uncompressed and is returned as-is. Safe for concurrent use.
func (c *Compressor) Decompress(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, frameMagic) {
		return data, nil
	}
	return c.decoder.DecodeAll(data, nil)
}

func (c *Compressor) Close() error {
	if c.encoder != nil {
		c.encoder.Close()
	}
	if c.decoder != nil {
		c.decoder.Close()
	}
	return nil
}
