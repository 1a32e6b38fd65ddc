package bundle

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
)

// DefaultLevel balances speed and ratio for structure documents.
const DefaultLevel = 3

// minCompressSize is the payload size below which compression does not
// pay off.
const minCompressSize = 1024

// Compressor сжимает payload через zstd и кодирует в base64.
type Compressor struct {
	encoder *zstd.Encoder
}

// NewCompressor: level 1 (быстрее) - 22 (лучшее сжатие).
func NewCompressor(level int) (*Compressor, error) {
	encoder, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	return &Compressor{encoder: encoder}, nil
}

func (c *Compressor) Compress(input []byte) []byte {
	if len(input) == 0 {
		return nil
	}
	compressed := c.encoder.EncodeAll(input, nil)
	encoded := make([]byte, base64.StdEncoding.EncodedLen(len(compressed)))
	base64.StdEncoding.Encode(encoded, compressed)
	return encoded
}

func (c *Compressor) Close() {
	if c.encoder != nil {
		c.encoder.Close()
	}
}

// Decompressor распаковывает base64+zstd.
type Decompressor struct {
	decoder *zstd.Decoder
}

func NewDecompressor() (*Decompressor, error) {
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &Decompressor{decoder: decoder}, nil
}

func (d *Decompressor) Decompress(input []byte) ([]byte, error) {
	if len(input) == 0 {
		return nil, nil
	}
	decoded := make([]byte, base64.StdEncoding.DecodedLen(len(input)))
	n, err := base64.StdEncoding.Decode(decoded, input)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	out, err := d.decoder.DecodeAll(decoded[:n], nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress zstd: %w", err)
	}
	return out, nil
}

func (d *Decompressor) Close() {
	if d.decoder != nil {
		d.decoder.Close()
	}
}

// Stats describes one pack operation.
type Stats struct {
	OriginalSize   int           `json:"original_size"`
	CompressedSize int           `json:"compressed_size"`
	Ratio          float64       `json:"ratio"`
	Time           time.Duration `json:"time"`
}

func newStats(original, packed int, took time.Duration) Stats {
	s := Stats{OriginalSize: original, CompressedSize: packed, Time: took}
	if packed > 0 {
		s.Ratio = float64(original) / float64(packed)
	}
	return s
}
