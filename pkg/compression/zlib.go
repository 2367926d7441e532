// Package compression implements zlib order data compression per EBICS
package compression

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Compression levels accepted by WithLevel
const (
	DefaultLevel = zlib.DefaultCompression
	BestSpeed    = zlib.BestSpeed
	BestSize     = zlib.BestCompression
)

// ErrTooLarge is returned when inflated order data exceeds the limit
var ErrTooLarge = errors.New("decompressed order data exceeds limit")

// Compressor deflates order data before encryption and inflates it after
// decryption. The zero limit inflates without bound.
type Compressor struct {
	level   int
	maxSize int64
}

// Option represents a functional option for Compressor
type Option func(*Compressor)

// WithLevel sets the deflate level, DefaultLevel or BestSpeed to BestSize
func WithLevel(level int) Option {
	return func(c *Compressor) {
		c.level = level
	}
}

// WithMaxSize bounds the size of inflated order data in bytes
func WithMaxSize(n int64) Option {
	return func(c *Compressor) {
		c.maxSize = n
	}
}

// NewCompressor creates a compressor, at DefaultLevel unless configured
func NewCompressor(opts ...Option) *Compressor {
	c := &Compressor{level: DefaultLevel}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ValidLevel reports whether level is accepted by Compress
func ValidLevel(level int) bool {
	return level == DefaultLevel || (level >= BestSpeed && level <= BestSize)
}

// Level returns the configured deflate level
func (c *Compressor) Level() int {
	return c.level
}

// Compress deflates data into a zlib stream
func (c *Compressor) Compress(data []byte) ([]byte, error) {
	if !ValidLevel(c.level) {
		return nil, fmt.Errorf("invalid compression level %d", c.level)
	}

	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, fmt.Errorf("failed to create zlib writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to deflate order data: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish zlib stream: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress inflates a zlib stream, checking its Adler-32 trailer
func (c *Compressor) Decompress(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid zlib stream: %w", err)
	}
	defer r.Close()

	var src io.Reader = r
	if c.maxSize > 0 {
		src = io.LimitReader(r, c.maxSize+1)
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, src)
	if err != nil {
		return nil, fmt.Errorf("failed to inflate order data: %w", err)
	}
	if c.maxSize > 0 && n > c.maxSize {
		return nil, fmt.Errorf("%w of %d bytes", ErrTooLarge, c.maxSize)
	}
	return buf.Bytes(), nil
}
