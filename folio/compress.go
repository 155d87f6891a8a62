package folio

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// -----------------------------------------------------------------------------
// Gzip Compressor
// -----------------------------------------------------------------------------

type gzipCompressor struct{}

// NewGzipCompressor creates a gzip compressor (".gz").
func NewGzipCompressor() Compressor {
	return gzipCompressor{}
}

func (gzipCompressor) Name() string      { return "gzip" }
func (gzipCompressor) Extension() string { return ".gz" }

func (gzipCompressor) Compress(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriter(w), nil
}

func (gzipCompressor) Decompress(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

// -----------------------------------------------------------------------------
// Zstd Compressor
// -----------------------------------------------------------------------------

type zstdCompressor struct{}

// NewZstdCompressor creates a Zstandard compressor (".zst").
func NewZstdCompressor() Compressor {
	return zstdCompressor{}
}

func (zstdCompressor) Name() string      { return "zstd" }
func (zstdCompressor) Extension() string { return ".zst" }

func (zstdCompressor) Compress(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(w)
}

func (zstdCompressor) Decompress(r io.Reader) (io.ReadCloser, error) {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return decoder.IOReadCloser(), nil
}

// -----------------------------------------------------------------------------
// NoOp Compressor
// -----------------------------------------------------------------------------

type noopCompressor struct{}

// NewNoOpCompressor creates a pass-through compressor.
func NewNoOpCompressor() Compressor {
	return noopCompressor{}
}

func (noopCompressor) Name() string      { return "noop" }
func (noopCompressor) Extension() string { return "" }

func (noopCompressor) Compress(w io.Writer) (io.WriteCloser, error) {
	return nopWriteCloser{w}, nil
}

func (noopCompressor) Decompress(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// -----------------------------------------------------------------------------
// Lookup
// -----------------------------------------------------------------------------

// CompressorFor picks a compressor from a path's extension. Paths without a
// known extension use the noop compressor.
func CompressorFor(path string) Compressor {
	for _, c := range []Compressor{NewGzipCompressor(), NewZstdCompressor()} {
		if strings.HasSuffix(path, c.Extension()) {
			return c
		}
	}
	return NewNoOpCompressor()
}

// CompressorByName returns the compressor named "gzip", "zstd", "noop" or "".
func CompressorByName(name string) (Compressor, error) {
	switch strings.ToLower(name) {
	case "", "none", "noop":
		return NewNoOpCompressor(), nil
	case "gzip", "gz":
		return NewGzipCompressor(), nil
	case "zstd", "zst":
		return NewZstdCompressor(), nil
	}
	return nil, fmt.Errorf("folio: %w: unknown compressor %q", ErrInvalidConfiguration, name)
}
