package folio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
)

// BytesSource serves a document held in memory.
type BytesSource []byte

// CreateDocument opens the bytes with engine.
func (b BytesSource) CreateDocument(ctx context.Context, engine Engine, password string) (NativeDocument, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("folio: %w: empty document", ErrDocumentOpen)
	}
	return openWith(ctx, engine, bytes.NewReader(b), int64(len(b)), password)
}

// FileSource serves a document from a local file.
type FileSource string

// CreateDocument reads the file and opens it with engine. The file is read
// fully so no descriptor outlives the call.
func (f FileSource) CreateDocument(ctx context.Context, engine Engine, password string) (NativeDocument, error) {
	data, err := os.ReadFile(string(f))
	if err != nil {
		return nil, fmt.Errorf("folio: %w: %w", ErrDocumentOpen, err)
	}
	return BytesSource(data).CreateDocument(ctx, engine, password)
}

// StoreSource serves a document kept in a Store. Keys ending in ".gz" or
// ".zst" are decompressed before opening.
type StoreSource struct {
	Store Store
	Key   string
}

// CreateDocument fetches and opens the document.
func (s StoreSource) CreateDocument(ctx context.Context, engine Engine, password string) (NativeDocument, error) {
	if s.Store == nil {
		return nil, fmt.Errorf("folio: %w: store source has no store", ErrInvalidConfiguration)
	}
	rc, err := s.Store.Get(ctx, s.Key)
	if err != nil {
		return nil, fmt.Errorf("folio: %w: get %q: %w", ErrDocumentOpen, s.Key, err)
	}
	defer func() { _ = rc.Close() }()

	dr, err := CompressorFor(s.Key).Decompress(rc)
	if err != nil {
		return nil, fmt.Errorf("folio: %w: decompress %q: %w", ErrDocumentOpen, s.Key, err)
	}
	defer func() { _ = dr.Close() }()

	data, err := io.ReadAll(dr)
	if err != nil {
		return nil, fmt.Errorf("folio: %w: read %q: %w", ErrDocumentOpen, s.Key, err)
	}
	return BytesSource(data).CreateDocument(ctx, engine, password)
}

func openWith(ctx context.Context, engine Engine, r io.ReaderAt, size int64, password string) (NativeDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("folio: %w: %w", ErrDocumentOpen, err)
	}
	doc, err := engine.Open(ctx, r, size, password)
	if err != nil {
		return nil, fmt.Errorf("folio: %w: %w", ErrDocumentOpen, err)
	}
	return doc, nil
}
