package folio

import (
	"bytes"
	"context"
	"fmt"
)

// PageRecord is one row of a layout report: the layout of the page shown at
// a requested position. Duplicate positions produce rows that share Index.
type PageRecord struct {
	Position     int     `json:"position" parquet:"position"`
	Index        int     `json:"index" parquet:"index"`
	Page         int     `json:"page" parquet:"page"`
	NativeWidth  float32 `json:"native_width" parquet:"native_width"`
	NativeHeight float32 `json:"native_height" parquet:"native_height"`
	Width        float32 `json:"width" parquet:"width"`
	Height       float32 `json:"height" parquet:"height"`
	Offset       float32 `json:"offset" parquet:"offset"`
	Spacing      float32 `json:"spacing" parquet:"spacing"`
}

// Records returns one PageRecord per requested position at zoom 1.
func (d *Document) Records() []PageRecord {
	rows := make([]PageRecord, 0, d.index.Positions())
	for pos, i := range d.index.runs {
		native, size := d.NativePageSize(i), d.PageSize(i)
		rows = append(rows, PageRecord{
			Position:     pos,
			Index:        i,
			Page:         d.DocumentPage(i),
			NativeWidth:  native.Width,
			NativeHeight: native.Height,
			Width:        size.Width,
			Height:       size.Height,
			Offset:       d.PageOffset(i, 1),
			Spacing:      d.PageSpacing(i, 1),
		})
	}
	return rows
}

// WriteReport encodes rows with codec, compresses them, and stores them at
// key plus the compressor's extension. It returns the key written.
func WriteReport(ctx context.Context, store Store, key string, codec Codec, compressor Compressor, rows []PageRecord) (string, error) {
	if compressor == nil {
		compressor = NewNoOpCompressor()
	}
	var buf bytes.Buffer
	w, err := compressor.Compress(&buf)
	if err != nil {
		return "", fmt.Errorf("folio: report compress: %w", err)
	}
	if err := codec.Encode(w, rows); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("folio: report encode: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("folio: report compress: %w", err)
	}

	fullKey := key + compressor.Extension()
	if err := store.Put(ctx, fullKey, &buf); err != nil {
		return "", fmt.Errorf("folio: report put %q: %w", fullKey, err)
	}
	return fullKey, nil
}

// ReadReport loads a report written by WriteReport. The compressor is chosen
// from the key's extension.
func ReadReport(ctx context.Context, store Store, key string, codec Codec) ([]PageRecord, error) {
	rc, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	r, err := CompressorFor(key).Decompress(rc)
	if err != nil {
		return nil, fmt.Errorf("folio: report decompress: %w", err)
	}
	defer func() { _ = r.Close() }()
	return codec.Decode(r)
}
