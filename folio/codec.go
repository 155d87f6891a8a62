package folio

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/parquet-go/parquet-go"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

const maxScanTokenSize = 1024 * 1024 // 1MB

// -----------------------------------------------------------------------------
// JSONL Codec
// -----------------------------------------------------------------------------

type jsonlCodec struct{}

// NewJSONLCodec creates a codec writing one JSON object per line.
func NewJSONLCodec() Codec {
	return jsonlCodec{}
}

func (jsonlCodec) Name() string { return "jsonl" }

func (jsonlCodec) Encode(w io.Writer, rows []PageRecord) error {
	enc := jsonCodec.NewEncoder(w)
	for i := range rows {
		if err := enc.Encode(&rows[i]); err != nil {
			return err
		}
	}
	return nil
}

func (jsonlCodec) Decode(r io.Reader) ([]PageRecord, error) {
	var rows []PageRecord
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxScanTokenSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var row PageRecord
		if err := jsonCodec.Unmarshal(line, &row); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidFormat, len(rows)+1, err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// -----------------------------------------------------------------------------
// Parquet Codec
// -----------------------------------------------------------------------------

type parquetCodec struct {
	compression parquet.WriterOption
}

// NewParquetCodec creates a codec writing a single Snappy-compressed Parquet
// file with one row group.
func NewParquetCodec() Codec {
	return parquetCodec{compression: parquet.Compression(&parquet.Snappy)}
}

func (parquetCodec) Name() string { return "parquet" }

func (c parquetCodec) Encode(w io.Writer, rows []PageRecord) error {
	// The footer references every row group, so the file is assembled in
	// memory before it reaches w.
	var buf bytes.Buffer
	pw := parquet.NewGenericWriter[PageRecord](&buf, c.compression)
	if _, err := pw.Write(rows); err != nil {
		_ = pw.Close()
		return fmt.Errorf("parquet: write rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("parquet: close writer: %w", err)
	}
	_, err := io.Copy(w, &buf)
	return err
}

func (parquetCodec) Decode(r io.Reader) ([]PageRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("parquet: read file: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrInvalidFormat
	}
	rows, err := parquet.Read[PageRecord](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrInvalidFormat
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	return rows, nil
}

// CodecByName returns the codec named "jsonl" or "parquet".
func CodecByName(name string) (Codec, error) {
	switch name {
	case "jsonl", "json":
		return NewJSONLCodec(), nil
	case "parquet":
		return NewParquetCodec(), nil
	}
	return nil, fmt.Errorf("folio: %w: unknown codec %q", ErrInvalidConfiguration, name)
}
