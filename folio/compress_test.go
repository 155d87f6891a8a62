package folio

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestCompressors(t *testing.T) {
	payload := []byte(strings.Repeat("%PDF-1.7 page geometry ", 200))
	for _, c := range []Compressor{NewGzipCompressor(), NewZstdCompressor(), NewNoOpCompressor()} {
		t.Run(c.Name(), func(t *testing.T) {
			var buf bytes.Buffer
			w, err := c.Compress(&buf)
			if err != nil {
				t.Fatalf("Compress failed: %v", err)
			}
			if _, err := w.Write(payload); err != nil {
				t.Fatal(err)
			}
			if err := w.Close(); err != nil {
				t.Fatal(err)
			}

			r, err := c.Decompress(&buf)
			if err != nil {
				t.Fatalf("Decompress failed: %v", err)
			}
			defer func() { _ = r.Close() }()
			got, err := io.ReadAll(r)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, payload) {
				t.Error("decompressed payload differs")
			}
		})
	}
}

func TestCompressorFor(t *testing.T) {
	tests := map[string]string{
		"doc.pdf":             "noop",
		"doc.pdf.gz":          "gzip",
		"reports/a.jsonl.zst": "zstd",
		"":                    "noop",
	}
	for path, want := range tests {
		if got := CompressorFor(path).Name(); got != want {
			t.Errorf("CompressorFor(%q) = %s, want %s", path, got, want)
		}
	}
}

func TestCompressorByName(t *testing.T) {
	tests := map[string]string{
		"":     "noop",
		"none": "noop",
		"GZIP": "gzip",
		"zst":  "zstd",
	}
	for name, want := range tests {
		c, err := CompressorByName(name)
		if err != nil {
			t.Errorf("CompressorByName(%q) failed: %v", name, err)
			continue
		}
		if c.Name() != want {
			t.Errorf("CompressorByName(%q) = %s, want %s", name, c.Name(), want)
		}
	}
	if _, err := CompressorByName("lz4"); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got: %v", err)
	}
}
