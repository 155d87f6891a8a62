package s3

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/justapithecus/folio/folio"
)

// -----------------------------------------------------------------------------
// Construction
// -----------------------------------------------------------------------------

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		client API
		cfg    Config
	}{
		{"nil client", nil, Config{Bucket: "docs"}},
		{"no bucket", newMockClient(), Config{}},
		{"negative size", newMockClient(), Config{Bucket: "docs", MaxObjectSize: -1}},
	}
	for _, tt := range tests {
		if _, err := New(tt.client, tt.cfg); !errors.Is(err, folio.ErrInvalidConfiguration) {
			t.Errorf("%s: expected ErrInvalidConfiguration, got: %v", tt.name, err)
		}
	}
}

func TestNew_PrefixNormalization(t *testing.T) {
	tests := []struct {
		prefix   string
		expected string
	}{
		{"", ""},
		{"tenant", "tenant/"},
		{"tenant/", "tenant/"},
		{"tenant/reports", "tenant/reports/"},
	}
	for _, tt := range tests {
		store, err := New(newMockClient(), Config{Bucket: "docs", Prefix: tt.prefix})
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if store.prefix != tt.expected {
			t.Errorf("prefix %q: expected %q, got %q", tt.prefix, tt.expected, store.prefix)
		}
	}
}

// -----------------------------------------------------------------------------
// Put / Get
// -----------------------------------------------------------------------------

func TestStore_PutGet(t *testing.T) {
	ctx := t.Context()
	mock := newMockClient()
	store, _ := New(mock, Config{Bucket: "docs", Prefix: "tenant"})

	if err := store.Put(ctx, "a/doc.pdf", bytes.NewReader([]byte("%PDF"))); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, ok := mock.objects["tenant/a/doc.pdf"]; !ok {
		t.Errorf("object not stored under prefix; keys: %v", mock.objects)
	}
	if aws.ToString(mock.lastPut.IfNoneMatch) != "*" {
		t.Error("Put did not send If-None-Match")
	}
	if aws.ToInt64(mock.lastPut.ContentLength) != 4 {
		t.Errorf("ContentLength = %d, want 4", aws.ToInt64(mock.lastPut.ContentLength))
	}

	rc, err := store.Get(ctx, "a/doc.pdf")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	defer func() { _ = rc.Close() }()
	data, _ := io.ReadAll(rc)
	if string(data) != "%PDF" {
		t.Errorf("Get = %q", data)
	}
}

func TestStore_Put_ErrPathExists(t *testing.T) {
	ctx := t.Context()
	store, _ := New(newMockClient(), Config{Bucket: "docs"})

	if err := store.Put(ctx, "r.jsonl", bytes.NewReader([]byte("1"))); err != nil {
		t.Fatalf("first Put failed: %v", err)
	}
	err := store.Put(ctx, "r.jsonl", bytes.NewReader([]byte("2")))
	if !errors.Is(err, folio.ErrPathExists) {
		t.Errorf("expected ErrPathExists, got: %v", err)
	}
}

func TestStore_Put_TooLarge(t *testing.T) {
	mock := newMockClient()
	store, _ := New(mock, Config{Bucket: "docs", MaxObjectSize: 4})

	if err := store.Put(t.Context(), "big.pdf", bytes.NewReader([]byte("12345"))); !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got: %v", err)
	}
	if mock.putCalls != 0 {
		t.Errorf("PutObject called %d times for an oversized object", mock.putCalls)
	}
	if err := store.Put(t.Context(), "fits.pdf", bytes.NewReader([]byte("1234"))); err != nil {
		t.Errorf("Put at the limit failed: %v", err)
	}
}

func TestStore_Put_ContentType(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"docs/manual.pdf", "application/pdf"},
		{"reports/r.jsonl", "application/x-ndjson"},
		{"reports/r.parquet", "application/vnd.apache.parquet"},
		{"reports/r.jsonl.gz", "application/gzip"},
		{"docs/manual.pdf.zst", "application/zstd"},
		{"notes", "application/octet-stream"},
	}
	mock := newMockClient()
	store, _ := New(mock, Config{Bucket: "docs"})
	for _, tt := range tests {
		if err := store.Put(t.Context(), tt.key, bytes.NewReader([]byte("x"))); err != nil {
			t.Fatal(err)
		}
		if got := aws.ToString(mock.lastPut.ContentType); got != tt.want {
			t.Errorf("%s: Content-Type = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestStore_InvalidPath(t *testing.T) {
	ctx := t.Context()
	store, _ := New(newMockClient(), Config{Bucket: "docs"})

	for _, key := range []string{"", "..", "../x", "a/../../b"} {
		if err := store.Put(ctx, key, bytes.NewReader(nil)); !errors.Is(err, folio.ErrInvalidPath) {
			t.Errorf("Put(%q): expected ErrInvalidPath, got: %v", key, err)
		}
		if _, err := store.Get(ctx, key); !errors.Is(err, folio.ErrInvalidPath) {
			t.Errorf("Get(%q): expected ErrInvalidPath, got: %v", key, err)
		}
	}
	if _, err := store.List(ctx, "../up"); !errors.Is(err, folio.ErrInvalidPath) {
		t.Errorf("List: expected ErrInvalidPath, got: %v", err)
	}
}

func TestStore_Get_ErrNotFound(t *testing.T) {
	store, _ := New(newMockClient(), Config{Bucket: "docs"})
	if _, err := store.Get(t.Context(), "missing.pdf"); !errors.Is(err, folio.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestStore_ClientErrorsAreWrapped(t *testing.T) {
	ctx := t.Context()
	mock := newMockClient()
	mock.failWith = &apiError{code: "AccessDenied", message: "no"}
	store, _ := New(mock, Config{Bucket: "docs"})

	if _, err := store.Get(ctx, "a.pdf"); errors.Is(err, folio.ErrNotFound) || !errors.Is(err, mock.failWith) {
		t.Errorf("Get: expected wrapped AccessDenied, got: %v", err)
	}
	if _, err := store.Exists(ctx, "a.pdf"); err == nil {
		t.Error("Exists: expected error")
	}
	if err := store.Delete(ctx, "a.pdf"); err == nil {
		t.Error("Delete: expected error")
	}
	if _, err := store.List(ctx, ""); err == nil {
		t.Error("List: expected error")
	}
}

// -----------------------------------------------------------------------------
// Exists / Stat / List / Delete
// -----------------------------------------------------------------------------

func TestStore_ExistsStat(t *testing.T) {
	ctx := t.Context()
	store, _ := New(newMockClient(), Config{Bucket: "docs"})
	_ = store.Put(ctx, "a.pdf", bytes.NewReader([]byte("12345")))

	ok, err := store.Exists(ctx, "a.pdf")
	if err != nil || !ok {
		t.Errorf("Exists = %v, %v; want true", ok, err)
	}
	ok, err = store.Exists(ctx, "b.pdf")
	if err != nil || ok {
		t.Errorf("Exists(missing) = %v, %v; want false, nil", ok, err)
	}

	size, err := store.Stat(ctx, "a.pdf")
	if err != nil || size != 5 {
		t.Errorf("Stat = %d, %v; want 5", size, err)
	}
	if _, err := store.Stat(ctx, "b.pdf"); !errors.Is(err, folio.ErrNotFound) {
		t.Errorf("Stat(missing): expected ErrNotFound, got: %v", err)
	}
}

func TestStore_ListPaginates(t *testing.T) {
	ctx := t.Context()
	mock := newMockClient()
	mock.pageSize = 2
	store, _ := New(mock, Config{Bucket: "docs", Prefix: "tenant"})

	var want []string
	for i := range 5 {
		key := fmt.Sprintf("reports/r%d.jsonl", i)
		want = append(want, key)
		if err := store.Put(ctx, key, bytes.NewReader(nil)); err != nil {
			t.Fatal(err)
		}
	}
	_ = store.Put(ctx, "docs/a.pdf", bytes.NewReader(nil))

	_ = store.Put(ctx, "reports2/other.jsonl", bytes.NewReader(nil))

	keys, err := store.List(ctx, "reports/")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if !slices.Equal(keys, want) {
		t.Errorf("List = %v, want %v", keys, want)
	}
	if mock.listCalls != 3 {
		t.Errorf("ListObjectsV2 called %d times, want 3", mock.listCalls)
	}
}

func TestStore_Delete(t *testing.T) {
	ctx := t.Context()
	store, _ := New(newMockClient(), Config{Bucket: "docs"})
	_ = store.Put(ctx, "a.pdf", bytes.NewReader([]byte("x")))

	if err := store.Delete(ctx, "a.pdf"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, "a.pdf"); err != nil {
		t.Errorf("second Delete failed: %v", err)
	}
	if ok, _ := store.Exists(ctx, "a.pdf"); ok {
		t.Error("object exists after Delete")
	}
}

// -----------------------------------------------------------------------------
// Integration with folio
// -----------------------------------------------------------------------------

func TestStore_ReportRoundTrip(t *testing.T) {
	ctx := t.Context()
	store, _ := New(newMockClient(), Config{Bucket: "docs"})
	rows := []folio.PageRecord{
		{Position: 0, Page: 0, Width: 300, Height: 400},
		{Position: 1, Index: 1, Page: 1, Width: 300, Height: 200, Offset: 408},
	}

	key, err := folio.WriteReport(ctx, store, "reports/layout.parquet", folio.NewParquetCodec(), folio.NewGzipCompressor(), rows)
	if err != nil {
		t.Fatalf("WriteReport failed: %v", err)
	}
	got, err := folio.ReadReport(ctx, store, key, folio.NewParquetCodec())
	if err != nil {
		t.Fatalf("ReadReport failed: %v", err)
	}
	if !slices.Equal(got, rows) {
		t.Errorf("ReadReport = %+v, want %+v", got, rows)
	}
}

func TestIsNotFound(t *testing.T) {
	for _, err := range []error{
		&apiError{code: "NotFound"},
		&apiError{code: "NoSuchKey"},
		&apiError{code: "404"},
		fmt.Errorf("wrapped: %w", &apiError{code: "NoSuchKey"}),
	} {
		if !isNotFound(err) {
			t.Errorf("isNotFound(%v) = false", err)
		}
	}
	if isNotFound(errors.New("timeout")) || isNotFound(&apiError{code: "AccessDenied"}) {
		t.Error("isNotFound matched an unrelated error")
	}
}
