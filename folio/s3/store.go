// Package s3 keeps folio documents and layout reports in an S3-compatible
// bucket (AWS S3, MinIO, LocalStack, Cloudflare R2).
//
// A Store is read by folio.StoreSource when a document is loaded and
// written by folio.WriteReport. Documents and reports are single objects
// that fit in memory, so every write is one buffered PutObject, guarded by
// If-None-Match so a report is never replaced. Objects are tagged with a
// Content-Type derived from the key: PDFs, JSONL and Parquet reports, and
// their .gz/.zst forms.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/justapithecus/folio/folio"
)

// DefaultMaxObjectSize caps a single document or report upload.
const DefaultMaxObjectSize = 256 << 20

// ErrTooLarge is returned by Put when the data exceeds MaxObjectSize.
var ErrTooLarge = errors.New("folio/s3: object too large")

// API is the part of *s3.Client the store calls.
type API interface {
	s3.ListObjectsV2APIClient

	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config selects where documents and reports live.
type Config struct {
	// Bucket is required.
	Bucket string

	// Prefix scopes every key, e.g. a tenant or run. A trailing slash is
	// added if missing.
	Prefix string

	// MaxObjectSize bounds Put. Zero means DefaultMaxObjectSize.
	MaxObjectSize int64
}

// Store is a folio.Store backed by one bucket and prefix.
type Store struct {
	client  API
	bucket  string
	prefix  string
	maxSize int64
}

var _ folio.Store = (*Store)(nil)

// New returns a Store over client. Credentials, region and endpoint are
// the client's concern; see internal/s3.NewClient.
func New(client API, cfg Config) (*Store, error) {
	switch {
	case client == nil:
		return nil, fmt.Errorf("folio/s3: %w: client is required", folio.ErrInvalidConfiguration)
	case cfg.Bucket == "":
		return nil, fmt.Errorf("folio/s3: %w: bucket is required", folio.ErrInvalidConfiguration)
	case cfg.MaxObjectSize < 0:
		return nil, fmt.Errorf("folio/s3: %w: negative max object size", folio.ErrInvalidConfiguration)
	}

	s := &Store{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  cfg.Prefix,
		maxSize: cfg.MaxObjectSize,
	}
	if s.prefix != "" && !strings.HasSuffix(s.prefix, "/") {
		s.prefix += "/"
	}
	if s.maxSize == 0 {
		s.maxSize = DefaultMaxObjectSize
	}
	return s, nil
}

// Put uploads the document or report at key. An existing key is left
// untouched and folio.ErrPathExists is returned.
func (s *Store) Put(ctx context.Context, key string, r io.Reader) error {
	objKey, err := s.objectKey(key)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	n, err := buf.ReadFrom(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return fmt.Errorf("folio/s3: read %q: %w", key, err)
	}
	if n > s.maxSize {
		return fmt.Errorf("%w: %q exceeds %d bytes", ErrTooLarge, key, s.maxSize)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(objKey),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentLength: aws.Int64(n),
		ContentType:   aws.String(contentType(key)),
		IfNoneMatch:   aws.String("*"),
	})
	switch {
	case err == nil:
		return nil
	case hasCode(err, "PreconditionFailed", "412", "ConditionalRequestConflict"):
		return folio.ErrPathExists
	default:
		return fmt.Errorf("folio/s3: put %q: %w", key, err)
	}
}

// Get opens the object at key. The caller closes the body.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	objKey, err := s.objectKey(key)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objKey),
	})
	if err != nil {
		return nil, s.mapErr("get", key, err)
	}
	return out.Body, nil
}

// Exists reports whether key is present.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	switch _, err := s.Stat(ctx, key); {
	case err == nil:
		return true, nil
	case errors.Is(err, folio.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Stat returns the stored size of key in bytes, compressed if the key is.
func (s *Store) Stat(ctx context.Context, key string) (int64, error) {
	objKey, err := s.objectKey(key)
	if err != nil {
		return 0, err
	}
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objKey),
	})
	if err != nil {
		return 0, s.mapErr("head", key, err)
	}
	return aws.ToInt64(out.ContentLength), nil
}

// List returns the keys under prefix, relative to the store prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	listPrefix, err := s.listPrefix(prefix)
	if err != nil {
		return nil, err
	}

	var keys []string
	pages := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(listPrefix),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("folio/s3: list %q: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			if k := aws.ToString(obj.Key); k != "" {
				keys = append(keys, strings.TrimPrefix(k, s.prefix))
			}
		}
	}
	return keys, nil
}

// Delete removes key. Deleting a missing key succeeds.
func (s *Store) Delete(ctx context.Context, key string) error {
	objKey, err := s.objectKey(key)
	if err != nil {
		return err
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objKey),
	}); err != nil {
		return fmt.Errorf("folio/s3: delete %q: %w", key, err)
	}
	return nil
}

// objectKey maps a store key to its bucket key. Keys that are empty or
// climb out of the prefix are rejected.
func (s *Store) objectKey(key string) (string, error) {
	rel := strings.TrimPrefix(path.Clean("/"+key), "/")
	if key == "" || rel == "" || escapes(key) {
		return "", folio.ErrInvalidPath
	}
	return s.prefix + rel, nil
}

func (s *Store) listPrefix(prefix string) (string, error) {
	if prefix == "" {
		return s.prefix, nil
	}
	if escapes(prefix) {
		return "", folio.ErrInvalidPath
	}
	rel := strings.TrimPrefix(path.Clean("/"+prefix), "/")
	if rel == "" {
		return s.prefix, nil
	}
	if strings.HasSuffix(prefix, "/") {
		rel += "/"
	}
	return s.prefix + rel, nil
}

// escapes reports whether p, taken relative to the prefix, leaves it.
func escapes(p string) bool {
	c := path.Clean(strings.TrimPrefix(p, "/"))
	return c == ".." || strings.HasPrefix(c, "../")
}

func (s *Store) mapErr(op, key string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("folio/s3: %s %q: %w", op, key, folio.ErrNotFound)
	}
	return fmt.Errorf("folio/s3: %s %q: %w", op, key, err)
}

// contentType tags documents and reports so they open correctly when
// fetched outside folio.
func contentType(key string) string {
	switch path.Ext(key) {
	case ".pdf":
		return "application/pdf"
	case ".jsonl":
		return "application/x-ndjson"
	case ".parquet":
		return "application/vnd.apache.parquet"
	case ".gz":
		return "application/gzip"
	case ".zst":
		return "application/zstd"
	default:
		return "application/octet-stream"
	}
}

// notFoundCodes are the error codes S3-compatible services use for a
// missing key or bucket. HeadObject has no body and reports a bare 404.
var notFoundCodes = []string{"NotFound", "NoSuchKey", "NoSuchBucket", "404"}

func isNotFound(err error) bool {
	var (
		noKey    *types.NoSuchKey
		notFound *types.NotFound
		noBucket *types.NoSuchBucket
	)
	if errors.As(err, &noKey) || errors.As(err, &notFound) || errors.As(err, &noBucket) {
		return true
	}
	return hasCode(err, notFoundCodes...)
}

func hasCode(err error, codes ...string) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return slices.Contains(codes, apiErr.ErrorCode())
}
