// Package folio computes page layouts for paged documents and loads those
// documents off the interactive thread.
//
// Folio focuses on the layout core of a document viewer: fitting every page
// into a viewport under a fitting policy, compacting a caller's page ordering
// into the minimal set of pages to decode, and coordinating one background
// load per request with cancellation-aware delivery. It does not render
// pixels or dispatch UI events.
package folio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// -----------------------------------------------------------------------------
// Core types
// -----------------------------------------------------------------------------

// Size is a width/height pair, in native document units for pages and in
// pixels for viewports and rendered pages.
//
// The zero value means "absent".
type Size struct {
	Width  float32 `json:"width"`
	Height float32 `json:"height"`
}

// IsZero reports whether s is the absent size.
func (s Size) IsZero() bool {
	return s.Width == 0 && s.Height == 0
}

// Valid reports whether both dimensions are strictly positive.
func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

// Scale returns s multiplied by factor in both dimensions.
func (s Size) Scale(factor float32) Size {
	return Size{Width: s.Width * factor, Height: s.Height * factor}
}

func (s Size) String() string {
	return fmt.Sprintf("%gx%g", s.Width, s.Height)
}

// FitPolicy selects how pages are scaled into the viewport.
type FitPolicy int

// Fit policies.
const (
	// FitWidth scales pages so their width matches the target width.
	FitWidth FitPolicy = iota

	// FitHeight scales pages so their height matches the target height.
	FitHeight

	// FitBoth scales pages by the smaller of the two ratios so the whole
	// page fits in both dimensions.
	FitBoth

	fitPolicyMax // sentinel for validation
)

func (p FitPolicy) String() string {
	switch p {
	case FitWidth:
		return "width"
	case FitHeight:
		return "height"
	case FitBoth:
		return "both"
	default:
		return fmt.Sprintf("FitPolicy(%d)", int(p))
	}
}

// valid reports whether p is one of the defined policies.
func (p FitPolicy) valid() bool {
	return p >= 0 && p < fitPolicyMax
}

// ParseFitPolicy parses "width", "height" or "both" (case-insensitive).
func ParseFitPolicy(s string) (FitPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "width":
		return FitWidth, nil
	case "height":
		return FitHeight, nil
	case "both":
		return FitBoth, nil
	}
	return 0, fmt.Errorf("%w: unknown fit policy %q", ErrInvalidConfiguration, s)
}

// Spacing holds the gaps inserted between and around pages, in pixels.
type Spacing struct {
	// Page is the gap between two consecutive pages.
	Page float32 `json:"page"`

	// Start is the gap before the first page.
	Start float32 `json:"start"`

	// End is the gap after the last page.
	End float32 `json:"end"`

	// Auto enables per-page spacing that centres each page in a slot one
	// viewport long.
	Auto bool `json:"auto"`
}

// LayoutConfig is the layout state captured from a view when a load begins.
//
// It is a plain value: later changes to the view never reach a snapshot that
// was already taken.
type LayoutConfig struct {
	Fit         FitPolicy `json:"fit"`
	FitEachPage bool      `json:"fit_each_page"`
	Viewport    Size      `json:"viewport"`
	Vertical    bool      `json:"vertical"`
	Spacing     Spacing   `json:"spacing"`
}

// -----------------------------------------------------------------------------
// Engine interfaces
// -----------------------------------------------------------------------------

// Engine opens native documents.
//
// Implementations wrap a concrete document library; see package folio/pdf.
type Engine interface {
	// Open decodes the document readable from r, which holds size bytes.
	Open(ctx context.Context, r io.ReaderAt, size int64, password string) (NativeDocument, error)
}

// NativeDocument is an open document owned by an Engine.
type NativeDocument interface {
	// PageCount returns the number of pages in the document.
	PageCount() int

	// PageSize returns the native size of the 0-based page.
	PageSize(page int) (Size, error)

	// Close releases engine resources held for the document.
	Close() error
}

// DocumentSource produces a native document. It is invoked exactly once per
// load, from the background step.
type DocumentSource interface {
	CreateDocument(ctx context.Context, engine Engine, password string) (NativeDocument, error)
}

// -----------------------------------------------------------------------------
// View interfaces
// -----------------------------------------------------------------------------

// View is the UI object that requests a load and receives its outcome.
//
// LayoutConfig and Viewport are read once, when the task is created.
// LoadComplete and LoadError are called on the interactive thread.
type View interface {
	LayoutConfig() LayoutConfig
	Viewport() Size
	LoadComplete(doc *Document)
	LoadError(err error)
}

// ViewRef is a non-owning reference to a View. Get returns false once the
// view has been torn down.
type ViewRef interface {
	Get() (View, bool)
}

// Dispatcher runs functions on the interactive thread.
// Post must not block. It returns an error if fn will never run, for
// example because the thread has shut down.
type Dispatcher interface {
	Post(fn func()) error
}

// -----------------------------------------------------------------------------
// Store interface
// -----------------------------------------------------------------------------

// Store abstracts the storage that documents are read from and layout
// reports are written to.
type Store interface {
	// Put writes data to the given path.
	Put(ctx context.Context, path string, r io.Reader) error

	// Get retrieves data from the given path.
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Exists checks whether a path exists.
	Exists(ctx context.Context, path string) (bool, error)

	// List returns paths under the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the path if it exists.
	Delete(ctx context.Context, path string) error
}

// -----------------------------------------------------------------------------
// Codec and Compressor interfaces
// -----------------------------------------------------------------------------

// Codec serializes layout report rows.
type Codec interface {
	// Name returns the codec identifier ("jsonl" or "parquet").
	Name() string

	// Encode writes rows to w.
	Encode(w io.Writer, rows []PageRecord) error

	// Decode reads rows from r.
	Decode(r io.Reader) ([]PageRecord, error)
}

// Compressor handles compression of stored documents and reports.
type Compressor interface {
	// Name returns the compressor identifier ("gzip", "zstd", "noop").
	Name() string

	// Extension returns the file extension (".gz", ".zst", "").
	Extension() string

	// Compress wraps a writer with compression.
	Compress(w io.Writer) (io.WriteCloser, error)

	// Decompress wraps a reader with decompression.
	Decompress(r io.Reader) (io.ReadCloser, error)
}

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

// Load failure taxonomy.
var (
	// ErrInvalidConfiguration indicates a required layout input was absent
	// or out of range.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrDocumentOpen indicates the document could not be opened, parsed,
	// or decrypted.
	ErrDocumentOpen = errors.New("document open failed")

	// ErrViewGone indicates the requesting view no longer exists.
	ErrViewGone = errors.New("view gone")

	// ErrUnspecified wraps any other failure raised by the background step.
	ErrUnspecified = errors.New("unspecified load failure")
)

// Error sentinel values for stores, codecs and tasks.
var (
	// ErrNotFound indicates a requested path does not exist.
	ErrNotFound = errNotFound{}

	// ErrPathExists indicates an attempt to write to an existing path.
	ErrPathExists = errPathExists{}

	// ErrInvalidPath indicates a path that would escape the storage root.
	ErrInvalidPath = errors.New("invalid path: escapes storage root")

	// ErrInvalidFormat indicates malformed codec input.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrTaskStarted indicates Start was called twice on a LoadTask.
	ErrTaskStarted = errors.New("load task already started")

	// ErrClosed indicates use of a closed Looper or Document.
	ErrClosed = errors.New("closed")
)

type errNotFound struct{}

func (errNotFound) Error() string { return "not found" }

type errPathExists struct{}

func (errPathExists) Error() string { return "path exists" }

// FailureKind classifies a load failure.
type FailureKind int

// Failure kinds, in the order Classify checks them.
const (
	FailureUnspecified FailureKind = iota
	FailureInvalidConfiguration
	FailureDocumentOpen
	FailureViewGone
)

func (k FailureKind) String() string {
	switch k {
	case FailureInvalidConfiguration:
		return "invalid_configuration"
	case FailureDocumentOpen:
		return "document_open"
	case FailureViewGone:
		return "view_gone"
	default:
		return "unspecified"
	}
}

// Classify maps err onto the load failure taxonomy using errors.Is only.
func Classify(err error) FailureKind {
	switch {
	case err == nil:
		return FailureUnspecified
	case errors.Is(err, ErrViewGone):
		return FailureViewGone
	case errors.Is(err, ErrDocumentOpen):
		return FailureDocumentOpen
	case errors.Is(err, ErrInvalidConfiguration):
		return FailureInvalidConfiguration
	default:
		return FailureUnspecified
	}
}
