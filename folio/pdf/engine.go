// Package pdf implements a folio.Engine for PDF documents.
//
// The engine reads page geometry only: /CropBox (falling back to /MediaBox),
// inherited through the page tree, with /Rotate applied. It does not render.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	lpdf "github.com/ledongthuc/pdf"

	"github.com/justapithecus/folio/folio"
)

// ErrInvalidPassword indicates the document is encrypted and the password
// was missing or wrong.
var ErrInvalidPassword = errors.New("pdf: invalid password")

// maxTreeDepth bounds the /Parent walk for inherited attributes.
const maxTreeDepth = 64

// defaultPageSize is US Letter, used when a page carries no usable box.
var defaultPageSize = folio.Size{Width: 612, Height: 792}

// Engine opens PDF documents. The zero value is ready to use.
type Engine struct{}

// New returns a PDF engine.
func New() *Engine {
	return &Engine{}
}

// Open parses the document in r.
func (e *Engine) Open(ctx context.Context, r io.ReaderAt, size int64, password string) (folio.NativeDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	reader, err := newReader(r, size, password)
	if err != nil {
		return nil, err
	}
	count, err := numPages(reader)
	if err != nil {
		return nil, err
	}
	return &Document{reader: reader, count: count}, nil
}

// newReader recovers parser panics on malformed input.
func newReader(r io.ReaderAt, size int64, password string) (reader *lpdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reader = nil
			err = fmt.Errorf("pdf: malformed document: %v", rec)
		}
	}()

	if password == "" {
		reader, err = lpdf.NewReader(r, size)
	} else {
		// The callback is asked again after every rejected password; the
		// empty string ends the retries.
		tried := false
		reader, err = lpdf.NewReaderEncrypted(r, size, func() string {
			if tried {
				return ""
			}
			tried = true
			return password
		})
	}
	if errors.Is(err, lpdf.ErrInvalidPassword) {
		return nil, ErrInvalidPassword
	}
	if err != nil {
		return nil, fmt.Errorf("pdf: %w", err)
	}
	return reader, nil
}

func numPages(reader *lpdf.Reader) (n int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf: malformed page tree: %v", rec)
		}
	}()
	return reader.NumPage(), nil
}

// Document is an open PDF. It is safe for concurrent use.
type Document struct {
	mu     sync.Mutex
	reader *lpdf.Reader
	count  int
	closed bool
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return d.count
}

// PageSize returns the displayed size of the 0-based page in points.
func (d *Document) PageSize(page int) (size folio.Size, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return folio.Size{}, folio.ErrClosed
	}
	if page < 0 || page >= d.count {
		return folio.Size{}, fmt.Errorf("pdf: page %d out of range [0, %d)", page, d.count)
	}

	defer func() {
		if rec := recover(); rec != nil {
			size = folio.Size{}
			err = fmt.Errorf("pdf: page %d: %v", page, rec)
		}
	}()

	v := d.reader.Page(page + 1).V
	if v.IsNull() {
		return folio.Size{}, fmt.Errorf("pdf: page %d: missing page object", page)
	}

	size = defaultPageSize
	if box, ok := pageBox(v); ok {
		size = box
	}
	rotate := inherited(v, "Rotate").Int64() % 360
	if rotate < 0 {
		rotate += 360
	}
	if rotate == 90 || rotate == 270 {
		size.Width, size.Height = size.Height, size.Width
	}
	return size, nil
}

// Close releases the document. Later PageSize calls return folio.ErrClosed.
func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.reader = nil
	return nil
}

// pageBox returns the visible box of a page.
func pageBox(page lpdf.Value) (folio.Size, bool) {
	for _, key := range []string{"CropBox", "MediaBox"} {
		if size, ok := rectSize(inherited(page, key)); ok {
			return size, true
		}
	}
	return folio.Size{}, false
}

func rectSize(rect lpdf.Value) (folio.Size, bool) {
	if rect.Kind() != lpdf.Array || rect.Len() < 4 {
		return folio.Size{}, false
	}
	x0, y0 := rect.Index(0).Float64(), rect.Index(1).Float64()
	x1, y1 := rect.Index(2).Float64(), rect.Index(3).Float64()
	size := folio.Size{
		Width:  float32(math.Abs(x1 - x0)),
		Height: float32(math.Abs(y1 - y0)),
	}
	return size, size.Valid()
}

// inherited looks key up on v and then on its ancestors in the page tree.
func inherited(v lpdf.Value, key string) lpdf.Value {
	for depth := 0; depth < maxTreeDepth && !v.IsNull(); depth++ {
		if x := v.Key(key); !x.IsNull() {
			return x
		}
		v = v.Key("Parent")
	}
	return lpdf.Value{}
}
