package folio

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
)

// fakeNative is an in-memory NativeDocument.
type fakeNative struct {
	sizes    []Size
	sizeErr  error
	closeErr error
	closed   atomic.Int32
}

func newFakeNative(sizes ...Size) *fakeNative {
	return &fakeNative{sizes: sizes}
}

func (f *fakeNative) PageCount() int { return len(f.sizes) }

func (f *fakeNative) PageSize(page int) (Size, error) {
	if f.sizeErr != nil {
		return Size{}, f.sizeErr
	}
	if page < 0 || page >= len(f.sizes) {
		return Size{}, errors.New("page out of range")
	}
	return f.sizes[page], nil
}

func (f *fakeNative) Close() error {
	f.closed.Add(1)
	return f.closeErr
}

// fakeEngine opens every input as the same native document. It records the
// bytes and password it was given.
type fakeEngine struct {
	mu       sync.Mutex
	doc      NativeDocument
	err      error
	data     []byte
	password string
}

func (e *fakeEngine) Open(_ context.Context, r io.ReaderAt, size int64, password string) (NativeDocument, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.data = make([]byte, size)
	if _, err := r.ReadAt(e.data, 0); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	e.password = password
	if e.err != nil {
		return nil, e.err
	}
	return e.doc, nil
}

// sourceFunc adapts a function to DocumentSource.
type sourceFunc func(ctx context.Context, engine Engine, password string) (NativeDocument, error)

func (f sourceFunc) CreateDocument(ctx context.Context, engine Engine, password string) (NativeDocument, error) {
	return f(ctx, engine, password)
}

// fakeView records the callbacks it receives.
type fakeView struct {
	config   LayoutConfig
	viewport Size

	mu        sync.Mutex
	loaded    []*Document
	failures  []error
	callbacks chan struct{}
}

func newFakeView(cfg LayoutConfig, viewport Size) *fakeView {
	return &fakeView{config: cfg, viewport: viewport, callbacks: make(chan struct{}, 16)}
}

func (v *fakeView) LayoutConfig() LayoutConfig { return v.config }
func (v *fakeView) Viewport() Size             { return v.viewport }

func (v *fakeView) LoadComplete(doc *Document) {
	v.mu.Lock()
	v.loaded = append(v.loaded, doc)
	v.mu.Unlock()
	v.callbacks <- struct{}{}
}

func (v *fakeView) LoadError(err error) {
	v.mu.Lock()
	v.failures = append(v.failures, err)
	v.mu.Unlock()
	v.callbacks <- struct{}{}
}

func (v *fakeView) counts() (loaded, failed int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.loaded), len(v.failures)
}

// goneRef is a ViewRef whose view has already been torn down.
type goneRef struct{}

func (goneRef) Get() (View, bool) { return nil, false }
