package folio

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Load options
// -----------------------------------------------------------------------------

// loadConfig holds the resolved configuration for a load task.
type loadConfig struct {
	password   string
	pages      []int
	dispatcher Dispatcher
}

// LoadOption configures NewLoadTask.
type LoadOption func(*loadConfig)

// WithPassword sets the password handed to the document source.
func WithPassword(password string) LoadOption {
	return func(c *loadConfig) {
		c.password = password
	}
}

// WithPages sets the requested page ordering. Adjacent duplicates are
// allowed and share one compacted page. Default: every page in order.
func WithPages(pages []int) LoadOption {
	return func(c *loadConfig) {
		c.pages = append([]int(nil), pages...)
	}
}

// WithDispatcher sets the interactive thread that receives the outcome.
// Default: the outcome is delivered on the background goroutine. If d
// rejects the delivery the task settles as OutcomeDiscarded and the result
// stays available through Result.
func WithDispatcher(d Dispatcher) LoadOption {
	return func(c *loadConfig) {
		c.dispatcher = d
	}
}

// -----------------------------------------------------------------------------
// Task state
// -----------------------------------------------------------------------------

// State is the lifecycle stage of a LoadTask.
type State int32

// Task states.
const (
	StateCreated State = iota
	StateRunning
	StateSucceeded
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Outcome records what the delivery step did.
type Outcome int

// Outcomes.
const (
	// OutcomePending means delivery has not happened yet.
	OutcomePending Outcome = iota

	// OutcomeLoaded means View.LoadComplete was called.
	OutcomeLoaded

	// OutcomeFailed means View.LoadError was called.
	OutcomeFailed

	// OutcomeDiscarded means no callback was made: the task was cancelled
	// before a successful load finished, or the view or the dispatcher was
	// gone.
	OutcomeDiscarded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLoaded:
		return "loaded"
	case OutcomeFailed:
		return "failed"
	case OutcomeDiscarded:
		return "discarded"
	default:
		return "pending"
	}
}

// LoadResult is the terminal result of a load: exactly one of Document and
// Err is set.
type LoadResult struct {
	Document *Document
	Err      error
}

// -----------------------------------------------------------------------------
// LoadTask
// -----------------------------------------------------------------------------

// LoadTask opens one document off the interactive thread and reports the
// outcome to the requesting view.
//
// The task captures its layout snapshot, password and page ordering when it
// is created and holds the view only through a ViewRef. Cancel is
// cooperative: the background step always runs to completion, and the
// cancellation flag is consulted only at delivery. A cancelled success is
// discarded (the Document stays available through Result so the caller can
// close it); a failure is reported even when cancelled.
type LoadTask struct {
	id         string
	ref        ViewRef
	source     DocumentSource
	engine     Engine
	password   string
	pages      []int
	config     LayoutConfig
	dispatcher Dispatcher

	state     atomic.Int32
	cancelled atomic.Bool
	done      chan struct{}

	// written on the dispatcher before done is closed
	result  LoadResult
	outcome Outcome
}

// NewLoadTask creates a load task for the view behind ref.
//
// The view must be alive: its LayoutConfig and Viewport are read here and
// never again. Returns an error wrapping ErrViewGone if it is not, or
// ErrInvalidConfiguration if a collaborator is nil.
func NewLoadTask(ref ViewRef, source DocumentSource, engine Engine, opts ...LoadOption) (*LoadTask, error) {
	if ref == nil || source == nil || engine == nil {
		return nil, fmt.Errorf("folio: %w: view ref, document source and engine are required", ErrInvalidConfiguration)
	}

	cfg := &loadConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.dispatcher == nil {
		cfg.dispatcher = DispatcherFunc(func(fn func()) { fn() })
	}

	view, ok := ref.Get()
	if !ok {
		return nil, fmt.Errorf("folio: %w", ErrViewGone)
	}
	snapshot := view.LayoutConfig()
	snapshot.Viewport = view.Viewport()

	return &LoadTask{
		id:         uuid.New().String(),
		ref:        ref,
		source:     source,
		engine:     engine,
		password:   cfg.password,
		pages:      cfg.pages,
		config:     snapshot,
		dispatcher: cfg.dispatcher,
		done:       make(chan struct{}),
	}, nil
}

// ID returns the task's unique identifier.
func (t *LoadTask) ID() string { return t.id }

// Snapshot returns the layout configuration captured at creation.
func (t *LoadTask) Snapshot() LayoutConfig { return t.config }

// Pages returns a copy of the requested page ordering.
func (t *LoadTask) Pages() []int { return append([]int(nil), t.pages...) }

// State returns the current lifecycle stage.
func (t *LoadTask) State() State { return State(t.state.Load()) }

// Cancel requests cancellation. It never interrupts the background step.
func (t *LoadTask) Cancel() {
	if !t.cancelled.Swap(true) {
		Logger().Debug("folio: load cancel requested", "task", t.id)
	}
}

// Cancelled reports whether Cancel has been called.
func (t *LoadTask) Cancelled() bool { return t.cancelled.Load() }

// Done is closed after the delivery step has run.
func (t *LoadTask) Done() <-chan struct{} { return t.done }

// Result returns the load result and the delivery outcome once Done is
// closed. Before that it returns the zero LoadResult and OutcomePending.
func (t *LoadTask) Result() (LoadResult, Outcome) {
	select {
	case <-t.done:
		return t.result, t.outcome
	default:
		return LoadResult{}, OutcomePending
	}
}

// Wait blocks until delivery has run or ctx is done.
// It must not be called from the dispatcher's goroutine.
func (t *LoadTask) Wait(ctx context.Context) (LoadResult, Outcome, error) {
	select {
	case <-t.done:
		return t.result, t.outcome, nil
	case <-ctx.Done():
		return LoadResult{}, OutcomePending, ctx.Err()
	}
}

// Start launches the background step. ctx is passed to the document source.
// Returns ErrTaskStarted if the task was already started.
func (t *LoadTask) Start(ctx context.Context) error {
	if !t.state.CompareAndSwap(int32(StateCreated), int32(StateRunning)) {
		return ErrTaskStarted
	}
	Logger().Debug("folio: load started",
		"task", t.id,
		"pages", FormatPages(t.pages),
		"fit", t.config.Fit.String(),
		"viewport", t.config.Viewport.String())

	go func() {
		doc, err := t.background(ctx)
		if perr := t.dispatcher.Post(func() { t.deliver(doc, err, true) }); perr != nil {
			// No interactive thread left to call the view on: settle here so
			// the outcome is still recorded and Done closes.
			Logger().Warn("folio: dispatcher rejected delivery", "task", t.id, "error", perr)
			t.deliver(doc, err, false)
		}
	}()
	return nil
}

// background opens the document and builds its layout. Every failure,
// including a panic, is returned as an error.
func (t *LoadTask) background(ctx context.Context) (doc *Document, err error) {
	var native NativeDocument
	defer func() {
		if r := recover(); r != nil {
			if native != nil {
				_ = native.Close()
			}
			doc = nil
			err = fmt.Errorf("folio: load %s: %w: panic: %v", t.id, ErrUnspecified, r)
		}
	}()

	if _, ok := t.ref.Get(); !ok {
		return nil, fmt.Errorf("folio: load %s: %w", t.id, ErrViewGone)
	}

	native, err = t.source.CreateDocument(ctx, t.engine, t.password)
	if err != nil {
		if errors.Is(err, ErrDocumentOpen) || errors.Is(err, ErrInvalidConfiguration) {
			return nil, fmt.Errorf("folio: load %s: %w", t.id, err)
		}
		return nil, fmt.Errorf("folio: load %s: %w: %w", t.id, ErrDocumentOpen, err)
	}
	if native == nil {
		return nil, fmt.Errorf("folio: load %s: %w: source returned no document", t.id, ErrDocumentOpen)
	}
	Logger().Debug("folio: document opened", "task", t.id, "pages", native.PageCount())

	doc, err = NewDocument(native, t.pages, t.config)
	if err != nil {
		if cerr := native.Close(); cerr != nil {
			Logger().Warn("folio: close after failed layout", "task", t.id, "error", cerr)
		}
		return nil, fmt.Errorf("folio: load %s: %w", t.id, err)
	}
	return doc, nil
}

// deliver runs on the dispatcher, or on the background goroutine with
// notify unset when the dispatcher rejected it. Without notify no view
// callback is made.
func (t *LoadTask) deliver(doc *Document, err error, notify bool) {
	defer close(t.done)
	t.result = LoadResult{Document: doc, Err: err}

	view, alive := t.ref.Get()
	alive = alive && notify
	switch {
	case err != nil:
		t.state.Store(int32(StateFailed))
		Logger().Warn("folio: load failed",
			"task", t.id,
			"kind", Classify(err).String(),
			"error", err)
		if !alive {
			t.outcome = OutcomeDiscarded
			return
		}
		t.outcome = OutcomeFailed
		view.LoadError(err)
	case t.cancelled.Load():
		t.state.Store(int32(StateCancelled))
		t.outcome = OutcomeDiscarded
		Logger().Debug("folio: cancelled load discarded", "task", t.id)
	case !alive:
		t.state.Store(int32(StateSucceeded))
		t.outcome = OutcomeDiscarded
		Logger().Debug("folio: view gone before delivery", "task", t.id)
	default:
		t.state.Store(int32(StateSucceeded))
		t.outcome = OutcomeLoaded
		Logger().Debug("folio: load delivered", "task", t.id, "pages", doc.PageCount())
		view.LoadComplete(doc)
	}
}
