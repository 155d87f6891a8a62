package folio

import (
	"fmt"
	"sort"
	"sync"
)

// Document is an opened document together with its computed layout.
//
// Pages are addressed by compacted index: position i of the deduplicated
// page ordering. The layout is computed once by NewDocument and never
// changes; a different viewport or configuration means a new load. Only
// Close mutates a Document.
type Document struct {
	native NativeDocument
	index  PageIndex
	config LayoutConfig
	calc   *PageSizeCalculator

	nativeSizes []Size
	sizes       []Size
	spacing     []float32 // per-page slot spacing; set only with Spacing.Auto
	offsets     []float32
	length      float32
	maxPage     Size

	closeOnce sync.Once
	closeErr  error
}

// NewDocument reads page sizes from native and computes the layout for the
// requested page ordering under cfg.
//
// An empty ordering shows every native page in order. Requested page numbers
// outside the native page range produce an error wrapping
// ErrInvalidConfiguration. NewDocument does not close native on failure.
func NewDocument(native NativeDocument, requested []int, cfg LayoutConfig) (*Document, error) {
	if native == nil {
		return nil, fmt.Errorf("folio: %w: native document is nil", ErrInvalidConfiguration)
	}

	count := native.PageCount()
	index := identityPageIndex(count)
	if len(requested) > 0 {
		index = NewPageIndex(requested)
		for _, p := range index.pages {
			if p < 0 || p >= count {
				return nil, fmt.Errorf("folio: %w: page %d outside document of %d pages", ErrInvalidConfiguration, p, count)
			}
		}
	}

	d := &Document{
		native:      native,
		index:       index,
		config:      cfg,
		nativeSizes: make([]Size, index.Len()),
	}

	var maxWidth, maxHeight Size
	for i, p := range index.pages {
		size, err := native.PageSize(p)
		if err != nil {
			return nil, fmt.Errorf("folio: page %d size: %w", p, err)
		}
		d.nativeSizes[i] = size
		if size.Width > maxWidth.Width {
			maxWidth = size
		}
		if size.Height > maxHeight.Height {
			maxHeight = size
		}
	}

	calc, err := NewPageSizeCalculator(cfg.Fit, maxWidth, maxHeight, cfg.Viewport, cfg.FitEachPage)
	if err != nil {
		return nil, err
	}
	d.calc = calc
	d.maxPage = Size{
		Width:  calc.OptimalMaxWidthPageSize().Width,
		Height: calc.OptimalMaxHeightPageSize().Height,
	}

	d.sizes = make([]Size, len(d.nativeSizes))
	for i, size := range d.nativeSizes {
		d.sizes[i] = calc.Calculate(size)
	}

	if cfg.Spacing.Auto {
		d.prepareAutoSpacing()
	}
	d.prepareOffsets()
	return d, nil
}

// pageLength returns the page extent along the scroll axis.
func (d *Document) pageLength(i int) float32 {
	if d.config.Vertical {
		return d.sizes[i].Height
	}
	return d.sizes[i].Width
}

func (d *Document) viewportLength() float32 {
	if d.config.Vertical {
		return d.config.Viewport.Height
	}
	return d.config.Viewport.Width
}

// prepareAutoSpacing gives every page a slot at least one viewport long.
func (d *Document) prepareAutoSpacing() {
	n := len(d.sizes)
	d.spacing = make([]float32, n)
	for i := range d.sizes {
		s := ClampLowerBound(d.viewportLength()-d.pageLength(i), 0)
		if i < n-1 {
			s += d.config.Spacing.Page
		}
		d.spacing[i] = s
	}
}

func (d *Document) prepareOffsets() {
	n := len(d.sizes)
	gap := d.config.Spacing.Page
	d.offsets = make([]float32, n)

	offset := d.config.Spacing.Start
	for i := range d.sizes {
		length := d.pageLength(i)
		if d.spacing == nil {
			d.offsets[i] = offset
			offset += length
			if i < n-1 {
				offset += gap
			}
			continue
		}
		offset += d.spacing[i] / 2
		switch {
		case n > 1 && i == 0:
			offset -= gap / 2
		case n > 1 && i == n-1:
			offset += gap / 2
		}
		d.offsets[i] = offset
		offset += length + d.spacing[i]/2
	}
	d.length = offset + d.config.Spacing.End
}

func (d *Document) inRange(i int) bool {
	return i >= 0 && i < len(d.sizes)
}

// PageCount returns the number of compacted pages.
func (d *Document) PageCount() int {
	return len(d.sizes)
}

// PageIndex returns the compacted page mapping.
func (d *Document) PageIndex() PageIndex {
	return d.index
}

// Config returns the layout snapshot the document was built with.
func (d *Document) Config() LayoutConfig {
	return d.config
}

// Calculator returns the page size calculator.
func (d *Document) Calculator() *PageSizeCalculator {
	return d.calc
}

// Native returns the engine document handle.
func (d *Document) Native() NativeDocument {
	return d.native
}

// DocumentPage returns the native page number for a compacted index, or -1.
func (d *Document) DocumentPage(i int) int {
	p, _ := d.index.Page(i)
	return p
}

// PageForPosition returns the compacted index shown at a requested position.
func (d *Document) PageForPosition(position int) (int, bool) {
	return d.index.Compacted(position)
}

// NativePageSize returns the native size of a compacted page.
func (d *Document) NativePageSize(i int) Size {
	if !d.inRange(i) {
		return Size{}
	}
	return d.nativeSizes[i]
}

// PageSize returns the display size of a compacted page at zoom 1.
func (d *Document) PageSize(i int) Size {
	if !d.inRange(i) {
		return Size{}
	}
	return d.sizes[i]
}

// ScaledPageSize returns the display size of a compacted page at zoom.
func (d *Document) ScaledPageSize(i int, zoom float32) Size {
	return d.PageSize(i).Scale(zoom)
}

// MaxPageSize returns the display width of the widest page and the display
// height of the tallest page.
func (d *Document) MaxPageSize() Size {
	return d.maxPage
}

// PageOffset returns the offset of a page along the scroll axis.
func (d *Document) PageOffset(i int, zoom float32) float32 {
	if !d.inRange(i) {
		return 0
	}
	return d.offsets[i] * zoom
}

// PageSpacing returns the spacing that follows a page.
func (d *Document) PageSpacing(i int, zoom float32) float32 {
	if d.spacing == nil {
		return d.config.Spacing.Page * zoom
	}
	if !d.inRange(i) {
		return 0
	}
	return d.spacing[i] * zoom
}

// SecondaryPageOffset returns the offset that centres a page across the
// scroll axis.
func (d *Document) SecondaryPageOffset(i int, zoom float32) float32 {
	size := d.PageSize(i)
	if d.config.Vertical {
		return zoom * (d.maxPage.Width - size.Width) / 2
	}
	return zoom * (d.maxPage.Height - size.Height) / 2
}

// DocumentLength returns the total scroll extent including spacing.
func (d *Document) DocumentLength(zoom float32) float32 {
	return d.length * zoom
}

// PageAtOffset returns the compacted page whose slot contains offset.
func (d *Document) PageAtOffset(offset, zoom float32) int {
	n := len(d.offsets)
	i := sort.Search(n, func(i int) bool {
		return d.offsets[i]*zoom-d.PageSpacing(i, zoom)/2 >= offset
	})
	return Limit(i-1, 0, ClampLowerBound(n-1, 0))
}

// Close releases the native document. It is safe to call more than once.
func (d *Document) Close() error {
	d.closeOnce.Do(func() {
		if d.native == nil {
			return
		}
		if err := d.native.Close(); err != nil {
			d.closeErr = fmt.Errorf("folio: close document: %w", err)
		}
	})
	return d.closeErr
}
