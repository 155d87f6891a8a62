package folio

import "fmt"

// PageSizeCalculator sizes pages for display.
//
// The ratios are derived once from the document's widest and tallest pages;
// every other page is then sized by scaling its native box with those ratios
// and fitting it with the policy's strategy. With fitEachPage every page is
// instead fitted to the full viewport on its own.
//
// A PageSizeCalculator is immutable and safe for concurrent use.
type PageSizeCalculator struct {
	policy      FitPolicy
	strategy    FitStrategy
	viewport    Size
	fitEachPage bool

	originalMaxWidth  Size
	originalMaxHeight Size
	optimalMaxWidth   Size
	optimalMaxHeight  Size
	widthRatio        float32
	heightRatio       float32
}

// NewPageSizeCalculator derives the width and height ratios for a document.
//
// maxWidthPage is the native size of the page with the largest width and
// maxHeightPage the native size of the page with the largest height.
// Returns an error wrapping ErrInvalidConfiguration if the policy is unknown
// or any size is absent or non-positive.
func NewPageSizeCalculator(policy FitPolicy, maxWidthPage, maxHeightPage, viewport Size, fitEachPage bool) (*PageSizeCalculator, error) {
	if !policy.valid() {
		return nil, fmt.Errorf("folio: %w: unknown fit policy %d", ErrInvalidConfiguration, int(policy))
	}
	for _, in := range []struct {
		name string
		size Size
	}{
		{"max width page size", maxWidthPage},
		{"max height page size", maxHeightPage},
		{"viewport size", viewport},
	} {
		if !in.size.Valid() {
			return nil, fmt.Errorf("folio: %w: %s %s", ErrInvalidConfiguration, in.name, in.size)
		}
	}

	c := &PageSizeCalculator{
		policy:            policy,
		strategy:          policy.Strategy(),
		viewport:          viewport,
		fitEachPage:       fitEachPage,
		originalMaxWidth:  maxWidthPage,
		originalMaxHeight: maxHeightPage,
	}
	c.deriveRatios()
	return c, nil
}

func (c *PageSizeCalculator) deriveRatios() {
	maxW, maxH, vp := c.originalMaxWidth, c.originalMaxHeight, c.viewport
	switch c.policy {
	case FitHeight:
		c.optimalMaxHeight = c.strategy.Fit(maxH, vp)
		c.heightRatio = c.optimalMaxHeight.Height / maxH.Height
		c.optimalMaxWidth = c.strategy.Fit(maxW, Size{Width: vp.Width, Height: maxW.Height * c.heightRatio})
		c.widthRatio = c.optimalMaxWidth.Width / maxW.Width
	case FitBoth:
		c.optimalMaxWidth = c.strategy.Fit(maxW, vp)
		c.widthRatio = c.optimalMaxWidth.Width / maxW.Width
		c.optimalMaxHeight = c.strategy.Fit(maxH, Size{Width: maxH.Width * c.widthRatio, Height: vp.Height})
		c.heightRatio = c.optimalMaxHeight.Height / maxH.Height
	default:
		c.optimalMaxWidth = c.strategy.Fit(maxW, vp)
		c.widthRatio = c.optimalMaxWidth.Width / maxW.Width
		c.optimalMaxHeight = c.strategy.Fit(maxH, Size{Width: maxH.Width * c.widthRatio, Height: vp.Height})
		c.heightRatio = c.optimalMaxHeight.Height / maxH.Height
	}
}

// Calculate returns the display size of a page with the given native size.
// Pages with a non-positive dimension yield the zero Size.
func (c *PageSizeCalculator) Calculate(page Size) Size {
	if !page.Valid() {
		return Size{}
	}
	box := c.viewport
	if !c.fitEachPage {
		box = Size{Width: page.Width * c.widthRatio, Height: page.Height * c.heightRatio}
	}
	return c.strategy.Fit(page, box)
}

// Policy returns the fit policy.
func (c *PageSizeCalculator) Policy() FitPolicy { return c.policy }

// Viewport returns the viewport the ratios were derived for.
func (c *PageSizeCalculator) Viewport() Size { return c.viewport }

// OptimalMaxWidthPageSize returns the display size of the widest page.
func (c *PageSizeCalculator) OptimalMaxWidthPageSize() Size { return c.optimalMaxWidth }

// OptimalMaxHeightPageSize returns the display size of the tallest page.
func (c *PageSizeCalculator) OptimalMaxHeightPageSize() Size { return c.optimalMaxHeight }

// WidthRatio returns display width per native width unit.
func (c *PageSizeCalculator) WidthRatio() float32 { return c.widthRatio }

// HeightRatio returns display height per native height unit.
func (c *PageSizeCalculator) HeightRatio() float32 { return c.heightRatio }
