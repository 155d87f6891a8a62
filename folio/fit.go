package folio

// FitStrategy scales a page into a target box, preserving its aspect ratio.
//
// The same strategy is used to derive the document-wide ratios and to size
// individual pages.
type FitStrategy interface {
	Fit(page, box Size) Size
}

// Strategy returns the fit strategy for p. Unknown policies fit by width.
func (p FitPolicy) Strategy() FitStrategy {
	switch p {
	case FitHeight:
		return fitHeight{}
	case FitBoth:
		return fitBoth{}
	default:
		return fitWidth{}
	}
}

// MarshalText encodes p by name.
func (p FitPolicy) MarshalText() ([]byte, error) {
	if !p.valid() {
		return nil, ErrInvalidConfiguration
	}
	return []byte(p.String()), nil
}

// UnmarshalText decodes a policy name.
func (p *FitPolicy) UnmarshalText(text []byte) error {
	v, err := ParseFitPolicy(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// fitWidth matches the box width.
type fitWidth struct{}

func (fitWidth) Fit(page, box Size) Size {
	ratio := page.Width / page.Height
	return Size{Width: box.Width, Height: box.Width / ratio}
}

// fitHeight matches the box height.
type fitHeight struct{}

func (fitHeight) Fit(page, box Size) Size {
	ratio := page.Height / page.Width
	return Size{Width: box.Height / ratio, Height: box.Height}
}

// fitBoth matches the box width, falling back to the box height when the
// page would overflow it.
type fitBoth struct{}

func (fitBoth) Fit(page, box Size) Size {
	ratio := page.Width / page.Height
	w := box.Width
	h := w / ratio
	if h > box.Height {
		h = box.Height
		w = h * ratio
	}
	return Size{Width: w, Height: h}
}
