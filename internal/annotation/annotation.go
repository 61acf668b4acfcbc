// Package annotation converts pixel selections made on a rendered page into
// page-relative percentage rectangles and back.
package annotation

import (
	"math"

	"github.com/google/uuid"

	"propdocs/internal/domain/models/docsystem"
)

// MinExtent is the smallest width or height, in percent, an annotation may have.
// A tiny selection still yields a clickable marker.
const MinExtent = 0.1

// Box is a pixel rectangle reported by the rendering host.
type Box struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FromSelection maps a selection box inside container to a percentage annotation
// on page. ok is false when there is no real selection: zero extent in both
// directions, a container without area, a page below 1, non-finite input, or a
// selection that lies entirely outside the container.
func FromSelection(selection, container Box, page int) (docsystem.Annotation, bool) {
	if page < 1 || !finite(selection) || !finite(container) {
		return docsystem.Annotation{}, false
	}
	if container.Width <= 0 || container.Height <= 0 {
		return docsystem.Annotation{}, false
	}
	selection = normalize(selection)
	if selection.Width == 0 && selection.Height == 0 {
		return docsystem.Annotation{}, false
	}
	if !touches(selection, container) {
		return docsystem.Annotation{}, false
	}

	rect := docsystem.Rect{
		X:      (selection.Left - container.Left) * 100 / container.Width,
		Y:      (selection.Top - container.Top) * 100 / container.Height,
		Width:  selection.Width * 100 / container.Width,
		Height: selection.Height * 100 / container.Height,
	}
	return docsystem.Annotation{
		ID:   uuid.NewString(),
		Page: page,
		Rect: Clamp(rect),
	}, true
}

// Clamp forces rect inside the page: 0 <= x, 0 <= y, x+width <= 100 and
// y+height <= 100, with both extents at least MinExtent.
func Clamp(rect docsystem.Rect) docsystem.Rect {
	rect.X = clamp(rect.X, 0, 100-MinExtent)
	rect.Y = clamp(rect.Y, 0, 100-MinExtent)
	rect.Width = fit(rect.X, clamp(rect.Width, MinExtent, 100-rect.X))
	rect.Height = fit(rect.Y, clamp(rect.Height, MinExtent, 100-rect.Y))
	return rect
}

// fit shrinks extent by float rounding steps until offset+extent <= 100.
func fit(offset, extent float64) float64 {
	for offset+extent > 100 {
		extent = math.Nextafter(extent, 0)
	}
	return extent
}

// Valid reports whether rect already satisfies the page bounds.
func Valid(rect docsystem.Rect) bool {
	for _, v := range []float64{rect.X, rect.Y, rect.Width, rect.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return rect.X >= 0 && rect.Y >= 0 &&
		rect.Width > 0 && rect.Height > 0 &&
		rect.X+rect.Width <= 100 && rect.Y+rect.Height <= 100
}

// OverlayStyle positions an annotation in pixels against the current container.
// Call it again whenever the container is resized or zoomed.
func OverlayStyle(a docsystem.Annotation, container Box) Box {
	return Box{
		Left:   container.Left + a.Rect.X*container.Width/100,
		Top:    container.Top + a.Rect.Y*container.Height/100,
		Width:  a.Rect.Width * container.Width / 100,
		Height: a.Rect.Height * container.Height / 100,
	}
}

// ForPage returns the annotations that belong on page, in input order.
func ForPage(annotations []docsystem.Annotation, page int) []docsystem.Annotation {
	out := make([]docsystem.Annotation, 0, len(annotations))
	for _, a := range annotations {
		if a.Page == page {
			out = append(out, a)
		}
	}
	return out
}

// normalize turns a selection dragged up or to the left into a positive box.
func normalize(b Box) Box {
	if b.Width < 0 {
		b.Left += b.Width
		b.Width = -b.Width
	}
	if b.Height < 0 {
		b.Top += b.Height
		b.Height = -b.Height
	}
	return b
}

func touches(sel, c Box) bool {
	return sel.Left <= c.Left+c.Width && sel.Left+sel.Width >= c.Left &&
		sel.Top <= c.Top+c.Height && sel.Top+sel.Height >= c.Top
}

func finite(b Box) bool {
	for _, v := range []float64{b.Left, b.Top, b.Width, b.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
