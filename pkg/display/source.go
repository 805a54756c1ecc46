package display

import (
	"fmt"

	"github.com/kbinani/screenshot"
)

// Source reports the rectangle of the primary display.
type Source interface {
	MainDisplay() (Bounds, error)
}

// Display describes one active display.
type Display struct {
	Index   int
	Primary bool
	Bounds  Bounds
}

// Lister enumerates active displays. It is swapped in tests.
type Lister func() []Display

// ListDisplays enumerates the active displays. Index 0 is the primary display.
func ListDisplays() []Display {
	n := screenshot.NumActiveDisplays()
	displays := make([]Display, 0, n)
	for i := 0; i < n; i++ {
		displays = append(displays, Display{
			Index:   i,
			Primary: i == 0,
			Bounds:  FromRectangle(screenshot.GetDisplayBounds(i)),
		})
	}
	return displays
}

// ScreenSource reads the primary display through the platform screen API.
type ScreenSource struct {
	list Lister
}

// NewScreenSource constructs a Source backed by ListDisplays.
func NewScreenSource() *ScreenSource {
	return NewListerSource(ListDisplays)
}

// NewListerSource constructs a Source that treats the first listed display as
// primary.
func NewListerSource(list Lister) *ScreenSource {
	return &ScreenSource{list: list}
}

// MainDisplay returns the bounds of display index 0.
func (s *ScreenSource) MainDisplay() (Bounds, error) {
	list := s.list
	if list == nil {
		list = ListDisplays
	}
	displays := list()
	if len(displays) == 0 {
		return Bounds{}, ErrBoundsUnavailable
	}
	bounds := displays[0].Bounds
	if !bounds.Valid() {
		return Bounds{}, fmt.Errorf("primary display reported %s: %w", bounds, ErrBoundsUnavailable)
	}
	return bounds, nil
}
