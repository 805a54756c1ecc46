package events

import (
	"errors"
	"sync"

	"github.com/offlinefirst/mousewall/pkg/display"
)

// Synthetic is an OS-free interceptor and cursor. Events are fed with Inject
// and flow through the installed handle exactly as the Quartz callback would
// drive them.
type Synthetic struct {
	mu         sync.Mutex
	active     *Handle
	location   display.Point
	warps      []display.Point
	installs   int
	uninstalls int
	reenables  int
	installErr error
}

// NewSynthetic constructs a synthetic interceptor with the pointer at start.
func NewSynthetic(start display.Point) *Synthetic {
	return &Synthetic{location: start}
}

// FailInstall makes subsequent installs return err; nil restores success.
func (s *Synthetic) FailInstall(err error) {
	s.mu.Lock()
	s.installErr = err
	s.mu.Unlock()
}

func (s *Synthetic) Install(opts TapOptions) (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.installErr != nil {
		return nil, s.installErr
	}
	if s.active != nil && !s.active.Closed() {
		return nil, errors.New("synthetic tap already installed")
	}
	h, err := newHandle(opts)
	if err != nil {
		return nil, err
	}
	h.reenable = func() {
		s.mu.Lock()
		s.reenables++
		s.mu.Unlock()
	}
	h.release = func() {
		s.mu.Lock()
		if s.active == h {
			s.active = nil
		}
		s.uninstalls++
		s.mu.Unlock()
	}
	s.active = h
	s.installs++
	return h, nil
}

func (s *Synthetic) Uninstall(h *Handle) {
	_ = h.Close()
}

// Inject delivers one event. It returns the location the rest of the system
// would observe and whether the event was rewritten. Without an installed
// handle events pass through unchanged.
func (s *Synthetic) Inject(kind Kind, p display.Point) (display.Point, bool) {
	s.mu.Lock()
	h := s.active
	s.mu.Unlock()

	out, action := p, ActionPass
	if h != nil {
		out, action = h.handle(kind, p)
	}
	if kind.IsPointerMotion() {
		s.mu.Lock()
		s.location = out
		s.mu.Unlock()
	}
	return out, action == ActionRewrite
}

// Location returns the simulated pointer location.
func (s *Synthetic) Location() (display.Point, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.location, nil
}

// Warp moves the simulated pointer.
func (s *Synthetic) Warp(p display.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.location = p
	s.warps = append(s.warps, p)
	return nil
}

// Installed reports whether a live handle exists.
func (s *Synthetic) Installed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil
}

// Counts reports installs, uninstalls and tap re-enables.
func (s *Synthetic) Counts() (installs, uninstalls, reenables int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.installs, s.uninstalls, s.reenables
}

// Warps returns every warp target in order.
func (s *Synthetic) Warps() []display.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]display.Point(nil), s.warps...)
}
