package events

// Kind tags the pointer events the interceptor is interested in.
type Kind int

const (
	KindOther Kind = iota
	KindMouseMoved
	KindLeftMouseDragged
	KindRightMouseDragged
	KindOtherMouseDragged
	KindTapDisabledByTimeout
	KindTapDisabledByUserInput
)

var kindNames = map[Kind]string{
	KindOther:                  "other",
	KindMouseMoved:             "mouse_moved",
	KindLeftMouseDragged:       "left_mouse_dragged",
	KindRightMouseDragged:      "right_mouse_dragged",
	KindOtherMouseDragged:      "other_mouse_dragged",
	KindTapDisabledByTimeout:   "tap_disabled_by_timeout",
	KindTapDisabledByUserInput: "tap_disabled_by_user_input",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "other"
}

// IsPointerMotion reports whether the kind carries a location to clamp.
func (k Kind) IsPointerMotion() bool {
	switch k {
	case KindMouseMoved, KindLeftMouseDragged, KindRightMouseDragged, KindOtherMouseDragged:
		return true
	}
	return false
}

// IsTapDisabled reports whether the OS suspended the tap.
func (k Kind) IsTapDisabled() bool {
	return k == KindTapDisabledByTimeout || k == KindTapDisabledByUserInput
}
