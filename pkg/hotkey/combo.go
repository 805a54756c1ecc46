// Package hotkey listens for the global toggle key combination.
package hotkey

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrInvalidCombo is returned for combinations that cannot be registered.
var ErrInvalidCombo = errors.New("hotkey: invalid combination")

// Combo is a parsed key combination: zero or more modifiers followed by one
// key. The zero value is the disabled hotkey.
type Combo struct {
	Modifiers []string
	Key       string
}

var modifierAliases = map[string]string{
	"ctrl":    "ctrl",
	"control": "ctrl",
	"alt":     "alt",
	"opt":     "alt",
	"option":  "alt",
	"shift":   "shift",
	"cmd":     "cmd",
	"command": "cmd",
	"super":   "cmd",
	"win":     "cmd",
	"meta":    "cmd",
}

var modifierOrder = []string{"ctrl", "alt", "shift", "cmd"}

var namedKeys = map[string]string{
	"space":     "space",
	"enter":     "enter",
	"return":    "enter",
	"esc":       "esc",
	"escape":    "esc",
	"tab":       "tab",
	"backspace": "backspace",
	"delete":    "delete",
	"del":       "delete",
	"home":      "home",
	"end":       "end",
	"pageup":    "pageup",
	"pgup":      "pageup",
	"pagedown":  "pagedown",
	"pgdn":      "pagedown",
	"left":      "left",
	"right":     "right",
	"up":        "up",
	"down":      "down",
}

// Parse reads strings like "Ctrl+Alt+Cmd+M". An empty string yields the
// disabled combo.
func Parse(value string) (Combo, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Combo{}, nil
	}

	var combo Combo
	seen := map[string]bool{}
	for _, raw := range strings.Split(strings.ToLower(value), "+") {
		part := strings.TrimSpace(raw)
		if part == "" {
			return Combo{}, fmt.Errorf("%w: empty key in %q", ErrInvalidCombo, value)
		}
		if mod, ok := modifierAliases[part]; ok {
			if combo.Key != "" {
				return Combo{}, fmt.Errorf("%w: modifier %q after key in %q", ErrInvalidCombo, part, value)
			}
			if seen[mod] {
				return Combo{}, fmt.Errorf("%w: duplicate modifier %q", ErrInvalidCombo, mod)
			}
			seen[mod] = true
			continue
		}
		key, ok := normalizeKey(part)
		if !ok {
			return Combo{}, fmt.Errorf("%w: unknown key %q", ErrInvalidCombo, part)
		}
		if combo.Key != "" {
			return Combo{}, fmt.Errorf("%w: more than one key in %q", ErrInvalidCombo, value)
		}
		combo.Key = key
	}
	if combo.Key == "" {
		return Combo{}, fmt.Errorf("%w: %q has no key", ErrInvalidCombo, value)
	}
	for _, mod := range modifierOrder {
		if seen[mod] {
			combo.Modifiers = append(combo.Modifiers, mod)
		}
	}
	return combo, nil
}

func normalizeKey(part string) (string, bool) {
	if len(part) == 1 {
		c := part[0]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			return part, true
		}
		return "", false
	}
	if name, ok := namedKeys[part]; ok {
		return name, true
	}
	if strings.HasPrefix(part, "f") {
		var n int
		if _, err := fmt.Sscanf(part, "f%d", &n); err == nil && n >= 1 && n <= 12 && part == fmt.Sprintf("f%d", n) {
			return part, true
		}
	}
	return "", false
}

// Disabled reports whether the combo is the zero value.
func (c Combo) Disabled() bool { return c.Key == "" }

// Keys returns the key names in registration order, modifiers first.
func (c Combo) Keys() []string {
	if c.Disabled() {
		return nil
	}
	return append(slices.Clone(c.Modifiers), c.Key)
}

// Equal reports whether both combos name the same keys.
func (c Combo) Equal(other Combo) bool {
	return c.Key == other.Key && slices.Equal(c.Modifiers, other.Modifiers)
}

func (c Combo) String() string {
	return strings.Join(c.Keys(), "+")
}
