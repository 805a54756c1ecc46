package hotkey

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ctrl+alt+cmd+m", "ctrl+alt+cmd+m"},
		{"Cmd+Control+Option+M", "ctrl+alt+cmd+m"},
		{" shift + F5 ", "shift+f5"},
		{"super+space", "cmd+space"},
		{"win+Return", "cmd+enter"},
		{"9", "9"},
		{"ctrl+f12", "ctrl+f12"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			combo, err := Parse(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, combo.String())
			assert.False(t, combo.Disabled())
		})
	}
}

func TestParseEmptyIsDisabled(t *testing.T) {
	combo, err := Parse("   ")
	require.NoError(t, err)
	assert.True(t, combo.Disabled())
	assert.Nil(t, combo.Keys())
	assert.Equal(t, "", combo.String())
}

func TestParseRejects(t *testing.T) {
	for _, in := range []string{
		"ctrl+",
		"ctrl+alt",
		"m+ctrl",
		"ctrl+ctrl+m",
		"a+b",
		"ctrl+f13",
		"ctrl+f1x",
		"hyper+m",
		"ctrl+@",
	} {
		_, err := Parse(in)
		require.Error(t, err, in)
		assert.True(t, errors.Is(err, ErrInvalidCombo), in)
	}
}

func TestComboKeysAndEqual(t *testing.T) {
	a, err := Parse("alt+ctrl+m")
	require.NoError(t, err)
	b, err := Parse("control+option+M")
	require.NoError(t, err)

	assert.Equal(t, []string{"ctrl", "alt", "m"}, a.Keys())
	assert.True(t, a.Equal(b))

	keys := a.Keys()
	keys[0] = "shift"
	assert.Equal(t, "ctrl", a.Modifiers[0])

	c, err := Parse("ctrl+alt+n")
	require.NoError(t, err)
	assert.False(t, a.Equal(c))
}
