package input

import (
	"context"
	"encoding/json"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyCodes(t *testing.T) {
	assert.Equal(t, Key(0x41), KeyA)
	assert.Equal(t, Key(0x56), KeyV)
	assert.Equal(t, Key(0x7C), KeyF13)
	assert.Equal(t, Key(0xA2), KeyLControl)
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "F13", KeyF13.String())
	assert.Equal(t, "LControl", KeyLControl.String())
	assert.Equal(t, "Key(0x10)", Key(0x10).String())
}

func TestEventString(t *testing.T) {
	assert.Equal(t, "key_press(V)", Event{Type: EventKeyPress, Key: KeyV}.String())
	assert.Equal(t, `clipboard("2|0")`, Event{Type: EventClipboard, Text: "2|0"}.String())
}

func TestEventJSON(t *testing.T) {
	data, err := json.Marshal(Event{Type: EventKeyDown, Key: KeyLControl})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"key_down","key":162}`, string(data))
}

func TestStubsUnsupported(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("real input on windows")
	}
	assert.ErrorIs(t, NewKeyboard().KeyPress(KeyF13), ErrUnsupported)
	assert.ErrorIs(t, NewKeyboard().KeyDown(KeyLControl), ErrUnsupported)
	assert.ErrorIs(t, NewKeyboard().KeyUp(KeyLControl), ErrUnsupported)
	assert.ErrorIs(t, NewClipboard().SetText(context.Background(), "x"), ErrUnsupported)
}

var (
	_ Keyboard  = (*SystemKeyboard)(nil)
	_ Clipboard = (*SystemClipboard)(nil)
)
