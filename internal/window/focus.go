// Package window decides whether the game client owns the foreground window.
package window

import "strings"

const (
	clientTitle = "Roblox"
	studioTitle = "Roblox Studio"
)

// TitleSource returns the title of the foreground window. ok is false when
// there is no foreground window or it has no title.
type TitleSource interface {
	ActiveWindowTitle() (title string, ok bool)
}

// Focus answers whether synthetic keystrokes would land in the client.
type Focus struct {
	titles    TitleSource
	companion *Companion
}

// NewFocus creates a Focus. companion may be nil.
func NewFocus(titles TitleSource, companion *Companion) *Focus {
	return &Focus{titles: titles, companion: companion}
}

// IsClientFocused reads the foreground title once and applies ClientFocused.
func (f *Focus) IsClientFocused() bool {
	title, ok := f.titles.ActiveWindowTitle()
	if !ok {
		return false
	}
	return ClientFocused(title, f.companion != nil && f.companion.Connected())
}

// ClientFocused applies the title rules. The game client's window is titled
// exactly "Roblox". Studio titles end in "Roblox Studio" and gain a second
// dash when a script editor tab is active; Studio only counts while no script
// is open and the companion plugin is not already reading frames over HTTP.
func ClientFocused(title string, companionConnected bool) bool {
	if !strings.Contains(title, clientTitle) {
		return false
	}
	if strings.HasSuffix(title, studioTitle) {
		return strings.Count(title, "-") <= 1 && !companionConnected
	}
	return title == clientTitle
}
