// Package tray provides system tray functionality using getlantern/systray.
package tray

import (
	"encoding/binary"
	"sync"

	"github.com/getlantern/systray"
)

// MenuItem represents a menu item
type MenuItem struct {
	ID       int
	Title    string
	Disabled bool
	Checked  bool
	Callback func()
	item     *systray.MenuItem
}

// Tray manages the system tray icon and menu
type Tray struct {
	mu      sync.Mutex
	items   []*MenuItem
	active  bool
	tooltip string
	ready   bool
	quitCh  chan struct{}
	onExit  func()
}

// New creates a new system tray. onExit runs after the tray has stopped.
func New(tooltip string, onExit func()) *Tray {
	return &Tray{
		items:   make([]*MenuItem, 0),
		tooltip: tooltip,
		quitCh:  make(chan struct{}),
		onExit:  onExit,
	}
}

// AddMenuItem adds a menu item to the tray. Items must be added before Run.
func (t *Tray) AddMenuItem(title string, callback func()) int {
	return t.add(&MenuItem{Title: title, Callback: callback})
}

// AddLabel adds a disabled item used to show status text.
func (t *Tray) AddLabel(title string) int {
	return t.add(&MenuItem{Title: title, Disabled: true})
}

// AddCheckbox adds a menu item that shows a check mark when checked.
func (t *Tray) AddCheckbox(title string, checked bool, callback func()) int {
	return t.add(&MenuItem{Title: title, Checked: checked, Callback: callback})
}

func (t *Tray) add(menuItem *MenuItem) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	menuItem.ID = len(t.items)
	t.items = append(t.items, menuItem)
	return menuItem.ID
}

// AddSeparator adds a separator to the menu
func (t *Tray) AddSeparator() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = append(t.items, nil) // nil indicates separator
}

// SetItemTitle changes the text of a menu item.
func (t *Tray) SetItemTitle(id int, title string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id < 0 || id >= len(t.items) || t.items[id] == nil {
		return
	}
	t.items[id].Title = title
	if t.items[id].item != nil {
		t.items[id].item.SetTitle(title)
	}
}

// SetItemChecked sets the checked state of a menu item
func (t *Tray) SetItemChecked(id int, checked bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id < 0 || id >= len(t.items) || t.items[id] == nil {
		return
	}
	t.items[id].Checked = checked
	if item := t.items[id].item; item != nil {
		if checked {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
}

// ItemChecked returns the checked state of a menu item.
func (t *Tray) ItemChecked(id int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id < 0 || id >= len(t.items) || t.items[id] == nil {
		return false
	}
	return t.items[id].Checked
}

// ItemTitle returns the current text of a menu item.
func (t *Tray) ItemTitle(id int) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id < 0 || id >= len(t.items) || t.items[id] == nil {
		return ""
	}
	return t.items[id].Title
}

// SetActive switches the icon between the sending and idle colors.
func (t *Tray) SetActive(active bool) {
	t.mu.Lock()
	t.active = active
	ready := t.ready
	t.mu.Unlock()
	if ready {
		systray.SetIcon(iconFor(active))
	}
}

// Run starts the tray event loop (blocks)
func (t *Tray) Run() {
	systray.Run(t.setupMenu, func() {
		close(t.quitCh)
		if t.onExit != nil {
			t.onExit()
		}
	})
}

// setupMenu is called when systray is ready
func (t *Tray) setupMenu() {
	t.mu.Lock()
	defer t.mu.Unlock()

	systray.SetTitle("trackerlink")
	systray.SetTooltip(t.tooltip)
	systray.SetIcon(iconFor(t.active))
	t.ready = true

	for _, menuItem := range t.items {
		if menuItem == nil {
			systray.AddSeparator()
			continue
		}
		item := systray.AddMenuItem(menuItem.Title, "")
		menuItem.item = item
		if menuItem.Disabled {
			item.Disable()
		}
		if menuItem.Checked {
			item.Check()
		}

		// Handle clicks in goroutine
		if menuItem.Callback != nil {
			go func(mi *MenuItem) {
				for {
					select {
					case <-mi.item.ClickedCh:
						mi.Callback()
					case <-t.quitCh:
						return
					}
				}
			}(menuItem)
		}
	}
}

// Stop stops the tray
func (t *Tray) Stop() {
	systray.Quit()
}

var (
	activeColor = [3]byte{0x3C, 0xB3, 0x71}
	idleColor   = [3]byte{0x80, 0x80, 0x80}
)

func iconFor(active bool) []byte {
	if active {
		return solidIcon(activeColor)
	}
	return solidIcon(idleColor)
}

// solidIcon returns a 16x16 32-bit ICO filled with one RGB color.
func solidIcon(rgb [3]byte) []byte {
	const (
		size       = 16
		headerLen  = 6 + 16
		dibLen     = 40
		pixelLen   = size * size * 4
		maskStride = 4 // 16 bits padded to 32
		maskLen    = size * maskStride
		imageLen   = dibLen + pixelLen + maskLen
	)
	icon := make([]byte, headerLen+imageLen)
	le := binary.LittleEndian

	// ICONDIR
	le.PutUint16(icon[2:], 1) // type: icon
	le.PutUint16(icon[4:], 1) // count
	// ICONDIRENTRY
	icon[6] = size
	icon[7] = size
	le.PutUint16(icon[10:], 1)  // planes
	le.PutUint16(icon[12:], 32) // bpp
	le.PutUint32(icon[14:], imageLen)
	le.PutUint32(icon[18:], headerLen)

	// BITMAPINFOHEADER; height is doubled to cover the AND mask.
	dib := icon[headerLen:]
	le.PutUint32(dib[0:], dibLen)
	le.PutUint32(dib[4:], size)
	le.PutUint32(dib[8:], size*2)
	le.PutUint16(dib[12:], 1)
	le.PutUint16(dib[14:], 32)
	le.PutUint32(dib[20:], pixelLen+maskLen)

	// BGRA pixels. The AND mask stays zero, so every pixel is opaque.
	pixels := dib[dibLen : dibLen+pixelLen]
	for i := 0; i < len(pixels); i += 4 {
		pixels[i] = rgb[2]
		pixels[i+1] = rgb[1]
		pixels[i+2] = rgb[0]
		pixels[i+3] = 0xFF
	}
	return icon
}
