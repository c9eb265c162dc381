package backend

import (
	"sync"

	"github.com/gdamore/tcell/v2"
)

// Terminal implements Backend on a real terminal via tcell.
type Terminal struct {
	screen        tcell.Screen
	resizeHandler func(width, height int)
	mu            sync.Mutex
}

// NewTerminal allocates a terminal backend. Init must still be
// called before use.
func NewTerminal() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return &Terminal{screen: screen}, nil
}

func (t *Terminal) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.screen.Init(); err != nil {
		return err
	}
	t.screen.HideCursor()
	return nil
}

func (t *Terminal) Fini() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.screen.Fini()
}

func (t *Terminal) Size() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.screen.Size()
}

func (t *Terminal) OnResize(callback func(width, height int)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resizeHandler = callback
}

func (t *Terminal) SetCell(x, y int, cell Cell) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cell.IsContinuation() {
		return
	}
	t.screen.SetContent(x, y, cell.Rune, nil, toTcellStyle(cell.Style))
}

func (t *Terminal) Fill(rect Rect, cell Cell) {
	t.mu.Lock()
	defer t.mu.Unlock()
	style := toTcellStyle(cell.Style)
	width, height := t.screen.Size()
	for y := rect.Top; y < rect.Bottom && y < height; y++ {
		for x := rect.Left; x < rect.Right && x < width; x++ {
			if x >= 0 && y >= 0 {
				t.screen.SetContent(x, y, cell.Rune, nil, style)
			}
		}
	}
}

func (t *Terminal) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.screen.Clear()
}

func (t *Terminal) Show() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.screen.Show()
}

func (t *Terminal) PollEvent() Event {
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return Event{Type: EventNone}
		}
		converted, ok := t.convert(ev)
		if ok {
			return converted
		}
	}
}

func (t *Terminal) PostEvent(ev Event) {
	if ev.Type != EventKey {
		return
	}
	_ = t.screen.PostEvent(tcell.NewEventKey(toTcellKey(ev.Key), ev.Rune, tcell.ModNone))
}

func (t *Terminal) EnableMouse() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.screen.EnableMouse(tcell.MouseButtonEvents, tcell.MouseDragEvents, tcell.MouseMotionEvents)
}

func (t *Terminal) DisableMouse() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.screen.DisableMouse()
}

func (t *Terminal) HasTrueColor() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.screen.Colors() > 256
}

func (t *Terminal) Beep() {
	t.mu.Lock()
	defer t.mu.Unlock()
	_ = t.screen.Beep()
}

func (t *Terminal) convert(ev tcell.Event) (Event, bool) {
	switch e := ev.(type) {
	case *tcell.EventKey:
		return Event{
			Type: EventKey,
			Key:  fromTcellKey(e.Key()),
			Rune: e.Rune(),
		}, true

	case *tcell.EventMouse:
		x, y := e.Position()
		return Event{
			Type:        EventMouse,
			MouseX:      x,
			MouseY:      y,
			MouseButton: fromTcellButtons(e.Buttons()),
		}, true

	case *tcell.EventResize:
		w, h := e.Size()
		if t.resizeHandler != nil {
			t.resizeHandler(w, h)
		}
		return Event{Type: EventResize, Width: w, Height: h}, true

	default:
		return Event{}, false
	}
}

func fromTcellKey(k tcell.Key) Key {
	switch k {
	case tcell.KeyRune:
		return KeyRune
	case tcell.KeyEscape:
		return KeyEscape
	case tcell.KeyEnter:
		return KeyEnter
	case tcell.KeyTab:
		return KeyTab
	case tcell.KeyUp:
		return KeyUp
	case tcell.KeyDown:
		return KeyDown
	case tcell.KeyLeft:
		return KeyLeft
	case tcell.KeyRight:
		return KeyRight
	case tcell.KeyPgUp:
		return KeyPageUp
	case tcell.KeyPgDn:
		return KeyPageDown
	case tcell.KeyHome:
		return KeyHome
	case tcell.KeyEnd:
		return KeyEnd
	case tcell.KeyCtrlC:
		return KeyCtrlC
	case tcell.KeyCtrlQ:
		return KeyCtrlQ
	case tcell.KeyCtrlS:
		return KeyCtrlS
	default:
		return KeyNone
	}
}

func toTcellKey(k Key) tcell.Key {
	switch k {
	case KeyEscape:
		return tcell.KeyEscape
	case KeyEnter:
		return tcell.KeyEnter
	case KeyTab:
		return tcell.KeyTab
	case KeyUp:
		return tcell.KeyUp
	case KeyDown:
		return tcell.KeyDown
	case KeyLeft:
		return tcell.KeyLeft
	case KeyRight:
		return tcell.KeyRight
	case KeyPageUp:
		return tcell.KeyPgUp
	case KeyPageDown:
		return tcell.KeyPgDn
	case KeyHome:
		return tcell.KeyHome
	case KeyEnd:
		return tcell.KeyEnd
	case KeyCtrlC:
		return tcell.KeyCtrlC
	case KeyCtrlQ:
		return tcell.KeyCtrlQ
	case KeyCtrlS:
		return tcell.KeyCtrlS
	default:
		return tcell.KeyRune
	}
}

func fromTcellButtons(b tcell.ButtonMask) MouseButton {
	switch {
	case b&tcell.Button1 != 0:
		return MouseLeft
	case b&tcell.Button2 != 0:
		return MouseMiddle
	case b&tcell.Button3 != 0:
		return MouseRight
	case b&tcell.WheelUp != 0:
		return MouseWheelUp
	case b&tcell.WheelDown != 0:
		return MouseWheelDown
	default:
		return MouseNone
	}
}

func toTcellStyle(s Style) tcell.Style {
	style := tcell.StyleDefault
	if !s.Foreground.IsDefault() {
		style = style.Foreground(tcell.NewRGBColor(int32(s.Foreground.R), int32(s.Foreground.G), int32(s.Foreground.B)))
	}
	if !s.Background.IsDefault() {
		style = style.Background(tcell.NewRGBColor(int32(s.Background.R), int32(s.Background.G), int32(s.Background.B)))
	}
	if s.Attributes.Has(AttrBold) {
		style = style.Bold(true)
	}
	if s.Attributes.Has(AttrDim) {
		style = style.Dim(true)
	}
	if s.Attributes.Has(AttrUnderline) {
		style = style.Underline(true)
	}
	if s.Attributes.Has(AttrReverse) {
		style = style.Reverse(true)
	}
	return style
}
