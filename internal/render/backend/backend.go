package backend

// EventType identifies a terminal event.
type EventType int

const (
	EventNone EventType = iota
	EventKey
	EventMouse
	EventResize
)

// Key identifies a special key. Printable input arrives as KeyRune
// with the Rune field set.
type Key int

const (
	KeyNone Key = iota
	KeyRune
	KeyEscape
	KeyEnter
	KeyTab
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyPageUp
	KeyPageDown
	KeyHome
	KeyEnd
	KeyCtrlC
	KeyCtrlQ
	KeyCtrlS
)

// MouseButton identifies the pressed button, or wheel motion.
type MouseButton int

const (
	MouseNone MouseButton = iota
	MouseLeft
	MouseMiddle
	MouseRight
	MouseWheelUp
	MouseWheelDown
)

// Event is one terminal input event.
type Event struct {
	Type EventType

	Key  Key
	Rune rune

	MouseX, MouseY int
	MouseButton    MouseButton

	Width, Height int
}

// Backend is the display surface the renderer draws on.
type Backend interface {
	// Init prepares the surface. Call before any other method.
	Init() error

	// Fini releases the surface and restores terminal state.
	Fini()

	// Size returns the current surface dimensions.
	Size() (width, height int)

	// OnResize registers a resize callback.
	OnResize(callback func(width, height int))

	// SetCell writes one cell. Out-of-range positions are ignored.
	SetCell(x, y int, cell Cell)

	// Fill fills a rectangle with the cell.
	Fill(rect Rect, cell Cell)

	// Clear resets the surface to empty cells.
	Clear()

	// Show flushes pending writes to the display.
	Show()

	// PollEvent blocks for the next input event.
	PollEvent() Event

	// PostEvent injects a synthetic event, waking PollEvent.
	PostEvent(ev Event)

	// EnableMouse turns on mouse reporting, including motion events.
	EnableMouse()

	// DisableMouse turns mouse reporting off.
	DisableMouse()

	// HasTrueColor reports 24-bit color support.
	HasTrueColor() bool

	// Beep rings the terminal bell.
	Beep()
}

// Memory is an in-process Backend for tests. It records cells and
// replays posted events.
type Memory struct {
	width, height int
	cells         [][]Cell
	resizeHandler func(width, height int)
	events        chan Event
	mouse         bool
	beeps         int
}

// NewMemory creates a memory surface with the given dimensions.
func NewMemory(width, height int) *Memory {
	m := &Memory{
		width:  width,
		height: height,
		events: make(chan Event, 64),
	}
	m.allocate()
	return m
}

func (m *Memory) allocate() {
	m.cells = make([][]Cell, m.height)
	for y := range m.cells {
		m.cells[y] = make([]Cell, m.width)
		for x := range m.cells[y] {
			m.cells[y][x] = EmptyCell()
		}
	}
}

func (m *Memory) Init() error { return nil }
func (m *Memory) Fini()       {}

func (m *Memory) Size() (int, int) { return m.width, m.height }

func (m *Memory) OnResize(callback func(width, height int)) {
	m.resizeHandler = callback
}

func (m *Memory) SetCell(x, y int, cell Cell) {
	if x >= 0 && x < m.width && y >= 0 && y < m.height {
		m.cells[y][x] = cell
	}
}

// Cell returns the cell at x, y, empty when out of range.
func (m *Memory) Cell(x, y int) Cell {
	if x >= 0 && x < m.width && y >= 0 && y < m.height {
		return m.cells[y][x]
	}
	return EmptyCell()
}

func (m *Memory) Fill(rect Rect, cell Cell) {
	for y := rect.Top; y < rect.Bottom && y < m.height; y++ {
		for x := rect.Left; x < rect.Right && x < m.width; x++ {
			if x >= 0 && y >= 0 {
				m.cells[y][x] = cell
			}
		}
	}
}

func (m *Memory) Clear() {
	for y := range m.cells {
		for x := range m.cells[y] {
			m.cells[y][x] = EmptyCell()
		}
	}
}

func (m *Memory) Show() {}

func (m *Memory) PollEvent() Event { return <-m.events }

func (m *Memory) PostEvent(ev Event) {
	select {
	case m.events <- ev:
	default:
	}
}

func (m *Memory) EnableMouse()       { m.mouse = true }
func (m *Memory) DisableMouse()      { m.mouse = false }
func (m *Memory) HasTrueColor() bool { return true }
func (m *Memory) Beep()              { m.beeps++ }

// MouseEnabled reports whether mouse reporting is on, for tests.
func (m *Memory) MouseEnabled() bool { return m.mouse }

// Beeps returns how often Beep was called, for tests.
func (m *Memory) Beeps() int { return m.beeps }

// Row returns the visible text of row y, for tests. Continuation
// cells are skipped.
func (m *Memory) Row(y int) string {
	if y < 0 || y >= m.height {
		return ""
	}
	runes := make([]rune, 0, m.width)
	for _, c := range m.cells[y] {
		if c.IsContinuation() {
			continue
		}
		runes = append(runes, c.Rune)
	}
	return string(runes)
}

// Resize simulates a terminal resize.
func (m *Memory) Resize(width, height int) {
	m.width = width
	m.height = height
	m.allocate()
	if m.resizeHandler != nil {
		m.resizeHandler(width, height)
	}
}
