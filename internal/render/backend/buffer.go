package backend

import "github.com/mattn/go-runewidth"

// ScreenBuffer double-buffers cell writes: drawing goes to the back
// buffer, Flush pushes only the cells that differ from the front
// buffer to the backend.
type ScreenBuffer struct {
	width, height int
	front         [][]Cell
	back          [][]Cell
	fullRedraw    bool
}

// NewScreenBuffer creates a buffer with the given dimensions.
func NewScreenBuffer(width, height int) *ScreenBuffer {
	sb := &ScreenBuffer{width: width, height: height, fullRedraw: true}
	sb.allocate()
	return sb
}

func (sb *ScreenBuffer) allocate() {
	sb.front = make([][]Cell, sb.height)
	sb.back = make([][]Cell, sb.height)
	for y := 0; y < sb.height; y++ {
		sb.front[y] = make([]Cell, sb.width)
		sb.back[y] = make([]Cell, sb.width)
		for x := 0; x < sb.width; x++ {
			sb.front[y][x] = EmptyCell()
			sb.back[y][x] = EmptyCell()
		}
	}
}

// Size returns the buffer dimensions.
func (sb *ScreenBuffer) Size() (width, height int) {
	return sb.width, sb.height
}

// Resize reallocates the buffers and forces a full redraw.
func (sb *ScreenBuffer) Resize(width, height int) {
	if width == sb.width && height == sb.height {
		return
	}
	sb.width = width
	sb.height = height
	sb.allocate()
	sb.fullRedraw = true
}

// SetCell writes one cell to the back buffer.
func (sb *ScreenBuffer) SetCell(x, y int, cell Cell) {
	if x < 0 || x >= sb.width || y < 0 || y >= sb.height {
		return
	}
	sb.back[y][x] = cell
}

// Cell reads a cell from the back buffer.
func (sb *ScreenBuffer) Cell(x, y int) Cell {
	if x < 0 || x >= sb.width || y < 0 || y >= sb.height {
		return EmptyCell()
	}
	return sb.back[y][x]
}

// Fill fills a rectangle in the back buffer.
func (sb *ScreenBuffer) Fill(rect Rect, cell Cell) {
	for y := rect.Top; y < rect.Bottom && y < sb.height; y++ {
		for x := rect.Left; x < rect.Right && x < sb.width; x++ {
			if x >= 0 && y >= 0 {
				sb.back[y][x] = cell
			}
		}
	}
}

// Clear resets the back buffer to empty cells.
func (sb *ScreenBuffer) Clear() {
	empty := EmptyCell()
	for y := 0; y < sb.height; y++ {
		for x := 0; x < sb.width; x++ {
			sb.back[y][x] = empty
		}
	}
}

// SetString writes s starting at x, y with the style. Wide runes get
// a continuation cell; writes clip at the buffer edge.
func (sb *ScreenBuffer) SetString(x, y int, s string, style Style) {
	if y < 0 || y >= sb.height {
		return
	}
	col := x
	for _, r := range s {
		if col >= sb.width {
			break
		}
		w := runewidth.RuneWidth(r)
		if col >= 0 {
			sb.back[y][col] = Cell{Rune: r, Width: w, Style: style}
		}
		col++
		if w == 2 {
			if col >= 0 && col < sb.width {
				sb.back[y][col] = ContinuationCell(style)
			}
			col++
		}
	}
}

// Invalidate forces the next Flush to repaint every cell.
func (sb *ScreenBuffer) Invalidate() {
	sb.fullRedraw = true
}

// Flush pushes changed cells to the backend, promotes the back buffer
// to front, and shows the result. It returns how many cells were
// written.
func (sb *ScreenBuffer) Flush(b Backend) int {
	written := 0
	for y := 0; y < sb.height; y++ {
		for x := 0; x < sb.width; x++ {
			if sb.fullRedraw || !sb.back[y][x].Equals(sb.front[y][x]) {
				b.SetCell(x, y, sb.back[y][x])
				written++
			}
			sb.front[y][x] = sb.back[y][x]
		}
	}
	sb.fullRedraw = false
	b.Show()
	return written
}
