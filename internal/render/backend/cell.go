// Package backend abstracts the display surface the board renderer
// draws on. The Terminal implementation speaks tcell; Memory is an
// in-process surface for tests.
package backend

import (
	"fmt"

	"github.com/mattn/go-runewidth"
)

// Attribute is a bitmask of text attributes.
type Attribute uint8

const (
	AttrNone      Attribute = 0
	AttrBold      Attribute = 1 << iota
	AttrDim
	AttrUnderline
	AttrReverse
)

// Has reports whether the set contains attr.
func (a Attribute) Has(attr Attribute) bool {
	return a&attr != 0
}

// Color is a true color or the terminal default.
type Color struct {
	R, G, B uint8

	// Default marks the terminal's own color; RGB is ignored.
	Default bool
}

// ColorDefault is the terminal's default color.
var ColorDefault = Color{Default: true}

// RGB builds a true color.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// IsDefault reports whether this is the terminal default.
func (c Color) IsDefault() bool { return c.Default }

// Equals reports color equality.
func (c Color) Equals(other Color) bool {
	if c.Default || other.Default {
		return c.Default == other.Default
	}
	return c.R == other.R && c.G == other.G && c.B == other.B
}

func (c Color) String() string {
	if c.Default {
		return "default"
	}
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// Style is the visual style of a cell.
type Style struct {
	Foreground Color
	Background Color
	Attributes Attribute
}

// DefaultStyle is the terminal's own colors with no attributes.
func DefaultStyle() Style {
	return Style{Foreground: ColorDefault, Background: ColorDefault}
}

// WithForeground returns the style with fg replaced.
func (s Style) WithForeground(fg Color) Style {
	s.Foreground = fg
	return s
}

// WithBackground returns the style with bg replaced.
func (s Style) WithBackground(bg Color) Style {
	s.Background = bg
	return s
}

// Bold returns the style with the bold attribute added.
func (s Style) Bold() Style {
	s.Attributes |= AttrBold
	return s
}

// Dim returns the style with the dim attribute added.
func (s Style) Dim() Style {
	s.Attributes |= AttrDim
	return s
}

// Reverse returns the style with reverse video added.
func (s Style) Reverse() Style {
	s.Attributes |= AttrReverse
	return s
}

// Equals reports style equality.
func (s Style) Equals(other Style) bool {
	return s.Foreground.Equals(other.Foreground) &&
		s.Background.Equals(other.Background) &&
		s.Attributes == other.Attributes
}

// Cell is one terminal cell. Wide characters occupy the cell that
// holds the rune plus a zero-width continuation cell to its right.
type Cell struct {
	Rune  rune
	Width int
	Style Style
}

// EmptyCell is a styled space.
func EmptyCell() Cell {
	return Cell{Rune: ' ', Width: 1, Style: DefaultStyle()}
}

// NewCell builds a cell for r with the given style.
func NewCell(r rune, style Style) Cell {
	return Cell{Rune: r, Width: runewidth.RuneWidth(r), Style: style}
}

// ContinuationCell is the filler behind a wide character.
func ContinuationCell(style Style) Cell {
	return Cell{Rune: 0, Width: 0, Style: style}
}

// IsContinuation reports whether the cell is a wide-char filler.
func (c Cell) IsContinuation() bool {
	return c.Width == 0 && c.Rune == 0
}

// Equals reports cell equality.
func (c Cell) Equals(other Cell) bool {
	return c.Rune == other.Rune && c.Width == other.Width && c.Style.Equals(other.Style)
}

// Rect is a screen rectangle, half-open on the bottom and right.
type Rect struct {
	Top, Left, Bottom, Right int
}

// RectFromSize builds a rectangle from an origin and a size.
func RectFromSize(top, left, height, width int) Rect {
	return Rect{Top: top, Left: left, Bottom: top + height, Right: left + width}
}

// Width returns the rectangle width, never negative.
func (r Rect) Width() int {
	if r.Right <= r.Left {
		return 0
	}
	return r.Right - r.Left
}

// Height returns the rectangle height, never negative.
func (r Rect) Height() int {
	if r.Bottom <= r.Top {
		return 0
	}
	return r.Bottom - r.Top
}

// IsEmpty reports whether the rectangle has no area.
func (r Rect) IsEmpty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

// Contains reports whether the point lies inside.
func (r Rect) Contains(x, y int) bool {
	return x >= r.Left && x < r.Right && y >= r.Top && y < r.Bottom
}
