// Package render paints a board element tree onto a terminal
// backend. The tree is produced by the dom reconciler; the renderer
// is stateless apart from its double buffer, so a repaint of an
// unchanged tree flushes nothing.
package render

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/schedgrid/schedgrid/internal/dom"
	"github.com/schedgrid/schedgrid/internal/render/backend"
)

// Renderer walks a dom element tree into a double-buffered screen.
type Renderer struct {
	backend backend.Backend
	buf     *backend.ScreenBuffer
	theme   *Theme
	logger  *zap.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithTheme overrides the default theme.
func WithTheme(t *Theme) Option {
	return func(r *Renderer) {
		if t != nil {
			r.theme = t
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New builds a renderer over the backend. The buffer tracks the
// backend size and follows resizes.
func New(b backend.Backend, opts ...Option) *Renderer {
	width, height := b.Size()
	r := &Renderer{
		backend: b,
		buf:     backend.NewScreenBuffer(width, height),
		theme:   DefaultTheme(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	b.OnResize(func(w, h int) {
		r.buf.Resize(w, h)
	})
	return r
}

// Theme returns the active theme.
func (r *Renderer) Theme() *Theme { return r.theme }

// Invalidate forces the next Draw to repaint every cell.
func (r *Renderer) Invalidate() {
	r.buf.Invalidate()
}

// Draw paints the trees in order, later roots above earlier ones,
// and flushes the changed cells. It returns the number of cells
// written.
func (r *Renderer) Draw(roots ...*dom.Element) int {
	r.buf.Clear()
	for _, root := range roots {
		r.paint(root, 0, 0)
	}
	return r.buf.Flush(r.backend)
}

// paint draws one element and recurses. Elements position themselves
// through left/top style keys relative to their parent; width/height
// bound fills and text.
func (r *Renderer) paint(el *dom.Element, offsetX, offsetY int) {
	x := offsetX + styleInt(el, "left", 0)
	y := offsetY + styleInt(el, "top", 0)
	w := styleInt(el, "width", 0)
	h := styleInt(el, "height", 1)

	switch el.Tag() {
	case "bar":
		r.paintBar(el, x, y, w, h)
	case "label":
		r.buf.SetString(x, y, el.Text(), r.theme.Style(el.Classes()))
	case "rule":
		r.paintRule(el, x, y, w)
	default:
		// Containers draw nothing themselves.
	}

	for _, child := range el.Children() {
		r.paint(child, x, y)
	}
}

// paintBar fills the bar's box and writes its truncated text. Lane
// tinted bars carry their color in the "tint" style key; the drag
// proxy overrides via valid/invalid classes.
func (r *Renderer) paintBar(el *dom.Element, x, y, w, h int) {
	if w <= 0 {
		return
	}
	style := r.theme.Style(el.Classes())
	if tint, ok := el.Style("tint"); ok {
		style = r.theme.LaneStyle(tint)
	}
	if el.HasClass("valid") {
		style = r.theme.ProxyStyle(true)
	} else if el.HasClass("invalid") {
		style = r.theme.ProxyStyle(false)
	}

	r.buf.Fill(backend.RectFromSize(y, x, h, w), backend.NewCell(' ', style))
	if el.Text() != "" {
		r.buf.SetString(x, y, Truncate(el.Text(), w), style)
	}
}

// paintRule draws a horizontal separator.
func (r *Renderer) paintRule(el *dom.Element, x, y, w int) {
	if w <= 0 {
		return
	}
	style := r.theme.Style(el.Classes())
	for i := 0; i < w; i++ {
		r.buf.SetCell(x+i, y, backend.NewCell('─', style))
	}
}

func styleInt(el *dom.Element, key string, fallback int) int {
	raw, ok := el.Style(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
