package render

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/schedgrid/schedgrid/internal/render/backend"
)

// Theme maps element classes to cell styles. Lane colors come from
// the model and are shaded per use; everything else is a fixed class
// lookup.
type Theme struct {
	classes map[string]backend.Style

	invalidTint colorful.Color
	validTint   colorful.Color
}

// ThemeByName resolves a configured theme name. Unknown names fall
// back to the dark theme.
func ThemeByName(name string) *Theme {
	if name == "light" {
		return LightTheme()
	}
	return DefaultTheme()
}

// DefaultTheme returns the built-in dark theme.
func DefaultTheme() *Theme {
	white := backend.RGB(230, 230, 230)
	dim := backend.RGB(140, 140, 140)

	return &Theme{
		classes: map[string]backend.Style{
			"header":   backend.DefaultStyle().WithForeground(dim),
			"lane":     backend.DefaultStyle().WithForeground(white).Bold(),
			"task":     backend.DefaultStyle().WithForeground(white),
			"backlog":  backend.DefaultStyle().WithForeground(white),
			"item":     backend.DefaultStyle().WithForeground(white),
			"selected": backend.DefaultStyle().Reverse(),
			"link":     backend.DefaultStyle().WithForeground(dim).Dim(),
		},
		invalidTint: mustHex("#b03030"),
		validTint:   mustHex("#2f8f4f"),
	}
}

// LightTheme returns the built-in light theme.
func LightTheme() *Theme {
	ink := backend.RGB(30, 30, 30)
	dim := backend.RGB(110, 110, 110)

	return &Theme{
		classes: map[string]backend.Style{
			"header":   backend.DefaultStyle().WithForeground(dim),
			"lane":     backend.DefaultStyle().WithForeground(ink).Bold(),
			"task":     backend.DefaultStyle().WithForeground(ink),
			"backlog":  backend.DefaultStyle().WithForeground(ink),
			"item":     backend.DefaultStyle().WithForeground(ink),
			"selected": backend.DefaultStyle().Reverse(),
			"link":     backend.DefaultStyle().WithForeground(dim).Dim(),
		},
		invalidTint: mustHex("#c04a4a"),
		validTint:   mustHex("#3f9f5f"),
	}
}

// Style resolves the classes in order, later classes overriding
// earlier ones; unknown classes are skipped.
func (t *Theme) Style(classes []string) backend.Style {
	style := backend.DefaultStyle()
	for _, class := range classes {
		s, ok := t.classes[class]
		if !ok {
			continue
		}
		if !s.Foreground.IsDefault() {
			style.Foreground = s.Foreground
		}
		if !s.Background.IsDefault() {
			style.Background = s.Background
		}
		style.Attributes |= s.Attributes
	}
	return style
}

// LaneStyle shades a lane's configured hex color into a task-bar
// style. A bad hex falls back to the plain task style.
func (t *Theme) LaneStyle(hex string) backend.Style {
	c, err := colorful.Hex(hex)
	if err != nil {
		return t.Style([]string{"task"})
	}
	bg := c.BlendLab(colorful.Color{R: 0, G: 0, B: 0}, 0.35)
	return backend.DefaultStyle().
		WithForeground(toColor(contrastFor(bg))).
		WithBackground(toColor(bg))
}

// ProxyStyle tints the drag proxy by validity.
func (t *Theme) ProxyStyle(valid bool) backend.Style {
	tint := t.invalidTint
	if valid {
		tint = t.validTint
	}
	return backend.DefaultStyle().
		WithForeground(backend.RGB(255, 255, 255)).
		WithBackground(toColor(tint)).
		Bold()
}

// contrastFor picks white or near-black text for the background.
func contrastFor(bg colorful.Color) colorful.Color {
	l, _, _ := bg.Lab()
	if l > 0.6 {
		return colorful.Color{R: 0.08, G: 0.08, B: 0.08}
	}
	return colorful.Color{R: 0.95, G: 0.95, B: 0.95}
}

func toColor(c colorful.Color) backend.Color {
	r, g, b := c.Clamped().RGB255()
	return backend.RGB(r, g, b)
}

func mustHex(hex string) colorful.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		panic(err)
	}
	return c
}
