package render

import (
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

const ellipsis = "…"

// Truncate shortens s to at most width terminal columns, cutting on
// grapheme cluster boundaries and ending with an ellipsis when
// anything was dropped.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}

	budget := width - 1
	out := make([]byte, 0, len(s))
	used := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		cluster := g.Str()
		w := runewidth.StringWidth(cluster)
		if used+w > budget {
			break
		}
		out = append(out, cluster...)
		used += w
	}
	return string(out) + ellipsis
}

// Pad extends s with spaces to exactly width columns, truncating
// first when it is too long.
func Pad(s string, width int) string {
	s = Truncate(s, width)
	for w := runewidth.StringWidth(s); w < width; w++ {
		s += " "
	}
	return s
}
