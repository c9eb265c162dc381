package render

import "testing"

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"fits", "standup", 10, "standup"},
		{"exact", "standup", 7, "standup"},
		{"cut", "retrospective", 6, "retro…"},
		{"one column", "abc", 1, "…"},
		{"zero", "abc", 0, ""},
		{"wide fits", "日本", 4, "日本"},
		{"wide cut", "日本語", 5, "日本…"},
		{"wide no split", "日本", 2, "…"},
		{"combining", "noël was long", 5, "noël…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.in, tt.width); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
			}
		})
	}
}

func TestPad(t *testing.T) {
	if got := Pad("ab", 4); got != "ab  " {
		t.Errorf("Pad = %q", got)
	}
	if got := Pad("abcdef", 4); got != "abc…" {
		t.Errorf("Pad long = %q", got)
	}
	if got := Pad("日本", 5); got != "日本 " {
		t.Errorf("Pad wide = %q", got)
	}
}
