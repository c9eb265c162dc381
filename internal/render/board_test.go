package render

import (
	"strings"
	"testing"

	"github.com/schedgrid/schedgrid/internal/dom"
	"github.com/schedgrid/schedgrid/internal/render/backend"
)

func buildTree(t *testing.T, nodes []dom.Node) *dom.Element {
	t.Helper()
	root := dom.NewElement("board")
	if _, err := dom.NewReconciler().Sync(root, nodes); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	return root
}

func TestRenderer_DrawsLabelsAndBars(t *testing.T) {
	m := backend.NewMemory(20, 4)
	r := New(m)

	root := buildTree(t, []dom.Node{
		{Tag: "label", SyncID: "lane-a", Classes: []string{"lane"},
			Style: map[string]string{"left": "0", "top": "0"}, Text: "room-a"},
		{Tag: "bar", SyncID: "t1", Classes: []string{"task"},
			Style: map[string]string{"left": "8", "top": "0", "width": "8"}, Text: "standup"},
	})
	r.Draw(root)

	if got := m.Row(0); !strings.HasPrefix(got, "room-a  standup") {
		t.Errorf("row 0 = %q", got)
	}
}

func TestRenderer_BarTruncatesToWidth(t *testing.T) {
	m := backend.NewMemory(12, 2)
	r := New(m)

	root := buildTree(t, []dom.Node{
		{Tag: "bar", SyncID: "t1", Classes: []string{"task"},
			Style: map[string]string{"left": "0", "top": "0", "width": "6"}, Text: "retrospective"},
	})
	r.Draw(root)

	if got := m.Row(0); !strings.HasPrefix(got, "retro…") {
		t.Errorf("row 0 = %q", got)
	}
	// The bar must not paint past its width.
	if c := m.Cell(6, 0); c.Rune != ' ' || !c.Style.Equals(backend.DefaultStyle()) {
		t.Errorf("cell past bar = %+v", c)
	}
}

func TestRenderer_NestedOffsets(t *testing.T) {
	m := backend.NewMemory(20, 5)
	r := New(m)

	root := buildTree(t, []dom.Node{
		{Tag: "pane", SyncID: "body",
			Style: map[string]string{"left": "2", "top": "1"},
			Children: []dom.Node{
				{Tag: "label", SyncID: "x",
					Style: map[string]string{"left": "3", "top": "1"}, Text: "hi"},
			}},
	})
	r.Draw(root)

	// Child coordinates are relative to the parent.
	if c := m.Cell(5, 2); c.Rune != 'h' {
		t.Errorf("cell (5,2) = %q", c.Rune)
	}
}

func TestRenderer_LaneTintAndProxyStyles(t *testing.T) {
	m := backend.NewMemory(20, 3)
	r := New(m)

	root := buildTree(t, []dom.Node{
		{Tag: "bar", SyncID: "t1", Classes: []string{"task"},
			Style: map[string]string{"left": "0", "top": "0", "width": "5", "tint": "#3366cc"}, Text: "a"},
		{Tag: "bar", SyncID: "proxy", Classes: []string{"drag-proxy", "invalid"},
			Style: map[string]string{"left": "0", "top": "1", "width": "5"}, Text: "b"},
		{Tag: "bar", SyncID: "proxy2", Classes: []string{"drag-proxy", "valid"},
			Style: map[string]string{"left": "0", "top": "2", "width": "5"}, Text: "c"},
	})
	r.Draw(root)

	tinted := m.Cell(0, 0).Style
	if tinted.Background.IsDefault() {
		t.Error("lane tint did not set a background")
	}
	invalid := m.Cell(0, 1).Style
	valid := m.Cell(0, 2).Style
	if invalid.Background.Equals(valid.Background) {
		t.Error("valid and invalid proxies should differ")
	}
	if !invalid.Attributes.Has(backend.AttrBold) {
		t.Error("proxy should be bold")
	}
}

func TestRenderer_SecondDrawOfSameTreeFlushesNothing(t *testing.T) {
	m := backend.NewMemory(16, 2)
	r := New(m)

	root := buildTree(t, []dom.Node{
		{Tag: "label", SyncID: "x",
			Style: map[string]string{"left": "0", "top": "0"}, Text: "steady"},
	})
	r.Draw(root)
	if got := r.Draw(root); got != 0 {
		t.Errorf("second draw wrote %d cells, want 0", got)
	}

	r.Invalidate()
	if got := r.Draw(root); got == 0 {
		t.Error("invalidated draw should repaint")
	}
}

func TestRenderer_RuleDrawsSeparator(t *testing.T) {
	m := backend.NewMemory(8, 2)
	r := New(m)

	root := buildTree(t, []dom.Node{
		{Tag: "rule", SyncID: "sep", Classes: []string{"link"},
			Style: map[string]string{"left": "1", "top": "1", "width": "5"}},
	})
	r.Draw(root)

	if got := m.Row(1); got != " ─────  " {
		t.Errorf("row 1 = %q", got)
	}
}

func TestThemeByName(t *testing.T) {
	dark := ThemeByName("dark")
	light := ThemeByName("light")
	if dark.Style([]string{"task"}).Equals(light.Style([]string{"task"})) {
		t.Error("dark and light task styles should differ")
	}
	fallback := ThemeByName("solarized")
	if !fallback.Style([]string{"task"}).Equals(dark.Style([]string{"task"})) {
		t.Error("unknown names should fall back to dark")
	}
}
