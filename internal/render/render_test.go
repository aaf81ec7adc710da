package render

import (
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	m := NewMarkdown()

	t.Run("styled output keeps the document text", func(t *testing.T) {
		out, err := m.Render("# Reading\n\nSteady fortune ahead.")
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if !strings.Contains(out, "Steady fortune ahead.") {
			t.Errorf("rendered output lost the document text:\n%s", out)
		}
	})

	t.Run("empty input passes through", func(t *testing.T) {
		out, err := m.Render("")
		if err != nil {
			t.Fatal(err)
		}
		if out != "" {
			t.Errorf("expected empty output, got %q", out)
		}
	})

	t.Run("a nil term renderer falls back to plain markdown", func(t *testing.T) {
		bare := &Markdown{}
		out, err := bare.Render("plain **bold**")
		if err != nil {
			t.Fatal(err)
		}
		if out != "plain **bold**" {
			t.Errorf("expected passthrough, got %q", out)
		}
	})
}
