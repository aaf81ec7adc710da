package render

import "github.com/charmbracelet/glamour"

// Markdown renders report markdown for the terminal through glamour.
// It satisfies the presentation gate's Renderer interface.
type Markdown struct {
	tr *glamour.TermRenderer
}

// NewMarkdown builds a terminal renderer with auto-detected styling.
func NewMarkdown() *Markdown {
	tr, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	return &Markdown{tr: tr}
}

// Render returns the styled document. On any renderer trouble the plain
// markdown comes back instead; presentation never hard-fails on styling.
func (m *Markdown) Render(markdown string) (out string, err error) {
	// glamour can panic on unusual input; fall back to plain text
	defer func() {
		if r := recover(); r != nil {
			out, err = markdown, nil
		}
	}()

	if m.tr == nil || markdown == "" {
		return markdown, nil
	}
	rendered, rerr := m.tr.Render(markdown)
	if rerr != nil {
		return markdown, nil
	}
	return rendered, nil
}
