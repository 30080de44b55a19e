package rendering

import (
	"github.com/charmbracelet/glamour"
)

// DefaultTerminalWidth is the word wrap used when width is not positive
const DefaultTerminalWidth = 80

// Terminal renders markdown as styled text for a terminal of the given
// width. style is a glamour standard style name; "" picks one from the
// terminal background.
func Terminal(markdown string, width int, style string) (string, error) {
	if width <= 0 {
		width = DefaultTerminalWidth
	}

	styleOpt := glamour.WithAutoStyle()
	if style != "" {
		styleOpt = glamour.WithStandardStyle(style)
	}

	r, err := glamour.NewTermRenderer(
		styleOpt,
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", &RenderError{Message: "failed to create terminal renderer", Cause: err}
	}

	out, err := r.Render(markdown)
	if err != nil {
		return "", &RenderError{Message: "failed to render markdown", Cause: err}
	}
	return out, nil
}
