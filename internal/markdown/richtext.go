// Package markdown renders Notion block trees to markdown text and
// estimates reading time.
package markdown

import (
	"strings"

	"github.com/jonathan/portfolio/internal/notion"
)

// FormatRichText renders spans to inline markdown and concatenates them.
// Markers wrap inside-out in a fixed order: code, bold, italic,
// strikethrough, then the link.
func FormatRichText(spans []notion.RichText) string {
	if len(spans) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, span := range spans {
		sb.WriteString(formatSpan(span))
	}
	return sb.String()
}

func formatSpan(span notion.RichText) string {
	content := span.PlainText
	a := span.Annotations

	if a.Code {
		content = "`" + content + "`"
	}
	if a.Bold {
		content = "**" + content + "**"
	}
	if a.Italic {
		content = "*" + content + "*"
	}
	if a.Strikethrough {
		content = "~~" + content + "~~"
	}
	if href := span.Link(); href != "" {
		content = "[" + content + "](" + href + ")"
	}
	return content
}
