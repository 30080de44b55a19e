package markdown

import (
	"github.com/jonathan/portfolio/internal/notion"
)

// rawMarkdownLanguage marks code blocks whose text is itself markdown and is
// emitted without a fence.
const rawMarkdownLanguage = "markdown"

// RenderBlock renders a single block, without its children. Unknown block
// types render as "" so new Notion block kinds never break a page.
func RenderBlock(b notion.Block) string {
	text := FormatRichText(b.Content.RichText)

	switch b.Type {
	case notion.BlockParagraph:
		if len(b.Content.RichText) == 0 {
			return "\n"
		}
		return text + "\n\n"
	case notion.BlockHeading1:
		return "# " + text + "\n\n"
	case notion.BlockHeading2:
		return "## " + text + "\n\n"
	case notion.BlockHeading3:
		return "### " + text + "\n\n"
	case notion.BlockBulletedListItem:
		return "- " + text + "\n"
	case notion.BlockNumberedListItem:
		// Numbering is left to the markdown renderer.
		return "1. " + text + "\n"
	case notion.BlockCode:
		if b.Content.Language == rawMarkdownLanguage {
			return text
		}
		return "```" + b.Content.Language + "\n" + text + "\n```\n\n"
	case notion.BlockQuote:
		return "> " + text + "\n\n"
	case notion.BlockImage:
		return "![" + FormatRichText(b.Content.Caption) + "](" + b.Content.URL() + ")\n\n"
	case notion.BlockDivider:
		return "---\n\n"
	default:
		return ""
	}
}

// listIndent is the indentation that nests child content under a list item.
func listIndent(t notion.BlockType) string {
	switch t {
	case notion.BlockBulletedListItem:
		return "  "
	case notion.BlockNumberedListItem:
		return "   "
	default:
		return ""
	}
}
