package rendering

import (
	"bytes"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// MaxExcerptLength is the rune limit of HTMLDocument.Excerpt
const MaxExcerptLength = 280

// Heading is a table of contents entry
type Heading struct {
	Level int    `json:"level"`
	ID    string `json:"id"`
	Text  string `json:"text"`
}

// HTMLDocument is rendered post HTML plus data derived from it
type HTMLDocument struct {
	HTML    string    `json:"html"`
	TOC     []Heading `json:"toc"`
	Excerpt string    `json:"excerpt"`
}

var (
	converter = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		// Raw HTML in posts is passed through here and cleaned by the policy.
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)

	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func sanitizer() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[\w+#-]+$`)).OnElements("code")
		p.AllowElements("input")
		p.AllowAttrs("type").Matching(regexp.MustCompile(`^checkbox$`)).OnElements("input")
		p.AllowAttrs("checked", "disabled").OnElements("input")
		policy = p
	})
	return policy
}

// ToHTML converts markdown to sanitized HTML. External links open in a new
// tab, h1-h3 headings form the table of contents and the first paragraph
// becomes the excerpt.
func ToHTML(markdown string) (*HTMLDocument, error) {
	var buf bytes.Buffer
	if err := converter.Convert([]byte(markdown), &buf); err != nil {
		return nil, &RenderError{Message: "failed to convert markdown", Cause: err}
	}

	clean := sanitizer().SanitizeReader(&buf)
	doc, err := goquery.NewDocumentFromReader(clean)
	if err != nil {
		return nil, &RenderError{Message: "failed to parse HTML", Cause: err}
	}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href, _ := s.Attr("href"); isExternal(href) {
			s.SetAttr("target", "_blank")
			s.SetAttr("rel", "noopener noreferrer")
		}
	})

	out := &HTMLDocument{TOC: []Heading{}}
	doc.Find("h1, h2, h3").Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("id")
		out.TOC = append(out.TOC, Heading{
			Level: headingLevel(goquery.NodeName(s)),
			ID:    id,
			Text:  strings.TrimSpace(s.Text()),
		})
	})
	out.Excerpt = excerpt(strings.TrimSpace(doc.Find("p").First().Text()))

	body, err := doc.Find("body").Html()
	if err != nil {
		return nil, &RenderError{Message: "failed to serialize HTML", Cause: err}
	}
	out.HTML = body
	return out, nil
}

func isExternal(href string) bool {
	href = strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") || strings.HasPrefix(href, "//")
}

func headingLevel(name string) int {
	if len(name) == 2 && name[0] == 'h' && name[1] >= '1' && name[1] <= '6' {
		return int(name[1] - '0')
	}
	return 0
}

// excerpt shortens text to MaxExcerptLength runes, cutting at a word
// boundary when one is available.
func excerpt(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= MaxExcerptLength {
		return text
	}
	cut := string([]rune(text)[:MaxExcerptLength])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}
