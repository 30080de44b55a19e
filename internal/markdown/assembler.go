package markdown

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jonathan/portfolio/internal/notion"
)

// DefaultMaxDepth is how many levels of nested children are fetched below
// the top-level blocks of a page.
const DefaultMaxDepth = 3

// BlockSource lists one page of a block's children. *notion.Client
// implements it.
type BlockSource interface {
	ListBlockChildren(ctx context.Context, blockID, cursor string) (*notion.BlockList, error)
}

// Rendered is the markdown of a document and its reading time.
type Rendered struct {
	Markdown           string `json:"markdown"`
	ReadingTimeMinutes int    `json:"reading_time"`
}

// Options configures an Assembler.
type Options struct {
	// MaxDepth bounds recursion into nested children. 0 renders only the
	// top-level blocks.
	MaxDepth int
	// MaxPages caps the number of child pages fetched per block. 0 means
	// no cap.
	MaxPages int
	Logger   logrus.FieldLogger
}

// DefaultOptions returns the options used by the server and CLI.
func DefaultOptions() Options {
	return Options{MaxDepth: DefaultMaxDepth}
}

// Assembler fetches a page's block tree and renders it to markdown.
type Assembler struct {
	source   BlockSource
	maxDepth int
	maxPages int
	log      logrus.FieldLogger
}

// NewAssembler creates an Assembler reading blocks from source.
func NewAssembler(source BlockSource, opts Options) *Assembler {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.MaxDepth < 0 {
		opts.MaxDepth = 0
	}
	return &Assembler{
		source:   source,
		maxDepth: opts.MaxDepth,
		maxPages: opts.MaxPages,
		log:      opts.Logger.WithField("component", "markdown"),
	}
}

// Render renders the page or block parentID and estimates its reading time.
func (a *Assembler) Render(ctx context.Context, parentID string) Rendered {
	md := a.Markdown(ctx, parentID)
	return Rendered{Markdown: md, ReadingTimeMinutes: ReadingTime(md)}
}

// Markdown renders the children of parentID. If the first page of children
// cannot be fetched the result is "", never an error: a post whose body
// cannot be loaded shows as empty.
func (a *Assembler) Markdown(ctx context.Context, parentID string) string {
	blocks, err := a.FetchDocument(ctx, parentID)
	if err != nil {
		if len(blocks) == 0 {
			a.log.WithError(err).WithField("block_id", parentID).Error("failed to fetch document")
			return ""
		}
		a.log.WithError(err).WithField("block_id", parentID).Warn("document truncated")
	}

	var sb strings.Builder
	a.writeBlocks(ctx, &sb, blocks, 0)
	return sb.String()
}

// FetchDocument reads every page of parentID's children in order. On a
// failure after the first page it returns the blocks read so far along
// with the error.
func (a *Assembler) FetchDocument(ctx context.Context, parentID string) ([]notion.Block, error) {
	var (
		blocks []notion.Block
		cursor string
		seen   = make(map[string]bool)
	)
	for page := 1; ; page++ {
		list, err := a.source.ListBlockChildren(ctx, parentID, cursor)
		if err != nil {
			return blocks, err
		}
		blocks = append(blocks, list.Results...)

		next := list.Cursor()
		if !list.HasMore || next == "" || seen[next] {
			return blocks, nil
		}
		if a.maxPages > 0 && page >= a.maxPages {
			a.log.WithFields(logrus.Fields{
				"block_id": parentID,
				"pages":    page,
			}).Warn("page limit reached, remaining blocks skipped")
			return blocks, nil
		}
		seen[next] = true
		cursor = next
	}
}

func (a *Assembler) writeBlocks(ctx context.Context, sb *strings.Builder, blocks []notion.Block, depth int) {
	for _, b := range blocks {
		sb.WriteString(RenderBlock(b))

		if !a.descend(b, depth) {
			continue
		}
		children := a.renderChildren(ctx, b.ID, depth+1)
		sb.WriteString(indent(children, listIndent(b.Type)))
	}
}

// descend reports whether b's children should be fetched. Child pages and
// databases are separate documents and are never inlined.
func (a *Assembler) descend(b notion.Block, depth int) bool {
	if !b.HasChildren || b.ID == "" || depth >= a.maxDepth {
		return false
	}
	return b.Type != notion.BlockChildPage && b.Type != notion.BlockChildDatabase
}

func (a *Assembler) renderChildren(ctx context.Context, blockID string, depth int) string {
	blocks, err := a.FetchDocument(ctx, blockID)
	if err != nil {
		a.log.WithError(err).WithFields(logrus.Fields{
			"block_id": blockID,
			"depth":    depth,
		}).Warn("failed to fetch child blocks")
	}

	var sb strings.Builder
	a.writeBlocks(ctx, &sb, blocks, depth)
	return sb.String()
}

// indent prefixes every non-empty line of s.
func indent(s, prefix string) string {
	if prefix == "" || s == "" {
		return s
	}
	lines := strings.SplitAfter(s, "\n")
	var sb strings.Builder
	for _, line := range lines {
		if line != "" && line != "\n" {
			sb.WriteString(prefix)
		}
		sb.WriteString(line)
	}
	return sb.String()
}
