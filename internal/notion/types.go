// Package notion provides a minimal client for the Notion API: database queries,
// block listing and lenient decoding of pages, blocks and rich text.
package notion

import (
	"encoding/json"
)

// BlockType is the value of a block's "type" field.
type BlockType string

// Block types the renderer understands. Any other value is carried through
// unchanged and treated as unknown.
const (
	BlockParagraph        BlockType = "paragraph"
	BlockHeading1         BlockType = "heading_1"
	BlockHeading2         BlockType = "heading_2"
	BlockHeading3         BlockType = "heading_3"
	BlockBulletedListItem BlockType = "bulleted_list_item"
	BlockNumberedListItem BlockType = "numbered_list_item"
	BlockCode             BlockType = "code"
	BlockQuote            BlockType = "quote"
	BlockImage            BlockType = "image"
	BlockDivider          BlockType = "divider"
	BlockChildPage        BlockType = "child_page"
	BlockChildDatabase    BlockType = "child_database"
)

// Annotations are the independent style flags on a rich text span.
type Annotations struct {
	Bold          bool   `json:"bold"`
	Italic        bool   `json:"italic"`
	Strikethrough bool   `json:"strikethrough"`
	Underline     bool   `json:"underline"`
	Code          bool   `json:"code"`
	Color         string `json:"color,omitempty"`
}

// RichText is one span of formatted text.
type RichText struct {
	PlainText   string      `json:"plain_text"`
	Annotations Annotations `json:"annotations"`
	Href        *string     `json:"href,omitempty"`
}

// Link returns the span's href, or "" when it has none.
func (rt RichText) Link() string {
	if rt.Href == nil {
		return ""
	}
	return *rt.Href
}

// UnmarshalJSON decodes a span field by field so a malformed field only
// blanks that field.
func (rt *RichText) UnmarshalJSON(data []byte) error {
	*rt = RichText{}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	_ = json.Unmarshal(raw["plain_text"], &rt.PlainText)
	if err := json.Unmarshal(raw["annotations"], &rt.Annotations); err != nil {
		rt.Annotations = Annotations{}
	}
	var href string
	if err := json.Unmarshal(raw["href"], &href); err == nil && href != "" {
		rt.Href = &href
	}
	return nil
}

// URLObject wraps a URL as Notion nests it ({"url": "..."}).
type URLObject struct {
	URL string `json:"url"`
}

// FileObject is a file reference, either hosted by Notion ("file") or
// elsewhere ("external").
type FileObject struct {
	Type     string     `json:"type"`
	External *URLObject `json:"external,omitempty"`
	File     *URLObject `json:"file,omitempty"`
}

// URL resolves the file's source URL. Both variants are opaque strings.
func (f FileObject) URL() string {
	switch f.Type {
	case "external":
		if f.External != nil {
			return f.External.URL
		}
	case "file":
		if f.File != nil {
			return f.File.URL
		}
	}
	return ""
}

// BlockContent is the type-specific payload of a block. Only the fields the
// renderer needs are kept.
type BlockContent struct {
	RichText []RichText
	Language string
	Caption  []RichText
	FileObject
}

// Block is one structural unit of a page.
type Block struct {
	Object      string
	ID          string
	Type        BlockType
	HasChildren bool
	Content     BlockContent
}

// UnmarshalJSON decodes the block envelope and the payload stored under the
// key named by its type. Malformed fields decode to their zero values; a
// value that is not an object at all yields an unknown block.
func (b *Block) UnmarshalJSON(data []byte) error {
	*b = Block{}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	_ = json.Unmarshal(raw["object"], &b.Object)
	_ = json.Unmarshal(raw["id"], &b.ID)
	_ = json.Unmarshal(raw["has_children"], &b.HasChildren)

	var blockType string
	_ = json.Unmarshal(raw["type"], &blockType)
	b.Type = BlockType(blockType)
	if blockType == "" {
		return nil
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw[blockType], &payload); err != nil {
		return nil
	}
	b.Content.RichText = decodeSpans(payload["rich_text"])
	b.Content.Caption = decodeSpans(payload["caption"])
	_ = json.Unmarshal(payload["language"], &b.Content.Language)
	_ = json.Unmarshal(payload["type"], &b.Content.Type)
	var ext, file URLObject
	if err := json.Unmarshal(payload["external"], &ext); err == nil && payload["external"] != nil {
		b.Content.External = &ext
	}
	if err := json.Unmarshal(payload["file"], &file); err == nil && payload["file"] != nil {
		b.Content.File = &file
	}
	return nil
}

// decodeSpans decodes a rich text array one span at a time.
func decodeSpans(data json.RawMessage) []RichText {
	if data == nil {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}
	spans := make([]RichText, 0, len(items))
	for _, item := range items {
		var rt RichText
		_ = rt.UnmarshalJSON(item)
		spans = append(spans, rt)
	}
	return spans
}

// BlockList is one page of a block's children.
type BlockList struct {
	Object     string  `json:"object"`
	Results    []Block `json:"results"`
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}

// Cursor returns the continuation token, or "" when there is none.
func (l *BlockList) Cursor() string {
	if l == nil || l.NextCursor == nil {
		return ""
	}
	return *l.NextCursor
}

// Page is a database row.
type Page struct {
	Object         string     `json:"object"`
	ID             string     `json:"id"`
	CreatedTime    string     `json:"created_time"`
	LastEditedTime string     `json:"last_edited_time"`
	Archived       bool       `json:"archived"`
	URL            string     `json:"url"`
	Properties     Properties `json:"properties"`
}

// QueryResult is one page of a database query.
type QueryResult struct {
	Object     string  `json:"object"`
	Results    []Page  `json:"results"`
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}

// Filter is a database query filter. Either a property condition or a
// compound "and"/"or".
type Filter struct {
	Property string          `json:"property,omitempty"`
	Checkbox *CheckboxFilter `json:"checkbox,omitempty"`
	RichText *TextFilter     `json:"rich_text,omitempty"`
	And      []Filter        `json:"and,omitempty"`
	Or       []Filter        `json:"or,omitempty"`
}

// CheckboxFilter matches a checkbox property.
type CheckboxFilter struct {
	Equals bool `json:"equals"`
}

// TextFilter matches a rich_text property.
type TextFilter struct {
	Equals string `json:"equals,omitempty"`
}

// Sort directions.
const (
	Ascending  = "ascending"
	Descending = "descending"
)

// Sort orders query results by a property.
type Sort struct {
	Property  string `json:"property,omitempty"`
	Direction string `json:"direction"`
}

// DatabaseQuery is the body of a database query request.
type DatabaseQuery struct {
	Filter      *Filter `json:"filter,omitempty"`
	Sorts       []Sort  `json:"sorts,omitempty"`
	StartCursor string  `json:"start_cursor,omitempty"`
	PageSize    int     `json:"page_size,omitempty"`
}
