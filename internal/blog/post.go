package blog

import (
	"github.com/jonathan/portfolio/internal/notion"
)

// Notion database property names
const (
	PropTitle       = "Title"
	PropSlug        = "Slug"
	PropDescription = "Description"
	PropDate        = "Date"
	PropPublished   = "Published"
	PropTags        = "Tags"
	PropCategory    = "Category"
)

// Post is a blog post read from the Notion database
type Post struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	Date        string   `json:"date"`
	Content     string   `json:"content"`
	Published   bool     `json:"published"`
	Tags        []string `json:"tags"`
	Category    string   `json:"category"`
	Views       int      `json:"views"`
	ReadingTime int      `json:"reading_time"`
}

// PostFromPage maps a database row to a Post. Missing or malformed
// properties leave the zero value; Tags is never nil.
func PostFromPage(page notion.Page) Post {
	props := page.Properties

	post := Post{ID: page.ID, Tags: []string{}}
	post.Title, _ = props.Title(PropTitle)
	post.Slug, _ = props.Text(PropSlug)
	post.Description, _ = props.Text(PropDescription)
	post.Date, _ = props.Date(PropDate)
	post.Published, _ = props.Checkbox(PropPublished)
	post.Category, _ = props.Select(PropCategory)
	if tags, ok := props.MultiSelect(PropTags); ok && tags != nil {
		post.Tags = tags
	}
	return post
}

// publishedFilter matches rows with the Published checkbox ticked
func publishedFilter() notion.Filter {
	return notion.Filter{Property: PropPublished, Checkbox: &notion.CheckboxFilter{Equals: true}}
}

// slugFilter matches the published row with the given slug
func slugFilter(slug string) notion.Filter {
	return notion.Filter{And: []notion.Filter{
		{Property: PropSlug, RichText: &notion.TextFilter{Equals: slug}},
		publishedFilter(),
	}}
}
