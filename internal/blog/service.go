// Package blog serves blog posts stored in a Notion database, with bodies
// rendered to markdown and view counts kept in Postgres.
package blog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/portfolio/internal/markdown"
	"github.com/jonathan/portfolio/internal/notion"
)

// DefaultConcurrency bounds how many post bodies are rendered at once
const DefaultConcurrency = 4

// ErrInvalidSlug is returned for an empty slug
var ErrInvalidSlug = errors.New("invalid slug")

// PageQuerier queries a Notion database. *notion.Client implements it.
type PageQuerier interface {
	QueryDatabase(ctx context.Context, databaseID string, q notion.DatabaseQuery) (*notion.QueryResult, error)
	QueryAll(ctx context.Context, databaseID string, q notion.DatabaseQuery) ([]notion.Page, error)
}

// Renderer turns a page's blocks into markdown. *markdown.Assembler
// implements it.
type Renderer interface {
	Render(ctx context.Context, parentID string) markdown.Rendered
}

// ViewStore persists per-slug view counts. *db.DB implements it.
type ViewStore interface {
	GetPostViews(ctx context.Context, slug string) (int, error)
	IncrementPostViews(ctx context.Context, slug string) (int, error)
	ListPostViews(ctx context.Context) (map[string]int, error)
}

// Config configures a Service
type Config struct {
	DatabaseID  string
	Concurrency int
	Logger      logrus.FieldLogger
}

// Service reads posts from Notion. Views is optional; without it every
// post reports 0 views.
type Service struct {
	pages       PageQuerier
	renderer    Renderer
	views       ViewStore
	databaseID  string
	concurrency int
	log         logrus.FieldLogger
}

// NewService creates a blog service
func NewService(pages PageQuerier, renderer Renderer, views ViewStore, cfg Config) *Service {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	return &Service{
		pages:       pages,
		renderer:    renderer,
		views:       views,
		databaseID:  cfg.DatabaseID,
		concurrency: cfg.Concurrency,
		log:         cfg.Logger.WithField("component", "blog"),
	}
}

// ListPosts returns every published post, newest first, with rendered
// bodies and reading times.
func (s *Service) ListPosts(ctx context.Context) ([]Post, error) {
	filter := publishedFilter()
	pages, err := s.pages.QueryAll(ctx, s.databaseID, notion.DatabaseQuery{
		Filter: &filter,
		Sorts:  []notion.Sort{{Property: PropDate, Direction: notion.Descending}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query blog posts: %w", err)
	}

	posts := make([]Post, len(pages))
	for i, page := range pages {
		posts[i] = PostFromPage(page)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range posts {
		g.Go(func() error {
			s.fillBody(gctx, &posts[i])
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to render blog posts: %w", err)
	}

	s.attachViews(ctx, posts)
	return posts, nil
}

// GetPost returns the published post with slug, or nil if there is none.
// Views is the stored count; it is not incremented.
func (s *Service) GetPost(ctx context.Context, slug string) (*Post, error) {
	slug, err := cleanSlug(slug)
	if err != nil {
		return nil, err
	}

	// A second row means the slug is duplicated
	filter := slugFilter(slug)
	result, err := s.pages.QueryDatabase(ctx, s.databaseID, notion.DatabaseQuery{Filter: &filter, PageSize: 2})
	if err != nil {
		return nil, fmt.Errorf("failed to query blog post %s: %w", slug, err)
	}
	if len(result.Results) == 0 {
		return nil, nil
	}
	if len(result.Results) > 1 || result.HasMore {
		s.log.WithField("slug", slug).Warn("duplicate slug, using first match")
	}

	post := PostFromPage(result.Results[0])
	s.fillBody(ctx, &post)

	if s.views != nil {
		views, err := s.views.GetPostViews(ctx, slug)
		if err != nil {
			s.log.WithError(err).WithField("slug", slug).Warn("failed to read post views")
		}
		post.Views = views
	}
	return &post, nil
}

// ViewPost records a view of slug and returns the updated count.
func (s *Service) ViewPost(ctx context.Context, slug string) (int, error) {
	slug, err := cleanSlug(slug)
	if err != nil {
		return 0, err
	}
	if s.views == nil {
		return 0, nil
	}

	return s.views.IncrementPostViews(ctx, slug)
}

// Views returns the stored view count of slug without changing it.
func (s *Service) Views(ctx context.Context, slug string) (int, error) {
	slug, err := cleanSlug(slug)
	if err != nil {
		return 0, err
	}
	if s.views == nil {
		return 0, nil
	}
	return s.views.GetPostViews(ctx, slug)
}

func (s *Service) fillBody(ctx context.Context, post *Post) {
	rendered := s.renderer.Render(ctx, post.ID)
	post.Content = rendered.Markdown
	post.ReadingTime = rendered.ReadingTimeMinutes
}

func (s *Service) attachViews(ctx context.Context, posts []Post) {
	if s.views == nil || len(posts) == 0 {
		return
	}
	counts, err := s.views.ListPostViews(ctx)
	if err != nil {
		s.log.WithError(err).Warn("failed to list post views")
		return
	}
	for i := range posts {
		posts[i].Views = counts[posts[i].Slug]
	}
}

func cleanSlug(slug string) (string, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return "", ErrInvalidSlug
	}
	return slug, nil
}
