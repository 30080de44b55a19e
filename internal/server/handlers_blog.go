package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/jonathan/portfolio/internal/blog"
	"github.com/jonathan/portfolio/internal/rendering"
)

// Post response formats
const (
	FormatJSON = "json"
	FormatHTML = "html"
)

// PostResponse is a post, plus its HTML rendering when requested
type PostResponse struct {
	blog.Post
	HTML    string              `json:"html,omitempty"`
	TOC     []rendering.Heading `json:"toc,omitempty"`
	Excerpt string              `json:"excerpt,omitempty"`
}

// parseQueryBool parses a boolean query parameter with a default value
func parseQueryBool(r *http.Request, key string, defaultValue bool) bool {
	valStr := r.URL.Query().Get(key)
	if valStr == "" {
		return defaultValue
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		return defaultValue
	}
	return val
}

// handleListPosts lists published posts, newest first. ?content=false
// drops the bodies from the response.
func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.blog.ListPosts(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if !parseQueryBool(r, "content", true) {
		for i := range posts {
			posts[i].Content = ""
		}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"posts": posts,
		"count": len(posts),
	})
}

// handleGetPost returns one post and counts the view. ?format=html adds the
// rendered HTML, table of contents and excerpt.
func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format != "" && format != FormatJSON && format != FormatHTML {
		s.writeError(w, r, &ErrValidation{Field: "format", Message: "must be json or html"})
		return
	}

	post, err := s.blog.GetPost(r.Context(), slug)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if post == nil {
		s.writeError(w, r, &ErrNotFound{Resource: "post", Key: slug})
		return
	}

	// A failed view count should not hide the post
	if views, err := s.blog.ViewPost(r.Context(), post.Slug); err != nil {
		s.log.WithError(err).WithField("slug", post.Slug).Warn("failed to record post view")
	} else {
		post.Views = views
	}

	resp := PostResponse{Post: *post}
	if format == FormatHTML {
		doc, err := rendering.ToHTML(post.Content)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("failed to render post %s: %w", post.Slug, err))
			return
		}
		resp.HTML = doc.HTML
		resp.TOC = doc.TOC
		resp.Excerpt = doc.Excerpt
	}

	s.jsonResponse(w, http.StatusOK, resp)
}

// handleGetPostMarkdown returns a post body as markdown without counting a view
func (s *Server) handleGetPostMarkdown(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	post, err := s.blog.GetPost(r.Context(), slug)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if post == nil {
		s.writeError(w, r, &ErrNotFound{Resource: "post", Key: slug})
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(post.Content)); err != nil {
		s.log.WithError(err).WithField("slug", slug).Error("Error writing markdown response")
	}
}

// handleGetPostViews returns a post's view count without changing it
func (s *Server) handleGetPostViews(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimSpace(r.PathValue("slug"))

	views, err := s.blog.Views(r.Context(), slug)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"slug":  slug,
		"views": views,
	})
}
