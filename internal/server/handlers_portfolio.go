package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/jonathan/portfolio/internal/db"
)

// cachePrefix namespaces portfolio reads in the response cache
const cachePrefix = "portfolio"

// parseQueryInt parses an integer query parameter with default and max values
func parseQueryInt(r *http.Request, key string, defaultValue, maxValue int) int {
	valStr := r.URL.Query().Get(key)
	if valStr == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		return defaultValue
	}
	if maxValue > 0 && val > maxValue {
		return maxValue
	}
	return val
}

// cachedRead returns the cached value for key or loads and caches it.
func cachedRead[T any](s *Server, key string, load func() (T, error)) (T, error) {
	var out T
	err := s.cache.Remember(cachePrefix, key, &out, func() (any, error) {
		v, err := load()
		return v, err
	})
	return out, err
}

// handleProfile returns the site owner's profile with social links
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := cachedRead(s, "profile", func() (*db.UserProfile, error) {
		return s.store.GetUserProfile(r.Context())
	})
	if err != nil {
		s.writeError(w, r, fmt.Errorf("failed to load profile: %w", err))
		return
	}
	if profile == nil {
		s.writeError(w, r, &ErrNotFound{Resource: "profile"})
		return
	}

	s.jsonResponse(w, http.StatusOK, profile)
}

// handleListEducation lists education entries, newest first
func (s *Server) handleListEducation(w http.ResponseWriter, r *http.Request) {
	education, err := cachedRead(s, "education", func() ([]db.Education, error) {
		return s.store.ListEducation(r.Context())
	})
	if err != nil {
		s.writeError(w, r, fmt.Errorf("failed to list education: %w", err))
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"education": education,
		"count":     len(education),
	})
}

// handleListExperience lists experience entries, newest first
func (s *Server) handleListExperience(w http.ResponseWriter, r *http.Request) {
	experience, err := cachedRead(s, "experience", func() ([]db.Experience, error) {
		return s.store.ListExperience(r.Context())
	})
	if err != nil {
		s.writeError(w, r, fmt.Errorf("failed to list experience: %w", err))
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"experience": experience,
		"count":      len(experience),
	})
}

// handleListSkills lists skills ordered by category
func (s *Server) handleListSkills(w http.ResponseWriter, r *http.Request) {
	skills, err := cachedRead(s, "skills", func() ([]db.Skill, error) {
		return s.store.ListSkills(r.Context())
	})
	if err != nil {
		s.writeError(w, r, fmt.Errorf("failed to list skills: %w", err))
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"skills": skills,
		"count":  len(skills),
	})
}

// handleListProjects lists projects, most starred first
func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := cachedRead(s, "projects", func() ([]db.Project, error) {
		return s.store.ListProjects(r.Context())
	})
	if err != nil {
		s.writeError(w, r, fmt.Errorf("failed to list projects: %w", err))
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"projects": projects,
		"count":    len(projects),
	})
}

// handleProjectHighlights lists education and experience projects
func (s *Server) handleProjectHighlights(w http.ResponseWriter, r *http.Request) {
	limit := parseQueryInt(r, "limit", db.DefaultHighlights, db.MaxListLimit)

	highlights, err := cachedRead(s, "highlights:"+strconv.Itoa(limit), func() ([]db.ProjectHighlight, error) {
		return s.store.ListProjectHighlights(r.Context(), limit)
	})
	if err != nil {
		s.writeError(w, r, fmt.Errorf("failed to list project highlights: %w", err))
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"highlights": highlights,
		"count":      len(highlights),
		"limit":      limit,
	})
}

// handleListCertificates lists certificates, most recent first
func (s *Server) handleListCertificates(w http.ResponseWriter, r *http.Request) {
	certificates, err := cachedRead(s, "certificates", func() ([]db.Certificate, error) {
		return s.store.ListCertificates(r.Context())
	})
	if err != nil {
		s.writeError(w, r, fmt.Errorf("failed to list certificates: %w", err))
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"certificates": certificates,
		"count":        len(certificates),
	})
}

// handleRecentPosts lists the latest rows of the blog_posts table
func (s *Server) handleRecentPosts(w http.ResponseWriter, r *http.Request) {
	limit := parseQueryInt(r, "limit", db.DefaultRecentPosts, db.MaxListLimit)

	posts, err := cachedRead(s, "recent:"+strconv.Itoa(limit), func() ([]db.BlogPostSummary, error) {
		return s.store.ListRecentBlogPosts(r.Context(), limit)
	})
	if err != nil {
		s.writeError(w, r, fmt.Errorf("failed to list recent posts: %w", err))
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"posts": posts,
		"count": len(posts),
		"limit": limit,
	})
}
