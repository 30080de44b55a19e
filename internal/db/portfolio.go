package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// projectsAgg builds a JSON array of a parent's projects, empty when none.
const projectsAgg = `COALESCE(
	(SELECT json_agg(json_build_object(
		'title', p.title,
		'description', COALESCE(p.description, ''),
		'technologies', p.technologies,
		'github_url', COALESCE(p.github_url, '')
	) ORDER BY p.id)
	FROM %s p WHERE p.%s = t.id),
	'[]'::json)`

// GetUserProfile retrieves the site owner's profile and social links.
// Returns nil when no profile row exists.
func (db *DB) GetUserProfile(ctx context.Context) (*UserProfile, error) {
	var p UserProfile
	err := db.pool.QueryRow(ctx,
		`SELECT id, name, surname, title, short_intro, about, location, email,
		        profile_image_url, created_at, updated_at
		 FROM user_profile ORDER BY id LIMIT 1`,
	).Scan(&p.ID, &p.Name, &p.Surname, &p.Title, &p.ShortIntro, &p.About, &p.Location,
		&p.Email, &p.ProfileImageURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, platform, url, created_at, updated_at
		 FROM social_links WHERE user_id = $1 ORDER BY id`,
		p.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get social links: %w", err)
	}
	defer rows.Close()

	p.SocialLinks = []SocialLink{}
	for rows.Next() {
		var l SocialLink
		if err := rows.Scan(&l.ID, &l.UserID, &l.Platform, &l.URL, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan social link: %w", err)
		}
		p.SocialLinks = append(p.SocialLinks, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read social links: %w", err)
	}
	return &p, nil
}

// ListEducation retrieves education entries with their projects, newest first
func (db *DB) ListEducation(ctx context.Context) ([]Education, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT t.id, t.degree, t.field, t.school, t.gpa::float8, t.start_date::text, t.end_date::text,
		        COALESCE(t.description, ''), t.achievements, t.logo_url, t.created_at, t.updated_at,
		        `+fmt.Sprintf(projectsAgg, "education_projects", "education_id")+`
		 FROM education t ORDER BY t.start_date DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list education: %w", err)
	}
	defer rows.Close()

	entries := []Education{}
	for rows.Next() {
		var e Education
		var projects []byte
		if err := rows.Scan(&e.ID, &e.Degree, &e.Field, &e.School, &e.GPA, &e.StartDate, &e.EndDate,
			&e.Description, &e.Achievements, &e.LogoURL, &e.CreatedAt, &e.UpdatedAt, &projects); err != nil {
			return nil, fmt.Errorf("failed to scan education: %w", err)
		}
		if e.Projects, err = decodeProjects(projects); err != nil {
			return nil, fmt.Errorf("failed to decode projects for education %d: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read education: %w", err)
	}
	return entries, nil
}

// ListExperience retrieves experience entries with their projects, newest first
func (db *DB) ListExperience(ctx context.Context) ([]Experience, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT t.id, t.company_name, t.position, t.start_date::text, t.end_date::text,
		        COALESCE(t.location, ''), t.logo_url, t.description, t.responsibilities, t.technologies,
		        t.created_at, t.updated_at,
		        `+fmt.Sprintf(projectsAgg, "experience_projects", "experience_id")+`
		 FROM experience t ORDER BY t.start_date DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list experience: %w", err)
	}
	defer rows.Close()

	entries := []Experience{}
	for rows.Next() {
		var e Experience
		var projects []byte
		if err := rows.Scan(&e.ID, &e.CompanyName, &e.Position, &e.StartDate, &e.EndDate,
			&e.Location, &e.LogoURL, &e.Description, &e.Responsibilities, &e.Technologies,
			&e.CreatedAt, &e.UpdatedAt, &projects); err != nil {
			return nil, fmt.Errorf("failed to scan experience: %w", err)
		}
		if e.Projects, err = decodeProjects(projects); err != nil {
			return nil, fmt.Errorf("failed to decode projects for experience %d: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read experience: %w", err)
	}
	return entries, nil
}

// ListSkills retrieves all skills ordered by category
func (db *DB) ListSkills(ctx context.Context) ([]Skill, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, category, name, description FROM skills ORDER BY category ASC, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	defer rows.Close()

	skills := []Skill{}
	for rows.Next() {
		var s Skill
		if err := rows.Scan(&s.ID, &s.Category, &s.Name, &s.Description); err != nil {
			return nil, fmt.Errorf("failed to scan skill: %w", err)
		}
		skills = append(skills, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read skills: %w", err)
	}
	return skills, nil
}

// ListProjects retrieves projects, most starred first
func (db *DB) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, title, description, github_url, COALESCE(demo_url, ''), technologies, stars, forks
		 FROM projects ORDER BY stars DESC, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []Project{}
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.GitHubURL, &p.DemoURL,
			&p.Technologies, &p.Stars, &p.Forks); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read projects: %w", err)
	}
	return projects, nil
}

// ListRecentBlogPosts retrieves the latest blog_posts rows.
// A non-positive limit uses DefaultRecentPosts.
func (db *DB) ListRecentBlogPosts(ctx context.Context, limit int) ([]BlogPostSummary, error) {
	limit = normalizeLimit(limit, DefaultRecentPosts, MaxListLimit)

	rows, err := db.pool.Query(ctx,
		`SELECT id, title, description, slug, published_date::text, reading_time, views, category
		 FROM blog_posts ORDER BY published_date DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list blog posts: %w", err)
	}
	defer rows.Close()

	posts := []BlogPostSummary{}
	for rows.Next() {
		var p BlogPostSummary
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.Slug, &p.PublishedDate,
			&p.ReadingTime, &p.Views, &p.Category); err != nil {
			return nil, fmt.Errorf("failed to scan blog post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read blog posts: %w", err)
	}
	return posts, nil
}

// ListCertificates retrieves certificates, most recent first
func (db *DB) ListCertificates(ctx context.Context) ([]Certificate, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, title, issuer, issue_date::text, COALESCE(credential_url, '')
		 FROM certificates ORDER BY issue_date DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list certificates: %w", err)
	}
	defer rows.Close()

	certs := []Certificate{}
	for rows.Next() {
		var c Certificate
		if err := rows.Scan(&c.ID, &c.Title, &c.Issuer, &c.IssueDate, &c.CredentialURL); err != nil {
			return nil, fmt.Errorf("failed to scan certificate: %w", err)
		}
		certs = append(certs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read certificates: %w", err)
	}
	return certs, nil
}

// ListProjectHighlights returns up to limit education projects followed by
// up to limit experience projects. Date is the parent's end date, or
// PresentDate while the entry is ongoing.
func (db *DB) ListProjectHighlights(ctx context.Context, limit int) ([]ProjectHighlight, error) {
	limit = normalizeLimit(limit, DefaultHighlights, MaxListLimit)

	highlights := []ProjectHighlight{}
	for _, src := range []struct {
		kind, projects, parent, fk string
	}{
		{HighlightEducation, "education_projects", "education", "education_id"},
		{HighlightExperience, "experience_projects", "experience", "experience_id"},
	} {
		found, err := db.listHighlights(ctx, src.kind, src.projects, src.parent, src.fk, limit)
		if err != nil {
			return nil, err
		}
		highlights = append(highlights, found...)
	}
	return highlights, nil
}

func (db *DB) listHighlights(ctx context.Context, kind, projectTable, parentTable, fk string, limit int) ([]ProjectHighlight, error) {
	query := fmt.Sprintf(
		`SELECT p.title, COALESCE(p.description, ''), p.github_url, p.technologies, par.end_date::text
		 FROM %s p JOIN %s par ON par.id = p.%s
		 ORDER BY p.id LIMIT $1`,
		projectTable, parentTable, fk,
	)
	rows, err := db.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s highlights: %w", kind, err)
	}
	defer rows.Close()

	var highlights []ProjectHighlight
	for rows.Next() {
		h := ProjectHighlight{Type: kind}
		var endDate *string
		if err := rows.Scan(&h.Title, &h.Description, &h.GitHubURL, &h.Technologies, &endDate); err != nil {
			return nil, fmt.Errorf("failed to scan %s highlight: %w", kind, err)
		}
		h.Date = highlightDate(endDate)
		if h.Technologies == nil {
			h.Technologies = []string{}
		}
		highlights = append(highlights, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s highlights: %w", kind, err)
	}
	return highlights, nil
}

func highlightDate(endDate *string) string {
	if endDate == nil || *endDate == "" {
		return PresentDate
	}
	return *endDate
}

func decodeProjects(data []byte) ([]EntryProject, error) {
	projects := []EntryProject{}
	if len(data) == 0 {
		return projects, nil
	}
	if err := json.Unmarshal(data, &projects); err != nil {
		return nil, err
	}
	for i := range projects {
		if projects[i].Technologies == nil {
			projects[i].Technologies = []string{}
		}
	}
	return projects, nil
}
