package db

import (
	"time"
)

// Highlight types
const (
	HighlightEducation  = "education"
	HighlightExperience = "experience"
)

// PresentDate is reported for projects whose parent entry has no end date
const PresentDate = "Present"

// Default and maximum row counts for limited listings
const (
	DefaultRecentPosts = 3
	DefaultHighlights  = 3
	MaxListLimit       = 50
)

// SocialLink is a profile link such as GitHub or LinkedIn
type SocialLink struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Platform  string    `json:"platform"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserProfile is the site owner's profile
type UserProfile struct {
	ID              int          `json:"id"`
	Name            string       `json:"name"`
	Surname         string       `json:"surname"`
	Title           string       `json:"title"`
	ShortIntro      string       `json:"short_intro"`
	About           string       `json:"about"`
	Location        string       `json:"location"`
	Email           string       `json:"email"`
	ProfileImageURL string       `json:"profile_image_url"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	SocialLinks     []SocialLink `json:"social_links"`
}

// EntryProject is a project attached to an education or experience entry
type EntryProject struct {
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Technologies []string `json:"technologies"`
	GitHubURL    string   `json:"github_url,omitempty"`
}

// Education represents a degree entry. Dates are YYYY-MM-DD.
type Education struct {
	ID           int            `json:"id"`
	Degree       string         `json:"degree"`
	Field        string         `json:"field"`
	School       string         `json:"school"`
	GPA          *float64       `json:"gpa,omitempty"`
	StartDate    string         `json:"start_date"`
	EndDate      *string        `json:"end_date"`
	Description  string         `json:"description,omitempty"`
	Achievements []string       `json:"achievements"`
	LogoURL      string         `json:"logo_url"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	Projects     []EntryProject `json:"projects"`
}

// Experience represents a job entry. Dates are YYYY-MM-DD.
type Experience struct {
	ID               int            `json:"id"`
	CompanyName      string         `json:"company_name"`
	Position         string         `json:"position"`
	StartDate        string         `json:"start_date"`
	EndDate          *string        `json:"end_date"`
	Location         string         `json:"location,omitempty"`
	LogoURL          string         `json:"logo_url"`
	Description      string         `json:"description"`
	Responsibilities []string       `json:"responsibilities"`
	Technologies     []string       `json:"technologies"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	Projects         []EntryProject `json:"projects"`
}

// Skill is a named skill within a category
type Skill struct {
	ID          int    `json:"id"`
	Category    string `json:"category"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Project is a standalone open-source project
type Project struct {
	ID           int      `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	GitHubURL    string   `json:"github_url"`
	DemoURL      string   `json:"demo_url,omitempty"`
	Technologies []string `json:"technologies"`
	Stars        int      `json:"stars"`
	Forks        int      `json:"forks"`
}

// BlogPostSummary is a row of the blog_posts table shown on the home page
type BlogPostSummary struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Slug          string `json:"slug"`
	PublishedDate string `json:"published_date"`
	ReadingTime   int    `json:"reading_time"`
	Views         int    `json:"views"`
	Category      string `json:"category"`
}

// Certificate is an earned certification
type Certificate struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	Issuer        string `json:"issuer"`
	IssueDate     string `json:"issue_date"`
	CredentialURL string `json:"credential_url,omitempty"`
}

// ProjectHighlight is an education or experience project flattened for display
type ProjectHighlight struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	GitHubURL    *string  `json:"github_url"`
	Technologies []string `json:"technologies"`
	Type         string   `json:"type"`
	Date         string   `json:"date"`
}
