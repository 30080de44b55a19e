package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// GetPostViews returns the view count for a blog post slug, 0 if it has
// never been viewed.
func (db *DB) GetPostViews(ctx context.Context, slug string) (int, error) {
	var views int
	err := db.pool.QueryRow(ctx,
		`SELECT views FROM post_views WHERE slug = $1`,
		slug,
	).Scan(&views)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get views for %s: %w", slug, err)
	}
	return views, nil
}

// IncrementPostViews adds one view to slug, creating its row on first view,
// and returns the count including this view. Concurrent increments are never
// lost and each caller sees its own count.
func (db *DB) IncrementPostViews(ctx context.Context, slug string) (int, error) {
	var views int
	err := db.pool.QueryRow(ctx,
		`INSERT INTO post_views (slug, views) VALUES ($1, 1)
		 ON CONFLICT (slug) DO UPDATE SET views = post_views.views + 1, updated_at = NOW()
		 RETURNING views`,
		slug,
	).Scan(&views)
	if err != nil {
		return 0, fmt.Errorf("failed to increment views for %s: %w", slug, err)
	}
	return views, nil
}

// ListPostViews returns the view count of every viewed post keyed by slug
func (db *DB) ListPostViews(ctx context.Context) (map[string]int, error) {
	rows, err := db.pool.Query(ctx, `SELECT slug, views FROM post_views`)
	if err != nil {
		return nil, fmt.Errorf("failed to list post views: %w", err)
	}
	defer rows.Close()

	views := make(map[string]int)
	for rows.Next() {
		var slug string
		var n int
		if err := rows.Scan(&slug, &n); err != nil {
			return nil, fmt.Errorf("failed to scan post views: %w", err)
		}
		views[slug] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read post views: %w", err)
	}
	return views, nil
}
