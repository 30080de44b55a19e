package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonathan/portfolio/internal/db"
)

var (
	postsJSON      bool
	postsWithViews bool
)

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "List published blog posts",
	Long:  "Queries the Notion blog database and lists published posts, newest first.",
	Args:  cobra.NoArgs,
	RunE:  runPosts,
}

func init() {
	postsCmd.Flags().BoolVar(&postsJSON, "json", false, "Print posts as JSON, including bodies")
	postsCmd.Flags().BoolVar(&postsWithViews, "views", false, "Include view counts from DATABASE_URL")
	rootCmd.AddCommand(postsCmd)
}

func runPosts(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireNotion(); err != nil {
		return err
	}

	ctx := context.Background()
	client, err := newNotionClient(cfg, logger)
	if err != nil {
		return err
	}

	var views *db.DB
	if postsWithViews {
		if err := cfg.RequireDatabase(); err != nil {
			return err
		}
		if views, err = db.Connect(ctx, cfg.DatabaseURL); err != nil {
			return err
		}
		defer views.Close()
	}

	// A nil *db.DB must not become a non-nil interface
	service := newBlogService(cfg, client, nil, logger)
	if views != nil {
		service = newBlogService(cfg, client, views, logger)
	}

	posts, err := service.ListPosts(ctx)
	if err != nil {
		return err
	}

	if postsJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(posts)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "DATE\tSLUG\tMIN\tVIEWS\tTITLE")
	for _, p := range posts {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", p.Date, p.Slug, p.ReadingTime, p.Views, p.Title)
	}
	return tw.Flush()
}
