package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/portfolio/internal/notion"
	"github.com/jonathan/portfolio/internal/rendering"
)

var (
	renderPretty      bool
	renderWidth       int
	renderStyle       string
	renderReadingTime bool
	renderMaxDepth    int
)

var renderCmd = &cobra.Command{
	Use:   "render <page-id>",
	Short: "Render a Notion page to markdown",
	Long:  "Fetches the block tree of a Notion page and prints it as markdown. Only NOTION_API_KEY is required.",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().BoolVar(&renderPretty, "pretty", false, "Render the markdown for the terminal")
	renderCmd.Flags().IntVar(&renderWidth, "width", rendering.DefaultTerminalWidth, "Word wrap width for --pretty")
	renderCmd.Flags().StringVar(&renderStyle, "style", "", "Glamour style for --pretty (dark, light, notty); detected when empty")
	renderCmd.Flags().BoolVar(&renderReadingTime, "reading-time", false, "Print the estimated reading time to stderr")
	renderCmd.Flags().IntVar(&renderMaxDepth, "max-depth", -1, "Nested block depth (default from config)")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	pageID, err := notion.NormalizeID(args[0])
	if err != nil {
		return err
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Notion.APIKey) == "" {
		return fmt.Errorf("config error: NOTION_API_KEY is required but not set")
	}
	if renderMaxDepth >= 0 {
		cfg.Notion.MaxDepth = &renderMaxDepth
	}

	client, err := newNotionClient(cfg, logger)
	if err != nil {
		return err
	}

	rendered := newAssembler(cfg, client, logger).Render(context.Background(), pageID)

	out := rendered.Markdown
	if renderPretty {
		if out, err = rendering.Terminal(rendered.Markdown, renderWidth, renderStyle); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprint(cmd.OutOrStdout(), out); err != nil {
		return err
	}
	if renderReadingTime {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Reading time: %d min\n", rendered.ReadingTimeMinutes)
	}
	return nil
}
