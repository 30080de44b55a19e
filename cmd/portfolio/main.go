// Package main provides the entry point for the portfolio API server and
// its content tools.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jonathan/portfolio/internal/blog"
	"github.com/jonathan/portfolio/internal/config"
	"github.com/jonathan/portfolio/internal/logging"
	"github.com/jonathan/portfolio/internal/markdown"
	"github.com/jonathan/portfolio/internal/notion"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "portfolio",
	Short:         "Portfolio content API server",
	Long:          "Portfolio serves profile, experience and project data from PostgreSQL and blog posts written in Notion, rendered to markdown.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads configuration and builds the logger for a command.
// Logs go to stderr so command output on stdout stays clean.
func loadConfig() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return nil, nil, fmt.Errorf("config error: %w", err)
	}
	return cfg, logger, nil
}

// newNotionClient builds a Notion client from cfg
func newNotionClient(cfg *config.Config, logger logrus.FieldLogger) (*notion.Client, error) {
	client, err := notion.NewClient(notion.Config{
		APIKey:            cfg.Notion.APIKey,
		BaseURL:           cfg.Notion.BaseURL,
		Timeout:           cfg.NotionTimeout(),
		MaxRetries:        cfg.NotionMaxRetries(),
		RequestsPerSecond: cfg.Notion.RequestsPerSecond,
		Logger:            logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create notion client: %w", err)
	}
	return client, nil
}

// newAssembler builds the block renderer for client
func newAssembler(cfg *config.Config, client *notion.Client, logger logrus.FieldLogger) *markdown.Assembler {
	return markdown.NewAssembler(client, markdown.Options{
		MaxDepth: cfg.NotionMaxDepth(),
		Logger:   logger,
	})
}

// newBlogService wires the Notion client, renderer and view store
func newBlogService(cfg *config.Config, client *notion.Client, views blog.ViewStore, logger logrus.FieldLogger) *blog.Service {
	return blog.NewService(client, newAssembler(cfg, client, logger), views, blog.Config{
		DatabaseID:  cfg.Notion.BlogDatabaseID,
		Concurrency: cfg.NotionConcurrency(),
		Logger:      logger,
	})
}
