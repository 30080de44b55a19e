package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/portfolio/internal/db"
	"github.com/jonathan/portfolio/internal/server"
)

var (
	servePort    int
	serveMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes portfolio content and blog posts as JSON.`,
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default from PORT or config, else 8080)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "Apply the database schema before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}
	if err := cfg.RequireNotion(); err != nil {
		return err
	}

	ctx := context.Background()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	if serveMigrate {
		if err := database.Migrate(ctx); err != nil {
			return err
		}
		logger.Info("database schema applied")
	}

	client, err := newNotionClient(cfg, logger)
	if err != nil {
		return err
	}

	srv := server.New(server.Config{
		Port:               cfg.Port,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		CacheTTL:           cfg.CacheTTL(),
		Logger:             logger,
	}, database, newBlogService(cfg, client, database, logger))

	if err := srv.Start(); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}
