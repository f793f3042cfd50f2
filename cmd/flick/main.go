package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pders01/flick/internal/config"
	"github.com/pders01/flick/internal/media"
	"github.com/pders01/flick/internal/search"
	"github.com/pders01/flick/internal/tmdb"
	"github.com/pders01/flick/internal/tui"
)

// Version is the version of the application, set at build time
var Version = "dev"

type rootFlags struct {
	configPath string
	dbPath     string
	logLevel   string
	quiet      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "flick",
		Short:         "Movie discovery in the terminal",
		Long:          "flick browses trending movies and search results from TMDB, shows details with an optional AI teaser, and keeps a local watchlist.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Path to configuration file")
	pf.StringVar(&flags.dbPath, "db", "", "Path to database file (overrides config)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error, off (overrides config)")
	root.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "Skip startup banner")

	root.AddCommand(
		newTrendingCmd(flags),
		newSearchCmd(flags),
		newShowCmd(flags),
		newWatchlistCmd(flags),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

func runTUI(cmd *cobra.Command, flags *rootFlags) error {
	s, err := openSession(flags)
	if err != nil {
		return err
	}
	defer s.Close()

	catalog, err := s.catalog()
	if err != nil {
		return err
	}

	if !flags.quiet {
		tui.ShowBanner(Version)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	genreCache := s.genres(catalog)

	app := tui.NewApp(s.cfg, tui.Deps{
		Catalog:    catalog,
		Summarizer: s.summarizer(),
		Watchlist:  s.watchlist,
		Genres:     genreCache,
		Opener:     media.NewLauncher(&s.cfg.Media),
		Search:     search.New(genreName(ctx, genreCache)),
		ExportDir:  config.DefaultDir(),
	})

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var path string
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path == "" {
				path = config.DefaultConfigPath()
			}
			if err := config.GenerateDefaultConfig(path); err != nil {
				return fmt.Errorf("failed to generate config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated default configuration at: %s\n", path)
			return nil
		},
	}
	generate.Flags().StringVar(&path, "path", "", "Where to write the file (default ~/.config/flick/config.toml)")

	configCmd.AddCommand(generate)
	return configCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "flick %s\n", Version)
			fmt.Fprintln(out, "Movie discovery in the terminal")
			fmt.Fprintln(out, "github.com/pders01/flick")
		},
	}
}

// credentialsHint turns a missing-key error into something actionable.
func credentialsHint(err error) error {
	if errors.Is(err, tmdb.ErrNoCredentials) {
		return fmt.Errorf("%w: set TMDB_API_KEY or catalog.api_key in %s", err, config.DefaultConfigPath())
	}
	return err
}
