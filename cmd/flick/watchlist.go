package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/pders01/flick/internal/search"
	"github.com/pders01/flick/internal/validation"
	"github.com/pders01/flick/internal/watchlist"
)

func newWatchlistCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "watchlist",
		Aliases: []string{"wl"},
		Short:   "Manage saved movies",
	}
	cmd.AddCommand(
		newWatchlistListCmd(flags),
		newWatchlistAddCmd(flags),
		newWatchlistRemoveCmd(flags),
		newWatchlistClearCmd(flags),
		newWatchlistExportCmd(flags),
		newWatchlistFindCmd(flags),
	)
	return cmd
}

func newWatchlistListCmd(flags *rootFlags) *cobra.Command {
	var query, sortName string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print saved movies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sortOpt, err := watchlist.ParseSort(sortName)
			if err != nil {
				return err
			}

			s, err := openSession(flags)
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			entries := s.watchlist.List(query, sortOpt)
			if len(entries) == 0 {
				if s.watchlist.Len() == 0 {
					fmt.Fprintln(out, "Your watchlist is empty.")
				} else {
					fmt.Fprintln(out, "No saved movies match this filter.")
				}
				return nil
			}
			writeEntryTable(out, entries)
			fmt.Fprintf(out, "%d of %d saved", len(entries), s.watchlist.Len())
			if t := s.lastExport(); !t.IsZero() {
				fmt.Fprintf(out, " • last export %s", t.Local().Format("2006-01-02 15:04"))
			}
			fmt.Fprintln(out)
			return nil
		},
	}
	cmd.Flags().StringVar(&query, "query", "", "Only entries whose title or year contains this text")
	cmd.Flags().StringVar(&sortName, "sort", string(watchlist.SortRecentlyAdded), "Sort order: recently-added, title-asc, rating-desc, year-desc")
	return cmd
}

func writeEntryTable(w io.Writer, entries []watchlist.Entry) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "TITLE", "YEAR", "RATING", "ADDED")
	for _, e := range entries {
		added := ""
		if !e.AddedAt.IsZero() {
			added = e.AddedAt.Local().Format("2006-01-02")
		}
		t.Row(strconv.Itoa(e.ID), e.DisplayTitle(), e.Year(), fmt.Sprintf("%.1f", e.VoteAverage), added)
	}
	fmt.Fprintln(w, t.Render())
}

func newWatchlistAddCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "add <id>...",
		Short: "Save movies by TMDB id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}

			s, err := openSession(flags)
			if err != nil {
				return err
			}
			defer s.Close()

			catalog, err := s.catalog()
			if err != nil {
				return err
			}

			ctx := commandContext(cmd)
			out := cmd.OutOrStdout()
			for _, id := range ids {
				if e, ok := s.watchlist.Get(id); ok {
					fmt.Fprintf(out, "'%s' is already in your watchlist\n", e.DisplayTitle())
					continue
				}
				d, err := catalog.GetByID(ctx, id)
				if err != nil {
					return fmt.Errorf("looking up movie %d: %w", id, err)
				}
				if _, err := s.watchlist.Add(d.Snapshot()); err != nil {
					return fmt.Errorf("saving movie %d: %w", id, err)
				}
				fmt.Fprintf(out, "Added '%s' to watchlist\n", d.DisplayTitle())
			}
			return nil
		},
	}
}

func newWatchlistRemoveCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>...",
		Aliases: []string{"rm"},
		Short:   "Remove movies from the watchlist",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}

			s, err := openSession(flags)
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			for _, id := range ids {
				e, _ := s.watchlist.Get(id)
				removed, err := s.watchlist.Remove(id)
				if err != nil {
					return fmt.Errorf("removing movie %d: %w", id, err)
				}
				if !removed {
					fmt.Fprintf(out, "Movie %d is not in your watchlist\n", id)
					continue
				}
				fmt.Fprintf(out, "Removed '%s' from watchlist\n", e.DisplayTitle())
			}
			return nil
		},
	}
}

func newWatchlistClearCmd(flags *rootFlags) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every saved movie",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear the watchlist without --yes")
			}

			s, err := openSession(flags)
			if err != nil {
				return err
			}
			defer s.Close()

			n := s.watchlist.Len()
			if err := s.watchlist.Clear(); err != nil {
				return fmt.Errorf("clearing watchlist: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d saved movies\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm clearing the watchlist")
	return cmd
}

func newWatchlistExportCmd(flags *rootFlags) *cobra.Command {
	var formatName, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the watchlist as JSON, YAML or TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format := watchlist.FormatJSON
			switch {
			case formatName != "":
				f, err := watchlist.ParseFormat(formatName)
				if err != nil {
					return err
				}
				format = f
			case output != "" && output != "-":
				format = watchlist.FormatFromPath(output)
			}

			s, err := openSession(flags)
			if err != nil {
				return err
			}
			defer s.Close()

			entries := s.watchlist.Entries()
			if output == "-" {
				return watchlist.Export(cmd.OutOrStdout(), entries, format)
			}

			path, err := validation.NewPermissivePathHandler().GetExportPath(output, format.DefaultFilename())
			if err != nil {
				return fmt.Errorf("export path: %w", err)
			}
			var buf bytes.Buffer
			if err := watchlist.Export(&buf, entries, format); err != nil {
				return err
			}
			if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
				return fmt.Errorf("writing export: %w", err)
			}
			s.recordExport(time.Now())
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d movies to %s\n", len(entries), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&formatName, "format", "f", "", "json, yaml or toml (default from the output extension, else json)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, or - for stdout (default watchlist.<format>)")
	return cmd
}

func newWatchlistFindCmd(flags *rootFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "find <terms>",
		Short: "Full-text search over saved movies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if len([]rune(query)) < search.MinQueryLength {
				return fmt.Errorf("search terms must be at least %d characters", search.MinQueryLength)
			}

			s, err := openSession(flags)
			if err != nil {
				return err
			}
			defer s.Close()

			engine := search.New(genreName(commandContext(cmd), nil))
			if ix, ok := engine.(search.Indexer); ok {
				if err := ix.Index(s.watchlist.Entries()); err != nil {
					return fmt.Errorf("indexing watchlist: %w", err)
				}
			}
			if c, ok := engine.(io.Closer); ok {
				defer c.Close()
			}

			results, err := engine.Search(query, limit)
			if err != nil {
				return fmt.Errorf("searching watchlist: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "No saved movies match.")
				return nil
			}
			for _, r := range results {
				fmt.Fprintf(out, "%d\t%s", r.Entry.ID, r.Entry.DisplayTitle())
				if y := r.Entry.Year(); y != "" {
					fmt.Fprintf(out, " (%s)", y)
				}
				fmt.Fprintf(out, "\t%.2f\n", r.Score)
				for _, m := range r.Matches {
					fmt.Fprintf(out, "\t%s: %s\n", m.Field, m.Text)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results")
	return cmd
}

func parseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, a := range args {
		id, err := parseID(a)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
