package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/pders01/flick/internal/browse"
	"github.com/pders01/flick/internal/detail"
	"github.com/pders01/flick/internal/genres"
	"github.com/pders01/flick/internal/movie"
)

type listFlags struct {
	page      int
	genre     string
	year      string
	minRating float64
	sort      string
}

func (lf *listFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVar(&lf.page, "page", 1, "Result page to print")
	f.StringVar(&lf.genre, "genre", "", "Only movies in this genre (name or id)")
	f.StringVar(&lf.year, "year", browse.AllYears, "Only movies released in this year")
	f.Float64Var(&lf.minRating, "min-rating", 0, "Only movies rated at least this high (0-10)")
	f.StringVar(&lf.sort, "sort", string(browse.SortPopularityDesc), "Sort order: "+joinSorts())
}

func joinSorts() string {
	names := make([]string, len(browse.SortOptions))
	for i, s := range browse.SortOptions {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// filter resolves the flags into a filter and sort for browse.Apply.
func (lf *listFlags) filter(ctx context.Context, cache *genres.Cache) (browse.FilterState, browse.SortOption, error) {
	sortOpt, err := browse.ParseSort(lf.sort)
	if err != nil {
		return browse.FilterState{}, "", err
	}
	if lf.page < 1 {
		return browse.FilterState{}, "", fmt.Errorf("page must be at least 1, got %d", lf.page)
	}
	if lf.minRating < 0 || lf.minRating > 10 {
		return browse.FilterState{}, "", fmt.Errorf("min-rating must be between 0 and 10, got %v", lf.minRating)
	}

	f := browse.FilterState{Year: lf.year, MinRating: lf.minRating}
	if lf.genre != "" {
		id, err := resolveGenre(ctx, cache, lf.genre)
		if err != nil {
			return browse.FilterState{}, "", err
		}
		f.Genre = id
	}
	return f, sortOpt, nil
}

func resolveGenre(ctx context.Context, cache *genres.Cache, value string) (int, error) {
	if id, err := strconv.Atoi(value); err == nil {
		return id, nil
	}
	for _, g := range cache.All(ctx) {
		if strings.EqualFold(g.Name, value) {
			return g.ID, nil
		}
	}
	return 0, fmt.Errorf("unknown genre %q", value)
}

func newTrendingCmd(flags *rootFlags) *cobra.Command {
	lf := &listFlags{}
	cmd := &cobra.Command{
		Use:   "trending",
		Short: "Print trending movies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printPage(cmd, flags, lf, "")
		},
	}
	lf.register(cmd)
	return cmd
}

func newSearchCmd(flags *rootFlags) *cobra.Command {
	lf := &listFlags{}
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search movies by title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return fmt.Errorf("search query cannot be empty")
			}
			return printPage(cmd, flags, lf, query)
		},
	}
	lf.register(cmd)
	return cmd
}

func printPage(cmd *cobra.Command, flags *rootFlags, lf *listFlags, query string) error {
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
	cache := s.genres(catalog)

	filter, sortOpt, err := lf.filter(ctx, cache)
	if err != nil {
		return err
	}

	var page *movie.ResultPage
	if query == "" {
		page, err = catalog.ListTrending(ctx, lf.page)
	} else {
		page, err = catalog.Search(ctx, query, lf.page)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", browse.MsgLoadFailed, err)
	}

	items := browse.Apply(page.Results, filter, sortOpt)
	out := cmd.OutOrStdout()
	if len(items) == 0 {
		fmt.Fprintln(out, "No movies found")
		return nil
	}

	writeMovieTable(out, items, genreName(ctx, cache), s.watchlist.IsSaved)
	fmt.Fprintf(out, "page %d of %d • %d shown\n", page.Page, max(page.TotalPages, 1), len(items))
	return nil
}

func writeMovieTable(w io.Writer, items []movie.Summary, genre func(int) string, saved func(int) bool) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "TITLE", "YEAR", "RATING", "GENRES", "")

	for _, m := range items {
		var names []string
		for _, id := range m.GenreIDs {
			if n := genre(id); n != "" {
				names = append(names, n)
			}
		}
		mark := ""
		if saved(m.ID) {
			mark = "♥"
		}
		t.Row(
			strconv.Itoa(m.ID),
			m.DisplayTitle(),
			m.Year(),
			fmt.Sprintf("%.1f", m.VoteAverage),
			strings.Join(names, ", "),
			mark,
		)
	}
	fmt.Fprintln(w, t.Render())
}

func newShowCmd(flags *rootFlags) *cobra.Command {
	var (
		withSummary bool
		width       int
		raw         bool
	)
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print the details of one movie",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
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

			var summarizer detail.Summarizer
			if withSummary {
				summarizer = s.summarizer()
			}
			ctl := detail.NewController(catalog, summarizer)
			defer ctl.Close()

			ctx := commandContext(cmd)
			req := ctl.Open(id)
			needSummary, err := ctl.LoadMovie(ctx, req)
			if err != nil {
				return fmt.Errorf("%s: %w", ctl.State().Error, err)
			}
			if needSummary {
				// A failed summary only marks its own region.
				_ = ctl.LoadSummary(ctx, req)
			}

			st := ctl.State()
			if !withSummary && st.HasSummaryRegion() {
				st.SummaryError = "Run with --summary for an AI teaser."
			}
			md := detail.Markdown(st, detail.RenderOptions{
				PreviewLines: 0,
				Saved:        s.watchlist.IsSaved(id),
				WebBaseURL:   s.cfg.Catalog.WebBaseURL,
				ImageBaseURL: s.cfg.Catalog.ImageBaseURL,
			})

			out := cmd.OutOrStdout()
			if raw {
				fmt.Fprint(out, md)
				return nil
			}
			rendered, err := detail.Render(md, width)
			if err != nil {
				return fmt.Errorf("rendering detail: %w", err)
			}
			fmt.Fprint(out, rendered)
			return nil
		},
	}
	cmd.Flags().BoolVar(&withSummary, "summary", false, "Ask the summary provider for a short teaser")
	cmd.Flags().IntVar(&width, "width", 100, "Wrap width for the rendered page")
	cmd.Flags().BoolVar(&raw, "markdown", false, "Print markdown instead of rendering it")
	return cmd
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid movie id %q", s)
	}
	return id, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
