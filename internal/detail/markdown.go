package detail

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/pders01/flick/internal/movie"
)

type RenderOptions struct {
	// PreviewLines caps the collapsed summary. Zero shows everything.
	PreviewLines int
	// ExpandHint follows a collapsed summary, e.g. "press m for more".
	ExpandHint   string
	Saved        bool
	WebBaseURL   string
	ImageBaseURL string
}

// Markdown describes the page for s. It never fails: missing fields fall
// back to placeholders.
func Markdown(s State, opts RenderOptions) string {
	var b strings.Builder

	switch {
	case s.LoadingMovie:
		b.WriteString("_Loading movie…_\n")
		return b.String()
	case s.Error != "":
		fmt.Fprintf(&b, "# Something went wrong\n\n%s\n\nPress **esc** to go back.\n", s.Error)
		return b.String()
	case s.Movie == nil:
		return ""
	}

	m := s.Movie
	title := m.DisplayTitle()
	if y := m.Year(); y != "" {
		title = fmt.Sprintf("%s (%s)", title, y)
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	saved := ""
	if opts.Saved {
		saved = "  ·  ✓ in watchlist"
	}
	fmt.Fprintf(&b, "%s  **%.1f**/10%s\n\n", movie.StarRating(m.VoteAverage), m.VoteAverage, saved)

	lang := strings.ToUpper(m.OriginalLanguage)
	if lang == "" {
		lang = "N/A"
	}
	fmt.Fprintf(&b, "**Duration:** %s  ·  **Language:** %s  ·  **Release:** %s\n\n",
		movie.FormatRuntime(m.Runtime), lang, movie.FormatReleaseDate(m.ReleaseDate))

	if len(m.Genres) > 0 {
		names := make([]string, 0, len(m.Genres))
		for _, g := range m.Genres {
			names = append(names, "`"+g.Name+"`")
		}
		b.WriteString(strings.Join(names, " ") + "\n\n")
	}

	if m.Tagline != "" {
		fmt.Fprintf(&b, "> %s\n\n", m.Tagline)
	}
	if m.Overview != "" {
		fmt.Fprintf(&b, "## Overview\n\n%s\n\n", m.Overview)
	}

	b.WriteString("## AI Summary\n\n")
	b.WriteString(summaryBlock(s, opts.PreviewLines, opts.ExpandHint))
	b.WriteString("\n\n")

	b.WriteString("## Details\n\n")
	original := m.OriginalTitle
	if original == "" {
		original = "—"
	}
	fmt.Fprintf(&b, "- **Original title:** %s\n", original)
	fmt.Fprintf(&b, "- **Release date:** %s\n", movie.FormatReleaseDate(m.ReleaseDate))
	votes := "—"
	if m.VoteCount != nil {
		votes = fmt.Sprintf("%d", *m.VoteCount)
	}
	fmt.Fprintf(&b, "- **Vote count:** %s\n", votes)
	fmt.Fprintf(&b, "- **Popularity:** %d\n", int(math.Round(m.Popularity)))
	if m.Status != "" {
		fmt.Fprintf(&b, "- **Status:** %s\n", m.Status)
	}
	if len(m.ProductionCountries) > 0 {
		names := make([]string, 0, len(m.ProductionCountries))
		for _, c := range m.ProductionCountries {
			names = append(names, c.Name)
		}
		fmt.Fprintf(&b, "- **Countries:** %s\n", strings.Join(names, ", "))
	}
	b.WriteString("\n")

	if m.Budget != 0 || m.Revenue != 0 {
		b.WriteString("## Financials\n\n")
		if m.Budget != 0 {
			fmt.Fprintf(&b, "- **Budget:** %s\n", movie.FormatMoney(m.Budget))
		}
		if m.Revenue != 0 {
			fmt.Fprintf(&b, "- **Revenue:** %s\n", movie.FormatMoney(m.Revenue))
		}
		b.WriteString("\n")
	}

	if opts.WebBaseURL != "" {
		fmt.Fprintf(&b, "[View on TMDB](%s)\n", movie.WebURL(opts.WebBaseURL, m.ID))
	}
	if opts.ImageBaseURL != "" {
		if u := m.PosterURL(opts.ImageBaseURL); u != "" {
			fmt.Fprintf(&b, "\n[Poster](%s)\n", u)
		}
	}

	return b.String()
}

func summaryBlock(s State, previewLines int, hint string) string {
	switch {
	case !s.HasSummaryRegion():
		return "_" + MsgNoSummary + "_"
	case s.LoadingSummary:
		return "_Generating summary…_"
	case s.SummaryError != "":
		return "_" + s.SummaryError + "_"
	case s.Summary == "":
		return "_" + MsgNoSummary + "_"
	}

	text := s.Summary
	if !s.ShowFullSummary && previewLines > 0 {
		lines := strings.Split(text, "\n")
		if len(lines) > previewLines {
			text = strings.Join(lines[:previewLines], "\n") + "\n\n_…"
			if hint != "" {
				text += " " + hint
			}
			text += "_"
		}
	}
	return text
}

// Render turns markdown into styled terminal output wrapped at width.
func Render(markdown string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("creating renderer: %w", err)
	}
	return r.Render(markdown)
}
