package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/flick/internal/browse"
	"github.com/pders01/flick/internal/config"
	"github.com/pders01/flick/internal/debounce"
	"github.com/pders01/flick/internal/debuglog"
	"github.com/pders01/flick/internal/detail"
	"github.com/pders01/flick/internal/movie"
	"github.com/pders01/flick/internal/search"
	"github.com/pders01/flick/internal/watchlist"
)

// Catalog is the movie provider the browse and detail views read from.
type Catalog interface {
	browse.Catalog
	detail.Catalog
}

type GenreSource interface {
	All(ctx context.Context) []movie.Genre
}

type Opener interface {
	Open(url string) error
}

// Deps are the collaborators the App drives. Summarizer, Opener and
// Clipboard may be nil.
type Deps struct {
	Catalog    Catalog
	Summarizer detail.Summarizer
	Watchlist  *watchlist.Store
	Genres     GenreSource
	Opener     Opener
	Clipboard  func(string) error
	// Search ranks the watchlist filter when set. Engines that implement
	// search.Indexer are reindexed after every watchlist change.
	Search search.Searcher
	// ExportDir is where the export key writes; empty means the working
	// directory.
	ExportDir string
}

// gridChrome is the number of lines the browse view spends outside the grid.
const gridChrome = 9

// cardHeight is one grid card including its border.
const cardHeight = 6

type App struct {
	config      *config.Config
	ctx         context.Context
	cancel      context.CancelFunc
	browse      *browse.Controller
	detail      *detail.Controller
	watchlist   *watchlist.Store
	genres      GenreSource
	searcher    search.Searcher
	opener      Opener
	exportDir   string
	keyHandler  *KeyHandler
	debouncer   *debounce.Debouncer[string]
	queries     chan string
	done        chan struct{}
	searchInput textinput.Model
	watchInput  textinput.Model
	watchList   list.Model
	viewport    viewport.Model
	spinner     spinner.Model
	help        help.Model
	view        View
	// previousView is where back returns to from the detail page
	previousView View
	filter       browse.FilterState
	sort         browse.SortOption
	memo         browse.Memo
	window       browse.Window
	genreList    []movie.Genre
	genreNames   map[int]string
	watchSort    watchlist.Sort
	width        int
	height       int
	status       string
	statusKind   StatusKind
	statusSeq    int
	closed       bool

	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
}

func NewApp(cfg *config.Config, deps Deps) *App {
	ApplyTheme(cfg.UI.Colors)

	var detailOpts []detail.Option
	if deps.Clipboard != nil {
		detailOpts = append(detailOpts, detail.WithClipboard(deps.Clipboard))
	}

	si := textinput.New()
	si.Placeholder = "Search movies…"
	si.Prompt = "⌕ "
	si.CharLimit = 256

	wi := textinput.New()
	wi.Placeholder = "Filter by title or year…"
	wi.Prompt = "› "
	wi.CharLimit = 128

	watchList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	watchList.SetShowTitle(false)
	watchList.SetShowStatusBar(false)
	watchList.SetFilteringEnabled(false)
	watchList.SetShowHelp(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(AccentColor)

	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		config:       cfg,
		ctx:          ctx,
		cancel:       cancel,
		browse:       browse.NewController(deps.Catalog),
		detail:       detail.NewController(deps.Catalog, deps.Summarizer, detailOpts...),
		watchlist:    deps.Watchlist,
		genres:       deps.Genres,
		searcher:     deps.Search,
		opener:       deps.Opener,
		exportDir:    deps.ExportDir,
		queries:      make(chan string),
		done:         make(chan struct{}),
		searchInput:  si,
		watchInput:   wi,
		watchList:    watchList,
		viewport:     viewport.New(0, 0),
		spinner:      sp,
		help:         newHelp(),
		view:         ViewBrowse,
		previousView: ViewBrowse,
		filter:       browse.FilterState{Year: browse.AllYears},
		sort:         browse.SortPopularityDesc,
		genreList:    nil,
		genreNames:   map[int]string{},
		watchSort:    watchlist.SortRecentlyAdded,
		window:       browse.Window{Height: 1, Cols: browse.MinColumns},
	}

	app.debouncer = debounce.New(cfg.UI.SearchDebounce, func(q string) {
		select {
		case app.queries <- q:
		case <-app.done:
		}
	})
	app.keyHandler = NewKeyHandler(app, cfg)
	app.reindex()

	return app
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	wordWrapWidth := min(max((a.width*9)/10, 40), 120)
	if a.width < 50 {
		wordWrapWidth = max(a.width-4, 20)
	}

	if a.glamourRenderer == nil || abs(a.rendererWidth-wordWrapWidth) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wordWrapWidth),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrapWidth
	}

	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (a *App) Init() tea.Cmd {
	f, _ := a.browse.SetQuery("")
	return tea.Batch(
		a.fetchPage(f),
		a.loadGenres(),
		a.waitForQuery(),
		a.spinner.Tick,
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.searchInput.Width = max(msg.Width-8, 10)
		a.watchInput.Width = max(msg.Width-8, 10)
		a.watchList.SetSize(msg.Width, max(msg.Height-8, 3))
		a.viewport.Width = msg.Width
		a.viewport.Height = max(msg.Height-3, 1)
		a.layoutGrid()
		if a.view == ViewDetail {
			a.renderDetail(false)
		}
		return a, a.maybeLoadMore()

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case spinner.TickMsg:
		if !a.busy() {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case pageLoadedMsg:
		if msg.err != nil && !errors.Is(msg.err, browse.ErrStale) {
			debuglog.Debugf("tui: page load ended with %v", msg.err)
		}
		a.layoutGrid()
		return a, a.maybeLoadMore()

	case searchQueryMsg:
		cmds = append(cmds, a.waitForQuery())
		if f, ok := a.browse.SetQuery(msg.query); ok {
			a.window.Reset()
			a.filter.Year = browse.AllYears
			cmds = append(cmds, a.fetchPage(f), a.spinner.Tick)
		}
		return a, tea.Batch(cmds...)

	case genresLoadedMsg:
		a.genreList = msg.genres
		a.genreNames = make(map[int]string, len(msg.genres))
		for _, g := range msg.genres {
			a.genreNames[g.ID] = g.Name
		}

	case movieLoadedMsg:
		if a.view == ViewDetail {
			a.renderDetail(true)
		}
		if msg.needSummary {
			return a, tea.Batch(a.loadSummary(msg.req), a.spinner.Tick)
		}

	case summaryLoadedMsg:
		if a.view == ViewDetail {
			a.renderDetail(false)
		}

	case copiedMsg:
		if msg.err != nil {
			if errors.Is(msg.err, detail.ErrNothingToCopy) {
				return a, a.setStatus("Nothing to copy yet", StatusWarn)
			}
			return a, a.setStatus(errorText("copy failed", msg.err), StatusError)
		}
		return a, a.setStatus(MsgSummaryCopied, StatusSuccess)

	case exportDoneMsg:
		if msg.err != nil {
			return a, a.setStatus(errorText("export failed", msg.err), StatusError)
		}
		return a, a.setStatus(MsgExported(msg.path, msg.count), StatusSuccess)

	case statusClearMsg:
		if msg.seq == a.statusSeq {
			a.status = ""
		}

	case errorMsg:
		return a, a.setStatus(msg.err.Error(), StatusError)
	}

	switch a.view {
	case ViewDetail:
		switch msg.(type) {
		case tea.MouseMsg:
			var cmd tea.Cmd
			a.viewport, cmd = a.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}
	case ViewWatchlist:
		var cmd tea.Cmd
		a.watchList, cmd = a.watchList.Update(msg)
		cmds = append(cmds, cmd)
	}

	return a, tea.Batch(cmds...)
}

// busy reports whether any spinner-worthy load is running.
func (a *App) busy() bool {
	if a.browse.State().Loading() {
		return true
	}
	st := a.detail.State()
	return st.LoadingMovie || st.LoadingSummary
}

// visibleItems is the loaded list after the client-side filter and sort.
func (a *App) visibleItems() []movie.Summary {
	st := a.browse.State()
	return a.memo.Apply(st.Version, st.Items, a.filter, a.sort)
}

func (a *App) gridColumns() int {
	return browse.Columns(a.width * max(a.config.UI.CellWidthPx, 1))
}

func (a *App) gridRows() int {
	chrome := gridChrome
	if a.browse.State().Error != "" {
		chrome++
	}
	return max((a.height-chrome)/cardHeight, 1)
}

func (a *App) layoutGrid() {
	a.window.Resize(a.gridColumns(), a.gridRows(), len(a.visibleItems()))
}

// maybeLoadMore requests the next page once the bottom of the rendered grid
// is near the end of the list. A filter that hides every loaded item keeps
// paging, since there is nothing to scroll.
func (a *App) maybeLoadMore() tea.Cmd {
	st := a.browse.State()
	items := a.visibleItems()
	rowCount := browse.RowCount(len(items), a.window.Cols)

	need := browse.ShouldLoadMore(a.window.LastRenderedRow(rowCount), rowCount, st.HasMore, st.Loading())
	if rowCount == 0 && len(st.Items) > 0 && st.HasMore && !st.Loading() {
		need = true
	}
	if !need {
		return nil
	}
	f, ok := a.browse.LoadMore()
	if !ok {
		return nil
	}
	return tea.Batch(a.fetchPage(f), a.spinner.Tick)
}

// selectedMovie is the card under the grid cursor.
func (a *App) selectedMovie() (movie.Summary, bool) {
	items := a.visibleItems()
	if a.window.Cursor < 0 || a.window.Cursor >= len(items) {
		return movie.Summary{}, false
	}
	return items[a.window.Cursor], true
}

func (a *App) selectedEntry() (watchlist.Entry, bool) {
	if i, ok := a.watchList.SelectedItem().(watchItem); ok {
		return i.entry, true
	}
	return watchlist.Entry{}, false
}

// refreshWatchlist rebuilds the watchlist rows. A filter long enough to
// search is ranked by the search engine; anything shorter is a plain
// substring filter in the chosen sort order.
func (a *App) refreshWatchlist() {
	query := strings.TrimSpace(a.watchInput.Value())

	var entries []watchlist.Entry
	if a.searcher != nil && len([]rune(query)) >= search.MinQueryLength {
		results, err := a.searcher.Search(query, a.watchlist.Len())
		if err == nil {
			entries = make([]watchlist.Entry, 0, len(results))
			for _, r := range results {
				entries = append(entries, r.Entry)
			}
		} else {
			debuglog.Warnf("tui: watchlist search failed: %v", err)
			entries = a.watchlist.List(query, a.watchSort)
		}
	} else {
		entries = a.watchlist.List(query, a.watchSort)
	}

	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = watchItem{entry: e}
	}
	a.watchList.SetItems(items)
}

// watchChanged brings the search index and the watchlist rows up to date
// after a write.
func (a *App) watchChanged() {
	a.reindex()
	if a.view == ViewWatchlist || a.view == ViewClearConfirm {
		a.refreshWatchlist()
	}
}

func (a *App) reindex() {
	ix, ok := a.searcher.(search.Indexer)
	if !ok {
		return
	}
	if err := ix.Index(a.watchlist.Entries()); err != nil {
		debuglog.Warnf("tui: indexing watchlist: %v", err)
	}
}

func (a *App) detailOptions() detail.RenderOptions {
	st := a.detail.State()
	return detail.RenderOptions{
		PreviewLines: a.config.UI.SummaryPreviewLines,
		ExpandHint:   fmt.Sprintf("press %s for more", a.config.Keys.Bindings.Expand),
		Saved:        a.watchlist.IsSaved(st.ID),
		WebBaseURL:   a.config.Catalog.WebBaseURL,
		ImageBaseURL: a.config.Catalog.ImageBaseURL,
	}
}

// renderDetail redraws the detail page into the viewport. top scrolls back
// to the start, for a newly loaded movie.
func (a *App) renderDetail(top bool) {
	md := detail.Markdown(a.detail.State(), a.detailOptions())

	content := md
	if r, err := a.getRenderer(); err == nil {
		if out, err := r.Render(md); err == nil {
			content = out
		} else {
			debuglog.Warnf("tui: rendering detail: %v", err)
		}
	}
	a.viewport.SetContent(content)
	if top {
		a.viewport.GotoTop()
	}
}

// shutdown stops background work. It is safe to call more than once.
func (a *App) shutdown() {
	if a.closed {
		return
	}
	a.closed = true
	a.debouncer.Stop()
	close(a.done)
	a.browse.Close()
	a.detail.Close()
	a.cancel()
}

func (a *App) View() string {
	if a.width == 0 {
		return ""
	}

	var content string
	switch a.view {
	case ViewBrowse:
		content = a.browseView()
	case ViewDetail:
		content = a.detailView()
	case ViewWatchlist:
		content = a.watchlistView()
	case ViewClearConfirm:
		content = a.clearConfirmView()
	}

	separator := SeparatorStyle.Render(strings.Repeat("─", max(a.width, 0)))
	return lipgloss.JoinVertical(lipgloss.Top, content, separator, a.statusBar())
}

func (a *App) statusBar() string {
	if s := a.renderStatus(); s != "" {
		return StatusBarStyle.Width(a.width).Render(s)
	}
	a.help.Width = max(a.width-2, 1)
	return StatusBarStyle.Width(a.width).Render(a.help.ShortHelpView(helpBindings(a.keyHandler.GetHelpForCurrentView())))
}

func (a *App) browseView() string {
	st := a.browse.State()
	items := a.visibleItems()

	title := "› trending this " + a.config.Catalog.TrendingWindow
	if st.Query != "" {
		title = fmt.Sprintf("› results for %q", st.Query)
	}
	subtitle := MsgResultsCount(len(items))
	if a.filter.Active() && len(items) != len(st.Items) {
		subtitle = fmt.Sprintf("%s of %d loaded", MsgResultsCount(len(items)), len(st.Items))
	}

	rows := []string{
		renderHeader(title, subtitle, a.width),
		renderInputFrame(a.searchInput.View(), a.searchInput.Focused(), a.searchInput.Width),
		a.filterBar(),
	}
	if st.Error != "" {
		k := a.config.Keys.Bindings
		rows = append(rows, ErrorBannerStyle.Render(fmt.Sprintf("✗ %s  %s: retry • %s: dismiss", st.Error, k.Retry, k.Clear)))
	}

	gridHeight := max(a.height-gridChrome, cardHeight)
	switch {
	case len(items) == 0 && st.LoadingInitial:
		msg := MsgLoadingTrending
		if st.Query != "" {
			msg = MsgSearching
		}
		rows = append(rows, renderCentered(a.width, gridHeight, a.spinner.View()+" "+msg))
	case len(items) == 0 && len(st.Items) == 0 && st.Error == "":
		rows = append(rows, renderCentered(a.width, gridHeight, GetCompactBanner(MsgNoResults)))
	case len(items) == 0:
		rows = append(rows, renderCentered(a.width, gridHeight, renderMuted(MsgNoMatches)))
	default:
		rows = append(rows, lipgloss.NewStyle().Height(gridHeight).MaxHeight(gridHeight).Render(a.renderGrid(items)))
	}

	switch {
	case st.LoadingMore:
		rows = append(rows, a.spinner.View()+" "+renderMuted(MsgLoadingMore))
	case !st.HasMore && len(st.Items) > 0:
		rows = append(rows, renderMuted(MsgEndOfList))
	default:
		rows = append(rows, "")
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (a *App) filterBar() string {
	genre := "All genres"
	if a.filter.Genre != 0 {
		genre = a.genreNames[a.filter.Genre]
		if genre == "" {
			genre = fmt.Sprintf("Genre %d", a.filter.Genre)
		}
	}
	year := "Any year"
	if a.filter.Year != "" && a.filter.Year != browse.AllYears {
		year = a.filter.Year
	}
	rating := "Any rating"
	if a.filter.MinRating > 0 {
		rating = fmt.Sprintf("★ ≥ %.0f", a.filter.MinRating)
	}

	k := a.config.Keys.Bindings
	return lipgloss.JoinHorizontal(lipgloss.Top,
		renderChip(k.CycleGenre+" "+genre, a.filter.Genre != 0),
		renderChip(k.CycleYear+" "+year, year != "Any year"),
		renderChip(k.LowerRating+k.RaiseRating+" "+rating, a.filter.MinRating > 0),
		renderChip(k.CycleSort+" "+a.sort.Label(), a.sort != browse.SortPopularityDesc),
	)
}

func (a *App) renderGrid(items []movie.Summary) string {
	cols := a.window.Cols
	cardWidth := max(a.width/cols-2, 8)
	rows := browse.Rows(items, cols)
	first, last := a.window.Visible(len(rows))

	rendered := make([]string, 0, last-first)
	for r := first; r < last; r++ {
		cards := make([]string, 0, len(rows[r]))
		for c, m := range rows[r] {
			cards = append(cards, a.renderCard(m, cardWidth, r*cols+c == a.window.Cursor))
		}
		rendered = append(rendered, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rendered...)
}

func (a *App) renderCard(m movie.Summary, width int, selected bool) string {
	inner := max(width-2, 4)

	titleLines := wrapWords(m.DisplayTitle(), inner, 2)
	for len(titleLines) < 2 {
		titleLines = append(titleLines, "")
	}

	meta := m.Year()
	if meta == "" {
		meta = "—"
	}
	if m.VoteAverage > 0 {
		meta += fmt.Sprintf(" • ★ %.1f", m.VoteAverage)
	}
	saved := a.watchlist.IsSaved(m.ID)
	metaLine := CardMetaStyle.Render(truncateEnd(meta, inner-2))
	if saved {
		metaLine += " " + SavedStyle.Render("♥")
	}

	var genres []string
	for _, id := range m.GenreIDs {
		if n := a.genreNames[id]; n != "" {
			genres = append(genres, n)
		}
	}
	if len(genres) == 0 {
		for _, g := range m.Genres {
			genres = append(genres, g.Name)
		}
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		CardTitleStyle.Render(padRight(titleLines[0], inner)),
		CardTitleStyle.Render(padRight(titleLines[1], inner)),
		metaLine,
		CardMetaStyle.Render(truncateEnd(strings.Join(genres, ", "), inner)),
	)

	style := CardStyle
	if selected {
		style = SelectedCardStyle
	}
	return style.Width(width).Render(body)
}

func (a *App) detailView() string {
	st := a.detail.State()
	body := a.height - 2
	switch {
	case st.LoadingMovie:
		return renderCentered(a.width, body, a.spinner.View()+" "+MsgLoadingMovie)
	case st.Error != "":
		return renderCentered(a.width, body, lipgloss.JoinVertical(lipgloss.Center,
			StatusErrorStyle.Render("✗ "+st.Error),
			"",
			renderHelp(a.config.Keys.Bindings.Back+": back"),
		))
	}
	return a.viewport.View()
}

func (a *App) watchlistView() string {
	n := a.watchlist.Len()
	title := fmt.Sprintf("› watchlist (%d)", n)
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		HeaderStyle.Render(title), "  ",
		renderChip(a.config.Keys.Bindings.CycleSort+" "+a.watchSort.Label(), a.watchSort != watchlist.SortRecentlyAdded),
	)

	var body string
	switch {
	case n == 0:
		body = renderCentered(a.width, max(a.height-8, 3), renderMuted(MsgEmptyWatchlist))
	case len(a.watchList.Items()) == 0:
		body = renderCentered(a.width, max(a.height-8, 3), renderMuted(MsgNoMatches))
	default:
		body = a.watchList.View()
	}

	return lipgloss.NewStyle().Height(a.height - 2).MaxHeight(a.height - 2).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header,
			renderInputFrame(a.watchInput.View(), a.watchInput.Focused(), a.watchInput.Width),
			body,
		))
}

func (a *App) clearConfirmView() string {
	modalWidth := max((a.width*4)/5, min(a.width, 20))
	return renderCentered(a.width, a.height-2, lipgloss.JoinVertical(
		lipgloss.Center,
		lipgloss.NewStyle().Foreground(ErrorColor).Bold(true).Render("⚠ Clear watchlist"),
		"",
		ModalTextStyle.Width(modalWidth).Align(lipgloss.Center).
			Render(fmt.Sprintf("Remove all %s from your watchlist?", MsgResultsCount(a.watchlist.Len()))),
		"",
		renderHelp("enter: confirm • esc: cancel"),
	))
}

type watchItem struct {
	entry watchlist.Entry
}

func (i watchItem) Title() string {
	title := i.entry.DisplayTitle()
	if y := i.entry.Year(); y != "" {
		title += " (" + y + ")"
	}
	return title
}

func (i watchItem) Description() string {
	var parts []string
	if i.entry.VoteAverage > 0 {
		parts = append(parts, fmt.Sprintf("★ %.1f", i.entry.VoteAverage))
	}
	if !i.entry.AddedAt.IsZero() {
		parts = append(parts, "added "+i.entry.AddedAt.Local().Format("Jan 2, 2006"))
	}
	return strings.Join(parts, " • ")
}

func (i watchItem) FilterValue() string { return i.entry.DisplayTitle() }
