package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/flick/internal/browse"
	"github.com/pders01/flick/internal/config"
	"github.com/pders01/flick/internal/movie"
)

// maxMinRating is the highest rating floor the filter cycles to.
const maxMinRating = 9

type KeyHandler struct {
	app         *App
	config      *config.Config
	keys        config.KeyBindings
	modifierKey string
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	modifierKey := cfg.Keys.Modifier + "+"
	return &KeyHandler{app: app, config: cfg, keys: cfg.Keys.Bindings, modifierKey: modifierKey}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return kh.quit()
	}

	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}

	// Modifier chords work everywhere, so ctrl+r retries in or out of the
	// search field.
	if stripped, ok := strings.CutPrefix(key, kh.modifierKey); ok {
		if model, cmd, handled := kh.handleCustomKeys(stripped); handled {
			return model, cmd
		}
	}

	if model, cmd, handled := kh.handleCustomKeys(key); handled {
		return model, cmd
	}

	return kh.delegateToCharm(msg)
}

func (kh *KeyHandler) isInTextInputMode() bool {
	switch kh.app.view {
	case ViewBrowse:
		return kh.app.searchInput.Focused()
	case ViewWatchlist:
		return kh.app.watchInput.Focused()
	default:
		return false
	}
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case "esc", "enter", "tab", "down":
		kh.blurInputs()
		return kh.app, nil
	}

	if stripped, ok := strings.CutPrefix(key, kh.modifierKey); ok {
		if model, cmd, handled := kh.handleCustomKeys(stripped); handled {
			return model, cmd
		}
	}

	return kh.delegateToTextInput(msg)
}

func (kh *KeyHandler) blurInputs() {
	kh.app.searchInput.Blur()
	kh.app.watchInput.Blur()
}

// delegateToTextInput passes the key to the focused input. Browse queries
// go through the debouncer; the watchlist filter is local and immediate.
func (kh *KeyHandler) delegateToTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch kh.app.view {
	case ViewBrowse:
		prev := kh.sanitizeSearchInput(kh.app.searchInput.Value())
		newSearchInput, cmd := kh.app.searchInput.Update(msg)
		kh.app.searchInput = newSearchInput

		if newVal := kh.sanitizeSearchInput(kh.app.searchInput.Value()); newVal != prev {
			kh.app.debouncer.Set(newVal)
		}
		return kh.app, cmd

	case ViewWatchlist:
		prev := kh.app.watchInput.Value()
		newWatchInput, cmd := kh.app.watchInput.Update(msg)
		kh.app.watchInput = newWatchInput

		if kh.app.watchInput.Value() != prev {
			kh.app.refreshWatchlist()
		}
		return kh.app, cmd

	default:
		return kh.app, nil
	}
}

// handleCustomKeys handles only our custom action keys
func (kh *KeyHandler) handleCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case kh.keys.Quit:
		if kh.app.view != ViewClearConfirm {
			model, cmd := kh.quit()
			return model, cmd, true
		}
	case kh.keys.Back:
		model, cmd := kh.navigateBack()
		return model, cmd, true
	case kh.keys.Watchlist:
		if kh.app.view != ViewClearConfirm {
			model, cmd := kh.toggleWatchlistView()
			return model, cmd, true
		}
	}

	switch kh.app.view {
	case ViewBrowse:
		return kh.handleBrowseCustomKeys(key)
	case ViewDetail:
		return kh.handleDetailCustomKeys(key)
	case ViewWatchlist:
		return kh.handleWatchlistCustomKeys(key)
	case ViewClearConfirm:
		return kh.handleClearConfirmKeys(key)
	default:
		return kh.app, nil, false
	}
}

func (kh *KeyHandler) handleBrowseCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	total := len(a.visibleItems())

	switch key {
	case kh.keys.Search:
		a.searchInput.Focus()
		return a, nil, true

	case "left", "h":
		a.window.Move(-1, 0, total)
	case "right", "l":
		a.window.Move(1, 0, total)
	case "up", "k":
		a.window.Move(0, -1, total)
	case "down", "j":
		a.window.Move(0, 1, total)
	case "pgup":
		a.window.Page(-1, total)
	case "pgdown", " ":
		a.window.Page(1, total)
	case "home":
		a.window.Reset()
	case "end":
		a.window.Move(0, total, total)

	case "enter":
		if m, ok := a.selectedMovie(); ok {
			return a, kh.openDetail(m.ID, ViewBrowse), true
		}
		return a, nil, true

	case kh.keys.ToggleWatchlist:
		if m, ok := a.selectedMovie(); ok {
			return a, kh.toggleSaved(m), true
		}
		return a, nil, true

	case kh.keys.Open:
		if m, ok := a.selectedMovie(); ok {
			return a, a.openURL(movie.WebURL(a.config.Catalog.WebBaseURL, m.ID)), true
		}
		return a, nil, true

	case kh.keys.CycleGenre:
		a.filter.Genre = kh.nextGenre()
		return a, kh.filtersChanged(), true
	case kh.keys.CycleYear:
		a.filter.Year = kh.nextYear()
		return a, kh.filtersChanged(), true
	case kh.keys.RaiseRating, "=":
		a.filter.MinRating = min(a.filter.MinRating+1, maxMinRating)
		return a, kh.filtersChanged(), true
	case kh.keys.LowerRating:
		a.filter.MinRating = max(a.filter.MinRating-1, 0)
		return a, kh.filtersChanged(), true
	case kh.keys.CycleSort:
		a.sort = a.sort.Next()
		return a, kh.filtersChanged(), true

	case kh.keys.Retry:
		f, ok := a.browse.Retry()
		if !ok {
			f, ok = a.browse.Reload()
			if ok {
				a.window.Reset()
			}
		}
		if ok {
			return a, tea.Batch(a.fetchPage(f), a.spinner.Tick), true
		}
		return a, nil, true

	case kh.keys.Clear:
		if a.browse.State().Error != "" {
			a.browse.DismissError()
		} else {
			a.filter = browse.FilterState{Year: browse.AllYears}
			a.sort = browse.SortPopularityDesc
		}
		return a, kh.filtersChanged(), true

	default:
		return a, nil, false
	}

	return a, a.maybeLoadMore(), true
}

func (kh *KeyHandler) handleDetailCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	st := a.detail.State()

	switch key {
	case kh.keys.ToggleWatchlist:
		if st.Movie == nil {
			return a, nil, true
		}
		cmd := kh.toggleSaved(st.Movie.Snapshot())
		a.renderDetail(false)
		return a, cmd, true

	case kh.keys.Open:
		if st.ID == 0 {
			return a, nil, true
		}
		return a, a.openURL(movie.WebURL(a.config.Catalog.WebBaseURL, st.ID)), true

	case kh.keys.Copy:
		return a, a.copySummary(), true

	case kh.keys.Expand:
		a.detail.ToggleFullSummary()
		a.renderDetail(false)
		return a, nil, true
	}
	return a, nil, false
}

func (kh *KeyHandler) handleWatchlistCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	a := kh.app

	switch key {
	case kh.keys.Search:
		a.watchInput.Focus()
		return a, nil, true

	case kh.keys.CycleSort:
		a.watchSort = a.watchSort.Next()
		a.refreshWatchlist()
		return a, nil, true

	case kh.keys.ToggleWatchlist:
		if e, ok := a.selectedEntry(); ok {
			cmd := kh.toggleSaved(e.Summary)
			return a, cmd, true
		}
		return a, nil, true

	case kh.keys.Open:
		if e, ok := a.selectedEntry(); ok {
			return a, a.openURL(movie.WebURL(a.config.Catalog.WebBaseURL, e.ID)), true
		}
		return a, nil, true

	case kh.keys.Export:
		if a.watchlist.Len() == 0 {
			return a, a.setStatus(MsgEmptyWatchlist, StatusWarn), true
		}
		return a, a.exportWatchlist(), true

	case kh.keys.Clear:
		if a.watchlist.Len() > 0 {
			a.view = ViewClearConfirm
		}
		return a, nil, true

	case "enter":
		if e, ok := a.selectedEntry(); ok {
			return a, kh.openDetail(e.ID, ViewWatchlist), true
		}
		return a, nil, true
	}
	return a, nil, false
}

func (kh *KeyHandler) handleClearConfirmKeys(key string) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	switch key {
	case "enter", "y":
		a.view = ViewWatchlist
		if err := a.watchlist.Clear(); err != nil {
			return a, a.setStatus(errorText("clear failed", err), StatusError), true
		}
		a.watchChanged()
		return a, a.setStatus(MsgWatchlistClear, StatusSuccess), true
	case "n":
		a.view = ViewWatchlist
		return a, nil, true
	}
	return a, nil, true
}

// delegateToCharm lets Charm handle all keys we don't intercept
func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch kh.app.view {
	case ViewDetail:
		kh.app.viewport, cmd = kh.app.viewport.Update(msg)
		return kh.app, cmd

	case ViewWatchlist:
		kh.app.watchList, cmd = kh.app.watchList.Update(msg)
		return kh.app, cmd

	default:
		return kh.app, nil
	}
}

// toggleSaved flips m's watchlist membership and reports it.
func (kh *KeyHandler) toggleSaved(m movie.Summary) tea.Cmd {
	a := kh.app
	saved, err := a.watchlist.Toggle(m)
	if err != nil {
		return a.setStatus(errorText("watchlist", err), StatusError)
	}
	a.watchChanged()
	return a.setStatus(MsgSaved(m.DisplayTitle(), saved), StatusSuccess)
}

func (kh *KeyHandler) openDetail(id int, from View) tea.Cmd {
	a := kh.app
	req := a.detail.Open(id)
	a.previousView = from
	a.view = ViewDetail
	a.viewport.SetContent("")
	a.viewport.GotoTop()
	return tea.Batch(a.loadMovie(req), a.spinner.Tick)
}

func (kh *KeyHandler) filtersChanged() tea.Cmd {
	kh.app.window.Reset()
	kh.app.layoutGrid()
	return kh.app.maybeLoadMore()
}

// nextGenre steps through "all" then each known genre.
func (kh *KeyHandler) nextGenre() int {
	genres := kh.app.genreList
	if len(genres) == 0 {
		return 0
	}
	if kh.app.filter.Genre == 0 {
		return genres[0].ID
	}
	for i, g := range genres {
		if g.ID == kh.app.filter.Genre {
			if i+1 < len(genres) {
				return genres[i+1].ID
			}
			return 0
		}
	}
	return 0
}

// nextYear steps through "all" then the years present in the loaded list,
// newest first.
func (kh *KeyHandler) nextYear() string {
	years := browse.AvailableYears(kh.app.browse.State().Items)
	current := kh.app.filter.Year
	if current == "" || current == browse.AllYears {
		if len(years) == 0 {
			return browse.AllYears
		}
		return years[0]
	}
	for i, y := range years {
		if y == current && i+1 < len(years) {
			return years[i+1]
		}
	}
	return browse.AllYears
}

func (kh *KeyHandler) toggleWatchlistView() (tea.Model, tea.Cmd) {
	a := kh.app
	kh.blurInputs()
	if a.view == ViewWatchlist {
		a.view = ViewBrowse
		return a, nil
	}
	if a.view == ViewDetail {
		a.detail.Close()
	}
	a.view = ViewWatchlist
	a.refreshWatchlist()
	return a, nil
}

// navigateBack implements smart back navigation
func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	a := kh.app
	switch a.view {
	case ViewDetail:
		a.detail.Close()
		a.view = a.previousView
		if a.view == ViewWatchlist {
			a.refreshWatchlist()
		}
		return a, nil

	case ViewClearConfirm:
		a.view = ViewWatchlist
		return a, nil

	case ViewWatchlist:
		if a.watchInput.Value() != "" {
			a.watchInput.Reset()
			a.refreshWatchlist()
			return a, nil
		}
		a.view = ViewBrowse
		return a, nil

	default:
		if a.browse.State().Error != "" {
			a.browse.DismissError()
			return a, nil
		}
		if a.searchInput.Value() != "" {
			a.searchInput.Reset()
			a.debouncer.Set("")
		}
		return a, nil
	}
}

func (kh *KeyHandler) quit() (tea.Model, tea.Cmd) {
	kh.app.shutdown()
	return kh.app, tea.Quit
}

// sanitizeSearchInput sanitizes and limits search input length
func (kh *KeyHandler) sanitizeSearchInput(input string) string {
	input = strings.TrimSpace(input)

	if r := []rune(input); len(r) > 256 {
		input = string(r[:256])
	}

	input = strings.ReplaceAll(input, "\n", " ")
	input = strings.ReplaceAll(input, "\r", " ")
	input = strings.ReplaceAll(input, "\t", " ")

	return strings.Join(strings.Fields(input), " ")
}

// GetHelpForCurrentView returns only our custom help text (Charm handles the rest)
func (kh *KeyHandler) GetHelpForCurrentView() []string {
	k := kh.keys
	switch kh.app.view {
	case ViewBrowse:
		if kh.app.searchInput.Focused() {
			return []string{"enter: done", "esc: leave search", kh.modifierKey + k.Retry + ": retry"}
		}
		help := []string{
			k.Search + ": search", "enter: details", k.ToggleWatchlist + ": save",
			k.CycleGenre + "/" + k.CycleYear + "/" + k.LowerRating + k.RaiseRating + "/" + k.CycleSort + ": filter",
			k.Watchlist + ": watchlist",
		}
		if kh.app.browse.State().Error != "" {
			help = append([]string{k.Retry + ": retry", k.Clear + ": dismiss"}, help...)
		}
		return append(help, k.Quit+": quit")

	case ViewDetail:
		help := []string{k.Back + ": back", k.ToggleWatchlist + ": save", k.Open + ": open"}
		if st := kh.app.detail.State(); st.Summary != "" {
			help = append(help, k.Expand+": more", k.Copy+": copy")
		}
		return help

	case ViewWatchlist:
		if kh.app.watchInput.Focused() {
			return []string{"enter: done", "esc: leave filter"}
		}
		return []string{
			"enter: details", k.Search + ": filter", k.CycleSort + ": sort", k.ToggleWatchlist + ": remove",
			k.Export + ": export", k.Clear + ": clear", fmt.Sprintf("%s: back", k.Back),
		}

	case ViewClearConfirm:
		return []string{"enter: confirm", "esc: cancel"}

	default:
		return []string{}
	}
}
