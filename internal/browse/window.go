package browse

// Column breakpoints in device-independent pixels, widest first.
var breakpoints = []struct {
	minWidth int
	columns  int
}{
	{1280, 6},
	{1024, 5},
	{768, 4},
	{640, 3},
}

// MinColumns is used below the narrowest breakpoint.
const MinColumns = 2

// LoadMoreThreshold is how many rows from the end rendering may get before
// the next page is requested.
const LoadMoreThreshold = 2

func Columns(width int) int {
	for _, bp := range breakpoints {
		if width >= bp.minWidth {
			return bp.columns
		}
	}
	return MinColumns
}

// Rows splits items into rows of cols. The last row may be short.
func Rows[T any](items []T, cols int) [][]T {
	if cols < 1 {
		cols = 1
	}
	rows := make([][]T, 0, (len(items)+cols-1)/cols)
	for start := 0; start < len(items); start += cols {
		end := min(start+cols, len(items))
		rows = append(rows, items[start:end])
	}
	return rows
}

// RowCount is len(Rows(items, cols)) without building the rows.
func RowCount(n, cols int) int {
	if cols < 1 {
		cols = 1
	}
	return (n + cols - 1) / cols
}

func ShouldLoadMore(lastRenderedRow, rowCount int, hasMore, loading bool) bool {
	if rowCount == 0 || !hasMore || loading {
		return false
	}
	return rowCount-1-lastRenderedRow <= LoadMoreThreshold
}

// Window tracks which rows of a grid are on screen and which item has the
// cursor. Height is in rows.
type Window struct {
	Top    int
	Height int
	Cols   int
	Cursor int
}

func (w *Window) Resize(cols, height, total int) {
	w.Cols = max(1, cols)
	w.Height = max(1, height)
	w.clamp(total)
}

// Move shifts the cursor by dx items within a row and dy rows.
func (w *Window) Move(dx, dy, total int) {
	w.Cursor += dx + dy*max(1, w.Cols)
	w.clamp(total)
}

// Page moves the cursor by whole screens.
func (w *Window) Page(pages, total int) {
	w.Move(0, pages*max(1, w.Height), total)
}

func (w *Window) Reset() {
	w.Top = 0
	w.Cursor = 0
}

func (w *Window) clamp(total int) {
	if total <= 0 {
		w.Top, w.Cursor = 0, 0
		return
	}
	w.Cursor = min(max(w.Cursor, 0), total-1)

	row := w.CursorRow()
	if row < w.Top {
		w.Top = row
	}
	if row >= w.Top+w.Height {
		w.Top = row - w.Height + 1
	}
	maxTop := max(0, RowCount(total, w.Cols)-w.Height)
	w.Top = min(max(w.Top, 0), maxTop)
}

func (w Window) CursorRow() int {
	return w.Cursor / max(1, w.Cols)
}

// Visible returns the half-open row range [first, last) on screen.
func (w Window) Visible(rowCount int) (first, last int) {
	first = min(w.Top, rowCount)
	last = min(w.Top+w.Height, rowCount)
	return first, last
}

// LastRenderedRow is the index of the bottom visible row, or -1.
func (w Window) LastRenderedRow(rowCount int) int {
	_, last := w.Visible(rowCount)
	return last - 1
}
