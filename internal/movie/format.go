package movie

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	UntitledFallback = "Untitled"
	dateLayout       = "2006-01-02"
)

// DisplayTitle returns the title or a placeholder when the provider sent none.
func (s Summary) DisplayTitle() string {
	if t := strings.TrimSpace(s.Title); t != "" {
		return t
	}
	if t := strings.TrimSpace(s.OriginalTitle); t != "" {
		return t
	}
	return UntitledFallback
}

// Year returns the four character year prefix of the release date, or "".
func (s Summary) Year() string {
	if len(s.ReleaseDate) < 4 {
		return ""
	}
	return s.ReleaseDate[:4]
}

// Released parses the release date. Missing or malformed dates map to the
// Unix epoch so comparisons stay total.
func (s Summary) Released() time.Time {
	if t, err := time.Parse(dateLayout, s.ReleaseDate); err == nil {
		return t
	}
	return time.Unix(0, 0).UTC()
}

// HasGenre reports whether the entry carries the given genre, either through
// its id list or its full genre objects.
func (s Summary) HasGenre(id int) bool {
	for _, g := range s.GenreIDs {
		if g == id {
			return true
		}
	}
	for _, g := range s.Genres {
		if g.ID == id {
			return true
		}
	}
	return false
}

func FormatReleaseDate(date string) string {
	if date == "" {
		return "Unknown"
	}
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("02 Jan 2006")
}

func FormatRuntime(minutes *int) string {
	if minutes == nil {
		return "—"
	}
	h := *minutes / 60
	m := *minutes % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// StarRating maps a 0-10 vote average onto five stars with an optional half star.
func StarRating(rating float64) string {
	normalized := math.Max(0, math.Min(rating, 10)) / 2
	full := int(math.Floor(normalized))
	half := normalized-float64(full) >= 0.5
	empty := 5 - full
	if half {
		empty--
	}

	var b strings.Builder
	b.WriteString(strings.Repeat("★", full))
	if half {
		b.WriteString("⯨")
	}
	b.WriteString(strings.Repeat("☆", empty))
	return b.String()
}

// FormatMoney renders whole dollar amounts with thousands separators.
func FormatMoney(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := fmt.Sprintf("%d", amount)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-$" + b.String()
	}
	return "$" + b.String()
}

// ImageURL joins the image base, a size segment and an opaque path fragment.
// It returns "" when path is empty.
func ImageURL(base, size, path string) string {
	if path == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/" + size + path
}

func (s Summary) PosterURL(imageBase string) string {
	return ImageURL(imageBase, "w500", s.PosterPath)
}

// BackdropURL prefers the backdrop and falls back to the poster.
func (d *Detail) BackdropURL(imageBase string) string {
	if d.BackdropPath != "" {
		return ImageURL(imageBase, "original", d.BackdropPath)
	}
	return ImageURL(imageBase, "original", d.PosterPath)
}

// WebURL is the provider's public page for a movie id.
func WebURL(webBase string, id int) string {
	return fmt.Sprintf("%s/movie/%d", strings.TrimRight(webBase, "/"), id)
}
