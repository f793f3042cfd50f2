package tui

import "strings"

// truncateEnd shortens s to at most limit runes, appending an ellipsis
// if truncation occurs.
func truncateEnd(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 1 {
		return "…"
	}
	return string(r[:limit-1]) + "…"
}

// wrapWords breaks s into at most maxLines lines of width runes. Words
// longer than a line are cut; overflow ends the last line with an ellipsis.
func wrapWords(s string, width, maxLines int) []string {
	if width <= 0 || maxLines <= 0 {
		return nil
	}

	var lines []string
	line := ""
	for _, w := range strings.Fields(s) {
		switch {
		case line == "":
			line = w
		case runeLen(line)+1+runeLen(w) <= width:
			line += " " + w
		default:
			lines = append(lines, line)
			line = w
		}
	}
	if line != "" {
		lines = append(lines, line)
	}

	truncated := len(lines) > maxLines
	if truncated {
		lines = lines[:maxLines]
	}
	for i := range lines {
		lines[i] = truncateEnd(lines[i], width)
	}
	if truncated {
		last := []rune(lines[maxLines-1])
		if len(last) >= width {
			last = last[:width-1]
		}
		lines[maxLines-1] = string(last) + "…"
	}
	return lines
}

func runeLen(s string) int { return len([]rune(s)) }

// padRight fills s with spaces up to width runes.
func padRight(s string, width int) string {
	n := runeLen(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
