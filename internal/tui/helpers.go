package tui

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// isoDate is the layout of task dates and date filters.
const isoDate = "2006-01-02"

// truncStr truncates a string to maxLen runes, appending an ellipsis if needed.
func truncStr(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-1]) + "…"
}

// padRight pads s with spaces to width runes.
func padRight(s string, width int) string {
	return fmt.Sprintf("%-*s", width, s)
}

// formatRemaining renders the time left on a session, e.g. "expires in 42m".
func formatRemaining(d time.Duration) string {
	switch {
	case d <= 0:
		return "expired"
	case d < time.Minute:
		return "expires in <1m"
	case d < time.Hour:
		return fmt.Sprintf("expires in %dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("expires in %dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

// validDate reports whether s is empty or a YYYY-MM-DD date.
func validDate(s string) bool {
	if s == "" {
		return true
	}
	_, err := time.Parse(isoDate, s)
	return err == nil
}

// dateSpan renders a start..end range, leaving out missing bounds.
func dateSpan(start, end string) string {
	switch {
	case start == "" && end == "":
		return ""
	case end == "":
		return start + " →"
	case start == "":
		return "→ " + end
	}
	return start + " → " + end
}
