package extract

import (
	"fmt"
	"time"
)

// progressURLWidth is the column width of the last URL on the progress line.
const progressURLWidth = 40

// String renders the progress line shown while a batch runs. The last
// completed URL is padded to a fixed width so a shorter one fully
// overwrites its predecessor when the line is redrawn with \r.
func (p Progress) String() string {
	eta := "unknown"
	if p.HasETA {
		eta = FormatETA(p.ETA)
	}
	line := fmt.Sprintf("Progress: %d/%d (%.1f%%) success: %d error: %d QPS: %.2f ETA: %s",
		p.Processed, p.Total, p.Percent, p.Succeeded, p.Failed, p.QPS, eta)
	if p.URL == "" {
		return line
	}
	return fmt.Sprintf("%s %-*s", line, progressURLWidth, TruncateURL(p.URL, progressURLWidth))
}

// FormatETA renders d as minutes and seconds, e.g. "3m07s".
func FormatETA(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%dm%02ds", secs/60, secs%60)
}

// TruncateURL shortens a URL for display, keeping the end which is more informative.
func TruncateURL(url string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if maxLen < 4 {
		return url[:min(len(url), maxLen)]
	}
	if len(url) <= maxLen {
		return url
	}
	return "..." + url[len(url)-maxLen+3:]
}

// FormatTokens formats token count in human-readable form.
func FormatTokens(tokens int) string {
	if tokens < 1000 {
		return fmt.Sprintf("~%d tokens", tokens)
	}
	return fmt.Sprintf("~%dk tokens", (tokens+500)/1000)
}
