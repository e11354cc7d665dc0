// Package track holds the Record type shared by the resolver, search, and queue.
package track

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	UnknownTitle    = "Unknown Title"
	UnknownUploader = "Unknown"
)

// SourceStrategy names the path that produced a record.
type SourceStrategy string

const (
	StrategyCache       SourceStrategy = "cache"
	StrategyPersona     SourceStrategy = "persona"
	StrategySearch      SourceStrategy = "search"
	StrategyTitleSearch SourceStrategy = "title_search"
	StrategyOEmbed      SourceStrategy = "oembed"
	StrategyNoEmbed     SourceStrategy = "noembed"
	StrategyTerminal    SourceStrategy = "terminal"
)

// Record is the result of a successful or degraded extraction.
// A record with an empty StreamURL is descriptive-only and must not be queued.
type Record struct {
	ID          string
	Title       string
	Uploader    string
	StreamURL   string
	PageURL     string
	Duration    time.Duration
	Thumbnail   string
	Description string
	Strategy    SourceStrategy
}

// New returns a record for id with sentinel display values filled in.
func New(id, title, uploader string) Record {
	r := Record{ID: id, Title: title, Uploader: uploader, PageURL: PageURL(id)}
	r.Normalize()
	return r
}

// Normalize replaces missing display fields with sentinel values.
func (r *Record) Normalize() {
	if strings.TrimSpace(r.Title) == "" {
		r.Title = UnknownTitle
	}
	if strings.TrimSpace(r.Uploader) == "" {
		r.Uploader = UnknownUploader
	}
	if r.PageURL == "" && r.ID != "" {
		r.PageURL = PageURL(r.ID)
	}
}

// IsPlayable reports whether the record carries a validated stream.
func (r Record) IsPlayable() bool {
	return r.StreamURL != "" && r.Strategy != StrategyTerminal
}

func (r Record) String() string {
	return fmt.Sprintf("%s · %s (%s)", r.Title, r.Uploader, FormatDuration(r.Duration))
}

// PageURL returns the canonical watch page for a video ID.
func PageURL(id string) string {
	if id == "" {
		return ""
	}
	return "https://www.youtube.com/watch?v=" + id
}

// ThumbnailURL returns the deterministic high quality thumbnail for a video ID.
func ThumbnailURL(id string) string {
	return "https://img.youtube.com/vi/" + id + "/hqdefault.jpg"
}

var (
	watchRegex   = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([^&\n?#]+)`)
	legacyRegex  = regexp.MustCompile(`youtube\.com/v/([^&\n?#]+)`)
	queryIDRegex = regexp.MustCompile(`(?:\?|&)v=([^&#]+)`)
	shortsRegex  = regexp.MustCompile(`youtube\.com/shorts/([^&\n?#/]+)`)
)

// VideoID extracts the video ID from a YouTube URL, or returns "".
func VideoID(u string) string {
	for _, re := range []*regexp.Regexp{watchRegex, legacyRegex, shortsRegex} {
		if m := re.FindStringSubmatch(u); len(m) > 1 {
			return m[1]
		}
	}
	if strings.Contains(u, "youtube.com") {
		if m := queryIDRegex.FindStringSubmatch(u); len(m) > 1 {
			return m[1]
		}
	}
	return ""
}

// IsWatchPage reports whether u matches the canonical watch-page patterns.
func IsWatchPage(u string) bool {
	return watchRegex.MatchString(u) || legacyRegex.MatchString(u)
}

// IsURL reports whether the input looks like a link rather than a search query.
func IsURL(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "www.") || strings.HasPrefix(s, "youtu.be/") || strings.HasPrefix(s, "youtube.com/")
}

// FormatDuration renders d as M:SS or H:MM:SS, and "Unknown" for zero.
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "Unknown"
	}
	total := int(d.Seconds())
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// ParseColonDuration parses "3:20" or "1:02:03" into a duration.
func ParseColonDuration(s string) time.Duration {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0
	}
	var total int
	for _, p := range parts {
		var n int
		if _, err := fmt.Sscanf(p, "%d", &n); err != nil {
			return 0
		}
		total = total*60 + n
	}
	return time.Duration(total) * time.Second
}
