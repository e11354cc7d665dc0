// Package extract resolves page URLs into validated, playable track records.
package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/RobertIonutF/rmusico/track"
)

// Engine is the extraction backend boundary. Results may carry nested
// entries; callers reduce them with RawInfo.First.
type Engine interface {
	ExtractInfo(ctx context.Context, target string, opts Options) (*RawInfo, error)
}

// Options configure a single engine call.
type Options struct {
	Format  string
	Clients []string
	Headers map[string]string
	// Flat asks for descriptive metadata only, without resolving formats.
	Flat        bool
	SkipWebpage bool
	SkipFormats []string
}

// RawInfo is the subset of engine metadata the resolver consumes.
type RawInfo struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Uploader    string    `json:"uploader"`
	Channel     string    `json:"channel"`
	URL         string    `json:"url"`
	WebpageURL  string    `json:"webpage_url"`
	Duration    float64   `json:"duration"`
	Thumbnail   string    `json:"thumbnail"`
	Description string    `json:"description"`
	FormatID    string    `json:"format_id"`
	Extractor   string    `json:"extractor"`
	Entries     []RawInfo `json:"entries"`
}

// First reduces a playlist or search result to its first entry.
// It returns nil for an empty result set.
func (r *RawInfo) First() *RawInfo {
	if r == nil {
		return nil
	}
	if r.Entries == nil {
		return r
	}
	if len(r.Entries) == 0 {
		return nil
	}
	return r.Entries[0].First()
}

// Record converts the raw metadata into a typed record.
func (r *RawInfo) Record(strategy track.SourceStrategy) track.Record {
	uploader := r.Uploader
	if uploader == "" {
		uploader = r.Channel
	}
	rec := track.Record{
		ID:          r.ID,
		Title:       r.Title,
		Uploader:    uploader,
		StreamURL:   r.URL,
		PageURL:     r.WebpageURL,
		Duration:    time.Duration(r.Duration * float64(time.Second)),
		Thumbnail:   r.Thumbnail,
		Description: r.Description,
		Strategy:    strategy,
	}
	rec.Normalize()
	return rec
}

// SearchTarget builds the site-scoped search pseudo-URL for the engine.
func SearchTarget(n int, query string) string {
	if n < 1 {
		n = 1
	}
	return fmt.Sprintf("ytsearch%d:%s", n, query)
}
