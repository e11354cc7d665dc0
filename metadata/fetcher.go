// Package metadata looks up descriptive-only records from public embed
// endpoints when no stream can be extracted.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/RobertIonutF/rmusico/sys"
	"github.com/RobertIonutF/rmusico/track"
)

const (
	DefaultOEmbedBase  = "https://www.youtube.com/oembed"
	DefaultNoEmbedBase = "https://noembed.com/embed"
	DefaultTimeout     = 10 * time.Second

	// UnavailableDescription marks the terminal placeholder.
	UnavailableDescription = "Video information temporarily unavailable"

	oembedUserAgent  = "Mozilla/5.0 (Linux; Android 11; SM-G973F) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.120 Mobile Safari/537.36"
	noembedUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

var errEndpoint = errors.New("endpoint returned no usable metadata")

type embedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
	Error        string `json:"error"`
}

// Fetcher queries YouTube oEmbed first, then noembed. Each endpoint has its
// own client, headers, and timeout so a block on one does not imply the other.
type Fetcher struct {
	OEmbedBase    string
	NoEmbedBase   string
	OEmbedClient  *http.Client
	NoEmbedClient *http.Client
	Timeout       time.Duration
	limiter       *rate.Limiter
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		OEmbedBase:    DefaultOEmbedBase,
		NoEmbedBase:   DefaultNoEmbedBase,
		OEmbedClient:  &http.Client{Timeout: DefaultTimeout},
		NoEmbedClient: NewChromeClient(DefaultTimeout),
		Timeout:       DefaultTimeout,
		limiter:       rate.NewLimiter(rate.Limit(5), 10),
	}
}

// FetchDescriptive returns a descriptive-only record for videoID. When both
// endpoints fail it returns the terminal placeholder. ok is false only for
// an empty videoID.
func (f *Fetcher) FetchDescriptive(ctx context.Context, videoID string) (rec track.Record, ok bool) {
	if videoID == "" {
		return track.Record{}, false
	}
	watch := track.PageURL(videoID)

	endpoints := []struct {
		name     string
		strategy track.SourceStrategy
		client   *http.Client
		endpoint string
		ua       string
	}{
		{"oembed", track.StrategyOEmbed, f.OEmbedClient, f.OEmbedBase + "?url=" + url.QueryEscape(watch) + "&format=json", oembedUserAgent},
		{"noembed", track.StrategyNoEmbed, f.NoEmbedClient, f.NoEmbedBase + "?url=" + url.QueryEscape(watch), noembedUserAgent},
	}

	for _, ep := range endpoints {
		resp, err := f.get(ctx, ep.client, ep.endpoint, ep.ua)
		if err != nil {
			sys.LogMetadata(sys.MsgMetadataEndpointFailed, ep.name, videoID, err)
			continue
		}
		rec := track.Record{
			ID:        videoID,
			Title:     resp.Title,
			Uploader:  resp.AuthorName,
			PageURL:   watch,
			Thumbnail: resp.ThumbnailURL,
			Strategy:  ep.strategy,
		}
		rec.Normalize()
		rec.Description = "Video by " + rec.Uploader
		if rec.Thumbnail == "" {
			rec.Thumbnail = track.ThumbnailURL(videoID)
		}
		sys.LogMetadata(sys.MsgMetadataResolved, videoID, ep.name, rec.Title)
		return rec, true
	}

	sys.LogMetadata(sys.MsgMetadataPlaceholder, videoID)
	return Placeholder(videoID), true
}

// Placeholder is the terminal record shown when nothing else worked. It has
// no stream and is never playable.
func Placeholder(videoID string) track.Record {
	return track.Record{
		ID:          videoID,
		Title:       "YouTube Video " + videoID,
		Uploader:    track.UnknownUploader,
		PageURL:     track.PageURL(videoID),
		Thumbnail:   track.ThumbnailURL(videoID),
		Description: UnavailableDescription,
		Strategy:    track.StrategyTerminal,
	}
}

func (f *Fetcher) get(ctx context.Context, client *http.Client, endpoint, ua string) (*embedResponse, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	var out embedResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("%w: %s", errEndpoint, out.Error)
	}
	if out.Title == "" {
		return nil, errEndpoint
	}
	return &out, nil
}
