package search

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/ppalone/ytsearch"
	"github.com/raitonoberu/ytmusic"
	"github.com/samber/lo"

	"github.com/RobertIonutF/rmusico/sys"
	"github.com/RobertIonutF/rmusico/track"
)

const (
	MaxSuggestions  = 25
	SuggestTimeout  = 2300 * time.Millisecond
	SuggestCacheTTL = time.Hour
)

// Suggestion is one autocomplete choice.
type Suggestion struct {
	Title  string
	URL    string
	Source string
}

// Source fetches raw suggestions for a query.
type Source struct {
	Name  string
	Fetch func(ctx context.Context, query string) ([]Suggestion, error)
}

type cachedSuggestions struct {
	items     []Suggestion
	expiresAt time.Time
}

// Suggester queries every source concurrently and ranks the merged result by
// fuzzy distance to the query.
type Suggester struct {
	sources []Source
	timeout time.Duration

	mu    sync.RWMutex
	cache map[string]cachedSuggestions
}

func NewSuggester(sources ...Source) *Suggester {
	if len(sources) == 0 {
		sources = []Source{YTMusicSource(), YouTubeSource()}
	}
	return &Suggester{sources: sources, timeout: SuggestTimeout, cache: make(map[string]cachedSuggestions)}
}

func YTMusicSource() Source {
	return Source{Name: "ytmusic", Fetch: func(_ context.Context, q string) ([]Suggestion, error) {
		res, err := ytmusic.TrackSearch(q).Next()
		if err != nil || res == nil {
			return nil, err
		}
		out := make([]Suggestion, 0, len(res.Tracks))
		for _, t := range res.Tracks {
			if t.VideoID == "" {
				continue
			}
			title := t.Title
			if len(t.Artists) > 0 {
				title += " - " + t.Artists[0].Name
			}
			out = append(out, Suggestion{Title: title, URL: track.PageURL(t.VideoID), Source: "ytmusic"})
		}
		return out, nil
	}}
}

func YouTubeSource() Source {
	return Source{Name: "youtube", Fetch: func(ctx context.Context, q string) ([]Suggestion, error) {
		res, err := ytsearch.NewClient(nil).Search(ctx, q)
		if err != nil {
			return nil, err
		}
		out := make([]Suggestion, 0, len(res.Results))
		for _, r := range res.Results {
			if r.VideoID == "" {
				continue
			}
			title := r.Title
			if d := track.ParseColonDuration(r.Duration); d > 0 {
				title += " (" + track.FormatDuration(d) + ")"
			}
			out = append(out, Suggestion{Title: title, URL: track.PageURL(r.VideoID), Source: "youtube"})
		}
		return out, nil
	}}
}

// Suggest returns at most MaxSuggestions choices. Sources that miss the
// deadline are dropped.
func (s *Suggester) Suggest(ctx context.Context, query string) []Suggestion {
	key := strings.ToLower(strings.TrimSpace(query))
	if key == "" {
		return nil
	}

	s.mu.RLock()
	if item, ok := s.cache[key]; ok && time.Now().Before(item.expiresAt) {
		s.mu.RUnlock()
		return item.items
	}
	s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		resMu   sync.Mutex
		results = make([][]Suggestion, len(s.sources))
		wg      sync.WaitGroup
	)
	for i, src := range s.sources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			items, err := src.Fetch(ctx, query)
			if err != nil {
				sys.LogSearch(sys.MsgSearchSuggestFailed, src.Name, err)
				return
			}
			resMu.Lock()
			results[i] = items
			resMu.Unlock()
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}

	resMu.Lock()
	defer resMu.Unlock()
	merged := lo.UniqBy(lo.Flatten(results), func(sg Suggestion) string { return sg.URL })
	return s.store(key, Rank(query, merged))
}

func (s *Suggester) store(key string, items []Suggestion) []Suggestion {
	if len(items) > MaxSuggestions {
		items = items[:MaxSuggestions]
	}
	if len(items) > 0 {
		s.mu.Lock()
		s.cache[key] = cachedSuggestions{items: items, expiresAt: time.Now().Add(SuggestCacheTTL)}
		s.mu.Unlock()
	}
	return items
}

// Sweep drops expired cache entries.
func (s *Suggester) Sweep() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, item := range s.cache {
		if now.After(item.expiresAt) {
			delete(s.cache, k)
		}
	}
}

// Rank orders suggestions by fuzzy distance to query. Titles that do not
// match keep their original relative order after the matches.
func Rank(query string, items []Suggestion) []Suggestion {
	type ranked struct {
		Suggestion
		dist int
	}
	rs := lo.Map(items, func(sg Suggestion, _ int) ranked {
		return ranked{sg, fuzzy.RankMatchNormalizedFold(query, sg.Title)}
	})
	slices.SortStableFunc(rs, func(a, b ranked) int {
		switch {
		case a.dist < 0 && b.dist < 0:
			return 0
		case a.dist < 0:
			return 1
		case b.dist < 0:
			return -1
		}
		return a.dist - b.dist
	})
	return lo.Map(rs, func(r ranked, _ int) Suggestion { return r.Suggestion })
}
