package extract

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/RobertIonutF/rmusico/persona"
	"github.com/RobertIonutF/rmusico/sys"
	"github.com/RobertIonutF/rmusico/track"
)

// DefaultFormats is the format priority list: webm audio, m4a audio, a low
// quality fallback, then whatever audio is best.
var DefaultFormats = []string{
	"bestaudio[ext=webm]/bestaudio[ext=m4a]/bestaudio",
	"bestaudio[ext=webm]",
	"bestaudio[ext=m4a]",
	"worst[ext=webm]/worst[ext=m4a]",
	"bestaudio",
}

const (
	DefaultMaxAttempts   = 3
	DefaultEngineTimeout = 30 * time.Second
	DefaultMaxBackoff    = 10 * time.Second
	DefaultSweepInterval = time.Minute
)

// TitleSearcher is the search hook used by the title-recovery fallback.
type TitleSearcher interface {
	Search(ctx context.Context, query string, maxResults int) (track.Record, error)
}

// Config tunes a Resolver. Zero values take the defaults above.
type Config struct {
	Formats           []string
	MaxAttempts       int
	EngineTimeout     time.Duration
	MaxBackoff        time.Duration
	CacheCap          int
	CacheKeep         int
	FailedCap         int
	RandomizePersonas bool
	// Backoff overrides the delay before attempt+1. Defaults to
	// min(2^attempt seconds, MaxBackoff).
	Backoff func(attempt int) time.Duration
	Limiter *rate.Limiter
}

// Resolver owns the extraction cache and failed set and runs the
// persona and format rotation for each URL.
type Resolver struct {
	engine    Engine
	catalog   *persona.Catalog
	validator Validator
	searcher  TitleSearcher
	cache     *Cache
	failed    *FailedSet
	cfg       Config
}

func NewResolver(engine Engine, catalog *persona.Catalog, validator Validator, cfg Config) *Resolver {
	if len(cfg.Formats) == 0 {
		cfg.Formats = DefaultFormats
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.EngineTimeout <= 0 {
		cfg.EngineTimeout = DefaultEngineTimeout
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultMaxBackoff
	}
	if cfg.Backoff == nil {
		maxBackoff := cfg.MaxBackoff
		cfg.Backoff = func(attempt int) time.Duration { return Backoff(attempt, maxBackoff) }
	}
	if cfg.Limiter == nil {
		cfg.Limiter = rate.NewLimiter(rate.Limit(4), 8)
	}
	if catalog == nil {
		catalog = persona.Default()
	}
	return &Resolver{
		engine:    engine,
		catalog:   catalog,
		validator: validator,
		cache:     NewCache(cfg.CacheCap, cfg.CacheKeep),
		failed:    NewFailedSet(cfg.FailedCap),
		cfg:       cfg,
	}
}

// SetSearcher installs the title-recovery search hook.
func (r *Resolver) SetSearcher(s TitleSearcher) { r.searcher = s }

func (r *Resolver) Cache() *Cache { return r.cache }

func (r *Resolver) Failed() *FailedSet { return r.failed }

func (r *Resolver) Catalog() *persona.Catalog { return r.catalog }

// Backoff returns min(2^attempt seconds, max).
func Backoff(attempt int, max time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 30 {
		return max
	}
	d := time.Duration(1<<uint(attempt)) * time.Second
	if d > max {
		return max
	}
	return d
}

// Sweep applies the size bounds of the cache and failed set.
func (r *Resolver) Sweep() {
	if n := r.cache.Trim(); n > 0 {
		sys.LogExtract(sys.MsgExtractCacheTrimmed, n, r.cache.Len())
	}
	if r.failed.Trim() {
		sys.LogExtract(sys.MsgExtractFailedCleared)
	}
}

// Run sweeps on interval until ctx ends.
func (r *Resolver) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Resolve turns url into a validated, playable record. maxAttempts <= 0
// uses the configured default.
func (r *Resolver) Resolve(ctx context.Context, url string, maxAttempts int) (track.Record, error) {
	if maxAttempts <= 0 {
		maxAttempts = r.cfg.MaxAttempts
	}
	trace := uuid.NewString()[:8]

	if rec, ok := r.cache.Get(url); ok {
		if err := r.validator.Validate(ctx, rec.StreamURL); err == nil {
			sys.LogExtract(sys.MsgExtractCacheHit, trace, url)
			rec.Strategy = track.StrategyCache
			return rec, nil
		}
		r.cache.Delete(url)
	}

	if r.failed.Contains(url) {
		sys.LogExtract(sys.MsgExtractRecentlyFailed, trace, url)
		return track.Record{}, &ResolveError{URL: url, Err: ErrRecentlyFailed}
	}

	order := r.attemptOrder()
	flagged := make(map[string]bool)
	var last error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		clientsIdx := order[attempt%len(order)]
		for _, format := range r.cfg.Formats {
			clients := r.catalog.ClientOrderExcluding(clientsIdx, flagged)
			sys.LogExtract(sys.MsgExtractAttempt, trace, attempt+1, maxAttempts, format, clients)

			rec, err := r.extract(ctx, url, format, clients)
			if err == nil {
				r.cache.Put(url, rec)
				r.failed.Remove(url)
				sys.LogExtract(sys.MsgExtractSuccess, trace, rec.Title, format)
				return rec, nil
			}
			last = err

			switch {
			case errors.Is(err, ErrBotDetection):
				if len(clients) > 0 {
					flagged[clients[0]] = true
				}
				sys.LogWarn(sys.MsgExtractBotDetected, trace, format, clients)
			case errors.Is(err, ErrPermanentlyUnavailable):
				r.failed.Add(url)
				sys.LogExtract(sys.MsgExtractUnavailable, trace, url, err)
				return track.Record{}, &ResolveError{URL: url, Err: ErrPermanentlyUnavailable, Last: err}
			default:
				sys.LogExtract(sys.MsgExtractFormatFailed, trace, format, err)
			}

			if ctx.Err() != nil {
				return track.Record{}, &ResolveError{URL: url, Err: ctx.Err(), Last: last}
			}
		}

		if attempt < maxAttempts-1 {
			wait := r.cfg.Backoff(attempt)
			sys.LogExtract(sys.MsgExtractBackoff, trace, wait)
			if err := sleep(ctx, wait); err != nil {
				return track.Record{}, &ResolveError{URL: url, Err: err, Last: last}
			}
		}
	}

	r.failed.Add(url)
	sys.LogExtract(sys.MsgExtractExhausted, trace, url)

	if track.IsWatchPage(url) && r.searcher != nil {
		if rec, err := r.recoverByTitle(ctx, trace, url); err == nil {
			return rec, nil
		}
	}
	return track.Record{}, &ResolveError{URL: url, Err: ErrExtractionExhausted, Last: last}
}

// Extract runs one engine call for target with the clients of attempt,
// reduces the result to its first entry, and validates the stream.
func (r *Resolver) Extract(ctx context.Context, target, format string, attempt int) (track.Record, error) {
	return r.extract(ctx, target, format, r.catalog.ClientOrderForAttempt(attempt))
}

func (r *Resolver) extract(ctx context.Context, target, format string, clients []string) (track.Record, error) {
	if err := r.cfg.Limiter.Wait(ctx); err != nil {
		return track.Record{}, err
	}
	primary := r.catalog.Lookup(firstOr(clients, ""))
	opts := Options{
		Format:      format,
		Clients:     clients,
		Headers:     primary.Header(),
		SkipWebpage: primary.SkipWebApp,
	}
	if primary.SkipWebApp {
		opts.SkipFormats = []string{"hls", "dash"}
	}

	ectx, cancel := context.WithTimeout(ctx, r.cfg.EngineTimeout)
	info, err := r.engine.ExtractInfo(ectx, target, opts)
	cancel()
	if err != nil {
		return track.Record{}, err
	}
	first := info.First()
	if first == nil || first.URL == "" {
		return track.Record{}, ErrNoStream
	}
	if err := r.validator.Validate(ctx, first.URL); err != nil {
		return track.Record{}, err
	}
	rec := first.Record(track.StrategyPersona)
	if rec.PageURL == "" && track.IsURL(target) {
		rec.PageURL = target
	}
	return rec, nil
}

// Describe fetches descriptive metadata only, without personas or formats.
func (r *Resolver) Describe(ctx context.Context, target string) (track.Record, error) {
	if err := r.cfg.Limiter.Wait(ctx); err != nil {
		return track.Record{}, err
	}
	ectx, cancel := context.WithTimeout(ctx, r.cfg.EngineTimeout)
	defer cancel()
	info, err := r.engine.ExtractInfo(ectx, target, Options{Flat: true})
	if err != nil {
		return track.Record{}, err
	}
	first := info.First()
	if first == nil {
		return track.Record{}, ErrNoStream
	}
	rec := first.Record(track.StrategyPersona)
	rec.StreamURL = ""
	return rec, nil
}

// DescribeAll is Describe for result sets, returning every entry.
func (r *Resolver) DescribeAll(ctx context.Context, target string) ([]track.Record, error) {
	if err := r.cfg.Limiter.Wait(ctx); err != nil {
		return nil, err
	}
	ectx, cancel := context.WithTimeout(ctx, r.cfg.EngineTimeout)
	defer cancel()
	info, err := r.engine.ExtractInfo(ectx, target, Options{Flat: true})
	if err != nil {
		return nil, err
	}
	entries := info.Entries
	if entries == nil {
		entries = []RawInfo{*info}
	}
	out := make([]track.Record, 0, len(entries))
	for _, e := range entries {
		rec := e.Record(track.StrategySearch)
		if rec.PageURL == "" && track.VideoID(e.URL) != "" {
			rec.PageURL = e.URL
		}
		rec.StreamURL = ""
		out = append(out, rec)
	}
	return out, nil
}

func (r *Resolver) recoverByTitle(ctx context.Context, trace, url string) (track.Record, error) {
	desc, err := r.Describe(ctx, url)
	if err != nil || desc.Title == "" || desc.Title == track.UnknownTitle {
		sys.LogExtract(sys.MsgExtractTitleFailed, trace, url, err)
		return track.Record{}, fmt.Errorf("title recovery: %w", ErrExtractionExhausted)
	}
	sys.LogExtract(sys.MsgExtractTitleSearch, trace, desc.Title)
	rec, err := r.searcher.Search(ctx, desc.Title, 1)
	if err != nil {
		sys.LogExtract(sys.MsgExtractTitleFailed, trace, url, err)
		return track.Record{}, err
	}
	rec.Strategy = track.StrategyTitleSearch
	return rec, nil
}

// attemptOrder maps attempt numbers onto rotation indices. The randomized
// variant permutes the order per call without touching the personas.
func (r *Resolver) attemptOrder() []int {
	n := r.catalog.Len()
	if n == 0 {
		return []int{0}
	}
	if r.cfg.RandomizePersonas {
		return rand.Perm(n)
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func firstOr(s []string, def string) string {
	if len(s) == 0 {
		return def
	}
	return s[0]
}
