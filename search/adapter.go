// Package search finds playable records for free-text queries and falls back
// from direct links to searches when extraction is blocked.
package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/RobertIonutF/rmusico/extract"
	"github.com/RobertIonutF/rmusico/metadata"
	"github.com/RobertIonutF/rmusico/sys"
	"github.com/RobertIonutF/rmusico/track"
)

// SearchFormat is the format used for search hits.
const SearchFormat = "bestaudio[ext=webm]/bestaudio"

// DirectAttempts is the attempt budget for a direct link before falling back
// to search.
const DirectAttempts = 2

// Variants are the suffixes tried after the literal query.
var Variants = []string{" audio", " official", " music", " full"}

// ErrSearchEmpty means no validated result was found.
var ErrSearchEmpty = errors.New("no search results")

// DescriptiveError carries the best descriptive-only record available when
// nothing playable could be found.
type DescriptiveError struct {
	Record track.Record
	Err    error
}

func (e *DescriptiveError) Error() string {
	return fmt.Sprintf("no playable stream for %q: %v", e.Record.Title, e.Err)
}

func (e *DescriptiveError) Unwrap() error { return e.Err }

type Describer interface {
	FetchDescriptive(ctx context.Context, videoID string) (track.Record, bool)
}

// Adapter runs searches through the resolver's persona rotation.
type Adapter struct {
	resolver *extract.Resolver
	meta     Describer
	attempts int
}

// NewAdapter wires an adapter and installs it as the resolver's title
// searcher. meta may be nil.
func NewAdapter(resolver *extract.Resolver, meta Describer) *Adapter {
	if meta == nil {
		meta = metadata.NewFetcher()
	}
	a := &Adapter{resolver: resolver, meta: meta, attempts: resolver.Catalog().Len()}
	resolver.SetSearcher(a)
	return a
}

// Search returns the top validated hit for query. Bot detection rotates to
// the next persona; any other failure ends the search.
func (a *Adapter) Search(ctx context.Context, query string, maxResults int) (track.Record, error) {
	sys.LogSearch(sys.MsgSearchQuery, query)
	target := extract.SearchTarget(maxResults, query)

	var last error
	for attempt := 0; attempt < max(a.attempts, 1); attempt++ {
		rec, err := a.resolver.Extract(ctx, target, SearchFormat, attempt)
		if err == nil {
			rec.Strategy = track.StrategySearch
			sys.LogSearch(sys.MsgSearchFound, rec.Title)
			return rec, nil
		}
		last = err
		if ctx.Err() != nil {
			return track.Record{}, ctx.Err()
		}
		if !errors.Is(err, extract.ErrBotDetection) {
			break
		}
	}
	sys.LogSearch(sys.MsgSearchNoResults, query)
	return track.Record{}, fmt.Errorf("%w for %q: %v", ErrSearchEmpty, query, last)
}

// SearchWithVariants tries the literal query, then each suffix variant, and
// stops at the first hit.
func (a *Adapter) SearchWithVariants(ctx context.Context, query string) (track.Record, error) {
	rec, err := a.Search(ctx, query, 1)
	if err == nil {
		return rec, nil
	}
	for _, suffix := range Variants {
		if ctx.Err() != nil {
			return track.Record{}, ctx.Err()
		}
		v := query + suffix
		if rec, verr := a.Search(ctx, v, 1); verr == nil {
			sys.LogSearch(sys.MsgSearchVariantFound, v)
			return rec, nil
		}
	}
	return track.Record{}, err
}

// Resolve turns a link or a query into a playable record. Links are
// extracted directly, then searched by video ID. When everything fails for a
// link the returned error is a *DescriptiveError.
func (a *Adapter) Resolve(ctx context.Context, input string) (track.Record, error) {
	if !track.IsURL(input) {
		return a.SearchWithVariants(ctx, input)
	}

	rec, err := a.resolver.Resolve(ctx, input, DirectAttempts)
	if err == nil {
		return rec, nil
	}
	if ctx.Err() != nil {
		return track.Record{}, err
	}

	id := track.VideoID(input)
	if !errors.Is(err, extract.ErrPermanentlyUnavailable) && id != "" {
		sys.LogSearch(sys.MsgSearchDirectFailed, err)
		for _, q := range []string{id, "site:youtube.com " + id} {
			if rec, serr := a.Search(ctx, q, 1); serr == nil {
				return rec, nil
			}
		}
	}

	if id == "" {
		return track.Record{}, err
	}
	desc, ok := a.meta.FetchDescriptive(ctx, id)
	if !ok {
		return track.Record{}, err
	}
	return track.Record{}, &DescriptiveError{Record: desc, Err: err}
}

// List returns up to n descriptive records for query without resolving
// streams.
func (a *Adapter) List(ctx context.Context, query string, n int) ([]track.Record, error) {
	recs, err := a.resolver.DescribeAll(ctx, extract.SearchTarget(n, query))
	if err != nil {
		return nil, fmt.Errorf("%w for %q: %v", ErrSearchEmpty, query, err)
	}
	if len(recs) == 0 {
		return nil, ErrSearchEmpty
	}
	if len(recs) > n {
		recs = recs[:n]
	}
	return recs, nil
}
