// Package persona defines the fixed set of client identities presented to the
// extraction engine and the deterministic rotation through them.
package persona

import (
	"math/rand/v2"
	"slices"

	"github.com/samber/lo"
)

// Client tokens understood by the engine's youtube player_client extractor arg.
const (
	ClientMWeb         = "mweb"
	ClientIOS          = "ios"
	ClientAndroidMusic = "android_music"
	ClientAndroid      = "android"
	ClientTVEmbedded   = "tv_embedded"
	ClientWebSafari    = "web_safari"
	ClientWeb          = "web"
)

const (
	mobileUserAgent  = "Mozilla/5.0 (Linux; Android 11; SM-G973F) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.120 Mobile Safari/537.36"
	androidUserAgent = "com.google.android.youtube/17.31.35 (Linux; U; Android 11) gzip"
	iosUserAgent     = "com.google.ios.youtube/19.09.3 (iPhone14,3; U; CPU iOS 15_6 like Mac OS X)"
	tvUserAgent      = "Mozilla/5.0 (ChromiumStylePlatform) Cobalt/Version"
	safariUserAgent  = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15"
	desktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Persona is an immutable client identity. Lower Priority values are tried first.
type Persona struct {
	Name       string
	Clients    []string
	Headers    map[string]string
	Priority   int
	AudioOnly  bool
	SkipWebApp bool
}

// Header returns a copy of the persona's headers.
func (p Persona) Header() map[string]string {
	out := make(map[string]string, len(p.Headers))
	for k, v := range p.Headers {
		out[k] = v
	}
	return out
}

// Catalog is the ordered, read-only persona list plus the attempt rotation table.
type Catalog struct {
	personas  []Persona
	rotations [][]string
}

// Default returns the catalog ranked by observed reliability against bot
// detection: mobile and app clients first, generic desktop web last.
func Default() *Catalog {
	return New([]Persona{
		{
			Name:       ClientMWeb,
			Clients:    []string{ClientMWeb},
			Headers:    map[string]string{"User-Agent": mobileUserAgent, "Accept-Language": "en-US,en;q=0.9"},
			Priority:   0,
			AudioOnly:  true,
			SkipWebApp: true,
		},
		{
			Name:      ClientIOS,
			Clients:   []string{ClientIOS},
			Headers:   map[string]string{"User-Agent": iosUserAgent},
			Priority:  1,
			AudioOnly: true,
		},
		{
			Name:      ClientAndroidMusic,
			Clients:   []string{ClientAndroidMusic, ClientAndroid},
			Headers:   map[string]string{"User-Agent": androidUserAgent},
			Priority:  2,
			AudioOnly: true,
		},
		{
			Name:     ClientTVEmbedded,
			Clients:  []string{ClientTVEmbedded},
			Headers:  map[string]string{"User-Agent": tvUserAgent},
			Priority: 3,
		},
		{
			Name:     ClientWebSafari,
			Clients:  []string{ClientWebSafari},
			Headers:  map[string]string{"User-Agent": safariUserAgent},
			Priority: 4,
		},
		{
			Name:     ClientWeb,
			Clients:  []string{ClientWeb},
			Headers:  map[string]string{"User-Agent": desktopUserAgent, "Accept-Language": "en-US,en;q=0.9"},
			Priority: 5,
		},
	}, [][]string{
		{ClientMWeb, ClientIOS},
		{ClientIOS, ClientAndroidMusic},
		{ClientAndroidMusic, ClientMWeb},
		{ClientMWeb},
		{ClientTVEmbedded, ClientMWeb},
		{ClientWebSafari, ClientIOS},
	})
}

// New builds a catalog. Personas are sorted by priority; rotations are used
// verbatim and must be non-empty.
func New(personas []Persona, rotations [][]string) *Catalog {
	ps := slices.Clone(personas)
	slices.SortStableFunc(ps, func(a, b Persona) int { return a.Priority - b.Priority })
	rs := make([][]string, len(rotations))
	for i, r := range rotations {
		rs[i] = slices.Clone(r)
	}
	return &Catalog{personas: ps, rotations: rs}
}

// List returns the personas in priority order.
func (c *Catalog) List() []Persona {
	return slices.Clone(c.personas)
}

// Len is the size of the rotation table.
func (c *Catalog) Len() int { return len(c.rotations) }

// ClientOrderForAttempt returns the client tokens for attempt, cycling
// through the rotation table by attempt mod N.
func (c *Catalog) ClientOrderForAttempt(attempt int) []string {
	if len(c.rotations) == 0 {
		return nil
	}
	if attempt < 0 {
		attempt = -attempt
	}
	return slices.Clone(c.rotations[attempt%len(c.rotations)])
}

// ClientOrderExcluding is ClientOrderForAttempt minus the clients in skip.
// When every client is excluded the unfiltered order is returned.
func (c *Catalog) ClientOrderExcluding(attempt int, skip map[string]bool) []string {
	order := c.ClientOrderForAttempt(attempt)
	if len(skip) == 0 {
		return order
	}
	kept := lo.Filter(order, func(client string, _ int) bool { return !skip[client] })
	if len(kept) == 0 {
		return order
	}
	return kept
}

// Lookup returns the persona that owns client, falling back to the first persona.
func (c *Catalog) Lookup(client string) Persona {
	for _, p := range c.personas {
		if slices.Contains(p.Clients, client) {
			return p
		}
	}
	if len(c.personas) == 0 {
		return Persona{}
	}
	return c.personas[0]
}

// Shuffled returns the personas in a random order. The personas themselves
// are not modified.
func (c *Catalog) Shuffled(rng *rand.Rand) []Persona {
	ps := c.List()
	if rng == nil {
		return lo.Shuffle(ps)
	}
	rng.Shuffle(len(ps), func(i, j int) { ps[i], ps[j] = ps[j], ps[i] })
	return ps
}
