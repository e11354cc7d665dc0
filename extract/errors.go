package extract

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBotDetection marks a sign-in or captcha challenge. It only rules out
	// the current persona and format combination.
	ErrBotDetection = errors.New("bot detection challenge")
	// ErrPermanentlyUnavailable marks a removed, private, or restricted item.
	ErrPermanentlyUnavailable = errors.New("video unavailable")
	// ErrValidationFailed means the stream URL did not answer with 200 or 206.
	ErrValidationFailed = errors.New("stream validation failed")
	// ErrExtractionExhausted means every persona, format, and attempt failed.
	ErrExtractionExhausted = errors.New("all extraction strategies failed")
	// ErrRecentlyFailed rejects a URL that is still in the failed set.
	ErrRecentlyFailed = errors.New("url failed recently")
	// ErrNoStream means the engine answered without a usable stream URL.
	ErrNoStream = errors.New("no stream url in engine result")
)

var (
	botPhrases       = []string{"sign in", "bot", "captcha", "blocked", "confirm you're not a bot"}
	permanentPhrases = []string{"unavailable", "restricted", "private", "removed"}
)

// Classify maps an engine message onto ErrBotDetection or
// ErrPermanentlyUnavailable. It returns nil for anything else.
func Classify(msg string) error {
	m := strings.ToLower(msg)
	for _, p := range botPhrases {
		if strings.Contains(m, p) {
			return ErrBotDetection
		}
	}
	for _, p := range permanentPhrases {
		if strings.Contains(m, p) {
			return ErrPermanentlyUnavailable
		}
	}
	return nil
}

// EngineError is returned by Engine implementations.
type EngineError struct {
	Target string
	Stderr string
	Err    error
}

func (e *EngineError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("extract %s: %v: %s", e.Target, e.Err, firstLine(e.Stderr))
	}
	return fmt.Sprintf("extract %s: %v", e.Target, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// NewEngineError classifies stderr and wraps the matching sentinel, or cause
// when nothing matches.
func NewEngineError(target, stderr string, cause error) *EngineError {
	err := Classify(stderr)
	if err == nil && cause != nil {
		err = Classify(cause.Error())
	}
	if err == nil {
		err = cause
	}
	if err == nil {
		err = errors.New("unknown engine failure")
	}
	return &EngineError{Target: target, Stderr: stderr, Err: err}
}

// ResolveError is the terminal error of a Resolve call.
type ResolveError struct {
	URL  string
	Err  error
	Last error
}

func (e *ResolveError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("resolve %s: %v (last: %v)", e.URL, e.Err, e.Last)
	}
	return fmt.Sprintf("resolve %s: %v", e.URL, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
