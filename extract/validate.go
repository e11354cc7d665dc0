package extract

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultValidateTimeout = 10 * time.Second
	validateUserAgent      = "Mozilla/5.0 (Linux; Android 11; SM-G973F) AppleWebKit/537.36"
)

// Validator checks that a stream URL is reachable before it is trusted.
type Validator interface {
	Validate(ctx context.Context, streamURL string) error
}

// HTTPValidator issues a HEAD request and accepts 200 or 206.
type HTTPValidator struct {
	Client    *http.Client
	Timeout   time.Duration
	UserAgent string
}

func NewHTTPValidator(client *http.Client) *HTTPValidator {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPValidator{Client: client, Timeout: DefaultValidateTimeout, UserAgent: validateUserAgent}
}

func (v *HTTPValidator) Validate(ctx context.Context, streamURL string) error {
	if !strings.HasPrefix(streamURL, "http") || strings.Contains(streamURL, "Invalid") {
		return fmt.Errorf("%w: malformed url", ErrValidationFailed)
	}
	timeout := v.Timeout
	if timeout <= 0 {
		timeout = DefaultValidateTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, streamURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	if v.UserAgent != "" {
		req.Header.Set("User-Agent", v.UserAgent)
	}
	resp, err := v.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return fmt.Errorf("%w: status %d", ErrValidationFailed, resp.StatusCode)
	}
	return nil
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(ctx context.Context, streamURL string) error

func (f ValidatorFunc) Validate(ctx context.Context, streamURL string) error {
	return f(ctx, streamURL)
}
