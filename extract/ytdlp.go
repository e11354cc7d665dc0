package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/lrstanley/go-ytdlp"
)

// YtdlpEngine runs yt-dlp through go-ytdlp and decodes its single JSON dump.
type YtdlpEngine struct {
	CookiesPath string
	Proxy       string
	ExtraArgs   []string
}

// NewYtdlpEngine returns an engine with cookies applied when the file exists.
func NewYtdlpEngine(cookiesPath, proxy string) *YtdlpEngine {
	e := &YtdlpEngine{Proxy: proxy}
	if cookiesPath != "" {
		if _, err := os.Stat(cookiesPath); err == nil {
			e.CookiesPath = cookiesPath
		}
	}
	return e
}

func (e *YtdlpEngine) newCommand() *ytdlp.Command {
	cmd := ytdlp.New().
		Quiet().
		NoWarnings().
		IgnoreConfig()
	if e.Proxy != "" {
		cmd.Proxy(e.Proxy)
	}
	return cmd
}

// Args builds the yt-dlp argument list for target and opts.
func (e *YtdlpEngine) Args(target string, opts Options) []string {
	args := []string{
		"--no-playlist",
		"--no-check-certificates",
		"--socket-timeout", "30",
		"--dump-single-json",
		"--skip-download",
	}
	if opts.Flat {
		args = append(args, "--flat-playlist", "--ignore-no-formats-error")
	} else if opts.Format != "" {
		args = append(args, "-f", opts.Format)
	}
	if xa := extractorArgs(opts); xa != "" {
		args = append(args, "--extractor-args", xa)
	}
	keys := make([]string, 0, len(opts.Headers))
	for k := range opts.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "--add-headers", k+":"+opts.Headers[k])
	}
	if e.CookiesPath != "" {
		args = append(args, "--cookies", e.CookiesPath)
	}
	args = append(args, e.ExtraArgs...)
	return append(args, target)
}

func extractorArgs(opts Options) string {
	var parts []string
	if len(opts.Clients) > 0 && !opts.Flat {
		parts = append(parts, "player_client="+strings.Join(opts.Clients, ","))
	}
	if opts.SkipWebpage {
		parts = append(parts, "player_skip=webpage")
	}
	if len(opts.SkipFormats) > 0 {
		parts = append(parts, "skip="+strings.Join(opts.SkipFormats, ","))
	}
	if len(parts) == 0 {
		return ""
	}
	return "youtube:" + strings.Join(parts, ";")
}

// ExtractInfo implements Engine.
func (e *YtdlpEngine) ExtractInfo(ctx context.Context, target string, opts Options) (*RawInfo, error) {
	res, err := e.newCommand().Run(ctx, e.Args(target, opts)...)
	var stdout, stderr string
	if res != nil {
		stdout, stderr = res.Stdout, res.Stderr
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, &EngineError{Target: target, Stderr: stderr, Err: ctx.Err()}
		}
		return nil, NewEngineError(target, stderr, err)
	}

	var info RawInfo
	if err := json.Unmarshal([]byte(strings.TrimSpace(stdout)), &info); err != nil {
		return nil, &EngineError{Target: target, Stderr: stderr, Err: fmt.Errorf("decode engine output: %w", err)}
	}
	if info.First() == nil {
		return nil, &EngineError{Target: target, Err: errors.New("empty result set")}
	}
	return &info, nil
}
