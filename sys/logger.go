package sys

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// --- Globals & Styles ---

var (
	// Level colors
	infoColor  = color.New()
	debugColor = color.New(color.FgHiBlack)
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed)
	fatalColor = color.New(color.FgRed, color.Bold)

	// Component colors
	extractColor  = color.New(color.FgMagenta)
	searchColor   = color.New(color.FgBlue)
	metadataColor = color.New(color.FgHiBlue)
	queueColor    = color.New(color.FgGreen)
	voiceColor    = color.New(color.FgMagenta)
	loaderColor   = color.New()
	statusColor   = color.New(color.FgHiGreen)
	otherColor    = color.New(color.FgCyan)

	DefaultTimeFormat = "15:04:05"
	IsSilent          = false
	Logger            *slog.Logger

	logFile *os.File
	logMu   sync.Mutex
)

func init() {
	InitLogger(false, "")
}

// InitLogger installs the colourised handler as the slog default. When
// logPath is set, output is mirrored to that file without ANSI codes.
func InitLogger(silent bool, logPath string) {
	logMu.Lock()
	defer logMu.Unlock()

	IsSilent = silent
	level := slog.LevelInfo
	if strings.ToLower(os.Getenv("DEBUG")) == "true" {
		level = slog.LevelDebug
	}

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	var writer io.Writer = os.Stdout
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open %s: %v\n", logPath, err)
		} else {
			logFile = f
			writer = io.MultiWriter(os.Stdout, ansiStripper{f})
		}
	}

	Logger = slog.New(NewLogHandler(writer, &LogHandlerOptions{
		Silent: IsSilent,
		Level:  level,
	}))
	slog.SetDefault(Logger)
}

// --- Public Logging API ---

// LevelFatal sits above slog.LevelError.
const LevelFatal = slog.LevelError + 4

const componentKey = "component"

func LogInfo(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...))
}

func LogWarn(format string, v ...any) {
	slog.Warn(fmt.Sprintf(format, v...))
}

func LogError(format string, v ...any) {
	slog.Error(fmt.Sprintf(format, v...))
}

// LogFatal logs at LevelFatal and panics with the message.
func LogFatal(format string, v ...any) {
	msg := fmt.Sprintf(format, v...)
	slog.Log(context.Background(), LevelFatal, msg)
	panic(msg)
}

func LogDebug(format string, v ...any) {
	slog.Debug(fmt.Sprintf(format, v...))
}

// Component Loggers

func logAs(component, format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...), slog.String(componentKey, component))
}

func LogExtract(format string, v ...any)  { logAs("extract", format, v...) }
func LogSearch(format string, v ...any)   { logAs("search", format, v...) }
func LogMetadata(format string, v ...any) { logAs("metadata", format, v...) }
func LogQueue(format string, v ...any)    { logAs("queue", format, v...) }
func LogVoice(format string, v ...any)    { logAs("voice", format, v...) }
func LogLoader(format string, v ...any)   { logAs("loader", format, v...) }
func LogStatus(format string, v ...any)   { logAs("status", format, v...) }

// --- Log Handler Implementation ---

type LogHandlerOptions struct {
	Silent bool
	Level  slog.Leveler
}

// LogHandler writes one coloured line per record. A component attribute,
// on the record or bound with WithAttrs, tags the line and picks its colour.
type LogHandler struct {
	w         io.Writer
	opts      *LogHandlerOptions
	mu        *sync.Mutex
	component string
}

func NewLogHandler(w io.Writer, opts *LogHandlerOptions) *LogHandler {
	if opts == nil {
		opts = &LogHandlerOptions{Level: slog.LevelInfo}
	}
	return &LogHandler{w: w, opts: opts, mu: &sync.Mutex{}}
}

func (h *LogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return !h.opts.Silent && level >= h.opts.Level.Level()
}

type levelStyle struct {
	min   slog.Level
	label string
	color *color.Color
}

// most severe first
var levelStyles = []levelStyle{
	{LevelFatal, "FATAL", fatalColor},
	{slog.LevelError, "ERROR", errorColor},
	{slog.LevelWarn, "WARN", warnColor},
	{slog.LevelInfo, "INFO", infoColor},
}

func styleFor(level slog.Level) levelStyle {
	for _, st := range levelStyles {
		if level >= st.min {
			return st
		}
	}
	return levelStyle{level, "DEBUG", debugColor}
}

var componentColors = map[string]*color.Color{
	"EXTRACT":  extractColor,
	"SEARCH":   searchColor,
	"METADATA": metadataColor,
	"QUEUE":    queueColor,
	"VOICE":    voiceColor,
	"LOADER":   loaderColor,
	"STATUS":   statusColor,
}

func componentColor(name string) *color.Color {
	if c, ok := componentColors[name]; ok {
		return c
	}
	return otherColor
}

func (h *LogHandler) Handle(_ context.Context, r slog.Record) error {
	if h.opts.Silent {
		return nil
	}

	st := styleFor(r.Level)
	component := h.component
	r.Attrs(func(a slog.Attr) bool {
		if a.Key != componentKey {
			return true
		}
		component = strings.ToUpper(a.Value.String())
		return false
	})

	at := r.Time
	if at.IsZero() {
		at = time.Now()
	}

	var line strings.Builder
	line.WriteString(at.Format(DefaultTimeFormat))
	line.WriteByte(' ')
	if component == "" {
		line.WriteString(recolor(st.color, "["+st.label+"] "+r.Message))
	} else {
		if st.label != "INFO" {
			line.WriteString(st.color.Sprint("[" + st.label + "]"))
			line.WriteByte(' ')
		}
		line.WriteString(recolor(componentColor(component), "["+component+"] "+r.Message))
	}
	line.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, line.String())
	return err
}

func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	for _, a := range attrs {
		if a.Key == componentKey {
			next.component = strings.ToUpper(a.Value.String())
		}
	}
	return &next
}

func (h *LogHandler) WithGroup(string) slog.Handler { return h }

// --- Formatting Helpers ---

const ansiReset = "\x1b[0m"

// recolor paints text with c and re-opens c after every reset embedded in
// text, so pre-coloured fragments do not end the outer colour early.
func recolor(c *color.Color, text string) string {
	if !strings.Contains(text, ansiReset) {
		return c.Sprint(text)
	}
	seq := c.Sprint("")
	end := strings.IndexByte(seq, 'm')
	if end < 0 {
		return text
	}
	return c.Sprint(strings.ReplaceAll(text, ansiReset, ansiReset+seq[:end+1]))
}

// GetLogPath returns the mirrored log file, if any.
func GetLogPath() string {
	logMu.Lock()
	defer logMu.Unlock()
	if logFile == nil {
		return ""
	}
	return logFile.Name()
}

var ansiSeq = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// ansiStripper drops colour escapes before they reach a file.
type ansiStripper struct {
	w io.Writer
}

func (s ansiStripper) Write(p []byte) (int, error) {
	if _, err := s.w.Write(ansiSeq.ReplaceAll(p, nil)); err != nil {
		return 0, err
	}
	return len(p), nil
}
