package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	slogseq "github.com/sokkalf/slog-seq"
)

// Options configures SetupLogger
type Options struct {
	Level  slog.Level
	SeqURL string    // empty disables the Seq sink
	Output io.Writer // console destination, os.Stderr when nil
}

// ParseLevel maps debug, info, warn or error to a slog level
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

// multiHandler forwards log records to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	// Enable if any handler is enabled for this level
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range m.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

// NewConsoleHandler returns a colored handler for w. Color is only used
// when w is a terminal.
func NewConsoleHandler(w io.Writer, level slog.Leveler) slog.Handler {
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
		w = colorable.NewColorable(f)
	}
	return tint.NewHandler(w, &tint.Options{
		Level:       level,
		TimeFormat:  "15:04:05.000",
		NoColor:     noColor,
		ReplaceAttr: dropEmpty,
	})
}

// dropEmpty removes zero-valued attributes from console output
func dropEmpty(groups []string, a slog.Attr) slog.Attr {
	switch v := a.Value.Any().(type) {
	case string:
		if v == "" {
			return slog.Attr{}
		}
	case time.Duration:
		if v == 0 {
			return slog.Attr{}
		}
	case nil:
		return slog.Attr{}
	}
	return a
}

// SetupLogger builds the process logger and returns a cleanup function
// that flushes and closes the Seq sink, if any
func SetupLogger(opts Options) (*slog.Logger, func()) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	consoleHandler := NewConsoleHandler(out, opts.Level)

	if opts.SeqURL == "" {
		return slog.New(consoleHandler), func() {}
	}

	// Seq handler
	_, seqHandler := slogseq.NewLogger(
		opts.SeqURL,
		slogseq.WithBatchSize(1),
		slogseq.WithFlushInterval(500*time.Millisecond),
		slogseq.WithHandlerOptions(&slog.HandlerOptions{
			Level:     opts.Level,
			AddSource: true,
		}),
	)

	// If Seq is not available, use console only
	if seqHandler == nil {
		return slog.New(consoleHandler), func() {}
	}

	// Combine both handlers
	multi := &multiHandler{
		handlers: []slog.Handler{consoleHandler, seqHandler},
	}

	closeFn := func() {
		seqHandler.Close()
	}
	return slog.New(multi), closeFn
}
