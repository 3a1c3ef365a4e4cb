package instrument

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strconv"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// parseLevel falls back to info for anything slog does not recognise.
func parseLevel(s string) slog.Level {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "warning") {
		s = "warn"
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func initLogging(cfg *Config, lp *sdklog.LoggerProvider) {
	slog.SetDefault(slog.New(newLogHandler(os.Stdout, cfg, lp)))
}

func newLogHandler(w io.Writer, cfg *Config, lp *sdklog.LoggerProvider) slog.Handler {
	sinks := []slog.Handler{slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       parseLevel(cfg.LogLevel),
		AddSource:   true,
		ReplaceAttr: renameAttr,
	})}
	if lp != nil {
		sinks = append(sinks, otelslog.NewHandler(cfg.ServiceName, otelslog.WithLoggerProvider(lp)))
	}

	return &logHandler{sinks: sinks, masker: NewMasker(cfg.MaskFields), service: cfg.ServiceName}
}

// renameAttr shortens the built-in keys and keeps source only for our own
// packages, as a path relative to the repository.
func renameAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "ts"
	case slog.LevelKey:
		a.Key = "severity"
	case slog.SourceKey:
		src, ok := a.Value.Any().(*slog.Source)
		if !ok {
			return a
		}
		if _, rel, found := strings.Cut(src.File, "/internal/"); found {
			return slog.String("file", "internal/"+rel+":"+strconv.Itoa(src.Line))
		}
		return slog.Attr{}
	}
	return a
}

// logHandler masks every record, stamps it with the service name and the
// request correlation ID, and hands it to each sink.
type logHandler struct {
	sinks   []slog.Handler
	masker  *Masker
	service string
}

func (h *logHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return slices.ContainsFunc(h.sinks, func(s slog.Handler) bool { return s.Enabled(ctx, level) })
}

func (h *logHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.mask(a))
		return true
	})
	if cID := GetCorrelationID(ctx); cID != "" {
		out.AddAttrs(slog.String("_cID", cID))
	}
	out.AddAttrs(slog.String("service", h.service))

	var errs []error
	for _, s := range h.sinks {
		if s.Enabled(ctx, out.Level) {
			errs = append(errs, s.Handle(ctx, out.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (h *logHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	safe := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		safe[i] = h.mask(a)
	}
	return h.each(func(s slog.Handler) slog.Handler { return s.WithAttrs(safe) })
}

func (h *logHandler) WithGroup(name string) slog.Handler {
	return h.each(func(s slog.Handler) slog.Handler { return s.WithGroup(name) })
}

func (h *logHandler) each(fn func(slog.Handler) slog.Handler) *logHandler {
	sinks := make([]slog.Handler, len(h.sinks))
	for i, s := range h.sinks {
		sinks[i] = fn(s)
	}
	return &logHandler{sinks: sinks, masker: h.masker, service: h.service}
}

func (h *logHandler) mask(a slog.Attr) slog.Attr {
	if h.masker.hides(a.Key) {
		return slog.String(a.Key, masked)
	}

	switch a.Value.Kind() {
	case slog.KindGroup:
		group := a.Value.Group()
		out := make([]slog.Attr, len(group))
		for i, ga := range group {
			out[i] = h.mask(ga)
		}
		a.Value = slog.GroupValue(out...)
	case slog.KindString:
		// JSON payloads logged as strings are masked field by field.
		s := a.Value.String()
		if s == "" || (s[0] != '{' && s[0] != '[') {
			break
		}
		if v, ok := h.masker.JSON([]byte(s)); ok {
			if b, err := json.Marshal(v); err == nil {
				a.Value = slog.StringValue(string(b))
			}
		}
	case slog.KindAny:
		switch v := a.Value.Any().(type) {
		case map[string]any, []any:
			a.Value = slog.AnyValue(h.masker.Value(v))
		case http.Header:
			a.Value = slog.AnyValue(h.masker.Header(v))
		}
	}
	return a
}
