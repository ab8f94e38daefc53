// Package log provides structured logging for estimator and plotting
// operations, built on the standard log/slog JSON handler.
//
// Errors created by pkg/errors carry cockroachdb stack traces; the handler
// installed here surfaces them as a "stacktrace" attribute so that a single
// log.ErrAttr(err) field is enough to get a full trace in the output.
package log

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
)

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// Standard attribute keys used across the library. Keeping them in one
// place makes per-fold and per-response log lines filterable.
const (
	ModelNameKey = "model.name"
	OperationKey = "ml.operation"
	ResponseKey  = "ml.response"
	SamplesKey   = "data.samples"
	FeaturesKey  = "data.features"
	FoldKey      = "cv.fold"
	BandwidthKey = "kde.bandwidth"
	ScoreKey     = "cv.score"
)

// SetupLogger installs a JSON slog logger at the given level as the
// process default.
func SetupLogger(loglevel string) {
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     ToLogLevel(loglevel),
	}
	handler := slog.NewJSONHandler(os.Stdout, &ops)
	slog.SetDefault(slog.New(wrapStackHandler(handler)))
}

// ToLogLevel converts a level name to a slog.Level.
func ToLogLevel(level string) slog.Level {
	switch level {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		panic(fmt.Sprintf("invalid log level :%s", level))
	}
}

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}

// stackHandler decorates records that carry an ErrAttrKey attribute with
// the stacktrace recorded by cockroachdb/errors.
type stackHandler struct {
	inner slog.Handler
}

func wrapStackHandler(inner slog.Handler) slog.Handler {
	return &stackHandler{inner: inner}
}

func (h *stackHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.inner.Enabled(ctx, l)
}

func (h *stackHandler) Handle(ctx context.Context, r slog.Record) error {
	var trace string
	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key != ErrAttrKey {
			return true
		}
		if err, ok := attr.Value.Any().(error); ok {
			if details := errors.GetSafeDetails(err).SafeDetails; len(details) > 0 {
				trace = details[0]
			}
		}
		return false
	})
	if trace != "" {
		r.AddAttrs(slog.String(StacktraceAttrKey, trace))
	}
	return h.inner.Handle(ctx, r)
}

func (h *stackHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &stackHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *stackHandler) WithGroup(g string) slog.Handler {
	return &stackHandler{inner: h.inner.WithGroup(g)}
}
