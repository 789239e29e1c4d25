package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowgraph/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Validated 12 nodes (3ms)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default() if none is attached.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// =============================================================================
// Observability Hooks
// =============================================================================

// logHooks reports core events to a logger at debug level.
type logHooks struct {
	logger *log.Logger
}

// installHooks routes every observability hook to l.
func installHooks(l *log.Logger) {
	h := logHooks{logger: l.WithPrefix("hooks")}
	observability.SetEditorHooks(h)
	observability.SetValidationHooks(h)
	observability.SetSerializerHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

func (h logHooks) OnEdit(op string, version uint64) {
	h.logger.Debug("edit", "op", op, "version", version)
}

func (h logHooks) OnEditRejected(op string, err error) {
	h.logger.Debug("edit rejected", "op", op, "err", err)
}

func (h logHooks) OnValidate(nodeCount, violations int, d time.Duration) {
	h.logger.Debug("validated", "nodes", nodeCount, "violations", violations, "duration", d)
}

func (h logHooks) OnTransition(from, to string, err error) {
	h.logger.Debug("transition", "from", from, "to", to, "allowed", err == nil)
}

func (h logHooks) OnDecode(format string, nodeCount, issues int, d time.Duration) {
	h.logger.Debug("decoded", "format", format, "nodes", nodeCount, "issues", issues, "duration", d)
}

func (h logHooks) OnEncode(format string, nodeCount int) {
	h.logger.Debug("encoded", "format", format, "nodes", nodeCount)
}

func (h logHooks) OnMigrate(from, to int) {
	h.logger.Debug("migrated", "from", from, "to", to)
}

func (h logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

// Requests are already logged by the server at info level.
func (h logHooks) OnRequest(context.Context, string, string) {}

func (h logHooks) OnResponse(_ context.Context, method, path string, status int, d time.Duration) {
	if status >= 500 {
		h.logger.Debug("server error", "method", method, "path", path, "status", status, "duration", d)
	}
}
