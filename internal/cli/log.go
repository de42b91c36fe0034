package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/qmap/pkg/observability"
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

// done logs msg along with the elapsed time, e.g. "Ranked 3 devices (12ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// =============================================================================
// Hooks
// =============================================================================

// logHooks forwards observability events to the debug log.
type logHooks struct {
	logger *log.Logger
}

var (
	_ observability.RankHooks     = logHooks{}
	_ observability.PipelineHooks = logHooks{}
	_ observability.CacheHooks    = logHooks{}
)

func newLogHooks(l *log.Logger) logHooks {
	return logHooks{logger: l.WithPrefix("hooks")}
}

func (h logHooks) OnMatchStart(_ context.Context, device string, patternNodes int) {
	h.logger.Debug("match start", "device", device, "qubits", patternNodes)
}

func (h logHooks) OnMatchComplete(_ context.Context, device string, s observability.MatchStats) {
	h.logger.Debug("match done",
		"device", device,
		"embeddings", s.Embeddings,
		"calls", s.Calls,
		"truncated", s.Truncated,
		"duration", s.Duration.Round(time.Microsecond))
}

func (h logHooks) OnRankComplete(_ context.Context, devices, candidates int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("rank failed", "devices", devices, "err", err)
		return
	}
	h.logger.Debug("rank done", "devices", devices, "candidates", candidates, "duration", d.Round(time.Microsecond))
}

func (h logHooks) OnDeflate(_ context.Context, before, after int) {
	h.logger.Debug("deflate", "qubits", before, "active", after)
}

func (h logHooks) OnRunStart(_ context.Context, runID string, devices int) {
	h.logger.Debug("run start", "run", runID, "devices", devices)
}

func (h logHooks) OnRunComplete(_ context.Context, runID string, d time.Duration, err error) {
	h.logger.Debug("run done", "run", runID, "duration", d.Round(time.Microsecond), "err", err)
}

func (h logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "key", keyType)
}

func (h logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "key", keyType)
}

func (h logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "key", keyType, "bytes", size)
}
