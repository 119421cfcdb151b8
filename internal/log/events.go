package log

import (
	"context"
	"log/slog"
	"net/http"

	"manageexpense/internal/core"
)

// StructuredLogger writes the recurring records (request lifecycle, expense
// mutations, failures) with a fixed set of attributes.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

func requestAttrs(r *http.Request, clientIP string) []slog.Attr {
	attrs := []slog.Attr{
		slog.String(FieldMethod, r.Method),
		slog.String(FieldPath, r.URL.Path),
	}
	if r.URL.RawQuery != "" {
		attrs = append(attrs, slog.String(FieldQuery, r.URL.RawQuery))
	}
	if clientIP != "" {
		attrs = append(attrs, slog.String(FieldClientIP, clientIP))
	}
	return attrs
}

// LogHTTPStart is debug only.
func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	if !sl.logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	attrs := requestAttrs(r, clientIP)
	if ua := r.UserAgent(); ua != "" {
		attrs = append(attrs, slog.String(FieldUserAgent, ua))
	}
	sl.logger.LogAttrs(ctx, slog.LevelDebug, "HTTP request started", attrs...)
}

// LogHTTPEnd logs 4xx at warn and 5xx at error.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}
	attrs := append(requestAttrs(r, clientIP),
		slog.Int(FieldStatusCode, statusCode),
		slog.Int64(FieldDuration, durationMs))
	sl.logger.LogAttrs(ctx, level, "HTTP request completed", attrs...)
}

// LogExpenseMutation records a committed create, update or delete. The
// description is left out; it is user text.
func (sl *StructuredLogger) LogExpenseMutation(ctx context.Context, op string, e core.Expense) {
	attrs := []slog.Attr{
		slog.String(FieldOperation, op),
		slog.String(FieldExpenseID, e.ID),
	}
	if !e.Date.IsZero() {
		attrs = append(attrs,
			slog.String(FieldExpenseDate, core.FormatDate(e.Date)),
			slog.Int64(FieldAmountCents, e.Amount.Cents))
	}
	if e.Version > 0 {
		attrs = append(attrs, slog.Int64(FieldVersion, e.Version))
	}
	sl.logger.LogAttrs(ctx, slog.LevelInfo, "Expense "+op+"d", attrs...)
}

func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, op string, attrs ...slog.Attr) {
	attrs = append(attrs, slog.String(FieldOperation, op))
	if err != nil {
		attrs = append(attrs, slog.String(FieldError, err.Error()))
	}
	sl.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}
