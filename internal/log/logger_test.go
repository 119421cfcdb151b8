package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"manageexpense/internal/core"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		" warn ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerComponentIsAttachedOnce(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Component: ComponentHTTP, Output: &buf})
	l.Info("hello", "k", "v")

	out := buf.String()
	if strings.Count(out, "component=http") != 1 {
		t.Fatalf("expected component once, got: %s", out)
	}
	if !strings.Contains(out, "k=v") {
		t.Fatalf("missing attribute: %s", out)
	}
	if l.Component() != ComponentHTTP {
		t.Fatalf("Component() = %q", l.Component())
	}

	buf.Reset()
	l.WithComponent(ComponentScreen).Debug("switch")
	if !strings.Contains(buf.String(), "component=screen") {
		t.Fatalf("expected screen component: %s", buf.String())
	}
}

func TestContextRoundTrip(t *testing.T) {
	l := Discard()
	ctx := NewContext(context.Background(), l)
	if FromContext(ctx) != l {
		t.Fatal("expected the stored logger")
	}
	if got := FromContext(context.Background()); got == nil || got.Component() != "unknown" {
		t.Fatalf("expected fallback logger, got %+v", got)
	}
}

func TestMiddlewareCarriesLogger(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Output: &buf}).With(FieldRequestID, "req_42")

	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).InfoContext(r.Context(), "inside")
	})
	handler = Middleware(base)(handler)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(buf.String(), "request_id=req_42") {
		t.Fatalf("request id not propagated: %s", buf.String())
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Output: &buf, Component: ComponentExpense}))

	sl.LogExpenseMutation(context.Background(), OpCreate, core.Expense{
		ID:          "e1",
		Date:        core.NewDate(2024, 1, 10),
		Description: "Groceries",
		Amount:      core.Money{Cents: 1999},
		Version:     1,
	})
	out := buf.String()
	for _, want := range []string{"Expense created", "expense_id=e1", "expense_date=2024-01-10", "amount_cents=1999", "operation=create"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %s", want, out)
		}
	}

	buf.Reset()
	r := httptest.NewRequest(http.MethodPost, "/expenses", nil)
	sl.LogHTTPEnd(context.Background(), r, 422, 3, "127.0.0.1")
	if !strings.Contains(buf.String(), "level=WARN") || !strings.Contains(buf.String(), "status_code=422") {
		t.Fatalf("unexpected http end log: %s", buf.String())
	}

	buf.Reset()
	sl.LogExpenseMutation(context.Background(), OpDelete, core.Expense{ID: "e2"})
	if out := buf.String(); !strings.Contains(out, "Expense deleted") || strings.Contains(out, "amount_cents") {
		t.Fatalf("unexpected delete log: %s", out)
	}

	buf.Reset()
	sl.LogError(context.Background(), "boom", errors.New("disk"), OpUpdate, slog.String(FieldExpenseID, "e1"))
	if !strings.Contains(buf.String(), "error=disk") || !strings.Contains(buf.String(), "expense_id=e1") {
		t.Fatalf("unexpected error log: %s", buf.String())
	}
}
