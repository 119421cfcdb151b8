// Package http serves the expense list and the manage-expense screen as
// server-rendered HTML enhanced with HTMX.
package http

import (
	"encoding/json"
	"html/template"
	"net/http"
)

// Client-side events announced through HX-Trigger.
const (
	eventExpenseSaved   = "expense:saved"
	eventExpenseDeleted = "expense:deleted"
	eventNotification   = "show-notification"
)

const notificationDurationMs = 3000

// HTMXResponseBuilder collects status, HX-* headers, trigger events and an
// HTML body, then writes them in one go.
type HTMXResponseBuilder struct {
	status   int
	header   http.Header
	triggers map[string]any
	body     string
}

// NewHTMXResponse starts a 200 response.
func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		status:   http.StatusOK,
		header:   http.Header{},
		triggers: map[string]any{},
	}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.status = code
	return b
}

func (b *HTMXResponseBuilder) trigger(event string, detail any) *HTMXResponseBuilder {
	b.triggers[event] = detail
	return b
}

// TriggerExpenseSaved announces a stored expense; mode is the screen mode
// ("create" or "edit").
func (b *HTMXResponseBuilder) TriggerExpenseSaved(mode string) *HTMXResponseBuilder {
	return b.trigger(eventExpenseSaved, map[string]string{"mode": mode})
}

func (b *HTMXResponseBuilder) TriggerExpenseDeleted(id string) *HTMXResponseBuilder {
	return b.trigger(eventExpenseDeleted, map[string]string{"id": id})
}

// Notify asks the page to show a transient success toast.
func (b *HTMXResponseBuilder) Notify(message string) *HTMXResponseBuilder {
	return b.trigger(eventNotification, map[string]any{
		"type":     "success",
		"message":  message,
		"duration": notificationDurationMs,
	})
}

// Redirect makes htmx perform a full navigation to location.
func (b *HTMXResponseBuilder) Redirect(location string) *HTMXResponseBuilder {
	b.header.Set("HX-Redirect", location)
	return b
}

func (b *HTMXResponseBuilder) HTML(body string) *HTMXResponseBuilder {
	b.header.Set("Content-Type", "text/html; charset=utf-8")
	b.body = body
	return b
}

// Write flushes the response. Triggers that fail to encode are dropped; the
// page works without them.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	h := w.Header()
	for name, values := range b.header {
		h[name] = values
	}
	if len(b.triggers) > 0 {
		if raw, err := json.Marshal(b.triggers); err == nil {
			h.Set("HX-Trigger", string(raw))
		}
	}
	w.WriteHeader(b.status)
	if b.body != "" {
		_, _ = w.Write([]byte(b.body))
	}
}

// errorResponse is the small HTML fragment used for every non-form error.
// message is escaped.
func errorResponse(status int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(status).
		HTML(`<div class="error" role="alert">` + template.HTMLEscapeString(message) + `</div>`)
}
