package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"manageexpense/internal/form"
	"manageexpense/internal/log"
	"manageexpense/internal/middleware/trace"
	"manageexpense/internal/screen"
	"manageexpense/internal/store"
)

// render executes a template into a buffer so a failure can still become a
// clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err, "template", name)
		errorResponse(http.StatusInternalServerError, "Error rendering page").Write(w)
		return
	}
	NewHTMXResponse().Status(status).HTML(buf.String()).Write(w)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	items, err := s.listExpenses(r.Context())
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to list expenses",
			log.FieldError, err, log.FieldOperation, log.OpList)
		errorResponse(http.StatusInternalServerError, "Error loading expenses").Write(w)
		return
	}
	v := newListView("Expenses", items)
	v.RequestID = trace.GetRequestID(r.Context())
	s.render(w, r, http.StatusOK, "list_page", v)
}

// open mounts the screen for id ("" for create) and answers 404/500 itself
// when it cannot.
func (s *Server) open(w http.ResponseWriter, r *http.Request, id string) (*screen.ManageExpense, *navigator, bool) {
	nav := &navigator{}
	scr, err := screen.Open(r.Context(), s.svc, nav, id)
	if err != nil {
		s.storeError(w, r, err, log.OpRead, id)
		return nil, nil, false
	}
	return scr, nav, true
}

func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error, op, id string) {
	if errors.Is(err, store.ErrNotFound) {
		errorResponse(http.StatusNotFound, "Expense not found").Write(w)
		return
	}
	log.FromContext(r.Context()).ErrorContext(r.Context(), "Expense store failure",
		log.FieldError, err, log.FieldOperation, op, log.FieldExpenseID, id)
	errorResponse(http.StatusInternalServerError, "Error saving expense").Write(w)
}

func (s *Server) renderManage(w http.ResponseWriter, r *http.Request, status int, scr *screen.ManageExpense, nav *navigator) {
	if status != http.StatusOK && isHTMX(r) {
		s.render(w, r, status, "expense_form", newFormView(scr))
		return
	}
	v := newManageView(scr, nav.options.Title)
	v.RequestID = trace.GetRequestID(r.Context())
	s.render(w, r, status, "manage_page", v)
}

func (s *Server) handleNew(w http.ResponseWriter, r *http.Request) {
	scr, nav, ok := s.open(w, r, "")
	if !ok {
		return
	}
	s.renderManage(w, r, http.StatusOK, scr, nav)
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	scr, nav, ok := s.open(w, r, r.PathValue("id"))
	if !ok {
		return
	}
	s.renderManage(w, r, http.StatusOK, scr, nav)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	s.submit(w, r, "")
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	s.submit(w, r, r.PathValue("id"))
}

// submit replays the posted values into the screen's form and presses submit.
func (s *Server) submit(w http.ResponseWriter, r *http.Request, id string) {
	if err := r.ParseForm(); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Parse form error",
			log.FieldError, err, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
		errorResponse(http.StatusBadRequest, "Invalid request format").Write(w)
		return
	}

	scr, nav, ok := s.open(w, r, id)
	if !ok {
		return
	}
	f := scr.Form()
	for _, field := range form.Fields {
		f.Change(field, sanitizeInput(r.PostForm.Get(string(field))))
	}

	done, err := scr.Submit()
	if err != nil {
		op := log.OpCreate
		if scr.IsEditing() {
			op = log.OpUpdate
		}
		s.storeError(w, r, err, op, id)
		return
	}
	if !done {
		log.FromContext(r.Context()).DebugContext(r.Context(), "Expense form rejected",
			log.FieldMode, scr.Mode().String(), log.FieldExpenseID, id)
		s.renderManage(w, r, http.StatusUnprocessableEntity, scr, nav)
		return
	}

	s.invalidateList()
	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense saved",
		log.FieldMode, scr.Mode().String(), log.FieldExpenseID, id)
	if !nav.redirect(w, r, NewHTMXResponse().
		TriggerExpenseSaved(scr.Mode().String()).
		Notify("Expense saved")) {
		s.renderManage(w, r, http.StatusOK, scr, nav)
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	scr, nav, ok := s.open(w, r, id)
	if !ok {
		return
	}
	if err := scr.Delete(); err != nil {
		s.storeError(w, r, err, log.OpDelete, id)
		return
	}

	s.invalidateList()
	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense deleted", log.FieldExpenseID, id)
	if !nav.redirect(w, r, NewHTMXResponse().
		TriggerExpenseDeleted(id).
		Notify("Expense deleted")) {
		s.renderManage(w, r, http.StatusOK, scr, nav)
	}
}

type fieldChangeView struct {
	Field fieldView
	Error string
}

// handleFieldChange applies one change event. The page posts every field
// value plus the names of the flagged fields; the form is rebuilt from them,
// the changed field is reset, and the field partial comes back together with
// an out-of-band update of the shared error message.
func (s *Server) handleFieldChange(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		errorResponse(http.StatusBadRequest, "Invalid request format").Write(w)
		return
	}
	changed, ok := form.ParseField(r.PostForm.Get("field"))
	if !ok {
		errorResponse(http.StatusBadRequest, "Unknown field").Write(w)
		return
	}

	f := form.New(form.Props{})
	for _, field := range form.Fields {
		f.Change(field, sanitizeInput(r.PostForm.Get(string(field))))
	}
	for _, name := range r.PostForm["invalid"] {
		if field, ok := form.ParseField(name); ok && field != changed {
			f.Reject(field)
		}
	}

	s.render(w, r, http.StatusOK, "field_change", fieldChangeView{
		Field: newFieldView(f, changed),
		Error: f.Error(),
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.svc.Ping(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

type metricsView struct {
	UptimeSeconds       int64   `json:"uptime_seconds"`
	TotalRequests       int64   `json:"total_requests"`
	ServerErrors        int64   `json:"server_errors"`
	AverageResponseTime int64   `json:"avg_response_time_us"`
	RateLimitHits       int64   `json:"rate_limit_hits"`
	RateLimitedClients  int64   `json:"rate_limit_clients"`
	CacheHits           int64   `json:"cache_hits"`
	CacheMisses         int64   `json:"cache_misses"`
	CacheHitRatio       float64 `json:"cache_hit_ratio"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	t := s.tracer.GetMetrics()
	rl := s.limiter.Stats()
	m := metricsView{
		UptimeSeconds:       int64(time.Since(s.started).Seconds()),
		TotalRequests:       t.TotalRequests,
		ServerErrors:        t.ServerErrors,
		AverageResponseTime: t.AverageResponseTime,
		RateLimitHits:       rl.Rejected,
		RateLimitedClients:  rl.Clients,
	}
	if s.listCache != nil {
		st := s.listCache.Stats()
		m.CacheHits, m.CacheMisses, m.CacheHitRatio = st.Hits, st.Misses, st.HitRatio()
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(m); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to encode metrics", log.FieldError, err)
	}
}
