package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseWritesStatusAndHTML(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().Status(http.StatusUnprocessableEntity).HTML("<form></form>").Write(w)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "<form></form>", w.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Empty(t, w.Header().Get("HX-Trigger"))
}

func TestResponseTriggers(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().
		TriggerExpenseSaved("edit").
		TriggerExpenseDeleted("e2").
		Notify("Expense saved").
		Write(w)

	var events map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &events))
	assert.Equal(t, "edit", events[eventExpenseSaved]["mode"])
	assert.Equal(t, "e2", events[eventExpenseDeleted]["id"])
	assert.Equal(t, "success", events[eventNotification]["type"])
	assert.Equal(t, "Expense saved", events[eventNotification]["message"])
	assert.EqualValues(t, notificationDurationMs, events[eventNotification]["duration"])
}

func TestResponseRedirect(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().Redirect(backTarget).Write(w)
	assert.Equal(t, "/", w.Header().Get("HX-Redirect"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestErrorResponse(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusNotFound, http.StatusTooManyRequests, http.StatusInternalServerError} {
		w := httptest.NewRecorder()
		errorResponse(status, "Expense not found").Write(w)
		assert.Equal(t, status, w.Code)
		assert.Equal(t, `<div class="error" role="alert">Expense not found</div>`, w.Body.String())
	}
}

func TestErrorResponseEscapesMessage(t *testing.T) {
	w := httptest.NewRecorder()
	errorResponse(http.StatusBadRequest, "<script>alert('x')</script>").Write(w)
	assert.NotContains(t, w.Body.String(), "<script>")
	assert.Contains(t, w.Body.String(), "&lt;script&gt;")
}

func TestNavigatorRedirectsOnlyAfterGoBack(t *testing.T) {
	post := func(htmx bool) *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/expenses", nil)
		if htmx {
			r.Header.Set("HX-Request", "true")
		}
		return r
	}

	nav := &navigator{}
	w := httptest.NewRecorder()
	assert.False(t, nav.redirect(w, post(false), NewHTMXResponse()))
	assert.Empty(t, w.Header().Get("Location"))
	assert.Empty(t, w.Body.String())

	nav.GoBack()
	w = httptest.NewRecorder()
	require.True(t, nav.redirect(w, post(false), NewHTMXResponse()))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, backTarget, w.Header().Get("Location"))

	w = httptest.NewRecorder()
	require.True(t, nav.redirect(w, post(true), NewHTMXResponse().Notify("Expense saved")))
	assert.Equal(t, backTarget, w.Header().Get("HX-Redirect"))
	assert.Contains(t, w.Header().Get("HX-Trigger"), "Expense saved")
}
