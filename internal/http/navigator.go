package http

import (
	"net/http"

	"manageexpense/internal/screen"
)

// backTarget is where GoBack leads: the expense list.
const backTarget = "/"

// navigator records what a screen asked for during one request. The
// handler turns it into a response once the screen returns.
type navigator struct {
	wentBack bool
	options  screen.Options
}

func (n *navigator) GoBack() { n.wentBack = true }

func (n *navigator) SetOptions(o screen.Options) { n.options = o }

// redirect performs the recorded GoBack: HX-Redirect for htmx requests,
// 303 See Other for plain form posts. It writes nothing and reports false
// when the screen never asked to leave.
func (n *navigator) redirect(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder) bool {
	if !n.wentBack {
		return false
	}
	if isHTMX(r) {
		b.Redirect(backTarget).Write(w)
		return true
	}
	http.Redirect(w, r, backTarget, http.StatusSeeOther)
	return true
}
